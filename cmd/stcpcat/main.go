// Command stcpcat is a netcat-alike for exercising the stcp engine over a
// real TCP substrate: it either listens for one incoming connection or
// dials a peer, runs the three-way open, then shovels bytes between the
// connection and its own stdin/stdout until either side closes.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/basilisk-net/stcp"
	"github.com/basilisk-net/stcp/stcpmetrics"
)

// env holds the tunables this CLI reads from the environment, following
// the Env struct / envconfig.Process convention the retrieval pack uses
// for its own traffic-manager binary.
type env struct {
	MSS         int    `env:"STCPCAT_MSS,default=536"`
	MSLMillis   int    `env:"STCPCAT_MSL_MILLIS,default=1000"`
	LocalWindow int    `env:"STCPCAT_WINDOW,default=3072"`
	MetricsAddr string `env:"STCPCAT_METRICS_ADDR,default="`
}

func loadEnv(ctx context.Context) (env, error) {
	var e env
	err := envconfig.Process(ctx, &e)
	return e, err
}

func main() {
	root := &cobra.Command{
		Use:   "stcpcat",
		Short: "exercise the stcp connection engine over TCP",
	}
	root.AddCommand(listenCmd(), connectCmd())
	if err := root.Execute(); err != nil {
		slog.Error("stcpcat failed", "err", err)
		os.Exit(1)
	}
}

func listenCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "accept one connection and run the engine over it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListener(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":5000", "address to listen on")
	return cmd
}

func connectCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "dial a peer and run the engine over the connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDialer(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:5000", "address to connect to")
	return cmd
}

func buildConfig(e env) stcp.Config {
	return stcp.NewConfig(
		stcp.WithMSS(e.MSS),
		stcp.WithMSL(time.Duration(e.MSLMillis)*time.Millisecond),
		stcp.WithLocalWindow(stcp.Size(e.LocalWindow)),
	)
}

func maybeServeMetrics(addr string, collector *stcpmetrics.Collector) {
	if addr == "" {
		return
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collector)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("metrics server stopped", "err", err)
		}
	}()
}

func runListener(ctx context.Context, addr string) error {
	e, err := loadEnv(ctx)
	if err != nil {
		return fmt.Errorf("stcpcat: loading environment: %w", err)
	}
	cfg := buildConfig(e)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("stcpcat: listen: %w", err)
	}
	defer ln.Close()

	conn, err := ln.Accept()
	if err != nil {
		return fmt.Errorf("stcpcat: accept: %w", err)
	}
	defer conn.Close()

	return runEngine(ctx, conn, cfg, e.MetricsAddr, stcp.Accept)
}

func runDialer(ctx context.Context, addr string) error {
	e, err := loadEnv(ctx)
	if err != nil {
		return fmt.Errorf("stcpcat: loading environment: %w", err)
	}
	cfg := buildConfig(e)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("stcpcat: dial: %w", err)
	}
	defer conn.Close()

	return runEngine(ctx, conn, cfg, e.MetricsAddr, stcp.Dial)
}

type opener func(ctx context.Context, nc stcp.NetConn, cfg stcp.Config) (*stcp.ControlBlock, error)

func runEngine(ctx context.Context, conn net.Conn, cfg stcp.Config, metricsAddr string, open opener) error {
	nc := stcp.NewStreamNetConn(conn)

	cb, err := open(ctx, nc, cfg)
	if err != nil {
		return fmt.Errorf("stcpcat: handshake: %w", err)
	}

	collector := stcpmetrics.NewCollector(prometheus.Labels{"instance": uuid.NewString()})
	id := collector.Add(cb)
	defer collector.Remove(id)
	maybeServeMetrics(metricsAddr, collector)

	reader := newNetConnReader(ctx, nc)
	app := newStdioAppChannel()
	mux := newStdioMultiplexer(app, reader)

	engine := stcp.NewEngine(cb, reader, app, mux, cfg)
	return engine.Run(ctx)
}

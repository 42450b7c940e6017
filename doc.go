// Package stcp implements the per-connection protocol engine of a simplified,
// reliable, in-order byte-stream transport layered above a lossless
// packet-delivery substrate.
//
// One [Engine] is created per connection. It owns a [ControlBlock] and drives
// a single-threaded event loop, via [Engine.Run], until the connection
// reaches [StateClosedFinal]. The network substrate, the application byte
// channel and the event multiplexer are all external collaborators, named by
// the [NetConn], [AppChannel] and [Multiplexer] interfaces.
package stcp

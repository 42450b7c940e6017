package stcp

// Value is a 32-bit sequence number, compared modulo 2^32 as per RFC 9293 /
// spec §4.2. A SYN or FIN flag consumes exactly one Value; each data byte
// consumes one.
type Value uint32

// Size is a count of sequence-space octets: a byte count, a window size, or
// the distance between two [Value]s. Kept as a distinct type from Value so
// that adding a byte count to a sequence number, or confusing the two, is a
// compile error.
type Size uint32

// Add returns v advanced by n octets, wrapping modulo 2^32.
func Add(v Value, n Size) Value {
	return v + Value(n)
}

// Sizeof returns the modular distance from "from" to "to", i.e. the number
// of octets between them going forward from "from". Sizeof(a, a) is 0.
func Sizeof(from, to Value) Size {
	return Size(to - from)
}

// Less reports whether a precedes b in the modular sequence space, per
// spec §4.2: "a < b iff (a-b) mod 2^32 has its top bit set".
func Less(a, b Value) bool {
	return int32(a-b) < 0
}

// LessEq reports whether a precedes or equals b in the modular sequence
// space.
func LessEq(a, b Value) bool {
	return a == b || Less(a, b)
}

// Greater reports whether a follows b in the modular sequence space.
func Greater(a, b Value) bool {
	return Less(b, a)
}

// GreaterEq reports whether a follows or equals b in the modular sequence
// space.
func GreaterEq(a, b Value) bool {
	return a == b || Greater(a, b)
}

// InWindow reports whether x falls within the half-open sequence-space
// window [base, base+size), per spec §4.2.
func InWindow(x, base Value, size Size) bool {
	if size == 0 {
		return false
	}
	return Sizeof(base, x) < size
}

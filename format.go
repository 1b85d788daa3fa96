package heatshrink

// Stream parameter bounds. Window and lookahead are given as base-2 exponents.
const (
	MinWindowBits    = 4  // Smallest sliding window (16 bytes).
	MaxWindowBits    = 15 // Largest sliding window (32 KiB); offsets fit in 15 bits.
	MinLookaheadBits = 3  // Smallest lookahead (8 bytes).
)

// Recommended defaults for memory-constrained targets.
const (
	DefaultWindowBits      = 8
	DefaultLookaheadBits   = 4
	DefaultInputBufferSize = 256
)

// Token tag bits.
const (
	literalMarker = 0x01 // Tag bit 1: an 8-bit literal follows.
	backrefMarker = 0x00 // Tag bit 0: index and count fields follow.
)

// maxPopBits bounds a single bit read so the 16-bit accumulator never overflows.
const maxPopBits = 15

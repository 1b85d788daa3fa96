package heatshrink

import "math/bits"

// output tracks how much of a caller-supplied poll buffer has been filled.
type output struct {
	buf []byte
	n   int
}

// canTakeByte reports whether at least one more byte fits.
func (o *output) canTakeByte() bool {
	return o.n < len(o.buf)
}

// put appends one byte; callers check canTakeByte first.
func (o *output) put(b byte) {
	o.buf[o.n] = b
	o.n++
}

// bitWriter packs fields MSB-first, holding the partial byte between polls.
type bitWriter struct {
	current  byte // Partially filled output byte.
	bitIndex byte // Mask of the next bit to set; 0x80 when byte-aligned.
}

// reset drops any partial byte.
func (w *bitWriter) reset() {
	w.current = 0
	w.bitIndex = 0x80
}

// aligned reports whether no partial byte is pending.
func (w *bitWriter) aligned() bool {
	return w.bitIndex == 0x80
}

// push writes the low count (<= 8) bits of v, MSB first.
// At most one byte is completed per call, so a single free byte in o suffices.
func (w *bitWriter) push(count uint8, v byte, o *output) {
	if count == 8 && w.bitIndex == 0x80 {
		o.put(v)
		return
	}

	for i := int(count) - 1; i >= 0; i-- {
		if v&(1<<uint(i)) != 0 {
			w.current |= w.bitIndex
		}
		w.bitIndex >>= 1
		if w.bitIndex == 0 {
			o.put(w.current)
			w.current = 0
			w.bitIndex = 0x80
		}
	}
}

// bitReader unpacks fields MSB-first from a fixed staging buffer.
// Bytes are staged with fill and consumed by pop.
type bitReader struct {
	buf      []byte // Staging storage (fixed capacity).
	size     int    // Number of staged bytes.
	index    int    // Next unread staged byte.
	current  byte   // Byte currently being drained.
	bitIndex byte   // Mask of the next bit to read from current; 0 when drained.
}

// reset drops staged bytes and the partial byte.
func (r *bitReader) reset() {
	r.size = 0
	r.index = 0
	r.current = 0
	r.bitIndex = 0
}

// fill stages as much of p as fits and returns the count.
func (r *bitReader) fill(p []byte) int {
	if r.index > 0 {
		r.size = copy(r.buf, r.buf[r.index:r.size])
		r.index = 0
	}

	n := copy(r.buf[r.size:], p)
	r.size += n

	return n
}

// pendingBits is the number of bits left in the current byte.
func (r *bitReader) pendingBits() int {
	return bits.Len8(r.bitIndex)
}

// available is the number of unread bits, staged bytes included.
func (r *bitReader) available() int {
	return r.pendingBits() + 8*(r.size-r.index)
}

// pendingZero reports whether the unread bits of the current byte are all zero.
func (r *bitReader) pendingZero() bool {
	if r.bitIndex == 0 {
		return true
	}

	mask := r.bitIndex | (r.bitIndex - 1)
	return r.current&mask == 0
}

// pop reads count (1..15) bits. It either reads all of them or none:
// ok is false when fewer than count bits are available, and the reader is unchanged.
func (r *bitReader) pop(count uint8) (v uint16, ok bool) {
	if count == 0 || count > maxPopBits {
		panic("heatshrink: bit read width out of range")
	}
	if r.available() < int(count) {
		return 0, false
	}

	for i := uint8(0); i < count; i++ {
		if r.bitIndex == 0 {
			r.current = r.buf[r.index]
			r.index++
			if r.index == r.size {
				r.index = 0
				r.size = 0
			}
			r.bitIndex = 0x80
		}
		v <<= 1
		if r.current&r.bitIndex != 0 {
			v |= 1
		}
		r.bitIndex >>= 1
	}

	return v, true
}

package heatshrink

import (
	"fmt"

	"github.com/op/go-logging"
)

// decoderState is the decoder's position within the current token.
type decoderState uint8

const (
	decTagBit         decoderState = iota // Reading the tag bit.
	decYieldLiteral                       // Reading and emitting a literal byte.
	decBackrefIndexMSB                    // Reading the high bits of the index field.
	decBackrefIndexLSB                    // Reading the low 8 (or fewer) bits of the index field.
	decBackrefCountMSB                    // Reading the high bits of the count field.
	decBackrefCountLSB                    // Reading the low 8 (or fewer) bits of the count field.
	decYieldBackref                       // Copying back-referenced bytes out of the window.
)

var decoderStateNames = [...]string{
	"tag_bit",
	"yield_literal",
	"backref_index_msb",
	"backref_index_lsb",
	"backref_count_msb",
	"backref_count_lsb",
	"yield_backref",
}

func (s decoderState) String() string {
	if int(s) < len(decoderStateNames) {
		return decoderStateNames[s]
	}

	return fmt.Sprintf("decoderState(%d)", uint8(s))
}

// Decoder expands a compressed stream incrementally. Sink stages compressed
// bytes, Poll drains decoded bytes, Finish checks that the input ended on a
// token boundary. A Decoder is not safe for concurrent use.
//
// The format carries no checksum: a flipped bit inside a back-reference
// silently yields wrong output. Callers needing integrity must add it in
// their own framing.
type Decoder struct {
	cfg Config

	// buffers is the staging area followed by the window, in one allocation.
	buffers []byte
	window  []byte
	in      bitReader

	headIndex   int // Total bytes written to the window; masked on access.
	outputIndex int // Back-reference distance (1-based).
	outputCount int // Back-reference bytes still to copy.

	tokenBits int  // Bits consumed by the token in progress.
	tokenZero bool // All bits of the token in progress were zero.

	state decoderState
	trace bool
}

// NewDecoder allocates a decoder for cfg. nil means DefaultConfig().
func NewDecoder(cfg *Config) (*Decoder, error) {
	c := resolveConfig(cfg)
	if err := c.validateDecoder(); err != nil {
		return nil, err
	}

	return newDecoder(c, make([]byte, DecoderBufferSize(&c))), nil
}

// NewDecoderWithBuffer builds a decoder on caller-owned storage of length
// DecoderBufferSize(cfg). The decoder takes exclusive use of buf.
func NewDecoderWithBuffer(cfg *Config, buf []byte) (*Decoder, error) {
	c := resolveConfig(cfg)
	if err := c.validateDecoder(); err != nil {
		return nil, err
	}
	if len(buf) != DecoderBufferSize(&c) {
		return nil, fmt.Errorf("%w: buffer=%d want=%d", ErrBufferSize, len(buf), DecoderBufferSize(&c))
	}

	return newDecoder(c, buf), nil
}

// MustNewDecoder is like NewDecoder but panics on an invalid configuration.
func MustNewDecoder(cfg *Config) *Decoder {
	d, err := NewDecoder(cfg)
	if err != nil {
		panic(err)
	}

	return d
}

func newDecoder(c Config, buf []byte) *Decoder {
	d := &Decoder{
		cfg:     c,
		buffers: buf,
		window:  buf[c.InputBufferSize:],
		in:      bitReader{buf: buf[:c.InputBufferSize]},
	}
	d.Reset()

	if d.trace {
		log.Debugf("allocated decoder: window=%d lookahead=%d input=%d",
			c.WindowBits, c.LookaheadBits, c.InputBufferSize)
	}

	return d
}

// Config returns the parameters the decoder was built with.
func (d *Decoder) Config() Config {
	return d.cfg
}

// Reset returns the decoder to its initial state without reallocating.
// The window is zeroed, so references before the stream start read zeros.
func (d *Decoder) Reset() {
	clear(d.buffers)
	d.in.reset()
	d.headIndex = 0
	d.outputIndex = 0
	d.outputCount = 0
	d.tokenBits = 0
	d.tokenZero = true
	d.state = decTagBit
	d.trace = log.IsEnabledFor(logging.DEBUG)
}

// Sink stages as much of in as fits and returns the count. Zero means the
// staging buffer is full and the caller must Poll first.
func (d *Decoder) Sink(in []byte) int {
	n := d.in.fill(in)
	if d.trace {
		log.Debugf("sunk %d bytes (of %d), %d staged", n, len(in), d.in.size-d.in.index)
	}

	return n
}

// Poll writes decoded bytes into out and returns how many were written.
// PollMore means out filled up; PollEmpty means more input must be sunk.
// out must not be empty.
func (d *Decoder) Poll(out []byte) (int, PollStatus) {
	if len(out) == 0 {
		panic("heatshrink: Decoder.Poll called with empty output buffer")
	}

	o := output{buf: out}
	for {
		in := d.state
		if d.trace {
			log.Debugf("polling, state %s, %d bits available", in, d.in.available())
		}

		switch in {
		case decTagBit:
			d.state = d.stTagBit()
		case decYieldLiteral:
			d.state = d.stYieldLiteral(&o)
		case decBackrefIndexMSB:
			d.state = d.stBackrefIndexMSB()
		case decBackrefIndexLSB:
			d.state = d.stBackrefIndexLSB()
		case decBackrefCountMSB:
			d.state = d.stBackrefCountMSB()
		case decBackrefCountLSB:
			d.state = d.stBackrefCountLSB()
		case decYieldBackref:
			d.state = d.stYieldBackref(&o)
		default:
			panic(fmt.Sprintf("heatshrink: bad decoder state %s", in))
		}

		// A state that cannot advance is waiting on input or output space.
		if d.state == in {
			if o.n == len(out) {
				return o.n, PollMore
			}
			return o.n, PollEmpty
		}
	}
}

// Finish declares that no more input will be sunk. It returns FinishMore
// while Poll can still make progress, FinishDone when the input ended on a
// token boundary or inside zero padding, and ErrTruncated when the input
// stopped inside a real token.
func (d *Decoder) Finish() (FinishStatus, error) {
	avail := d.in.available()

	switch d.state {
	case decTagBit:
		if avail > 0 {
			return FinishMore, nil
		}
		return FinishDone, nil
	case decYieldLiteral:
		if avail >= 8 {
			return FinishMore, nil
		}
	case decBackrefIndexMSB, decBackrefIndexLSB, decBackrefCountMSB, decBackrefCountLSB:
		if avail >= int(d.fieldBits()) {
			return FinishMore, nil
		}
		if d.isPadding() {
			if d.trace {
				log.Debugf("finished inside %d bits of zero padding", d.tokenBits+avail)
			}
			return FinishDone, nil
		}
	case decYieldBackref:
		return FinishMore, nil
	}

	return FinishMore, fmt.Errorf("%w: state=%s token_bits=%d available_bits=%d",
		ErrTruncated, d.state, d.tokenBits, avail)
}

// isPadding reports whether the partial token consumed so far, together with
// whatever is left of the last byte, is the encoder's zero fill: fewer than
// eight bits, all of them zero.
func (d *Decoder) isPadding() bool {
	return d.tokenZero && d.tokenBits+d.in.available() < 8 && d.in.pendingZero()
}

// fieldBits is the width of the sub-read the current state is waiting for.
func (d *Decoder) fieldBits() uint8 {
	w, l := d.cfg.WindowBits, d.cfg.LookaheadBits

	switch d.state {
	case decBackrefIndexMSB:
		return w - 8
	case decBackrefIndexLSB:
		return min(w, 8)
	case decBackrefCountMSB:
		return l - 8
	case decBackrefCountLSB:
		return min(l, 8)
	case decYieldLiteral:
		return 8
	default:
		return 1
	}
}

// popField reads a field of the token in progress and tracks padding candidates.
func (d *Decoder) popField(count uint8) (uint16, bool) {
	v, ok := d.in.pop(count)
	if !ok {
		return 0, false
	}

	d.tokenBits += int(count)
	if v != 0 {
		d.tokenZero = false
	}

	return v, true
}

func (d *Decoder) stTagBit() decoderState {
	d.tokenBits = 0
	d.tokenZero = true

	bit, ok := d.popField(1)
	if !ok {
		return decTagBit
	}
	if bit == literalMarker {
		return decYieldLiteral
	}

	d.outputIndex = 0
	if d.cfg.WindowBits > 8 {
		return decBackrefIndexMSB
	}

	return decBackrefIndexLSB
}

func (d *Decoder) stYieldLiteral(o *output) decoderState {
	if !o.canTakeByte() {
		return decYieldLiteral
	}

	v, ok := d.popField(8)
	if !ok {
		return decYieldLiteral
	}

	c := byte(v) //nolint:gosec // G115: 8-bit read
	d.window[d.headIndex&d.windowMask()] = c
	d.headIndex++
	o.put(c)

	return decTagBit
}

func (d *Decoder) stBackrefIndexMSB() decoderState {
	v, ok := d.popField(d.cfg.WindowBits - 8)
	if !ok {
		return decBackrefIndexMSB
	}

	d.outputIndex = int(v) << 8

	return decBackrefIndexLSB
}

func (d *Decoder) stBackrefIndexLSB() decoderState {
	v, ok := d.popField(min(d.cfg.WindowBits, 8))
	if !ok {
		return decBackrefIndexLSB
	}

	d.outputIndex |= int(v)
	d.outputIndex++
	d.outputCount = 0
	if d.cfg.LookaheadBits > 8 {
		return decBackrefCountMSB
	}

	return decBackrefCountLSB
}

func (d *Decoder) stBackrefCountMSB() decoderState {
	v, ok := d.popField(d.cfg.LookaheadBits - 8)
	if !ok {
		return decBackrefCountMSB
	}

	d.outputCount = int(v) << 8

	return decBackrefCountLSB
}

func (d *Decoder) stBackrefCountLSB() decoderState {
	v, ok := d.popField(min(d.cfg.LookaheadBits, 8))
	if !ok {
		return decBackrefCountLSB
	}

	d.outputCount |= int(v)
	d.outputCount++

	if d.trace {
		log.Debugf("backref: distance=%d length=%d", d.outputIndex, d.outputCount)
	}

	return decYieldBackref
}

// stYieldBackref copies from the window one byte at a time, writing each byte
// back before the next read so distances shorter than the length repeat.
func (d *Decoder) stYieldBackref(o *output) decoderState {
	count := min(len(o.buf)-o.n, d.outputCount)
	if count == 0 {
		return decYieldBackref
	}

	mask := d.windowMask()
	for i := 0; i < count; i++ {
		c := d.window[(d.headIndex-d.outputIndex)&mask]
		o.put(c)
		d.window[d.headIndex&mask] = c
		d.headIndex++
	}

	d.outputCount -= count
	if d.outputCount == 0 {
		return decTagBit
	}

	return decYieldBackref
}

func (d *Decoder) windowMask() int {
	return d.cfg.windowSize() - 1
}

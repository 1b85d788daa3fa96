package heatshrink

import (
	"fmt"

	"github.com/op/go-logging"
)

// encoderState is the encoder's position in the sink/poll cycle.
type encoderState uint8

const (
	encNotFull       encoderState = iota // Accepting input.
	encFilled                            // Input buffer full, index not built yet.
	encSearch                            // Looking for the next match.
	encYieldTagBit                       // Emitting the tag bit.
	encYieldLiteral                      // Emitting a literal byte.
	encYieldBrIndex                      // Emitting the back-reference index field.
	encYieldBrLength                     // Emitting the back-reference length field.
	encSaveBacklog                       // Shifting consumed input into the backlog.
	encFlushBits                         // Emitting the final partial byte.
	encDone                              // Stream complete.
)

var encoderStateNames = [...]string{
	"not_full",
	"filled",
	"search",
	"yield_tag_bit",
	"yield_literal",
	"yield_br_index",
	"yield_br_length",
	"save_backlog",
	"flush_bits",
	"done",
}

func (s encoderState) String() string {
	if int(s) < len(encoderStateNames) {
		return encoderStateNames[s]
	}

	return fmt.Sprintf("encoderState(%d)", uint8(s))
}

// Encoder compresses a byte stream incrementally. It never blocks and never
// allocates after construction: Sink stages input, Poll drains compressed
// bytes, Finish marks the end of input. An Encoder is not safe for
// concurrent use.
type Encoder struct {
	cfg Config

	// buffer holds one window of backlog followed by one window of input.
	buffer []byte
	index  searchIndex

	inputSize      int // Bytes staged after the backlog.
	backlogSize    int // Bytes of real history before the input region.
	matchScanIndex int // Next input position to encode.
	matchLength    int // Length of the pending back-reference; 0 for a literal.
	matchDistance  int // Distance of the pending back-reference.

	outgoingBits      uint16 // Field being emitted.
	outgoingBitsCount uint8  // Bits of outgoingBits still to emit.

	bits      bitWriter
	state     encoderState
	finishing bool
	trace     bool
}

// NewEncoder allocates an encoder for cfg. nil means DefaultConfig().
func NewEncoder(cfg *Config) (*Encoder, error) {
	c := resolveConfig(cfg)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var index []int32
	if !c.DisableIndex {
		index = make([]int32, EncoderIndexSize(&c))
	}

	return newEncoder(c, make([]byte, EncoderBufferSize(&c)), index), nil
}

// NewEncoderWithBuffers builds an encoder on caller-owned storage, sized by
// EncoderBufferSize and EncoderIndexSize. index must be nil when cfg.DisableIndex is set.
// The encoder takes exclusive use of both slices.
func NewEncoderWithBuffers(cfg *Config, buffer []byte, index []int32) (*Encoder, error) {
	c := resolveConfig(cfg)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if len(buffer) != EncoderBufferSize(&c) {
		return nil, fmt.Errorf("%w: buffer=%d want=%d", ErrBufferSize, len(buffer), EncoderBufferSize(&c))
	}
	if len(index) != EncoderIndexSize(&c) {
		return nil, fmt.Errorf("%w: index=%d want=%d", ErrBufferSize, len(index), EncoderIndexSize(&c))
	}
	if len(index) == 0 {
		index = nil
	}

	return newEncoder(c, buffer, index), nil
}

// MustNewEncoder is like NewEncoder but panics on an invalid configuration.
func MustNewEncoder(cfg *Config) *Encoder {
	e, err := NewEncoder(cfg)
	if err != nil {
		panic(err)
	}

	return e
}

func newEncoder(c Config, buffer []byte, index []int32) *Encoder {
	e := &Encoder{
		cfg:    c,
		buffer: buffer,
		index:  searchIndex{prev: index},
	}
	e.Reset()

	if e.trace {
		log.Debugf("allocated encoder: window=%d lookahead=%d buffer=%d index=%t",
			c.WindowBits, c.LookaheadBits, len(buffer), index != nil)
	}

	return e
}

// Config returns the parameters the encoder was built with.
func (e *Encoder) Config() Config {
	return e.cfg
}

// Reset returns the encoder to its initial state without reallocating.
func (e *Encoder) Reset() {
	clear(e.buffer)
	e.inputSize = 0
	e.backlogSize = 0
	e.matchScanIndex = 0
	e.matchLength = 0
	e.matchDistance = 0
	e.outgoingBits = 0
	e.outgoingBitsCount = 0
	e.bits.reset()
	e.state = encNotFull
	e.finishing = false
	e.trace = log.IsEnabledFor(logging.DEBUG)
}

// Sink copies as much of in as fits into the input buffer and returns the
// count. Once the buffer is full the caller must Poll until PollEmpty before
// sinking again. Sinking at the wrong time, or after Finish, panics.
func (e *Encoder) Sink(in []byte) int {
	if e.finishing {
		panic("heatshrink: Encoder.Sink called after Finish")
	}
	if e.state != encNotFull {
		panic(fmt.Sprintf("heatshrink: Encoder.Sink called in state %s; Poll until PollEmpty first", e.state))
	}

	writeOffset := e.inputOffset() + e.inputSize
	rem := e.inputBufferSize() - e.inputSize
	n := copy(e.buffer[writeOffset:writeOffset+rem], in)
	e.inputSize += n

	if e.trace {
		log.Debugf("sunk %d bytes (of %d) at %d, input buffer now has %d", n, len(in), writeOffset, e.inputSize)
	}
	if n == rem {
		e.state = encFilled
	}

	return n
}

// Poll writes compressed bytes into out and returns how many were written.
// PollMore means out filled up and more output is ready; PollEmpty means the
// encoder needs more input (or, after Finish, has nothing left to flush).
// out must not be empty.
func (e *Encoder) Poll(out []byte) (int, PollStatus) {
	if len(out) == 0 {
		panic("heatshrink: Encoder.Poll called with empty output buffer")
	}

	o := output{buf: out}
	for {
		in := e.state
		if e.trace {
			log.Debugf("polling, state %s, finishing %t", in, e.finishing)
		}

		switch in {
		case encNotFull, encDone:
			return o.n, PollEmpty
		case encFilled:
			e.buildIndex()
			e.state = encSearch
		case encSearch:
			e.state = e.stepSearch()
		case encYieldTagBit:
			e.state = e.yieldTagBit(&o)
		case encYieldLiteral:
			e.state = e.yieldLiteral(&o)
		case encYieldBrIndex:
			e.state = e.yieldBrIndex(&o)
		case encYieldBrLength:
			e.state = e.yieldBrLength(&o)
		case encSaveBacklog:
			e.saveBacklog()
			e.state = encNotFull
		case encFlushBits:
			e.state = e.flushBits(&o)
			if e.state == encFlushBits {
				return o.n, PollMore
			}
			return o.n, PollEmpty
		default:
			panic(fmt.Sprintf("heatshrink: bad encoder state %s", in))
		}

		if e.state == in && o.n == len(out) {
			return o.n, PollMore
		}
	}
}

// Finish declares the end of input. A partially filled buffer is encoded as
// the final chunk. It returns FinishDone once all output has been polled,
// otherwise FinishMore and the caller must keep polling.
func (e *Encoder) Finish() FinishStatus {
	if e.trace && !e.finishing {
		log.Debugf("finishing with %d bytes staged", e.inputSize)
	}

	e.finishing = true
	if e.state == encNotFull {
		e.state = encFilled
	}
	if e.state == encDone {
		return FinishDone
	}

	return FinishMore
}

// inputOffset is where the input region starts: right after one window of backlog.
func (e *Encoder) inputOffset() int {
	return e.cfg.windowSize()
}

// inputBufferSize is the capacity of the input region.
func (e *Encoder) inputBufferSize() int {
	return e.cfg.windowSize()
}

func (e *Encoder) buildIndex() {
	if e.index.prev == nil {
		return
	}

	e.index.build(e.buffer, e.inputOffset()+e.inputSize)
}

func (e *Encoder) stepSearch() encoderState {
	windowLength := e.inputBufferSize()
	lookahead := e.cfg.lookaheadSize()
	msi := e.matchScanIndex

	// Without Finish the last lookahead bytes wait for more input so matches
	// running into them are not cut short.
	reserve := lookahead
	if e.finishing {
		reserve = 1
	}
	if msi > e.inputSize-reserve {
		if e.trace {
			log.Debugf("end of search at %d", msi)
		}
		if e.finishing {
			return encFlushBits
		}
		return encSaveBacklog
	}

	end := e.inputOffset() + msi
	start := max(end-windowLength, e.inputOffset()-e.backlogSize)
	maxPossible := min(lookahead, e.inputSize-msi)

	distance, length := e.findLongestMatch(start, end, maxPossible)
	if length == 0 {
		e.matchScanIndex++
		e.matchLength = 0
		return encYieldTagBit
	}

	if e.trace {
		log.Debugf("found match of %d bytes at -%d", length, distance)
	}
	e.matchDistance = distance
	e.matchLength = length

	return encYieldTagBit
}

func (e *Encoder) yieldTagBit(o *output) encoderState {
	if !o.canTakeByte() {
		return encYieldTagBit
	}

	if e.matchLength == 0 {
		e.bits.push(1, literalMarker, o)
		return encYieldLiteral
	}

	e.bits.push(1, backrefMarker, o)
	e.outgoingBits = uint16(e.matchDistance - 1) //nolint:gosec // G115: distance <= window size
	e.outgoingBitsCount = e.cfg.WindowBits

	return encYieldBrIndex
}

func (e *Encoder) yieldLiteral(o *output) encoderState {
	if !o.canTakeByte() {
		return encYieldLiteral
	}

	c := e.buffer[e.inputOffset()+e.matchScanIndex-1]
	e.bits.push(8, c, o)

	return encSearch
}

func (e *Encoder) yieldBrIndex(o *output) encoderState {
	if !o.canTakeByte() {
		return encYieldBrIndex
	}
	if e.pushOutgoingBits(o) > 0 {
		return encYieldBrIndex
	}

	e.outgoingBits = uint16(e.matchLength - 1) //nolint:gosec // G115: length <= lookahead size
	e.outgoingBitsCount = e.cfg.LookaheadBits

	return encYieldBrLength
}

func (e *Encoder) yieldBrLength(o *output) encoderState {
	if !o.canTakeByte() {
		return encYieldBrLength
	}
	if e.pushOutgoingBits(o) > 0 {
		return encYieldBrLength
	}

	e.matchScanIndex += e.matchLength
	e.matchLength = 0

	return encSearch
}

// pushOutgoingBits emits up to 8 of the pending field bits and returns how many.
func (e *Encoder) pushOutgoingBits(o *output) uint8 {
	if e.outgoingBitsCount == 0 {
		return 0
	}

	count := e.outgoingBitsCount
	v := byte(e.outgoingBits) //nolint:gosec // G115: only the low count bits are used
	if count > 8 {
		count = 8
		v = byte(e.outgoingBits >> (e.outgoingBitsCount - 8)) //nolint:gosec // G115: shifted into 8 bits
	}

	e.bits.push(count, v, o)
	e.outgoingBitsCount -= count

	return count
}

func (e *Encoder) flushBits(o *output) encoderState {
	if e.bits.aligned() {
		if e.trace {
			log.Debugf("done")
		}
		return encDone
	}
	if !o.canTakeByte() {
		return encFlushBits
	}

	if e.trace {
		log.Debugf("flushing remaining byte 0x%02x", e.bits.current)
	}
	o.put(e.bits.current)
	e.bits.reset()

	return encDone
}

// saveBacklog moves the most recent window of consumed bytes, plus the
// unconsumed tail, to the front of the buffer.
func (e *Encoder) saveBacklog() {
	windowLength := e.inputBufferSize()
	msi := e.matchScanIndex
	rem := windowLength - msi

	copy(e.buffer, e.buffer[msi:msi+windowLength+rem])

	e.backlogSize = min(windowLength, e.backlogSize+msi)
	e.inputSize -= msi
	e.matchScanIndex = 0

	if e.trace {
		log.Debugf("saved backlog: %d history bytes, %d unprocessed", e.backlogSize, rem)
	}
}

package heatshrink

import "fmt"

// Config holds stream parameters. Encoder and decoder must agree on
// WindowBits and LookaheadBits; nothing in the stream records them.
type Config struct {
	// WindowBits is the base-2 log of the sliding window size (MinWindowBits..MaxWindowBits).
	// Larger windows find more distant repeats but cost memory and search time.
	WindowBits uint8
	// LookaheadBits is the base-2 log of the longest back-reference. Must be below WindowBits.
	LookaheadBits uint8
	// InputBufferSize is the decoder staging buffer size in bytes. Ignored by the encoder.
	InputBufferSize int
	// DisableIndex makes the encoder scan the whole window for every position
	// instead of walking the per-byte index. Output is identical; only speed differs.
	DisableIndex bool
}

// DefaultConfig returns window 8, lookahead 4 and a 256-byte decoder input buffer.
func DefaultConfig() *Config {
	return &Config{
		WindowBits:      DefaultWindowBits,
		LookaheadBits:   DefaultLookaheadBits,
		InputBufferSize: DefaultInputBufferSize,
	}
}

// Validate reports whether c describes a usable stream.
func (c *Config) Validate() error {
	if c.WindowBits < MinWindowBits || c.WindowBits > MaxWindowBits {
		return fmt.Errorf("%w: window bits %d outside %d..%d", ErrInvalidConfig, c.WindowBits, MinWindowBits, MaxWindowBits)
	}
	if c.LookaheadBits < MinLookaheadBits || c.LookaheadBits >= c.WindowBits {
		return fmt.Errorf("%w: lookahead bits %d outside %d..%d", ErrInvalidConfig, c.LookaheadBits, MinLookaheadBits, c.WindowBits-1)
	}

	return nil
}

// validateDecoder additionally checks the staging buffer size.
func (c *Config) validateDecoder() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.InputBufferSize <= 0 {
		return fmt.Errorf("%w: input buffer size %d", ErrInvalidConfig, c.InputBufferSize)
	}

	return nil
}

// windowSize is 2^WindowBits.
func (c *Config) windowSize() int {
	return 1 << c.WindowBits
}

// lookaheadSize is 2^LookaheadBits.
func (c *Config) lookaheadSize() int {
	return 1 << c.LookaheadBits
}

// breakEven is the shortest match worth a back-reference, exclusive.
// The bit cost is rounded down.
func (c *Config) breakEven() int {
	return (1 + int(c.WindowBits) + int(c.LookaheadBits)) / 8
}

// EncoderBufferSize returns the history buffer length the encoder needs:
// one window of backlog followed by one window of input.
func EncoderBufferSize(c *Config) int {
	if c == nil {
		c = DefaultConfig()
	}

	return 2 << c.WindowBits
}

// EncoderIndexSize returns the number of index entries the encoder needs.
// Zero when the index is disabled.
func EncoderIndexSize(c *Config) int {
	if c == nil {
		c = DefaultConfig()
	}
	if c.DisableIndex {
		return 0
	}

	return EncoderBufferSize(c)
}

// DecoderBufferSize returns the staging plus window length the decoder needs.
func DecoderBufferSize(c *Config) int {
	if c == nil {
		c = DefaultConfig()
	}

	return c.InputBufferSize + c.windowSize()
}

// resolveConfig copies cfg (or the defaults) so later caller edits cannot reach an instance.
func resolveConfig(cfg *Config) Config {
	if cfg == nil {
		return *DefaultConfig()
	}

	return *cfg
}

package heatshrink

import (
	"bytes"
	"fmt"

	"github.com/icza/bitio"
)

// Token is one decoded unit of a compressed stream.
type Token struct {
	Literal bool
	Value   byte   // Literal byte; zero for back-references.
	Offset  uint16 // Back-reference distance, 1-based.
	Length  uint16 // Back-reference length, 1-based.
}

func (t Token) String() string {
	if t.Literal {
		return fmt.Sprintf("lit 0x%02x", t.Value)
	}

	return fmt.Sprintf("ref -%d x%d", t.Offset, t.Length)
}

// TokenStats summarizes a token list.
type TokenStats struct {
	Literals int // Number of literal tokens.
	Backrefs int // Number of back-reference tokens.
	Bits     int // Encoded size in bits, excluding padding.
	Expanded int // Decoded size in bytes.
}

// Tokens parses a complete compressed stream held in memory. Unlike Decoder
// it is not resumable and is meant for inspection. Trailing zero padding is
// accepted; a final token cut short yields ErrTruncated.
func Tokens(src []byte, cfg *Config) ([]Token, error) {
	c := resolveConfig(cfg)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	r := bitio.NewReader(bytes.NewReader(src))
	remaining := 8 * len(src)
	refBits := int(c.WindowBits) + int(c.LookaheadBits)
	var tokens []Token

	for remaining > 0 {
		// Anything shorter than a byte is the encoder's zero fill, or damage.
		if remaining < 8 {
			pad, err := r.ReadBits(uint8(remaining)) //nolint:gosec // G115: remaining < 8
			if err != nil {
				return tokens, err
			}
			if pad != 0 {
				return tokens, fmt.Errorf("%w: nonzero padding 0x%x in last %d bits", ErrTruncated, pad, remaining)
			}
			break
		}

		tag, err := r.ReadBool()
		if err != nil {
			return tokens, err
		}
		remaining--

		if tag {
			if remaining < 8 {
				return tokens, fmt.Errorf("%w: literal needs 8 bits, %d left", ErrTruncated, remaining)
			}
			v, err := r.ReadBits(8)
			if err != nil {
				return tokens, err
			}
			remaining -= 8
			tokens = append(tokens, Token{Literal: true, Value: byte(v)})
			continue
		}

		if remaining < refBits {
			return tokens, fmt.Errorf("%w: back-reference needs %d bits, %d left", ErrTruncated, refBits, remaining)
		}
		index, err := r.ReadBits(c.WindowBits)
		if err != nil {
			return tokens, err
		}
		count, err := r.ReadBits(c.LookaheadBits)
		if err != nil {
			return tokens, err
		}
		remaining -= refBits
		tokens = append(tokens, Token{
			Offset: uint16(index + 1), //nolint:gosec // G115: index < 1<<15
			Length: uint16(count + 1), //nolint:gosec // G115: count < 1<<14
		})
	}

	return tokens, nil
}

// Summarize computes statistics for tokens encoded with cfg. nil means DefaultConfig().
func Summarize(tokens []Token, cfg *Config) TokenStats {
	c := resolveConfig(cfg)
	refBits := 1 + int(c.WindowBits) + int(c.LookaheadBits)

	var s TokenStats
	for _, t := range tokens {
		if t.Literal {
			s.Literals++
			s.Bits += 9
			s.Expanded++
			continue
		}
		s.Backrefs++
		s.Bits += refBits
		s.Expanded += int(t.Length)
	}

	return s
}

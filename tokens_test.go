package heatshrink

import (
	"bytes"
	"errors"
	"testing"
)

func TestTokensSelfOverlappingRun(t *testing.T) {
	cfg := &Config{WindowBits: 8, LookaheadBits: 4}
	tokens, err := Tokens([]byte{0xA0, 0x80, 0x18}, cfg)
	if err != nil {
		t.Fatal(err)
	}

	want := []Token{{Literal: true, Value: 'A'}, {Offset: 1, Length: 7}}
	if len(tokens) != len(want) {
		t.Fatalf("got %v", tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("token %d: got %v want %v", i, tokens[i], want[i])
		}
	}
	if s := tokens[1].String(); s != "ref -1 x7" {
		t.Fatalf("String() = %q", s)
	}

	stats := Summarize(tokens, cfg)
	if stats != (TokenStats{Literals: 1, Backrefs: 1, Bits: 22, Expanded: 8}) {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestTokensAgreeWithDecoder(t *testing.T) {
	for _, cfg := range []*Config{
		{WindowBits: 4, LookaheadBits: 3},
		{WindowBits: 9, LookaheadBits: 5},
		{WindowBits: 14, LookaheadBits: 12},
	} {
		for _, in := range testInputSet() {
			enc, err := Compress(in.data, cfg)
			if err != nil {
				t.Fatal(err)
			}
			tokens, err := Tokens(enc, cfg)
			if err != nil {
				t.Fatalf("%s: %v", in.name, err)
			}
			if got := expandTokens(tokens, cfg); !bytes.Equal(got, in.data) {
				t.Fatalf("%s: expanded tokens differ from input", in.name)
			}
			if s := Summarize(tokens, cfg); s.Expanded != len(in.data) || (s.Bits+7)/8 != len(enc) {
				t.Fatalf("%s: stats %+v for %d->%d bytes", in.name, s, len(in.data), len(enc))
			}
		}
	}
}

// expandTokens is a direct, non-streaming reference expansion.
func expandTokens(tokens []Token, cfg *Config) []byte {
	out := make([]byte, 0, 1024)
	for _, tok := range tokens {
		if tok.Literal {
			out = append(out, tok.Value)
			continue
		}
		for i := 0; i < int(tok.Length); i++ {
			src := len(out) - int(tok.Offset)
			var c byte
			if src >= 0 {
				c = out[src]
			}
			out = append(out, c)
		}
	}

	return out
}

func TestTokensTruncated(t *testing.T) {
	enc, _ := Compress([]byte("abcdefgh"), nil)
	tokens, err := Tokens(enc[:3], nil)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("want ErrTruncated, got %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("parsed %d tokens before truncation", len(tokens))
	}

	if _, err := Tokens([]byte{0xA0, 0x81}, &Config{WindowBits: 8, LookaheadBits: 4}); !errors.Is(err, ErrTruncated) {
		t.Fatalf("nonzero padding: want ErrTruncated, got %v", err)
	}
}

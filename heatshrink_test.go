package heatshrink

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
)

func testInputSet() []struct {
	name string
	data []byte
} {
	rng := rand.New(rand.NewSource(1))
	random := make([]byte, 3000)
	rng.Read(random)

	return []struct {
		name string
		data []byte
	}{
		{name: "empty", data: []byte{}},
		{name: "single-byte", data: []byte{0xAB}},
		{name: "below-break-even", data: []byte{0x10, 0x20}},
		{name: "abc-62", data: []byte(strings.Repeat("abc", 21)[:62])},
		{name: "text", data: []byte(strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40))},
		{name: "zeros", data: make([]byte, 1500)},
		{name: "random", data: random},
		{name: "byte-cycle", data: bytes.Repeat([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 700)},
	}
}

// validConfigs lists every legal window/lookahead pair.
func validConfigs() []*Config {
	var cfgs []*Config
	for w := uint8(MinWindowBits); w <= MaxWindowBits; w++ {
		for l := uint8(MinLookaheadBits); l < w; l++ {
			cfgs = append(cfgs, &Config{WindowBits: w, LookaheadBits: l, InputBufferSize: 32})
		}
	}

	return cfgs
}

// encodeChunked sinks at most inChunk bytes per call and polls into outChunk-sized buffers.
func encodeChunked(t testing.TB, cfg *Config, src []byte, inChunk, outChunk int) []byte {
	t.Helper()

	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatal(err)
	}

	var out []byte
	buf := make([]byte, outChunk)
	drain := func() {
		for {
			n, status := enc.Poll(buf)
			out = append(out, buf[:n]...)
			if status == PollEmpty {
				return
			}
		}
	}

	for len(src) > 0 {
		n := enc.Sink(src[:min(inChunk, len(src))])
		src = src[n:]
		drain()
	}
	for enc.Finish() == FinishMore {
		drain()
	}

	return out
}

// decodeChunked mirrors encodeChunked for the decoder.
func decodeChunked(t testing.TB, cfg *Config, src []byte, inChunk, outChunk int) ([]byte, error) {
	t.Helper()

	dec, err := NewDecoder(cfg)
	if err != nil {
		t.Fatal(err)
	}

	var out []byte
	buf := make([]byte, outChunk)
	drain := func() {
		for {
			n, status := dec.Poll(buf)
			out = append(out, buf[:n]...)
			if status == PollEmpty {
				return
			}
		}
	}

	for len(src) > 0 {
		n := dec.Sink(src[:min(inChunk, len(src))])
		src = src[n:]
		drain()
	}
	for {
		status, err := dec.Finish()
		if err != nil {
			return out, err
		}
		if status == FinishDone {
			return out, nil
		}
		drain()
	}
}

func TestRoundTripNilConfig(t *testing.T) {
	raw := []byte("hello world, hello heatshrink")
	enc, err := Compress(raw, nil)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := Decompress(enc, len(raw), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, dec) {
		t.Fatalf("got %q", dec)
	}
}

func TestRoundTripAllConfigs(t *testing.T) {
	for _, cfg := range validConfigs() {
		for _, in := range testInputSet() {
			name := fmt.Sprintf("w%d-l%d/%s", cfg.WindowBits, cfg.LookaheadBits, in.name)
			t.Run(name, func(t *testing.T) {
				enc, err := Compress(in.data, cfg)
				if err != nil {
					t.Fatalf("Compress failed: %v", err)
				}
				dec, err := Decompress(enc, len(in.data), cfg)
				if err != nil {
					t.Fatalf("Decompress failed: %v", err)
				}
				if !bytes.Equal(dec, in.data) {
					t.Fatalf("round-trip mismatch: got=%d want=%d", len(dec), len(in.data))
				}
			})
		}
	}
}

func TestRoundTripChunkingIndependent(t *testing.T) {
	cfgs := []*Config{
		{WindowBits: 4, LookaheadBits: 3, InputBufferSize: 1},
		{WindowBits: 8, LookaheadBits: 4, InputBufferSize: 1},
		{WindowBits: 9, LookaheadBits: 8, InputBufferSize: 3},
		{WindowBits: 12, LookaheadBits: 5, InputBufferSize: 16},
		{WindowBits: 15, LookaheadBits: 14, InputBufferSize: 7},
	}
	chunks := []struct{ in, out int }{{1, 1}, {1, 4096}, {4096, 1}, {7, 3}, {1 << 16, 1 << 16}}

	for _, cfg := range cfgs {
		for _, in := range testInputSet() {
			whole, err := Compress(in.data, cfg)
			if err != nil {
				t.Fatal(err)
			}

			for _, ch := range chunks {
				name := fmt.Sprintf("w%d-l%d/%s/in%d-out%d", cfg.WindowBits, cfg.LookaheadBits, in.name, ch.in, ch.out)
				t.Run(name, func(t *testing.T) {
					enc := encodeChunked(t, cfg, in.data, ch.in, ch.out)
					if !bytes.Equal(enc, whole) {
						t.Fatalf("chunked encoding differs: got=%d want=%d bytes", len(enc), len(whole))
					}

					dec, err := decodeChunked(t, cfg, enc, ch.in, ch.out)
					if err != nil {
						t.Fatalf("decode failed: %v", err)
					}
					if !bytes.Equal(dec, in.data) {
						t.Fatalf("round-trip mismatch: got=%d want=%d", len(dec), len(in.data))
					}
				})
			}
		}
	}
}

func TestRepeatingABCScenario(t *testing.T) {
	cfg := &Config{WindowBits: 8, LookaheadBits: 4, InputBufferSize: 32}
	input := []byte(strings.Repeat("abc", 21)[:62])
	if len(input) != 62 {
		t.Fatalf("bad fixture length %d", len(input))
	}

	enc, err := Compress(input, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(enc) >= len(input) {
		t.Fatalf("compressed size %d not below %d", len(enc), len(input))
	}

	dec, err := Decompress(enc, len(input), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dec, input) {
		t.Fatalf("got %q", dec)
	}
}

func TestCompressRepetitiveInputShrinks(t *testing.T) {
	input := bytes.Repeat([]byte("wxyz"), 10000)
	for _, cfg := range []*Config{DefaultConfig(), {WindowBits: 11, LookaheadBits: 6, InputBufferSize: 64}} {
		enc, err := Compress(input, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if len(enc) > len(input)/4 {
			t.Fatalf("w%d-l%d: compressed %d bytes to %d", cfg.WindowBits, cfg.LookaheadBits, len(input), len(enc))
		}
	}
}

func TestCompressDistinctBytesCostsOnlyTagBits(t *testing.T) {
	for n := 0; n <= 64; n++ {
		input := make([]byte, n)
		for i := range input {
			input[i] = byte(i * 3)
		}

		enc, err := Compress(input, nil)
		if err != nil {
			t.Fatal(err)
		}
		if want := (9*n + 7) / 8; len(enc) != want {
			t.Fatalf("n=%d: compressed size %d, want %d", n, len(enc), want)
		}
	}
}

func TestCompressDeterministicAcrossReset(t *testing.T) {
	input := testInputSet()[4].data
	enc := MustNewEncoder(nil)

	run := func() []byte {
		var out []byte
		buf := make([]byte, 100)
		src := input
		for len(src) > 0 {
			n := enc.Sink(src)
			src = src[n:]
			for {
				m, status := enc.Poll(buf)
				out = append(out, buf[:m]...)
				if status == PollEmpty {
					break
				}
			}
		}
		for enc.Finish() == FinishMore {
			m, _ := enc.Poll(buf)
			out = append(out, buf[:m]...)
		}
		return out
	}

	first := run()
	enc.Reset()
	second := run()
	if !bytes.Equal(first, second) {
		t.Fatal("encoding after Reset differs")
	}

	want, err := Compress(input, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, want) {
		t.Fatal("manual encoding differs from Compress")
	}
}

func TestDecompressLengthMismatch(t *testing.T) {
	raw := []byte("length checks")
	enc, err := Compress(raw, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Decompress(enc, len(raw)+5, nil); !errors.Is(err, ErrShortOutput) {
		t.Fatalf("want ErrShortOutput, got %v", err)
	}
	if _, err := Decompress(enc, len(raw)-1, nil); !errors.Is(err, ErrTrailingData) {
		t.Fatalf("want ErrTrailingData, got %v", err)
	}
	if _, err := Decompress(enc, -1, nil); !errors.Is(err, ErrNegativeOutLen) {
		t.Fatalf("want ErrNegativeOutLen, got %v", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	bad := []Config{
		{WindowBits: 3, LookaheadBits: 2, InputBufferSize: 8},
		{WindowBits: 16, LookaheadBits: 4, InputBufferSize: 8},
		{WindowBits: 8, LookaheadBits: 2, InputBufferSize: 8},
		{WindowBits: 8, LookaheadBits: 8, InputBufferSize: 8},
		{WindowBits: 8, LookaheadBits: 9, InputBufferSize: 8},
	}
	for _, cfg := range bad {
		if _, err := NewEncoder(&cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%+v: want ErrInvalidConfig from encoder, got %v", cfg, err)
		}
		if _, err := NewDecoder(&cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%+v: want ErrInvalidConfig from decoder, got %v", cfg, err)
		}
	}

	noInput := Config{WindowBits: 8, LookaheadBits: 4}
	if _, err := NewDecoder(&noInput); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig for zero input buffer, got %v", err)
	}
	if _, err := NewEncoder(&noInput); err != nil {
		t.Fatalf("encoder ignores input buffer size: %v", err)
	}

	mustPanic(t, func() { MustNewEncoder(&bad[0]) })
	mustPanic(t, func() { MustNewDecoder(&bad[0]) })
}

func TestDecompressBlock(t *testing.T) {
	cfg := &Config{WindowBits: 9, LookaheadBits: 4, InputBufferSize: 16}
	raw := []byte(strings.Repeat("block after block after block ", 20))
	enc, err := Compress(raw, cfg)
	if err != nil {
		t.Fatal(err)
	}

	src := append(append([]byte{}, enc...), "next block"...)
	out, consumed, err := DecompressBlock(src, len(raw), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, raw) {
		t.Fatal("decoded output mismatch")
	}
	if consumed != len(enc) {
		t.Fatalf("consumed=%d want=%d", consumed, len(enc))
	}

	cut := enc[:len(enc)-2]
	_, consumed, err = DecompressBlock(cut, len(raw), cfg)
	if !errors.Is(err, ErrShortOutput) && !errors.Is(err, ErrTruncated) {
		t.Fatalf("cut block: got %v", err)
	}
	if consumed != len(cut) {
		t.Fatalf("cut block consumed=%d want=%d", consumed, len(cut))
	}

	if out, consumed, err := DecompressBlock(nil, 0, nil); err != nil || len(out) != 0 || consumed != 0 {
		t.Fatalf("empty block: out=%d consumed=%d err=%v", len(out), consumed, err)
	}
	if _, _, err := DecompressBlock(enc, -1, cfg); !errors.Is(err, ErrNegativeOutLen) {
		t.Fatalf("want ErrNegativeOutLen, got %v", err)
	}
}

func TestSteadyStateDoesNotAllocate(t *testing.T) {
	cfg := &Config{WindowBits: 10, LookaheadBits: 5, InputBufferSize: 64}
	enc := MustNewEncoder(cfg)
	dec := MustNewDecoder(cfg)

	input := testInputSet()[4].data
	compressed := make([]byte, 0, 2*len(input)+16)
	plain := make([]byte, len(input)+16)
	var chunk [97]byte
	got := 0
	failed := false

	allocs := testing.AllocsPerRun(20, func() {
		enc.Reset()
		compressed = compressed[:0]
		src := input
		for len(src) > 0 {
			n := enc.Sink(src)
			src = src[n:]
			for {
				m, status := enc.Poll(chunk[:])
				compressed = append(compressed, chunk[:m]...)
				if status == PollEmpty {
					break
				}
			}
		}
		for enc.Finish() == FinishMore {
			m, _ := enc.Poll(chunk[:])
			compressed = append(compressed, chunk[:m]...)
		}

		dec.Reset()
		got = 0
		src = compressed
		for len(src) > 0 {
			n := dec.Sink(src)
			src = src[n:]
			for {
				m, status := dec.Poll(plain[got:])
				got += m
				if status == PollEmpty {
					break
				}
			}
		}
		for {
			status, err := dec.Finish()
			if err != nil {
				failed = true
				return
			}
			if status == FinishDone {
				break
			}
			m, _ := dec.Poll(plain[got:])
			got += m
		}
	})

	if failed {
		t.Fatal("decoder reported truncation")
	}
	if !bytes.Equal(plain[:got], input) {
		t.Fatal("round-trip mismatch")
	}
	if allocs != 0 {
		t.Fatalf("allocs per run = %v, want 0", allocs)
	}
}

func mustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	fn()
}

func FuzzCompressDecompressRoundTrip(f *testing.F) {
	f.Add([]byte(""), uint8(8), uint8(4))
	f.Add([]byte("hello world"), uint8(4), uint8(3))
	f.Add(bytes.Repeat([]byte{0x00}, 1024), uint8(15), uint8(14))
	f.Add(bytes.Repeat([]byte("abc"), 500), uint8(9), uint8(8))

	f.Fuzz(func(t *testing.T, data []byte, w, l uint8) {
		if len(data) > 1<<14 {
			data = data[:1<<14]
		}
		w = MinWindowBits + w%(MaxWindowBits-MinWindowBits+1)
		l = MinLookaheadBits + l%(w-MinLookaheadBits)
		cfg := &Config{WindowBits: w, LookaheadBits: l, InputBufferSize: 17}

		cmp, err := Compress(data, cfg)
		if err != nil {
			t.Fatalf("Compress failed: %v", err)
		}

		out, err := Decompress(cmp, len(data), cfg)
		if err != nil {
			t.Fatalf("Decompress failed: %v", err)
		}
		if !bytes.Equal(out, data) {
			t.Fatalf("round-trip mismatch: got=%d want=%d", len(out), len(data))
		}
	})
}

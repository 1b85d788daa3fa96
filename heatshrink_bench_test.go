package heatshrink

import (
	"bytes"
	"fmt"
	"testing"
)

var benchInput = bytes.Repeat([]byte("Lorem ipsum dolor sit amet, consectetur adipiscing elit. "), 512)

func BenchmarkCompress(b *testing.B) {
	data := benchInput
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Compress(data, nil)
	}
}

func BenchmarkCompressWindows(b *testing.B) {
	data := benchInput
	for _, w := range []uint8{8, 10, 12, 15} {
		for _, index := range []bool{true, false} {
			cfg := &Config{WindowBits: w, LookaheadBits: 4, DisableIndex: !index}
			b.Run(fmt.Sprintf("W=%d/Index=%t", w, index), func(b *testing.B) {
				b.ReportAllocs()
				b.SetBytes(int64(len(data)))
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					_, _ = Compress(data, cfg)
				}
			})
		}
	}
}

func BenchmarkDecompress(b *testing.B) {
	data := benchInput
	enc, err := Compress(data, nil)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Decompress(enc, len(data), nil)
	}
}

package heatshrink

// compressChunk is the scratch size used to drain the encoder.
const compressChunk = 4096

// Compress compresses src into a raw heatshrink token stream. cfg nil means DefaultConfig().
// The result carries no header: the caller must record the configuration and,
// for Decompress, the original length.
func Compress(src []byte, cfg *Config) ([]byte, error) {
	enc, err := NewEncoder(cfg)
	if err != nil {
		return nil, err
	}

	// Worst case is all literals: 9 bits per byte, plus the final partial byte.
	out := make([]byte, 0, len(src)+len(src)/8+1)
	scratch := make([]byte, compressChunk)

	drain := func() {
		for {
			n, status := enc.Poll(scratch)
			out = append(out, scratch[:n]...)
			if status == PollEmpty {
				return
			}
		}
	}

	for len(src) > 0 {
		n := enc.Sink(src)
		src = src[n:]
		drain()
	}

	for enc.Finish() == FinishMore {
		drain()
	}

	return out, nil
}

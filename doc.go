/*
Package heatshrink implements the heatshrink LZSS compression format with a
suspend/resume (sink/poll) API suited to small, fixed memory budgets.

Format: a headerless sequence of tokens packed MSB-first.
Tag bit 1: an 8-bit literal follows.
Tag bit 0: a back-reference follows, WindowBits of (offset-1) then LookaheadBits of (length-1).
The final byte is padded with zero bits. The stream records neither its
parameters nor its length, and carries no checksum; callers supply framing.

Window: 2^WindowBits bytes (4..15). Lookahead: 2^LookaheadBits bytes (3..WindowBits-1).
Encoder memory is 2*window bytes plus an optional int32 index of the same length.
Decoder memory is the input staging buffer plus one window.

Use Encoder and Decoder directly for incremental, allocation-free operation.
Use NewWriter and NewReader for io.Writer/io.Reader adapters.
Use Compress and Decompress for whole buffers with a known output length.
Use DecompressBlock to decode one stream from the start of a slice and get the bytes it occupies.
Use DecompressFromReader to decode one stream and leave r positioned after it.
Use Tokens to list the tokens of a stream for inspection.

# Examples

Drive an encoder by hand:

	enc, err := heatshrink.NewEncoder(nil)
	if err != nil {
		return err
	}
	buf := make([]byte, 64)
	for len(data) > 0 {
		n := enc.Sink(data)
		data = data[n:]
		for {
			m, status := enc.Poll(buf)
			emit(buf[:m])
			if status == heatshrink.PollEmpty {
				break
			}
		}
	}
	for enc.Finish() == heatshrink.FinishMore {
		m, _ := enc.Poll(buf)
		emit(buf[:m])
	}

Round-trip compress and decompress:

	cfg := &heatshrink.Config{WindowBits: 10, LookaheadBits: 5, InputBufferSize: 64}
	enc, err := heatshrink.Compress(data, cfg)
	if err != nil {
		return err
	}
	dec, err := heatshrink.Decompress(enc, len(data), cfg)
	if err != nil {
		return err
	}
	// dec equals data

Stream through io adapters:

	w, _ := heatshrink.NewWriter(dst, nil)
	_, _ = io.Copy(w, src)
	_ = w.Close()

	r, _ := heatshrink.NewReader(compressed, nil)
	plain, err := io.ReadAll(r) // err wraps ErrTruncated if the stream stops mid-token

Use caller-owned storage (no allocation by the codec):

	cfg := heatshrink.DefaultConfig()
	var encBuf [2 << heatshrink.DefaultWindowBits]byte
	var encIndex [2 << heatshrink.DefaultWindowBits]int32
	enc, err := heatshrink.NewEncoderWithBuffers(cfg, encBuf[:], encIndex[:])
*/
package heatshrink

package heatshrink

import "io"

// writeChunk is the size of the scratch buffer Writer polls into.
const writeChunk = 512

// Writer compresses everything written to it into an underlying io.Writer.
// Close must be called to flush the final token and padding; it does not
// close the underlying writer.
type Writer struct {
	w       io.Writer
	enc     *Encoder
	scratch []byte
	err     error
	closed  bool
}

// NewWriter returns a Writer compressing into w with cfg. nil means DefaultConfig().
func NewWriter(w io.Writer, cfg *Config) (*Writer, error) {
	enc, err := NewEncoder(cfg)
	if err != nil {
		return nil, err
	}

	return &Writer{w: w, enc: enc, scratch: make([]byte, writeChunk)}, nil
}

// Reset discards unflushed state and writes to dst, keeping the configuration.
func (w *Writer) Reset(dst io.Writer) {
	w.w = dst
	w.enc.Reset()
	w.err = nil
	w.closed = false
}

// Write compresses p. Compressed bytes reach the underlying writer whenever
// the encoder's input window fills.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	if w.err != nil {
		return 0, w.err
	}

	written := 0
	for len(p) > 0 {
		n := w.enc.Sink(p)
		written += n
		p = p[n:]

		if err := w.drain(); err != nil {
			return written, err
		}
	}

	return written, nil
}

// Close finishes the stream and flushes the remaining output.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	if w.err != nil {
		return w.err
	}

	for w.enc.Finish() == FinishMore {
		if err := w.drain(); err != nil {
			return err
		}
	}

	return nil
}

// drain polls the encoder until it asks for more input.
func (w *Writer) drain() error {
	for {
		n, status := w.enc.Poll(w.scratch)
		if n > 0 {
			if _, err := w.w.Write(w.scratch[:n]); err != nil {
				w.err = err
				return err
			}
		}
		if status == PollEmpty {
			return nil
		}
	}
}

package heatshrink

import (
	"errors"
	"io"
)

// readChunk is the size of the compressed read-ahead buffer used by Reader.
const readChunk = 512

// Reader decompresses a heatshrink stream read from an underlying io.Reader.
// The stream ends at EOF of the underlying reader; a stream that stops
// mid-token yields ErrTruncated.
type Reader struct {
	r   io.Reader
	dec *Decoder

	in    []byte // Compressed bytes read but not yet sunk.
	inPos int
	inLen int
	eof   bool
	err   error
}

// NewReader returns a Reader decoding r with cfg. nil means DefaultConfig().
func NewReader(r io.Reader, cfg *Config) (*Reader, error) {
	if r == nil {
		return nil, ErrNilReader
	}

	dec, err := NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	return &Reader{r: r, dec: dec, in: make([]byte, readChunk)}, nil
}

// Reset discards all state and reads from r, keeping the configuration.
func (r *Reader) Reset(src io.Reader) {
	r.r = src
	r.dec.Reset()
	r.inPos, r.inLen = 0, 0
	r.eof = false
	r.err = nil
}

// Read decodes into p.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for {
		n, status := r.dec.Poll(p)
		if n > 0 || status == PollMore {
			return n, nil
		}
		if err := r.feed(); err != nil {
			return 0, err
		}
	}
}

// feed hands the decoder more input after Poll reported PollEmpty, or
// finishes it at EOF. A staging buffer the decoder could not drain holds
// fewer bits than one field, so Sink always accepts bytes here.
func (r *Reader) feed() error {
	for {
		if r.inPos < r.inLen {
			r.inPos += r.dec.Sink(r.in[r.inPos:r.inLen])
			return nil
		}

		if r.err != nil {
			return r.err
		}

		if r.eof {
			status, err := r.dec.Finish()
			if err != nil {
				r.err = err
				return err
			}
			if status == FinishDone {
				r.err = io.EOF
				return io.EOF
			}
			return nil
		}

		m, err := r.r.Read(r.in)
		r.inPos, r.inLen = 0, m
		if errors.Is(err, io.EOF) {
			r.eof = true
		} else if err != nil {
			r.err = err
		}
	}
}

// sliceByteReader reads bytes from an in-memory slice and tracks the position.
type sliceByteReader struct {
	data []byte // Compressed input.
	pos  int    // Next byte to read.
}

// ReadByte returns the next byte or io.EOF at the end of the slice.
func (r *sliceByteReader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}

	b := r.data[r.pos]
	r.pos++

	return b, nil
}

// countingByteReader reads from a byte reader and counts the number of bytes read.
type countingByteReader struct {
	base  io.ByteReader // The byte reader to read from.
	count int64         // The number of bytes read.
}

// ReadByte reads a byte from the reader and increments the count.
func (r *countingByteReader) ReadByte() (byte, error) {
	b, err := r.base.ReadByte()
	if err != nil {
		return 0, err
	}

	r.count++

	return b, nil
}

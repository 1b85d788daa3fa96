package heatshrink

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

const (
	// initialOutputCap caps the up-front output allocation of the byte-reader paths.
	initialOutputCap = 64 << 10
	// pollChunk is the scratch size those paths poll into.
	pollChunk = 512
)

// Decompress decodes src into a new buffer of exactly outLen bytes.
// cfg nil means DefaultConfig(). It fails if src decodes to fewer bytes
// (ErrShortOutput), more bytes (ErrTrailingData), or stops mid-token (ErrTruncated).
func Decompress(src []byte, outLen int, cfg *Config) ([]byte, error) {
	if outLen < 0 {
		return nil, ErrNegativeOutLen
	}

	dec, err := NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	out := make([]byte, outLen)
	pos := 0
	var probe [1]byte

	drain := func() error {
		for {
			var n int
			var status PollStatus
			if pos < outLen {
				n, status = dec.Poll(out[pos:])
				pos += n
			} else {
				n, status = dec.Poll(probe[:])
				if n > 0 {
					return fmt.Errorf("%w: want=%d", ErrTrailingData, outLen)
				}
			}
			if status == PollEmpty {
				return nil
			}
		}
	}

	for len(src) > 0 {
		n := dec.Sink(src)
		src = src[n:]
		if err := drain(); err != nil {
			return nil, err
		}
	}

	if err := finishDecoder(dec, drain); err != nil {
		return nil, err
	}
	if pos != outLen {
		return nil, fmt.Errorf("%w: got=%d want=%d", ErrShortOutput, pos, outLen)
	}

	return out, nil
}

// DecompressBlock decodes one stream of outLen bytes from the beginning of src.
// It returns the decoded bytes and the number of src bytes the stream occupies.
// Unlike Decompress, bytes after the stream's final (padded) byte are ignored.
func DecompressBlock(src []byte, outLen int, cfg *Config) ([]byte, int, error) {
	reader := &sliceByteReader{data: src}
	out, err := decompressFromByteReader(reader, outLen, cfg)
	if err != nil {
		return nil, reader.pos, err
	}

	return out, reader.pos, nil
}

// DecompressFromReader decodes one stream of outLen bytes from r and returns
// the number of compressed bytes consumed. Input is read one byte at a time
// and reading stops as soon as outLen bytes are produced, so r is left
// positioned right after the stream's final (padded) byte.
func DecompressFromReader(r io.Reader, outLen int, cfg *Config) ([]byte, int64, error) {
	if r == nil {
		return nil, 0, ErrNilReader
	}

	var byteReader io.ByteReader
	if existing, ok := r.(io.ByteReader); ok {
		byteReader = existing
	} else {
		byteReader = bufio.NewReader(r)
	}

	countingReader := &countingByteReader{base: byteReader}
	out, err := decompressFromByteReader(countingReader, outLen, cfg)
	if err != nil {
		return nil, countingReader.count, err
	}

	return out, countingReader.count, nil
}

// decompressFromByteReader feeds r into a decoder one byte at a time until
// outLen bytes are decoded. The output grows with the decoded data, so a
// large outLen costs memory only once the stream delivers it.
func decompressFromByteReader(r io.ByteReader, outLen int, cfg *Config) ([]byte, error) {
	if outLen < 0 {
		return nil, ErrNegativeOutLen
	}

	dec, err := NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, min(outLen, initialOutputCap))
	var scratch [pollChunk]byte
	drain := func() error {
		for len(out) < outLen {
			n, status := dec.Poll(scratch[:min(len(scratch), outLen-len(out))])
			out = append(out, scratch[:n]...)
			if status == PollEmpty {
				return nil
			}
		}
		return nil
	}
	finishDrain := func() error {
		if len(out) == outLen {
			return fmt.Errorf("%w: want=%d", ErrTrailingData, outLen)
		}
		return drain()
	}

	var one [1]byte
	for len(out) < outLen {
		b, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			if err := finishDecoder(dec, finishDrain); err != nil {
				return nil, err
			}
			if len(out) == outLen {
				return out, nil
			}
			return nil, fmt.Errorf("%w: got=%d want=%d", ErrShortOutput, len(out), outLen)
		}
		if err != nil {
			return nil, err
		}

		one[0] = b
		dec.Sink(one[:])
		if err := drain(); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// finishDecoder calls Finish until the decoder is done, draining between calls.
func finishDecoder(dec *Decoder, drain func() error) error {
	for {
		status, err := dec.Finish()
		if err != nil {
			return err
		}
		if status == FinishDone {
			return nil
		}
		if err := drain(); err != nil {
			return err
		}
	}
}

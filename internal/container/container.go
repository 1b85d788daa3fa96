// Package container frames a heatshrink stream with its parameters, the
// original length and a Skein-512-256 digest of the plain data.
//
// Layout:
//
//	"HSK1" | window bits | lookahead bits | uvarint length | tokens | digest[32]
package container

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/dchest/skein"
	"github.com/woozymasta/heatshrink"
)

// DigestSize is the length of the trailing digest in bytes.
const DigestSize = 32

// MaxLength bounds the declared plain length accepted by Read.
const MaxLength = 1 << 30

var magic = [4]byte{'H', 'S', 'K', '1'}

var (
	ErrBadMagic       = errors.New("not a heatshrink container")
	ErrDigestMismatch = errors.New("container digest mismatch")
	ErrTooLarge       = errors.New("container declares too large a payload")
)

func digest(plain []byte) []byte {
	h := skein.New(DigestSize, nil)
	_, _ = h.Write(plain)

	return h.Sum(nil)
}

// Write encodes plain with cfg and writes the framed result to w.
// nil cfg means heatshrink.DefaultConfig().
func Write(w io.Writer, plain []byte, cfg *heatshrink.Config) error {
	if cfg == nil {
		cfg = heatshrink.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var header [len(magic) + 2 + binary.MaxVarintLen64]byte
	n := copy(header[:], magic[:])
	header[n] = cfg.WindowBits
	header[n+1] = cfg.LookaheadBits
	n += 2
	n += binary.PutUvarint(header[n:], uint64(len(plain)))
	if _, err := w.Write(header[:n]); err != nil {
		return err
	}

	hw, err := heatshrink.NewWriter(w, cfg)
	if err != nil {
		return err
	}
	if _, err := hw.Write(plain); err != nil {
		return err
	}
	if err := hw.Close(); err != nil {
		return err
	}

	_, err = w.Write(digest(plain))
	return err
}

// Read parses one container from r and returns the plain data and the
// stream parameters found in the header. The returned config uses the
// default decoder input buffer size.
func Read(r io.Reader) ([]byte, *heatshrink.Config, error) {
	br, ok := r.(interface {
		io.Reader
		io.ByteReader
	})
	if !ok {
		br = bufio.NewReader(r)
	}

	var head [len(magic) + 2]byte
	if _, err := io.ReadFull(br, head[:]); err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	if !bytes.Equal(head[:len(magic)], magic[:]) {
		return nil, nil, fmt.Errorf("%w: magic % x", ErrBadMagic, head[:len(magic)])
	}

	cfg := heatshrink.DefaultConfig()
	cfg.WindowBits = head[len(magic)]
	cfg.LookaheadBits = head[len(magic)+1]
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	size, err := binary.ReadUvarint(br)
	if err != nil {
		return nil, nil, fmt.Errorf("read length: %w", err)
	}
	if size > MaxLength {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}

	plain, _, err := heatshrink.DecompressFromReader(br, int(size), cfg) //nolint:gosec // G115: size <= MaxLength
	if err != nil {
		return nil, nil, err
	}

	var sum [DigestSize]byte
	if _, err := io.ReadFull(br, sum[:]); err != nil {
		return nil, nil, fmt.Errorf("read digest: %w", err)
	}
	if !bytes.Equal(sum[:], digest(plain)) {
		return nil, nil, ErrDigestMismatch
	}

	return plain, cfg, nil
}

package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/woozymasta/heatshrink"
	"github.com/woozymasta/heatshrink/internal/container"
)

type configFlags struct {
	windowBits    *uint
	lookaheadBits *uint
	bufferSize    *int
}

func addConfigFlags(subFlags *flag.FlagSet, withBuffer bool) configFlags {
	cf := configFlags{
		windowBits:    subFlags.Uint("w", heatshrink.DefaultWindowBits, ""),
		lookaheadBits: subFlags.Uint("l", heatshrink.DefaultLookaheadBits, ""),
	}
	if withBuffer {
		cf.bufferSize = subFlags.Int("b", heatshrink.DefaultInputBufferSize, "")
	}
	return cf
}

// config turns parsed flags into a validated Config, exiting on bad values.
func (cf configFlags) config() *heatshrink.Config {
	if *cf.windowBits > 255 || *cf.lookaheadBits > 255 {
		usageErrorf("window and lookahead bits must fit in a byte")
	}

	cfg := heatshrink.DefaultConfig()
	cfg.WindowBits = uint8(*cf.windowBits)
	cfg.LookaheadBits = uint8(*cf.lookaheadBits)
	if cf.bufferSize != nil {
		cfg.InputBufferSize = *cf.bufferSize
		if cfg.InputBufferSize <= 0 {
			usageErrorf("input buffer size must be positive")
		}
	}
	if err := cfg.Validate(); err != nil {
		usageErrorf("%s", err.Error())
	}
	return cfg
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// writeOutput runs fn against the file at path, or standard output for "-".
func writeOutput(path string, fn func(w io.Writer) error) (err error) {
	var f *os.File
	if path == "-" {
		f = os.Stdout
	} else {
		f, err = os.Create(path)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
		}()
	}

	bw := bufio.NewWriter(f)
	err = fn(bw)
	if flushErr := bw.Flush(); err == nil {
		err = flushErr
	}
	return err
}

func readInput(path string) ([]byte, error) {
	in, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return io.ReadAll(in)
}

// encodeStream compresses everything from r into w.
func encodeStream(r io.Reader, w io.Writer, cfg *heatshrink.Config) (int64, error) {
	hw, err := heatshrink.NewWriter(w, cfg)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(hw, r)
	if err != nil {
		return n, err
	}
	return n, hw.Close()
}

// decodeStream decompresses everything from r into w.
func decodeStream(r io.Reader, w io.Writer, cfg *heatshrink.Config) (int64, error) {
	hr, err := heatshrink.NewReader(r, cfg)
	if err != nil {
		return 0, err
	}
	return io.Copy(w, hr)
}

func streamFromArgs(name string, withBuffer bool, run func(io.Reader, io.Writer, *heatshrink.Config) (int64, error)) (func() error, error) {
	subFlags := newSubFlags()
	cf := addConfigFlags(subFlags, withBuffer)
	parseSubFlags(subFlags)

	cfg := cf.config()
	inPath := optionalArg()
	outPath := optionalArg()
	endOfArgs()

	return func() error {
		in, err := openInput(inPath)
		if err != nil {
			return err
		}
		defer in.Close()

		return writeOutput(outPath, func(w io.Writer) error {
			n, err := run(bufio.NewReader(in), w, cfg)
			if err != nil {
				return err
			}
			log.Infof("%s: %d plain bytes (w=%d l=%d)", name, n, cfg.WindowBits, cfg.LookaheadBits)
			return nil
		})
	}, nil
}

func encodeFromArgs() (func() error, error) {
	return streamFromArgs("encode", false, encodeStream)
}

func decodeFromArgs() (func() error, error) {
	return streamFromArgs("decode", true, decodeStream)
}

func packFromArgs() (func() error, error) {
	subFlags := newSubFlags()
	cf := addConfigFlags(subFlags, false)
	parseSubFlags(subFlags)

	cfg := cf.config()
	inPath := optionalArg()
	outPath := optionalArg()
	endOfArgs()

	return func() error {
		plain, err := readInput(inPath)
		if err != nil {
			return err
		}
		return writeOutput(outPath, func(w io.Writer) error {
			return container.Write(w, plain, cfg)
		})
	}, nil
}

func unpackFromArgs() (func() error, error) {
	parseSubFlags(newSubFlags())

	inPath := optionalArg()
	outPath := optionalArg()
	endOfArgs()

	return func() error {
		in, err := openInput(inPath)
		if err != nil {
			return err
		}
		defer in.Close()

		plain, cfg, err := container.Read(bufio.NewReader(in))
		if err != nil {
			return err
		}
		log.Infof("unpack: %d bytes (w=%d l=%d)", len(plain), cfg.WindowBits, cfg.LookaheadBits)

		return writeOutput(outPath, func(w io.Writer) error {
			_, err := w.Write(plain)
			return err
		})
	}, nil
}

// dumpTokens writes one line per token and a closing summary.
func dumpTokens(w io.Writer, src []byte, cfg *heatshrink.Config) error {
	tokens, parseErr := heatshrink.Tokens(src, cfg)

	pos := 0
	for _, t := range tokens {
		if _, err := fmt.Fprintf(w, "%8d  %s\n", pos, t); err != nil {
			return err
		}
		if t.Literal {
			pos++
		} else {
			pos += int(t.Length)
		}
	}

	s := heatshrink.Summarize(tokens, cfg)
	if _, err := fmt.Fprintf(w, "literals=%d backrefs=%d bits=%d compressed=%d expanded=%d\n",
		s.Literals, s.Backrefs, s.Bits, len(src), s.Expanded); err != nil {
		return err
	}

	return parseErr
}

func dumpFromArgs() (func() error, error) {
	subFlags := newSubFlags()
	cf := addConfigFlags(subFlags, false)
	parseSubFlags(subFlags)

	cfg := cf.config()
	inPath := optionalArg()
	endOfArgs()

	return func() error {
		src, err := readInput(inPath)
		if err != nil {
			return err
		}
		return writeOutput("-", func(w io.Writer) error {
			return dumpTokens(w, src, cfg)
		})
	}, nil
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Maxim Levchenko (WoozyMasta)
// Source: github.com/woozymasta/heatshrink

package heatshrink

import "errors"

// Package errors. Use errors.New for static messages, fmt.Errorf when values are needed.
var (
	ErrInvalidConfig  = errors.New("invalid window/lookahead configuration")
	ErrBufferSize     = errors.New("provided buffer has wrong size for configuration")
	ErrTruncated      = errors.New("compressed stream truncated mid-token")
	ErrShortOutput    = errors.New("compressed stream ended before expected output length")
	ErrTrailingData   = errors.New("compressed stream expands beyond expected output length")
	ErrNilReader      = errors.New("reader is nil")
	ErrNegativeOutLen = errors.New("output length must be non-negative")
	ErrClosed         = errors.New("write to closed heatshrink writer")
)

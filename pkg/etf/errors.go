package etf

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat matches every *FormatError.
	ErrFormat = errors.New("etf: format error")
	// ErrUnsupportedType matches every *UnsupportedTypeError.
	ErrUnsupportedType = errors.New("etf: unsupported type")
	// ErrResource matches every *ResourceError.
	ErrResource = errors.New("etf: resource limit")
)

// FormatError reports a malformed or unexpected byte sequence. Offset is the
// position in the buffer being decoded when the problem was found; for terms
// inside a COMPRESSED payload it is relative to the inflated bytes.
type FormatError struct {
	Offset int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("etf: %s at offset %d", e.Reason, e.Offset)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// UnsupportedTypeError reports a value the encoder has no wire form for.
type UnsupportedTypeError struct {
	Type   string
	Detail string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("etf: cannot encode %s: %s", e.Type, e.Detail)
	}
	return fmt.Sprintf("etf: cannot encode %s", e.Type)
}

func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// ResourceError reports a failed or over-limit decompression.
type ResourceError struct {
	Reason string
	Err    error
}

func (e *ResourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("etf: %s: %v", e.Reason, e.Err)
	}
	return "etf: " + e.Reason
}

func (e *ResourceError) Is(target error) bool {
	return target == ErrResource
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

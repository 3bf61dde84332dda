// Package trace provides the memory-access streams that drive a simulation:
// trace file parsers and synthetic generators.
package trace

import (
	"errors"
	"fmt"
)

// A Record is one demand access of a trace.
type Record struct {
	// Cycle is the earliest cycle the access may issue at. Zero means as soon
	// as the previous access has issued.
	Cycle   uint64
	Address uint64
	IP      uint64
}

// A Reader returns records one at a time. Next returns io.EOF after the last
// record.
type Reader interface {
	Next() (Record, error)
}

// Trace formats.
const (
	TextFormat   = "text"
	BinaryFormat = "binary"
)

// IsAvailableFormat tells if format names a supported trace format.
func IsAvailableFormat(format string) bool {
	switch format {
	case TextFormat, BinaryFormat:
		return true
	default:
		return false
	}
}

// ErrInvalidFormat is returned for records that cannot be parsed.
var ErrInvalidFormat = errors.New("invalid trace format")

func wrapError(err error) error {
	return fmt.Errorf("parse: %w", err)
}

// Package types holds shared domain types for firmwarenator.
//
// This file defines sentinel errors and an error wrapper for classifying
// run failures. The classification enables callers to use errors.Is/errors.As
// for typed assertions rather than string matching, even though every
// failure class ultimately maps to exit code 1.
package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for run failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrUsage indicates bad or missing CLI arguments.
	ErrUsage = errors.New("usage error")

	// ErrConfig indicates an unresolvable configuration, such as an unknown
	// compressor name, an unconfigured profile, or a missing executable.
	ErrConfig = errors.New("configuration error")

	// ErrPreflight indicates a pre-run check failed, such as the output
	// file already existing without --force. No staging has happened yet.
	ErrPreflight = errors.New("preflight check failed")

	// ErrDiscovery indicates the kernel log could not be read or scanned.
	ErrDiscovery = errors.New("discovery failed")

	// ErrStaging indicates the staging tree could not be assembled, such as
	// a discovered firmware file missing from the source directory.
	ErrStaging = errors.New("staging failed")

	// ErrPackaging indicates an external builder or compressor failed.
	ErrPackaging = errors.New("packaging failed")
)

// RunError wraps an underlying error with run failure classification.
// It preserves the original error in the chain for inspection via errors.As.
type RunError struct {
	// Kind is the sentinel error for classification (e.g., ErrStaging).
	Kind error
	// Op is the operation that failed (e.g., "stage", "cpio", "mksquashfs").
	Op string
	// Path is the file or command involved, if any.
	Path string
	// Err is the underlying error, if any.
	Err error
}

func (e *RunError) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *RunError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *RunError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// NewRunError creates a classified run error.
func NewRunError(kind error, op, path string, err error) *RunError {
	return &RunError{
		Kind: kind,
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// UsageErrorf creates an ErrUsage-classified error with a formatted message.
func UsageErrorf(format string, args ...any) error {
	return &RunError{Kind: ErrUsage, Op: "resolve", Err: fmt.Errorf(format, args...)}
}

// ConfigErrorf creates an ErrConfig-classified error with a formatted message.
func ConfigErrorf(format string, args ...any) error {
	return &RunError{Kind: ErrConfig, Op: "resolve", Err: fmt.Errorf(format, args...)}
}

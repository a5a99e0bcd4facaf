package modlauncher

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDescriptor = errors.New("invalid descriptor")
	ErrTransport         = errors.New("transport error")
	ErrArchive           = errors.New("archive error")
	ErrFilesystem        = errors.New("filesystem error")
)

// DescriptorError reports a manifest or version descriptor that is
// semantically malformed. It matches ErrInvalidDescriptor.
type DescriptorError struct {
	Reason string
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("invalid descriptor: %s", e.Reason)
}

func (e *DescriptorError) Is(target error) bool {
	return target == ErrInvalidDescriptor
}

func InvalidDescriptor(format string, args ...interface{}) error {
	return &DescriptorError{Reason: fmt.Sprintf(format, args...)}
}

// Filesystem wraps a failed file operation on path.
func Filesystem(op, path string, err error) error {
	return fmt.Errorf("%w: %s %q: %w", ErrFilesystem, op, path, err)
}

// Transport wraps a failed network operation on rawurl.
func Transport(rawurl string, err error) error {
	return fmt.Errorf("%w: %q: %w", ErrTransport, rawurl, err)
}

// Archive wraps a failure to read archive bytes.
func Archive(err error) error {
	return fmt.Errorf("%w: %w", ErrArchive, err)
}

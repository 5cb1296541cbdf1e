package dictionary

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed marks a record without a valid code or without candidates,
	// or a file too short to hold any record.
	ErrMalformed = errors.New("malformed dictionary record")
	// ErrEmpty marks a resource that holds no records at all.
	ErrEmpty = errors.New("dictionary has no entries")
	// ErrUnsupportedFormat marks a file whose extension is not a dictionary format.
	ErrUnsupportedFormat = errors.New("unsupported dictionary format")
)

// LoadError reports why a dictionary was rejected. Line is 1-based and 0
// when the failure is not tied to one record.
type LoadError struct {
	Name string
	Path string
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	src := e.Path
	if src == "" {
		src = e.Name
	}
	if e.Line > 0 {
		return fmt.Sprintf("load dictionary %s:%d: %v", src, e.Line, e.Err)
	}
	return fmt.Sprintf("load dictionary %s: %v", src, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Package diskerrors contains the tagged error types used across the disk
// decomposition engine. Each error category is a private type (a string,
// or for ParserFailure a struct wrapping the parser's error) that
// implements error plus a marker interface, so callers can test for a
// category with an Isxxx predicate instead of string-matching.
package diskerrors

import "fmt"

// --------------------- UnsupportedSize

// unsupportedSize is returned when a disk image buffer is not exactly
// 143,360 bytes (140 KiB): the engine only understands that one size.
type unsupportedSize string

// UnsupportedSizeI is the tag interface marking UnsupportedSize errors.
type UnsupportedSizeI interface {
	IsUnsupportedSize()
}

var _ UnsupportedSizeI = unsupportedSize("test")

func (e unsupportedSize) Error() string       { return string(e) }
func (e unsupportedSize) IsUnsupportedSize() {}

// UnsupportedSizef is fmt.Errorf for UnsupportedSize errors.
func UnsupportedSizef(format string, a ...interface{}) error {
	return unsupportedSize(fmt.Sprintf(format, a...))
}

// IsUnsupportedSize returns true if err is an UnsupportedSize error.
func IsUnsupportedSize(err error) bool {
	_, ok := err.(UnsupportedSizeI)
	return ok
}

// --------------------- OutOfBounds

// outOfBounds is returned when a (track, sector) pair is outside the valid
// range for the disk geometry.
type outOfBounds string

// OutOfBoundsI is the tag interface marking OutOfBounds errors.
type OutOfBoundsI interface {
	IsOutOfBounds()
}

var _ OutOfBoundsI = outOfBounds("test")

func (e outOfBounds) Error() string    { return string(e) }
func (e outOfBounds) IsOutOfBounds() {}

// OutOfBoundsf is fmt.Errorf for OutOfBounds errors.
func OutOfBoundsf(format string, a ...interface{}) error {
	return outOfBounds(fmt.Sprintf(format, a...))
}

// IsOutOfBounds returns true if err is an OutOfBounds error.
func IsOutOfBounds(err error) bool {
	_, ok := err.(OutOfBoundsI)
	return ok
}

// --------------------- NotDos33

// notDos33 is returned when a disk's VTOC fields are inconsistent with
// DOS 3.3, and the disk should be rejected as that filesystem.
type notDos33 string

// NotDos33I is the tag interface marking NotDos33 errors.
type NotDos33I interface {
	IsNotDos33()
}

var _ NotDos33I = notDos33("test")

func (e notDos33) Error() string { return string(e) }
func (e notDos33) IsNotDos33()   {}

// NotDos33f is fmt.Errorf for NotDos33 errors.
func NotDos33f(format string, a ...interface{}) error {
	return notDos33(fmt.Sprintf(format, a...))
}

// IsNotDos33 returns true if err is a NotDos33 error.
func IsNotDos33(err error) bool {
	_, ok := err.(NotDos33I)
	return ok
}

// --------------------- ParserFailure

// parserFailure wraps an error raised by a registered file-type parser.
type parserFailure struct {
	filename string
	err      error
}

// ParserFailureI is the tag interface marking ParserFailure errors.
type ParserFailureI interface {
	IsParserFailure()
}

var _ ParserFailureI = parserFailure{}

func (e parserFailure) Error() string {
	return fmt.Sprintf("parsing %q: %v", e.filename, e.err)
}
func (e parserFailure) IsParserFailure() {}
func (e parserFailure) Unwrap() error    { return e.err }

// ParserFailuref wraps err as a ParserFailure for the given filename.
func ParserFailuref(filename string, err error) error {
	return parserFailure{filename: filename, err: err}
}

// IsParserFailure returns true if err is a ParserFailure error.
func IsParserFailure(err error) bool {
	_, ok := err.(ParserFailureI)
	return ok
}

package wire

// Every decoder in this package reports failures through a *DecodeError whose
// Kind is one of the sentinel kinds below, so callers can branch with
// errors.Is regardless of how deeply the failing field was nested. Encoders
// only fail when the underlying writer refuses bytes; those failures are
// reported through *EncodeError.

import (
	"errors"
	"fmt"
	"io"
)

// Error kinds.
var (
	// ErrUnexpectedEOF is returned when the cursor runs out of bytes in the
	// middle of a field.
	ErrUnexpectedEOF = errors.New("unexpected end of payload")

	// ErrInvalidData is returned when the bytes are present but do not
	// describe a valid value: a non-canonical compact size in strict mode,
	// a fixed-size field that disagrees with its declared size, a length
	// prefix larger than the remaining cursor, or an unknown transaction
	// format.
	ErrInvalidData = errors.New("invalid data")

	// ErrIO is the kind attached to encode failures bubbling up from the
	// destination writer.
	ErrIO = errors.New("i/o fault")
)

// DecodeError is returned when a payload cannot be decoded.
//
// Field names the innermost field being read when the failure happened, and
// nested decoders prefix it with their own position (for example
// "block.tx[3].vin[0].script"). Kind is ErrUnexpectedEOF or ErrInvalidData.
type DecodeError struct {
	Kind  error  // ErrUnexpectedEOF or ErrInvalidData
	Field string // Dotted path of the field that failed
	Cause error  // Underlying error (if any)
}

func (e *DecodeError) Error() string {
	if e.Cause != nil && e.Cause != e.Kind {
		return fmt.Sprintf("decode %s: %v: %v", e.Field, e.Kind, e.Cause)
	}
	return fmt.Sprintf("decode %s: %v", e.Field, e.Kind)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *DecodeError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// EncodeError is returned when the destination writer refuses bytes.
type EncodeError struct {
	Field string // Field being written
	Cause error  // Error returned by the writer
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Field, e.Cause)
}

// Unwrap exposes ErrIO and the writer error.
func (e *EncodeError) Unwrap() []error {
	return []error{ErrIO, e.Cause}
}

// readErr classifies an error returned while reading field.
func readErr(field string, err error) error {
	if err == nil {
		return nil
	}

	var de *DecodeError
	if errors.As(err, &de) {
		return &DecodeError{Kind: de.Kind, Field: field + "." + de.Field, Cause: de.Cause}
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &DecodeError{Kind: ErrUnexpectedEOF, Field: field, Cause: io.ErrUnexpectedEOF}
	}
	return &DecodeError{Kind: ErrInvalidData, Field: field, Cause: err}
}

// invalidf builds an ErrInvalidData decode error.
func invalidf(field, format string, args ...any) error {
	return &DecodeError{
		Kind:  ErrInvalidData,
		Field: field,
		Cause: fmt.Errorf(format, args...),
	}
}

// writeErr wraps a writer error for field.
func writeErr(field string, err error) error {
	if err == nil {
		return nil
	}

	var ee *EncodeError
	if errors.As(err, &ee) {
		return &EncodeError{Field: field + "." + ee.Field, Cause: ee.Cause}
	}
	return &EncodeError{Field: field, Cause: err}
}

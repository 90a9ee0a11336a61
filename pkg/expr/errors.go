package expr

import (
	"errors"
	"fmt"
)

// SyntaxError reports a malformed expression or operand.
type SyntaxError struct {
	Message string

	// Expression and Position locate the error in the filter text. Position is -1 when unknown.
	Expression string
	Position   int
}

func newSyntaxError(format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Message:  fmt.Sprintf(format, args...),
		Position: -1,
	}
}

func (err *SyntaxError) Error() string {
	if err.Expression == "" || err.Position < 0 {
		return err.Message
	}

	position := err.Position
	if position > len(err.Expression) {
		position = len(err.Expression)
	}

	return fmt.Sprintf("%s [%s *HERE* %s].", err.Message, err.Expression[:position], err.Expression[position:])
}

// TransformError wraps an error returned by a transform during evaluation.
type TransformError struct {
	Name string
	Err  error
}

func (err *TransformError) Error() string {
	return fmt.Sprintf("could not apply transform %s(): %s", err.Name, err.Err)
}

func (err *TransformError) Unwrap() error {
	return err.Err
}

// IsSyntaxError reports whether err is or wraps a SyntaxError.
func IsSyntaxError(err error) bool {
	var syntaxErr *SyntaxError
	return errors.As(err, &syntaxErr)
}

// IsTransformError reports whether err is or wraps a TransformError.
func IsTransformError(err error) bool {
	var transformErr *TransformError
	return errors.As(err, &transformErr)
}

package querysql

import (
	"errors"
	"fmt"
)

// GenerationError reports a plan the generator cannot translate.
//
// Generation errors are never retried: an unsupported node is a capability
// gap of the MySQL dialect, and a malformed tree is a bug in whatever built
// the plan.
type GenerationError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Node names the plan node kind being visited, e.g. "*queryir.Except".
	Node string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes generation errors.
type ErrorCode string

const (
	// ErrCodeUnsupported indicates a node kind MySQL cannot express.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED_NODE"

	// ErrCodeMalformed indicates an invariant violation in the input tree.
	ErrCodeMalformed ErrorCode = "MALFORMED_TREE"
)

// Error implements the error interface.
func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Node != "" {
		msg += fmt.Sprintf(" (node=%s)", e.Node)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func unsupported(node any, format string, args ...any) error {
	return &GenerationError{
		Code:    ErrCodeUnsupported,
		Message: fmt.Sprintf(format, args...),
		Node:    nodeName(node),
	}
}

func malformed(node any, format string, args ...any) error {
	return &GenerationError{
		Code:    ErrCodeMalformed,
		Message: fmt.Sprintf(format, args...),
		Node:    nodeName(node),
	}
}

func nodeName(node any) string {
	if node == nil {
		return ""
	}
	return fmt.Sprintf("%T", node)
}

// IsUnsupported reports whether err is an unsupported-node error.
// Uses errors.As to handle wrapped errors.
func IsUnsupported(err error) bool {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Code == ErrCodeUnsupported
	}
	return false
}

// IsMalformed reports whether err is a malformed-tree error.
// Uses errors.As to handle wrapped errors.
func IsMalformed(err error) bool {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Code == ErrCodeMalformed
	}
	return false
}

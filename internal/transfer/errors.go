package transfer

import (
	"errors"
	"fmt"
)

// Kind classifies why an import was rejected.
type Kind string

const (
	KindEmpty     Kind = "empty"
	KindParse     Kind = "parse"
	KindShape     Kind = "shape"
	KindFormat    Kind = "format"
	KindDuplicate Kind = "duplicate"
)

// Sentinel errors, one per Kind. Match them with errors.Is.
var (
	ErrEmptyInput    = errors.New("empty import")
	ErrParse         = errors.New("malformed json")
	ErrShape         = errors.New("tasks not an array")
	ErrInvalidFormat = errors.New("invalid task data")
	ErrDuplicateID   = errors.New("duplicate task id")
)

var kindSentinels = map[Kind]error{
	KindEmpty:     ErrEmptyInput,
	KindParse:     ErrParse,
	KindShape:     ErrShape,
	KindFormat:    ErrInvalidFormat,
	KindDuplicate: ErrDuplicateID,
}

// kindMessages are the texts shown to the user.
var kindMessages = map[Kind]string{
	KindEmpty:     "Field should not be empty",
	KindParse:     "Invalid JSON",
	KindShape:     "Tasks must be an array",
	KindFormat:    "Invalid data format",
	KindDuplicate: "Duplicate id found",
}

// ImportError is returned for every rejected import. Error() is the
// human-readable message; Detail carries diagnostic context for logs.
type ImportError struct {
	Kind   Kind
	Detail string
	Err    error
}

func newImportError(kind Kind, detail string, cause error) *ImportError {
	return &ImportError{Kind: kind, Detail: detail, Err: cause}
}

func (e *ImportError) Error() string {
	msg := kindMessages[e.Kind]
	if e.Kind == KindParse && e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *ImportError) Unwrap() []error {
	errs := []error{kindSentinels[e.Kind]}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the kind of an import error, or "" for any other error.
func KindOf(err error) Kind {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}

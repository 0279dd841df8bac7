package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"ignite/internal/address"
	"ignite/internal/discovery"
	"ignite/internal/kind"
	"ignite/internal/marker"
)

// Machine readable error kinds.
const (
	KindNotFound        = "not_found"
	KindAmbiguous       = "ambiguous_kind"
	KindInvalidAddress  = "invalid_address"
	KindOutsideRoot     = "outside_root"
	KindReprCycle       = "repr_cycle"
	KindVersionConflict = "version_conflict"
	KindPartial         = "partial_discovery"
	KindInvalidQuery    = "invalid_query"
	KindInvalidKind     = "invalid_kind"
	KindInvalidArgument = "invalid_argument"
	KindExists          = "already_exists"
	KindCorrupt         = "corrupt_marker"
	KindCanceled        = "canceled"
	KindInternal        = "internal"
)

var (
	// ErrNotFound is returned when a path or address names no entity.
	ErrNotFound = errors.New("entity not found")
	// ErrReprCycle is returned when a repr chain revisits a path.
	ErrReprCycle = errors.New("repr cycle")
	// ErrVersionConflict is returned when a version directory already exists.
	ErrVersionConflict = errors.New("version conflict")
	// ErrExists is returned when a rename or copy target is taken.
	ErrExists = errors.New("target already exists")
	// ErrInvalidArgument covers malformed names and unsupported requests.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrorClassifier allows errors to declare their classification for
// transport status mapping.
type ErrorClassifier interface {
	ErrorKind() string
}

// Error is the typed error returned by Store operations.
type Error struct {
	Kind string
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorKind implements ErrorClassifier.
func (e *Error) ErrorKind() string { return e.Kind }

// wrap classifies err and attaches op and path. Errors that already carry a
// store Error keep their kind.
func wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Kind: KindOf(err), Op: op, Path: path, Err: err}
}

func newError(k, op, path string, err error) error {
	return &Error{Kind: k, Op: op, Path: path, Err: err}
}

// KindOf maps any error to a machine readable kind. Unknown errors are
// "internal".
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, kind.ErrAmbiguous):
		return KindAmbiguous
	case errors.Is(err, kind.ErrInvalid):
		return KindInvalidKind
	case errors.Is(err, address.ErrOutsideRoot):
		return KindOutsideRoot
	case errors.Is(err, address.ErrInvalid), errors.Is(err, address.ErrAliasUnresolved):
		return KindInvalidAddress
	case errors.Is(err, address.ErrNotAddressable):
		return KindInvalidAddress
	case errors.Is(err, ErrReprCycle):
		return KindReprCycle
	case errors.Is(err, ErrVersionConflict):
		return KindVersionConflict
	case errors.Is(err, ErrExists), errors.Is(err, fs.ErrExist):
		return KindExists
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, discovery.ErrPartial):
		return KindPartial
	case errors.Is(err, marker.ErrCorrupt):
		return KindCorrupt
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}

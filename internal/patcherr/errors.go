// Package patcherr classifies failures of the patch pipeline so callers can
// decide whether a platform, a version, or only a side step is affected.
package patcherr

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a pipeline error.
type Kind string

const (
	// KindMissingRoot: the platform resource root does not exist.
	KindMissingRoot Kind = "missing_root"
	// KindMissingVersionRecord: the version record file is absent.
	KindMissingVersionRecord Kind = "missing_version_record"
	// KindUnreadableResource: a resource could not be sized or hashed.
	KindUnreadableResource Kind = "unreadable_resource"
	// KindCorruptManifest: a persisted manifest or diff file failed to parse or validate.
	KindCorruptManifest Kind = "corrupt_manifest"
	// KindDuplicateResource: two files in one version directory share a name.
	KindDuplicateResource Kind = "duplicate_resource"
	// KindConfig: invalid configuration.
	KindConfig Kind = "config"
)

// Error wraps an underlying error with its Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap lets errors.Is/As reach the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, err error) error {
	if err == nil {
		err = errors.New(string(kind))
	}
	return &Error{Kind: kind, Err: err}
}

// Newf creates an error of the given kind from a format string.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

package storage

import (
	"errors"

	"modernc.org/sqlite"
)

// Error is returned for every failure raised while talking to the database.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "failed to " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code returns the SQLite result code reported by whichever driver raised
// the failure, or 0 when it did not originate in SQLite itself.
func (e *Error) Code() int {
	if e == nil {
		return 0
	}
	var se *sqlite.Error
	if errors.As(e.Err, &se) {
		return se.Code()
	}
	if code, ok := cgoCode(e.Err); ok {
		return code
	}
	return 0
}

// IsStorageError reports whether err came out of this package.
func IsStorageError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}

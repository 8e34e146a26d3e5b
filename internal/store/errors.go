package store

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// Sentinel errors repositories return instead of raw driver errors, so
// callers can branch on the failure kind without parsing messages.
var (
	// ErrDuplicate signals a uniqueness-constraint violation (name or roll
	// already taken within its scope).
	ErrDuplicate = errors.New("already exists")

	// ErrReferential signals a foreign-key violation (parent row missing).
	ErrReferential = errors.New("parent record not found")

	// ErrNotFound signals a lookup or delete that matched no row.
	ErrNotFound = errors.New("not found")
)

// Classify maps SQLite constraint failures onto the sentinel errors above.
// Any other error passes through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		switch serr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ErrDuplicate
		case sqlite3.ErrConstraintForeignKey:
			return ErrReferential
		}
	}
	// Fallback for drivers/paths that surface plain text only.
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	if strings.Contains(msg, "FOREIGN KEY constraint failed") {
		return ErrReferential
	}
	return err
}

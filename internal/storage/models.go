package storage

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is matched by every *DuplicateError.
	ErrDuplicate = errors.New("duplicate key")
)

// Profile is a stored Git identity.
type Profile struct {
	ID        string
	Name      string
	Email     string
	Alias     string // empty when the profile has no alias
	CreatedAt time.Time
}

// Label names the profile for confirmations: "alias (email)", or just the
// email when there is no alias.
func (p Profile) Label() string {
	if p.Alias == "" {
		return p.Email
	}
	return fmt.Sprintf("%s (%s)", p.Alias, p.Email)
}

// DuplicateError reports a UNIQUE constraint violation on insert.
type DuplicateError struct {
	Field string // "email" or "alias"
	Value string
	Err   error
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("profile already exists: %v", e.Err)
	}
	return fmt.Sprintf("a profile with %s %q already exists", e.Field, e.Value)
}

func (e *DuplicateError) Unwrap() error { return e.Err }

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

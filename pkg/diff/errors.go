package diff

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by the typed errors below via errors.Is.
var (
	ErrDuplicateEntity  = errors.New("duplicate entity")
	ErrEntityNotFound   = errors.New("entity not found")
	ErrMissingFromArena = errors.New("missing from arena")
)

// DuplicateEntityError reports a (name, role) pair that already exists in the
// state being loaded or patched.
type DuplicateEntityError struct {
	Name string
	Role string
}

func (e *DuplicateEntityError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Role, e.Name)
}

// Is reports whether target is ErrDuplicateEntity.
func (e *DuplicateEntityError) Is(target error) bool {
	return target == ErrDuplicateEntity
}

// EntityNotFoundError reports a patch subject or parent that is not present in
// the "last" state.
type EntityNotFoundError struct {
	Name string
	Role string
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s %s does not exist", e.Role, e.Name)
}

// Is reports whether target is ErrEntityNotFound.
func (e *EntityNotFoundError) Is(target error) bool {
	return target == ErrEntityNotFound
}

// MissingFromArenaError means an internal index points outside the arena.
// It indicates an engine bug rather than caller misuse.
type MissingFromArenaError struct {
	Index int
}

func (e *MissingFromArenaError) Error() string {
	return fmt.Sprintf("node %d is missing from arena", e.Index)
}

// Is reports whether target is ErrMissingFromArena.
func (e *MissingFromArenaError) Is(target error) bool {
	return target == ErrMissingFromArena
}

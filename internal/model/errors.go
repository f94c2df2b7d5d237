package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrChildNotFound      = fmt.Errorf("child %w", ErrNotFound)
	ErrTaskNotFound       = fmt.Errorf("task %w", ErrNotFound)
	ErrRewardNotFound     = fmt.Errorf("reward %w", ErrNotFound)
	ErrRedemptionNotFound = fmt.Errorf("redemption %w", ErrNotFound)
	ErrFamilyNotFound     = fmt.Errorf("family %w", ErrNotFound)

	ErrInsufficientPoints = errors.New("insufficient points")
	ErrRewardUnavailable  = errors.New("reward is not available")
	ErrInvalidState       = errors.New("invalid state transition")
	ErrConflict           = errors.New("stale write rejected")
	ErrEmailTaken         = errors.New("email already registered")
	ErrValidation         = errors.New("invalid input")
)

// PersistenceError reports a write that did not commit. Nothing from the
// batch was applied.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

package errors

import (
	"errors"
	"fmt"
)

// Error categories. Every error crossing a component boundary wraps one of these.
var (
	ErrTransport      = errors.New("transport error")
	ErrPersistence    = errors.New("persistence error")
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidContext = errors.New("invalid invocation context")
)

// Specific errors, each matching its category with errors.Is.
var (
	ErrRoleNotFound    = fmt.Errorf("role %w", ErrNotFound)
	ErrMemberNotFound  = fmt.Errorf("member %w", ErrNotFound)
	ErrChannelNotFound = fmt.Errorf("channel %w", ErrNotFound)
	ErrGuildNotFound   = fmt.Errorf("guild %w", ErrNotFound)

	ErrInvalidDuration = fmt.Errorf("%w: invalid duration", ErrValidation)
	ErrMissingArgument = fmt.Errorf("%w: missing argument", ErrValidation)
)

func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}

func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func New(text string) error { return errors.New(text) }

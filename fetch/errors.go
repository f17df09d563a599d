package fetch

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrTransport is returned when a backend request could not complete.
	ErrTransport = errors.New("transport error")

	// ErrDecode is returned when a backend response could not be decoded.
	ErrDecode = errors.New("decode error")

	// ErrCancelled is delivered to operations cancelled before completion.
	ErrCancelled = errors.New("operation cancelled")

	// ErrAuth is delivered to every operation queued behind a failed login.
	ErrAuth = errors.New("authentication failed")
)

func classify(err error) bool {
	return errors.Is(err, ErrTransport) ||
		errors.Is(err, ErrDecode) ||
		errors.Is(err, ErrCancelled) ||
		errors.Is(err, ErrAuth)
}

// TransportError wraps err as ErrTransport unless it already carries a category.
func TransportError(err error) error {
	if err == nil || classify(err) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// DecodeError wraps err as ErrDecode unless it already carries a category.
func DecodeError(err error) error {
	if err == nil || classify(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrDecode, err)
}

// AuthError wraps err as ErrAuth unless it already is one.
func AuthError(err error) error {
	if err == nil || errors.Is(err, ErrAuth) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrAuth, err)
}

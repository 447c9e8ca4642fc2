package interfaces

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every error returned by the zaph packages wraps exactly one
// of the kind sentinels below so callers can classify it with errors.Is.
var (
	// ErrConfig covers a missing or malformed mirror file or mirror entry.
	ErrConfig = errors.New("config error")

	// ErrValidation covers malformed addresses, hex payloads, roles and numeric arguments.
	ErrValidation = errors.New("validation error")

	// ErrUserAbort is returned when the operator declines a confirmation prompt.
	ErrUserAbort = errors.New("aborted by user")

	// ErrNetwork covers transport and RPC failures, including confirmation timeouts.
	ErrNetwork = errors.New("network error")

	// ErrChain covers transactions that were mined but reverted or whose status is unknown.
	ErrChain = errors.New("chain error")

	// ErrConflict is returned when the mirror changed in a way that prevents
	// applying a mutation after the on-chain call already succeeded.
	ErrConflict = errors.New("conflict")
)

var (
	// ErrKeyNotFound is returned when a key id is absent from the mirror.
	ErrKeyNotFound = fmt.Errorf("%w: key not found", ErrConfig)

	// ErrKeyExists is returned when a key id is already present in the mirror.
	ErrKeyExists = fmt.Errorf("%w: key already exists", ErrConfig)
)

// KeyNotFound wraps ErrKeyNotFound with the offending id.
func KeyNotFound(keyID string) error {
	return fmt.Errorf("%w: '%s' not found in config", ErrKeyNotFound, keyID)
}

// Validationf formats a validation error.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Configf formats a config error.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// Networkf wraps err as a network error with context.
func Networkf(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w", ErrNetwork, fmt.Sprintf(format, args...), err)
}

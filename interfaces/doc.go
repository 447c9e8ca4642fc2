// Package interfaces defines the types shared across zaph: the mirror record
// schema, custodian roles, the error taxonomy, and the narrow chain and
// storage contracts the operations layer is written against.
//
// # Errors
//
// Every error produced by zaph wraps one of six kind sentinels (ErrConfig,
// ErrValidation, ErrUserAbort, ErrNetwork, ErrChain, ErrConflict). The CLI
// classifies failures with errors.Is and never inspects message text.
//
// # Roles
//
// Role labels and wire values are mapped by a single table. Parsing is
// case-insensitive, the mirror stores the lower-case label and the contract
// receives the uint8 value.
package interfaces

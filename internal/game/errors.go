package game

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds returned to the transport layer. Mapping kinds to HTTP or
// close codes is the transport's concern.
const (
	KindInvalidPayload  = "invalid-payload"
	KindUnauthorized    = "unauthorized"
	KindForbidden       = "forbidden"
	KindNotFound        = "not-found"
	KindVersionConflict = "version-conflict"
	KindIllegalMove     = "illegal-move"
	KindInternal        = "internal"
)

var (
	// ErrInvalidPayload marks caller-supplied data that cannot be parsed
	// or fails basic shape checks. Not retryable.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrUnauthorized marks a caller identity the game does not know.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden marks a caller that lacks the required role for the
	// operation: host, player on turn, admin.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound marks a named resource that does not exist.
	ErrNotFound = errors.New("not found")
)

// RuleError reports an action the rules kernel rejected, with the specific
// violations. The game was not mutated and no event was emitted.
type RuleError struct {
	Violations []string
}

func (e *RuleError) Error() string {
	return "illegal move: " + strings.Join(e.Violations, "; ")
}

// ConflictError reports a stale expected version. CurrentVersion lets the
// caller refresh and retry.
type ConflictError struct {
	Expected       uint64
	CurrentVersion uint64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict: expected %d, current %d", e.Expected, e.CurrentVersion)
}

// ErrorKind classifies an error into the wire taxonomy.
func ErrorKind(err error) string {
	var rule *RuleError
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		return KindVersionConflict
	case errors.As(err, &rule):
		return KindIllegalMove
	case errors.Is(err, ErrInvalidPayload):
		return KindInvalidPayload
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// Violations extracts the rule violations from an illegal-move error, or
// nil for any other error.
func Violations(err error) []string {
	var rule *RuleError
	if errors.As(err, &rule) {
		return rule.Violations
	}
	return nil
}

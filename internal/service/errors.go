// Package service implements the account directory, the request
// registry and the operator credential store on top of the typed
// repositories. Handlers depend on these services, never on the
// repositories directly.
package service

import (
	"errors"

	"github.com/iliyamo/beta-access-portal/internal/repository"
)

// ErrAuth is returned when a login's password digest does not match.
var ErrAuth = errors.New("invalid credentials")

// IsNotFound reports whether err means a missing record.
func IsNotFound(err error) bool { return errors.Is(err, repository.ErrNotFound) }

// ValidationError reports malformed input: bad email shape, short
// password, missing required field. The message is safe to surface.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// CooldownError rejects a request submitted inside the cooldown
// window. Message is pre-rendered by the locale formatter; DaysRemaining
// is kept so clients can build their own copy.
type CooldownError struct {
	DaysRemaining int
	Message       string
}

func (e *CooldownError) Error() string { return e.Message }

package domain

import "strings"

// Actor is the editor a request acts on behalf of.
// It is passed explicitly into every commit; git identity is never taken from
// process-wide state.
type Actor struct {
	Name  string `toml:"name,omitempty"`
	Email string `toml:"email,omitempty"`
}

// Validate returns ErrNoActor if the actor has no email.
func (a Actor) Validate() error {
	if strings.TrimSpace(a.Email) == "" {
		return ErrNoActor
	}
	return nil
}

// DisplayName returns the name, falling back to the local part of the email.
func (a Actor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	if i := strings.IndexByte(a.Email, '@'); i > 0 {
		return a.Email[:i]
	}
	return a.Email
}

// Is reports whether both actors share an email (case-insensitive).
func (a Actor) Is(other Actor) bool {
	return strings.EqualFold(strings.TrimSpace(a.Email), strings.TrimSpace(other.Email))
}

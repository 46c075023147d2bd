package creds

import (
	"time"
)

// Source supplies fresh temporary credentials. Implementations perform the
// only I/O on the credential path and are otherwise opaque to the Manager.
type Source interface {
	// Fetch retrieves a brand-new credential Snapshot.
	Fetch() (*Snapshot, error)
}

// SourceFunc adapts a plain function to the Source interface. This is the
// hook for custom authentication flows.
type SourceFunc func() (*Snapshot, error)

// Fetch calls fn.
func (fn SourceFunc) Fetch() (*Snapshot, error) {
	return fn()
}

// IdentitySource is implemented by Sources which can describe the principal
// their credentials belong to.
type IdentitySource interface {
	Identity() (Identity, error)
}

// Identity holds metadata about the authenticated principal, e.g. the
// account, ARN and user id reported by STS.
type Identity map[string]string

// Provider exposes the current credential Snapshot. Client handles hold a
// Provider instead of a Snapshot so that every call observes the credentials
// in effect at call time rather than the ones in effect at construction time.
type Provider interface {
	Current() (*Snapshot, error)
}

// Snapshot is one set of temporary credentials. Snapshots are never mutated
// after construction; a refresh swaps in a whole new Snapshot, so a caller
// holding a reference always observes a consistent value.
type Snapshot struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expiration      time.Time
	// Identity optionally carries metadata about the assumed principal.
	Identity Identity
}

// State describes where a Snapshot sits in its lifecycle relative to the
// advisory and mandatory windows.
type State int

const (
	// StateUninitialized means no Snapshot has been fetched yet.
	StateUninitialized State = iota
	// StateValid means the Snapshot is outside both refresh windows.
	StateValid
	// StateAdvisoryExpiring means refresh is worthwhile but failure is
	// tolerable; the Snapshot is still legal to use.
	StateAdvisoryExpiring
	// StateMandatoryExpired means the Snapshot may no longer be served and
	// a refresh must succeed first.
	StateMandatoryExpired
)

func (state State) String() string {
	switch state {
	case StateUninitialized:
		return "uninitialized"
	case StateValid:
		return "valid"
	case StateAdvisoryExpiring:
		return "advisory-expiring"
	case StateMandatoryExpired:
		return "mandatory-expired"
	}
	return "unknown"
}

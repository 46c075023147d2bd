package creds

import "errors"

// Sentinel errors for the credential lifecycle.
var (
	// ErrConfiguration marks invalid construction parameters. It is never
	// retried; fix the configuration and construct again.
	ErrConfiguration = errors.New("invalid credential configuration")

	// ErrRefresh marks a failed credential source call. Every caller
	// coalesced onto the same refresh receives the same wrapped error.
	ErrRefresh = errors.New("credential refresh failed")

	// ErrIdentityUnsupported is returned when the configured Source cannot
	// describe the principal it authenticates.
	ErrIdentityUnsupported = errors.New("credential source does not report an identity")
)

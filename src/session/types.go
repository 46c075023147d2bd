package session

import (
	"time"

	"github.com/swipely/refreshable/src/creds"
)

// Constructor builds a service client handle. It receives the Provider so the
// handle can read the credentials in effect at call time; a Constructor which
// copies a Snapshot out of the Provider freezes its credentials and will
// start failing once they rotate.
type Constructor func(params ClientParams, provider creds.Provider) (any, error)

// ClientParams identifies the client to construct. Two ClientParams with the
// same effective content always map to the same cached handle.
type ClientParams struct {
	// ServiceName of the client, e.g. "s3". Required.
	ServiceName string
	// Region the client talks to. Optional.
	Region string
	// Endpoint override. Optional.
	Endpoint string
	// Extra carries provider-specific construction options. The keys
	// "region" and "endpoint" are reserved for the named fields above.
	Extra map[string]string
}

// Config is the session configuration surface. The zero value enables
// caching with the default capacity and defers refresh until credentials are
// needed.
type Config struct {
	// DisableCache makes Client construct a fresh handle on every call.
	DisableCache bool
	// CacheCapacity bounds the client cache. Defaults to
	// DefaultCacheCapacity. Setting it together with DisableCache is a
	// configuration error.
	CacheCapacity int
	// EagerRefresh fetches credentials at construction and keeps them
	// fresh with a background worker instead of waiting for use.
	EagerRefresh bool
	// AdvisoryTimeout is forwarded to the credential lifecycle manager.
	AdvisoryTimeout time.Duration
	// MandatoryTimeout is forwarded to the credential lifecycle manager.
	MandatoryTimeout time.Duration
	// RefreshInterval is how often the eager worker re-checks the
	// lifecycle. Defaults to DefaultRefreshInterval. Only meaningful with
	// EagerRefresh.
	RefreshInterval time.Duration
	// Clock overrides the wall clock for tests.
	Clock func() time.Time
}

// Session hands out credential-bound client handles and keeps the underlying
// temporary credentials fresh.
type Session interface {
	// Client returns a handle for the given params, reusing a cached
	// handle when possible. Constructing a handle past the mandatory
	// boundary blocks until the credentials refresh.
	Client(params ClientParams) (any, error)
	// Credentials forces the credential lifecycle and returns the current
	// snapshot.
	Credentials() (*creds.Snapshot, error)
	// WhoAmI describes the authenticated principal, when the credential
	// source supports it.
	WhoAmI() (creds.Identity, error)
	// CachedClient looks a handle up without constructing one.
	CachedClient(params ClientParams) (any, bool)
	// CacheLen reports how many handles are cached.
	CacheLen() int
	// ClearCache drops every cached handle.
	ClearCache()
	// Close stops the background refresh worker, if any. The session must
	// not be used afterwards.
	Close() error
}

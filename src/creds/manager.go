package creds

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultAdvisoryTimeout is how long before expiration opportunistic
	// refresh begins.
	DefaultAdvisoryTimeout = 15 * time.Minute
	// DefaultMandatoryTimeout is how long before expiration refresh becomes
	// blocking.
	DefaultMandatoryTimeout = 10 * time.Minute

	refreshKey = "refresh"
)

var log = logrus.WithField("prefix", "creds")

// Config controls the Manager's refresh policy. The zero value selects
// deferred refresh with the default advisory and mandatory windows.
type Config struct {
	// EagerRefresh makes the Manager attempt a refresh as soon as the
	// advisory window is entered. A failed eager refresh is not fatal; the
	// unexpired snapshot keeps serving requests and the attempt is retried
	// on a later check.
	EagerRefresh bool
	// AdvisoryTimeout is the time before expiration at which opportunistic
	// refresh starts. Defaults to DefaultAdvisoryTimeout.
	AdvisoryTimeout time.Duration
	// MandatoryTimeout is the time before expiration at which refresh
	// becomes blocking and failure fatal. Must be shorter than
	// AdvisoryTimeout. Defaults to DefaultMandatoryTimeout.
	MandatoryTimeout time.Duration
	// Clock overrides the wall clock. Tests use this to step through the
	// lifecycle without sleeping.
	Clock func() time.Time
}

// NewManager validates the refresh policy and creates a Manager with no
// snapshot. The first credential request triggers a synchronous fetch.
func NewManager(source Source, config Config) (*Manager, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: credential source is required", ErrConfiguration)
	}

	advisory := config.AdvisoryTimeout
	if advisory == 0 {
		advisory = DefaultAdvisoryTimeout
	}
	mandatory := config.MandatoryTimeout
	if mandatory == 0 {
		mandatory = DefaultMandatoryTimeout
	}
	if advisory < 0 || mandatory < 0 {
		return nil, fmt.Errorf("%w: refresh timeouts must be positive", ErrConfiguration)
	}
	if mandatory >= advisory {
		return nil, fmt.Errorf(
			"%w: mandatory timeout (%s) must be shorter than advisory timeout (%s)",
			ErrConfiguration, mandatory, advisory,
		)
	}

	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Manager{
		source:    source,
		eager:     config.EagerRefresh,
		advisory:  advisory,
		mandatory: mandatory,
		clock:     clock,
		logger:    log.WithField("eager", config.EagerRefresh),
	}, nil
}

// Current returns a Snapshot which is legal to use right now, refreshing
// first when the lifecycle demands it. Callers in the mandatory window block
// until a refresh resolves; its failure is theirs.
func (manager *Manager) Current() (*Snapshot, error) {
	snapshot := manager.snapshot()

	switch manager.stateOf(snapshot) {
	case StateValid:
		return snapshot, nil
	case StateAdvisoryExpiring:
		if !manager.eager {
			return snapshot, nil
		}
		refreshed, err := manager.refresh()
		if err != nil {
			manager.logger.WithFields(logrus.Fields{
				"error":      err.Error(),
				"expiration": snapshot.Expiration,
			}).Warn("Advisory refresh failed, serving current credentials")
			return snapshot, nil
		}
		return refreshed, nil
	default:
		return manager.refresh()
	}
}

// Refresh forces the lifecycle through a refresh check. It reports an error
// only when a fetch was necessary and failed.
func (manager *Manager) Refresh() error {
	_, err := manager.refresh()
	return err
}

// State reports the lifecycle state of the current snapshot.
func (manager *Manager) State() State {
	return manager.stateOf(manager.snapshot())
}

// LastKnown returns the most recent snapshot without driving the lifecycle.
// It may be expired; it exists for logging and diagnostics, not for signing
// requests.
func (manager *Manager) LastKnown() *Snapshot {
	return manager.snapshot()
}

// refresh fetches new credentials, guaranteeing at most one source call in
// flight. Concurrent callers share the single call's outcome.
func (manager *Manager) refresh() (*Snapshot, error) {
	result, err, _ := manager.group.Do(refreshKey, func() (any, error) {
		// A refresh that completed while this caller was queued makes the
		// source call unnecessary.
		if snapshot := manager.snapshot(); manager.stateOf(snapshot) == StateValid {
			return snapshot, nil
		}

		manager.logger.Debug("Fetching credentials")
		snapshot, err := manager.source.Fetch()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRefresh, err)
		}
		if err := validateSnapshot(snapshot); err != nil {
			return nil, err
		}

		manager.mutex.Lock()
		manager.current = snapshot
		manager.mutex.Unlock()

		manager.logger.WithField("expiration", snapshot.Expiration).Info("Credentials refreshed")
		return snapshot, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Snapshot), nil
}

func (manager *Manager) snapshot() *Snapshot {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()
	return manager.current
}

func (manager *Manager) stateOf(snapshot *Snapshot) State {
	if snapshot == nil {
		return StateUninitialized
	}
	now := manager.clock()
	switch {
	case now.Before(snapshot.Expiration.Add(-manager.advisory)):
		return StateValid
	case now.Before(snapshot.Expiration.Add(-manager.mandatory)):
		return StateAdvisoryExpiring
	default:
		return StateMandatoryExpired
	}
}

func validateSnapshot(snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: source returned no credentials", ErrRefresh)
	}
	if snapshot.AccessKeyID == "" || snapshot.SecretAccessKey == "" {
		return fmt.Errorf("%w: source returned incomplete credentials", ErrRefresh)
	}
	if snapshot.Expiration.IsZero() {
		return fmt.Errorf("%w: source returned credentials without an expiration", ErrRefresh)
	}
	return nil
}

// Manager decides when to call the Source and holds the single authoritative
// pointer to the current Snapshot. The pointer is swapped, never written
// through, so readers that captured it keep a consistent view.
type Manager struct {
	source    Source
	eager     bool
	advisory  time.Duration
	mandatory time.Duration
	clock     func() time.Time
	group     singleflight.Group
	mutex     sync.RWMutex
	current   *Snapshot
	logger    *logrus.Entry
}

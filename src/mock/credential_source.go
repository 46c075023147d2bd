package mock

import (
	"errors"
	"sync"
	"time"

	"github.com/swipely/refreshable/src/creds"
)

// CredentialSource implements creds.Source and creds.IdentitySource. It
// counts Fetch calls so tests can assert how often the lifecycle reached the
// external source.
type CredentialSource struct {
	mutex     sync.Mutex
	snapshots []*creds.Snapshot
	served    *creds.Snapshot
	err       error
	delay     time.Duration
	calls     int
	identity  creds.Identity
}

// NewCredentialSource returns a mock CredentialSource with no credentials
// configured; Fetch fails until Push or Fail is called.
func NewCredentialSource() *CredentialSource {
	return &CredentialSource{}
}

// Push queues a snapshot to be returned by Fetch. Once the queue drains, the
// most recently served snapshot is returned repeatedly.
func (mock *CredentialSource) Push(snapshot *creds.Snapshot) {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	mock.snapshots = append(mock.snapshots, snapshot)
	mock.err = nil
}

// Fail makes every subsequent Fetch return err until Push is called again.
func (mock *CredentialSource) Fail(err error) {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	mock.err = err
}

// Delay makes Fetch sleep before returning, simulating a slow source.
func (mock *CredentialSource) Delay(delay time.Duration) {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	mock.delay = delay
}

// SetIdentity configures the identity reported by Identity.
func (mock *CredentialSource) SetIdentity(identity creds.Identity) {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	mock.identity = identity
}

// Fetch implements creds.Source.
func (mock *CredentialSource) Fetch() (*creds.Snapshot, error) {
	mock.mutex.Lock()
	mock.calls++
	err := mock.err
	delay := mock.delay
	var snapshot *creds.Snapshot
	if len(mock.snapshots) > 0 {
		snapshot = mock.snapshots[0]
		mock.snapshots = mock.snapshots[1:]
		mock.served = snapshot
	} else {
		snapshot = mock.served
	}
	mock.mutex.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, errors.New("No credentials configured")
	}
	return snapshot, nil
}

// Identity implements creds.IdentitySource.
func (mock *CredentialSource) Identity() (creds.Identity, error) {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	if mock.identity == nil {
		return nil, errors.New("No identity configured")
	}
	return mock.identity, nil
}

// Calls reports how often Fetch was invoked.
func (mock *CredentialSource) Calls() int {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	return mock.calls
}

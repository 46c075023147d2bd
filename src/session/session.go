package session

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/swipely/refreshable/src/cache"
	"github.com/swipely/refreshable/src/creds"
	"github.com/swipely/refreshable/src/queue"
)

const (
	// DefaultCacheCapacity bounds the client cache unless configured
	// otherwise. Clients are heavyweight, so the bound is deliberately
	// small.
	DefaultCacheCapacity = 10
	// DefaultRefreshInterval is how often the eager refresh worker checks
	// the credential lifecycle.
	DefaultRefreshInterval = time.Minute

	refreshQueueSize = 4
	refreshWorkers   = 1
)

var log = logrus.WithField("prefix", "session")

// New validates config and creates a Session around the given credential
// source and client constructor. With EagerRefresh set, the initial
// credential fetch happens here and its failure fails construction.
func New(source creds.Source, constructor Constructor, config Config) (Session, error) {
	if constructor == nil {
		return nil, fmt.Errorf("%w: client constructor is required", ErrConfiguration)
	}
	if config.DisableCache && config.CacheCapacity != 0 {
		return nil, fmt.Errorf(
			"%w: CacheCapacity conflicts with DisableCache", ErrConfiguration,
		)
	}

	manager, err := creds.NewManager(source, creds.Config{
		EagerRefresh:     config.EagerRefresh,
		AdvisoryTimeout:  config.AdvisoryTimeout,
		MandatoryTimeout: config.MandatoryTimeout,
		Clock:            config.Clock,
	})
	if err != nil {
		return nil, err
	}

	sess := &session{
		manager:     manager,
		source:      source,
		constructor: constructor,
	}

	if !config.DisableCache {
		capacity := config.CacheCapacity
		if capacity == 0 {
			capacity = DefaultCacheCapacity
		}
		store, err := cache.NewLRUStore(capacity)
		if err != nil {
			return nil, err
		}
		sess.store = store
	}

	if config.EagerRefresh {
		if _, err := manager.Current(); err != nil {
			return nil, err
		}
		interval := config.RefreshInterval
		if interval == 0 {
			interval = DefaultRefreshInterval
		}
		sess.refreshQueue = queue.NewPooledJobQueue(refreshQueueSize, refreshWorkers)
		sess.stopChan = make(chan struct{})
		go func() {
			if err := sess.refreshQueue.Run(); err != nil {
				log.WithField("error", err.Error()).Error("Refresh queue exited")
			}
		}()
		go sess.refreshWorker(interval)
	}

	return sess, nil
}

func (sess *session) Client(params ClientParams) (any, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	if sess.store == nil {
		return sess.construct(params)
	}

	key := cacheKey(params)
	if handle, hasKey := sess.store.Get(key); hasKey {
		log.WithField("key", string(key)).Debug("Client cache hit")
		return handle, nil
	}

	// Two racing misses for the same key share one construction; misses for
	// different keys proceed independently.
	handle, err, _ := sess.group.Do(string(key), func() (any, error) {
		if handle, hasKey := sess.store.Get(key); hasKey {
			return handle, nil
		}

		handle, err := sess.construct(params)
		if err != nil {
			return nil, err
		}

		if displaced, hasDisplaced := sess.store.Put(key, handle); hasDisplaced {
			sess.dispose(displaced)
		}
		log.WithField("key", string(key)).Debug("Client cached")
		return handle, nil
	})
	return handle, err
}

func (sess *session) Credentials() (*creds.Snapshot, error) {
	return sess.manager.Current()
}

func (sess *session) WhoAmI() (creds.Identity, error) {
	identitySource, ok := sess.source.(creds.IdentitySource)
	if !ok {
		return nil, creds.ErrIdentityUnsupported
	}
	return identitySource.Identity()
}

func (sess *session) CachedClient(params ClientParams) (any, bool) {
	if sess.store == nil {
		return nil, false
	}
	return sess.store.Get(cacheKey(params))
}

func (sess *session) CacheLen() int {
	if sess.store == nil {
		return 0
	}
	return sess.store.Len()
}

func (sess *session) ClearCache() {
	if sess.store != nil {
		sess.store.Clear()
	}
}

func (sess *session) Close() error {
	sess.closeOnce.Do(func() {
		if sess.stopChan != nil {
			close(sess.stopChan)
		}
		if sess.refreshQueue != nil && sess.refreshQueue.IsRunning() {
			if err := sess.refreshQueue.Stop(); err != nil {
				log.WithField("error", err.Error()).Warn("Failed stopping refresh queue")
			}
		}
	})
	return nil
}

// construct obtains legal credentials first so the mandatory boundary blocks
// before any handle exists, then builds the handle against the manager.
func (sess *session) construct(params ClientParams) (any, error) {
	if _, err := sess.manager.Current(); err != nil {
		return nil, err
	}
	return sess.constructor(params, sess.manager)
}

func (sess *session) dispose(handle any) {
	closer, ok := handle.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		log.WithField("error", err.Error()).Warn("Failed closing displaced client")
	}
}

func (sess *session) refreshWorker(interval time.Duration) {
	wlog := log.WithField("worker", "refresh-credentials")
	wlog.Info("Starting")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-sess.stopChan:
			wlog.Info("Stopping")
			return
		case <-ticker.C:
			wlog.Debug("Checking credential lifecycle")
			sess.refreshQueue.Enqueue(creds.NewRefreshJob(sess.manager))
		}
	}
}

func validateParams(params ClientParams) error {
	if params.ServiceName == "" {
		return fmt.Errorf("%w: ServiceName is required", ErrConfiguration)
	}
	for _, reserved := range []string{"region", "endpoint"} {
		if _, hasKey := params.Extra[reserved]; hasKey {
			return fmt.Errorf("%w: Extra key %q is reserved", ErrConfiguration, reserved)
		}
	}
	return nil
}

func cacheKey(params ClientParams) cache.Key {
	merged := make(map[string]string, len(params.Extra)+2)
	for name, value := range params.Extra {
		merged[name] = value
	}
	if params.Region != "" {
		merged["region"] = params.Region
	}
	if params.Endpoint != "" {
		merged["endpoint"] = params.Endpoint
	}
	return cache.NewKey(params.ServiceName, merged)
}

type session struct {
	manager      *creds.Manager
	source       creds.Source
	constructor  Constructor
	store        cache.Store // nil when caching is disabled
	group        singleflight.Group
	refreshQueue queue.JobQueue
	stopChan     chan struct{}
	closeOnce    sync.Once
}

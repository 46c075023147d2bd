package session

import "sync"

var (
	defaultMutex   sync.Mutex
	defaultSession Session
)

// SetDefault installs a process-wide session and returns the previously
// installed one, if any. The caller owns closing the returned session.
func SetDefault(sess Session) Session {
	defaultMutex.Lock()
	defer defaultMutex.Unlock()
	previous := defaultSession
	defaultSession = sess
	return previous
}

// Default returns the process-wide session installed by SetDefault, or nil
// when none has been installed.
func Default() Session {
	defaultMutex.Lock()
	defer defaultMutex.Unlock()
	return defaultSession
}

package cache

// Store is a fixed-capacity mapping from client construction signatures to
// client handles. Implementations own the handles they hold: once a handle is
// displaced from a Store, no other reference to it exists inside the library.
type Store interface {
	// Get returns the handle stored under key, marking it most recently
	// used. The second return value reports whether the key was present.
	Get(key Key) (any, bool)
	// Put stores handle under key. Storing an existing key replaces its
	// handle and counts as an access; storing a new key at capacity evicts
	// the least recently used entry first. The displaced handle, replaced
	// or evicted, is returned so the caller can tear it down.
	Put(key Key, handle any) (any, bool)
	// Clear removes every entry.
	Clear()
	// Len reports how many handles are stored.
	Len() int
}

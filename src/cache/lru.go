package cache

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidCapacity is returned when a Store is constructed with a capacity
// that cannot hold any entries.
var ErrInvalidCapacity = errors.New("cache capacity must be positive")

// NewLRUStore creates an empty Store holding at most capacity handles. When a
// new key would exceed capacity, the entry untouched for the longest time is
// evicted; ties are broken by insertion order.
func NewLRUStore(capacity int) (Store, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return &lruStore{
		capacity: capacity,
		entries:  make(map[Key]*lruEntry, capacity),
	}, nil
}

func (store *lruStore) Get(key Key) (any, bool) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	entry, hasKey := store.entries[key]
	if !hasKey {
		return nil, false
	}
	store.moveToFront(entry)
	return entry.handle, true
}

func (store *lruStore) Put(key Key, handle any) (any, bool) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	if entry, hasKey := store.entries[key]; hasKey {
		replaced := entry.handle
		entry.handle = handle
		store.moveToFront(entry)
		return replaced, true
	}

	entry := &lruEntry{key: key, handle: handle}
	store.entries[key] = entry
	store.pushFront(entry)

	if len(store.entries) <= store.capacity {
		return nil, false
	}

	oldest := store.tail
	store.unlink(oldest)
	delete(store.entries, oldest.key)
	return oldest.handle, true
}

func (store *lruStore) Clear() {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	store.entries = make(map[Key]*lruEntry, store.capacity)
	store.head = nil
	store.tail = nil
}

func (store *lruStore) Len() int {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return len(store.entries)
}

func (store *lruStore) pushFront(entry *lruEntry) {
	entry.prev = nil
	entry.next = store.head
	if store.head != nil {
		store.head.prev = entry
	}
	store.head = entry
	if store.tail == nil {
		store.tail = entry
	}
}

func (store *lruStore) unlink(entry *lruEntry) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		store.head = entry.next
	}
	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		store.tail = entry.prev
	}
}

func (store *lruStore) moveToFront(entry *lruEntry) {
	if store.head == entry {
		return
	}
	store.unlink(entry)
	store.pushFront(entry)
}

// lruStore tracks recency with a doubly linked list; head is the most
// recently used entry and tail the least.
type lruStore struct {
	capacity int
	mutex    sync.Mutex
	entries  map[Key]*lruEntry
	head     *lruEntry
	tail     *lruEntry
}

type lruEntry struct {
	key    Key
	handle any
	prev   *lruEntry
	next   *lruEntry
}

package mock

import "sync"

// ClientHandle stands in for a cached service client and records whether it
// has been closed.
func NewClientHandle(name string) *ClientHandle {
	return &ClientHandle{Name: name}
}

func (handle *ClientHandle) Close() error {
	handle.mutex.Lock()
	defer handle.mutex.Unlock()
	handle.closed = true
	return nil
}

func (handle *ClientHandle) Closed() bool {
	handle.mutex.Lock()
	defer handle.mutex.Unlock()
	return handle.closed
}

type ClientHandle struct {
	Name string

	mutex  sync.Mutex
	closed bool
}

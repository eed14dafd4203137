package atomic

import "sync/atomic"

// Boolean is a flag that can be read and written from multiple goroutines
// without a mutex, used for the handler/server "closing" state that both
// the accept loop and shutdown path touch concurrently.
type Boolean uint32

// Get reads the flag.
func (b *Boolean) Get() bool {
	return atomic.LoadUint32((*uint32)(b)) != 0
}

// Set writes the flag.
func (b *Boolean) Set(v bool) {
	if v {
		atomic.StoreUint32((*uint32)(b), 1)
	} else {
		atomic.StoreUint32((*uint32)(b), 0)
	}
}

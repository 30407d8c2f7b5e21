// Package locks provides a keyed mutex for serializing mutations on a
// per-entity basis without holding one lock across unrelated entities.
package locks

import "sync"

// KeyedMutex hands out one mutex per key. Entries are reference counted
// and removed once the last holder releases, so the map only holds keys
// with active or waiting holders.
type KeyedMutex struct {
	mu   sync.Mutex
	keys map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{keys: make(map[string]*keyLock)}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	kl, ok := k.keys[key]
	if !ok {
		kl = &keyLock{}
		k.keys[key] = kl
	}
	kl.refs++
	k.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		k.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(k.keys, key)
		}
		k.mu.Unlock()
	}
}

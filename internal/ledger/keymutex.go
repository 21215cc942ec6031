package ledger

import "sync"

// KeyMutex serializes work per NSU. Recomputation for the same transaction
// must not race an in-flight computation: a "preserve payment date" read and
// a concurrent "compute fresh" write would otherwise leave an inconsistent
// row. Distinct NSUs proceed in parallel.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyMutex() *KeyMutex {
	return &KeyMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use. Locks are kept
// for the process lifetime; the NSU space of one service instance is small
// enough that this does not matter.
func (k *KeyMutex) Lock(key string) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
}

func (k *KeyMutex) Unlock(key string) {
	k.mu.Lock()
	m := k.locks[key]
	k.mu.Unlock()
	if m != nil {
		m.Unlock()
	}
}

package memcache

import (
	"context"
	"sync"
)

const defaultMaxEntries = 1024

// Adapter is an in-process cache bounded by entry count. When full, the
// oldest inserted key is evicted.
type Adapter struct {
	mu    sync.Mutex
	max   int
	items map[string][]byte
	order []string
}

func New(maxEntries int) *Adapter {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Adapter{max: maxEntries, items: make(map[string][]byte)}
}

func (a *Adapter) Get(_ context.Context, key string) ([]byte, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (a *Adapter) Set(_ context.Context, key string, value []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.items[key]; !ok {
		for len(a.order) >= a.max {
			delete(a.items, a.order[0])
			a.order = a.order[1:]
		}
		a.order = append(a.order, key)
	}
	a.items[key] = append([]byte(nil), value...)
	return nil
}

func (a *Adapter) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}

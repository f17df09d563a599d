// Package cacher is a typed key/value map persisted as one gache file.
package cacher

import (
	"sync"
	"time"

	"github.com/metafates/gache"
	"github.com/samber/mo"
	"github.com/trawl-media/trawl/filesystem"
)

type cacheData[K comparable, T any] struct {
	Entries map[K]T `json:"entries"`
}

// Cacher maps keys to values. The whole map expires together after its lifetime.
type Cacher[K comparable, T any] struct {
	internal   *gache.Cache[*cacheData[K, T]]
	keyWrapper func(K) K
	mu         sync.RWMutex
}

// New opens the cache at path. A zero lifetime never expires; keyWrapper normalizes keys and may be nil.
func New[K comparable, T any](path string, lifetime time.Duration, keyWrapper func(K) K) *Cacher[K, T] {
	if keyWrapper == nil {
		keyWrapper = func(k K) K { return k }
	}

	return &Cacher[K, T]{
		internal: gache.New[*cacheData[K, T]](&gache.Options{
			Path:       path,
			Lifetime:   lifetime,
			FileSystem: &filesystem.GacheFs{},
		}),
		keyWrapper: keyWrapper,
	}
}

func (c *Cacher[K, T]) Get(key K) mo.Option[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, expired, err := c.internal.Get()
	if err != nil || expired || data == nil {
		return mo.None[T]()
	}

	if value, ok := data.Entries[c.keyWrapper(key)]; ok {
		return mo.Some(value)
	}
	return mo.None[T]()
}

func (c *Cacher[K, T]) Set(key K, value T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, expired, err := c.internal.Get()
	if err != nil {
		return err
	}

	if expired || data == nil || data.Entries == nil {
		data = &cacheData[K, T]{Entries: make(map[K]T)}
	}
	data.Entries[c.keyWrapper(key)] = value
	return c.internal.Set(data)
}

func (c *Cacher[K, T]) Delete(key K) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, expired, err := c.internal.Get()
	if err != nil || expired || data == nil {
		return err
	}

	delete(data.Entries, c.keyWrapper(key))
	return c.internal.Set(data)
}

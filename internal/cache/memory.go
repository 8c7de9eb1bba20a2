package cache

import (
	"context"
	"io"
	"strings"
	"sync"
)

// InMemoryCache keeps entries in process memory. Nothing survives a restart, which is what
// -ephemeral runs and tests want.
type InMemoryCache struct {
	entries sync.Map // string -> string
}

var _ Cache = (*InMemoryCache)(nil)

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{}
}

func (c *InMemoryCache) Get(_ context.Context, key string) (io.ReadCloser, error) {
	value, ok := c.entries.Load(key)
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(strings.NewReader(value.(string))), nil
}

func (c *InMemoryCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := c.entries.Load(key)
	return ok, nil
}

func (c *InMemoryCache) Put(_ context.Context, key, value string, opts PutOptions) error {
	if opts.Condition == PutIfNoneMatch {
		if _, loaded := c.entries.LoadOrStore(key, value); loaded {
			return ErrAlreadyExists
		}
		return nil
	}
	c.entries.Store(key, value)
	return nil
}

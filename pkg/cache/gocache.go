package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// GoCache is the in-process backend, good enough for single-node deployments.
type GoCache struct {
	c *gocache.Cache
}

func NewGoCache(cfg LocalConfig) *GoCache {
	def := cfg.DefaultExpiration
	if def <= 0 {
		def = 5 * time.Minute
	}
	cleanup := cfg.CleanupInterval
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return &GoCache{c: gocache.New(def, cleanup)}
}

func (g *GoCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := g.c.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (g *GoCache) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	g.c.Set(key, value, expiration)
	return nil
}

func (g *GoCache) Delete(_ context.Context, key string) error {
	g.c.Delete(key)
	return nil
}

func (g *GoCache) Close() error {
	g.c.Flush()
	return nil
}

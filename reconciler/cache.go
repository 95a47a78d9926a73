package reconciler

import (
	"context"

	"github.com/crmarques/lioctl/debugctx"
	"github.com/crmarques/lioctl/resource"
)

// Loader reads every current instance of one kind.
type Loader func(ctx context.Context, kind resource.Kind) (resource.InstanceMap, error)

// Cache memoizes the instances of each kind for one convergence run. It is
// not safe for concurrent use.
type Cache struct {
	load    Loader
	entries map[resource.Kind]resource.InstanceMap
	loads   map[resource.Kind]int
}

func NewCache(load Loader) *Cache {
	return &Cache{
		load:    load,
		entries: map[resource.Kind]resource.InstanceMap{},
		loads:   map[resource.Kind]int{},
	}
}

func (c *Cache) GetOrLoad(ctx context.Context, kind resource.Kind) (resource.InstanceMap, error) {
	if instances, ok := c.entries[kind]; ok {
		return instances, nil
	}

	debugctx.Logger(ctx).V(1).Info("cache miss", "kind", string(kind))
	instances, err := c.load(ctx, kind)
	if err != nil {
		return nil, err
	}
	if instances == nil {
		instances = resource.InstanceMap{}
	}
	c.entries[kind] = instances
	c.loads[kind]++
	return instances, nil
}

func (c *Cache) Invalidate(kind resource.Kind) {
	delete(c.entries, kind)
}

func (c *Cache) InvalidateAll() {
	clear(c.entries)
}

// Cached reports whether kind currently holds a cached map.
func (c *Cache) Cached(kind resource.Kind) bool {
	_, ok := c.entries[kind]
	return ok
}

// Put records the observed state of one instance when kind is cached.
// A nil obj removes the instance.
func (c *Cache) Put(kind resource.Kind, path string, obj resource.Object) {
	instances, ok := c.entries[kind]
	if !ok {
		return
	}
	if obj == nil {
		delete(instances, path)
		return
	}
	instances[path] = obj
}

// Loads returns how many times kind was loaded.
func (c *Cache) Loads(kind resource.Kind) int {
	return c.loads[kind]
}

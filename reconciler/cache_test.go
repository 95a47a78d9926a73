package reconciler

import (
	"context"
	"errors"
	"testing"

	"github.com/crmarques/lioctl/resource"
)

func TestCacheLoadsOncePerInvalidation(t *testing.T) {
	t.Parallel()

	calls := 0
	cache := NewCache(func(_ context.Context, kind resource.Kind) (resource.InstanceMap, error) {
		calls++
		target := resource.Target{Fabric: "iscsi", WWN: "wwn1"}
		return resource.InstanceMap{target.Path(): target}, nil
	})

	for range 3 {
		instances, err := cache.GetOrLoad(context.Background(), resource.KindTarget)
		if err != nil {
			t.Fatalf("GetOrLoad returned error: %v", err)
		}
		if _, ok := instances["/iscsi/wwn1"]; !ok {
			t.Fatalf("expected cached target, got %#v", instances)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one load, got %d", calls)
	}

	cache.Invalidate(resource.KindTarget)
	if cache.Cached(resource.KindTarget) {
		t.Fatal("expected target cache to be dropped")
	}
	if _, err := cache.GetOrLoad(context.Background(), resource.KindTarget); err != nil {
		t.Fatalf("GetOrLoad returned error: %v", err)
	}
	if calls != 2 || cache.Loads(resource.KindTarget) != 2 {
		t.Fatalf("expected second load after invalidation, got calls=%d loads=%d", calls, cache.Loads(resource.KindTarget))
	}

	cache.InvalidateAll()
	if cache.Cached(resource.KindTarget) {
		t.Fatal("expected InvalidateAll to drop every kind")
	}
}

func TestCachePutOnlyTouchesCachedKinds(t *testing.T) {
	t.Parallel()

	cache := NewCache(func(context.Context, resource.Kind) (resource.InstanceMap, error) {
		return nil, nil
	})

	target := resource.Target{Fabric: "iscsi", WWN: "wwn1"}
	cache.Put(resource.KindTarget, target.Path(), target)
	if cache.Cached(resource.KindTarget) {
		t.Fatal("expected Put to leave an uncached kind uncached")
	}

	instances, err := cache.GetOrLoad(context.Background(), resource.KindTarget)
	if err != nil {
		t.Fatalf("GetOrLoad returned error: %v", err)
	}
	if instances == nil {
		t.Fatal("expected empty instance map for nil load result")
	}

	cache.Put(resource.KindTarget, target.Path(), target)
	if _, ok := instances[target.Path()]; !ok {
		t.Fatal("expected Put to add the instance")
	}
	cache.Put(resource.KindTarget, target.Path(), nil)
	if _, ok := instances[target.Path()]; ok {
		t.Fatal("expected Put with nil to remove the instance")
	}
}

func TestCacheLoadErrorIsNotCached(t *testing.T) {
	t.Parallel()

	fail := true
	cache := NewCache(func(context.Context, resource.Kind) (resource.InstanceMap, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return resource.InstanceMap{}, nil
	})

	if _, err := cache.GetOrLoad(context.Background(), resource.KindLun); err == nil {
		t.Fatal("expected load error")
	}
	fail = false
	if _, err := cache.GetOrLoad(context.Background(), resource.KindLun); err != nil {
		t.Fatalf("expected retry after failed load to succeed, got %v", err)
	}
	if got := cache.Loads(resource.KindLun); got != 1 {
		t.Fatalf("expected one successful load, got %d", got)
	}
}

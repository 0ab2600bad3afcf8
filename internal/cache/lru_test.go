package cache

import (
	"testing"
	"time"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("get a: %d %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("missing key must not hit")
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	// touch a so b becomes the eviction candidate
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a should survive")
	}
	if c.Size() != 2 {
		t.Fatalf("size: got %d want 2", c.Size())
	}
}

func TestLRUTTLExpiry(t *testing.T) {
	c := NewLRUCache[int](10, -time.Second)

	c.Set("a", 1)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expired entry must not hit")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry must be removed on read")
	}
}

func TestLRUPurge(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)

	c.Set("2024-03", 1)
	c.Set("2024-04", 2)
	c.Purge()

	if c.Size() != 0 {
		t.Fatalf("purge must empty the cache, size %d", c.Size())
	}
	if _, ok := c.Get("2024-03"); ok {
		t.Fatalf("purged key must not hit")
	}
	c.Set("2024-03", 3)
	if v, ok := c.Get("2024-03"); !ok || v != 3 {
		t.Fatalf("cache unusable after purge: %d %v", v, ok)
	}
}

func TestLRUCleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, -time.Second)
	c.Set("a", 1)
	c.Set("b", 2)

	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("cleaned: got %d want 2", n)
	}
	if c.Size() != 0 {
		t.Fatalf("size after clean: got %d want 0", c.Size())
	}
}

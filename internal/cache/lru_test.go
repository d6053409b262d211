package cache

import (
	"testing"
	"time"

	"billreminder/internal/log"
)

func TestLRUCache_Eviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now most recent
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUCache_TTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	now = now.Add(30 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry should still be live")
	}

	now = now.Add(time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry should have expired")
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("hits=%d misses=%d", hits, misses)
	}
}

func TestManager_CleanNow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[int](10, time.Second)
	c.now = func() time.Time { return now }
	c.Set("a", 1)
	c.Set("b", 2)

	m := NewManager(log.Nop())
	m.Register(c)

	now = now.Add(2 * time.Second)
	c.Set("c", 3)

	if n := m.CleanNow(); n != 2 {
		t.Fatalf("cleaned %d, want 2", n)
	}
	if c.Size() != 1 {
		t.Fatalf("size = %d, want 1", c.Size())
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}

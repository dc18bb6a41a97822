package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fakeClock(start time.Time) (func() time.Time, func(time.Duration)) {
	now := start
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	_, ok := c.Get("a")
	assert.True(t, ok)

	c.Set("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)
	now, advance := fakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	c.now = now

	c.Set("jan", "x")
	advance(30 * time.Second)
	c.Set("feb", "y")
	advance(45 * time.Second)

	_, ok := c.Get("jan")
	assert.False(t, ok)
	assert.Zero(t, c.CleanExpired())
	assert.Equal(t, 1, c.Size())

	advance(time.Minute)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Zero(t, c.Size())
}

func TestLRUOverwriteAndDelete(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("a", 5)
	v, _ := c.Get("a")
	assert.Equal(t, 5, v)

	c.Delete("a")
	c.Delete("missing")
	assert.Zero(t, c.Size())
}

func TestManagerSweep(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	now, advance := fakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	c.now = now
	c.Set("a", 1)
	c.Set("b", 2)
	advance(2 * time.Minute)

	var reported int
	m := NewManager(func(n int) { reported = n })
	m.Register(c)
	assert.Equal(t, 2, m.Sweep())
	assert.Equal(t, 2, reported)
	assert.Zero(t, m.Sweep())

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}

package lru

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_Eviction(t *testing.T) {
	c := New[string, int](2, time.Hour)

	c.Set("a", 1)
	c.Set("b", 2)

	// touch a so b becomes least recently used
	_, ok := c.Get("a")
	assert.True(t, ok)

	c.Set("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestCache_Expiry(t *testing.T) {
	now := time.Date(2023, 6, 20, 0, 0, 0, 0, time.UTC)

	c := New[string, int](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	c.Set("b", 2)

	now = now.Add(2 * time.Minute)
	c.Set("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok)

	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 1, c.Size())

	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestCache_Overwrite(t *testing.T) {
	c := New[int, string](2, time.Hour)

	c.Set(1, "one")
	c.Set(1, "uno")

	v, _ := c.Get(1)
	assert.Equal(t, "uno", v)
	assert.Equal(t, 1, c.Size())
}

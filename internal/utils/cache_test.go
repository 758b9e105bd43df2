package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSearchCacheSetGet(t *testing.T) {
	c := NewSearchCache[string](10, time.Minute)

	c.Set("k1", "v1")
	v, ok := c.Get("k1")
	assert.True(t, ok)
	assert.Equal(t, "v1", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestSearchCacheTTLExpiry(t *testing.T) {
	c := NewSearchCache[int](10, 20*time.Millisecond)

	c.Set("k", 42)
	_, ok := c.Get("k")
	assert.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
	// 过期读取时顺手删除
	assert.Equal(t, 0, c.Len())
}

func TestSearchCacheLRUEviction(t *testing.T) {
	c := NewSearchCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok, "最久未用的条目应被淘汰")
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestGlobalCache(t *testing.T) {
	InitCache()

	CacheSet("key", "value", time.Minute)
	v, ok := CacheGet("key")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	CacheDelete("key")
	_, ok = CacheGet("key")
	assert.False(t, ok)
}

func TestHashIPStable(t *testing.T) {
	h1 := HashIP("203.0.113.9")
	h2 := HashIP("203.0.113.9")
	h3 := HashIP("203.0.113.10")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 16)
	assert.NotContains(t, h1, ".")
}

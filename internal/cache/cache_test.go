package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheSetGet(t *testing.T) {
	c := New(1 * time.Hour)

	c.Set("location:chicago", []byte(`{"lat":41.8781,"lng":-87.6298}`))

	data, found := c.Get("location:chicago")
	assert.True(t, found)
	assert.JSONEq(t, `{"lat":41.8781,"lng":-87.6298}`, string(data))
}

func TestCacheMiss(t *testing.T) {
	c := New(1 * time.Hour)

	_, found := c.Get("never-set")
	assert.False(t, found)
}

func TestCacheExpiry(t *testing.T) {
	c := New(10 * time.Millisecond)

	c.Set("short-lived", []byte("value"))
	time.Sleep(25 * time.Millisecond)

	_, found := c.Get("short-lived")
	assert.False(t, found, "expired items must not be returned")
	assert.Equal(t, 0, c.Size(), "expired items are evicted on read")
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := New(1 * time.Hour)

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))

	c.Delete("a")
	_, found := c.Get("a")
	assert.False(t, found)
	assert.Equal(t, 1, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestKeyIsDeterministic(t *testing.T) {
	assert.Equal(t, Key("chicago, il"), Key("chicago, il"))
	assert.NotEqual(t, Key("chicago, il"), Key("new york, ny"))
}

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetGetExpire(t *testing.T) {
	c := New(Options{DefaultExpiration: time.Minute})
	defer c.Close()
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestTakeRemoves(t *testing.T) {
	c := New(Options{})
	c.Set("a", "x")

	v, ok := c.Take("a")
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = c.Take("a")
	assert.False(t, ok)
	assert.Zero(t, c.Count())
}

func TestMaxItemsEvictsSoonestExpiry(t *testing.T) {
	c := New(Options{MaxItems: 2})
	var evicted []string
	c.SetOnEvicted(func(k string, _ interface{}) { evicted = append(evicted, k) })

	c.SetWithExpiration("long", 1, time.Hour)
	c.SetWithExpiration("short", 2, time.Minute)
	c.SetWithExpiration("new", 3, time.Hour)

	assert.Equal(t, []string{"short"}, evicted)
	assert.Equal(t, 2, c.Count())
	_, ok := c.Get("long")
	assert.True(t, ok)
}

func TestDeleteExpired(t *testing.T) {
	c := New(Options{})
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	c.SetWithExpiration("a", 1, time.Second)
	c.SetWithExpiration("b", 2, 0)
	now = now.Add(time.Minute)
	c.deleteExpired()

	assert.Equal(t, 1, c.Count())
}

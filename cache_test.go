package oioproxy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCachePutGet(t *testing.T) {
	c := NewCache("test", time.Minute, 0, nil)
	require.NoError(t, c.Put("a", []string{"1.2.3.4:6000"}, time.Now()))

	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, []string{"1.2.3.4:6000"}, v)

	_, ok = c.Get("missing")
	require.False(t, ok)
}

func TestCachePutRejectsEmptyKey(t *testing.T) {
	c := NewCache("test", time.Minute, 0, nil)
	err := c.Put("", []string{"1.2.3.4:6000"}, time.Now())
	require.Error(t, err)
}

func TestCacheGetReturnsCopy(t *testing.T) {
	c := NewCache("test", time.Minute, 0, nil)
	require.NoError(t, c.Put("a", []string{"x"}, time.Now()))
	v, _ := c.Get("a")
	v[0] = "mutated"

	v2, _ := c.Get("a")
	require.Equal(t, "x", v2[0])
}

func TestCacheExpire(t *testing.T) {
	c := NewCache("test", time.Minute, 0, nil)
	now := time.Now()
	require.NoError(t, c.Put("a", []string{"x"}, now))

	n := c.Expire(now.Add(30 * time.Second))
	require.Equal(t, 0, n)
	_, ok := c.Get("a")
	require.True(t, ok)

	n = c.Expire(now.Add(2 * time.Minute))
	require.Equal(t, 1, n)
	_, ok = c.Get("a")
	require.False(t, ok)
}

func TestCachePurgeEvictsOverMax(t *testing.T) {
	c := NewCache("test", time.Minute, 2, nil)
	now := time.Now()
	require.NoError(t, c.Put("a", []string{"1"}, now))
	require.NoError(t, c.Put("b", []string{"2"}, now.Add(time.Second)))
	require.NoError(t, c.Put("c", []string{"3"}, now.Add(2*time.Second)))

	require.Equal(t, 2, c.Info().Count)
	_, ok := c.Get("a")
	require.False(t, ok, "oldest entry should have been evicted on insert over max")
}

func TestCacheFlushAndDecache(t *testing.T) {
	c := NewCache("test", time.Minute, 0, nil)
	now := time.Now()
	require.NoError(t, c.Put("a", []string{"1"}, now))
	require.NoError(t, c.Put("b", []string{"2"}, now))

	require.True(t, c.Decache("a"))
	require.False(t, c.Decache("a"))
	require.Equal(t, 1, c.Info().Count)

	c.Flush()
	require.Equal(t, 0, c.Info().Count)
}

func TestCacheSetTTLAndMax(t *testing.T) {
	c := NewCache("test", 0, 0, nil)
	now := time.Now()
	require.NoError(t, c.Put("a", []string{"1"}, now))
	require.Equal(t, 0, c.Expire(now.Add(time.Hour)), "ttl disabled by default")

	c.SetTTL(time.Second)
	require.Equal(t, 1, c.Expire(now.Add(time.Hour)))

	c.SetMax(1)
	require.NoError(t, c.Put("b", []string{"2"}, now))
	require.NoError(t, c.Put("c", []string{"3"}, now.Add(time.Second)))
	require.Equal(t, 1, c.Info().Count, "put already evicts down to the new max")
	require.Equal(t, 0, c.Purge(now.Add(time.Second)))
}

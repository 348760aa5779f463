package oioproxy

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEntryListPutGet(t *testing.T) {
	l := newEntryList(5)

	now := time.Unix(1000, 0)
	var keys []string
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("NS/ref%d/meta2", i)
		l.put(key, []string{fmt.Sprintf("127.0.0.1:600%d", i)}, now.Add(time.Duration(i)*time.Second))
		keys = append(keys, key)
	}

	// Capacity is 5 and 10 were inserted, so only the most recent 5 survive.
	require.Equal(t, 5, l.size())

	for _, key := range keys[:5] {
		_, ok := l.get(key)
		require.False(t, ok)
	}
	for i, key := range keys[5:] {
		value, ok := l.get(key)
		require.True(t, ok)
		require.Equal(t, []string{fmt.Sprintf("127.0.0.1:600%d", i+5)}, value)
	}
}

func TestEntryListGetDoesNotReorder(t *testing.T) {
	l := newEntryList(2)
	now := time.Unix(1000, 0)

	l.put("a", []string{"a"}, now)
	l.put("b", []string{"b"}, now.Add(time.Second))

	// Reading "a" repeatedly must not protect it from eviction: only
	// put() moves an entry's position, since only put() re-stamps the
	// insertion clock.
	for i := 0; i < 10; i++ {
		_, ok := l.get("a")
		require.True(t, ok)
	}

	l.put("c", []string{"c"}, now.Add(2*time.Second))

	_, ok := l.get("a")
	require.False(t, ok, "a should have been evicted despite repeated reads")
	_, ok = l.get("b")
	require.True(t, ok)
	_, ok = l.get("c")
	require.True(t, ok)
}

func TestEntryListPutReplaceMovesToFront(t *testing.T) {
	l := newEntryList(2)
	now := time.Unix(1000, 0)

	l.put("a", []string{"a1"}, now)
	l.put("b", []string{"b1"}, now.Add(time.Second))
	// Re-inserting "a" re-stamps its insertion clock, so it should
	// survive the next eviction in place of "b".
	l.put("a", []string{"a2"}, now.Add(2*time.Second))
	l.put("c", []string{"c1"}, now.Add(3*time.Second))

	value, ok := l.get("a")
	require.True(t, ok)
	require.Equal(t, []string{"a2"}, value)

	_, ok = l.get("b")
	require.False(t, ok)
}

func TestEntryListDelete(t *testing.T) {
	l := newEntryList(0)
	now := time.Unix(1000, 0)
	l.put("a", []string{"a"}, now)
	l.put("b", []string{"b"}, now)

	require.True(t, l.delete("a"))
	require.False(t, l.delete("a"))
	require.Equal(t, 1, l.size())
}

func TestEntryListDeleteFuncExpiresOldest(t *testing.T) {
	l := newEntryList(0)
	now := time.Unix(1000, 0)

	for i := 0; i < 5; i++ {
		l.put(fmt.Sprintf("k%d", i), []string{"v"}, now.Add(time.Duration(i)*time.Second))
	}

	cutoff := now.Add(3 * time.Second)
	removed := l.deleteFunc(func(key string, insertedAt time.Time) bool {
		return insertedAt.Before(cutoff)
	})

	require.Equal(t, 3, removed)
	require.Equal(t, 2, l.size())
	_, ok := l.get("k3")
	require.True(t, ok)
	_, ok = l.get("k4")
	require.True(t, ok)
}

func TestEntryListUnboundedSize(t *testing.T) {
	l := newEntryList(0)
	now := time.Unix(1000, 0)
	for i := 0; i < 100; i++ {
		l.put(fmt.Sprintf("k%d", i), []string{"v"}, now)
	}
	require.Equal(t, 100, l.size())
}

func TestEntryListReset(t *testing.T) {
	l := newEntryList(5)
	now := time.Unix(1000, 0)
	l.put("a", []string{"a"}, now)
	l.reset()
	require.Equal(t, 0, l.size())
	_, ok := l.get("a")
	require.False(t, ok)
}

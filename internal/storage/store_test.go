package storage

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// setupStore creates a fresh store driven by a manual clock
func setupStore(t *testing.T, index string) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	s, err := New(Options{InitialSize: 16, ExpiryIndex: index, Clock: clock.Now})
	require.NoError(t, err)
	return s, clock
}

func withTTL(seconds int64) SetOptions {
	return SetOptions{TTL: seconds, HasTTL: true}
}

func TestNew_UnknownIndex(t *testing.T) {
	s, err := New(Options{ExpiryIndex: "tree"})
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestStore_SetGetDel(t *testing.T) {
	s, _ := setupStore(t, ExpiryIndexList)

	_, ok, err := s.Get("foo")
	require.NoError(t, err)
	assert.False(t, ok)

	s.Set("foo", "bar", SetOptions{})
	val, ok, err := s.Get("foo")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bar", val)

	assert.Equal(t, 1, s.Del("foo"))
	_, ok, _ = s.Get("foo")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Del("foo"))
}

func TestStore_EmptyStringIsAValue(t *testing.T) {
	s, _ := setupStore(t, ExpiryIndexList)

	s.Set("k", "", SetOptions{})
	val, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", val)
}

func TestStore_IntegerCoercion(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType DataType
		wantText string
	}{
		{"plain", "42", TypeInt, "42"},
		{"negative", "-15", TypeInt, "-15"},
		{"explicit plus", "+7", TypeInt, "7"},
		{"leading zeros", "007", TypeInt, "7"},
		{"max int64", "9223372036854775807", TypeInt, "9223372036854775807"},
		{"too large", "9223372036854775808", TypeString, "9223372036854775808"},
		{"sign only", "-", TypeString, "-"},
		{"mixed", "12ab", TypeString, "12ab"},
		{"word", "bar", TypeString, "bar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := setupStore(t, ExpiryIndexList)
			s.Set("k", tt.input, SetOptions{})

			assert.Equal(t, tt.wantType, s.data["k"].value.Type)

			val, ok, err := s.Get("k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.wantText, val)
		})
	}
}

func TestStore_SetNonPositiveTTLDeletes(t *testing.T) {
	for _, ttl := range []int64{0, -1, -100} {
		t.Run(fmt.Sprintf("ttl %d", ttl), func(t *testing.T) {
			s, _ := setupStore(t, ExpiryIndexList)
			s.Set("k", "v", SetOptions{})

			s.Set("k", "other", withTTL(ttl))

			_, ok, _ := s.Get("k")
			assert.False(t, ok)
			assert.Equal(t, 0, s.DBSize())
		})
	}
}

func TestStore_Expiration(t *testing.T) {
	for _, index := range []string{ExpiryIndexList, ExpiryIndexHeap} {
		t.Run(index, func(t *testing.T) {
			s, clock := setupStore(t, index)

			s.Set("A", "A", withTTL(1))
			s.Set("B", "B", SetOptions{})
			assert.Equal(t, 2, s.DBSize())

			// same millisecond as the deadline is still alive
			clock.Advance(time.Second)
			val, ok, _ := s.Get("A")
			assert.True(t, ok)
			assert.Equal(t, "A", val)

			clock.Advance(time.Millisecond)
			_, ok, _ = s.Get("A")
			assert.False(t, ok)

			val, ok, _ = s.Get("B")
			assert.True(t, ok)
			assert.Equal(t, "B", val)
			assert.Equal(t, 1, s.DBSize())
		})
	}
}

func TestStore_SetDiscardsPreviousTTL(t *testing.T) {
	s, clock := setupStore(t, ExpiryIndexHeap)

	s.Set("k", "v1", withTTL(1))
	s.Set("k", "v2", SetOptions{})
	assert.Equal(t, 0, s.expires.len())

	clock.Advance(10 * time.Second)
	val, ok, _ := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v2", val)
}

func TestStore_SetReplacesTTL(t *testing.T) {
	s, clock := setupStore(t, ExpiryIndexList)

	s.Set("k", "v1", withTTL(1))
	s.Set("k", "v2", withTTL(10))
	assert.Equal(t, 1, s.expires.len())

	clock.Advance(5 * time.Second)
	assert.Equal(t, 1, s.DBSize())

	clock.Advance(6 * time.Second)
	assert.Equal(t, 0, s.DBSize())
}

func TestStore_HugeTTLSaturates(t *testing.T) {
	s, clock := setupStore(t, ExpiryIndexList)

	s.Set("k", "v", withTTL(math.MaxInt64))
	assert.Equal(t, int64(math.MaxInt64), s.data["k"].expiresAt)

	clock.Advance(100 * 365 * 24 * time.Hour)
	_, ok, _ := s.Get("k")
	assert.True(t, ok)
}

func TestStore_Incr(t *testing.T) {
	s, _ := setupStore(t, ExpiryIndexList)

	for want := int64(1); want <= 3; want++ {
		n, err := s.Incr("counter")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	s.Set("n", "5", SetOptions{})
	n, err := s.Incr("n")
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	val, _, _ := s.Get("n")
	assert.Equal(t, "6", val)
}

func TestStore_IncrTypeErrors(t *testing.T) {
	s, _ := setupStore(t, ExpiryIndexList)

	s.Set("str", "B", SetOptions{})
	_, err := s.Incr("str")
	assert.ErrorIs(t, err, ErrNotInteger)
	val, _, _ := s.Get("str")
	assert.Equal(t, "B", val)

	_, err = s.ZAdd("z", 1, "m")
	require.NoError(t, err)
	_, err = s.Incr("z")
	assert.ErrorIs(t, err, ErrWrongType)
	card, _ := s.ZCard("z")
	assert.Equal(t, 1, card)
}

func TestStore_IncrOverflow(t *testing.T) {
	s, _ := setupStore(t, ExpiryIndexList)

	s.Set("max", "9223372036854775807", SetOptions{})
	_, err := s.Incr("max")
	assert.ErrorIs(t, err, ErrOverflow)

	val, _, _ := s.Get("max")
	assert.Equal(t, "9223372036854775807", val)
}

func TestStore_IncrKeepsTTL(t *testing.T) {
	s, clock := setupStore(t, ExpiryIndexList)

	s.Set("B", "3", withTTL(1))
	n, err := s.Incr("B")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, 1, s.DBSize())

	clock.Advance(2 * time.Second)
	_, ok, _ := s.Get("B")
	assert.False(t, ok)
	assert.Equal(t, 0, s.DBSize())

	// an expired counter starts again from zero
	n, err = s.Incr("B")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, s.DBSize())
}

func TestStore_GetSortedSetIsTypeError(t *testing.T) {
	s, _ := setupStore(t, ExpiryIndexList)

	_, err := s.ZAdd("z", 10, "ten")
	require.NoError(t, err)

	_, _, err = s.Get("z")
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestStore_ZSetOnStringIsTypeError(t *testing.T) {
	s, _ := setupStore(t, ExpiryIndexList)
	s.Set("str", "v", SetOptions{})

	_, err := s.ZAdd("str", 1, "m")
	assert.ErrorIs(t, err, ErrWrongType)

	_, err = s.ZCard("str")
	assert.ErrorIs(t, err, ErrWrongType)

	_, _, err = s.ZRank("str", "m")
	assert.ErrorIs(t, err, ErrWrongType)

	_, err = s.ZRange("str", 0, -1)
	assert.ErrorIs(t, err, ErrWrongType)

	val, _, _ := s.Get("str")
	assert.Equal(t, "v", val)
}

func TestStore_ZAddOverExpiredString(t *testing.T) {
	s, clock := setupStore(t, ExpiryIndexHeap)

	s.Set("k", "v", withTTL(1))
	clock.Advance(2 * time.Second)

	res, err := s.ZAdd("k", 1, "m")
	require.NoError(t, err)
	assert.Equal(t, Inserted, res)
	assert.Equal(t, 0, s.expires.len())
	assert.Equal(t, 1, s.DBSize())
}

func TestStore_SortedSet(t *testing.T) {
	s, _ := setupStore(t, ExpiryIndexList)

	// not-exist / empty
	card, err := s.ZCard("Z")
	require.NoError(t, err)
	assert.Equal(t, 0, card)

	members, err := s.ZRange("Z", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, members)

	_, ok, err := s.ZRank("Z", "ten")
	require.NoError(t, err)
	assert.False(t, ok)

	// single element
	_, err = s.ZAdd("Z", 10, "ten")
	require.NoError(t, err)
	card, _ = s.ZCard("Z")
	assert.Equal(t, 1, card)
	assertRank(t, s, "Z", "ten", 0)

	members, _ = s.ZRange("Z", 0, 0)
	assert.Equal(t, []string{"ten"}, members)
	members, _ = s.ZRange("Z", 1, 1)
	assert.Empty(t, members)

	// two elements
	_, _ = s.ZAdd("Z", 5, "five")
	card, _ = s.ZCard("Z")
	assert.Equal(t, 2, card)
	assertRank(t, s, "Z", "ten", 1)
	assertRank(t, s, "Z", "five", 0)

	members, _ = s.ZRange("Z", -1, -1)
	assert.Equal(t, []string{"ten"}, members)
	members, _ = s.ZRange("Z", 0, -1)
	assert.Equal(t, []string{"five", "ten"}, members)

	// equal scores order by member
	_, _ = s.ZAdd("Z", 5, "fiveB")
	assertRank(t, s, "Z", "five", 0)
	assertRank(t, s, "Z", "fiveB", 1)
	assertRank(t, s, "Z", "ten", 2)

	// change score
	_, _ = s.ZAdd("Z", 10, "variable")
	assertRank(t, s, "Z", "variable", 3)
	members, _ = s.ZRange("Z", 0, -1)
	assert.Equal(t, []string{"five", "fiveB", "ten", "variable"}, members)

	res, _ := s.ZAdd("Z", 5, "variable")
	assert.Equal(t, Replaced, res)
	assertRank(t, s, "Z", "variable", 2)
	members, _ = s.ZRange("Z", 0, -1)
	assert.Equal(t, []string{"five", "fiveB", "variable", "ten"}, members)

	res, _ = s.ZAdd("Z", 5, "variable")
	assert.Equal(t, Unchanged, res)
	assertRank(t, s, "Z", "variable", 2)
}

func TestStore_GarbageCollection(t *testing.T) {
	for _, index := range []string{ExpiryIndexList, ExpiryIndexHeap} {
		for count := 1; count <= 1000; count *= 10 {
			t.Run(fmt.Sprintf("%s/%d", index, count), func(t *testing.T) {
				s, clock := setupStore(t, index)

				for i := 0; i < count; i++ {
					s.Set(fmt.Sprintf("A%d", i), "Not Expiring", SetOptions{})
					s.Set(fmt.Sprintf("B%d", i), "Expiring First", withTTL(1))
					s.Set(fmt.Sprintf("C%d", i), "Expiring Even Later", withTTL(6000))
					s.Set(fmt.Sprintf("D%d", i), "Expiring Second", withTTL(2))
					s.Set(fmt.Sprintf("E%d", i), "Expiring Later", withTTL(4500))
				}

				assert.Equal(t, count*5, s.DBSize())
				assert.Equal(t, count*5, s.DBSize())

				clock.Advance(3 * time.Second)
				assert.Equal(t, count*3, s.DBSize())
				assert.Equal(t, count*2, s.expires.len())
			})
		}
	}
}

func assertRank(t *testing.T, s *Store, key, member string, want int) {
	t.Helper()
	rank, ok, err := s.ZRank(key, member)
	require.NoError(t, err)
	require.True(t, ok, "member %q not found", member)
	assert.Equal(t, want, rank, "rank of %q", member)
}

package storage

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortedSet_Add(t *testing.T) {
	z := NewSortedSet()

	assert.Equal(t, Inserted, z.Add(100, "alice"))
	assert.Equal(t, Inserted, z.Add(200, "bob"))
	assert.Equal(t, Unchanged, z.Add(100, "alice"))
	assert.Equal(t, Replaced, z.Add(300, "alice"))
	assert.Equal(t, 2, z.Len())

	score, ok := z.Score("alice")
	assert.True(t, ok)
	assert.Equal(t, int64(300), score)

	assert.Equal(t, []string{"bob", "alice"}, z.Range(0, -1))
}

func TestSortedSet_Remove(t *testing.T) {
	z := NewSortedSet()
	z.Add(1, "a")
	z.Add(2, "b")
	z.Add(3, "c")

	assert.True(t, z.Remove("b"))
	assert.False(t, z.Remove("b"))
	assert.Equal(t, 2, z.Len())
	assert.Equal(t, []string{"a", "c"}, z.Range(0, -1))

	_, ok := z.Rank("b")
	assert.False(t, ok)
	rank, ok := z.Rank("c")
	assert.True(t, ok)
	assert.Equal(t, 1, rank)
}

func TestSortedSet_NegativeScores(t *testing.T) {
	z := NewSortedSet()
	z.Add(0, "zero")
	z.Add(-5, "neg")
	z.Add(5, "pos")

	assert.Equal(t, []string{"neg", "zero", "pos"}, z.Range(0, -1))
}

func TestSortedSet_Range(t *testing.T) {
	z := NewSortedSet()
	for i, m := range []string{"a", "b", "c", "d", "e"} {
		z.Add(int64(i), m)
	}

	tests := []struct {
		name        string
		start, stop int
		want        []string
	}{
		{"all", 0, -1, []string{"a", "b", "c", "d", "e"}},
		{"first", 0, 0, []string{"a"}},
		{"last", -1, -1, []string{"e"}},
		{"middle", 1, 3, []string{"b", "c", "d"}},
		{"negative window", -3, -2, []string{"c", "d"}},
		{"stop clamped", 3, 100, []string{"d", "e"}},
		{"start before head", -100, 1, []string{"a", "b"}},
		{"start past end", 5, 5, []string{}},
		{"start far past end", 10, 20, []string{}},
		{"stop before start", 3, 1, []string{}},
		{"both before head", -100, -50, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, z.Range(tt.start, tt.stop))
		})
	}
}

func TestSortedSet_RangeEmpty(t *testing.T) {
	z := NewSortedSet()
	assert.Equal(t, []string{}, z.Range(0, -1))
	assert.Equal(t, []string{}, z.Range(-1, -1))
}

// TestSortedSet_MatchesSortedReference drives random adds and removes and
// compares order and ranks with a plain sorted slice
func TestSortedSet_MatchesSortedReference(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	z := NewSortedSet()
	ref := make(map[string]int64)

	for i := 0; i < 5000; i++ {
		member := fmt.Sprintf("m%d", r.Intn(300))
		if r.Intn(4) == 0 {
			_, had := ref[member]
			assert.Equal(t, had, z.Remove(member))
			delete(ref, member)
			continue
		}
		score := int64(r.Intn(50) - 25)
		z.Add(score, member)
		ref[member] = score
	}

	want := make([]string, 0, len(ref))
	for m := range ref {
		want = append(want, m)
	}
	sort.Slice(want, func(i, j int) bool {
		if ref[want[i]] != ref[want[j]] {
			return ref[want[i]] < ref[want[j]]
		}
		return want[i] < want[j]
	})

	require.Equal(t, len(want), z.Len())
	assert.Equal(t, want, z.Range(0, -1))

	for i, m := range want {
		rank, ok := z.Rank(m)
		require.True(t, ok)
		assert.Equal(t, i, rank, "rank of %s", m)
	}

	for start := 0; start < len(want); start += 37 {
		stop := start + 10
		if stop >= len(want) {
			stop = len(want) - 1
		}
		assert.Equal(t, want[start:stop+1], z.Range(start, start+10))
	}
}

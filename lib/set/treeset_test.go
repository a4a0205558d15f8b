package set

import (
	randv2 "math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	antsv2 "github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/vantorre/ordset/lib/id"
)

func newScoreSet(t *testing.T, elements ...uint64) OrderedSet[uint64] {
	t.Helper()
	s := NewTreeSet[uint64]()
	for _, e := range elements {
		require.True(t, s.Add(e))
	}
	return s
}

func TestTreeSetBoundQueries(t *testing.T) {
	s := newScoreSet(t, 90, 91, 92, 93, 94, 95, 96, 97, 98, 99)
	require.Equal(t, int64(10), s.Len())

	_, ok := s.Floor(4)
	require.False(t, ok)
	floor, ok := s.Floor(91)
	require.True(t, ok)
	require.Equal(t, uint64(91), floor)
	floor, ok = s.Floor(1000)
	require.True(t, ok)
	require.Equal(t, uint64(99), floor)

	_, ok = s.Ceiling(100)
	require.False(t, ok)
	ceiling, ok := s.Ceiling(91)
	require.True(t, ok)
	require.Equal(t, uint64(91), ceiling)
	ceiling, ok = s.Ceiling(4)
	require.True(t, ok)
	require.Equal(t, uint64(90), ceiling)

	minimum, ok := s.Min()
	require.True(t, ok)
	require.Equal(t, uint64(90), minimum)
	maximum, ok := s.Max()
	require.True(t, ok)
	require.Equal(t, uint64(99), maximum)
}

func TestTreeSetRangeDelete(t *testing.T) {
	s := newScoreSet(t, 90, 91, 92, 93, 94, 95, 96, 97, 98, 99)

	require.Equal(t, []uint64{93, 94, 95, 96, 97}, s.RangeQuery(93, 97))
	require.Equal(t, int64(5), s.RangeDelete(93, 97))
	require.Equal(t, int64(5), s.Len())
	require.Equal(t, []uint64{90, 91, 92, 98, 99}, s.ToSliceAsc())

	// Nothing left to match inside the deleted band.
	require.Empty(t, s.RangeQuery(93, 97))
	require.Equal(t, int64(0), s.RangeDelete(93, 97))
	require.Equal(t, int64(5), s.Len())
}

func TestTreeSetAddDuplicate(t *testing.T) {
	s := newScoreSet(t, 7, 3, 18)
	before := s.ToSliceAsc()

	require.False(t, s.Add(18))
	require.Equal(t, int64(3), s.Len())
	require.Equal(t, before, s.ToSliceAsc())
	require.True(t, s.Contains(18))
}

func TestTreeSetRemove(t *testing.T) {
	s := newScoreSet(t, 7, 3, 18)

	require.False(t, s.Remove(42))
	require.Equal(t, int64(3), s.Len())

	require.True(t, s.Remove(7))
	require.False(t, s.Contains(7))
	require.Equal(t, int64(2), s.Len())
	require.Equal(t, []uint64{3, 18}, s.ToSliceAsc())
}

func TestTreeSetEmpty(t *testing.T) {
	s := NewTreeSet[uint64]()
	require.Equal(t, int64(0), s.Len())
	require.False(t, s.Contains(1))
	require.False(t, s.Remove(1))

	_, ok := s.Min()
	require.False(t, ok)
	_, ok = s.Max()
	require.False(t, ok)
	require.Empty(t, s.ToSliceAsc())
	require.Empty(t, s.RangeQuery(0, 100))
	require.Equal(t, int64(0), s.RangeDelete(0, 100))
}

func TestTreeSetToSlice(t *testing.T) {
	s := newScoreSet(t, 5, 1, 9, 3, 7)

	asc := s.ToSliceAsc()
	require.Equal(t, []uint64{1, 3, 5, 7, 9}, asc)
	require.Equal(t, lo.Reverse(append([]uint64{}, asc...)), s.ToSliceDesc())

	// Snapshots, not live views.
	require.True(t, s.Remove(5))
	require.Equal(t, []uint64{1, 3, 5, 7, 9}, asc)
}

func TestTreeSetClear(t *testing.T) {
	s := newScoreSet(t, 5, 1, 9)
	s.Clear()
	require.Equal(t, int64(0), s.Len())
	require.Empty(t, s.ToSliceAsc())

	require.True(t, s.Add(2))
	require.Equal(t, int64(1), s.Len())
}

func TestTreeSetDescAndCustomComparator(t *testing.T) {
	desc := NewTreeSet[uint64](WithTreeSetDesc[uint64]())
	for _, e := range []uint64{5, 1, 9, 3, 7} {
		require.True(t, desc.Add(e))
	}
	require.Equal(t, []uint64{9, 7, 5, 3, 1}, desc.ToSliceAsc())
	minimum, ok := desc.Min()
	require.True(t, ok)
	require.Equal(t, uint64(9), minimum)
	// Bounds follow the comparator order as well.
	floor, ok := desc.Floor(6)
	require.True(t, ok)
	require.Equal(t, uint64(7), floor)

	byLen := func(i, j string) int64 {
		if len(i) != len(j) {
			return int64(len(i) - len(j))
		}
		if i == j {
			return 0
		} else if i < j {
			return -1
		}
		return 1
	}
	words := NewTreeSet[string](WithTreeSetComparator[string](byLen))
	for _, e := range []string{"kiwi", "fig", "banana", "apple", "date"} {
		require.True(t, words.Add(e))
	}
	require.Equal(t, []string{"fig", "date", "kiwi", "apple", "banana"}, words.ToSliceAsc())
}

func TestTreeSetFloorCeiling_BruteForceReference(t *testing.T) {
	total := 512
	idGen, err := id.MonotonicNonZeroID()
	require.NoError(t, err)

	elements := make([]uint64, 0, total)
	for i := 0; i < total; i++ {
		// Sparse keys so queries fall between elements.
		elements = append(elements, idGen.Number()*7+randv2.Uint64()%3)
	}
	elements = lo.Uniq(elements)

	s := NewTreeSet[uint64]()
	for _, e := range elements {
		s.Add(e)
	}

	bruteFloor := func(q uint64) (uint64, bool) {
		best, ok := uint64(0), false
		for _, e := range elements {
			if e <= q && (!ok || e > best) {
				best, ok = e, true
			}
		}
		return best, ok
	}
	bruteCeiling := func(q uint64) (uint64, bool) {
		best, ok := uint64(0), false
		for _, e := range elements {
			if e >= q && (!ok || e < best) {
				best, ok = e, true
			}
		}
		return best, ok
	}

	for i := 0; i < 2_000; i++ {
		q := randv2.Uint64() % (uint64(total) * 8)
		expected, expectedOK := bruteFloor(q)
		got, gotOK := s.Floor(q)
		require.Equal(t, expectedOK, gotOK)
		if expectedOK {
			require.Equal(t, expected, got)
		}

		expected, expectedOK = bruteCeiling(q)
		got, gotOK = s.Ceiling(q)
		require.Equal(t, expectedOK, gotOK)
		if expectedOK {
			require.Equal(t, expected, got)
		}
	}
}

func TestTreeSetRangeQuery_FilterReference(t *testing.T) {
	elements := make([]uint64, 0, 1_000)
	for i := 0; i < 1_000; i++ {
		elements = append(elements, randv2.Uint64()%4_096)
	}
	elements = lo.Uniq(elements)

	s := NewTreeSet[uint64]()
	for _, e := range elements {
		s.Add(e)
	}
	require.Equal(t, int64(len(elements)), s.Len())

	for i := 0; i < 200; i++ {
		from := randv2.Uint64() % 4_096
		to := from + randv2.Uint64()%512
		expected := lo.Filter(elements, func(e uint64, _ int) bool {
			return e >= from && e <= to
		})
		sort.Slice(expected, func(i, j int) bool { return expected[i] < expected[j] })

		got := s.RangeQuery(from, to)
		if len(expected) == 0 {
			require.Empty(t, got)
		} else {
			require.Equal(t, expected, got)
		}
	}
}

func TestTreeSetRandomRangeDelete_EmptyAtEnd(t *testing.T) {
	s := NewTreeSet[uint64]()
	for i := uint64(0); i < 4_096; i++ {
		require.True(t, s.Add(i))
	}

	removed := int64(0)
	for span := uint64(0); span < 4_096; span += 256 {
		removed += s.RangeDelete(span, span+255)
	}
	require.Equal(t, int64(4_096), removed)
	require.Equal(t, int64(0), s.Len())
	_, ok := s.Min()
	require.False(t, ok)
}

// The set does no locking of its own; concurrent callers are
// required to serialize access externally. Hammer it through a
// worker pool behind a single mutex and check nothing is lost.
func TestTreeSetExternallySerializedAccess(t *testing.T) {
	s := NewTreeSet[uint64]()
	var mu sync.Mutex

	pool, err := antsv2.NewPool(8)
	require.NoError(t, err)
	defer pool.Release()

	total := uint64(4_096)
	var wg sync.WaitGroup
	for i := uint64(0); i < total; i++ {
		e := i
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			mu.Lock()
			defer mu.Unlock()
			s.Add(e)
			if e%4 == 0 {
				s.Remove(e)
			}
		})
		require.NoError(t, err)
	}
	wg.Wait()
	time.Sleep(10 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, int64(total-total/4), s.Len())
	asc := s.ToSliceAsc()
	require.True(t, sort.SliceIsSorted(asc, func(i, j int) bool { return asc[i] < asc[j] }))
	for _, e := range asc {
		require.NotZero(t, e%4)
	}
}

func BenchmarkTreeSetAdd_Random(b *testing.B) {
	b.StopTimer()
	s := NewTreeSet[int]()
	rngArr := make([]int, 0, b.N)
	for i := 0; i < b.N; i++ {
		rngArr = append(rngArr, randv2.Int())
	}

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		s.Add(rngArr[i])
	}
}

package pqueue

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_EmptyPop(t *testing.T) {
	q := New[string]()

	assert.True(t, q.IsEmpty())
	_, _, ok := q.Pop()
	assert.False(t, ok)
}

func TestQueue_PopsInPriorityOrder(t *testing.T) {
	q := New[string]()
	q.Push("c", 3)
	q.Push("a", 1)
	q.Push("d", 4)
	q.Push("b", 2)

	var got []string
	for !q.IsEmpty() {
		item, _, ok := q.Pop()
		require.True(t, ok)
		got = append(got, item)
	}

	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestQueue_AllowsDuplicates(t *testing.T) {
	q := New[string]()
	q.Push("x", 10)
	q.Push("x", 5)

	assert.Equal(t, 2, q.Len())

	item, prio, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "x", item)
	assert.Equal(t, 5.0, prio)
}

func TestQueue_RandomNonDecreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		q := New[int]()
		n := rng.Intn(200)
		want := make([]float64, 0, n)
		for i := 0; i < n; i++ {
			p := rng.Float64() * 1000
			q.Push(i, p)
			want = append(want, p)
		}
		sort.Float64s(want)

		got := make([]float64, 0, n)
		for {
			_, p, ok := q.Pop()
			if !ok {
				break
			}
			got = append(got, p)
		}
		require.Equal(t, want, got)
	}
}

func TestQueue_InterleavedReturnsCurrentMinimum(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	q := New[int]()
	var live []float64

	for i := 0; i < 2000; i++ {
		if len(live) == 0 || rng.Intn(3) > 0 {
			p := float64(rng.Intn(500))
			q.Push(i, p)
			live = append(live, p)
			continue
		}

		sort.Float64s(live)
		_, p, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, live[0], p)
		live = live[1:]
	}
}

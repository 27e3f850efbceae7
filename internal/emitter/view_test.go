package emitter

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView_ReplaceIsWholesale(t *testing.T) {
	v := NewView()
	v.Replace([]Record{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	v.Replace([]Record{{ID: "c"}, {ID: "d"}})

	got := v.Visible(Filter{})
	assert.Equal(t, []ID{"c", "d"}, ids(got), "records absent from the latest fetch must disappear")
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, uint64(2), v.Version())
}

func TestView_ReplaceCopiesInput(t *testing.T) {
	v := NewView()
	in := []Record{{ID: "a"}}
	v.Replace(in)
	in[0].ID = "mutated"

	assert.Equal(t, ID("a"), v.Raw()[0].ID)
}

func TestView_MemoizesPerInputTuple(t *testing.T) {
	v := NewView()
	v.Replace([]Record{{ID: "x", FechaAlta: at(time.Now())}, {ID: "y"}})

	f := Filter{Status: StatusActive}
	first := v.Visible(f)
	second := v.Visible(f)
	require.Len(t, first, 1)
	assert.Equal(t, 1, v.computes, "unchanged inputs must not recompute")
	assert.Same(t, &first[0], &second[0])

	v.Visible(Filter{Status: StatusInactive})
	assert.Equal(t, 2, v.computes, "a filter change recomputes")

	v.Replace([]Record{{ID: "z"}})
	got := v.Visible(Filter{Status: StatusInactive})
	assert.Equal(t, 3, v.computes, "a new fetch recomputes")
	assert.Equal(t, []ID{"z"}, ids(got))
}

func TestView_Find(t *testing.T) {
	v := NewView()
	v.Replace([]Record{{ID: "a", FechaAlta: at(time.Now())}, {ID: "b"}})

	r, ok := v.Find("a")
	require.True(t, ok)
	assert.True(t, r.Active, "Find returns normalized records")

	_, ok = v.Find("missing")
	assert.False(t, ok)
}

func TestView_ConcurrentUse(t *testing.T) {
	v := NewView()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			v.Replace([]Record{{ID: ID(rune('a' + i))}})
		}()
		go func() {
			defer wg.Done()
			_ = v.Visible(Filter{Query: "a"})
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(8), v.Version())
	assert.Equal(t, 1, v.Len())
}

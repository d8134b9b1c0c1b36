package dict

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/annopack/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_DenseAndStable(t *testing.T) {
	d := New[string]()
	defer d.Release()

	for i, v := range []string{"NOUN", "VERB", "ADJ"} {
		id, err := d.Encode(v)
		require.NoError(t, err)
		assert.Equal(t, i, id)
	}

	id, err := d.Encode("VERB")
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	assert.Equal(t, 3, d.Len())
	assert.Equal(t, []string{"NOUN", "VERB", "ADJ"}, d.Values())
}

func TestConsistency(t *testing.T) {
	rng := testutil.NewRNG(7)
	d := New[string](WithCapacity(64))
	defer d.Release()

	inputs := make([]string, 2000)
	for i := range inputs {
		// Small alphabet so values repeat often.
		inputs[i] = rng.Token(2)
	}

	ids := make(map[string]int)
	for _, v := range inputs {
		id, err := d.Encode(v)
		require.NoError(t, err)
		if prev, ok := ids[v]; ok {
			assert.Equal(t, prev, id, "equal inputs must share an id")
		}
		ids[v] = id

		back, err := d.Decode(id)
		require.NoError(t, err)
		assert.Equal(t, v, back)
	}
	assert.Equal(t, len(ids), d.Len())
}

type span struct {
	begin, end int
}

func TestEncode_StructValues(t *testing.T) {
	d := New[any]()
	defer d.Release()

	a, err := d.Encode(span{1, 3})
	require.NoError(t, err)
	b, err := d.Encode(span{1, 3})
	require.NoError(t, err)
	c, err := d.Encode("span")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	v, err := d.Decode(a)
	require.NoError(t, err)
	assert.Equal(t, span{1, 3}, v)
}

func TestEncodeWithin(t *testing.T) {
	d := New[string]()
	defer d.Release()

	for i, v := range []string{"a", "b"} {
		id, err := d.EncodeWithin(v, 2)
		require.NoError(t, err)
		assert.Equal(t, i, id)
	}

	_, err := d.EncodeWithin("c", 2)
	assert.ErrorIs(t, err, ErrLimit)
	assert.Equal(t, 2, d.Len(), "rejected values are not inserted")
	_, ok := d.Lookup("c")
	assert.False(t, ok)

	id, err := d.EncodeWithin("b", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, id, "known values ignore the limit")
}

type boxed struct{ X any }

func TestEncode_UnhashableKeepsLockUsable(t *testing.T) {
	d := New[any]()

	_, err := d.Encode(boxed{X: []int{1}})
	require.ErrorIs(t, err, ErrUnhashable)
	_, ok := d.Lookup(boxed{X: map[string]int{}})
	assert.False(t, ok)
	assert.Equal(t, 0, d.Len())

	id, err := d.Encode(boxed{X: "ok"})
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	done := make(chan struct{})
	go func() {
		d.Release()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Release blocked on a leaked lock")
	}
}

func TestLookup(t *testing.T) {
	d := New[int]()
	defer d.Release()

	_, ok := d.Lookup(10)
	assert.False(t, ok)
	assert.Equal(t, 0, d.Len(), "lookup must not assign")

	_, _ = d.Encode(10)
	id, ok := d.Lookup(10)
	assert.True(t, ok)
	assert.Equal(t, 0, id)
}

func TestDecode_UnknownID(t *testing.T) {
	d := New[string]()
	defer d.Release()

	_, err := d.Decode(0)
	assert.ErrorIs(t, err, ErrUnknownID)
	_, err = d.Decode(-1)
	assert.ErrorIs(t, err, ErrUnknownID)
}

func TestRelease(t *testing.T) {
	d := New[string]()
	_, _ = d.Encode("a")

	d.Release()
	d.Release()
	assert.True(t, d.Released())

	_, err := d.Encode("a")
	assert.ErrorIs(t, err, ErrReleased)
	_, err = d.Decode(0)
	assert.ErrorIs(t, err, ErrReleased)
	_, ok := d.Lookup("a")
	assert.False(t, ok)
	assert.Equal(t, 0, d.Len())
}

func TestWith_ReleasesOnReturn(t *testing.T) {
	var leaked *Dictionary[string]
	sentinel := errors.New("boom")

	err := With(func(d *Dictionary[string]) error {
		leaked = d
		_, err := d.Encode("x")
		require.NoError(t, err)
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.True(t, leaked.Released())
}

func TestWith_ReleasesOnPanic(t *testing.T) {
	var leaked *Dictionary[int]
	assert.Panics(t, func() {
		_ = With(func(d *Dictionary[int]) error {
			leaked = d
			panic("boom")
		})
	})
	assert.True(t, leaked.Released())
}

func TestConcurrentFirstEncounter(t *testing.T) {
	d := New[string]()
	defer d.Release()

	const workers = 16
	const values = 200

	results := make([][]int, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			ids := make([]int, values)
			for i := 0; i < values; i++ {
				id, err := d.Encode(fmt.Sprintf("v%d", i))
				if err != nil {
					panic(err)
				}
				ids[i] = id
			}
			results[w] = ids
		}(w)
	}
	wg.Wait()

	assert.Equal(t, values, d.Len())
	for w := 1; w < workers; w++ {
		assert.Equal(t, results[0], results[w])
	}
	for i := 0; i < values; i++ {
		v, err := d.Decode(results[0][i])
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("v%d", i), v)
	}
}

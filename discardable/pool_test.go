package discardable

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/rastercache/bitmap"
)

func TestPool_CreateIsLockedAndWritable(t *testing.T) {
	t.Parallel()

	p := NewPool(1 << 20)
	m, err := p.Create(4096)
	require.NoError(t, err)
	t.Cleanup(m.Release)

	data := m.Data()
	require.Len(t, data, 4096)
	data[0], data[4095] = 0xAB, 0xCD

	m.Unlock()
	require.True(t, m.Lock(), "undiscarded block must relock")
	assert.Equal(t, byte(0xAB), m.Data()[0])
	assert.Equal(t, byte(0xCD), m.Data()[4095])
	assert.EqualValues(t, 4096, p.Used())
}

func TestPool_PurgeDropsOnlyUnlocked(t *testing.T) {
	t.Parallel()

	p := NewPool(1 << 20)
	held, err := p.Create(1024)
	require.NoError(t, err)
	idle, err := p.Create(1024)
	require.NoError(t, err)
	idle.Unlock()

	p.Purge()

	assert.Equal(t, 1, p.Len())
	assert.EqualValues(t, 1024, p.Used())
	assert.EqualValues(t, 1, p.Purges())
	assert.Nil(t, idle.Data())
	assert.False(t, idle.Lock(), "discarded block must fail to lock")
	assert.NotNil(t, held.Data())

	idle.Release()
	held.Release()
	assert.Equal(t, 0, p.Len())
	assert.EqualValues(t, 0, p.Used())
}

// Creating past the budget discards the least recently locked blocks first.
func TestPool_BudgetDiscardsLRU(t *testing.T) {
	t.Parallel()

	p := NewPool(3 * 100)
	var ms []Memory
	for i := 0; i < 3; i++ {
		m, err := p.Create(100)
		require.NoError(t, err)
		m.Unlock()
		ms = append(ms, m)
	}
	// touch the oldest so the second becomes the LRU victim
	require.True(t, ms[0].Lock())
	ms[0].Unlock()

	m4, err := p.Create(100)
	require.NoError(t, err)
	defer m4.Release()

	assert.False(t, ms[1].Lock(), "LRU block must be discarded")
	assert.True(t, ms[0].Lock())
	assert.True(t, ms[2].Lock())
	for _, m := range ms {
		m.Release()
	}
}

func TestPool_SetBudgetReturnsPrevious(t *testing.T) {
	t.Parallel()

	p := NewPool(1000)
	m, err := p.Create(600)
	require.NoError(t, err)
	m.Unlock()

	assert.EqualValues(t, 1000, p.SetBudget(500))
	assert.EqualValues(t, 500, p.Budget())
	assert.False(t, m.Lock())
	m.Release()
}

func TestPool_ClosedRejectsCreate(t *testing.T) {
	t.Parallel()

	p := NewPool(0)
	require.NoError(t, p.Close())
	_, err := p.Create(16)
	assert.True(t, errors.Is(err, ErrClosed))

	_, err = NewPool(0).Create(-1)
	assert.True(t, errors.Is(err, ErrInvalidSize))
}

func TestPool_MisusePanics(t *testing.T) {
	t.Parallel()

	p := NewPool(0)
	m, err := p.Create(8)
	require.NoError(t, err)

	assert.Panics(t, func() { m.Lock() }, "double lock")
	m.Unlock()
	assert.Panics(t, func() { m.Unlock() }, "double unlock")
	m.Release()
	assert.Panics(t, func() { m.Release() }, "double release")
}

func TestAllocator_BitmapInPoolMemory(t *testing.T) {
	t.Parallel()

	p := NewPool(1 << 20)
	bm, err := bitmap.New(Allocator{Factory: p.Factory()}, bitmap.RGBA8888, 8, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 8*4*4, bm.ByteSize())
	assert.Len(t, bm.Pix(), 8*4*4)

	bm.Block().Unlock()
	p.Purge()
	assert.False(t, bm.Block().Lock())
	bm.Release()
}

func TestAllocator_FactoryErrorWraps(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	a := Allocator{Factory: func(int) (Memory, error) { return nil, boom }}
	_, err := a.Alloc(10)
	assert.ErrorIs(t, err, bitmap.ErrAllocFailed)
	assert.ErrorIs(t, err, boom)
}

func TestPool_ConcurrentLockUnlockAndPurge(t *testing.T) {
	p := NewPool(64 * 32)
	ms := make([]Memory, 32)
	for i := range ms {
		m, err := p.Create(64)
		require.NoError(t, err)
		m.Unlock()
		ms[i] = m
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(ms); i += 4 {
				for j := 0; j < 50; j++ {
					if !ms[i].Lock() {
						break
					}
					ms[i].Unlock()
				}
			}
		}(w)
	}
	for j := 0; j < 10; j++ {
		p.Purge()
	}
	wg.Wait()

	for _, m := range ms {
		m.Release()
	}
	assert.Equal(t, 0, p.Len())
}

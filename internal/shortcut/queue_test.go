package shortcut

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/notedown/internal/delta"
	"github.com/roach88/notedown/internal/document"
)

func TestTaskQueue_FIFO(t *testing.T) {
	q := newTaskQueue()
	for i := 0; i < 3; i++ {
		require.True(t, q.Enqueue(&task{anchor: i}))
	}
	assert.Equal(t, 3, q.Len())

	for i := 0; i < 3; i++ {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, i, got.anchor)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok)
}

func TestTaskQueue_SignalCoalesces(t *testing.T) {
	q := newTaskQueue()
	q.Enqueue(&task{})
	q.Enqueue(&task{})

	select {
	case <-q.Wait():
	default:
		t.Fatal("expected a pending signal")
	}
	select {
	case <-q.Wait():
		t.Fatal("signals should coalesce")
	default:
	}
}

func TestTaskQueue_TransformMovesAnchors(t *testing.T) {
	q := newTaskQueue()
	first := &task{anchor: 2}
	second := &task{anchor: 10, sel: document.Selection{Index: 12, Length: 1}}
	q.Enqueue(first)
	q.Enqueue(second)

	q.transform(delta.New(delta.Retain(4, nil), delta.Delete(3)))
	assert.Equal(t, 2, first.anchor)
	assert.Equal(t, 7, second.anchor)
	assert.Equal(t, document.Selection{Index: 9, Length: 1}, second.sel)

	q.transform(delta.New(delta.Insert("ab", nil)))
	assert.Equal(t, 4, first.anchor)
	assert.Equal(t, 9, second.anchor)
	assert.Equal(t, document.Selection{Index: 11, Length: 1}, second.sel)
}

func TestTaskQueue_Close(t *testing.T) {
	q := newTaskQueue()
	q.Enqueue(&task{})
	q.Enqueue(&task{})

	assert.Equal(t, 2, q.Close())
	assert.True(t, q.Closed())
	assert.Zero(t, q.Len())
	assert.False(t, q.Enqueue(&task{}))
	assert.Zero(t, q.Close())

	_, open := <-q.Wait()
	assert.False(t, open, "signal channel is closed")
}

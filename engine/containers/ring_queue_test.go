package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueOrder(t *testing.T) {
	q := NewRingQueue[int](3)
	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	require.NoError(t, q.Enqueue(3))
	assert.ErrorIs(t, q.Enqueue(4), ErrQueueFull)

	v, err := q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	head, err := q.Peek()
	require.NoError(t, err)
	assert.Equal(t, 2, head)
}

func TestRingQueuePushEvictsOldest(t *testing.T) {
	q := NewRingQueue[float64](2)
	q.Push(1)
	q.Push(2)
	q.Push(3)

	var got []float64
	q.Each(func(v float64) { got = append(got, v) })
	assert.Equal(t, []float64{2, 3}, got)
	assert.Equal(t, 2, q.Len())
}

func TestRingQueueEmpty(t *testing.T) {
	q := NewRingQueue[string](1)
	_, err := q.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)
	_, err = q.Peek()
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

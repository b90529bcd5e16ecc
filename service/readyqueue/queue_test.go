package readyqueue

import (
	"testing"

	"github.com/osforge/schedcore/model/thread"
	"github.com/stretchr/testify/assert"
)

func TestQueueFIFO(t *testing.T) {
	q := New(0)
	assert.Equal(t, 0, q.CPU())
	assert.True(t, q.Empty())
	assert.Nil(t, q.Head())

	a := thread.New("a", thread.KindUser, thread.NoAffinity, 10)
	b := thread.New("b", thread.KindUser, thread.NoAffinity, 10)
	c := thread.New("c", thread.KindUser, thread.NoAffinity, 10)

	q.Push(a)
	q.Push(b)
	q.Push(c)
	assert.Equal(t, 3, q.Len())

	// Insertion order is selection order.
	assert.Same(t, a, q.Head())
	assert.True(t, q.Remove(a))
	assert.Same(t, b, q.Head())
	assert.True(t, q.Remove(b))
	assert.Same(t, c, q.Head())
	assert.True(t, q.Remove(c))
	assert.True(t, q.Empty())
}

func TestQueueRemove(t *testing.T) {
	q := New(1)
	a := thread.New("a", thread.KindUser, thread.NoAffinity, 10)
	b := thread.New("b", thread.KindUser, thread.NoAffinity, 10)

	q.Push(a)
	q.Push(b)

	// Removal from the middle keeps the remaining order intact.
	assert.True(t, q.Remove(b))
	assert.False(t, q.Remove(b))
	assert.False(t, q.Contains(b))
	assert.True(t, q.Contains(a))
	assert.Same(t, a, q.Head())
}

func TestQueueSnapshot(t *testing.T) {
	q := New(0)
	a := thread.New("a", thread.KindUser, thread.NoAffinity, 10)
	b := thread.New("b", thread.KindUser, thread.NoAffinity, 10)
	q.Push(a)
	q.Push(b)

	snap := q.Snapshot()
	assert.Equal(t, []*thread.Thread{a, b}, snap)

	// The snapshot is a copy; mutating the queue does not affect it.
	q.Remove(a)
	assert.Equal(t, 2, len(snap))
	assert.Equal(t, 1, q.Len())
}

// Package ordqueue implements a bounded, multi-producer, single-consumer
// queue that accepts (index, value) pairs out of order and yields them to
// the consumer strictly in ascending index order.
//
// It is the bridge between the pipeline's three goroutines: the Collector
// pushes decoded frames by index, the Quantizer drains them in order; the
// Quantizer then pushes quantized frames by index, and the Writer drains
// those in order too. Bounding capacity is what keeps a fast decode stage
// from racing arbitrarily far ahead of a slow quantize stage.
package ordqueue

import (
	"container/heap"
	"errors"
	"sync"
)

// ErrReceiverGone is returned by Push once the consumer side of the queue
// has been closed; it is the signal a producer uses to stop feeding work
// into a pipeline whose downstream half has already given up.
var ErrReceiverGone = errors.New("ordqueue: receiver gone")

type item[T any] struct {
	index int
	value T
}

// itemHeap is a min-heap over item.index, giving O(log capacity) push/pop.
// The heap.Interface plumbing mirrors the cluster priority queue in
// soniakeys/quant/median, an existing example of using container/heap for
// this kind of "always pop the extreme element" buffer.
type itemHeap[T any] []item[T]

func (h itemHeap[T]) Len() int            { return len(h) }
func (h itemHeap[T]) Less(i, j int) bool  { return h[i].index < h[j].index }
func (h itemHeap[T]) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *itemHeap[T]) Push(x interface{}) { *h = append(*h, x.(item[T])) }
func (h *itemHeap[T]) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// Queue is the shared state behind a Producer/Iterator pair. Construct one
// with New.
type Queue[T any] struct {
	mu           sync.Mutex
	notFull      *sync.Cond
	notNext      *sync.Cond
	items        itemHeap[T]
	capacity     int
	nextIndex    int
	producers    int
	consumerGone bool

	// consumerWaiting is set while Next waits for nextIndex; a Push of that
	// index is then admitted even when the queue is at capacity.
	consumerWaiting bool
}

// Producer is a handle that may push values into a Queue. Any number of
// Producers may be created from the same Queue and used concurrently from
// different goroutines; the queue only reaches end-of-stream once every
// Producer created has been closed.
type Producer[T any] struct {
	q *Queue[T]
}

// Iterator is the single-consumer side of a Queue.
type Iterator[T any] struct {
	q *Queue[T]
}

// New creates a queue with the given capacity and an initial producer
// handle paired with the consumer iterator. Call NewProducer on the
// returned queue for additional concurrent producers.
func New[T any](capacity int) (*Queue[T], *Producer[T], *Iterator[T]) {
	q := &Queue[T]{capacity: capacity}
	q.notFull = sync.NewCond(&q.mu)
	q.notNext = sync.NewCond(&q.mu)
	q.producers = 1
	return q, &Producer[T]{q: q}, &Iterator[T]{q: q}
}

// NewProducer returns an additional producer handle for feeding this queue
// from another goroutine. It must be created before the Iterator could
// possibly observe end-of-stream (i.e. before all other producers close),
// or the queue may already have terminated.
func (q *Queue[T]) NewProducer() *Producer[T] {
	q.mu.Lock()
	q.producers++
	q.mu.Unlock()
	return &Producer[T]{q: q}
}

// Push inserts value at index, blocking while the queue is at capacity,
// except that the index the consumer is currently waiting for is always
// admitted, so a buffer full of later indices cannot stall the stream.
// Duplicate indices and gaps are not detected: a caller that never supplies
// a missing index leaves the consumer waiting at the gap until every
// producer has closed (see Next).
func (p *Producer[T]) Push(index int, value T) error {
	q := p.q
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) >= q.capacity && !q.consumerGone && !(q.consumerWaiting && index == q.nextIndex) {
		q.notFull.Wait()
	}
	if q.consumerGone {
		return ErrReceiverGone
	}
	heap.Push(&q.items, item[T]{index: index, value: value})
	q.notNext.Broadcast()
	return nil
}

// Close drops this producer handle. Once every producer handle created for
// a queue has been closed, the consumer iterator drains whatever is
// buffered, in order, and then terminates.
func (p *Producer[T]) Close() {
	q := p.q
	q.mu.Lock()
	q.producers--
	if q.producers == 0 {
		q.notNext.Broadcast()
	}
	q.mu.Unlock()
}

// Next blocks until the next value in ascending index order is available,
// returning ok == false once the stream has ended — either because every
// producer closed after delivering a contiguous run, or because it closed
// while a gap remained, in which case everything below the gap was already
// yielded and nothing after it ever will be.
func (it *Iterator[T]) Next() (T, bool) {
	q := it.q
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if len(q.items) > 0 && q.items[0].index == q.nextIndex {
			v := heap.Pop(&q.items).(item[T])
			q.nextIndex++
			q.notFull.Broadcast()
			return v.value, true
		}
		if q.producers == 0 {
			var zero T
			return zero, false
		}
		q.consumerWaiting = true
		q.notFull.Broadcast()
		q.notNext.Wait()
		q.consumerWaiting = false
	}
}

// Close signals cancellation: any producer currently blocked in Push, or
// that calls Push later, observes ErrReceiverGone instead of succeeding.
// Call this when abandoning a queue before its producers are done, e.g.
// because a downstream stage failed.
func (it *Iterator[T]) Close() {
	q := it.q
	q.mu.Lock()
	q.consumerGone = true
	q.notFull.Broadcast()
	q.mu.Unlock()
}

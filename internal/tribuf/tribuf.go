// Package tribuf implements a single-producer single-consumer triple buffer:
// the producer always has a private slot to fill and the consumer always
// sees the most recently published one, without locks or allocation.
package tribuf

import "sync/atomic"

const (
	indexMask = 0b011
	freshBit  = 0b100
)

// TripleBuffer hands values of type T from one writer goroutine to one
// reader goroutine. Slots are reused; the reader must not keep a pointer
// returned by Front across calls.
type TripleBuffer[T any] struct {
	slots [3]T
	// middle holds the index of the shared slot and, in freshBit, whether
	// it was published since the reader last took it.
	middle atomic.Uint32
	back   int
	front  int
}

// New returns a triple buffer whose slots are initialised by init, which
// may be nil.
func New[T any](init func(*T)) *TripleBuffer[T] {
	b := &TripleBuffer[T]{back: 0, front: 2}
	b.middle.Store(1)

	if init != nil {
		for i := range b.slots {
			init(&b.slots[i])
		}
	}

	return b
}

// Back returns the writer's private slot.
func (b *TripleBuffer[T]) Back() *T { return &b.slots[b.back] }

// Publish makes the back slot visible to the reader and takes over the
// previous shared slot as the new back slot.
func (b *TripleBuffer[T]) Publish() {
	prev := b.middle.Swap(uint32(b.back) | freshBit)
	b.back = int(prev & indexMask)
}

// Front returns the most recently published slot and whether it is newer
// than the one returned by the previous call. Without a new publication
// the previous slot is returned again.
func (b *TripleBuffer[T]) Front() (*T, bool) {
	if b.middle.Load()&freshBit == 0 {
		return &b.slots[b.front], false
	}

	prev := b.middle.Swap(uint32(b.front))
	b.front = int(prev & indexMask)

	return &b.slots[b.front], true
}

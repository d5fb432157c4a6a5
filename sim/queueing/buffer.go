// Package queueing provides the FIFO buffers that hold in-flight bus
// requests.
package queueing

import (
	"log"

	"github.com/scarv/xcsim/sim"
)

// HookPosBufPush marks when an element is pushed into the buffer.
var HookPosBufPush = &sim.HookPos{Name: "Buffer Push"}

// HookPosBufPop marks when an element is popped from the buffer.
var HookPosBufPop = &sim.HookPos{Name: "Buffer Pop"}

// HookPosBufClear marks when a buffer drops its elements. The hook item is
// the number of dropped elements.
var HookPosBufClear = &sim.HookPos{Name: "Buffer Clear"}

// Buffer is an unbounded FIFO queue that stores its elements by value.
type Buffer[T any] struct {
	sim.HookableBase

	name     string
	elements []T
}

// NewBuffer creates a new buffer object.
func NewBuffer[T any](name string) *Buffer[T] {
	if name == "" {
		log.Panic("buffer name must not be empty")
	}

	return &Buffer[T]{name: name}
}

// Name returns the name of the buffer.
func (b *Buffer[T]) Name() string {
	return b.name
}

// Push adds an element to the back of the buffer.
func (b *Buffer[T]) Push(e T) {
	b.elements = append(b.elements, e)

	if b.NumHooks() > 0 {
		b.InvokeHook(sim.HookCtx{
			Domain: b,
			Pos:    HookPosBufPush,
			Item:   e,
		})
	}
}

// Pop removes and returns the first element. The second return value is false
// if the buffer is empty.
func (b *Buffer[T]) Pop() (T, bool) {
	var zero T

	if len(b.elements) == 0 {
		return zero, false
	}

	e := b.elements[0]
	b.elements[0] = zero
	b.elements = b.elements[1:]

	if b.NumHooks() > 0 {
		b.InvokeHook(sim.HookCtx{
			Domain: b,
			Pos:    HookPosBufPop,
			Item:   e,
		})
	}

	return e, true
}

// Peek returns the first element without removing it.
func (b *Buffer[T]) Peek() (T, bool) {
	var zero T

	if len(b.elements) == 0 {
		return zero, false
	}

	return b.elements[0], true
}

// Back returns a pointer to the last element, or nil if the buffer is empty.
// The pointer is invalidated by the next Push or Pop.
func (b *Buffer[T]) Back() *T {
	if len(b.elements) == 0 {
		return nil
	}

	return &b.elements[len(b.elements)-1]
}

// Elements returns a copy of the buffered elements, front first.
func (b *Buffer[T]) Elements() []T {
	out := make([]T, len(b.elements))
	copy(out, b.elements)

	return out
}

// Size returns the current number of elements in the buffer.
func (b *Buffer[T]) Size() int {
	return len(b.elements)
}

// Clear removes all elements from the buffer.
func (b *Buffer[T]) Clear() {
	dropped := len(b.elements)
	b.elements = nil

	if dropped > 0 && b.NumHooks() > 0 {
		b.InvokeHook(sim.HookCtx{
			Domain: b,
			Pos:    HookPosBufClear,
			Item:   dropped,
		})
	}
}

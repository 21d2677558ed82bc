// Package observable provides a single-value publish/subscribe cell.
package observable

import "sync"

// Value holds one current value and a set of subscribers. Subscribers are
// called synchronously, outside the lock, in subscription order.
type Value[T any] struct {
	mu     sync.Mutex
	cur    T
	nextID int
	subs   []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// New returns a cell holding initial.
func New[T any](initial T) *Value[T] {
	return &Value[T]{cur: initial}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

// Set replaces the value and notifies every subscriber.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	v.cur = val
	subs := append([]subscriber[T](nil), v.subs...)
	v.mu.Unlock()

	for _, s := range subs {
		s.fn(val)
	}
}

// Subscribe registers fn and calls it immediately with the current value.
// The returned func removes the subscription.
func (v *Value[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	v.mu.Lock()
	v.nextID++
	id := v.nextID
	v.subs = append(v.subs, subscriber[T]{id: id, fn: fn})
	cur := v.cur
	v.mu.Unlock()

	fn(cur)

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		for i, s := range v.subs {
			if s.id == id {
				v.subs = append(v.subs[:i], v.subs[i+1:]...)
				return
			}
		}
	}
}

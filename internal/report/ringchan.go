package report

import "sync/atomic"

// RingChannel is a bounded channel that never blocks the producer:
// when the buffer is full the oldest element is discarded.
//
//	rc := NewRingChannel[central.Sample](16)
//	rc.Send(s)             // always succeeds
//	for s := range rc.C() { ... }
type RingChannel[T any] struct {
	ch          chan T
	written     atomic.Int64
	overwritten atomic.Int64
}

// NewRingChannel creates a RingChannel; capacity must be positive.
func NewRingChannel[T any](capacity int) *RingChannel[T] {
	if capacity <= 0 {
		panic("ringchan: capacity must be > 0")
	}
	return &RingChannel[T]{ch: make(chan T, capacity)}
}

// C returns the receive side.
func (rc *RingChannel[T]) C() <-chan T {
	return rc.ch
}

// Send inserts v, discarding the oldest element while the buffer is full.
// It returns true when something was discarded. Send after Close panics.
func (rc *RingChannel[T]) Send(v T) bool {
	dropped := false
	for {
		select {
		case rc.ch <- v:
			rc.written.Add(1)
			return dropped
		default:
		}
		select {
		case <-rc.ch:
			rc.overwritten.Add(1)
			dropped = true
		default:
		}
	}
}

// TryReceive returns a buffered element without blocking.
func (rc *RingChannel[T]) TryReceive() (v T, ok bool) {
	select {
	case v, ok = <-rc.ch:
		return v, ok
	default:
		return v, false
	}
}

func (rc *RingChannel[T]) Len() int { return len(rc.ch) }
func (rc *RingChannel[T]) Cap() int { return cap(rc.ch) }

// Close closes the channel so consumers ranging over C return.
func (rc *RingChannel[T]) Close() {
	close(rc.ch)
}

// Written is the number of elements accepted by Send.
func (rc *RingChannel[T]) Written() int64 { return rc.written.Load() }

// Overwritten is the number of elements discarded to make room.
func (rc *RingChannel[T]) Overwritten() int64 { return rc.overwritten.Load() }

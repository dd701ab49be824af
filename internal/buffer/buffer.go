// Package buffer holds the most recent readings of the live feed.
package buffer

import "pmwatch/internal/reading"

// Capacity is how many readings the live dashboard keeps.
const Capacity = 50

// Buffer is a fixed-capacity FIFO of readings; pushing into a full buffer
// evicts the oldest entry. Not safe for concurrent use; the render loop owns it.
type Buffer struct {
	buf   []reading.Reading
	head  int // next write position
	count int
}

// New returns an empty buffer. A non-positive capacity falls back to Capacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = Capacity
	}
	return &Buffer{buf: make([]reading.Reading, capacity)}
}

// Push appends r and reports whether the oldest reading was evicted to make room.
func (b *Buffer) Push(r reading.Reading) bool {
	b.buf[b.head] = r
	b.head = (b.head + 1) % len(b.buf)
	if b.count == len(b.buf) {
		// head was pointing at the oldest entry, which is now overwritten
		return true
	}
	b.count++
	return false
}

// Readings returns a copy of the contents, oldest first. Nil when empty.
func (b *Buffer) Readings() []reading.Reading {
	if b.count == 0 {
		return nil
	}
	out := make([]reading.Reading, b.count)
	start := (b.head - b.count + len(b.buf)) % len(b.buf)
	for i := range out {
		out[i] = b.buf[(start+i)%len(b.buf)]
	}
	return out
}

// Latest returns the newest reading and the one before it. With a single
// reading, previous is the latest itself. ok is false when the buffer is empty.
func (b *Buffer) Latest() (latest, previous reading.Reading, ok bool) {
	if b.count == 0 {
		return reading.Reading{}, reading.Reading{}, false
	}
	last := (b.head - 1 + len(b.buf)) % len(b.buf)
	latest = b.buf[last]
	if b.count == 1 {
		return latest, latest, true
	}
	return latest, b.buf[(last-1+len(b.buf))%len(b.buf)], true
}

func (b *Buffer) Len() int {
	return b.count
}

func (b *Buffer) Cap() int {
	return len(b.buf)
}

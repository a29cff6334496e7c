// Package pool implements the process-wide BufferPool (spec §4.2): a
// singleton free list of growable, reusable byte buffers shared by the
// socket layer's pending_reads/pending_writes queues and by the protocol
// codecs above them.
//
// Single-threaded only, by design (spec §5): the Reactor thread is the sole
// caller, so no locking is needed here.
package pool

// Buffer is an owned, growable byte sequence. Ownership transfers explicitly
// between producer, Socket queue, and consumer; callers must not retain a
// Buffer across a call to Release.
type Buffer struct {
	data  []byte
	owner *BufferPool
}

// Append grows the buffer by p, copying p's contents in.
func (b *Buffer) Append(p []byte) {
	b.data = append(b.data, p...)
}

// Len returns the number of bytes currently held.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Bytes returns the current contents. The returned slice is only valid
// until the next mutating call or Release.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Get returns the byte at index i.
func (b *Buffer) Get(i int) byte {
	return b.data[i]
}

// Set overwrites the byte at index i.
func (b *Buffer) Set(i int, v byte) {
	b.data[i] = v
}

// Grow ensures at least n bytes of spare capacity past the current
// contents and returns that spare region as a writable slice of length n,
// without changing Len. Callers that fill some or all of it must call
// Commit to make the written bytes visible. Used by readers (e.g.
// reactor.Socket.DoRead) that want to read(2) directly into the buffer
// instead of through an intermediate allocation.
func (b *Buffer) Grow(n int) []byte {
	l := len(b.data)
	if cap(b.data)-l < n {
		grown := make([]byte, l, l+n)
		copy(grown, b.data)
		b.data = grown
	}
	return b.data[l : l+n : l+n]
}

// Commit extends Len by n, making the first n bytes written into the
// slice returned by the most recent Grow call part of the buffer's
// contents.
func (b *Buffer) Commit(n int) {
	b.data = b.data[:len(b.data)+n]
}

// Drop removes the first n bytes, shifting the remainder down. Used by the
// socket layer to account for partial writes without allocating a new
// buffer (spec §4.6, §9).
func (b *Buffer) Drop(n int) {
	if n <= 0 {
		return
	}
	if n >= len(b.data) {
		b.data = b.data[:0]
		return
	}
	copy(b.data, b.data[n:])
	b.data = b.data[:len(b.data)-n]
}

// Release returns the buffer to the pool it was acquired from. The Buffer
// must not be used afterward.
func (b *Buffer) Release() {
	if b.owner != nil {
		b.owner.release(b)
	}
}

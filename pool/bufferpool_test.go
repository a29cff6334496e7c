package pool

import "testing"

func TestAcquireReuseAfterRelease(t *testing.T) {
	p := New()
	b1 := p.Acquire(16)
	b1.Append([]byte("hello"))
	b1.Release()

	b2 := p.Acquire(16)
	if b2.Len() != 0 {
		t.Errorf("reused buffer should be cleared, got len=%d", b2.Len())
	}
	if p.Stats().Allocated != 1 {
		t.Errorf("expected exactly one allocation across acquire/release/acquire, got %d", p.Stats().Allocated)
	}
}

func TestConservation(t *testing.T) {
	p := New()
	bufs := make([]*Buffer, 0, 10)
	for i := 0; i < 10; i++ {
		bufs = append(bufs, p.Acquire(8))
	}
	for _, b := range bufs {
		b.Release()
	}
	s := p.Stats()
	if s.InFlight != 0 {
		t.Errorf("InFlight = %d, want 0 after releasing all", s.InFlight)
	}
	if s.Free != s.Allocated {
		t.Errorf("Free (%d) + InFlight (%d) should equal Allocated (%d)", s.Free, s.InFlight, s.Allocated)
	}
}

func TestDropPartial(t *testing.T) {
	p := New()
	b := p.Acquire(16)
	b.Append([]byte("abcdef"))
	b.Drop(2)
	if string(b.Bytes()) != "cdef" {
		t.Errorf("Drop(2) on 'abcdef' = %q, want 'cdef'", b.Bytes())
	}
	b.Drop(100)
	if b.Len() != 0 {
		t.Errorf("Drop beyond length should empty buffer, got len=%d", b.Len())
	}
}

func TestGrowCommitAppendsInPlace(t *testing.T) {
	p := New()
	b := p.Acquire(16)
	b.Append([]byte("ab"))

	spare := b.Grow(4)
	copy(spare, []byte("wxyz"))
	b.Commit(2)

	if string(b.Bytes()) != "abwx" {
		t.Errorf("got %q, want %q", b.Bytes(), "abwx")
	}
}

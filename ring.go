package max3100

// ring is a single-producer byte queue with one slot kept free,
// so at most len(buf)-1 bytes are held.
type ring struct {
	buf   []byte
	read  int
	write int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]byte, capacity)}
}

func (r *ring) len() int {
	c := len(r.buf)
	return (r.write - r.read + c) % c
}

func (r *ring) free() int {
	return len(r.buf) - 1 - r.len()
}

// put stores b, or returns ErrBufferFull without modifying the ring.
func (r *ring) put(b byte) error {
	next := (r.write + 1) % len(r.buf)
	if next == r.read {
		return ErrBufferFull
	}
	r.buf[r.write] = b
	r.write = next
	return nil
}

// get moves up to len(p) bytes out of the ring.
func (r *ring) get(p []byte) int {
	n := 0
	for n < len(p) && r.read != r.write {
		p[n] = r.buf[r.read]
		r.read = (r.read + 1) % len(r.buf)
		n++
	}
	return n
}

func (r *ring) reset() {
	r.read = 0
	r.write = 0
}

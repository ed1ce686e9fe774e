package rnet

// defaultBufferCapacity is the default size in bytes of the per-session buffers.
const defaultBufferCapacity = 512

// Accumulator is a fixed-capacity byte buffer.
// Bytes are appended at the tail and consumed from the front;
// consuming shifts the unconsumed bytes down to index 0.
// It never grows: an append that does not fit is rejected as a whole.
//
// The zero value has capacity 0. Use NewAccumulator.
type Accumulator struct {
	buf []byte
	n   int // valid bytes in buf[:n], oldest first
}

// NewAccumulator returns an empty accumulator holding at most capacity bytes.
// A negative capacity is treated as 0.
func NewAccumulator(capacity int) *Accumulator {
	if capacity < 0 {
		capacity = 0
	}
	return &Accumulator{buf: make([]byte, capacity)}
}

// Append copies p to the tail of the buffer.
// It returns ErrCapacityOverflow and leaves the buffer unchanged
// when p does not fit into the free space.
func (a *Accumulator) Append(p []byte) error {
	if len(p) > a.Free() {
		return ErrCapacityOverflow
	}
	a.n += copy(a.buf[a.n:], p)
	return nil
}

// PeekFront returns the oldest buffered byte without removing it.
func (a *Accumulator) PeekFront() (byte, error) {
	if a.n == 0 {
		return 0, ErrEmptyBuffer
	}
	return a.buf[0], nil
}

// Peek returns the first n buffered bytes without removing them.
// The returned slice aliases the buffer and is valid until the next mutation.
func (a *Accumulator) Peek(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeCount
	}
	if n > a.n {
		return nil, ErrShortBuffer
	}
	return a.buf[:n:n], nil
}

// ConsumeFront removes the first n bytes and shifts the rest down.
func (a *Accumulator) ConsumeFront(n int) error {
	if n < 0 {
		return ErrNegativeCount
	}
	if n > a.n {
		return ErrShortBuffer
	}
	copy(a.buf, a.buf[n:a.n])
	a.n -= n
	return nil
}

// ReadByte removes and returns the oldest buffered byte.
func (a *Accumulator) ReadByte() (byte, error) {
	b, err := a.PeekFront()
	if err != nil {
		return 0, err
	}
	_ = a.ConsumeFront(1)
	return b, nil
}

// Next removes the first n bytes and returns a copy of them.
func (a *Accumulator) Next(n int) ([]byte, error) {
	p, err := a.Peek(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, p)
	_ = a.ConsumeFront(n)
	return out, nil
}

// Bytes returns all buffered bytes. The slice aliases the buffer.
func (a *Accumulator) Bytes() []byte {
	return a.buf[:a.n:a.n]
}

// Remaining returns the number of buffered bytes.
func (a *Accumulator) Remaining() int {
	return a.n
}

// Cap returns the fixed capacity.
func (a *Accumulator) Cap() int {
	return len(a.buf)
}

// Free returns the number of bytes that can still be appended.
func (a *Accumulator) Free() int {
	return len(a.buf) - a.n
}

// Reset discards all buffered bytes.
func (a *Accumulator) Reset() {
	a.n = 0
}

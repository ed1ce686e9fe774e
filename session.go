// Package rnet provides framed TCP sessions over a poll-based socket set.
// Each session accumulates received bytes in a fixed-capacity buffer and
// hands complete frames to a FrameDecoder. Everything runs on the caller's
// goroutine: poll with SocketsReady, then call ReadAndDispatch per session.
package rnet

import (
	"sync/atomic"

	"github.com/eapache/queue"
	"github.com/pkg/errors"
)

// Role tells which factory path built a session.
type Role int

const (
	// RoleClient sessions were connected with StartClient.
	RoleClient Role = iota
	// RoleServer sessions listen or were accepted by a listening session.
	RoleServer
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

// Session is one TCP socket registered in a shared SocketSet,
// with its receive accumulator and outbound write buffer.
// It is not safe for concurrent use.
type Session struct {
	sock      Socket
	set       *SocketSet
	platform  Platform
	role      Role
	listening bool
	logger    Logger

	opts options

	read    *Accumulator
	scratch []byte // stages a single Recv
	write   *Accumulator
	pending *queue.Queue // messages waiting for room in write

	closed atomic.Bool
	err    error
}

// NewSession wraps a socket that is already registered in set.
// The session holds a reference to set until it is closed.
func NewSession(set *SocketSet, sock Socket, role Role, opt ...Option) (*Session, error) {
	opts := newOptions(opt)
	if !set.Contains(sock) {
		return nil, ErrSocketUnregistered
	}
	if err := set.retain(); err != nil {
		return nil, err
	}
	s := &Session{
		sock:     sock,
		set:      set,
		platform: set.platform,
		role:     role,
		logger:   opts.logger,
		opts:     opts,
		read:     NewAccumulator(opts.capacity),
		scratch:  make([]byte, opts.capacity),
		write:    NewAccumulator(opts.capacity),
		pending:  queue.New(),
	}
	return s, nil
}

// ReadAndDispatch receives once from the socket if the last SocketsReady
// poll reported it readable, then hands every complete frame to dec.
//
// It returns false exactly when the session is closed, either by this call
// (peer closed, receive error, buffer overflow, handler failure) or earlier.
// Err reports why. It returns true when nothing was readable. Listening
// sessions never receive; use AcceptNewClient on them.
//
// A full buffer that the decoder refuses closes the session with
// ErrCapacityOverflow on the next readable poll, even when the peer
// has hung up meanwhile.
func (s *Session) ReadAndDispatch(dec FrameDecoder) bool {
	if s.closed.Load() {
		return false
	}
	if dec == nil {
		s.logger.Error("read and dispatch", "socket", s.sock, "error", ErrInvalidDecoder)
		return true
	}
	if s.listening || !s.set.Ready(s.sock) {
		return true
	}
	s.set.consumeReady(s.sock)

	free := s.read.Free()
	if free == 0 {
		// The decoder refused a full buffer, so no frame can ever complete.
		// This wins over a pending hangup, which cannot be told apart from
		// input without reading.
		s.teardown(ErrCapacityOverflow)
		return false
	}

	n, err := s.platform.Recv(s.sock, s.scratch[:free])
	if errors.Is(err, ErrWouldBlock) {
		return true
	}
	if err != nil {
		s.teardown(err)
		return false
	}
	if n <= 0 {
		s.teardown(ErrConnectionClosed)
		return false
	}
	if err := s.read.Append(s.scratch[:n]); err != nil {
		s.teardown(err)
		return false
	}
	s.logger.Debug("received", "socket", s.sock, "bytes", n, "buffered", s.read.Remaining())

	return s.dispatch(dec)
}

// dispatch runs Ready/Handle cycles until the decoder waits for more input.
func (s *Session) dispatch(dec FrameDecoder) bool {
	for s.read.Remaining() > 0 {
		first, _ := s.read.PeekFront()
		before := s.read.Remaining()
		if !dec.Ready(first, before) {
			break
		}

		err := dec.Handle(s)
		if s.closed.Load() {
			return false
		}
		if err != nil {
			s.logger.Debug("frame handler error", "socket", s.sock, "error", err)
			if s.opts.onError(err) == Disconnect {
				s.teardown(errors.Wrap(err, "handle frame"))
				return false
			}
		}
		if s.read.Remaining() == before {
			s.teardown(ErrNoProgress)
			return false
		}
	}
	return true
}

// PeekByte returns the oldest buffered byte without consuming it.
func (s *Session) PeekByte() (byte, error) {
	return s.read.PeekFront()
}

// ReadByte consumes and returns the oldest buffered byte.
func (s *Session) ReadByte() (byte, error) {
	return s.read.ReadByte()
}

// Peek returns the first n buffered bytes without consuming them.
// The slice is only valid until the next read.
func (s *Session) Peek(n int) ([]byte, error) {
	return s.read.Peek(n)
}

// Next consumes n buffered bytes and returns a copy of them.
func (s *Session) Next(n int) ([]byte, error) {
	return s.read.Next(n)
}

// Discard consumes n buffered bytes.
func (s *Session) Discard(n int) error {
	return s.read.ConsumeFront(n)
}

// Buffered returns the number of received bytes not yet consumed.
func (s *Session) Buffered() int {
	return s.read.Remaining()
}

// Send stages msg for the next Flush.
// Messages that do not fit into the write buffer queue up behind it.
//
// Returns:
//   - ErrConnectionClosed: the session is closed
//   - ErrMessageTooLarge: msg is larger than the write buffer
//   - ErrBufferFull: the send queue is full, msg was NOT staged
func (s *Session) Send(msg []byte) error {
	if s.closed.Load() {
		return ErrConnectionClosed
	}
	if len(msg) > s.write.Cap() {
		return ErrMessageTooLarge
	}
	if s.pending.Length() == 0 && s.write.Append(msg) == nil {
		return nil
	}
	if s.pending.Length() >= s.opts.sendQueueSize {
		return ErrBufferFull
	}
	owned := make([]byte, len(msg))
	copy(owned, msg)
	s.pending.Add(owned)
	return nil
}

// Flush writes staged messages until they are all sent or the socket
// would block. Unsent bytes stay staged for the next Flush; see Pending.
// A send failure closes the session.
func (s *Session) Flush() error {
	if s.closed.Load() {
		return ErrConnectionClosed
	}
	for {
		s.fillWriteBuffer()
		if s.write.Remaining() == 0 {
			return nil
		}
		n, err := s.platform.Send(s.sock, s.write.Bytes())
		_ = s.write.ConsumeFront(n)
		if errors.Is(err, ErrWouldBlock) {
			return nil
		}
		if err == nil && n == 0 {
			err = errors.New("short write")
		}
		if err != nil {
			s.teardown(err)
			return err
		}
	}
}

// fillWriteBuffer moves queued messages into the write buffer while they fit.
func (s *Session) fillWriteBuffer() {
	for s.pending.Length() > 0 {
		msg := s.pending.Peek().([]byte)
		if s.write.Append(msg) != nil {
			return
		}
		s.pending.Remove()
	}
}

// Pending returns the number of outbound bytes and queued messages not yet flushed.
func (s *Session) Pending() (bytes, messages int) {
	return s.write.Remaining(), s.pending.Length()
}

// Close deregisters the socket from the set and closes it.
// Safe to call multiple times.
func (s *Session) Close() error {
	return s.teardown(nil)
}

// teardown closes the session once, recording reason for Err.
func (s *Session) teardown(reason error) error {
	if s.closed.Swap(true) {
		return nil
	}
	s.err = reason
	if reason == nil {
		s.err = ErrConnectionClosed
	}

	if err := s.set.Remove(s.sock); err != nil {
		s.logger.Warn("remove socket from set", "socket", s.sock, "error", err)
	}
	err := s.platform.Close(s.sock)
	s.set.release()

	if reason != nil && !errors.Is(reason, ErrConnectionClosed) {
		s.logger.Info("connection closed with error", "socket", s.sock, "role", s.role, "error", reason)
	} else {
		s.logger.Info("connection closed", "socket", s.sock, "role", s.role)
	}
	return err
}

// IsClosed returns true if the session has been closed.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Err returns why the session was closed, or nil while it is open.
// An explicit Close reports ErrConnectionClosed.
func (s *Session) Err() error {
	if !s.closed.Load() {
		return nil
	}
	return s.err
}

// Role returns whether the session was built by the server or the client path.
func (s *Session) Role() Role {
	return s.role
}

// Socket returns the underlying socket handle.
func (s *Session) Socket() Socket {
	return s.sock
}

// SocketSet returns the set shared with sibling sessions.
func (s *Session) SocketSet() *SocketSet {
	return s.set
}

// LocalPort returns the local port of the socket.
func (s *Session) LocalPort() (uint16, error) {
	addr, err := s.platform.LocalAddr(s.sock)
	if err != nil {
		return 0, err
	}
	return addr.Port, nil
}

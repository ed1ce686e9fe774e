package rnet

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Hub drives a listening session and the sessions it accepts from one
// goroutine. Each Tick is one iteration of the caller's frame loop.
type Hub struct {
	listener *Session
	decoder  FrameDecoder
	logger   Logger

	sessionOpts []Option
	onAccept    func(*Session)
	onClose     func(*Session, error)

	sessions []*Session
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// HubLoggerOption sets the logger for the hub.
func HubLoggerOption(logger Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

// HubOnAcceptOption sets a callback invoked for every accepted session.
func HubOnAcceptOption(cb func(*Session)) HubOption {
	return func(h *Hub) {
		h.onAccept = cb
	}
}

// HubOnCloseOption sets a callback invoked after a session has been torn down,
// with the reason it closed.
func HubOnCloseOption(cb func(*Session, error)) HubOption {
	return func(h *Hub) {
		h.onClose = cb
	}
}

// HubSessionOptions sets options applied to every accepted session.
func HubSessionOptions(opt ...Option) HubOption {
	return func(h *Hub) {
		h.sessionOpts = opt
	}
}

// NewHub returns a hub serving listener, dispatching frames to dec.
func NewHub(listener *Session, dec FrameDecoder, opts ...HubOption) (*Hub, error) {
	if listener == nil || !listener.listening {
		return nil, ErrNotServer
	}
	if dec == nil {
		return nil, ErrInvalidDecoder
	}

	h := &Hub{
		listener: listener,
		decoder:  dec,
		logger:   listener.logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Tick polls the socket set once, accepts a pending client, dispatches input
// to every session, flushes staged output and drops closed sessions.
// It returns the number of open sessions.
func (h *Hub) Tick() int {
	if SocketsReady(h.listener) {
		if s, ok := Accept(h.listener, h.sessionOpts...); ok {
			h.sessions = append(h.sessions, s)
			h.logger.Info("client joined", "socket", s.Socket(), "clients", len(h.sessions))
			if h.onAccept != nil {
				h.onAccept(s)
			}
		}
	}

	for _, s := range h.sessions {
		if !s.IsClosed() {
			s.ReadAndDispatch(h.decoder)
		}
		if !s.IsClosed() {
			if bytes, msgs := s.Pending(); bytes > 0 || msgs > 0 {
				_ = s.Flush()
			}
		}
	}

	h.sweep()
	return len(h.sessions)
}

// sweep removes closed sessions, preserving the order of the others.
func (h *Hub) sweep() {
	open := h.sessions[:0]
	for _, s := range h.sessions {
		if !s.IsClosed() {
			open = append(open, s)
			continue
		}
		h.logger.Debug("client left", "socket", s.Socket(), "reason", s.Err())
		if h.onClose != nil {
			h.onClose(s, s.Err())
		}
	}
	for i := len(open); i < len(h.sessions); i++ {
		h.sessions[i] = nil
	}
	h.sessions = open
}

// Run calls Tick every interval until ctx is done, then closes the hub.
// It returns ctx.Err().
func (h *Hub) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.logger.Info("hub running", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			if err := h.Close(); err != nil {
				h.logger.Warn("hub close", "error", err)
			}
			h.logger.Info("hub stopped")
			return ctx.Err()
		case <-ticker.C:
			h.Tick()
		}
	}
}

// Sessions returns the open accepted sessions.
func (h *Hub) Sessions() []*Session {
	out := make([]*Session, len(h.sessions))
	copy(out, h.sessions)
	return out
}

// Broadcast stages msg on every open session. It returns the first error.
// Output is written on the next Tick.
func (h *Hub) Broadcast(msg []byte) error {
	var first error
	for _, s := range h.sessions {
		if err := s.Send(msg); err != nil && first == nil {
			first = errors.Wrapf(err, "broadcast to socket %d", s.Socket())
		}
	}
	return first
}

// Close closes every accepted session and then the listener.
// Safe to call multiple times.
func (h *Hub) Close() error {
	var first error
	for _, s := range h.sessions {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	h.sweep()
	if err := h.listener.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

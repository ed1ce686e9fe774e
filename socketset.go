package rnet

import (
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// SocketSet is a fixed-capacity collection of sockets polled together.
//
// A set is shared by every session created from one StartServer or StartClient
// call. Sessions retain it when created and release it on teardown; the set is
// freed after the last release. It is not safe for concurrent use.
type SocketSet struct {
	platform Platform
	capacity int

	sockets []Socket
	ready   []bool // readiness of sockets[i] from the last Check

	refs  atomic.Int32
	freed atomic.Bool
}

// preallocSockets bounds the slots reserved up front; larger sets grow on Add.
const preallocSockets = 64

// AllocSocketSet returns an empty set that can hold capacity sockets.
func AllocSocketSet(p Platform, capacity int) (*SocketSet, error) {
	if p == nil {
		return nil, errors.New("nil platform")
	}
	if capacity <= 0 {
		return nil, errors.Errorf("invalid socket set capacity %d", capacity)
	}
	prealloc := min(capacity, preallocSockets)
	return &SocketSet{
		platform: p,
		capacity: capacity,
		sockets:  make([]Socket, 0, prealloc),
		ready:    make([]bool, 0, prealloc),
	}, nil
}

// Add registers s.
func (ss *SocketSet) Add(s Socket) error {
	if ss.freed.Load() {
		return ErrSocketSetFreed
	}
	if ss.indexOf(s) >= 0 {
		return ErrSocketRegistered
	}
	if len(ss.sockets) >= ss.capacity {
		return ErrSocketSetFull
	}
	ss.sockets = append(ss.sockets, s)
	ss.ready = append(ss.ready, false)
	return nil
}

// Remove deregisters s.
func (ss *SocketSet) Remove(s Socket) error {
	i := ss.indexOf(s)
	if i < 0 {
		return ErrSocketUnregistered
	}
	last := len(ss.sockets) - 1
	ss.sockets[i] = ss.sockets[last]
	ss.ready[i] = ss.ready[last]
	ss.sockets = ss.sockets[:last]
	ss.ready = ss.ready[:last]
	return nil
}

// Check polls every registered socket, waiting at most timeout,
// and records which ones have pending input. It returns the ready count.
func (ss *SocketSet) Check(timeout time.Duration) (int, error) {
	if ss.freed.Load() {
		return 0, ErrSocketSetFreed
	}
	for i := range ss.ready {
		ss.ready[i] = false
	}
	if len(ss.sockets) == 0 {
		return 0, nil
	}
	n, err := ss.platform.Poll(ss.sockets, ss.ready, timeout)
	if err != nil {
		return 0, errors.Wrap(err, "poll socket set")
	}
	return n, nil
}

// Ready reports whether the last Check found input pending on s.
func (ss *SocketSet) Ready(s Socket) bool {
	i := ss.indexOf(s)
	return i >= 0 && ss.ready[i]
}

// consumeReady clears the readiness of s, so a socket is read at most once per Check.
func (ss *SocketSet) consumeReady(s Socket) {
	if i := ss.indexOf(s); i >= 0 {
		ss.ready[i] = false
	}
}

// Contains reports whether s is registered.
func (ss *SocketSet) Contains(s Socket) bool {
	return ss.indexOf(s) >= 0
}

// Len returns the number of registered sockets.
func (ss *SocketSet) Len() int {
	return len(ss.sockets)
}

// Cap returns the maximum number of sockets.
func (ss *SocketSet) Cap() int {
	return ss.capacity
}

// Refs returns the number of sessions holding the set.
func (ss *SocketSet) Refs() int {
	return int(ss.refs.Load())
}

// Freed reports whether the last reference has been released.
func (ss *SocketSet) Freed() bool {
	return ss.freed.Load()
}

func (ss *SocketSet) retain() error {
	if ss.freed.Load() {
		return ErrSocketSetFreed
	}
	ss.refs.Add(1)
	return nil
}

func (ss *SocketSet) release() {
	if ss.refs.Add(-1) > 0 {
		return
	}
	if ss.freed.Swap(true) {
		return
	}
	ss.sockets = nil
	ss.ready = nil
}

func (ss *SocketSet) indexOf(s Socket) int {
	for i, v := range ss.sockets {
		if v == s {
			return i
		}
	}
	return -1
}

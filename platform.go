package rnet

import (
	"net"
	"strconv"
	"time"
)

// Socket is an opaque handle to an open socket owned by a Platform.
type Socket int

// Addr is a resolved IPv4 endpoint.
// Passive addresses come from BecomeHost and open as listening sockets.
type Addr struct {
	IP      net.IP
	Port    uint16
	Passive bool
}

func (a Addr) String() string {
	ip := "0.0.0.0"
	if a.IP != nil {
		ip = a.IP.String()
	}
	return net.JoinHostPort(ip, strconv.Itoa(int(a.Port)))
}

// Platform is the sockets facility sessions are built on.
// Implementations do the syscalls; SocketSet keeps the registration bookkeeping.
type Platform interface {
	// Init prepares the facility. It may be called more than once.
	Init() error
	// ResolveHost resolves host and port to a connectable address.
	ResolveHost(host string, port uint16) (Addr, error)
	// BecomeHost returns a passive address for listening on port.
	BecomeHost(port uint16) (Addr, error)
	// Open listens on a passive address or connects to any other address.
	Open(addr Addr) (Socket, error)
	// Accept returns the next pending connection of a listening socket,
	// or ErrWouldBlock when there is none.
	Accept(listener Socket) (Socket, error)
	// Recv reads at most len(p) bytes. It returns 0 and a nil error once
	// the peer has closed the connection.
	Recv(s Socket, p []byte) (int, error)
	// Send writes as much of p as the socket accepts without blocking.
	// When it stops early it returns the count written and ErrWouldBlock.
	Send(s Socket, p []byte) (int, error)
	// Poll waits up to timeout for input on socks, sets ready[i] for every
	// socket with pending input and returns how many are ready.
	// A zero timeout never blocks. A negative timeout blocks indefinitely.
	Poll(socks []Socket, ready []bool, timeout time.Duration) (int, error)
	// LocalAddr returns the local endpoint of s.
	LocalAddr(s Socket) (Addr, error)
	// Close releases s.
	Close(s Socket) error
}

// DefaultPlatform returns the sockets facility of the running operating system.
func DefaultPlatform() Platform {
	return defaultPlatform()
}

package rnet

import (
	"errors"
	"net"
	"time"
)

// fakeConn is one in-memory socket of a fakePlatform.
type fakeConn struct {
	listening  bool
	inbox      [][]byte // chunks delivered by the peer, one per Recv
	peerClosed bool
	backlog    []Socket // pending connections of a listener
	sent       []byte
	closed     int
	recvCalls  int
}

// fakePlatform implements Platform without the network.
type fakePlatform struct {
	initErr    error
	resolveErr error
	openErr    error
	sendErr    error
	sendLimit  int // bytes accepted per Send before ErrWouldBlock, 0 for no limit

	next  Socket
	conns map[Socket]*fakeConn
	polls int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{next: 100, conns: make(map[Socket]*fakeConn)}
}

func (p *fakePlatform) newSocket(listening bool) Socket {
	s := p.next
	p.next++
	p.conns[s] = &fakeConn{listening: listening}
	return s
}

// deliver queues chunk for the next Recv on s.
func (p *fakePlatform) deliver(s Socket, chunk ...byte) {
	c := p.conns[s]
	c.inbox = append(c.inbox, append([]byte(nil), chunk...))
}

// hangup simulates the peer closing s.
func (p *fakePlatform) hangup(s Socket) {
	p.conns[s].peerClosed = true
}

// dial queues a new pending connection on listener and returns its socket.
func (p *fakePlatform) dial(listener Socket) Socket {
	s := p.newSocket(false)
	c := p.conns[listener]
	c.backlog = append(c.backlog, s)
	return s
}

func (p *fakePlatform) Init() error { return p.initErr }

func (p *fakePlatform) ResolveHost(host string, port uint16) (Addr, error) {
	if p.resolveErr != nil {
		return Addr{}, p.resolveErr
	}
	return Addr{IP: net.IPv4(127, 0, 0, 1), Port: port}, nil
}

func (p *fakePlatform) BecomeHost(port uint16) (Addr, error) {
	return Addr{IP: net.IPv4zero, Port: port, Passive: true}, nil
}

func (p *fakePlatform) Open(addr Addr) (Socket, error) {
	if p.openErr != nil {
		return -1, p.openErr
	}
	return p.newSocket(addr.Passive), nil
}

func (p *fakePlatform) Accept(listener Socket) (Socket, error) {
	c := p.conns[listener]
	if len(c.backlog) == 0 {
		return -1, ErrWouldBlock
	}
	s := c.backlog[0]
	c.backlog = c.backlog[1:]
	return s, nil
}

func (p *fakePlatform) Recv(s Socket, buf []byte) (int, error) {
	c := p.conns[s]
	c.recvCalls++
	if len(c.inbox) == 0 {
		if c.peerClosed {
			return 0, nil
		}
		return 0, ErrWouldBlock
	}
	n := copy(buf, c.inbox[0])
	if n == len(c.inbox[0]) {
		c.inbox = c.inbox[1:]
	} else {
		c.inbox[0] = c.inbox[0][n:]
	}
	return n, nil
}

func (p *fakePlatform) Send(s Socket, buf []byte) (int, error) {
	if p.sendErr != nil {
		return 0, p.sendErr
	}
	c := p.conns[s]
	if p.sendLimit > 0 && len(buf) > p.sendLimit {
		c.sent = append(c.sent, buf[:p.sendLimit]...)
		return p.sendLimit, ErrWouldBlock
	}
	c.sent = append(c.sent, buf...)
	return len(buf), nil
}

func (p *fakePlatform) Poll(socks []Socket, ready []bool, _ time.Duration) (int, error) {
	p.polls++
	n := 0
	for i, s := range socks {
		c, ok := p.conns[s]
		if !ok {
			continue
		}
		if len(c.inbox) > 0 || c.peerClosed || len(c.backlog) > 0 {
			ready[i] = true
			n++
		}
	}
	return n, nil
}

func (p *fakePlatform) LocalAddr(s Socket) (Addr, error) {
	if _, ok := p.conns[s]; !ok {
		return Addr{}, errors.New("unknown socket")
	}
	return Addr{IP: net.IPv4(127, 0, 0, 1), Port: 9000}, nil
}

func (p *fakePlatform) Close(s Socket) error {
	c, ok := p.conns[s]
	if !ok {
		return errors.New("unknown socket")
	}
	c.closed++
	return nil
}

// fakeClient returns a client session on a fresh fake platform.
func fakeClient(opt ...Option) (*Session, *fakePlatform, error) {
	p := newFakePlatform()
	opts := append([]Option{PlatformOption(p), LoggerOption(NopLogger())}, opt...)
	s, err := StartClient("localhost", 9000, opts...)
	return s, p, err
}

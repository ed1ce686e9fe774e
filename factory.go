package rnet

import (
	"github.com/pkg/errors"
)

// StartServer listens on port and returns the listening session.
// The socket set it allocates holds the listener plus expectedClients accepted
// sockets. A port of 0 picks a free port; see Session.LocalPort.
//
// On failure it returns a nil session and an error matching one of
// ErrInitFailure, ErrSocketSetAlloc or ErrBindFailure.
func StartServer(port uint16, expectedClients uint32, opt ...Option) (*Session, error) {
	opts := newOptions(opt)

	set, err := initialize(opts, int(expectedClients)+1)
	if err != nil {
		return nil, err
	}

	addr, err := opts.platform.BecomeHost(port)
	if err != nil {
		return nil, setupError(ErrBindFailure, err)
	}

	s, err := open(set, addr, RoleServer, ErrBindFailure, opt)
	if err != nil {
		return nil, err
	}
	s.listening = true

	opts.logger.Info("server started", "addr", addr, "capacity", set.Cap())
	return s, nil
}

// StartClient connects to host:port and returns the client session.
// Its socket set holds exactly that socket.
//
// On failure it returns a nil session and an error matching one of
// ErrInitFailure, ErrSocketSetAlloc, ErrResolveFailure or ErrConnectFailure.
func StartClient(host string, port uint16, opt ...Option) (*Session, error) {
	opts := newOptions(opt)

	set, err := initialize(opts, 1)
	if err != nil {
		return nil, err
	}

	addr, err := opts.platform.ResolveHost(host, port)
	if err != nil {
		return nil, setupError(ErrResolveFailure, err)
	}

	s, err := open(set, addr, RoleClient, ErrConnectFailure, opt)
	if err != nil {
		return nil, err
	}

	opts.logger.Info("connected", "addr", addr)
	return s, nil
}

// initialize brings up the sockets facility and allocates a set of the given size.
func initialize(opts options, size int) (*SocketSet, error) {
	if err := opts.platform.Init(); err != nil {
		opts.logger.Error("sockets subsystem init failure", "error", err)
		return nil, setupError(ErrInitFailure, err)
	}

	set, err := AllocSocketSet(opts.platform, size)
	if err != nil {
		return nil, setupError(ErrSocketSetAlloc, err)
	}
	return set, nil
}

// open opens addr, registers the socket in set and wraps it in a session.
func open(set *SocketSet, addr Addr, role Role, stage error, opt []Option) (*Session, error) {
	sock, err := set.platform.Open(addr)
	if err != nil {
		return nil, setupError(stage, err)
	}

	if err := set.Add(sock); err != nil {
		_ = set.platform.Close(sock)
		return nil, setupError(ErrSocketSetAlloc, err)
	}

	s, err := NewSession(set, sock, role, opt...)
	if err != nil {
		_ = set.Remove(sock)
		_ = set.platform.Close(sock)
		return nil, setupError(ErrSocketSetAlloc, err)
	}
	return s, nil
}

// AcceptNewClient accepts a pending connection on a listening session and
// registers it into the listener's socket set.
// It returns false when server is not a listening session, when the last
// SocketsReady poll did not report the listener readable, or when accept failed.
//
// The caller owns the returned socket; wrap it with NewSession or use Accept.
func AcceptNewClient(server *Session) (Socket, bool) {
	if server == nil || server.role != RoleServer || !server.listening || server.closed.Load() {
		return -1, false
	}
	if !server.set.Ready(server.sock) {
		return -1, false
	}
	server.set.consumeReady(server.sock)

	sock, err := server.platform.Accept(server.sock)
	if err != nil {
		if !errors.Is(err, ErrWouldBlock) {
			server.logger.Warn("accept error", "socket", server.sock, "error", err)
		}
		return -1, false
	}

	if err := server.set.Add(sock); err != nil {
		server.logger.Warn("register accepted socket", "socket", sock, "error", err)
		_ = server.platform.Close(sock)
		return -1, false
	}

	server.logger.Debug("accepted connection", "socket", sock)
	return sock, true
}

// Accept is AcceptNewClient followed by NewSession. The new session shares the
// listener's socket set and, unless overridden by opt, its options.
func Accept(server *Session, opt ...Option) (*Session, bool) {
	sock, ok := AcceptNewClient(server)
	if !ok {
		return nil, false
	}

	inherited := []Option{
		PlatformOption(server.opts.platform),
		LoggerOption(server.opts.logger),
		OnErrorOption(server.opts.onError),
		BufferCapacityOption(server.opts.capacity),
		SendQueueOption(server.opts.sendQueueSize),
	}
	s, err := NewSession(server.set, sock, RoleServer, append(inherited, opt...)...)
	if err != nil {
		server.logger.Warn("wrap accepted socket", "socket", sock, "error", err)
		_ = server.set.Remove(sock)
		_ = server.platform.Close(sock)
		return nil, false
	}
	return s, true
}

// SocketsReady polls the session's socket set without blocking and reports
// whether any registered socket has pending input.
func SocketsReady(s *Session) bool {
	if s == nil || s.set.Freed() {
		return false
	}
	n, err := s.set.Check(0)
	if err != nil {
		s.logger.Warn("check sockets", "error", err)
		return false
	}
	return n > 0
}

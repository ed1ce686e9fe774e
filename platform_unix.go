//go:build unix

package rnet

import (
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// listenBacklog is the pending-connection queue length of listening sockets.
const listenBacklog = unix.SOMAXCONN

// unixPlatform drives raw IPv4 TCP descriptors through golang.org/x/sys/unix.
// Every socket is non-blocking once opened, so only Poll waits.
// Connect alone completes synchronously inside Open.
type unixPlatform struct{}

func defaultPlatform() Platform {
	return unixPlatform{}
}

func (unixPlatform) Init() error {
	return nil
}

func (unixPlatform) ResolveHost(host string, port uint16) (Addr, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp4", net.JoinHostPort(host, strconv.Itoa(int(port))))
	if err != nil {
		return Addr{}, errors.Wrapf(err, "resolve %s", host)
	}
	ip := tcpAddr.IP.To4()
	if ip == nil {
		ip = net.IPv4zero.To4()
	}
	return Addr{IP: ip, Port: port}, nil
}

func (unixPlatform) BecomeHost(port uint16) (Addr, error) {
	return Addr{IP: net.IPv4zero.To4(), Port: port, Passive: true}, nil
}

func (p unixPlatform) Open(addr Addr) (Socket, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, errors.Wrap(err, "create socket")
	}
	unix.CloseOnExec(fd)

	if addr.Passive {
		err = listen(fd, addr)
	} else {
		err = connect(fd, addr)
	}
	if err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	return Socket(fd), nil
}

func listen(fd int, addr Addr) error {
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return errors.Wrap(err, "set reuseaddr")
	}
	if err := unix.Bind(fd, toSockaddr(addr)); err != nil {
		return errors.Wrapf(err, "bind %s", addr)
	}
	if err := unix.Listen(fd, listenBacklog); err != nil {
		return errors.Wrapf(err, "listen %s", addr)
	}
	return errors.Wrap(unix.SetNonblock(fd, true), "set nonblock")
}

func connect(fd int, addr Addr) error {
	for {
		err := unix.Connect(fd, toSockaddr(addr))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "connect %s", addr)
		}
		break
	}
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	return errors.Wrap(unix.SetNonblock(fd, true), "set nonblock")
}

func (unixPlatform) Accept(listener Socket) (Socket, error) {
	for {
		nfd, _, err := unix.Accept(int(listener))
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.ECONNABORTED:
			return -1, ErrWouldBlock
		case err != nil:
			return -1, errors.Wrap(err, "accept")
		}
		unix.CloseOnExec(nfd)
		// Linux does not inherit O_NONBLOCK from the listener.
		if err := unix.SetNonblock(nfd, true); err != nil {
			_ = unix.Close(nfd)
			return -1, errors.Wrap(err, "set nonblock")
		}
		_ = unix.SetsockoptInt(nfd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
		return Socket(nfd), nil
	}
}

func (unixPlatform) Recv(s Socket, p []byte) (int, error) {
	for {
		n, err := unix.Read(int(s), p)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return 0, ErrWouldBlock
		}
		if err != nil {
			return 0, errors.Wrap(err, "recv")
		}
		return n, nil
	}
}

func (unixPlatform) Send(s Socket, p []byte) (int, error) {
	sent := 0
	for sent < len(p) {
		n, err := unix.Write(int(s), p[sent:])
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return sent, ErrWouldBlock
		}
		if err != nil {
			return sent, errors.Wrap(err, "send")
		}
		sent += n
	}
	return sent, nil
}

func (unixPlatform) Poll(socks []Socket, ready []bool, timeout time.Duration) (int, error) {
	fds := make([]unix.PollFd, len(socks))
	for i, s := range socks {
		fds[i] = unix.PollFd{Fd: int32(s), Events: unix.POLLIN}
	}

	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}

	for {
		_, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			if ms == 0 {
				return 0, nil
			}
			continue
		}
		if err != nil {
			return 0, errors.Wrap(err, "poll")
		}
		break
	}

	count := 0
	for i := range fds {
		// Hangups and errors count as input so the next Recv reports them.
		if fds[i].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
			ready[i] = true
			count++
		}
	}
	return count, nil
}

func (unixPlatform) LocalAddr(s Socket) (Addr, error) {
	sa, err := unix.Getsockname(int(s))
	if err != nil {
		return Addr{}, errors.Wrap(err, "getsockname")
	}
	sa4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return Addr{}, errors.Errorf("unexpected socket address %T", sa)
	}
	ip := make(net.IP, net.IPv4len)
	copy(ip, sa4.Addr[:])
	return Addr{IP: ip, Port: uint16(sa4.Port)}, nil
}

func (unixPlatform) Close(s Socket) error {
	return errors.Wrap(unix.Close(int(s)), "close")
}

func toSockaddr(addr Addr) *unix.SockaddrInet4 {
	sa4 := &unix.SockaddrInet4{Port: int(addr.Port)}
	if ip := addr.IP.To4(); ip != nil {
		copy(sa4.Addr[:], ip)
	}
	return sa4
}

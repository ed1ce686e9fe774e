//go:build !unix

package rnet

import "time"

// unsupportedPlatform fails at Init, so StartServer and StartClient return ErrInitFailure.
type unsupportedPlatform struct{}

func defaultPlatform() Platform {
	return unsupportedPlatform{}
}

func (unsupportedPlatform) Init() error { return ErrUnsupportedPlatform }

func (unsupportedPlatform) ResolveHost(string, uint16) (Addr, error) {
	return Addr{}, ErrUnsupportedPlatform
}

func (unsupportedPlatform) BecomeHost(uint16) (Addr, error) { return Addr{}, ErrUnsupportedPlatform }

func (unsupportedPlatform) Open(Addr) (Socket, error) { return -1, ErrUnsupportedPlatform }

func (unsupportedPlatform) Accept(Socket) (Socket, error) { return -1, ErrUnsupportedPlatform }

func (unsupportedPlatform) Recv(Socket, []byte) (int, error) { return 0, ErrUnsupportedPlatform }

func (unsupportedPlatform) Send(Socket, []byte) (int, error) { return 0, ErrUnsupportedPlatform }

func (unsupportedPlatform) Poll([]Socket, []bool, time.Duration) (int, error) {
	return 0, ErrUnsupportedPlatform
}

func (unsupportedPlatform) LocalAddr(Socket) (Addr, error) { return Addr{}, ErrUnsupportedPlatform }

func (unsupportedPlatform) Close(Socket) error { return ErrUnsupportedPlatform }

package rnet

import (
	"github.com/pkg/errors"
)

// Errors returned by buffer operations.
var (
	// ErrCapacityOverflow is returned when appended bytes would exceed the buffer capacity.
	ErrCapacityOverflow = errors.New("buffer capacity overflow")
	// ErrEmptyBuffer is returned when peeking or reading an empty buffer.
	ErrEmptyBuffer = errors.New("buffer is empty")
	// ErrShortBuffer is returned when fewer bytes are buffered than requested.
	ErrShortBuffer = errors.New("not enough buffered bytes")
	// ErrNegativeCount is returned for a negative byte count.
	ErrNegativeCount = errors.New("negative count")
)

// Errors returned by session operations.
var (
	// ErrConnectionClosed is returned when the peer closed the connection
	// or when operating on a closed session.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrInvalidDecoder is returned when no frame decoder is provided.
	ErrInvalidDecoder = errors.New("invalid frame decoder")
	// ErrNoProgress is returned when a frame handler consumed no bytes.
	ErrNoProgress = errors.New("frame handler consumed no bytes")
	// ErrMessageTooLarge is returned when a message cannot fit its frame or buffer.
	ErrMessageTooLarge = errors.New("message too large")
	// ErrBufferFull is returned when the send queue cannot take more messages.
	ErrBufferFull = errors.New("send buffer full")
	// ErrNotServer is returned when a server-only operation is used on a client session.
	ErrNotServer = errors.New("session is not a server")
)

// Errors returned by socket set operations.
var (
	// ErrSocketSetFull is returned when adding beyond the set capacity.
	ErrSocketSetFull = errors.New("socket set is full")
	// ErrSocketSetFreed is returned when using a set after its last session closed.
	ErrSocketSetFreed = errors.New("socket set already freed")
	// ErrSocketRegistered is returned when adding a socket twice.
	ErrSocketRegistered = errors.New("socket already registered")
	// ErrSocketUnregistered is returned for a socket that is not in the set.
	ErrSocketUnregistered = errors.New("socket not registered")
)

// Setup stages reported by SetupError.
var (
	// ErrInitFailure means the sockets facility failed to initialize.
	ErrInitFailure = errors.New("sockets subsystem init failure")
	// ErrSocketSetAlloc means the socket set could not be allocated or registered into.
	ErrSocketSetAlloc = errors.New("socket set allocation failure")
	// ErrResolveFailure means the remote host could not be resolved.
	ErrResolveFailure = errors.New("address resolution failure")
	// ErrBindFailure means the listening socket could not be opened.
	ErrBindFailure = errors.New("bind failure")
	// ErrConnectFailure means the connection to the remote host failed.
	ErrConnectFailure = errors.New("connect failure")
)

// ErrWouldBlock is returned by a Platform when an operation cannot proceed
// without blocking. Send returns it together with the bytes it did write.
var ErrWouldBlock = errors.New("operation would block")

// ErrUnsupportedPlatform is returned by Init on systems without a sockets facility.
var ErrUnsupportedPlatform = errors.New("sockets facility not supported on this platform")

// SetupError describes which bootstrap step of StartServer or StartClient failed.
// Both the stage sentinel and the platform cause match with errors.Is.
type SetupError struct {
	Stage error
	Err   error
}

func (e *SetupError) Error() string {
	if e.Err == nil {
		return e.Stage.Error()
	}
	return e.Stage.Error() + ": " + e.Err.Error()
}

// Unwrap returns the stage sentinel and the cause.
func (e *SetupError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Stage}
	}
	return []error{e.Stage, e.Err}
}

func setupError(stage, cause error) error {
	return errors.WithStack(&SetupError{Stage: stage, Err: cause})
}

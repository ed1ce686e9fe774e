package rnet

// FrameDecoder decides when the buffered bytes of a session hold a complete
// message, and handles that message.
//
// Ready is called with the oldest buffered byte and the number of buffered
// bytes. It must not consume anything. When it returns true, Handle is called
// and must consume at least one byte through the session's read primitives
// (ReadByte, Next, Discard). Returning false waits for more input.
type FrameDecoder interface {
	Ready(first byte, buffered int) bool
	Handle(s *Session) error
}

// DecoderFuncs adapts a readiness predicate and a handler function to FrameDecoder.
type DecoderFuncs struct {
	CanHandle func(first byte, buffered int) bool
	OnFrame   func(s *Session) error
}

// Ready calls CanHandle.
func (d DecoderFuncs) Ready(first byte, buffered int) bool {
	return d.CanHandle(first, buffered)
}

// Handle calls OnFrame.
func (d DecoderFuncs) Handle(s *Session) error {
	return d.OnFrame(s)
}

type fixedLengthDecoder struct {
	size    int
	onFrame func(frame []byte) error
}

// FixedLengthDecoder returns a decoder for frames of exactly size bytes.
// onFrame receives a copy of each frame.
func FixedLengthDecoder(size int, onFrame func(frame []byte) error) FrameDecoder {
	if size <= 0 {
		size = 1
	}
	return &fixedLengthDecoder{size: size, onFrame: onFrame}
}

func (d *fixedLengthDecoder) Ready(_ byte, buffered int) bool {
	return buffered >= d.size
}

func (d *fixedLengthDecoder) Handle(s *Session) error {
	frame, err := s.Next(d.size)
	if err != nil {
		return err
	}
	return d.onFrame(frame)
}

// maxPrefixedPayload is the largest payload a one-byte length prefix can describe.
const maxPrefixedPayload = 0xff

type lengthPrefixDecoder struct {
	onPayload func(payload []byte) error
}

// LengthPrefixDecoder returns a decoder for frames made of one length byte
// followed by that many payload bytes. onPayload receives a copy of the payload.
func LengthPrefixDecoder(onPayload func(payload []byte) error) FrameDecoder {
	return &lengthPrefixDecoder{onPayload: onPayload}
}

func (d *lengthPrefixDecoder) Ready(first byte, buffered int) bool {
	return buffered >= 1+int(first)
}

func (d *lengthPrefixDecoder) Handle(s *Session) error {
	n, err := s.ReadByte()
	if err != nil {
		return err
	}
	payload, err := s.Next(int(n))
	if err != nil {
		return err
	}
	return d.onPayload(payload)
}

// EncodeLengthPrefixed frames payload for LengthPrefixDecoder.
func EncodeLengthPrefixed(payload []byte) ([]byte, error) {
	if len(payload) > maxPrefixedPayload {
		return nil, ErrMessageTooLarge
	}
	frame := make([]byte, 0, 1+len(payload))
	frame = append(frame, byte(len(payload)))
	return append(frame, payload...), nil
}

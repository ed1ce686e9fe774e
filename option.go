package rnet

// ErrorAction defines the action to take when a frame handler fails.
type ErrorAction int

const (
	// Disconnect tears the session down when an error occurs.
	Disconnect ErrorAction = iota
	// Continue suppresses the error and keeps dispatching.
	Continue
)

// defaultSendQueueSize is the default number of messages queued behind a full write buffer.
const defaultSendQueueSize = 64

// options holds the configuration for a session.
type options struct {
	platform Platform
	logger   Logger

	// onError is called when a frame handler returns an error.
	// Returns Disconnect to close the session, Continue to suppress the error.
	onError func(error) ErrorAction

	capacity      int // size of the read, write and scratch buffers
	sendQueueSize int // messages waiting for room in the write buffer
}

// Option is a function that configures session options.
type Option func(*options)

// BufferCapacityOption sets the fixed capacity in bytes of the session buffers.
// A frame larger than this can never be received.
func BufferCapacityOption(size int) Option {
	return func(o *options) {
		o.capacity = size
	}
}

// SendQueueOption sets how many outbound messages may wait for room in the write buffer.
func SendQueueOption(size int) Option {
	return func(o *options) {
		o.sendQueueSize = size
	}
}

// OnErrorOption sets the callback invoked when a frame handler returns an error.
// Return Disconnect to close the session, or Continue to keep dispatching.
func OnErrorOption(cb func(error) ErrorAction) Option {
	return func(o *options) {
		o.onError = cb
	}
}

// LoggerOption sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// PlatformOption sets the sockets facility. Defaults to DefaultPlatform().
func PlatformOption(p Platform) Option {
	return func(o *options) {
		o.platform = p
	}
}

func newOptions(opt []Option) options {
	var opts options
	for _, o := range opt {
		o(&opts)
	}
	checkOptions(&opts)
	return opts
}

// checkOptions sets default values for unset options.
func checkOptions(opts *options) {
	if opts.capacity <= 0 {
		opts.capacity = defaultBufferCapacity
	}

	if opts.sendQueueSize <= 0 {
		opts.sendQueueSize = defaultSendQueueSize
	}

	if opts.onError == nil {
		opts.onError = func(err error) ErrorAction { return Disconnect }
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}

	if opts.platform == nil {
		opts.platform = DefaultPlatform()
	}
}

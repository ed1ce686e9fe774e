package rnet

import (
	"errors"
	"testing"
)

func TestBufferCapacityOption(t *testing.T) {
	opt := BufferCapacityOption(64)

	var opts options
	opt(&opts)

	if opts.capacity != 64 {
		t.Errorf("capacity = %d, want 64", opts.capacity)
	}
}

func TestSendQueueOption(t *testing.T) {
	opt := SendQueueOption(8)

	var opts options
	opt(&opts)

	if opts.sendQueueSize != 8 {
		t.Errorf("sendQueueSize = %d, want 8", opts.sendQueueSize)
	}
}

func TestOnErrorOption(t *testing.T) {
	called := false
	onError := func(err error) ErrorAction {
		called = true
		return Continue
	}
	opt := OnErrorOption(onError)

	var opts options
	opt(&opts)

	if opts.onError == nil {
		t.Fatal("onError is nil")
	}

	if opts.onError(nil) != Continue || !called {
		t.Error("onError callback not called")
	}
}

func TestLoggerOption(t *testing.T) {
	logger := &mockLogger{}
	opt := LoggerOption(logger)

	var opts options
	opt(&opts)

	if opts.logger != logger {
		t.Error("logger not set correctly")
	}
}

func TestPlatformOption(t *testing.T) {
	p := newFakePlatform()
	opt := PlatformOption(p)

	var opts options
	opt(&opts)

	if opts.platform != p {
		t.Error("platform not set correctly")
	}
}

func TestCheckOptions_DefaultValues(t *testing.T) {
	var opts options
	checkOptions(&opts)

	if opts.capacity != defaultBufferCapacity {
		t.Errorf("capacity = %d, want %d", opts.capacity, defaultBufferCapacity)
	}
	if opts.sendQueueSize != defaultSendQueueSize {
		t.Errorf("sendQueueSize = %d, want %d", opts.sendQueueSize, defaultSendQueueSize)
	}
	if opts.logger == nil {
		t.Error("logger should have default value")
	}
	if opts.platform == nil {
		t.Error("platform should have default value")
	}

	// Default onError should return Disconnect
	if opts.onError(errors.New("test")) != Disconnect {
		t.Error("default onError should return Disconnect")
	}
}

func TestCheckOptions_NonPositiveSizes(t *testing.T) {
	opts := newOptions([]Option{BufferCapacityOption(-5), SendQueueOption(0)})

	if opts.capacity != defaultBufferCapacity {
		t.Errorf("capacity = %d, want %d", opts.capacity, defaultBufferCapacity)
	}
	if opts.sendQueueSize != defaultSendQueueSize {
		t.Errorf("sendQueueSize = %d, want %d", opts.sendQueueSize, defaultSendQueueSize)
	}
}

func TestOptions_MultipleOptions(t *testing.T) {
	logger := &mockLogger{}
	p := newFakePlatform()

	opts := newOptions([]Option{
		BufferCapacityOption(32),
		SendQueueOption(4),
		OnErrorOption(func(error) ErrorAction { return Continue }),
		LoggerOption(logger),
		PlatformOption(p),
	})

	if opts.capacity != 32 {
		t.Errorf("capacity = %d, want 32", opts.capacity)
	}
	if opts.sendQueueSize != 4 {
		t.Errorf("sendQueueSize = %d, want 4", opts.sendQueueSize)
	}
	if opts.onError(nil) != Continue {
		t.Error("onError not set")
	}
	if opts.logger != logger {
		t.Error("logger not set")
	}
	if opts.platform != p {
		t.Error("platform not set")
	}
}

func TestErrorAction(t *testing.T) {
	if Disconnect != 0 {
		t.Errorf("Disconnect = %d, want 0", Disconnect)
	}
	if Continue != 1 {
		t.Errorf("Continue = %d, want 1", Continue)
	}
}

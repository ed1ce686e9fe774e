package rnet

import (
	"log/slog"
	"testing"
)

func TestLogger_Interface(t *testing.T) {
	// Verify that *slog.Logger implements our Logger interface
	var _ Logger = slog.Default()
}

func TestDefaultLogger(t *testing.T) {
	logger := defaultLogger()

	if logger == nil {
		t.Fatal("defaultLogger returned nil")
	}

	// Verify it's the slog default
	if logger != slog.Default() {
		t.Error("defaultLogger did not return slog.Default()")
	}
}

func TestNopLogger(t *testing.T) {
	var _ Logger = NopLogger()

	logger := NopLogger()
	logger.Debug("debug message", "key", "value")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message", "error", nil)
}

func TestDefaultLogger_Methods(t *testing.T) {
	logger := defaultLogger()

	// These should not panic - just verify they can be called
	logger.Debug("debug message", "key", "value")
	logger.Info("info message", "key", "value")
	logger.Warn("warn message", "key", "value")
	logger.Error("error message", "key", "value")
}

// mockLogger for testing Logger interface
type mockLogger struct {
	debugCalled bool
	infoCalled  bool
	warnCalled  bool
	errorCalled bool
	lastMsg     string
	lastArgs    []any
}

func (l *mockLogger) Debug(msg string, args ...any) {
	l.debugCalled = true
	l.lastMsg = msg
	l.lastArgs = args
}

func (l *mockLogger) Info(msg string, args ...any) {
	l.infoCalled = true
	l.lastMsg = msg
	l.lastArgs = args
}

func (l *mockLogger) Warn(msg string, args ...any) {
	l.warnCalled = true
	l.lastMsg = msg
	l.lastArgs = args
}

func (l *mockLogger) Error(msg string, args ...any) {
	l.errorCalled = true
	l.lastMsg = msg
	l.lastArgs = args
}

func TestLogger_SessionTeardown(t *testing.T) {
	logger := &mockLogger{}
	s, p, err := fakeClient(LoggerOption(logger))
	if err != nil {
		t.Fatalf("StartClient failed: %v", err)
	}

	p.hangup(s.Socket())
	SocketsReady(s)
	s.ReadAndDispatch(&countingDecoder{size: 1})

	if !logger.infoCalled {
		t.Error("Info not called on teardown")
	}
	if logger.lastMsg != "connection closed" {
		t.Errorf("lastMsg = %q, want %q", logger.lastMsg, "connection closed")
	}
}

func TestLogger_AbnormalTeardown(t *testing.T) {
	logger := &mockLogger{}
	s, p, err := fakeClient(LoggerOption(logger), BufferCapacityOption(1))
	if err != nil {
		t.Fatalf("StartClient failed: %v", err)
	}

	p.deliver(s.Socket(), 1, 2)
	never := DecoderFuncs{
		CanHandle: func(byte, int) bool { return false },
		OnFrame:   func(*Session) error { return nil },
	}
	for SocketsReady(s) && s.ReadAndDispatch(never) {
	}

	if logger.lastMsg != "connection closed with error" {
		t.Errorf("lastMsg = %q, want %q", logger.lastMsg, "connection closed with error")
	}
}

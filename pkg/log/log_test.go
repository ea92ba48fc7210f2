package log

import (
	"testing"
)

func TestCountedAllowsUpToLimit(t *testing.T) {
	c := NewCounted(3)
	for i := 0; i < 3; i++ {
		if !c.Allow() {
			t.Fatalf("emission %d should be allowed", i)
		}
	}
	for i := 0; i < 5; i++ {
		if c.Allow() {
			t.Fatalf("emission past the limit should be suppressed")
		}
	}
}

func TestCountedZeroSuppressesEverything(t *testing.T) {
	c := NewCounted(0)
	if c.Allow() {
		t.Errorf("zero-limit counter should never allow")
	}
}

func TestGetLoggerWithNameDoesNotPanic(t *testing.T) {
	SetupLogger("debug")
	logger := GetLoggerWithName("test")
	logger.Debug("debug message", "k", 1)
	logger.Info("info message", "k", "v")
	logger.Warn("warn message")
	logger.Error("error message", "odd")
}

package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

// TestLogLevelFiltering verifies messages below the configured level are dropped
func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(&buf, "warn")

	log.Tracef("trace msg")
	log.Debugf("debug msg")
	log.Infof("info msg")
	log.Warnf("warn msg")
	log.Errorf("error msg")

	out := buf.String()
	for _, dropped := range []string{"trace msg", "debug msg", "info msg"} {
		if strings.Contains(out, dropped) {
			t.Errorf("output contains %q below the warn level", dropped)
		}
	}
	for _, kept := range []string{"warn msg", "error msg"} {
		if !strings.Contains(out, kept) {
			t.Errorf("output missing %q", kept)
		}
	}
}

// TestLogFormat verifies the "[HH:MM:SS] [LEVEL] message" line shape
func TestLogFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(&buf, "info")

	log.Infof("generated %d cases", 42)

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, "[INFO] generated 42 cases") {
		t.Errorf("line = %q, want [INFO] segment with formatted message", line)
	}
	// Timestamp prefix: "[HH:MM:SS] ".
	if len(line) < 11 || line[0] != '[' || line[9] != ']' {
		t.Errorf("line = %q, want [HH:MM:SS] prefix", line)
	}
}

// TestInvalidLevelDefaultsToInfo verifies bad levels fall back to info
func TestInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(&buf, "loud")

	log.Debugf("hidden")
	log.Infof("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message passed the default info filter")
	}
	if !strings.Contains(out, "shown") {
		t.Error("info message dropped")
	}
}

// TestNilWriter verifies a nil writer discards without panicking
func TestNilWriter(t *testing.T) {
	log := NewConsoleLogger(nil, "trace")
	log.Infof("into the void")
	log.Errorf("still nothing")
}

// TestNoColorForBuffer verifies non-terminal writers get plain output
func TestNoColorForBuffer(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(&buf, "info")

	log.Infof("plain")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("ANSI escape in non-terminal output: %q", buf.String())
	}
}

// TestConcurrentLogging verifies writer access is serialized
func TestConcurrentLogging(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(&buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			log.Infof("worker %d", n)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 20 {
		t.Errorf("%d lines written, want 20", len(lines))
	}
}

package logger

import (
	"strings"
	"sync"
	"testing"
)

// TestProgressBarIncrement verifies counting and percentage math
func TestProgressBarIncrement(t *testing.T) {
	pb := NewProgressBar(4, 20, false)

	if pb.Current() != 0 || pb.Percentage() != 0 {
		t.Errorf("fresh bar = %d/%d%%, want 0/0%%", pb.Current(), pb.Percentage())
	}

	pb.Increment()
	pb.Increment()
	if pb.Current() != 2 {
		t.Errorf("Current = %d, want 2", pb.Current())
	}
	if pb.Percentage() != 50 {
		t.Errorf("Percentage = %d, want 50", pb.Percentage())
	}
}

// TestProgressBarRender verifies the ASCII shape and prefix
func TestProgressBarRender(t *testing.T) {
	pb := NewProgressBar(10, 10, false)
	pb.SetPrefix("cases ")
	for i := 0; i < 5; i++ {
		pb.Increment()
	}

	got := pb.Render()
	if !strings.HasPrefix(got, "cases [") {
		t.Errorf("Render = %q, want prefix applied", got)
	}
	if !strings.Contains(got, "5/10 (50%)") {
		t.Errorf("Render = %q, want 5/10 (50%%)", got)
	}
	if strings.Contains(got, "\033[") {
		t.Errorf("color disabled but escapes present: %q", got)
	}
}

// TestProgressBarRenderColor verifies cyan in progress and green on completion
func TestProgressBarRenderColor(t *testing.T) {
	pb := NewProgressBar(2, 10, true)
	pb.Increment()

	if got := pb.Render(); !strings.Contains(got, "\033[36m") {
		t.Errorf("in-progress Render = %q, want cyan escape", got)
	}

	pb.Increment()
	if got := pb.Render(); !strings.Contains(got, "\033[32m") {
		t.Errorf("complete Render = %q, want green escape", got)
	}
}

// TestProgressBarClamps verifies over-counting and zero totals stay sane
func TestProgressBarClamps(t *testing.T) {
	pb := NewProgressBar(2, 10, false)
	for i := 0; i < 5; i++ {
		pb.Increment()
	}
	if pb.Percentage() != 100 {
		t.Errorf("Percentage = %d, want clamped 100", pb.Percentage())
	}

	empty := NewProgressBar(0, 10, false)
	if empty.Percentage() != 0 {
		t.Errorf("zero-total Percentage = %d, want 0", empty.Percentage())
	}
}

// TestProgressBarConcurrent verifies increments from many workers are counted
func TestProgressBarConcurrent(t *testing.T) {
	pb := NewProgressBar(100, 10, false)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pb.Increment()
		}()
	}
	wg.Wait()

	if pb.Current() != 100 {
		t.Errorf("Current = %d, want 100", pb.Current())
	}
}

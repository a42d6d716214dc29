package monitor

import (
	"testing"
	"time"

	"github.com/oselab/coretop/internal/metrics"
)

func TestSamplerLoopStopsOnDone(t *testing.T) {
	loop := NewSamplerLoop(testState(t), 10*time.Millisecond)
	done := make(chan struct{})
	close(done)

	finished := make(chan struct{})
	go func() {
		loop.Run(done)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after done was closed")
	}
}

func TestSamplerLoopRefreshesState(t *testing.T) {
	if testing.Short() {
		t.Skip("reads live OS counters")
	}

	cpu, err := metrics.NewCPUSampler()
	if err != nil {
		t.Fatalf("NewCPUSampler() error: %v", err)
	}
	state := NewState(cpu, metrics.NewMemorySampler(), metrics.NewProcessTable())

	loop := NewSamplerLoop(state, 50*time.Millisecond)
	loop.MetricsEveryTicks = 1

	done := make(chan struct{})
	go loop.Run(done)

	// Two ticks plus one settled CPU read.
	time.Sleep(700 * time.Millisecond)
	close(done)

	v := state.View()
	if len(v.Processes.Records) == 0 {
		t.Error("process table empty after loop ran")
	}
	if len(v.CPU.GlobalHistory) == 0 {
		t.Error("cpu history empty after loop ran")
	}
	if len(v.Memory.MemoryHistory) == 0 {
		t.Error("memory history empty after loop ran")
	}
}

func TestNewSamplerLoopDefaults(t *testing.T) {
	loop := NewSamplerLoop(testState(t), 0)
	if loop.Tick != 500*time.Millisecond {
		t.Errorf("Tick = %v, want 500ms default", loop.Tick)
	}
	if loop.MetricsEveryTicks != 2 {
		t.Errorf("MetricsEveryTicks = %d, want 2", loop.MetricsEveryTicks)
	}
}

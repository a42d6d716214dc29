package monitor

import (
	"log"
	"time"
)

// SamplerLoop drives the background refresh cadence. The process table is
// replaced every tick; the CPU and memory samplers refresh every
// MetricsEveryTicks ticks. All OS reads, including the CPU settle delay,
// happen outside the critical section; only the final value swap takes
// the lock, so the foreground loop is never stalled behind a slow read.
type SamplerLoop struct {
	State *State

	// Tick is the process-table cadence. CPU and memory refresh every
	// MetricsEveryTicks ticks of it.
	Tick              time.Duration
	MetricsEveryTicks int

	Logger *log.Logger
}

func NewSamplerLoop(state *State, tick time.Duration) *SamplerLoop {
	if tick <= 0 {
		tick = 500 * time.Millisecond
	}
	return &SamplerLoop{
		State:             state,
		Tick:              tick,
		MetricsEveryTicks: 2,
	}
}

// Run blocks until done is closed, which is the only cancellation path.
// It holds nothing externally visible besides the lock, so no drain is
// needed on exit. Run must be called from a dedicated goroutine: the CPU
// settle delay blocks it for hundreds of milliseconds each metrics cycle.
func (l *SamplerLoop) Run(done <-chan struct{}) {
	every := l.MetricsEveryTicks
	if every <= 0 {
		every = 1
	}

	ticker := time.NewTicker(l.Tick)
	defer ticker.Stop()

	for tick := 0; ; tick++ {
		select {
		case <-done:
			return
		case <-ticker.C:
		}

		if records, err := l.State.ProcessTable().Read(); err == nil {
			l.State.ReplaceProcesses(records)
		} else if l.Logger != nil {
			l.Logger.Printf("process refresh failed: %v", err)
		}

		if tick%every != 0 {
			continue
		}

		// Blocking reads, lock not held. The CPU read sleeps off the
		// settle interval here rather than inside the critical section.
		cpuReading, cpuErr := l.State.CPUSampler().Read()
		memReading, memErr := l.State.MemorySampler().Read()
		if cpuErr != nil || memErr != nil {
			if l.Logger != nil {
				l.Logger.Printf("metrics refresh failed: cpu=%v mem=%v", cpuErr, memErr)
			}
			continue
		}
		l.State.ApplyMetrics(cpuReading, memReading)
	}
}

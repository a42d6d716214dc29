package metrics

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
)

// SettleInterval is the minimum gap between two counter reads needed for
// a meaningful usage delta. Read enforces it by sleeping off the remainder.
const SettleInterval = 250 * time.Millisecond

// cpuPercent allows tests to stub counter reads that normally hit the OS.
var cpuPercent = cpu.Percent

// CoreMetric is one logical core's current usage and rolling history.
// The slice index a core occupies in CPUSampler.Cores never changes after
// construction.
type CoreMetric struct {
	Name    string
	Usage   float64
	History *History[float64]
}

// CPUReading is one settled counter read, produced by Read and folded into
// the sampler by Apply.
type CPUReading struct {
	Global  float64
	PerCore []float64
	Taken   time.Time
}

// CPUSampler computes per-core and global usage from delta-based counter
// reads. It is a long-lived handle: the warm baseline from the previous
// read lives in the gopsutil cpu package, and lastRead tracks when that
// baseline was taken. Re-creating the sampler per refresh would discard
// the baseline and yield garbage first readings each cycle.
//
// Read must only ever be called from the sampling goroutine; Apply is
// called under the monitor lock.
type CPUSampler struct {
	Global        float64
	GlobalHistory *History[float64]
	Cores         []CoreMetric

	lastRead time.Time
}

// NewCPUSampler takes an initial baseline reading and fixes the core count.
func NewCPUSampler() (*CPUSampler, error) {
	perCore, err := cpuPercent(0, true)
	if err != nil {
		return nil, fmt.Errorf("failed to read per-core cpu counters: %w", err)
	}
	if _, err := cpuPercent(0, false); err != nil {
		return nil, fmt.Errorf("failed to read global cpu counters: %w", err)
	}

	cores := make([]CoreMetric, len(perCore))
	for i := range cores {
		cores[i] = CoreMetric{
			Name:    fmt.Sprintf("Core %d", i+1),
			History: NewHistory[float64](HistoryDepth),
		}
	}
	return &CPUSampler{
		GlobalHistory: NewHistory[float64](HistoryDepth),
		Cores:         cores,
		lastRead:      time.Now(),
	}, nil
}

func (s *CPUSampler) CoreCount() int {
	return len(s.Cores)
}

// Read re-reads the counters and computes usage deltas against the
// previous read. It blocks until at least SettleInterval has elapsed
// since the last read, so it must not run on a latency-sensitive thread
// and must not be called while holding the monitor lock.
func (s *CPUSampler) Read() (CPUReading, error) {
	if since := time.Since(s.lastRead); since < SettleInterval {
		time.Sleep(SettleInterval - since)
	}

	perCore, err := cpuPercent(0, true)
	if err != nil {
		return CPUReading{}, fmt.Errorf("failed to read per-core cpu counters: %w", err)
	}
	global, err := cpuPercent(0, false)
	if err != nil {
		return CPUReading{}, fmt.Errorf("failed to read global cpu counters: %w", err)
	}
	s.lastRead = time.Now()

	r := CPUReading{PerCore: perCore, Taken: s.lastRead}
	if len(global) > 0 {
		r.Global = global[0]
	}
	return r, nil
}

// Apply folds a reading into the sampler, clamping every usage value to
// [0,100] and appending to the histories. Readings for cores beyond the
// count fixed at construction are dropped; hot-plugged cores are
// unsupported.
func (s *CPUSampler) Apply(r CPUReading) {
	s.Global = clampPercent(r.Global)
	s.GlobalHistory.Push(s.Global)

	for i := range s.Cores {
		if i >= len(r.PerCore) {
			break
		}
		usage := clampPercent(r.PerCore[i])
		s.Cores[i].Usage = usage
		s.Cores[i].History.Push(usage)
	}
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

package metrics

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"
)

// Seams for tests to stub the OS memory counters.
var (
	virtualMemory = mem.VirtualMemory
	swapMemory    = mem.SwapMemory
)

// MemoryReading is one whole-snapshot read of memory and swap, in bytes.
type MemoryReading struct {
	Total     uint64
	Used      uint64
	Available uint64
	SwapTotal uint64
	SwapUsed  uint64
}

// MemorySampler tracks memory and swap usage with rolling percent
// histories. Unlike the CPU sampler it needs no settle delay; a single
// read is a complete snapshot.
type MemorySampler struct {
	TotalMemory     uint64
	UsedMemory      uint64
	AvailableMemory uint64
	MemoryHistory   *History[float64]

	TotalSwap   uint64
	UsedSwap    uint64
	SwapHistory *History[float64]
}

func NewMemorySampler() *MemorySampler {
	return &MemorySampler{
		MemoryHistory: NewHistory[float64](HistoryDepth),
		SwapHistory:   NewHistory[float64](HistoryDepth),
	}
}

// Read fetches total/used/available memory and swap. A host without swap
// configured is not an error: swap fields degrade to zero.
func (s *MemorySampler) Read() (MemoryReading, error) {
	vm, err := virtualMemory()
	if err != nil {
		return MemoryReading{}, fmt.Errorf("failed to read memory counters: %w", err)
	}
	r := MemoryReading{
		Total:     vm.Total,
		Used:      vm.Used,
		Available: vm.Available,
	}
	if sw, err := swapMemory(); err == nil {
		r.SwapTotal = sw.Total
		r.SwapUsed = sw.Used
	}
	return r, nil
}

// Apply folds a reading into the sampler and appends both percentages to
// their histories.
func (s *MemorySampler) Apply(r MemoryReading) {
	s.TotalMemory = r.Total
	s.UsedMemory = r.Used
	s.AvailableMemory = r.Available
	s.TotalSwap = r.SwapTotal
	s.UsedSwap = r.SwapUsed

	s.MemoryHistory.Push(s.CurrentMemoryPercent())
	s.SwapHistory.Push(s.CurrentSwapPercent())
}

// CurrentMemoryPercent is (total - available) / total. Going through
// "available" rather than the raw used counter excludes reclaimable cache
// and buffers, which the raw counter overstates.
func (s *MemorySampler) CurrentMemoryPercent() float64 {
	if s.TotalMemory == 0 {
		return 0
	}
	used := s.TotalMemory - min(s.AvailableMemory, s.TotalMemory)
	return float64(used) / float64(s.TotalMemory) * 100
}

// CurrentSwapPercent is 0 whenever no swap is configured.
func (s *MemorySampler) CurrentSwapPercent() float64 {
	if s.TotalSwap == 0 {
		return 0
	}
	return float64(s.UsedSwap) / float64(s.TotalSwap) * 100
}

func (s *MemorySampler) MemoryUsageText() string {
	used := s.TotalMemory - min(s.AvailableMemory, s.TotalMemory)
	return fmt.Sprintf("Memory: %.1f%% (%.1fGB / %.1fGB)",
		s.CurrentMemoryPercent(), bytesToGB(used), bytesToGB(s.TotalMemory))
}

func (s *MemorySampler) SwapUsageText() string {
	if s.TotalSwap == 0 {
		return "Swap: Not Available"
	}
	return fmt.Sprintf("Swap: %.1f%% (%.1fGB / %.1fGB)",
		s.CurrentSwapPercent(), bytesToGB(s.UsedSwap), bytesToGB(s.TotalSwap))
}

func bytesToGB(b uint64) float64 {
	return float64(b) / 1024 / 1024 / 1024
}

package metrics

import (
	"errors"
	"testing"

	"github.com/shirou/gopsutil/v4/mem"
)

const gb = uint64(1024 * 1024 * 1024)

func TestMemorySamplerPercentUsesAvailable(t *testing.T) {
	s := NewMemorySampler()
	// 16GB total, 4GB available: the raw used counter reporting 14GB must
	// not leak into the percentage.
	s.Apply(MemoryReading{Total: 16 * gb, Used: 14 * gb, Available: 4 * gb})

	if got, want := s.CurrentMemoryPercent(), 75.0; got != want {
		t.Errorf("CurrentMemoryPercent() = %v, want %v", got, want)
	}
	if s.MemoryHistory.Len() != 1 || s.MemoryHistory.At(0) != 75.0 {
		t.Errorf("memory history = %v, want [75]", s.MemoryHistory.Values())
	}
}

func TestMemorySamplerZeroTotals(t *testing.T) {
	tests := []struct {
		name    string
		reading MemoryReading
	}{
		{"No Memory Reported", MemoryReading{}},
		{"No Swap Configured", MemoryReading{Total: 8 * gb, Available: 8 * gb, SwapUsed: 123}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemorySampler()
			s.Apply(tt.reading)
			if got := s.CurrentMemoryPercent(); tt.reading.Total == 0 && got != 0 {
				t.Errorf("CurrentMemoryPercent() = %v, want 0", got)
			}
			// total_swap == 0 defines swap percent as 0 for any used_swap.
			if got := s.CurrentSwapPercent(); got != 0 {
				t.Errorf("CurrentSwapPercent() = %v, want 0", got)
			}
		})
	}
}

func TestMemorySamplerSwapPercent(t *testing.T) {
	s := NewMemorySampler()
	s.Apply(MemoryReading{Total: 8 * gb, Available: 4 * gb, SwapTotal: 2 * gb, SwapUsed: gb})
	if got, want := s.CurrentSwapPercent(), 50.0; got != want {
		t.Errorf("CurrentSwapPercent() = %v, want %v", got, want)
	}
	if s.SwapHistory.Len() != 1 || s.SwapHistory.At(0) != 50.0 {
		t.Errorf("swap history = %v, want [50]", s.SwapHistory.Values())
	}
}

func TestMemorySamplerUsageText(t *testing.T) {
	s := NewMemorySampler()
	s.Apply(MemoryReading{Total: 16 * gb, Available: 4 * gb})
	if got, want := s.MemoryUsageText(), "Memory: 75.0% (12.0GB / 16.0GB)"; got != want {
		t.Errorf("MemoryUsageText() = %q, want %q", got, want)
	}
	if got, want := s.SwapUsageText(), "Swap: Not Available"; got != want {
		t.Errorf("SwapUsageText() = %q, want %q", got, want)
	}

	s.Apply(MemoryReading{Total: 16 * gb, Available: 4 * gb, SwapTotal: 2 * gb, SwapUsed: gb})
	if got, want := s.SwapUsageText(), "Swap: 50.0% (1.0GB / 2.0GB)"; got != want {
		t.Errorf("SwapUsageText() = %q, want %q", got, want)
	}
}

func TestMemorySamplerReadDegradesWithoutSwap(t *testing.T) {
	origVM, origSwap := virtualMemory, swapMemory
	t.Cleanup(func() { virtualMemory, swapMemory = origVM, origSwap })

	virtualMemory = func() (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{Total: 8 * gb, Used: 2 * gb, Available: 6 * gb}, nil
	}
	swapMemory = func() (*mem.SwapMemoryStat, error) {
		return nil, errors.New("swap accounting unavailable")
	}

	s := NewMemorySampler()
	r, err := s.Read()
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if r.SwapTotal != 0 || r.SwapUsed != 0 {
		t.Errorf("swap reading = %d/%d, want 0/0 when swap is unavailable", r.SwapUsed, r.SwapTotal)
	}
	if r.Total != 8*gb {
		t.Errorf("Total = %d, want %d", r.Total, 8*gb)
	}
}

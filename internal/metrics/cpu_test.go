package metrics

import (
	"testing"
	"time"
)

// stubCPUPercent replaces the counter read seam for one test.
func stubCPUPercent(t *testing.T, perCore []float64, global float64) {
	t.Helper()
	orig := cpuPercent
	cpuPercent = func(interval time.Duration, percpu bool) ([]float64, error) {
		if percpu {
			out := make([]float64, len(perCore))
			copy(out, perCore)
			return out, nil
		}
		return []float64{global}, nil
	}
	t.Cleanup(func() { cpuPercent = orig })
}

func TestNewCPUSamplerFixesCoreCount(t *testing.T) {
	stubCPUPercent(t, []float64{1, 2, 3, 4}, 2.5)
	s, err := NewCPUSampler()
	if err != nil {
		t.Fatalf("NewCPUSampler() error: %v", err)
	}
	if s.CoreCount() != 4 {
		t.Errorf("CoreCount() = %d, want 4", s.CoreCount())
	}
	if s.Cores[0].Name != "Core 1" || s.Cores[3].Name != "Core 4" {
		t.Errorf("core names = %q..%q, want Core 1..Core 4", s.Cores[0].Name, s.Cores[3].Name)
	}
}

func TestCPUSamplerReadEnforcesSettle(t *testing.T) {
	stubCPUPercent(t, []float64{10, 20}, 15)
	s, err := NewCPUSampler()
	if err != nil {
		t.Fatalf("NewCPUSampler() error: %v", err)
	}

	start := time.Now()
	r, err := s.Read()
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < SettleInterval {
		t.Errorf("Read() returned after %v, want at least %v between reads", elapsed, SettleInterval)
	}
	if r.Global != 15 {
		t.Errorf("Global = %v, want 15", r.Global)
	}
	if len(r.PerCore) != 2 {
		t.Errorf("len(PerCore) = %d, want 2", len(r.PerCore))
	}
}

func TestCPUSamplerApplyClampsAndAppends(t *testing.T) {
	stubCPUPercent(t, []float64{0, 0}, 0)
	s, err := NewCPUSampler()
	if err != nil {
		t.Fatalf("NewCPUSampler() error: %v", err)
	}

	s.Apply(CPUReading{Global: 120.5, PerCore: []float64{-3, 42}})

	if s.Global != 100 {
		t.Errorf("Global = %v, want clamp to 100", s.Global)
	}
	if s.Cores[0].Usage != 0 {
		t.Errorf("core 0 usage = %v, want clamp to 0", s.Cores[0].Usage)
	}
	if s.Cores[1].Usage != 42 {
		t.Errorf("core 1 usage = %v, want 42", s.Cores[1].Usage)
	}
	if s.GlobalHistory.Len() != 1 || s.GlobalHistory.At(0) != 100 {
		t.Errorf("global history = %v, want [100]", s.GlobalHistory.Values())
	}
	if s.Cores[1].History.Len() != 1 || s.Cores[1].History.At(0) != 42 {
		t.Errorf("core 1 history = %v, want [42]", s.Cores[1].History.Values())
	}
}

func TestCPUSamplerApplyDropsExtraCores(t *testing.T) {
	stubCPUPercent(t, []float64{0, 0}, 0)
	s, err := NewCPUSampler()
	if err != nil {
		t.Fatalf("NewCPUSampler() error: %v", err)
	}

	// A reading with more cores than the count fixed at construction
	// must not grow the core slice.
	s.Apply(CPUReading{Global: 1, PerCore: []float64{1, 2, 3, 4}})
	if s.CoreCount() != 2 {
		t.Errorf("CoreCount() = %d after oversized reading, want 2", s.CoreCount())
	}
}

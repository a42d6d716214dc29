package monitor

import (
	"testing"

	"github.com/oselab/coretop/internal/metrics"
)

func testState(t *testing.T) *State {
	t.Helper()
	cpu := &metrics.CPUSampler{
		GlobalHistory: metrics.NewHistory[float64](metrics.HistoryDepth),
		Cores: []metrics.CoreMetric{
			{Name: "Core 1", History: metrics.NewHistory[float64](metrics.HistoryDepth)},
			{Name: "Core 2", History: metrics.NewHistory[float64](metrics.HistoryDepth)},
		},
	}
	return NewState(cpu, metrics.NewMemorySampler(), metrics.NewProcessTable())
}

func testRecords(n int) []metrics.ProcessRecord {
	records := make([]metrics.ProcessRecord, n)
	for i := range records {
		records[i] = metrics.ProcessRecord{
			PID:      int32(i + 1),
			Name:     "proc",
			MemoryMB: float64(n - i),
			Status:   metrics.StatusRunning,
		}
	}
	return records
}

func TestStateApplyMetricsIsOneTransition(t *testing.T) {
	s := testState(t)
	s.ApplyMetrics(
		metrics.CPUReading{Global: 40, PerCore: []float64{30, 50}},
		metrics.MemoryReading{Total: 8 << 30, Available: 4 << 30},
	)

	v := s.View()
	if v.CPU.Global != 40 {
		t.Errorf("Global = %v, want 40", v.CPU.Global)
	}
	// CPU and memory histories of one cycle land together.
	if len(v.CPU.GlobalHistory) != 1 {
		t.Errorf("cpu history length = %d, want 1", len(v.CPU.GlobalHistory))
	}
	if n := len(v.Memory.MemoryHistory); n == 0 || v.Memory.MemoryHistory[n-1] != 50 {
		t.Errorf("memory history = %v, want it to end with 50", v.Memory.MemoryHistory)
	}
	if v.Memory.MemoryPercent != 50 {
		t.Errorf("MemoryPercent = %v, want 50", v.Memory.MemoryPercent)
	}
}

func TestStateReplaceProcessesReclampsCursor(t *testing.T) {
	s := testState(t)
	s.SetVisibleHeight(5)
	s.ReplaceProcesses(testRecords(10))

	for i := 0; i < 5; i++ {
		s.MoveDown()
	}
	v := s.View()
	if v.Processes.Selected != 5 || v.Processes.ScrollOffset != 1 {
		t.Fatalf("cursor = (%d, %d), want (5, 1)", v.Processes.Selected, v.Processes.ScrollOffset)
	}

	// The list shrinks underneath the cursor; the next view must be valid.
	s.ReplaceProcesses(testRecords(3))
	v = s.View()
	if v.Processes.Selected != 2 {
		t.Errorf("Selected = %d after shrink, want 2", v.Processes.Selected)
	}
	if v.Processes.ScrollOffset != 0 {
		t.Errorf("ScrollOffset = %d after shrink, want 0", v.Processes.ScrollOffset)
	}

	// Empty list pins the cursor to zero.
	s.ReplaceProcesses(nil)
	v = s.View()
	if v.Processes.Selected != 0 || v.Processes.ScrollOffset != 0 {
		t.Errorf("cursor = (%d, %d) on empty list, want (0, 0)",
			v.Processes.Selected, v.Processes.ScrollOffset)
	}
}

func TestStateToggleSortKey(t *testing.T) {
	s := testState(t)
	records := testRecords(3)
	records[2].CPUPercent = 99
	s.ReplaceProcesses(records)

	if v := s.View(); v.Processes.SortKey != metrics.SortByMemory {
		t.Fatalf("default sort = %v, want memory", v.Processes.SortKey)
	}

	s.ToggleSortKey()
	v := s.View()
	if v.Processes.SortKey != metrics.SortByCPU {
		t.Fatalf("sort after toggle = %v, want cpu", v.Processes.SortKey)
	}
	if v.Processes.Records[0].CPUPercent != 99 {
		t.Errorf("top row cpu = %v, want 99", v.Processes.Records[0].CPUPercent)
	}

	s.ToggleSortKey()
	if v := s.View(); v.Processes.SortKey != metrics.SortByMemory {
		t.Errorf("sort after second toggle = %v, want memory", v.Processes.SortKey)
	}
}

func TestStateViewIsACopy(t *testing.T) {
	s := testState(t)
	s.ReplaceProcesses(testRecords(4))
	s.ApplyMetrics(
		metrics.CPUReading{Global: 10, PerCore: []float64{10, 10}},
		metrics.MemoryReading{Total: 1 << 30, Available: 1 << 29},
	)

	v := s.View()
	v.Processes.Records[0].Name = "mutated"
	v.CPU.GlobalHistory[0] = -1
	v.CPU.Cores[0].History[0] = -1

	fresh := s.View()
	if fresh.Processes.Records[0].Name == "mutated" {
		t.Error("mutating a view's records leaked into shared state")
	}
	if fresh.CPU.GlobalHistory[0] == -1 || fresh.CPU.Cores[0].History[0] == -1 {
		t.Error("mutating a view's histories leaked into shared state")
	}
}

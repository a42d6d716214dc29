package monitor

import (
	"sync"

	"github.com/oselab/coretop/internal/metrics"
)

// State is the single shared mutable resource of the monitor. The sampler
// loop and the foreground input loop both hold a reference to one State
// and take the exclusive lock for every access; there is no reader/writer
// distinction. Nothing locked here escapes a critical section: readers get
// copies via View.
type State struct {
	mu sync.Mutex

	cpu    *metrics.CPUSampler
	memory *metrics.MemorySampler
	procs  *metrics.ProcessTable
	cursor Cursor
}

// NewState wires the samplers into one shared state and folds in an
// initial sample of each so the first render is non-empty.
func NewState(cpu *metrics.CPUSampler, memory *metrics.MemorySampler, procs *metrics.ProcessTable) *State {
	s := &State{cpu: cpu, memory: memory, procs: procs}

	if r, err := memory.Read(); err == nil {
		memory.Apply(r)
	}
	if records, err := procs.Read(); err == nil {
		procs.Replace(records)
	}
	s.cursor.Resize(procs.Len(), 0)
	return s
}

// CPUSampler exposes the long-lived sampler handle for the sampling
// goroutine's unlocked Read calls. Only that goroutine may use it.
func (s *State) CPUSampler() *metrics.CPUSampler {
	return s.cpu
}

func (s *State) MemorySampler() *metrics.MemorySampler {
	return s.memory
}

func (s *State) ProcessTable() *metrics.ProcessTable {
	return s.procs
}

// ApplyMetrics commits one CPU reading and one memory reading as a single
// atomic transition: a reader never observes the CPU histories updated
// without the memory histories of the same cycle.
func (s *State) ApplyMetrics(cpu metrics.CPUReading, mem metrics.MemoryReading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cpu.Apply(cpu)
	s.memory.Apply(mem)
}

// ReplaceProcesses swaps in a wholesale new process list, re-sorts it, and
// re-clamps the cursor, all under one lock so the list and cursor stay
// consistent.
func (s *State) ReplaceProcesses(records []metrics.ProcessRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.procs.Replace(records)
	s.cursor.Resize(s.procs.Len(), s.cursor.VisibleHeight())
}

func (s *State) MoveDown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.MoveDown()
}

func (s *State) MoveUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.MoveUp()
}

// SetVisibleHeight records how many process rows fit on screen and
// re-clamps the cursor for the new window.
func (s *State) SetVisibleHeight(h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.Resize(s.procs.Len(), h)
}

// SetSortKey re-sorts the table and re-clamps the cursor; positions, not
// identities, are tracked, so the selection keeps its place on screen.
func (s *State) SetSortKey(key metrics.SortKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.procs.Sort(key)
	s.cursor.Resize(s.procs.Len(), s.cursor.VisibleHeight())
}

func (s *State) ToggleSortKey() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.procs.Key == metrics.SortByMemory {
		s.procs.Sort(metrics.SortByCPU)
	} else {
		s.procs.Sort(metrics.SortByMemory)
	}
	s.cursor.Resize(s.procs.Len(), s.cursor.VisibleHeight())
}

// CoreView is a render-ready copy of one core's usage and history.
type CoreView struct {
	Name    string
	Usage   float64
	History []float64
}

type CPUView struct {
	Global        float64
	GlobalHistory []float64
	Cores         []CoreView
}

type MemoryView struct {
	TotalMemory   uint64
	UsedMemory    uint64
	MemoryPercent float64
	MemoryHistory []float64
	MemoryText    string

	TotalSwap   uint64
	UsedSwap    uint64
	SwapPercent float64
	SwapHistory []float64
	SwapText    string
}

type ProcessView struct {
	Records      []metrics.ProcessRecord
	SortKey      metrics.SortKey
	Selected     int
	ScrollOffset int
}

// View is an immutable per-frame copy of the whole monitor state.
type View struct {
	CPU       CPUView
	Memory    MemoryView
	Processes ProcessView
}

// View copies the current state out under the lock. The presentation
// layer renders from the copy and must not retain it past the frame; it
// never touches locked data directly.
func (s *State) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	cores := make([]CoreView, len(s.cpu.Cores))
	for i, c := range s.cpu.Cores {
		cores[i] = CoreView{Name: c.Name, Usage: c.Usage, History: c.History.Values()}
	}

	records := make([]metrics.ProcessRecord, len(s.procs.Records))
	copy(records, s.procs.Records)

	return View{
		CPU: CPUView{
			Global:        s.cpu.Global,
			GlobalHistory: s.cpu.GlobalHistory.Values(),
			Cores:         cores,
		},
		Memory: MemoryView{
			TotalMemory:   s.memory.TotalMemory,
			UsedMemory:    s.memory.TotalMemory - min(s.memory.AvailableMemory, s.memory.TotalMemory),
			MemoryPercent: s.memory.CurrentMemoryPercent(),
			MemoryHistory: s.memory.MemoryHistory.Values(),
			MemoryText:    s.memory.MemoryUsageText(),
			TotalSwap:     s.memory.TotalSwap,
			UsedSwap:      s.memory.UsedSwap,
			SwapPercent:   s.memory.CurrentSwapPercent(),
			SwapHistory:   s.memory.SwapHistory.Values(),
			SwapText:      s.memory.SwapUsageText(),
		},
		Processes: ProcessView{
			Records:      records,
			SortKey:      s.procs.Key,
			Selected:     s.cursor.Selected,
			ScrollOffset: s.cursor.ScrollOffset,
		},
	}
}

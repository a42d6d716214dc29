package metrics

import (
	"sort"

	"github.com/shirou/gopsutil/v4/process"
)

// listProcesses allows tests to stub the process walk.
var listProcesses = process.Processes

// ProcStatus is the scheduler state of a process, reduced to the handful
// of words the dashboard displays.
type ProcStatus string

const (
	StatusRunning  ProcStatus = "Running"
	StatusSleeping ProcStatus = "Sleeping"
	StatusIdle     ProcStatus = "Idle"
	StatusZombie   ProcStatus = "Zombie"
	StatusDead     ProcStatus = "Dead"
	StatusStopped  ProcStatus = "Stopped"
	StatusUnknown  ProcStatus = "Unknown"
)

// ProcessRecord is one row of the process table. ParentPID is 0 when the
// process has no visible parent.
type ProcessRecord struct {
	PID        int32
	Name       string
	CPUPercent float64
	MemoryMB   float64
	Status     ProcStatus
	ParentPID  int32
}

// SortKey selects the process table ordering.
type SortKey int

const (
	SortByMemory SortKey = iota
	SortByCPU
)

func (k SortKey) String() string {
	if k == SortByCPU {
		return "CPU"
	}
	return "MEM"
}

// ProcessTable holds the current process-list snapshot. Each refresh
// replaces the whole list; rows carry no identity across refreshes, so
// the selection cursor tracks positions and is re-clamped by the caller
// after every replacement.
type ProcessTable struct {
	Records []ProcessRecord
	Key     SortKey
}

func NewProcessTable() *ProcessTable {
	return &ProcessTable{Key: SortByMemory}
}

// Read walks the full process table. Processes that vanish mid-walk are
// skipped rather than failing the refresh.
func (t *ProcessTable) Read() ([]ProcessRecord, error) {
	procs, err := listProcesses()
	if err != nil {
		return nil, err
	}

	records := make([]ProcessRecord, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		rec := ProcessRecord{PID: p.Pid, Name: name, Status: StatusUnknown}
		if cpu, err := p.CPUPercent(); err == nil {
			rec.CPUPercent = cpu
		}
		if mi, err := p.MemoryInfo(); err == nil && mi != nil {
			rec.MemoryMB = float64(mi.RSS) / 1024 / 1024
		}
		if status, err := p.Status(); err == nil {
			rec.Status = statusFrom(status)
		}
		if ppid, err := p.Ppid(); err == nil {
			rec.ParentPID = ppid
		}
		records = append(records, rec)
	}
	return records, nil
}

// Replace swaps in a wholesale new list and re-applies the current sort.
func (t *ProcessTable) Replace(records []ProcessRecord) {
	t.Records = records
	t.Sort(t.Key)
}

// Sort orders the table by the given key, descending. The sort is stable
// so two refreshes over an unchanged process set produce identical output.
func (t *ProcessTable) Sort(key SortKey) {
	t.Key = key
	switch key {
	case SortByCPU:
		sort.SliceStable(t.Records, func(i, j int) bool {
			return t.Records[i].CPUPercent > t.Records[j].CPUPercent
		})
	default:
		sort.SliceStable(t.Records, func(i, j int) bool {
			return t.Records[i].MemoryMB > t.Records[j].MemoryMB
		})
	}
}

func (t *ProcessTable) Len() int {
	return len(t.Records)
}

func statusFrom(status []string) ProcStatus {
	if len(status) == 0 {
		return StatusUnknown
	}
	switch status[0] {
	case process.Running:
		return StatusRunning
	case process.Sleep:
		return StatusSleeping
	case process.Idle:
		return StatusIdle
	case process.Zombie:
		return StatusZombie
	case process.Stop:
		return StatusStopped
	case "dead":
		return StatusDead
	default:
		return StatusUnknown
	}
}

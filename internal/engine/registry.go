package engine

import (
	"fmt"
	"time"

	"github.com/me/cpusched/pkg/model"
)

// Registry is the ordered set of processes of one run. Its order is fixed
// when it is created and never changes afterwards.
type Registry struct {
	algorithm model.Algorithm
	procs     []*Process // dispatch order
	byName    map[string]*Process
	traceOrd  []*Process
}

// NewRegistry validates specs, derives each process's priority key for alg,
// sorts by it and assigns quantums.
func NewRegistry(specs []model.ProcessSpec, alg model.Algorithm, cfg Config) (*Registry, error) {
	if !alg.IsValid() {
		return nil, model.NewConfigError(model.ErrUnknownAlgorithm,
			fmt.Sprintf("unknown scheduling algorithm '%s'", alg))
	}
	if err := ValidateSpecs(specs, cfg.MaxProcesses, cfg.MaxNameLength); err != nil {
		return nil, err
	}

	r := &Registry{
		algorithm: alg,
		byName:    make(map[string]*Process, len(specs)),
	}
	for i, spec := range specs {
		p := newProcess(spec, i, alg, cfg)
		r.traceOrd = append(r.traceOrd, p)
		r.byName[spec.Name] = p
	}

	r.procs = SortByPriority(append([]*Process(nil), r.traceOrd...))

	switch alg {
	case model.AlgorithmRoundRobin:
		for _, p := range r.procs {
			p.baseQuantum = cfg.RoundRobinQuantum
		}
	case model.AlgorithmPriority:
		// Farthest deadline gets the smallest quantum; quantums grow toward
		// the front of the order.
		q := cfg.PriorityStartQuantum
		for i := len(r.procs) - 1; i >= 0; i-- {
			r.procs[i].baseQuantum = q
			q += cfg.PriorityQuantumIncrement
		}
	}
	return r, nil
}

// ValidateSpecs checks process count, name lengths, duplicate names and that
// all times are positive. Start time may be zero.
func ValidateSpecs(specs []model.ProcessSpec, maxProcesses, maxNameLength int) error {
	if len(specs) == 0 {
		return model.NewConfigError(model.ErrNoProcesses, "trace contains no processes")
	}
	if maxProcesses > 0 && len(specs) > maxProcesses {
		return model.NewConfigError(model.ErrTooManyProcesses,
			fmt.Sprintf("trace has %d processes, limit is %d", len(specs), maxProcesses))
	}

	// Over-long names are a limit violation with their own code, reported
	// ahead of field errors like the other limits.
	if maxNameLength > 0 {
		var long []model.FieldError
		for i, s := range specs {
			if len(s.Name) > maxNameLength {
				long = append(long, model.FieldError{
					Field:   fmt.Sprintf("processes[%d].name", i),
					Message: fmt.Sprintf("'%s' exceeds %d bytes", s.Name, maxNameLength),
				})
			}
		}
		if len(long) > 0 {
			return model.NewConfigError(model.ErrNameTooLong,
				fmt.Sprintf("%d process names exceed %d bytes", len(long), maxNameLength), long...)
		}
	}

	var details []model.FieldError
	seen := make(map[string]bool, len(specs))
	for i, s := range specs {
		field := fmt.Sprintf("processes[%d]", i)
		if s.Name == "" {
			details = append(details, model.FieldError{Field: field + ".name", Message: "is required"})
		}
		if s.Name != "" && seen[s.Name] {
			details = append(details, model.FieldError{Field: field + ".name", Message: "duplicate name " + s.Name})
		}
		seen[s.Name] = true
		if s.Deadline <= 0 {
			details = append(details, model.FieldError{Field: field + ".deadline", Message: "must be positive"})
		}
		if s.StartTime < 0 {
			details = append(details, model.FieldError{Field: field + ".start_time", Message: "must not be negative"})
		}
		if s.BurstTime <= 0 {
			details = append(details, model.FieldError{Field: field + ".burst_time", Message: "must be positive"})
		}
	}
	if len(details) > 0 {
		return model.NewConfigError(model.ErrInvalidTrace, "invalid process set", details...)
	}
	return nil
}

// PriorityKey returns the sort key of spec under alg: burst time for SJF,
// deadline for Priority and start time for Round-Robin.
func PriorityKey(spec model.ProcessSpec, alg model.Algorithm) int {
	switch alg {
	case model.AlgorithmSJF:
		return spec.BurstTime
	case model.AlgorithmPriority:
		return spec.Deadline
	default:
		return spec.StartTime
	}
}

// SortByPriority orders processes by ascending priority with a top-down merge
// sort. Equal keys keep their input order. The slice is sorted in place and
// returned.
func SortByPriority(procs []*Process) []*Process {
	if len(procs) < 2 {
		return procs
	}
	buf := make([]*Process, len(procs))
	mergeSort(procs, buf, func(a, b *Process) bool { return a.priority < b.priority })
	return procs
}

func mergeSort[T any](s, buf []T, less func(a, b T) bool) {
	if len(s) < 2 {
		return
	}
	mid := len(s) / 2
	mergeSort(s[:mid], buf[:mid], less)
	mergeSort(s[mid:], buf[mid:], less)

	copy(buf, s)
	i, j, k := 0, mid, 0
	for i < mid && j < len(s) {
		// Take from the right half only when strictly smaller.
		if less(buf[j], buf[i]) {
			s[k] = buf[j]
			j++
		} else {
			s[k] = buf[i]
			i++
		}
		k++
	}
	for i < mid {
		s[k] = buf[i]
		i++
		k++
	}
	for j < len(s) {
		s[k] = buf[j]
		j++
		k++
	}
}

// Algorithm returns the algorithm the registry was ordered for.
func (r *Registry) Algorithm() model.Algorithm { return r.algorithm }

// Len returns the number of processes.
func (r *Registry) Len() int { return len(r.procs) }

// Processes returns the processes in dispatch order. The slice must not be
// modified.
func (r *Registry) Processes() []*Process { return r.procs }

// Get looks up a process by name.
func (r *Registry) Get(name string) (*Process, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Snapshot returns a read-only view of every process in trace order. It is
// safe to call while a run is in flight.
func (r *Registry) Snapshot() []model.ProcessSnapshot {
	out := make([]model.ProcessSnapshot, 0, len(r.traceOrd))
	for _, p := range r.traceOrd {
		out = append(out, p.Snapshot())
	}
	return out
}

// Results returns the outcome of every process in trace order.
func (r *Registry) Results() []model.ProcessResult {
	out := make([]model.ProcessResult, 0, len(r.traceOrd))
	for _, p := range r.traceOrd {
		out = append(out, p.Result())
	}
	return out
}

// earliestPendingStart returns the smallest start offset among processes
// still WAITING, or false if there is none.
func (r *Registry) earliestPendingStart(unit time.Duration) (time.Duration, bool) {
	var (
		best  time.Duration
		found bool
	)
	for _, p := range r.procs {
		if p.State() != model.ProcessStateWaiting {
			continue
		}
		at := time.Duration(p.spec.StartTime) * unit
		if !found || at < best {
			best, found = at, true
		}
	}
	return best, found
}

func (r *Registry) allTerminal() bool {
	for _, p := range r.procs {
		if !p.State().IsTerminal() {
			return false
		}
	}
	return true
}

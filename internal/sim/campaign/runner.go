package campaign

import "fmt"

// Runners replace the original engine's named coroutines with explicit
// state machines: the simulation loop calls Tick once per step until
// the runner reports it is done. Cancellation is the caller ceasing to
// tick, or the runner's own liveness predicates failing.

type RunnerStatus int

const (
	RunnerRunning RunnerStatus = iota
	RunnerDone
	RunnerFailed
)

type Runner interface {
	Tick(dt float64) RunnerStatus
}

// RunnerSet holds the named runners in flight. Names are a
// mutual-exclusion key: starting a second runner under a running name
// is a protocol violation.
type RunnerSet struct {
	running map[string]Runner
}

func NewRunnerSet() *RunnerSet {
	return &RunnerSet{running: make(map[string]Runner)}
}

func (s *RunnerSet) IsRunning(name string) bool {
	_, ok := s.running[name]
	return ok
}

func (s *RunnerSet) Start(name string, r Runner) error {
	if _, ok := s.running[name]; ok {
		return fmt.Errorf("runner %q already in flight", name)
	}
	s.running[name] = r
	return nil
}

// Tick steps every runner and drops the finished ones.
func (s *RunnerSet) Tick(dt float64) {
	for name, r := range s.running {
		if r.Tick(dt) != RunnerRunning {
			delete(s.running, name)
		}
	}
}

// RunnerFunc adapts a bare step function.
type RunnerFunc func(dt float64) RunnerStatus

func (f RunnerFunc) Tick(dt float64) RunnerStatus { return f(dt) }

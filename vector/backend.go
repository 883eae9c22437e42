package vector

import (
	"github.com/zeu5/vecenv/types"
)

// Backend drives one EnvPool, or a remote equivalent, behind an
// asynchronous two-call protocol: AsyncResetAll and Send schedule a unit
// of work and return immediately, Recv blocks until the most recently
// scheduled unit completes and returns its result. At most one scheduled
// unit may be outstanding per backend; each variant documents what happens
// if a second is scheduled before the first is drained. Seed, PutAll,
// GetAll and ProfileAll are synchronous and must not be called while a
// unit is outstanding. Close tears the worker down and must be called at
// most once.
type Backend interface {
	AsyncResetAll(seed ...int64)
	Send(actions []*types.Actions)
	Recv() []*types.StepResult
	Seed(seed int64)
	PutAll(key string, value any)
	GetAll(key string) []any
	ProfileAll() []Profile
	Close()
}

// BackendConstructor builds one backend owning n environment instances.
type BackendConstructor func(binding types.Binding, n int) Backend

// Sequential executes every scheduled unit synchronously on the calling
// goroutine and buffers the result behind a single slot that Recv drains.
// Scheduling a second unit before draining the first panics.
type Sequential struct {
	pool    *EnvPool
	pending []*types.StepResult
}

var _ Backend = &Sequential{}

// NewSequential is a BackendConstructor for the in-process variant.
func NewSequential(binding types.Binding, n int) Backend {
	return &Sequential{pool: NewEnvPool(binding.Creator, n)}
}

func (s *Sequential) AsyncResetAll(seed ...int64) {
	if s.pending != nil {
		panic("vector: reset scheduled before the previous result was drained")
	}
	s.pending = s.pool.ResetAll(seed...)
}

func (s *Sequential) Send(actions []*types.Actions) {
	if s.pending != nil {
		panic("vector: send scheduled before the previous result was drained")
	}
	s.pending = s.pool.Step(actions)
}

func (s *Sequential) Recv() []*types.StepResult {
	if s.pending == nil {
		panic("vector: recv without a scheduled reset or step")
	}
	out := s.pending
	s.pending = nil
	return out
}

func (s *Sequential) Seed(seed int64) { s.pool.Seed(seed) }

func (s *Sequential) PutAll(key string, value any) { s.pool.PutAll(key, value) }

func (s *Sequential) GetAll(key string) []any { return s.pool.GetAll(key) }

func (s *Sequential) ProfileAll() []Profile { return s.pool.ProfileAll() }

func (s *Sequential) Close() { s.pool.Close() }

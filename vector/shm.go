package vector

import (
	"fmt"

	"github.com/zeu5/vecenv/types"
	"github.com/zeu5/vecenv/util"
)

// shmHeader crosses the egress channel in place of full step results. It
// carries everything except observation payloads, which the worker has
// already written into the shared buffer. Receiving the header on the
// channel is what orders the worker's buffer writes before the reader's
// access: the worker commits every row it claims valid before sending.
type shmHeader struct {
	validRows int
	envs      []shmEnvHeader
}

type shmEnvHeader struct {
	keys    []string
	rewards []float64
	dones   []bool
	info    map[string]any
}

// Shm is the Queue worker loop with a shared-memory fast path for the
// step/recv cycle: observation rows go straight into a pre-sized buffer
// owned by the backend and only a small header crosses the egress
// channel. Recv returns results whose observation vectors alias the
// buffer; they stay valid only until the next scheduled step completes.
// All non-step methods use the message path. Exactly one writer (the
// worker) and one reader (the caller) touch the buffer, ordered by header
// delivery.
type Shm struct {
	ingress chan workerMsg
	egress  chan any
	done    chan struct{}

	buf     []float64
	rowSize int
}

var _ Backend = &Shm{}

// NewShm allocates the shared buffer, sized for envsPerWorker times the
// agent bound rows of single observations, and spawns the worker
// goroutine. The environment factory runs inside the worker.
func NewShm(binding types.Binding, n int) Backend {
	rowSize := binding.SingleObservationSpace.Size()
	rows := n * binding.MaxAgents
	if rowSize < 1 || rows < 1 {
		panic(fmt.Sprintf("vector: cannot size shared buffer for %d rows of %d elements", rows, rowSize))
	}
	s := &Shm{
		ingress: make(chan workerMsg, msgBacklog),
		egress:  make(chan any, msgBacklog),
		done:    make(chan struct{}),
		buf:     make([]float64, rows*rowSize),
		rowSize: rowSize,
	}
	go s.work(binding.Creator, n)
	return s
}

func (s *Shm) work(creator types.EnvCreator, n int) {
	defer close(s.done)
	pool := NewEnvPool(creator, n)
	for msg := range s.ingress {
		switch m := msg.(type) {
		case seedMsg:
			pool.Seed(m.seed)
		case resetMsg:
			s.egress <- pool.ResetAll(m.seed...)
		case stepMsg:
			s.egress <- s.publish(pool.Step(m.actions))
		case putMsg:
			pool.PutAll(m.key, m.value)
		case getMsg:
			s.egress <- pool.GetAll(m.key)
		case profileMsg:
			s.egress <- pool.ProfileAll()
		case terminateMsg:
			pool.Close()
			return
		}
	}
}

// publish copies every observation row into the shared buffer and builds
// the header. All rows are committed before the header leaves the worker.
func (s *Shm) publish(results []*types.StepResult) shmHeader {
	h := shmHeader{envs: make([]shmEnvHeader, len(results))}
	row := 0
	for i, r := range results {
		keys := r.Obs.Keys()
		for _, k := range keys {
			obs, _ := r.Obs.Get(k)
			copy(s.buf[row*s.rowSize:(row+1)*s.rowSize], obs)
			row++
		}
		h.envs[i] = shmEnvHeader{
			keys:    keys,
			rewards: r.Rewards.Values(),
			dones:   r.Dones.Values(),
			info:    r.Info,
		}
	}
	h.validRows = row
	return h
}

// view rebuilds per-environment results over the buffer without copying
// observation data.
func (s *Shm) view(h shmHeader) []*types.StepResult {
	out := make([]*types.StepResult, len(h.envs))
	row := 0
	for i, e := range h.envs {
		obs := util.NewOrderedMap[[]float64]()
		rewards := util.NewOrderedMap[float64]()
		dones := util.NewOrderedMap[bool]()
		for j, k := range e.keys {
			obs.Set(k, s.buf[row*s.rowSize:(row+1)*s.rowSize])
			rewards.Set(k, e.rewards[j])
			dones.Set(k, e.dones[j])
			row++
		}
		out[i] = &types.StepResult{Obs: obs, Rewards: rewards, Dones: dones, Info: e.info}
	}
	if row != h.validRows {
		panic(fmt.Sprintf("vector: shared buffer header claims %d rows, keys account for %d", h.validRows, row))
	}
	return out
}

func (s *Shm) AsyncResetAll(seed ...int64) {
	s.ingress <- resetMsg{seed: seed}
}

func (s *Shm) Send(actions []*types.Actions) {
	s.ingress <- stepMsg{actions: actions}
}

func (s *Shm) Recv() []*types.StepResult {
	switch r := (<-s.egress).(type) {
	case []*types.StepResult:
		return r
	case shmHeader:
		return s.view(r)
	default:
		panic(fmt.Sprintf("vector: unexpected egress message %T", r))
	}
}

func (s *Shm) Seed(seed int64) {
	s.ingress <- seedMsg{seed: seed}
}

func (s *Shm) PutAll(key string, value any) {
	s.ingress <- putMsg{key: key, value: value}
}

func (s *Shm) GetAll(key string) []any {
	s.ingress <- getMsg{key: key}
	return (<-s.egress).([]any)
}

func (s *Shm) ProfileAll() []Profile {
	s.ingress <- profileMsg{}
	return (<-s.egress).([]Profile)
}

// Close tears the worker down and waits for it to exit, which releases
// the pool before the buffer becomes unreachable. A second Close panics.
func (s *Shm) Close() {
	s.ingress <- terminateMsg{}
	<-s.done
	close(s.ingress)
}

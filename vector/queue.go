package vector

import (
	"github.com/zeu5/vecenv/types"
)

// Messages exchanged with a worker goroutine. The set is closed and the
// worker dispatches by exhaustive type switch; there is no way to invoke
// anything outside it.
type workerMsg interface{ workerMsg() }

type seedMsg struct{ seed int64 }

type resetMsg struct{ seed []int64 }

type stepMsg struct{ actions []*types.Actions }

type putMsg struct {
	key   string
	value any
}

type getMsg struct{ key string }

type profileMsg struct{}

// terminateMsg is the only sanctioned teardown path: the worker closes its
// pool, releases what it owns and exits the loop.
type terminateMsg struct{}

func (seedMsg) workerMsg()      {}
func (resetMsg) workerMsg()     {}
func (stepMsg) workerMsg()      {}
func (putMsg) workerMsg()       {}
func (getMsg) workerMsg()       {}
func (profileMsg) workerMsg()   {}
func (terminateMsg) workerMsg() {}

// The protocol allows one outstanding scheduled unit plus a handful of
// fire-and-forget messages, so a small fixed capacity never blocks a
// sender. This depends on the one-outstanding-unit contract: a caller
// that keeps scheduling without draining would eventually block on the
// ingress channel instead of queueing without bound.
const msgBacklog = 16

// Queue runs one long-lived worker goroutine that owns an EnvPool.
// Requests travel over the ingress channel as tagged messages; results
// come back over the egress channel and Recv blocks on it with no
// timeout. Scheduling a second unit before draining the first queues it
// behind the first: the next Recv returns the older result.
type Queue struct {
	ingress chan workerMsg
	egress  chan any
	done    chan struct{}
}

var _ Backend = &Queue{}

// NewQueue spawns the worker goroutine. The environment factory runs
// inside the worker, never on the caller's goroutine.
func NewQueue(binding types.Binding, n int) Backend {
	q := &Queue{
		ingress: make(chan workerMsg, msgBacklog),
		egress:  make(chan any, msgBacklog),
		done:    make(chan struct{}),
	}
	go q.work(binding.Creator, n)
	return q
}

func (q *Queue) work(creator types.EnvCreator, n int) {
	defer close(q.done)
	pool := NewEnvPool(creator, n)
	for msg := range q.ingress {
		switch m := msg.(type) {
		case seedMsg:
			pool.Seed(m.seed)
		case resetMsg:
			q.egress <- pool.ResetAll(m.seed...)
		case stepMsg:
			q.egress <- pool.Step(m.actions)
		case putMsg:
			pool.PutAll(m.key, m.value)
		case getMsg:
			q.egress <- pool.GetAll(m.key)
		case profileMsg:
			q.egress <- pool.ProfileAll()
		case terminateMsg:
			pool.Close()
			return
		}
	}
}

func (q *Queue) AsyncResetAll(seed ...int64) {
	q.ingress <- resetMsg{seed: seed}
}

func (q *Queue) Send(actions []*types.Actions) {
	q.ingress <- stepMsg{actions: actions}
}

func (q *Queue) Recv() []*types.StepResult {
	return (<-q.egress).([]*types.StepResult)
}

func (q *Queue) Seed(seed int64) {
	q.ingress <- seedMsg{seed: seed}
}

func (q *Queue) PutAll(key string, value any) {
	q.ingress <- putMsg{key: key, value: value}
}

func (q *Queue) GetAll(key string) []any {
	q.ingress <- getMsg{key: key}
	return (<-q.egress).([]any)
}

func (q *Queue) ProfileAll() []Profile {
	q.ingress <- profileMsg{}
	return (<-q.egress).([]Profile)
}

// Close tears the worker down and waits for it to exit. A second Close
// panics on the closed ingress channel.
func (q *Queue) Close() {
	q.ingress <- terminateMsg{}
	<-q.done
	close(q.ingress)
}

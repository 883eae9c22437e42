package vector

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/zeu5/vecenv/types"
	"github.com/zeu5/vecenv/util"
)

// Call-order states of a VecEnv.
type fsmState int

const (
	stateReset fsmState = iota
	stateRecv
	stateSend
)

func (s fsmState) String() string {
	switch s {
	case stateReset:
		return "reset"
	case stateRecv:
		return "recv"
	case stateSend:
		return "send"
	}
	return fmt.Sprintf("fsmState(%d)", int(s))
}

// StateError reports an operation called out of protocol order. The legal
// order is AsyncReset, then Recv, then alternating Send and Recv.
type StateError struct {
	Op    string
	State fsmState
}

func (e *StateError) Error() string {
	return fmt.Sprintf("vector: %s called in state %s", e.Op, e.State)
}

// VecEnv batches many environment instances behind one flat stepping
// interface. It owns a fixed set of worker backends, each holding a
// contiguous shard of envsPerWorker instances, enforces the call-order
// state machine and reassembles per-worker results into worker-major flat
// batches. The agent-key order recorded by each Recv is the ledger the
// next Send uses to route action rows back to agents.
type VecEnv struct {
	binding       types.Binding
	numWorkers    int
	envsPerWorker int

	state    fsmState
	backends []Backend
	// ledger: worker -> environment slot -> agent keys from the last Recv
	agentKeys [][][]string
}

// NewVecEnv constructs the orchestrator and its workers. Worker count and
// shard size are fixed for the lifetime of the value; only Close ends it.
func NewVecEnv(binding types.Binding, constructor BackendConstructor, numWorkers, envsPerWorker int) (*VecEnv, error) {
	if numWorkers < 1 {
		return nil, fmt.Errorf("vector: worker count must be positive, got %d", numWorkers)
	}
	if envsPerWorker < 1 {
		return nil, fmt.Errorf("vector: each worker must own at least one environment, got %d", envsPerWorker)
	}

	backends := make([]Backend, numWorkers)
	for i := range backends {
		backends[i] = constructor(binding, envsPerWorker)
	}
	agentKeys := make([][][]string, numWorkers)
	for i := range agentKeys {
		agentKeys[i] = make([][]string, envsPerWorker)
	}

	return &VecEnv{
		binding:       binding,
		numWorkers:    numWorkers,
		envsPerWorker: envsPerWorker,
		state:         stateReset,
		backends:      backends,
		agentKeys:     agentKeys,
	}, nil
}

// SingleObservationSpace is the caller-supplied observation descriptor.
func (v *VecEnv) SingleObservationSpace() types.Space {
	return v.binding.SingleObservationSpace
}

// SingleActionSpace is the caller-supplied action descriptor.
func (v *VecEnv) SingleActionSpace() types.Space {
	return v.binding.SingleActionSpace
}

// AsyncReset schedules a reset on every worker. Call exactly once, before
// any Send. Per-worker seeds are offset by envsPerWorker times the agent
// bound so no two environments ever share a seed range.
func (v *VecEnv) AsyncReset(seed ...int64) error {
	if v.state != stateReset {
		return &StateError{Op: "AsyncReset", State: v.state}
	}
	v.state = stateRecv

	for i, b := range v.backends {
		if len(seed) > 0 {
			b.AsyncResetAll(seed[0] + int64(i*v.envsPerWorker*v.binding.MaxAgents))
		} else {
			b.AsyncResetAll()
		}
	}
	return nil
}

// Recv collects the most recently scheduled unit from every worker in
// ascending worker order and stacks it into one flat batch. Row order is
// worker-major, then environment slot, then agent-key order as reported.
// The agent keys of every result are recorded for the next Send. Recv
// blocks until every worker responds; there is no timeout.
func (v *VecEnv) Recv() (*mat.Dense, []float64, []bool, []map[string]any, error) {
	if v.state != stateRecv {
		return nil, nil, nil, nil, &StateError{Op: "Recv", State: v.state}
	}
	v.state = stateSend

	obsSize := v.binding.SingleObservationSpace.Size()
	var (
		obsData []float64
		rewards []float64
		dones   []bool
		infos   []map[string]any
	)
	rows := 0
	for w, b := range v.backends {
		results := b.Recv()
		for e, r := range results {
			keys := r.Obs.Keys()
			v.agentKeys[w][e] = keys
			for _, k := range keys {
				o, _ := r.Obs.Get(k)
				obsData = append(obsData, o...)
				rows++
			}
			rewards = append(rewards, r.Rewards.Values()...)
			dones = append(dones, r.Dones.Values()...)
			infos = append(infos, r.Info)
		}
	}

	obs := mat.NewDense(rows, obsSize, obsData)
	return obs, rewards, dones, infos, nil
}

// Send splits the flat action batch across workers and environment slots
// and zips the rows onto the agent keys recorded by the last Recv. The
// batch must carry one row per agent reported by that Recv, in the same
// order; if the agent population changed in between, actions are
// misrouted silently. envID is reserved and currently ignored.
func (v *VecEnv) Send(actions *mat.Dense, envID ...int) error {
	if v.state != stateSend {
		return &StateError{Op: "Send", State: v.state}
	}
	v.state = stateRecv
	_ = envID

	row := 0
	for w, b := range v.backends {
		batch := make([]*types.Actions, v.envsPerWorker)
		for e := 0; e < v.envsPerWorker; e++ {
			m := util.NewOrderedMap[[]float64]()
			for _, k := range v.agentKeys[w][e] {
				m.Set(k, actions.RawRowView(row))
				row++
			}
			batch[e] = m
		}
		b.Send(batch)
	}
	return nil
}

// Reset resets every environment and returns the stacked observations.
func (v *VecEnv) Reset(seed ...int64) (*mat.Dense, error) {
	if err := v.AsyncReset(seed...); err != nil {
		return nil, err
	}
	obs, _, _, _, err := v.Recv()
	return obs, err
}

// Step submits one flat action batch and waits for the stacked result.
func (v *VecEnv) Step(actions *mat.Dense) (*mat.Dense, []float64, []bool, []map[string]any, error) {
	if err := v.Send(actions); err != nil {
		return nil, nil, nil, nil, err
	}
	return v.Recv()
}

// Profile chains the per-environment timing records, worker-major.
func (v *VecEnv) Profile() []Profile {
	out := make([]Profile, 0, v.numWorkers*v.envsPerWorker)
	for _, b := range v.backends {
		out = append(out, b.ProfileAll()...)
	}
	return out
}

// Close tears every worker down in order. Call at most once; a second
// Close has backend-defined behavior. A teardown failure in one backend
// propagates and leaves later backends' resources unreleased.
func (v *VecEnv) Close() {
	for _, b := range v.backends {
		b.Close()
	}
}

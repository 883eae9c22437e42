package vector

import (
	"fmt"
	"sync/atomic"

	"github.com/zeu5/vecenv/types"
	"github.com/zeu5/vecenv/util"
)

// fakeEnv is a deterministic test double. Each agent observes
// [id*10 + agentIndex, marker] where marker is the current seed after a
// reset and the echoed first action component after a step, which makes
// routing mistakes visible in the observation itself.
type fakeEnv struct {
	id        float64
	agents    int
	doneAfter int // episode length; 0 means episodes never end

	seed    float64
	steps   int
	resets  int
	done    bool
	echo    map[string]float64
	scratch map[string]any
}

var _ types.Environment = &fakeEnv{}

// fakeBinding counts factory invocations, so instance ids follow creation
// order inside one backend. The counter is atomic because process-style
// backends run the factory on their own goroutines.
func fakeBinding(agents, doneAfter int) types.Binding {
	next := new(atomic.Int64)
	return types.Binding{
		Creator: func() types.Environment {
			id := next.Add(1) - 1
			return &fakeEnv{
				id:        float64(id),
				agents:    agents,
				doneAfter: doneAfter,
				echo:      make(map[string]float64),
				scratch:   make(map[string]any),
			}
		},
		SingleObservationSpace: types.Space{Shape: []int{2}},
		SingleActionSpace:      types.Space{Shape: []int{1}},
		MaxAgents:              agents,
	}
}

func (f *fakeEnv) key(i int) string {
	return fmt.Sprintf("a%d", i)
}

func (f *fakeEnv) Seed(seed int64) {
	f.seed = float64(seed)
}

func (f *fakeEnv) Reset(seed ...int64) *types.Observations {
	if len(seed) > 0 {
		f.Seed(seed[0])
	}
	f.resets++
	f.steps = 0
	f.done = false
	f.echo = make(map[string]float64)
	return f.observe()
}

func (f *fakeEnv) observe() *types.Observations {
	obs := util.NewOrderedMap[[]float64]()
	for i := 0; i < f.agents; i++ {
		k := f.key(i)
		marker := f.seed
		if v, ok := f.echo[k]; ok {
			marker = v
		}
		obs.Set(k, []float64{f.id*10 + float64(i), marker})
	}
	return obs
}

func (f *fakeEnv) Step(actions *types.Actions) *types.StepResult {
	f.steps++
	rewards := util.NewOrderedMap[float64]()
	dones := util.NewOrderedMap[bool]()
	f.done = f.doneAfter > 0 && f.steps >= f.doneAfter
	for i := 0; i < f.agents; i++ {
		k := f.key(i)
		if a, ok := actions.Get(k); ok && len(a) > 0 {
			f.echo[k] = a[0]
			rewards.Set(k, a[0]/2)
		} else {
			rewards.Set(k, 0)
		}
		dones.Set(k, f.done)
	}
	return &types.StepResult{
		Obs:     f.observe(),
		Rewards: rewards,
		Dones:   dones,
		Info:    map[string]any{"steps": f.steps},
	}
}

func (f *fakeEnv) Done() bool {
	return f.done
}

func (f *fakeEnv) Put(key string, value any) {
	f.scratch[key] = value
}

func (f *fakeEnv) Get(key string) any {
	return f.scratch[key]
}

// collect flattens per-environment results the way the orchestrator does,
// copying observation rows so shared-buffer views survive the next step.
func collect(results []*types.StepResult) (keys [][]string, obs [][]float64, rewards []float64, dones []bool) {
	for _, r := range results {
		ks := r.Obs.Keys()
		keys = append(keys, ks)
		for _, k := range ks {
			o, _ := r.Obs.Get(k)
			row := make([]float64, len(o))
			copy(row, o)
			obs = append(obs, row)
		}
		rewards = append(rewards, r.Rewards.Values()...)
		dones = append(dones, r.Dones.Values()...)
	}
	return keys, obs, rewards, dones
}

// actionsFor zips one identical action onto every agent key.
func actionsFor(keys [][]string, val float64) []*types.Actions {
	batch := make([]*types.Actions, len(keys))
	for i, ks := range keys {
		m := util.NewOrderedMap[[]float64]()
		for _, k := range ks {
			m.Set(k, []float64{val})
		}
		batch[i] = m
	}
	return batch
}

package vector

import (
	"fmt"
	"io"
	"time"

	"github.com/zeu5/vecenv/types"
	"github.com/zeu5/vecenv/util"
)

// Profile is the timing record of one environment instance.
type Profile struct {
	Resets    int           `json:"resets"`
	Steps     int           `json:"steps"`
	ResetTime time.Duration `json:"reset_time"`
	StepTime  time.Duration `json:"step_time"`
}

// EnvPool runs a fixed list of environment instances sequentially in one
// execution context. It owns the auto-reset policy: an instance that
// finished its episode is reset on the next Step and the submitted action
// for that slot is discarded.
type EnvPool struct {
	envs     []types.Environment
	profiles []Profile
}

// NewEnvPool invokes the factory n times. Each instance is independent.
func NewEnvPool(creator types.EnvCreator, n int) *EnvPool {
	envs := make([]types.Environment, n)
	for i := range envs {
		envs[i] = creator()
	}
	return &EnvPool{
		envs:     envs,
		profiles: make([]Profile, n),
	}
}

// Seed assigns seed, seed+1, ... to the instances in index order.
func (p *EnvPool) Seed(seed int64) {
	for _, e := range p.envs {
		e.Seed(seed)
		seed++
	}
}

// ResetAll resets every instance. Reset results carry no rewards or dones.
func (p *EnvPool) ResetAll(seed ...int64) []*types.StepResult {
	results := make([]*types.StepResult, len(p.envs))
	for i, e := range p.envs {
		start := time.Now()
		var obs *types.Observations
		if len(seed) > 0 {
			obs = e.Reset(seed[0] + int64(i))
		} else {
			obs = e.Reset()
		}
		p.profiles[i].Resets++
		p.profiles[i].ResetTime += time.Since(start)
		results[i] = types.NewResetResult(obs)
	}
	return results
}

// Step applies one action map per instance. An instance whose previous
// step ended the episode is auto-reset instead: its action is not applied
// and a zero-reward, all-false-done result wraps the fresh observations.
func (p *EnvPool) Step(actions []*types.Actions) []*types.StepResult {
	if len(actions) != len(p.envs) {
		panic(fmt.Sprintf("vector: %d action maps for a pool of %d environments", len(actions), len(p.envs)))
	}
	results := make([]*types.StepResult, len(p.envs))
	for i, e := range p.envs {
		start := time.Now()
		if e.Done() {
			obs := e.Reset()
			p.profiles[i].Resets++
			p.profiles[i].ResetTime += time.Since(start)
			rewards := util.NewOrderedMap[float64]()
			dones := util.NewOrderedMap[bool]()
			for _, k := range obs.Keys() {
				rewards.Set(k, 0)
				dones.Set(k, false)
			}
			results[i] = &types.StepResult{
				Obs:     obs,
				Rewards: rewards,
				Dones:   dones,
				Info:    map[string]any{},
			}
			continue
		}
		results[i] = e.Step(actions[i])
		p.profiles[i].Steps++
		p.profiles[i].StepTime += time.Since(start)
	}
	return results
}

// PutAll stores the pair in every instance's local state.
func (p *EnvPool) PutAll(key string, value any) {
	for _, e := range p.envs {
		e.Put(key, value)
	}
}

// GetAll reads the key from every instance, in index order.
func (p *EnvPool) GetAll(key string) []any {
	out := make([]any, len(p.envs))
	for i, e := range p.envs {
		out[i] = e.Get(key)
	}
	return out
}

// ProfileAll returns a copy of the per-instance timing records.
func (p *EnvPool) ProfileAll() []Profile {
	out := make([]Profile, len(p.profiles))
	copy(out, p.profiles)
	return out
}

// Close closes every instance that supports closing.
func (p *EnvPool) Close() {
	for _, e := range p.envs {
		if c, ok := e.(io.Closer); ok {
			c.Close()
		}
	}
}

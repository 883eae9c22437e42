package grid

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/zeu5/vecenv/types"
	"github.com/zeu5/vecenv/util"
)

// Config of one grid world instance.
type Config struct {
	Height  int
	Width   int
	Agents  int
	Horizon int
}

// Environment is a multi-agent grid world. Agents start in seeded random
// cells and move one cell per step; each agent observes its own position
// and is rewarded by the negative Manhattan distance to the goal corner.
// The episode ends when every agent stands on the goal or the horizon
// runs out.
type Environment struct {
	config    Config
	rng       *rand.Rand
	positions []Position
	step      int
	done      bool
	scratch   map[string]any
}

type Position struct {
	Row int
	Col int
}

var _ types.Environment = &Environment{}

func New(config Config) *Environment {
	return &Environment{
		config:    config,
		rng:       rand.New(rand.NewSource(0)),
		positions: make([]Position, config.Agents),
		scratch:   make(map[string]any),
	}
}

// NewCreator returns an environment factory for the configuration.
func NewCreator(config Config) types.EnvCreator {
	return func() types.Environment {
		return New(config)
	}
}

// NewBinding packages the factory with its space descriptors. Each agent
// observes [row, col] and acts with [dRow, dCol].
func NewBinding(config Config) types.Binding {
	return types.Binding{
		Creator:                NewCreator(config),
		SingleObservationSpace: types.Space{Shape: []int{2}},
		SingleActionSpace:      types.Space{Shape: []int{2}},
		MaxAgents:              config.Agents,
	}
}

func agentKey(i int) string {
	return fmt.Sprintf("agent_%d", i)
}

func (g *Environment) Seed(seed int64) {
	g.rng = rand.New(rand.NewSource(uint64(seed)))
}

func (g *Environment) Reset(seed ...int64) *types.Observations {
	if len(seed) > 0 {
		g.Seed(seed[0])
	}
	g.step = 0
	g.done = false
	for i := range g.positions {
		g.positions[i] = Position{
			Row: g.rng.Intn(g.config.Height),
			Col: g.rng.Intn(g.config.Width),
		}
	}
	return g.observe()
}

func (g *Environment) observe() *types.Observations {
	obs := util.NewOrderedMap[[]float64]()
	for i, p := range g.positions {
		obs.Set(agentKey(i), []float64{float64(p.Row), float64(p.Col)})
	}
	return obs
}

// Step moves each agent by the sign of its action components, clamped to
// the grid.
func (g *Environment) Step(actions *types.Actions) *types.StepResult {
	g.step++
	goal := Position{Row: g.config.Height - 1, Col: g.config.Width - 1}

	for i := range g.positions {
		a, ok := actions.Get(agentKey(i))
		if !ok || len(a) < 2 {
			continue
		}
		g.positions[i].Row = clamp(g.positions[i].Row+sign(a[0]), 0, g.config.Height-1)
		g.positions[i].Col = clamp(g.positions[i].Col+sign(a[1]), 0, g.config.Width-1)
	}

	allAtGoal := true
	rewards := util.NewOrderedMap[float64]()
	for i, p := range g.positions {
		dist := abs(goal.Row-p.Row) + abs(goal.Col-p.Col)
		rewards.Set(agentKey(i), -float64(dist))
		if dist != 0 {
			allAtGoal = false
		}
	}

	g.done = allAtGoal || g.step >= g.config.Horizon

	dones := util.NewOrderedMap[bool]()
	for i := range g.positions {
		dones.Set(agentKey(i), g.done)
	}

	return &types.StepResult{
		Obs:     g.observe(),
		Rewards: rewards,
		Dones:   dones,
		Info:    map[string]any{"step": g.step},
	}
}

func (g *Environment) Done() bool {
	return g.done
}

func (g *Environment) Put(key string, value any) {
	g.scratch[key] = value
}

func (g *Environment) Get(key string) any {
	return g.scratch[key]
}

func sign(v float64) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

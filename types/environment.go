package types

import "github.com/zeu5/vecenv/util"

// Per-agent mappings reported by an environment. The key order is the
// environment's reporting order and is significant: the orchestrator
// matches the next action batch back onto it.
type (
	Observations = util.OrderedMap[[]float64]
	Actions      = util.OrderedMap[[]float64]
	Rewards      = util.OrderedMap[float64]
	Dones        = util.OrderedMap[bool]
)

// StepResult is the outcome of one reset or step of a single environment
// instance. Obs, Rewards and Dones carry one entry per agent key, in the
// same order; reset results have empty Rewards and Dones.
type StepResult struct {
	Obs     *Observations  `json:"obs"`
	Rewards *Rewards       `json:"rewards"`
	Dones   *Dones         `json:"dones"`
	Info    map[string]any `json:"info"`
}

// NewResetResult wraps reset observations with empty rewards, dones and
// info.
func NewResetResult(obs *Observations) *StepResult {
	return &StepResult{
		Obs:     obs,
		Rewards: util.NewOrderedMap[float64](),
		Dones:   util.NewOrderedMap[bool](),
		Info:    map[string]any{},
	}
}

// Environment is one simulated decision process instance. Multi-agent
// instances report one entry per agent key; the key set may vary between
// steps but the order of a result must be preserved until the next step.
type Environment interface {
	// Reset starts a new episode and returns the first observations.
	// An optional seed reseeds the instance first.
	Reset(seed ...int64) *Observations
	// Step applies one action per agent key and advances the episode.
	Step(actions *Actions) *StepResult
	// Done reports whether the current episode has ended.
	Done() bool
	// Seed fixes the instance's randomness.
	Seed(seed int64)
	// Put stores a key/value pair in instance-local state.
	Put(key string, value any)
	// Get reads instance-local state stored with Put.
	Get(key string) any
}

// EnvCreator produces one independent environment instance. Worker
// backends invoke it inside the worker's own execution context.
type EnvCreator func() Environment

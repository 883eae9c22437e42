package types

// Space describes the shape of one agent's observation or action tensor.
// Descriptors are caller-supplied and passed through unmodified.
type Space struct {
	Shape []int `json:"shape"`
}

// Size returns the flattened element count of the space.
func (s Space) Size() int {
	if len(s.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range s.Shape {
		n *= d
	}
	return n
}

// Binding packages an environment factory with the space descriptors and
// agent bound needed to size batches and shared buffers.
type Binding struct {
	Creator                EnvCreator
	SingleObservationSpace Space
	SingleActionSpace      Space
	// MaxAgents bounds the number of co-located agents in one instance.
	MaxAgents int
}

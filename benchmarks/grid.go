package benchmarks

import (
	"fmt"
	"path"
	"time"

	"github.com/spf13/cobra"

	"github.com/zeu5/vecenv/grid"
	"github.com/zeu5/vecenv/policies"
	"github.com/zeu5/vecenv/util"
	"github.com/zeu5/vecenv/vector"
)

// runGrid steps the grid world on the given backend with a random policy
// and reports steps per second across all environments.
func runGrid(name string, constructor vector.BackendConstructor) (float64, error) {
	binding := grid.NewBinding(grid.Config{
		Height:  32,
		Width:   32,
		Agents:  2,
		Horizon: 128,
	})

	venv, err := vector.NewVecEnv(binding, constructor, workers, envsPerWorker)
	if err != nil {
		return 0, err
	}
	defer venv.Close()

	obs, err := venv.Reset(seed)
	if err != nil {
		return 0, err
	}
	rows, _ := obs.Dims()
	policy := policies.NewRandom(uint64(seed) + 1)

	stopProfiling := startProfiling()
	defer stopProfiling()

	start := time.Now()
	for i := 0; i < steps; i++ {
		obs, _, _, _, err = venv.Step(policy.ActionBatch(rows))
		if err != nil {
			return 0, err
		}
		rows, _ = obs.Dims()
	}
	elapsed := time.Since(start)

	envSteps := float64(steps * workers * envsPerWorker)
	stepsPerSec := envSteps / elapsed.Seconds()
	fmt.Printf("%s: %d batches, %.0f env steps/sec\n", name, steps, stepsPerSec)

	profilePath := path.Join(saveFile, name+"_profile.json")
	if err := util.SaveJSON(profilePath, venv.Profile()); err != nil {
		return 0, err
	}
	return stepsPerSec, nil
}

func SequentialCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sequential",
		Short: "Run the grid benchmark on the in-process sequential backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runGrid("sequential", vector.NewSequential)
			return err
		},
	}
}

func QueueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Run the grid benchmark on the worker-with-queues backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runGrid("queue", vector.NewQueue)
			return err
		},
	}
}

func ShmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shm",
		Short: "Run the grid benchmark on the shared-memory backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runGrid("shm", vector.NewShm)
			return err
		},
	}
}

func ActorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "actor",
		Short: "Run the grid benchmark on the HTTP actor backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runGrid("actor", vector.NewActor)
			return err
		},
	}
}

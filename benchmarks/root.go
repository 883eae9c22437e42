package benchmarks

import "github.com/spf13/cobra"

var (
	workers       int
	envsPerWorker int
	steps         int
	seed          int64
	saveFile      string
	cpuprofile    string
	memprofile    string
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:   "vecenv",
		Short: "Benchmarks for the vectorized environment backends",
	}
	rootCommand.PersistentFlags().IntVarP(&workers, "workers", "w", 4, "Number of parallel workers")
	rootCommand.PersistentFlags().IntVar(&envsPerWorker, "envs-per-worker", 8, "Environments owned by each worker")
	rootCommand.PersistentFlags().IntVar(&steps, "steps", 1000, "Number of vectorized steps to run")
	rootCommand.PersistentFlags().Int64Var(&seed, "seed", 0, "Base seed of the run")
	rootCommand.PersistentFlags().StringVarP(&saveFile, "save", "s", "results", "Save the result data in the specified folder")
	rootCommand.PersistentFlags().StringVar(&cpuprofile, "cpuprofile", "", "Write a CPU profile to this file inside the save folder")
	rootCommand.PersistentFlags().StringVar(&memprofile, "memprofile", "", "Write a memory profile to this file inside the save folder")
	// adding the subcommands here
	rootCommand.AddCommand(SequentialCommand())
	rootCommand.AddCommand(QueueCommand())
	rootCommand.AddCommand(ShmCommand())
	rootCommand.AddCommand(ActorCommand())
	rootCommand.AddCommand(CompareCommand())
	return rootCommand
}

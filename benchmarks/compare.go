package benchmarks

import (
	"path"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/zeu5/vecenv/util"
	"github.com/zeu5/vecenv/vector"
)

type compareResult struct {
	Backend     string    `json:"backend"`
	StepsPerSec float64   `json:"steps_per_sec"`
	Workers     int       `json:"workers"`
	EnvsPerWork int       `json:"envs_per_worker"`
	Steps       int       `json:"steps"`
	When        time.Time `json:"when"`
}

func CompareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compare",
		Short: "Run the grid benchmark on every backend and plot throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			backends := []struct {
				name        string
				constructor vector.BackendConstructor
			}{
				{"sequential", vector.NewSequential},
				{"queue", vector.NewQueue},
				{"shm", vector.NewShm},
				{"actor", vector.NewActor},
			}

			names := make([]string, 0, len(backends))
			values := make(plotter.Values, 0, len(backends))
			for _, b := range backends {
				stepsPerSec, err := runGrid(b.name, b.constructor)
				if err != nil {
					return err
				}
				names = append(names, b.name)
				values = append(values, stepsPerSec)

				err = util.AppendJSONLine(path.Join(saveFile, "compare.jsonl"), compareResult{
					Backend:     b.name,
					StepsPerSec: stepsPerSec,
					Workers:     workers,
					EnvsPerWork: envsPerWorker,
					Steps:       steps,
					When:        time.Now(),
				})
				if err != nil {
					return err
				}
			}

			p := plot.New()
			p.Title.Text = "Backend throughput"
			p.Y.Label.Text = "env steps/sec"
			bars, err := plotter.NewBarChart(values, vg.Points(40))
			if err != nil {
				return err
			}
			bars.Color = plotutil.Color(0)
			p.Add(bars)
			p.NominalX(names...)
			return p.Save(8*vg.Inch, 8*vg.Inch, path.Join(saveFile, "compare.png"))
		},
	}
}

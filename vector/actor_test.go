package vector

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/zeu5/vecenv/grid"
)

func TestActorMatchesSequential(t *testing.T) {
	binding := grid.NewBinding(grid.Config{Height: 8, Width: 8, Agents: 2, Horizon: 16})

	run := func(constructor BackendConstructor) *mat.Dense {
		venv, err := NewVecEnv(binding, constructor, 1, 2)
		require.NoError(t, err)
		defer venv.Close()

		obs, err := venv.Reset(11)
		require.NoError(t, err)
		rows, _ := obs.Dims()

		actions := mat.NewDense(rows, 2, nil)
		for r := 0; r < rows; r++ {
			actions.Set(r, 0, 1)
		}
		obs, _, _, _, err = venv.Step(actions)
		require.NoError(t, err)
		return mat.DenseCopyOf(obs)
	}

	assert.True(t, mat.Equal(run(NewSequential), run(NewActor)),
		"actor transport must not change observations")
}

func TestActorSendOverwritesHandle(t *testing.T) {
	b := NewActor(fakeBinding(1, 0), 1)
	defer b.Close()

	b.AsyncResetAll(2)
	// a second schedule before draining discards the in-flight result
	b.AsyncResetAll(6)
	results := b.Recv()
	o, _ := results[0].Obs.Get("a0")
	assert.Equal(t, float64(6), o[1])
}

func TestActorSyncCalls(t *testing.T) {
	b := NewActor(fakeBinding(1, 0), 2)
	defer b.Close()

	b.Seed(30)
	b.AsyncResetAll()
	results := b.Recv()
	require.Len(t, results, 2)
	for i, r := range results {
		o, _ := r.Obs.Get("a0")
		assert.Equal(t, float64(30+i), o[1])
	}

	b.PutAll("marker", "remote")
	values := b.GetAll("marker")
	require.Len(t, values, 2)
	for _, v := range values {
		assert.Equal(t, "remote", v)
	}

	profiles := b.ProfileAll()
	require.Len(t, profiles, 2)
	for _, p := range profiles {
		assert.Equal(t, 1, p.Resets)
	}
}

func TestRemoteActorAgainstRunningServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewEnvServer(fakeBinding(1, 0), 2)
	go srv.Serve(ln)
	defer srv.Shutdown(context.Background())

	venv, err := NewVecEnv(fakeBinding(1, 0), RemoteActor("http://"+ln.Addr().String()), 1, 2)
	require.NoError(t, err)
	defer venv.Close()

	obs, err := venv.Reset(4)
	require.NoError(t, err)
	rows, _ := obs.Dims()
	require.Equal(t, 2, rows)
	assert.Equal(t, float64(4), obs.At(0, 1))
	assert.Equal(t, float64(5), obs.At(1, 1))

	actions := mat.NewDense(rows, 1, []float64{70, 80})
	obs, rewards, dones, _, err := venv.Step(actions)
	require.NoError(t, err)
	assert.Equal(t, float64(70), obs.At(0, 1))
	assert.Equal(t, float64(80), obs.At(1, 1))
	assert.Equal(t, []float64{35, 40}, rewards)
	assert.Equal(t, []bool{false, false}, dones)
}

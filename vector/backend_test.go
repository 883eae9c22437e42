package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// driveBackend resets, then steps the backend with a fixed action schedule,
// recording the flattened observation/reward/done sequences.
func driveBackend(b Backend, seed int64, steps int) (obs [][]float64, rewards []float64, dones []bool) {
	b.AsyncResetAll(seed)
	keys, o, _, _ := collect(b.Recv())
	obs = append(obs, o...)
	for i := 0; i < steps; i++ {
		b.Send(actionsFor(keys, 1000+float64(i)))
		var r []float64
		var d []bool
		keys, o, r, d = collect(b.Recv())
		obs = append(obs, o...)
		rewards = append(rewards, r...)
		dones = append(dones, d...)
	}
	return obs, rewards, dones
}

func TestSequentialDoubleSchedulePanics(t *testing.T) {
	b := NewSequential(fakeBinding(1, 0), 1)
	defer b.Close()

	b.AsyncResetAll(1)
	assert.Panics(t, func() { b.AsyncResetAll(1) })
	keys, _, _, _ := collect(b.Recv())

	b.Send(actionsFor(keys, 1))
	assert.Panics(t, func() { b.Send(actionsFor(keys, 2)) })
	b.Recv()
}

func TestSequentialRecvWithoutSchedulePanics(t *testing.T) {
	b := NewSequential(fakeBinding(1, 0), 1)
	defer b.Close()

	assert.Panics(t, func() { b.Recv() })
}

func TestSequentialDeterminism(t *testing.T) {
	obs1, rewards1, dones1 := driveBackend(NewSequential(fakeBinding(2, 3), 4), 7, 10)
	obs2, rewards2, dones2 := driveBackend(NewSequential(fakeBinding(2, 3), 4), 7, 10)

	assert.Equal(t, obs1, obs2)
	assert.Equal(t, rewards1, rewards2)
	assert.Equal(t, dones1, dones2)
}

func TestQueueMatchesSequential(t *testing.T) {
	seq := NewSequential(fakeBinding(2, 3), 4)
	queue := NewQueue(fakeBinding(2, 3), 4)
	defer seq.Close()
	defer queue.Close()

	obs1, rewards1, dones1 := driveBackend(seq, 7, 10)
	obs2, rewards2, dones2 := driveBackend(queue, 7, 10)

	require.Equal(t, obs1, obs2)
	assert.Equal(t, rewards1, rewards2)
	assert.Equal(t, dones1, dones2)
}

func TestShmMatchesQueue(t *testing.T) {
	queue := NewQueue(fakeBinding(2, 3), 4)
	shm := NewShm(fakeBinding(2, 3), 4)
	defer queue.Close()
	defer shm.Close()

	obs1, rewards1, dones1 := driveBackend(queue, 7, 10)
	obs2, rewards2, dones2 := driveBackend(shm, 7, 10)

	require.Equal(t, obs1, obs2)
	assert.Equal(t, rewards1, rewards2)
	assert.Equal(t, dones1, dones2)
}

func TestShmObservationsAliasSharedBuffer(t *testing.T) {
	b := NewShm(fakeBinding(1, 0), 1)
	defer b.Close()

	b.AsyncResetAll(3)
	keys, _, _, _ := collect(b.Recv())

	b.Send(actionsFor(keys, 5))
	results := b.Recv()
	o, _ := results[0].Obs.Get("a0")
	first := o[1]

	// the view is invalidated by the next completed step
	b.Send(actionsFor(keys, 9))
	b.Recv()
	assert.Equal(t, float64(5), first)
	assert.Equal(t, float64(9), o[1], "view should alias the shared buffer")
}

func TestQueueSyncCalls(t *testing.T) {
	b := NewQueue(fakeBinding(1, 0), 3)
	defer b.Close()

	b.Seed(20)
	b.AsyncResetAll()
	results := b.Recv()
	for i, r := range results {
		o, _ := r.Obs.Get("a0")
		assert.Equal(t, float64(20+i), o[1])
	}

	b.PutAll("marker", "x")
	values := b.GetAll("marker")
	require.Len(t, values, 3)
	for _, v := range values {
		assert.Equal(t, "x", v)
	}

	profiles := b.ProfileAll()
	require.Len(t, profiles, 3)
	for _, p := range profiles {
		assert.Equal(t, 1, p.Resets)
	}
}

func TestQueueQueuesSecondUnitBehindFirst(t *testing.T) {
	b := NewQueue(fakeBinding(1, 0), 1)
	defer b.Close()

	// two scheduled units before any drain: Recv returns them in order
	b.AsyncResetAll(4)
	b.AsyncResetAll(8)

	first := b.Recv()
	o, _ := first[0].Obs.Get("a0")
	assert.Equal(t, float64(4), o[1])

	second := b.Recv()
	o, _ = second[0].Obs.Get("a0")
	assert.Equal(t, float64(8), o[1])
}

func TestBackendFactoryRunsPerWorker(t *testing.T) {
	// each backend owns its own instances; ids restart from zero because
	// the binding counts per construction
	b1 := NewQueue(fakeBinding(1, 0), 2)
	b2 := NewQueue(fakeBinding(1, 0), 2)
	defer b1.Close()
	defer b2.Close()

	b1.AsyncResetAll(0)
	b2.AsyncResetAll(0)
	_, obs1, _, _ := collect(b1.Recv())
	_, obs2, _, _ := collect(b2.Recv())

	assert.Equal(t, obs1, obs2)
	require.Len(t, obs1, 2)
	assert.Equal(t, float64(0), obs1[0][0])
	assert.Equal(t, float64(10), obs1[1][0])
}

package sim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/signalctl/sim"
)

func newLocal() *sim.Local {
	return sim.NewLocal([]sim.LocalLane{
		{ID: "in", Arrival: 0.5, Discharge: 1, Downstream: []string{"out"}},
		{ID: "out", Discharge: 2},
	}, []sim.LocalJunction{
		{ID: "J1", Phases: [][]string{{"in"}, {}}},
	}, 1)
}

func TestLocalRedAccumulates(t *testing.T) {
	l := newLocal()
	require.NoError(t, l.SetSignal("J1", sim.SignalState{Phase: 1, Light: sim.LightGreen}))
	require.NoError(t, l.Advance(10))

	s, err := l.QueryLaneState("in")
	require.NoError(t, err)
	// 红灯只进不出：0.5辆/秒×10秒
	assert.InDelta(t, 5, s.Queue, 1e-9)
	assert.Greater(t, s.Wait, 0.0)
}

func TestLocalGreenDischargesDownstream(t *testing.T) {
	l := newLocal()
	l.SetQueue("in", 10)
	require.NoError(t, l.Advance(4))

	in, err := l.QueryLaneState("in")
	require.NoError(t, err)
	// 绿灯净变化 = 到达0.5 − 放行1
	assert.InDelta(t, 8, in.Queue, 1e-9)
}

func TestLocalYellowBlocksDischarge(t *testing.T) {
	l := newLocal()
	l.SetQueue("in", 10)
	require.NoError(t, l.SetSignal("J1", sim.SignalState{Phase: 0, Light: sim.LightYellow}))
	require.NoError(t, l.Advance(2))

	in, err := l.QueryLaneState("in")
	require.NoError(t, err)
	assert.InDelta(t, 11, in.Queue, 1e-9)
}

func TestLocalDownstreamPrefersShorterQueue(t *testing.T) {
	l := sim.NewLocal([]sim.LocalLane{
		{ID: "in", Discharge: 1, Downstream: []string{"a", "b"}},
		{ID: "a"},
		{ID: "b"},
	}, []sim.LocalJunction{
		{ID: "J1", Phases: [][]string{{"in"}, {}}},
	}, 1)
	l.SetQueue("in", 10)
	l.SetQueue("b", 1e9)
	require.NoError(t, l.Advance(10))

	// 下游按剩余空间加权：放行车流几乎全部流向空车道
	a, err := l.QueryLaneState("a")
	require.NoError(t, err)
	b, err := l.QueryLaneState("b")
	require.NoError(t, err)
	assert.InDelta(t, 10, a.Queue, 1e-9)
	assert.InDelta(t, 1e9, b.Queue, 1e-9)
}

func TestLocalDropoutAndErrors(t *testing.T) {
	l := newLocal()
	l.SetDropout("in", true)
	_, err := l.QueryLaneState("in")
	assert.ErrorIs(t, err, sim.ErrNoLaneData)

	_, err = l.QueryLaneState("nope")
	assert.ErrorIs(t, err, sim.ErrNoLaneData)

	assert.Error(t, l.SetSignal("nope", sim.SignalState{}))
	assert.Error(t, l.Advance(-1))
}

func TestLocalEpisodeComplete(t *testing.T) {
	l := newLocal()
	assert.False(t, l.IsEpisodeComplete())
	l.SetCompleteAfter(5)
	require.NoError(t, l.Advance(5))
	assert.True(t, l.IsEpisodeComplete())
}

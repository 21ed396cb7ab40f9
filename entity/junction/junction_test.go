package junction_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/signalctl/entity/junction"
	"github.com/tsinghua-fib-lab/signalctl/sim"
	"github.com/tsinghua-fib-lab/signalctl/utils/config"
)

// testSetup 标准测试场景：单路口两相位，南北/东西各一条进口车道汇入同一下游
func testSetup(t *testing.T) (*config.RuntimeConfig, *sim.Local) {
	c := config.Default()
	c.Junctions = []config.Junction{{
		ID: "J1",
		Phases: []config.Phase{
			{Green: []string{"in_ns"}},
			{Green: []string{"in_ew"}},
		},
		Lanes: []config.Lane{
			{ID: "in_ns", Capacity: 1, Downstream: []string{"out"}, Arrival: 0.2, Discharge: 0.5},
			{ID: "in_ew", Capacity: 1, Downstream: []string{"out"}, Arrival: 0.2, Discharge: 0.5},
			{ID: "out", Capacity: 1, Discharge: 1},
		},
	}}
	rc, err := config.NewRuntimeConfig(c)
	require.NoError(t, err)
	adapter := sim.NewLocal([]sim.LocalLane{
		{ID: "in_ns", Arrival: 0.2, Discharge: 0.5, Downstream: []string{"out"}},
		{ID: "in_ew", Arrival: 0.2, Discharge: 0.5, Downstream: []string{"out"}},
		{ID: "out", Discharge: 1},
	}, []sim.LocalJunction{
		{ID: "J1", Phases: [][]string{{"in_ns"}, {"in_ew"}}},
	}, c.Control.Seed)
	return rc, adapter
}

func TestManagerCapture(t *testing.T) {
	rc, adapter := testSetup(t)
	m := junction.NewManager(rc, adapter)
	require.NoError(t, m.Reset())

	adapter.SetQueue("in_ns", 7)
	adapter.SetQueue("in_ew", 3)
	snaps := m.CaptureAll(0)
	require.Len(t, snaps, 1)
	s := snaps[0]
	assert.Equal(t, "J1", s.JunctionID)
	assert.Equal(t, 0, s.Phase)
	assert.Equal(t, 2, s.NumPhases)
	assert.InDelta(t, 10, s.TotalQueue(), 1e-9)
	assert.InDelta(t, 7, s.MaxQueue(), 1e-9)
	assert.InDelta(t, 3, s.PhaseQueue(1), 1e-9)
}

func TestManagerCaptureZeroSubstitution(t *testing.T) {
	rc, adapter := testSetup(t)
	m := junction.NewManager(rc, adapter)
	require.NoError(t, m.Reset())

	adapter.SetQueue("in_ns", 5)
	adapter.SetDropout("in_ns", true)
	s := m.CaptureAll(0)[0]

	// 掉线车道按零值代入，episode继续，事件被计数
	assert.InDelta(t, 0, s.In["in_ns"].Queue, 1e-9)
	assert.Equal(t, 1, m.DataQualityEvents())

	adapter.SetDropout("in_ns", false)
	s = m.CaptureAll(0)[0]
	assert.InDelta(t, 5, s.In["in_ns"].Queue, 1e-9)
	assert.Equal(t, 1, m.DataQualityEvents())
}

func TestManagerMirrorAndSync(t *testing.T) {
	rc, adapter := testSetup(t)
	m := junction.NewManager(rc, adapter)
	require.NoError(t, m.Reset())
	require.NoError(t, m.CheckSync())

	// 模拟器侧被外部篡改后必须检出失同步
	require.NoError(t, adapter.SetSignal("J1", sim.SignalState{Phase: 1, Light: sim.LightGreen}))
	err := m.CheckSync()
	require.Error(t, err)
	assert.ErrorIs(t, err, sim.ErrDesync)

	// 重新镜像后恢复一致
	j := m.Get("J1")
	require.NoError(t, j.Mirror())
	assert.NoError(t, m.CheckSync())
}

func TestManagerSwitchIsMirrored(t *testing.T) {
	rc, adapter := testSetup(t)
	m := junction.NewManager(rc, adapter)
	require.NoError(t, m.Reset())
	j := m.Get("J1")

	require.NoError(t, m.Update(10))
	d, err := j.Signal().RequestPhase(1)
	require.NoError(t, err)
	require.Equal(t, junction.DecisionSwitched, d)
	require.NoError(t, j.Mirror())

	got, err := adapter.QuerySignal("J1")
	require.NoError(t, err)
	assert.Equal(t, sim.SignalState{Phase: 0, Light: sim.LightYellow}, got)

	// 黄灯结束的自动变迁由update内部镜像
	require.NoError(t, m.Update(3))
	got, err = adapter.QuerySignal("J1")
	require.NoError(t, err)
	assert.Equal(t, sim.SignalState{Phase: 1, Light: sim.LightGreen}, got)
	assert.NoError(t, m.CheckSync())
}

func TestManagerNextTransition(t *testing.T) {
	rc, adapter := testSetup(t)
	m := junction.NewManager(rc, adapter)
	require.NoError(t, m.Reset())

	assert.True(t, m.NextTransition() > 1e18)
	require.NoError(t, m.Update(10))
	j := m.Get("J1")
	_, err := j.Signal().RequestPhase(1)
	require.NoError(t, err)
	assert.InDelta(t, 3, m.NextTransition(), 1e-9)
}

func TestManagerGet(t *testing.T) {
	rc, adapter := testSetup(t)
	m := junction.NewManager(rc, adapter)
	_, err := m.GetOrError("J1")
	assert.NoError(t, err)
	_, err = m.GetOrError("nope")
	assert.Error(t, err)
}

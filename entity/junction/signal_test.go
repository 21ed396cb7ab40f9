package junction_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/signalctl/entity/junction"
	"github.com/tsinghua-fib-lab/signalctl/sim"
)

func newTestSignal() *junction.Signal {
	return junction.NewSignal(4, junction.Timing{MinGreen: 10, Yellow: 3, AllRed: 0})
}

func TestSignalInitialState(t *testing.T) {
	s := newTestSignal()
	assert.Equal(t, junction.ModeGreen, s.Mode())
	assert.Equal(t, 0, s.Phase())
	assert.False(t, s.EligibleForSwitch())
	assert.Equal(t, -1, s.PendingRequest())
}

func TestSignalMinGreenDeferral(t *testing.T) {
	s := newTestSignal()
	s.Update(4)

	// 绿灯未满最小时长，请求被记录但不生效
	d, err := s.RequestPhase(1)
	require.NoError(t, err)
	assert.Equal(t, junction.DecisionDeferred, d)
	assert.Equal(t, junction.ModeGreen, s.Mode())
	assert.Equal(t, 0, s.Phase())
	assert.Equal(t, 1, s.PendingRequest())

	// 最小绿灯过后状态机不自动执行pending，需要重新请求
	s.Update(7)
	assert.Equal(t, junction.ModeGreen, s.Mode())
	assert.Equal(t, 0, s.Phase())
	assert.True(t, s.EligibleForSwitch())

	d, err = s.RequestPhase(1)
	require.NoError(t, err)
	assert.Equal(t, junction.DecisionSwitched, d)
	assert.Equal(t, junction.ModeYellow, s.Mode())
	assert.Equal(t, 0, s.Phase())
	assert.Equal(t, -1, s.PendingRequest())

	// 黄灯结束后进入新相位绿灯
	changed := s.Update(3)
	assert.True(t, changed)
	assert.Equal(t, junction.ModeGreen, s.Mode())
	assert.Equal(t, 1, s.Phase())
	assert.Equal(t, 1, s.Switches())
}

func TestSignalSamePhaseClearsPending(t *testing.T) {
	s := newTestSignal()
	s.Update(2)
	d, err := s.RequestPhase(2)
	require.NoError(t, err)
	assert.Equal(t, junction.DecisionDeferred, d)
	assert.Equal(t, 2, s.PendingRequest())

	d, err = s.RequestPhase(0)
	require.NoError(t, err)
	assert.Equal(t, junction.DecisionNoChange, d)
	assert.Equal(t, -1, s.PendingRequest())
}

func TestSignalDropsDuringTransition(t *testing.T) {
	s := newTestSignal()
	s.Update(10)
	d, err := s.RequestPhase(1)
	require.NoError(t, err)
	require.Equal(t, junction.DecisionSwitched, d)

	// 黄灯窗口内任何请求都被丢弃，状态不变
	s.Update(1)
	d, err = s.RequestPhase(3)
	require.NoError(t, err)
	assert.Equal(t, junction.DecisionDropped, d)
	assert.Equal(t, junction.ModeYellow, s.Mode())

	s.Update(2)
	assert.Equal(t, 1, s.Phase())
	assert.Equal(t, junction.ModeGreen, s.Mode())
	assert.Equal(t, 1, s.Switches())
}

func TestSignalOutOfRange(t *testing.T) {
	s := newTestSignal()
	s.Update(10)
	_, err := s.RequestPhase(4)
	assert.Error(t, err)
	_, err = s.RequestPhase(-1)
	assert.Error(t, err)
	// 失败的请求不改变状态
	assert.Equal(t, junction.ModeGreen, s.Mode())
	assert.Equal(t, 0, s.Switches())
}

func TestSignalAllRedSequence(t *testing.T) {
	s := junction.NewSignal(2, junction.Timing{MinGreen: 5, Yellow: 3, AllRed: 2})
	s.Update(5)
	d, err := s.RequestPhase(1)
	require.NoError(t, err)
	require.Equal(t, junction.DecisionSwitched, d)

	// 黄灯期间对外报来源相位，全红期间报目标相位
	assert.Equal(t, sim.SignalState{Phase: 0, Light: sim.LightYellow}, s.State())
	s.Update(3)
	assert.Equal(t, junction.ModeAllRed, s.Mode())
	assert.Equal(t, sim.SignalState{Phase: 1, Light: sim.LightAllRed}, s.State())
	s.Update(2)
	assert.Equal(t, junction.ModeGreen, s.Mode())
	assert.Equal(t, sim.SignalState{Phase: 1, Light: sim.LightGreen}, s.State())
}

func TestSignalUpdateAcrossBoundaries(t *testing.T) {
	s := junction.NewSignal(2, junction.Timing{MinGreen: 5, Yellow: 3, AllRed: 2})
	s.Update(5)
	_, err := s.RequestPhase(1)
	require.NoError(t, err)

	// 一次推进跨越黄灯与全红两个边界
	changed := s.Update(12)
	assert.True(t, changed)
	assert.Equal(t, junction.ModeGreen, s.Mode())
	assert.Equal(t, 1, s.Phase())
	assert.InDelta(t, 7, s.TimeInMode(), 1e-9)
}

func TestSignalTimeToTransition(t *testing.T) {
	s := newTestSignal()
	assert.True(t, s.TimeToTransition() > 1e18) // 绿灯期间无自动变迁
	s.Update(10)
	_, err := s.RequestPhase(1)
	require.NoError(t, err)
	assert.InDelta(t, 3, s.TimeToTransition(), 1e-9)
	s.Update(1)
	assert.InDelta(t, 2, s.TimeToTransition(), 1e-9)
}

func TestSignalDecisionTimeline(t *testing.T) {
	// 决策点t=4请求被推迟；t=11重发被接受，黄灯[11,14)，t=14起新相位绿灯
	s := newTestSignal()
	s.Update(4)
	d, _ := s.RequestPhase(1)
	assert.Equal(t, junction.DecisionDeferred, d)

	s.Update(7) // t=11
	d, _ = s.RequestPhase(1)
	assert.Equal(t, junction.DecisionSwitched, d)
	assert.Equal(t, sim.SignalState{Phase: 0, Light: sim.LightYellow}, s.State())

	s.Update(2.5) // t=13.5 仍在黄灯
	assert.Equal(t, junction.ModeYellow, s.Mode())
	s.Update(0.5) // t=14
	assert.Equal(t, junction.ModeGreen, s.Mode())
	assert.Equal(t, 1, s.Phase())
}

func TestSignalZeroYellowSwitchesImmediately(t *testing.T) {
	// yellow=0且全红禁用时没有过渡窗口，切换直接生效
	s := junction.NewSignal(2, junction.Timing{MinGreen: 5, Yellow: 0, AllRed: 0})
	s.Update(5)
	d, err := s.RequestPhase(1)
	require.NoError(t, err)
	assert.Equal(t, junction.DecisionSwitched, d)
	assert.Equal(t, junction.ModeGreen, s.Mode())
	assert.Equal(t, 1, s.Phase())
	assert.Equal(t, 1, s.Switches())
	assert.Equal(t, sim.SignalState{Phase: 1, Light: sim.LightGreen}, s.State())
	// 绿灯期间不存在时长为0的待决变迁
	assert.True(t, s.TimeToTransition() > 1e18)
}

func TestSignalZeroYellowWithAllRed(t *testing.T) {
	// yellow=0但启用全红：跳过黄灯，直接进入全红窗口
	s := junction.NewSignal(2, junction.Timing{MinGreen: 5, Yellow: 0, AllRed: 2})
	s.Update(5)
	d, err := s.RequestPhase(1)
	require.NoError(t, err)
	assert.Equal(t, junction.DecisionSwitched, d)
	assert.Equal(t, junction.ModeAllRed, s.Mode())
	assert.InDelta(t, 2, s.TimeToTransition(), 1e-9)
	s.Update(2)
	assert.Equal(t, junction.ModeGreen, s.Mode())
	assert.Equal(t, 1, s.Phase())
}

func TestSignalReset(t *testing.T) {
	s := newTestSignal()
	s.Update(10)
	_, err := s.RequestPhase(2)
	require.NoError(t, err)
	s.Update(3)
	require.Equal(t, 2, s.Phase())

	s.Reset()
	assert.Equal(t, junction.ModeGreen, s.Mode())
	assert.Equal(t, 0, s.Phase())
	assert.Equal(t, 0, s.Switches())
	assert.Equal(t, -1, s.PendingRequest())
	assert.InDelta(t, 0, s.TimeInMode(), 1e-9)
}

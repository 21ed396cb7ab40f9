// 仿真任务的主控逻辑
// 一个Context对应一次控制会话：决策→下发→推进→观测→学习的闭环
package task

import (
	"fmt"
	"math"

	"github.com/tsinghua-fib-lab/signalctl/clock"
	"github.com/tsinghua-fib-lab/signalctl/entity/junction"
	"github.com/tsinghua-fib-lab/signalctl/policy"
	"github.com/tsinghua-fib-lab/signalctl/policy/dqn"
	"github.com/tsinghua-fib-lab/signalctl/sim"
	"github.com/tsinghua-fib-lab/signalctl/utils/config"
	"github.com/tsinghua-fib-lab/signalctl/utils/randengine"
)

// episode终止原因
const (
	CauseTimeExhausted     = "time_exhausted"
	CauseSimulatorComplete = "simulator_complete"
)

// Context 控制会话上下文，持有所有子系统实例
type Context struct {
	rc      *config.RuntimeConfig
	clock   *clock.Clock
	adapter sim.Adapter
	manager *junction.JunctionManager
	policy  policy.Policy
	engine  *randengine.Engine
}

// NewContext 创建并组装控制会话
func NewContext(rc *config.RuntimeConfig, adapter sim.Adapter) (*Context, error) {
	ctx := &Context{
		rc:      rc,
		clock:   clock.New(rc.C.Step),
		adapter: adapter,
		engine:  randengine.New(rc.C.Seed),
	}
	ctx.manager = junction.NewManager(rc, adapter)
	p, err := newPolicy(rc, ctx.manager, ctx.engine)
	if err != nil {
		return nil, err
	}
	ctx.policy = p
	log.Infof("context ready: %d junctions, policy=%s, interval=%.1fs",
		len(ctx.manager.Junctions()), p.Name(), ctx.clock.DT)
	return ctx, nil
}

// newPolicy 按配置实例化信控策略
func newPolicy(rc *config.RuntimeConfig, m *junction.JunctionManager, engine *randengine.Engine) (policy.Policy, error) {
	s := rc.All.Signal
	switch rc.C.Policy {
	case config.PolicyFixed:
		return policy.NewFixedTime(s.FixedSplit), nil
	case config.PolicyActuated:
		return policy.NewActuated(s.GapQueue, s.MaxGreen), nil
	case config.PolicyMaxPressure:
		return policy.NewMaxPressure(), nil
	case config.PolicyDQN:
		// 配置校验保证了各路口相位数一致
		numActions := m.Junctions()[0].NumPhases()
		return dqn.New(rc.All.Training, numActions, rc.C.Training, engine), nil
	default:
		return nil, fmt.Errorf("task: unknown policy %q", rc.C.Policy)
	}
}

// Policy 当前使用的策略实例
func (ctx *Context) Policy() policy.Policy {
	return ctx.policy
}

// Clock 仿真时钟
func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

// Manager 路口管理器
func (ctx *Context) Manager() *junction.JunctionManager {
	return ctx.manager
}

// RunEpisode 运行一个完整episode
// 每个决策步：按上一次观测决策并下发，分段推进仿真保证黄灯/全红边界
// 精确镜像，推进后捕获新观测、结算奖励；学习策略在推进之后训练，
// 训练耗时不会推迟信号下发
func (ctx *Context) RunEpisode() (EpisodeMetrics, error) {
	if err := ctx.manager.Reset(); err != nil {
		return EpisodeMetrics{}, err
	}
	ctx.clock.Init()
	learner, _ := ctx.policy.(policy.Learner)
	collector := newMetricsCollector()

	prev := ctx.manager.CaptureAll(ctx.clock.T)
	cause := CauseTimeExhausted
	actions := make([]int, len(prev))
	for {
		// 决策与下发
		for i, j := range ctx.manager.Junctions() {
			action, err := ctx.policy.Decide(prev[i])
			if err != nil {
				return EpisodeMetrics{}, fmt.Errorf("task: decide for %s at %s: %w", j.ID(), ctx.clock, err)
			}
			actions[i] = action
			decision, err := j.Signal().RequestPhase(action)
			if err != nil {
				return EpisodeMetrics{}, fmt.Errorf("task: request phase for %s: %w", j.ID(), err)
			}
			if decision == junction.DecisionSwitched {
				collector.switches[j.ID()]++
			}
			if err := j.Mirror(); err != nil {
				return EpisodeMetrics{}, err
			}
		}

		// 分段推进：切换过渡（黄灯、全红）可能落在决策间隔内部，
		// 拆成若干子段使每次模式变迁都被立即镜像
		remaining := ctx.clock.DT
		for remaining > 1e-9 {
			dt := math.Min(remaining, ctx.manager.NextTransition())
			if err := ctx.adapter.Advance(dt); err != nil {
				return EpisodeMetrics{}, fmt.Errorf("task: advance simulator: %w", err)
			}
			if err := ctx.manager.Update(dt); err != nil {
				return EpisodeMetrics{}, err
			}
			remaining -= dt
		}
		if err := ctx.manager.CheckSync(); err != nil {
			// 控制端与模拟器状态不一致属于不可恢复故障
			return EpisodeMetrics{}, err
		}
		ctx.clock.Tick()

		next := ctx.manager.CaptureAll(ctx.clock.T)
		terminal := ctx.clock.Done() || ctx.adapter.IsEpisodeComplete()
		for i, j := range ctx.manager.Junctions() {
			r := Reward(ctx.rc.All.Reward, prev[i], next[i])
			collector.addReward(r)
			if p := maxPressure(j, next[i]); !math.IsInf(p, -1) {
				collector.recordPressure(PressureSample{JunctionID: j.ID(), T: next[i].T, Pressure: p})
			}
			if learner != nil && ctx.rc.C.Training {
				if err := learner.Observe(policy.Transition{
					Prev:     prev[i],
					Next:     next[i],
					Action:   actions[i],
					Reward:   r,
					Terminal: terminal,
				}); err != nil {
					return EpisodeMetrics{}, fmt.Errorf("task: training update: %w", err)
				}
			}
		}
		prev = next
		if terminal {
			if !ctx.clock.Done() {
				cause = CauseSimulatorComplete
			}
			break
		}
	}

	if learner != nil {
		learner.EndEpisode()
	}
	m := collector.finish(ctx.manager.DataQualityEvents(), cause)
	log.Infof("episode done at %s: reward=%.2f decisions=%d dq_events=%d cause=%s",
		ctx.clock, m.CumulativeReward, m.Decisions, m.DataQualityEvents, m.TerminalCause)
	return m, nil
}

// maxPressure 该快照下所有相位压力的最大值，无相位时为-Inf
func maxPressure(j *junction.Junction, s *junction.Snapshot) float64 {
	best := math.Inf(-1)
	for _, p := range j.PressureVector(s) {
		if p > best {
			best = p
		}
	}
	return best
}


// 内置的排队论参考模拟器，实现Adapter接口
// 用于独立运行模式与测试，不是对外契约的一部分：
// 真实部署时由外部微观模拟器（如SUMO/TraCI网关）提供Adapter实现
package sim

import (
	"fmt"

	"github.com/tsinghua-fib-lab/signalctl/utils/randengine"
)

const microStep = 1.0 // 内部积分步长（秒）

// LocalLane 参考模拟器的车道参数
type LocalLane struct {
	ID         string   // 车道ID
	Arrival    float64  // 到达率（辆/秒）
	Discharge  float64  // 绿灯放行率（辆/秒）
	Downstream []string // 下游承接车道，为空则车辆直接离开路网
}

// LocalJunction 参考模拟器的路口参数
type LocalJunction struct {
	ID     string     // 路口ID
	Phases [][]string // 每个相位放行的车道ID集合
}

type localLaneRuntime struct {
	spec  LocalLane
	queue float64
	wait  float64
}

// Local 排队论模拟器
// 每条车道是一个点队列：红灯只进不出，绿灯按放行率出队并转移到下游车道
type Local struct {
	t         float64
	lanes     map[string]*localLaneRuntime
	junctions map[string]LocalJunction
	signals   map[string]SignalState
	dropout   map[string]bool // 模拟探测器掉线的车道
	generator *randengine.Engine

	completeAfter float64 // 大于0时，到达该时刻后报告episode结束
}

// NewLocal 创建参考模拟器
func NewLocal(lanes []LocalLane, junctions []LocalJunction, seed uint64) *Local {
	l := &Local{
		lanes:     make(map[string]*localLaneRuntime),
		junctions: make(map[string]LocalJunction),
		signals:   make(map[string]SignalState),
		dropout:   make(map[string]bool),
		generator: randengine.New(seed),
	}
	for _, spec := range lanes {
		l.lanes[spec.ID] = &localLaneRuntime{spec: spec}
	}
	for _, j := range junctions {
		l.junctions[j.ID] = j
		// 初始相位0绿灯
		l.signals[j.ID] = SignalState{Phase: 0, Light: LightGreen}
	}
	return l
}

// SetCompleteAfter 设置模拟器主动报告episode结束的时刻（0为从不）
func (l *Local) SetCompleteAfter(t float64) {
	l.completeAfter = t
}

// SetDropout 设置车道探测器掉线状态
func (l *Local) SetDropout(laneID string, dropped bool) {
	l.dropout[laneID] = dropped
}

// SetQueue 直接设置车道排队长度，用于构造测试场景
func (l *Local) SetQueue(laneID string, queue float64) {
	if rt, ok := l.lanes[laneID]; ok {
		rt.queue = queue
	}
}

// greenLanes 收集当前时刻放行中的车道
func (l *Local) greenLanes() map[string]bool {
	green := make(map[string]bool)
	for id, j := range l.junctions {
		s := l.signals[id]
		if s.Light != LightGreen || s.Phase < 0 || s.Phase >= len(j.Phases) {
			continue
		}
		for _, laneID := range j.Phases[s.Phase] {
			green[laneID] = true
		}
	}
	return green
}

// downstreamWeights 下游车道的选择权重，排队越短越容易被选中
func (l *Local) downstreamWeights(downstream []string) []float64 {
	weights := make([]float64, len(downstream))
	for i, id := range downstream {
		q := .0
		if down, ok := l.lanes[id]; ok {
			q = down.queue
		}
		weights[i] = 1 / (1 + q)
	}
	return weights
}

// Advance 以固定微步长推进排队动力学
func (l *Local) Advance(seconds float64) error {
	if seconds < 0 {
		return fmt.Errorf("sim: cannot advance by negative time %f", seconds)
	}
	remaining := seconds
	for remaining > 1e-9 {
		dt := microStep
		if remaining < dt {
			dt = remaining
		}
		green := l.greenLanes()
		for _, rt := range l.lanes {
			rt.queue += rt.spec.Arrival * dt
			if green[rt.spec.ID] {
				out := rt.spec.Discharge * dt
				if out > rt.queue {
					out = rt.queue
				}
				rt.queue -= out
				if len(rt.spec.Downstream) > 0 && out > 0 {
					next := rt.spec.Downstream[l.generator.DiscreteDistribution(l.downstreamWeights(rt.spec.Downstream))]
					if down, ok := l.lanes[next]; ok {
						down.queue += out
					}
				}
			}
			rt.wait += rt.queue * dt
		}
		l.t += dt
		remaining -= dt
	}
	return nil
}

// QueryLaneState 查询车道状态，掉线车道返回ErrNoLaneData
func (l *Local) QueryLaneState(laneID string) (LaneState, error) {
	if l.dropout[laneID] {
		return LaneState{}, ErrNoLaneData
	}
	rt, ok := l.lanes[laneID]
	if !ok {
		return LaneState{}, fmt.Errorf("%w: %s", ErrNoLaneData, laneID)
	}
	return LaneState{
		Queue: rt.queue,
		Speed: 13.9 / (1 + rt.queue),
		Wait:  rt.wait,
	}, nil
}

// SetSignal 写入信号状态
func (l *Local) SetSignal(junctionID string, s SignalState) error {
	if _, ok := l.junctions[junctionID]; !ok {
		return fmt.Errorf("sim: unknown junction %s", junctionID)
	}
	l.signals[junctionID] = s
	return nil
}

// QuerySignal 读取信号状态
func (l *Local) QuerySignal(junctionID string) (SignalState, error) {
	s, ok := l.signals[junctionID]
	if !ok {
		return SignalState{}, fmt.Errorf("sim: unknown junction %s", junctionID)
	}
	return s, nil
}

// IsEpisodeComplete 是否到达模拟器侧的结束条件
func (l *Local) IsEpisodeComplete() bool {
	return l.completeAfter > 0 && l.t >= l.completeAfter
}

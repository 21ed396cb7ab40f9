package junction

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/signalctl/sim"
	"github.com/tsinghua-fib-lab/signalctl/utils/config"
)

// Lane 车道拓扑参数
type Lane struct {
	ID         string
	Capacity   float64  // 压力计算的容量权重
	Downstream []string // 下游承接车道
}

// Junction 受控路口
// 持有拓扑（有序相位列表、车道参数）与相位时序状态机，
// 相位的任何实际变更都只通过状态机发生，并镜像到模拟器
type Junction struct {
	id       string
	lanes    map[string]*Lane
	phases   [][]string // 每个相位放行的进口车道ID
	inLanes  []string   // 所有进口车道（去重，保持配置顺序）
	outLanes []string   // 所有下游承接车道（去重）

	signal  *Signal
	adapter sim.Adapter

	dataQuality int // 遥测缺失事件计数
}

// newJunction 由拓扑配置创建路口
func newJunction(base config.Junction, timing Timing, adapter sim.Adapter) *Junction {
	j := &Junction{
		id:      base.ID,
		lanes:   make(map[string]*Lane),
		adapter: adapter,
	}
	for _, l := range base.Lanes {
		j.lanes[l.ID] = &Lane{ID: l.ID, Capacity: l.Capacity, Downstream: l.Downstream}
	}
	j.phases = lo.Map(base.Phases, func(p config.Phase, _ int) []string {
		return p.Green
	})
	for _, green := range j.phases {
		j.inLanes = append(j.inLanes, green...)
	}
	j.inLanes = lo.Uniq(j.inLanes)
	for _, laneID := range j.inLanes {
		j.outLanes = append(j.outLanes, j.lanes[laneID].Downstream...)
	}
	j.outLanes = lo.Uniq(j.outLanes)
	j.signal = NewSignal(len(j.phases), timing)
	return j
}

// ID 路口ID
func (j *Junction) ID() string {
	return j.id
}

// NumPhases 相位总数
func (j *Junction) NumPhases() int {
	return len(j.phases)
}

// Signal 相位时序状态机
func (j *Junction) Signal() *Signal {
	return j.signal
}

// DataQualityEvents 本episode内的遥测缺失事件数
func (j *Junction) DataQualityEvents() int {
	return j.dataQuality
}

// reset 恢复初始状态并把初始相位写入模拟器
func (j *Junction) reset() error {
	j.signal.Reset()
	j.dataQuality = 0
	return j.Mirror()
}

// queryLane 查询单车道状态
// 遥测缺失按零值处理并记录数据质量事件，绝不中断episode，
// 也不会让缺失车道对压力产生系统性偏置（零贡献）
func (j *Junction) queryLane(laneID string) sim.LaneState {
	state, err := j.adapter.QueryLaneState(laneID)
	if err != nil {
		j.dataQuality++
		log.Warnf("junction %s: missing telemetry for lane %s, substituting zero: %v", j.id, laneID, err)
		return sim.LaneState{}
	}
	return state
}

// Capture 捕获当前交通状态快照
func (j *Junction) Capture(t float64) *Snapshot {
	s := &Snapshot{
		JunctionID: j.id,
		T:          t,
		Phase:      j.signal.Phase(),
		NumPhases:  len(j.phases),
		Eligible:   j.signal.EligibleForSwitch(),
		In:         make(map[string]sim.LaneState, len(j.inLanes)),
		Out:        make(map[string]sim.LaneState, len(j.outLanes)),
		topo:       j,
	}
	if j.signal.Mode() == ModeGreen {
		s.GreenElapsed = j.signal.TimeInMode()
	}
	for _, laneID := range j.inLanes {
		s.In[laneID] = j.queryLane(laneID)
	}
	for _, laneID := range j.outLanes {
		s.Out[laneID] = j.queryLane(laneID)
	}
	return s
}

// Mirror 把状态机当前信号状态写入模拟器
// 任何被接受的切换都必须在下一次Advance前镜像完成
func (j *Junction) Mirror() error {
	if err := j.adapter.SetSignal(j.id, j.signal.State()); err != nil {
		return fmt.Errorf("junction %s: mirror signal: %w", j.id, err)
	}
	return nil
}

// CheckSync 校验模拟器侧信号与状态机一致
// 不一致意味着外部契约被破坏，属致命错误
func (j *Junction) CheckSync() error {
	reported, err := j.adapter.QuerySignal(j.id)
	if err != nil {
		return fmt.Errorf("junction %s: query signal: %w", j.id, err)
	}
	want := j.signal.State()
	if reported != want {
		return fmt.Errorf("%w: junction %s applied %+v reported %+v", sim.ErrDesync, j.id, want, reported)
	}
	return nil
}

// update 推进状态机，发生模式变迁时立即镜像
func (j *Junction) update(dt float64) error {
	if j.signal.Update(dt) {
		return j.Mirror()
	}
	return nil
}

package junction

import (
	"fmt"

	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/tsinghua-fib-lab/signalctl/sim"
)

// Mode 信号机所处的模式
type Mode int

const (
	ModeGreen  Mode = iota // 绿灯，当前相位放行
	ModeYellow             // 黄灯，过渡窗口，不接受任何切换请求
	ModeAllRed             // 全红，过渡窗口（配置启用时才会出现）
)

// String 返回模式的可读名称
func (m Mode) String() string {
	switch m {
	case ModeGreen:
		return "green"
	case ModeYellow:
		return "yellow"
	case ModeAllRed:
		return "all_red"
	default:
		return "unknown"
	}
}

// Decision RequestPhase对一次切换请求的裁决
type Decision int

const (
	DecisionNoChange Decision = iota // 请求的就是当前相位，无动作
	DecisionDeferred                 // 最小绿灯未满，请求被记录但不生效
	DecisionDropped                  // 黄灯/全红期间，请求被丢弃
	DecisionSwitched                 // 请求被接受，进入黄灯过渡
)

// Timing 相位切换的时序约束
type Timing struct {
	MinGreen float64 // 最小绿灯时长，>0
	Yellow   float64 // 黄灯时长，>=0
	AllRed   float64 // 全红时长，0为禁用
}

// Signal 单路口的相位时序状态机
// 功能：强制执行绿灯/黄灯/最小绿灯/全红的切换规则，
// 是所有策略的相位选择真正落地前的唯一闸门
// 不变式：绿灯持续时间不小于MinGreen；两个不同绿灯相位之间必然隔着
// 完整的黄灯窗口（若启用还有全红窗口）
type Signal struct {
	numPhases int
	timing    Timing

	mode    Mode
	phase   int     // 当前绿灯相位；过渡期间为来源相位
	next    int     // 过渡结束后生效的相位
	elapsed float64 // 当前模式内已经历的时间
	pending int     // 被推迟的切换请求，-1表示没有

	switches int // 接受的切换次数（统计用）
}

// NewSignal 创建状态机，初始状态为GREEN(0)
func NewSignal(numPhases int, timing Timing) *Signal {
	return &Signal{
		numPhases: numPhases,
		timing:    timing,
		mode:      ModeGreen,
		phase:     0,
		next:      0,
		pending:   -1,
	}
}

// Reset 恢复初始状态，episode开始时调用
func (s *Signal) Reset() {
	s.mode = ModeGreen
	s.phase = 0
	s.next = 0
	s.elapsed = 0
	s.pending = -1
	s.switches = 0
}

// RequestPhase 唯一的公开写入口
// 在不可切换窗口内调用不改变状态（幂等），只返回相应裁决：
// 黄灯/全红期间请求被丢弃；最小绿灯未满时请求被记录为pending但不自动生效，
// 策略在下个决策点重新决定
func (s *Signal) RequestPhase(candidate int) (Decision, error) {
	if candidate < 0 || candidate >= s.numPhases {
		return DecisionNoChange, fmt.Errorf("junction: phase %d out of range [0,%d)", candidate, s.numPhases)
	}
	if s.mode != ModeGreen {
		return DecisionDropped, nil
	}
	if candidate == s.phase {
		s.pending = -1
		return DecisionNoChange, nil
	}
	if s.elapsed < s.timing.MinGreen {
		s.pending = candidate
		return DecisionDeferred, nil
	}
	s.next = candidate
	s.elapsed = 0
	s.pending = -1
	s.switches++
	// 零时长的过渡窗口立即结算，状态机绝不停留在时长为0的模式上
	if s.timing.Yellow > 0 {
		s.mode = ModeYellow
	} else if s.timing.AllRed > 0 {
		s.mode = ModeAllRed
	} else {
		s.mode = ModeGreen
		s.phase = candidate
	}
	return DecisionSwitched, nil
}

// Update 推进状态机dt秒，返回期间是否发生了模式变迁
// dt可以跨越多个过渡边界（黄灯->全红->绿灯），内部逐段消耗
func (s *Signal) Update(dt float64) bool {
	changed := false
	for dt > 0 {
		switch s.mode {
		case ModeGreen:
			s.elapsed += dt
			return changed
		case ModeYellow:
			left := s.timing.Yellow - s.elapsed
			if dt < left {
				s.elapsed += dt
				return changed
			}
			dt -= left
			changed = true
			if s.timing.AllRed > 0 {
				s.mode = ModeAllRed
			} else {
				s.mode = ModeGreen
				s.phase = s.next
			}
			s.elapsed = 0
		case ModeAllRed:
			left := s.timing.AllRed - s.elapsed
			if dt < left {
				s.elapsed += dt
				return changed
			}
			dt -= left
			changed = true
			s.mode = ModeGreen
			s.phase = s.next
			s.elapsed = 0
		}
	}
	return changed
}

// Phase 当前相位（过渡期间为来源相位）
func (s *Signal) Phase() int {
	return s.phase
}

// Mode 当前模式
func (s *Signal) Mode() Mode {
	return s.mode
}

// EligibleForSwitch 此刻的切换请求是否会被接受
func (s *Signal) EligibleForSwitch() bool {
	return s.mode == ModeGreen && s.elapsed >= s.timing.MinGreen
}

// TimeInMode 当前模式内已经历的时间
func (s *Signal) TimeInMode() float64 {
	return s.elapsed
}

// PendingRequest 被推迟的切换请求，-1表示没有
func (s *Signal) PendingRequest() int {
	return s.pending
}

// Switches 本episode内接受的切换次数
func (s *Signal) Switches() int {
	return s.switches
}

// TimeToTransition 距离下一次自动模式变迁的时间，绿灯期间为无穷大
func (s *Signal) TimeToTransition() float64 {
	switch s.mode {
	case ModeYellow:
		return s.timing.Yellow - s.elapsed
	case ModeAllRed:
		return s.timing.AllRed - s.elapsed
	default:
		return mathutil.INF
	}
}

// State 状态机对外（写向模拟器）的信号状态
func (s *Signal) State() sim.SignalState {
	switch s.mode {
	case ModeYellow:
		return sim.SignalState{Phase: s.phase, Light: sim.LightYellow}
	case ModeAllRed:
		return sim.SignalState{Phase: s.next, Light: sim.LightAllRed}
	default:
		return sim.SignalState{Phase: s.phase, Light: sim.LightGreen}
	}
}

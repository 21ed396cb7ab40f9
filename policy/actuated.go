package policy

import (
	"fmt"

	"github.com/tsinghua-fib-lab/signalctl/entity/junction"
)

// Actuated 感应控制策略
// 当前相位有持续车流时延长绿灯；排队低于阈值时gap-out轮转到下一相位；
// 绿灯达到最大时长时无条件强制轮转，防止其他相位饿死
type Actuated struct {
	gapQueue float64 // 排队阈值，低于该值视为车流间隙
	maxGreen float64 // 最大绿灯时长，0为禁用
}

// NewActuated 创建感应控制策略
func NewActuated(gapQueue, maxGreen float64) *Actuated {
	return &Actuated{gapQueue: gapQueue, maxGreen: maxGreen}
}

// Name 策略名
func (a *Actuated) Name() string {
	return "actuated"
}

// Decide 根据当前相位的排队情况决定保持或轮转
func (a *Actuated) Decide(s *junction.Snapshot) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("policy: actuated: nil snapshot")
	}
	next := (s.Phase + 1) % s.NumPhases
	if a.maxGreen > 0 && s.GreenElapsed >= a.maxGreen {
		return next, nil
	}
	if s.PhaseQueue(s.Phase) < a.gapQueue {
		return next, nil
	}
	return s.Phase, nil
}

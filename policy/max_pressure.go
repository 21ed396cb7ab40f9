package policy

import (
	"fmt"

	"github.com/tsinghua-fib-lab/signalctl/entity/junction"
)

// MaxPressure 最大压力控制策略
// 每次决策选择压力最大的相位，压力定义见junction.PressureVector
type MaxPressure struct{}

// NewMaxPressure 创建最大压力控制策略
func NewMaxPressure() *MaxPressure {
	return &MaxPressure{}
}

// Name 策略名
func (m *MaxPressure) Name() string {
	return "max_pressure"
}

// Decide 计算各相位压力并返回压力最大的相位
// 快照缺少拓扑或车道数据时直接报错，不做静默降级
func (m *MaxPressure) Decide(s *junction.Snapshot) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("policy: max_pressure: nil snapshot")
	}
	j := s.Junction()
	if j == nil {
		return 0, fmt.Errorf("policy: max_pressure: snapshot for %s has no topology", s.JunctionID)
	}
	if len(s.In) == 0 {
		return 0, fmt.Errorf("policy: max_pressure: snapshot for %s has no lane states", s.JunctionID)
	}
	pressures := j.PressureVector(s)
	return junction.ArgmaxPressure(pressures), nil
}

package policy

import (
	"fmt"

	"github.com/tsinghua-fib-lab/signalctl/entity/junction"
)

// FixedTime 固定配时策略
// 按相位顺序轮转，每个相位保持固定的绿灯时长，完全不看交通状态
type FixedTime struct {
	split float64 // 每相位绿灯时长（秒）
}

// NewFixedTime 创建固定配时策略
func NewFixedTime(split float64) *FixedTime {
	return &FixedTime{split: split}
}

// Name 策略名
func (f *FixedTime) Name() string {
	return "fixed"
}

// Decide 绿灯持续够split秒则轮转到下一相位，否则保持
func (f *FixedTime) Decide(s *junction.Snapshot) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("policy: fixed: nil snapshot")
	}
	if s.GreenElapsed >= f.split {
		return (s.Phase + 1) % s.NumPhases, nil
	}
	return s.Phase, nil
}

// 信控策略，统一为capability接口：观测快照，给出候选相位
// 候选相位是否落地由路口的相位时序状态机裁决，策略本身不持有时序状态
package policy

import "github.com/tsinghua-fib-lab/signalctl/entity/junction"

// Policy 信控策略接口
// Decide根据快照返回候选相位；控制循环对具体策略无感知
type Policy interface {
	Name() string
	Decide(s *junction.Snapshot) (int, error)
}

// Transition 一条经验转移记录
// 由控制循环在每次决策后生成，交给可学习策略
type Transition struct {
	Prev     *junction.Snapshot // 决策前快照
	Next     *junction.Snapshot // 决策后快照
	Action   int                // 采取的候选相位
	Reward   float64            // 观测到的奖励
	Terminal bool               // episode是否在该转移后结束
}

// Learner 可学习策略接口
// Observe在训练模式下接收转移并触发训练更新
type Learner interface {
	Policy
	Observe(tr Transition) error
	EndEpisode()
}

package task

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/signalctl/entity/junction"
	"github.com/tsinghua-fib-lab/signalctl/utils/config"
)

// Reward 由相邻两次快照计算单步奖励
// 奖励 = 等待时间下降量×权重 - 排队×权重 - 切换惩罚，并截断到[-clamp, +clamp]
// 纯函数：只读取快照，不修改任何状态
func Reward(cfg config.Reward, prev, next *junction.Snapshot) float64 {
	r := (prev.TotalWait()-next.TotalWait())*cfg.WaitWeight - next.TotalQueue()*cfg.QueueWeight
	if next.Phase != prev.Phase {
		r -= cfg.SwitchPenalty
	}
	return lo.Clamp(r, -cfg.Clamp, cfg.Clamp)
}

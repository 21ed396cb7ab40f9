package junction

import "github.com/tsinghua-fib-lab/signalctl/sim"

// Snapshot 单路口的一次交通状态观测
// 捕获后不可变，一个Snapshot恰好支撑一次决策
type Snapshot struct {
	JunctionID   string
	T            float64                  // 捕获时刻的仿真时间
	Phase        int                      // 捕获时刻的相位
	NumPhases    int                      // 该路口配置的相位总数
	GreenElapsed float64                  // 当前绿灯已持续的时间（非绿灯时为0）
	Eligible     bool                     // 捕获时刻切换请求是否会被接受
	In           map[string]sim.LaneState // 进口车道状态
	Out          map[string]sim.LaneState // 下游承接车道状态

	topo *Junction // 拓扑引用，供压力计算使用
}

// Junction 返回该快照所属路口的拓扑
func (s *Snapshot) Junction() *Junction {
	return s.topo
}

// TotalQueue 进口车道排队总数
func (s *Snapshot) TotalQueue() float64 {
	total := .0
	for _, l := range s.In {
		total += l.Queue
	}
	return total
}

// MaxQueue 进口车道最大排队
func (s *Snapshot) MaxQueue() float64 {
	max := .0
	for _, l := range s.In {
		if l.Queue > max {
			max = l.Queue
		}
	}
	return max
}

// TotalWait 进口车道累计等待时间总和
func (s *Snapshot) TotalWait() float64 {
	total := .0
	for _, l := range s.In {
		total += l.Wait
	}
	return total
}

// PhaseQueue 指定相位放行车道的排队总数
func (s *Snapshot) PhaseQueue(phase int) float64 {
	if s.topo == nil || phase < 0 || phase >= len(s.topo.phases) {
		return 0
	}
	total := .0
	for _, laneID := range s.topo.phases[phase] {
		total += s.In[laneID].Queue
	}
	return total
}

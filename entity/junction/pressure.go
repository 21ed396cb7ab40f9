package junction

// PressureVector 由快照计算每个候选相位的压力
// 相位压力 = Σ(进口车道排队×容量权重) − Σ(同一批放行车道的下游承接车道排队)
// 结果恰好为每个配置相位一个条目；缺失数据在捕获阶段已按零值代入
func (j *Junction) PressureVector(s *Snapshot) []float64 {
	pressure := make([]float64, len(j.phases))
	for i, green := range j.phases {
		p := .0
		for _, laneID := range green {
			lane := j.lanes[laneID]
			p += s.In[laneID].Queue * lane.Capacity
			for _, d := range lane.Downstream {
				p -= s.Out[d].Queue
			}
		}
		pressure[i] = p
	}
	return pressure
}

// ArgmaxPressure 返回压力最大的相位下标
// 严格大于比较保证并列时取最小相位下标，决策可复现
func ArgmaxPressure(pressure []float64) int {
	best := 0
	for i := 1; i < len(pressure); i++ {
		if pressure[i] > pressure[best] {
			best = i
		}
	}
	return best
}

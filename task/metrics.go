package task

import (
	"flag"

	"github.com/tsinghua-fib-lab/signalctl/utils/container"
)

var (
	pressureTopK = flag.Int("metrics.pressure_topk", 8, "number of peak pressure samples kept per episode")
)

// PressureSample 一次决策时刻的路口最大相位压力
type PressureSample struct {
	JunctionID string
	T          float64
	Pressure   float64
}

// EpisodeMetrics 单个episode的汇总指标
type EpisodeMetrics struct {
	CumulativeReward  float64
	Decisions         int
	Switches          map[string]int // 各路口的相位切换次数
	DataQualityEvents int
	PressurePeaks     []PressureSample // 压力最大的若干次观测，按压力降序
	TerminalCause     string           // time_exhausted | simulator_complete
}

// metricsCollector episode内的指标收集器
// 压力峰值用容量K的最小堆维护：新样本压过堆顶才进入，始终保留最大的K个
type metricsCollector struct {
	cumReward float64
	decisions int
	switches  map[string]int
	peaks     *container.PriorityQueue[PressureSample]
}

func newMetricsCollector() *metricsCollector {
	return &metricsCollector{
		switches: map[string]int{},
		peaks:    container.NewPriorityQueue[PressureSample](),
	}
}

func (c *metricsCollector) addReward(r float64) {
	c.cumReward += r
	c.decisions++
}

func (c *metricsCollector) recordPressure(s PressureSample) {
	if c.peaks.Len() < *pressureTopK {
		c.peaks.HeapPush(s, s.Pressure)
		return
	}
	if s.Pressure > c.peaks.FirstPriority() {
		c.peaks.HeapPop()
		c.peaks.HeapPush(s, s.Pressure)
	}
}

// finish 汇总为EpisodeMetrics，压力峰值按降序导出
func (c *metricsCollector) finish(dataQuality int, cause string) EpisodeMetrics {
	peaks := make([]PressureSample, 0, c.peaks.Len())
	for c.peaks.Len() > 0 {
		s, _ := c.peaks.HeapPop()
		peaks = append(peaks, s)
	}
	// 最小堆弹出为升序，反转得到降序
	for i, j := 0, len(peaks)-1; i < j; i, j = i+1, j-1 {
		peaks[i], peaks[j] = peaks[j], peaks[i]
	}
	return EpisodeMetrics{
		CumulativeReward:  c.cumReward,
		Decisions:         c.decisions,
		Switches:          c.switches,
		DataQualityEvents: dataQuality,
		PressurePeaks:     peaks,
		TerminalCause:     cause,
	}
}

package junction

import (
	"fmt"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/signalctl/sim"
	"github.com/tsinghua-fib-lab/signalctl/utils/config"
)

// JunctionManager 路口管理器
// 持有episode内全部受控路口；各路口状态机相互独立，
// 一个决策轮内的更新顺序不影响结果
type JunctionManager struct {
	data      map[string]*Junction
	junctions []*Junction
}

// NewManager 由运行时配置创建所有路口
func NewManager(rc *config.RuntimeConfig, adapter sim.Adapter) *JunctionManager {
	timing := Timing{
		MinGreen: rc.All.Signal.MinGreen,
		Yellow:   rc.All.Signal.Yellow,
		AllRed:   rc.All.Signal.AllRed,
	}
	m := &JunctionManager{}
	m.junctions = parallel.GoMap(rc.All.Junctions, func(base config.Junction) *Junction {
		return newJunction(base, timing, adapter)
	})
	m.data = lo.SliceToMap(m.junctions, func(j *Junction) (string, *Junction) {
		return j.id, j
	})
	return m
}

// Junctions 全部路口，按配置顺序
func (m *JunctionManager) Junctions() []*Junction {
	return m.junctions
}

// Get 根据ID获取路口实例，不存在则panic
func (m *JunctionManager) Get(id string) *Junction {
	j, ok := m.data[id]
	if !ok {
		log.Panicf("no id %s in junction data", id)
	}
	return j
}

// GetOrError 根据ID获取路口实例（带错误处理）
func (m *JunctionManager) GetOrError(id string) (*Junction, error) {
	if j, ok := m.data[id]; ok {
		return j, nil
	}
	return nil, fmt.Errorf("no id %s in junction data", id)
}

// Reset 重置所有路口并镜像初始相位
func (m *JunctionManager) Reset() error {
	for _, j := range m.junctions {
		if err := j.reset(); err != nil {
			return err
		}
	}
	return nil
}

// CaptureAll 为所有路口捕获快照
func (m *JunctionManager) CaptureAll(t float64) []*Snapshot {
	return lo.Map(m.junctions, func(j *Junction, _ int) *Snapshot {
		return j.Capture(t)
	})
}

// NextTransition 距离最近一次自动模式变迁的时间（全部绿灯时为无穷大）
func (m *JunctionManager) NextTransition() float64 {
	next := m.junctions[0].signal.TimeToTransition()
	for _, j := range m.junctions[1:] {
		if t := j.signal.TimeToTransition(); t < next {
			next = t
		}
	}
	return next
}

// Update 推进所有路口的状态机dt秒
// 镜像写入共享的模拟器适配器，模拟器按步原子求值，故保持顺序执行
func (m *JunctionManager) Update(dt float64) error {
	for _, j := range m.junctions {
		if err := j.update(dt); err != nil {
			return err
		}
	}
	return nil
}

// CheckSync 校验所有路口与模拟器侧信号一致
func (m *JunctionManager) CheckSync() error {
	for _, j := range m.junctions {
		if err := j.CheckSync(); err != nil {
			return err
		}
	}
	return nil
}

// DataQualityEvents 全部路口的遥测缺失事件总数
func (m *JunctionManager) DataQualityEvents() int {
	return lo.SumBy(m.junctions, func(j *Junction) int {
		return j.dataQuality
	})
}

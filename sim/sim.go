// 模拟器适配层，定义信控引擎与外部交通模拟器之间的契约
// 引擎只通过Adapter接口与模拟器交互，不依赖模拟器内部实现
package sim

import "errors"

var (
	ErrNoLaneData = errors.New("sim: no data for lane") // 车道遥测缺失（探测器掉线）
	ErrDesync     = errors.New("sim: applied signal does not match simulator-reported signal")
)

// LightState 车道信号灯颜色
type LightState int

const (
	LightGreen LightState = iota
	LightYellow
	LightAllRed
)

// String 返回信号灯颜色的可读名称
func (s LightState) String() string {
	switch s {
	case LightGreen:
		return "green"
	case LightYellow:
		return "yellow"
	case LightAllRed:
		return "all_red"
	default:
		return "unknown"
	}
}

// LaneState 单车道的观测数据
// Queue为排队车辆数，Speed为平均速度（m/s），Wait为累计等待时间（秒）
type LaneState struct {
	Queue float64
	Speed float64
	Wait  float64
}

// SignalState 路口信号灯的对外状态
// Phase为相位编号，Light为当前颜色（黄灯/全红期间Phase为即将生效的相位来源相位）
type SignalState struct {
	Phase int
	Light LightState
}

// Adapter 外部模拟器适配接口
// 模拟器是严格的请求/响应模型：上一步完成前不能推进下一步
// 引擎在每个决策周期内通过该接口推进时间、读取车道状态并下发信号
type Adapter interface {
	// Advance 推进模拟器指定秒数
	Advance(seconds float64) error
	// QueryLaneState 查询单车道状态，数据缺失时返回ErrNoLaneData
	QueryLaneState(laneID string) (LaneState, error)
	// SetSignal 将信号状态写入模拟器，必须在下一次Advance前生效
	SetSignal(junctionID string, s SignalState) error
	// QuerySignal 读取模拟器侧的信号状态，用于desync校验
	QuerySignal(junctionID string) (SignalState, error)
	// IsEpisodeComplete 模拟器是否报告本episode结束
	IsEpisodeComplete() bool
}

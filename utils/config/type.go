package config

// ControlStep 指定模拟时间范围和决策间隔的配置项
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数
	Interval float64 `yaml:"interval"` // 每步的时间间隔，即控制决策间隔（秒）
}

// Control 引擎控制配置
type Control struct {
	Step     ControlStep `yaml:"step"`
	Policy   string      `yaml:"policy"`             // 信控策略：fixed|actuated|max_pressure|dqn
	Training bool        `yaml:"training,omitempty"` // 是否开启训练（仅dqn有效）
	Seed     uint64      `yaml:"seed,omitempty"`     // 随机数种子
}

// Signal 相位切换时序配置
// 说明：所有时长单位为秒；非法取值在启动阶段直接报错，不做静默修正
type Signal struct {
	MinGreen   float64 `yaml:"min_green"`            // 最小绿灯时长，必须>0
	Yellow     float64 `yaml:"yellow"`               // 黄灯时长，必须>=0
	AllRed     float64 `yaml:"all_red,omitempty"`    // 全红时长，0为禁用
	MaxGreen   float64 `yaml:"max_green,omitempty"`  // 最大绿灯时长（actuated强制切换），0为禁用
	GapQueue   float64 `yaml:"gap_queue,omitempty"`  // actuated的排队阈值，低于该值gap-out切换
	FixedSplit float64 `yaml:"fixed_split,omitempty"` // fixed策略每相位的绿灯时长
}

// Training 学习策略的训练超参数
type Training struct {
	Gamma        float64 `yaml:"gamma"`         // 折扣因子，[0,1)
	EpsilonStart float64 `yaml:"epsilon_start"` // 初始探索率
	EpsilonMin   float64 `yaml:"epsilon_min"`   // 探索率下限
	EpsilonDecay float64 `yaml:"epsilon_decay"` // 每个决策步的探索率衰减系数，(0,1]
	BatchSize    int     `yaml:"batch_size"`    // 训练批大小
	BufferSize   int     `yaml:"buffer_size"`   // 经验回放缓冲容量
	TargetSync   int     `yaml:"target_sync"`   // 目标网络硬同步间隔（梯度步数）
	LearningRate float64 `yaml:"learning_rate"` // 学习率
	Hidden       int     `yaml:"hidden"`        // 隐层宽度
}

// Reward 奖励函数加权系数
type Reward struct {
	WaitWeight    float64 `yaml:"wait_weight"`              // 等待时间下降的权重
	QueueWeight   float64 `yaml:"queue_weight"`             // 排队长度的惩罚权重
	SwitchPenalty float64 `yaml:"switch_penalty,omitempty"` // 相位切换惩罚，抑制振荡
	Clamp         float64 `yaml:"clamp"`                    // 奖励截断界，保证有界
}

// Checkpoint 策略参数存取配置
// 说明：File非空时使用文件后端，否则使用MongoDB（URI+DB+Col）
type Checkpoint struct {
	URI  string `yaml:"uri,omitempty"`  // MongoDB连接字符串
	DB   string `yaml:"db,omitempty"`   // 数据库名
	Col  string `yaml:"col,omitempty"`  // 集合名
	File string `yaml:"file,omitempty"` // 文件路径（优先级高于MongoDB）
	Tag  string `yaml:"tag,omitempty"`  // 参数版本标签
}

// Lane 路口车道拓扑
type Lane struct {
	ID         string   `yaml:"id"`
	Capacity   float64  `yaml:"capacity"`             // 压力计算的容量权重
	Downstream []string `yaml:"downstream,omitempty"` // 下游承接车道
	Arrival    float64  `yaml:"arrival,omitempty"`    // 内置模拟器的到达率（辆/秒）
	Discharge  float64  `yaml:"discharge,omitempty"`  // 内置模拟器的绿灯放行率（辆/秒）
}

// Phase 相位定义：该相位放行（绿灯）的进口车道集合
type Phase struct {
	Green []string `yaml:"green"`
}

// Junction 单路口拓扑：有序相位列表与车道参数
type Junction struct {
	ID     string  `yaml:"id"`
	Phases []Phase `yaml:"phases"`
	Lanes  []Lane  `yaml:"lanes"`
}

// Config YAML配置文件的根结构
type Config struct {
	Control    Control    `yaml:"control"`
	Signal     Signal     `yaml:"signal"`
	Training   Training   `yaml:"training"`
	Reward     Reward     `yaml:"reward"`
	Checkpoint Checkpoint `yaml:"checkpoint"`
	Junctions  []Junction `yaml:"junctions"`
}

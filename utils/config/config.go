package config

import "fmt"

// 合法的信控策略名
const (
	PolicyFixed       = "fixed"
	PolicyActuated    = "actuated"
	PolicyMaxPressure = "max_pressure"
	PolicyDQN         = "dqn"
)

// Default 返回带默认值的配置
// 默认值与取值范围见各字段注释；YAML反序列化在默认值之上覆盖
func Default() Config {
	return Config{
		Control: Control{
			Step:   ControlStep{Start: 0, Total: 720, Interval: 5},
			Policy: PolicyMaxPressure,
			Seed:   43,
		},
		Signal: Signal{
			MinGreen:   10,
			Yellow:     3,
			AllRed:     0,
			MaxGreen:   60,
			GapQueue:   3,
			FixedSplit: 15,
		},
		Training: Training{
			Gamma:        0.99,
			EpsilonStart: 1.0,
			EpsilonMin:   0.05,
			EpsilonDecay: 0.995,
			BatchSize:    32,
			BufferSize:   10000,
			TargetSync:   200,
			LearningRate: 1e-3,
			Hidden:       32,
		},
		Reward: Reward{
			WaitWeight:    0.2,
			QueueWeight:   0.05,
			SwitchPenalty: 0,
			Clamp:         5,
		},
	}
}

// Validate 校验全部配置项
// 时序、训练与拓扑参数越界一律返回错误，绝不静默修正
func (c Config) Validate() error {
	if c.Control.Step.Total <= 0 {
		return fmt.Errorf("config: control.step.total must be positive, got %d", c.Control.Step.Total)
	}
	if c.Control.Step.Interval <= 0 {
		return fmt.Errorf("config: control.step.interval must be positive, got %f", c.Control.Step.Interval)
	}
	switch c.Control.Policy {
	case PolicyFixed, PolicyActuated, PolicyMaxPressure, PolicyDQN:
	default:
		return fmt.Errorf("config: unknown policy %q", c.Control.Policy)
	}

	s := c.Signal
	if s.MinGreen <= 0 {
		return fmt.Errorf("config: signal.min_green must be positive, got %f", s.MinGreen)
	}
	if s.Yellow < 0 {
		return fmt.Errorf("config: signal.yellow must be non-negative, got %f", s.Yellow)
	}
	if s.AllRed < 0 {
		return fmt.Errorf("config: signal.all_red must be non-negative, got %f", s.AllRed)
	}
	if s.MaxGreen != 0 && s.MaxGreen < s.MinGreen {
		return fmt.Errorf("config: signal.max_green %f is below min_green %f", s.MaxGreen, s.MinGreen)
	}
	if s.GapQueue < 0 {
		return fmt.Errorf("config: signal.gap_queue must be non-negative, got %f", s.GapQueue)
	}
	if c.Control.Policy == PolicyFixed && s.FixedSplit <= 0 {
		return fmt.Errorf("config: signal.fixed_split must be positive, got %f", s.FixedSplit)
	}

	t := c.Training
	if t.Gamma < 0 || t.Gamma >= 1 {
		return fmt.Errorf("config: training.gamma must be in [0,1), got %f", t.Gamma)
	}
	if t.EpsilonStart < 0 || t.EpsilonStart > 1 {
		return fmt.Errorf("config: training.epsilon_start must be in [0,1], got %f", t.EpsilonStart)
	}
	if t.EpsilonMin < 0 || t.EpsilonMin > t.EpsilonStart {
		return fmt.Errorf("config: training.epsilon_min must be in [0, epsilon_start], got %f", t.EpsilonMin)
	}
	if t.EpsilonDecay <= 0 || t.EpsilonDecay > 1 {
		return fmt.Errorf("config: training.epsilon_decay must be in (0,1], got %f", t.EpsilonDecay)
	}
	if t.BatchSize <= 0 {
		return fmt.Errorf("config: training.batch_size must be positive, got %d", t.BatchSize)
	}
	if t.BufferSize < t.BatchSize {
		return fmt.Errorf("config: training.buffer_size %d is below batch_size %d", t.BufferSize, t.BatchSize)
	}
	if t.TargetSync <= 0 {
		return fmt.Errorf("config: training.target_sync must be positive, got %d", t.TargetSync)
	}
	if t.LearningRate <= 0 {
		return fmt.Errorf("config: training.learning_rate must be positive, got %f", t.LearningRate)
	}
	if t.Hidden <= 0 {
		return fmt.Errorf("config: training.hidden must be positive, got %d", t.Hidden)
	}

	r := c.Reward
	if r.WaitWeight < 0 || r.QueueWeight < 0 || r.SwitchPenalty < 0 {
		return fmt.Errorf("config: reward weights must be non-negative")
	}
	if r.Clamp <= 0 {
		return fmt.Errorf("config: reward.clamp must be positive, got %f", r.Clamp)
	}

	if len(c.Junctions) == 0 {
		return fmt.Errorf("config: at least one junction is required")
	}
	numPhases := -1
	for _, j := range c.Junctions {
		if j.ID == "" {
			return fmt.Errorf("config: junction id must not be empty")
		}
		if len(j.Phases) < 2 {
			return fmt.Errorf("config: junction %s needs at least 2 phases, got %d", j.ID, len(j.Phases))
		}
		laneIDs := make(map[string]struct{}, len(j.Lanes))
		for _, l := range j.Lanes {
			if l.Capacity < 0 {
				return fmt.Errorf("config: junction %s lane %s capacity must be non-negative", j.ID, l.ID)
			}
			laneIDs[l.ID] = struct{}{}
		}
		for _, l := range j.Lanes {
			for _, d := range l.Downstream {
				if _, ok := laneIDs[d]; !ok {
					return fmt.Errorf("config: junction %s lane %s references unknown downstream lane %s", j.ID, l.ID, d)
				}
			}
		}
		for i, p := range j.Phases {
			if len(p.Green) == 0 {
				return fmt.Errorf("config: junction %s phase %d has no green lanes", j.ID, i)
			}
			for _, g := range p.Green {
				if _, ok := laneIDs[g]; !ok {
					return fmt.Errorf("config: junction %s phase %d references unknown lane %s", j.ID, i, g)
				}
			}
		}
		// 共享一套网络参数的学习策略要求各路口动作空间一致
		if c.Control.Policy == PolicyDQN {
			if numPhases == -1 {
				numPhases = len(j.Phases)
			} else if numPhases != len(j.Phases) {
				return fmt.Errorf("config: dqn policy requires homogeneous phase counts, junction %s has %d, expected %d",
					j.ID, len(j.Phases), numPhases)
			}
		}
	}
	return nil
}

// RuntimeConfig 运行时配置
// 功能：校验后的配置对象，仿真各组件只读取它，不再接触原始YAML
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置
}

// NewRuntimeConfig 校验配置并生成运行时配置
func NewRuntimeConfig(config Config) (*RuntimeConfig, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &RuntimeConfig{All: config, C: config.Control}, nil
}

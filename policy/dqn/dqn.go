// 基于深度Q网络的信号控制策略
// 在线网络负责决策与梯度更新，目标网络按固定步数硬同步以稳定回归目标；
// 经验回放打破样本间的时序相关性
package dqn

import (
	"errors"
	"fmt"
	"math"

	"github.com/tsinghua-fib-lab/signalctl/entity/junction"
	"github.com/tsinghua-fib-lab/signalctl/policy"
	"github.com/tsinghua-fib-lab/signalctl/utils/checkpoint"
	"github.com/tsinghua-fib-lab/signalctl/utils/config"
	"github.com/tsinghua-fib-lab/signalctl/utils/randengine"
)

// featureDim 状态特征维度：总排队、最大排队、当前相位
const featureDim = 3

// ErrDiverged 观测特征或网络输出出现NaN/Inf，不可恢复
var ErrDiverged = errors.New("dqn: non-finite value in observation or network output")

// DQN 深度Q网络策略
// 所有交叉口共享同一网络，要求相位数一致（配置校验保证）
type DQN struct {
	cfg        config.Training
	training   bool
	numActions int

	online *network
	target *network
	buffer *replayBuffer
	engine *randengine.Engine

	epsilon float64
	steps   int // 累计梯度更新步数，驱动目标网络同步
}

// New 创建DQN策略
// training为false时跳过探索与学习，只做贪心决策
func New(cfg config.Training, numActions int, training bool, engine *randengine.Engine) *DQN {
	d := &DQN{
		cfg:        cfg,
		training:   training,
		numActions: numActions,
		online:     newNetwork(featureDim, cfg.Hidden, numActions, engine),
		buffer:     newReplayBuffer(cfg.BufferSize),
		engine:     engine,
		epsilon:    cfg.EpsilonStart,
	}
	d.target = d.online.clone()
	return d
}

// Name 策略名
func (d *DQN) Name() string {
	return "dqn"
}

// Epsilon 当前探索率
func (d *DQN) Epsilon() float64 {
	return d.epsilon
}

// features 将快照编码为归一化特征向量
func features(s *junction.Snapshot) []float64 {
	return []float64{
		s.TotalQueue() / 50,
		s.MaxQueue() / 20,
		float64(s.Phase) / float64(s.NumPhases),
	}
}

// Decide ε-贪心决策
// 训练模式下按当前ε随机探索并逐步衰减；推理模式下纯贪心
func (d *DQN) Decide(s *junction.Snapshot) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("dqn: nil snapshot")
	}
	if s.NumPhases != d.numActions {
		return 0, fmt.Errorf("dqn: junction %s has %d phases, network expects %d",
			s.JunctionID, s.NumPhases, d.numActions)
	}
	if d.training && d.engine.PTrue(d.epsilon) {
		d.decayEpsilon()
		return d.engine.Intn(d.numActions), nil
	}
	if d.training {
		d.decayEpsilon()
	}
	x := features(s)
	if !finite(x) {
		return 0, fmt.Errorf("%w: junction %s features %v", ErrDiverged, s.JunctionID, x)
	}
	q := d.online.qValues(x)
	best, bestQ := 0, math.Inf(-1)
	for i, v := range q {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: junction %s action %d q=%f", ErrDiverged, s.JunctionID, i, v)
		}
		if v > bestQ {
			best, bestQ = i, v
		}
	}
	return best, nil
}

func (d *DQN) decayEpsilon() {
	d.epsilon = math.Max(d.cfg.EpsilonMin, d.epsilon*d.cfg.EpsilonDecay)
}

func finite(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Observe 记录一条转移并触发一次训练更新
func (d *DQN) Observe(tr policy.Transition) error {
	if !d.training {
		return nil
	}
	if tr.Prev == nil || tr.Next == nil {
		return fmt.Errorf("dqn: transition with nil snapshot")
	}
	d.buffer.add(transitionRecord{
		state:    features(tr.Prev),
		action:   tr.Action,
		reward:   tr.Reward,
		next:     features(tr.Next),
		terminal: tr.Terminal,
	})
	return d.train()
}

// train 抽一个批次做逐样本SGD更新
// 缓冲不足一个批次时静默跳过，这是唯一允许的空转
func (d *DQN) train() error {
	batch := d.buffer.sample(d.cfg.BatchSize, d.engine)
	if batch == nil {
		return nil
	}
	for _, r := range batch {
		target := r.reward
		if !r.terminal {
			best := math.Inf(-1)
			for _, v := range d.target.qValues(r.next) {
				if v > best {
					best = v
				}
			}
			target += d.cfg.Gamma * best
		}
		if math.IsNaN(target) || math.IsInf(target, 0) {
			return fmt.Errorf("%w: training target=%f", ErrDiverged, target)
		}
		a := d.online.forward(r.state)
		if est := a.q.AtVec(r.action); math.IsNaN(est) || math.IsInf(est, 0) {
			return fmt.Errorf("%w: online estimate=%f", ErrDiverged, est)
		}
		d.online.step(a, r.action, target, d.cfg.LearningRate)
	}
	d.steps++
	if d.steps%d.cfg.TargetSync == 0 {
		d.target.copyFrom(d.online)
		log.Debugf("target network synced at step %d, epsilon=%.4f", d.steps, d.epsilon)
	}
	return nil
}

// EndEpisode 回合结束回调，记录训练进度
func (d *DQN) EndEpisode() {
	if d.training {
		log.Infof("episode end: buffer=%d steps=%d epsilon=%.4f",
			d.buffer.len(), d.steps, d.epsilon)
	}
}

// Params 导出当前在线网络参数用于检查点保存
func (d *DQN) Params(tag string) (checkpoint.Params, error) {
	blob, err := d.online.encode()
	if err != nil {
		return checkpoint.Params{}, err
	}
	return checkpoint.Params{
		Tag:   tag,
		Shape: []int{featureDim, d.cfg.Hidden, d.cfg.Hidden, d.numActions},
		Blob:  blob,
	}, nil
}

// SetParams 从检查点恢复参数，在线与目标网络同时恢复
func (d *DQN) SetParams(p checkpoint.Params) error {
	want := []int{featureDim, d.cfg.Hidden, d.cfg.Hidden, d.numActions}
	if len(p.Shape) != len(want) {
		return fmt.Errorf("dqn: checkpoint shape %v, want %v", p.Shape, want)
	}
	for i, v := range want {
		if p.Shape[i] != v {
			return fmt.Errorf("dqn: checkpoint shape %v, want %v", p.Shape, want)
		}
	}
	if err := d.online.decode(p.Blob); err != nil {
		return err
	}
	d.target.copyFrom(d.online)
	return nil
}

package dqn

import (
	"github.com/tsinghua-fib-lab/signalctl/utils/container"
	"github.com/tsinghua-fib-lab/signalctl/utils/randengine"
)

// transitionRecord 经验回放中的一条转移，状态已编码为特征向量
type transitionRecord struct {
	state    []float64
	action   int
	reward   float64
	next     []float64
	terminal bool
}

// replayBuffer 固定容量的经验回放缓冲，占满后淘汰最早的转移
type replayBuffer struct {
	ring *container.Ring[transitionRecord]
}

func newReplayBuffer(capacity int) *replayBuffer {
	return &replayBuffer{ring: container.NewRing[transitionRecord](capacity)}
}

func (b *replayBuffer) add(r transitionRecord) {
	b.ring.Push(r)
}

func (b *replayBuffer) len() int {
	return b.ring.Len()
}

// sample 无放回地抽取batch条转移，存量不足时返回nil
func (b *replayBuffer) sample(batch int, engine *randengine.Engine) []transitionRecord {
	if b.ring.Len() < batch {
		return nil
	}
	out := make([]transitionRecord, 0, batch)
	for _, i := range engine.SampleIndices(b.ring.Len(), batch) {
		out = append(out, b.ring.At(i))
	}
	return out
}

// 随机数引擎，包装了golang.org/x/exp/rand，提供了一些常用的随机数生成方法
package randengine

import (
	"flag"
	"log"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成
)

// Engine 随机数引擎
// 包装golang.org/x/exp/rand，引擎内所有随机行为（探索、批采样、权重初始化）都经过它，
// 保证同一种子下的决策序列可复现
type Engine struct {
	*rand.Rand
}

// New 创建随机数引擎
// 种子偏移量允许在不修改代码的情况下整体平移随机数序列
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// PTrue 以指定概率返回true
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// DiscreteDistribution 按给定概率分布生成随机数
// 使用累积分布函数的方法实现离散概率分布
func (e *Engine) DiscreteDistribution(weight []float64) int {
	random := .0
	for _, w := range weight {
		random += w
	}
	random *= e.Float64()
	sum := 0.
	for i, w := range weight {
		sum += w
		if sum > random {
			return i
		}
	}
	log.Panicf("randengine: DiscreteDistribution: sum: %f random: %f", sum, random)
	return -1
}

// SampleIndices 从[0,n)中无放回地抽取k个下标
// 用于经验回放的批内无放回采样
func (e *Engine) SampleIndices(n, k int) []int {
	if k > n {
		k = n
	}
	return e.Perm(n)[:k]
}

package dqn

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"

	"github.com/tsinghua-fib-lab/signalctl/utils/randengine"
	"gonum.org/v1/gonum/mat"
)

// network 三层全连接Q值网络（输入→隐藏→隐藏→输出，ReLU激活，输出层线性）
// 输入为交叉口特征向量，输出为各相位的Q值
type network struct {
	w1, w2, w3      *mat.Dense
	b1, b2, b3      *mat.VecDense
	in, hidden, out int
}

// newNetwork 创建并初始化网络，权重按He初始化（标准差sqrt(2/fan_in)），偏置为零
func newNetwork(in, hidden, out int, engine *randengine.Engine) *network {
	n := &network{
		w1: mat.NewDense(hidden, in, nil),
		w2: mat.NewDense(hidden, hidden, nil),
		w3: mat.NewDense(out, hidden, nil),
		b1: mat.NewVecDense(hidden, nil),
		b2: mat.NewVecDense(hidden, nil),
		b3: mat.NewVecDense(out, nil),

		in:     in,
		hidden: hidden,
		out:    out,
	}
	initDense := func(w *mat.Dense) {
		rows, cols := w.Dims()
		std := math.Sqrt(2.0 / float64(cols))
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				w.Set(i, j, engine.NormFloat64()*std)
			}
		}
	}
	initDense(n.w1)
	initDense(n.w2)
	initDense(n.w3)
	return n
}

// activations 一次前向传播的中间量，反向传播时复用
type activations struct {
	x      *mat.VecDense // 输入
	z1, h1 *mat.VecDense // 第一隐藏层的线性输出与ReLU输出
	z2, h2 *mat.VecDense // 第二隐藏层的线性输出与ReLU输出
	q      *mat.VecDense // 输出层Q值
}

// forward 前向传播，保留各层中间量
func (n *network) forward(x []float64) *activations {
	a := &activations{x: mat.NewVecDense(len(x), x)}
	a.z1 = mat.NewVecDense(n.hidden, nil)
	a.z1.MulVec(n.w1, a.x)
	a.z1.AddVec(a.z1, n.b1)
	a.h1 = reluVec(a.z1)
	a.z2 = mat.NewVecDense(n.hidden, nil)
	a.z2.MulVec(n.w2, a.h1)
	a.z2.AddVec(a.z2, n.b2)
	a.h2 = reluVec(a.z2)
	a.q = mat.NewVecDense(n.out, nil)
	a.q.MulVec(n.w3, a.h2)
	a.q.AddVec(a.q, n.b3)
	return a
}

// qValues 计算输入状态下各动作的Q值
func (n *network) qValues(x []float64) []float64 {
	a := n.forward(x)
	out := make([]float64, n.out)
	copy(out, a.q.RawVector().Data)
	return out
}

// step 对单条样本做一次SGD更新
// 损失为(q[action]-target)²/2，只有被选动作的输出产生梯度
// 各层先计算对下层的梯度再更新本层权重，避免用更新后的权重反传
func (n *network) step(a *activations, action int, target, lr float64) {
	dq := mat.NewVecDense(n.out, nil)
	dq.SetVec(action, a.q.AtVec(action)-target)

	dh2 := mat.NewVecDense(n.hidden, nil)
	dh2.MulVec(n.w3.T(), dq)
	n.w3.RankOne(n.w3, -lr, dq, a.h2)
	n.b3.AddScaledVec(n.b3, -lr, dq)

	reluMask(dh2, a.z2)
	dh1 := mat.NewVecDense(n.hidden, nil)
	dh1.MulVec(n.w2.T(), dh2)
	n.w2.RankOne(n.w2, -lr, dh2, a.h1)
	n.b2.AddScaledVec(n.b2, -lr, dh2)

	reluMask(dh1, a.z1)
	n.w1.RankOne(n.w1, -lr, dh1, a.x)
	n.b1.AddScaledVec(n.b1, -lr, dh1)
}

// copyFrom 将src的全部参数硬拷贝到本网络（目标网络同步）
func (n *network) copyFrom(src *network) {
	n.w1.Copy(src.w1)
	n.w2.Copy(src.w2)
	n.w3.Copy(src.w3)
	n.b1.CopyVec(src.b1)
	n.b2.CopyVec(src.b2)
	n.b3.CopyVec(src.b3)
}

// clone 创建参数相同的新网络
func (n *network) clone() *network {
	return &network{
		w1: mat.DenseCopyOf(n.w1),
		w2: mat.DenseCopyOf(n.w2),
		w3: mat.DenseCopyOf(n.w3),
		b1: mat.VecDenseCopyOf(n.b1),
		b2: mat.VecDenseCopyOf(n.b2),
		b3: mat.VecDenseCopyOf(n.b3),

		in:     n.in,
		hidden: n.hidden,
		out:    n.out,
	}
}

// netBlob 参数序列化格式
type netBlob struct {
	W1, W2, W3 []float64
	B1, B2, B3 []float64
}

// encode 将参数序列化为字节块
func (n *network) encode() ([]byte, error) {
	blob := netBlob{
		W1: append([]float64(nil), n.w1.RawMatrix().Data...),
		W2: append([]float64(nil), n.w2.RawMatrix().Data...),
		W3: append([]float64(nil), n.w3.RawMatrix().Data...),
		B1: append([]float64(nil), n.b1.RawVector().Data...),
		B2: append([]float64(nil), n.b2.RawVector().Data...),
		B3: append([]float64(nil), n.b3.RawVector().Data...),
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(blob); err != nil {
		return nil, fmt.Errorf("dqn: encode network: %w", err)
	}
	return buf.Bytes(), nil
}

// decode 从字节块恢复参数，维度不一致时报错
func (n *network) decode(data []byte) error {
	var blob netBlob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&blob); err != nil {
		return fmt.Errorf("dqn: decode network: %w", err)
	}
	if len(blob.W1) != n.hidden*n.in || len(blob.W2) != n.hidden*n.hidden ||
		len(blob.W3) != n.out*n.hidden ||
		len(blob.B1) != n.hidden || len(blob.B2) != n.hidden || len(blob.B3) != n.out {
		return fmt.Errorf("dqn: decode network: parameter shape mismatch (in=%d hidden=%d out=%d)",
			n.in, n.hidden, n.out)
	}
	n.w1 = mat.NewDense(n.hidden, n.in, blob.W1)
	n.w2 = mat.NewDense(n.hidden, n.hidden, blob.W2)
	n.w3 = mat.NewDense(n.out, n.hidden, blob.W3)
	n.b1 = mat.NewVecDense(n.hidden, blob.B1)
	n.b2 = mat.NewVecDense(n.hidden, blob.B2)
	n.b3 = mat.NewVecDense(n.out, blob.B3)
	return nil
}

// reluVec 逐元素ReLU
// NaN必须原样透传到输出层，发散检测依赖它不被当作负值截成0
func reluVec(z *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(z.Len(), nil)
	for i := 0; i < z.Len(); i++ {
		if v := z.AtVec(i); v > 0 || math.IsNaN(v) {
			out.SetVec(i, v)
		}
	}
	return out
}

// reluMask 将z<=0位置的梯度置零（逐元素ReLU导数）
func reluMask(grad, z *mat.VecDense) {
	for i := 0; i < z.Len(); i++ {
		if z.AtVec(i) <= 0 {
			grad.SetVec(i, 0)
		}
	}
}

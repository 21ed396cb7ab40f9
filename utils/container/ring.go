package container

// Ring 固定容量环形缓冲区
// 功能：按插入顺序保存元素，容量占满后覆盖最早插入的元素（FIFO淘汰）
// 说明：淘汰只由插入顺序驱动，与访问无关；经验回放缓冲以它为底层存储
type Ring[T any] struct {
	data  []T
	head  int // 下一个写入位置
	count int
}

// NewRing 创建容量为capacity的环形缓冲区
// capacity必须为正数，否则panic（容量校验应在配置阶段完成）
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("container: ring capacity must be positive")
	}
	return &Ring[T]{data: make([]T, capacity)}
}

// Len 当前元素个数
func (r *Ring[T]) Len() int {
	return r.count
}

// Cap 缓冲区容量
func (r *Ring[T]) Cap() int {
	return len(r.data)
}

// Push 追加元素，占满时覆盖最早的元素
func (r *Ring[T]) Push(v T) {
	r.data[r.head] = v
	r.head = (r.head + 1) % len(r.data)
	if r.count < len(r.data) {
		r.count++
	}
}

// At 返回第i个元素（0为最早插入且仍保留的元素）
func (r *Ring[T]) At(i int) T {
	if i < 0 || i >= r.count {
		panic("container: ring index out of range")
	}
	start := r.head - r.count
	if start < 0 {
		start += len(r.data)
	}
	return r.data[(start+i)%len(r.data)]
}

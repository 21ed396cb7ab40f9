package container

import "container/heap"

// pqItem 优先队列中单个元素
type pqItem[T any] struct {
	value    T
	priority float64
}

// pqHeap 实现heap.Interface的内部存储（小顶堆，优先级越小越靠前）
type pqHeap[T any] []pqItem[T]

func (h pqHeap[T]) Len() int            { return len(h) }
func (h pqHeap[T]) Less(i, j int) bool  { return h[i].priority < h[j].priority }
func (h pqHeap[T]) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *pqHeap[T]) Push(x any)         { *h = append(*h, x.(pqItem[T])) }
func (h *pqHeap[T]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// PriorityQueue 泛型优先队列（小顶堆）
// 功能：按float64优先级组织任意类型元素
// 说明：指标统计用它维护每episode压力最高的K个决策（以压力为优先级的小顶堆，
// 超出K个时弹出堆顶即可保留最大的K个）
type PriorityQueue[T any] struct {
	queue pqHeap[T]
}

// NewPriorityQueue 创建优先队列
func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{queue: make(pqHeap[T], 0)}
}

// Len 获取当前队列长度
func (q *PriorityQueue[T]) Len() int {
	return len(q.queue)
}

// First 获取堆顶元素（优先级数值最小的元素），不弹出
func (q *PriorityQueue[T]) First() T {
	return q.queue[0].value
}

// FirstPriority 获取堆顶元素的优先级，不弹出
func (q *PriorityQueue[T]) FirstPriority() float64 {
	return q.queue[0].priority
}

// Push 加入元素（简单添加），批量添加后需调用Heapify重建堆
func (q *PriorityQueue[T]) Push(value T, priority float64) {
	q.queue = append(q.queue, pqItem[T]{value: value, priority: priority})
}

// Heapify 重新构建堆
func (q *PriorityQueue[T]) Heapify() {
	heap.Init(&q.queue)
}

// HeapPush 加入元素并维护堆结构
func (q *PriorityQueue[T]) HeapPush(value T, priority float64) {
	heap.Push(&q.queue, pqItem[T]{value: value, priority: priority})
}

// HeapPop 弹出优先级数值最小的元素
func (q *PriorityQueue[T]) HeapPop() (value T, priority float64) {
	item := heap.Pop(&q.queue).(pqItem[T])
	return item.value, item.priority
}

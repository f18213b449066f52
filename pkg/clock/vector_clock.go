package clock

// Ordering 表示两个向量时钟之间的因果关系。
type Ordering int

const (
	Equal Ordering = iota
	Less
	Greater
	Concurrent
)

func (o Ordering) String() string {
	switch o {
	case Equal:
		return "Equal"
	case Less:
		return "Less"
	case Greater:
		return "Greater"
	case Concurrent:
		return "Concurrent"
	default:
		return "Unknown"
	}
}

// VectorClock 表示一个版本向量。
// 映射 ReplicaID -> 单调递增的计数器。
// 缺失的键等价于计数器 0。条目只增不减，也永远不会被移除
// （退役副本的条目会一直保留，这是此类时钟的已知开放问题）。
//
// 单写者纪律：一个副本只能对自己的 ID 调用 Increment；
// 其他副本的条目只能通过 Merge（逐项取最大值）发生变化。
type VectorClock map[ReplicaID]uint64

func NewVectorClock() VectorClock {
	return make(VectorClock)
}

// Increment 将 selfID 对应的条目加一。
// 调用方必须保证 selfID 是本副本自己的 ID。
func (vc VectorClock) Increment(selfID ReplicaID) {
	vc[selfID]++
}

// Get 返回指定副本的计数器，缺失时为 0。
func (vc VectorClock) Get(id ReplicaID) uint64 {
	return vc[id]
}

// Merge 将 other 合并进 vc：对出现在任一时钟中的每个副本 ID，
// 结果条目为 max(vc[id], other[id])。
// 逐项取最大值天然满足交换律、结合律和幂等性。
func (vc VectorClock) Merge(other VectorClock) {
	for id, counter := range other {
		if counter > vc[id] {
			vc[id] = counter
		}
	}
}

// Compare 返回 vc 相对于 other 的因果关系：
//
//	Equal      所有条目相等
//	Less       vc 的每个条目 <= other，且至少一个严格小于
//	Greater    对称情形
//	Concurrent 互不支配（有的条目更大，有的更小）
func (vc VectorClock) Compare(other VectorClock) Ordering {
	var less, greater bool

	for id, counter := range vc {
		otherCounter := other[id]
		if counter < otherCounter {
			less = true
		} else if counter > otherCounter {
			greater = true
		}
	}
	for id, otherCounter := range other {
		if _, ok := vc[id]; ok {
			continue // 上面已经比较过
		}
		if otherCounter > 0 {
			less = true
		}
	}

	switch {
	case less && greater:
		return Concurrent
	case less:
		return Less
	case greater:
		return Greater
	default:
		return Equal
	}
}

// HappensBefore 当且仅当 vc 严格先于 other（Compare 返回 Less）。
func (vc VectorClock) HappensBefore(other VectorClock) bool {
	return vc.Compare(other) == Less
}

// Descends 当 vc 涵盖 other 的所有条目（vc >= other）时返回 true。
func (vc VectorClock) Descends(other VectorClock) bool {
	for id, otherCounter := range other {
		if vc[id] < otherCounter {
			return false
		}
	}
	return true
}

// Equal 判断两个时钟是否逐项相等。
func (vc VectorClock) Equal(other VectorClock) bool {
	return vc.Compare(other) == Equal
}

// Clone 返回 vc 的深拷贝。
func (vc VectorClock) Clone() VectorClock {
	out := make(VectorClock, len(vc))
	for id, counter := range vc {
		out[id] = counter
	}
	return out
}

package clock

import "fmt"

// HybridTimestamp 是 (逻辑计数器, 副本 ID) 对。
// 与 VectorClock 的偏序不同，它提供一个全序：
// 先比较计数器，相等时用副本 ID 的字典序裁决。
// 两个独立副本即使在逻辑时间上"打平"，也能在无通信的情况下
// 就唯一的胜者达成一致，这正是 LWW 类型所需要的。
type HybridTimestamp struct {
	Counter uint64    `msgpack:"counter" json:"counter"`
	Replica ReplicaID `msgpack:"replica" json:"replica"`
}

// NewHybridTimestamp 为指定副本创建计数器为 0 的时间戳。
func NewHybridTimestamp(replica ReplicaID) HybridTimestamp {
	return HybridTimestamp{Replica: replica}
}

// Tick 将计数器加一，返回接收者以便链式调用。
func (t *HybridTimestamp) Tick() *HybridTimestamp {
	t.Counter++
	return t
}

// Compare 按 (Counter, Replica) 的字典序比较两个时间戳。
// 返回值:
//   - 如果 t > other: 返回 1
//   - 如果 t == other: 返回 0
//   - 如果 t < other: 返回 -1
func (t HybridTimestamp) Compare(other HybridTimestamp) int {
	if t.Counter > other.Counter {
		return 1
	}
	if t.Counter < other.Counter {
		return -1
	}
	if t.Replica > other.Replica {
		return 1
	}
	if t.Replica < other.Replica {
		return -1
	}
	return 0
}

// Less 当 t 在全序中严格小于 other 时返回 true。
func (t HybridTimestamp) Less(other HybridTimestamp) bool {
	return t.Compare(other) < 0
}

// Equal 判断两个时间戳是否相同。
func (t HybridTimestamp) Equal(other HybridTimestamp) bool {
	return t.Compare(other) == 0
}

func (t HybridTimestamp) String() string {
	return fmt.Sprintf("(%d, %s)", t.Counter, t.Replica)
}

package crdt

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/shinyes/rep_crdt/pkg/clock"
)

// GCounter 实现只增计数器。
// 每个副本只增加自己 ID 对应的条目；总值为所有条目之和。
type GCounter struct {
	id      clock.ReplicaID
	entries map[clock.ReplicaID]uint64
}

// GCounterDelta 是两次快照之间的增量：只包含严格大于基线的条目。
// 合并增量仍然是逐项取最大值，因此所有 CRDT 性质保持不变。
type GCounterDelta map[clock.ReplicaID]uint64

// NewGCounter 创建一个属于指定副本的空计数器。
func NewGCounter(id clock.ReplicaID) *GCounter {
	return &GCounter{
		id:      id,
		entries: make(map[clock.ReplicaID]uint64),
	}
}

// Increment 将本副本的条目加一。
func (c *GCounter) Increment() {
	c.entries[c.id]++
}

// IncrementBy 将本副本的条目增加 delta。
func (c *GCounter) IncrementBy(delta uint64) {
	c.entries[c.id] += delta
}

// Value 返回所有条目之和。
func (c *GCounter) Value() uint64 {
	var total uint64
	for _, v := range c.entries {
		total += v
	}
	return total
}

// Merge 逐项取最大值（不是求和）。
// 每个副本自己的条目单调不减，因此对同一副本的两份快照取最大值
// 既不会丢失增量，也不会重复计数。
func (c *GCounter) Merge(other *GCounter) {
	for id, v := range other.entries {
		if v > c.entries[id] {
			c.entries[id] = v
		}
	}
}

// DeltaSince 返回相对基线的增量：只包含严格大于基线条目的项。
func (c *GCounter) DeltaSince(baseline *GCounter) GCounterDelta {
	delta := make(GCounterDelta)
	for id, v := range c.entries {
		if v > baseline.entries[id] {
			delta[id] = v
		}
	}
	return delta
}

// MergeDelta 将增量合并进计数器，语义与 Merge 相同。
func (c *GCounter) MergeDelta(delta GCounterDelta) {
	for id, v := range delta {
		if v > c.entries[id] {
			c.entries[id] = v
		}
	}
}

// gcounterState 是序列化用的导出结构。
type gcounterState struct {
	ID      clock.ReplicaID            `msgpack:"id"`
	Entries map[clock.ReplicaID]uint64 `msgpack:"entries"`
}

// Bytes 序列化计数器的完整状态，头部带类型标签。
func (c *GCounter) Bytes() ([]byte, error) {
	body, err := msgpack.Marshal(&gcounterState{ID: c.id, Entries: c.entries})
	if err != nil {
		return nil, err
	}
	return frame(TypeGCounter, body), nil
}

// ApplyState 反序列化一份远程快照并合并进来。
// 数据无效时返回错误，本地状态保持不变。
func (c *GCounter) ApplyState(data []byte) error {
	other, err := FromBytesGCounter(data)
	if err != nil {
		return err
	}
	c.Merge(other)
	return nil
}

// FromBytesGCounter 反序列化 GCounter。
func FromBytesGCounter(data []byte) (*GCounter, error) {
	body, err := unframe(TypeGCounter, data)
	if err != nil {
		return nil, err
	}
	var state gcounterState
	if err := msgpack.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	c := NewGCounter(state.ID)
	if state.Entries != nil {
		c.entries = state.Entries
	}
	return c, nil
}

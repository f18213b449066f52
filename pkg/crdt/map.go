package crdt

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/shinyes/rep_crdt/pkg/clock"
)

// Slot 是 Map 中一个键的槽位：值、版本向量、写入标签和删除标记。
// 删除只打墓碑，不抹掉槽位——墓碑必须留存下来，
// 才能在合并时压制因果上更旧的并发插入。
//
// Tag 在每次本地写入（Set/Remove）时生成一次，此后不再改写：
// 合并只会在两个已有标签之间做选择，绝不凭合并后的时钟造新标签。
// 并发存活值的平局由 Tag 的全序裁决，因此胜者与合并顺序无关。
type Slot[V any] struct {
	Value   V                     `msgpack:"value"`
	Clock   clock.VectorClock     `msgpack:"clock"`
	Tag     clock.HybridTimestamp `msgpack:"tag"`
	Deleted bool                  `msgpack:"deleted"`
}

// Map 实现键 -> 带版本槽位的收敛映射。
type Map[K comparable, V any] struct {
	id    clock.ReplicaID
	slots map[K]*Slot[V]
}

// NewMap 创建一个属于指定副本的空映射。
func NewMap[K comparable, V any](id clock.ReplicaID) *Map[K, V] {
	return &Map[K, V]{
		id:    id,
		slots: make(map[K]*Slot[V]),
	}
}

// Set 创建或覆盖键的槽位，并推进槽位时钟中本副本的条目。
// 对已删除的键写入会复活它（前提是这次写入因果上晚于删除）。
func (m *Map[K, V]) Set(key K, value V) {
	slot, ok := m.slots[key]
	if !ok {
		slot = &Slot[V]{Clock: clock.NewVectorClock()}
		m.slots[key] = slot
	}
	slot.Clock.Increment(m.id)
	slot.Value = value
	slot.Tag = writeTag(slot.Clock, m.id)
	slot.Deleted = false
}

// Get 返回键对应的值；槽位不存在或已删除时第二个返回值为 false。
func (m *Map[K, V]) Get(key K) (V, bool) {
	slot, ok := m.slots[key]
	if !ok || slot.Deleted {
		var zero V
		return zero, false
	}
	return slot.Value, true
}

// Has 判断键是否存在且未删除。
func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Remove 给已存在的槽位打墓碑并推进其时钟。
// 键不存在时不做任何事，返回 false。
func (m *Map[K, V]) Remove(key K) bool {
	slot, ok := m.slots[key]
	if !ok || slot.Deleted {
		return false
	}
	slot.Clock.Increment(m.id)
	slot.Tag = writeTag(slot.Clock, m.id)
	slot.Deleted = true
	var zero V
	slot.Value = zero
	return true
}

// Keys 返回所有未删除的键。
func (m *Map[K, V]) Keys() []K {
	out := make([]K, 0, len(m.slots))
	for k, slot := range m.slots {
		if !slot.Deleted {
			out = append(out, k)
		}
	}
	return out
}

// Values 返回所有未删除槽位的值。
func (m *Map[K, V]) Values() []V {
	out := make([]V, 0, len(m.slots))
	for _, slot := range m.slots {
		if !slot.Deleted {
			out = append(out, slot.Value)
		}
	}
	return out
}

// Len 返回未删除槽位的数量。
func (m *Map[K, V]) Len() int {
	n := 0
	for _, slot := range m.slots {
		if !slot.Deleted {
			n++
		}
	}
	return n
}

// Merge 逐键合并槽位：
//   - 本地没有的键直接采纳远程槽位；
//   - 一方时钟支配另一方时，被支配的一方整体让位；
//   - 两个时钟并发时合并时钟，墓碑胜出（任一方已删除则结果为删除）；
//     双方都是存活值时，由写入标签的全序挑选值。标签是写入时
//     一次性打上的，合并绝不改写，所以不论更新经过多少次中转、
//     以什么顺序到达，每个副本看到的都是同一组标签和同一个胜者。
func (m *Map[K, V]) Merge(other *Map[K, V]) {
	for key, remote := range other.slots {
		local, ok := m.slots[key]
		if !ok {
			m.slots[key] = cloneSlot(remote)
			continue
		}

		switch local.Clock.Compare(remote.Clock) {
		case clock.Greater, clock.Equal:
			// 本地已涵盖远程的所有更新。

		case clock.Less:
			m.slots[key] = cloneSlot(remote)

		case clock.Concurrent:
			merged := local.Clock.Clone()
			merged.Merge(remote.Clock)

			switch {
			case local.Deleted || remote.Deleted:
				// 并发的删除与插入打平时墓碑永远胜出，
				// 这是每个副本都执行的同一条规则。
				var zero V
				local.Value = zero
				local.Deleted = true
			case local.Tag.Less(remote.Tag):
				local.Value = remote.Value
			}
			if local.Tag.Less(remote.Tag) {
				local.Tag = remote.Tag
			}
			local.Clock = merged
		}
	}
}

func cloneSlot[V any](s *Slot[V]) *Slot[V] {
	return &Slot[V]{
		Value:   s.Value,
		Clock:   s.Clock.Clone(),
		Tag:     s.Tag,
		Deleted: s.Deleted,
	}
}

// writeTag 为一次本地写入生成标签：计数器取写入后槽位时钟的条目
// 总和，副本 ID 取写入者。因果上更晚的写入总和严格更大，所以标签
// 全序与因果序一致；真正并发的写入则由 (计数器, 副本 ID) 裁决。
func writeTag(vc clock.VectorClock, writer clock.ReplicaID) clock.HybridTimestamp {
	var sum uint64
	for _, v := range vc {
		sum += v
	}
	return clock.HybridTimestamp{Counter: sum, Replica: writer}
}

// mapState 是序列化用的导出结构。
type mapState[K comparable, V any] struct {
	ID    clock.ReplicaID `msgpack:"id"`
	Slots map[K]*Slot[V]  `msgpack:"slots"`
}

// Bytes 序列化映射的完整状态（包括墓碑），头部带类型标签。
func (m *Map[K, V]) Bytes() ([]byte, error) {
	body, err := msgpack.Marshal(&mapState[K, V]{ID: m.id, Slots: m.slots})
	if err != nil {
		return nil, err
	}
	return frame(TypeMap, body), nil
}

// ApplyState 反序列化一份远程快照并合并进来。
func (m *Map[K, V]) ApplyState(data []byte) error {
	other, err := FromBytesMap[K, V](data)
	if err != nil {
		return err
	}
	m.Merge(other)
	return nil
}

// FromBytesMap 反序列化 Map。
func FromBytesMap[K comparable, V any](data []byte) (*Map[K, V], error) {
	body, err := unframe(TypeMap, data)
	if err != nil {
		return nil, err
	}
	var state mapState[K, V]
	if err := msgpack.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	m := NewMap[K, V](state.ID)
	if state.Slots != nil {
		m.slots = state.Slots
	}
	for _, slot := range m.slots {
		if slot.Clock == nil {
			slot.Clock = clock.NewVectorClock()
		}
	}
	return m, nil
}

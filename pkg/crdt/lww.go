package crdt

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/shinyes/rep_crdt/pkg/clock"
)

// LWWRegister 实现最后写入胜出 (Last-Write-Wins) 寄存器。
// 时间戳是 (计数器, 副本 ID) 对，其全序保证两个副本即使
// 独立写入也能就唯一胜者达成一致。
type LWWRegister[T any] struct {
	owner     clock.ReplicaID
	value     T
	timestamp clock.HybridTimestamp
}

// NewLWWRegister 创建一个属于指定副本的空寄存器。
func NewLWWRegister[T any](owner clock.ReplicaID) *LWWRegister[T] {
	return &LWWRegister[T]{
		owner:     owner,
		timestamp: clock.NewHybridTimestamp(owner),
	}
}

// Set 推进本副本的时间戳并替换值。
func (r *LWWRegister[T]) Set(value T) {
	r.timestamp = clock.HybridTimestamp{
		Counter: r.timestamp.Counter + 1,
		Replica: r.owner,
	}
	r.value = value
}

// Get 返回当前值。
func (r *LWWRegister[T]) Get() T {
	return r.value
}

// Timestamp 返回当前值对应的时间戳。
func (r *LWWRegister[T]) Timestamp() clock.HybridTimestamp {
	return r.timestamp
}

// Merge 在 other 的时间戳在全序中严格更大时采纳它的值和时间戳，
// 否则保持不变。全序使得该操作满足交换律与幂等性：
// 观察到同一组写入的副本无论合并顺序如何都收敛到同一胜者。
func (r *LWWRegister[T]) Merge(other *LWWRegister[T]) {
	if r.timestamp.Less(other.timestamp) {
		r.value = other.value
		r.timestamp = other.timestamp
	}
}

// lwwState 是序列化用的导出结构。
type lwwState[T any] struct {
	Owner     clock.ReplicaID       `msgpack:"owner"`
	Value     T                     `msgpack:"value"`
	Timestamp clock.HybridTimestamp `msgpack:"timestamp"`
}

// Bytes 序列化寄存器的完整状态，头部带类型标签。
func (r *LWWRegister[T]) Bytes() ([]byte, error) {
	body, err := msgpack.Marshal(&lwwState[T]{
		Owner:     r.owner,
		Value:     r.value,
		Timestamp: r.timestamp,
	})
	if err != nil {
		return nil, err
	}
	return frame(TypeLWW, body), nil
}

// ApplyState 反序列化一份远程快照并合并进来。
func (r *LWWRegister[T]) ApplyState(data []byte) error {
	other, err := FromBytesLWW[T](data)
	if err != nil {
		return err
	}
	r.Merge(other)
	return nil
}

// FromBytesLWW 反序列化 LWWRegister。
func FromBytesLWW[T any](data []byte) (*LWWRegister[T], error) {
	body, err := unframe(TypeLWW, data)
	if err != nil {
		return nil, err
	}
	var state lwwState[T]
	if err := msgpack.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return &LWWRegister[T]{
		owner:     state.Owner,
		value:     state.Value,
		timestamp: state.Timestamp,
	}, nil
}

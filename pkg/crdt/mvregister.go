package crdt

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/shinyes/rep_crdt/pkg/clock"
)

// MVPair 是多值寄存器中的一个 (值, 时间戳) 对。
type MVPair[T comparable] struct {
	Value     T                     `msgpack:"value"`
	Timestamp clock.HybridTimestamp `msgpack:"timestamp"`
}

// MVRegister 实现多值 (Multi-Value) 寄存器。
// 与 LWWRegister 不同，并发写入不会被悄悄丢弃：
// 计数器相同但来自不同副本的写入并排保留，由调用方呈现或裁决。
// 没有并发写入时寄存器收敛为单个值。
type MVRegister[T comparable] struct {
	owner clock.ReplicaID
	// last 是本副本生成过的最大计数器，作为 Set 的单调下限。
	// 只依赖可见时间戳推导新戳会让两个副本在交换更新前
	// 从同样陈旧的状态算出相同的计数器；本地下限消除了这种回退。
	last  uint64
	pairs []MVPair[T]
}

// NewMVRegister 创建一个属于指定副本的空寄存器。
func NewMVRegister[T comparable](owner clock.ReplicaID) *MVRegister[T] {
	return &MVRegister[T]{owner: owner}
}

// Set 用一个严格大于所有可见时间戳的新时间戳替换整个值集。
func (r *MVRegister[T]) Set(value T) {
	next := r.last
	for _, p := range r.pairs {
		if p.Timestamp.Counter > next {
			next = p.Timestamp.Counter
		}
	}
	next++

	r.last = next
	r.pairs = []MVPair[T]{{
		Value:     value,
		Timestamp: clock.HybridTimestamp{Counter: next, Replica: r.owner},
	}}
}

// Values 返回当前保留的所有值。
func (r *MVRegister[T]) Values() []T {
	out := make([]T, 0, len(r.pairs))
	for _, p := range r.pairs {
		out = append(out, p.Value)
	}
	return out
}

// HasConflicts 当寄存器保留了多个并发写入时返回 true。
func (r *MVRegister[T]) HasConflicts() bool {
	return len(r.pairs) > 1
}

// Merge 扫描双方的所有 (值, 时间戳) 对，只保留计数器等于
// 最大可见计数器的对，并按 (值, 时间戳) 去重。
// 计数器相同、副本不同的写入是真正的并发写入，全部保留。
func (r *MVRegister[T]) Merge(other *MVRegister[T]) {
	var maxCounter uint64
	for _, p := range r.pairs {
		if p.Timestamp.Counter > maxCounter {
			maxCounter = p.Timestamp.Counter
		}
	}
	for _, p := range other.pairs {
		if p.Timestamp.Counter > maxCounter {
			maxCounter = p.Timestamp.Counter
		}
	}

	kept := make([]MVPair[T], 0, 2)
	for _, p := range r.pairs {
		if p.Timestamp.Counter == maxCounter && !containsPair(kept, p) {
			kept = append(kept, p)
		}
	}
	for _, p := range other.pairs {
		if p.Timestamp.Counter == maxCounter && !containsPair(kept, p) {
			kept = append(kept, p)
		}
	}
	r.pairs = kept

	// 保持本地单调下限不落后于任何已见计数器。
	if maxCounter > r.last {
		r.last = maxCounter
	}
}

func containsPair[T comparable](pairs []MVPair[T], p MVPair[T]) bool {
	for _, q := range pairs {
		if q.Value == p.Value && q.Timestamp.Equal(p.Timestamp) {
			return true
		}
	}
	return false
}

// ResolveToLWW 按时间戳全序确定性地保留最大的一个值，丢弃其余。
// 计数器相同时由副本 ID 裁决，因此不存在平局。
func (r *MVRegister[T]) ResolveToLWW() {
	if len(r.pairs) <= 1 {
		return
	}
	winner := r.pairs[0]
	for _, p := range r.pairs[1:] {
		if winner.Timestamp.Less(p.Timestamp) {
			winner = p
		}
	}
	r.pairs = []MVPair[T]{winner}
}

// mvState 是序列化用的导出结构。
type mvState[T comparable] struct {
	Owner clock.ReplicaID `msgpack:"owner"`
	Last  uint64          `msgpack:"last"`
	Pairs []MVPair[T]     `msgpack:"pairs"`
}

// Bytes 序列化寄存器的完整状态，头部带类型标签。
func (r *MVRegister[T]) Bytes() ([]byte, error) {
	body, err := msgpack.Marshal(&mvState[T]{Owner: r.owner, Last: r.last, Pairs: r.pairs})
	if err != nil {
		return nil, err
	}
	return frame(TypeMV, body), nil
}

// ApplyState 反序列化一份远程快照并合并进来。
func (r *MVRegister[T]) ApplyState(data []byte) error {
	other, err := FromBytesMV[T](data)
	if err != nil {
		return err
	}
	r.Merge(other)
	return nil
}

// FromBytesMV 反序列化 MVRegister。
func FromBytesMV[T comparable](data []byte) (*MVRegister[T], error) {
	body, err := unframe(TypeMV, data)
	if err != nil {
		return nil, err
	}
	var state mvState[T]
	if err := msgpack.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return &MVRegister[T]{
		owner: state.Owner,
		last:  state.Last,
		pairs: state.Pairs,
	}, nil
}

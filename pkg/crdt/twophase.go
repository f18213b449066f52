package crdt

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/shinyes/rep_crdt/pkg/clock"
)

// TwoPhaseSet 实现两阶段 (2P) 集合：一个只增的 added 集合
// 加一个只增的 removed 墓碑集合。元素可见当且仅当它在 added 中
// 且不在 removed 中。
//
// 按设计（不是缺陷）：元素一旦进入 removed 就永远不可见，
// 之后再 Add 也无法复活。需要可重复增删的集合语义时
// 应选用 OR-Set 一类的类型，而不是"修复"这条规则。
type TwoPhaseSet[T comparable] struct {
	added   *Set[T]
	removed *Set[T]
}

// NewTwoPhaseSet 创建一个属于指定副本的空两阶段集合。
func NewTwoPhaseSet[T comparable](id clock.ReplicaID) *TwoPhaseSet[T] {
	return &TwoPhaseSet[T]{
		added:   NewSet[T](id),
		removed: NewSet[T](id),
	}
}

// Add 将元素加入 added 集合。
func (s *TwoPhaseSet[T]) Add(element T) {
	s.added.Add(element)
}

// Remove 将元素加入 removed 集合。
// 不要求元素已经在 added 中：先到的删除同样压制后到的添加。
func (s *TwoPhaseSet[T]) Remove(element T) {
	s.removed.Add(element)
}

// Contains 判断元素是否可见。
func (s *TwoPhaseSet[T]) Contains(element T) bool {
	return s.added.Contains(element) && !s.removed.Contains(element)
}

// Elements 返回所有可见元素。
func (s *TwoPhaseSet[T]) Elements() []T {
	out := make([]T, 0, s.added.Len())
	for _, e := range s.added.Elements() {
		if !s.removed.Contains(e) {
			out = append(out, e)
		}
	}
	return out
}

// Len 返回可见元素数量。
func (s *TwoPhaseSet[T]) Len() int {
	return len(s.Elements())
}

// Merge 独立合并 added 和 removed 两个底层集合。
func (s *TwoPhaseSet[T]) Merge(other *TwoPhaseSet[T]) {
	s.added.Merge(other.added)
	s.removed.Merge(other.removed)
}

// twoPhaseState 是序列化用的导出结构。
type twoPhaseState struct {
	Added   []byte `msgpack:"added"`
	Removed []byte `msgpack:"removed"`
}

// Bytes 序列化两阶段集合的完整状态，头部带类型标签。
// 两个底层集合各自带自己的标签嵌套在内。
func (s *TwoPhaseSet[T]) Bytes() ([]byte, error) {
	added, err := s.added.Bytes()
	if err != nil {
		return nil, err
	}
	removed, err := s.removed.Bytes()
	if err != nil {
		return nil, err
	}
	body, err := msgpack.Marshal(&twoPhaseState{Added: added, Removed: removed})
	if err != nil {
		return nil, err
	}
	return frame(Type2PSet, body), nil
}

// ApplyState 反序列化一份远程快照并合并进来。
func (s *TwoPhaseSet[T]) ApplyState(data []byte) error {
	other, err := FromBytesTwoPhaseSet[T](data)
	if err != nil {
		return err
	}
	s.Merge(other)
	return nil
}

// FromBytesTwoPhaseSet 反序列化 TwoPhaseSet。
func FromBytesTwoPhaseSet[T comparable](data []byte) (*TwoPhaseSet[T], error) {
	body, err := unframe(Type2PSet, data)
	if err != nil {
		return nil, err
	}
	var state twoPhaseState
	if err := msgpack.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	added, err := FromBytesSet[T](state.Added)
	if err != nil {
		return nil, err
	}
	removed, err := FromBytesSet[T](state.Removed)
	if err != nil {
		return nil, err
	}
	return &TwoPhaseSet[T]{added: added, removed: removed}, nil
}

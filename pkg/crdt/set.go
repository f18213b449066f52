package crdt

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/shinyes/rep_crdt/pkg/clock"
)

// Set 实现只增 (Grow-Only) 集合。
// 每个元素关联一个版本向量，记录哪些副本见证过这次添加。
// 按设计没有移除能力；需要删除语义时用 TwoPhaseSet。
type Set[T comparable] struct {
	id    clock.ReplicaID
	elems map[T]clock.VectorClock
}

// NewSet 创建一个属于指定副本的空集合。
func NewSet[T comparable](id clock.ReplicaID) *Set[T] {
	return &Set[T]{
		id:    id,
		elems: make(map[T]clock.VectorClock),
	}
}

// Add 添加元素并推进其时钟中本副本的条目。
// 重复添加只推进时钟，不改变成员关系。
func (s *Set[T]) Add(element T) {
	vc, ok := s.elems[element]
	if !ok {
		vc = clock.NewVectorClock()
		s.elems[element] = vc
	}
	vc.Increment(s.id)
}

// Contains 判断元素是否在集合中。
func (s *Set[T]) Contains(element T) bool {
	_, ok := s.elems[element]
	return ok
}

// Elements 返回集合中的所有元素。
func (s *Set[T]) Elements() []T {
	out := make([]T, 0, len(s.elems))
	for e := range s.elems {
		out = append(out, e)
	}
	return out
}

// Len 返回元素数量。
func (s *Set[T]) Len() int {
	return len(s.elems)
}

// Merge 逐元素合并：双方都有时合并时钟，只有一方有时采纳那一方。
func (s *Set[T]) Merge(other *Set[T]) {
	for e, remoteVC := range other.elems {
		if localVC, ok := s.elems[e]; ok {
			localVC.Merge(remoteVC)
		} else {
			s.elems[e] = remoteVC.Clone()
		}
	}
}

// setState 是序列化用的导出结构。
type setState[T comparable] struct {
	ID    clock.ReplicaID         `msgpack:"id"`
	Elems map[T]clock.VectorClock `msgpack:"elems"`
}

// Bytes 序列化集合的完整状态，头部带类型标签。
func (s *Set[T]) Bytes() ([]byte, error) {
	body, err := msgpack.Marshal(&setState[T]{ID: s.id, Elems: s.elems})
	if err != nil {
		return nil, err
	}
	return frame(TypeSet, body), nil
}

// ApplyState 反序列化一份远程快照并合并进来。
func (s *Set[T]) ApplyState(data []byte) error {
	other, err := FromBytesSet[T](data)
	if err != nil {
		return err
	}
	s.Merge(other)
	return nil
}

// FromBytesSet 反序列化 Set。
func FromBytesSet[T comparable](data []byte) (*Set[T], error) {
	body, err := unframe(TypeSet, data)
	if err != nil {
		return nil, err
	}
	var state setState[T]
	if err := msgpack.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	s := NewSet[T](state.ID)
	if state.Elems != nil {
		s.elems = state.Elems
	}
	for e, vc := range s.elems {
		if vc == nil {
			s.elems[e] = clock.NewVectorClock()
		}
	}
	return s, nil
}

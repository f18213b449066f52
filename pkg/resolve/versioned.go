// Package resolve 为本身不满足 CRDT 合并律的普通值提供通用冲突裁决。
//
// 裁决遵守一条铁律：因果序先于一切启发式。只要一个版本在因果上
// 先于另一个（版本向量 happens-before），较晚的一方直接胜出，
// 配置的策略完全不参与；策略只用于真正并发（互不可比）的版本。
package resolve

import (
	"time"

	"github.com/shinyes/rep_crdt/pkg/clock"
)

// Versioned 包装一个没有内在合并律的应用值，
// 附带版本向量、物理时间戳（Unix 毫秒）和持有副本的 ID。
type Versioned[T any] struct {
	Value     T
	Clock     clock.VectorClock
	Timestamp int64
	Replica   clock.ReplicaID
}

// NewVersioned 创建一个初始版本：时钟推进一次，时间取当前物理时间。
func NewVersioned[T any](replica clock.ReplicaID, value T) Versioned[T] {
	vc := clock.NewVectorClock()
	vc.Increment(replica)
	return Versioned[T]{
		Value:     value,
		Clock:     vc,
		Timestamp: time.Now().UnixMilli(),
		Replica:   replica,
	}
}

// Update 替换值并推进本副本的时钟条目与物理时间戳。
func (v *Versioned[T]) Update(value T) {
	v.Value = value
	v.Clock.Increment(v.Replica)
	v.Timestamp = time.Now().UnixMilli()
}

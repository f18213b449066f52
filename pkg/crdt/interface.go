// Package crdt 实现一组收敛复制数据类型 (CRDT)。
//
// 每种类型的 Merge 满足交换律、结合律和幂等性，因此任意多个副本
// 在以任意顺序、任意次数交换状态之后都会收敛到相同的值。传输层
// 只需保证最终把每个更新送达每个副本（至少一次、乱序皆可）。
//
// 本包不做任何内部加锁：同一实例若被多个 goroutine 共享，
// 由调用方负责同步（例如用互斥锁包裹调用，或单 goroutine 持有）。
package crdt

import (
	"errors"
	"fmt"
)

// Type 标识 CRDT 的类型，序列化时写入字节流头部。
type Type byte

const (
	TypeGCounter Type = 0x01
	TypeLWW      Type = 0x02
	TypeMV       Type = 0x03
	TypeMap      Type = 0x04
	TypeSet      Type = 0x05
	Type2PSet    Type = 0x06
)

var (
	// ErrInvalidData 表示反序列化输入不是合法的 CRDT 状态。
	// 收到此错误时必须丢弃该远程更新，本地状态保持不变。
	ErrInvalidData = errors.New("CRDT 状态数据无效")
)

// State 是所有 CRDT 状态类型的共同契约。
// 类型参数 S 固定为实现类型自身的指针，因此只有同类型的
// 实例才能相互合并，由编译器保证，而不是运行时类型断言。
type State[S any] interface {
	// Merge 将另一份同类型状态合并进来。
	// 必须满足交换律、结合律和幂等性。
	Merge(other S)

	// Bytes 返回可交给传输层的完整状态快照。
	Bytes() ([]byte, error)
}

// frame 在序列化状态前写入类型标签字节。
func frame(t Type, body []byte) []byte {
	out := make([]byte, 0, len(body)+1)
	out = append(out, byte(t))
	return append(out, body...)
}

// unframe 校验类型标签并返回状态体。
// 标签不匹配说明载荷被投错了类型，必须整体拒绝。
func unframe(t Type, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: 数据为空", ErrInvalidData)
	}
	if Type(data[0]) != t {
		return nil, fmt.Errorf("%w: 类型标签不匹配, 预期 0x%02x 实际 0x%02x",
			ErrInvalidData, byte(t), data[0])
	}
	return data[1:], nil
}

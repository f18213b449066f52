// Package wire 定义核心与传输层之间的最小线上契约。
//
// 传输层（广播、房间、WebSocket 成帧等）对本包是黑盒：
// 本地变更后它从核心取一份序列化的快照或增量装进 Envelope 发出去；
// 远端收到后解码 Envelope，把载荷交给对应 CRDT 的
// ApplyState/MergeDelta。投递可以乱序、可以重复，核心不关心。
package wire

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/shinyes/rep_crdt/pkg/clock"
)

// PayloadKind 区分载荷是完整状态还是增量。
type PayloadKind byte

const (
	KindState PayloadKind = 0x01
	KindDelta PayloadKind = 0x02
)

var (
	// ErrInvalidEnvelope 表示收到的信封格式非法。
	// 调用方必须丢弃该更新并上报错误，绝不能部分应用。
	ErrInvalidEnvelope = errors.New("信封数据无效")
)

// Envelope 是一次更新在线路上的包装：
// 来源副本、发送时刻的版本向量、类型专属的序列化载荷。
type Envelope struct {
	ReplicaID string            `msgpack:"replica_id"`
	Clock     map[string]uint64 `msgpack:"clock"`
	Kind      PayloadKind       `msgpack:"kind"`
	Payload   []byte            `msgpack:"payload"`
}

// NewEnvelope 用指定来源和版本向量包装一份载荷。
func NewEnvelope(replica clock.ReplicaID, vc clock.VectorClock, kind PayloadKind, payload []byte) *Envelope {
	return &Envelope{
		ReplicaID: string(replica),
		Clock:     FlattenClock(vc),
		Kind:      kind,
		Payload:   payload,
	}
}

// VectorClock 还原信封携带的版本向量。
func (e *Envelope) VectorClock() clock.VectorClock {
	vc := clock.NewVectorClock()
	for id, v := range e.Clock {
		vc[clock.ReplicaID(id)] = v
	}
	return vc
}

// Encode 序列化信封。来源副本 ID 为空时拒绝编码。
func (e *Envelope) Encode() ([]byte, error) {
	if e.ReplicaID == "" {
		return nil, fmt.Errorf("%w: 缺少来源副本 ID", ErrInvalidEnvelope)
	}
	return msgpack.Marshal(e)
}

// Decode 反序列化信封并做基本校验。
// 失败时返回错误，调用方应丢弃该更新——本地状态不会被触碰。
func Decode(data []byte) (*Envelope, error) {
	var e Envelope
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if e.ReplicaID == "" {
		return nil, fmt.Errorf("%w: 缺少来源副本 ID", ErrInvalidEnvelope)
	}
	if e.Kind != KindState && e.Kind != KindDelta {
		return nil, fmt.Errorf("%w: 未知载荷类型 0x%02x", ErrInvalidEnvelope, byte(e.Kind))
	}
	return &e, nil
}

// FlattenClock 将版本向量转成线上契约要求的 map[string]uint64。
func FlattenClock(vc clock.VectorClock) map[string]uint64 {
	out := make(map[string]uint64, len(vc))
	for id, v := range vc {
		out[string(id)] = v
	}
	return out
}

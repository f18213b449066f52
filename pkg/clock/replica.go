package clock

import "github.com/google/uuid"

// ReplicaID 标识一个逻辑副本（一个会话、设备或进程）。
// 它在副本的整个生命周期内创建一次，之后不可变。
// 字符串的字典序同时充当确定性的平局裁决顺序。
type ReplicaID string

// NewReplicaID 生成一个全局唯一的副本 ID。
func NewReplicaID() ReplicaID {
	return ReplicaID(uuid.NewString())
}

// Less 按字典序比较两个副本 ID。
func (r ReplicaID) Less(other ReplicaID) bool {
	return r < other
}

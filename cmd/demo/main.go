// 三副本收敛演示: 两个"客户端"各自离线修改共享状态,
// 通过序列化快照(模拟不可靠传输: 乱序 + 重复投递)交换更新,
// 最终双方收敛到同一状态。
package main

import (
	"fmt"
	"os"

	"github.com/shinyes/rep_crdt/pkg/clock"
	"github.com/shinyes/rep_crdt/pkg/crdt"
	"github.com/shinyes/rep_crdt/pkg/resolve"
	"github.com/shinyes/rep_crdt/pkg/wire"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	idA := clock.NewReplicaID()
	idB := clock.NewReplicaID()
	fmt.Printf("副本 A: %s\n副本 B: %s\n\n", idA, idB)

	if err := counterDemo(idA, idB); err != nil {
		return err
	}
	if err := mapDemo(idA, idB); err != nil {
		return err
	}
	return resolverDemo(idA, idB)
}

// counterDemo: 两个副本独立计数, 乱序+重复投递快照后读数一致。
// 每个信封携带发送方当时的版本向量, 接收方借它判断因果关系。
func counterDemo(idA, idB clock.ReplicaID) error {
	fmt.Println("== GCounter ==")

	a := crdt.NewGCounter(idA)
	b := crdt.NewGCounter(idB)
	vcA := clock.NewVectorClock()
	vcB := clock.NewVectorClock()

	a.IncrementBy(3)
	vcA.Increment(idA)
	b.IncrementBy(5)
	vcB.Increment(idB)

	snapA, err := pack(idA, vcA, a)
	if err != nil {
		return err
	}
	snapB, err := pack(idB, vcB, b)
	if err != nil {
		return err
	}

	// 模拟至少一次、乱序的投递
	for _, data := range [][]byte{snapB, snapB} {
		env, err := wire.Decode(data)
		if err != nil {
			return err
		}
		remote := env.VectorClock()
		fmt.Printf("A 收到来自 %s 的更新, 与本地版本关系: %v\n", env.ReplicaID[:8], vcA.Compare(remote))
		if err := a.ApplyState(env.Payload); err != nil {
			return err
		}
		vcA.Merge(remote)
	}
	env, err := wire.Decode(snapA)
	if err != nil {
		return err
	}
	if err := b.ApplyState(env.Payload); err != nil {
		return err
	}
	vcB.Merge(env.VectorClock())

	fmt.Printf("A 读到 %d, B 读到 %d, 版本向量一致: %v\n\n", a.Value(), b.Value(), vcA.Equal(vcB))
	return nil
}

// mapDemo: 并发的删除与写入打平时墓碑胜出, 双方结论一致。
func mapDemo(idA, idB clock.ReplicaID) error {
	fmt.Println("== Map (并发删除 vs 写入) ==")

	a := crdt.NewMap[string, string](idA)
	a.Set("title", "草稿")

	b := crdt.NewMap[string, string](idB)
	if err := apply(b, a); err != nil {
		return err
	}

	a.Remove("title")    // A 删除
	b.Set("title", "定稿") // B 并发改写

	if err := apply(a, b); err != nil {
		return err
	}
	if err := apply(b, a); err != nil {
		return err
	}

	_, okA := a.Get("title")
	_, okB := b.Get("title")
	fmt.Printf("title 在 A 可见: %v, 在 B 可见: %v\n\n", okA, okB)
	return nil
}

// resolverDemo: 普通值没有合并律, 交给冲突裁决层。
func resolverDemo(idA, idB clock.ReplicaID) error {
	fmt.Println("== ConflictResolver ==")

	v1 := resolve.NewVersioned(idA, "红色")
	v2 := resolve.NewVersioned(idB, "蓝色")
	v2.Timestamp = v1.Timestamp + 50 // v2 物理时间更晚

	res, err := resolve.NewResolver[string](resolve.LastWriteWins).Resolve(v1, v2)
	if err != nil {
		return err
	}
	fmt.Printf("并发修改按 LastWriteWins 裁决为: %s\n", res.Value)

	merged, err := resolve.ThreeWayMerge("底稿", "底稿", "对方的修改", resolve.Manual)
	if err != nil {
		return err
	}
	fmt.Printf("三方合并结果: %s\n", merged)
	return nil
}

func pack(id clock.ReplicaID, vc clock.VectorClock, c *crdt.GCounter) ([]byte, error) {
	payload, err := c.Bytes()
	if err != nil {
		return nil, err
	}
	return wire.NewEnvelope(id, vc, wire.KindState, payload).Encode()
}

func apply(dst, src *crdt.Map[string, string]) error {
	data, err := src.Bytes()
	if err != nil {
		return err
	}
	return dst.ApplyState(data)
}

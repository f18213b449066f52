package crdt

import (
	"sort"
	"testing"
)

func TestMVRegister_SingleWriter(t *testing.T) {
	r := NewMVRegister[string]("A")

	r.Set("v1")
	r.Set("v2")

	if r.HasConflicts() {
		t.Fatalf("单副本写入不应产生冲突")
	}
	vals := r.Values()
	if len(vals) != 1 || vals[0] != "v2" {
		t.Errorf("预期只保留 v2, 实际 %v", vals)
	}
}

func TestMVRegister_ConcurrentWritesPreserved(t *testing.T) {
	// 两个副本从同一空状态独立写入, 计数器同为 1 —— 真并发
	a := NewMVRegister[string]("A")
	b := NewMVRegister[string]("B")
	a.Set("from-A")
	b.Set("from-B")

	a.Merge(b)
	b.Merge(a)

	if !a.HasConflicts() || !b.HasConflicts() {
		t.Fatalf("并发写入应该并排保留")
	}

	av := a.Values()
	bv := b.Values()
	sort.Strings(av)
	sort.Strings(bv)
	if len(av) != 2 || av[0] != "from-A" || av[1] != "from-B" {
		t.Errorf("a 应同时保留两个值, 实际 %v", av)
	}
	if len(bv) != len(av) {
		t.Errorf("双方保留的值集应一致: %v vs %v", av, bv)
	}
}

func TestMVRegister_NewWriteSupersedes(t *testing.T) {
	a := NewMVRegister[string]("A")
	b := NewMVRegister[string]("B")
	a.Set("from-A")
	b.Set("from-B")
	a.Merge(b) // 冲突: {from-A, from-B}@1

	// 在看到冲突之后写入, 新时间戳严格大于所有可见时间戳
	a.Set("settled")
	if a.HasConflicts() {
		t.Fatalf("新写入应取代全部旧值")
	}

	b.Merge(a)
	if b.HasConflicts() || b.Values()[0] != "settled" {
		t.Errorf("合并后 b 应收敛到 settled, 实际 %v", b.Values())
	}
}

func TestMVRegister_LocalFloorPreventsReuse(t *testing.T) {
	// 副本写入后即使其可见状态被旧快照覆盖, 本地下限
	// 也保证下一次写入的计数器不会回退
	a := NewMVRegister[string]("A")
	a.Set("one") // 计数器 1
	a.Set("two") // 计数器 2

	stale := NewMVRegister[string]("B")
	stale.Set("stale") // 计数器 1
	a.Merge(stale)     // 不影响: 2 > 1

	a.Set("three")
	if got := a.pairs[0].Timestamp.Counter; got != 3 {
		t.Errorf("计数器应继续单调递增到 3, 实际 %d", got)
	}
}

func TestMVRegister_ResolveToLWW(t *testing.T) {
	a := NewMVRegister[string]("A")
	b := NewMVRegister[string]("B")
	a.Set("from-A")
	b.Set("from-B")
	a.Merge(b)

	a.ResolveToLWW()
	if a.HasConflicts() {
		t.Fatalf("裁决后不应再有冲突")
	}
	// (1,"B") > (1,"A"), 副本 ID 裁决
	if a.Values()[0] != "from-B" {
		t.Errorf("预期 from-B 胜出, 实际 %v", a.Values())
	}
}

func TestMVRegister_StateRoundTrip(t *testing.T) {
	a := NewMVRegister[string]("A")
	a.Set("snapshot")

	b := NewMVRegister[string]("B")
	if err := b.ApplyState(mustBytes(t, a)); err != nil {
		t.Fatalf("ApplyState 失败: %v", err)
	}
	if b.HasConflicts() {
		// b 从未写入过, 只应看到 a 的值
		t.Fatalf("b 不应有冲突: %v", b.Values())
	}
	if b.Values()[0] != "snapshot" {
		t.Errorf("预期 snapshot, 实际 %v", b.Values())
	}

	if err := b.ApplyState([]byte{0xc1}); err == nil {
		t.Errorf("非法快照应该报错")
	}
}

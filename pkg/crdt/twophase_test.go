package crdt

import "testing"

func TestTwoPhaseSet_Basic(t *testing.T) {
	s := NewTwoPhaseSet[string]("A")

	s.Add("x")
	if !s.Contains("x") {
		t.Fatalf("添加后元素应可见")
	}

	s.Remove("x")
	if s.Contains("x") {
		t.Errorf("删除后元素不应可见")
	}
	if s.Len() != 0 {
		t.Errorf("预期 0 个可见元素, 实际 %d", s.Len())
	}
}

func TestTwoPhaseSet_RemoveBeforeAdd(t *testing.T) {
	s := NewTwoPhaseSet[string]("A")

	// 删除不要求元素已存在; 先到的删除压制后到的添加
	s.Remove("x")
	s.Add("x")

	if s.Contains("x") {
		t.Errorf("进过 removed 的元素永远不可见")
	}
}

func TestTwoPhaseSet_RemovalIsPermanent(t *testing.T) {
	// A 添加 x 并同步给 B; B 删除 x 并同步回 A;
	// A 再次添加 x 并同步给 B —— 双方都必须看不到 x
	a := NewTwoPhaseSet[string]("A")
	b := NewTwoPhaseSet[string]("B")

	a.Add("x")
	b.Merge(a)

	b.Remove("x")
	a.Merge(b)

	a.Add("x")
	b.Merge(a)

	if a.Contains("x") {
		t.Errorf("副本 A 上删除必须是永久的")
	}
	if b.Contains("x") {
		t.Errorf("副本 B 上删除必须是永久的")
	}
}

func TestTwoPhaseSet_MergeCommutative(t *testing.T) {
	a := NewTwoPhaseSet[string]("A")
	b := NewTwoPhaseSet[string]("B")
	a.Add("x")
	a.Add("y")
	b.Add("y")
	b.Remove("y")

	a.Merge(b)
	b.Merge(a)

	if a.Contains("y") || b.Contains("y") {
		t.Errorf("y 已被删除, 双方都不应看到")
	}
	if !a.Contains("x") || !b.Contains("x") {
		t.Errorf("x 未被删除, 双方都应看到")
	}
}

func TestTwoPhaseSet_StateRoundTrip(t *testing.T) {
	a := NewTwoPhaseSet[string]("A")
	a.Add("keep")
	a.Add("gone")
	a.Remove("gone")

	b := NewTwoPhaseSet[string]("B")
	if err := b.ApplyState(mustBytes(t, a)); err != nil {
		t.Fatalf("ApplyState 失败: %v", err)
	}
	if !b.Contains("keep") {
		t.Errorf("keep 应可见")
	}
	if b.Contains("gone") {
		t.Errorf("墓碑必须随快照传播")
	}

	if err := b.ApplyState([]byte{0xc1}); err == nil {
		t.Errorf("非法快照应该报错")
	}
}

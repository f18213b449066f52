package crdt

import "testing"

func TestGCounter_Basic(t *testing.T) {
	c := NewGCounter("A")
	if c.Value() != 0 {
		t.Fatalf("新计数器的值应为 0")
	}

	c.Increment()
	c.IncrementBy(4)
	if c.Value() != 5 {
		t.Errorf("预期值为 5, 实际 %d", c.Value())
	}
}

func TestGCounter_TwoReplicaConvergence(t *testing.T) {
	// 副本 A 加 3, 副本 B 加 5, 互相合并后双方都应读到 8
	a := NewGCounter("A")
	b := NewGCounter("B")

	a.IncrementBy(3)
	b.IncrementBy(5)

	a.Merge(b)
	b.Merge(a)

	if a.Value() != 8 {
		t.Errorf("合并后 A 预期值为 8, 实际 %d", a.Value())
	}
	if b.Value() != 8 {
		t.Errorf("合并后 B 预期值为 8, 实际 %d", b.Value())
	}
}

func TestGCounter_MergeIsMaxNotSum(t *testing.T) {
	a := NewGCounter("A")
	a.IncrementBy(3)

	b := NewGCounter("B")
	b.Merge(a)
	b.Merge(a)
	b.Merge(a)

	// 重复投递同一快照不能重复计数
	if b.Value() != 3 {
		t.Errorf("重复合并后预期值仍为 3, 实际 %d", b.Value())
	}
}

func TestGCounter_Monotonic(t *testing.T) {
	a := NewGCounter("A")
	b := NewGCounter("B")
	b.IncrementBy(2)

	last := a.Value()
	steps := []func(){
		func() { a.Increment() },
		func() { a.Merge(b) },
		func() { a.Merge(b) },
		func() { a.IncrementBy(7) },
	}
	for i, step := range steps {
		step()
		if a.Value() < last {
			t.Fatalf("第 %d 步后值下降了: %d -> %d", i, last, a.Value())
		}
		last = a.Value()
	}
}

func TestGCounter_Delta(t *testing.T) {
	a := NewGCounter("A")
	a.IncrementBy(2)

	baseline, err := FromBytesGCounter(mustBytes(t, a))
	if err != nil {
		t.Fatalf("基线快照失败: %v", err)
	}

	a.IncrementBy(3)

	delta := a.DeltaSince(baseline)
	if len(delta) != 1 || delta["A"] != 5 {
		t.Fatalf("增量应只含 A 的新条目, 实际 %v", delta)
	}

	b := NewGCounter("B")
	b.MergeDelta(delta)
	b.MergeDelta(delta) // 重复投递
	if b.Value() != 5 {
		t.Errorf("合并增量后预期值为 5, 实际 %d", b.Value())
	}

	// 没有变化时增量为空
	if d := a.DeltaSince(a); len(d) != 0 {
		t.Errorf("相对自身的增量应为空, 实际 %v", d)
	}
}

func TestGCounter_ApplyStateInvalid(t *testing.T) {
	a := NewGCounter("A")
	a.IncrementBy(3)

	if err := a.ApplyState([]byte{0xc1, 0xff, 0x00}); err == nil {
		t.Fatalf("非法载荷应该返回错误")
	}
	if a.Value() != 3 {
		t.Errorf("失败的 ApplyState 不应触碰本地状态, 实际值 %d", a.Value())
	}
}

func mustBytes(t *testing.T, s interface{ Bytes() ([]byte, error) }) []byte {
	t.Helper()
	b, err := s.Bytes()
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}
	return b
}

package crdt

import (
	"errors"
	"testing"
)

func TestTypeTag_Framing(t *testing.T) {
	c := NewGCounter("A")
	c.Increment()

	data := mustBytes(t, c)
	if len(data) == 0 || Type(data[0]) != TypeGCounter {
		t.Fatalf("序列化头部应为类型标签 0x%02x, 实际 %v", byte(TypeGCounter), data)
	}

	restored, err := FromBytesGCounter(data)
	if err != nil {
		t.Fatalf("带标签的状态应能解码: %v", err)
	}
	if restored.Value() != 1 {
		t.Errorf("预期计数 1, 实际 %d", restored.Value())
	}
}

func TestTypeTag_Mismatch(t *testing.T) {
	c := NewGCounter("A")
	c.Increment()
	data := mustBytes(t, c)

	// 同一份载荷投给别的类型必须被整体拒绝
	if _, err := FromBytesLWW[string](data); !errors.Is(err, ErrInvalidData) {
		t.Errorf("类型标签不匹配时应返回 ErrInvalidData, 实际 %v", err)
	}
	if _, err := FromBytesSet[string](data); !errors.Is(err, ErrInvalidData) {
		t.Errorf("类型标签不匹配时应返回 ErrInvalidData, 实际 %v", err)
	}
	if _, err := FromBytesGCounter(nil); !errors.Is(err, ErrInvalidData) {
		t.Errorf("空数据应返回 ErrInvalidData, 实际 %v", err)
	}
}

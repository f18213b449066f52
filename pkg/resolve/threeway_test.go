package resolve

import (
	"errors"
	"testing"
)

func TestThreeWayMerge_NoConflict(t *testing.T) {
	// 双方改成同一个值
	got, err := ThreeWayMerge("base", "modified", "modified", Manual)
	if err != nil || got != "modified" {
		t.Errorf("双方一致时不应有冲突: %s, %v", got, err)
	}

	// 只有对方改动
	got, err = ThreeWayMerge("base", "base", "theirs", Manual)
	if err != nil || got != "theirs" {
		t.Errorf("只有对方改动时应采用 theirs: %s, %v", got, err)
	}

	// 只有我方改动
	got, err = ThreeWayMerge("base", "ours", "base", Manual)
	if err != nil || got != "ours" {
		t.Errorf("只有我方改动时应采用 ours: %s, %v", got, err)
	}
}

func TestThreeWayMerge_RealConflict(t *testing.T) {
	// 三者互不相同: FirstWriteWins 采用 ours
	got, err := ThreeWayMerge("base", "ours", "theirs", FirstWriteWins)
	if err != nil || got != "ours" {
		t.Errorf("FirstWriteWins 应采用 ours: %s, %v", got, err)
	}

	// LastWriteWins 采用 theirs
	got, err = ThreeWayMerge("base", "ours", "theirs", LastWriteWins)
	if err != nil || got != "theirs" {
		t.Errorf("LastWriteWins 应采用 theirs: %s, %v", got, err)
	}
}

func TestThreeWayMerge_UnresolvableSignalsConflict(t *testing.T) {
	for _, strategy := range []Strategy{Manual, KeepBoth, Merge} {
		_, err := ThreeWayMerge("base", "ours", "theirs", strategy)
		if !errors.Is(err, ErrConflict) {
			t.Errorf("策略 %v 遇到真实冲突应返回 ErrConflict, 实际 %v", strategy, err)
		}
	}
}

func TestThreeWayMerge_NonStringType(t *testing.T) {
	got, err := ThreeWayMerge(1, 1, 7, Manual)
	if err != nil || got != 7 {
		t.Errorf("整数三方合并失败: %d, %v", got, err)
	}
}

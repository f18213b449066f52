package resolve

import (
	"errors"

	"github.com/shinyes/rep_crdt/pkg/clock"
)

// Strategy 指定并发版本的裁决策略。
// 只有在两个版本的时钟互不可比时策略才会生效（见包文档）。
type Strategy int

const (
	// LastWriteWins 按物理时间戳取较晚者，平局按副本 ID 裁决。
	LastWriteWins Strategy = iota
	// FirstWriteWins 按物理时间戳取较早者，平局裁决方向相反。
	FirstWriteWins
	// KeepBoth 保留两个值，交给调用方呈现。
	KeepBoth
	// Manual 从不猜测，直接返回需要人工裁决的错误。
	Manual
	// Merge 调用类型专属的合并函数。未配置合并函数时退化为
	// LastWriteWins —— 这是一个静默降级，调用方必须知晓。
	Merge
)

func (s Strategy) String() string {
	switch s {
	case LastWriteWins:
		return "LastWriteWins"
	case FirstWriteWins:
		return "FirstWriteWins"
	case KeepBoth:
		return "KeepBoth"
	case Manual:
		return "Manual"
	case Merge:
		return "Merge"
	default:
		return "Unknown"
	}
}

// Outcome 说明裁决结果采用了哪个输入。
type Outcome int

const (
	// UseFirst 采用第一个版本的值。
	UseFirst Outcome = iota
	// UseSecond 采用第二个版本的值。
	UseSecond
	// Merged 采用合并函数产出的新值。
	Merged
	// Both 两个值都保留，未裁决。
	Both
)

// ErrManualResolution 表示两个版本真正并发且策略为 Manual，
// 需要调用方人工裁决。这是可恢复的正常状况，不是缺陷。
var ErrManualResolution = errors.New("并发冲突需要人工裁决")

// Resolution 是一次裁决的结果。
type Resolution[T any] struct {
	Outcome Outcome
	// Value 在 Outcome 为 UseFirst/UseSecond/Merged 时是胜出的值。
	Value T
	// Values 在 Outcome 为 Both 时保留两个未裁决的值。
	Values []T
	// Concurrent 标记两个版本是否真正并发（策略介入过）。
	Concurrent bool
}

// MergeFunc 合并两个并发值，产出一个新值。
type MergeFunc[T any] func(a, b T) T

// Resolver 按配置的策略裁决成对的 Versioned 值。
// Resolver 本身无状态，可被任意多次复用。
type Resolver[T any] struct {
	strategy Strategy
	mergeFn  MergeFunc[T]
}

// NewResolver 创建一个使用指定策略的 Resolver。
func NewResolver[T any](strategy Strategy) *Resolver[T] {
	return &Resolver[T]{strategy: strategy}
}

// WithMergeFunc 配置 Merge 策略使用的合并函数，返回接收者以便链式调用。
func (r *Resolver[T]) WithMergeFunc(fn MergeFunc[T]) *Resolver[T] {
	r.mergeFn = fn
	return r
}

// Resolve 裁决两个版本：
//  1. 时钟相等：没有冲突，采用第一个。
//  2. 一方因果在先：较晚的一方胜出，忽略配置的策略——
//     因果序是比任何时间戳启发式更强的信号。
//  3. 真正并发：交给配置的策略。
func (r *Resolver[T]) Resolve(a, b Versioned[T]) (Resolution[T], error) {
	switch a.Clock.Compare(b.Clock) {
	case clock.Equal:
		return Resolution[T]{Outcome: UseFirst, Value: a.Value}, nil
	case clock.Less:
		return Resolution[T]{Outcome: UseSecond, Value: b.Value}, nil
	case clock.Greater:
		return Resolution[T]{Outcome: UseFirst, Value: a.Value}, nil
	}

	return r.resolveConcurrent(a, b)
}

func (r *Resolver[T]) resolveConcurrent(a, b Versioned[T]) (Resolution[T], error) {
	switch r.strategy {
	case LastWriteWins:
		if secondWinsLWW(a, b) {
			return Resolution[T]{Outcome: UseSecond, Value: b.Value, Concurrent: true}, nil
		}
		return Resolution[T]{Outcome: UseFirst, Value: a.Value, Concurrent: true}, nil

	case FirstWriteWins:
		if secondWinsLWW(a, b) {
			return Resolution[T]{Outcome: UseFirst, Value: a.Value, Concurrent: true}, nil
		}
		return Resolution[T]{Outcome: UseSecond, Value: b.Value, Concurrent: true}, nil

	case KeepBoth:
		return Resolution[T]{
			Outcome:    Both,
			Values:     []T{a.Value, b.Value},
			Concurrent: true,
		}, nil

	case Manual:
		return Resolution[T]{Concurrent: true}, ErrManualResolution

	case Merge:
		if r.mergeFn == nil {
			// 文档化的降级路径：无合并函数时按 LastWriteWins 处理。
			if secondWinsLWW(a, b) {
				return Resolution[T]{Outcome: UseSecond, Value: b.Value, Concurrent: true}, nil
			}
			return Resolution[T]{Outcome: UseFirst, Value: a.Value, Concurrent: true}, nil
		}
		return Resolution[T]{
			Outcome:    Merged,
			Value:      r.mergeFn(a.Value, b.Value),
			Concurrent: true,
		}, nil
	}

	return Resolution[T]{Concurrent: true}, ErrManualResolution
}

// secondWinsLWW 判断在 LastWriteWins 语义下第二个版本是否胜出：
// 物理时间戳较大者胜，平局时副本 ID 较大者胜。
// 裁决只依赖两个版本自身，与参数顺序、副本无关。
func secondWinsLWW[T any](a, b Versioned[T]) bool {
	if a.Timestamp != b.Timestamp {
		return b.Timestamp > a.Timestamp
	}
	return b.Replica > a.Replica
}

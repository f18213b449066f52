package resolve

import "errors"

// ErrConflict 表示三方合并遇到真实冲突，且配置的策略
// 无法（或不被允许）自动裁决。
var ErrConflict = errors.New("三方合并存在无法自动裁决的冲突")

// ThreeWayMerge 对 (base, ours, theirs) 做三方合并：
//   - ours == theirs：双方改成了同一个值，没有冲突；
//   - ours == base：只有对方改动过，采用 theirs；
//   - theirs == base：只有我方改动过，采用 ours；
//   - 三者互不相同：真实冲突，按策略裁决。LastWriteWins 视 theirs
//     为较晚的改动而采用它，FirstWriteWins 采用 ours；
//     其余策略不猜测，返回 ErrConflict。
func ThreeWayMerge[T comparable](base, ours, theirs T, strategy Strategy) (T, error) {
	if ours == theirs {
		return ours, nil
	}
	if ours == base {
		return theirs, nil
	}
	if theirs == base {
		return ours, nil
	}

	switch strategy {
	case LastWriteWins:
		return theirs, nil
	case FirstWriteWins:
		return ours, nil
	default:
		var zero T
		return zero, ErrConflict
	}
}

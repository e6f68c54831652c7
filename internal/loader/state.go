package loader

import (
	"fmt"
	"time"
)

// State 是单次加载所处的阶段，状态只前进不回退。
type State int

const (
	StateClassifying State = iota + 1
	StateCacheLookup
	StateFetching
	StateTranspiling
	StateCacheWrite
	StateCompleting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateClassifying:
		return "classifying"
	case StateCacheLookup:
		return "cache_lookup"
	case StateFetching:
		return "fetching"
	case StateTranspiling:
		return "transpiling"
	case StateCacheWrite:
		return "cache_write"
	case StateCompleting:
		return "completing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal 报告状态是否为终态。
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Transition 描述一次状态变化。
type Transition struct {
	Specifier string
	From      State
	To        State
	At        time.Time
}

// Observer 接收加载过程中的每一次状态变化，会在加载协程中被调用，实现需自行保证并发安全。
type Observer func(Transition)

// tracker 记录单次加载的当前状态并通知观察者。
type tracker struct {
	specifier string
	current   State
	observers []Observer
}

func (t *tracker) enter(next State) {
	if t.current == next || t.current.Terminal() {
		return
	}
	tr := Transition{Specifier: t.specifier, From: t.current, To: next, At: time.Now()}
	t.current = next
	for _, obs := range t.observers {
		if obs != nil {
			obs(tr)
		}
	}
}

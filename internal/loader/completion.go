package loader

import (
	"errors"
	"sync/atomic"

	"github.com/yasumu-org/tanxium/internal/module"
)

// ErrAlreadyCompleted 表示 Completion 已经交付过结果。
var ErrAlreadyCompleted = errors.New("load already completed")

// Completion 是一次加载结果的单次交付凭证：第一次 Complete 交付结果，之后的调用什么也不做。
type Completion struct {
	done    atomic.Bool
	deliver func(*module.Record, error)
}

// NewCompletion 使用 deliver 构造凭证。deliver 在加载协程中调用，
// 引擎通常在其中把结果投递回自己的事件循环。
func NewCompletion(deliver func(*module.Record, error)) *Completion {
	return &Completion{deliver: deliver}
}

// Result 是通过通道交付的加载结果。
type Result struct {
	Record *module.Record
	Err    error
}

// NewChanCompletion 返回一个把结果写入缓冲通道的凭证，适合同步等待。
func NewChanCompletion() (*Completion, <-chan Result) {
	ch := make(chan Result, 1)
	return NewCompletion(func(rec *module.Record, err error) {
		ch <- Result{Record: rec, Err: err}
	}), ch
}

// Complete 交付结果。rec 与 err 互斥；第二次及之后的调用返回 ErrAlreadyCompleted。
func (c *Completion) Complete(rec *module.Record, err error) error {
	if !c.done.CompareAndSwap(false, true) {
		return ErrAlreadyCompleted
	}
	if err != nil {
		rec = nil
	}
	if c.deliver != nil {
		c.deliver(rec, err)
	}
	return nil
}

// Completed 报告结果是否已交付。
func (c *Completion) Completed() bool {
	return c.done.Load()
}

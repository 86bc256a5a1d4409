package translator

import (
	"sync"
	"sync/atomic"
)

// Progress 进度接收者，按已发送的源文本字符数推进，可被并发调用
type Progress interface {
	Add(chars int)
}

// Reporter 为每个进度条目创建 Progress
type Reporter interface {
	Track(name string, total int) Progress
	Done(p Progress, err error)
}

// Counter 原子计数器
type Counter struct {
	total int64
	done  atomic.Int64
}

// NewCounter 创建计数器
func NewCounter(total int) *Counter {
	return &Counter{total: int64(total)}
}

// Add 推进进度
func (c *Counter) Add(chars int) {
	c.done.Add(int64(chars))
}

// Done 已完成的字符数
func (c *Counter) Done() int64 {
	return c.done.Load()
}

// Total 总字符数
func (c *Counter) Total() int64 {
	return c.total
}

// Tee 同时推进多个进度
type Tee []Progress

func (t Tee) Add(chars int) {
	for _, p := range t {
		if p != nil {
			p.Add(chars)
		}
	}
}

type nopProgress struct{}

func (nopProgress) Add(int) {}

// NopReporter 不显示任何进度
type NopReporter struct{}

func (NopReporter) Track(string, int) Progress { return nopProgress{} }
func (NopReporter) Done(Progress, error)       {}

// CounterReporter 使用 Counter 记录进度，便于测试和汇总
type CounterReporter struct {
	mu       sync.Mutex
	counters map[string]*Counter
}

// Track 创建并登记计数器，同名条目会被替换
func (r *CounterReporter) Track(name string, total int) Progress {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.counters == nil {
		r.counters = make(map[string]*Counter)
	}
	c := NewCounter(total)
	r.counters[name] = c
	return c
}

func (r *CounterReporter) Done(Progress, error) {}

// Counter 返回指定条目的计数器
func (r *CounterReporter) Counter(name string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.counters[name]
}

package clock

import (
	"sync"
	"time"
)

// Clock 时间源接口
// 核心状态机只通过 Clock 读取当前时间，方便测试中进行时间旅行
type Clock interface {
	Now() time.Time
}

// SystemClock 系统时钟
type SystemClock struct{}

// NewSystemClock 创建系统时钟
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now 获取当前系统时间
func (c *SystemClock) Now() time.Time {
	return time.Now()
}

// TestClock 可设置的测试时钟
type TestClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewTestClock 创建测试时钟
func NewTestClock(start time.Time) *TestClock {
	return &TestClock{now: start}
}

// Now 获取当前测试时间
func (c *TestClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set 设置当前时间
func (c *TestClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance 向前推进时间
func (c *TestClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

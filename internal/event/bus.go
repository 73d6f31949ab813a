package event

import (
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/mickys/blockbitsdev-sub000/internal/logger"
)

// Processor 事件处理器
type Processor interface {
	// Name 处理器名称
	Name() string
	// Handle 处理单个事件
	Handle(e Event) error
}

// Bus 事件总线
// 核心资产的唯一对外通知通道；处理器通过协程池并发消费
type Bus struct {
	mu   sync.RWMutex
	subs map[Type][]Processor
	pool *ants.Pool
	wg   sync.WaitGroup
}

// NewBus 创建事件总线
func NewBus(poolSize int) (*Bus, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	return &Bus{
		subs: make(map[Type][]Processor),
		pool: pool,
	}, nil
}

// Subscribe 订阅指定类型的事件
func (b *Bus) Subscribe(p Processor, types ...Type) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range types {
		b.subs[t] = append(b.subs[t], p)
	}
}

// Publish 派发事件到所有订阅者
// 处理器失败只记日志，不影响其他处理器和发布方
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	processors := b.subs[e.Type]
	b.mu.RUnlock()

	for _, p := range processors {
		p := p
		b.wg.Add(1)
		err := b.pool.Submit(func() {
			defer b.wg.Done()
			if err := p.Handle(e); err != nil {
				logger.Error("Processor %s failed to handle %s: %v", p.Name(), e.Type, err)
			}
		})
		if err != nil {
			b.wg.Done()
			logger.Error("Failed to submit event %s to pool: %v", e.Type, err)
		}
	}
}

// Drain 等待在途事件处理完成
func (b *Bus) Drain() {
	b.wg.Wait()
}

// Close 关闭总线
func (b *Bus) Close() {
	b.wg.Wait()
	b.pool.Release()
}

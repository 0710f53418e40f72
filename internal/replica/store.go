package replica

import (
	"context"
	"sync"
	"time"

	"github.com/cheezy-bite/internal/models"
)

// OrderState 副本持有的订单快照，只含渲染进度所需字段。
type OrderState struct {
	OrderNo     string              `json:"order_no"`
	Stage       int                 `json:"stage"`
	StatusLabel string              `json:"status_label"`
	History     models.StageHistory `json:"history"`
	TotalAmount models.Money        `json:"total_amount"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Snapshot 落盘单元：订单快照加来源标识与写入时间。
// Origin 用于订阅端识别并忽略自己的回声。
type Snapshot struct {
	Order   OrderState `json:"order"`
	Origin  string     `json:"origin"`
	SavedAt time.Time  `json:"saved_at"`
}

// Notification 存储变更通知
type Notification struct {
	Key     string
	Value   []byte
	Deleted bool
}

// Store 副本持久化接口，键值加变更通知。
// 通知尽力而为，漏掉的变更靠下次读取对齐。
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Subscribe(ctx context.Context, key string) (<-chan Notification, error)
}

// MemoryStore 进程内实现，测试与单机模式使用。
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
	subs map[string]map[chan Notification]struct{}
}

// NewMemoryStore 创建内存副本存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: map[string][]byte{},
		subs: map[string]map[chan Notification]struct{}{},
	}
}

// Get 读取键值
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, true, nil
}

// Set 写入键值并通知订阅者
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	copied := make([]byte, len(value))
	copy(copied, value)
	s.mu.Lock()
	s.data[key] = copied
	s.mu.Unlock()
	s.notify(Notification{Key: key, Value: copied})
	return nil
}

// Delete 删除键值并通知订阅者
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	_, ok := s.data[key]
	delete(s.data, key)
	s.mu.Unlock()
	if ok {
		s.notify(Notification{Key: key, Deleted: true})
	}
	return nil
}

// Subscribe 订阅 key 的变更，ctx 结束后自动退订。
func (s *MemoryStore) Subscribe(ctx context.Context, key string) (<-chan Notification, error) {
	ch := make(chan Notification, 8)
	s.mu.Lock()
	subs := s.subs[key]
	if subs == nil {
		subs = map[chan Notification]struct{}{}
		s.subs[key] = subs
	}
	subs[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		if subs := s.subs[key]; subs != nil {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(s.subs, key)
			}
		}
		s.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

func (s *MemoryStore) notify(n Notification) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.subs[n.Key] {
		select {
		case ch <- n:
		default:
			// 订阅者消费不动就丢
		}
	}
}

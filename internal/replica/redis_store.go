package replica

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cheezy-bite/internal/logger"

	"github.com/redis/go-redis/v9"
)

const redisSnapshotTTL = 24 * time.Hour

// RedisStore 跨进程副本存储，变更经 Pub/Sub 通知。
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 创建 Redis 副本存储
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "cb:replica"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) dataKey(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisStore) channel(key string) string {
	return s.prefix + ":notify:" + key
}

type redisNotify struct {
	Value   []byte `json:"value,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

// Get 读取键值
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, s.dataKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// Set 写入键值并发布变更
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.dataKey(key), value, redisSnapshotTTL).Err(); err != nil {
		return err
	}
	return s.publish(ctx, key, redisNotify{Value: value})
}

// Delete 删除键值并发布删除通知
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	deleted, err := s.client.Del(ctx, s.dataKey(key)).Result()
	if err != nil {
		return err
	}
	if deleted > 0 {
		return s.publish(ctx, key, redisNotify{Deleted: true})
	}
	return nil
}

func (s *RedisStore) publish(ctx context.Context, key string, n redisNotify) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel(key), raw).Err()
}

// Subscribe 订阅 key 的变更流
func (s *RedisStore) Subscribe(ctx context.Context, key string) (<-chan Notification, error) {
	sub := s.client.Subscribe(ctx, s.channel(key))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan Notification, 8)
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var n redisNotify
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					logger.Warnw("replica_notify_decode_failed", "error", err)
					continue
				}
				select {
				case out <- Notification{Key: key, Value: n.Value, Deleted: n.Deleted}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

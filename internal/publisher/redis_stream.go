package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultStream 共享事件流名称
const DefaultStream = "waste:events"

// RedisStreamPublisher 基于 Redis Streams 的扇出发布器
// 实时网关作为消费者组订阅该流，按 branch_id 转发
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
}

// NewRedisStreamPublisher 创建 Redis Streams 发布器
func NewRedisStreamPublisher(client *redis.Client, stream string) *RedisStreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStreamPublisher{client: client, stream: stream}
}

// 确保实现了接口
var _ Publisher = (*RedisStreamPublisher)(nil)

// Publish 发布事件到共享流（XADD，单次尝试）
func (p *RedisStreamPublisher) Publish(ctx context.Context, branchID string, payload EventPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"branch_id": branchID,
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}
	return nil
}

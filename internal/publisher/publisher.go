package publisher

import (
	"context"
	"errors"
	"time"
)

// EventPayload 扇出消息载荷（投递给外部实时广播层）
// 下游网关订阅单一共享流，按 branch_id 转发给对应监听者
type EventPayload struct {
	BinID     string    `json:"bin_id"`
	NetWeight float64   `json:"net_weight"`
	EventType string    `json:"event_type"`
	IsCleaned bool      `json:"is_cleaned"`
	CleanedBy string    `json:"cleaned_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher 扇出发布接口
// 语义：尽力而为、至多一次；失败只记日志，调用方不重试、不阻塞摄入响应
type Publisher interface {
	Publish(ctx context.Context, branchID string, payload EventPayload) error
}

type multiPublisher struct {
	targets []Publisher
}

// Multi 组合多个发布目标；每个目标各发一次，错误合并返回
func Multi(targets ...Publisher) Publisher {
	return &multiPublisher{targets: targets}
}

func (m *multiPublisher) Publish(ctx context.Context, branchID string, payload EventPayload) error {
	var errs []error
	for _, target := range m.targets {
		if err := target.Publish(ctx, branchID, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// GatewayPublisher 推送事件到外部实时广播网关（HTTP）
// 至多一次：不配置重试，失败由调用方记日志后丢弃
type GatewayPublisher struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// broadcastRequest 网关广播请求体
type broadcastRequest struct {
	BranchID string       `json:"branch_id"`
	Payload  EventPayload `json:"payload"`
}

// NewGatewayPublisher 创建网关发布器
func NewGatewayPublisher(baseURL string, timeout time.Duration, logger *zap.Logger) *GatewayPublisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &GatewayPublisher{
		httpClient: client,
		logger:     logger,
	}
}

// 确保实现了接口
var _ Publisher = (*GatewayPublisher)(nil)

// Publish 推送单条事件到网关广播端点
func (p *GatewayPublisher) Publish(ctx context.Context, branchID string, payload EventPayload) error {
	resp, err := p.httpClient.R().
		SetContext(ctx).
		SetBody(broadcastRequest{BranchID: branchID, Payload: payload}).
		Post("/broadcast")
	if err != nil {
		return fmt.Errorf("gateway broadcast failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("gateway broadcast failed: status %d", resp.StatusCode())
	}

	p.logger.Debug("Event pushed to realtime gateway",
		zap.String("branch_id", branchID),
		zap.String("bin_id", payload.BinID),
	)
	return nil
}

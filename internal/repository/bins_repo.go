package repository

import (
	"context"

	"econet-data/internal/domain"
)

// BinsRepository 垃圾桶数据访问接口
type BinsRepository interface {
	// GetBin 根据 bin_id 获取垃圾桶
	GetBin(ctx context.Context, binID string) (*domain.Bin, error)
	// UpdateTareWeight 更新秤基线（仅 cleaning 事件路径调用）
	UpdateTareWeight(ctx context.Context, binID string, tareWeight float64) error
	// ListBins 列出指定分支集合下的垃圾桶
	ListBins(ctx context.Context, branchIDs []string) ([]*domain.Bin, error)
}

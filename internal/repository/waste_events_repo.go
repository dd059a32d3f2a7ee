package repository

import (
	"context"
	"time"

	"econet-data/internal/domain"
)

// EventFilters 事件窗口过滤条件
// 时间窗口为 [Start, End) 左闭右开；BranchIDs 为空集时返回空结果
type EventFilters struct {
	BranchIDs []string
	Start     time.Time
	End       time.Time
}

// EventRow 事件查询行（事件 + 关联的垃圾桶类型）
type EventRow struct {
	domain.WasteEvent
	BinType domain.BinType
}

// WasteEventsRepository 称重事件数据访问接口
// 事件仅追加，无更新/删除操作
type WasteEventsRepository interface {
	// InsertEvent 写入一条称重事件
	InsertEvent(ctx context.Context, event *domain.WasteEvent) error
	// ListEvents 查询窗口内指定分支集合的事件（带垃圾桶类型）
	ListEvents(ctx context.Context, filters EventFilters) ([]EventRow, error)
}

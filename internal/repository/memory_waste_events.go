package repository

import (
	"context"
	"sort"
	"sync"

	"econet-data/internal/domain"
)

// MemoryWasteEventsRepository 内存版称重事件 Repository
// 事件仅追加；ListEvents 需要垃圾桶类型，因此持有 bins repo 的引用
type MemoryWasteEventsRepository struct {
	mu     sync.RWMutex
	events []domain.WasteEvent
	bins   *MemoryBinsRepository
}

// NewMemoryWasteEventsRepository 创建内存称重事件 Repository
func NewMemoryWasteEventsRepository(bins *MemoryBinsRepository) *MemoryWasteEventsRepository {
	return &MemoryWasteEventsRepository{bins: bins}
}

// 确保实现了接口
var _ WasteEventsRepository = (*MemoryWasteEventsRepository)(nil)

// InsertEvent 写入一条称重事件
func (r *MemoryWasteEventsRepository) InsertEvent(_ context.Context, event *domain.WasteEvent) error {
	if event == nil {
		return domain.NewValidationError("event is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

// ListEvents 查询窗口内指定分支集合的事件（带垃圾桶类型）
func (r *MemoryWasteEventsRepository) ListEvents(ctx context.Context, filters EventFilters) ([]EventRow, error) {
	want := make(map[string]bool, len(filters.BranchIDs))
	for _, id := range filters.BranchIDs {
		want[id] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []EventRow
	for _, ev := range r.events {
		if !want[ev.BranchID] {
			continue
		}
		if ev.CreatedAt.Before(filters.Start) || !ev.CreatedAt.Before(filters.End) {
			continue
		}
		row := EventRow{WasteEvent: ev}
		if bin, err := r.bins.GetBin(ctx, ev.BinID); err == nil {
			row.BinType = bin.BinType
		}
		result = append(result, row)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

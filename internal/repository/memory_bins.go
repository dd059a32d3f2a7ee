package repository

import (
	"context"
	"sync"

	"econet-data/internal/domain"
)

// MemoryBinsRepository 内存版垃圾桶 Repository
// 用于 DB 未就绪时的联测 fallback 以及单元测试
type MemoryBinsRepository struct {
	mu   sync.RWMutex
	bins map[string]domain.Bin // binID -> Bin
}

// NewMemoryBinsRepository 创建内存垃圾桶 Repository
func NewMemoryBinsRepository() *MemoryBinsRepository {
	return &MemoryBinsRepository{bins: map[string]domain.Bin{}}
}

// 确保实现了接口
var _ BinsRepository = (*MemoryBinsRepository)(nil)

// PutBin 写入/覆盖一个垃圾桶（种子数据）
func (r *MemoryBinsRepository) PutBin(bin domain.Bin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bins[bin.BinID] = bin
}

// GetBin 根据 bin_id 获取垃圾桶
func (r *MemoryBinsRepository) GetBin(_ context.Context, binID string) (*domain.Bin, error) {
	if binID == "" {
		return nil, domain.NewValidationError("bin_id is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	bin, ok := r.bins[binID]
	if !ok {
		return nil, domain.NewNotFoundError("bin", binID)
	}
	return &bin, nil
}

// UpdateTareWeight 更新秤基线
func (r *MemoryBinsRepository) UpdateTareWeight(_ context.Context, binID string, tareWeight float64) error {
	if binID == "" {
		return domain.NewValidationError("bin_id is required")
	}
	if tareWeight < 0 {
		return domain.NewValidationError("tare_weight must be >= 0")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bin, ok := r.bins[binID]
	if !ok {
		return domain.NewNotFoundError("bin", binID)
	}
	bin.TareWeight = tareWeight
	r.bins[binID] = bin
	return nil
}

// ListBins 列出指定分支集合下的垃圾桶
func (r *MemoryBinsRepository) ListBins(_ context.Context, branchIDs []string) ([]*domain.Bin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[string]bool, len(branchIDs))
	for _, id := range branchIDs {
		want[id] = true
	}

	var bins []*domain.Bin
	for _, bin := range r.bins {
		if want[bin.BranchID] {
			b := bin
			bins = append(bins, &b)
		}
	}
	return bins, nil
}

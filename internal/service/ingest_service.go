package service

import (
	"context"
	"time"

	"econet-data/internal/domain"
	"econet-data/internal/metrics"
	"econet-data/internal/publisher"
	"econet-data/internal/repository"
	"econet-data/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IngestService 摄入与秤基线跟踪服务接口
type IngestService interface {
	// Ingest 处理一条原始称重读数，返回创建的称重事件
	Ingest(ctx context.Context, req IngestRequest) (*domain.WasteEvent, error)
	// CleanBins 批量清洁：逐条独立处理，部分成功语义
	CleanBins(ctx context.Context, req CleanBinsRequest) ([]*domain.WasteEvent, error)
}

// IngestRequest 摄入请求
type IngestRequest struct {
	BinID     string
	RawWeight float64
	EventType domain.EventType
	IsCleaned bool
	CleanedBy string
}

// CleanEntry 批量清洁条目
// RawWeight 为指针：缺失/非数值的重量按跳过处理，不中断批次
type CleanEntry struct {
	BinID     string
	RawWeight *float64
}

// CleanBinsRequest 批量清洁请求
type CleanBinsRequest struct {
	Entries   []CleanEntry
	CleanerID string
}

// ingestService 摄入服务实现
type ingestService struct {
	bins     repository.BinsRepository
	events   repository.WasteEventsRepository
	cleaners repository.CleanersRepository
	pub      publisher.Publisher
	kv       store.KV
	logger   *zap.Logger
	now      func() time.Time
}

// NewIngestService 创建摄入服务
func NewIngestService(
	bins repository.BinsRepository,
	events repository.WasteEventsRepository,
	cleaners repository.CleanersRepository,
	pub publisher.Publisher,
	kv store.KV,
	logger *zap.Logger,
) IngestService {
	return &ingestService{
		bins:     bins,
		events:   events,
		cleaners: cleaners,
		pub:      pub,
		kv:       kv,
		logger:   logger,
		now:      time.Now,
	}
}

// Ingest 处理一条原始称重读数
// 校验失败在任何写入之前返回；cleaning 事件先更新秤基线再计算净重，
// 因此 cleaning 事件净重恒为 0。两次写（bin 更新、事件插入）非事务，
// 与现网行为保持一致（见 DESIGN.md）
func (s *ingestService) Ingest(ctx context.Context, req IngestRequest) (*domain.WasteEvent, error) {
	// 1. 校验（任何写入之前）
	if req.BinID == "" {
		return nil, domain.NewValidationError("bin_id is required")
	}
	if req.RawWeight < 0 {
		return nil, domain.NewValidationError("raw_weight must be >= 0")
	}
	if !req.EventType.Valid() {
		return nil, domain.NewValidationError("event_type must be 'disposal' or 'cleaning'")
	}
	if req.EventType == domain.EventTypeCleaning {
		if !req.IsCleaned {
			return nil, domain.NewValidationError("cleaning event requires is_cleaned=true")
		}
		if req.CleanedBy == "" {
			return nil, domain.NewValidationError("cleaning event requires cleaned_by")
		}
	}

	// 2. 加载垃圾桶
	bin, err := s.bins.GetBin(ctx, req.BinID)
	if err != nil {
		return nil, err
	}

	// 3. cleaning：核验清洁员身份，更新秤基线（唯一改变 tare 的路径）
	if req.EventType == domain.EventTypeCleaning {
		if _, err := s.cleaners.GetCleaner(ctx, req.CleanedBy); err != nil {
			return nil, err
		}
		if err := s.bins.UpdateTareWeight(ctx, bin.BinID, req.RawWeight); err != nil {
			return nil, err
		}
		bin.TareWeight = req.RawWeight
	}

	// 4. 净重 = max(0, raw - tare)，使用（可能刚更新的）tare
	netWeight := req.RawWeight - bin.TareWeight
	if netWeight < 0 {
		netWeight = 0
	}

	event := &domain.WasteEvent{
		EventID:   uuid.NewString(),
		BinID:     bin.BinID,
		BranchID:  bin.BranchID,
		NetWeight: netWeight,
		EventType: req.EventType,
		IsCleaned: req.IsCleaned || req.EventType == domain.EventTypeCleaning,
		CleanedBy: req.CleanedBy,
		CreatedAt: s.now().UTC(),
	}

	// 5. 落库：事件是下游聚合的唯一权威记录
	if err := s.events.InsertEvent(ctx, event); err != nil {
		return nil, domain.NewInternalError("failed to persist waste event", err)
	}

	metrics.EventsIngestedTotal.WithLabelValues(string(event.EventType)).Inc()

	// 6. 最近净重缓存（尽力而为）
	if s.kv != nil {
		if err := store.SetBinCurrentWeight(ctx, s.kv, bin.BinID, netWeight); err != nil {
			s.logger.Warn("Failed to cache current weight",
				zap.String("bin_id", bin.BinID),
				zap.Error(err),
			)
		}
	}

	// 7. 异步扇出（尽力而为、至多一次；失败不影响摄入结果）
	s.publishAsync(event)

	return event, nil
}

// publishAsync 异步发布事件到实时广播层
func (s *ingestService) publishAsync(event *domain.WasteEvent) {
	if s.pub == nil {
		return
	}
	payload := publisher.EventPayload{
		BinID:     event.BinID,
		NetWeight: event.NetWeight,
		EventType: string(event.EventType),
		IsCleaned: event.IsCleaned,
		CleanedBy: event.CleanedBy,
		CreatedAt: event.CreatedAt,
	}
	branchID := event.BranchID

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.pub.Publish(ctx, branchID, payload); err != nil {
			metrics.PublishFailuresTotal.Inc()
			s.logger.Warn("Failed to publish waste event",
				zap.String("branch_id", branchID),
				zap.String("bin_id", payload.BinID),
				zap.Error(err),
			)
		}
	}()
}

// CleanBins 批量清洁
// 逐条独立处理：缺失 bin、重量非法、bin 不存在的条目记 warning 后跳过，
// 批次不中止；仅系统性失败（存储不可用）使整个调用失败。
// 返回成功创建的事件列表（部分成功语义）
func (s *ingestService) CleanBins(ctx context.Context, req CleanBinsRequest) ([]*domain.WasteEvent, error) {
	if req.CleanerID == "" {
		return nil, domain.NewValidationError("cleaner_id is required")
	}
	if _, err := s.cleaners.GetCleaner(ctx, req.CleanerID); err != nil {
		return nil, err
	}

	created := make([]*domain.WasteEvent, 0, len(req.Entries))
	for i, entry := range req.Entries {
		if entry.BinID == "" || entry.RawWeight == nil || *entry.RawWeight < 0 {
			metrics.BulkCleanSkippedTotal.Inc()
			s.logger.Warn("Skipping invalid bulk-clean entry",
				zap.Int("index", i),
				zap.String("bin_id", entry.BinID),
			)
			continue
		}

		event, err := s.Ingest(ctx, IngestRequest{
			BinID:     entry.BinID,
			RawWeight: *entry.RawWeight,
			EventType: domain.EventTypeCleaning,
			IsCleaned: true,
			CleanedBy: req.CleanerID,
		})
		if err != nil {
			if domain.IsValidation(err) || domain.IsNotFound(err) {
				metrics.BulkCleanSkippedTotal.Inc()
				s.logger.Warn("Skipping unresolvable bulk-clean entry",
					zap.Int("index", i),
					zap.String("bin_id", entry.BinID),
					zap.Error(err),
				)
				continue
			}
			// 系统性失败：中止整个批次
			return nil, err
		}
		created = append(created, event)
	}

	return created, nil
}

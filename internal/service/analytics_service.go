package service

import (
	"context"
	"sort"
	"time"

	"econet-data/internal/domain"
	"econet-data/internal/repository"

	"go.uber.org/zap"
)

// DailyReading 某垃圾桶某天的权威读数（当天最后一次事件）
type DailyReading struct {
	BinID     string          `json:"bin_id"`
	BinType   domain.BinType  `json:"bin_type"`
	Day       time.Time       `json:"day"`
	Weight    float64         `json:"weight"`
	CreatedAt time.Time       `json:"created_at"`
}

// Totals 窗口内汇总指标
// 比率恒在 [0,100]；总量为 0 时比率为 0（不做除零）
type Totals struct {
	TotalWaste    float64 `json:"total_waste"`
	Diverted      float64 `json:"diverted"`
	Recycled      float64 `json:"recycled"`
	DiversionRate float64 `json:"diversion_rate"`
	RecyclingRate float64 `json:"recycling_rate"`
}

// OverviewResult 概览指标（含环比趋势）
type OverviewResult struct {
	Totals
	TrendPercent float64   `json:"trend_percent"`
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
}

// SeriesPoint 时间序列点
type SeriesPoint struct {
	Bucket time.Time `json:"bucket"`
	Weight float64   `json:"weight"`
}

// SeriesResult 时间分桶序列
type SeriesResult struct {
	Hourly bool          `json:"hourly"`
	Points []SeriesPoint `json:"points"`
}

// RatesResult 按垃圾桶类型的处置分布
type RatesResult struct {
	Totals
	ByType map[domain.BinType]float64 `json:"by_type"`
}

// LeaderboardEntity 排行榜参评实体（一个分支，或范围更大时一个公司）
type LeaderboardEntity struct {
	ID        string
	Name      string
	BranchIDs []string
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	TotalWaste    float64 `json:"total_waste"`
	Diverted      float64 `json:"diverted"`
	DiversionRate float64 `json:"diversion_rate"`
}

// RankBy 排行维度
type RankBy string

const (
	RankByDiversion RankBy = "diversion"
	RankByTotal     RankBy = "total"
)

// BinReading 垃圾桶当前读数（附 not_emptied 提示标志）
// not_emptied 为启发式信号：今日与昨日权威读数恰好相等时置位，
// 仅作提示，不改变任何权重数据
type BinReading struct {
	BinID       string         `json:"bin_id"`
	BinType     domain.BinType `json:"bin_type"`
	Weight      float64        `json:"weight"`
	LastEventAt time.Time      `json:"last_event_at"`
	NotEmptied  bool           `json:"not_emptied"`
}

// ReportResult 报表数据（Excel 导出用）
type ReportResult struct {
	Readings []DailyReading
	Totals   Totals
}

// AnalyticsService 时间聚合引擎接口
// 所有指标都从 latestPerBinPerDay 原语推导：窗口内按（垃圾桶，UTC 自然日）
// 分组，组内取 created_at 最大的事件（last write wins）
type AnalyticsService interface {
	Overview(ctx context.Context, branchIDs []string, filter Filter, zoom *time.Time) (*OverviewResult, error)
	Series(ctx context.Context, branchIDs []string, filter Filter, zoom *time.Time) (*SeriesResult, error)
	Rates(ctx context.Context, branchIDs []string, filter Filter, zoom *time.Time) (*RatesResult, error)
	Leaderboard(ctx context.Context, entities []LeaderboardEntity, filter Filter, zoom *time.Time, rankBy RankBy) ([]LeaderboardEntry, error)
	BinStatus(ctx context.Context, branchIDs []string) ([]BinReading, error)
	Report(ctx context.Context, branchIDs []string, filter Filter, zoom *time.Time) (*ReportResult, error)
}

// analyticsService 时间聚合引擎实现
type analyticsService struct {
	events repository.WasteEventsRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewAnalyticsService 创建时间聚合引擎
// nowFn 为空时使用 time.Now（测试注入用）
func NewAnalyticsService(events repository.WasteEventsRepository, logger *zap.Logger, nowFn func() time.Time) AnalyticsService {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &analyticsService{
		events: events,
		logger: logger,
		now:    nowFn,
	}
}

// latestPerBinPerDay 核心原语：窗口内每（垃圾桶，UTC 自然日）的最后一次读数
// disposal 与 cleaning 事件同等参与：当天较晚的 cleaning 会合法地把
// 该天的权威读数重置向 0
func latestPerBinPerDay(rows []repository.EventRow) []DailyReading {
	type key struct {
		binID string
		day   time.Time
	}

	latest := make(map[key]repository.EventRow)
	var order []key
	for _, row := range rows {
		k := key{binID: row.BinID, day: startOfDay(row.CreatedAt.UTC())}
		prev, ok := latest[k]
		if !ok {
			order = append(order, k)
			latest[k] = row
			continue
		}
		if !row.CreatedAt.Before(prev.CreatedAt) {
			latest[k] = row
		}
	}

	readings := make([]DailyReading, 0, len(order))
	for _, k := range order {
		row := latest[k]
		readings = append(readings, DailyReading{
			BinID:     row.BinID,
			BinType:   row.BinType,
			Day:       k.day,
			Weight:    row.NetWeight,
			CreatedAt: row.CreatedAt,
		})
	}

	sort.SliceStable(readings, func(i, j int) bool {
		if !readings[i].Day.Equal(readings[j].Day) {
			return readings[i].Day.Before(readings[j].Day)
		}
		return readings[i].BinID < readings[j].BinID
	})
	return readings
}

// computeTotals 从权威读数推导汇总指标
func computeTotals(readings []DailyReading) Totals {
	var t Totals
	for _, r := range readings {
		t.TotalWaste += r.Weight
		if r.BinType.Diverted() {
			t.Diverted += r.Weight
		}
		if r.BinType.Recyclable() {
			t.Recycled += r.Weight
		}
	}
	if t.TotalWaste > 0 {
		t.DiversionRate = t.Diverted / t.TotalWaste * 100
		t.RecyclingRate = t.Recycled / t.TotalWaste * 100
	}
	return t
}

// trendPercent 环比趋势
// previous=0 且 current=0 → 0；previous=0 且 current>0 → 100
func trendPercent(current, previous float64) float64 {
	if previous > 0 {
		return (current - previous) / previous * 100
	}
	if current > 0 {
		return 100
	}
	return 0
}

// readingsFor 取窗口内的权威读数
func (s *analyticsService) readingsFor(ctx context.Context, branchIDs []string, w Window) ([]DailyReading, error) {
	if len(branchIDs) == 0 {
		return nil, nil
	}
	rows, err := s.events.ListEvents(ctx, repository.EventFilters{
		BranchIDs: branchIDs,
		Start:     w.Start,
		End:       w.End,
	})
	if err != nil {
		return nil, domain.NewInternalError("failed to query waste events", err)
	}
	return latestPerBinPerDay(rows), nil
}

// Overview 概览指标：当前窗口汇总 + 环比趋势
func (s *analyticsService) Overview(ctx context.Context, branchIDs []string, filter Filter, zoom *time.Time) (*OverviewResult, error) {
	rng, err := ResolveRange(filter, zoom, s.now())
	if err != nil {
		return nil, err
	}

	current, err := s.readingsFor(ctx, branchIDs, rng.Current)
	if err != nil {
		return nil, err
	}
	previous, err := s.readingsFor(ctx, branchIDs, rng.Previous)
	if err != nil {
		return nil, err
	}

	curTotals := computeTotals(current)
	prevTotals := computeTotals(previous)

	return &OverviewResult{
		Totals:       curTotals,
		TrendPercent: trendPercent(curTotals.TotalWaste, prevTotals.TotalWaste),
		WindowStart:  rng.Current.Start,
		WindowEnd:    rng.Current.End,
	}, nil
}

// Series 时间分桶序列
// today / 指定缩放日按小时（0-23，UTC）分桶，桶内同样取每桶最后读数；
// 其余过滤器按自然日分桶。空桶补 0
func (s *analyticsService) Series(ctx context.Context, branchIDs []string, filter Filter, zoom *time.Time) (*SeriesResult, error) {
	rng, err := ResolveRange(filter, zoom, s.now())
	if err != nil {
		return nil, err
	}

	var rows []repository.EventRow
	if len(branchIDs) > 0 {
		rows, err = s.events.ListEvents(ctx, repository.EventFilters{
			BranchIDs: branchIDs,
			Start:     rng.Current.Start,
			End:       rng.Current.End,
		})
		if err != nil {
			return nil, domain.NewInternalError("failed to query waste events", err)
		}
	}

	if rng.Hourly {
		return &SeriesResult{Hourly: true, Points: bucketHourly(rows, rng.Current.Start)}, nil
	}
	return &SeriesResult{Points: bucketDaily(rows, rng.Current)}, nil
}

// bucketHourly 单日窗口按小时分桶，每（垃圾桶，小时）取最后读数后按小时求和
func bucketHourly(rows []repository.EventRow, dayStart time.Time) []SeriesPoint {
	type key struct {
		binID string
		hour  int
	}
	latest := make(map[key]repository.EventRow)
	for _, row := range rows {
		k := key{binID: row.BinID, hour: row.CreatedAt.UTC().Hour()}
		prev, ok := latest[k]
		if !ok || !row.CreatedAt.Before(prev.CreatedAt) {
			latest[k] = row
		}
	}

	weights := make([]float64, 24)
	for k, row := range latest {
		weights[k.hour] += row.NetWeight
	}

	points := make([]SeriesPoint, 24)
	for h := 0; h < 24; h++ {
		points[h] = SeriesPoint{
			Bucket: dayStart.Add(time.Duration(h) * time.Hour),
			Weight: weights[h],
		}
	}
	return points
}

// bucketDaily 多日窗口按自然日分桶（基于 latestPerBinPerDay 原语）
func bucketDaily(rows []repository.EventRow, w Window) []SeriesPoint {
	readings := latestPerBinPerDay(rows)
	byDay := make(map[time.Time]float64)
	for _, r := range readings {
		byDay[r.Day] += r.Weight
	}

	var points []SeriesPoint
	for day := startOfDay(w.Start); day.Before(w.End); day = day.AddDate(0, 0, 1) {
		points = append(points, SeriesPoint{Bucket: day, Weight: byDay[day]})
	}
	return points
}

// Rates 按类型的处置分布
func (s *analyticsService) Rates(ctx context.Context, branchIDs []string, filter Filter, zoom *time.Time) (*RatesResult, error) {
	rng, err := ResolveRange(filter, zoom, s.now())
	if err != nil {
		return nil, err
	}

	readings, err := s.readingsFor(ctx, branchIDs, rng.Current)
	if err != nil {
		return nil, err
	}

	byType := map[domain.BinType]float64{
		domain.BinTypeGeneralWaste:   0,
		domain.BinTypeCommingled:     0,
		domain.BinTypeOrganics:       0,
		domain.BinTypePaperCardboard: 0,
	}
	for _, r := range readings {
		byType[r.BinType] += r.Weight
	}

	return &RatesResult{
		Totals: computeTotals(readings),
		ByType: byType,
	}, nil
}

// Leaderboard 排行榜：每个实体在窗口内的总量/分流量，按所选维度降序
// 排序稳定：同分保持传入顺序
func (s *analyticsService) Leaderboard(ctx context.Context, entities []LeaderboardEntity, filter Filter, zoom *time.Time, rankBy RankBy) ([]LeaderboardEntry, error) {
	rng, err := ResolveRange(filter, zoom, s.now())
	if err != nil {
		return nil, err
	}

	// 一次取全部分支的事件，再映射回各实体
	entityByBranch := make(map[string]int)
	var allBranchIDs []string
	for i, entity := range entities {
		for _, branchID := range entity.BranchIDs {
			entityByBranch[branchID] = i
			allBranchIDs = append(allBranchIDs, branchID)
		}
	}

	var rows []repository.EventRow
	if len(allBranchIDs) > 0 {
		rows, err = s.events.ListEvents(ctx, repository.EventFilters{
			BranchIDs: allBranchIDs,
			Start:     rng.Current.Start,
			End:       rng.Current.End,
		})
		if err != nil {
			return nil, domain.NewInternalError("failed to query waste events", err)
		}
	}

	perEntity := make([][]repository.EventRow, len(entities))
	for _, row := range rows {
		if i, ok := entityByBranch[row.BranchID]; ok {
			perEntity[i] = append(perEntity[i], row)
		}
	}

	entries := make([]LeaderboardEntry, 0, len(entities))
	for i, entity := range entities {
		totals := computeTotals(latestPerBinPerDay(perEntity[i]))
		entries = append(entries, LeaderboardEntry{
			ID:            entity.ID,
			Name:          entity.Name,
			TotalWaste:    totals.TotalWaste,
			Diverted:      totals.Diverted,
			DiversionRate: totals.DiversionRate,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if rankBy == RankByTotal {
			return entries[i].TotalWaste > entries[j].TotalWaste
		}
		return entries[i].DiversionRate > entries[j].DiversionRate
	})
	return entries, nil
}

// BinStatus 垃圾桶当前读数，附 not_emptied 启发式标志
// 今日权威读数与昨日权威读数数值严格相等时置位；
// 相等可能是巧合，该标志仅作提示
func (s *analyticsService) BinStatus(ctx context.Context, branchIDs []string) ([]BinReading, error) {
	now := s.now().UTC()
	today := startOfDay(now)

	todayReadings, err := s.readingsFor(ctx, branchIDs, Window{Start: today, End: today.AddDate(0, 0, 1)})
	if err != nil {
		return nil, err
	}
	yesterdayReadings, err := s.readingsFor(ctx, branchIDs, Window{Start: today.AddDate(0, 0, -1), End: today})
	if err != nil {
		return nil, err
	}

	yesterdayByBin := make(map[string]DailyReading, len(yesterdayReadings))
	for _, r := range yesterdayReadings {
		yesterdayByBin[r.BinID] = r
	}

	result := make([]BinReading, 0, len(todayReadings))
	for _, r := range todayReadings {
		reading := BinReading{
			BinID:       r.BinID,
			BinType:     r.BinType,
			Weight:      r.Weight,
			LastEventAt: r.CreatedAt,
		}
		if prev, ok := yesterdayByBin[r.BinID]; ok && prev.Weight == r.Weight {
			reading.NotEmptied = true
		}
		result = append(result, reading)
	}
	return result, nil
}

// Report 报表数据：窗口内全部权威读数 + 汇总（Excel 导出用）
func (s *analyticsService) Report(ctx context.Context, branchIDs []string, filter Filter, zoom *time.Time) (*ReportResult, error) {
	rng, err := ResolveRange(filter, zoom, s.now())
	if err != nil {
		return nil, err
	}

	readings, err := s.readingsFor(ctx, branchIDs, rng.Current)
	if err != nil {
		return nil, err
	}

	return &ReportResult{
		Readings: readings,
		Totals:   computeTotals(readings),
	}, nil
}

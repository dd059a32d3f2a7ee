package service

import (
	"context"
	"testing"
	"time"

	"econet-data/internal/domain"
	"econet-data/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 固定测试时钟：2025-06-18（周三）14:30 UTC
var testNow = time.Date(2025, 6, 18, 14, 30, 0, 0, time.UTC)

type analyticsFixture struct {
	bins    *repository.MemoryBinsRepository
	events  *repository.MemoryWasteEventsRepository
	service AnalyticsService
}

func newAnalyticsFixture(t *testing.T) *analyticsFixture {
	t.Helper()

	bins := repository.NewMemoryBinsRepository()
	events := repository.NewMemoryWasteEventsRepository(bins)

	bins.PutBin(domain.Bin{BinID: "general-1", BranchID: "branch-1", BinType: domain.BinTypeGeneralWaste})
	bins.PutBin(domain.Bin{BinID: "commingled-1", BranchID: "branch-1", BinType: domain.BinTypeCommingled})
	bins.PutBin(domain.Bin{BinID: "organics-1", BranchID: "branch-1", BinType: domain.BinTypeOrganics})
	bins.PutBin(domain.Bin{BinID: "paper-2", BranchID: "branch-2", BinType: domain.BinTypePaperCardboard})

	return &analyticsFixture{
		bins:    bins,
		events:  events,
		service: NewAnalyticsService(events, zap.NewNop(), func() time.Time { return testNow }),
	}
}

func (f *analyticsFixture) addEvent(t *testing.T, binID, branchID string, weight float64, at time.Time) {
	t.Helper()
	err := f.events.InsertEvent(context.Background(), &domain.WasteEvent{
		EventID:   binID + at.Format("150405"),
		BinID:     binID,
		BranchID:  branchID,
		NetWeight: weight,
		EventType: domain.EventTypeDisposal,
		CreatedAt: at,
	})
	require.NoError(t, err)
}

func TestLatestPerBinPerDayLastWriteWins(t *testing.T) {
	f := newAnalyticsFixture(t)

	day := testNow.Truncate(24 * time.Hour)
	f.addEvent(t, "general-1", "branch-1", 3, day.Add(8*time.Hour))
	f.addEvent(t, "general-1", "branch-1", 7, day.Add(12*time.Hour))
	f.addEvent(t, "commingled-1", "branch-1", 2, day.Add(9*time.Hour))

	result, err := f.service.Overview(context.Background(), []string{"branch-1"}, FilterToday, nil)
	require.NoError(t, err)

	// general-1 当天权威读数为较晚的 7，不是 3+7
	require.Equal(t, float64(9), result.TotalWaste)
	require.Equal(t, float64(2), result.Diverted)
	require.Equal(t, float64(2), result.Recycled)
}

func TestOverviewEmptyBranchSetYieldsZeroMetrics(t *testing.T) {
	f := newAnalyticsFixture(t)

	result, err := f.service.Overview(context.Background(), nil, FilterToday, nil)
	require.NoError(t, err)
	require.Equal(t, float64(0), result.TotalWaste)
	require.Equal(t, float64(0), result.DiversionRate)
	require.Equal(t, float64(0), result.RecyclingRate)
	require.Equal(t, float64(0), result.TrendPercent)
}

func TestOverviewTrendAgainstPreviousWindow(t *testing.T) {
	f := newAnalyticsFixture(t)

	today := testNow.Truncate(24 * time.Hour)
	yesterday := today.AddDate(0, 0, -1)
	f.addEvent(t, "general-1", "branch-1", 10, yesterday.Add(10*time.Hour))
	f.addEvent(t, "general-1", "branch-1", 15, today.Add(10*time.Hour))

	result, err := f.service.Overview(context.Background(), []string{"branch-1"}, FilterToday, nil)
	require.NoError(t, err)
	require.Equal(t, float64(15), result.TotalWaste)
	require.Equal(t, float64(50), result.TrendPercent)
}

func TestTrendPercentBoundaries(t *testing.T) {
	require.Equal(t, float64(0), trendPercent(0, 0))
	require.Equal(t, float64(100), trendPercent(5, 0))
	require.Equal(t, float64(50), trendPercent(15, 10))
	require.Equal(t, float64(-50), trendPercent(5, 10))
}

func TestComputeTotalsRates(t *testing.T) {
	readings := []DailyReading{
		{BinID: "a", BinType: domain.BinTypeGeneralWaste, Weight: 60},
		{BinID: "b", BinType: domain.BinTypeCommingled, Weight: 25},
		{BinID: "c", BinType: domain.BinTypeOrganics, Weight: 15},
	}
	totals := computeTotals(readings)
	require.Equal(t, float64(100), totals.TotalWaste)
	require.Equal(t, float64(40), totals.Diverted)
	require.Equal(t, float64(25), totals.Recycled)
	require.Equal(t, float64(40), totals.DiversionRate)
	require.Equal(t, float64(25), totals.RecyclingRate)
}

func TestSeriesTodayIsHourly(t *testing.T) {
	f := newAnalyticsFixture(t)

	today := testNow.Truncate(24 * time.Hour)
	f.addEvent(t, "general-1", "branch-1", 3, today.Add(8*time.Hour+5*time.Minute))
	f.addEvent(t, "general-1", "branch-1", 5, today.Add(8*time.Hour+40*time.Minute))
	f.addEvent(t, "commingled-1", "branch-1", 2, today.Add(11*time.Hour))

	result, err := f.service.Series(context.Background(), []string{"branch-1"}, FilterToday, nil)
	require.NoError(t, err)
	require.True(t, result.Hourly)
	require.Len(t, result.Points, 24)

	// 同一小时同一桶取最后读数
	require.Equal(t, float64(5), result.Points[8].Weight)
	require.Equal(t, float64(2), result.Points[11].Weight)
	require.Equal(t, float64(0), result.Points[0].Weight)
}

func TestSeriesThisWeekIsDailyWithZeroFill(t *testing.T) {
	f := newAnalyticsFixture(t)

	// 测试时钟为周三：本周窗口为周一至 now，共 3 个自然日桶
	monday := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	f.addEvent(t, "general-1", "branch-1", 4, monday.Add(10*time.Hour))

	result, err := f.service.Series(context.Background(), []string{"branch-1"}, FilterThisWeek, nil)
	require.NoError(t, err)
	require.False(t, result.Hourly)
	require.Len(t, result.Points, 3)
	require.Equal(t, float64(4), result.Points[0].Weight)
	require.Equal(t, float64(0), result.Points[1].Weight)
	require.Equal(t, float64(0), result.Points[2].Weight)
}

func TestSeriesZoomDateIsHourly(t *testing.T) {
	f := newAnalyticsFixture(t)

	zoom := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	f.addEvent(t, "general-1", "branch-1", 6, zoom.Add(14*time.Hour))

	result, err := f.service.Series(context.Background(), []string{"branch-1"}, FilterThisMonth, &zoom)
	require.NoError(t, err)
	require.True(t, result.Hourly)
	require.Equal(t, float64(6), result.Points[14].Weight)
}

func TestRatesByType(t *testing.T) {
	f := newAnalyticsFixture(t)

	today := testNow.Truncate(24 * time.Hour)
	f.addEvent(t, "general-1", "branch-1", 10, today.Add(9*time.Hour))
	f.addEvent(t, "organics-1", "branch-1", 5, today.Add(9*time.Hour))

	result, err := f.service.Rates(context.Background(), []string{"branch-1"}, FilterToday, nil)
	require.NoError(t, err)
	require.Equal(t, float64(10), result.ByType[domain.BinTypeGeneralWaste])
	require.Equal(t, float64(5), result.ByType[domain.BinTypeOrganics])
	// 无事件的类型也有显式零值
	require.Contains(t, result.ByType, domain.BinTypeCommingled)
	require.Equal(t, float64(0), result.ByType[domain.BinTypeCommingled])
}

func TestLeaderboardRankingAndStableTies(t *testing.T) {
	f := newAnalyticsFixture(t)

	today := testNow.Truncate(24 * time.Hour)
	// branch-1: 10 general + 10 commingled -> 分流率 50%
	f.addEvent(t, "general-1", "branch-1", 10, today.Add(9*time.Hour))
	f.addEvent(t, "commingled-1", "branch-1", 10, today.Add(9*time.Hour))
	// branch-2: 5 paper -> 分流率 100%
	f.addEvent(t, "paper-2", "branch-2", 5, today.Add(9*time.Hour))

	entities := []LeaderboardEntity{
		{ID: "branch-1", Name: "Alpha", BranchIDs: []string{"branch-1"}},
		{ID: "branch-2", Name: "Beta", BranchIDs: []string{"branch-2"}},
		{ID: "branch-3", Name: "Gamma", BranchIDs: []string{"branch-3"}},
	}

	byDiversion, err := f.service.Leaderboard(context.Background(), entities, FilterToday, nil, RankByDiversion)
	require.NoError(t, err)
	require.Equal(t, "branch-2", byDiversion[0].ID)
	require.Equal(t, float64(100), byDiversion[0].DiversionRate)
	require.Equal(t, "branch-1", byDiversion[1].ID)
	require.Equal(t, "branch-3", byDiversion[2].ID)
	require.Equal(t, float64(0), byDiversion[2].TotalWaste)

	byTotal, err := f.service.Leaderboard(context.Background(), entities, FilterToday, nil, RankByTotal)
	require.NoError(t, err)
	require.Equal(t, "branch-1", byTotal[0].ID)
	require.Equal(t, float64(20), byTotal[0].TotalWaste)

	// 同分保持传入顺序（branch-3 与空实体并列时不乱序）
	tied, err := f.service.Leaderboard(context.Background(), []LeaderboardEntity{
		{ID: "x", Name: "X", BranchIDs: []string{"nope-1"}},
		{ID: "y", Name: "Y", BranchIDs: []string{"nope-2"}},
	}, FilterToday, nil, RankByDiversion)
	require.NoError(t, err)
	require.Equal(t, "x", tied[0].ID)
	require.Equal(t, "y", tied[1].ID)
}

func TestBinStatusNotEmptiedHeuristic(t *testing.T) {
	f := newAnalyticsFixture(t)

	today := testNow.Truncate(24 * time.Hour)
	yesterday := today.AddDate(0, 0, -1)

	// general-1 两天读数完全一致 -> not_emptied
	f.addEvent(t, "general-1", "branch-1", 8, yesterday.Add(10*time.Hour))
	f.addEvent(t, "general-1", "branch-1", 8, today.Add(10*time.Hour))
	// commingled-1 读数变化 -> 正常
	f.addEvent(t, "commingled-1", "branch-1", 3, yesterday.Add(10*time.Hour))
	f.addEvent(t, "commingled-1", "branch-1", 5, today.Add(10*time.Hour))
	// organics-1 昨日无读数 -> 正常
	f.addEvent(t, "organics-1", "branch-1", 2, today.Add(10*time.Hour))

	readings, err := f.service.BinStatus(context.Background(), []string{"branch-1"})
	require.NoError(t, err)
	require.Len(t, readings, 3)

	byBin := make(map[string]BinReading)
	for _, r := range readings {
		byBin[r.BinID] = r
	}
	require.True(t, byBin["general-1"].NotEmptied)
	require.False(t, byBin["commingled-1"].NotEmptied)
	require.False(t, byBin["organics-1"].NotEmptied)
}

func TestReportContainsReadingsAndTotals(t *testing.T) {
	f := newAnalyticsFixture(t)

	today := testNow.Truncate(24 * time.Hour)
	f.addEvent(t, "general-1", "branch-1", 4, today.Add(9*time.Hour))
	f.addEvent(t, "commingled-1", "branch-1", 6, today.Add(9*time.Hour))

	report, err := f.service.Report(context.Background(), []string{"branch-1"}, FilterToday, nil)
	require.NoError(t, err)
	require.Len(t, report.Readings, 2)
	require.Equal(t, float64(10), report.Totals.TotalWaste)
	require.Equal(t, float64(60), report.Totals.DiversionRate)
}

func TestOverviewUnknownFilterFailsValidation(t *testing.T) {
	f := newAnalyticsFixture(t)

	_, err := f.service.Overview(context.Background(), []string{"branch-1"}, Filter("bogus"), nil)
	require.Error(t, err)
	require.True(t, domain.IsValidation(err))
}

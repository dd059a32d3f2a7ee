package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"econet-data/internal/domain"
	"econet-data/internal/repository"
	"econet-data/internal/service"
	"econet-data/internal/store"

	"go.uber.org/zap"
)

// DashboardHandler 看板查询 HTTP 处理器
// 所有端点共享同一套范围参数：branch_id / company_id / org_unit_id 三选一，
// 外加时间过滤器 filter 与可选的 zoom_date
type DashboardHandler struct {
	resolver  service.ResolverService
	analytics service.AnalyticsService
	branches  repository.BranchesRepository
	companies repository.CompaniesRepository
	kv        store.KV
	logger    *zap.Logger
}

// NewDashboardHandler 创建看板处理器
func NewDashboardHandler(
	resolver service.ResolverService,
	analytics service.AnalyticsService,
	branches repository.BranchesRepository,
	companies repository.CompaniesRepository,
	kv store.KV,
	logger *zap.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		resolver:  resolver,
		analytics: analytics,
		branches:  branches,
		companies: companies,
		kv:        kv,
		logger:    logger,
	}
}

// dashboardQuery 解析后的公共查询参数
type dashboardQuery struct {
	scope     service.Scope
	branchIDs []string
	filter    service.Filter
	zoom      *time.Time
}

// parseQuery 解析公共参数并解析范围为分支集合
// 空分支集合不是错误，聚合层会返回零值指标
func (h *DashboardHandler) parseQuery(r *http.Request) (*dashboardQuery, error) {
	q := r.URL.Query()

	filter := service.Filter(q.Get("filter"))
	if filter == "" {
		filter = service.FilterToday
	}

	zoom, err := parseDate(q.Get("zoom_date"))
	if err != nil {
		return nil, err
	}

	scope := service.Scope{
		BranchID:  q.Get("branch_id"),
		CompanyID: q.Get("company_id"),
		OrgUnitID: q.Get("org_unit_id"),
	}

	branchIDs, err := h.resolver.ResolveBranches(r.Context(), scope)
	if err != nil {
		return nil, err
	}

	return &dashboardQuery{
		scope:     scope,
		branchIDs: branchIDs,
		filter:    filter,
		zoom:      zoom,
	}, nil
}

// GetOverview 概览指标（含环比趋势）
func (h *DashboardHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	dq, err := h.parseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.analytics.Overview(r.Context(), dq.branchIDs, dq.filter, dq.zoom)
	if err != nil {
		h.logger.Warn("Failed to compute overview", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

// GetSeries 时间分桶序列
func (h *DashboardHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	dq, err := h.parseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.analytics.Series(r.Context(), dq.branchIDs, dq.filter, dq.zoom)
	if err != nil {
		h.logger.Warn("Failed to compute series", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

// GetRates 按垃圾桶类型的处置分布
func (h *DashboardHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	dq, err := h.parseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.analytics.Rates(r.Context(), dq.branchIDs, dq.filter, dq.zoom)
	if err != nil {
		h.logger.Warn("Failed to compute rates", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

// GetLeaderboard 排行榜
// 范围为单公司时按分支排名；更大范围按公司排名（分支聚合到所属公司）
func (h *DashboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	dq, err := h.parseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rankBy := service.RankBy(r.URL.Query().Get("rank_by"))
	if rankBy != service.RankByTotal {
		rankBy = service.RankByDiversion
	}

	entities, err := h.leaderboardEntities(r, dq)
	if err != nil {
		h.logger.Warn("Failed to build leaderboard entities", zap.Error(err))
		writeError(w, err)
		return
	}

	entries, err := h.analytics.Leaderboard(r.Context(), entities, dq.filter, dq.zoom, rankBy)
	if err != nil {
		h.logger.Warn("Failed to compute leaderboard", zap.Error(err))
		writeError(w, err)
		return
	}

	limit := parseInt(r.URL.Query().Get("limit"), 0)
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	writeJSON(w, http.StatusOK, Ok(entries))
}

// leaderboardEntities 把分支集合映射为参评实体
func (h *DashboardHandler) leaderboardEntities(r *http.Request, dq *dashboardQuery) ([]service.LeaderboardEntity, error) {
	branches, err := h.branches.ListBranchesByIDs(r.Context(), dq.branchIDs)
	if err != nil {
		return nil, err
	}

	// 跨公司仅出现在全系统范围；其余范围按分支排名
	companies := make(map[string]struct{})
	for _, b := range branches {
		companies[b.CompanyID] = struct{}{}
	}
	crossCompany := dq.scope.BranchID == "" && dq.scope.CompanyID == "" &&
		dq.scope.OrgUnitID == "" && len(companies) > 1

	if !crossCompany {
		entities := make([]service.LeaderboardEntity, 0, len(branches))
		for _, b := range branches {
			entities = append(entities, service.LeaderboardEntity{
				ID:        b.BranchID,
				Name:      b.BranchName,
				BranchIDs: []string{b.BranchID},
			})
		}
		return entities, nil
	}

	// 全系统范围：按公司分组排名
	byCompany := make(map[string]*service.LeaderboardEntity)
	var order []string
	for _, b := range branches {
		entity, ok := byCompany[b.CompanyID]
		if !ok {
			name := b.CompanyID
			if company, cerr := h.companies.GetCompany(r.Context(), b.CompanyID); cerr == nil {
				name = company.CompanyName
			}
			entity = &service.LeaderboardEntity{ID: b.CompanyID, Name: name}
			byCompany[b.CompanyID] = entity
			order = append(order, b.CompanyID)
		}
		entity.BranchIDs = append(entity.BranchIDs, b.BranchID)
	}

	entities := make([]service.LeaderboardEntity, 0, len(order))
	for _, companyID := range order {
		entities = append(entities, *byCompany[companyID])
	}
	return entities, nil
}

// GetBinStatus 垃圾桶当前读数（附 not_emptied 提示）
func (h *DashboardHandler) GetBinStatus(w http.ResponseWriter, r *http.Request) {
	dq, err := h.parseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	readings, err := h.analytics.BinStatus(r.Context(), dq.branchIDs)
	if err != nil {
		h.logger.Warn("Failed to query bin status", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(readings))
}

// currentWeightResponse 最近净重（缓存值，非权威记录）
type currentWeightResponse struct {
	BinID  string  `json:"binId"`
	Weight float64 `json:"weight"`
}

// GetCurrentWeight 读取垃圾桶最近净重缓存
// 缓存未命中按 404 处理：该桶自缓存启用以来还没有读数
func (h *DashboardHandler) GetCurrentWeight(w http.ResponseWriter, r *http.Request) {
	binID := r.URL.Query().Get("bin_id")
	if binID == "" {
		writeError(w, domain.NewValidationError("bin_id is required"))
		return
	}

	weight, err := store.GetBinCurrentWeight(r.Context(), h.kv, binID)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			writeError(w, domain.NewNotFoundError("current weight", binID))
			return
		}
		h.logger.Warn("Failed to read current weight cache",
			zap.String("bin_id", binID),
			zap.Error(err),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Ok(currentWeightResponse{BinID: binID, Weight: weight}))
}

// GetExport Excel 报表导出
func (h *DashboardHandler) GetExport(w http.ResponseWriter, r *http.Request) {
	dq, err := h.parseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := h.analytics.Report(r.Context(), dq.branchIDs, dq.filter, dq.zoom)
	if err != nil {
		h.logger.Warn("Failed to build report", zap.Error(err))
		writeError(w, err)
		return
	}

	buf, err := buildReportWorkbook(report)
	if err != nil {
		h.logger.Error("Failed to render report workbook", zap.Error(err))
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("waste-report-%s.xlsx", dq.filter)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

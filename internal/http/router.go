package httpapi

import (
	"net/http"

	"econet-data/internal/metrics"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, metrics.Instrument(pattern, h))
}

// HandleHandler 支持 http.Handler 接口（用于 /metrics 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterIngestRoutes 注册摄入路由
func (r *Router) RegisterIngestRoutes(h *IngestHandler) {
	r.Handle("/waste/api/v1/events", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, Fail("method not allowed"))
			return
		}
		h.PostEvent(w, req)
	})

	r.Handle("/waste/api/v1/bins/clean", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, Fail("method not allowed"))
			return
		}
		h.PostBulkClean(w, req)
	})
}

// RegisterDashboardRoutes 注册看板查询路由
func (r *Router) RegisterDashboardRoutes(h *DashboardHandler) {
	get := func(fn http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			if req.Method != http.MethodGet {
				writeJSON(w, http.StatusMethodNotAllowed, Fail("method not allowed"))
				return
			}
			fn(w, req)
		}
	}

	r.Handle("/waste/api/v1/dashboard/overview", get(h.GetOverview))
	r.Handle("/waste/api/v1/dashboard/series", get(h.GetSeries))
	r.Handle("/waste/api/v1/dashboard/rates", get(h.GetRates))
	r.Handle("/waste/api/v1/dashboard/leaderboard", get(h.GetLeaderboard))
	r.Handle("/waste/api/v1/dashboard/bins", get(h.GetBinStatus))
	r.Handle("/waste/api/v1/dashboard/bins/current", get(h.GetCurrentWeight))
	r.Handle("/waste/api/v1/dashboard/export", get(h.GetExport))
}

// RegisterOpsRoutes 注册运维路由（健康检查、指标）
func (r *Router) RegisterOpsRoutes(metricsHandler http.Handler) {
	r.mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.HandleHandler("/metrics", metricsHandler)
}

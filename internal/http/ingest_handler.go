package httpapi

import (
	"net/http"

	"econet-data/internal/domain"
	"econet-data/internal/service"

	"go.uber.org/zap"
)

// IngestHandler 称重摄入 HTTP 处理器
type IngestHandler struct {
	ingest service.IngestService
	logger *zap.Logger
}

// NewIngestHandler 创建摄入处理器
func NewIngestHandler(ingest service.IngestService, logger *zap.Logger) *IngestHandler {
	return &IngestHandler{ingest: ingest, logger: logger}
}

// eventRequest POST /waste/api/v1/events 请求体
// rawWeight 为指针：缺失的重量必须与合法的 0 区分开来
type eventRequest struct {
	BinID     string   `json:"binId"`
	RawWeight *float64 `json:"rawWeight"`
	EventType string   `json:"eventType"`
	IsCleaned bool     `json:"isCleaned"`
	CleanedBy string   `json:"cleanedBy"`
}

// eventResponse 创建的称重事件
type eventResponse struct {
	EventID   string  `json:"eventId"`
	BinID     string  `json:"binId"`
	BranchID  string  `json:"branchId"`
	NetWeight float64 `json:"netWeight"`
	EventType string  `json:"eventType"`
	IsCleaned bool    `json:"isCleaned"`
	CreatedAt string  `json:"createdAt"`
}

func toEventResponse(e *domain.WasteEvent) eventResponse {
	return eventResponse{
		EventID:   e.EventID,
		BinID:     e.BinID,
		BranchID:  e.BranchID,
		NetWeight: e.NetWeight,
		EventType: string(e.EventType),
		IsCleaned: e.IsCleaned,
		CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// PostEvent 摄入一条原始称重读数
func (h *IngestHandler) PostEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if req.RawWeight == nil {
		writeError(w, domain.NewValidationError("raw_weight is required"))
		return
	}

	event, err := h.ingest.Ingest(r.Context(), service.IngestRequest{
		BinID:     req.BinID,
		RawWeight: *req.RawWeight,
		EventType: domain.EventType(req.EventType),
		IsCleaned: req.IsCleaned,
		CleanedBy: req.CleanedBy,
	})
	if err != nil {
		h.logger.Warn("Failed to ingest waste event",
			zap.String("bin_id", req.BinID),
			zap.Error(err),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, Ok(toEventResponse(event)))
}

// bulkCleanRequest POST /waste/api/v1/bins/clean 请求体
// rawWeight 缺失或非法的条目被跳过，不中断批次
type bulkCleanRequest struct {
	CleanerID string `json:"cleanerId"`
	Bins      []struct {
		BinID     string   `json:"binId"`
		RawWeight *float64 `json:"rawWeight"`
	} `json:"bins"`
}

// bulkCleanResponse 批量清洁结果（部分成功语义）
type bulkCleanResponse struct {
	Cleaned int             `json:"cleaned"`
	Skipped int             `json:"skipped"`
	Events  []eventResponse `json:"events"`
}

// PostBulkClean 批量清洁
func (h *IngestHandler) PostBulkClean(w http.ResponseWriter, r *http.Request) {
	var req bulkCleanRequest
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	entries := make([]service.CleanEntry, 0, len(req.Bins))
	for _, b := range req.Bins {
		entries = append(entries, service.CleanEntry{BinID: b.BinID, RawWeight: b.RawWeight})
	}

	events, err := h.ingest.CleanBins(r.Context(), service.CleanBinsRequest{
		Entries:   entries,
		CleanerID: req.CleanerID,
	})
	if err != nil {
		h.logger.Warn("Failed to bulk-clean bins",
			zap.String("cleaner_id", req.CleanerID),
			zap.Error(err),
		)
		writeError(w, err)
		return
	}

	resp := bulkCleanResponse{
		Cleaned: len(events),
		Skipped: len(req.Bins) - len(events),
		Events:  make([]eventResponse, 0, len(events)),
	}
	for _, e := range events {
		resp.Events = append(resp.Events, toEventResponse(e))
	}

	writeJSON(w, http.StatusOK, Ok(resp))
}

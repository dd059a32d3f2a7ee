package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"econet-data/internal/domain"
	"econet-data/internal/repository"
	"econet-data/internal/service"
	"econet-data/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memKV 内存 KV，用于最近净重缓存路径
type memKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemKV() *memKV {
	return &memKV{data: map[string]string{}}
}

func (kv *memKV) Get(_ context.Context, key string) (string, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	val, ok := kv.data[key]
	if !ok {
		return "", store.ErrMiss
	}
	return val, nil
}

func (kv *memKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.data[key] = value
	return nil
}

type handlerFixture struct {
	bins   *repository.MemoryBinsRepository
	events *repository.MemoryWasteEventsRepository
	org    *repository.MemoryOrgRepository
	kv     *memKV
	router *Router
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	bins := repository.NewMemoryBinsRepository()
	events := repository.NewMemoryWasteEventsRepository(bins)
	org := repository.NewMemoryOrgRepository()
	logger := zap.NewNop()

	org.PutCompany(domain.Company{CompanyID: "company-1", CompanyName: "EcoNet Pty"})
	org.PutBranch(domain.Branch{
		BranchID: "branch-1", CompanyID: "company-1", BranchName: "Sydney CBD",
		City: "Sydney", Country: "Australia", Subdivision: "NSW",
	})
	org.PutCleaner(domain.Cleaner{CleanerID: "cleaner-1", Name: "Sam"})
	bins.PutBin(domain.Bin{
		BinID: "bin-1", BranchID: "branch-1", CompanyID: "company-1",
		BinType: domain.BinTypeGeneralWaste, TareWeight: 5,
	})
	bins.PutBin(domain.Bin{
		BinID: "bin-2", BranchID: "branch-1", CompanyID: "company-1",
		BinType: domain.BinTypeCommingled,
	})

	kv := newMemKV()
	ingestService := service.NewIngestService(bins, events, org, nil, kv, logger)
	resolverService := service.NewResolverService(org, org, logger)
	analyticsService := service.NewAnalyticsService(events, logger, nil)

	router := NewRouter(logger)
	router.RegisterIngestRoutes(NewIngestHandler(ingestService, logger))
	router.RegisterDashboardRoutes(NewDashboardHandler(resolverService, analyticsService, org, org, kv, logger))

	return &handlerFixture{bins: bins, events: events, org: org, kv: kv, router: router}
}

func (f *handlerFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeResult[T any](t *testing.T, rec *httptest.ResponseRecorder) Result[T] {
	t.Helper()
	var result Result[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func TestPostEventCreatesDisposal(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/waste/api/v1/events", map[string]any{
		"binId":     "bin-1",
		"rawWeight": 12.5,
		"eventType": "disposal",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	result := decodeResult[eventResponse](t, rec)
	require.Equal(t, ResultSuccess, result.Code)
	require.Equal(t, "bin-1", result.Result.BinID)
	require.Equal(t, "branch-1", result.Result.BranchID)
	require.Equal(t, 7.5, result.Result.NetWeight)
}

func TestPostEventValidationMapsTo400(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/waste/api/v1/events", map[string]any{
		"binId":     "bin-1",
		"rawWeight": -1,
		"eventType": "disposal",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	result := decodeResult[any](t, rec)
	require.Equal(t, ResultError, result.Code)
	require.Equal(t, "error", result.Type)
}

func TestPostEventMissingRawWeightMapsTo400(t *testing.T) {
	f := newHandlerFixture(t)

	// 缺失 rawWeight 必须报错，不得当作合法的 0 摄入
	rec := f.do(t, http.MethodPost, "/waste/api/v1/events", map[string]any{
		"binId":     "bin-1",
		"eventType": "disposal",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	result := decodeResult[any](t, rec)
	require.Equal(t, ResultError, result.Code)

	// 未产生任何事件
	rows, err := f.events.ListEvents(context.Background(), repository.EventFilters{
		BranchIDs: []string{"branch-1"},
		Start:     time.Now().UTC().Add(-time.Hour),
		End:       time.Now().UTC().Add(time.Hour),
	})
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestPostEventExplicitZeroWeightIsAccepted(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/waste/api/v1/events", map[string]any{
		"binId":     "bin-2", // tare 为 0
		"rawWeight": 0,
		"eventType": "disposal",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	result := decodeResult[eventResponse](t, rec)
	require.Equal(t, float64(0), result.Result.NetWeight)
}

func TestPostEventUnknownBinMapsTo404(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/waste/api/v1/events", map[string]any{
		"binId":     "missing",
		"rawWeight": 2,
		"eventType": "disposal",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostEventWrongMethod(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodGet, "/waste/api/v1/events", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPostBulkCleanPartialSuccess(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/waste/api/v1/bins/clean", map[string]any{
		"cleanerId": "cleaner-1",
		"bins": []map[string]any{
			{"binId": "bin-1", "rawWeight": 4.5},
			{"binId": "bin-2"},                        // 缺失重量：跳过
			{"binId": "missing", "rawWeight": 2.0},    // 未知 bin：跳过
			{"binId": "bin-2", "rawWeight": 1.0},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeResult[bulkCleanResponse](t, rec)
	require.Equal(t, 2, result.Result.Cleaned)
	require.Equal(t, 2, result.Result.Skipped)
	require.Len(t, result.Result.Events, 2)
	for _, ev := range result.Result.Events {
		require.Equal(t, "cleaning", ev.EventType)
		require.Equal(t, float64(0), ev.NetWeight)
	}
}

func TestPostBulkCleanUnknownCleanerMapsTo404(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(t, http.MethodPost, "/waste/api/v1/bins/clean", map[string]any{
		"cleanerId": "ghost",
		"bins":      []map[string]any{{"binId": "bin-1", "rawWeight": 1.0}},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

package publisher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGatewayPublisherPostsBroadcast(t *testing.T) {
	var got broadcastRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/broadcast", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	pub := NewGatewayPublisher(server.URL, time.Second, zap.NewNop())

	payload := EventPayload{
		BinID:     "bin-1",
		NetWeight: 7.5,
		EventType: "disposal",
		CreatedAt: time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC),
	}
	err := pub.Publish(context.Background(), "branch-1", payload)
	require.NoError(t, err)
	require.Equal(t, "branch-1", got.BranchID)
	require.Equal(t, "bin-1", got.Payload.BinID)
	require.Equal(t, 7.5, got.Payload.NetWeight)
}

func TestGatewayPublisherErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	pub := NewGatewayPublisher(server.URL, time.Second, zap.NewNop())

	err := pub.Publish(context.Background(), "branch-1", EventPayload{BinID: "bin-1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}

// 失败目标不应吞掉其他目标的投递
func TestMultiPublisherJoinsErrors(t *testing.T) {
	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer okServer.Close()
	failServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failServer.Close()

	ok := NewGatewayPublisher(okServer.URL, time.Second, zap.NewNop())
	fail := NewGatewayPublisher(failServer.URL, time.Second, zap.NewNop())

	err := Multi(fail, ok).Publish(context.Background(), "branch-1", EventPayload{BinID: "bin-1"})
	require.Error(t, err)

	err = Multi(ok, ok).Publish(context.Background(), "branch-1", EventPayload{BinID: "bin-1"})
	require.NoError(t, err)
}

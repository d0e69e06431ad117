package export

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/stableroute-engine/internal/model"
)

func TestExporter_FlushSendsBatch(t *testing.T) {
	var (
		mu       sync.Mutex
		received []byte
		auth     string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		received = body
		auth = r.Header.Get("Authorization")
		mu.Unlock()
	}))
	defer srv.Close()

	e := New(srv.URL, "secret", 100, time.Minute)
	e.Add(&model.RouteCalculation{CapitalUSD: 10_000})
	e.Add(&model.RouteCalculation{CapitalUSD: 25_000})

	require.NoError(t, e.Flush(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Bearer secret", auth)

	var payload struct {
		Evaluations []model.RouteCalculation `json:"evaluations"`
		ExportedAt  int64                    `json:"exported_at"`
	}
	require.NoError(t, json.Unmarshal(received, &payload))
	require.Len(t, payload.Evaluations, 2)
	assert.Equal(t, 10_000.0, payload.Evaluations[0].CapitalUSD)
	assert.NotZero(t, payload.ExportedAt)
}

func TestExporter_EmptyBatchIsNoRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	e := New(srv.URL, "", 100, time.Minute)
	require.NoError(t, e.Flush(context.Background()))
	assert.False(t, called)
}

func TestExporter_InertWithoutWebhookURL(t *testing.T) {
	e := New("", "", 100, time.Minute)

	e.Start()
	e.Add(&model.RouteCalculation{CapitalUSD: 10_000})
	e.Stop()

	require.NoError(t, e.Flush(context.Background()))
}

func TestExporter_WebhookErrorIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	e := New(srv.URL, "", 100, time.Minute)
	e.Add(&model.RouteCalculation{CapitalUSD: 10_000})

	err := e.Flush(context.Background())
	assert.ErrorContains(t, err, "status 502")
}

func TestExporter_FullBatchTriggersEarlyFlush(t *testing.T) {
	flushed := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case flushed <- struct{}{}:
		default:
		}
	}))
	defer srv.Close()

	e := New(srv.URL, "", 2, time.Hour)
	e.Add(&model.RouteCalculation{CapitalUSD: 1})
	e.Add(&model.RouteCalculation{CapitalUSD: 2})

	select {
	case <-flushed:
	case <-time.After(2 * time.Second):
		t.Fatal("full batch did not flush before the interval")
	}
}

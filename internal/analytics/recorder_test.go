package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"near.org/web/internal/platform/observability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type collector struct {
	mu     sync.Mutex
	events []Event
	users  []string
}

func (c *collector) handler(w http.ResponseWriter, r *http.Request) {
	var ev Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	user, _, _ := r.BasicAuth()
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.users = append(c.users, user)
	c.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func TestRecorderForwardsEvents(t *testing.T) {
	var c collector
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/track", c.handler)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	metrics := observability.NewMetrics("test")
	fixed := time.Date(2024, 2, 23, 10, 0, 0, 0, time.UTC)
	rec := NewRecorder(Config{
		Upstream: srv.URL + "/",
		WriteKey: "write-key",
		Client:   srv.Client(),
		Metrics:  metrics,
		Now:      func() time.Time { return fixed },
	})

	id := rec.Record("navigation_menu_hover", "anon-1", map[string]any{"category": "Develop"})
	require.Len(t, id, 26)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rec.Close(ctx))

	c.mu.Lock()
	defer c.mu.Unlock()
	require.Len(t, c.events, 1)
	require.Equal(t, id, c.events[0].ID)
	require.Equal(t, "track", c.events[0].Type)
	require.Equal(t, "navigation_menu_hover", c.events[0].Name)
	require.Equal(t, "Develop", c.events[0].Properties["category"])
	require.True(t, fixed.Equal(c.events[0].Timestamp))
	require.Equal(t, []string{"write-key"}, c.users)

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.AnalyticsEventsTotal.WithLabelValues("queued")))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.AnalyticsEventsTotal.WithLabelValues("sent")))
}

func TestRecordNeverBlocksWhenQueueIsFull(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	metrics := observability.NewMetrics("test")
	rec := NewRecorder(Config{Upstream: srv.URL, WriteKey: "k", BufferSize: 1, Client: srv.Client(), Metrics: metrics})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			rec.Record("navigation_menu_hover", "anon", nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a stalled collector")
	}
	require.Greater(t, testutil.ToFloat64(metrics.AnalyticsEventsTotal.WithLabelValues("dropped")), 0.0)

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rec.Close(ctx))
}

func TestDisabledRecorderDiscards(t *testing.T) {
	metrics := observability.NewMetrics("test")
	rec := NewRecorder(Config{Upstream: "https://collector.invalid", Metrics: metrics})
	require.False(t, rec.Enabled())

	rec.Record("navigation_menu_hover", "anon", nil)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.AnalyticsEventsTotal.WithLabelValues("discarded")))
	require.NoError(t, rec.Close(context.Background()))
}

func TestCollectorErrorsAreCounted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	metrics := observability.NewMetrics("test")
	rec := NewRecorder(Config{Upstream: srv.URL, WriteKey: "bad", Client: srv.Client(), Metrics: metrics})
	rec.Record("navigation_menu_hover", "anon", nil)
	require.NoError(t, rec.Close(context.Background()))

	require.Equal(t, 1.0, testutil.ToFloat64(metrics.AnalyticsEventsTotal.WithLabelValues("failed")))
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.AnalyticsEventsTotal.WithLabelValues("sent")))
}

func TestRecordAfterCloseIsDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	metrics := observability.NewMetrics("test")
	rec := NewRecorder(Config{Upstream: srv.URL, WriteKey: "k", Client: srv.Client(), Metrics: metrics})
	require.NoError(t, rec.Close(context.Background()))
	rec.Record("late", "anon", nil)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.AnalyticsEventsTotal.WithLabelValues("dropped")))
}

func TestDebugLogsEveryEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	rec := NewRecorder(Config{Logger: zap.New(core), Debug: true})

	rec.Record("navigation_menu_hover", "anon", map[string]any{"category": "Use"})
	require.NoError(t, rec.Close(context.Background()))

	entries := logs.FilterMessage("analytics event").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "navigation_menu_hover", fields["event"])
	require.Equal(t, false, fields["forwarding"])
}

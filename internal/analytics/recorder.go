// Package analytics forwards best-effort interaction events (menu hovers) to
// the analytics collector without ever blocking the request that produced them.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"near.org/web/internal/platform/observability"
)

const (
	defaultBufferSize = 256
	defaultTimeout    = 5 * time.Second
	trackPath         = "/v1/track"
)

// Event is one recorded interaction.
type Event struct {
	ID          string         `json:"messageId"`
	Type        string         `json:"type"`
	Name        string         `json:"event"`
	AnonymousID string         `json:"anonymousId"`
	Properties  map[string]any `json:"properties,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Config configures a Recorder.
type Config struct {
	// Upstream is the collector base URL. Events go to Upstream + "/v1/track".
	Upstream string
	// WriteKey authenticates with the collector. Empty disables forwarding.
	WriteKey   string
	BufferSize int
	Timeout    time.Duration
	Client     *http.Client
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Now        func() time.Time
	// Debug logs every recorded event, including discarded ones.
	Debug bool
}

// Recorder queues events and forwards them from a single background worker.
type Recorder struct {
	endpoint string
	writeKey string
	client   *http.Client
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time
	tracer   trace.Tracer
	debug    bool

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

// NewRecorder starts a recorder. Without a write key the recorder accepts and
// discards events, so callers never need to special-case local setups.
func NewRecorder(cfg Config) *Recorder {
	size := cfg.BufferSize
	if size <= 0 {
		size = defaultBufferSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	r := &Recorder{
		endpoint: strings.TrimRight(cfg.Upstream, "/") + trackPath,
		writeKey: cfg.WriteKey,
		client:   client,
		timeout:  timeout,
		debug:    cfg.Debug,
		logger:   logger.Named("analytics"),
		metrics:  cfg.Metrics,
		now:      now,
		tracer:   otel.Tracer("near.org/web/internal/analytics"),
		done:     make(chan struct{}),
	}
	if r.writeKey == "" {
		close(r.done)
		return r
	}
	r.queue = make(chan Event, size)
	go r.run()
	return r
}

// Enabled reports whether events are forwarded.
func (r *Recorder) Enabled() bool { return r.writeKey != "" }

// Record queues an event and returns its id. It never blocks: when the queue
// is full, or the recorder is disabled or closed, the event is dropped.
func (r *Recorder) Record(name, anonymousID string, props map[string]any) string {
	ev := Event{
		ID:          ulid.Make().String(),
		Type:        "track",
		Name:        name,
		AnonymousID: anonymousID,
		Properties:  props,
		Timestamp:   r.now().UTC(),
	}
	if r.debug {
		r.logger.Info("analytics event",
			zap.String("event", name),
			zap.String("message_id", ev.ID),
			zap.Any("properties", props),
			zap.Bool("forwarding", r.Enabled()),
		)
	}
	if !r.Enabled() {
		r.count("discarded")
		return ev.ID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.count("dropped")
		return ev.ID
	}
	select {
	case r.queue <- ev:
		r.count("queued")
	default:
		r.count("dropped")
		r.logger.Debug("analytics queue full, dropping event", zap.String("event", name))
	}
	return ev.ID
}

// Close stops accepting events and waits for queued ones to be forwarded, or
// for ctx to end.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		if r.queue != nil {
			close(r.queue)
		}
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for ev := range r.queue {
		if err := r.forward(ev); err != nil {
			r.count("failed")
			r.logger.Warn("analytics forward failed", zap.String("event", ev.Name), zap.String("message_id", ev.ID), zap.Error(err))
			continue
		}
		r.count("sent")
	}
}

func (r *Recorder) forward(ev Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "analytics.forward", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("analytics.event", ev.Name),
		attribute.String("analytics.message_id", ev.ID),
	)

	body, err := json.Marshal(ev)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode")
		return fmt.Errorf("encode event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request")
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(r.writeKey, "")

	resp, err := r.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return err
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 300 {
		span.SetStatus(codes.Error, resp.Status)
		return fmt.Errorf("collector responded %s", resp.Status)
	}
	return nil
}

func (r *Recorder) count(result string) {
	if r.metrics != nil {
		r.metrics.AnalyticsEventsTotal.WithLabelValues(result).Inc()
	}
}

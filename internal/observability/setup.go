package observability

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/iamwavecut/ngmod"

var (
	// Logger receives one structured line per non-clean verdict. No-op until Init.
	Logger = zap.NewNop()

	registerOnce   sync.Once
	tracerProvider *sdktrace.TracerProvider

	verdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_verdicts_total",
			Help: "Total number of classification verdicts by kind",
		},
		[]string{"verdict"},
	)

	actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_actions_total",
			Help: "Total number of recorded moderation actions",
		},
		[]string{"action"},
	)

	toxicityErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "moderation_toxicity_errors_total",
			Help: "Toxicity service failures treated as not toxic",
		},
	)

	sweepUnmutesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_sweep_unmutes_total",
			Help: "Expired sanctions processed by the sweep",
		},
		[]string{"result"},
	)

	messageProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "message_processing_duration_seconds",
			Help:    "Time spent processing messages",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
)

// Init installs the production zap logger, registers metrics and the tracer provider.
func Init(ctx context.Context) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	Logger = logger

	registerOnce.Do(func() {
		prometheus.MustRegister(
			verdictsTotal,
			actionsTotal,
			toxicityErrorsTotal,
			sweepUnmutesTotal,
			messageProcessingDuration,
		)
		tracerProvider = sdktrace.NewTracerProvider()
		otel.SetTracerProvider(tracerProvider)
	})
	return nil
}

// Shutdown flushes the tracer provider and the zap logger.
func Shutdown(ctx context.Context) error {
	_ = Logger.Sync()
	if tracerProvider == nil {
		return nil
	}
	return tracerProvider.Shutdown(ctx)
}

func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

func RecordVerdict(kind string) {
	verdictsTotal.WithLabelValues(kind).Inc()
}

func RecordAction(action string) {
	actionsTotal.WithLabelValues(action).Inc()
}

func RecordToxicityError() {
	toxicityErrorsTotal.Inc()
}

func RecordSweepUnmute(result string) {
	sweepUnmutesTotal.WithLabelValues(result).Inc()
}

// StartMessageProcessing returns a function to record message processing duration
func StartMessageProcessing() func(status string) {
	start := time.Now()
	return func(status string) {
		messageProcessingDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}
}

// MetricsServer exposes /metrics as a lifecycle component.
type MetricsServer struct {
	server *http.Server

	runMutex sync.Mutex
	started  bool
	done     chan struct{}
}

func NewMetricsServer(addr string) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &MetricsServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *MetricsServer) Start(context.Context) error {
	s.runMutex.Lock()
	defer s.runMutex.Unlock()
	if s.started {
		return nil
	}
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server failed")
		}
	}()
	s.started = true
	return nil
}

func (s *MetricsServer) Stop(ctx context.Context) error {
	s.runMutex.Lock()
	if !s.started {
		s.runMutex.Unlock()
		return nil
	}
	s.started = false
	done := s.done
	s.runMutex.Unlock()

	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

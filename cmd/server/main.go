// Package main is the entry point for the stableroute engine: an HTTP service
// that evaluates whether rotating stablecoin liquidity to another chain is
// profitable within an acceptable time horizon and risk budget.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourorg/stableroute-engine/internal/config"
	"github.com/yourorg/stableroute-engine/internal/engine"
	"github.com/yourorg/stableroute-engine/internal/export"
	"github.com/yourorg/stableroute-engine/internal/model"
	"github.com/yourorg/stableroute-engine/internal/otel"
	"github.com/yourorg/stableroute-engine/internal/security"
	"github.com/yourorg/stableroute-engine/internal/types"
)

// startTime records when the service was initialized for uptime reporting
var startTime = time.Now()

// Server is the HTTP boundary around the decision engine.
type Server struct {
	cfg      config.Config
	engine   *engine.Engine
	signer   *security.Signer
	exporter *export.Exporter
	metrics  *serverMetrics
	limiter  *rate.Limiter
	server   *http.Server
}

// serverMetrics holds Prometheus metrics for the server
type serverMetrics struct {
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	degradedSources *prometheus.CounterVec
	breakerState    *prometheus.GaugeVec
	riskScore       prometheus.Histogram
}

// registerMetrics sets up Prometheus metrics collection
func registerMetrics() *serverMetrics {
	m := &serverMetrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stableroute_requests_total",
				Help: "Total number of requests processed",
			},
			[]string{"endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stableroute_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		degradedSources: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stableroute_degraded_sources_total",
				Help: "Sub-results served from cache or fallback instead of live data",
			},
			[]string{"source"},
		),
		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stableroute_circuit_breaker_state",
				Help: "Circuit breaker state per source (0=closed, 1=open, 2=half-open)",
			},
			[]string{"source"},
		),
		riskScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stableroute_risk_score",
				Help:    "Distribution of evaluated route risk scores",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
	}

	prometheus.MustRegister(
		m.requestCounter,
		m.requestDuration,
		m.degradedSources,
		m.breakerState,
		m.riskScore,
	)

	return m
}

// main is the entry point for the application
func main() {
	setupLogging()

	cfg := config.Load()
	shutdownTracing := otel.InitTracer(cfg)
	defer shutdownTracing()

	eng := engine.New(cfg)

	var signer *security.Signer
	if cfg.SigningEnabled {
		s, err := security.NewSigner()
		if err != nil {
			logrus.Fatalf("Failed to initialize result signer: %v", err)
		}
		signer = s
	}

	exporter := export.New(cfg.WebhookURL, cfg.WebhookAPIKey,
		getEnvInt("EXPORT_BATCH_SIZE", 100),
		getDurationOrDefault("EXPORT_INTERVAL", time.Minute))
	exporter.Start()
	defer exporter.Stop()

	server := NewServer(cfg, eng, signer, exporter)
	server.Start()
}

// setupLogging configures the logging for the application
func setupLogging() {
	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// NewServer creates the HTTP boundary around an engine instance.
func NewServer(cfg config.Config, eng *engine.Engine, signer *security.Signer, exporter *export.Exporter) *Server {
	s := &Server{
		cfg:      cfg,
		engine:   eng,
		signer:   signer,
		exporter: exporter,
		metrics:  registerMetrics(),
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
	}

	logrus.WithFields(logrus.Fields{
		"port":             cfg.Port,
		"source_timeout":   cfg.SourceTimeout,
		"request_deadline": cfg.RequestDeadline,
		"signing":          signer != nil,
	}).Info("Server initialized")

	return s
}

// Start begins the HTTP server and sets up graceful shutdown
func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/evaluate", s.handleEvaluate)
	mux.HandleFunc("/pools", s.handlePools)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/circuit", s.handleCircuit)
	mux.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Server starting on port %s", s.cfg.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server shutdown failed: %v", err)
	}

	logrus.Info("Server stopped")
}

// handleEvaluate runs a route evaluation.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !s.limiter.Allow() {
		s.errorResponse(w, "evaluate", http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var req engine.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "evaluate", http.StatusBadRequest, "invalid request body")
		return
	}

	calc, err := s.engine.Evaluate(r.Context(), req)
	if err != nil {
		var vErr *model.ValidationError
		if errors.As(err, &vErr) {
			s.errorResponse(w, "evaluate", http.StatusBadRequest, vErr.Error())
			return
		}
		s.errorResponse(w, "evaluate", http.StatusInternalServerError, err.Error())
		return
	}

	s.observeEvaluation(calc, start)
	s.exporter.Add(calc)

	var payload interface{} = calc
	if s.signer != nil {
		signed, err := s.signer.Sign(calc)
		if err != nil {
			logrus.Warnf("Failed to sign result: %v", err)
		} else {
			payload = signed
		}
	}

	s.writeJSON(w, http.StatusOK, payload)
}

// handlePools lists validated candidate pools for a chain.
func (s *Server) handlePools(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	chain := types.SupportedChain(r.URL.Query().Get("chain"))
	pools, err := s.engine.Pools(r.Context(), chain)
	if err != nil {
		var vErr *model.ValidationError
		var iErr *model.InsufficientDataError
		switch {
		case errors.As(err, &vErr):
			s.errorResponse(w, "pools", http.StatusBadRequest, vErr.Error())
		case errors.As(err, &iErr):
			s.errorResponse(w, "pools", http.StatusNotFound, iErr.Error())
		default:
			s.errorResponse(w, "pools", http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.metrics.requestCounter.WithLabelValues("pools", "success").Inc()
	s.metrics.requestDuration.WithLabelValues("pools").Observe(time.Since(start).Seconds())
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"chain": chain,
		"pools": pools,
	})
}

// handleHealth is a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStatus provides detailed service status information
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	breakers := map[string]string{}
	for name, b := range s.engine.Guards() {
		breakers[name] = b.State().String()
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "operational",
		"uptime":   time.Since(startTime).String(),
		"breakers": breakers,
		"signer":   s.signer != nil,
		"configuration": map[string]interface{}{
			"source_timeout":   s.cfg.SourceTimeout.String(),
			"request_deadline": s.cfg.RequestDeadline.String(),
		},
	})
}

// handleCircuit shows per-source breaker states and allows manual reset.
func (s *Server) handleCircuit(w http.ResponseWriter, r *http.Request) {
	guards := s.engine.Guards()

	if r.Method == http.MethodPost && r.URL.Query().Get("action") == "reset" {
		name := r.URL.Query().Get("source")
		if b, ok := guards[name]; ok {
			b.Reset()
		} else {
			s.errorResponse(w, "circuit", http.StatusBadRequest, "unknown source "+name)
			return
		}
	}

	states := map[string]interface{}{}
	for name, b := range guards {
		states[name] = map[string]interface{}{
			"state":    b.State().String(),
			"failures": b.Failures(),
		}
		s.metrics.breakerState.WithLabelValues(name).Set(float64(b.State()))
	}
	s.writeJSON(w, http.StatusOK, states)
}

// observeEvaluation records the Prometheus signals for a completed evaluation.
func (s *Server) observeEvaluation(calc *model.RouteCalculation, start time.Time) {
	s.metrics.requestCounter.WithLabelValues("evaluate", "success").Inc()
	s.metrics.requestDuration.WithLabelValues("evaluate").Observe(time.Since(start).Seconds())
	s.metrics.riskScore.Observe(calc.Risk.Score)
	for _, src := range calc.Sources {
		if src.Degraded {
			s.metrics.degradedSources.WithLabelValues(src.Source).Inc()
		}
	}
	for name, b := range s.engine.Guards() {
		s.metrics.breakerState.WithLabelValues(name).Set(float64(b.State()))
	}
}

// errorResponse returns a formatted JSON error
func (s *Server) errorResponse(w http.ResponseWriter, endpoint string, statusCode int, msg string) {
	logrus.Warn(msg)
	s.metrics.requestCounter.WithLabelValues(endpoint, "error").Inc()
	s.writeJSON(w, statusCode, map[string]interface{}{
		"status": "error",
		"error":  msg,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.Warnf("Failed to encode response: %v", err)
	}
}

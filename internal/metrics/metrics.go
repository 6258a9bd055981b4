// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes Prometheus instrumentation for sessions and API
// calls.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jeranaias/traverse-tui/internal/session"
)

// Metrics holds the collectors. Each instance owns its registry.
type Metrics struct {
	registry *prometheus.Registry

	// SessionEvents counts session events by type.
	SessionEvents *prometheus.CounterVec

	// Logouts counts completed logouts by reason.
	Logouts *prometheus.CounterVec

	// SessionActive is 1 while a session is live.
	SessionActive prometheus.Gauge

	// APIRequestDuration records request latency by endpoint and status.
	APIRequestDuration *prometheus.HistogramVec

	// Decisions counts submitted decisions by outcome.
	Decisions *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "traverse_session_events_total",
			Help: "Total number of session events",
		}, []string{"type"}),
		Logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "traverse_logouts_total",
			Help: "Total number of forced logouts",
		}, []string{"reason"}),
		SessionActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "traverse_session_active",
			Help: "Whether a session is currently active",
		}),
		APIRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "traverse_api_request_duration_seconds",
			Help:    "Back-office API request latency in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint", "status"}),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "traverse_decisions_total",
			Help: "Total number of submitted instruction decisions",
		}, []string{"outcome", "result"}),
	}
	m.registry.MustRegister(
		m.SessionEvents,
		m.Logouts,
		m.SessionActive,
		m.APIRequestDuration,
		m.Decisions,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SessionEvent implements session.EventSink.
func (m *Metrics) SessionEvent(e session.Event) {
	m.SessionEvents.WithLabelValues(string(e.Type)).Inc()

	switch e.Type {
	case session.EventStarted:
		m.SessionActive.Set(1)
	case session.EventTimeout, session.EventBackground, session.EventForced:
		m.SessionActive.Set(0)
		m.Logouts.WithLabelValues(logoutLabel(e.Type)).Inc()
	case session.EventStopped:
		m.SessionActive.Set(0)
	}
}

func logoutLabel(t session.EventType) string {
	switch t {
	case session.EventTimeout:
		return "inactivity"
	case session.EventBackground:
		return "background"
	default:
		return "forced"
	}
}

// ObserveRequest matches api.Observer. status 0 is reported as "error".
func (m *Metrics) ObserveRequest(endpoint string, status int, elapsed time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.APIRequestDuration.WithLabelValues(endpoint, code).Observe(elapsed.Seconds())
}

// ObserveDecision counts a decision submission.
func (m *Metrics) ObserveDecision(outcome string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.Decisions.WithLabelValues(outcome, result).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

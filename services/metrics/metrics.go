package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Service owns the Prometheus registry. A nil *Service is valid and records nothing.
type Service struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	bookingOps      *prometheus.CounterVec
	windowCache     *prometheus.CounterVec
	liveFeeds       prometheus.Gauge
}

// NewService registers core Prometheus collectors.
func NewService() *Service {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	bookingOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_operations_total",
		Help: "Booking lifecycle operations by outcome",
	}, []string{"operation", "result"})

	windowCache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "availability_window_cache_total",
		Help: "Earliest-slot window cache lookups",
	}, []string{"result"})

	liveFeeds := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "session_live_feeds",
		Help: "Open live session feeds",
	})

	registry.MustRegister(
		requestDuration,
		requestTotal,
		bookingOps,
		windowCache,
		liveFeeds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Service{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		bookingOps:      bookingOps,
		windowCache:     windowCache,
		liveFeeds:       liveFeeds,
	}
}

// Handler exposes the registry in Prometheus text format.
func (s *Service) Handler() http.Handler {
	if s == nil {
		return http.NotFoundHandler()
	}
	return s.handler
}

func (s *Service) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if s == nil {
		return
	}
	code := strconv.Itoa(status)
	s.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveBookingOperation counts one lifecycle call; result is "ok" or an error code.
func (s *Service) ObserveBookingOperation(operation, result string) {
	if s == nil {
		return
	}
	s.bookingOps.WithLabelValues(operation, result).Inc()
}

func (s *Service) ObserveWindowCache(hit bool) {
	if s == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	s.windowCache.WithLabelValues(result).Inc()
}

// LiveFeedOpened tracks an open live feed; call the returned func when it closes.
func (s *Service) LiveFeedOpened() func() {
	if s == nil {
		return func() {}
	}
	s.liveFeeds.Inc()
	return s.liveFeeds.Dec
}

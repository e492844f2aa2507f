package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the booking API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	bookingsCreated prometheus.Counter
	bookingRejected *prometheus.CounterVec
	bookingsSwept   prometheus.Counter
}

// NewMetricsService registers the booking API collectors.
func NewMetricsService() *MetricsService {
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

	bookingsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Total bookings committed",
	})

	bookingRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_rejections_total",
		Help: "Booking candidates rejected, by rule",
	}, []string{"reason"})

	bookingsSwept := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_swept_total",
		Help: "Pending bookings cancelled by the expiry sweep",
	})

	registry.MustRegister(requestDuration, requestTotal, bookingsCreated, bookingRejected, bookingsSwept)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		bookingsCreated: bookingsCreated,
		bookingRejected: bookingRejected,
		bookingsSwept:   bookingsSwept,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// BookingCreated counts a committed booking.
func (s *MetricsService) BookingCreated() {
	s.bookingsCreated.Inc()
}

// BookingRejected counts a rejected candidate by rule code.
func (s *MetricsService) BookingRejected(reason string) {
	s.bookingRejected.WithLabelValues(reason).Inc()
}

// BookingsSwept counts bookings cancelled by the expiry sweep.
func (s *MetricsService) BookingsSwept(count int) {
	s.bookingsSwept.Add(float64(count))
}

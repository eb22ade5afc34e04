package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buddyboard",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		},
		[]string{"endpoint", "method", "code"},
	)

	bookingOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buddyboard",
			Name:      "booking_operations_total",
			Help:      "Booking store operations by kind and outcome.",
		},
		[]string{"operation", "result"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buddyboard",
			Name:      "notifications_total",
			Help:      "Lead notifications by channel and outcome.",
		},
		[]string{"channel", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingOperations, notifications)
	})
}

// IncHTTP increments the request counter.
func IncHTTP(endpoint, method string, code int) {
	httpRequests.WithLabelValues(endpoint, method, strconv.Itoa(code)).Inc()
}

// IncBookingOp records a service operation; err decides the result label.
func IncBookingOp(operation string, err error) {
	bookingOperations.WithLabelValues(operation, result(err)).Inc()
}

// IncNotification records one delivery attempt.
func IncNotification(channel string, err error) {
	notifications.WithLabelValues(channel, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

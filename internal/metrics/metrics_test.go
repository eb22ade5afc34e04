package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		IncHTTP("/api/bookings", "GET", 200)
	})
}

func TestBookingOpCounter(t *testing.T) {
	before := testutil.ToFloat64(bookingOperations.WithLabelValues("create", "ok"))
	IncBookingOp("create", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(bookingOperations.WithLabelValues("create", "ok")))

	beforeErr := testutil.ToFloat64(bookingOperations.WithLabelValues("delete", "error"))
	IncBookingOp("delete", errors.New("boom"))
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(bookingOperations.WithLabelValues("delete", "error")))
}

func TestNotificationCounter(t *testing.T) {
	before := testutil.ToFloat64(notifications.WithLabelValues("telegram", "ok"))
	IncNotification("telegram", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(notifications.WithLabelValues("telegram", "ok")))
}

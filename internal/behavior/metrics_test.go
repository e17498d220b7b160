package behavior

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return testNow.AddDate(0, 0, -n) }

func ptr(v float64) *float64 { return &v }

func ev(id string, et EventType, t time.Time) Event {
	return Event{ID: id, ClientID: "c1", Type: et, Timestamp: t}
}

func TestComputeMetricsEmptyEvents(t *testing.T) {
	m := ComputeMetrics(nil, DefaultMetricsConfig(testNow))

	assert.Zero(t, m.AttendanceRate)
	assert.Zero(t, m.NoShowRate)
	assert.Zero(t, m.ScheduledCount)
	assert.Zero(t, m.MedianResponseTimeMinutes)
	assert.Zero(t, m.CancelFrequencyPerMonth)
	assert.Equal(t, 90, m.WindowDays)
	assert.Equal(t, testNow, m.WindowEnd)
}

func TestComputeMetricsDiscardsEventsOutsideWindow(t *testing.T) {
	events := []Event{
		ev("1", EventBookingCreated, daysAgo(10)),
		ev("2", EventBookingCreated, daysAgo(120)),           // outside 90d window
		ev("3", EventBookingCreated, testNow.Add(time.Hour)), // future
	}
	m := ComputeMetrics(events, DefaultMetricsConfig(testNow))
	assert.InDelta(t, 1.5, m.ScheduledCount, 0.001) // one event, weight 1.5
}

func TestRecencyWeightingFavorsRecentEvents(t *testing.T) {
	cfg := DefaultMetricsConfig(testNow)
	cfg.WindowDays = 180

	recent := ComputeMetrics([]Event{ev("1", EventBookingCreated, daysAgo(10))}, cfg)
	stale := ComputeMetrics([]Event{ev("1", EventBookingCreated, daysAgo(100))}, cfg)

	assert.Greater(t, recent.ScheduledCount, stale.ScheduledCount)
	assert.InDelta(t, 1.5, recent.ScheduledCount, 0.001)
	assert.InDelta(t, 0.5, stale.ScheduledCount, 0.001)
}

func TestRecencyWeightingDisabledCountsUniformly(t *testing.T) {
	cfg := DefaultMetricsConfig(testNow)
	cfg.RecencyWeighting = false

	m := ComputeMetrics([]Event{
		ev("1", EventBookingCreated, daysAgo(10)),
		ev("2", EventBookingCreated, daysAgo(80)),
	}, cfg)
	assert.InDelta(t, 2, m.ScheduledCount, 0.001)
}

func TestWindowShrinkageNeverIncreasesCounts(t *testing.T) {
	events := []Event{
		ev("1", EventBookingCreated, daysAgo(10)),
		ev("2", EventBookingCreated, daysAgo(50)),
		ev("3", EventBookingCreated, daysAgo(150)),
	}

	cfg := DefaultMetricsConfig(testNow)
	var prev float64
	for _, window := range []int{180, 90, 30} {
		cfg.WindowDays = window
		m := ComputeMetrics(events, cfg)
		if window != 180 {
			assert.LessOrEqual(t, m.ScheduledCount, prev, "window %d", window)
		}
		prev = m.ScheduledCount
	}
}

func TestRatesStayInUnitInterval(t *testing.T) {
	// Completion weighted 1.5 (recent) against a creation weighted 0.5
	// (stale) would push the raw ratio to 3; the rate must clamp.
	cfg := DefaultMetricsConfig(testNow)
	cfg.WindowDays = 180
	m := ComputeMetrics([]Event{
		ev("1", EventBookingCreated, daysAgo(100)),
		ev("2", EventBookingCompleted, daysAgo(10)),
	}, cfg)

	for name, rate := range map[string]float64{
		"attendance":        m.AttendanceRate,
		"no_show":           m.NoShowRate,
		"late_cancel":       m.LateCancelRate,
		"cta_open":          m.CTAOpenRate,
		"cta_click":         m.CTAClickRate,
		"cta_conversion":    m.CTAConversionRate,
		"substitute_accept": m.SubstituteAcceptRate,
		"last_minute_fill":  m.LastMinuteFillRate,
	} {
		assert.GreaterOrEqual(t, rate, 0.0, name)
		assert.LessOrEqual(t, rate, 1.0, name)
	}
}

func TestLateCancelRateHonorsThreshold(t *testing.T) {
	late := ev("1", EventBookingCancelled, daysAgo(5))
	late.HoursBeforeAppointment = ptr(6)
	early := ev("2", EventBookingCancelled, daysAgo(6))
	early.HoursBeforeAppointment = ptr(48)
	created1 := ev("3", EventBookingCreated, daysAgo(5))
	created2 := ev("4", EventBookingCreated, daysAgo(6))

	m := ComputeMetrics([]Event{late, early, created1, created2}, DefaultMetricsConfig(testNow))

	// all weights equal (1.5): one late of two scheduled
	assert.InDelta(t, 0.5, m.LateCancelRate, 0.001)
	assert.InDelta(t, 27, m.AvgCancelLeadTimeHours, 0.001) // (6+48)/2
}

func TestMedianResponseTime(t *testing.T) {
	mk := func(id string, minutes float64) Event {
		e := ev(id, EventNotificationOpened, daysAgo(3))
		e.ResponseTimeMinutes = ptr(minutes)
		return e
	}

	odd := ComputeMetrics([]Event{mk("1", 5), mk("2", 50), mk("3", 10)}, DefaultMetricsConfig(testNow))
	assert.InDelta(t, 10, odd.MedianResponseTimeMinutes, 0.001)

	even := ComputeMetrics([]Event{mk("1", 5), mk("2", 50), mk("3", 10), mk("4", 20)}, DefaultMetricsConfig(testNow))
	assert.InDelta(t, 15, even.MedianResponseTimeMinutes, 0.001)
}

func TestCancelFrequencyPerMonth(t *testing.T) {
	cancel1 := ev("1", EventBookingCancelled, daysAgo(10))
	cancel1.HoursBeforeAppointment = ptr(6)
	cancel2 := ev("2", EventBookingCancelled, daysAgo(20))
	cancel2.HoursBeforeAppointment = ptr(6)

	cfg := DefaultMetricsConfig(testNow)
	cfg.RecencyWeighting = false
	m := ComputeMetrics([]Event{cancel1, cancel2}, cfg)

	// 2 cancellations over 90 days = 3 months
	assert.InDelta(t, 0.667, m.CancelFrequencyPerMonth, 0.001)
}

func TestLastMinuteFillRate(t *testing.T) {
	cfg := DefaultMetricsConfig(testNow)
	cfg.RecencyWeighting = false

	m := ComputeMetrics([]Event{
		ev("1", EventSubstituteOfferReceived, daysAgo(4)),
		ev("2", EventSubstituteOfferReceived, daysAgo(5)),
		ev("3", EventSlotClaimed, daysAgo(4)),
	}, cfg)
	assert.InDelta(t, 0.5, m.LastMinuteFillRate, 0.001)

	// claims without any offers must not divide by zero
	empty := ComputeMetrics([]Event{ev("1", EventSlotClaimed, daysAgo(4))}, cfg)
	assert.Zero(t, empty.LastMinuteFillRate)
}

func TestUnusualWindowFallsBackToDefault(t *testing.T) {
	cfg := DefaultMetricsConfig(testNow)
	cfg.WindowDays = 45
	m := ComputeMetrics(nil, cfg)
	assert.Equal(t, 90, m.WindowDays)
}

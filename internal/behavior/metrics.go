package behavior

import (
	"sort"
	"time"
)

// RecencyBucket maps an event age ceiling (in days) to a weight. Buckets are
// evaluated in order; events older than every bucket weigh zero.
type RecencyBucket struct {
	MaxAgeDays int
	Weight     float64
}

// DefaultRecencyBuckets rewards recent behavior without a hard cliff.
func DefaultRecencyBuckets() []RecencyBucket {
	return []RecencyBucket{
		{MaxAgeDays: 30, Weight: 1.5},
		{MaxAgeDays: 90, Weight: 1.0},
		{MaxAgeDays: 180, Weight: 0.5},
	}
}

// MetricsConfig parameterizes one aggregation run. The zero value is not
// usable; call DefaultMetricsConfig and override as needed.
type MetricsConfig struct {
	Now                      time.Time
	WindowDays               int
	LateCancelThresholdHours float64
	RecencyWeighting         bool
	RecencyBuckets           []RecencyBucket
}

// DefaultMetricsConfig returns the standard 90-day window with recency
// weighting enabled.
func DefaultMetricsConfig(now time.Time) MetricsConfig {
	return MetricsConfig{
		Now:                      now,
		WindowDays:               90,
		LateCancelThresholdHours: 12,
		RecencyWeighting:         true,
		RecencyBuckets:           DefaultRecencyBuckets(),
	}
}

func (c MetricsConfig) normalized() MetricsConfig {
	switch c.WindowDays {
	case 30, 90, 180:
	default:
		c.WindowDays = 90
	}
	if c.LateCancelThresholdHours <= 0 {
		c.LateCancelThresholdHours = 12
	}
	if len(c.RecencyBuckets) == 0 {
		c.RecencyBuckets = DefaultRecencyBuckets()
	}
	return c
}

// Metrics is one aggregate behavior snapshot for a (client, window) pair.
// Counts are recency-weighted, so they are fractional; rates are clamped to
// [0,1]. Snapshots are computed on demand and always re-derivable from
// events.
type Metrics struct {
	AttendanceRate       float64 `json:"attendance_rate"`
	NoShowRate           float64 `json:"no_show_rate"`
	LateCancelRate       float64 `json:"late_cancel_rate"`
	CTAOpenRate          float64 `json:"cta_open_rate"`
	CTAClickRate         float64 `json:"cta_click_rate"`
	CTAConversionRate    float64 `json:"cta_conversion_rate"`
	SubstituteAcceptRate float64 `json:"substitute_accept_rate"`
	LastMinuteFillRate   float64 `json:"last_minute_fill_rate"`

	ScheduledCount                float64 `json:"scheduled_count"`
	CompletedCount                float64 `json:"completed_count"`
	NoShowCount                   float64 `json:"no_show_count"`
	CancelledCount                float64 `json:"cancelled_count"`
	RescheduledCount              float64 `json:"rescheduled_count"`
	SlotClaimedCount              float64 `json:"slot_claimed_count"`
	NotificationsSentCount        float64 `json:"notifications_sent_count"`
	NotificationsOpenedCount      float64 `json:"notifications_opened_count"`
	NotificationsClickedCount     float64 `json:"notifications_clicked_count"`
	NotificationsConvertedCount   float64 `json:"notifications_converted_count"`
	SubstituteOffersReceivedCount float64 `json:"substitute_offers_received_count"`
	SubstituteOffersAcceptedCount float64 `json:"substitute_offers_accepted_count"`

	AvgCancelLeadTimeHours    float64 `json:"avg_cancel_lead_time_hours"`
	MedianResponseTimeMinutes float64 `json:"median_response_time_minutes"`
	AvgBookingLeadTimeHours   float64 `json:"avg_booking_lead_time_hours"`

	CancelFrequencyPerMonth     float64 `json:"cancel_frequency_per_month"`
	RescheduleFrequencyPerMonth float64 `json:"reschedule_frequency_per_month"`

	WindowEnd  time.Time `json:"window_end"`
	WindowDays int       `json:"window_days"`
}

// ComputeMetrics aggregates one client's events over the configured window.
// Events outside [now − windowDays, now] are discarded; the rest contribute
// their recency weight. Every rate is guarded against a zero denominator and
// never yields NaN.
func ComputeMetrics(events []Event, cfg MetricsConfig) Metrics {
	cfg = cfg.normalized()
	windowStart := cfg.Now.AddDate(0, 0, -cfg.WindowDays)

	m := Metrics{WindowEnd: cfg.Now, WindowDays: cfg.WindowDays}

	var (
		lateCancelled    float64
		cancelLeadSum    float64
		bookingLeadSum   float64
		bookingLeadCount float64
		responseSamples  []float64
	)

	for _, e := range events {
		if e.Timestamp.Before(windowStart) || e.Timestamp.After(cfg.Now) {
			continue
		}
		w := eventWeight(cfg, e.Timestamp)
		if w == 0 {
			continue
		}

		switch e.Type {
		case EventBookingCreated:
			m.ScheduledCount += w
			if e.LeadTimeHours != nil {
				bookingLeadSum += w * *e.LeadTimeHours
				bookingLeadCount += w
			}
		case EventBookingCompleted:
			m.CompletedCount += w
		case EventBookingNoShow:
			m.NoShowCount += w
		case EventBookingCancelled:
			m.CancelledCount += w
			if e.HoursBeforeAppointment != nil {
				cancelLeadSum += w * *e.HoursBeforeAppointment
				if *e.HoursBeforeAppointment < cfg.LateCancelThresholdHours {
					lateCancelled += w
				}
			}
		case EventBookingRescheduled:
			m.RescheduledCount += w
		case EventSlotClaimed:
			m.SlotClaimedCount += w
		case EventNotificationSent:
			m.NotificationsSentCount += w
		case EventNotificationOpened:
			m.NotificationsOpenedCount += w
			responseSamples = appendResponseSample(responseSamples, e)
		case EventNotificationClicked:
			m.NotificationsClickedCount += w
			responseSamples = appendResponseSample(responseSamples, e)
		case EventNotificationConverted:
			m.NotificationsConvertedCount += w
			responseSamples = appendResponseSample(responseSamples, e)
		case EventSubstituteOfferReceived:
			m.SubstituteOffersReceivedCount += w
		case EventSubstituteOfferAccepted:
			m.SubstituteOffersAcceptedCount += w
			responseSamples = appendResponseSample(responseSamples, e)
		}
	}

	m.AttendanceRate = clamp01(safeRatio(m.CompletedCount, m.ScheduledCount))
	m.NoShowRate = clamp01(safeRatio(m.NoShowCount, m.ScheduledCount))
	m.LateCancelRate = clamp01(safeRatio(lateCancelled, m.ScheduledCount))
	m.CTAOpenRate = clamp01(safeRatio(m.NotificationsOpenedCount, m.NotificationsSentCount))
	m.CTAClickRate = clamp01(safeRatio(m.NotificationsClickedCount, m.NotificationsSentCount))
	m.CTAConversionRate = clamp01(safeRatio(m.NotificationsConvertedCount, m.NotificationsSentCount))
	m.SubstituteAcceptRate = clamp01(safeRatio(m.SubstituteOffersAcceptedCount, m.SubstituteOffersReceivedCount))
	m.LastMinuteFillRate = clamp01(safeRatio(m.SlotClaimedCount, m.SubstituteOffersReceivedCount))

	m.AvgCancelLeadTimeHours = safeRatio(cancelLeadSum, m.CancelledCount)
	m.AvgBookingLeadTimeHours = safeRatio(bookingLeadSum, bookingLeadCount)
	m.MedianResponseTimeMinutes = median(responseSamples)

	months := float64(cfg.WindowDays) / 30
	m.CancelFrequencyPerMonth = safeRatio(m.CancelledCount, months)
	m.RescheduleFrequencyPerMonth = safeRatio(m.RescheduledCount, months)

	return m
}

// eventWeight returns the recency weight of an event under the config. With
// weighting disabled every in-window event counts as 1.
func eventWeight(cfg MetricsConfig, ts time.Time) float64 {
	if !cfg.RecencyWeighting {
		return 1
	}
	age := ageDays(cfg.Now, ts)
	for _, b := range cfg.RecencyBuckets {
		if age <= b.MaxAgeDays {
			return b.Weight
		}
	}
	return 0
}

func appendResponseSample(samples []float64, e Event) []float64 {
	if e.ResponseTimeMinutes == nil || *e.ResponseTimeMinutes < 0 {
		return samples
	}
	return append(samples, *e.ResponseTimeMinutes)
}

// median computes the standard median; even-length inputs average the two
// middle values. Empty input yields 0.
func median(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func safeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

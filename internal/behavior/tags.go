package behavior

import (
	"fmt"
	"time"
)

// Strength grades how firmly a tag rule asserts its label.
type Strength string

const (
	StrengthLow    Strength = "low"
	StrengthMedium Strength = "medium"
	StrengthHigh   Strength = "high"
)

// Confidence maps a strength grade to its confidence value.
func (s Strength) Confidence() float64 {
	switch s {
	case StrengthHigh:
		return 0.9
	case StrengthMedium:
		return 0.7
	case StrengthLow:
		return 0.5
	default:
		return 0.6
	}
}

// TagRule is one named, explainable threshold rule. Check returns a reason
// string referencing the concrete metric values that triggered it, or false
// when the rule does not apply.
type TagRule struct {
	TagID        string
	Name         string
	ValidityDays int
	Strength     Strength
	Check        func(m Metrics, s Scores) (reason string, ok bool)
}

// TagAssignment is one explainable, time-bounded label on a client. Tags are
// recomputed each evaluation, never incrementally patched.
type TagAssignment struct {
	TagID      string    `json:"tag_id"`
	Name       string    `json:"name"`
	Reason     string    `json:"reason"`
	ValidUntil time.Time `json:"valid_until"`
	Confidence float64   `json:"confidence"`
	Strength   Strength  `json:"strength"`
	WindowDays int       `json:"window_days"`
}

// Stable tag ids, referenced by the strategy builder.
const (
	TagFrequentlyCancels    = "frequently_cancels"
	TagExcellentAttendance  = "excellent_attendance"
	TagLastMinuteClient     = "last_minute_client"
	TagSuperSubstitute      = "super_substitute"
	TagIgnoresNotifications = "ignores_notifications"
	TagFrequentlyIll        = "frequently_ill"
)

// DefaultTagRules returns the six standard rules in evaluation order. The
// thresholds are part of the product contract; changing them invalidates
// stored reason strings.
func DefaultTagRules() []TagRule {
	return []TagRule{
		{
			TagID:        TagFrequentlyCancels,
			Name:         "Frequently Cancels",
			ValidityDays: 30,
			Strength:     StrengthHigh,
			Check: func(m Metrics, _ Scores) (string, bool) {
				if m.CancelFrequencyPerMonth >= 2 {
					return fmt.Sprintf("cancels %.1f times per month over the last %d days", m.CancelFrequencyPerMonth, m.WindowDays), true
				}
				if m.LateCancelRate > 0.25 && m.ScheduledCount > 0 {
					return fmt.Sprintf("%.0f%% of %.1f scheduled bookings were cancelled late", m.LateCancelRate*100, m.ScheduledCount), true
				}
				return "", false
			},
		},
		{
			TagID:        TagExcellentAttendance,
			Name:         "Excellent Attendance",
			ValidityDays: 90,
			Strength:     StrengthHigh,
			Check: func(m Metrics, _ Scores) (string, bool) {
				if m.AttendanceRate >= 0.95 && m.NoShowRate < 0.02 && m.ScheduledCount >= 3 {
					return fmt.Sprintf("attended %.0f%% of %.1f scheduled bookings with %.0f%% no-shows", m.AttendanceRate*100, m.ScheduledCount, m.NoShowRate*100), true
				}
				return "", false
			},
		},
		{
			TagID:        TagLastMinuteClient,
			Name:         "Last-Minute Client",
			ValidityDays: 30,
			Strength:     StrengthMedium,
			Check: func(m Metrics, _ Scores) (string, bool) {
				// Lead-time triggering needs at least one real sample; with the
				// current deriver the creation timestamp proxy yields none, so
				// this arm only fires for sources that record lead times.
				if m.AvgBookingLeadTimeHours > 0 && m.AvgBookingLeadTimeHours < 24 && m.ScheduledCount >= 1 {
					return fmt.Sprintf("books on average %.1f hours before the appointment", m.AvgBookingLeadTimeHours), true
				}
				if m.SlotClaimedCount >= 2 {
					return fmt.Sprintf("claimed %.1f freed slots in the last %d days", m.SlotClaimedCount, m.WindowDays), true
				}
				return "", false
			},
		},
		{
			TagID:        TagSuperSubstitute,
			Name:         "Super Substitute",
			ValidityDays: 60,
			Strength:     StrengthHigh,
			Check: func(m Metrics, _ Scores) (string, bool) {
				if m.SubstituteOffersReceivedCount >= 2 && m.SubstituteAcceptRate >= 0.4 && m.MedianResponseTimeMinutes > 0 && m.MedianResponseTimeMinutes < 15 {
					return fmt.Sprintf("accepted %.0f%% of %.1f substitute offers, median response %.1f minutes", m.SubstituteAcceptRate*100, m.SubstituteOffersReceivedCount, m.MedianResponseTimeMinutes), true
				}
				return "", false
			},
		},
		{
			TagID:        TagIgnoresNotifications,
			Name:         "Ignores Notifications",
			ValidityDays: 30,
			Strength:     StrengthMedium,
			Check: func(m Metrics, _ Scores) (string, bool) {
				if m.NotificationsSentCount >= 5 && m.CTAOpenRate < 0.05 && m.CTAConversionRate < 0.05 {
					return fmt.Sprintf("opened %.0f%% and converted %.0f%% of %.1f notifications", m.CTAOpenRate*100, m.CTAConversionRate*100, m.NotificationsSentCount), true
				}
				return "", false
			},
		},
		{
			TagID:        TagFrequentlyIll,
			Name:         "Frequently Ill",
			ValidityDays: 30,
			Strength:     StrengthLow,
			Check: func(m Metrics, _ Scores) (string, bool) {
				if m.CancelledCount >= 3 && m.AvgCancelLeadTimeHours < 24 {
					return fmt.Sprintf("%.1f cancellations averaging %.1f hours notice", m.CancelledCount, m.AvgCancelLeadTimeHours), true
				}
				return "", false
			},
		},
	}
}

// AssignTags evaluates the rules in list order against one snapshot. Rules
// are independent: zero, one, or several may fire. validUntil is the
// evaluation date plus the rule's validity window.
func AssignTags(m Metrics, s Scores, rules []TagRule, referenceDate time.Time) []TagAssignment {
	var tags []TagAssignment
	for _, rule := range rules {
		reason, ok := rule.Check(m, s)
		if !ok {
			continue
		}
		tags = append(tags, TagAssignment{
			TagID:      rule.TagID,
			Name:       rule.Name,
			Reason:     reason,
			ValidUntil: referenceDate.AddDate(0, 0, rule.ValidityDays),
			Confidence: rule.Strength.Confidence(),
			Strength:   rule.Strength,
			WindowDays: m.WindowDays,
		})
	}
	return tags
}

// HasTag reports whether the assignment list contains the given tag id.
func HasTag(tags []TagAssignment, tagID string) bool {
	for _, t := range tags {
		if t.TagID == tagID {
			return true
		}
	}
	return false
}

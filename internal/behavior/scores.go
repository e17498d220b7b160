package behavior

import (
	"math"

	"github.com/stillpoint/portal/internal/domain"
)

// ScoreWeights parameterizes the four score formulas. All weights have
// defaults; callers override individual fields when tuning.
type ScoreWeights struct {
	// reliability
	AttendanceWeight  float64
	NoShowPenalty     float64
	LateCancelPenalty float64

	// cancellation risk
	CancelFrequencyWeight float64
	ShortLeadWeight       float64

	// reactivity
	ConversionWeight   float64
	ResponseTimeWeight float64
	SubstituteWeight   float64

	// fill helper
	ClaimCountWeight float64
	FillRateWeight   float64
}

// DefaultScoreWeights returns the standard weight table.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		AttendanceWeight:      50,
		NoShowPenalty:         60,
		LateCancelPenalty:     30,
		CancelFrequencyWeight: 50,
		ShortLeadWeight:       25,
		ConversionWeight:      40,
		ResponseTimeWeight:    30,
		SubstituteWeight:      30,
		ClaimCountWeight:      60,
		FillRateWeight:        40,
	}
}

// Scores holds the four bounded behavior scores plus per-channel affinity.
// Every value is an integer in [0,100].
type Scores struct {
	ReliabilityScore      int `json:"reliability_score"`
	CancellationRiskScore int `json:"cancellation_risk_score"`
	ReactivityScore       int `json:"reactivity_score"`
	FillHelperScore       int `json:"fill_helper_score"`

	ChannelAffinity map[domain.Channel]int `json:"channel_affinity"`
}

// ComputeScores derives the score card from a metrics snapshot. Pure
// arithmetic with clamping; no failure modes.
func ComputeScores(m Metrics, w ScoreWeights) Scores {
	reliability := 50 +
		math.Min(1, m.AttendanceRate)*w.AttendanceWeight -
		math.Min(1, m.NoShowRate)*math.Abs(w.NoShowPenalty) -
		math.Min(1, m.LateCancelRate)*math.Abs(w.LateCancelPenalty)

	shortLead := 0.0
	if m.CancelledCount > 0 && m.AvgCancelLeadTimeHours < 24 {
		shortLead = 1 - m.AvgCancelLeadTimeHours/24
	}
	risk := math.Min(2, m.CancelFrequencyPerMonth)/2*w.CancelFrequencyWeight +
		shortLead*w.ShortLeadWeight +
		math.Min(1, m.RescheduleFrequencyPerMonth/2)*25

	reactivity := m.CTAConversionRate*w.ConversionWeight +
		responseBucket(m)*w.ResponseTimeWeight +
		m.SubstituteAcceptRate*w.SubstituteWeight

	fillHelper := math.Min(5, m.SlotClaimedCount)*(w.ClaimCountWeight/5) +
		m.LastMinuteFillRate*w.FillRateWeight

	affinity := channelAffinityProxy(m)
	channels := make(map[domain.Channel]int, 4)
	for _, ch := range domain.Channels() {
		channels[ch] = affinity
	}

	return Scores{
		ReliabilityScore:      clampScore(reliability),
		CancellationRiskScore: clampScore(risk),
		ReactivityScore:       clampScore(reactivity),
		FillHelperScore:       clampScore(fillHelper),
		ChannelAffinity:       channels,
	}
}

// responseBucket grants full credit for a median response under 15 minutes,
// half under an hour, nothing beyond. Clients with no response samples earn
// nothing.
func responseBucket(m Metrics) float64 {
	if m.MedianResponseTimeMinutes <= 0 {
		return 0
	}
	switch {
	case m.MedianResponseTimeMinutes < 15:
		return 1
	case m.MedianResponseTimeMinutes < 60:
		return 0.5
	default:
		return 0
	}
}

// channelAffinityProxy is a single scalar applied to all four channels.
// Per-channel telemetry is not collected upstream yet, so differentiating
// channels here would fabricate data; the map shape is kept so richer
// telemetry can fill it in later without an API break.
func channelAffinityProxy(m Metrics) int {
	v := 0.3*m.CTAOpenRate + 0.3*m.CTAClickRate + 0.4*m.CTAConversionRate
	return clampScore(v * 100)
}

func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}

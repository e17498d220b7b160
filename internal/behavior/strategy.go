package behavior

import (
	"sort"

	"github.com/stillpoint/portal/internal/domain"
)

// ContentHint suggests the shape of future outreach copy.
type ContentHint string

const (
	ContentShort    ContentHint = "short"
	ContentDetailed ContentHint = "detailed"
	ContentReminder ContentHint = "reminder"
	ContentStandard ContentHint = "standard"
)

// NotificationStrategy is the derived channel/throttling/content policy for
// one client. It is consumed by the outreach scheduler; this engine never
// sends anything itself.
type NotificationStrategy struct {
	PreferredChannel                     domain.Channel   `json:"preferred_channel"`
	ChannelOrder                         []domain.Channel `json:"channel_order"`
	MaxPerDay                            int              `json:"max_per_day"`
	MaxPerWeek                           int              `json:"max_per_week"`
	CooldownMinutesAfterIgnored          int              `json:"cooldown_minutes_after_ignored"`
	IgnoredBeforeCooldown                int              `json:"ignored_before_cooldown"`
	PreferredHourStart                   int              `json:"preferred_hour_start"`
	PreferredHourEnd                     int              `json:"preferred_hour_end"`
	LastMinuteOffersOnlyToHighFillHelper bool             `json:"last_minute_offers_only_to_high_fill_helper"`
	ContentHint                          ContentHint      `json:"content_hint"`
}

// StrategyDefaults holds the overridable baseline policy.
type StrategyDefaults struct {
	MaxPerDay                   int
	MaxPerWeek                  int
	CooldownMinutesAfterIgnored int
	IgnoredBeforeCooldown       int
	PreferredHourStart          int
	PreferredHourEnd            int
}

// DefaultStrategyDefaults returns the standard anti-spam baseline.
func DefaultStrategyDefaults() StrategyDefaults {
	return StrategyDefaults{
		MaxPerDay:                   3,
		MaxPerWeek:                  10,
		CooldownMinutesAfterIgnored: 1440,
		IgnoredBeforeCooldown:       3,
		PreferredHourStart:          18,
		PreferredHourEnd:            21,
	}
}

// BuildStrategy derives the outreach policy from scores and assigned tags.
// Pure derivation; no error conditions.
func BuildStrategy(m Metrics, s Scores, tags []TagAssignment, defaults StrategyDefaults) NotificationStrategy {
	order := rankChannels(s.ChannelAffinity)

	strategy := NotificationStrategy{
		PreferredChannel:            order[0],
		ChannelOrder:                order,
		MaxPerDay:                   defaults.MaxPerDay,
		MaxPerWeek:                  defaults.MaxPerWeek,
		CooldownMinutesAfterIgnored: defaults.CooldownMinutesAfterIgnored,
		IgnoredBeforeCooldown:       defaults.IgnoredBeforeCooldown,
		PreferredHourStart:          defaults.PreferredHourStart,
		PreferredHourEnd:            defaults.PreferredHourEnd,
		// All last-minute offers route through fill-helper screening in the
		// default policy.
		LastMinuteOffersOnlyToHighFillHelper: true,
		ContentHint:                          ContentStandard,
	}

	switch {
	case HasTag(tags, TagIgnoresNotifications):
		strategy.MaxPerDay = 1
		strategy.MaxPerWeek = 3
	case HasTag(tags, TagSuperSubstitute):
		strategy.MaxPerDay = minInt(5, defaults.MaxPerDay+1)
		strategy.MaxPerWeek = minInt(15, defaults.MaxPerWeek+3)
	}

	switch {
	case HasTag(tags, TagSuperSubstitute):
		strategy.ContentHint = ContentShort
	case s.ReactivityScore < 30:
		strategy.ContentHint = ContentDetailed
	case HasTag(tags, TagFrequentlyCancels):
		strategy.ContentHint = ContentReminder
	}

	return strategy
}

// rankChannels orders the four channels by descending affinity. Equal
// affinities keep the canonical channel order so the ranking is
// deterministic.
func rankChannels(affinity map[domain.Channel]int) []domain.Channel {
	order := domain.Channels()
	sort.SliceStable(order, func(i, j int) bool {
		return affinity[order[i]] > affinity[order[j]]
	})
	return order
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

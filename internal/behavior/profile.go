package behavior

import (
	"sort"
	"sync"
	"time"
)

// Profile is the immutable composite behavior snapshot for one client. A
// profile is never merged or diffed; each computation run produces a fresh
// one.
type Profile struct {
	ClientID   string               `json:"client_id"`
	Metrics    Metrics              `json:"metrics"`
	Scores     Scores               `json:"scores"`
	Tags       []TagAssignment      `json:"tags"`
	Strategy   NotificationStrategy `json:"notification_strategy"`
	ComputedAt time.Time            `json:"computed_at"`
}

// ProfileOptions parameterizes a profile computation run. Zero-value fields
// fall back to defaults.
type ProfileOptions struct {
	Metrics          MetricsConfig
	Weights          *ScoreWeights
	Rules            []TagRule
	StrategyDefaults *StrategyDefaults
}

// DefaultProfileOptions returns the standard configuration anchored at now.
func DefaultProfileOptions(now time.Time) ProfileOptions {
	return ProfileOptions{Metrics: DefaultMetricsConfig(now)}
}

func (o ProfileOptions) normalized(now time.Time) ProfileOptions {
	if o.Metrics.Now.IsZero() {
		o.Metrics = DefaultMetricsConfig(now)
	}
	if o.Weights == nil {
		w := DefaultScoreWeights()
		o.Weights = &w
	}
	if len(o.Rules) == 0 {
		o.Rules = DefaultTagRules()
	}
	if o.StrategyDefaults == nil {
		d := DefaultStrategyDefaults()
		o.StrategyDefaults = &d
	}
	return o
}

// ComputeProfile runs the full pipeline for one client's events:
// metrics → scores → tags → strategy. Events belonging to other clients are
// ignored, so callers may pass a mixed sequence.
func ComputeProfile(clientID string, events []Event, opts ProfileOptions) Profile {
	opts = opts.normalized(time.Now().UTC())
	own := FilterByClient(events, clientID)

	m := ComputeMetrics(own, opts.Metrics)
	s := ComputeScores(m, *opts.Weights)
	tags := AssignTags(m, s, opts.Rules, opts.Metrics.Now)
	strategy := BuildStrategy(m, s, tags, *opts.StrategyDefaults)

	return Profile{
		ClientID:   clientID,
		Metrics:    m,
		Scores:     s,
		Tags:       tags,
		Strategy:   strategy,
		ComputedAt: opts.Metrics.Now,
	}
}

// ComputeProfiles computes profiles for many clients with a bounded worker
// fan-out. Per-client computation shares nothing, so the parallel map is
// safe; results come back sorted by client id for deterministic output.
func ComputeProfiles(clientIDs []string, events []Event, opts ProfileOptions, workers int) []Profile {
	if workers <= 0 {
		workers = 4
	}
	grouped := GroupByClient(events)

	profiles := make([]Profile, len(clientIDs))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				id := clientIDs[i]
				profiles[i] = ComputeProfile(id, grouped[id], opts)
			}
		}()
	}
	for i := range clientIDs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].ClientID < profiles[j].ClientID
	})
	return profiles
}

// Package profiles orchestrates the behavior pipeline against live data:
// it loads raw records, derives events, computes profiles and
// recommendations, and fronts the result with the advisory cache. All
// computation is delegated to the pure engines.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stillpoint/portal/internal/behavior"
	"github.com/stillpoint/portal/internal/domain"
	obs "github.com/stillpoint/portal/internal/observability/metrics"
	"github.com/stillpoint/portal/internal/recommend"
	"github.com/stillpoint/portal/pkg/logging"
)

// ErrClientNotFound is returned when the requested client does not belong to
// the org.
var ErrClientNotFound = errors.New("profiles: client not found")

// RecordSource loads the raw records the engines consume. *store.Store
// satisfies it.
type RecordSource interface {
	ListClients(ctx context.Context, orgID string) ([]domain.Client, error)
	ListAppointments(ctx context.Context, orgID string, since time.Time) ([]domain.Appointment, error)
	ListNotifications(ctx context.Context, orgID string, since time.Time) ([]domain.Notification, error)
	ListWaitlist(ctx context.Context, orgID string) ([]domain.WaitlistEntry, error)
}

// ProfileCache is the advisory snapshot cache. *cache.ProfileCache satisfies
// it; a nil cache disables caching.
type ProfileCache interface {
	Get(ctx context.Context, orgID, clientID string) (*behavior.Profile, error)
	Set(ctx context.Context, orgID string, p behavior.Profile) error
}

// Config assembles a Service.
type Config struct {
	Source  RecordSource
	Cache   ProfileCache
	Metrics *obs.BehaviorMetrics
	Logger  *logging.Logger

	// WindowDays and LateCancelThresholdHours configure the default
	// aggregation window; zero values use the engine defaults.
	WindowDays               int
	LateCancelThresholdHours float64
	Workers                  int

	// IndividualServiceIDs classifies one-on-one services for the
	// group-upsell recommendation.
	IndividualServiceIDs []string

	// Now supplies the reference time; defaults to time.Now. Injected so
	// tests replay fixed instants.
	Now func() time.Time

	IDs behavior.IDGenerator
}

// Service computes profiles and recommendations for the admin surface.
type Service struct {
	cfg     Config
	deriver *behavior.Deriver
	engine  *recommend.Engine
	logger  *logging.Logger
}

// NewService wires the pipeline. Source is required.
func NewService(cfg Config) (*Service, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("profiles: record source required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.IDs == nil {
		cfg.IDs = behavior.NewUUIDGenerator()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Service{
		cfg:     cfg,
		deriver: behavior.NewDeriver(cfg.IDs),
		engine:  recommend.NewEngine(cfg.IDs, cfg.IndividualServiceIDs),
		logger:  cfg.Logger,
	}, nil
}

func (s *Service) options(now time.Time) behavior.ProfileOptions {
	opts := behavior.DefaultProfileOptions(now)
	if s.cfg.WindowDays != 0 {
		opts.Metrics.WindowDays = s.cfg.WindowDays
	}
	if s.cfg.LateCancelThresholdHours != 0 {
		opts.Metrics.LateCancelThresholdHours = s.cfg.LateCancelThresholdHours
	}
	return opts
}

// historyHorizon bounds how far back raw records are loaded. The widest
// recency bucket is 180 days; anything older weighs zero in every window.
func historyHorizon(now time.Time) time.Time {
	return now.AddDate(0, 0, -180)
}

// GetProfile returns one client's profile, from cache when fresh.
func (s *Service) GetProfile(ctx context.Context, orgID, clientID string) (behavior.Profile, error) {
	if clientID == "" {
		return behavior.Profile{}, ErrClientNotFound
	}
	if s.cfg.Cache != nil {
		cached, err := s.cfg.Cache.Get(ctx, orgID, clientID)
		if err != nil {
			s.logger.Warn("profile cache read failed", "org_id", orgID, "client_id", clientID, "error", err)
		} else if cached != nil {
			s.cfg.Metrics.ObserveProfileCache(true)
			return *cached, nil
		}
		s.cfg.Metrics.ObserveProfileCache(false)
	}

	now := s.cfg.Now()
	events, err := s.loadEvents(ctx, orgID, now)
	if err != nil {
		s.cfg.Metrics.ObserveProfileBuild("error", 0)
		return behavior.Profile{}, err
	}

	start := time.Now()
	profile := behavior.ComputeProfile(clientID, events, s.options(now))
	s.cfg.Metrics.ObserveProfileBuild("ok", time.Since(start).Seconds())

	if s.cfg.Cache != nil {
		if err := s.cfg.Cache.Set(ctx, orgID, profile); err != nil {
			s.logger.Warn("profile cache write failed", "org_id", orgID, "client_id", clientID, "error", err)
		}
	}
	return profile, nil
}

// ListProfiles computes fresh profiles for every client of the org. The
// batch always recomputes; the per-client cache is refreshed as a side
// effect.
func (s *Service) ListProfiles(ctx context.Context, orgID string) ([]behavior.Profile, error) {
	now := s.cfg.Now()
	clients, err := s.cfg.Source.ListClients(ctx, orgID)
	if err != nil {
		return nil, err
	}
	events, err := s.loadEvents(ctx, orgID, now)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(clients))
	for i, c := range clients {
		ids[i] = c.ID
	}

	start := time.Now()
	result := behavior.ComputeProfiles(ids, events, s.options(now), s.cfg.Workers)
	s.cfg.Metrics.ObserveProfileBuild("ok", time.Since(start).Seconds())

	if s.cfg.Cache != nil {
		for _, p := range result {
			if err := s.cfg.Cache.Set(ctx, orgID, p); err != nil {
				s.logger.Warn("profile cache write failed", "org_id", orgID, "client_id", p.ClientID, "error", err)
				break
			}
		}
	}
	return result, nil
}

// Recommendations builds the prioritized staff action list for the org.
func (s *Service) Recommendations(ctx context.Context, orgID string) ([]recommend.Recommendation, error) {
	now := s.cfg.Now()
	clients, err := s.cfg.Source.ListClients(ctx, orgID)
	if err != nil {
		return nil, err
	}
	appointments, err := s.cfg.Source.ListAppointments(ctx, orgID, now.AddDate(-1, 0, 0))
	if err != nil {
		return nil, err
	}
	waitlist, err := s.cfg.Source.ListWaitlist(ctx, orgID)
	if err != nil {
		return nil, err
	}

	recs := s.engine.Build(clients, appointments, waitlist, now)
	for _, r := range recs {
		s.cfg.Metrics.ObserveRecommendation(string(r.Type))
	}
	return recs, nil
}

func (s *Service) loadEvents(ctx context.Context, orgID string, now time.Time) ([]behavior.Event, error) {
	since := historyHorizon(now)
	appointments, err := s.cfg.Source.ListAppointments(ctx, orgID, since)
	if err != nil {
		return nil, err
	}
	notifications, err := s.cfg.Source.ListNotifications(ctx, orgID, since)
	if err != nil {
		return nil, err
	}
	waitlist, err := s.cfg.Source.ListWaitlist(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return s.deriver.Derive(appointments, notifications, waitlist), nil
}

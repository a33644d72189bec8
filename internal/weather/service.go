package weather

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-now/internal/observability"
)

// Service runs one acquisition cycle: fetch, map icon, build display state.
type Service struct {
	fetcher Fetcher
	store   Store
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewService creates a new Service. store may be nil when no history is kept.
func NewService(fetcher Fetcher, store Store, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		fetcher: fetcher,
		store:   store,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// Refresh fetches current conditions for coord and returns the resulting
// display state. Fetch failures become an Error state; they are never retried.
func (s *Service) Refresh(ctx context.Context, coord Coordinate) DisplayState {
	cycleID := uuid.NewString()
	start := s.clock.Now()

	conds, err := s.fetcher.Fetch(ctx, coord)
	s.metrics.FetchDuration.Observe(s.clock.Since(start).Seconds())
	if err != nil {
		fe := NewFetchError(err)
		outcome := "error"
		if fe.Status != 0 {
			outcome = "http_error"
		}
		s.metrics.FetchTotal.WithLabelValues(outcome).Inc()
		s.logger.Error("weather fetch failed",
			"cycle_id", cycleID,
			"provider", s.fetcher.Name(),
			"coordinate", coord.String(),
			"status", fe.Status,
			"error", fe.Message,
		)
		return Failed(fe.Message)
	}

	snapshot := WeatherSnapshot{
		ID:         cycleID,
		Coordinate: coord,
		Conditions: conds,
		Icon:       MapIcon(conds.Condition),
		FetchedAt:  s.clock.Now().UTC(),
	}
	s.metrics.FetchTotal.WithLabelValues("success").Inc()

	if s.store != nil {
		s.store.SaveSnapshot(coord, snapshot)
	}

	s.logger.Debug("weather fetched",
		"cycle_id", cycleID,
		"city", snapshot.City,
		"condition", snapshot.Condition,
		"icon", snapshot.Icon,
	)
	return Ready(snapshot)
}

// History returns the stored snapshots for coord between from and to.
func (s *Service) History(coord Coordinate, from, to time.Time) ([]WeatherSnapshot, error) {
	if s.store == nil {
		return nil, ErrNoHistory
	}
	return s.store.GetRange(coord, from, to)
}

// Latest returns the most recent stored snapshot for coord.
func (s *Service) Latest(coord Coordinate) (WeatherSnapshot, error) {
	if s.store == nil {
		return WeatherSnapshot{}, ErrNoHistory
	}
	return s.store.GetLatest(coord)
}

// ErrNoHistory is returned by History and Latest when the service keeps no store.
var ErrNoHistory = errors.New("snapshot history is not enabled")

package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/weather-now/internal/weather"
)

// ErrNotFound is returned when no snapshots match a coordinate or range.
var ErrNotFound = errors.New("no weather data for coordinate")

// series is the snapshot history of one coordinate, ordered by FetchedAt.
type series []weather.WeatherSnapshot

// after returns the index of the first snapshot fetched after t.
func (s series) after(t time.Time) int {
	return sort.Search(len(s), func(i int) bool { return s[i].FetchedAt.After(t) })
}

// notBefore returns the index of the first snapshot fetched at or after t.
func (s series) notBefore(t time.Time) int {
	return sort.Search(len(s), func(i int) bool { return !s[i].FetchedAt.Before(t) })
}

// MemoryStore keeps a bounded, time-ordered snapshot history per coordinate.
// It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	series map[string]series

	maxHistory int           // per coordinate, <= 0 is unlimited
	maxAge     time.Duration // <= 0 keeps snapshots regardless of age

	clock clockwork.Clock
}

// NewMemoryStore creates a store with the given retention limits.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		series:     make(map[string]series),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		clock:      clockwork.NewRealClock(),
	}
}

// SaveSnapshot records snapshot under coord. Snapshots that arrive out of
// order are placed by FetchedAt; retention is applied afterwards.
func (s *MemoryStore) SaveSnapshot(coord weather.Coordinate, snapshot weather.WeatherSnapshot) {
	key := coord.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	ss := s.series[key]
	i := ss.after(snapshot.FetchedAt)
	ss = append(ss, weather.WeatherSnapshot{})
	copy(ss[i+1:], ss[i:])
	ss[i] = snapshot

	if s.maxAge > 0 {
		ss = ss[ss.notBefore(s.clock.Now().Add(-s.maxAge)):]
	}
	if s.maxHistory > 0 && len(ss) > s.maxHistory {
		ss = ss[len(ss)-s.maxHistory:]
	}

	if len(ss) == 0 {
		delete(s.series, key)
		return
	}
	s.series[key] = ss
}

// GetLatest returns the most recently fetched snapshot for coord.
func (s *MemoryStore) GetLatest(coord weather.Coordinate) (weather.WeatherSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ss := s.series[coord.Key()]
	if len(ss) == 0 {
		return weather.WeatherSnapshot{}, ErrNotFound
	}
	return ss[len(ss)-1], nil
}

// GetRange returns the snapshots for coord fetched within [from, to].
func (s *MemoryStore) GetRange(coord weather.Coordinate, from, to time.Time) ([]weather.WeatherSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ss := s.series[coord.Key()]
	lo, hi := ss.notBefore(from), ss.after(to)
	if lo >= hi {
		return nil, ErrNotFound
	}

	out := make([]weather.WeatherSnapshot, hi-lo)
	copy(out, ss[lo:hi])
	return out, nil
}

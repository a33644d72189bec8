package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-now/internal/notify"
	"github.com/i474232898/weather-now/internal/store"
	"github.com/i474232898/weather-now/internal/weather"
)

type stubState struct {
	state weather.DisplayState
	coord *weather.Coordinate
}

func (s stubState) State() weather.DisplayState { return s.state }

func (s stubState) Coordinate() (weather.Coordinate, bool) {
	if s.coord == nil {
		return weather.Coordinate{}, false
	}
	return *s.coord, true
}

type storeHistory struct{ *store.MemoryStore }

func (h storeHistory) Latest(coord weather.Coordinate) (weather.WeatherSnapshot, error) {
	return h.GetLatest(coord)
}

func (h storeHistory) History(coord weather.Coordinate, from, to time.Time) ([]weather.WeatherSnapshot, error) {
	return h.GetRange(coord, from, to)
}

var delhi = weather.Coordinate{Lat: 28.67, Lon: 77.22}

func newTestApp(deps Deps) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, deps)
	return app
}

func doJSON(t *testing.T, app *fiber.App, target string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if resp.Header.Get(fiber.HeaderContentType) == fiber.MIMEApplicationJSON {
		require.NoError(t, json.Unmarshal(body, &out))
	}
	return resp.StatusCode, out
}

func TestCurrent_Loading(t *testing.T) {
	app := newTestApp(Deps{State: stubState{state: weather.Loading()}})

	code, body := doJSON(t, app, "/api/v1/weather/current")
	require.Equal(t, http.StatusOK, code)

	state := body["state"].(map[string]any)
	assert.Equal(t, "loading", state["status"])
	assert.Nil(t, state["snapshot"])
	assert.Nil(t, body["coordinate"])
	assert.Empty(t, body["advisories"])
}

func TestCurrent_ReadyWithAdvisory(t *testing.T) {
	temp := 20
	snap := weather.WeatherSnapshot{
		Coordinate: delhi,
		Conditions: weather.Conditions{
			City:         "Delhi",
			Country:      "IN",
			TemperatureC: &temp,
			Humidity:     weather.HumidityOf(40),
			Condition:    "Haze",
		},
		Icon: weather.IconClearDay,
	}
	rec := notify.NewRecorder()
	rec.Notify("Location access is unavailable.")

	app := newTestApp(Deps{State: stubState{state: weather.Ready(snap), coord: &delhi}, Advisories: rec})

	code, body := doJSON(t, app, "/api/v1/weather/current")
	require.Equal(t, http.StatusOK, code)

	state := body["state"].(map[string]any)
	assert.Equal(t, "ready", state["status"])
	s := state["snapshot"].(map[string]any)
	assert.Equal(t, "Delhi", s["city"])
	assert.Equal(t, float64(20), s["temperatureC"])
	assert.Nil(t, s["temperatureF"])
	assert.Equal(t, "CLEAR_DAY", s["icon"])
	assert.Equal(t, float64(40), s["humidity"])
	assert.Len(t, body["advisories"], 1)
}

func TestCurrent_Error(t *testing.T) {
	app := newTestApp(Deps{State: stubState{state: weather.Failed("city not found"), coord: &delhi}})

	code, body := doJSON(t, app, "/api/v1/weather/current")
	require.Equal(t, http.StatusOK, code)

	state := body["state"].(map[string]any)
	assert.Equal(t, "error", state["status"])
	assert.Equal(t, "city not found", state["error"])
	assert.Nil(t, state["snapshot"])
}

func TestHistory(t *testing.T) {
	mem := store.NewMemoryStore(10, 0)
	ts := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	mem.SaveSnapshot(delhi, weather.WeatherSnapshot{ID: "a", Coordinate: delhi, FetchedAt: ts})

	app := newTestApp(Deps{State: stubState{coord: &delhi}, History: storeHistory{mem}})

	code, body := doJSON(t, app, "/api/v1/weather/history?from=2026-10-15T00:00:00Z&to=2026-10-16T00:00:00Z")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["snapshots"], 1)

	code, _ = doJSON(t, app, "/api/v1/weather/history?from=2026-10-14T00:00:00Z&to=2026-10-14T12:00:00Z")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestLatest(t *testing.T) {
	mem := store.NewMemoryStore(10, 0)
	app := newTestApp(Deps{State: stubState{coord: &delhi}, History: storeHistory{mem}})

	code, _ := doJSON(t, app, "/api/v1/weather/latest")
	assert.Equal(t, http.StatusNotFound, code)

	ts := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	mem.SaveSnapshot(delhi, weather.WeatherSnapshot{ID: "a", Coordinate: delhi, FetchedAt: ts})
	mem.SaveSnapshot(delhi, weather.WeatherSnapshot{ID: "b", Coordinate: delhi, FetchedAt: ts.Add(10 * time.Minute),
		Conditions: weather.Conditions{City: "Delhi"}})

	code, body := doJSON(t, app, "/api/v1/weather/latest")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "b", body["id"])
	assert.Equal(t, "Delhi", body["city"])
}

func TestLatest_NoCoordinateYet(t *testing.T) {
	app := newTestApp(Deps{State: stubState{}, History: storeHistory{store.NewMemoryStore(10, 0)}})

	code, _ := doJSON(t, app, "/api/v1/weather/latest")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHistoryValidation(t *testing.T) {
	app := newTestApp(Deps{State: stubState{coord: &delhi}, History: storeHistory{store.NewMemoryStore(10, 0)}})

	// Missing range.
	code, _ := doJSON(t, app, "/api/v1/weather/history")
	assert.Equal(t, http.StatusBadRequest, code)

	// Unparseable time.
	code, _ = doJSON(t, app, "/api/v1/weather/history?from=yesterday&to=today")
	assert.Equal(t, http.StatusBadRequest, code)

	// to before from.
	code, _ = doJSON(t, app, "/api/v1/weather/history?from=2026-10-16T00:00:00Z&to=2026-10-15T00:00:00Z")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHistory_NoCoordinateYet(t *testing.T) {
	app := newTestApp(Deps{State: stubState{}, History: storeHistory{store.NewMemoryStore(10, 0)}})

	code, _ := doJSON(t, app, "/api/v1/weather/history?from=2026-10-15T00:00:00Z&to=2026-10-16T00:00:00Z")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestIconLookup(t *testing.T) {
	app := newTestApp(Deps{State: stubState{}})

	code, body := doJSON(t, app, "/api/v1/icons/Drizzle")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "SLEET", body["icon"])

	code, body = doJSON(t, app, "/api/v1/icons/Thunderstorm")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "CLEAR_DAY", body["icon"])
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "weather_now_test_total"})
	reg.MustRegister(counter)
	counter.Inc()

	app := newTestApp(Deps{State: stubState{}, Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "weather_now_test_total 1")
}

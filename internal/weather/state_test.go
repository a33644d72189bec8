package weather

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayStateVariants(t *testing.T) {
	loading := Loading()
	assert.Equal(t, StateLoading, loading.Kind())
	_, ok := loading.Snapshot()
	assert.False(t, ok)
	_, ok = loading.Error()
	assert.False(t, ok)

	snap := WeatherSnapshot{ID: "x"}
	ready := Ready(snap)
	got, ok := ready.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "x", got.ID)
	_, ok = ready.Error()
	assert.False(t, ok)

	failed := Failed("city not found")
	msg, ok := failed.Error()
	require.True(t, ok)
	assert.Equal(t, "city not found", msg)
	_, ok = failed.Snapshot()
	assert.False(t, ok)
}

func TestDisplayStateJSON(t *testing.T) {
	temp := 20
	ready := Ready(WeatherSnapshot{
		ID:         "abc",
		Coordinate: Coordinate{Lat: 28.67, Lon: 77.22},
		Conditions: Conditions{
			City:         "Delhi",
			Country:      "IN",
			TemperatureC: &temp,
			Condition:    "Haze",
		},
		Icon:      IconClearDay,
		FetchedAt: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
	})

	b, err := json.Marshal(ready)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"status": "ready",
		"snapshot": {
			"id": "abc",
			"coordinate": {"lat": 28.67, "lon": 77.22},
			"city": "Delhi",
			"country": "IN",
			"temperatureC": 20,
			"temperatureF": null,
			"humidity": "N/A",
			"condition": "Haze",
			"icon": "CLEAR_DAY",
			"fetchedAt": "2026-10-15T12:00:00Z"
		}
	}`, string(b))

	b, err = json.Marshal(Failed("boom"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"error","snapshot":null,"error":"boom"}`, string(b))

	b, err = json.Marshal(Loading())
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"loading","snapshot":null}`, string(b))
}

func TestHumidity(t *testing.T) {
	var missing Humidity
	assert.Equal(t, "N/A", missing.String())

	h := HumidityOf(63.5)
	v, ok := h.Value()
	assert.True(t, ok)
	assert.Equal(t, 63.5, v)
	assert.Equal(t, "63.5", h.String())
}

func TestNewFetchError(t *testing.T) {
	assert.Equal(t, GenericErrorMessage, NewFetchError(nil).Message)

	orig := &FetchError{Status: 404, Message: "city not found"}
	assert.Same(t, orig, NewFetchError(orig))

	assert.Equal(t, "dial tcp: refused", NewFetchError(errString("dial tcp: refused")).Message)
	assert.Equal(t, GenericErrorMessage, NewFetchError(errString("")).Message)
}

type errString string

func (e errString) Error() string { return string(e) }

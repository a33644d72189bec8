package weather

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Unknown is substituted for any textual field the upstream API omits.
const Unknown = "Unknown"

// HumidityUnavailable is the display sentinel for a missing humidity reading.
const HumidityUnavailable = "N/A"

// Coordinate is a WGS84 position. It is immutable once obtained.
type Coordinate struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Key returns a canonical string key for indexing this coordinate in stores.
func (c Coordinate) Key() string {
	return fmt.Sprintf("%.4f:%.4f", c.Lat, c.Lon)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%g, %g)", c.Lat, c.Lon)
}

// Humidity is a relative humidity percentage that may be missing.
type Humidity struct {
	value float64
	known bool
}

// HumidityOf returns a known humidity reading.
func HumidityOf(pct float64) Humidity {
	return Humidity{value: pct, known: true}
}

// Value reports the percentage and whether it was present.
func (h Humidity) Value() (float64, bool) {
	return h.value, h.known
}

func (h Humidity) String() string {
	if !h.known {
		return HumidityUnavailable
	}
	return strconv.FormatFloat(h.value, 'f', -1, 64)
}

// MarshalJSON writes a number, or the "N/A" sentinel when unknown.
func (h Humidity) MarshalJSON() ([]byte, error) {
	if !h.known {
		return json.Marshal(HumidityUnavailable)
	}
	return json.Marshal(h.value)
}

// Conditions is the normalized view of a single upstream observation.
// Temperatures are nil when the upstream omitted them.
type Conditions struct {
	City         string   `json:"city"`
	Country      string   `json:"country"`
	TemperatureC *int     `json:"temperatureC"`
	TemperatureF *int     `json:"temperatureF"`
	Humidity     Humidity `json:"humidity"`
	Condition    string   `json:"condition"`
}

// WeatherSnapshot is the displayable result of one successful fetch cycle.
type WeatherSnapshot struct {
	ID         string     `json:"id"`
	Coordinate Coordinate `json:"coordinate"`
	Conditions
	Icon      IconID    `json:"icon"`
	FetchedAt time.Time `json:"fetchedAt"` // always UTC
}

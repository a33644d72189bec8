package weather

// IconID names one of the animated icons the rendering layer knows how to draw.
type IconID string

const (
	IconClearDay IconID = "CLEAR_DAY"
	IconCloudy   IconID = "CLOUDY"
	IconRain     IconID = "RAIN"
	IconSnow     IconID = "SNOW"
	IconWind     IconID = "WIND"
	IconSleet    IconID = "SLEET"
	IconFog      IconID = "FOG"
)

// DefaultIcon is used for any condition without an entry in conditionIcons.
const DefaultIcon = IconClearDay

// conditionIcons maps OpenWeatherMap "main" condition groups to icons.
var conditionIcons = map[string]IconID{
	"Haze":    IconClearDay,
	"Clouds":  IconCloudy,
	"Rain":    IconRain,
	"Snow":    IconSnow,
	"Dust":    IconWind,
	"Drizzle": IconSleet,
	"Fog":     IconFog,
	"Smoke":   IconFog,
	"Tornado": IconWind,
}

// Icons lists every member of the icon set.
var Icons = []IconID{IconClearDay, IconCloudy, IconRain, IconSnow, IconWind, IconSleet, IconFog}

// MapIcon returns the icon for a condition keyword. Matching is exact;
// unrecognized keywords, including "Unknown" and "", map to DefaultIcon.
func MapIcon(condition string) IconID {
	if icon, ok := conditionIcons[condition]; ok {
		return icon
	}
	return DefaultIcon
}

// Valid reports whether id is a member of the icon set.
func (id IconID) Valid() bool {
	for _, icon := range Icons {
		if icon == id {
			return true
		}
	}
	return false
}

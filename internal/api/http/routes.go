package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/i474232898/weather-now/internal/notify"
	"github.com/i474232898/weather-now/internal/store"
	"github.com/i474232898/weather-now/internal/weather"
)

var validate = validator.New()

// StateSource exposes the poller's current display state.
type StateSource interface {
	State() weather.DisplayState
	Coordinate() (weather.Coordinate, bool)
}

// HistorySource returns stored snapshots for a coordinate.
type HistorySource interface {
	History(coord weather.Coordinate, from, to time.Time) ([]weather.WeatherSnapshot, error)
	Latest(coord weather.Coordinate) (weather.WeatherSnapshot, error)
}

// AdvisorySource lists advisories delivered to the user.
type AdvisorySource interface {
	Advisories() []notify.Advisory
}

// Deps are the collaborators the routes read from. Advisories and Metrics
// may be nil.
type Deps struct {
	State      StateSource
	History    HistorySource
	Advisories AdvisorySource
	Metrics    http.Handler
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	v1 := app.Group("/api/v1")

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		resp := currentResponse{
			State:      deps.State.State(),
			Advisories: []notify.Advisory{},
		}
		if coord, ok := deps.State.Coordinate(); ok {
			resp.Coordinate = &coord
		}
		if deps.Advisories != nil {
			resp.Advisories = deps.Advisories.Advisories()
		}
		return c.JSON(resp)
	})

	// Latest stored snapshot, which outlives an error state on /current.
	v1.Get("/weather/latest", func(c *fiber.Ctx) error {
		coord, ok := deps.State.Coordinate()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "location has not been acquired yet")
		}

		snap, err := deps.History.Latest(coord)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) || errors.Is(err, weather.ErrNoHistory) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data stored yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch latest weather")
		}
		return c.JSON(snap)
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		coord, ok := deps.State.Coordinate()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "location has not been acquired yet")
		}

		snapshots, err := deps.History.History(coord, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) || errors.Is(err, weather.ErrNoHistory) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"coordinate": coord,
			"from":       req.From,
			"to":         req.To,
			"snapshots":  snapshots,
		})
	})

	v1.Get("/icons/:condition", func(c *fiber.Ctx) error {
		q := iconQuery{Condition: c.Params("condition")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{
			"condition": q.Condition,
			"icon":      weather.MapIcon(q.Condition),
		})
	})
}

type currentResponse struct {
	State      weather.DisplayState `json:"state"`
	Coordinate *weather.Coordinate  `json:"coordinate"`
	Advisories []notify.Advisory    `json:"advisories"`
}

type iconQuery struct {
	Condition string `validate:"required,max=64"`
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

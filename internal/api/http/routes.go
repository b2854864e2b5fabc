package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/forecast-sync/internal/notify"
	"github.com/i474232898/forecast-sync/internal/store"
	"github.com/i474232898/forecast-sync/internal/weather"
)

var validate = validator.New()

// Preferences is the settings store the API reads and edits.
type Preferences interface {
	Settings(ctx context.Context) (store.Settings, error)
	SaveSettings(ctx context.Context, s store.Settings) error
}

// NotificationFeed exposes the last notification shown to the user.
type NotificationFeed interface {
	Latest() (notify.Message, bool)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, prefs Preferences, feed NotificationFeed) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/today", func(c *fiber.Ctx) error {
		day, sum, ok, err := service.Today(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read today's forecast")
		}
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no forecast stored for today")
		}
		return c.JSON(newTodayResponse(day, sum))
	})

	v1.Get("/weather/forecast", func(c *fiber.Ctx) error {
		var q forecastQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := service.Forecast(c.UserContext(), q.Days)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no forecast data stored")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read forecast")
		}
		return c.JSON(fiber.Map{
			"days":    len(records),
			"records": records,
		})
	})

	v1.Post("/sync", func(c *fiber.Ctx) error {
		res := service.Run(c.UserContext())
		status := fiber.StatusOK
		if res.State == weather.StateFailed {
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(res)
	})

	v1.Get("/sync/last", func(c *fiber.Ctx) error {
		res, ok := service.LastResult()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no sync has run yet")
		}
		return c.JSON(res)
	})

	v1.Get("/notifications/latest", func(c *fiber.Ctx) error {
		msg, ok := feed.Latest()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no notification shown yet")
		}
		return c.JSON(msg)
	})

	v1.Get("/preferences", func(c *fiber.Ctx) error {
		s, err := prefs.Settings(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read preferences")
		}
		return c.JSON(s)
	})

	v1.Put("/preferences", func(c *fiber.Ctx) error {
		var req preferencesRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		current, err := prefs.Settings(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read preferences")
		}
		next, err := req.apply(current)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := prefs.SaveSettings(c.UserContext(), next); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(next)
	})
}

type todayResponse struct {
	Date        string            `json:"date"`
	WeatherID   int               `json:"weatherId"`
	MaxTemp     float64           `json:"maxTemp"`
	MinTemp     float64           `json:"minTemp"`
	Condition   weather.Condition `json:"condition"`
	Description string            `json:"description"`
	Icon        string            `json:"icon"`
}

func newTodayResponse(day time.Time, s weather.Summary) todayResponse {
	return todayResponse{
		Date:        day.Format(time.DateOnly),
		WeatherID:   s.WeatherID,
		MaxTemp:     s.MaxTemp,
		MinTemp:     s.MinTemp,
		Condition:   s.Condition(),
		Description: s.Description(),
		Icon:        weather.ConditionIcon(s.WeatherID),
	}
}

// forecastQuery holds query parameters for the forecast endpoint.
type forecastQuery struct {
	Days int `validate:"required,min=1,max=16"`
}

func (q *forecastQuery) bind(c *fiber.Ctx) error {
	raw := c.Query("days")
	if raw == "" {
		return errors.New("days query parameter is required")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return errors.New("days must be an integer")
	}
	q.Days = n
	return nil
}

// preferencesRequest is a partial update; absent fields keep their value.
type preferencesRequest struct {
	Location             *locationBody `json:"location"`
	Units                *string       `json:"units" validate:"omitempty,oneof=metric imperial"`
	NotificationsEnabled *bool         `json:"notificationsEnabled"`
}

type locationBody struct {
	Query string   `json:"query" validate:"max=200"`
	Lat   *float64 `json:"lat" validate:"omitempty,latitude"`
	Lon   *float64 `json:"lon" validate:"omitempty,longitude"`
}

func (r preferencesRequest) apply(s store.Settings) (store.Settings, error) {
	if r.Location != nil {
		if (r.Location.Lat == nil) != (r.Location.Lon == nil) {
			return s, errors.New("lat and lon must be set together")
		}
		s.Location = weather.Location{Query: r.Location.Query, Lat: r.Location.Lat, Lon: r.Location.Lon}
	}
	if r.Units != nil {
		s.Units = weather.Units(*r.Units)
	}
	if r.NotificationsEnabled != nil {
		s.NotificationsEnabled = *r.NotificationsEnabled
	}
	return s, nil
}

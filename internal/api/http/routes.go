package httpapi

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/i474232898/weather-lookup/internal/apperror"
	"github.com/i474232898/weather-lookup/internal/device"
	"github.com/i474232898/weather-lookup/internal/location"
	"github.com/i474232898/weather-lookup/internal/places"
	"github.com/i474232898/weather-lookup/internal/result"
	"github.com/i474232898/weather-lookup/internal/screens"
	"github.com/i474232898/weather-lookup/internal/weather"
)

var validate = validator.New()

// Services are the collaborators behind the HTTP API.
type Services struct {
	Weather     *weather.Service
	Locations   *location.Service
	Places      *places.Repository
	Device      *device.Static
	Permissions *device.StaticPermissions
	Screens     *screens.Registry
}

type AppOptions struct {
	Name string
	// RequestLog enables the Fiber access log middleware.
	RequestLog bool
}

// NewApp builds the Fiber app with the error handler, middleware, health check and API routes.
func NewApp(svc Services, opts AppOptions) *fiber.App {
	if opts.Name == "" {
		opts.Name = "weather-lookup"
	}
	app := fiber.New(fiber.Config{
		AppName:               opts.Name,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          ErrorHandler,
	})

	if opts.RequestLog {
		app.Use(logger.New())
	}
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": opts.Name,
		})
	})

	RegisterRoutes(app, svc)
	return app
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc Services) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		lat, lon, err := parseCoords(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return respond(c, result.Last(c.UserContext(), svc.Weather.Current(c.UserContext(), lat, lon)))
	})

	v1.Get("/weather/forecast", func(c *fiber.Ctx) error {
		lat, lon, err := parseCoords(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return respond(c, result.Last(c.UserContext(), svc.Weather.FiveDayForecast(c.UserContext(), lat, lon)))
	})

	v1.Get("/locations", func(c *fiber.Ctx) error {
		return respond(c, result.Last(c.UserContext(), svc.Locations.SavedLocations(c.UserContext())))
	})

	v1.Post("/locations", func(c *fiber.Ctx) error {
		loc, err := parseLocationBody(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		r := result.Last(c.UserContext(), svc.Locations.SaveNew(c.UserContext(), loc))
		if r.IsError() {
			return r.Err()
		}
		return c.Status(fiber.StatusCreated).JSON(loc)
	})

	v1.Get("/locations/can-add", func(c *fiber.Ctx) error {
		r := result.Last(c.UserContext(), svc.Locations.CanAddMore(c.UserContext()))
		if r.IsError() {
			return r.Err()
		}
		ok, _ := r.Value()
		return c.JSON(fiber.Map{"canAddMore": ok, "max": location.MaxSavedLocations})
	})

	v1.Get("/locations/current", func(c *fiber.Ctx) error {
		r := result.Last(c.UserContext(), svc.Locations.CurrentSavedLocation(c.UserContext()))
		if r.IsError() {
			return r.Err()
		}
		loc, _ := r.Value()
		if loc == nil {
			return apperror.New(apperror.KindLocationDataNull).WithMessage("no current location set")
		}
		return c.JSON(loc)
	})

	v1.Put("/locations/current", func(c *fiber.Ctx) error {
		loc, err := parseLocationBody(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		loc.IsCurrentLocation = true
		r := result.Last(c.UserContext(), svc.Locations.SetCurrent(c.UserContext(), loc))
		if r.IsError() {
			return r.Err()
		}
		return c.JSON(loc)
	})

	v1.Delete("/locations/:id", func(c *fiber.Ctx) error {
		r := result.Last(c.UserContext(), svc.Locations.Remove(c.UserContext(), c.Params("id")))
		if r.IsError() {
			return r.Err()
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/places", func(c *fiber.Ctx) error {
		return respond(c, result.Last(c.UserContext(), svc.Places.Search(c.UserContext(), c.Query("q"))))
	})

	v1.Get("/device/location", func(c *fiber.Ctx) error {
		r := result.Last(c.UserContext(), svc.Locations.DeviceLocation(c.UserContext()))
		if r.IsError() {
			return r.Err()
		}
		loc, _ := r.Value()
		if loc == nil {
			return apperror.New(apperror.KindLocationDataNull)
		}
		return c.JSON(loc)
	})

	v1.Put("/device/location", func(c *fiber.Ctx) error {
		var req coordsBody
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		fix := &device.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
		svc.Device.Set(fix)
		return c.JSON(fix)
	})

	v1.Get("/device/permission", func(c *fiber.Ctx) error {
		return c.JSON(permissionView(svc.Permissions))
	})

	// Reports the answer of the platform permission prompt and the location services switch.
	v1.Put("/device/permission", func(c *fiber.Ctx) error {
		var req permissionBody
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Mode != "" {
			svc.Permissions.SetMode(device.PermissionMode(req.Mode))
		}
		if req.Enabled != nil {
			svc.Permissions.SetEnabled(*req.Enabled)
		}
		return c.JSON(permissionView(svc.Permissions))
	})

	registerScreenRoutes(v1, svc.Screens)
}

type permissionBody struct {
	Mode    string `json:"mode" validate:"omitempty,oneof=granted denied denied_permanently"`
	Enabled *bool  `json:"enabled"`
}

func permissionView(p *device.StaticPermissions) fiber.Map {
	return fiber.Map{
		"mode":    p.Mode(),
		"granted": p.HasLocationPermission(),
		"enabled": p.IsLocationEnabled(),
	}
}

func registerScreenRoutes(v1 fiber.Router, reg *screens.Registry) {
	v1.Get("/screens", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"screens": reg.Screens()})
	})

	v1.Post("/screens/:screen", func(c *fiber.Ctx) error {
		screen := utils.CopyString(c.Params("screen"))
		id, err := reg.Create(screen, c.Body())
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id, "screen": screen})
	})

	v1.Post("/screens/:screen/:id/intents", func(c *fiber.Ctx) error {
		s, err := reg.Get(c.Params("screen"), c.Params("id"))
		if err != nil {
			return err
		}
		if err := s.Dispatch(c.Body()); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	v1.Get("/screens/:screen/:id/state", func(c *fiber.Ctx) error {
		s, err := reg.Get(c.Params("screen"), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(s.Snapshot())
	})

	v1.Get("/screens/:screen/:id/action", func(c *fiber.Ctx) error {
		s, err := reg.Get(c.Params("screen"), c.Params("id"))
		if err != nil {
			return err
		}
		take := s.TakeAction
		if c.QueryBool("peek") {
			take = s.PeekAction
		}
		env, ok := take()
		if !ok {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.JSON(env)
	})

	v1.Delete("/screens/:screen/:id", func(c *fiber.Ctx) error {
		if err := reg.Close(c.Params("screen"), c.Params("id")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// respond renders a terminal result: the value on success, the AppError otherwise.
func respond[T any](c *fiber.Ctx, r result.Result[T]) error {
	if r.IsError() {
		return r.Err()
	}
	v, _ := r.Value()
	return c.JSON(v)
}

// coordsQuery holds the lat/lon query parameters.
type coordsQuery struct {
	Lat string `validate:"required,latitude"`
	Lon string `validate:"required,longitude"`
}

func parseCoords(c *fiber.Ctx) (float64, float64, error) {
	q := coordsQuery{Lat: c.Query("lat"), Lon: c.Query("lon")}
	if err := validate.Struct(q); err != nil {
		return 0, 0, err
	}
	lat, err := strconv.ParseFloat(q.Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid lat: %w", err)
	}
	lon, err := strconv.ParseFloat(q.Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid lon: %w", err)
	}
	return lat, lon, nil
}

type coordsBody struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

// locationBody is the JSON body for saving a location.
type locationBody struct {
	ID        string   `json:"id" validate:"required"`
	Name      string   `json:"name" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
	Country   *string  `json:"country"`
	State     *string  `json:"state"`
}

func parseLocationBody(c *fiber.Ctx) (weather.SavedLocation, error) {
	var req locationBody
	if err := c.BodyParser(&req); err != nil {
		return weather.SavedLocation{}, fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := validate.Struct(req); err != nil {
		return weather.SavedLocation{}, err
	}
	loc := weather.NewSavedLocation(req.ID, req.Name, *req.Latitude, *req.Longitude)
	loc.Country = req.Country
	loc.State = req.State
	return loc, nil
}

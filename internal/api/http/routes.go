package httpapi

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tinoq/sense-backend/internal/hub"
	"github.com/tinoq/sense-backend/internal/store"
	"github.com/tinoq/sense-backend/internal/telemetry"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app. Authentication
// is handled by an external layer that populates the X-User header; every
// route here trusts that identity.
func RegisterRoutes(app *fiber.App, service *telemetry.Service, h *hub.Hub) {
	v1 := app.Group("/api/v1")

	v1.Get("/readings/latest", func(c *fiber.Ctx) error {
		reading, err := service.Latest(c.Context())
		if err != nil {
			if errors.Is(err, store.ErrNoReadings) {
				return fiber.NewError(fiber.StatusNotFound, "no readings recorded yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch latest reading")
		}
		return c.JSON(reading)
	})

	v1.Get("/readings/history", func(c *fiber.Ctx) error {
		timeframe := c.Query("timeframe", "24h")
		res, err := telemetry.ResolutionFromTimeframe(timeframe)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		buckets, err := service.Aggregate(c.Context(), res)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to aggregate readings")
		}
		if buckets == nil {
			buckets = []telemetry.TimeBucket{}
		}
		return c.JSON(buckets)
	})

	v1.Post("/reports/generate", func(c *fiber.Ctx) error {
		var body reportRequestBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		req, err := body.toRequest(requester(c))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := service.GenerateReport(c.Context(), req)
		if err != nil {
			var verr *telemetry.ValidationError
			if errors.As(err, &verr) {
				return fiber.NewError(fiber.StatusBadRequest, verr.Reason)
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to generate report")
		}

		c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
		return c.SendString(report.Content)
	})

	v1.Get("/events", handleEvents(h))
}

// requester returns the caller identity supplied by the external
// authentication layer.
func requester(c *fiber.Ctx) string {
	if user := c.Get("X-User"); user != "" {
		return user
	}
	return "anonymous"
}

// reportRequestBody is the JSON body of POST /reports/generate.
type reportRequestBody struct {
	Type      string `json:"type" validate:"required"`
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate"`
}

func (b reportRequestBody) toRequest(requestedBy string) (telemetry.ReportRequest, error) {
	req := telemetry.ReportRequest{RequestedBy: requestedBy}

	reportType, err := telemetry.ParseReportType(b.Type)
	if err != nil {
		return req, err
	}
	req.Type = reportType

	req.Start, err = parseDate(b.StartDate)
	if err != nil {
		return req, errors.New("invalid startDate; use an ISO-8601 date")
	}
	if b.EndDate != "" {
		req.End, err = parseDate(b.EndDate)
		if err != nil {
			return req, errors.New("invalid endDate; use an ISO-8601 date")
		}
	}
	return req, nil
}

// parseDate accepts an RFC3339 timestamp or a bare date, which is taken as
// midnight UTC.
func parseDate(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", s)
}

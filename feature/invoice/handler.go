package invoice

import (
	"errors"

	"bulkmerge/core/logger"
	"bulkmerge/core/merge"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the invoice demo.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the demo routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/demo")
	group.Get("/", h.HandleListScenarios)
	group.Get("/reports", h.HandleListReports)
	group.Post("/:scenario", h.HandleRunScenario)
}

// HandleListScenarios returns the scenario names and the default options.
func (h *Handler) HandleListScenarios(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"scenarios": Scenarios(),
		"defaults":  DefaultOptions(),
	})
}

// HandleRunScenario runs one scenario. Sizes come from the seed, new and items query parameters.
func (h *Handler) HandleRunScenario(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	scenario, err := ParseScenario(c.Params("scenario"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	d := DefaultOptions()
	opts := Options{
		Seed:  c.QueryInt("seed", d.Seed),
		New:   c.QueryInt("new", d.New),
		Items: c.QueryInt("items", d.Items),
	}

	res, err := h.service.Run(c.UserContext(), scenario, opts)
	if err != nil {
		l.Error("Scenario failed", zap.String("scenario", string(scenario)), zap.Error(err))
		body := fiber.Map{"error": err.Error()}
		var partial *merge.PartialFailure
		if errors.As(err, &partial) {
			body["result"] = res
		}
		return c.Status(fiber.StatusInternalServerError).JSON(body)
	}

	return c.JSON(res)
}

// HandleListReports returns the stored report keys, optionally filtered by the scenario query parameter.
func (h *Handler) HandleListReports(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	keys, err := h.service.Reports(c.UserContext(), c.Query("scenario"))
	if errors.Is(err, ErrNoReportStore) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err != nil {
		l.Error("Failed to list reports", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"reports": keys})
}

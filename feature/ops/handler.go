package ops

import (
	"errors"

	"sg2pl/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler exposes the operational HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the ops routes at the router root.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/healthz", h.HandleHealth)
	app.Get("/status", h.HandleStatus)
	app.Get("/reports", h.HandleRecentReports)
	app.Post("/sync", h.HandleTriggerSync)
}

// HandleHealth is a liveness probe.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleStatus reports whether a batch is running and the last batch result.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// HandleRecentReports lists the newest archived report objects.
func (h *Handler) HandleRecentReports(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	limit := c.QueryInt("limit", 20)

	keys, err := h.service.RecentReports(c.Context(), limit)
	if errors.Is(err, ErrArchivingDisabled) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err != nil {
		l.Error("Listing archived reports failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"reports": keys})
}

// HandleTriggerSync starts a batch in the background. It answers 202 when
// the batch was accepted and 409 when one is already running.
func (h *Handler) HandleTriggerSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	dryRun := c.QueryBool("dry_run", false)

	if err := h.service.Trigger(dryRun); err != nil {
		if errors.Is(err, ErrBatchRunning) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		l.Error("Sync trigger failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	l.Info("Sync batch triggered", zap.Bool("dry_run", dryRun))
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status":  "accepted",
		"dry_run": dryRun,
	})
}

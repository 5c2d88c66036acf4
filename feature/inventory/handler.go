package inventory

import (
	"inventory-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for inventory reconciliation.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the inventory routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/inventory")
	group.Get("/diff", h.HandleDiff)
	group.Post("/sync", h.HandleSync)
}

// HandleDiff computes and returns the current diff without applying it.
// @Summary Compute Diff
// @Description Compare the source of truth against the database and return the structured diff.
// @Tags inventory
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any "Serialized Diff"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /inventory/diff [get]
func (h *Handler) HandleDiff(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	d, err := h.service.Diff(c.Context())
	if err != nil {
		l.Error("Diff calculation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	serialized, err := d.Serialize()
	if err != nil {
		l.Error("Diff serialization failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(serialized)
}

// HandleSync computes the diff and applies it to the database.
// @Summary Apply Sync
// @Description Compare the source of truth against the database and apply the diff. Pass dry_run=true to stop after the diff.
// @Tags inventory
// @Accept json
// @Produce json
// @Param dry_run query bool false "Compute the diff without applying it"
// @Success 200 {object} map[string]any "Run Summary"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /inventory/sync [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	dryRun := c.QueryBool("dry_run")

	d, summary, err := h.service.Sync(c.Context(), dryRun)
	if err != nil {
		l.Error("Sync failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	response := fiber.Map{
		"dry_run":     dryRun,
		"has_changes": d.HasChanges(),
	}
	if summary != nil {
		response["summary"] = summary
	}
	return c.JSON(response)
}

package backpack

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"backpack-manager/core/logger"
	"backpack-manager/feature/backpack/models"
)

// Handler exposes the admin and debug HTTP surface for the gateway.
type Handler struct {
	service *Service
	logger  *zap.Logger
	// updateChecker is the optional external update-check hook.
	updateChecker UpdateChecker
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// SetUpdateChecker installs the external update-check hook.
func (h *Handler) SetUpdateChecker(checker UpdateChecker) {
	h.updateChecker = checker
}

// RegisterRoutes registers the backpack routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/backpack")
	group.Get("/:player", h.HandleGetBackpack)
	group.Post("/rewrite", h.HandleRewrite)
	group.Post("/purge", h.HandlePurge)
	group.Post("/update-check", h.HandleUpdateCheck)
}

// HandleGetBackpack fetches one player's stored backpack and reports a
// summary. The path parameter is a unique id in uuid mode, otherwise a
// display name.
func (h *Handler) HandleGetBackpack(c *fiber.Ctx) error {
	raw := c.Params("player")
	l := logger.WithRayID(h.logger, c)

	var player models.Player
	if id, err := uuid.Parse(raw); err == nil {
		player = models.Player{UUID: id}
	} else {
		player = models.Player{Name: raw}
	}

	bp, err := h.service.LoadBackpack(c.Context(), player)
	if err != nil {
		l.Error("backpack fetch failed", zap.String("player", raw), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if bp == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no backpack stored",
		})
	}

	emptySlots := 0
	for _, slot := range bp.Inventory {
		if slot.IsEmpty() {
			emptySlots++
		}
	}
	return c.JSON(fiber.Map{
		"owner_id":    bp.OwnerID,
		"slots":       len(bp.Inventory),
		"empty_slots": emptySlots,
	})
}

// HandleRewrite triggers the format migration pass.
func (h *Handler) HandleRewrite(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	stats, err := h.service.Rewrite(c.Context())
	if err != nil {
		l.Error("rewrite pass failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":     err.Error(),
			"rewritten": stats.Rewritten,
		})
	}

	l.Info("rewrite pass finished",
		zap.Int("scanned", stats.Scanned),
		zap.Int("rewritten", stats.Rewritten),
		zap.Int("skipped", stats.Skipped),
	)
	return c.JSON(fiber.Map{
		"scanned":   stats.Scanned,
		"rewritten": stats.Rewritten,
		"skipped":   stats.Skipped,
		"version":   h.service.Serializer().Used(),
	})
}

// HandlePurge triggers the retention purge.
func (h *Handler) HandlePurge(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	removed, err := h.service.Purge(c.Context())
	if err != nil {
		l.Error("purge failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"removed": removed})
}

// HandleUpdateCheck runs the external update-check hook if one is
// installed.
func (h *Handler) HandleUpdateCheck(c *fiber.Ctx) error {
	if h.updateChecker == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"result": UpdateFailure.String(),
			"error":  "no update checker installed",
		})
	}
	result := h.updateChecker(c.Context())
	return c.JSON(fiber.Map{"result": result.String()})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/services"
)

type SettingsHandler struct {
	settingsService *services.SettingsService
	auditService    *audit.Service
}

func NewSettingsHandler(settingsService *services.SettingsService, auditService *audit.Service) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		auditService:    auditService,
	}
}

// GetSettings godoc
// @Summary Get system settings
// @Tags Settings
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} models.Settings
// @Router /settings [get]
func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.settingsService.Get(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(settings)
}

// UpdateSettings godoc
// @Summary Update system settings
// @Description Admin only. Omitted fields are unchanged; an empty alert_email clears it.
// @Tags Settings
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param settings body models.UpdateSettingsRequest true "Fields to change"
// @Success 200 {object} models.Settings
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /settings [put]
func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var req models.UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	settings, err := h.settingsService.Update(c.UserContext(), actor(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(settings)
}

// ListActivity godoc
// @Summary Activity log
// @Description Who changed what, newest first
// @Tags Activity
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param search query string false "Search in action, description and actor email"
// @Param entity query string false "company, order, transaction or settings"
// @Param entity_id query string false "Entity ID"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(50)
// @Success 200 {object} audit.AuditLogResponse
// @Router /activity [get]
func (h *SettingsHandler) ListActivity(c *fiber.Ctx) error {
	logs, err := h.auditService.GetLogs(c.UserContext(), audit.AuditFilter{
		Search:   c.Query("search"),
		Entity:   c.Query("entity"),
		EntityID: c.Query("entity_id"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "page_size"),
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(logs)
}

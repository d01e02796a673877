package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db       *gorm.DB
	provider string
}

func NewHealthHandler(db *gorm.DB, uploadProvider string) *HealthHandler {
	return &HealthHandler{db: db, provider: uploadProvider}
}

// GetHealth godoc
// @Summary Service health check
// @Description Check if the API and its database are alive
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	status := "ok"
	code := fiber.StatusOK

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":         status,
		"service":        "card-ledger-api",
		"file_provider":  h.provider,
		"database_alive": err == nil,
	})
}

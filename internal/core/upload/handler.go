package upload

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/utils"
)

// Handler serves files behind LocalProvider signed URLs
type Handler struct {
	provider *LocalProvider
}

// NewHandler creates a new signed-file handler
func NewHandler(provider *LocalProvider) *Handler {
	return &Handler{provider: provider}
}

// ServeSigned godoc
// @Summary Download a file through a signed URL
// @Description Streams a receipt file when the token is valid and not expired
// @Tags Files
// @Produce octet-stream
// @Param token query string true "Signed URL token"
// @Success 200 {file} binary
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /files/signed [get]
func (h *Handler) ServeSigned(c *fiber.Ctx) error {
	key, err := h.provider.VerifyToken(c.Query("token"))
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Invalid or expired link",
			"code":  "forbidden",
		})
	}

	data, err := h.provider.Download(c.UserContext(), key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "File not found",
				"code":  "not_found",
			})
		}
		utils.LogError("Failed to read signed file", err, map[string]interface{}{"key": key})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read file",
			"code":  "internal",
		})
	}

	c.Set(fiber.HeaderContentType, ContentTypeOf(key))
	return c.Send(data)
}

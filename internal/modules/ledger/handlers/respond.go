package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/finance"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/apperror"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/utils"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// URLResponse wraps a generated link
type URLResponse struct {
	URL string `json:"url"`
}

// respondError maps an error kind to its HTTP status
func respondError(c *fiber.Ctx, err error) error {
	kind := apperror.KindOf(err)

	status := fiber.StatusInternalServerError
	switch kind {
	case apperror.KindValidation:
		status = fiber.StatusBadRequest
	case apperror.KindNotFound:
		status = fiber.StatusNotFound
	case apperror.KindConflict:
		status = fiber.StatusConflict
	case apperror.KindDependency:
		status = fiber.StatusBadGateway
	}
	if errors.Is(err, finance.ErrCompanyPhoneRequired) {
		status = fiber.StatusUnprocessableEntity
	}

	message := "Internal server error"
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		message = appErr.UserMessage()
	}

	if status >= fiber.StatusInternalServerError {
		utils.LogError("Request failed", err, map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
		})
	}

	return c.Status(status).JSON(ErrorResponse{Error: message, Code: string(kind)})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: message, Code: string(apperror.KindValidation)})
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

// actor returns who is making the request for the activity log
func actor(c *fiber.Ctx) audit.Actor {
	p := auth.CurrentUser(c)
	if p == nil {
		return audit.Actor{}
	}
	return audit.Actor{ID: p.UserID, Email: p.Email}
}

func queryInt(c *fiber.Ctx, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

// queryUUID returns nil when the parameter is absent
func queryUUID(c *fiber.Ctx, key string) (*uuid.UUID, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// queryDate accepts YYYY-MM-DD or RFC3339. endOfDay moves a plain date to
// its last instant so "to" filters include the whole day.
func queryDate(c *fiber.Ctx, key string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func sendFile(c *fiber.Ctx, result *export.Result) error {
	c.Attachment(result.Filename)
	c.Set(fiber.HeaderContentType, result.ContentType)
	return c.Send(result.Content)
}

func errInvalidQuery(key string) error {
	return fmt.Errorf("invalid %s", key)
}

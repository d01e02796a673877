package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/services"
)

type TransactionHandler struct {
	transactionService *services.TransactionService
	exportService      *services.ExportService
}

func NewTransactionHandler(transactionService *services.TransactionService, exportService *services.ExportService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		exportService:      exportService,
	}
}

// CreateTransaction godoc
// @Summary Record a transaction
// @Description Record money Received from or Paid to a company. Omit company_id for an independent transaction.
// @Tags Transactions
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param transaction body models.CreateTransactionRequest true "Transaction data"
// @Success 201 {object} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *fiber.Ctx) error {
	var req models.CreateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	tx, err := h.transactionService.Create(c.UserContext(), actor(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(tx)
}

// ListTransactions godoc
// @Summary List transactions
// @Tags Transactions
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param company_id query string false "Filter by company"
// @Param independent query boolean false "Only transactions without a company"
// @Param type query string false "Received or Paid"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date, inclusive (YYYY-MM-DD)"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size (5 to 15)" default(10)
// @Success 200 {object} models.ListResponse[models.Transaction]
// @Failure 400 {object} ErrorResponse
// @Router /transactions [get]
func (h *TransactionHandler) ListTransactions(c *fiber.Ctx) error {
	filter, err := transactionFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	response, err := h.transactionService.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(response)
}

// ExportTransactions godoc
// @Summary Export transactions
// @Description Download every transaction matching the list filters
// @Tags Transactions
// @Produce octet-stream
// @Param Authorization header string true "Bearer token"
// @Param format query string false "csv, excel or pdf" default(csv)
// @Param company_id query string false "Filter by company"
// @Param independent query boolean false "Only transactions without a company"
// @Param type query string false "Received or Paid"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date, inclusive (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Router /transactions/export [get]
func (h *TransactionHandler) ExportTransactions(c *fiber.Ctx) error {
	filter, err := transactionFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.exportService.ExportTransactions(c.UserContext(), actor(c), filter, c.Query("format"))
	if err != nil {
		return respondError(c, err)
	}

	return sendFile(c, result)
}

// GetTransaction godoc
// @Summary Get transaction by ID
// @Tags Transactions
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Failure 404 {object} ErrorResponse
// @Router /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid transaction ID")
	}

	tx, err := h.transactionService.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(tx)
}

// UpdateTransaction godoc
// @Summary Update transaction
// @Description Omitted fields are unchanged. clear_company makes the transaction independent.
// @Tags Transactions
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Transaction ID"
// @Param transaction body models.UpdateTransactionRequest true "Fields to change"
// @Success 200 {object} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid transaction ID")
	}

	var req models.UpdateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	tx, err := h.transactionService.Update(c.UserContext(), actor(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(tx)
}

// DeleteTransaction godoc
// @Summary Delete transaction
// @Tags Transactions
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Transaction ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid transaction ID")
	}

	if err := h.transactionService.Delete(c.UserContext(), actor(c), id); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// UploadReceipt godoc
// @Summary Upload transaction receipt
// @Description Attach an image or PDF receipt, replacing the previous one
// @Tags Transactions
// @Accept multipart/form-data
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Transaction ID"
// @Param file formData file true "Receipt (image or PDF, max 10MB)"
// @Success 200 {object} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Router /transactions/{id}/receipt [post]
func (h *TransactionHandler) UploadReceipt(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid transaction ID")
	}

	file, closeFile, err := formFile(c)
	if err != nil {
		return badRequest(c, "A receipt file is required")
	}
	defer closeFile()

	tx, err := h.transactionService.UploadReceipt(c.UserContext(), actor(c), id, file)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(tx)
}

// ReceiptURL godoc
// @Summary Transaction receipt link
// @Description Short-lived signed URL to the receipt file
// @Tags Transactions
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Transaction ID"
// @Success 200 {object} URLResponse
// @Failure 404 {object} ErrorResponse
// @Router /transactions/{id}/receipt-url [get]
func (h *TransactionHandler) ReceiptURL(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid transaction ID")
	}

	link, err := h.transactionService.ReceiptURL(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(URLResponse{URL: link})
}

func transactionFilter(c *fiber.Ctx) (models.TransactionFilter, error) {
	companyID, err := queryUUID(c, "company_id")
	if err != nil {
		return models.TransactionFilter{}, errInvalidQuery("company_id")
	}
	from, err := queryDate(c, "from", false)
	if err != nil {
		return models.TransactionFilter{}, errInvalidQuery("from")
	}
	to, err := queryDate(c, "to", true)
	if err != nil {
		return models.TransactionFilter{}, errInvalidQuery("to")
	}

	return models.TransactionFilter{
		CompanyID:       companyID,
		IndependentOnly: c.QueryBool("independent"),
		Type:            models.TransactionType(c.Query("type")),
		From:            from,
		To:              to,
		Page:            queryInt(c, "page"),
		PageSize:        queryInt(c, "page_size"),
	}, nil
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/upload"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/services"
)

type OrderHandler struct {
	orderService  *services.OrderService
	exportService *services.ExportService
}

func NewOrderHandler(orderService *services.OrderService, exportService *services.ExportService) *OrderHandler {
	return &OrderHandler{
		orderService:  orderService,
		exportService: exportService,
	}
}

// CreateOrder godoc
// @Summary Create an order
// @Description Record cards issued to a company. New orders start Pending.
// @Tags Orders
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param order body models.CreateOrderRequest true "Order data"
// @Success 201 {object} models.Order
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /orders [post]
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req models.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	order, err := h.orderService.Create(c.UserContext(), actor(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

// ListOrders godoc
// @Summary List orders
// @Tags Orders
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param company_id query string false "Filter by company"
// @Param status query string false "Pending, Sent, Received or Paid"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size (5 to 15)" default(10)
// @Success 200 {object} models.ListResponse[models.Order]
// @Failure 400 {object} ErrorResponse
// @Router /orders [get]
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	filter, err := orderFilter(c)
	if err != nil {
		return badRequest(c, "Invalid company_id")
	}

	response, err := h.orderService.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(response)
}

// ExportOrders godoc
// @Summary Export orders
// @Description Download every order matching the list filters
// @Tags Orders
// @Produce octet-stream
// @Param Authorization header string true "Bearer token"
// @Param format query string false "csv, excel or pdf" default(csv)
// @Param company_id query string false "Filter by company"
// @Param status query string false "Filter by status"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Router /orders/export [get]
func (h *OrderHandler) ExportOrders(c *fiber.Ctx) error {
	filter, err := orderFilter(c)
	if err != nil {
		return badRequest(c, "Invalid company_id")
	}

	result, err := h.exportService.ExportOrders(c.UserContext(), actor(c), filter, c.Query("format"))
	if err != nil {
		return respondError(c, err)
	}

	return sendFile(c, result)
}

// GetOrder godoc
// @Summary Get order by ID
// @Tags Orders
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Order ID"
// @Success 200 {object} models.Order
// @Failure 404 {object} ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	order, err := h.orderService.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(order)
}

// UpdateOrder godoc
// @Summary Update order
// @Description Edit amount, cards count or order date. Status changes use PATCH /orders/{id}/status.
// @Tags Orders
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Order ID"
// @Param order body models.UpdateOrderRequest true "Fields to change"
// @Success 200 {object} models.Order
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /orders/{id} [put]
func (h *OrderHandler) UpdateOrder(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	var req models.UpdateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	order, err := h.orderService.Update(c.UserContext(), actor(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(order)
}

// DeleteOrder godoc
// @Summary Delete order
// @Tags Orders
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Order ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /orders/{id} [delete]
func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	if err := h.orderService.Delete(c.UserContext(), actor(c), id); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// TransitionStatus godoc
// @Summary Change order status
// @Description Move an order forward. Paid needs a receipt; entering Sent emails the company first and fails without changing status if delivery fails. expected_status guards against concurrent edits.
// @Tags Orders
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Order ID"
// @Param transition body models.TransitionRequest true "Target status"
// @Success 200 {object} models.Order
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /orders/{id}/status [patch]
func (h *OrderHandler) TransitionStatus(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	var req models.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	order, err := h.orderService.TransitionStatus(c.UserContext(), actor(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(order)
}

// SendEmail godoc
// @Summary Email order to company
// @Description Send the order summary with its receipt to the company email without changing status
// @Tags Orders
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Order ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /orders/{id}/send-email [post]
func (h *OrderHandler) SendEmail(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	if err := h.orderService.SendOrderEmail(c.UserContext(), actor(c), id); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"sent": true})
}

// UploadReceipt godoc
// @Summary Upload order receipt
// @Description Attach an image or PDF receipt, replacing the previous one
// @Tags Orders
// @Accept multipart/form-data
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Order ID"
// @Param file formData file true "Receipt (image or PDF, max 10MB)"
// @Success 200 {object} models.Order
// @Failure 400 {object} ErrorResponse
// @Router /orders/{id}/receipt [post]
func (h *OrderHandler) UploadReceipt(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	file, closeFile, err := formFile(c)
	if err != nil {
		return badRequest(c, "A receipt file is required")
	}
	defer closeFile()

	order, err := h.orderService.UploadReceipt(c.UserContext(), actor(c), id, file)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(order)
}

// ReceiptURL godoc
// @Summary Order receipt link
// @Description Short-lived signed URL to the receipt file
// @Tags Orders
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Order ID"
// @Success 200 {object} URLResponse
// @Failure 404 {object} ErrorResponse
// @Router /orders/{id}/receipt-url [get]
func (h *OrderHandler) ReceiptURL(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	link, err := h.orderService.ReceiptURL(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(URLResponse{URL: link})
}

// Invoice godoc
// @Summary Order invoice
// @Description Printable PDF invoice with tax and a WhatsApp QR code
// @Tags Orders
// @Produce application/pdf
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Order ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /orders/{id}/invoice [get]
func (h *OrderHandler) Invoice(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	result, err := h.orderService.Invoice(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return sendFile(c, result)
}

// WhatsAppLink godoc
// @Summary WhatsApp confirmation link
// @Description wa.me link carrying the order confirmation message
// @Tags Orders
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Order ID"
// @Success 200 {object} URLResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /orders/{id}/whatsapp-link [get]
func (h *OrderHandler) WhatsAppLink(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid order ID")
	}

	link, err := h.orderService.WhatsAppLink(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(URLResponse{URL: link})
}

func orderFilter(c *fiber.Ctx) (models.OrderFilter, error) {
	companyID, err := queryUUID(c, "company_id")
	if err != nil {
		return models.OrderFilter{}, err
	}
	return models.OrderFilter{
		CompanyID: companyID,
		Status:    models.OrderStatus(c.Query("status")),
		Page:      queryInt(c, "page"),
		PageSize:  queryInt(c, "page_size"),
	}, nil
}

// formFile opens the multipart "file" field
func formFile(c *fiber.Ctx) (upload.File, func(), error) {
	header, err := c.FormFile("file")
	if err != nil {
		return upload.File{}, nil, err
	}
	f, err := header.Open()
	if err != nil {
		return upload.File{}, nil, err
	}

	contentType := header.Header.Get(fiber.HeaderContentType)
	if contentType == "" {
		contentType = upload.ContentTypeOf(header.Filename)
	}

	return upload.File{
		Name:        header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        f,
	}, func() { f.Close() }, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/email"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/upload"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/finance"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/repositories"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/apperror"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/utils"
)

// Order email subjects
const (
	SubjectOrderSent = "Your prepaid card order has been sent"
	subjectNewOrder  = "New Order: %s"
)

type OrderService struct {
	orders    repositories.OrderRepo
	companies repositories.CompanyRepo
	settings  repositories.SettingsRepo
	files     FileStore
	mailer    Mailer
	cleaner   *ReceiptCleaner
	alerts    *AlertService
	audit     *audit.Service
	exporter  *export.Service
	now       func() time.Time
	log       zerolog.Logger
}

func NewOrderService(
	orders repositories.OrderRepo,
	companies repositories.CompanyRepo,
	settings repositories.SettingsRepo,
	files FileStore,
	mailer Mailer,
	cleaner *ReceiptCleaner,
	alerts *AlertService,
	auditSvc *audit.Service,
	exporter *export.Service,
) *OrderService {
	return &OrderService{
		orders:    orders,
		companies: companies,
		settings:  settings,
		files:     files,
		mailer:    mailer,
		cleaner:   cleaner,
		alerts:    alerts,
		audit:     auditSvc,
		exporter:  exporter,
		now:       time.Now,
		log:       utils.Logger("orders"),
	}
}

// Create records a new Pending order for an existing company
func (s *OrderService) Create(ctx context.Context, actor audit.Actor, req *models.CreateOrderRequest) (*models.Order, error) {
	const op = "order.create"

	if err := utils.ValidateStruct(op, req); err != nil {
		return nil, err
	}

	company, err := s.companies.GetByID(ctx, req.CompanyID)
	if err != nil {
		return nil, storeError(op, "company", err)
	}

	order := &models.Order{
		CompanyID:  company.ID,
		Amount:     req.Amount,
		CardsCount: req.CardsCount,
		Status:     models.OrderStatusPending,
		CreatedAt:  s.now(),
	}
	if req.OrderDate != nil {
		order.CreatedAt = *req.OrderDate
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, storeError(op, "order", err)
	}
	order.Company = company

	s.audit.Record(ctx, actor, audit.Entry{
		Action:      audit.ActionCreate,
		Entity:      audit.EntityOrder,
		EntityID:    order.ID.String(),
		Description: fmt.Sprintf("Created order #%s for %s (%d cards)", order.Reference(), company.Name, order.CardsCount),
		NewValue:    order,
	})

	s.checkHighDebt(ctx, company, finance.OrderContribution(order))
	return order, nil
}

// Get returns an order with its company
func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("order.get", "order", err)
	}
	return order, nil
}

// List returns a page of orders
func (s *OrderService) List(ctx context.Context, filter models.OrderFilter) (*models.ListResponse[models.Order], error) {
	if filter.Status != "" && !finance.IsValidStatus(filter.Status) {
		return nil, apperror.Validation("order.list", finance.ErrInvalidStatus.Error(), finance.ErrInvalidStatus)
	}

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, storeError("order.list", "order", err)
	}
	page, pageSize := models.NormalizePage(filter.Page, filter.PageSize)
	return models.NewListResponse(orders, total, page, pageSize), nil
}

// Update edits amount, cards count and order date. Status is not editable here.
func (s *OrderService) Update(ctx context.Context, actor audit.Actor, id uuid.UUID, req *models.UpdateOrderRequest) (*models.Order, error) {
	const op = "order.update"

	if err := utils.ValidateStruct(op, req); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(op, "order", err)
	}
	before := *order
	before.Company = nil

	if req.Amount != nil {
		order.Amount = *req.Amount
	}
	if req.CardsCount != nil {
		order.CardsCount = *req.CardsCount
	}
	if req.OrderDate != nil {
		order.CreatedAt = *req.OrderDate
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, storeError(op, "order", err)
	}

	s.audit.Record(ctx, actor, audit.Entry{
		Action:      audit.ActionUpdate,
		Entity:      audit.EntityOrder,
		EntityID:    order.ID.String(),
		Description: fmt.Sprintf("Updated order #%s", order.Reference()),
		OldValue:    before,
		NewValue:    order,
	})

	delta := finance.Balance{CompanyID: order.CompanyID, Outstanding: order.Amount.Sub(before.Amount)}
	if delta.Outstanding.IsPositive() {
		s.checkHighDebt(ctx, order.Company, delta)
	}
	return order, nil
}

// Delete removes an order at any status along with its receipt file
func (s *OrderService) Delete(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	const op = "order.delete"

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return storeError(op, "order", err)
	}

	if err := s.orders.Delete(ctx, id); err != nil {
		return storeError(op, "order", err)
	}
	s.cleaner.Remove(ctx, strOrEmpty(order.ReceiptPath))

	order.Company = nil
	s.audit.Record(ctx, actor, audit.Entry{
		Action:      audit.ActionDelete,
		Entity:      audit.EntityOrder,
		EntityID:    id.String(),
		Description: fmt.Sprintf("Deleted order #%s", order.Reference()),
		OldValue:    order,
	})
	return nil
}

// TransitionStatus moves an order forward. Guards run before any I/O;
// entering Sent delivers the receipt by email first and leaves the status
// untouched when delivery fails. The write only applies if the stored status
// still equals the expected one.
func (s *OrderService) TransitionStatus(ctx context.Context, actor audit.Actor, id uuid.UUID, req *models.TransitionRequest) (*models.Order, error) {
	const op = "order.transition"

	if err := utils.ValidateStruct(op, req); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(op, "order", err)
	}

	expected := order.Status
	if req.ExpectedStatus != nil {
		if !finance.IsValidStatus(*req.ExpectedStatus) {
			return nil, apperror.Validation(op, "unknown expected status", finance.ErrInvalidStatus)
		}
		if *req.ExpectedStatus != order.Status {
			return nil, apperror.Conflict(op, repositories.ErrStatusConflict.Error(), repositories.ErrStatusConflict)
		}
		expected = *req.ExpectedStatus
	}

	plan, err := finance.PlanTransition(order, order.Company, req.Status)
	if err != nil {
		return nil, apperror.Validation(op, err.Error(), err)
	}
	if plan.NoOp {
		return order, nil
	}

	if plan.SendEmail {
		settings, err := s.settings.Get(ctx)
		if err != nil {
			return nil, storeError(op, "settings", err)
		}
		if err := s.sendOrderSent(ctx, order, settings); err != nil {
			s.audit.Record(ctx, actor, audit.Entry{
				Action:      audit.ActionEmailSent,
				Entity:      audit.EntityOrder,
				EntityID:    order.ID.String(),
				Description: fmt.Sprintf("Failed to email order #%s to %s", order.Reference(), strOrEmpty(order.Company.Email)),
				Failed:      true,
			})
			return nil, err
		}
	}

	at := s.now()
	if err := s.orders.UpdateStatus(ctx, id, expected, plan.To, at); err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			return nil, apperror.Conflict(op, err.Error(), err)
		}
		return nil, storeError(op, "order", err)
	}

	s.audit.Record(ctx, actor, audit.Entry{
		Action:      audit.ActionStatusChange,
		Entity:      audit.EntityOrder,
		EntityID:    order.ID.String(),
		Description: fmt.Sprintf("Order #%s moved from %s to %s", order.Reference(), plan.From, plan.To),
		OldValue:    map[string]interface{}{"status": plan.From},
		NewValue:    map[string]interface{}{"status": plan.To},
	})

	s.log.Info().
		Str("order_id", order.ID.String()).
		Str("from", string(plan.From)).
		Str("to", string(plan.To)).
		Bool("emailed", plan.SendEmail).
		Msg("Order status changed")

	return s.Get(ctx, id)
}

// SendOrderEmail emails the order summary to the company without changing
// its status. The receipt is attached when present.
func (s *OrderService) SendOrderEmail(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	const op = "order.send_email"

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return storeError(op, "order", err)
	}
	if !order.Company.HasEmail() {
		return apperror.Validation(op, finance.ErrCompanyEmailRequired.Error(), finance.ErrCompanyEmailRequired)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return storeError(op, "settings", err)
	}

	attachments, err := s.receiptAttachment(ctx, op, order)
	if err != nil {
		return err
	}

	err = s.send(ctx, op, *order.Company.Email, fmt.Sprintf(subjectNewOrder, settings.FormatMoney(order.Amount)), email.TemplateData{
		Title:   "New Order",
		Message: fmt.Sprintf("Hello %s, please find the details of order #%s below.", order.Company.Name, order.Reference()),
		Rows:    orderRows(order, settings),
		Footer:  "Please find the receipt attached.",
	}, attachments...)

	s.audit.Record(ctx, actor, audit.Entry{
		Action:      audit.ActionEmailSent,
		Entity:      audit.EntityOrder,
		EntityID:    order.ID.String(),
		Description: fmt.Sprintf("Emailed order #%s to %s", order.Reference(), *order.Company.Email),
		Failed:      err != nil,
	})
	return err
}

// UploadReceipt stores a receipt for the order and replaces the previous one
func (s *OrderService) UploadReceipt(ctx context.Context, actor audit.Actor, id uuid.UUID, file upload.File) (*models.Order, error) {
	const op = "order.upload_receipt"

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(op, "order", err)
	}

	result, err := s.files.UploadReceipt(ctx, file, upload.ReceiptTarget{
		CompanyID: &order.CompanyID,
		Kind:      upload.KindOrders,
		EntityID:  order.ID,
	})
	if err != nil {
		return nil, uploadError(op, err)
	}

	if err := s.orders.SetReceipt(ctx, id, result.Path); err != nil {
		s.cleaner.Remove(ctx, result.Path)
		return nil, storeError(op, "order", err)
	}

	previous := strOrEmpty(order.ReceiptPath)
	if previous != "" && previous != result.Path {
		s.cleaner.Remove(ctx, previous)
	}

	s.audit.Record(ctx, actor, audit.Entry{
		Action:      audit.ActionUpdate,
		Entity:      audit.EntityOrder,
		EntityID:    order.ID.String(),
		Description: fmt.Sprintf("Attached receipt %s to order #%s", result.FileName, order.Reference()),
		OldValue:    map[string]interface{}{"receipt_path": order.ReceiptPath},
		NewValue:    map[string]interface{}{"receipt_path": result.Path},
	})

	order.ReceiptPath = &result.Path
	return order, nil
}

// ReceiptURL returns a short-lived link to the order receipt
func (s *OrderService) ReceiptURL(ctx context.Context, id uuid.UUID) (string, error) {
	const op = "order.receipt_url"

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return "", storeError(op, "order", err)
	}
	if !order.HasReceipt() {
		return "", apperror.NotFound(op, "receipt")
	}

	link, err := s.files.SignedURL(ctx, *order.ReceiptPath)
	if err != nil {
		return "", apperror.Dependency(op, "file store error", err)
	}
	return link, nil
}

// WhatsAppLink builds the wa.me confirmation link for the order
func (s *OrderService) WhatsAppLink(ctx context.Context, id uuid.UUID) (string, error) {
	const op = "order.whatsapp_link"

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return "", storeError(op, "order", err)
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return "", storeError(op, "settings", err)
	}

	link, ok := WhatsAppLink(order, settings)
	if !ok {
		return "", apperror.Validation(op, finance.ErrCompanyPhoneRequired.Error(), finance.ErrCompanyPhoneRequired)
	}
	return link, nil
}

// Invoice renders the printable PDF invoice of an order
func (s *OrderService) Invoice(ctx context.Context, id uuid.UUID) (*export.Result, error) {
	const op = "order.invoice"

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(op, "order", err)
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, storeError(op, "settings", err)
	}

	totals := finance.ComputeInvoiceTotals(order.Amount, settings.DefaultTaxRate)
	layout := settings.GoDateLayout()
	inv := &export.Invoice{
		Number:     order.Reference(),
		Date:       order.CreatedAt.Format(layout),
		IssuedAt:   s.now().Format(layout),
		Status:     string(order.Status),
		CardsCount: order.CardsCount,
		Subtotal:   totals.Subtotal,
		TaxRate:    totals.TaxRate,
		Tax:        totals.Tax,
		Total:      totals.Total,
		Currency:   settings.CurrencyCode,
	}
	if c := order.Company; c != nil {
		inv.CompanyName = c.Name
		inv.CompanyPhone = strOrEmpty(c.Phone)
		inv.CompanyEmail = strOrEmpty(c.Email)
		inv.Address = strOrEmpty(c.Address)
	}
	if link, ok := WhatsAppLink(order, settings); ok {
		inv.QRContent = link
		inv.QRCaption = "Scan to confirm on WhatsApp"
	}

	result, err := s.exporter.Invoice(inv)
	if err != nil {
		return nil, apperror.Dependency(op, "failed to render invoice", err)
	}
	return result, nil
}

// WhatsAppLink returns https://wa.me/<digits>?text=<message>, or false when
// the company has no usable phone number.
func WhatsAppLink(order *models.Order, settings *models.Settings) (string, bool) {
	if order.Company == nil || order.Company.Phone == nil {
		return "", false
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, *order.Company.Phone)
	if digits == "" {
		return "", false
	}

	message := fmt.Sprintf("Hello %s,\n\nThis is a confirmation for Order #%s.\nDate: %s\nItems: %d Cards\nTotal: %s.\n\nThank you!",
		order.Company.Name,
		order.Reference(),
		order.CreatedAt.Format(settings.GoDateLayout()),
		order.CardsCount,
		settings.FormatMoney(order.Amount),
	)

	// wa.me expects %20 for spaces
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + digits + "?text=" + text, true
}

func (s *OrderService) sendOrderSent(ctx context.Context, order *models.Order, settings *models.Settings) error {
	const op = "order.transition"

	attachments, err := s.receiptAttachment(ctx, op, order)
	if err != nil {
		return err
	}

	return s.send(ctx, op, *order.Company.Email, SubjectOrderSent, email.TemplateData{
		Title:   "Your Order Has Been Sent",
		Message: fmt.Sprintf("Hello %s, your order #%s is on its way.", order.Company.Name, order.Reference()),
		Rows:    orderRows(order, settings),
		Footer:  "The receipt is attached to this email.",
	}, attachments...)
}

func (s *OrderService) receiptAttachment(ctx context.Context, op string, order *models.Order) ([]email.Attachment, error) {
	if !order.HasReceipt() {
		return nil, nil
	}
	content, err := s.files.Download(ctx, *order.ReceiptPath)
	if err != nil {
		return nil, apperror.Dependency(op, "failed to fetch receipt", err)
	}
	return []email.Attachment{{Filename: path.Base(*order.ReceiptPath), Content: content}}, nil
}

func (s *OrderService) send(ctx context.Context, op, to, subject string, data email.TemplateData, attachments ...email.Attachment) error {
	if s.mailer == nil || !s.mailer.Enabled() {
		return apperror.Dependency(op, "email is not configured", email.ErrNotConfigured)
	}
	if err := s.mailer.SendTemplate(ctx, to, subject, data, attachments...); err != nil {
		s.log.Error().Err(err).Str("to", to).Str("subject", subject).Msg("Order email failed")
		return apperror.Dependency(op, "failed to send email", err)
	}
	return nil
}

func (s *OrderService) checkHighDebt(ctx context.Context, company *models.Company, delta finance.Balance) {
	if s.alerts == nil {
		return
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Skipping debt alert, settings unavailable")
		return
	}
	s.alerts.CheckHighDebt(ctx, settings, company, delta)
}

func orderRows(order *models.Order, settings *models.Settings) []email.Row {
	return []email.Row{
		{Label: "Order", Value: "#" + order.Reference()},
		{Label: "Amount", Value: settings.FormatMoney(order.Amount)},
		{Label: "Cards", Value: fmt.Sprintf("%d", order.CardsCount)},
		{Label: "Order date", Value: order.CreatedAt.Format(settings.GoDateLayout())},
	}
}

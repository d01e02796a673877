package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/analytics"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/email"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/notification"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/upload"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/repositories"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/services"
)

type recordingProvider struct {
	mu   sync.Mutex
	sent []*email.Message
}

func (p *recordingProvider) Send(ctx context.Context, msg *email.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg)
	return nil
}

func (p *recordingProvider) GetProviderName() string { return "recording" }

type testServer struct {
	db    *gorm.DB
	mails *recordingProvider
	role  string
	app   *fiber.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Company{}, &models.Order{}, &models.Transaction{}, &models.Settings{}, &audit.AuditLog{}, &jobs.Job{}))

	local, err := upload.NewLocalProvider(t.TempDir(), "http://files.test", "signing-secret")
	require.NoError(t, err)
	files := upload.NewService(local, time.Minute)

	srv := &testServer{db: db, mails: &recordingProvider{}, role: auth.RoleAdmin}
	mailer := email.NewService(srv.mails)
	notifier := notification.NewService(mailer)
	auditSvc := audit.NewService(db)
	jobSvc := jobs.NewService(db)
	exporter := export.NewService("Card Ledger")

	companyRepo := repositories.NewCompanyRepo(db)
	orderRepo := repositories.NewOrderRepo(db)
	txRepo := repositories.NewTransactionRepo(db)
	settingsRepo := repositories.NewSettingsRepo(db)

	cleaner := services.NewReceiptCleaner(files, jobSvc)
	alerts := services.NewAlertService(notifier, orderRepo, txRepo)
	companySvc := services.NewCompanyService(companyRepo, cleaner, auditSvc)
	orderSvc := services.NewOrderService(orderRepo, companyRepo, settingsRepo, files, mailer, cleaner, alerts, auditSvc, exporter)
	txSvc := services.NewTransactionService(txRepo, companyRepo, settingsRepo, files, cleaner, alerts, auditSvc)
	settingsSvc := services.NewSettingsService(settingsRepo, auditSvc)
	reportSvc := services.NewReportService(companyRepo, orderRepo, txRepo, settingsRepo, analytics.NewAggregator(db), notifier)
	exportSvc := services.NewExportService(orderRepo, txRepo, settingsRepo, exporter, auditSvc)

	// The role is read per request so tests can switch callers
	authenticate := func(c *fiber.Ctx) error {
		return auth.Anonymous(auth.Principal{UserID: "user-1", Email: "staff@cards.test", Role: srv.role})(c)
	}

	srv.app = fiber.New()
	RegisterRoutes(srv.app, Handlers{
		Health:       NewHealthHandler(db, files.GetProviderName()),
		Companies:    NewCompanyHandler(companySvc, reportSvc),
		Orders:       NewOrderHandler(orderSvc, exportSvc),
		Transactions: NewTransactionHandler(txSvc, exportSvc),
		Reports:      NewReportHandler(reportSvc),
		Settings:     NewSettingsHandler(settingsSvc, auditSvc),
	}, authenticate)
	return srv
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (s *testServer) upload(t *testing.T, path, filename, contentType, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (s *testServer) createCompany(t *testing.T, body map[string]interface{}) models.Company {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/companies", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var company models.Company
	decode(t, resp, &company)
	return company
}

func (s *testServer) createOrder(t *testing.T, companyID uuid.UUID, amount string) models.Order {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/orders", map[string]interface{}{
		"company_id":  companyID,
		"amount":      amount,
		"cards_count": 4,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var order models.Order
	decode(t, resp, &order)
	return order
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "local", body["file_provider"])
}

func TestCompanyLifecycle(t *testing.T) {
	srv := newTestServer(t)

	company := srv.createCompany(t, map[string]interface{}{
		"name":     "Acme",
		"maps_url": "https://www.google.com/maps/place/x/@32.8872,13.1913,17z",
	})
	require.NotNil(t, company.Latitude)
	assert.InDelta(t, 32.8872, *company.Latitude, 1e-9)

	resp := srv.do(t, http.MethodGet, "/companies/"+company.ID.String(), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/companies?search=acm", nil)
	var list models.ListResponse[models.Company]
	decode(t, resp, &list)
	assert.EqualValues(t, 1, list.Total)

	resp = srv.do(t, http.MethodDelete, "/companies/"+company.ID.String(), nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/companies/"+company.ID.String(), nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	var errBody ErrorResponse
	decode(t, resp, &errBody)
	assert.Equal(t, "not_found", errBody.Code)
	assert.Equal(t, "company not found", errBody.Error)
}

func TestInvalidInputIsBadRequest(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodGet, "/companies/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/companies", map[string]interface{}{"name": ""})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var errBody ErrorResponse
	decode(t, resp, &errBody)
	assert.Equal(t, "validation", errBody.Code)

	resp = srv.do(t, http.MethodGet, "/transactions?from=yesterday", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/reports/overview?period=forever", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestViewerCannotWrite(t *testing.T) {
	srv := newTestServer(t)
	srv.role = auth.RoleViewer

	resp := srv.do(t, http.MethodPost, "/companies", map[string]interface{}{"name": "Acme"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/companies", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSettingsWriteNeedsAdmin(t *testing.T) {
	srv := newTestServer(t)
	srv.role = auth.RoleManager

	resp := srv.do(t, http.MethodPut, "/settings", map[string]interface{}{"currency_code": "USD"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	srv.role = auth.RoleAdmin
	resp = srv.do(t, http.MethodPut, "/settings", map[string]interface{}{"currency_code": "USD", "high_risk_threshold": "2500"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var settings models.Settings
	decode(t, srv.do(t, http.MethodGet, "/settings", nil), &settings)
	assert.Equal(t, "USD", settings.CurrencyCode)
	assert.Equal(t, "2500.00", settings.HighRiskThreshold.StringFixed(2))
}

func TestOrderStatusFlow(t *testing.T) {
	srv := newTestServer(t)
	company := srv.createCompany(t, map[string]interface{}{"name": "Acme", "email": "ops@acme.test"})
	order := srv.createOrder(t, company.ID, "250")
	assert.Equal(t, models.OrderStatusPending, order.Status)
	statusPath := "/orders/" + order.ID.String() + "/status"

	resp := srv.do(t, http.MethodPatch, statusPath, map[string]interface{}{"status": "Paid"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var errBody ErrorResponse
	decode(t, resp, &errBody)
	assert.Contains(t, errBody.Error, "receipt")

	resp = srv.upload(t, "/orders/"+order.ID.String()+"/receipt", "scan.pdf", "application/pdf", "%PDF-1.4 receipt")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodPatch, statusPath, map[string]interface{}{"status": "Sent", "expected_status": "Received"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = srv.do(t, http.MethodPatch, statusPath, map[string]interface{}{"status": "Sent"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var sent models.Order
	decode(t, resp, &sent)
	assert.Equal(t, models.OrderStatusSent, sent.Status)
	assert.NotNil(t, sent.DateSent)

	require.Len(t, srv.mails.sent, 1)
	assert.Equal(t, "ops@acme.test", srv.mails.sent[0].To)
	assert.Equal(t, services.SubjectOrderSent, srv.mails.sent[0].Subject)
	require.Len(t, srv.mails.sent[0].Attachments, 1)

	resp = srv.do(t, http.MethodPatch, statusPath, map[string]interface{}{"status": "Pending"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestReceiptURLIsSigned(t *testing.T) {
	srv := newTestServer(t)
	company := srv.createCompany(t, map[string]interface{}{"name": "Acme"})
	order := srv.createOrder(t, company.ID, "10")

	resp := srv.do(t, http.MethodGet, "/orders/"+order.ID.String()+"/receipt-url", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = srv.upload(t, "/orders/"+order.ID.String()+"/receipt", "notes.txt", "text/plain", "hello")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = srv.upload(t, "/orders/"+order.ID.String()+"/receipt", "slip.png", "image/png", "png-bytes")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/orders/"+order.ID.String()+"/receipt-url", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var link URLResponse
	decode(t, resp, &link)
	assert.True(t, strings.HasPrefix(link.URL, "http://files.test/files/signed?token="))
}

func TestWhatsAppLinkWithoutPhoneIsUnprocessable(t *testing.T) {
	srv := newTestServer(t)
	company := srv.createCompany(t, map[string]interface{}{"name": "Acme"})
	order := srv.createOrder(t, company.ID, "10")

	resp := srv.do(t, http.MethodGet, "/orders/"+order.ID.String()+"/whatsapp-link", nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	withPhone := srv.createCompany(t, map[string]interface{}{"name": "Bolt", "phone": "+218 91 000 0000"})
	order = srv.createOrder(t, withPhone.ID, "10")
	resp = srv.do(t, http.MethodGet, "/orders/"+order.ID.String()+"/whatsapp-link", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var link URLResponse
	decode(t, resp, &link)
	assert.True(t, strings.HasPrefix(link.URL, "https://wa.me/218910000000?text=Hello%20Bolt"))
}

func TestExportDownloads(t *testing.T) {
	srv := newTestServer(t)
	company := srv.createCompany(t, map[string]interface{}{"name": "Acme"})
	order := srv.createOrder(t, company.ID, "10")

	resp := srv.do(t, http.MethodGet, "/orders/export?format=csv&company_id="+company.ID.String(), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "orders_")

	resp = srv.do(t, http.MethodGet, "/orders/"+order.ID.String()+"/invoice", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	resp = srv.do(t, http.MethodGet, "/transactions/export?format=docx", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTransactionsAndReports(t *testing.T) {
	srv := newTestServer(t)
	company := srv.createCompany(t, map[string]interface{}{"name": "Acme"})
	srv.createOrder(t, company.ID, "1000")

	resp := srv.do(t, http.MethodPost, "/transactions", map[string]interface{}{
		"company_id": company.ID,
		"type":       "Received",
		"amount":     400,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/transactions", map[string]interface{}{"type": "Paid", "amount": "15.50"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var list models.ListResponse[models.Transaction]
	decode(t, srv.do(t, http.MethodGet, "/transactions?independent=true", nil), &list)
	assert.EqualValues(t, 1, list.Total)

	var statement services.CompanyStatement
	decode(t, srv.do(t, http.MethodGet, "/companies/"+company.ID.String()+"/statement", nil), &statement)
	assert.Equal(t, "600.00", statement.Balance.Outstanding.StringFixed(2))

	var risk services.RiskReport
	decode(t, srv.do(t, http.MethodGet, "/reports/risk", nil), &risk)
	require.Len(t, risk.Companies, 1)
	assert.Equal(t, "Acme", risk.Companies[0].CompanyName)

	var activity audit.AuditLogResponse
	decode(t, srv.do(t, http.MethodGet, "/activity?entity=transaction", nil), &activity)
	assert.EqualValues(t, 2, activity.TotalCount)
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	srv := newTestServer(t)
	app := fiber.New()
	RegisterRoutes(app, Handlers{
		Health:    NewHealthHandler(srv.db, "local"),
		Companies: &CompanyHandler{},
	}, auth.AuthMiddleware(auth.NewVerifier("secret")))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/companies", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestFileLinkTokenIsNotABearerToken(t *testing.T) {
	srv := newTestServer(t)
	files, err := upload.NewLocalProvider(t.TempDir(), "http://files.test", "shared-secret")
	require.NoError(t, err)
	app := fiber.New()
	RegisterRoutes(app, Handlers{
		Health:    NewHealthHandler(srv.db, "local"),
		Companies: &CompanyHandler{},
	}, auth.AuthMiddleware(auth.NewVerifier("shared-secret")))

	signed, err := files.SignedURL(context.Background(), "company_x/r.pdf", time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(signed)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/companies", nil)
	req.Header.Set("Authorization", "Bearer "+u.Query().Get("token"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

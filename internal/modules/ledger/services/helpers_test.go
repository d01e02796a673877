package services

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/analytics"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/email"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/notification"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/upload"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/repositories"
)

var testActor = audit.Actor{ID: "user-1", Email: "staff@cards.test"}

type fakeFiles struct {
	mu        sync.Mutex
	seq       int64
	files     map[string][]byte
	removed   []string
	removeErr error
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{files: make(map[string][]byte)}
}

func (f *fakeFiles) UploadReceipt(ctx context.Context, file upload.File, target upload.ReceiptTarget) (*upload.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !strings.HasPrefix(file.ContentType, "image/") && file.ContentType != "application/pdf" {
		return nil, upload.ErrFileTypeNotAllowed
	}
	content, err := io.ReadAll(file.Body)
	if err != nil {
		return nil, err
	}

	f.seq++
	folder, name := upload.ReceiptKey(target, file.Name, time.Unix(1700000000+f.seq, 0))
	key := path.Join(folder, name)
	f.files[key] = content
	return &upload.UploadResult{Path: key, FileName: name, Size: int64(len(content)), ContentType: file.ContentType}, nil
}

func (f *fakeFiles) Download(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.files[key]
	if !ok {
		return nil, upload.ErrNotFound
	}
	return content, nil
}

func (f *fakeFiles) SignedURL(ctx context.Context, key string) (string, error) {
	return "https://files.test/" + key + "?sig=test", nil
}

func (f *fakeFiles) Remove(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	for _, k := range keys {
		delete(f.files, k)
		f.removed = append(f.removed, k)
	}
	return nil
}

func (f *fakeFiles) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[key]
	return ok
}

type sentMail struct {
	To          string
	Subject     string
	Data        email.TemplateData
	Attachments []email.Attachment
}

type fakeMailer struct {
	mu       sync.Mutex
	disabled bool
	err      error
	sent     []sentMail
}

func (m *fakeMailer) SendTemplate(ctx context.Context, to, subject string, data email.TemplateData, attachments ...email.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Data: data, Attachments: attachments})
	return nil
}

func (m *fakeMailer) Enabled() bool {
	return !m.disabled
}

func (m *fakeMailer) subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, s := range m.sent {
		out = append(out, s.Subject)
	}
	return out
}

var errSMTPDown = errors.New("smtp down")

type testEnv struct {
	db     *gorm.DB
	files  *fakeFiles
	mailer *fakeMailer
	jobs   *jobs.Service
	audit  *audit.Service

	companyRepo  repositories.CompanyRepo
	orderRepo    repositories.OrderRepo
	txRepo       repositories.TransactionRepo
	settingsRepo repositories.SettingsRepo

	companies    *CompanyService
	orders       *OrderService
	transactions *TransactionService
	settings     *SettingsService
	reports      *ReportService
	exports      *ExportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Company{},
		&models.Order{},
		&models.Transaction{},
		&models.Settings{},
		&audit.AuditLog{},
		&jobs.Job{},
	))

	env := &testEnv{
		db:           db,
		files:        newFakeFiles(),
		mailer:       &fakeMailer{},
		jobs:         jobs.NewService(db),
		audit:        audit.NewService(db),
		companyRepo:  repositories.NewCompanyRepo(db),
		orderRepo:    repositories.NewOrderRepo(db),
		txRepo:       repositories.NewTransactionRepo(db),
		settingsRepo: repositories.NewSettingsRepo(db),
	}

	notifier := notification.NewService(env.mailer)
	cleaner := NewReceiptCleaner(env.files, env.jobs)
	alerts := NewAlertService(notifier, env.orderRepo, env.txRepo)
	exporter := export.NewService("Card Ledger")

	env.companies = NewCompanyService(env.companyRepo, cleaner, env.audit)
	env.orders = NewOrderService(env.orderRepo, env.companyRepo, env.settingsRepo, env.files, env.mailer, cleaner, alerts, env.audit, exporter)
	env.transactions = NewTransactionService(env.txRepo, env.companyRepo, env.settingsRepo, env.files, cleaner, alerts, env.audit)
	env.settings = NewSettingsService(env.settingsRepo, env.audit)
	env.reports = NewReportService(env.companyRepo, env.orderRepo, env.txRepo, env.settingsRepo, analytics.NewAggregator(db), notifier)
	env.exports = NewExportService(env.orderRepo, env.txRepo, env.settingsRepo, exporter, env.audit)
	return env
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string { return &s }

func (e *testEnv) company(t *testing.T, name string, mail *string) *models.Company {
	t.Helper()
	c, err := e.companies.Create(context.Background(), testActor, &models.CreateCompanyRequest{Name: name, Email: mail, Phone: strPtr("+218 91-234 5678")})
	require.NoError(t, err)
	return c
}

func (e *testEnv) order(t *testing.T, companyID uuid.UUID, amount string) *models.Order {
	t.Helper()
	o, err := e.orders.Create(context.Background(), testActor, &models.CreateOrderRequest{CompanyID: companyID, Amount: dec(amount), CardsCount: 5})
	require.NoError(t, err)
	return o
}

func (e *testEnv) transaction(t *testing.T, companyID *uuid.UUID, typ models.TransactionType, amount string, at *time.Time) *models.Transaction {
	t.Helper()
	tx, err := e.transactions.Create(context.Background(), testActor, &models.CreateTransactionRequest{CompanyID: companyID, Type: typ, Amount: dec(amount), Date: at})
	require.NoError(t, err)
	return tx
}

func (e *testEnv) attachReceipt(t *testing.T, orderID uuid.UUID, content string) *models.Order {
	t.Helper()
	o, err := e.orders.UploadReceipt(context.Background(), testActor, orderID, uploadFile("receipt.pdf", "application/pdf", content))
	require.NoError(t, err)
	return o
}

func (e *testEnv) updateSettings(t *testing.T, req *models.UpdateSettingsRequest) {
	t.Helper()
	_, err := e.settings.Update(context.Background(), testActor, req)
	require.NoError(t, err)
}

func uploadFile(name, contentType, content string) upload.File {
	return upload.File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(content)),
		Body:        strings.NewReader(content),
	}
}

func intPtr(i int) *int { return &i }

func emailRow(label, value string) email.Row {
	return email.Row{Label: label, Value: value}
}

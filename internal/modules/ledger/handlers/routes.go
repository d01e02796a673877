package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/auth"
)

// Handlers groups every ledger handler for route registration
type Handlers struct {
	Health       *HealthHandler
	Companies    *CompanyHandler
	Orders       *OrderHandler
	Transactions *TransactionHandler
	Reports      *ReportHandler
	Settings     *SettingsHandler
}

// RegisterRoutes mounts the ledger API. authenticate runs before every route
// except /health.
func RegisterRoutes(app *fiber.App, h Handlers, authenticate fiber.Handler) {
	app.Get("/health", h.Health.GetHealth)

	api := app.Group("", authenticate)
	write := auth.RequireRole(auth.RoleAdmin, auth.RoleManager)
	admin := auth.RequireRole(auth.RoleAdmin)

	// Company routes
	api.Get("/companies", h.Companies.ListCompanies)
	api.Post("/companies", write, h.Companies.CreateCompany)
	api.Get("/companies/:id", h.Companies.GetCompany)
	api.Put("/companies/:id", write, h.Companies.UpdateCompany)
	api.Delete("/companies/:id", write, h.Companies.DeleteCompany)
	api.Get("/companies/:id/statement", h.Companies.GetStatement)

	// Order routes
	api.Get("/orders", h.Orders.ListOrders)
	api.Post("/orders", write, h.Orders.CreateOrder)
	api.Get("/orders/export", h.Orders.ExportOrders)
	api.Get("/orders/:id", h.Orders.GetOrder)
	api.Put("/orders/:id", write, h.Orders.UpdateOrder)
	api.Delete("/orders/:id", write, h.Orders.DeleteOrder)
	api.Patch("/orders/:id/status", write, h.Orders.TransitionStatus)
	api.Post("/orders/:id/send-email", write, h.Orders.SendEmail)
	api.Post("/orders/:id/receipt", write, h.Orders.UploadReceipt)
	api.Get("/orders/:id/receipt-url", h.Orders.ReceiptURL)
	api.Get("/orders/:id/invoice", h.Orders.Invoice)
	api.Get("/orders/:id/whatsapp-link", h.Orders.WhatsAppLink)

	// Transaction routes
	api.Get("/transactions", h.Transactions.ListTransactions)
	api.Post("/transactions", write, h.Transactions.CreateTransaction)
	api.Get("/transactions/export", h.Transactions.ExportTransactions)
	api.Get("/transactions/:id", h.Transactions.GetTransaction)
	api.Put("/transactions/:id", write, h.Transactions.UpdateTransaction)
	api.Delete("/transactions/:id", write, h.Transactions.DeleteTransaction)
	api.Post("/transactions/:id/receipt", write, h.Transactions.UploadReceipt)
	api.Get("/transactions/:id/receipt-url", h.Transactions.ReceiptURL)

	// Report routes
	api.Get("/reports/overview", h.Reports.GetOverview)
	api.Get("/reports/risk", h.Reports.GetRisk)

	// Settings routes
	api.Get("/settings", h.Settings.GetSettings)
	api.Put("/settings", admin, h.Settings.UpdateSettings)
	api.Get("/activity", h.Settings.ListActivity)
}

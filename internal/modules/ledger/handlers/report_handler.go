package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/services"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetOverview godoc
// @Summary Dashboard overview
// @Description Portfolio balance, period totals, order counts, daily income/expense chart, top companies, recent transactions and the outstanding leaderboard
// @Tags Reports
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param period query string false "today, last_7_days, last_30_days, this_month, this_year or all" default(last_30_days)
// @Success 200 {object} services.Overview
// @Failure 400 {object} ErrorResponse
// @Router /reports/overview [get]
func (h *ReportHandler) GetOverview(c *fiber.Ctx) error {
	overview, err := h.reportService.Overview(c.UserContext(), c.Query("period"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(overview)
}

// GetRisk godoc
// @Summary Risk report
// @Description Companies with a positive outstanding balance, largest first, flagged at or above the high-risk threshold
// @Tags Reports
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} services.RiskReport
// @Router /reports/risk [get]
func (h *ReportHandler) GetRisk(c *fiber.Ctx) error {
	report, err := h.reportService.Risk(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(report)
}

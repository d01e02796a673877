package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/services"
)

type CompanyHandler struct {
	companyService *services.CompanyService
	reportService  *services.ReportService
}

func NewCompanyHandler(companyService *services.CompanyService, reportService *services.ReportService) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
		reportService:  reportService,
	}
}

// CreateCompany godoc
// @Summary Create a company
// @Description Register a partner company. Coordinates are read from maps_url.
// @Tags Companies
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param company body models.CreateCompanyRequest true "Company data"
// @Success 201 {object} models.Company
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /companies [post]
func (h *CompanyHandler) CreateCompany(c *fiber.Ctx) error {
	var req models.CreateCompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	company, err := h.companyService.Create(c.UserContext(), actor(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(company)
}

// ListCompanies godoc
// @Summary List companies
// @Description Search companies by name, email or phone with pagination
// @Tags Companies
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param search query string false "Search in name, email, phone"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size (5 to 15)" default(10)
// @Success 200 {object} models.ListResponse[models.Company]
// @Router /companies [get]
func (h *CompanyHandler) ListCompanies(c *fiber.Ctx) error {
	response, err := h.companyService.List(c.UserContext(), models.CompanyFilter{
		Search:   c.Query("search"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "page_size"),
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(response)
}

// GetCompany godoc
// @Summary Get company by ID
// @Tags Companies
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Company ID"
// @Success 200 {object} models.Company
// @Failure 404 {object} ErrorResponse
// @Router /companies/{id} [get]
func (h *CompanyHandler) GetCompany(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid company ID")
	}

	company, err := h.companyService.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(company)
}

// GetStatement godoc
// @Summary Company statement
// @Description Balance snapshot, risk flag, order counts and latest activity of a company
// @Tags Companies
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Company ID"
// @Success 200 {object} services.CompanyStatement
// @Failure 404 {object} ErrorResponse
// @Router /companies/{id}/statement [get]
func (h *CompanyHandler) GetStatement(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid company ID")
	}

	statement, err := h.reportService.Statement(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(statement)
}

// UpdateCompany godoc
// @Summary Update company
// @Description Omitted fields are unchanged; an empty string clears an optional field
// @Tags Companies
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Company ID"
// @Param company body models.UpdateCompanyRequest true "Fields to change"
// @Success 200 {object} models.Company
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /companies/{id} [put]
func (h *CompanyHandler) UpdateCompany(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid company ID")
	}

	var req models.UpdateCompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	company, err := h.companyService.Update(c.UserContext(), actor(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(company)
}

// DeleteCompany godoc
// @Summary Delete company
// @Description Deletes the company with its orders, transactions and receipt files
// @Tags Companies
// @Param Authorization header string true "Bearer token"
// @Param id path string true "Company ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /companies/{id} [delete]
func (h *CompanyHandler) DeleteCompany(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid company ID")
	}

	if err := h.companyService.Delete(c.UserContext(), actor(c), id); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

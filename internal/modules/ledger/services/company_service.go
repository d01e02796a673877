package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/repositories"
	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/shared/utils"
)

var coordinatesPattern = regexp.MustCompile(`@?(-?\d+\.\d+),(-?\d+\.\d+)`)

// ExtractCoordinates reads "lat,lng" out of a maps link such as
// https://maps.google.com/@32.8872,13.1913,15z. No match returns nils.
func ExtractCoordinates(mapsURL string) (*float64, *float64) {
	m := coordinatesPattern.FindStringSubmatch(mapsURL)
	if m == nil {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, nil
	}
	lng, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return nil, nil
	}
	return &lat, &lng
}

type CompanyService struct {
	companies repositories.CompanyRepo
	cleaner   *ReceiptCleaner
	audit     *audit.Service
}

func NewCompanyService(companies repositories.CompanyRepo, cleaner *ReceiptCleaner, auditSvc *audit.Service) *CompanyService {
	return &CompanyService{
		companies: companies,
		cleaner:   cleaner,
		audit:     auditSvc,
	}
}

// Create registers a new company
func (s *CompanyService) Create(ctx context.Context, actor audit.Actor, req *models.CreateCompanyRequest) (*models.Company, error) {
	const op = "company.create"

	req.Name = strings.TrimSpace(req.Name)
	req.Email = nilIfEmpty(trimOptional(req.Email))
	req.Phone = nilIfEmpty(trimOptional(req.Phone))
	req.Address = nilIfEmpty(trimOptional(req.Address))
	req.MapsURL = nilIfEmpty(trimOptional(req.MapsURL))
	req.Notes = nilIfEmpty(trimOptional(req.Notes))
	if err := utils.ValidateStruct(op, req); err != nil {
		return nil, err
	}

	company := &models.Company{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		PercentCut: req.PercentCut,
		Address:    req.Address,
		MapsURL:    req.MapsURL,
		Notes:      req.Notes,
	}
	company.Latitude, company.Longitude = ExtractCoordinates(strOrEmpty(company.MapsURL))

	if err := s.companies.Create(ctx, company); err != nil {
		return nil, storeError(op, "company", err)
	}

	s.audit.Record(ctx, actor, audit.Entry{
		Action:      audit.ActionCreate,
		Entity:      audit.EntityCompany,
		EntityID:    company.ID.String(),
		Description: fmt.Sprintf("Created company %s", company.Name),
		NewValue:    company,
	})

	utils.LogInfo("Company created", map[string]interface{}{"company_id": company.ID.String()})
	return company, nil
}

// Get returns a company by id
func (s *CompanyService) Get(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("company.get", "company", err)
	}
	return company, nil
}

// List returns a page of companies matching the search term
func (s *CompanyService) List(ctx context.Context, filter models.CompanyFilter) (*models.ListResponse[models.Company], error) {
	filter.Search = strings.TrimSpace(filter.Search)
	companies, total, err := s.companies.List(ctx, filter)
	if err != nil {
		return nil, storeError("company.list", "company", err)
	}
	page, pageSize := models.NormalizePage(filter.Page, filter.PageSize)
	return models.NewListResponse(companies, total, page, pageSize), nil
}

// ListAll returns every company by name, for pickers
func (s *CompanyService) ListAll(ctx context.Context) ([]models.Company, error) {
	companies, err := s.companies.ListAll(ctx)
	if err != nil {
		return nil, storeError("company.list", "company", err)
	}
	return companies, nil
}

// Update applies the non-nil fields of req. Coordinates follow maps_url.
func (s *CompanyService) Update(ctx context.Context, actor audit.Actor, id uuid.UUID, req *models.UpdateCompanyRequest) (*models.Company, error) {
	const op = "company.update"

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	req.Email = trimOptional(req.Email)
	req.Phone = trimOptional(req.Phone)
	req.Address = trimOptional(req.Address)
	req.MapsURL = trimOptional(req.MapsURL)
	req.Notes = trimOptional(req.Notes)

	// An empty string clears the field, so validate with empties left out
	check := *req
	check.Email = nilIfEmpty(req.Email)
	check.Phone = nilIfEmpty(req.Phone)
	check.Address = nilIfEmpty(req.Address)
	check.MapsURL = nilIfEmpty(req.MapsURL)
	check.Notes = nilIfEmpty(req.Notes)
	if err := utils.ValidateStruct(op, &check); err != nil {
		return nil, err
	}

	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(op, "company", err)
	}
	before := *company

	if req.Name != nil {
		company.Name = *req.Name
	}
	if req.Email != nil {
		company.Email = nilIfEmpty(req.Email)
	}
	if req.Phone != nil {
		company.Phone = nilIfEmpty(req.Phone)
	}
	if req.PercentCut != nil {
		company.PercentCut = req.PercentCut
	}
	if req.Address != nil {
		company.Address = nilIfEmpty(req.Address)
	}
	if req.MapsURL != nil {
		company.MapsURL = nilIfEmpty(req.MapsURL)
		company.Latitude, company.Longitude = ExtractCoordinates(*req.MapsURL)
	}
	if req.Notes != nil {
		company.Notes = nilIfEmpty(req.Notes)
	}

	if err := s.companies.Update(ctx, company); err != nil {
		return nil, storeError(op, "company", err)
	}

	s.audit.Record(ctx, actor, audit.Entry{
		Action:      audit.ActionUpdate,
		Entity:      audit.EntityCompany,
		EntityID:    company.ID.String(),
		Description: fmt.Sprintf("Updated company %s", company.Name),
		OldValue:    before,
		NewValue:    company,
	})
	return company, nil
}

// Delete removes the company with its orders and transactions, then their
// receipt files.
func (s *CompanyService) Delete(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	const op = "company.delete"

	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return storeError(op, "company", err)
	}

	paths, err := s.companies.DeleteCascade(ctx, id)
	if err != nil {
		return storeError(op, "company", err)
	}
	s.cleaner.Remove(ctx, paths...)

	s.audit.Record(ctx, actor, audit.Entry{
		Action:      audit.ActionDelete,
		Entity:      audit.EntityCompany,
		EntityID:    id.String(),
		Description: fmt.Sprintf("Deleted company %s with its orders and transactions", company.Name),
		OldValue:    company,
	})

	utils.LogInfo("Company deleted", map[string]interface{}{
		"company_id":    id.String(),
		"removed_files": len(paths),
	})
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func nilIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// Package pages is the catalog of consultable external sources.
package pages

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"checktrack/internal/errs"
	"checktrack/internal/models"
)

// Service resolves page catalog entries. Pages are reference data; the
// service never mutates them outside Seed.
type Service struct {
	db *gorm.DB
}

// NewService creates a new page registry service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// FindByCode returns the page with the given code, active or not.
func (s *Service) FindByCode(code string) (*models.Page, error) {
	var page models.Page
	if err := s.db.Where("code = ?", code).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("page %q: %w", code, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load page %q: %w", code, err)
	}
	return &page, nil
}

// FindActiveByCodes returns the active pages matching codes. Callers
// compare the result length to len(codes) to detect unknown or
// inactive entries.
func (s *Service) FindActiveByCodes(codes []string) ([]models.Page, error) {
	var result []models.Page
	if err := s.db.Where("code IN ? AND active = ?", codes, true).Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to load pages: %w", err)
	}
	return result, nil
}

// ListActive returns all active pages in display order.
func (s *Service) ListActive() ([]models.Page, error) {
	var result []models.Page
	if err := s.db.Where("active = ?", true).
		Order("display_order, name").
		Find(&result).Error; err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	return result, nil
}

// Seed installs the default page catalog, skipping codes that already
// exist so it is safe to run on every start.
func (s *Service) Seed() error {
	defaults := []models.Page{
		{Code: "ruc", Name: "SRI RUC", URL: "https://srienlinea.sri.gob.ec", DisplayOrder: 1, Active: true},
		{Code: "deudas", Name: "SRI Deudas", URL: "https://srienlinea.sri.gob.ec/deudas", DisplayOrder: 2, Active: true},
		{Code: "mercado_valores", Name: "Mercado de Valores", URL: "https://www.supercias.gob.ec/mercadodevalores", DisplayOrder: 3, Active: true},
		{Code: "contraloria", Name: "Contraloria", URL: "https://www.contraloria.gob.ec", DisplayOrder: 4, Active: true},
		{Code: "supercias_persona", Name: "Supercias Persona", URL: "https://appscvsmovil.supercias.gob.ec", DisplayOrder: 5, Active: true},
		{Code: "predio_quito", Name: "Predios Quito", URL: "https://pam.quito.gob.ec", DisplayOrder: 6, Active: true},
		{Code: "predio_manta", Name: "Predios Manta", URL: "https://portal.manta.gob.ec", DisplayOrder: 7, Active: true},
		{Code: "denuncias", Name: "Denuncias Fiscalia", URL: "https://www.fiscalia.gob.ec", DisplayOrder: 8, Active: true},
		{Code: "funcion_judicial", Name: "Funcion Judicial", URL: "https://procesosjudiciales.funcionjudicial.gob.ec", DisplayOrder: 9, Active: true},
		{Code: "interpol", Name: "INTERPOL Notices", URL: "https://www.interpol.int/How-we-work/Notices", DisplayOrder: 10, Active: true},
		{Code: "google", Name: "Google Search", URL: "https://www.google.com", DisplayOrder: 11, Active: true},
	}

	for _, page := range defaults {
		var existing models.Page
		err := s.db.Where("code = ?", page.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check page %q: %w", page.Code, err)
		}
		if err := s.db.Create(&page).Error; err != nil {
			return fmt.Errorf("failed to seed page %q: %w", page.Code, err)
		}
	}

	return nil
}

// Package valuemap derives the input value a client submits to each
// external source. Every page code belongs to exactly one category;
// adding a page means adding one entry to pageCategories.
package valuemap

import (
	"fmt"
	"strings"

	"checktrack/internal/models"
)

// Category describes which client field an external source consumes.
type Category int

const (
	CategoryUnknown      Category = iota
	CategoryTaxID                 // fiscal registries: the 13-digit RUC
	CategoryNationalID            // municipal/property registries: the 10-digit CI
	CategoryFullName              // denunciation/web searches: "Name Surname"
	CategorySurnameFirst          // judicial records: "Surname Name"
	CategorySurname               // international alert lists: surname alone
)

var pageCategories = map[string]Category{
	"ruc":               CategoryTaxID,
	"deudas":            CategoryTaxID,
	"mercado_valores":   CategoryTaxID,
	"contraloria":       CategoryNationalID,
	"supercias_persona": CategoryNationalID,
	"predio_quito":      CategoryNationalID,
	"predio_manta":      CategoryNationalID,
	"denuncias":         CategoryFullName,
	"google":            CategoryFullName,
	"funcion_judicial":  CategorySurnameFirst,
	"interpol":          CategorySurname,
}

// CategoryFor returns the category a page code belongs to.
func CategoryFor(code string) Category {
	return pageCategories[code]
}

// ValueFor returns the value to submit to the source identified by
// code. ok is false for unmapped codes; callers must then submit no
// value rather than treat it as an error.
func ValueFor(client *models.Client, code string) (value string, ok bool) {
	switch pageCategories[code] {
	case CategoryTaxID:
		return client.TaxID, true
	case CategoryNationalID:
		return client.NationalID, true
	case CategoryFullName:
		return strings.TrimSpace(client.Name + " " + client.Surname), true
	case CategorySurnameFirst:
		return strings.TrimSpace(client.Surname + " " + client.Name), true
	case CategorySurname:
		return client.Surname, true
	default:
		return "", false
	}
}

// Validate checks that the client carries the data each requested page
// needs. Returns human-readable problems; empty means the client can be
// submitted to every page.
func Validate(client *models.Client, pages []models.Page) []string {
	var problems []string

	for _, page := range pages {
		switch pageCategories[page.Code] {
		case CategoryTaxID:
			if len(client.TaxID) != 13 || !isDigits(client.TaxID) {
				problems = append(problems, fmt.Sprintf("%s requires a valid RUC (13 digits)", page.Name))
			}
		case CategoryNationalID:
			if len(client.NationalID) != 10 || !isDigits(client.NationalID) {
				problems = append(problems, fmt.Sprintf("%s requires a valid CI (10 digits)", page.Name))
			}
		case CategoryFullName, CategorySurnameFirst:
			if client.Name == "" || client.Surname == "" {
				problems = append(problems, fmt.Sprintf("%s requires full name and surname", page.Name))
			}
		case CategorySurname:
			if client.Surname == "" {
				problems = append(problems, fmt.Sprintf("%s requires a surname", page.Name))
			}
		}
	}

	return problems
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

package repository

import (
	goerrors "github.com/goliatone/go-errors"
)

// Category identifies a product line. Registrations and payments live in
// per-category tables named "{category}_registrations" and
// "{category}_payments".
type Category string

const (
	CategoryLaptop   Category = "laptop"
	CategoryInverter Category = "inverter"
	CategoryCamera   Category = "camera"
)

// Categories returns the known product lines.
func Categories() []Category {
	return []Category{CategoryLaptop, CategoryInverter, CategoryCamera}
}

// Valid reports whether the category is a known product line.
func (c Category) Valid() bool {
	switch c {
	case CategoryLaptop, CategoryInverter, CategoryCamera:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

func (c Category) registrationsTable() string {
	return string(c) + "_registrations"
}

func (c Category) paymentsTable() string {
	return string(c) + "_payments"
}

func validateCategory(c Category) error {
	if !c.Valid() {
		return goerrors.New("unknown product category: "+string(c), goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

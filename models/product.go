package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product, vitrinde listelenen ürün.
type Product struct {
	ID           string          `json:"id"`
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     *string         `json:"image_url"`
	IsActive     bool            `json:"is_active"`
	IsFeatured   bool            `json:"is_featured"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProductFilter, ürün listeleme filtresi. Boş alanlar filtrelenmez.
type ProductFilter struct {
	CategoryID   string
	OnlyActive   bool
	OnlyFeatured bool
	Search       string
}

type CreateProductRequest struct {
	CategoryID  string          `json:"category_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	IsActive    *bool           `json:"is_active"`
	IsFeatured  bool            `json:"is_featured"`
}

func (r *CreateProductRequest) Validate() error {
	r.CategoryID = strings.TrimSpace(r.CategoryID)
	if r.CategoryID == "" {
		return fmt.Errorf("category_id is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if err := checkLen("product name", r.Name, 2, 150); err != nil {
		return err
	}
	if Slugify(r.Name) == "" {
		return fmt.Errorf("product name must contain letters or digits")
	}
	r.Description = strings.TrimSpace(r.Description)
	if err := checkLen("description", r.Description, 0, 4000); err != nil {
		return err
	}
	return validatePrice(r.Price)
}

type UpdateProductRequest struct {
	CategoryID  *string          `json:"category_id"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	IsActive    *bool            `json:"is_active"`
	IsFeatured  *bool            `json:"is_featured"`
}

func (r *UpdateProductRequest) Validate() error {
	trimPtr(r.CategoryID)
	trimPtr(r.Name)
	trimPtr(r.Description)

	if r.CategoryID != nil && *r.CategoryID == "" {
		return fmt.Errorf("category_id cannot be empty")
	}
	if r.Name != nil {
		if err := checkLen("product name", *r.Name, 2, 150); err != nil {
			return err
		}
		if Slugify(*r.Name) == "" {
			return fmt.Errorf("product name must contain letters or digits")
		}
	}
	if r.Description != nil {
		if err := checkLen("description", *r.Description, 0, 4000); err != nil {
			return err
		}
	}
	if r.Price != nil {
		return validatePrice(*r.Price)
	}
	return nil
}

var maxPrice = decimal.NewFromInt(1_000_000)

func validatePrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return fmt.Errorf("price cannot be negative")
	}
	if p.GreaterThan(maxPrice) {
		return fmt.Errorf("price is too large")
	}
	if p.Exponent() < -2 && !p.Equal(p.Round(2)) {
		return fmt.Errorf("price can have at most 2 decimal places")
	}
	return nil
}

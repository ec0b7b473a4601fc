package models

import (
	"fmt"
	"strings"
	"time"
)

// Category, ürün kategorisi. WorkloadPoints, bu kategoriden bir adet
// siparişin günlük iş yüküne eklediği Puan'dır.
type Category struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description"`
	WorkloadPoints int       `json:"workload_points"`
	Position       int       `json:"position"`
	IsActive       bool      `json:"is_active"`
	ProductCount   int       `json:"product_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateCategoryRequest, yeni kategori isteği.
type CreateCategoryRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	WorkloadPoints int    `json:"workload_points"`
	Position       int    `json:"position"`
	IsActive       *bool  `json:"is_active"`
}

func (r *CreateCategoryRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if err := checkLen("category name", r.Name, 1, 100); err != nil {
		return err
	}
	if Slugify(r.Name) == "" {
		return fmt.Errorf("category name must contain letters or digits")
	}
	r.Description = strings.TrimSpace(r.Description)
	if err := checkLen("description", r.Description, 0, 500); err != nil {
		return err
	}
	if r.WorkloadPoints < 0 || r.WorkloadPoints > 1000 {
		return fmt.Errorf("workload points must be between 0 and 1000")
	}
	return nil
}

// UpdateCategoryRequest, kısmi güncelleme; nil alanlar değişmez.
type UpdateCategoryRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	WorkloadPoints *int    `json:"workload_points"`
	Position       *int    `json:"position"`
	IsActive       *bool   `json:"is_active"`
}

func (r *UpdateCategoryRequest) Validate() error {
	trimPtr(r.Name)
	trimPtr(r.Description)

	if r.Name != nil {
		if err := checkLen("category name", *r.Name, 1, 100); err != nil {
			return err
		}
		if Slugify(*r.Name) == "" {
			return fmt.Errorf("category name must contain letters or digits")
		}
	}
	if r.Description != nil {
		if err := checkLen("description", *r.Description, 0, 500); err != nil {
			return err
		}
	}
	if r.WorkloadPoints != nil && (*r.WorkloadPoints < 0 || *r.WorkloadPoints > 1000) {
		return fmt.Errorf("workload points must be between 0 and 1000")
	}
	return nil
}

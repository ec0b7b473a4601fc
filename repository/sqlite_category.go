package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akinalp/pastane/database"
	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
)

type sqliteCategoryRepo struct {
	db database.TxQuerier
}

// NewSQLiteCategoryRepo, constructor, interface döner.
func NewSQLiteCategoryRepo(db database.TxQuerier) CategoryRepository {
	return &sqliteCategoryRepo{db: db}
}

const categoryColumns = `
	c.id, c.name, c.slug, c.description, c.workload_points, c.position, c.is_active,
	(SELECT COUNT(*) FROM products p WHERE p.category_id = c.id),
	c.created_at`

func scanCategory(s scanner) (*models.Category, error) {
	cat := &models.Category{}
	err := s.Scan(
		&cat.ID, &cat.Name, &cat.Slug, &cat.Description, &cat.WorkloadPoints,
		&cat.Position, &cat.IsActive, &cat.ProductCount, &cat.CreatedAt,
	)
	return cat, err
}

func (r *sqliteCategoryRepo) Create(ctx context.Context, category *models.Category) error {
	category.CreatedAt = now()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug, description, workload_points, position, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		category.Name, category.Slug, category.Description, category.WorkloadPoints,
		category.Position, category.IsActive, category.CreatedAt,
	).Scan(&category.ID)

	if isUniqueViolation(err) {
		return fmt.Errorf("%w: category name already exists", pkg.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *sqliteCategoryRepo) GetByID(ctx context.Context, id string) (*models.Category, error) {
	cat, err := scanCategory(r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories c WHERE c.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category by id: %w", err)
	}
	return cat, nil
}

func (r *sqliteCategoryRepo) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	cat, err := scanCategory(r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories c WHERE c.slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category by slug: %w", err)
	}
	return cat, nil
}

func (r *sqliteCategoryRepo) List(ctx context.Context, includeInactive bool) ([]models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories c`
	if !includeInactive {
		query += ` WHERE c.is_active = 1`
	}
	query += ` ORDER BY c.position ASC, c.name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, *cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}
	return categories, nil
}

func (r *sqliteCategoryRepo) Update(ctx context.Context, category *models.Category) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE categories
		SET name = ?, slug = ?, description = ?, workload_points = ?, position = ?, is_active = ?
		WHERE id = ?`,
		category.Name, category.Slug, category.Description, category.WorkloadPoints,
		category.Position, category.IsActive, category.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: category name already exists", pkg.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteCategoryRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: category is still referenced", pkg.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteCategoryRepo) CountReferences(ctx context.Context, id string) (int, int, error) {
	var products, orders int
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products WHERE category_id = ?),
			(SELECT COUNT(*) FROM orders WHERE category_id = ?)`,
		id, id,
	).Scan(&products, &orders)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count category references: %w", err)
	}
	return products, orders, nil
}

func (r *sqliteCategoryRepo) GetMaxPosition(ctx context.Context) (int, error) {
	var maxPos int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM categories`,
	).Scan(&maxPos); err != nil {
		return 0, fmt.Errorf("failed to get max category position: %w", err)
	}
	return maxPos, nil
}

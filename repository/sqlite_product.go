package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/akinalp/pastane/database"
	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
)

type sqliteProductRepo struct {
	db database.TxQuerier
}

// NewSQLiteProductRepo, constructor.
func NewSQLiteProductRepo(db database.TxQuerier) ProductRepository {
	return &sqliteProductRepo{db: db}
}

const productSelect = `
	SELECT p.id, p.category_id, c.name, p.name, p.slug, p.description, p.price,
	       p.image_url, p.is_active, p.is_featured, p.created_at, p.updated_at
	FROM products p
	JOIN categories c ON c.id = p.category_id`

func scanProduct(s scanner) (*models.Product, error) {
	p := &models.Product{}
	err := s.Scan(
		&p.ID, &p.CategoryID, &p.CategoryName, &p.Name, &p.Slug, &p.Description, &p.Price,
		&p.ImageURL, &p.IsActive, &p.IsFeatured, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *sqliteProductRepo) Create(ctx context.Context, product *models.Product) error {
	product.CreatedAt = now()
	product.UpdatedAt = product.CreatedAt

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products (category_id, name, slug, description, price, image_url, is_active, is_featured, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		product.CategoryID, product.Name, product.Slug, product.Description, product.Price.String(),
		product.ImageURL, product.IsActive, product.IsFeatured, product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID)

	if isUniqueViolation(err) {
		return fmt.Errorf("%w: product slug already exists", pkg.ErrAlreadyExists)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: category does not exist", pkg.ErrBadRequest)
	}
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *sqliteProductRepo) GetByID(ctx context.Context, id string) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+` WHERE p.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by id: %w", err)
	}
	return p, nil
}

func (r *sqliteProductRepo) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+` WHERE p.slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by slug: %w", err)
	}
	return p, nil
}

func (r *sqliteProductRepo) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	var (
		where []string
		args  []any
	)
	if filter.CategoryID != "" {
		where = append(where, "p.category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.OnlyActive {
		where = append(where, "p.is_active = 1", "c.is_active = 1")
	}
	if filter.OnlyFeatured {
		where = append(where, "p.is_featured = 1")
	}
	if filter.Search != "" {
		where = append(where, `(p.name LIKE ? ESCAPE '\' OR p.description LIKE ? ESCAPE '\')`)
		pattern := likePattern(filter.Search)
		args = append(args, pattern, pattern)
	}

	query := productSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY c.position ASC, p.is_featured DESC, p.name ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return products, nil
}

func (r *sqliteProductRepo) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = now()

	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET category_id = ?, name = ?, slug = ?, description = ?, price = ?,
		    is_active = ?, is_featured = ?, updated_at = ?
		WHERE id = ?`,
		product.CategoryID, product.Name, product.Slug, product.Description, product.Price.String(),
		product.IsActive, product.IsFeatured, product.UpdatedAt, product.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: product slug already exists", pkg.ErrAlreadyExists)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: category does not exist", pkg.ErrBadRequest)
	}
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteProductRepo) UpdateImage(ctx context.Context, id string, imageURL *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET image_url = ?, updated_at = ? WHERE id = ?`,
		imageURL, now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update product image: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteProductRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteProductRepo) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE slug = ? AND id != ?)`,
		slug, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check product slug: %w", err)
	}
	return exists, nil
}

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

type sqliteCustomerRepo struct {
	db database.TxQuerier
}

// NewSQLiteCustomerRepo, constructor.
func NewSQLiteCustomerRepo(db database.TxQuerier) CustomerRepository {
	return &sqliteCustomerRepo{db: db}
}

const customerColumns = `id, name, phone, email, note, completed_orders, gifts_earned, gifts_used, created_at, updated_at`

func scanCustomer(s scanner) (*models.Customer, error) {
	c := &models.Customer{}
	err := s.Scan(
		&c.ID, &c.Name, &c.Phone, &c.Email, &c.Note,
		&c.CompletedOrders, &c.GiftsEarned, &c.GiftsUsed, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *sqliteCustomerRepo) Create(ctx context.Context, customer *models.Customer) error {
	customer.CreatedAt = now()
	customer.UpdatedAt = customer.CreatedAt

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customers (name, phone, email, note, completed_orders, gifts_earned, gifts_used, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		customer.Name, customer.Phone, customer.Email, customer.Note,
		customer.CompletedOrders, customer.GiftsEarned, customer.GiftsUsed,
		customer.CreatedAt, customer.UpdatedAt,
	).Scan(&customer.ID)

	if isUniqueViolation(err) {
		return fmt.Errorf("%w: customer phone already registered", pkg.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func (r *sqliteCustomerRepo) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer by id: %w", err)
	}
	return c, nil
}

func (r *sqliteCustomerRepo) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE phone = ?`, phone))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer by phone: %w", err)
	}
	return c, nil
}

func (r *sqliteCustomerRepo) List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, int, error) {
	limit, offset := pageBounds(filter.Limit, filter.Offset)

	where := ""
	var args []any
	if filter.Search != "" {
		where = ` WHERE name LIKE ? ESCAPE '\' OR phone LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\'`
		pattern := likePattern(filter.Search)
		args = append(args, pattern, pattern, pattern)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers`+where+` ORDER BY name ASC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan customer row: %w", err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating customer rows: %w", err)
	}
	return customers, total, nil
}

func (r *sqliteCustomerRepo) Update(ctx context.Context, customer *models.Customer) error {
	customer.UpdatedAt = now()

	result, err := r.db.ExecContext(ctx,
		`UPDATE customers SET name = ?, email = ?, note = ?, updated_at = ? WHERE id = ?`,
		customer.Name, customer.Email, customer.Note, customer.UpdatedAt, customer.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteCustomerRepo) UpdateLoyalty(ctx context.Context, customer *models.Customer) error {
	customer.UpdatedAt = now()

	result, err := r.db.ExecContext(ctx, `
		UPDATE customers
		SET completed_orders = ?, gifts_earned = ?, gifts_used = ?, updated_at = ?
		WHERE id = ?`,
		customer.CompletedOrders, customer.GiftsEarned, customer.GiftsUsed, customer.UpdatedAt, customer.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer loyalty: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteCustomerRepo) Top(ctx context.Context, limit int) ([]models.Customer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers
		 WHERE completed_orders > 0
		 ORDER BY completed_orders DESC, name ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top customers: %w", err)
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer row: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (r *sqliteCustomerRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return n, nil
}

// CountCreatedBetween, [from, to] gün aralığında (UTC) kaydolan müşteri sayısı.
func (r *sqliteCustomerRepo) CountCreatedBetween(ctx context.Context, from, to string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM customers WHERE substr(created_at, 1, 10) BETWEEN ? AND ?`,
		from, to,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count new customers: %w", err)
	}
	return n, nil
}

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

type sqliteOrderRepo struct {
	db database.TxQuerier
}

// NewSQLiteOrderRepo, constructor. db, *sql.DB ya da WithTx içindeki *sql.Tx olabilir.
func NewSQLiteOrderRepo(db database.TxQuerier) OrderRepository {
	return &sqliteOrderRepo{db: db}
}

const orderSelect = `
	SELECT o.id, o.order_number, o.customer_id, cu.name, cu.phone,
	       o.category_id, cat.name, o.product_id, p.name,
	       o.quantity, o.delivery_date, o.note, o.total_price, o.status, o.is_gift,
	       o.quantity * cat.workload_points,
	       o.completed_at, o.created_at, o.updated_at
	FROM orders o
	JOIN customers cu ON cu.id = o.customer_id
	JOIN categories cat ON cat.id = o.category_id
	LEFT JOIN products p ON p.id = o.product_id`

func scanOrder(s scanner) (*models.Order, error) {
	o := &models.Order{}
	err := s.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.CustomerName, &o.CustomerPhone,
		&o.CategoryID, &o.CategoryName, &o.ProductID, &o.ProductName,
		&o.Quantity, &o.DeliveryDate, &o.Note, &o.TotalPrice, &o.Status, &o.IsGift,
		&o.WorkloadPoints,
		&o.CompletedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func scanOrders(rows *sql.Rows) ([]models.Order, error) {
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}
	return orders, nil
}

func (r *sqliteOrderRepo) Create(ctx context.Context, order *models.Order) error {
	order.CreatedAt = now()
	order.UpdatedAt = order.CreatedAt

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO orders (order_number, customer_id, category_id, product_id, quantity, delivery_date,
		                    note, total_price, status, is_gift, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		order.OrderNumber, order.CustomerID, order.CategoryID, order.ProductID, order.Quantity,
		order.DeliveryDate, order.Note, order.TotalPrice.String(), order.Status, order.IsGift,
		order.CompletedAt, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)

	if isUniqueViolation(err) {
		return fmt.Errorf("%w: order number already exists", pkg.ErrAlreadyExists)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: referenced customer, category or product does not exist", pkg.ErrBadRequest)
	}
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *sqliteOrderRepo) GetByID(ctx context.Context, id string) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, orderSelect+` WHERE o.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order by id: %w", err)
	}
	return o, nil
}

func (r *sqliteOrderRepo) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, orderSelect+` WHERE o.order_number = ?`, number))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order by number: %w", err)
	}
	return o, nil
}

func (r *sqliteOrderRepo) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	limit, offset := pageBounds(filter.Limit, filter.Offset)

	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "o.status = ?")
		args = append(args, filter.Status)
	}
	if filter.From != "" {
		where = append(where, "o.delivery_date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		where = append(where, "o.delivery_date <= ?")
		args = append(args, filter.To)
	}
	if filter.CustomerID != "" {
		where = append(where, "o.customer_id = ?")
		args = append(args, filter.CustomerID)
	}
	if filter.Search != "" {
		where = append(where, `(o.order_number LIKE ? ESCAPE '\' OR cu.name LIKE ? ESCAPE '\' OR cu.phone LIKE ? ESCAPE '\')`)
		pattern := likePattern(filter.Search)
		args = append(args, pattern, pattern, pattern)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM orders o
		JOIN customers cu ON cu.id = o.customer_id`+clause, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		orderSelect+clause+` ORDER BY o.delivery_date DESC, o.created_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *sqliteOrderRepo) ListByDeliveryDate(ctx context.Context, date string) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		orderSelect+` WHERE o.delivery_date = ? ORDER BY o.status = 'iptal', o.created_at ASC`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders by date: %w", err)
	}
	return scanOrders(rows)
}

func (r *sqliteOrderRepo) Update(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = now()

	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET category_id = ?, product_id = ?, quantity = ?, delivery_date = ?, note = ?,
		    total_price = ?, status = ?, is_gift = ?, completed_at = ?, updated_at = ?
		WHERE id = ?`,
		order.CategoryID, order.ProductID, order.Quantity, order.DeliveryDate, order.Note,
		order.TotalPrice.String(), order.Status, order.IsGift, order.CompletedAt, order.UpdatedAt,
		order.ID,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: referenced category or product does not exist", pkg.ErrBadRequest)
	}
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteOrderRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteOrderRepo) DailyLoads(ctx context.Context, from, to string) ([]models.DailyLoad, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.delivery_date, COALESCE(SUM(o.quantity * cat.workload_points), 0), COUNT(*)
		FROM orders o
		JOIN categories cat ON cat.id = o.category_id
		WHERE o.delivery_date BETWEEN ? AND ? AND o.status != 'iptal'
		GROUP BY o.delivery_date
		ORDER BY o.delivery_date ASC`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily loads: %w", err)
	}
	defer rows.Close()

	var loads []models.DailyLoad
	for rows.Next() {
		var l models.DailyLoad
		if err := rows.Scan(&l.Date, &l.Score, &l.OrderCount); err != nil {
			return nil, fmt.Errorf("failed to scan daily load: %w", err)
		}
		loads = append(loads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily loads: %w", err)
	}
	return loads, nil
}

func (r *sqliteOrderRepo) DayScore(ctx context.Context, date, excludeOrderID string) (int, error) {
	var score int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(o.quantity * cat.workload_points), 0)
		FROM orders o
		JOIN categories cat ON cat.id = o.category_id
		WHERE o.delivery_date = ? AND o.status != 'iptal' AND o.id != ?`,
		date, excludeOrderID,
	).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("failed to compute day score: %w", err)
	}
	return score, nil
}

func (r *sqliteOrderRepo) AddStatusChange(ctx context.Context, change *models.OrderStatusChange) error {
	change.CreatedAt = now()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO order_status_history (order_id, from_status, to_status, admin_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		change.OrderID, change.FromStatus, change.ToStatus, change.AdminID, change.CreatedAt,
	).Scan(&change.ID)
	if err != nil {
		return fmt.Errorf("failed to add order status change: %w", err)
	}
	return nil
}

func (r *sqliteOrderRepo) ListStatusChanges(ctx context.Context, orderID string) ([]models.OrderStatusChange, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, from_status, to_status, admin_id, created_at
		FROM order_status_history
		WHERE order_id = ?
		ORDER BY created_at ASC, rowid ASC`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list order status changes: %w", err)
	}
	defer rows.Close()

	changes := []models.OrderStatusChange{}
	for rows.Next() {
		var c models.OrderStatusChange
		if err := rows.Scan(&c.ID, &c.OrderID, &c.FromStatus, &c.ToStatus, &c.AdminID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order status change: %w", err)
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order status changes: %w", err)
	}
	return changes, nil
}

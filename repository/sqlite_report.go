package repository

import (
	"context"
	"fmt"

	"github.com/akinalp/pastane/database"
	"github.com/akinalp/pastane/models"
)

type sqliteReportRepo struct {
	db database.TxQuerier
}

// NewSQLiteReportRepo, constructor.
func NewSQLiteReportRepo(db database.TxQuerier) ReportRepository {
	return &sqliteReportRepo{db: db}
}

func (r *sqliteReportRepo) SalesLines(ctx context.Context, from, to string) ([]models.SalesLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.delivery_date, o.category_id, cat.name, o.quantity, o.total_price, o.status, o.is_gift
		FROM orders o
		JOIN categories cat ON cat.id = o.category_id
		WHERE o.delivery_date BETWEEN ? AND ?
		ORDER BY o.delivery_date ASC`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales lines: %w", err)
	}
	defer rows.Close()

	var lines []models.SalesLine
	for rows.Next() {
		var l models.SalesLine
		if err := rows.Scan(
			&l.OrderID, &l.DeliveryDate, &l.CategoryID, &l.CategoryName,
			&l.Quantity, &l.TotalPrice, &l.Status, &l.IsGift,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sales line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales lines: %w", err)
	}
	return lines, nil
}

func (r *sqliteReportRepo) PublicStats(ctx context.Context) (*models.PublicStats, error) {
	stats := &models.PublicStats{}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products p JOIN categories c ON c.id = p.category_id
			 WHERE p.is_active = 1 AND c.is_active = 1),
			(SELECT COUNT(*) FROM categories WHERE is_active = 1),
			(SELECT COUNT(*) FROM orders WHERE status = 'tamamlandi'),
			(SELECT COUNT(*) FROM customers)`,
	).Scan(&stats.Products, &stats.Categories, &stats.CompletedOrders, &stats.Customers)
	if err != nil {
		return nil, fmt.Errorf("failed to get public stats: %w", err)
	}
	return stats, nil
}

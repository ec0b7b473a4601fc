// Package database: transaction yardımcıları.
//
// Siparişin durum değişikliği gibi birden fazla tabloya dokunan işlemler
// tek transaction'da çalışır: sipariş satırı, müşteri sadakat sayaçları ve
// durum geçmişi ya birlikte yazılır ya hiç yazılmaz.
//
//	err := database.WithTx(ctx, db, func(tx *sql.Tx) error {
//	    orders := repository.NewSQLiteOrderRepo(tx)
//	    customers := repository.NewSQLiteCustomerRepo(tx)
//	    ...
//	})
package database

import (
	"context"
	"database/sql"
	"fmt"
)

// TxQuerier, hem *sql.DB hem *sql.Tx tarafından karşılanır. Repository'ler
// bunu aldığı için aynı kod transaction içinde ve dışında çalışır.
type TxQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx, fn'i transaction içinde çalıştırır. fn nil dönerse COMMIT,
// error dönerse ROLLBACK yapılır. Panic durumunda ROLLBACK yapılıp panic
// yeniden fırlatılır, böylece yazma kilidi açık kalmaz.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}

		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return
}

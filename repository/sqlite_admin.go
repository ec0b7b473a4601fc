package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akinalp/pastane/database"
	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
)

type sqliteAdminRepo struct {
	db database.TxQuerier
}

// NewSQLiteAdminRepo, constructor.
func NewSQLiteAdminRepo(db database.TxQuerier) AdminRepository {
	return &sqliteAdminRepo{db: db}
}

const adminColumns = `id, username, display_name, password_hash, role, totp_secret, totp_enabled, last_login_at, created_at`

func scanAdmin(s scanner) (*models.Admin, error) {
	a := &models.Admin{}
	err := s.Scan(
		&a.ID, &a.Username, &a.DisplayName, &a.PasswordHash, &a.Role,
		&a.TOTPSecret, &a.TOTPEnabled, &a.LastLoginAt, &a.CreatedAt,
	)
	return a, err
}

func (r *sqliteAdminRepo) Create(ctx context.Context, admin *models.Admin) error {
	admin.CreatedAt = now()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO admins (username, display_name, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		admin.Username, admin.DisplayName, admin.PasswordHash, admin.Role, admin.CreatedAt,
	).Scan(&admin.ID)

	if isUniqueViolation(err) {
		return fmt.Errorf("%w: username already taken", pkg.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

func (r *sqliteAdminRepo) GetByID(ctx context.Context, id string) (*models.Admin, error) {
	a, err := scanAdmin(r.db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin by id: %w", err)
	}
	return a, nil
}

// GetByUsername, büyük/küçük harf duyarsız arar (kolon COLLATE NOCASE).
func (r *sqliteAdminRepo) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	a, err := scanAdmin(r.db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admins WHERE username = ?`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin by username: %w", err)
	}
	return a, nil
}

func (r *sqliteAdminRepo) List(ctx context.Context) ([]models.Admin, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+adminColumns+` FROM admins ORDER BY role ASC, username ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	admins := []models.Admin{}
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin row: %w", err)
		}
		admins = append(admins, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admin rows: %w", err)
	}
	return admins, nil
}

func (r *sqliteAdminRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE admins SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update admin password: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteAdminRepo) UpdateTOTP(ctx context.Context, id string, secret *string, enabled bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE admins SET totp_secret = ?, totp_enabled = ? WHERE id = ?`, secret, enabled, id)
	if err != nil {
		return fmt.Errorf("failed to update admin totp: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteAdminRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE admins SET last_login_at = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update admin last login: %w", err)
	}
	return nil
}

func (r *sqliteAdminRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete admin: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteAdminRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return n, nil
}

func (r *sqliteAdminRepo) CountByRole(ctx context.Context, role models.AdminRole) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins WHERE role = ?`, role).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count admins by role: %w", err)
	}
	return n, nil
}

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

type sqliteContactRepo struct {
	db database.TxQuerier
}

// NewSQLiteContactRepo, constructor.
func NewSQLiteContactRepo(db database.TxQuerier) ContactRepository {
	return &sqliteContactRepo{db: db}
}

const contactColumns = `id, name, email, phone, subject, body, ip_address, is_read, is_spam, created_at`

func scanContact(s scanner) (*models.ContactMessage, error) {
	m := &models.ContactMessage{}
	err := s.Scan(
		&m.ID, &m.Name, &m.Email, &m.Phone, &m.Subject, &m.Body,
		&m.IPAddress, &m.IsRead, &m.IsSpam, &m.CreatedAt,
	)
	return m, err
}

func (r *sqliteContactRepo) Create(ctx context.Context, msg *models.ContactMessage) error {
	msg.CreatedAt = now()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO contact_messages (name, email, phone, subject, body, ip_address, is_read, is_spam, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		msg.Name, msg.Email, msg.Phone, msg.Subject, msg.Body, msg.IPAddress,
		msg.IsRead, msg.IsSpam, msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("failed to create contact message: %w", err)
	}
	return nil
}

func (r *sqliteContactRepo) GetByID(ctx context.Context, id string) (*models.ContactMessage, error) {
	m, err := scanContact(r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contact_messages WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact message: %w", err)
	}
	return m, nil
}

func (r *sqliteContactRepo) List(ctx context.Context, filter models.ContactFilter) ([]models.ContactMessage, int, error) {
	limit, offset := pageBounds(filter.Limit, filter.Offset)

	var where []string
	if filter.UnreadOnly {
		where = append(where, "is_read = 0")
	}
	if !filter.IncludeSpam {
		where = append(where, "is_spam = 0")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_messages`+clause).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count contact messages: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contact_messages`+clause+
			` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contact messages: %w", err)
	}
	defer rows.Close()

	messages := []models.ContactMessage{}
	for rows.Next() {
		m, err := scanContact(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan contact message: %w", err)
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating contact messages: %w", err)
	}
	return messages, total, nil
}

func (r *sqliteContactRepo) SetRead(ctx context.Context, id string, read bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE contact_messages SET is_read = ? WHERE id = ?`, read, id)
	if err != nil {
		return fmt.Errorf("failed to update contact message: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteContactRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM contact_messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact message: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteContactRepo) CountUnread(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contact_messages WHERE is_read = 0 AND is_spam = 0`,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return n, nil
}

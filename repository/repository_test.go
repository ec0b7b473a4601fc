package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%ayşe%`, likePattern("  ayşe "))
	assert.Equal(t, `%50\%\_indirim\\%`, likePattern(`50%_indirim\`))
}

func TestPageBounds(t *testing.T) {
	l, o := pageBounds(0, -5)
	assert.Equal(t, 50, l)
	assert.Equal(t, 0, o)

	l, o = pageBounds(500, 10)
	assert.Equal(t, 50, l)
	assert.Equal(t, 10, o)

	l, _ = pageBounds(20, 0)
	assert.Equal(t, 20, l)
}

func TestContactRepo_ListHidesSpamAndRead(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSQLiteContactRepo(db)
	created := time.Date(2030, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM contact_messages WHERE is_read = 0 AND is_spam = 0`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM contact_messages WHERE is_read = 0 AND is_spam = 0 ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`)).
		WithArgs(10, 20).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "phone", "subject", "body", "ip_address", "is_read", "is_spam", "created_at",
		}).AddRow("m1", "Ayşe", "ayse@example.com", "", "Pasta", "Doğum günü pastası", "10.0.0.1", false, false, created))

	messages, total, err := repo.List(context.Background(), models.ContactFilter{UnreadOnly: true, Limit: 10, Offset: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, messages, 1)
	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, created, messages[0].CreatedAt)
}

func TestContactRepo_SetReadMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSQLiteContactRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE contact_messages SET is_read = ? WHERE id = ?`)).
		WithArgs(true, "yok").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetRead(context.Background(), "yok", true)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestCustomerRepo_CreateDuplicatePhone(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSQLiteCustomerRepo(db)

	mock.ExpectQuery(`INSERT INTO customers`).
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: customers.phone (2067)"))

	err := repo.Create(context.Background(), &models.Customer{Name: "Ayşe", Phone: "5321234567"})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
}

func TestCustomerRepo_GetByPhoneMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSQLiteCustomerRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM customers WHERE phone = ?`)).
		WithArgs("5321234567").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByPhone(context.Background(), "5321234567")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestCustomerRepo_ListEscapesSearch(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSQLiteCustomerRepo(db)
	pattern := `%50\%%`

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM customers WHERE name LIKE ?`)).
		WithArgs(pattern, pattern, pattern).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY name ASC LIMIT ? OFFSET ?`)).
		WithArgs(pattern, pattern, pattern, 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "phone", "email", "note", "completed_orders", "gifts_earned", "gifts_used", "created_at", "updated_at",
		}))

	customers, total, err := repo.List(context.Background(), models.CustomerFilter{Search: "50%"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, customers)
}

func TestCustomerRepo_UpdateLoyaltyPropagatesError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSQLiteCustomerRepo(db)

	mock.ExpectExec(`UPDATE customers\s+SET completed_orders`).
		WithArgs(5, 1, 0, sqlmock.AnyArg(), "c1").
		WillReturnError(errors.New("CHECK constraint failed: gifts_used <= gifts_earned"))

	err := repo.UpdateLoyalty(context.Background(), &models.Customer{ID: "c1", CompletedOrders: 5, GiftsEarned: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to update customer loyalty")
}

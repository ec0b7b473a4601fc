package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/akinalp/pastane/pkg"
)

// scanner, *sql.Row ve *sql.Rows için ortak Scan arayüzü. Aynı scan
// fonksiyonu hem tekil hem liste sorgularında kullanılır.
type scanner interface {
	Scan(dest ...any) error
}

// isUniqueViolation, SQLite UNIQUE constraint hatasını tanır.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isForeignKeyViolation, RESTRICT ile korunan satır silinmeye çalışıldığında döner.
func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// requireAffected, UPDATE/DELETE hiçbir satıra dokunmadıysa ErrNotFound döner.
func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

// likePattern, kullanıcı girdisini LIKE ... ESCAPE '\' için kaçışlar.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(s)) + "%"
}

// pageBounds, limit/offset'i makul sınırlara çeker.
func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// now, veritabanına yazılan tüm zaman damgaları UTC'dir.
func now() time.Time {
	return time.Now().UTC()
}

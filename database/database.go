// Package database, SQLite bağlantısını ve migration sistemini yönetir.
//
// Sürücü olarak modernc.org/sqlite kullanılır (pure Go, CGO gerektirmez).
// Bağlantı açılırken foreign key desteği, WAL modu ve busy timeout pragma'ları
// DSN üzerinden ayarlanır. _time_format=sqlite, time.Time parametrelerinin
// SQLite'ın anlayacağı "YYYY-MM-DD HH:MM:SS" biçiminde yazılmasını sağlar.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/akinalp/pastane/pkg/logger"
)

const dsnParams = "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite"

// recoverableErrors, yarım kalmış bir migration tekrar çalıştırıldığında
// güvenle atlanabilen hata kalıpları.
var recoverableErrors = []string{
	"duplicate column name",
}

// DB, *sql.DB connection pool'unu sarar.
type DB struct {
	Conn *sql.DB
}

// New, SQLite dosyasını açar (dizin yoksa oluşturur) ve bekleyen
// migration'ları uygular.
func New(dbPath string, migrationsFS fs.FS) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{Conn: conn}
	if err := db.migrate(context.Background(), migrationsFS); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Named("database").Info("connected and migrations applied", zap.String("path", dbPath))
	return db, nil
}

// Close, bağlantı havuzunu kapatır.
func (db *DB) Close() error {
	return db.Conn.Close()
}

// migrate, migrations FS'teki .sql dosyalarını isim sırasıyla çalıştırır.
// Uygulananlar schema_migrations tablosuna yazılır ve bir daha çalıştırılmaz.
func (db *DB) migrate(ctx context.Context, migrationsFS fs.FS) error {
	log := logger.Named("database")

	if _, err := db.Conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	files, err := migrationFiles(migrationsFS)
	if err != nil {
		return err
	}

	applied, err := db.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, file := range files {
		if applied[file] {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		if err := db.execStatements(ctx, file, string(content)); err != nil {
			return err
		}

		if _, err := db.Conn.ExecContext(ctx,
			"INSERT INTO schema_migrations (filename) VALUES (?)", file,
		); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", file, err)
		}

		log.Info("migration applied", zap.String("file", file))
	}

	return nil
}

func migrationFiles(migrationsFS fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func (db *DB) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := db.Conn.QueryContext(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

// execStatements, migration'ı statement statement çalıştırır; recoverable
// hatalar loglanıp atlanır.
func (db *DB) execStatements(ctx context.Context, filename, content string) error {
	for i, stmt := range splitStatements(content) {
		if _, err := db.Conn.ExecContext(ctx, stmt); err != nil {
			if isRecoverable(err) {
				logger.Named("database").Warn("migration statement skipped",
					zap.String("file", filename), zap.Int("statement", i+1), zap.Error(err))
				continue
			}
			return fmt.Errorf("failed to execute migration %s (statement %d): %w", filename, i+1, err)
		}
	}
	return nil
}

func isRecoverable(err error) bool {
	msg := err.Error()
	for _, pattern := range recoverableErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// splitStatements, SQL metnini noktalı virgülden böler. Tek tırnaklı string
// literal'lerin ve "--" satır yorumlarının içindeki noktalı virgüller yok sayılır.
func splitStatements(sql string) []string {
	var (
		statements []string
		current    strings.Builder
		inString   bool
		inComment  bool
	)

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			statements = append(statements, s)
		}
		current.Reset()
	}

	for i := 0; i < len(sql); i++ {
		ch := sql[i]

		if inComment {
			if ch == '\n' {
				inComment = false
				current.WriteByte(ch)
			}
			continue
		}

		if !inString && ch == '-' && i+1 < len(sql) && sql[i+1] == '-' {
			inComment = true
			i++
			continue
		}

		if ch == '\'' {
			// '' kaçış dizisi: string içinde kal
			if inString && i+1 < len(sql) && sql[i+1] == '\'' {
				current.WriteString("''")
				i++
				continue
			}
			inString = !inString
		}

		if ch == ';' && !inString {
			flush()
			continue
		}

		current.WriteByte(ch)
	}
	flush()

	return statements
}

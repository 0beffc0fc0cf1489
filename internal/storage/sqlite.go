package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DatabaseFile is the default SQLite file name inside the data directory.
const DatabaseFile = "tasks.db"

// SQLite implements Backend on an embedded SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates
// its schema. Use ":memory:" for a private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty database path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), dataDirPerm); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer, one reader, same process. A single connection also keeps
	// ":memory:" databases from splitting across the pool.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func dsn(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (s *SQLite) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			position INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			category_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			text TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			created_date TEXT NOT NULL,
			completed_date TEXT,
			FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_category_id ON tasks(category_id);
		CREATE INDEX IF NOT EXISTS idx_categories_position ON categories(position);
	`)
	return err
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load reads every category and task in position order.
func (s *SQLite) Load(ctx context.Context) (*Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name
		FROM categories
		ORDER BY position ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	now := time.Now().Truncate(time.Minute)
	doc := &Document{Categories: []Category{}}
	indexByID := make(map[int64]int)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		indexByID[id] = len(doc.Categories)
		doc.Categories = append(doc.Categories, Category{Name: name, Tasks: []Task{}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	taskRows, err := s.db.QueryContext(ctx, `
		SELECT category_id, text, completed, created_date, completed_date
		FROM tasks
		ORDER BY category_id ASC, position ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer taskRows.Close()

	for taskRows.Next() {
		var (
			categoryID    int64
			task          Task
			createdDate   string
			completedDate sql.NullString
		)
		if err := taskRows.Scan(&categoryID, &task.Text, &task.Completed, &createdDate, &completedDate); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		idx, ok := indexByID[categoryID]
		if !ok {
			continue
		}

		// Unreadable dates are backfilled the way DecodeDocument does.
		task.CreatedAt, err = ParseDate(createdDate)
		if err != nil {
			task.CreatedAt = now
		}
		if task.Completed && completedDate.Valid {
			at, err := ParseDate(completedDate.String)
			if err != nil {
				at = task.CreatedAt
			}
			task.CompletedAt = &at
		}
		doc.Categories[idx].Tasks = append(doc.Categories[idx].Tasks, task)
	}
	return doc, taskRows.Err()
}

// Save replaces every category and task row inside one transaction. Row ids
// are not stable across saves; nothing references them.
func (s *SQLite) Save(ctx context.Context, doc *Document) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("failed to clear tasks: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}

	catStmt, err := tx.PrepareContext(ctx, `INSERT INTO categories (name, position) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare category insert: %w", err)
	}
	defer catStmt.Close()

	taskStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tasks (category_id, position, text, completed, created_date, completed_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare task insert: %w", err)
	}
	defer taskStmt.Close()

	for pos, c := range doc.Categories {
		result, err := catStmt.ExecContext(ctx, c.Name, pos)
		if err != nil {
			return fmt.Errorf("failed to insert category %q: %w", c.Name, err)
		}
		categoryID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}

		for tpos, t := range c.Tasks {
			var completedDate any
			if t.Completed && t.CompletedAt != nil {
				completedDate = FormatDate(*t.CompletedAt)
			}
			if _, err := taskStmt.ExecContext(ctx, categoryID, tpos, t.Text, t.Completed, FormatDate(t.CreatedAt), completedDate); err != nil {
				return fmt.Errorf("failed to insert task in %q: %w", c.Name, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Setting reads one value from the settings table.
func (s *SQLite) Setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	return value, true, nil
}

// SetSetting upserts one value in the settings table.
func (s *SQLite) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %q: %w", key, err)
	}
	return nil
}

// isEmpty reports whether no categories are stored.
func (s *SQLite) isEmpty(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to count categories: %w", err)
	}
	return n == 0, nil
}

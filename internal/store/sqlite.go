package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pbaille/journal/internal/domain"
	"github.com/pbaille/journal/internal/logger"
	"github.com/pbaille/journal/internal/store/migrations"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

// timestampLayout is fixed width so that lexical order on created_at is time order.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// Store handles database operations
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// New opens the SQLite database at dbPath. The returned Store owns a
// connection pool; every call checks a connection out and returns it.
func New(dbPath string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return NewWithDB(db, log), nil
}

// NewWithDB wraps an already opened database
func NewWithDB(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log.With().Str("component", "store").Logger()}
}

func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL"
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate creates the schema and seeds default pins, labels and the
// welcome entry. It is safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(logger.Goose(s.log))
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := gooseUpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// RoleByPin returns the role owning pin
func (s *Store) RoleByPin(ctx context.Context, pin string) (domain.Role, error) {
	var role domain.Role
	err := s.db.QueryRowContext(ctx, "SELECT role FROM pins WHERE pin = ?", pin).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find pin: %w", err)
	}
	return role, nil
}

// CountPins returns the number of pin records held for role
func (s *Store) CountPins(ctx context.Context, role domain.Role) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pins WHERE role = ?", role).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pins: %w", err)
	}
	return n, nil
}

// SetPin overwrites the pin of role
func (s *Store) SetPin(ctx context.Context, role domain.Role, pin string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE pins SET pin = ? WHERE role = ?", pin, role)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrPINInUse
		}
		return fmt.Errorf("update pin: %w", err)
	}
	return expectRow(res, domain.ErrNotFound)
}

// Labels returns the label of every role that has one
func (s *Store) Labels(ctx context.Context) (map[domain.Role]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT role, label FROM labels")
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	labels := make(map[domain.Role]string)
	for rows.Next() {
		var role domain.Role
		var label string
		if err := rows.Scan(&role, &label); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		labels[role] = label
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}

	return labels, nil
}

// SetLabel overwrites the label of role
func (s *Store) SetLabel(ctx context.Context, role domain.Role, label string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE labels SET label = ? WHERE role = ?", label, role)
	if err != nil {
		return fmt.Errorf("update label: %w", err)
	}
	return expectRow(res, domain.ErrNotFound)
}

// AddEntry inserts a new entry and returns it
func (s *Store) AddEntry(ctx context.Context, content string, author domain.Role, createdAt time.Time) (*domain.Entry, error) {
	createdAt = createdAt.UTC()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO entries (content, created_at, author) VALUES (?, ?, ?)",
		content, createdAt.Format(timestampLayout), author,
	)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	return &domain.Entry{
		ID:        id,
		Content:   content,
		CreatedAt: createdAt.Truncate(time.Microsecond),
		Author:    author,
	}, nil
}

// GetEntry retrieves an entry by ID
func (s *Store) GetEntry(ctx context.Context, id int64) (*domain.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, content, created_at, author FROM entries WHERE id = ?", id,
	)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// ListEntries returns entries newest first. A non-positive limit returns all of them.
func (s *Store) ListEntries(ctx context.Context, limit, offset int) ([]domain.Entry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, content, created_at, author FROM entries ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	return entries, nil
}

// UpdateEntry overwrites the content of an entry, and its author when author is not nil
func (s *Store) UpdateEntry(ctx context.Context, id int64, content string, author *domain.Role) error {
	var (
		res sql.Result
		err error
	)
	if author != nil {
		res, err = s.db.ExecContext(ctx,
			"UPDATE entries SET content = ?, author = ? WHERE id = ?", content, *author, id)
	} else {
		res, err = s.db.ExecContext(ctx,
			"UPDATE entries SET content = ? WHERE id = ?", content, id)
	}
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return expectRow(res, domain.ErrEntryNotFound)
}

// DeleteEntry removes an entry
func (s *Store) DeleteEntry(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return expectRow(res, domain.ErrEntryNotFound)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*domain.Entry, error) {
	var (
		e       domain.Entry
		created string
	)
	if err := row.Scan(&e.ID, &e.Content, &created, &e.Author); err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	e.CreatedAt = t.UTC()

	return &e, nil
}

func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

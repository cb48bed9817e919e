package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pbaille/journal/internal/domain"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := New(path, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s, path
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db, zerolog.Nop()), mock
}

func TestMigrate_Seeds(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	role, err := s.RoleByPin(ctx, "6278")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleYou, role)

	role, err = s.RoleByPin(ctx, "1234")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHer, role)

	labels, err := s.Labels(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[domain.Role]string{domain.RoleYou: "You", domain.RoleHer: "Her"}, labels)

	entries, err := s.ListEntries(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.RoleYou, entries[0].Author)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), entries[0].CreatedAt)
}

func TestMigrate_Idempotent(t *testing.T) {
	s, path := newTestStore(t)
	ctx := context.Background()

	// mutate every seeded table so a rerun of the seed would be visible
	require.NoError(t, s.SetPin(ctx, domain.RoleYou, "9876"))
	require.NoError(t, s.SetLabel(ctx, domain.RoleYou, "Me"))
	require.NoError(t, s.Migrate(ctx))

	// a fresh process on the same file
	s2, err := New(path, zerolog.Nop())
	require.NoError(t, err)
	defer s2.Close()
	require.NoError(t, s2.Migrate(ctx))

	for _, role := range domain.Roles {
		n, err := s2.CountPins(ctx, role)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "pins for %s", role)
	}

	labels, err := s2.Labels(ctx)
	require.NoError(t, err)
	assert.Len(t, labels, 2)
	assert.Equal(t, "Me", labels[domain.RoleYou])

	role, err := s2.RoleByPin(ctx, "9876")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleYou, role)

	entries, err := s2.ListEntries(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRoleByPin_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.RoleByPin(context.Background(), "0000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetPin_UniqueViolation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	err := s.SetPin(ctx, domain.RoleYou, "1234")
	assert.ErrorIs(t, err, domain.ErrConflict)

	role, err := s.RoleByPin(ctx, "6278")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleYou, role)
}

func TestSetPin_UnknownRole(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.SetPin(context.Background(), domain.Role("them"), "5555")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetLabel(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetLabel(ctx, domain.RoleHer, "Sweetheart"))
	labels, err := s.Labels(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sweetheart", labels[domain.RoleHer])

	assert.ErrorIs(t, s.SetLabel(ctx, domain.Role("them"), "x"), domain.ErrNotFound)
}

func TestEntries_CRUD(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 5, 4, 10, 11, 12, 123456789, time.UTC)
	e, err := s.AddEntry(ctx, "hello", domain.RoleHer, at)
	require.NoError(t, err)
	assert.Equal(t, at.Truncate(time.Microsecond), e.CreatedAt)

	got, err := s.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, *e, *got)

	her := domain.RoleHer
	require.NoError(t, s.UpdateEntry(ctx, e.ID, "edited", nil))
	require.NoError(t, s.UpdateEntry(ctx, e.ID, "edited again", &her))

	got, err = s.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited again", got.Content)

	require.NoError(t, s.DeleteEntry(ctx, e.ID))
	_, err = s.GetEntry(ctx, e.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, s.DeleteEntry(ctx, e.ID), domain.ErrNotFound)
	assert.ErrorIs(t, s.UpdateEntry(ctx, e.ID, "x", nil), domain.ErrNotFound)
}

func TestAddEntry_IDsIncrease(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a, err := s.AddEntry(ctx, "a", domain.RoleYou, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.DeleteEntry(ctx, a.ID))

	b, err := s.AddEntry(ctx, "b", domain.RoleYou, time.Now())
	require.NoError(t, err)
	assert.Greater(t, b.ID, a.ID)
}

func TestAddEntry_ConvertsToUTC(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	loc := time.FixedZone("UTC+2", 2*60*60)
	e, err := s.AddEntry(ctx, "zoned", domain.RoleYou, time.Date(2026, 1, 1, 1, 0, 0, 0, loc))
	require.NoError(t, err)

	got, err := s.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.CreatedAt.Location())
	assert.Equal(t, "2025-12-31T23:00:00Z", got.CreatedAt.Format(time.RFC3339))
}

func TestListEntries_Pagination(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := s.AddEntry(ctx, "e", domain.RoleYou, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}

	page, err := s.ListEntries(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, base.Add(3*time.Hour), page[0].CreatedAt)
	assert.Equal(t, base.Add(2*time.Hour), page[1].CreatedAt)

	all, err := s.ListEntries(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestPing(t *testing.T) {
	s, _ := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "file:/tmp/j.db?_busy_timeout=5000&_journal_mode=WAL", dsn("/tmp/j.db"))
	assert.Equal(t, "file::memory:?cache=shared", dsn("file::memory:?cache=shared"))
}

func TestRoleByPin_DBError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM pins WHERE pin = ?")).
		WithArgs("6278").
		WillReturnError(errors.New("db is down"))

	_, err := s.RoleByPin(context.Background(), "6278")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "find pin: db is down")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPin_DBError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE pins SET pin = \? WHERE role = \?`).
		WithArgs("1111", "you").
		WillReturnError(errors.New("readonly database"))

	err := s.SetPin(context.Background(), domain.RoleYou, "1111")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update pin: readonly database")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEntry_RowsAffectedError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM entries WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("rows-err")))

	err := s.DeleteEntry(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rows affected: rows-err")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEntries_BadTimestamp(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "content", "created_at", "author"}).
		AddRow(int64(1), "x", "yesterday", "you")
	mock.ExpectQuery(`SELECT id, content, created_at, author FROM entries ORDER BY`).
		WithArgs(-1, 0).
		WillReturnRows(rows)

	_, err := s.ListEntries(context.Background(), 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `parse created_at "yesterday"`)
}

func TestLabels_QueryError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT role, label FROM labels`).WillReturnError(sql.ErrConnDone)

	_, err := s.Labels(context.Background())
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestMigrate_Error(t *testing.T) {
	s, _ := newMockStore(t)

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Equal(t, "migrate: boom", err.Error())
}

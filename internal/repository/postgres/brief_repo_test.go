package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/briefbridge/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func expectSchema(mock pgxmock.PgxPoolIface) {
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS briefs`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS briefs_created_at_idx`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS unlocks`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
}

func ptr[T any](v T) *T { return &v }

func TestEnsureSchema_OnlyOnceAfterSuccess(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()

	ctx := context.Background()
	expectSchema(mock)

	require.NoError(t, db.EnsureSchema(ctx))
	require.NoError(t, db.EnsureSchema(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema_ToleratesCatalogRace(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS briefs`).WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS`).WillReturnError(&pgconn.PgError{Code: "42P07"})
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS unlocks`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, db.EnsureSchema(context.Background()))
	require.True(t, db.schemaReady.Load())
}

func TestEnsureSchema_RetriesAfterFailure(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()

	ctx := context.Background()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS briefs`).WillReturnError(errors.New("dial tcp: refused"))
	expectSchema(mock)

	require.Error(t, db.EnsureSchema(ctx))
	require.False(t, db.schemaReady.Load())
	require.NoError(t, db.EnsureSchema(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBriefRepo_InsertBrief_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBriefRepo(db)

	b := model.Brief{
		ID:        "b1",
		CreatedAt: 1700000000000,
		Title:     "Logo redesign",
		Details:   "Need a new logo",
		BudgetMin: ptr(500),
	}

	expectSchema(mock)
	mock.ExpectExec(`INSERT INTO briefs \(id, created_at, title, category, budget_min, budget_max, timeline, details, name, email\)`).
		WithArgs(b.ID, b.CreatedAt, b.Title, b.Category, b.BudgetMin, b.BudgetMax, b.Timeline, b.Details, b.Name, b.Email).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	got, err := r.InsertBrief(context.Background(), b)
	require.NoError(t, err)
	require.Equal(t, b, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBriefRepo_InsertBrief_SchemaError(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBriefRepo(db)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS briefs`).WillReturnError(errors.New("connection refused"))

	_, err := r.InsertBrief(context.Background(), model.Brief{ID: "b1", Title: "t", Details: "d"})
	require.ErrorContains(t, err, "ensure schema")
}

func TestBriefRepo_InsertBrief_ExecError(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBriefRepo(db)

	expectSchema(mock)
	mock.ExpectExec(`INSERT INTO briefs`).WillReturnError(errors.New("boom"))

	_, err := r.InsertBrief(context.Background(), model.Brief{ID: "b1", Title: "t", Details: "d"})
	require.ErrorContains(t, err, "insert brief")
}

func TestBriefRepo_ListBriefs(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBriefRepo(db)

	cols := []string{"id", "created_at", "title", "category", "budget_min", "budget_max", "timeline", "details", "name", "email"}
	rows := pgxmock.NewRows(cols).
		AddRow("b2", int64(2000), "Site", ptr("web"), ptr(100), ptr(900), ptr("2 weeks"), ptr("landing page"), ptr("Ann"), ptr("ann@example.com")).
		AddRow("b1", int64(1000), "Logo redesign", nil, ptr(500), nil, nil, ptr("Need a new logo"), nil, nil)

	expectSchema(mock)
	mock.ExpectQuery(`SELECT id, created_at, title, category, budget_min, budget_max, timeline, details, name, email FROM briefs ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(100).
		WillReturnRows(rows)

	out, err := r.ListBriefs(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "b2", out[0].ID)
	require.Equal(t, "web", *out[0].Category)
	require.Equal(t, "b1", out[1].ID)
	require.Equal(t, 500, *out[1].BudgetMin)
	require.Nil(t, out[1].BudgetMax)
	require.Nil(t, out[1].Email)
	require.Equal(t, "Need a new logo", out[1].Details)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBriefRepo_ListBriefs_QueryError(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBriefRepo(db)

	expectSchema(mock)
	mock.ExpectQuery(`SELECT id, created_at`).WithArgs(10).WillReturnError(errors.New("timeout"))

	_, err := r.ListBriefs(context.Background(), 10)
	require.ErrorContains(t, err, "list briefs")
}

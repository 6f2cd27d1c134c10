package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/rotaforge/rotaforge/pkg/model"
)

func newMockDemandRepo(t *testing.T) (*DemandRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("打开 sqlmock 失败: %v", err)
	}
	return NewDemandRepository(db), mock, func() { db.Close() }
}

func TestDemandRepository_FindByHash_NotFound(t *testing.T) {
	repo, mock, closeFn := newMockDemandRepo(t)
	defer closeFn()

	mock.ExpectQuery(regexp.QuoteMeta("FROM demands")).
		WithArgs(model.TenantID("t1"), "abc").
		WillReturnRows(sqlmock.NewRows(nil))

	d, err := repo.FindByHash(context.Background(), "t1", "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != nil {
		t.Fatalf("expected nil demand, got %+v", d)
	}
}

func TestDemandRepository_Create(t *testing.T) {
	repo, mock, closeFn := newMockDemandRepo(t)
	defer closeFn()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO demands")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(1), now, now))

	d := &model.Demand{
		Tenant:      "t1",
		Name:        "2026-01-01..2026-01-01",
		ContentHash: "abc",
		DateFrom:    "2026-01-01",
		DateTo:      "2026-01-01",
	}
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ID != 1 {
		t.Fatalf("expected id=1, got %d", d.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDemandRepository_List_Pagination(t *testing.T) {
	repo, mock, closeFn := newMockDemandRepo(t)
	defer closeFn()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM demands")).
		WithArgs(model.TenantID("t1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM demands")).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "tenant_id", "name", "raw_payload", "content_hash", "date_from", "date_to",
				"schedule_generated", "solved_at", "created_at", "updated_at"},
		).AddRow(int64(2), "t1", "b", []byte(`[]`), "h2", "2026-01-02", "2026-01-02", false, nil, now, now).
			AddRow(int64(1), "t1", "a", []byte(`[]`), "h1", "2026-01-01", "2026-01-01", false, nil, now, now))

	results, count, err := repo.List(context.Background(), DefaultListFilter("t1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count=2, got %d", count)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/helpdesk-ai/triage-backend/internal/models"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewWithPool(mock), mock
}

func TestListCasesKeepsRegistrationOrder(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery("SELECT id::text, problem, solution, requires_human, created_at FROM ticket_cases ORDER BY seq").
		WillReturnRows(pgxmock.NewRows([]string{"id", "problem", "solution", "requires_human", "created_at"}).
			AddRow("c1", "login fails on mobile app", "clear cache", false, created).
			AddRow("c2", "refund missing", "reissue", true, created))

	cases, err := store.ListCases(context.Background())
	if err != nil {
		t.Fatalf("list cases: %v", err)
	}
	if len(cases) != 2 || cases[0].ID != "c1" || !cases[1].RequiresHuman {
		t.Fatalf("unexpected cases: %+v", cases)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveTriageRunsInTransaction(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	o := models.TriageOutcome{
		TicketID: "t1", Category: "technical", Priority: "High", Summary: "s", Solution: "x",
		RequiresHuman: true, Confidence: "low", AssignedTechnician: "Anjali", TriagedAt: at,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO triage_outcomes").
		WithArgs("t1", "technical", "High", "s", "x", true, "low", "Anjali", at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE tickets").
		WithArgs("technical", "High", "t1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	if err := store.SaveTriage(context.Background(), o); err != nil {
		t.Fatalf("save triage: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSetTechnicianAvailabilityUnknown(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("UPDATE technicians SET available").
		WithArgs(false, "Nobody").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.SetTechnicianAvailability(context.Background(), "Nobody", false)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListUtilization(t *testing.T) {
	store, mock := newMockStore(t)

	empty, err := store.ListUtilization(context.Background(), nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty map without a query, got %v %v", empty, err)
	}

	seen := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	resolved := seen.Add(45 * time.Minute)
	rating := 4.0
	mock.ExpectQuery("SELECT ticket_id, seen_at, resolved_at, review_rating, review_text").
		WithArgs([]string{"t1", "t2"}).
		WillReturnRows(pgxmock.NewRows([]string{"ticket_id", "seen_at", "resolved_at", "review_rating", "review_text"}).
			AddRow("t1", &seen, &resolved, &rating, (*string)(nil)))

	got, err := store.ListUtilization(context.Background(), []string{"t1", "t2"})
	if err != nil {
		t.Fatalf("list utilization: %v", err)
	}
	u, ok := got["t1"]
	if !ok || len(got) != 1 {
		t.Fatalf("unexpected records: %+v", got)
	}
	if u.ReviewRating == nil || *u.ReviewRating != 4 || u.ReviewText != nil {
		t.Fatalf("unexpected record: %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestKnowledgeSearchUsesVectorLiteral(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT text, metadata").
		WithArgs("[0.5,1,-0.25]", 3).
		WillReturnRows(pgxmock.NewRows([]string{"text", "metadata", "score"}).
			AddRow("Reset passwords from the account page", []byte(`{"source":"kb/passwords"}`), 0.92))

	got, err := store.Search(context.Background(), []float32{0.5, 1, -0.25}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Metadata["source"] != "kb/passwords" {
		t.Fatalf("unexpected passages: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertTicketsUsesCopy(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectCopyFrom(pgx.Identifier{"tickets"}, []string{"id", "title", "description", "agent_id", "team", "category", "priority", "created_at"}).
		WillReturnResult(2)

	n, err := store.InsertTickets(context.Background(), []models.Ticket{{ID: "t1"}, {ID: "t2"}})
	if err != nil || n != 2 {
		t.Fatalf("insert tickets: n=%d err=%v", n, err)
	}
}

func TestGetLatestRunEmpty(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id::text, started_at, finished_at, status, summary FROM runs").
		WillReturnError(pgx.ErrNoRows)

	if _, err := store.GetLatestRun(context.Background()); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestVectorLiteral(t *testing.T) {
	if got := vectorLiteral(nil); got != "[]" {
		t.Fatalf("expected [], got %s", got)
	}
	if got := vectorLiteral([]float32{0.1, 2}); got != "[0.1,2]" {
		t.Fatalf("unexpected literal %s", got)
	}
}

func TestStoreIntegration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	if err := Migrate(ctx, url); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store, err := New(ctx, url)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	c, err := store.InsertCase(ctx, models.TicketCase{Problem: "login fails on mobile app", Solution: "clear cache"})
	if err != nil {
		t.Fatalf("insert case: %v", err)
	}
	if c.ID == "" {
		t.Fatalf("expected generated id")
	}
	n, err := store.CountCases(ctx)
	if err != nil || n == 0 {
		t.Fatalf("count cases: n=%d err=%v", n, err)
	}
}

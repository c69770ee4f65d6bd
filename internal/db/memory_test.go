package db

import (
	"context"
	"testing"
	"time"

	"github.com/helpdesk-ai/triage-backend/internal/models"
)

func TestMemoryStoreRoster(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	_, _ = m.InsertTechnicians(ctx, []models.Technician{
		{Name: "Priya", Skills: []string{"order", "general"}, Available: true},
		{Name: "Mohit", Skills: []string{"general"}, Available: false},
	})

	if err := m.SetTechnicianAvailability(ctx, "Mohit", true); err != nil {
		t.Fatalf("set availability: %v", err)
	}
	if err := m.SetTechnicianAvailability(ctx, "Ghost", true); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	roster, _ := m.ListTechnicians(ctx)
	if len(roster) != 2 || roster[0].Name != "Priya" || !roster[1].Available {
		t.Fatalf("unexpected roster: %+v", roster)
	}
}

func TestMemoryStoreTriageLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, _ = m.InsertTickets(ctx, []models.Ticket{
		{ID: "b", Title: "second", CreatedAt: base.Add(time.Hour)},
		{ID: "a", Title: "first", CreatedAt: base},
	})

	pending, _ := m.ListUntriagedTickets(ctx)
	if len(pending) != 2 || pending[0].ID != "a" {
		t.Fatalf("expected oldest first, got %+v", pending)
	}

	if err := m.SaveTriage(ctx, models.TriageOutcome{TicketID: "a", Category: "order", Priority: "Low"}); err != nil {
		t.Fatalf("save triage: %v", err)
	}
	pending, _ = m.ListUntriagedTickets(ctx)
	if len(pending) != 1 || pending[0].ID != "b" {
		t.Fatalf("expected only b pending, got %+v", pending)
	}
	byTeam, _ := m.ListTicketsByTeam(ctx, "")
	if byTeam[1].Category != "order" {
		t.Fatalf("expected category copied from outcome, got %+v", byTeam[1])
	}
}

func TestMemoryStoreRuns(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	if _, err := m.GetLatestRun(ctx); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	id, _ := m.CreateRun(ctx, "RUNNING")
	if err := m.FinishRun(ctx, id, "SUCCESS", []byte(`{"counts":{}}`)); err != nil {
		t.Fatalf("finish run: %v", err)
	}
	run, err := m.GetLatestRun(ctx)
	if err != nil || run.Status != "SUCCESS" || run.FinishedAt == nil {
		t.Fatalf("unexpected run %+v err=%v", run, err)
	}
}

func TestMemoryStoreChatLoadNeverNegative(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	_, _ = m.InsertChatAgents(ctx, []models.ChatAgent{{ID: "a1", Name: "Asha", Online: true}})
	if err := m.IncrementActiveChats(ctx, "a1", -3); err != nil {
		t.Fatalf("increment: %v", err)
	}
	agents, _ := m.ListChatAgents(ctx)
	if agents[0].ActiveChats != 0 {
		t.Fatalf("expected 0 active chats, got %d", agents[0].ActiveChats)
	}
}

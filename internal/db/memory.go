package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-ai/triage-backend/internal/models"
)

// MemoryStore implements the same repository methods as Store, in process. It
// backs the service when no DATABASE_URL is configured.
type MemoryStore struct {
	mu          sync.RWMutex
	cases       []models.TicketCase
	tickets     []models.Ticket
	utilization map[string]models.UtilizationRecord
	technicians []models.Technician
	chatAgents  []models.ChatAgent
	outcomes    map[string]models.TriageOutcome
	runs        []models.Run
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		utilization: map[string]models.UtilizationRecord{},
		outcomes:    map[string]models.TriageOutcome{},
	}
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) ListCases(context.Context) ([]models.TicketCase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.TicketCase(nil), m.cases...), nil
}

func (m *MemoryStore) CountCases(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cases), nil
}

func (m *MemoryStore) InsertCase(_ context.Context, c models.TicketCase) (models.TicketCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	m.cases = append(m.cases, c)
	return c, nil
}

func (m *MemoryStore) InsertTickets(_ context.Context, tickets []models.Ticket) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tickets {
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now().UTC()
		}
		m.tickets = append(m.tickets, t)
	}
	return int64(len(tickets)), nil
}

func (m *MemoryStore) InsertUtilization(_ context.Context, records []models.UtilizationRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range records {
		m.utilization[u.TicketID] = u
	}
	return int64(len(records)), nil
}

func (m *MemoryStore) ListTicketsByAgent(_ context.Context, agentID string) ([]models.Ticket, error) {
	return m.filterTickets(func(t models.Ticket) bool { return t.AgentID == agentID }), nil
}

func (m *MemoryStore) ListTicketsByTeam(_ context.Context, team string) ([]models.Ticket, error) {
	return m.filterTickets(func(t models.Ticket) bool { return t.Team == team }), nil
}

func (m *MemoryStore) ListUntriagedTickets(context.Context) ([]models.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Ticket
	for _, t := range m.tickets {
		if _, done := m.outcomes[t.ID]; !done {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) filterTickets(keep func(models.Ticket) bool) []models.Ticket {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Ticket
	for _, t := range m.tickets {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (m *MemoryStore) ListUtilization(_ context.Context, ticketIDs []string) (map[string]models.UtilizationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[string]models.UtilizationRecord{}
	for _, id := range ticketIDs {
		if u, ok := m.utilization[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (m *MemoryStore) SaveTriage(_ context.Context, o models.TriageOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[o.TicketID] = o
	for i := range m.tickets {
		if m.tickets[i].ID != o.TicketID {
			continue
		}
		if m.tickets[i].Category == "" {
			m.tickets[i].Category = o.Category
		}
		if m.tickets[i].Priority == "" {
			m.tickets[i].Priority = o.Priority
		}
	}
	return nil
}

func (m *MemoryStore) ListTechnicians(context.Context) ([]models.Technician, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Technician(nil), m.technicians...), nil
}

func (m *MemoryStore) InsertTechnicians(_ context.Context, techs []models.Technician) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.technicians = append(m.technicians, techs...)
	return int64(len(techs)), nil
}

func (m *MemoryStore) SetTechnicianAvailability(_ context.Context, name string, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.technicians {
		if m.technicians[i].Name == name {
			m.technicians[i].Available = available
			return nil
		}
	}
	return fmt.Errorf("technician %q: %w", name, pgx.ErrNoRows)
}

func (m *MemoryStore) ListChatAgents(context.Context) ([]models.ChatAgent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.ChatAgent(nil), m.chatAgents...), nil
}

func (m *MemoryStore) InsertChatAgents(_ context.Context, agents []models.ChatAgent) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatAgents = append(m.chatAgents, agents...)
	return int64(len(agents)), nil
}

func (m *MemoryStore) IncrementActiveChats(_ context.Context, agentID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.chatAgents {
		if m.chatAgents[i].ID == agentID {
			m.chatAgents[i].ActiveChats = max(m.chatAgents[i].ActiveChats+delta, 0)
			return nil
		}
	}
	return fmt.Errorf("chat agent %q: %w", agentID, pgx.ErrNoRows)
}

func (m *MemoryStore) CreateRun(_ context.Context, status string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.runs = append(m.runs, models.Run{ID: id, StartedAt: time.Now().UTC(), Status: status})
	return id, nil
}

func (m *MemoryStore) FinishRun(_ context.Context, runID string, status string, summary []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == runID {
			now := time.Now().UTC()
			m.runs[i].Status = status
			m.runs[i].Summary = json.RawMessage(summary)
			m.runs[i].FinishedAt = &now
			return nil
		}
	}
	return fmt.Errorf("run %q: %w", runID, pgx.ErrNoRows)
}

func (m *MemoryStore) GetLatestRun(context.Context) (models.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.runs) == 0 {
		return models.Run{}, pgx.ErrNoRows
	}
	return m.runs[len(m.runs)-1], nil
}

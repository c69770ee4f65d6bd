package db

import (
	"context"

	"github.com/helpdesk-ai/triage-backend/internal/models"
)

// Repository is implemented by Store and MemoryStore.
type Repository interface {
	Ping(ctx context.Context) error

	ListCases(ctx context.Context) ([]models.TicketCase, error)
	CountCases(ctx context.Context) (int, error)
	InsertCase(ctx context.Context, c models.TicketCase) (models.TicketCase, error)

	InsertTickets(ctx context.Context, tickets []models.Ticket) (int64, error)
	InsertUtilization(ctx context.Context, records []models.UtilizationRecord) (int64, error)
	ListTicketsByAgent(ctx context.Context, agentID string) ([]models.Ticket, error)
	ListTicketsByTeam(ctx context.Context, team string) ([]models.Ticket, error)
	ListUtilization(ctx context.Context, ticketIDs []string) (map[string]models.UtilizationRecord, error)
	ListUntriagedTickets(ctx context.Context) ([]models.Ticket, error)
	SaveTriage(ctx context.Context, o models.TriageOutcome) error

	ListTechnicians(ctx context.Context) ([]models.Technician, error)
	InsertTechnicians(ctx context.Context, techs []models.Technician) (int64, error)
	SetTechnicianAvailability(ctx context.Context, name string, available bool) error

	ListChatAgents(ctx context.Context) ([]models.ChatAgent, error)
	InsertChatAgents(ctx context.Context, agents []models.ChatAgent) (int64, error)
	IncrementActiveChats(ctx context.Context, agentID string, delta int) error

	CreateRun(ctx context.Context, status string) (string, error)
	FinishRun(ctx context.Context, runID string, status string, summary []byte) error
	GetLatestRun(ctx context.Context) (models.Run, error)
}

var (
	_ Repository = (*Store)(nil)
	_ Repository = (*MemoryStore)(nil)
)

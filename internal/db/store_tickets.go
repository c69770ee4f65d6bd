package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-ai/triage-backend/internal/models"
)

func (s *Store) InsertTickets(ctx context.Context, tickets []models.Ticket) (int64, error) {
	rows := make([][]any, 0, len(tickets))
	for _, t := range tickets {
		created := t.CreatedAt
		if created.IsZero() {
			created = time.Now().UTC()
		}
		rows = append(rows, []any{t.ID, t.Title, t.Description, t.AgentID, t.Team, t.Category, t.Priority, created})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"tickets"}, []string{"id", "title", "description", "agent_id", "team", "category", "priority", "created_at"}, pgx.CopyFromRows(rows))
}

func (s *Store) InsertUtilization(ctx context.Context, records []models.UtilizationRecord) (int64, error) {
	rows := make([][]any, 0, len(records))
	for _, u := range records {
		rows = append(rows, []any{u.TicketID, u.SeenAt, u.ResolvedAt, u.ReviewRating, u.ReviewText})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"utilization_records"}, []string{"ticket_id", "seen_at", "resolved_at", "review_rating", "review_text"}, pgx.CopyFromRows(rows))
}

func (s *Store) ListTicketsByAgent(ctx context.Context, agentID string) ([]models.Ticket, error) {
	return s.listTickets(ctx, `
		SELECT id, title, description, agent_id, team, category, priority, created_at
		FROM tickets WHERE agent_id = $1 ORDER BY created_at ASC, id ASC
	`, agentID)
}

func (s *Store) ListTicketsByTeam(ctx context.Context, team string) ([]models.Ticket, error) {
	return s.listTickets(ctx, `
		SELECT id, title, description, agent_id, team, category, priority, created_at
		FROM tickets WHERE team = $1 ORDER BY created_at ASC, id ASC
	`, team)
}

// ListUntriagedTickets returns tickets without a stored triage outcome, oldest first.
func (s *Store) ListUntriagedTickets(ctx context.Context) ([]models.Ticket, error) {
	return s.listTickets(ctx, `
		SELECT t.id, t.title, t.description, t.agent_id, t.team, t.category, t.priority, t.created_at
		FROM tickets t
		LEFT JOIN triage_outcomes o ON o.ticket_id = t.id
		WHERE o.ticket_id IS NULL
		ORDER BY t.created_at ASC
	`)
}

func (s *Store) listTickets(ctx context.Context, query string, args ...any) ([]models.Ticket, error) {
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Ticket
	for rows.Next() {
		var t models.Ticket
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.AgentID, &t.Team, &t.Category, &t.Priority, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) ListUtilization(ctx context.Context, ticketIDs []string) (map[string]models.UtilizationRecord, error) {
	out := map[string]models.UtilizationRecord{}
	if len(ticketIDs) == 0 {
		return out, nil
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT ticket_id, seen_at, resolved_at, review_rating, review_text
		FROM utilization_records WHERE ticket_id = ANY($1)
	`, ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var u models.UtilizationRecord
		if err := rows.Scan(&u.TicketID, &u.SeenAt, &u.ResolvedAt, &u.ReviewRating, &u.ReviewText); err != nil {
			return nil, err
		}
		out[u.TicketID] = u
	}
	return out, rows.Err()
}

// SaveTriage writes the outcome and, when the ticket had no category or
// priority yet, fills them from the outcome.
func (s *Store) SaveTriage(ctx context.Context, o models.TriageOutcome) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO triage_outcomes (ticket_id, category, priority, summary, solution, requires_human, confidence, assigned_technician, triaged_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			ON CONFLICT (ticket_id) DO UPDATE SET
				category = EXCLUDED.category,
				priority = EXCLUDED.priority,
				summary = EXCLUDED.summary,
				solution = EXCLUDED.solution,
				requires_human = EXCLUDED.requires_human,
				confidence = EXCLUDED.confidence,
				assigned_technician = EXCLUDED.assigned_technician,
				triaged_at = EXCLUDED.triaged_at
		`, o.TicketID, o.Category, o.Priority, o.Summary, o.Solution, o.RequiresHuman, o.Confidence, o.AssignedTechnician, o.TriagedAt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			UPDATE tickets
			SET category = COALESCE(NULLIF(category, ''), $1),
			    priority = COALESCE(NULLIF(priority, ''), $2)
			WHERE id = $3
		`, o.Category, o.Priority, o.TicketID)
		return err
	})
}

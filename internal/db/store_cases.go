package db

import (
	"context"

	"github.com/helpdesk-ai/triage-backend/internal/models"
)

// ListCases returns past cases in the order they were recorded.
func (s *Store) ListCases(ctx context.Context) ([]models.TicketCase, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id::text, problem, solution, requires_human, created_at FROM ticket_cases ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TicketCase
	for rows.Next() {
		var c models.TicketCase
		if err := rows.Scan(&c.ID, &c.Problem, &c.Solution, &c.RequiresHuman, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CountCases(ctx context.Context) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM ticket_cases`).Scan(&n)
	return n, err
}

func (s *Store) InsertCase(ctx context.Context, c models.TicketCase) (models.TicketCase, error) {
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO ticket_cases (problem, solution, requires_human)
		VALUES ($1, $2, $3)
		RETURNING id::text, created_at
	`, c.Problem, c.Solution, c.RequiresHuman).Scan(&c.ID, &c.CreatedAt)
	return c, err
}

package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-ai/triage-backend/internal/models"
)

// ListTechnicians returns the roster in registration order.
func (s *Store) ListTechnicians(ctx context.Context) ([]models.Technician, error) {
	rows, err := s.Pool.Query(ctx, `SELECT name, skills, available FROM technicians ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Technician
	for rows.Next() {
		var t models.Technician
		if err := rows.Scan(&t.Name, &t.Skills, &t.Available); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) InsertTechnicians(ctx context.Context, techs []models.Technician) (int64, error) {
	rows := make([][]any, 0, len(techs))
	for _, t := range techs {
		rows = append(rows, []any{t.Name, t.Skills, t.Available})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"technicians"}, []string{"name", "skills", "available"}, pgx.CopyFromRows(rows))
}

// SetTechnicianAvailability returns pgx.ErrNoRows for an unknown technician.
func (s *Store) SetTechnicianAvailability(ctx context.Context, name string, available bool) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE technicians SET available = $1 WHERE name = $2`, available, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("technician %q: %w", name, pgx.ErrNoRows)
	}
	return nil
}

func (s *Store) ListChatAgents(ctx context.Context) ([]models.ChatAgent, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, name, active_chats, online FROM chat_agents ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChatAgent
	for rows.Next() {
		var a models.ChatAgent
		if err := rows.Scan(&a.ID, &a.Name, &a.ActiveChats, &a.Online); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) InsertChatAgents(ctx context.Context, agents []models.ChatAgent) (int64, error) {
	rows := make([][]any, 0, len(agents))
	for _, a := range agents {
		rows = append(rows, []any{a.ID, a.Name, a.ActiveChats, a.Online})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"chat_agents"}, []string{"id", "name", "active_chats", "online"}, pgx.CopyFromRows(rows))
}

func (s *Store) IncrementActiveChats(ctx context.Context, agentID string, delta int) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE chat_agents SET active_chats = GREATEST(active_chats + $1, 0) WHERE id = $2`, delta, agentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("chat agent %q: %w", agentID, pgx.ErrNoRows)
	}
	return nil
}

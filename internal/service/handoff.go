package service

import (
	"context"
	"math/rand/v2"

	"github.com/helpdesk-ai/triage-backend/internal/models"
)

type ChatAgentSource interface {
	ListChatAgents(ctx context.Context) ([]models.ChatAgent, error)
	IncrementActiveChats(ctx context.Context, agentID string, delta int) error
}

// PickHandoffAgent selects an online chat agent with the fewest active chats,
// choosing uniformly at random among ties. This is the live-chat policy and is
// unrelated to technician assignment.
func PickHandoffAgent(agents []models.ChatAgent, rng *rand.Rand) (models.ChatAgent, []models.ChatAgent, bool) {
	var least []models.ChatAgent
	for _, a := range agents {
		if !a.Online {
			continue
		}
		switch {
		case len(least) == 0 || a.ActiveChats < least[0].ActiveChats:
			least = []models.ChatAgent{a}
		case a.ActiveChats == least[0].ActiveChats:
			least = append(least, a)
		}
	}
	if len(least) == 0 {
		return models.ChatAgent{}, nil, false
	}
	idx := 0
	if len(least) > 1 {
		if rng != nil {
			idx = rng.IntN(len(least))
		} else {
			idx = rand.IntN(len(least))
		}
	}
	return least[idx], least, true
}

type HandoffService struct {
	Agents ChatAgentSource
	Rand   *rand.Rand
}

// Handoff picks an agent and records the new chat against their load.
func (h *HandoffService) Handoff(ctx context.Context) (models.ChatAgent, error) {
	agents, err := h.Agents.ListChatAgents(ctx)
	if err != nil {
		return models.ChatAgent{}, err
	}
	picked, _, ok := PickHandoffAgent(agents, h.Rand)
	if !ok {
		return models.ChatAgent{}, ErrNotFound
	}
	if err := h.Agents.IncrementActiveChats(ctx, picked.ID, 1); err != nil {
		return models.ChatAgent{}, err
	}
	picked.ActiveChats++
	return picked, nil
}

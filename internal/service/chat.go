package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helpdesk-ai/triage-backend/internal/ai"
	"github.com/helpdesk-ai/triage-backend/internal/conversation"
	"github.com/helpdesk-ai/triage-backend/internal/metrics"
	"github.com/helpdesk-ai/triage-backend/internal/models"
)

const (
	ChatFallbackAnswer = "I'm having trouble answering right now. A support agent will follow up with you shortly."

	sourceSnippetRunes = 80
)

type ChatResult struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	SessionID string   `json:"sessionId"`
}

type ChatAssistant struct {
	AI           *ai.Client
	Knowledge    KnowledgeSearcher
	Conversation conversation.Store
	KnowledgeK   int
	ContextSize  int
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
}

// Ask answers a question using knowledge passages and the session's recent
// history. An empty session id starts a new session.
func (a *ChatAssistant) Ask(ctx context.Context, sessionID, question string) (ChatResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return ChatResult{}, ValidationError{Field: "question", Reason: "required"}
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	k := a.KnowledgeK
	if k <= 0 {
		k = defaultKnowledgeK
	}
	var passages []models.KnowledgePassage
	if a.Knowledge != nil {
		var err error
		passages, err = a.Knowledge.Retrieve(ctx, question, k)
		if err != nil {
			a.Logger.Warn().Err(err).Str("op", "knowledge_search").Str("session_id", sessionID).Msg("knowledge retrieval unavailable")
			a.Metrics.ObserveFallback("knowledge_search")
			passages = nil
		}
	}

	n := a.ContextSize
	if n <= 0 {
		n = conversation.DefaultContextSize
	}
	history, err := a.Conversation.RecentContext(ctx, sessionID, n)
	if err != nil {
		a.Logger.Warn().Err(err).Str("session_id", sessionID).Msg("conversation history unavailable")
		history = nil
	}

	answer, err := a.AI.Complete(ctx, "chat", buildChatPrompt(question, history, passages))
	if err != nil {
		a.Logger.Warn().Err(err).Str("op", "chat").Str("session_id", sessionID).Msg("chat answer failed, using fallback")
		a.Metrics.ObserveFallback("chat")
		answer = ChatFallbackAnswer
	}

	if err := a.Conversation.Append(ctx, sessionID, question, answer); err != nil {
		a.Logger.Warn().Err(err).Str("session_id", sessionID).Msg("conversation append failed")
	}

	return ChatResult{
		Answer:    answer,
		Sources:   passageSources(passages),
		SessionID: sessionID,
	}, nil
}

func buildChatPrompt(question string, history []conversation.Turn, passages []models.KnowledgePassage) string {
	var b strings.Builder
	b.WriteString("You are a helpful customer support assistant. Answer using the knowledge below when it is relevant.\n\n")
	if len(passages) > 0 {
		b.WriteString("Knowledge:\n")
		for _, p := range passages {
			fmt.Fprintf(&b, "- %s\n", p.Text)
		}
		b.WriteString("\n")
	}
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, t := range history {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
		}
		b.WriteString("\n")
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n")
	return b.String()
}

// passageSources labels each passage by its "source" or "title" metadata,
// falling back to a snippet of its text.
func passageSources(passages []models.KnowledgePassage) []string {
	out := make([]string, 0, len(passages))
	for _, p := range passages {
		label := ""
		for _, key := range []string{"source", "title"} {
			if v, ok := p.Metadata[key].(string); ok && strings.TrimSpace(v) != "" {
				label = strings.TrimSpace(v)
				break
			}
		}
		if label == "" {
			label = truncateRunes(strings.TrimSpace(p.Text), sourceSnippetRunes)
		}
		out = append(out, label)
	}
	return out
}

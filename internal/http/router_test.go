package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-ai/triage-backend/internal/ai"
	"github.com/helpdesk-ai/triage-backend/internal/config"
	"github.com/helpdesk-ai/triage-backend/internal/conversation"
	"github.com/helpdesk-ai/triage-backend/internal/db"
	"github.com/helpdesk-ai/triage-backend/internal/knowledge"
	"github.com/helpdesk-ai/triage-backend/internal/metrics"
	"github.com/helpdesk-ai/triage-backend/internal/service"
)

type downProvider struct{}

func (downProvider) Complete(context.Context, string) (string, error) {
	return "", errors.New("provider unreachable")
}

const testAdminKey = "secret"

func newTestRouter(t *testing.T, provider ai.TextCompletionProvider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		AdminKey:                testAdminKey,
		CORSAllowed:             "*",
		ConversationMaxEntries:  10,
		ConversationContextSize: 5,
		QualityConcurrency:      2,
		KnowledgeTopK:           3,
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h := NewHandler(cfg, Deps{
		Store:        db.NewMemoryStore(),
		AI:           &ai.Client{Provider: provider, Timeout: time.Second, Metrics: m},
		Knowledge:    knowledge.NewRetriever(knowledge.HashEmbedder{Dims: 64}, knowledge.NewMemoryIndex()),
		Conversation: conversation.NewMemoryStore(cfg.ConversationMaxEntries, time.Now),
		Metrics:      m,
		Logger:       zerolog.Nop(),
	})
	return Router(cfg, h, m, reg)
}

func do(r *gin.Engine, method, path, body string, admin bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set("X-Admin-Key", testAdminKey)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const seedImport = `{
	"tickets":[
		{"id":"t1","title":"Refund","description":"refund missing","agent_id":"ag1","team":"north"},
		{"id":"t2","title":"Parcel","description":"parcel late","agent_id":"ag2","team":"north"}
	],
	"utilization":[
		{"ticket_id":"t1","seen_at":"2026-01-01T10:00:00Z","resolved_at":"2026-01-01T10:30:00Z","review_rating":5,"review_text":"great"},
		{"ticket_id":"t2","seen_at":"2026-01-01T11:00:00Z","resolved_at":"2026-01-01T12:00:00Z","review_rating":2,"review_text":"slow"}
	],
	"technicians":[
		{"name":"Priya","skills":["order","general"],"available":true},
		{"name":"Rahul","skills":["delivery"],"available":true}
	],
	"chat_agents":[{"id":"c1","name":"Asha","online":true}]
}`

func TestAdminRoutesRequireKey(t *testing.T) {
	r := newTestRouter(t, downProvider{})

	w := do(r, http.MethodPost, "/api/import", seedImport, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/import", seedImport, true)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTriageDuringProviderOutage(t *testing.T) {
	r := newTestRouter(t, downProvider{})
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/import", seedImport, true).Code)

	w := do(r, http.MethodPost, "/api/triage", `{"description":"I want a refund for my order"}`, false)
	require.Equal(t, http.StatusOK, w.Code)

	var res service.TriageResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "order", res.Category)
	assert.Equal(t, "Medium", res.Priority)
	assert.Equal(t, "Priya", res.AssignedTechnician)
	assert.NotEmpty(t, res.Solution)
	assert.NotEmpty(t, res.Summary)
	assert.NotEmpty(t, res.Confidence)
	assert.Equal(t, 0, res.TicketsInDB)
}

func TestChatDuringProviderOutage(t *testing.T) {
	r := newTestRouter(t, downProvider{})

	w := do(r, http.MethodPost, "/api/chat", `{"question":"Where is my parcel?"}`, false)
	require.Equal(t, http.StatusOK, w.Code)

	var res service.ChatResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, service.ChatFallbackAnswer, res.Answer)
	require.NotEmpty(t, res.SessionID)

	w = do(r, http.MethodGet, "/api/chat/"+res.SessionID, "", false)
	require.Equal(t, http.StatusOK, w.Code)
	var sum conversation.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	assert.Equal(t, 1, sum.TotalExchanges)

	w = do(r, http.MethodDelete, "/api/chat/"+res.SessionID, "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"cleared":true}`, w.Body.String())
}

func TestBatchRunAndPerformance(t *testing.T) {
	r := newTestRouter(t, downProvider{})
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/import", seedImport, true).Code)

	w := do(r, http.MethodPost, "/api/triage/run", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	var run struct {
		RunID   string             `json:"run_id"`
		Summary service.RunSummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.NotEmpty(t, run.RunID)
	assert.EqualValues(t, 2, run.Summary.Counts["tickets_processed"])

	w = do(r, http.MethodGet, "/api/runs/latest", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), service.RunStatusSuccess)

	w = do(r, http.MethodGet, "/api/performance/agents/ag1", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	var perf service.AgentPerformance
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &perf))
	assert.Len(t, perf.CoachingRecommendations.Strengths, 3)

	w = do(r, http.MethodGet, "/api/performance/teams/north", "", false)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/performance/agents/nobody", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestKnowledgeIngestFeedsChatSources(t *testing.T) {
	r := newTestRouter(t, ai.MockProvider{ModelVersion: "test"})

	w := do(r, http.MethodPost, "/api/knowledge", `{"passages":[{"text":"Parcels ship within two days","metadata":{"source":"shipping-faq"}}]}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"added":1}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/chat", `{"question":"When do parcels ship?"}`, false)
	require.Equal(t, http.StatusOK, w.Code)
	var res service.ChatResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Contains(t, res.Sources, "shipping-faq")
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, downProvider{})
	do(r, http.MethodGet, "/healthz", "", false)

	w := do(r, http.MethodGet, "/metrics", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "triage_http_requests_total")
}

type recordingProvider struct {
	mu      sync.Mutex
	prompts []string
}

func (p *recordingProvider) Complete(_ context.Context, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
	return "Try restarting the app.", nil
}

func (p *recordingProvider) last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prompts[len(p.prompts)-1]
}

func TestChatPromptCarriesRecentWindowOnly(t *testing.T) {
	provider := &recordingProvider{}
	r := newTestRouter(t, provider)

	sessionID := ""
	for i := 1; i <= 8; i++ {
		body, err := json.Marshal(map[string]string{"sessionId": sessionID, "question": fmt.Sprintf("question number %d", i)})
		require.NoError(t, err)
		w := do(r, http.MethodPost, "/api/chat", string(body), false)
		require.Equal(t, http.StatusOK, w.Code)
		var res service.ChatResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		sessionID = res.SessionID
	}

	prompt := provider.last()
	assert.Equal(t, 5, strings.Count(prompt, "user: question number"))
	assert.NotContains(t, prompt, "user: question number 2\n")
	assert.Contains(t, prompt, "user: question number 3\n")
	assert.Contains(t, prompt, "user: question number 7\n")
	assert.Contains(t, prompt, "Question: question number 8")

	w := do(r, http.MethodGet, "/api/chat/"+sessionID, "", false)
	var sum conversation.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	assert.Equal(t, 8, sum.TotalExchanges)
}

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AI_PROVIDER", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.AITimeout != 20*time.Second {
		t.Fatalf("expected 20s ai timeout, got %s", cfg.AITimeout)
	}
	if cfg.ConversationMaxEntries != 10 {
		t.Fatalf("expected 10 conversation entries, got %d", cfg.ConversationMaxEntries)
	}
	if cfg.ConversationContextSize != 5 {
		t.Fatalf("expected context window 5, got %d", cfg.ConversationContextSize)
	}
	if cfg.KnowledgeTopK != 5 {
		t.Fatalf("expected knowledge top-k 5, got %d", cfg.KnowledgeTopK)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AI_PROVIDER", "gemini")
	t.Setenv("AI_TIMEOUT", "5s")
	t.Setenv("CONVERSATION_MAX_ENTRIES", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AIProvider != "gemini" {
		t.Fatalf("expected gemini provider, got %q", cfg.AIProvider)
	}
	if cfg.AITimeout != 5*time.Second {
		t.Fatalf("expected 5s, got %s", cfg.AITimeout)
	}
	if cfg.ConversationMaxEntries != 3 {
		t.Fatalf("expected 3 entries, got %d", cfg.ConversationMaxEntries)
	}
}

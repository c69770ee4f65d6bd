package docs

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "Helpdesk Triage Backend",
    "description": "API for AI ticket triage, support chat and agent performance coaching",
    "version": "1.0"
  },
  "basePath": "/",
  "paths": {
    "/healthz": {
      "get": {
        "summary": "Liveness and database ping",
        "tags": [
          "health"
        ]
      }
    },
    "/api/triage": {
      "post": {
        "summary": "Triage a ticket",
        "tags": [
          "triage"
        ]
      }
    },
    "/api/triage/run": {
      "post": {
        "summary": "Run batch triage",
        "tags": [
          "runs"
        ]
      }
    },
    "/api/runs/latest": {
      "get": {
        "summary": "Latest run",
        "tags": [
          "runs"
        ]
      }
    },
    "/api/chat": {
      "post": {
        "summary": "Ask the support assistant",
        "tags": [
          "chat"
        ]
      }
    },
    "/api/chat/handoff": {
      "post": {
        "summary": "Hand the chat off to a live agent",
        "tags": [
          "chat"
        ]
      }
    },
    "/api/chat/{sessionId}": {
      "get": {
        "summary": "Conversation summary",
        "tags": [
          "chat"
        ]
      },
      "delete": {
        "summary": "Clear a conversation",
        "tags": [
          "chat"
        ]
      }
    },
    "/api/performance/agents/{agentId}": {
      "get": {
        "summary": "Agent performance and coaching",
        "tags": [
          "performance"
        ]
      }
    },
    "/api/performance/teams/{team}": {
      "get": {
        "summary": "Team performance rollup",
        "tags": [
          "performance"
        ]
      }
    },
    "/api/cases": {
      "get": {
        "summary": "List resolved cases",
        "tags": [
          "cases"
        ]
      },
      "post": {
        "summary": "Record a resolved case",
        "tags": [
          "cases"
        ]
      }
    },
    "/api/technicians": {
      "get": {
        "summary": "List technicians",
        "tags": [
          "technicians"
        ]
      }
    },
    "/api/technicians/{name}/availability": {
      "patch": {
        "summary": "Toggle technician availability",
        "tags": [
          "technicians"
        ]
      }
    },
    "/api/debug/eligibility": {
      "get": {
        "summary": "Explain technician eligibility",
        "tags": [
          "technicians"
        ]
      }
    },
    "/api/import": {
      "post": {
        "summary": "Import operational data",
        "tags": [
          "admin"
        ]
      }
    },
    "/api/knowledge": {
      "post": {
        "summary": "Ingest knowledge passages",
        "tags": [
          "knowledge"
        ]
      }
    }
  }
}`

func init() {
	swag.Register(swag.Name, &s{})
}

type s struct{}

func (s *s) ReadDoc() string {
	return docTemplate
}

package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leadline-backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeAgentStore struct {
	agents []Agent
}

func (f *fakeAgentStore) ListActiveSalesAgents(_ context.Context) ([]Agent, error) {
	return f.agents, nil
}

func (f *fakeAgentStore) GetAgent(_ context.Context, id uuid.UUID) (*Agent, error) {
	for i := range f.agents {
		if f.agents[i].ID == id {
			return &f.agents[i], nil
		}
	}
	return nil, apperr.NotFound("agent not found")
}

func newTestRouter(store AgentStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	m := NewModule(store)
	r := gin.New()
	agents := r.Group("/agents")
	agents.GET("", m.handleListAgents)
	agents.GET("/:id", m.handleGetAgent)
	return r
}

func TestListAgentsReturnsRoster(t *testing.T) {
	store := &fakeAgentStore{agents: []Agent{
		{ID: uuid.New(), Name: "Priya", Email: "priya@example.com", Role: RoleSalesAgent, IsActive: true, CreatedAt: time.Now()},
		{ID: uuid.New(), Name: "Ravi", Email: "ravi@example.com", Role: RoleSalesAgent, IsActive: true, CreatedAt: time.Now()},
	}}
	router := newTestRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/agents", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var got []Agent
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(got))
	}
	if got[0].Name != "Priya" {
		t.Fatalf("expected roster order preserved, got %q first", got[0].Name)
	}
}

func TestListAgentsEmptyRosterIsEmptyArray(t *testing.T) {
	router := newTestRouter(&fakeAgentStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/agents", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != "[]" {
		t.Fatalf("expected empty array body, got %s", body)
	}
}

func TestGetAgentByID(t *testing.T) {
	agent := Agent{ID: uuid.New(), Name: "Priya", Email: "priya@example.com", Role: RoleSalesAgent, IsActive: true, CreatedAt: time.Now()}
	router := newTestRouter(&fakeAgentStore{agents: []Agent{agent}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/agents/"+agent.ID.String(), nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var got Agent
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != agent.ID || got.Name != "Priya" {
		t.Fatalf("unexpected agent: %+v", got)
	}
}

func TestGetAgentNotFound(t *testing.T) {
	router := newTestRouter(&fakeAgentStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/agents/"+uuid.NewString(), nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetAgentInvalidID(t *testing.T) {
	router := newTestRouter(&fakeAgentStore{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/agents/not-a-uuid", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

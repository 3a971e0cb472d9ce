package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/codedocgen/backend/config"
	"github.com/codedocgen/backend/internal/handler"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	return Setup(
		cfg,
		handler.NewRepositoryHandler(nil),
		handler.NewAnalysisHandler(nil),
		handler.NewDocsHandler(nil),
		handler.NewDiagramHandler(nil),
	)
}

func TestWelcomeRoute(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d, body: %s", w.Code, w.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if body["message"] != "Welcome to CodeDocGen API" {
		t.Fatalf("unexpected message: %q", body["message"])
	}
}

func TestHealthRoute(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/.health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d, body: %s", w.Code, w.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected status payload: %q", body["status"])
	}
}

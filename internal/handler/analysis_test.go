package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/codedocgen/backend/internal/model"
)

func TestAnalyzeRepositoryNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/repo/analyze/missing", "")
	mustStatus(t, w, http.StatusNotFound)

	if !strings.Contains(w.Body.String(), "Repository not found: missing") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestAnalyzeRepositoryWhileCloning(t *testing.T) {
	env := newTestEnv(t)
	env.writeFixtureRepo(t, "demo")

	repo := &model.Repository{Name: "demo", URL: "https://example.com/org/demo.git", Status: "cloning"}
	if err := env.repoRepo.Create(repo); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	w := env.request(t, http.MethodGet, "/api/repo/analyze/demo", "")
	mustStatus(t, w, http.StatusConflict)

	if !strings.Contains(w.Body.String(), "Repository is not ready for analysis: demo") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestAnalyzeRepository(t *testing.T) {
	env := newTestEnv(t)
	env.writeFixtureRepo(t, "demo")

	w := env.request(t, http.MethodGet, "/api/repo/analyze/demo", "")
	mustStatus(t, w, http.StatusOK)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if body["message"] != "Identified as Spring Boot project using Maven" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	if body["is_spring_boot"] != true {
		t.Fatalf("expected spring boot project, got %v", body)
	}
}

func TestEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.writeFixtureRepo(t, "demo")

	w := env.request(t, http.MethodGet, "/api/repo/endpoints/demo", "")
	mustStatus(t, w, http.StatusOK)

	var body struct {
		Status    string `json:"status"`
		Message   string `json:"message"`
		Endpoints []struct {
			Controller string `json:"controller"`
			Method     string `json:"method"`
			HTTPMethod string `json:"http_method"`
			Path       string `json:"path"`
		} `json:"endpoints"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if body.Status != "success" || body.Message != "Found 1 endpoints in the repository" {
		t.Fatalf("unexpected response: %+v", body)
	}
	if len(body.Endpoints) != 1 {
		t.Fatalf("expected 1 endpoint, got %d", len(body.Endpoints))
	}
	endpoint := body.Endpoints[0]
	if endpoint.Controller != "AccountController" || endpoint.HTTPMethod != "GET" || endpoint.Path != "/api/accounts/{id}" {
		t.Fatalf("unexpected endpoint: %+v", endpoint)
	}
}

func TestEndpointsWithRole(t *testing.T) {
	env := newTestEnv(t)
	env.writeFixtureRepo(t, "demo")

	w := env.request(t, http.MethodGet, "/api/repo/endpoints/demo?role=qa", "")
	mustStatus(t, w, http.StatusOK)

	if !strings.Contains(w.Body.String(), "(filtered for qa role)") {
		t.Fatalf("expected role suffix in message: %s", w.Body.String())
	}
}

func TestEntitiesEmpty(t *testing.T) {
	env := newTestEnv(t)
	env.writeFixtureRepo(t, "demo")

	w := env.request(t, http.MethodGet, "/api/repo/entities/demo", "")
	mustStatus(t, w, http.StatusOK)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if body["message"] != "Found 0 entities in the repository" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestFlows(t *testing.T) {
	env := newTestEnv(t)
	env.writeFixtureRepo(t, "demo")

	w := env.request(t, http.MethodGet, "/api/repo/flows/demo", "")
	mustStatus(t, w, http.StatusOK)

	var body struct {
		Status  string           `json:"status"`
		Message string           `json:"message"`
		Flows   []map[string]any `json:"flows"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if body.Status != "success" {
		t.Fatalf("unexpected status: %s", body.Status)
	}
	if len(body.Flows) != 1 {
		t.Fatalf("expected 1 flow, got %d", len(body.Flows))
	}
}

func TestSchemaOverviewNoEntities(t *testing.T) {
	env := newTestEnv(t)
	env.writeFixtureRepo(t, "demo")

	w := env.request(t, http.MethodGet, "/api/repo/schema-overview/demo", "")
	mustStatus(t, w, http.StatusOK)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if body["message"] != "No entities found in the repository" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

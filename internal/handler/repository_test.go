package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/codedocgen/backend/internal/model"
)

func TestSubmitRepo(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/repo/submit-repo",
		`{"repo_url": "https://github.com/spring-projects/spring-petclinic.git", "username": "dev"}`)
	mustStatus(t, w, http.StatusOK)

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if body["message"] != "Repository details received successfully" {
		t.Fatalf("unexpected message: %s", body["message"])
	}
	if body["repo_url"] != "https://github.com/spring-projects/spring-petclinic.git" {
		t.Fatalf("unexpected repo_url: %s", body["repo_url"])
	}
}

func TestSubmitRepoInvalidURL(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/repo/submit-repo", `{"repo_url": "not a git url"}`)
	mustStatus(t, w, http.StatusBadRequest)
}

func TestSubmitRepoMissingBody(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/repo/submit-repo", `{}`)
	mustStatus(t, w, http.StatusBadRequest)
}

func TestListRepositories(t *testing.T) {
	env := newTestEnv(t)

	repo := &model.Repository{Name: "demo", URL: "https://example.com/org/demo.git", Status: "ready"}
	if err := env.repoRepo.Create(repo); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	w := env.request(t, http.MethodGet, "/api/repositories", "")
	mustStatus(t, w, http.StatusOK)

	var repos []model.Repository
	if err := json.Unmarshal(w.Body.Bytes(), &repos); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if len(repos) != 1 || repos[0].Name != "demo" {
		t.Fatalf("unexpected repositories: %+v", repos)
	}
}

func TestGetRepositoryNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/repositories/42", "")
	mustStatus(t, w, http.StatusNotFound)
}

func TestDeleteRepository(t *testing.T) {
	env := newTestEnv(t)

	repo := &model.Repository{Name: "demo", URL: "https://example.com/org/demo.git", Status: "ready"}
	if err := env.repoRepo.Create(repo); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	w := env.request(t, http.MethodDelete, fmt.Sprintf("/api/repositories/%d", repo.ID), "")
	mustStatus(t, w, http.StatusOK)

	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/repositories/%d", repo.ID), "")
	mustStatus(t, w, http.StatusNotFound)
}

func TestDeleteRepositoryWhileCloning(t *testing.T) {
	env := newTestEnv(t)

	repo := &model.Repository{Name: "demo", URL: "https://example.com/org/demo.git", Status: "cloning"}
	if err := env.repoRepo.Create(repo); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	w := env.request(t, http.MethodDelete, fmt.Sprintf("/api/repositories/%d", repo.ID), "")
	mustStatus(t, w, http.StatusConflict)
}

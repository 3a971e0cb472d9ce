package handler

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/codedocgen/backend/config"
	"github.com/codedocgen/backend/internal/docgen/diagram"
	"github.com/codedocgen/backend/internal/eventbus"
	"github.com/codedocgen/backend/internal/model"
	"github.com/codedocgen/backend/internal/repository"
	"github.com/codedocgen/backend/internal/service"
)

const testPom = `<?xml version="1.0" encoding="UTF-8"?>
<project>
    <modelVersion>4.0.0</modelVersion>
    <parent>
        <groupId>org.springframework.boot</groupId>
        <artifactId>spring-boot-starter-parent</artifactId>
        <version>3.2.1</version>
    </parent>
    <groupId>com.example</groupId>
    <artifactId>demo</artifactId>
</project>
`

const testController = `package com.example.demo;

import org.springframework.web.bind.annotation.*;

@RestController
@RequestMapping("/api/accounts")
public class AccountController {

    @GetMapping("/{id}")
    public Account getAccount(@PathVariable Long id) {
        return accountService.findAccount(id);
    }
}
`

type testEnv struct {
	router   *gin.Engine
	repoRepo repository.RepoRepository
	cfg      *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dataDir := t.TempDir()
	cfg := &config.Config{
		Data: config.DataConfig{
			Dir:     dataDir,
			RepoDir: filepath.Join(dataDir, "repos"),
		},
		Analyzer: config.AnalyzerConfig{
			Workers:       2,
			MaxProbeFiles: 20,
		},
		Diagram: config.DiagramConfig{
			ServerURL: "http://plantuml.test/png/",
		},
	}
	if err := os.MkdirAll(cfg.Data.RepoDir, 0755); err != nil {
		t.Fatalf("mkdir error: %v", err)
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db error: %v", err)
	}
	if err := db.AutoMigrate(&model.Repository{}, &model.AnalysisRecord{}, &model.ExportRecord{}); err != nil {
		t.Fatalf("migrate error: %v", err)
	}

	repoRepo := repository.NewRepoRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)

	repoService := service.NewRepositoryService(cfg, repoRepo, eventbus.NewRepositoryEventBus())
	analysisService := service.NewAnalysisService(cfg, analysisRepo, repoRepo, nil)
	docsService := service.NewDocumentationService(cfg, analysisService, diagram.NewGenerator(cfg.Diagram.ServerURL), nil)

	repoHandler := NewRepositoryHandler(repoService)
	analysisHandler := NewAnalysisHandler(analysisService)
	docsHandler := NewDocsHandler(docsService)
	diagramHandler := NewDiagramHandler(docsService)

	r := gin.New()
	repo := r.Group("/api/repo")
	{
		repo.POST("/submit-repo", repoHandler.SubmitRepo)
		repo.POST("/clone", repoHandler.Clone)
		repo.GET("/analyze/:repo_name", analysisHandler.Analyze)
		repo.GET("/endpoints/:repo_name", analysisHandler.Endpoints)
		repo.GET("/entities/:repo_name", analysisHandler.Entities)
		repo.GET("/flows/:repo_name", analysisHandler.Flows)
		repo.GET("/schema-overview/:repo_name", analysisHandler.SchemaOverview)
		repo.GET("/swagger/:repo_name", docsHandler.Swagger)
		repo.GET("/export/markdown/:repo_name", docsHandler.ExportMarkdown)
		repo.GET("/features/:repo_name", docsHandler.Features)
		repo.GET("/features/download/:repo_name", docsHandler.FeaturesDownload)
		repo.POST("/publish/confluence", docsHandler.PublishConfluence)
		repo.GET("/diagrams/entities/:repo_name", diagramHandler.Entities)
		repo.GET("/diagrams/class/:repo_name", diagramHandler.Class)
	}
	repos := r.Group("/api/repositories")
	{
		repos.GET("", repoHandler.List)
		repos.GET("/:id", repoHandler.Get)
		repos.DELETE("/:id", repoHandler.Delete)
	}

	return &testEnv{router: r, repoRepo: repoRepo, cfg: cfg}
}

func (e *testEnv) writeFixtureRepo(t *testing.T, name string) string {
	t.Helper()

	repoPath := filepath.Join(e.cfg.Data.RepoDir, name)
	javaDir := filepath.Join(repoPath, "src", "main", "java", "com", "example", "demo")
	if err := os.MkdirAll(javaDir, 0755); err != nil {
		t.Fatalf("mkdir error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(repoPath, "pom.xml"), []byte(testPom), 0644); err != nil {
		t.Fatalf("write pom error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(javaDir, "AccountController.java"), []byte(testController), 0644); err != nil {
		t.Fatalf("write controller error: %v", err)
	}
	return repoPath
}

func (e *testEnv) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("unexpected status %d, want %d, body: %s", w.Code, want, w.Body.String())
	}
}

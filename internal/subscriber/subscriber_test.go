package subscriber

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/codedocgen/backend/internal/eventbus"
	"github.com/codedocgen/backend/internal/model"
	"github.com/codedocgen/backend/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db error: %v", err)
	}
	if err := db.AutoMigrate(&model.Repository{}, &model.AnalysisRecord{}, &model.ExportRecord{}); err != nil {
		t.Fatalf("migrate error: %v", err)
	}
	return db
}

func TestRepositoryDeletedPurgesRecords(t *testing.T) {
	db := newTestDB(t)
	analysisRepo := repository.NewAnalysisRepository(db)
	exportRepo := repository.NewExportRepository(db)

	if err := analysisRepo.Upsert(&model.AnalysisRecord{RepoName: "demo", Kind: model.AnalysisKindProject, Payload: "{}"}); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if err := exportRepo.Create(&model.ExportRecord{RepoName: "demo", Format: "markdown"}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	bus := eventbus.NewRepositoryEventBus()
	NewRepositoryEventSubscriber(analysisRepo, exportRepo).Register(bus)

	event := eventbus.RepositoryEvent{Type: eventbus.RepositoryEventDeleted, RepositoryID: 1, RepoName: "demo"}
	if err := bus.Publish(context.Background(), eventbus.RepositoryEventDeleted, event); err != nil {
		t.Fatalf("Publish error: %v", err)
	}

	if _, err := analysisRepo.Get("demo", model.AnalysisKindProject); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected analysis records purged, got %v", err)
	}
	exports, err := exportRepo.ListByRepoName("demo")
	if err != nil {
		t.Fatalf("ListByRepoName error: %v", err)
	}
	if len(exports) != 0 {
		t.Fatalf("expected export records purged, got %d", len(exports))
	}
}

func TestRepositoryClonedInvalidatesCache(t *testing.T) {
	db := newTestDB(t)
	analysisRepo := repository.NewAnalysisRepository(db)

	if err := analysisRepo.Upsert(&model.AnalysisRecord{RepoName: "demo", Kind: model.AnalysisKindEndpoints, Payload: "{}"}); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}

	bus := eventbus.NewRepositoryEventBus()
	NewRepositoryEventSubscriber(analysisRepo, repository.NewExportRepository(db)).Register(bus)

	event := eventbus.RepositoryEvent{Type: eventbus.RepositoryEventCloned, RepositoryID: 1, RepoName: "demo", LocalPath: "/tmp/demo"}
	if err := bus.Publish(context.Background(), eventbus.RepositoryEventCloned, event); err != nil {
		t.Fatalf("Publish error: %v", err)
	}

	if _, err := analysisRepo.Get("demo", model.AnalysisKindEndpoints); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected cache invalidated, got %v", err)
	}
}

func TestExportEventWritesRecord(t *testing.T) {
	db := newTestDB(t)
	repoRepo := repository.NewRepoRepository(db)
	exportRepo := repository.NewExportRepository(db)

	repo := &model.Repository{Name: "demo", URL: "https://example.com/org/demo.git", Status: "ready"}
	if err := repoRepo.Create(repo); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	bus := eventbus.NewExportEventBus()
	NewExportEventSubscriber(exportRepo, repoRepo).Register(bus)

	event := eventbus.ExportEvent{
		Type:     eventbus.ExportEventCreated,
		RepoName: "demo",
		Format:   "features_zip",
		Filename: "demo_features_20260101_120000.zip",
	}
	if err := bus.Publish(context.Background(), eventbus.ExportEventCreated, event); err != nil {
		t.Fatalf("Publish error: %v", err)
	}

	records, err := exportRepo.ListByRepoName("demo")
	if err != nil {
		t.Fatalf("ListByRepoName error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 export record, got %d", len(records))
	}
	if records[0].RepositoryID != repo.ID {
		t.Fatalf("expected repository id resolved, got %d", records[0].RepositoryID)
	}
}

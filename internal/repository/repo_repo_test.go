package repository

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/codedocgen/backend/internal/model"
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

func TestRepoRepositoryCRUD(t *testing.T) {
	repo := NewRepoRepository(newTestDB(t))

	record := &model.Repository{
		Name:   "spring-petclinic",
		URL:    "https://github.com/spring-projects/spring-petclinic.git",
		Status: "pending",
	}
	if err := repo.Create(record); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if record.ID == 0 {
		t.Fatalf("expected id to be assigned")
	}

	got, err := repo.Get(record.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Name != "spring-petclinic" {
		t.Fatalf("unexpected name: %s", got.Name)
	}

	got.Status = "ready"
	if err := repo.Save(got); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	byName, err := repo.GetByName("spring-petclinic")
	if err != nil {
		t.Fatalf("GetByName error: %v", err)
	}
	if byName.Status != "ready" {
		t.Fatalf("unexpected status: %s", byName.Status)
	}

	repos, err := repo.List()
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(repos) != 1 {
		t.Fatalf("expected 1 repository, got %d", len(repos))
	}

	if err := repo.Delete(record.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := repo.Get(record.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepoRepositoryGetByNameMissing(t *testing.T) {
	repo := NewRepoRepository(newTestDB(t))

	if _, err := repo.GetByName("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

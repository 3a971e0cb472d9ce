package repository

import (
	"errors"

	"github.com/codedocgen/backend/internal/model"
)

// ErrNotFound 记录不存在错误
var ErrNotFound = errors.New("record not found")

type RepoRepository interface {
	Create(repo *model.Repository) error
	List() ([]model.Repository, error)
	Get(id uint) (*model.Repository, error)
	GetByName(name string) (*model.Repository, error)
	Save(repo *model.Repository) error
	Delete(id uint) error
}

type AnalysisRepository interface {
	Upsert(record *model.AnalysisRecord) error
	Get(repoName, kind string) (*model.AnalysisRecord, error)
	DeleteByRepoName(repoName string) error
}

type ExportRepository interface {
	Create(record *model.ExportRecord) error
	ListByRepoName(repoName string) ([]model.ExportRecord, error)
	DeleteByRepoName(repoName string) error
}

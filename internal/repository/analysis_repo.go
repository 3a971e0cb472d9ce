package repository

import (
	"errors"

	"github.com/codedocgen/backend/internal/model"
	"gorm.io/gorm"
)

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Upsert(record *model.AnalysisRecord) error {
	var existing model.AnalysisRecord
	err := r.db.Where("repo_name = ? AND kind = ?", record.RepoName, record.Kind).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.Create(record).Error
		}
		return err
	}
	existing.RepositoryID = record.RepositoryID
	existing.Payload = record.Payload
	existing.SourceMtime = record.SourceMtime
	if err := r.db.Save(&existing).Error; err != nil {
		return err
	}
	record.ID = existing.ID
	return nil
}

func (r *analysisRepository) Get(repoName, kind string) (*model.AnalysisRecord, error) {
	var record model.AnalysisRecord
	err := r.db.Where("repo_name = ? AND kind = ?", repoName, kind).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *analysisRepository) DeleteByRepoName(repoName string) error {
	return r.db.Where("repo_name = ?", repoName).Delete(&model.AnalysisRecord{}).Error
}

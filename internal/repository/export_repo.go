package repository

import (
	"github.com/codedocgen/backend/internal/model"
	"gorm.io/gorm"
)

type exportRepository struct {
	db *gorm.DB
}

func NewExportRepository(db *gorm.DB) ExportRepository {
	return &exportRepository{db: db}
}

func (r *exportRepository) Create(record *model.ExportRecord) error {
	return r.db.Create(record).Error
}

func (r *exportRepository) ListByRepoName(repoName string) ([]model.ExportRecord, error) {
	var records []model.ExportRecord
	err := r.db.Where("repo_name = ?", repoName).Order("created_at desc").Find(&records).Error
	return records, err
}

func (r *exportRepository) DeleteByRepoName(repoName string) error {
	return r.db.Where("repo_name = ?", repoName).Delete(&model.ExportRecord{}).Error
}

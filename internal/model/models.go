package model

import (
	"time"
)

type Repository struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	URL       string    `json:"url" gorm:"size:500;not null"`
	LocalPath string    `json:"local_path" gorm:"size:500"`
	Status    string    `json:"status" gorm:"size:50;default:pending"` // pending, cloning, ready, error
	ErrorMsg  string    `json:"error_msg" gorm:"size:1000"`
	SizeMB    float64   `json:"size_mb" gorm:"default:0"`
	Branch    string    `json:"branch" gorm:"size:255"`
	Commit    string    `json:"commit" gorm:"size:64"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Analyses []AnalysisRecord `json:"analyses,omitempty" gorm:"foreignKey:RepositoryID"`
	Exports  []ExportRecord   `json:"exports,omitempty" gorm:"foreignKey:RepositoryID"`
}

// AnalysisRecord 按仓库和分析类型缓存分析结果，SourceMtime 变化后失效
type AnalysisRecord struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RepositoryID uint      `json:"repository_id" gorm:"index"`
	RepoName     string    `json:"repo_name" gorm:"size:255;index;not null"`
	Kind         string    `json:"kind" gorm:"size:50;not null"` // project, endpoints, entities, flows, schema
	Payload      string    `json:"payload" gorm:"type:text"`
	SourceMtime  int64     `json:"source_mtime" gorm:"default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ExportRecord struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RepositoryID uint      `json:"repository_id" gorm:"index"`
	RepoName     string    `json:"repo_name" gorm:"size:255;index;not null"`
	Format       string    `json:"format" gorm:"size:50;not null"` // markdown, features_zip, confluence
	Filename     string    `json:"filename" gorm:"size:255"`
	Target       string    `json:"target" gorm:"size:500"` // Confluence 页面地址等外部目标
	CreatedAt    time.Time `json:"created_at"`
}

// Analysis kinds persisted in AnalysisRecord.Kind
const (
	AnalysisKindProject   = "project"
	AnalysisKindEndpoints = "endpoints"
	AnalysisKindEntities  = "entities"
	AnalysisKindFlows     = "flows"
	AnalysisKindSchema    = "schema"
)

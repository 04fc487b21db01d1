package repository

import (
	"github.com/baysideportal/media-gateway/config"
	"github.com/baysideportal/media-gateway/infra"
	"gorm.io/gorm"
)

type Repository struct {
	MigrationRepo *MigrationRecordRepository
	ContentRepo   *ContentReferenceRepository
}

var repository *Repository

func InitRepository(cfg *config.Config, infra *infra.Infra) *Repository {
	repository = &Repository{
		MigrationRepo: NewMigrationRecordRepository(infra.Postgres.DB),
		ContentRepo:   NewContentReferenceRepository(infra.Postgres.DB, cfg.EnvConfig.ContentTablePairs()),
	}
	return repository
}

func GetRepository() *Repository {
	if repository == nil {
		panic("repository not initialized")
	}
	return repository
}

func (r *Repository) BeginTransaction(db *gorm.DB) *gorm.DB {
	return db.Begin()
}

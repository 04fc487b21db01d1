package repository

import (
	"time"

	"github.com/baysideportal/media-gateway/entity"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MigrationRecordRepository struct {
	db *gorm.DB
}

func NewMigrationRecordRepository(db *gorm.DB) *MigrationRecordRepository {
	return &MigrationRecordRepository{db: db}
}

// CreateIfAbsent inserts a record unless one already exists for the same
// source location. The unique index on source_location is the
// synchronization point that keeps concurrent scans from racing on one file.
func (r *MigrationRecordRepository) CreateIfAbsent(record *entity.MigrationRecord) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_location"}},
		DoNothing: true,
	}).Create(record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *MigrationRecordRepository) FindBySourceLocation(sourceLocation string) (*entity.MigrationRecord, error) {
	var record entity.MigrationRecord
	err := r.db.Where("source_location = ?", sourceLocation).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *MigrationRecordRepository) FindByID(id uuid.UUID) (*entity.MigrationRecord, error) {
	var record entity.MigrationRecord
	err := r.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindUnverifiedMigrated returns migrated records whose follow-up existence
// check has not succeeded yet.
func (r *MigrationRecordRepository) FindUnverifiedMigrated(bucket string, limit int) ([]entity.MigrationRecord, error) {
	q := r.db.Where("migration_status = ? AND verification_status = ?", entity.MigrationStatusMigrated, false)
	if bucket != "" {
		q = q.Where("media_bucket = ?", bucket)
	}
	var records []entity.MigrationRecord
	err := q.Order("created_at ASC").Limit(limit).Find(&records).Error
	return records, err
}

func (r *MigrationRecordRepository) MarkMigrated(id uuid.UUID, storageKey string) error {
	return r.db.Model(&entity.MigrationRecord{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"migration_status": entity.MigrationStatusMigrated,
			"storage_key":      storageKey,
			"error_message":    nil,
			"updated_at":       time.Now(),
		}).Error
}

// MarkVerified is guarded so a verified record can never regress, no matter
// how many times a run is repeated.
func (r *MigrationRecordRepository) MarkVerified(id uuid.UUID) error {
	return r.db.Model(&entity.MigrationRecord{}).
		Where("id = ? AND migration_status = ?", id, entity.MigrationStatusMigrated).
		Updates(map[string]interface{}{
			"verification_status": true,
			"updated_at":          time.Now(),
		}).Error
}

func (r *MigrationRecordRepository) MarkFailed(id uuid.UUID, message string) error {
	return r.db.Model(&entity.MigrationRecord{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"migration_status": entity.MigrationStatusFailed,
			"error_message":    message,
			"attempts":         gorm.Expr("attempts + 1"),
			"updated_at":       time.Now(),
		}).Error
}

func (r *MigrationRecordRepository) SetRewrittenRows(id uuid.UUID, rows datatypes.JSON) error {
	return r.db.Model(&entity.MigrationRecord{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"rewritten_rows": rows,
			"updated_at":     time.Now(),
		}).Error
}

// CountsByStatus returns record counts grouped by migration status, plus the
// verified count.
func (r *MigrationRecordRepository) CountsByStatus() (map[string]int64, error) {
	type row struct {
		MigrationStatus string
		Count           int64
	}
	var rows []row
	err := r.db.Model(&entity.MigrationRecord{}).
		Select("migration_status, count(*) as count").
		Group("migration_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows)+1)
	for _, rw := range rows {
		counts[rw.MigrationStatus] = rw.Count
	}

	var verified int64
	err = r.db.Model(&entity.MigrationRecord{}).
		Where("verification_status = ?", true).
		Count(&verified).Error
	if err != nil {
		return nil, err
	}
	counts["verified"] = verified

	return counts, nil
}

// List returns records filtered by status and/or bucket, newest first.
func (r *MigrationRecordRepository) List(status, bucket string, limit, offset int) ([]entity.MigrationRecord, error) {
	q := r.db.Model(&entity.MigrationRecord{})
	if status != "" {
		q = q.Where("migration_status = ?", status)
	}
	if bucket != "" {
		q = q.Where("media_bucket = ?", bucket)
	}
	var records []entity.MigrationRecord
	err := q.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&records).Error
	return records, err
}

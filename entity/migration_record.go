package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MigrationStatus string

const (
	MigrationStatusPending  MigrationStatus = "pending"
	MigrationStatusMigrated MigrationStatus = "migrated"
	MigrationStatusFailed   MigrationStatus = "failed"
)

// MigrationRecord is the audit trail of one filesystem asset's move into
// object storage. One row per source location; rows are never deleted.
// Verification is tracked separately from the migrated status so that
// eventual-consistency delays in the storage backend cannot falsely mark
// data lost.
type MigrationRecord struct {
	ID                 uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	SourceLocation     string          `json:"source_location" gorm:"type:varchar(1024);not null;uniqueIndex"`
	MediaBucket        string          `json:"media_bucket" gorm:"type:varchar(64);not null;index"`
	MediaType          string          `json:"media_type" gorm:"type:varchar(255)"`
	StorageKey         string          `json:"storage_key" gorm:"type:varchar(1024)"`
	MigrationStatus    MigrationStatus `json:"migration_status" gorm:"type:varchar(32);not null;index"`
	VerificationStatus bool            `json:"verification_status" gorm:"not null;default:false"`
	ErrorMessage       *string         `json:"error_message,omitempty" gorm:"type:text"`
	Attempts           int             `json:"attempts" gorm:"not null;default:0"`
	RewrittenRows      datatypes.JSON  `json:"rewritten_rows,omitempty"`
	CreatedAt          time.Time       `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt          time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func CanTransitionMigration(from, to MigrationStatus) bool {
	switch from {
	case MigrationStatusPending:
		return to == MigrationStatusMigrated || to == MigrationStatusFailed
	case MigrationStatusFailed:
		// Failed records are retried on the next run.
		return to == MigrationStatusMigrated || to == MigrationStatusFailed
	case MigrationStatusMigrated:
		return to == MigrationStatusFailed
	default:
		return false
	}
}

func ValidateMigrationTransition(from, to MigrationStatus) error {
	if from == to {
		return nil
	}
	if !CanTransitionMigration(from, to) {
		return fmt.Errorf("invalid migration transition: %s -> %s", from, to)
	}
	return nil
}

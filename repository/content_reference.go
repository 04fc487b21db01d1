package repository

import (
	"fmt"
	"regexp"

	"gorm.io/gorm"
)

// ContentTable names one portal column that holds zero or more path-like
// media references. The gateway knows nothing else about the portal schema.
type ContentTable struct {
	Table  string
	Column string
}

// ContentRow is one matched row; the id is cast to text so integer and uuid
// primary keys are handled uniformly.
type ContentRow struct {
	ID    string
	Value string
}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ContentReferenceRepository enumerates and rewrites media references inside
// the portal's own content tables.
type ContentReferenceRepository struct {
	db     *gorm.DB
	tables []ContentTable
}

func NewContentReferenceRepository(db *gorm.DB, pairs [][2]string) *ContentReferenceRepository {
	repo := &ContentReferenceRepository{db: db}
	for _, p := range pairs {
		// Identifiers are interpolated into SQL, so anything that is not a
		// plain identifier is rejected here.
		if !identifierPattern.MatchString(p[0]) || !identifierPattern.MatchString(p[1]) {
			continue
		}
		repo.tables = append(repo.tables, ContentTable{Table: p[0], Column: p[1]})
	}
	return repo
}

func (r *ContentReferenceRepository) Tables() []ContentTable {
	return r.tables
}

// FindReferencingRows returns every row whose column contains needle.
func (r *ContentReferenceRepository) FindReferencingRows(table ContentTable, needle string) ([]ContentRow, error) {
	query := fmt.Sprintf(
		`SELECT id::text AS id, %s AS value FROM %s WHERE %s LIKE ?`,
		table.Column, table.Table, table.Column,
	)

	var rows []ContentRow
	err := r.db.Raw(query, "%"+needle+"%").Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s.%s: %w", table.Table, table.Column, err)
	}
	return rows, nil
}

// RewriteReference replaces oldRef with newRef inside one row's column. The
// LIKE precondition makes the update optimistic: if the row changed since it
// was read and no longer contains oldRef, zero rows are affected and the
// caller skips it until the next run instead of clobbering a newer value.
func (r *ContentReferenceRepository) RewriteReference(table ContentTable, rowID, oldRef, newRef string) (bool, error) {
	query := fmt.Sprintf(
		`UPDATE %s SET %s = REPLACE(%s, ?, ?) WHERE id::text = ? AND %s LIKE ?`,
		table.Table, table.Column, table.Column, table.Column,
	)

	result := r.db.Exec(query, oldRef, newRef, rowID, "%"+oldRef+"%")
	if result.Error != nil {
		return false, fmt.Errorf("failed to rewrite %s.%s row %s: %w", table.Table, table.Column, rowID, result.Error)
	}
	return result.RowsAffected > 0, nil
}

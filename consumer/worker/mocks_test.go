package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/baysideportal/media-gateway/entity"
	"github.com/baysideportal/media-gateway/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type memObjectStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failPut  bool
	putCalls int
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: make(map[string][]byte)}
}

func (s *memObjectStore) ObjectExists(_ context.Context, bucketName, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[bucketName+"/"+key]
	return ok, nil
}

func (s *memObjectStore) PutObject(_ context.Context, bucketName, key string, reader io.Reader, _ int64, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putCalls++
	if s.failPut {
		return "", errors.New("storage unavailable")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.objects[bucketName+"/"+key] = data
	return "http://storage/" + bucketName + "/" + key, nil
}

type memFileSource struct {
	files map[string][]byte
}

func (s *memFileSource) ListFiles(dir string) ([]string, error) {
	var out []string
	for path := range s.files {
		if strings.HasPrefix(path, dir+"/") {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *memFileSource) Open(path string) (io.ReadCloser, int64, error) {
	data, ok := s.files[path]
	if !ok {
		return nil, 0, errors.New("file not found: " + path)
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

type memMigrationStore struct {
	mu       sync.Mutex
	bySource map[string]*entity.MigrationRecord
}

func newMemMigrationStore() *memMigrationStore {
	return &memMigrationStore{bySource: make(map[string]*entity.MigrationRecord)}
}

func (s *memMigrationStore) CreateIfAbsent(record *entity.MigrationRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bySource[record.SourceLocation]; exists {
		return false, nil
	}
	cp := *record
	s.bySource[record.SourceLocation] = &cp
	return true, nil
}

func (s *memMigrationStore) FindBySourceLocation(sourceLocation string) (*entity.MigrationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.bySource[sourceLocation]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *record
	return &cp, nil
}

func (s *memMigrationStore) FindUnverifiedMigrated(bucket string, _ int) ([]entity.MigrationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.MigrationRecord
	for _, record := range s.bySource {
		if record.MigrationStatus != entity.MigrationStatusMigrated || record.VerificationStatus {
			continue
		}
		if bucket != "" && record.MediaBucket != bucket {
			continue
		}
		out = append(out, *record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceLocation < out[j].SourceLocation })
	return out, nil
}

func (s *memMigrationStore) findByID(id uuid.UUID) *entity.MigrationRecord {
	for _, record := range s.bySource {
		if record.ID == id {
			return record
		}
	}
	return nil
}

func (s *memMigrationStore) MarkMigrated(id uuid.UUID, storageKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.findByID(id)
	if record == nil {
		return gorm.ErrRecordNotFound
	}
	record.MigrationStatus = entity.MigrationStatusMigrated
	record.StorageKey = storageKey
	record.ErrorMessage = nil
	return nil
}

func (s *memMigrationStore) MarkVerified(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.findByID(id)
	if record == nil {
		return gorm.ErrRecordNotFound
	}
	if record.MigrationStatus != entity.MigrationStatusMigrated {
		return nil
	}
	record.VerificationStatus = true
	return nil
}

func (s *memMigrationStore) MarkFailed(id uuid.UUID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.findByID(id)
	if record == nil {
		return gorm.ErrRecordNotFound
	}
	record.MigrationStatus = entity.MigrationStatusFailed
	record.ErrorMessage = &message
	record.Attempts++
	return nil
}

func (s *memMigrationStore) SetRewrittenRows(id uuid.UUID, rows datatypes.JSON) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.findByID(id)
	if record == nil {
		return gorm.ErrRecordNotFound
	}
	record.RewrittenRows = rows
	return nil
}

func (s *memMigrationStore) get(sourceLocation string) *entity.MigrationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bySource[sourceLocation]
}

func (s *memMigrationStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bySource)
}

type memContentStore struct {
	mu     sync.Mutex
	tables []repository.ContentTable
	rows   map[string]map[string]string

	// afterFind runs once after the next scan returns its snapshot, to
	// emulate a row changing between the read and the rewrite.
	afterFind func()
}

func newMemContentStore(tables ...repository.ContentTable) *memContentStore {
	return &memContentStore{tables: tables, rows: make(map[string]map[string]string)}
}

func (s *memContentStore) setRow(table, id, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows[table] == nil {
		s.rows[table] = make(map[string]string)
	}
	s.rows[table][id] = value
}

func (s *memContentStore) row(table, id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[table][id]
}

func (s *memContentStore) Tables() []repository.ContentTable {
	return s.tables
}

func (s *memContentStore) FindReferencingRows(table repository.ContentTable, needle string) ([]repository.ContentRow, error) {
	s.mu.Lock()
	var out []repository.ContentRow
	for id, value := range s.rows[table.Table] {
		if strings.Contains(value, needle) {
			out = append(out, repository.ContentRow{ID: id, Value: value})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	hook := s.afterFind
	s.afterFind = nil
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, nil
}

func (s *memContentStore) RewriteReference(table repository.ContentTable, rowID, oldRef, newRef string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.rows[table.Table][rowID]
	if !ok || !strings.Contains(value, oldRef) {
		return false, nil
	}
	s.rows[table.Table][rowID] = strings.ReplaceAll(value, oldRef, newRef)
	return true, nil
}

type memCheckpointer struct {
	mu      sync.Mutex
	entries map[string]interface{}
}

func newMemCheckpointer() *memCheckpointer {
	return &memCheckpointer{entries: make(map[string]interface{})}
}

func (c *memCheckpointer) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if summary, ok := value.(*RunSummary); ok {
		cp := *summary
		c.entries[key] = cp
		return nil
	}
	c.entries[key] = value
	return nil
}

func (c *memCheckpointer) get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

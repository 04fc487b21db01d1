package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/baysideportal/media-gateway/entity"
	"github.com/baysideportal/media-gateway/infra"
	"github.com/baysideportal/media-gateway/infra/produce"
	"github.com/baysideportal/media-gateway/mediapath"
	"github.com/baysideportal/media-gateway/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ObjectStore is the slice of the MinIO client the rewriter needs.
type ObjectStore interface {
	ObjectExists(ctx context.Context, bucketName, key string) (bool, error)
	PutObject(ctx context.Context, bucketName, key string, reader io.Reader, size int64, contentType string) (string, error)
}

// FileSource reads the legacy filesystem trees.
type FileSource interface {
	ListFiles(dir string) ([]string, error)
	Open(path string) (io.ReadCloser, int64, error)
}

// MigrationStore persists per-file migration state.
type MigrationStore interface {
	CreateIfAbsent(record *entity.MigrationRecord) (bool, error)
	FindBySourceLocation(sourceLocation string) (*entity.MigrationRecord, error)
	FindUnverifiedMigrated(bucket string, limit int) ([]entity.MigrationRecord, error)
	MarkMigrated(id uuid.UUID, storageKey string) error
	MarkVerified(id uuid.UUID) error
	MarkFailed(id uuid.UUID, message string) error
	SetRewrittenRows(id uuid.UUID, rows datatypes.JSON) error
}

// ContentStore enumerates and rewrites media references in portal rows.
type ContentStore interface {
	Tables() []repository.ContentTable
	FindReferencingRows(table repository.ContentTable, needle string) ([]repository.ContentRow, error)
	RewriteReference(table repository.ContentTable, rowID, oldRef, newRef string) (bool, error)
}

// Checkpointer stores run progress between batches.
type Checkpointer interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// RunSummary is the outcome of one rewrite run. It is checkpointed after
// every batch so a crash loses at most one batch of counts.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	Scope      string    `json:"scope"`
	VerifyOnly bool      `json:"verify_only"`
	Scanned    int       `json:"scanned"`
	Migrated   int       `json:"migrated"`
	Verified   int       `json:"verified"`
	Rewritten  int       `json:"rewritten"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

const checkpointTTL = 7 * 24 * time.Hour

// Rewriter converges stored media references to the canonical
// proxy-qualified form: it migrates legacy filesystem assets into object
// storage, verifies them, and rewrites the rows that point at them. It never
// deletes a source file; the rewrite is strictly additive and re-runnable.
type Rewriter struct {
	Resolver    *mediapath.Resolver
	Objects     ObjectStore
	Files       FileSource
	Migrations  MigrationStore
	Content     ContentStore
	Checkpoints Checkpointer
	Logger      *infra.LoggerClient
	BatchSize   int

	clock func() time.Time
	idGen func() uuid.UUID
}

func NewRewriter(
	resolver *mediapath.Resolver,
	objects ObjectStore,
	files FileSource,
	migrations MigrationStore,
	content ContentStore,
	checkpoints Checkpointer,
	logger *infra.LoggerClient,
	batchSize int,
) *Rewriter {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Rewriter{
		Resolver:    resolver,
		Objects:     objects,
		Files:       files,
		Migrations:  migrations,
		Content:     content,
		Checkpoints: checkpoints,
		Logger:      logger,
		BatchSize:   batchSize,
		clock:       time.Now,
		idGen:       uuid.New,
	}
}

type discoveredFile struct {
	path   string
	bucket mediapath.Bucket
}

// scanBuckets is the set of logical buckets a full run covers. DEFAULT is
// excluded because it shares the GENERAL directory.
func scanBuckets() []mediapath.Bucket {
	return []mediapath.Bucket{
		mediapath.BucketCalendar,
		mediapath.BucketForum,
		mediapath.BucketVendor,
		mediapath.BucketRealEstate,
		mediapath.BucketAvatars,
		mediapath.BucketBanner,
		mediapath.BucketGeneral,
	}
}

// Run executes one rewrite pass. Per-file errors are recorded on the
// migration record and never abort the run; only data-store level failures
// (discovery, record creation) do, and progress checkpointed before the
// failure survives.
func (r *Rewriter) Run(ctx context.Context, job produce.RewriteJobMessage) (RunSummary, error) {
	summary := RunSummary{
		RunID:      job.RunID,
		Scope:      job.Scope,
		VerifyOnly: job.VerifyOnly,
		StartedAt:  r.clock(),
	}

	buckets := scanBuckets()
	bucketFilter := ""
	if job.Scope != "" && job.Scope != "all" {
		b := mediapath.ParseBucket(job.Scope)
		buckets = []mediapath.Bucket{b}
		bucketFilter = string(b)
	}

	if !job.VerifyOnly {
		files, err := r.discover(buckets)
		if err != nil {
			return summary, fmt.Errorf("discovery failed: %w", err)
		}
		summary.Scanned = len(files)

		for start := 0; start < len(files); start += r.BatchSize {
			end := start + r.BatchSize
			if end > len(files) {
				end = len(files)
			}
			r.processBatch(ctx, files[start:end], &summary)
			r.checkpoint(ctx, &summary)
		}
	}

	// Verification is decoupled from upload: records migrated in an earlier
	// run whose storage backend was still settling get re-probed here.
	if err := r.verifyOutstanding(ctx, bucketFilter, &summary); err != nil {
		return summary, err
	}

	summary.FinishedAt = r.clock()
	r.checkpoint(ctx, &summary)
	if r.Checkpoints != nil {
		_ = r.Checkpoints.Set(ctx, "media:rewrite:last_run", summary, checkpointTTL)
	}

	return summary, nil
}

// discover walks both legacy trees for every bucket in scope.
func (r *Rewriter) discover(buckets []mediapath.Bucket) ([]discoveredFile, error) {
	var out []discoveredFile
	seen := make(map[string]struct{})

	for _, bucket := range buckets {
		dir := mediapath.DirectoryFor(bucket)
		roots := []string{
			join(r.Resolver.Root, "uploads", dir),
			join(r.Resolver.Root, dir),
		}
		for _, root := range roots {
			files, err := r.Files.ListFiles(root)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				if _, dup := seen[f]; dup {
					continue
				}
				seen[f] = struct{}{}
				out = append(out, discoveredFile{path: f, bucket: bucket})
			}
		}
	}
	return out, nil
}

// processBatch migrates one batch of files. The batch size doubles as the
// concurrency cap; files are independent because source_location is unique.
func (r *Rewriter) processBatch(ctx context.Context, batch []discoveredFile, summary *RunSummary) {
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, file := range batch {
		wg.Add(1)
		go func(f discoveredFile) {
			defer wg.Done()
			outcome := r.migrateFile(ctx, f)
			mu.Lock()
			summary.Migrated += outcome.migrated
			summary.Verified += outcome.verified
			summary.Rewritten += outcome.rewritten
			summary.Skipped += outcome.skipped
			summary.Failed += outcome.failed
			mu.Unlock()
		}(file)
	}
	wg.Wait()
}

type fileOutcome struct {
	migrated  int
	verified  int
	rewritten int
	skipped   int
	failed    int
}

func (r *Rewriter) migrateFile(ctx context.Context, f discoveredFile) fileOutcome {
	var out fileOutcome

	filename := basename(f.path)
	record := &entity.MigrationRecord{
		ID:              r.idGen(),
		SourceLocation:  f.path,
		MediaBucket:     string(f.bucket),
		MediaType:       mediapath.ContentTypeFor(filename),
		StorageKey:      filename,
		MigrationStatus: entity.MigrationStatusPending,
	}

	created, err := r.Migrations.CreateIfAbsent(record)
	if err != nil {
		r.Logger.ErrorWithContextf(ctx, err, "[Rewriter] Failed to create record for %s: %v", f.path, err)
		out.failed++
		return out
	}

	if !created {
		existing, err := r.Migrations.FindBySourceLocation(f.path)
		if err != nil {
			r.Logger.ErrorWithContextf(ctx, err, "[Rewriter] Failed to load record for %s: %v", f.path, err)
			out.failed++
			return out
		}

		switch {
		case existing.VerificationStatus:
			// The asset itself is done, but rows can regain legacy spellings
			// afterwards: new content pasted with an old path, or a rewrite
			// deferred by an update conflict. Re-running the rewrite keeps
			// them converging and reports zero when everything matches.
			key := existing.StorageKey
			if key == "" {
				key = filename
			}
			out.rewritten = r.rewriteRows(ctx, existing.ID, f.bucket, filename, key)
			out.skipped++
			return out
		case existing.MigrationStatus == entity.MigrationStatusMigrated:
			// Uploaded earlier but never verified; verification pass below
			// picks it up without re-uploading.
			out.skipped++
			return out
		}
		// Pending or Failed: retry with the existing record.
		record = existing
	}

	if err := entity.ValidateMigrationTransition(record.MigrationStatus, entity.MigrationStatusMigrated); err != nil {
		r.Logger.ErrorWithContextf(ctx, err, "[Rewriter] Record %s in unexpected state %s", f.path, record.MigrationStatus)
		out.skipped++
		return out
	}

	bucketName := mediapath.DirectoryFor(f.bucket)
	key := record.StorageKey
	if key == "" {
		key = filename
	}

	reader, size, err := r.Files.Open(f.path)
	if err != nil {
		r.fail(ctx, record, fmt.Errorf("open source: %w", err))
		out.failed++
		return out
	}
	_, err = r.Objects.PutObject(ctx, bucketName, key, reader, size, record.MediaType)
	_ = reader.Close()
	if err != nil {
		r.fail(ctx, record, fmt.Errorf("upload: %w", err))
		out.failed++
		return out
	}

	if err := r.Migrations.MarkMigrated(record.ID, key); err != nil {
		r.Logger.ErrorWithContextf(ctx, err, "[Rewriter] Failed to mark %s migrated: %v", f.path, err)
		out.failed++
		return out
	}
	out.migrated++

	ok, err := r.Objects.ObjectExists(ctx, bucketName, key)
	if err != nil || !ok {
		// Upload succeeded but the follow-up probe did not confirm it yet.
		// The record stays Migrated/unverified and the next run re-probes.
		r.Logger.WarningWithContextf(ctx, "[Rewriter] Verification pending for %s/%s: %v", bucketName, key, err)
		return out
	}
	if err := r.Migrations.MarkVerified(record.ID); err != nil {
		r.Logger.ErrorWithContextf(ctx, err, "[Rewriter] Failed to mark %s verified: %v", f.path, err)
		return out
	}
	out.verified++

	out.rewritten = r.rewriteRows(ctx, record.ID, f.bucket, filename, key)
	return out
}

func (r *Rewriter) fail(ctx context.Context, record *entity.MigrationRecord, cause error) {
	r.Logger.ErrorWithContextf(ctx, cause, "[Rewriter] Migration failed for %s: %v", record.SourceLocation, cause)
	if err := r.Migrations.MarkFailed(record.ID, cause.Error()); err != nil {
		r.Logger.ErrorWithContextf(ctx, err, "[Rewriter] Failed to record failure for %s: %v", record.SourceLocation, err)
	}
}

// legacyVariants lists the stored spellings that refer to the same asset,
// longest first so one variant's replacement cannot corrupt another's match.
func legacyVariants(dir, filename string) []string {
	return []string{
		"/uploads/" + dir + "/" + filename,
		"uploads/" + dir + "/" + filename,
		"/" + dir + "/" + filename,
		dir + "/" + filename,
	}
}

// rewriteRows updates every content row that references the migrated file,
// converging each stored spelling to the canonical proxy-qualified form. A
// row that already carries the canonical form matches none of the legacy
// variants, so re-running is a byte-for-byte no-op.
func (r *Rewriter) rewriteRows(ctx context.Context, recordID uuid.UUID, bucket mediapath.Bucket, filename, key string) int {
	canonical := mediapath.CanonicalProxyPath(bucket, key)
	dir := mediapath.DirectoryFor(bucket)
	variants := legacyVariants(dir, filename)

	rewritten := 0
	var touched []map[string]string

	for _, table := range r.Content.Tables() {
		rows, err := r.Content.FindReferencingRows(table, filename)
		if err != nil {
			r.Logger.ErrorWithContextf(ctx, err, "[Rewriter] Scan failed for %s.%s: %v", table.Table, table.Column, err)
			continue
		}

		for _, row := range rows {
			// Confirm through the shared classifier that this row's stored
			// spelling really points at the migrated asset.
			if !referencesAsset(row.Value, variants, bucket, filename) {
				continue
			}

			// Track the value locally as variants are replaced; the longer
			// spellings contain the shorter ones, so a stale snapshot would
			// report phantom conflicts.
			current := row.Value
			rowChanged := false
			for _, variant := range variants {
				if !strings.Contains(current, variant) {
					continue
				}
				changed, err := r.Content.RewriteReference(table, row.ID, variant, canonical)
				if err != nil {
					r.Logger.ErrorWithContextf(ctx, err, "[Rewriter] Rewrite failed for %s row %s: %v", table.Table, row.ID, err)
					continue
				}
				if !changed {
					// Row changed between read and write; leave it for the
					// next run instead of overwriting a newer value.
					r.Logger.WarningWithContextf(ctx, "[Rewriter] Rewrite conflict for %s row %s, skipping this run", table.Table, row.ID)
					continue
				}
				current = strings.ReplaceAll(current, variant, canonical)
				rowChanged = true
			}
			if rowChanged {
				rewritten++
				touched = append(touched, map[string]string{"table": table.Table, "row_id": row.ID})
			}
		}
	}

	if len(touched) > 0 {
		if data, err := json.Marshal(touched); err == nil {
			if err := r.Migrations.SetRewrittenRows(recordID, datatypes.JSON(data)); err != nil {
				r.Logger.ErrorWithContextf(ctx, err, "[Rewriter] Failed to record rewritten rows: %v", err)
			}
		}
	}

	return rewritten
}

// referencesAsset reports whether a stored column value contains a spelling
// that classifies to the migrated asset.
func referencesAsset(value string, variants []string, bucket mediapath.Bucket, filename string) bool {
	for _, variant := range variants {
		if !strings.Contains(value, variant) {
			continue
		}
		ref := mediapath.Classify(variant)
		if ref.Bucket == bucket && ref.Filename == filename {
			return true
		}
	}
	return false
}

// verifyOutstanding re-probes migrated-but-unverified records and finishes
// their row rewrites once storage confirms the object.
func (r *Rewriter) verifyOutstanding(ctx context.Context, bucketFilter string, summary *RunSummary) error {
	records, err := r.Migrations.FindUnverifiedMigrated(bucketFilter, 10000)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("verification scan failed: %w", err)
	}

	for _, record := range records {
		bucket := mediapath.ParseBucket(record.MediaBucket)
		bucketName := mediapath.DirectoryFor(bucket)

		ok, err := r.Objects.ObjectExists(ctx, bucketName, record.StorageKey)
		if err != nil {
			r.Logger.WarningWithContextf(ctx, "[Rewriter] Verification probe failed for %s/%s: %v", bucketName, record.StorageKey, err)
			continue
		}
		if !ok {
			r.Logger.WarningWithContextf(ctx, "[Rewriter] Object %s/%s still missing after migration", bucketName, record.StorageKey)
			continue
		}

		if err := r.Migrations.MarkVerified(record.ID); err != nil {
			r.Logger.ErrorWithContextf(ctx, err, "[Rewriter] Failed to mark %s verified: %v", record.SourceLocation, err)
			continue
		}
		summary.Verified++
		summary.Rewritten += r.rewriteRows(ctx, record.ID, bucket, basename(record.SourceLocation), record.StorageKey)
	}

	return nil
}

func (r *Rewriter) checkpoint(ctx context.Context, summary *RunSummary) {
	if r.Checkpoints == nil || summary.RunID == "" {
		return
	}
	key := "media:rewrite:checkpoint:" + summary.RunID
	if err := r.Checkpoints.Set(ctx, key, summary, checkpointTTL); err != nil {
		r.Logger.WarningWithContextf(ctx, "[Rewriter] Checkpoint write failed: %v", err)
	}
}

func join(parts ...string) string {
	joined := parts[0]
	for _, p := range parts[1:] {
		joined = strings.TrimRight(joined, "/") + "/" + strings.Trim(p, "/")
	}
	return joined
}

func basename(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

package controller

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/baysideportal/media-gateway/http/controller/dto"
	"github.com/baysideportal/media-gateway/infra/produce"
	"github.com/baysideportal/media-gateway/mediapath"
	"github.com/baysideportal/media-gateway/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RunMigration publishes a rewrite job for the worker process. The HTTP
// request only enqueues; the batch itself never runs on the request path.
func (ctrl *Controller) RunMigration(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RunMigrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request body: "+err.Error())
		return
	}

	scope := strings.TrimSpace(req.Scope)
	if scope == "" {
		scope = "all"
	}
	if scope != "all" {
		scope = string(mediapath.ParseBucket(scope))
	}

	runID := uuid.New().String()
	msg := produce.RewriteJobMessage{
		RunID:       runID,
		Scope:       scope,
		VerifyOnly:  req.VerifyOnly,
		RequestedBy: c.GetString("user_id"),
		Timestamp:   time.Now().Unix(),
	}

	if err := ctrl.Publisher.PublishRewriteJob(ctx, msg); err != nil {
		ctrl.Logger.ErrorWithContextf(ctx, err, "[Migration] Failed to publish rewrite job: %v", err)
		utils.JSON500(c, "Failed to enqueue migration run")
		return
	}

	ctrl.Logger.InfoWithContextf(ctx, "[Migration] Enqueued rewrite run %s (scope=%s, verify_only=%v)", runID, scope, req.VerifyOnly)
	utils.JSON202(c, dto.RunMigrationResponse{RunID: runID, Scope: scope})
}

// MigrationSummary reports record counts by status plus the last
// checkpointed run summary.
func (ctrl *Controller) MigrationSummary(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := ctrl.Repository.MigrationRepo.CountsByStatus()
	if err != nil {
		ctrl.Logger.ErrorWithContextf(ctx, err, "[Migration] Failed to count records: %v", err)
		utils.JSON500(c, "Failed to read migration records")
		return
	}

	summary := gin.H{"counts": counts}

	var lastRun map[string]interface{}
	if ctrl.Infra != nil && ctrl.Infra.Redis != nil {
		if err := ctrl.Infra.Redis.Get(ctx, "media:rewrite:last_run", &lastRun); err == nil {
			summary["last_run"] = lastRun
		}
	}

	utils.JSON200(c, summary)
}

// ListMigrations lists migration records filtered by status and bucket.
func (ctrl *Controller) ListMigrations(c *gin.Context) {
	ctx := c.Request.Context()

	status := c.Query("status")
	bucket := c.Query("bucket")
	if bucket != "" {
		bucket = string(mediapath.ParseBucket(bucket))
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	records, err := ctrl.Repository.MigrationRepo.List(status, bucket, limit, offset)
	if err != nil {
		ctrl.Logger.ErrorWithContextf(ctx, err, "[Migration] Failed to list records: %v", err)
		utils.JSON500(c, "Failed to list migration records")
		return
	}

	utils.JSON200(c, records)
}

// InspectReference classifies a stored reference and probes every candidate,
// reporting which locations actually hold the asset. This replaces the
// one-off path-debugging scripts the portal accumulated.
func (ctrl *Controller) InspectReference(c *gin.Context) {
	ctx := c.Request.Context()

	raw := c.Query("ref")
	if raw == "" {
		utils.JSON400(c, "ref query parameter is required")
		return
	}

	ref := mediapath.Classify(raw)
	resp := dto.InspectReferenceResponse{
		Reference: raw,
		Kind:      string(ref.Kind),
		Bucket:    string(ref.Bucket),
		Filename:  ref.Filename,
	}
	if ref.Resolvable() && ref.Kind != mediapath.KindExternalAbsolute {
		resp.Canonical = mediapath.CanonicalProxyPath(ref.Bucket, ref.Filename)
	}

	for _, cand := range ctrl.Resolver.Resolve(ref) {
		report := dto.CandidateReport{Location: cand.String()}

		switch cand.Kind {
		case mediapath.LocationExternal:
			report.Exists = true
		case mediapath.LocationFilesystem:
			ok, err := ctrl.Files.Exists(cand.Path)
			report.Exists = ok
			if err != nil {
				report.Error = err.Error()
			}
		case mediapath.LocationObjectStorage:
			probeCtx, cancel := context.WithTimeout(ctx, ctrl.ProbeTimeout)
			ok, err := ctrl.Objects.ObjectExists(probeCtx, mediapath.DirectoryFor(cand.Bucket), cand.Key)
			cancel()
			report.Exists = ok
			if err != nil {
				report.Error = err.Error()
			}
		}

		resp.Candidates = append(resp.Candidates, report)
	}

	utils.JSON200(c, resp)
}

// ResolveReference serves the asset behind an arbitrary stored reference
// through the same probing loop as the proxy routes. Unlike those routes it
// accepts any reference shape, external URLs included, so operators can see
// exactly what a portal row's value renders as.
func (ctrl *Controller) ResolveReference(c *gin.Context) {
	raw := c.Query("ref")
	if raw == "" {
		utils.JSON400(c, "ref query parameter is required")
		return
	}
	ctrl.serveReference(c, raw)
}

// StorageHealth checks object-storage reachability through the admin API.
func (ctrl *Controller) StorageHealth(c *gin.Context) {
	ctx := c.Request.Context()

	info, err := ctrl.Infra.Minio.ServerInfo(ctx)
	if err != nil {
		ctrl.Logger.ErrorWithContextf(ctx, err, "[Storage] MinIO health check failed: %v", err)
		utils.JSON500(c, "Object storage unreachable")
		return
	}

	utils.JSON200(c, gin.H{
		"mode":    info.Mode,
		"servers": len(info.Servers),
	})
}

// HealthCheck is the liveness endpoint.
func (ctrl *Controller) HealthCheck(c *gin.Context) {
	utils.JSON200(c, gin.H{"status": "ok"})
}

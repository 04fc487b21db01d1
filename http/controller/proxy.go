package controller

import (
	"context"
	"net/http"

	"github.com/baysideportal/media-gateway/mediapath"
	"github.com/gin-gonic/gin"
)

// ServeProxy handles the canonical form: GET /api/storage-proxy/:bucket/*key.
func (ctrl *Controller) ServeProxy(c *gin.Context) {
	raw := mediapath.ProxyPrefix + c.Param("bucket") + c.Param("key")
	ctrl.serveReference(c, raw)
}

// ServeLegacy handles the historical pass-through shapes
// (/uploads/<dir>/<file> and /<dir>/<file>) through the same classifier, so
// old stored references keep resolving without any data migration.
func (ctrl *Controller) ServeLegacy(c *gin.Context) {
	ctrl.serveReference(c, c.Request.URL.Path)
}

// serveReference probes candidates strictly in priority order and streams
// the first hit. Every failure mode short of a hit converges on the
// placeholder with HTTP 200: missing media is an operator problem surfaced
// through logs, never a broken image for the end user.
func (ctrl *Controller) serveReference(c *gin.Context, raw string) {
	ctx := c.Request.Context()

	ref := mediapath.Classify(raw)
	if !ref.Resolvable() {
		ctrl.Logger.WarningWithFields(ctx, "unresolvable media reference", map[string]interface{}{
			"reference": raw,
		})
		ctrl.Telemetry.RecordPlaceholder(ctx)
		ctrl.servePlaceholder(c)
		return
	}

	candidates := ctrl.Resolver.Resolve(ref)
	attempted := make([]string, 0, len(candidates))

	for _, cand := range candidates {
		attempted = append(attempted, cand.String())

		switch cand.Kind {
		case mediapath.LocationExternal:
			c.Redirect(http.StatusFound, cand.URL)
			return

		case mediapath.LocationFilesystem:
			if ctrl.serveFromFilesystem(c, ref, cand) {
				return
			}

		case mediapath.LocationObjectStorage:
			if ctrl.serveFromObjectStorage(c, ref, cand) {
				return
			}
		}
	}

	ctrl.Logger.WarningWithFields(ctx, "media reference exhausted all candidates", map[string]interface{}{
		"reference":  raw,
		"kind":       string(ref.Kind),
		"bucket":     string(ref.Bucket),
		"candidates": attempted,
	})
	ctrl.Telemetry.RecordPlaceholder(ctx)
	ctrl.servePlaceholder(c)
}

func (ctrl *Controller) serveFromFilesystem(c *gin.Context, ref mediapath.MediaReference, cand mediapath.CandidateLocation) bool {
	ctx := c.Request.Context()

	ok, err := ctrl.Files.Exists(cand.Path)
	if err != nil {
		ctrl.Logger.WarningWithContextf(ctx, "[Proxy] Filesystem probe failed for %s: %v", cand.Path, err)
		ctrl.Telemetry.RecordProbeError(ctx, "filesystem")
		return false
	}
	if !ok {
		return false
	}

	reader, size, err := ctrl.Files.Open(cand.Path)
	if err != nil {
		ctrl.Logger.WarningWithContextf(ctx, "[Proxy] Filesystem open failed for %s: %v", cand.Path, err)
		ctrl.Telemetry.RecordProbeError(ctx, "filesystem")
		return false
	}
	defer reader.Close()

	c.Header("X-Media-Source", cand.String())
	c.DataFromReader(http.StatusOK, size, mediapath.ContentTypeFor(ref.Filename), reader, nil)
	ctrl.Telemetry.RecordProxyHit(ctx, "filesystem")
	return true
}

func (ctrl *Controller) serveFromObjectStorage(c *gin.Context, ref mediapath.MediaReference, cand mediapath.CandidateLocation) bool {
	ctx := c.Request.Context()
	bucketName := mediapath.DirectoryFor(cand.Bucket)

	// The existence probe gets its own bounded deadline so a slow storage
	// backend degrades to a miss instead of hanging the image request.
	probeCtx, cancel := context.WithTimeout(ctx, ctrl.ProbeTimeout)
	ok, err := ctrl.Objects.ObjectExists(probeCtx, bucketName, cand.Key)
	cancel()
	if err != nil {
		ctrl.Logger.WarningWithContextf(ctx, "[Proxy] Object probe failed for %s/%s: %v", bucketName, cand.Key, err)
		ctrl.Telemetry.RecordProbeError(ctx, "object_storage")
		return false
	}
	if !ok {
		return false
	}

	reader, size, contentType, err := ctrl.Objects.GetObject(ctx, bucketName, cand.Key)
	if err != nil {
		ctrl.Logger.WarningWithContextf(ctx, "[Proxy] Object fetch failed for %s/%s: %v", bucketName, cand.Key, err)
		ctrl.Telemetry.RecordProbeError(ctx, "object_storage")
		return false
	}
	defer reader.Close()

	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mediapath.ContentTypeFor(ref.Filename)
	}

	c.Header("X-Media-Source", cand.String())
	c.DataFromReader(http.StatusOK, size, contentType, reader, nil)
	ctrl.Telemetry.RecordProxyHit(ctx, "object_storage")
	return true
}

func (ctrl *Controller) servePlaceholder(c *gin.Context) {
	c.Data(http.StatusOK, ctrl.placeholderType, ctrl.placeholder)
}

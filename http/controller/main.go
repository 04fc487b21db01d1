package controller

import (
	"context"
	"io"
	"time"

	"github.com/baysideportal/media-gateway/config"
	"github.com/baysideportal/media-gateway/infra"
	"github.com/baysideportal/media-gateway/infra/produce"
	"github.com/baysideportal/media-gateway/mediapath"
	"github.com/baysideportal/media-gateway/repository"
)

// ObjectStore is the slice of the MinIO client the request path needs.
type ObjectStore interface {
	ObjectExists(ctx context.Context, bucketName, key string) (bool, error)
	GetObject(ctx context.Context, bucketName, key string) (io.ReadCloser, int64, string, error)
}

// FileStore is the slice of the local filesystem client the request path needs.
type FileStore interface {
	Exists(path string) (bool, error)
	Open(path string) (io.ReadCloser, int64, error)
}

// RewritePublisher enqueues rewrite jobs for the worker process.
type RewritePublisher interface {
	PublishRewriteJob(ctx context.Context, msg produce.RewriteJobMessage) error
}

type Controller struct {
	Config     *config.Config
	Infra      *infra.Infra
	Repository *repository.Repository

	Logger    *infra.LoggerClient
	Telemetry *infra.TelemetryClient
	Resolver  *mediapath.Resolver
	Objects   ObjectStore
	Files     FileStore
	Publisher RewritePublisher

	ProbeTimeout    time.Duration
	placeholder     []byte
	placeholderType string
}

func NewController(cfg *config.Config, infra *infra.Infra, repo *repository.Repository) *Controller {
	env := mediapath.ParseEnvironment(cfg.EnvConfig.Environment.Mode)

	ctrl := &Controller{
		Config:       cfg,
		Infra:        infra,
		Repository:   repo,
		Logger:       infra.Logger,
		Telemetry:    infra.Telemetry,
		Resolver:     mediapath.NewResolver(env, cfg.EnvConfig.Media.ContentRoot),
		Objects:      infra.Minio,
		Files:        infra.LocalFS,
		Publisher:    infra.Produce.RewriteService,
		ProbeTimeout: time.Duration(cfg.EnvConfig.Media.ProbeTimeoutMs) * time.Millisecond,
	}
	ctrl.placeholder, ctrl.placeholderType = loadPlaceholder(cfg.EnvConfig.Media.PlaceholderPath)
	return ctrl
}

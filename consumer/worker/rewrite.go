package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/baysideportal/media-gateway/config"
	"github.com/baysideportal/media-gateway/infra"
	"github.com/baysideportal/media-gateway/infra/produce"
	"github.com/baysideportal/media-gateway/mediapath"
	"github.com/baysideportal/media-gateway/repository"
	amqp "github.com/rabbitmq/amqp091-go"
)

type RewriteConsumer struct {
	channel    *amqp.Channel
	config     *config.Config
	infra      *infra.Infra
	repository *repository.Repository
	rewriter   *Rewriter
}

func NewRewriteConsumer(channel *amqp.Channel, cfg *config.Config, infraClients *infra.Infra, repo *repository.Repository) *RewriteConsumer {
	env := mediapath.ParseEnvironment(cfg.EnvConfig.Environment.Mode)
	resolver := mediapath.NewResolver(env, cfg.EnvConfig.Media.ContentRoot)

	rewriter := NewRewriter(
		resolver,
		infraClients.Minio,
		infraClients.LocalFS,
		repo.MigrationRepo,
		repo.ContentRepo,
		infraClients.Redis,
		infraClients.Logger,
		cfg.EnvConfig.Media.RewriteBatchSize,
	)

	return &RewriteConsumer{
		channel:    channel,
		config:     cfg,
		infra:      infraClients,
		repository: repo,
		rewriter:   rewriter,
	}
}

func (c *RewriteConsumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		produce.RewriteQueue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register rewrite consumer: %w", err)
	}

	c.infra.Logger.InfoWithContextf(ctx, "[Rewrite Consumer] Started listening for rewrite jobs on queue: %s", produce.RewriteQueue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.infra.Logger.InfoWithContextf(ctx, "[Rewrite Consumer] Shutting down...")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.infra.Logger.WarningWithContextf(ctx, "[Rewrite Consumer] Channel closed")
					return
				}
				c.handleRewriteJob(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *RewriteConsumer) handleRewriteJob(ctx context.Context, msg amqp.Delivery) {
	c.infra.Logger.InfoWithContextf(ctx, "[Rewrite Consumer] Received message: %s", string(msg.Body))

	var payload produce.RewriteJobMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Rewrite Consumer] Failed to unmarshal message: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	summary, err := c.rewriter.Run(ctx, payload)
	if err != nil {
		// Per-file failures are recorded on migration records and do not
		// reach here; this is a data-store level fault. Progress up to the
		// last checkpoint is durable, so the operator re-triggers the run
		// rather than the broker redelivering it in a loop.
		c.infra.Logger.ErrorWithContextf(ctx, err, "[Rewrite Consumer] Run %s aborted: %v", payload.RunID, err)
		_ = msg.Ack(false)
		return
	}

	c.infra.Logger.InfoWithContextf(ctx,
		"[Rewrite Consumer] Run %s finished: scanned=%d migrated=%d verified=%d rewritten=%d skipped=%d failed=%d",
		summary.RunID, summary.Scanned, summary.Migrated, summary.Verified, summary.Rewritten, summary.Skipped, summary.Failed)
	_ = msg.Ack(false)
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/baysideportal/media-gateway/config"
	"github.com/baysideportal/media-gateway/consumer/worker"
	infraPkg "github.com/baysideportal/media-gateway/infra"
	"github.com/baysideportal/media-gateway/mediapath"
	"github.com/baysideportal/media-gateway/repository"
	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load("../staging.env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(cfg, infra)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Every logical bucket must exist before the first rewrite run uploads
	// into it.
	for _, bucket := range mediapath.Buckets() {
		bucketName := mediapath.DirectoryFor(bucket)
		if err := infra.Minio.EnsureBucket(ctx, bucketName); err != nil {
			infra.Logger.ErrorWithContextf(ctx, err, "Failed to ensure bucket %s: %v", bucketName, err)
			log.Fatalf("Failed to ensure bucket %s: %v", bucketName, err)
		}
	}

	rewriteConsumer := worker.NewRewriteConsumer(infra.RabbitMQ.Channel, cfg, infra, repo)
	if err := rewriteConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start rewrite consumer: %v", err)
		log.Fatalf("Failed to start rewrite consumer: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	infra.Logger.InfoWithContextf(ctx, "Shutting down consumer...")
	cancel()

	infra.Logger.InfoWithContextf(ctx, "Consumer exited properly")
}

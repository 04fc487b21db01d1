package main

import (
	"log"

	"github.com/baysideportal/media-gateway/config"
	"github.com/baysideportal/media-gateway/http/controller"
	routes "github.com/baysideportal/media-gateway/http/route"
	infraPkg "github.com/baysideportal/media-gateway/infra"
	"github.com/baysideportal/media-gateway/repository"
	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load("staging.env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(cfg, infra)

	ctrl := controller.NewController(cfg, infra, repo)

	router := routes.SetupRouter(ctrl)

	log.Println("HTTP Server started on :8080")
	if err := router.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

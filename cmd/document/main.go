package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/collabwrite/collabwrite/internal/config"
	"github.com/collabwrite/collabwrite/internal/database"
	"github.com/collabwrite/collabwrite/internal/document/handler"
	"github.com/collabwrite/collabwrite/internal/document/repository"
	"github.com/collabwrite/collabwrite/internal/document/service"
	"github.com/collabwrite/collabwrite/pkg/logger"
	"github.com/collabwrite/collabwrite/pkg/middleware"
)

// Standalone document CRUD service, for deployments that split the REST
// surface from the realtime gateway. Tokens are verified with the shared JWT
// secret; no session state is needed here.
func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	port := os.Getenv("DOC_SERVICE_PORT")
	if port == "" {
		port = "5010"
	}

	var repo repository.Repository
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongo(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			logger.Warnf("cannot connect to MongoDB (%v), using memory-backed repo", err)
			repo = repository.NewMemoryRepo()
		} else {
			repo = repository.NewMongoRepo(client.Database(cfg.MongoDB.Database).Collection("documents"))
		}
	} else {
		repo = repository.NewMemoryRepo()
	}

	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(cfg))
	handler.New(service.New(repo)).Register(authed, api)

	logger.Infof("document service listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

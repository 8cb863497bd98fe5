package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/collabwrite/collabwrite/handlers"
	"github.com/collabwrite/collabwrite/internal/assist"
	"github.com/collabwrite/collabwrite/internal/config"
	"github.com/collabwrite/collabwrite/internal/database"
	dochandler "github.com/collabwrite/collabwrite/internal/document/handler"
	"github.com/collabwrite/collabwrite/internal/document/repository"
	docservice "github.com/collabwrite/collabwrite/internal/document/service"
	"github.com/collabwrite/collabwrite/internal/realtime"
	"github.com/collabwrite/collabwrite/internal/sessions"
	"github.com/collabwrite/collabwrite/internal/storage"
	"github.com/collabwrite/collabwrite/internal/users"
	"github.com/collabwrite/collabwrite/pkg/logger"
	"github.com/collabwrite/collabwrite/pkg/metrics"
	"github.com/collabwrite/collabwrite/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v assist=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Assist.APIKey != "")

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// CORS for the editor frontend
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.Server.ClientOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Redis: session storage, token blacklist and (optionally) rate limiting
	var rdb *redis.Client
	var sessionsSvc *sessions.Service
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			rdb = nil
		} else {
			sessions.SetBlacklistClient(rdb)
			sessionsSvc = sessions.NewService(sessions.NewRedisRepository(rdb, "session"))
			logger.Infof("using Redis for sessions and token blacklist")
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// MongoDB: users, documents and the session fallback store. Retry with
	// backoff to tolerate startup races against the database container.
	var mongoClient *mongo.Client
	var usersSvc *users.Service
	var docsSvc *docservice.Service
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			mongoClient, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
		} else {
			defer func() { _ = mongoClient.Disconnect(ctx) }()
			db := mongoClient.Database(cfg.MongoDB.Database)
			usersSvc = users.NewService(users.NewMongoUserRepository(db.Collection("users")))
			docsSvc = docservice.New(repository.NewMongoRepo(db.Collection("documents")))
			if sessionsSvc == nil {
				sessionsSvc = sessions.NewService(sessions.NewMongoRepository(db.Collection("sessions")))
			}
		}
	}
	if docsSvc == nil {
		// in-memory store keeps local development working without Mongo
		logger.Warnf("MongoDB unavailable; documents are stored in memory and will not survive a restart")
		docsSvc = docservice.New(repository.NewMemoryRepo())
	}

	// optional snapshot archival to object storage
	var snapshots *storage.SnapshotStore
	if cfg.Snapshots.Endpoint != "" {
		snapshots, err = storage.NewSnapshotStore(&cfg.Snapshots)
		if err != nil {
			logger.Warnf("snapshot store disabled: %v", err)
			snapshots = nil
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{
			"documents": docsSvc != nil,
			"users":     usersSvc != nil,
			"sessions":  sessionsSvc != nil,
		}
		if usersSvc == nil || sessionsSvc == nil {
			ready = false
		}
		if cfg.Redis.Host != "" && cfg.RateLimit.UseRedis {
			deps["redis"] = rdb != nil
			if rdb == nil {
				ready = false
			}
		}
		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	api := r.Group("/api")
	if usersSvc != nil && sessionsSvc != nil {
		handlers.NewAuthHandler(cfg, usersSvc, sessionsSvc).Register(api)
	} else {
		logger.Warnf("auth routes not registered because user/session services are unavailable")
	}

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(cfg))
	dochandler.New(docsSvc).Register(authed, api)

	assistHandler := assist.NewHandler(assist.NewClient(cfg.Assist), assist.NewDebouncer(cfg.Assist.DebounceQuiet))
	assistHandler.Register(authed)

	// realtime collaboration endpoint
	gateway := realtime.NewGateway(cfg, docsSvc, realtime.NewCoordinator(docsSvc, snapshots))
	r.GET("/realtime", gateway.Handle)

	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting collabwrite on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}

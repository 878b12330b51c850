package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/siffror/ai-rapportanalys-Render/internal/ai"
	"github.com/siffror/ai-rapportanalys-Render/internal/config"
	"github.com/siffror/ai-rapportanalys-Render/internal/logger"
	"github.com/siffror/ai-rapportanalys-Render/internal/session"
	"github.com/siffror/ai-rapportanalys-Render/internal/store"
	"github.com/siffror/ai-rapportanalys-Render/internal/telemetry"
	"github.com/siffror/ai-rapportanalys-Render/middleware"
	"github.com/siffror/ai-rapportanalys-Render/routes"
	"github.com/siffror/ai-rapportanalys-Render/services"
	"github.com/siffror/ai-rapportanalys-Render/services/cache"
	"github.com/siffror/ai-rapportanalys-Render/services/ocr"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	if cfg.OTELEnabled {
		shutdown, err := telemetry.InitTracer("ai-rapportanalys", cfg.OTELEndpoint)
		if err != nil {
			logger.Warn("telemetry disabled", "error", err)
		} else {
			defer shutdown()
		}
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("metrics disabled", "error", err)
	}

	llmClient, err := ai.NewClient(cfg)
	if err != nil {
		log.Fatal("Failed to create LLM client:", err)
	}

	cacheStore, err := cache.New(cfg)
	if err != nil {
		log.Fatal("Failed to create embedding cache:", err)
	}

	history, err := store.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		history.Close(ctx)
	}()

	ocrEngine, err := ocr.ForName(cfg)
	if err != nil {
		log.Fatal("Failed to create OCR engine:", err)
	}

	embedder := services.NewEmbedder(llmClient, cfg)
	embedder.SetMetrics(metrics)
	deps := &routes.Deps{
		Cfg:       cfg,
		Sessions:  session.NewRegistry(),
		Extractor: services.NewExtractor(cfg),
		Chunker:   services.NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap),
		Embedder:  embedder,
		Ranker:    services.NewRanker(embedder, cfg.TopK),
		Answerer:  services.NewAnswerer(llmClient, cfg),
		Evaluator: services.NewEvaluator(llmClient, cfg),
		Cache:     cacheStore,
		OCR:       ocrEngine,
		History:   history,
		Metrics:   metrics,
	}

	// The disk cache needs periodic pruning; redis expires entries itself.
	if pruner, ok := cacheStore.(cache.Pruner); ok {
		janitor := services.NewCacheJanitor(pruner, cfg.CacheTTLDays)
		janitor.Start()
		defer janitor.Stop()
	}

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	if cfg.OTELEnabled {
		router.Use(otelgin.Middleware("ai-rapportanalys"))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupAnalysisRoutes(router, deps)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "provider", cfg.LLMProvider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("server exited")
}

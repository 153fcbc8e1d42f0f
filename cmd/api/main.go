package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/salonci/salon-pos/internal/cache"
	"github.com/salonci/salon-pos/internal/config"
	dbpkg "github.com/salonci/salon-pos/internal/db"
	"github.com/salonci/salon-pos/internal/jobs"
	"github.com/salonci/salon-pos/internal/logger"
	"github.com/salonci/salon-pos/internal/routes"
)

func main() {

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zlog.Sync()

	db, err := dbpkg.New(cfg)
	if err != nil {
		zlog.Fatal("failed to connect database", zap.Error(err))
	}

	catalogue, err := cache.NewCatalogue(cfg.Redis.URL, zlog)
	if err != nil {
		zlog.Fatal("failed to init redis cache", zap.Error(err))
	}

	recount := jobs.NewRecountSweep(db, zlog)
	if err := recount.Start(cfg.Jobs.RecountSchedule); err != nil {
		zlog.Fatal("failed to schedule recount sweep", zap.Error(err))
	}
	defer recount.Stop()

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes.RegisterRoutes(r, db, cfg, zlog, catalogue)

	zlog.Info("server starting", zap.String("addr", cfg.Addr()))
	if err := r.Run(cfg.Addr()); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}

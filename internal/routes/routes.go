package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/salonci/salon-pos/internal/audit"
	"github.com/salonci/salon-pos/internal/cache"
	"github.com/salonci/salon-pos/internal/config"
	visitdomain "github.com/salonci/salon-pos/internal/domain/visit"
	"github.com/salonci/salon-pos/internal/handlers"
	infraRepo "github.com/salonci/salon-pos/internal/infra/repository"
	"github.com/salonci/salon-pos/internal/middleware"
	"github.com/salonci/salon-pos/internal/models"
	"github.com/salonci/salon-pos/internal/notify"
	ucSync "github.com/salonci/salon-pos/internal/usecase/sync"
	ucVisit "github.com/salonci/salon-pos/internal/usecase/visit"
)

func RegisterRoutes(
	r *gin.Engine,
	db *gorm.DB,
	cfg *config.Config,
	log *zap.Logger,
	catalogue *cache.Catalogue,
) {

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.CORSMiddleware())

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	visitRepo := infraRepo.NewVisitGormRepository(db)

	auditLogger := audit.New(db)
	auditDispatcher := audit.NewDispatcher(auditLogger, log)

	rule := visitdomain.LoyaltyRule{
		Interval: cfg.Fidelite.PassagesGratuit,
		Actif:    cfg.Fidelite.Actif,
	}

	var sender notify.Sender
	if cfg.Twilio.AccountSID != "" && cfg.Twilio.FromNumber != "" {
		sender = notify.NewTwilioSender(cfg.Twilio)
	}
	notifier := notify.NewLoyaltyNotifier(sender, cfg.Salon.Nom, log)

	// ======================================================
	// USE CASES — PASSAGES
	// ======================================================
	createVisitUC := ucVisit.NewCreateVisit(
		visitRepo,
		rule,
		auditDispatcher,
		notifier,
		log,
	)

	deleteVisitUC := ucVisit.NewDeleteVisit(
		visitRepo,
		auditDispatcher,
		log,
	)

	checkFidelityUC := ucVisit.NewCheckFidelity(visitRepo, rule)

	// ======================================================
	// USE CASES — SYNCHRONISATION
	// ======================================================
	synchronizer := ucSync.NewSynchronizer(db, visitRepo, rule, log)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg)
	clientHandler := handlers.NewClientHandler(db, auditDispatcher)
	prestationHandler := handlers.NewPrestationHandler(db, catalogue, auditDispatcher)
	paiementHandler := handlers.NewPaiementHandler(db, cfg, auditDispatcher)
	userHandler := handlers.NewUserHandler(db, auditDispatcher)
	syncHandler := handlers.NewSyncHandler(synchronizer)
	auditLogsHandler := handlers.NewAuditLogsHandler(db)

	passageHandler := handlers.NewPassageHandler(
		db,
		cfg,
		visitRepo,
		createVisitUC,
		deleteVisitUC,
		checkFidelityUC,
	)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/login", authHandler.Login)
		api.GET("/auth/me", middleware.AuthMiddleware(cfg), authHandler.Me)

		// ------------------------------
		// API PRIVÉE
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			// ------------------------------
			// CLIENTS
			// ------------------------------
			secured.GET("/clients", clientHandler.List)
			secured.POST("/clients", clientHandler.Create)
			secured.GET("/clients/generate-code", clientHandler.GenerateCode)
			secured.GET("/clients/search/:telephone", clientHandler.SearchByPhone)
			secured.GET("/clients/:id", clientHandler.Show)
			secured.PATCH("/clients/:id", clientHandler.Update)
			secured.DELETE("/clients/:id", clientHandler.Delete)
			secured.GET("/clients/:id/historique", passageHandler.Historique)
			secured.GET("/clients/:id/check-fidelite", passageHandler.CheckFidelite)

			// ------------------------------
			// CATALOGUE
			// ------------------------------
			secured.GET("/prestations", prestationHandler.List)
			secured.GET("/prestations/:id", prestationHandler.Show)

			gestion := secured.Group("/")
			gestion.Use(middleware.RequireRole(models.RoleAdmin, models.RoleManager))
			{
				gestion.POST("/prestations", prestationHandler.Create)
				gestion.PATCH("/prestations/:id", prestationHandler.Update)
				gestion.POST("/prestations/:id/toggle-actif", prestationHandler.ToggleActif)
				gestion.PUT("/prestations/:id/coiffeurs", prestationHandler.SetCoiffeurs)
			}

			// ------------------------------
			// PASSAGES
			// ------------------------------
			secured.GET("/passages", passageHandler.List)
			secured.POST("/passages", passageHandler.Create)
			secured.GET("/passages/:id", passageHandler.Show)
			secured.DELETE("/passages/:id", passageHandler.Delete)

			// ------------------------------
			// PAIEMENTS
			// ------------------------------
			secured.GET("/paiements", paiementHandler.List)
			secured.POST("/paiements", paiementHandler.Create)
			secured.GET("/paiements/:id", paiementHandler.Show)
			secured.PATCH("/paiements/:id/annuler", paiementHandler.Annuler)
			secured.GET("/paiements/:id/recu/data", paiementHandler.RecuData)

			// ------------------------------
			// PERSONNEL
			// ------------------------------
			secured.GET("/coiffeurs/liste", userHandler.ListeCoiffeurs)

			admin := secured.Group("/")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.GET("/users", userHandler.List)
				admin.POST("/users", userHandler.Create)
				admin.GET("/users/:id", userHandler.Show)
				admin.PATCH("/users/:id", userHandler.Update)
				admin.PATCH("/users/:id/toggle-actif", userHandler.ToggleActif)

				admin.GET("/audit-logs", auditLogsHandler.List)
			}

			// ------------------------------
			// SYNCHRONISATION
			// ------------------------------
			secured.POST("/sync/batch", syncHandler.Push)
			secured.GET("/sync/status", syncHandler.Status)
		}
	}
}

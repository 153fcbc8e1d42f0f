package jobs

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/salonci/salon-pos/internal/models"
)

// RecountSweep réaligne périodiquement le compteur nombre_passages de
// chaque client sur ses passages réellement présents. Le compteur est
// maintenu en ligne par le moteur de passages ; ce balayage rattrape
// les dérives résiduelles (restauration de base, intervention manuelle).
type RecountSweep struct {
	db   *gorm.DB
	log  *zap.Logger
	cron *cron.Cron
}

func NewRecountSweep(db *gorm.DB, log *zap.Logger) *RecountSweep {
	return &RecountSweep{db: db, log: log, cron: cron.New()}
}

// Start planifie le balayage selon l'expression cron fournie
// (par défaut chaque nuit à 3h) et démarre l'ordonnanceur.
func (s *RecountSweep) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.Run); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("recount sweep scheduled", zap.String("schedule", schedule))
	return nil
}

func (s *RecountSweep) Stop() {
	s.cron.Stop()
}

// Run exécute un balayage complet. Exporté pour déclenchement manuel.
func (s *RecountSweep) Run() {
	var clients []models.Client
	if err := s.db.Find(&clients).Error; err != nil {
		s.log.Error("recount sweep: chargement clients", zap.Error(err))
		return
	}

	repaired := 0
	for i := range clients {
		var count int64
		if err := s.db.Model(&models.Passage{}).
			Where("client_id = ?", clients[i].ID).
			Count(&count).Error; err != nil {
			s.log.Error("recount sweep: comptage passages",
				zap.Uint("client_id", clients[i].ID),
				zap.Error(err),
			)
			continue
		}

		if int(count) == clients[i].NombrePassages {
			continue
		}

		s.log.Warn("compteur client dérivé, réparation",
			zap.Uint("client_id", clients[i].ID),
			zap.Int("compteur", clients[i].NombrePassages),
			zap.Int64("reel", count),
		)
		if err := s.db.Model(&models.Client{}).
			Where("id = ?", clients[i].ID).
			Update("nombre_passages", count).Error; err != nil {
			s.log.Error("recount sweep: réparation",
				zap.Uint("client_id", clients[i].ID),
				zap.Error(err),
			)
			continue
		}
		repaired++
	}

	s.log.Info("recount sweep terminé",
		zap.Int("clients", len(clients)),
		zap.Int("repares", repaired),
	)
}

package sync

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/salonci/salon-pos/internal/httperr"
	"github.com/salonci/salon-pos/internal/models"
)

// DeviceStatus résume l'historique de synchronisation d'un terminal.
type DeviceStatus struct {
	DeviceID     string     `json:"device_id"`
	DerniereSync *time.Time `json:"derniere_sync"`
	TotalSyncs   int64      `json:"total_syncs"`
	Succes       int64      `json:"succes"`
	Conflits     int64      `json:"conflits"`
	Echecs       int64      `json:"echecs"`
}

// Status répond à l'interrogation d'état d'un terminal avant ou après
// un envoi de lot.
func (s *Synchronizer) Status(ctx context.Context, deviceID string) (*DeviceStatus, error) {
	if deviceID == "" {
		return nil, httperr.Validation("device_id_requis",
			"L'identifiant du terminal est requis.")
	}

	status := &DeviceStatus{DeviceID: deviceID}

	if err := s.db.WithContext(ctx).Model(&models.SyncLog{}).
		Where("device_id = ?", deviceID).
		Count(&status.TotalSyncs).Error; err != nil {
		return nil, httperr.Storage(err)
	}

	counts := []struct {
		statut string
		dest   *int64
	}{
		{models.SyncSucces, &status.Succes},
		{models.SyncConflit, &status.Conflits},
		{models.SyncEchec, &status.Echecs},
	}
	for _, c := range counts {
		if err := s.db.WithContext(ctx).Model(&models.SyncLog{}).
			Where("device_id = ? AND statut = ?", deviceID, c.statut).
			Count(c.dest).Error; err != nil {
			return nil, httperr.Storage(err)
		}
	}

	var last models.SyncLog
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("date_sync DESC, id DESC").
		First(&last).Error
	switch {
	case err == nil:
		status.DerniereSync = &last.DateSync
	case err == gorm.ErrRecordNotFound:
		// Aucun historique : terminal jamais synchronisé.
	default:
		return nil, httperr.Storage(err)
	}

	return status, nil
}

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/salonci/salon-pos/internal/db"
	domain "github.com/salonci/salon-pos/internal/domain/visit"
	"github.com/salonci/salon-pos/internal/httperr"
	"github.com/salonci/salon-pos/internal/models"
)

type VisitGormRepository struct {
	db *gorm.DB
}

func NewVisitGormRepository(db *gorm.DB) *VisitGormRepository {
	return &VisitGormRepository{db: db}
}

// --------------------------------------------------
// Client
// --------------------------------------------------

func (r *VisitGormRepository) GetClient(
	ctx context.Context,
	id uint,
) (*models.Client, error) {

	var client models.Client
	if err := r.db.WithContext(ctx).First(&client, id).Error; err != nil {
		return nil, httperr.FromDB(err, "client_not_found", "Client non trouvé.")
	}
	return &client, nil
}

// --------------------------------------------------
// Création de passage
// --------------------------------------------------

func (r *VisitGormRepository) CreateVisit(
	ctx context.Context,
	in domain.CreateInput,
	rule domain.LoyaltyRule,
) (*models.Passage, error) {

	var created models.Passage

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		// Le verrou sur la ligne client sérialise la numérotation :
		// deux créations concurrentes ne calculent jamais le même numéro.
		var client models.Client
		if err := dbpkg.LockForUpdate(tx).First(&client, in.ClientID).Error; err != nil {
			return httperr.FromDB(err, "client_not_found", "Client non trouvé.")
		}
		if client.Statut == models.ClientArchive {
			return httperr.Validation("client_archive",
				"Impossible d'enregistrer un passage pour un client archivé.")
		}

		now := time.Now()
		date := now
		if in.DatePassage != nil {
			date = *in.DatePassage
		}

		numero := client.NombrePassages + 1
		passage := models.Passage{
			ClientID:      client.ID,
			NumeroPassage: numero,
			EstGratuit:    rule.IsFree(numero),
			Notes:         in.Notes,
			DatePassage:   date,
			DeviceID:      in.DeviceID,
			SyncedAt:      &now,
		}
		if err := tx.Create(&passage).Error; err != nil {
			return httperr.Storage(err)
		}

		for _, item := range in.Items {
			quantite := item.Quantite
			if quantite <= 0 {
				quantite = 1
			}

			var prestation models.Prestation
			if err := tx.First(&prestation, item.PrestationID).Error; err != nil {
				return httperr.FromDB(err, "prestation_not_found", "Prestation non trouvée.")
			}

			if item.CoiffeurID != nil {
				var coiffeur models.User
				if err := tx.First(&coiffeur, *item.CoiffeurID).Error; err != nil {
					return httperr.Validation("coiffeur_invalide",
						"L'utilisateur spécifié n'est pas un coiffeur.")
				}
				if !coiffeur.IsCoiffeur() {
					return httperr.Validation("coiffeur_invalide",
						"L'utilisateur spécifié n'est pas un coiffeur.")
				}
			}

			pp := models.PassagePrestation{
				PassageID:    passage.ID,
				PrestationID: prestation.ID,
				PrixApplique: prestation.Prix,
				Quantite:     quantite,
				CoiffeurID:   item.CoiffeurID,
			}
			if err := tx.Create(&pp).Error; err != nil {
				return httperr.Storage(err)
			}
		}

		if err := tx.Model(&models.Client{}).
			Where("id = ?", client.ID).
			Updates(map[string]any{
				"nombre_passages": numero,
				"derniere_visite": date,
			}).Error; err != nil {
			return httperr.Storage(err)
		}

		if err := tx.
			Preload("Prestations.Prestation").
			Preload("Prestations.Coiffeur").
			First(&passage, passage.ID).Error; err != nil {
			return httperr.Storage(err)
		}

		created = passage
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &created, nil
}

// --------------------------------------------------
// Suppression de passage + renumérotation
// --------------------------------------------------

func (r *VisitGormRepository) DeleteVisit(
	ctx context.Context,
	passageID uint,
) (*domain.DeleteResult, error) {

	var result domain.DeleteResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var passage models.Passage
		if err := tx.First(&passage, passageID).Error; err != nil {
			return httperr.FromDB(err, "passage_not_found", "Passage non trouvé.")
		}

		var client models.Client
		if err := dbpkg.LockForUpdate(tx).First(&client, passage.ClientID).Error; err != nil {
			return httperr.FromDB(err, "client_not_found", "Client non trouvé.")
		}

		// Cascade : le paiement éventuel et les lignes de prestation
		// partent avec le passage.
		if err := tx.Where("passage_id = ?", passage.ID).
			Delete(&models.Paiement{}).Error; err != nil {
			return httperr.Storage(err)
		}
		if err := tx.Where("passage_id = ?", passage.ID).
			Delete(&models.PassagePrestation{}).Error; err != nil {
			return httperr.Storage(err)
		}
		if err := tx.Delete(&passage).Error; err != nil {
			return httperr.Storage(err)
		}

		// Renumérotation dense 1..N par date puis id. Le drapeau est_gratuit
		// n'est pas recalculé : la gratuité accordée reste acquise.
		var restants []models.Passage
		if err := tx.Where("client_id = ?", passage.ClientID).
			Order("date_passage ASC, id ASC").
			Find(&restants).Error; err != nil {
			return httperr.Storage(err)
		}

		for i := range restants {
			numero := i + 1
			if restants[i].NumeroPassage == numero {
				continue
			}
			if err := tx.Model(&models.Passage{}).
				Where("id = ?", restants[i].ID).
				Update("numero_passage", numero).Error; err != nil {
				return httperr.Storage(err)
			}
		}

		if err := tx.Model(&models.Client{}).
			Where("id = ?", client.ID).
			Update("nombre_passages", len(restants)).Error; err != nil {
			return httperr.Storage(err)
		}

		result = domain.DeleteResult{
			ClientID:              client.ID,
			NumeroPassageSupprime: passage.NumeroPassage,
			NouveauNombrePassages: len(restants),
			PassagesRenumerotes:   len(restants),
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &result, nil
}

// --------------------------------------------------
// Lectures
// --------------------------------------------------

func (r *VisitGormRepository) GetPassage(
	ctx context.Context,
	id uint,
) (*models.Passage, error) {

	var passage models.Passage
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Prestations.Prestation").
		Preload("Prestations.Coiffeur").
		Preload("Paiement").
		First(&passage, id).Error; err != nil {
		return nil, httperr.FromDB(err, "passage_not_found", "Passage non trouvé.")
	}
	return &passage, nil
}

func (r *VisitGormRepository) ListPassagesByClient(
	ctx context.Context,
	clientID uint,
) ([]models.Passage, error) {

	var passages []models.Passage
	if err := r.db.WithContext(ctx).
		Preload("Prestations.Prestation").
		Preload("Paiement").
		Where("client_id = ?", clientID).
		Order("date_passage DESC, id DESC").
		Find(&passages).Error; err != nil {
		return nil, httperr.Storage(err)
	}
	return passages, nil
}

// Compile-time check
var _ domain.Repository = (*VisitGormRepository)(nil)

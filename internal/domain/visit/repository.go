package visit

import (
	"context"

	"github.com/salonci/salon-pos/internal/models"
)

// Repository est le contrat de persistance du moteur de passages.
// Chaque opération d'écriture est une transaction unique : le compteur du
// client ne bouge jamais hors de ces méthodes.
type Repository interface {
	GetClient(
		ctx context.Context,
		id uint,
	) (*models.Client, error)

	// CreateVisit verrouille le client, fige les prix, vérifie les rôles
	// coiffeur, numérote, applique la fidélité et incrémente le compteur.
	CreateVisit(
		ctx context.Context,
		in CreateInput,
		rule LoyaltyRule,
	) (*models.Passage, error)

	// DeleteVisit supprime le passage (et son paiement), renumérote les
	// passages restants par date puis id, et recompte le client.
	DeleteVisit(
		ctx context.Context,
		passageID uint,
	) (*DeleteResult, error)

	GetPassage(
		ctx context.Context,
		id uint,
	) (*models.Passage, error)

	ListPassagesByClient(
		ctx context.Context,
		clientID uint,
	) ([]models.Passage, error)
}

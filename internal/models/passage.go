package models

import (
	"time"

	"gorm.io/gorm"
)

type Passage struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ClientID uint   `gorm:"index;not null" json:"client_id"`
	Client   Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"client,omitempty"`

	// Numéro séquentiel 1..N par client, sans trou, ordonné par date puis id.
	NumeroPassage int  `gorm:"not null;index:idx_client_numero" json:"numero_passage"`
	EstGratuit    bool `gorm:"default:false" json:"est_gratuit"`

	Notes       string    `gorm:"type:text" json:"notes"`
	DatePassage time.Time `gorm:"index;not null" json:"date_passage"`

	Prestations []PassagePrestation `gorm:"constraint:OnDelete:CASCADE" json:"prestations,omitempty"`
	Paiement    *Paiement           `json:"paiement,omitempty"`

	DeviceID *string    `gorm:"size:100" json:"device_id"`
	SyncedAt *time.Time `json:"synced_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// MontantTheorique additionne prix appliqué × quantité, gratuité ignorée.
func (p *Passage) MontantTheorique() float64 {
	var total float64
	for _, pp := range p.Prestations {
		total += pp.PrixApplique * float64(pp.Quantite)
	}
	return total
}

// MontantTotal vaut 0 pour un passage gratuit.
func (p *Passage) MontantTotal() float64 {
	if p.EstGratuit {
		return 0
	}
	return p.MontantTheorique()
}

type PassagePrestation struct {
	ID uint `gorm:"primaryKey" json:"id"`

	PassageID    uint       `gorm:"index;not null" json:"passage_id"`
	PrestationID uint       `gorm:"index;not null" json:"prestation_id"`
	Prestation   Prestation `json:"prestation,omitempty"`

	// Prix figé au moment du passage, jamais modifié ensuite.
	PrixApplique float64 `gorm:"type:decimal(10,2);not null" json:"prix_applique"`
	Quantite     int     `gorm:"default:1;not null" json:"quantite"`

	CoiffeurID *uint `gorm:"index" json:"coiffeur_id"`
	Coiffeur   *User `json:"coiffeur,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PassagePrestation) TableName() string {
	return "passage_prestation"
}

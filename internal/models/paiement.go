package models

import (
	"time"

	"gorm.io/gorm"
)

// Modes de paiement acceptés en caisse.
const (
	ModeEspeces     = "especes"
	ModeMobileMoney = "mobile_money"
	ModeCarte       = "carte"
	ModeAutre       = "autre"
)

// Statuts d'un paiement.
const (
	PaiementEnAttente = "en_attente"
	PaiementValide    = "valide"
	PaiementAnnule    = "annule"
)

type Paiement struct {
	ID uint `gorm:"primaryKey" json:"id"`

	PassageID uint    `gorm:"index;not null" json:"passage_id"`
	Passage   Passage `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"passage,omitempty"`

	MontantTotal float64 `gorm:"type:decimal(10,2);not null" json:"montant_total"`
	MontantPaye  float64 `gorm:"type:decimal(10,2);not null" json:"montant_paye"`

	ModePaiement string `gorm:"size:20;default:'especes'" json:"mode_paiement"`
	Statut       string `gorm:"size:20;default:'valide';index" json:"statut"`

	Notes        string    `gorm:"type:text" json:"notes"`
	DatePaiement time.Time `gorm:"index;not null" json:"date_paiement"`

	// Attribué une seule fois à la création, jamais régénéré.
	NumeroRecu string `gorm:"size:30;uniqueIndex;not null" json:"numero_recu"`

	DeviceID *string    `gorm:"size:100" json:"device_id"`
	SyncedAt *time.Time `json:"synced_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Paiement) EstComplet() bool {
	return p.MontantPaye >= p.MontantTotal
}

func (p *Paiement) MontantRestant() float64 {
	if reste := p.MontantTotal - p.MontantPaye; reste > 0 {
		return reste
	}
	return 0
}

func ValidPaymentMode(mode string) bool {
	switch mode {
	case ModeEspeces, ModeMobileMoney, ModeCarte, ModeAutre:
		return true
	}
	return false
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Statuts possibles d'un client (archive remplace la suppression douce).
const (
	ClientActif   = "actif"
	ClientArchive = "archive"
)

type Client struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Nom    string `gorm:"size:100;not null" json:"nom"`
	Prenom string `gorm:"size:100;not null" json:"prenom"`

	// Téléphone optionnel mais unique quand présent.
	Telephone *string `gorm:"size:20;uniqueIndex" json:"telephone"`

	// Code humain unique, format C###-YY.
	CodeClient string `gorm:"size:20;uniqueIndex;not null" json:"code_client"`

	// Compteur dénormalisé : toujours égal au nombre de passages non supprimés.
	NombrePassages int        `gorm:"default:0" json:"nombre_passages"`
	DerniereVisite *time.Time `json:"derniere_visite"`

	Statut string `gorm:"size:20;default:'actif';index" json:"statut"`

	DeviceID *string    `gorm:"size:100" json:"device_id"`
	SyncedAt *time.Time `json:"synced_at"`

	Passages []Passage `gorm:"constraint:OnDelete:CASCADE" json:"passages,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Client) NomComplet() string {
	return c.Prenom + " " + c.Nom
}

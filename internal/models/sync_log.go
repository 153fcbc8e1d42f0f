package models

import "time"

// Issues de traitement d'un élément de synchronisation.
const (
	SyncSucces  = "succes"
	SyncEchec   = "echec"
	SyncConflit = "conflit"
)

// SyncLog est une ligne d'audit append-only : une par élément traité,
// quelle que soit l'issue.
type SyncLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	DeviceID   string `gorm:"size:100;index;not null" json:"device_id"`
	EntityType string `gorm:"size:50;not null" json:"entity_type"`
	EntityID   *uint  `json:"entity_id"`
	Action     string `gorm:"size:20;not null" json:"action"`

	DataBefore *string `gorm:"type:json" json:"data_before"`
	DataAfter  *string `gorm:"type:json" json:"data_after"`

	Statut        string `gorm:"size:20;index;not null" json:"statut"`
	MessageErreur string `gorm:"type:text" json:"message_erreur"`

	DateSync  time.Time `gorm:"index;not null" json:"date_sync"`
	CreatedAt time.Time `json:"created_at"`
}

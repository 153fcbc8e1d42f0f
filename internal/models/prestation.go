package models

import (
	"time"

	"gorm.io/gorm"
)

type Prestation struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Libelle     string  `gorm:"size:100;uniqueIndex;not null" json:"libelle"`
	Prix        float64 `gorm:"type:decimal(10,2);not null" json:"prix"`
	Description string  `gorm:"type:text" json:"description"`
	Actif       bool    `gorm:"default:true;index" json:"actif"`

	// Ordre d'affichage personnalisé dans le catalogue.
	Ordre        int     `gorm:"default:0;index" json:"ordre"`
	DureeEstimee *int    `json:"duree_estimee"`
	Specialite   *string `gorm:"size:50" json:"specialite"`

	Coiffeurs []User `gorm:"many2many:prestation_coiffeur;joinForeignKey:PrestationID;joinReferences:CoiffeurID" json:"coiffeurs,omitempty"`

	DeviceID *string    `gorm:"size:100" json:"device_id"`
	SyncedAt *time.Time `json:"synced_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

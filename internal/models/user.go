package models

import (
	"time"

	"gorm.io/gorm"
)

// Rôles du personnel.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleCaissier = "caissier"
	RoleCoiffeur = "coiffeur"
)

type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Nom    string `gorm:"size:100;not null" json:"nom"`
	Prenom string `gorm:"size:100;not null" json:"prenom"`

	// Email et mot de passe nullables : les coiffeurs n'ont pas de compte.
	Email        *string `gorm:"size:100;uniqueIndex" json:"email"`
	PasswordHash *string `gorm:"size:255" json:"-"`

	Telephone *string `gorm:"size:20" json:"telephone"`
	Role      string  `gorm:"size:20;not null;index" json:"role"`
	Actif     bool    `gorm:"default:true" json:"actif"`

	// Champs propres aux coiffeurs.
	Specialite *string  `gorm:"size:50" json:"specialite,omitempty"`
	Commission *float64 `gorm:"type:decimal(5,2)" json:"commission,omitempty"`

	Prestations []Prestation `gorm:"many2many:prestation_coiffeur;joinForeignKey:CoiffeurID;joinReferences:PrestationID" json:"prestations,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) NomComplet() string {
	return u.Prenom + " " + u.Nom
}

func (u *User) IsCoiffeur() bool {
	return u.Role == RoleCoiffeur
}

// NeedsAccount indique si le rôle exige un identifiant de connexion.
func (u *User) NeedsAccount() bool {
	return u.Role != RoleCoiffeur
}

func (u *User) CanManageUsers() bool {
	return u.Role == RoleAdmin
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleCaissier, RoleCoiffeur:
		return true
	}
	return false
}

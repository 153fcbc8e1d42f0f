package models

import "time"

// CodeSequence matérialise un compteur par portée (ex: "client_code").
// NextVal porte le dernier numéro attribué ; incrémenté sous verrou de
// ligne, il remplace le balayage max()+1.
type CodeSequence struct {
	Scope   string `gorm:"primaryKey;size:50" json:"scope"`
	NextVal int    `gorm:"not null" json:"next_val"`

	UpdatedAt time.Time `json:"updated_at"`
}

package visit

import "time"

// Item est une prestation demandée lors d'un passage.
type Item struct {
	PrestationID uint
	Quantite     int
	CoiffeurID   *uint
}

// CreateInput rassemble tout ce qu'il faut pour enregistrer un passage.
type CreateInput struct {
	ClientID    uint
	Items       []Item
	DatePassage *time.Time
	Notes       string
	DeviceID    *string
}

// DeleteResult résume l'effet d'une suppression : le client renuméroté
// et son compteur recalculé.
type DeleteResult struct {
	ClientID              uint `json:"client_id"`
	NumeroPassageSupprime int  `json:"numero_passage_supprime"`
	NouveauNombrePassages int  `json:"nouveau_nombre_passages"`
	PassagesRenumerotes   int  `json:"passages_renumerotes"`
}

package dto

import (
	"time"

	"github.com/salonci/salon-pos/internal/config"
	"github.com/salonci/salon-pos/internal/models"
)

// RecuData porte tout ce qu'il faut pour imprimer un reçu : identité du
// salon, client, lignes de prestations aux prix figés, totaux et mode
// de paiement. Le terminal met en page, le serveur fournit les données.
type RecuData struct {
	NumeroRecu   string    `json:"numero_recu"`
	DatePaiement time.Time `json:"date_paiement"`

	Salon SalonInfo `json:"salon"`

	Client     ClientInfo  `json:"client"`
	Passage    PassageInfo `json:"passage"`
	Lignes     []LigneRecu `json:"lignes"`
	EstGratuit bool        `json:"est_gratuit"`

	MontantTheorique float64 `json:"montant_theorique"`
	MontantTotal     float64 `json:"montant_total"`
	MontantPaye      float64 `json:"montant_paye"`
	MontantRestant   float64 `json:"montant_restant"`
	ModePaiement     string  `json:"mode_paiement"`
	Statut           string  `json:"statut"`
}

type SalonInfo struct {
	Nom       string `json:"nom"`
	Adresse   string `json:"adresse"`
	Telephone string `json:"telephone"`
}

type ClientInfo struct {
	ID         uint   `json:"id"`
	NomComplet string `json:"nom_complet"`
	CodeClient string `json:"code_client"`
}

type PassageInfo struct {
	ID            uint      `json:"id"`
	NumeroPassage int       `json:"numero_passage"`
	DatePassage   time.Time `json:"date_passage"`
}

type LigneRecu struct {
	Libelle      string  `json:"libelle"`
	PrixUnitaire float64 `json:"prix_unitaire"`
	Quantite     int     `json:"quantite"`
	Total        float64 `json:"total"`
	Coiffeur     *string `json:"coiffeur,omitempty"`
}

// BuildRecu assemble les données de reçu d'un paiement dont le passage
// (client + prestations) est préchargé.
func BuildRecu(paiement *models.Paiement, salon config.SalonConfig) RecuData {
	passage := paiement.Passage

	lignes := make([]LigneRecu, 0, len(passage.Prestations))
	for _, pp := range passage.Prestations {
		ligne := LigneRecu{
			Libelle:      pp.Prestation.Libelle,
			PrixUnitaire: pp.PrixApplique,
			Quantite:     pp.Quantite,
			Total:        pp.PrixApplique * float64(pp.Quantite),
		}
		if pp.Coiffeur != nil {
			nom := pp.Coiffeur.NomComplet()
			ligne.Coiffeur = &nom
		}
		lignes = append(lignes, ligne)
	}

	return RecuData{
		NumeroRecu:   paiement.NumeroRecu,
		DatePaiement: paiement.DatePaiement,
		Salon: SalonInfo{
			Nom:       salon.Nom,
			Adresse:   salon.Adresse,
			Telephone: salon.Telephone,
		},
		Client: ClientInfo{
			ID:         passage.Client.ID,
			NomComplet: passage.Client.NomComplet(),
			CodeClient: passage.Client.CodeClient,
		},
		Passage: PassageInfo{
			ID:            passage.ID,
			NumeroPassage: passage.NumeroPassage,
			DatePassage:   passage.DatePassage,
		},
		Lignes:           lignes,
		EstGratuit:       passage.EstGratuit,
		MontantTheorique: passage.MontantTheorique(),
		MontantTotal:     paiement.MontantTotal,
		MontantPaye:      paiement.MontantPaye,
		MontantRestant:   paiement.MontantRestant(),
		ModePaiement:     paiement.ModePaiement,
		Statut:           paiement.Statut,
	}
}

package visit

// LoyaltyRule encode la règle de fidélité : tous les Interval passages,
// le passage est offert.
type LoyaltyRule struct {
	Interval int
	Actif    bool
}

// IsFree indique si un numéro de passage donné tombe sur un passage offert.
func (r LoyaltyRule) IsFree(numero int) bool {
	if !r.Actif || r.Interval <= 0 {
		return false
	}
	return numero%r.Interval == 0
}

// Eligibility décrit la situation fidélité d'un client : son prochain
// passage et la distance jusqu'au prochain passage offert.
type Eligibility struct {
	NombrePassagesActuel int  `json:"nombre_passages_actuel"`
	ProchainNumero       int  `json:"prochain_numero"`
	EstGratuit           bool `json:"est_gratuit"`
	PassagesRestants     int  `json:"passages_restants"`
}

// Eligible calcule l'éligibilité à partir du compteur courant. Fonction pure,
// aucune mutation.
func (r LoyaltyRule) Eligible(nombrePassages int) Eligibility {
	prochain := nombrePassages + 1
	el := Eligibility{
		NombrePassagesActuel: nombrePassages,
		ProchainNumero:       prochain,
		EstGratuit:           r.IsFree(prochain),
	}
	if el.EstGratuit || !r.Actif || r.Interval <= 0 {
		return el
	}
	el.PassagesRestants = r.Interval - prochain%r.Interval
	return el
}

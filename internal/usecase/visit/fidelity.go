package visit

import (
	"context"

	domain "github.com/salonci/salon-pos/internal/domain/visit"
)

// ======================================================
// USE CASE — ÉLIGIBILITÉ FIDÉLITÉ
// ======================================================

type CheckFidelity struct {
	repo domain.Repository
	rule domain.LoyaltyRule
}

func NewCheckFidelity(repo domain.Repository, rule domain.LoyaltyRule) *CheckFidelity {
	return &CheckFidelity{repo: repo, rule: rule}
}

type FidelityStatus struct {
	ClientID   uint   `json:"client_id"`
	NomComplet string `json:"nom_complet"`
	domain.Eligibility
}

// Execute est une lecture pure : aucun état n'est modifié.
func (uc *CheckFidelity) Execute(
	ctx context.Context,
	clientID uint,
) (*FidelityStatus, error) {

	client, err := uc.repo.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	return &FidelityStatus{
		ClientID:    client.ID,
		NomComplet:  client.NomComplet(),
		Eligibility: uc.rule.Eligible(client.NombrePassages),
	}, nil
}

package visit

import (
	"context"

	"go.uber.org/zap"

	"github.com/salonci/salon-pos/internal/audit"
	domain "github.com/salonci/salon-pos/internal/domain/visit"
	"github.com/salonci/salon-pos/internal/httperr"
	"github.com/salonci/salon-pos/internal/models"
	"github.com/salonci/salon-pos/internal/notify"
)

// ======================================================
// USE CASE — CRÉATION DE PASSAGE
// ======================================================

type CreateVisit struct {
	repo     domain.Repository
	rule     domain.LoyaltyRule
	audit    *audit.Dispatcher
	notifier *notify.LoyaltyNotifier
	log      *zap.Logger
}

func NewCreateVisit(
	repo domain.Repository,
	rule domain.LoyaltyRule,
	auditDispatcher *audit.Dispatcher,
	notifier *notify.LoyaltyNotifier,
	log *zap.Logger,
) *CreateVisit {
	return &CreateVisit{
		repo:     repo,
		rule:     rule,
		audit:    auditDispatcher,
		notifier: notifier,
		log:      log,
	}
}

// Result enrichit le passage de ses montants dérivés, jamais stockés.
type Result struct {
	Passage          *models.Passage `json:"passage"`
	EstGratuit       bool            `json:"est_gratuit"`
	MontantTotal     float64         `json:"montant_total"`
	MontantTheorique float64         `json:"montant_theorique"`
}

func (uc *CreateVisit) Execute(
	ctx context.Context,
	userID *uint,
	in domain.CreateInput,
) (*Result, error) {

	// Validation avant toute mutation.
	if len(in.Items) == 0 {
		return nil, httperr.Validation("prestations_requises",
			"Au moins une prestation est requise.")
	}
	for _, item := range in.Items {
		if item.PrestationID == 0 {
			return nil, httperr.Validation("prestation_invalide",
				"Chaque prestation doit avoir un identifiant.")
		}
	}

	passage, err := uc.repo.CreateVisit(ctx, in, uc.rule)
	if err != nil {
		uc.log.Error("create visit failed",
			zap.Uint("client_id", in.ClientID),
			zap.Error(err),
		)
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   userID,
		Action:   "passage_cree",
		Entity:   "passage",
		EntityID: &passage.ID,
		Metadata: map[string]any{
			"client_id":      passage.ClientID,
			"numero_passage": passage.NumeroPassage,
			"est_gratuit":    passage.EstGratuit,
		},
	})

	// Le prochain passage sera-t-il offert ? Si oui, on prévient le client.
	if uc.notifier != nil && uc.rule.IsFree(passage.NumeroPassage+1) {
		if client, cerr := uc.repo.GetClient(ctx, passage.ClientID); cerr == nil {
			uc.notifier.NotifyNextVisitFree(client)
		}
	}

	return &Result{
		Passage:          passage,
		EstGratuit:       passage.EstGratuit,
		MontantTotal:     passage.MontantTotal(),
		MontantTheorique: passage.MontantTheorique(),
	}, nil
}

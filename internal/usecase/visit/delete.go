package visit

import (
	"context"

	"go.uber.org/zap"

	"github.com/salonci/salon-pos/internal/audit"
	domain "github.com/salonci/salon-pos/internal/domain/visit"
)

// ======================================================
// USE CASE — SUPPRESSION DE PASSAGE
// ======================================================

type DeleteVisit struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	log   *zap.Logger
}

func NewDeleteVisit(
	repo domain.Repository,
	auditDispatcher *audit.Dispatcher,
	log *zap.Logger,
) *DeleteVisit {
	return &DeleteVisit{
		repo:  repo,
		audit: auditDispatcher,
		log:   log,
	}
}

func (uc *DeleteVisit) Execute(
	ctx context.Context,
	userID *uint,
	passageID uint,
) (*domain.DeleteResult, error) {

	result, err := uc.repo.DeleteVisit(ctx, passageID)
	if err != nil {
		uc.log.Error("delete visit failed",
			zap.Uint("passage_id", passageID),
			zap.Error(err),
		)
		return nil, err
	}

	uc.log.Info("passage supprimé",
		zap.Uint("passage_id", passageID),
		zap.Uint("client_id", result.ClientID),
		zap.Int("numero_supprime", result.NumeroPassageSupprime),
		zap.Int("nouveau_nombre_passages", result.NouveauNombrePassages),
	)

	uc.audit.Dispatch(audit.Event{
		UserID:   userID,
		Action:   "passage_supprime",
		Entity:   "passage",
		EntityID: &passageID,
		Metadata: result,
	})

	return result, nil
}

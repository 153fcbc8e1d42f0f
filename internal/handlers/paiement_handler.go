package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/salonci/salon-pos/internal/audit"
	"github.com/salonci/salon-pos/internal/codegen"
	"github.com/salonci/salon-pos/internal/config"
	"github.com/salonci/salon-pos/internal/dto"
	"github.com/salonci/salon-pos/internal/httperr"
	"github.com/salonci/salon-pos/internal/httpresp"
	"github.com/salonci/salon-pos/internal/middleware"
	"github.com/salonci/salon-pos/internal/models"
	"github.com/salonci/salon-pos/internal/timezone"
)

type PaiementHandler struct {
	db     *gorm.DB
	config *config.Config
	audit  *audit.Dispatcher
}

func NewPaiementHandler(
	db *gorm.DB,
	cfg *config.Config,
	auditDispatcher *audit.Dispatcher,
) *PaiementHandler {
	return &PaiementHandler{db: db, config: cfg, audit: auditDispatcher}
}

// --------- Requests ---------

type CreatePaiementRequest struct {
	PassageID    uint    `json:"passage_id" binding:"required"`
	MontantPaye  float64 `json:"montant_paye"`
	ModePaiement string  `json:"mode_paiement"`
	Notes        string  `json:"notes"`
}

// ======================================================
// LISTE (filtres date / statut)
// ======================================================
func (h *PaiementHandler) List(c *gin.Context) {
	q := h.db.Model(&models.Paiement{}).
		Preload("Passage.Client")

	if statut := c.Query("statut"); statut != "" {
		q = q.Where("statut = ?", statut)
	}
	if date := c.Query("date"); date != "" {
		loc := timezone.Location(h.config.Salon.Timezone)
		day, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			httpresp.Fail(c, httperr.Validation("date_invalide",
				"Format de date attendu : AAAA-MM-JJ."))
			return
		}
		q = q.Where("date_paiement >= ? AND date_paiement < ?",
			day, day.AddDate(0, 0, 1))
	}

	var paiements []models.Paiement
	if err := q.Order("date_paiement DESC, id DESC").Find(&paiements).Error; err != nil {
		httpresp.Fail(c, httperr.Storage(err))
		return
	}
	httpresp.OK(c, paiements)
}

// ======================================================
// ENCAISSEMENT
// ======================================================
// Le montant dû est toujours recalculé côté serveur depuis le passage
// (0 si passage offert). Le numéro de reçu est attribué ici, une seule
// fois, jamais régénéré.
func (h *PaiementHandler) Create(c *gin.Context) {
	var req CreatePaiementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpresp.FailStatus(c, http.StatusBadRequest, "Requête invalide.")
		return
	}

	mode := req.ModePaiement
	if mode == "" {
		mode = models.ModeEspeces
	}
	if !models.ValidPaymentMode(mode) {
		httpresp.Fail(c, httperr.Validation("mode_invalide",
			"Mode de paiement inconnu : "+mode))
		return
	}
	if req.MontantPaye < 0 {
		httpresp.Fail(c, httperr.Validation("montant_invalide",
			"Le montant payé ne peut pas être négatif."))
		return
	}

	var paiement models.Paiement
	now := time.Now()

	err := h.db.Transaction(func(tx *gorm.DB) error {

		var passage models.Passage
		if ferr := tx.Preload("Prestations").
			First(&passage, req.PassageID).Error; ferr != nil {
			return httperr.FromDB(ferr, "passage_not_found", "Passage non trouvé.")
		}

		var existing models.Paiement
		ferr := tx.Where("passage_id = ? AND statut <> ?",
			passage.ID, models.PaiementAnnule).First(&existing).Error
		if ferr == nil {
			return httperr.Conflict("paiement_existant",
				"Ce passage est déjà payé (reçu "+existing.NumeroRecu+").")
		}
		if ferr != gorm.ErrRecordNotFound {
			return httperr.Storage(ferr)
		}

		montantTotal := passage.MontantTotal()
		statut := models.PaiementValide
		if req.MontantPaye < montantTotal {
			statut = models.PaiementEnAttente
		}

		paiement = models.Paiement{
			PassageID:    passage.ID,
			MontantTotal: montantTotal,
			MontantPaye:  req.MontantPaye,
			ModePaiement: mode,
			Statut:       statut,
			Notes:        req.Notes,
			DatePaiement: now,
			NumeroRecu:   codegen.NewReceiptNumber(now),
		}
		if cerr := tx.Create(&paiement).Error; cerr != nil {
			return httperr.FromDB(cerr, "paiement_not_found", "Paiement non trouvé.")
		}
		return nil
	})
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	h.audit.Dispatch(audit.Event{
		UserID:   middleware.CurrentUserID(c),
		Action:   "paiement_cree",
		Entity:   "paiement",
		EntityID: &paiement.ID,
		Metadata: gin.H{
			"numero_recu":   paiement.NumeroRecu,
			"montant_total": paiement.MontantTotal,
			"montant_paye":  paiement.MontantPaye,
		},
	})
	httpresp.Created(c, "Paiement enregistré.", paiement)
}

// ======================================================
// DÉTAIL
// ======================================================
func (h *PaiementHandler) Show(c *gin.Context) {
	paiement, err := h.find(c)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, paiement)
}

// ======================================================
// ANNULATION
// ======================================================
// Le paiement annulé reste en base (traçabilité) ; le passage redevient
// encaissable.
func (h *PaiementHandler) Annuler(c *gin.Context) {
	paiement, err := h.find(c)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	if paiement.Statut == models.PaiementAnnule {
		httpresp.Fail(c, httperr.Conflict("deja_annule",
			"Ce paiement est déjà annulé."))
		return
	}

	if serr := h.db.Model(paiement).
		Update("statut", models.PaiementAnnule).Error; serr != nil {
		httpresp.Fail(c, httperr.Storage(serr))
		return
	}
	paiement.Statut = models.PaiementAnnule

	h.audit.Dispatch(audit.Event{
		UserID:   middleware.CurrentUserID(c),
		Action:   "paiement_annule",
		Entity:   "paiement",
		EntityID: &paiement.ID,
		Metadata: gin.H{"numero_recu": paiement.NumeroRecu},
	})
	httpresp.OKMessage(c, "Paiement annulé.", paiement)
}

// ======================================================
// DONNÉES DE REÇU
// ======================================================
func (h *PaiementHandler) RecuData(c *gin.Context) {
	paiement, err := h.find(c)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, dto.BuildRecu(paiement, h.config.Salon))
}

// --------- Helpers ---------

func (h *PaiementHandler) find(c *gin.Context) (*models.Paiement, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}

	var paiement models.Paiement
	if err := h.db.
		Preload("Passage.Client").
		Preload("Passage.Prestations.Prestation").
		Preload("Passage.Prestations.Coiffeur").
		First(&paiement, id).Error; err != nil {
		return nil, httperr.FromDB(err, "paiement_not_found", "Paiement non trouvé.")
	}
	return &paiement, nil
}

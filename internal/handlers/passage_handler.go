package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/salonci/salon-pos/internal/config"
	domain "github.com/salonci/salon-pos/internal/domain/visit"
	"github.com/salonci/salon-pos/internal/httperr"
	"github.com/salonci/salon-pos/internal/httpresp"
	"github.com/salonci/salon-pos/internal/middleware"
	"github.com/salonci/salon-pos/internal/models"
	"github.com/salonci/salon-pos/internal/timezone"
	visituc "github.com/salonci/salon-pos/internal/usecase/visit"
)

type PassageHandler struct {
	db       *gorm.DB
	config   *config.Config
	repo     domain.Repository
	create   *visituc.CreateVisit
	remove   *visituc.DeleteVisit
	fidelity *visituc.CheckFidelity
}

func NewPassageHandler(
	db *gorm.DB,
	cfg *config.Config,
	repo domain.Repository,
	create *visituc.CreateVisit,
	remove *visituc.DeleteVisit,
	fidelity *visituc.CheckFidelity,
) *PassageHandler {
	return &PassageHandler{
		db:       db,
		config:   cfg,
		repo:     repo,
		create:   create,
		remove:   remove,
		fidelity: fidelity,
	}
}

// --------- Requests ---------

type CreatePassageRequest struct {
	ClientID    uint       `json:"client_id" binding:"required"`
	DatePassage *time.Time `json:"date_passage"`
	Notes       string     `json:"notes"`
	Prestations []struct {
		PrestationID uint  `json:"prestation_id" binding:"required"`
		Quantite     int   `json:"quantite"`
		CoiffeurID   *uint `json:"coiffeur_id"`
	} `json:"prestations" binding:"required"`
}

// ======================================================
// LISTE (filtres date / client)
// ======================================================
func (h *PassageHandler) List(c *gin.Context) {
	q := h.db.Model(&models.Passage{}).
		Preload("Client").
		Preload("Prestations.Prestation").
		Preload("Paiement")

	if clientID := c.Query("client_id"); clientID != "" {
		q = q.Where("client_id = ?", clientID)
	}
	if date := c.Query("date"); date != "" {
		// Les bornes de journée suivent le fuseau du salon, pas UTC.
		loc := timezone.Location(h.config.Salon.Timezone)
		day, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			httpresp.Fail(c, httperr.Validation("date_invalide",
				"Format de date attendu : AAAA-MM-JJ."))
			return
		}
		q = q.Where("date_passage >= ? AND date_passage < ?",
			day, day.AddDate(0, 0, 1))
	}

	var passages []models.Passage
	if err := q.Order("date_passage DESC, id DESC").Find(&passages).Error; err != nil {
		httpresp.Fail(c, httperr.Storage(err))
		return
	}
	httpresp.OK(c, passages)
}

// ======================================================
// CRÉATION
// ======================================================
func (h *PassageHandler) Create(c *gin.Context) {
	var req CreatePassageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpresp.FailStatus(c, http.StatusBadRequest, "Requête invalide.")
		return
	}

	items := make([]domain.Item, 0, len(req.Prestations))
	for _, p := range req.Prestations {
		items = append(items, domain.Item{
			PrestationID: p.PrestationID,
			Quantite:     p.Quantite,
			CoiffeurID:   p.CoiffeurID,
		})
	}

	result, err := h.create.Execute(c.Request.Context(), middleware.CurrentUserID(c),
		domain.CreateInput{
			ClientID:    req.ClientID,
			Items:       items,
			DatePassage: req.DatePassage,
			Notes:       req.Notes,
		})
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	message := "Passage enregistré."
	if result.EstGratuit {
		message = "Passage enregistré — offert par la carte de fidélité !"
	}
	httpresp.Created(c, message, result)
}

// ======================================================
// DÉTAIL
// ======================================================
func (h *PassageHandler) Show(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	passage, err := h.repo.GetPassage(c.Request.Context(), id)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	httpresp.OK(c, gin.H{
		"passage":           passage,
		"montant_total":     passage.MontantTotal(),
		"montant_theorique": passage.MontantTheorique(),
	})
}

// ======================================================
// SUPPRESSION + RENUMÉROTATION
// ======================================================
func (h *PassageHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	result, err := h.remove.Execute(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OKMessage(c, "Passage supprimé, historique renuméroté.", result)
}

// ======================================================
// HISTORIQUE D'UN CLIENT
// ======================================================
func (h *PassageHandler) Historique(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	client, err := h.repo.GetClient(c.Request.Context(), id)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	passages, err := h.repo.ListPassagesByClient(c.Request.Context(), id)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	httpresp.OK(c, gin.H{
		"client":   client,
		"passages": passages,
	})
}

// ======================================================
// ÉLIGIBILITÉ FIDÉLITÉ
// ======================================================
func (h *PassageHandler) CheckFidelite(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	status, err := h.fidelity.Execute(c.Request.Context(), id)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, status)
}

// --------- Helpers ---------

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, httperr.Validation("id_invalide", "Identifiant invalide.")
	}
	return uint(id), nil
}

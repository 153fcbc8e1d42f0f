package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/salonci/salon-pos/internal/audit"
	"github.com/salonci/salon-pos/internal/cache"
	"github.com/salonci/salon-pos/internal/httperr"
	"github.com/salonci/salon-pos/internal/httpresp"
	"github.com/salonci/salon-pos/internal/middleware"
	"github.com/salonci/salon-pos/internal/models"
)

type PrestationHandler struct {
	db        *gorm.DB
	catalogue *cache.Catalogue
	audit     *audit.Dispatcher
}

func NewPrestationHandler(
	db *gorm.DB,
	catalogue *cache.Catalogue,
	auditDispatcher *audit.Dispatcher,
) *PrestationHandler {
	return &PrestationHandler{db: db, catalogue: catalogue, audit: auditDispatcher}
}

// --------- Requests ---------

type CreatePrestationRequest struct {
	Libelle      string   `json:"libelle" binding:"required"`
	Prix         *float64 `json:"prix" binding:"required"`
	Description  string   `json:"description"`
	Ordre        int      `json:"ordre"`
	DureeEstimee *int     `json:"duree_estimee"`
	Specialite   *string  `json:"specialite"`
}

type UpdatePrestationRequest struct {
	Libelle      *string  `json:"libelle"`
	Prix         *float64 `json:"prix"`
	Description  *string  `json:"description"`
	Ordre        *int     `json:"ordre"`
	DureeEstimee *int     `json:"duree_estimee"`
	Specialite   *string  `json:"specialite"`
}

type CoiffeursRequest struct {
	CoiffeurIDs []uint `json:"coiffeur_ids" binding:"required"`
}

// ======================================================
// CATALOGUE
// ======================================================
// Le catalogue actif (écran de caisse) passe par le cache redis ;
// la liste complète (gestion) lit toujours la base.
func (h *PrestationHandler) List(c *gin.Context) {
	actifSeul := c.Query("actif") == "true"

	if actifSeul {
		if cached, ok := h.catalogue.Get(c.Request.Context()); ok {
			httpresp.OK(c, cached)
			return
		}
	}

	q := h.db.Model(&models.Prestation{}).Preload("Coiffeurs")
	if actifSeul {
		q = q.Where("actif = ?", true)
	}

	var prestations []models.Prestation
	if err := q.Order("ordre ASC, libelle ASC").Find(&prestations).Error; err != nil {
		httpresp.Fail(c, httperr.Storage(err))
		return
	}

	if actifSeul {
		h.catalogue.Set(c.Request.Context(), prestations)
	}
	httpresp.OK(c, prestations)
}

// ======================================================
// CRÉATION
// ======================================================
func (h *PrestationHandler) Create(c *gin.Context) {
	var req CreatePrestationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpresp.FailStatus(c, http.StatusBadRequest, "Requête invalide.")
		return
	}
	if *req.Prix < 0 {
		httpresp.Fail(c, httperr.Validation("prix_invalide",
			"Le prix ne peut pas être négatif."))
		return
	}

	prestation := models.Prestation{
		Libelle:      strings.TrimSpace(req.Libelle),
		Prix:         *req.Prix,
		Description:  req.Description,
		Actif:        true,
		Ordre:        req.Ordre,
		DureeEstimee: req.DureeEstimee,
		Specialite:   req.Specialite,
	}
	if err := h.db.Create(&prestation).Error; err != nil {
		httpresp.Fail(c, httperr.FromDB(err, "prestation_not_found", "Prestation non trouvée."))
		return
	}

	h.catalogue.Invalidate(c.Request.Context())
	h.audit.Dispatch(audit.Event{
		UserID:   middleware.CurrentUserID(c),
		Action:   "prestation_creee",
		Entity:   "prestation",
		EntityID: &prestation.ID,
		Metadata: gin.H{"libelle": prestation.Libelle, "prix": prestation.Prix},
	})
	httpresp.Created(c, "Prestation créée.", prestation)
}

// ======================================================
// FICHE
// ======================================================
func (h *PrestationHandler) Show(c *gin.Context) {
	prestation, err := h.find(c)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, prestation)
}

// ======================================================
// MODIFICATION
// ======================================================
// Le changement de prix ne touche jamais les passages passés :
// les lignes de passage portent leur prix appliqué figé.
func (h *PrestationHandler) Update(c *gin.Context) {
	prestation, err := h.find(c)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	var req UpdatePrestationRequest
	if berr := c.ShouldBindJSON(&req); berr != nil {
		httpresp.FailStatus(c, http.StatusBadRequest, "Requête invalide.")
		return
	}

	if req.Libelle != nil {
		prestation.Libelle = strings.TrimSpace(*req.Libelle)
	}
	if req.Prix != nil {
		if *req.Prix < 0 {
			httpresp.Fail(c, httperr.Validation("prix_invalide",
				"Le prix ne peut pas être négatif."))
			return
		}
		prestation.Prix = *req.Prix
	}
	if req.Description != nil {
		prestation.Description = *req.Description
	}
	if req.Ordre != nil {
		prestation.Ordre = *req.Ordre
	}
	if req.DureeEstimee != nil {
		prestation.DureeEstimee = req.DureeEstimee
	}
	if req.Specialite != nil {
		prestation.Specialite = req.Specialite
	}

	if serr := h.db.Save(prestation).Error; serr != nil {
		httpresp.Fail(c, httperr.FromDB(serr, "prestation_not_found", "Prestation non trouvée."))
		return
	}

	h.catalogue.Invalidate(c.Request.Context())
	h.audit.Dispatch(audit.Event{
		UserID:   middleware.CurrentUserID(c),
		Action:   "prestation_modifiee",
		Entity:   "prestation",
		EntityID: &prestation.ID,
	})
	httpresp.OKMessage(c, "Prestation modifiée.", prestation)
}

// ======================================================
// ACTIVATION / DÉSACTIVATION
// ======================================================
// Désactiver retire la prestation du catalogue sans toucher à
// l'historique des passages qui la référencent.
func (h *PrestationHandler) ToggleActif(c *gin.Context) {
	prestation, err := h.find(c)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	prestation.Actif = !prestation.Actif
	if serr := h.db.Model(prestation).
		Update("actif", prestation.Actif).Error; serr != nil {
		httpresp.Fail(c, httperr.Storage(serr))
		return
	}

	h.catalogue.Invalidate(c.Request.Context())
	h.audit.Dispatch(audit.Event{
		UserID:   middleware.CurrentUserID(c),
		Action:   "prestation_basculee",
		Entity:   "prestation",
		EntityID: &prestation.ID,
		Metadata: gin.H{"actif": prestation.Actif},
	})
	httpresp.OKMessage(c, "Prestation mise à jour.", prestation)
}

// ======================================================
// RATTACHEMENT DES COIFFEURS
// ======================================================
func (h *PrestationHandler) SetCoiffeurs(c *gin.Context) {
	prestation, err := h.find(c)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	var req CoiffeursRequest
	if berr := c.ShouldBindJSON(&req); berr != nil {
		httpresp.FailStatus(c, http.StatusBadRequest, "Requête invalide.")
		return
	}

	var coiffeurs []models.User
	if len(req.CoiffeurIDs) > 0 {
		if serr := h.db.Where("id IN ? AND role = ?",
			req.CoiffeurIDs, models.RoleCoiffeur).
			Find(&coiffeurs).Error; serr != nil {
			httpresp.Fail(c, httperr.Storage(serr))
			return
		}
		if len(coiffeurs) != len(req.CoiffeurIDs) {
			httpresp.Fail(c, httperr.Validation("coiffeur_invalide",
				"Un des identifiants ne correspond pas à un coiffeur."))
			return
		}
	}

	if serr := h.db.Model(prestation).
		Association("Coiffeurs").Replace(coiffeurs); serr != nil {
		httpresp.Fail(c, httperr.Storage(serr))
		return
	}

	h.catalogue.Invalidate(c.Request.Context())
	httpresp.OKMessage(c, "Coiffeurs rattachés.", gin.H{
		"prestation_id": prestation.ID,
		"coiffeurs":     coiffeurs,
	})
}

// --------- Helpers ---------

func (h *PrestationHandler) find(c *gin.Context) (*models.Prestation, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}

	var prestation models.Prestation
	if err := h.db.Preload("Coiffeurs").First(&prestation, id).Error; err != nil {
		return nil, httperr.FromDB(err, "prestation_not_found", "Prestation non trouvée.")
	}
	return &prestation, nil
}

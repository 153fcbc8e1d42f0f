package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/salonci/salon-pos/internal/audit"
	"github.com/salonci/salon-pos/internal/codegen"
	"github.com/salonci/salon-pos/internal/httperr"
	"github.com/salonci/salon-pos/internal/httpresp"
	"github.com/salonci/salon-pos/internal/middleware"
	"github.com/salonci/salon-pos/internal/models"
)

type ClientHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewClientHandler(db *gorm.DB, auditDispatcher *audit.Dispatcher) *ClientHandler {
	return &ClientHandler{db: db, audit: auditDispatcher}
}

// --------- Requests ---------

type CreateClientRequest struct {
	Nom       string  `json:"nom" binding:"required"`
	Prenom    string  `json:"prenom" binding:"required"`
	Telephone *string `json:"telephone"`
}

type UpdateClientRequest struct {
	Nom       *string `json:"nom"`
	Prenom    *string `json:"prenom"`
	Telephone *string `json:"telephone"`
}

// ======================================================
// LISTE + RECHERCHE
// ======================================================
func (h *ClientHandler) List(c *gin.Context) {
	query := strings.ToLower(strings.TrimSpace(c.Query("query")))
	statut := c.Query("statut")

	q := h.db.Model(&models.Client{})

	if statut != "" {
		q = q.Where("statut = ?", statut)
	}
	if query != "" {
		like := "%" + query + "%"
		q = q.Where(
			"LOWER(nom) LIKE ? OR LOWER(prenom) LIKE ? OR telephone LIKE ? OR LOWER(code_client) LIKE ?",
			like, like, like, like,
		)
	}

	var clients []models.Client
	if err := q.Order("created_at DESC").Find(&clients).Error; err != nil {
		httpresp.Fail(c, httperr.Storage(err))
		return
	}
	httpresp.OK(c, clients)
}

// ======================================================
// CRÉATION (code généré côté serveur)
// ======================================================
func (h *ClientHandler) Create(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpresp.FailStatus(c, http.StatusBadRequest, "Requête invalide.")
		return
	}

	if req.Telephone != nil && *req.Telephone == "" {
		req.Telephone = nil
	}

	var client models.Client
	now := time.Now()

	err := h.db.Transaction(func(tx *gorm.DB) error {

		if req.Telephone != nil {
			var count int64
			if err := tx.Model(&models.Client{}).
				Where("telephone = ?", *req.Telephone).
				Count(&count).Error; err != nil {
				return httperr.Storage(err)
			}
			if count > 0 {
				return httperr.Conflict("telephone_existant",
					"Un client avec ce téléphone existe déjà.")
			}
		}

		code, err := codegen.NextClientCode(tx, now)
		if err != nil {
			return err
		}

		client = models.Client{
			Nom:        strings.TrimSpace(req.Nom),
			Prenom:     strings.TrimSpace(req.Prenom),
			Telephone:  req.Telephone,
			CodeClient: code,
			Statut:     models.ClientActif,
		}
		if err := tx.Create(&client).Error; err != nil {
			return httperr.FromDB(err, "client_not_found", "Client non trouvé.")
		}
		return nil
	})
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	h.audit.Dispatch(audit.Event{
		UserID:   middleware.CurrentUserID(c),
		Action:   "client_cree",
		Entity:   "client",
		EntityID: &client.ID,
		Metadata: gin.H{"code_client": client.CodeClient},
	})

	httpresp.Created(c, "Client créé.", client)
}

// ======================================================
// APERÇU DU PROCHAIN CODE (sans réservation)
// ======================================================
func (h *ClientHandler) GenerateCode(c *gin.Context) {
	code, err := codegen.PreviewClientCode(h.db, time.Now())
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, gin.H{"code_client": code})
}

// ======================================================
// FICHE
// ======================================================
func (h *ClientHandler) Show(c *gin.Context) {
	client, err := h.find(c)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, client)
}

// ======================================================
// RECHERCHE PAR TÉLÉPHONE
// ======================================================
func (h *ClientHandler) SearchByPhone(c *gin.Context) {
	telephone := strings.TrimSpace(c.Param("telephone"))

	var client models.Client
	if err := h.db.Where("telephone = ?", telephone).First(&client).Error; err != nil {
		httpresp.Fail(c, httperr.FromDB(err, "client_not_found", "Client non trouvé."))
		return
	}
	httpresp.OK(c, client)
}

// ======================================================
// MODIFICATION
// ======================================================
func (h *ClientHandler) Update(c *gin.Context) {
	client, err := h.find(c)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	var req UpdateClientRequest
	if berr := c.ShouldBindJSON(&req); berr != nil {
		httpresp.FailStatus(c, http.StatusBadRequest, "Requête invalide.")
		return
	}

	if req.Nom != nil {
		client.Nom = strings.TrimSpace(*req.Nom)
	}
	if req.Prenom != nil {
		client.Prenom = strings.TrimSpace(*req.Prenom)
	}
	if req.Telephone != nil {
		if *req.Telephone == "" {
			client.Telephone = nil
		} else {
			client.Telephone = req.Telephone
		}
	}

	if serr := h.db.Save(client).Error; serr != nil {
		httpresp.Fail(c, httperr.FromDB(serr, "client_not_found", "Client non trouvé."))
		return
	}

	h.audit.Dispatch(audit.Event{
		UserID:   middleware.CurrentUserID(c),
		Action:   "client_modifie",
		Entity:   "client",
		EntityID: &client.ID,
	})
	httpresp.OKMessage(c, "Client modifié.", client)
}

// ======================================================
// ARCHIVAGE / PURGE
// ======================================================
// Par défaut le client est archivé : il reste consultable et son
// historique est conservé. Avec ?force=true, purge définitive du
// client et de tout son historique.
func (h *ClientHandler) Delete(c *gin.Context) {
	client, err := h.find(c)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	force, _ := strconv.ParseBool(c.Query("force"))

	if !force {
		if uerr := h.db.Model(client).
			Update("statut", models.ClientArchive).Error; uerr != nil {
			httpresp.Fail(c, httperr.Storage(uerr))
			return
		}
		h.audit.Dispatch(audit.Event{
			UserID:   middleware.CurrentUserID(c),
			Action:   "client_archive",
			Entity:   "client",
			EntityID: &client.ID,
		})
		httpresp.OKMessage(c, "Client archivé.", nil)
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var passageIDs []uint
		if serr := tx.Model(&models.Passage{}).Unscoped().
			Where("client_id = ?", client.ID).
			Pluck("id", &passageIDs).Error; serr != nil {
			return httperr.Storage(serr)
		}

		if len(passageIDs) > 0 {
			if serr := tx.Unscoped().
				Where("passage_id IN ?", passageIDs).
				Delete(&models.Paiement{}).Error; serr != nil {
				return httperr.Storage(serr)
			}
			if serr := tx.
				Where("passage_id IN ?", passageIDs).
				Delete(&models.PassagePrestation{}).Error; serr != nil {
				return httperr.Storage(serr)
			}
			if serr := tx.Unscoped().
				Where("client_id = ?", client.ID).
				Delete(&models.Passage{}).Error; serr != nil {
				return httperr.Storage(serr)
			}
		}

		if serr := tx.Unscoped().Delete(client).Error; serr != nil {
			return httperr.Storage(serr)
		}
		return nil
	})
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	h.audit.Dispatch(audit.Event{
		UserID:   middleware.CurrentUserID(c),
		Action:   "client_purge",
		Entity:   "client",
		EntityID: &client.ID,
		Metadata: gin.H{"code_client": client.CodeClient},
	})
	httpresp.OKMessage(c, "Client supprimé définitivement.", nil)
}

// --------- Helpers ---------

func (h *ClientHandler) find(c *gin.Context) (*models.Client, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return nil, httperr.Validation("id_invalide", "Identifiant invalide.")
	}

	var client models.Client
	if err := h.db.First(&client, uint(id)).Error; err != nil {
		return nil, httperr.FromDB(err, "client_not_found", "Client non trouvé.")
	}
	return &client, nil
}

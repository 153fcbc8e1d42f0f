package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/salonci/salon-pos/internal/audit"
	"github.com/salonci/salon-pos/internal/httperr"
	"github.com/salonci/salon-pos/internal/httpresp"
	"github.com/salonci/salon-pos/internal/middleware"
	"github.com/salonci/salon-pos/internal/models"
)

type UserHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewUserHandler(db *gorm.DB, auditDispatcher *audit.Dispatcher) *UserHandler {
	return &UserHandler{db: db, audit: auditDispatcher}
}

// --------- Requests ---------

type CreateUserRequest struct {
	Nom        string   `json:"nom" binding:"required"`
	Prenom     string   `json:"prenom" binding:"required"`
	Role       string   `json:"role" binding:"required"`
	Email      *string  `json:"email"`
	Password   *string  `json:"password"`
	Telephone  *string  `json:"telephone"`
	Specialite *string  `json:"specialite"`
	Commission *float64 `json:"commission"`
}

type UpdateUserRequest struct {
	Nom        *string  `json:"nom"`
	Prenom     *string  `json:"prenom"`
	Telephone  *string  `json:"telephone"`
	Specialite *string  `json:"specialite"`
	Commission *float64 `json:"commission"`
	Password   *string  `json:"password"`
}

// ======================================================
// LISTE DU PERSONNEL
// ======================================================
func (h *UserHandler) List(c *gin.Context) {
	q := h.db.Model(&models.User{})
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}

	var users []models.User
	if err := q.Order("nom ASC, prenom ASC").Find(&users).Error; err != nil {
		httpresp.Fail(c, httperr.Storage(err))
		return
	}
	httpresp.OK(c, users)
}

// ======================================================
// LISTE DES COIFFEURS (écran de caisse, tous rôles)
// ======================================================
func (h *UserHandler) ListeCoiffeurs(c *gin.Context) {
	var coiffeurs []models.User
	if err := h.db.
		Where("role = ? AND actif = ?", models.RoleCoiffeur, true).
		Order("nom ASC, prenom ASC").
		Find(&coiffeurs).Error; err != nil {
		httpresp.Fail(c, httperr.Storage(err))
		return
	}
	httpresp.OK(c, coiffeurs)
}

// ======================================================
// CRÉATION
// ======================================================
// Les coiffeurs sont de simples fiches : pas de compte de connexion.
// Tout autre rôle exige email + mot de passe.
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpresp.FailStatus(c, http.StatusBadRequest, "Requête invalide.")
		return
	}

	if !models.ValidRole(req.Role) {
		httpresp.Fail(c, httperr.Validation("role_invalide",
			"Rôle inconnu : "+req.Role))
		return
	}

	user := models.User{
		Nom:        strings.TrimSpace(req.Nom),
		Prenom:     strings.TrimSpace(req.Prenom),
		Role:       req.Role,
		Telephone:  req.Telephone,
		Actif:      true,
		Specialite: req.Specialite,
		Commission: req.Commission,
	}

	if user.NeedsAccount() {
		if req.Email == nil || *req.Email == "" ||
			req.Password == nil || len(*req.Password) < 6 {
			httpresp.Fail(c, httperr.ValidationFields("compte_requis",
				"Email et mot de passe (6 caractères minimum) sont requis pour ce rôle.",
				map[string]string{
					"email":    "requis",
					"password": "6 caractères minimum",
				}))
			return
		}

		email := strings.ToLower(strings.TrimSpace(*req.Email))
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			httpresp.Fail(c, httperr.Storage(err))
			return
		}
		hash := string(hashed)
		user.Email = &email
		user.PasswordHash = &hash
	}

	if err := h.db.Create(&user).Error; err != nil {
		httpresp.Fail(c, httperr.FromDB(err, "user_not_found", "Utilisateur non trouvé."))
		return
	}

	h.audit.Dispatch(audit.Event{
		UserID:   middleware.CurrentUserID(c),
		Action:   "user_cree",
		Entity:   "user",
		EntityID: &user.ID,
		Metadata: gin.H{"role": user.Role},
	})
	httpresp.Created(c, "Utilisateur créé.", user)
}

// ======================================================
// FICHE
// ======================================================
func (h *UserHandler) Show(c *gin.Context) {
	user, err := h.find(c)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}
	httpresp.OK(c, user)
}

// ======================================================
// MODIFICATION
// ======================================================
// Le rôle est immuable : un coiffeur ne devient pas caissier, on crée
// une nouvelle fiche.
func (h *UserHandler) Update(c *gin.Context) {
	user, err := h.find(c)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	var req UpdateUserRequest
	if berr := c.ShouldBindJSON(&req); berr != nil {
		httpresp.FailStatus(c, http.StatusBadRequest, "Requête invalide.")
		return
	}

	if req.Nom != nil {
		user.Nom = strings.TrimSpace(*req.Nom)
	}
	if req.Prenom != nil {
		user.Prenom = strings.TrimSpace(*req.Prenom)
	}
	if req.Telephone != nil {
		user.Telephone = req.Telephone
	}
	if req.Specialite != nil {
		user.Specialite = req.Specialite
	}
	if req.Commission != nil {
		user.Commission = req.Commission
	}
	if req.Password != nil {
		if !user.NeedsAccount() {
			httpresp.Fail(c, httperr.Validation("pas_de_compte",
				"Ce rôle n'a pas de compte de connexion."))
			return
		}
		if len(*req.Password) < 6 {
			httpresp.Fail(c, httperr.Validation("password_court",
				"Le mot de passe doit faire 6 caractères minimum."))
			return
		}
		hashed, herr := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if herr != nil {
			httpresp.Fail(c, httperr.Storage(herr))
			return
		}
		hash := string(hashed)
		user.PasswordHash = &hash
	}

	if serr := h.db.Save(user).Error; serr != nil {
		httpresp.Fail(c, httperr.FromDB(serr, "user_not_found", "Utilisateur non trouvé."))
		return
	}

	h.audit.Dispatch(audit.Event{
		UserID:   middleware.CurrentUserID(c),
		Action:   "user_modifie",
		Entity:   "user",
		EntityID: &user.ID,
	})
	httpresp.OKMessage(c, "Utilisateur modifié.", user)
}

// ======================================================
// ACTIVATION / DÉSACTIVATION
// ======================================================
func (h *UserHandler) ToggleActif(c *gin.Context) {
	user, err := h.find(c)
	if err != nil {
		httpresp.Fail(c, err)
		return
	}

	// On ne se désactive pas soi-même.
	if current := middleware.CurrentUserID(c); current != nil && *current == user.ID {
		httpresp.Fail(c, httperr.Validation("auto_desactivation",
			"Impossible de désactiver son propre compte."))
		return
	}

	user.Actif = !user.Actif
	if serr := h.db.Model(user).Update("actif", user.Actif).Error; serr != nil {
		httpresp.Fail(c, httperr.Storage(serr))
		return
	}

	h.audit.Dispatch(audit.Event{
		UserID:   middleware.CurrentUserID(c),
		Action:   "user_bascule",
		Entity:   "user",
		EntityID: &user.ID,
		Metadata: gin.H{"actif": user.Actif},
	})
	httpresp.OKMessage(c, "Utilisateur mis à jour.", user)
}

// --------- Helpers ---------

func (h *UserHandler) find(c *gin.Context) (*models.User, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		return nil, httperr.FromDB(err, "user_not_found", "Utilisateur non trouvé.")
	}
	return &user, nil
}

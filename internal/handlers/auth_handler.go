package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/salonci/salon-pos/internal/config"
	"github.com/salonci/salon-pos/internal/httpresp"
	"github.com/salonci/salon-pos/internal/middleware"
	"github.com/salonci/salon-pos/internal/models"
)

type AuthHandler struct {
	db     *gorm.DB
	config *config.Config
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, config: cfg}
}

// --------- Requests ---------

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// --------- Handlers ---------

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpresp.FailStatus(c, http.StatusBadRequest, "Requête invalide.")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			httpresp.FailStatus(c, http.StatusUnauthorized, "Identifiants invalides.")
			return
		}
		httpresp.FailStatus(c, http.StatusInternalServerError, "Erreur interne.")
		return
	}

	if !user.Actif {
		httpresp.FailStatus(c, http.StatusUnauthorized, "Compte désactivé.")
		return
	}
	if user.PasswordHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)) != nil {
		httpresp.FailStatus(c, http.StatusUnauthorized, "Identifiants invalides.")
		return
	}

	token, err := h.generateToken(&user)
	if err != nil {
		httpresp.FailStatus(c, http.StatusInternalServerError, "Erreur interne.")
		return
	}

	httpresp.OK(c, gin.H{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		httpresp.FailStatus(c, http.StatusUnauthorized, "Utilisateur inconnu.")
		return
	}
	httpresp.OK(c, user)
}

// --------- JWT ---------

func (h *AuthHandler) generateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.config.JWTSecret))
}

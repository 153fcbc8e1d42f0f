package httpresp

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salonci/salon-pos/internal/httperr"
)

// Envelope est le format unique de réponse de l'API.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func OKMessage(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Fail écrit l'enveloppe d'échec à partir d'une erreur typée.
// Toute erreur hors taxonomie est traitée comme une erreur interne.
func Fail(c *gin.Context, err error) {
	var e *httperr.Error
	if !errors.As(err, &e) {
		c.JSON(http.StatusInternalServerError, Envelope{
			Success: false,
			Message: "Erreur interne.",
		})
		return
	}
	c.JSON(e.Status(), Envelope{
		Success: false,
		Message: e.Message,
		Errors:  e.Fields,
	})
}

func FailStatus(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: false, Message: message})
}

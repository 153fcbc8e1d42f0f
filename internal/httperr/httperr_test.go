package httperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusUnprocessableEntity},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindAuthorization, http.StatusForbidden},
		{KindGenerationExhausted, http.StatusInternalServerError},
		{KindStorage, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		e := &Error{Kind: tt.kind, Code: "x"}
		if got := e.Status(); got != tt.want {
			t.Errorf("Status(%d) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestIsMatchesWrappedErrors(t *testing.T) {
	err := fmt.Errorf("contexte: %w", NotFound("client_not_found", "Client non trouvé."))
	if !Is(err, KindNotFound) {
		t.Error("kind non reconnu à travers un wrap")
	}
	if Is(err, KindConflict) {
		t.Error("kind conflict reconnu à tort")
	}
	if Is(errors.New("autre"), KindNotFound) {
		t.Error("erreur quelconque reconnue comme not found")
	}
	if Is(nil, KindNotFound) {
		t.Error("nil reconnu comme not found")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("code pg 23505 non reconnu")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("violation de clé étrangère prise pour une unicité")
	}
	if !IsUniqueViolation(gorm.ErrDuplicatedKey) {
		t.Error("gorm.ErrDuplicatedKey non reconnu")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: clients.telephone")) {
		t.Error("message sqlite non reconnu")
	}
	if IsUniqueViolation(nil) {
		t.Error("nil reconnu comme violation")
	}
}

func TestFromDB(t *testing.T) {
	if e := FromDB(gorm.ErrRecordNotFound, "client_not_found", "Client non trouvé."); e.Kind != KindNotFound || e.Code != "client_not_found" {
		t.Errorf("record not found mal converti : %+v", e)
	}
	if e := FromDB(gorm.ErrDuplicatedKey, "x", "y"); e.Kind != KindConflict {
		t.Errorf("duplicate key mal converti : %+v", e)
	}
	if e := FromDB(errors.New("connexion perdue"), "x", "y"); e.Kind != KindStorage {
		t.Errorf("erreur inconnue mal convertie : %+v", e)
	}
}

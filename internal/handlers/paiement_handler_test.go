package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"go.uber.org/zap"

	"github.com/salonci/salon-pos/internal/audit"
	"github.com/salonci/salon-pos/internal/config"
	dbpkg "github.com/salonci/salon-pos/internal/db"
	visitdomain "github.com/salonci/salon-pos/internal/domain/visit"
	"github.com/salonci/salon-pos/internal/httpresp"
	"github.com/salonci/salon-pos/internal/infra/repository"
	"github.com/salonci/salon-pos/internal/models"
)

func newPaiementRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := dbpkg.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		Salon: config.SalonConfig{
			Nom:       "Salon Test",
			Adresse:   "Abidjan",
			Telephone: "+225 00 00 00 00",
		},
	}
	dispatcher := audit.NewDispatcher(audit.New(db), zap.NewNop())
	h := NewPaiementHandler(db, cfg, dispatcher)

	r := gin.New()
	r.POST("/paiements", h.Create)
	r.GET("/paiements/:id/recu", h.RecuData)
	return r, db
}

func seedPassage(t *testing.T, db *gorm.DB, gratuit bool) *models.Passage {
	t.Helper()

	client := models.Client{Nom: "Kouame", Prenom: "Adjoua", CodeClient: "C001-26", Statut: models.ClientActif}
	if err := db.Create(&client).Error; err != nil {
		t.Fatal(err)
	}
	prestation := models.Prestation{Libelle: "Brushing", Prix: 3000, Actif: true}
	if err := db.Create(&prestation).Error; err != nil {
		t.Fatal(err)
	}

	repo := repository.NewVisitGormRepository(db)
	numero := 1
	if gratuit {
		if err := db.Model(&client).Update("nombre_passages", 9).Error; err != nil {
			t.Fatal(err)
		}
		numero = 10
	}
	passage, err := repo.CreateVisit(context.Background(), visitdomain.CreateInput{
		ClientID: client.ID,
		Items:    []visitdomain.Item{{PrestationID: prestation.ID}},
	}, visitdomain.LoyaltyRule{Interval: 10, Actif: true})
	if err != nil {
		t.Fatal(err)
	}
	if passage.NumeroPassage != numero {
		t.Fatalf("numero = %d, want %d", passage.NumeroPassage, numero)
	}
	return passage
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreatePaiementComputesAmountServerSide(t *testing.T) {
	r, db := newPaiementRouter(t)
	passage := seedPassage(t, db, false)

	w := postJSON(t, r, "/paiements", gin.H{
		"passage_id":    passage.ID,
		"montant_paye":  3000,
		"mode_paiement": models.ModeEspeces,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var env httpresp.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if !env.Success {
		t.Fatalf("success = false : %s", env.Message)
	}

	var paiement models.Paiement
	if err := db.Where("passage_id = ?", passage.ID).First(&paiement).Error; err != nil {
		t.Fatal(err)
	}
	if paiement.MontantTotal != 3000 {
		t.Errorf("montant_total = %v, want 3000", paiement.MontantTotal)
	}
	if paiement.NumeroRecu == "" {
		t.Error("numero_recu manquant")
	}

	// Double encaissement refusé.
	w2 := postJSON(t, r, "/paiements", gin.H{
		"passage_id":   passage.ID,
		"montant_paye": 3000,
	})
	if w2.Code != http.StatusConflict {
		t.Errorf("double paiement : status = %d, want 409", w2.Code)
	}
}

func TestCreatePaiementFreePassageIsZero(t *testing.T) {
	r, db := newPaiementRouter(t)
	passage := seedPassage(t, db, true)

	w := postJSON(t, r, "/paiements", gin.H{
		"passage_id":   passage.ID,
		"montant_paye": 0,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var paiement models.Paiement
	if err := db.Where("passage_id = ?", passage.ID).First(&paiement).Error; err != nil {
		t.Fatal(err)
	}
	if paiement.MontantTotal != 0 {
		t.Errorf("montant_total = %v, want 0 (passage offert)", paiement.MontantTotal)
	}
	if paiement.Statut != models.PaiementValide {
		t.Errorf("statut = %q, want valide", paiement.Statut)
	}
}

func TestRecuDataIncludesSalonAndLines(t *testing.T) {
	r, db := newPaiementRouter(t)
	passage := seedPassage(t, db, false)

	w := postJSON(t, r, "/paiements", gin.H{
		"passage_id":   passage.ID,
		"montant_paye": 3000,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}

	var paiement models.Paiement
	if err := db.Where("passage_id = ?", passage.ID).First(&paiement).Error; err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet,
		"/paiements/"+itoa(paiement.ID)+"/recu", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var env struct {
		Success bool `json:"success"`
		Data    struct {
			NumeroRecu string `json:"numero_recu"`
			Salon      struct {
				Nom string `json:"nom"`
			} `json:"salon"`
			Client struct {
				CodeClient string `json:"code_client"`
			} `json:"client"`
			Lignes []struct {
				Libelle string  `json:"libelle"`
				Total   float64 `json:"total"`
			} `json:"lignes"`
			MontantTotal float64 `json:"montant_total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Data.NumeroRecu != paiement.NumeroRecu {
		t.Errorf("numero_recu = %q, want %q", env.Data.NumeroRecu, paiement.NumeroRecu)
	}
	if env.Data.Salon.Nom != "Salon Test" {
		t.Errorf("salon = %q", env.Data.Salon.Nom)
	}
	if env.Data.Client.CodeClient != "C001-26" {
		t.Errorf("code_client = %q", env.Data.Client.CodeClient)
	}
	if len(env.Data.Lignes) != 1 || env.Data.Lignes[0].Total != 3000 {
		t.Errorf("lignes = %+v", env.Data.Lignes)
	}
}

func itoa(id uint) string {
	return fmt.Sprint(id)
}

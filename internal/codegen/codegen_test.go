package codegen

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	dbpkg "github.com/salonci/salon-pos/internal/db"
	"github.com/salonci/salon-pos/internal/httperr"
	"github.com/salonci/salon-pos/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

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
	return db
}

func TestFormatClientCode(t *testing.T) {
	tests := []struct {
		seq, year int
		want      string
	}{
		{1, 2026, "C001-26"},
		{45, 2026, "C045-26"},
		{999, 2030, "C999-30"},
		{7, 2099, "C007-99"},
	}
	for _, tt := range tests {
		if got := FormatClientCode(tt.seq, tt.year); got != tt.want {
			t.Errorf("FormatClientCode(%d, %d) = %q, want %q", tt.seq, tt.year, got, tt.want)
		}
	}
}

func TestParseClientCode(t *testing.T) {
	seq, year, ok := ParseClientCode("C045-26")
	if !ok || seq != 45 || year != 26 {
		t.Errorf("ParseClientCode(C045-26) = (%d, %d, %v)", seq, year, ok)
	}

	for _, bad := range []string{"", "C45-26", "C045-2026", "X045-26", "C045"} {
		if _, _, ok := ParseClientCode(bad); ok {
			t.Errorf("ParseClientCode(%q) accepté", bad)
		}
	}
}

func TestNextClientCodeIncrements(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		var code string
		err := db.Transaction(func(tx *gorm.DB) error {
			var terr error
			code, terr = NextClientCode(tx, now)
			return terr
		})
		if err != nil {
			t.Fatal(err)
		}
		if want := FormatClientCode(i, 2026); code != want {
			t.Errorf("code %d = %q, want %q", i, code, want)
		}
	}
}

// Le compteur est global sur l'historique : un C045 d'une année
// précédente donne C046 l'année suivante, jamais un retour à C001.
func TestNextClientCodeSeedsFromHistory(t *testing.T) {
	db := newTestDB(t)

	for _, c := range []models.Client{
		{Nom: "A", Prenom: "A", CodeClient: "C012-24", Statut: models.ClientActif},
		{Nom: "B", Prenom: "B", CodeClient: "C045-25", Statut: models.ClientActif},
		{Nom: "C", Prenom: "C", CodeClient: "C003-26", Statut: models.ClientActif},
	} {
		row := c
		if err := db.Create(&row).Error; err != nil {
			t.Fatal(err)
		}
	}

	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	var code string
	err := db.Transaction(func(tx *gorm.DB) error {
		var terr error
		code, terr = NextClientCode(tx, now)
		return terr
	})
	if err != nil {
		t.Fatal(err)
	}
	if code != "C046-26" {
		t.Errorf("code = %q, want C046-26", code)
	}
}

func TestNextClientCodeExhausted(t *testing.T) {
	db := newTestDB(t)

	if err := db.Create(&models.CodeSequence{
		Scope:   ClientCodeScope,
		NextVal: 999,
	}).Error; err != nil {
		t.Fatal(err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := NextClientCode(tx, time.Now())
		return terr
	})
	if !httperr.Is(err, httperr.KindGenerationExhausted) {
		t.Fatalf("err = %v, want generation exhausted", err)
	}
}

func TestPreviewClientCodeDoesNotReserve(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	first, err := PreviewClientCode(db, now)
	if err != nil {
		t.Fatal(err)
	}
	second, err := PreviewClientCode(db, now)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("preview a réservé : %q puis %q", first, second)
	}
	if first != "C001-26" {
		t.Errorf("preview = %q, want C001-26", first)
	}

	// Après une réservation, l'aperçu pointe sur le prochain numéro libre,
	// jamais sur celui déjà attribué.
	err = db.Transaction(func(tx *gorm.DB) error {
		code, terr := NextClientCode(tx, now)
		if terr != nil {
			return terr
		}
		if code != "C001-26" {
			t.Errorf("réservation = %q, want C001-26", code)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	after, err := PreviewClientCode(db, now)
	if err != nil {
		t.Fatal(err)
	}
	if after != "C002-26" {
		t.Errorf("preview après réservation = %q, want C002-26", after)
	}
}

// Chaque réservation produit un code distinct et bien formé, y compris
// quand l'amorçage de la séquence a lieu au fil du lot.
func TestNextClientCodeBurstIsDistinct(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	seen := make(map[string]bool)
	for i := 0; i < 25; i++ {
		var code string
		err := db.Transaction(func(tx *gorm.DB) error {
			var terr error
			code, terr = NextClientCode(tx, now)
			return terr
		})
		if err != nil {
			t.Fatal(err)
		}
		if !clientCodeRe.MatchString(code) {
			t.Fatalf("code mal formé : %q", code)
		}
		if seen[code] {
			t.Fatalf("code %q attribué deux fois", code)
		}
		seen[code] = true
	}
	if len(seen) != 25 {
		t.Errorf("%d codes distincts, want 25", len(seen))
	}
}

func TestNewReceiptNumber(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)

	numero := NewReceiptNumber(now)
	if !strings.HasPrefix(numero, "REC-20260828-") {
		t.Errorf("numero = %q, want préfixe REC-20260828-", numero)
	}
	suffix := strings.TrimPrefix(numero, "REC-20260828-")
	if len(suffix) != 6 {
		t.Errorf("suffixe %q : longueur %d, want 6", suffix, len(suffix))
	}
	if suffix != strings.ToUpper(suffix) {
		t.Errorf("suffixe %q non majuscule", suffix)
	}

	if NewReceiptNumber(now) == numero {
		t.Error("deux numéros identiques générés")
	}
}

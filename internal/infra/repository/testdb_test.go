package repository

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	dbpkg "github.com/salonci/salon-pos/internal/db"
	"github.com/salonci/salon-pos/internal/models"
)

// newTestDB ouvre une base sqlite en mémoire, isolée par test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := dbpkg.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedClient(t *testing.T, db *gorm.DB, code string) *models.Client {
	t.Helper()

	client := &models.Client{
		Nom:        "Kouassi",
		Prenom:     "Awa",
		CodeClient: code,
		Statut:     models.ClientActif,
	}
	if err := db.Create(client).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return client
}

func seedPrestation(t *testing.T, db *gorm.DB, libelle string, prix float64) *models.Prestation {
	t.Helper()

	prestation := &models.Prestation{
		Libelle: libelle,
		Prix:    prix,
		Actif:   true,
	}
	if err := db.Create(prestation).Error; err != nil {
		t.Fatalf("seed prestation: %v", err)
	}
	return prestation
}

func seedUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()

	user := &models.User{
		Nom:    "Diabate",
		Prenom: "Moussa",
		Role:   role,
		Actif:  true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

package jobs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	dbpkg "github.com/salonci/salon-pos/internal/db"
	"github.com/salonci/salon-pos/internal/models"
)

func TestRecountSweepRepairsDrift(t *testing.T) {
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

	// Compteur faux exprès : 7 au lieu de 2.
	drifted := models.Client{
		Nom: "Kone", Prenom: "Mariam",
		CodeClient: "C001-26", Statut: models.ClientActif,
		NombrePassages: 7,
	}
	if err := db.Create(&drifted).Error; err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 2; i++ {
		p := models.Passage{
			ClientID:      drifted.ID,
			NumeroPassage: i,
			DatePassage:   time.Now(),
		}
		if err := db.Create(&p).Error; err != nil {
			t.Fatal(err)
		}
	}

	// Compteur juste : ne doit pas être touché.
	sain := models.Client{
		Nom: "Yao", Prenom: "Paul",
		CodeClient: "C002-26", Statut: models.ClientActif,
		NombrePassages: 0,
	}
	if err := db.Create(&sain).Error; err != nil {
		t.Fatal(err)
	}

	NewRecountSweep(db, zap.NewNop()).Run()

	var reloaded models.Client
	if err := db.First(&reloaded, drifted.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.NombrePassages != 2 {
		t.Errorf("nombre_passages = %d, want 2", reloaded.NombrePassages)
	}

	reloaded = models.Client{}
	if err := db.First(&reloaded, sain.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.NombrePassages != 0 {
		t.Errorf("client sain modifié : %d", reloaded.NombrePassages)
	}
}

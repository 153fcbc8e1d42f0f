package sync

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/salonci/salon-pos/internal/codegen"
	dbpkg "github.com/salonci/salon-pos/internal/db"
	visitdomain "github.com/salonci/salon-pos/internal/domain/visit"
	"github.com/salonci/salon-pos/internal/infra/repository"
	"github.com/salonci/salon-pos/internal/models"
)

func newSynchronizer(t *testing.T) (*Synchronizer, *gorm.DB) {
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

	rule := visitdomain.LoyaltyRule{Interval: 10, Actif: true}
	s := NewSynchronizer(db, repository.NewVisitGormRepository(db), rule, zap.NewNop())
	return s, db
}

func rawJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestSyncCreatesClientWithCode(t *testing.T) {
	s, db := newSynchronizer(t)

	result, err := s.Execute(context.Background(), Batch{
		DeviceID: "tablette-caisse-1",
		Items: []Item{{
			Entity:  EntityClient,
			Action:  ActionCreate,
			LocalID: "loc-1",
			Data: rawJSON(t, map[string]any{
				"nom": "Kouassi", "prenom": "Awa", "telephone": "0707070707",
			}),
		}},
	})
	if err != nil {
		t.Fatal(err)
	}

	res := result.Resultats["loc-1"]
	if res.Statut != models.SyncSucces {
		t.Fatalf("statut = %q (%s), want succes", res.Statut, res.Message)
	}
	if res.ServerID == nil {
		t.Fatal("server_id manquant")
	}

	var client models.Client
	if err := db.First(&client, *res.ServerID).Error; err != nil {
		t.Fatal(err)
	}
	if want := codegen.FormatClientCode(1, time.Now().Year()); client.CodeClient != want {
		t.Errorf("code_client = %q, want %s", client.CodeClient, want)
	}
	if client.DeviceID == nil || *client.DeviceID != "tablette-caisse-1" {
		t.Error("device_id non renseigné")
	}
	if client.SyncedAt == nil {
		t.Error("synced_at non renseigné")
	}
}

func TestSyncPhoneConflictReturnsExisting(t *testing.T) {
	s, db := newSynchronizer(t)

	phone := "0101010101"
	existing := models.Client{
		Nom: "Traore", Prenom: "Fatou",
		Telephone: &phone, CodeClient: "C001-26",
		Statut: models.ClientActif,
	}
	if err := db.Create(&existing).Error; err != nil {
		t.Fatal(err)
	}

	result, err := s.Execute(context.Background(), Batch{
		DeviceID: "tab-1",
		Items: []Item{{
			Entity:  EntityClient,
			Action:  ActionCreate,
			LocalID: "loc-9",
			Data: rawJSON(t, map[string]any{
				"nom": "Autre", "prenom": "Nom", "telephone": phone,
			}),
		}},
	})
	if err != nil {
		t.Fatal(err)
	}

	res := result.Resultats["loc-9"]
	if res.Statut != models.SyncConflit {
		t.Fatalf("statut = %q, want conflit", res.Statut)
	}
	if res.ServerID == nil || *res.ServerID != existing.ID {
		t.Error("le conflit doit renvoyer l'id du client existant")
	}

	var count int64
	db.Model(&models.Client{}).Count(&count)
	if count != 1 {
		t.Errorf("%d clients en base, want 1 (pas de doublon)", count)
	}
}

func TestSyncItemFailureIsIsolated(t *testing.T) {
	s, db := newSynchronizer(t)

	result, err := s.Execute(context.Background(), Batch{
		DeviceID: "tab-1",
		Items: []Item{
			{
				Entity:  EntityPassage,
				Action:  ActionCreate,
				LocalID: "bad-passage",
				Data:    rawJSON(t, map[string]any{"client_id": 9999, "prestations": []any{map[string]any{"prestation_id": 1}}}),
			},
			{
				Entity:  EntityClient,
				Action:  ActionCreate,
				LocalID: "good-client",
				Data:    rawJSON(t, map[string]any{"nom": "Kone", "prenom": "Ibrahim"}),
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.Succes != 1 || result.Echecs != 1 {
		t.Fatalf("succes=%d echecs=%d, want 1/1", result.Succes, result.Echecs)
	}
	if result.Resultats["good-client"].Statut != models.SyncSucces {
		t.Error("l'échec du passage ne doit pas entraîner le client")
	}

	// Une ligne de journal par élément, issue comprise.
	var logs []models.SyncLog
	if err := db.Find(&logs).Error; err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 {
		t.Fatalf("%d lignes de sync_log, want 2", len(logs))
	}
}

func TestSyncProcessesEntitiesInDependencyOrder(t *testing.T) {
	s, db := newSynchronizer(t)

	prestation := models.Prestation{Libelle: "Coupe homme", Prix: 2000, Actif: true}
	if err := db.Create(&prestation).Error; err != nil {
		t.Fatal(err)
	}

	phone := "0505050505"
	client := models.Client{
		Nom: "Bamba", Prenom: "Sali",
		Telephone: &phone, CodeClient: "C001-26",
		Statut: models.ClientActif,
	}
	if err := db.Create(&client).Error; err != nil {
		t.Fatal(err)
	}

	// Le paiement arrive avant le passage dans le lot : l'ordre de
	// traitement doit quand même résoudre la dépendance... sauf que le
	// terminal ne connaît pas encore l'id serveur du passage. On vérifie
	// ici l'ordre sur un lot passage + paiement d'un passage déjà connu.
	passageData := rawJSON(t, map[string]any{
		"client_id": client.ID,
		"prestations": []map[string]any{
			{"prestation_id": prestation.ID, "quantite": 1},
		},
	})

	result, err := s.Execute(context.Background(), Batch{
		DeviceID: "tab-1",
		Items: []Item{
			{Entity: EntityPassage, Action: ActionCreate, LocalID: "p-1", Data: passageData},
			{
				Entity:  EntityClient,
				Action:  ActionCreate,
				LocalID: "c-1",
				Data:    rawJSON(t, map[string]any{"nom": "Zadi", "prenom": "Eric"}),
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.Succes != 2 {
		t.Fatalf("succes = %d, want 2 : %+v", result.Succes, result.Resultats)
	}

	// Le client (rang 0) a été traité avant le passage (rang 2) : le code
	// suivant a bien été réservé avant la création du passage.
	var created models.Client
	if err := db.Where("nom = ?", "Zadi").First(&created).Error; err != nil {
		t.Fatal(err)
	}
	if want := codegen.FormatClientCode(2, time.Now().Year()); created.CodeClient != want {
		t.Errorf("code_client = %q, want %s", created.CodeClient, want)
	}
}

func TestSyncPaiementComputesAmountFromPassage(t *testing.T) {
	s, db := newSynchronizer(t)

	prestation := models.Prestation{Libelle: "Tresses", Prix: 5000, Actif: true}
	if err := db.Create(&prestation).Error; err != nil {
		t.Fatal(err)
	}
	client := models.Client{Nom: "Bamba", Prenom: "Sali", CodeClient: "C001-26", Statut: models.ClientActif}
	if err := db.Create(&client).Error; err != nil {
		t.Fatal(err)
	}

	passage, err := s.visits.CreateVisit(context.Background(), visitdomain.CreateInput{
		ClientID: client.ID,
		Items:    []visitdomain.Item{{PrestationID: prestation.ID, Quantite: 2}},
	}, s.rule)
	if err != nil {
		t.Fatal(err)
	}

	result, err := s.Execute(context.Background(), Batch{
		DeviceID: "tab-1",
		Items: []Item{{
			Entity:  EntityPaiement,
			Action:  ActionCreate,
			LocalID: "pay-1",
			Data: rawJSON(t, map[string]any{
				"passage_id":    passage.ID,
				"montant_paye":  10000,
				"mode_paiement": models.ModeMobileMoney,
			}),
		}},
	})
	if err != nil {
		t.Fatal(err)
	}

	res := result.Resultats["pay-1"]
	if res.Statut != models.SyncSucces {
		t.Fatalf("statut = %q (%s)", res.Statut, res.Message)
	}

	var paiement models.Paiement
	if err := db.First(&paiement, *res.ServerID).Error; err != nil {
		t.Fatal(err)
	}
	if paiement.MontantTotal != 10000 {
		t.Errorf("montant_total = %v, want 10000 (calculé côté serveur)", paiement.MontantTotal)
	}
	if paiement.Statut != models.PaiementValide {
		t.Errorf("statut = %q, want valide", paiement.Statut)
	}
	if paiement.NumeroRecu == "" {
		t.Error("numero_recu manquant")
	}

	// Second paiement du même passage : conflit, id existant renvoyé.
	result2, err := s.Execute(context.Background(), Batch{
		DeviceID: "tab-2",
		Items: []Item{{
			Entity:  EntityPaiement,
			Action:  ActionCreate,
			LocalID: "pay-2",
			Data: rawJSON(t, map[string]any{
				"passage_id": passage.ID, "montant_paye": 10000,
			}),
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	res2 := result2.Resultats["pay-2"]
	if res2.Statut != models.SyncConflit {
		t.Fatalf("statut = %q, want conflit", res2.Statut)
	}
	if res2.ServerID == nil || *res2.ServerID != paiement.ID {
		t.Error("le conflit doit renvoyer l'id du paiement existant")
	}
}

// Un téléphone vidé est stocké comme absent : deux clients sans numéro
// ne doivent jamais entrer en collision sur l'index unique.
func TestSyncUpdateClientClearsPhone(t *testing.T) {
	s, db := newSynchronizer(t)
	ctx := context.Background()

	phoneA, phoneB := "0101010101", "0202020202"
	a := models.Client{Nom: "Diallo", Prenom: "Mariam", Telephone: &phoneA, CodeClient: "C001-26", Statut: models.ClientActif}
	b := models.Client{Nom: "Yao", Prenom: "Paul", Telephone: &phoneB, CodeClient: "C002-26", Statut: models.ClientActif}
	for _, c := range []*models.Client{&a, &b} {
		if err := db.Create(c).Error; err != nil {
			t.Fatal(err)
		}
	}

	result, err := s.Execute(ctx, Batch{
		DeviceID: "tab-1",
		Items: []Item{
			{
				Entity: EntityClient, Action: ActionUpdate, LocalID: "up-a",
				ServerID: &a.ID,
				Data:     rawJSON(t, map[string]any{"telephone": ""}),
			},
			{
				Entity: EntityClient, Action: ActionUpdate, LocalID: "up-b",
				ServerID: &b.ID,
				Data:     rawJSON(t, map[string]any{"telephone": ""}),
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Succes != 2 {
		t.Fatalf("succes = %d, want 2 : %+v", result.Succes, result.Resultats)
	}

	for _, id := range []uint{a.ID, b.ID} {
		var client models.Client
		if err := db.First(&client, id).Error; err != nil {
			t.Fatal(err)
		}
		if client.Telephone != nil {
			t.Errorf("client %d : telephone = %q, want absent", id, *client.Telephone)
		}
	}
}

func TestSyncUpdateRequiresServerID(t *testing.T) {
	s, _ := newSynchronizer(t)

	result, err := s.Execute(context.Background(), Batch{
		DeviceID: "tab-1",
		Items: []Item{{
			Entity:  EntityClient,
			Action:  ActionUpdate,
			LocalID: "up-1",
			Data:    rawJSON(t, map[string]any{"nom": "Nouveau"}),
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Resultats["up-1"].Statut != models.SyncEchec {
		t.Error("mise à jour sans server_id acceptée")
	}
}

func TestSyncStatus(t *testing.T) {
	s, _ := newSynchronizer(t)
	ctx := context.Background()

	if _, err := s.Execute(ctx, Batch{
		DeviceID: "tab-1",
		Items: []Item{
			{
				Entity: EntityClient, Action: ActionCreate, LocalID: "a",
				Data: rawJSON(t, map[string]any{"nom": "Koffi", "prenom": "Jean"}),
			},
			{
				Entity: EntityClient, Action: ActionUpdate, LocalID: "b",
				Data: rawJSON(t, map[string]any{"nom": "X"}),
			},
		},
	}); err != nil {
		t.Fatal(err)
	}

	status, err := s.Status(ctx, "tab-1")
	if err != nil {
		t.Fatal(err)
	}
	if status.TotalSyncs != 2 || status.Succes != 1 || status.Echecs != 1 {
		t.Errorf("status = %+v, want total=2 succes=1 echecs=1", status)
	}
	if status.DerniereSync == nil {
		t.Error("derniere_sync manquante")
	}

	vierge, err := s.Status(ctx, "jamais-vu")
	if err != nil {
		t.Fatal(err)
	}
	if vierge.TotalSyncs != 0 || vierge.DerniereSync != nil {
		t.Errorf("terminal inconnu : %+v", vierge)
	}
}

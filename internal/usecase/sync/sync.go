package sync

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/salonci/salon-pos/internal/codegen"
	visitdomain "github.com/salonci/salon-pos/internal/domain/visit"
	"github.com/salonci/salon-pos/internal/httperr"
	"github.com/salonci/salon-pos/internal/models"
)

// ======================================================
// USE CASE — SYNCHRONISATION HORS-LIGNE
// ======================================================

// Entités synchronisables, dans l'ordre de traitement imposé :
// les clients d'abord, les paiements en dernier, pour que chaque
// élément trouve ses dépendances déjà réconciliées.
const (
	EntityClient     = "client"
	EntityPrestation = "prestation"
	EntityPassage    = "passage"
	EntityPaiement   = "paiement"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
)

var entityOrder = map[string]int{
	EntityClient:     0,
	EntityPrestation: 1,
	EntityPassage:    2,
	EntityPaiement:   3,
}

type Item struct {
	Entity   string          `json:"entity"`
	Action   string          `json:"action"`
	LocalID  string          `json:"local_id"`
	ServerID *uint           `json:"server_id"`
	Data     json.RawMessage `json:"data"`
}

type Batch struct {
	DeviceID string `json:"device_id"`
	Items    []Item `json:"items"`
}

type ItemResult struct {
	LocalID  string `json:"local_id"`
	Entity   string `json:"entity"`
	Action   string `json:"action"`
	Statut   string `json:"statut"`
	ServerID *uint  `json:"server_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

type BatchResult struct {
	DeviceID  string                `json:"device_id"`
	Total     int                   `json:"total"`
	Succes    int                   `json:"succes"`
	Conflits  int                   `json:"conflits"`
	Echecs    int                   `json:"echecs"`
	Resultats map[string]ItemResult `json:"resultats"`
	DateSync  time.Time             `json:"date_sync"`
}

type Synchronizer struct {
	db     *gorm.DB
	visits visitdomain.Repository
	rule   visitdomain.LoyaltyRule
	log    *zap.Logger
}

func NewSynchronizer(
	db *gorm.DB,
	visits visitdomain.Repository,
	rule visitdomain.LoyaltyRule,
	log *zap.Logger,
) *Synchronizer {
	return &Synchronizer{db: db, visits: visits, rule: rule, log: log}
}

// Execute réconcilie un lot envoyé par un terminal. Chaque élément est
// traité dans sa propre transaction : l'échec de l'un n'annule jamais
// les autres. Une ligne de SyncLog est écrite par élément, quelle que
// soit l'issue.
func (s *Synchronizer) Execute(ctx context.Context, batch Batch) (*BatchResult, error) {
	if batch.DeviceID == "" {
		return nil, httperr.Validation("device_id_requis",
			"L'identifiant du terminal est requis.")
	}
	if len(batch.Items) == 0 {
		return nil, httperr.Validation("lot_vide",
			"Le lot de synchronisation est vide.")
	}

	now := time.Now()
	result := &BatchResult{
		DeviceID:  batch.DeviceID,
		Total:     len(batch.Items),
		Resultats: make(map[string]ItemResult, len(batch.Items)),
		DateSync:  now,
	}

	for _, item := range orderItems(batch.Items) {
		res, before, after := s.processItem(ctx, batch.DeviceID, item, now)

		switch res.Statut {
		case models.SyncSucces:
			result.Succes++
		case models.SyncConflit:
			result.Conflits++
		default:
			result.Echecs++
		}
		result.Resultats[item.LocalID] = res

		// Le journal survit même quand l'élément échoue : il est écrit
		// hors de la transaction de l'élément.
		logRow := models.SyncLog{
			DeviceID:      batch.DeviceID,
			EntityType:    item.Entity,
			EntityID:      res.ServerID,
			Action:        item.Action,
			DataBefore:    before,
			DataAfter:     after,
			Statut:        res.Statut,
			MessageErreur: res.Message,
			DateSync:      now,
		}
		if err := s.db.WithContext(ctx).Create(&logRow).Error; err != nil {
			s.log.Error("sync log write failed",
				zap.String("device_id", batch.DeviceID),
				zap.String("local_id", item.LocalID),
				zap.Error(err),
			)
		}
	}

	s.log.Info("lot synchronisé",
		zap.String("device_id", batch.DeviceID),
		zap.Int("total", result.Total),
		zap.Int("succes", result.Succes),
		zap.Int("conflits", result.Conflits),
		zap.Int("echecs", result.Echecs),
	)
	return result, nil
}

// orderItems trie par type d'entité en conservant l'ordre d'envoi au
// sein d'un même type.
func orderItems(items []Item) []Item {
	ordered := make([]Item, 0, len(items))
	for rank := 0; rank <= entityOrder[EntityPaiement]; rank++ {
		for _, item := range items {
			if entityOrder[item.Entity] == rank && validEntity(item.Entity) {
				ordered = append(ordered, item)
			}
		}
	}
	for _, item := range items {
		if !validEntity(item.Entity) {
			ordered = append(ordered, item)
		}
	}
	return ordered
}

func validEntity(entity string) bool {
	_, ok := entityOrder[entity]
	return ok
}

// --------------------------------------------------
// Traitement d'un élément
// --------------------------------------------------

func (s *Synchronizer) processItem(
	ctx context.Context,
	deviceID string,
	item Item,
	now time.Time,
) (ItemResult, *string, *string) {

	res := ItemResult{
		LocalID: item.LocalID,
		Entity:  item.Entity,
		Action:  item.Action,
	}

	if !validEntity(item.Entity) {
		res.Statut = models.SyncEchec
		res.Message = "Type d'entité inconnu : " + item.Entity
		return res, nil, nil
	}

	var (
		serverID      *uint
		before, after *string
		err           error
	)

	switch {
	case item.Entity == EntityClient && item.Action == ActionCreate:
		serverID, before, after, err = s.createClient(ctx, deviceID, item, now)
	case item.Entity == EntityClient && item.Action == ActionUpdate:
		serverID, before, after, err = s.updateClient(ctx, item, now)
	case item.Entity == EntityPrestation && item.Action == ActionCreate:
		serverID, before, after, err = s.createPrestation(ctx, deviceID, item, now)
	case item.Entity == EntityPrestation && item.Action == ActionUpdate:
		serverID, before, after, err = s.updatePrestation(ctx, item, now)
	case item.Entity == EntityPassage && item.Action == ActionCreate:
		serverID, after, err = s.createPassage(ctx, deviceID, item)
	case item.Entity == EntityPassage && item.Action == ActionUpdate:
		serverID, before, after, err = s.updatePassage(ctx, item, now)
	case item.Entity == EntityPaiement && item.Action == ActionCreate:
		serverID, after, err = s.createPaiement(ctx, deviceID, item, now)
	case item.Entity == EntityPaiement && item.Action == ActionUpdate:
		serverID, before, after, err = s.updatePaiement(ctx, item, now)
	default:
		res.Statut = models.SyncEchec
		res.Message = "Action non supportée pour " + item.Entity + " : " + item.Action
		return res, nil, nil
	}

	res.ServerID = serverID
	if err != nil {
		if httperr.Is(err, httperr.KindConflict) {
			res.Statut = models.SyncConflit
		} else {
			res.Statut = models.SyncEchec
		}
		res.Message = err.Error()
		return res, before, after
	}

	res.Statut = models.SyncSucces
	return res, before, after
}

// --------------------------------------------------
// Clients
// --------------------------------------------------

type clientPayload struct {
	Nom       *string `json:"nom"`
	Prenom    *string `json:"prenom"`
	Telephone *string `json:"telephone"`
}

func (s *Synchronizer) createClient(
	ctx context.Context,
	deviceID string,
	item Item,
	now time.Time,
) (serverID *uint, before, after *string, err error) {

	var payload clientPayload
	if err := json.Unmarshal(item.Data, &payload); err != nil {
		return nil, nil, nil, httperr.Validation("payload_invalide",
			"Données client illisibles.")
	}
	if payload.Nom == nil || *payload.Nom == "" ||
		payload.Prenom == nil || *payload.Prenom == "" {
		return nil, nil, nil, httperr.Validation("champs_requis",
			"Nom et prénom sont requis.")
	}
	// Téléphone vide = absent, sinon l'index unique collisionne sur "".
	if payload.Telephone != nil && *payload.Telephone == "" {
		payload.Telephone = nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		// Conflit de téléphone : le client existe déjà côté serveur,
		// on le renvoie au terminal au lieu de créer un doublon.
		if payload.Telephone != nil && *payload.Telephone != "" {
			var existing models.Client
			ferr := tx.Where("telephone = ?", *payload.Telephone).First(&existing).Error
			if ferr == nil {
				serverID = &existing.ID
				before = snapshot(&existing)
				return httperr.Conflict("telephone_existant",
					"Un client avec ce téléphone existe déjà.")
			}
			if ferr != gorm.ErrRecordNotFound {
				return httperr.Storage(ferr)
			}
		}

		code, cerr := codegen.NextClientCode(tx, now)
		if cerr != nil {
			return cerr
		}

		client := models.Client{
			Nom:        *payload.Nom,
			Prenom:     *payload.Prenom,
			Telephone:  payload.Telephone,
			CodeClient: code,
			Statut:     models.ClientActif,
			DeviceID:   &deviceID,
			SyncedAt:   &now,
		}
		if cerr := tx.Create(&client).Error; cerr != nil {
			return httperr.FromDB(cerr, "client_not_found", "Client non trouvé.")
		}

		serverID = &client.ID
		after = snapshot(&client)
		return nil
	})

	return serverID, before, after, err
}

func (s *Synchronizer) updateClient(
	ctx context.Context,
	item Item,
	now time.Time,
) (serverID *uint, before, after *string, err error) {

	if item.ServerID == nil {
		return nil, nil, nil, httperr.Validation("server_id_requis",
			"server_id est requis pour une mise à jour.")
	}

	var payload clientPayload
	if err := json.Unmarshal(item.Data, &payload); err != nil {
		return item.ServerID, nil, nil, httperr.Validation("payload_invalide",
			"Données client illisibles.")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if ferr := tx.First(&client, *item.ServerID).Error; ferr != nil {
			return httperr.FromDB(ferr, "client_not_found", "Client non trouvé.")
		}
		before = snapshot(&client)

		if payload.Nom != nil {
			client.Nom = *payload.Nom
		}
		if payload.Prenom != nil {
			client.Prenom = *payload.Prenom
		}
		if payload.Telephone != nil {
			// Téléphone vide = absent, sinon l'index unique collisionne sur "".
			if *payload.Telephone == "" {
				client.Telephone = nil
			} else {
				client.Telephone = payload.Telephone
			}
		}
		client.SyncedAt = &now

		if serr := tx.Save(&client).Error; serr != nil {
			return httperr.FromDB(serr, "client_not_found", "Client non trouvé.")
		}
		after = snapshot(&client)
		return nil
	})

	return item.ServerID, before, after, err
}

// --------------------------------------------------
// Prestations
// --------------------------------------------------

type prestationPayload struct {
	Libelle      *string  `json:"libelle"`
	Prix         *float64 `json:"prix"`
	Description  *string  `json:"description"`
	DureeEstimee *int     `json:"duree_estimee"`
	Specialite   *string  `json:"specialite"`
}

func (s *Synchronizer) createPrestation(
	ctx context.Context,
	deviceID string,
	item Item,
	now time.Time,
) (serverID *uint, before, after *string, err error) {

	var payload prestationPayload
	if err := json.Unmarshal(item.Data, &payload); err != nil {
		return nil, nil, nil, httperr.Validation("payload_invalide",
			"Données prestation illisibles.")
	}
	if payload.Libelle == nil || *payload.Libelle == "" || payload.Prix == nil {
		return nil, nil, nil, httperr.Validation("champs_requis",
			"Libellé et prix sont requis.")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var existing models.Prestation
		ferr := tx.Where("libelle = ?", *payload.Libelle).First(&existing).Error
		if ferr == nil {
			serverID = &existing.ID
			before = snapshot(&existing)
			return httperr.Conflict("libelle_existant",
				"Une prestation avec ce libellé existe déjà.")
		}
		if ferr != gorm.ErrRecordNotFound {
			return httperr.Storage(ferr)
		}

		prestation := models.Prestation{
			Libelle:      *payload.Libelle,
			Prix:         *payload.Prix,
			Actif:        true,
			DureeEstimee: payload.DureeEstimee,
			Specialite:   payload.Specialite,
			DeviceID:     &deviceID,
			SyncedAt:     &now,
		}
		if payload.Description != nil {
			prestation.Description = *payload.Description
		}
		if cerr := tx.Create(&prestation).Error; cerr != nil {
			return httperr.FromDB(cerr, "prestation_not_found", "Prestation non trouvée.")
		}

		serverID = &prestation.ID
		after = snapshot(&prestation)
		return nil
	})

	return serverID, before, after, err
}

func (s *Synchronizer) updatePrestation(
	ctx context.Context,
	item Item,
	now time.Time,
) (serverID *uint, before, after *string, err error) {

	if item.ServerID == nil {
		return nil, nil, nil, httperr.Validation("server_id_requis",
			"server_id est requis pour une mise à jour.")
	}

	var payload prestationPayload
	if err := json.Unmarshal(item.Data, &payload); err != nil {
		return item.ServerID, nil, nil, httperr.Validation("payload_invalide",
			"Données prestation illisibles.")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prestation models.Prestation
		if ferr := tx.First(&prestation, *item.ServerID).Error; ferr != nil {
			return httperr.FromDB(ferr, "prestation_not_found", "Prestation non trouvée.")
		}
		before = snapshot(&prestation)

		if payload.Libelle != nil {
			prestation.Libelle = *payload.Libelle
		}
		if payload.Prix != nil {
			prestation.Prix = *payload.Prix
		}
		if payload.Description != nil {
			prestation.Description = *payload.Description
		}
		if payload.DureeEstimee != nil {
			prestation.DureeEstimee = payload.DureeEstimee
		}
		if payload.Specialite != nil {
			prestation.Specialite = payload.Specialite
		}
		prestation.SyncedAt = &now

		if serr := tx.Save(&prestation).Error; serr != nil {
			return httperr.FromDB(serr, "prestation_not_found", "Prestation non trouvée.")
		}
		after = snapshot(&prestation)
		return nil
	})

	return item.ServerID, before, after, err
}

// --------------------------------------------------
// Passages
// --------------------------------------------------

type passagePayload struct {
	ClientID    uint       `json:"client_id"`
	DatePassage *time.Time `json:"date_passage"`
	Notes       string     `json:"notes"`
	Prestations []struct {
		PrestationID uint  `json:"prestation_id"`
		Quantite     int   `json:"quantite"`
		CoiffeurID   *uint `json:"coiffeur_id"`
	} `json:"prestations"`
}

// createPassage délègue au moteur de passages : numérotation, fidélité
// et verrou client s'appliquent à l'identique du flux en ligne.
func (s *Synchronizer) createPassage(
	ctx context.Context,
	deviceID string,
	item Item,
) (serverID *uint, after *string, err error) {

	var payload passagePayload
	if err := json.Unmarshal(item.Data, &payload); err != nil {
		return nil, nil, httperr.Validation("payload_invalide",
			"Données passage illisibles.")
	}
	if payload.ClientID == 0 || len(payload.Prestations) == 0 {
		return nil, nil, httperr.Validation("champs_requis",
			"client_id et au moins une prestation sont requis.")
	}

	items := make([]visitdomain.Item, 0, len(payload.Prestations))
	for _, p := range payload.Prestations {
		items = append(items, visitdomain.Item{
			PrestationID: p.PrestationID,
			Quantite:     p.Quantite,
			CoiffeurID:   p.CoiffeurID,
		})
	}

	passage, err := s.visits.CreateVisit(ctx, visitdomain.CreateInput{
		ClientID:    payload.ClientID,
		Items:       items,
		DatePassage: payload.DatePassage,
		Notes:       payload.Notes,
		DeviceID:    &deviceID,
	}, s.rule)
	if err != nil {
		return nil, nil, err
	}

	return &passage.ID, snapshot(passage), nil
}

// updatePassage ne touche ni à la numérotation ni à la gratuité :
// seuls les champs libres (notes, date) sont synchronisables.
func (s *Synchronizer) updatePassage(
	ctx context.Context,
	item Item,
	now time.Time,
) (serverID *uint, before, after *string, err error) {

	if item.ServerID == nil {
		return nil, nil, nil, httperr.Validation("server_id_requis",
			"server_id est requis pour une mise à jour.")
	}

	var payload struct {
		Notes       *string    `json:"notes"`
		DatePassage *time.Time `json:"date_passage"`
	}
	if err := json.Unmarshal(item.Data, &payload); err != nil {
		return item.ServerID, nil, nil, httperr.Validation("payload_invalide",
			"Données passage illisibles.")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var passage models.Passage
		if ferr := tx.First(&passage, *item.ServerID).Error; ferr != nil {
			return httperr.FromDB(ferr, "passage_not_found", "Passage non trouvé.")
		}
		before = snapshot(&passage)

		if payload.Notes != nil {
			passage.Notes = *payload.Notes
		}
		if payload.DatePassage != nil {
			passage.DatePassage = *payload.DatePassage
		}
		passage.SyncedAt = &now

		if serr := tx.Save(&passage).Error; serr != nil {
			return httperr.FromDB(serr, "passage_not_found", "Passage non trouvé.")
		}
		after = snapshot(&passage)
		return nil
	})

	return item.ServerID, before, after, err
}

// --------------------------------------------------
// Paiements
// --------------------------------------------------

type paiementPayload struct {
	PassageID    uint       `json:"passage_id"`
	MontantPaye  float64    `json:"montant_paye"`
	ModePaiement string     `json:"mode_paiement"`
	Notes        string     `json:"notes"`
	DatePaiement *time.Time `json:"date_paiement"`
}

func (s *Synchronizer) createPaiement(
	ctx context.Context,
	deviceID string,
	item Item,
	now time.Time,
) (serverID *uint, after *string, err error) {

	var payload paiementPayload
	if err := json.Unmarshal(item.Data, &payload); err != nil {
		return nil, nil, httperr.Validation("payload_invalide",
			"Données paiement illisibles.")
	}
	if payload.PassageID == 0 {
		return nil, nil, httperr.Validation("champs_requis",
			"passage_id est requis.")
	}
	mode := payload.ModePaiement
	if mode == "" {
		mode = models.ModeEspeces
	}
	if !models.ValidPaymentMode(mode) {
		return nil, nil, httperr.Validation("mode_invalide",
			"Mode de paiement inconnu : "+mode)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var passage models.Passage
		if ferr := tx.Preload("Prestations").
			First(&passage, payload.PassageID).Error; ferr != nil {
			return httperr.FromDB(ferr, "passage_not_found", "Passage non trouvé.")
		}

		// Un paiement actif existe déjà : on le renvoie plutôt que
		// d'encaisser deux fois le même passage.
		var existing models.Paiement
		ferr := tx.Where("passage_id = ? AND statut <> ?",
			passage.ID, models.PaiementAnnule).First(&existing).Error
		if ferr == nil {
			serverID = &existing.ID
			return httperr.Conflict("paiement_existant",
				"Ce passage est déjà payé.")
		}
		if ferr != gorm.ErrRecordNotFound {
			return httperr.Storage(ferr)
		}

		date := now
		if payload.DatePaiement != nil {
			date = *payload.DatePaiement
		}

		montantTotal := passage.MontantTotal()
		statut := models.PaiementValide
		if payload.MontantPaye < montantTotal {
			statut = models.PaiementEnAttente
		}

		paiement := models.Paiement{
			PassageID:    passage.ID,
			MontantTotal: montantTotal,
			MontantPaye:  payload.MontantPaye,
			ModePaiement: mode,
			Statut:       statut,
			Notes:        payload.Notes,
			DatePaiement: date,
			NumeroRecu:   codegen.NewReceiptNumber(date),
			DeviceID:     &deviceID,
			SyncedAt:     &now,
		}
		if cerr := tx.Create(&paiement).Error; cerr != nil {
			return httperr.FromDB(cerr, "paiement_not_found", "Paiement non trouvé.")
		}

		serverID = &paiement.ID
		after = snapshot(&paiement)
		return nil
	})

	return serverID, after, err
}

// updatePaiement réconcilie les champs d'encaissement ; le numéro de
// reçu et le montant dû ne sont jamais modifiables depuis un terminal.
func (s *Synchronizer) updatePaiement(
	ctx context.Context,
	item Item,
	now time.Time,
) (serverID *uint, before, after *string, err error) {

	if item.ServerID == nil {
		return nil, nil, nil, httperr.Validation("server_id_requis",
			"server_id est requis pour une mise à jour.")
	}

	var payload struct {
		MontantPaye  *float64 `json:"montant_paye"`
		ModePaiement *string  `json:"mode_paiement"`
		Notes        *string  `json:"notes"`
	}
	if err := json.Unmarshal(item.Data, &payload); err != nil {
		return item.ServerID, nil, nil, httperr.Validation("payload_invalide",
			"Données paiement illisibles.")
	}
	if payload.ModePaiement != nil && !models.ValidPaymentMode(*payload.ModePaiement) {
		return item.ServerID, nil, nil, httperr.Validation("mode_invalide",
			"Mode de paiement inconnu : "+*payload.ModePaiement)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var paiement models.Paiement
		if ferr := tx.First(&paiement, *item.ServerID).Error; ferr != nil {
			return httperr.FromDB(ferr, "paiement_not_found", "Paiement non trouvé.")
		}
		before = snapshot(&paiement)

		if payload.MontantPaye != nil {
			paiement.MontantPaye = *payload.MontantPaye
			if paiement.MontantPaye >= paiement.MontantTotal {
				paiement.Statut = models.PaiementValide
			} else {
				paiement.Statut = models.PaiementEnAttente
			}
		}
		if payload.ModePaiement != nil {
			paiement.ModePaiement = *payload.ModePaiement
		}
		if payload.Notes != nil {
			paiement.Notes = *payload.Notes
		}
		paiement.SyncedAt = &now

		if serr := tx.Save(&paiement).Error; serr != nil {
			return httperr.FromDB(serr, "paiement_not_found", "Paiement non trouvé.")
		}
		after = snapshot(&paiement)
		return nil
	})

	return item.ServerID, before, after, err
}

// --------------------------------------------------
// Helpers
// --------------------------------------------------

func snapshot(v any) *string {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(raw)
	return &s
}

package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/salonci/salon-pos/internal/models"
)

const (
	catalogueKey = "catalogue:prestations:actives"
	catalogueTTL = 10 * time.Minute
)

// Catalogue met en cache la liste des prestations actives, la lecture
// la plus fréquente de l'API (chaque écran de caisse la recharge).
// Sans REDIS_URL le cache est transparent : toutes les lectures passent
// en base.
type Catalogue struct {
	client *redis.Client
	log    *zap.Logger
}

func NewCatalogue(redisURL string, log *zap.Logger) (*Catalogue, error) {
	if redisURL == "" {
		return &Catalogue{log: log}, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &Catalogue{client: redis.NewClient(opts), log: log}, nil
}

func (c *Catalogue) Enabled() bool {
	return c.client != nil
}

// Get retourne la liste en cache et un booléen de présence. Toute erreur
// redis est traitée comme un cache miss.
func (c *Catalogue) Get(ctx context.Context) ([]models.Prestation, bool) {
	if c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, catalogueKey).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn("catalogue cache read failed", zap.Error(err))
		return nil, false
	}

	var prestations []models.Prestation
	if err := json.Unmarshal([]byte(raw), &prestations); err != nil {
		c.log.Warn("catalogue cache corrompu, purge", zap.Error(err))
		c.Invalidate(ctx)
		return nil, false
	}
	return prestations, true
}

func (c *Catalogue) Set(ctx context.Context, prestations []models.Prestation) {
	if c.client == nil {
		return
	}

	raw, err := json.Marshal(prestations)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, catalogueKey, raw, catalogueTTL).Err(); err != nil {
		c.log.Warn("catalogue cache write failed", zap.Error(err))
	}
}

// Invalidate purge le cache. Appelé après toute écriture sur le
// catalogue : création, modification, activation, rattachement.
func (c *Catalogue) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, catalogueKey).Err(); err != nil {
		c.log.Warn("catalogue cache invalidation failed", zap.Error(err))
	}
}

package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"flower_shop/internal/models"
)

const ProductCacheTTL = 10 * time.Minute

type ProductSource interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
}

// ProductCache is a read-through cache in front of the product table. With
// a nil client every lookup goes straight to the source.
type ProductCache struct {
	client *redis.Client
	source ProductSource
}

func NewProductCache(client *redis.Client, source ProductSource) *ProductCache {
	return &ProductCache{client: client, source: source}
}

func productKey(id uint) string {
	return "product:" + strconv.FormatUint(uint64(id), 10)
}

func (c *ProductCache) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	if c.client == nil {
		return c.source.GetProduct(ctx, id)
	}

	if data, err := c.client.Get(ctx, productKey(id)).Bytes(); err == nil {
		var p models.Product
		if json.Unmarshal(data, &p) == nil {
			return &p, nil
		}
	}

	p, err := c.source.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := c.client.Set(ctx, productKey(id), data, ProductCacheTTL).Err(); err != nil {
			log.Warn().Err(err).Uint("product_id", id).Msg("⚠️ product cache write failed")
		}
	}
	return p, nil
}

// Invalidate drops cached copies, e.g. after stock moved at checkout.
func (c *ProductCache) Invalidate(ctx context.Context, ids ...uint) {
	if c.client == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	c.client.Del(ctx, keys...)
}

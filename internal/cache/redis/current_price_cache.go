package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akovacs/gameledger/internal/domain"
)

// CurrentPriceCache implements domain.CurrentPriceCache using Redis hashes.
// Each game's committed price lives at "game:price:{gameID}" with fields
// "price" and "ts" (Unix nanosecond timestamp). The ledger in PostgreSQL
// stays the source of truth; this is a read projection.
type CurrentPriceCache struct {
	rdb *redis.Client
}

var _ domain.CurrentPriceCache = (*CurrentPriceCache)(nil)

// NewCurrentPriceCache creates a CurrentPriceCache backed by the given
// Client.
func NewCurrentPriceCache(c *Client) *CurrentPriceCache {
	return &CurrentPriceCache{rdb: c.Underlying()}
}

func gamePriceKey(gameID string) string {
	return "game:price:" + gameID
}

// SetPrice stores the committed price and its timestamp for a game.
func (pc *CurrentPriceCache) SetPrice(ctx context.Context, gameID string, price float64, ts time.Time) error {
	fields := map[string]interface{}{
		"price": strconv.FormatFloat(price, 'f', -1, 64),
		"ts":    strconv.FormatInt(ts.UnixNano(), 10),
	}
	if err := pc.rdb.HSet(ctx, gamePriceKey(gameID), fields).Err(); err != nil {
		return fmt.Errorf("redis: set price %s: %w", gameID, err)
	}
	return nil
}

// GetPrice retrieves the cached price and timestamp for a game. It returns
// domain.ErrNotFound when no price has been cached yet.
func (pc *CurrentPriceCache) GetPrice(ctx context.Context, gameID string) (float64, time.Time, error) {
	vals, err := pc.rdb.HGetAll(ctx, gamePriceKey(gameID)).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: get price %s: %w", gameID, err)
	}
	if len(vals) == 0 {
		return 0, time.Time{}, domain.ErrNotFound
	}

	priceStr, ok := vals["price"]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse price %s: %w", gameID, err)
	}

	tsStr, ok := vals["ts"]
	if !ok {
		return 0, time.Time{}, domain.ErrNotFound
	}
	tsNano, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse ts %s: %w", gameID, err)
	}

	return price, time.Unix(0, tsNano), nil
}

// GetPrices retrieves cached prices for multiple games using a pipeline.
// Games with no cached price are omitted from the result map.
func (pc *CurrentPriceCache) GetPrices(ctx context.Context, gameIDs []string) (map[string]float64, error) {
	if len(gameIDs) == 0 {
		return map[string]float64{}, nil
	}

	pipe := pc.rdb.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(gameIDs))
	for _, id := range gameIDs {
		cmds[id] = pipe.HGetAll(ctx, gamePriceKey(id))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get prices pipeline: %w", err)
	}

	result := make(map[string]float64, len(gameIDs))
	for id, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || len(vals) == 0 {
			continue
		}
		priceStr, ok := vals["price"]
		if !ok {
			continue
		}
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil {
			continue
		}
		result[id] = price
	}
	return result, nil
}

package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joripage/matchbook/pkg/orderbook"
)

const (
	fieldBids      = "bids"
	fieldAsks      = "asks"
	fieldUpdatedAt = "updated_at"
)

var ErrNoDepth = errors.New("no depth cached for pair")

// DepthCache keeps the latest depth of every book in a redis hash named
// <prefix>book:<pair>, so readers never touch the matching engine.
type DepthCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewDepthCache(client redis.UniversalClient, prefix string, ttl time.Duration) *DepthCache {
	return &DepthCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *DepthCache) Key(pair orderbook.Pair) string {
	return c.prefix + "book:" + pair.String()
}

func (c *DepthCache) Publish(ctx context.Context, depth orderbook.Depth) error {
	fields, err := encodeDepth(depth, c.now())
	if err != nil {
		return err
	}
	key := c.Key(depth.Pair)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write depth %s: %w", key, err)
	}
	return nil
}

func (c *DepthCache) Load(ctx context.Context, pair orderbook.Pair) (orderbook.Depth, time.Time, error) {
	fields, err := c.client.HGetAll(ctx, c.Key(pair)).Result()
	if err != nil {
		return orderbook.Depth{}, time.Time{}, err
	}
	if len(fields) == 0 {
		return orderbook.Depth{}, time.Time{}, ErrNoDepth
	}
	return decodeDepth(pair, fields)
}

func encodeDepth(depth orderbook.Depth, at time.Time) (map[string]interface{}, error) {
	bids, err := json.Marshal(levels(depth.Bids))
	if err != nil {
		return nil, err
	}
	asks, err := json.Marshal(levels(depth.Asks))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		fieldBids:      string(bids),
		fieldAsks:      string(asks),
		fieldUpdatedAt: strconv.FormatInt(at.UnixMilli(), 10),
	}, nil
}

func decodeDepth(pair orderbook.Pair, fields map[string]string) (orderbook.Depth, time.Time, error) {
	depth := orderbook.Depth{Pair: pair}
	if err := json.Unmarshal([]byte(fields[fieldBids]), &depth.Bids); err != nil {
		return depth, time.Time{}, fmt.Errorf("decode bids: %w", err)
	}
	if err := json.Unmarshal([]byte(fields[fieldAsks]), &depth.Asks); err != nil {
		return depth, time.Time{}, fmt.Errorf("decode asks: %w", err)
	}
	ms, err := strconv.ParseInt(fields[fieldUpdatedAt], 10, 64)
	if err != nil {
		return depth, time.Time{}, fmt.Errorf("decode updated_at: %w", err)
	}
	return depth, time.UnixMilli(ms).UTC(), nil
}

// levels keeps an empty side encoded as [] rather than null.
func levels(ls []orderbook.DepthLevel) []orderbook.DepthLevel {
	if ls == nil {
		return []orderbook.DepthLevel{}
	}
	return ls
}

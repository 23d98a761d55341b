package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"venuetour/internal/geo"
	"venuetour/internal/model"
)

const (
	geoKey    = "venues:geo"
	objPrefix = "venues:obj:"
)

// Redis backs the catalog with a Redis geo index: venue positions live in
// one GEO key, full records as JSON blobs keyed per venue. GEOSEARCH does
// the radius cut server-side.
type Redis struct {
	rdb *redis.Client
}

// NewRedis builds a catalog from a redis:// URL.
func NewRedis(url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Redis{rdb: redis.NewClient(opt)}, nil
}

func (c *Redis) Within(ctx context.Context, center geo.Point, radiusM float64) ([]model.Venue, error) {
	ids, err := c.rdb.GeoSearch(ctx, geoKey, &redis.GeoSearchQuery{
		Longitude:  center.Lon,
		Latitude:   center.Lat,
		Radius:     radiusM,
		RadiusUnit: "m",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: geo search: %v", ErrUnavailable, err)
	}
	return c.ByIDs(ctx, ids)
}

func (c *Redis) ByIDs(ctx context.Context, ids []string) ([]model.Venue, error) {
	if len(ids) == 0 {
		return []model.Venue{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = objPrefix + id
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: mget: %v", ErrUnavailable, err)
	}
	out := make([]model.Venue, 0, len(ids))
	for _, raw := range vals {
		s, ok := raw.(string)
		if !ok {
			continue // missing member, skip
		}
		var v model.Venue
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Redis) Upsert(ctx context.Context, v model.Venue) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.rdb.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      v.ID,
		Longitude: v.Location.Lon,
		Latitude:  v.Location.Lat,
	}).Err(); err != nil {
		return fmt.Errorf("%w: geoadd: %v", ErrUnavailable, err)
	}
	if err := c.rdb.Set(ctx, objPrefix+v.ID, blob, 0).Err(); err != nil {
		return fmt.Errorf("%w: set: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *Redis) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

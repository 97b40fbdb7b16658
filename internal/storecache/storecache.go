package storecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/roadwatch/roadwatch-web/internal/models"
)

const (
	DefaultKey = "roadwatch:web:report-snapshot"
	DefaultTTL = 24 * time.Hour
)

// Cache persists a snapshot of the report list in Redis so a restarted
// instance can serve a warm list while its initial fetch is still
// outstanding. Strictly best-effort; the backend list fetch remains the
// source of truth and overwrites whatever was loaded.
type Cache struct {
	rdb *redis.Client
	Key string
	TTL time.Duration
}

func New(connString string) (*Cache, error) {
	var opts *redis.Options
	if strings.Contains(connString, "://") {
		var err error
		opts, err = redis.ParseURL(connString)
		if err != nil {
			return nil, fmt.Errorf("parsing redis connection string: %w", err)
		}
	} else {
		opts = &redis.Options{Addr: connString}
	}
	return &Cache{
		rdb: redis.NewClient(opts),
		Key: DefaultKey,
		TTL: DefaultTTL,
	}, nil
}

func (c *Cache) Save(ctx context.Context, reports []models.Report) error {
	b, err := json.Marshal(reports)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.Key, b, c.TTL).Err()
}

// Load returns the cached snapshot, or nil with no error when none exists.
func (c *Cache) Load(ctx context.Context) ([]models.Report, error) {
	b, err := c.rdb.Get(ctx, c.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var reports []models.Report
	if err := json.Unmarshal(b, &reports); err != nil {
		return nil, fmt.Errorf("decoding cached snapshot: %w", err)
	}
	return reports, nil
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}

func (c *Cache) Health(ctx context.Context) (rsp models.ServiceHealthResp) {
	rsp.Service = models.SNAPSHOT_CACHE
	rsp.Status = models.STATUS_UP
	rsp.HealthIssue = models.HEALTH_ISSUE_NONE
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return rsp.BuildErrorResponse(err)
	}
	return rsp
}

// Package redis keeps the known-device registry in a Redis set. The
// registry is a collaborator of the query service, not a view over the
// time-series store: it is seeded from configuration and fed by the
// ingest writer.
package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/trackhub/internal/config"
	"github.com/itsatony/trackhub/internal/errors"
)

const deviceSetKey = "trackhub:devices"

// DeviceRegistry is the Redis-backed device ID set.
type DeviceRegistry struct {
	client *goredis.Client
}

// NewDeviceRegistry connects to Redis and verifies the connection.
func NewDeviceRegistry(cfg config.RedisConfig) (*DeviceRegistry, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error connecting to Redis at %s: %w", cfg.Addr(), err)
	}

	nuts.L.Infof("[DeviceRegistry] Connected to Redis at %s (db %d)", cfg.Addr(), cfg.DB)
	return &DeviceRegistry{client: client}, nil
}

// ListDeviceIDs returns the known device IDs sorted ascending, so
// multi-device query results have a stable device-then-time order.
func (r *DeviceRegistry) ListDeviceIDs(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, deviceSetKey).Result()
	if err != nil {
		return nil, errors.NewUnavailableError("failed to list device ids", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// RegisterDevice adds a device ID to the registry; re-adding is a
// no-op.
func (r *DeviceRegistry) RegisterDevice(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return errors.NewValidationError("device_id is required", nil)
	}
	if err := r.client.SAdd(ctx, deviceSetKey, deviceID).Err(); err != nil {
		return errors.NewUnavailableError("failed to register device", err)
	}
	return nil
}

// Seed registers a batch of device IDs, typically the configured
// simulator fleet.
func (r *DeviceRegistry) Seed(ctx context.Context, deviceIDs []string) error {
	if len(deviceIDs) == 0 {
		return nil
	}
	members := make([]interface{}, len(deviceIDs))
	for i, id := range deviceIDs {
		members[i] = id
	}
	if err := r.client.SAdd(ctx, deviceSetKey, members...).Err(); err != nil {
		return errors.NewUnavailableError("failed to seed device registry", err)
	}
	nuts.L.Infof("[DeviceRegistry] Seeded %d devices", len(deviceIDs))
	return nil
}

func (r *DeviceRegistry) Close() error {
	return r.client.Close()
}

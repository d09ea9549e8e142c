// Package registry tracks which rooms this relay instance is serving, as
// TTL keys in Redis refreshed by a heartbeat. A key that expires means the
// instance died and the room is free to be claimed elsewhere.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RiceCakess/holoclips/internal/config"
	"github.com/RiceCakess/holoclips/internal/domain"
	"github.com/RiceCakess/holoclips/pkg/log"
)

// RoomRegistry advertises the rooms an instance currently serves.
type RoomRegistry interface {
	Register(ctx context.Context, room domain.Room) error
	Deregister(ctx context.Context, room domain.Room) error
	StartHeartbeat()
	StopHeartbeat()
	Close() error
}

type redisRegistry struct {
	client     *redis.Client
	prefix     string
	instanceID string
	ttl        time.Duration
	interval   time.Duration

	mu          sync.Mutex
	managedKeys map[string]struct{}

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewRedisRegistry(cfg config.RedisConfig, instanceID string) (RoomRegistry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &redisRegistry{
		client:      client,
		prefix:      cfg.RegistryPrefix,
		instanceID:  instanceID,
		ttl:         cfg.KeyTTL,
		interval:    cfg.HeartbeatInterval,
		managedKeys: make(map[string]struct{}),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

func (r *redisRegistry) key(room domain.Room) string {
	return fmt.Sprintf("%s:%s", r.prefix, room.Key())
}

func (r *redisRegistry) Register(ctx context.Context, room domain.Room) error {
	key := r.key(room)
	if err := r.client.Set(ctx, key, r.instanceID, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to register room %s: %w", room.Key(), err)
	}

	r.mu.Lock()
	r.managedKeys[key] = struct{}{}
	r.mu.Unlock()

	l := log.L()
	l.Info().Str(log.FieldRoom, room.Key()).Msg("room registered")
	return nil
}

func (r *redisRegistry) Deregister(ctx context.Context, room domain.Room) error {
	key := r.key(room)

	r.mu.Lock()
	delete(r.managedKeys, key)
	r.mu.Unlock()

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to deregister room %s: %w", room.Key(), err)
	}

	l := log.L()
	l.Info().Str(log.FieldRoom, room.Key()).Msg("room deregistered")
	return nil
}

func (r *redisRegistry) StartHeartbeat() {
	go func() {
		defer close(r.doneCh)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.refreshAll()
			case <-r.stopCh:
				return
			}
		}
	}()
}

func (r *redisRegistry) refreshAll() {
	r.mu.Lock()
	keys := make([]string, 0, len(r.managedKeys))
	for key := range r.managedKeys {
		keys = append(keys, key)
	}
	r.mu.Unlock()

	if len(keys) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.interval)
	defer cancel()

	for _, key := range keys {
		if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
			l := log.L()
			l.Warn().Err(err).Str("key", key).Msg("heartbeat refresh failed")
		}
	}
}

func (r *redisRegistry) StopHeartbeat() {
	close(r.stopCh)
	<-r.doneCh
}

func (r *redisRegistry) Close() error {
	r.mu.Lock()
	keys := make([]string, 0, len(r.managedKeys))
	for key := range r.managedKeys {
		keys = append(keys, key)
	}
	r.managedKeys = make(map[string]struct{})
	r.mu.Unlock()

	if len(keys) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			l := log.L()
			l.Warn().Err(err).Msg("failed to clean up registry keys")
		}
	}

	return r.client.Close()
}

package directory

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedDirectory is a read-through Redis cache in front of another
// directory. Role lookups run on every approver resolution and sweep tick;
// the directory itself changes rarely.
type CachedDirectory struct {
	inner  Directory
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedDirectory(inner Directory, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedDirectory {
	return &CachedDirectory{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (d *CachedDirectory) UsersWithRole(ctx context.Context, role, department string) ([]User, error) {
	key := "signoff:directory:role:" + role + ":" + department

	cached, err := d.client.Get(ctx, key).Result()
	if err == nil {
		var users []User
		if err := json.Unmarshal([]byte(cached), &users); err == nil {
			return users, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		d.logger.WarnContext(ctx, "directory cache read failed", "key", key, "error", err)
	}

	users, err := d.inner.UsersWithRole(ctx, role, department)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(users)
	if err == nil {
		err = d.client.Set(ctx, key, payload, d.ttl).Err()
		if err != nil {
			d.logger.WarnContext(ctx, "directory cache write failed", "key", key, "error", err)
		}
	}

	return users, nil
}

// UserByID is not cached: single-user lookups are rare and staleness on
// active flags matters more there.
func (d *CachedDirectory) UserByID(ctx context.Context, id string) (*User, error) {
	return d.inner.UserByID(ctx, id)
}

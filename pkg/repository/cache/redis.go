package cache

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/repairdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
)

// Redis keeps the snapshot as a single string value. SET replaces the value
// atomically, so readers see either the old or the new snapshot.
type Redis struct {
	client *redis.Client
	key    string
	opts   options
}

var _ interfaces.CacheStore = &Redis{}

func NewRedis(client *redis.Client, key string, opts ...Option) *Redis {
	return &Redis{
		client: client,
		key:    key,
		opts:   newOptions(opts),
	}
}

func (r *Redis) Get(ctx context.Context) (*model.CaseSnapshot, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read cache snapshot", goerr.V(KeyName, r.key))
	}
	return decode(r.key, raw)
}

func (r *Redis) Put(ctx context.Context, snapshot *model.CaseSnapshot) error {
	raw, err := r.opts.encode(r.key, snapshot)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, raw, 0).Err(); err != nil {
		return goerr.Wrap(err, "failed to write cache snapshot", goerr.V(KeyName, r.key), goerr.V(SizeKey, len(raw)))
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return goerr.Wrap(err, "failed to clear cache snapshot", goerr.V(KeyName, r.key))
	}
	return nil
}

func (r *Redis) HasData(ctx context.Context) (bool, error) {
	n, err := r.client.Exists(ctx, r.key).Result()
	if err != nil {
		return false, goerr.Wrap(err, "failed to check cache snapshot", goerr.V(KeyName, r.key))
	}
	return n > 0, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

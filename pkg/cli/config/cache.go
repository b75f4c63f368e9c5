package config

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/repairdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/repository/cache"
	"github.com/secmon-lab/repairdesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	CacheMemory = "memory"
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
)

// Cache holds CLI flags for the local cache store
type Cache struct {
	backend       string
	path          string
	redisAddr     string
	redisPassword string
	redisDB       int
	installation  string
	maxBytes      int
}

func (x *Cache) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "cache-backend",
			Usage:       "Local cache backend (memory, sqlite or redis)",
			Value:       CacheSQLite,
			Category:    "Cache",
			Sources:     cli.EnvVars("REPAIRDESK_CACHE_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "cache-path",
			Usage:       "SQLite database file of the cache",
			Value:       "repairdesk-cache.db",
			Category:    "Cache",
			Sources:     cli.EnvVars("REPAIRDESK_CACHE_PATH"),
			Destination: &x.path,
		},
		&cli.StringFlag{
			Name:        "cache-redis-addr",
			Usage:       "Redis address of the cache",
			Value:       "localhost:6379",
			Category:    "Cache",
			Sources:     cli.EnvVars("REPAIRDESK_CACHE_REDIS_ADDR"),
			Destination: &x.redisAddr,
		},
		&cli.StringFlag{
			Name:        "cache-redis-password",
			Usage:       "Redis password of the cache",
			Category:    "Cache",
			Sources:     cli.EnvVars("REPAIRDESK_CACHE_REDIS_PASSWORD"),
			Destination: &x.redisPassword,
		},
		&cli.IntFlag{
			Name:        "cache-redis-db",
			Usage:       "Redis database number of the cache",
			Category:    "Cache",
			Sources:     cli.EnvVars("REPAIRDESK_CACHE_REDIS_DB"),
			Destination: &x.redisDB,
		},
		&cli.StringFlag{
			Name:        "cache-installation",
			Usage:       "Installation key isolating this device's snapshot (default: hostname)",
			Category:    "Cache",
			Sources:     cli.EnvVars("REPAIRDESK_CACHE_INSTALLATION"),
			Destination: &x.installation,
		},
		&cli.IntFlag{
			Name:        "cache-max-bytes",
			Usage:       "Capacity of an encoded snapshot in bytes (0 means unbounded)",
			Value:       5 << 20,
			Category:    "Cache",
			Sources:     cli.EnvVars("REPAIRDESK_CACHE_MAX_BYTES"),
			Destination: &x.maxBytes,
		},
	}
}

// Apply fills unset flags from the [cache] table and validates the result
func (x *Cache) Apply(c *cli.Command, file *FileConfig) error {
	if file != nil {
		fileString(c, "cache-backend", file.Cache.Backend, &x.backend)
		fileString(c, "cache-path", file.Cache.Path, &x.path)
		fileString(c, "cache-redis-addr", file.Cache.RedisAddr, &x.redisAddr)
		fileInt(c, "cache-redis-db", file.Cache.RedisDB, &x.redisDB)
		fileString(c, "cache-installation", file.Cache.Installation, &x.installation)
		fileInt(c, "cache-max-bytes", file.Cache.MaxBytes, &x.maxBytes)
	}
	return x.Validate()
}

func (x *Cache) Validate() error {
	switch x.backend {
	case CacheMemory:
	case CacheSQLite:
		if x.path == "" {
			return goerr.Wrap(ErrMissingValue, "cache-path is required for the sqlite cache", goerr.V(FlagKey, "cache-path"))
		}
	case CacheRedis:
		if x.redisAddr == "" {
			return goerr.Wrap(ErrMissingValue, "cache-redis-addr is required for the redis cache", goerr.V(FlagKey, "cache-redis-addr"))
		}
	default:
		return goerr.Wrap(ErrInvalidBackend, "invalid cache backend", goerr.V(BackendKey, x.backend))
	}
	if x.maxBytes < 0 {
		return goerr.Wrap(ErrInvalidConfig, "cache-max-bytes must not be negative", goerr.V(ValueKey, x.maxBytes))
	}
	return nil
}

func (x *Cache) Backend() string { return x.backend }

// Installation returns the installation key. Without a configured key the
// hostname is used so a restarted process finds its own snapshot.
func (x *Cache) Installation() string {
	if x.installation != "" {
		return x.installation
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return uuid.NewString()
}

// Configure opens the cache store holding the snapshot of scope.
// The caller is responsible for calling Close() on the returned store.
func (x *Cache) Configure(scope model.Scope) (interfaces.CacheStore, error) {
	if err := x.Validate(); err != nil {
		return nil, err
	}

	opts := []cache.Option{cache.WithMaxBytes(x.maxBytes)}
	key := cache.Key(x.Installation(), scope)

	switch x.backend {
	case CacheSQLite:
		store, err := cache.NewSQLite(x.path, key, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open sqlite cache", goerr.V("path", x.path))
		}
		logging.Default().Info("Using SQLite cache", "path", x.path, "key", key)
		return store, nil

	case CacheRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     x.redisAddr,
			Password: x.redisPassword,
			DB:       x.redisDB,
		})
		logging.Default().Info("Using Redis cache", "addr", x.redisAddr, "db", x.redisDB, "key", key)
		return cache.NewRedis(client, key, opts...), nil

	default:
		logging.Default().Info("Using in-memory cache (snapshots are lost on exit)")
		return cache.NewMemory(opts...), nil
	}
}

// cacheView is the loggable form of Cache
type cacheView struct {
	Backend       string `json:"backend"`
	Path          string `json:"path"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password" masq:"secret"`
	RedisDB       int    `json:"redis_db"`
	Installation  string `json:"installation"`
	MaxBytes      int    `json:"max_bytes"`
}

func (x Cache) LogValue() slog.Value {
	return slog.AnyValue(cacheView{
		Backend:       x.backend,
		Path:          x.path,
		RedisAddr:     x.redisAddr,
		RedisPassword: x.redisPassword,
		RedisDB:       x.redisDB,
		Installation:  x.installation,
		MaxBytes:      x.maxBytes,
	})
}

package config_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/repairdesk/pkg/cli/config"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/repository/cache"
	"github.com/secmon-lab/repairdesk/pkg/usecase"
	"github.com/secmon-lab/repairdesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// run parses args into flags and calls action with the parsed command
func run(t *testing.T, flags []cli.Flag, args []string, action func(c *cli.Command) error) error {
	t.Helper()
	cmd := &cli.Command{
		Name:  "test",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			return action(c)
		},
	}
	return cmd.Run(context.Background(), append([]string{"test"}, args...))
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repairdesk.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name: "valid configuration",
			content: `
[sync]
debounce_window = "1s"
settle_delay = "3s"
probe_url = "https://example.com/health"

[cache]
backend = "redis"
redis_db = 2
max_bytes = 1024
`,
		},
		{
			name:    "empty file",
			content: "",
		},
		{
			name: "invalid duration",
			content: `
[sync]
fetch_timeout = "soon"
`,
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "negative duration",
			content: `
[sync]
reconnect_delay = "-1s"
`,
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "negative max bytes",
			content: `
[cache]
max_bytes = -1
`,
			wantErr: config.ErrInvalidConfig,
		},
		{
			name:    "malformed toml",
			content: `[sync`,
			wantErr: config.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.LoadFile(writeFile(t, tt.content))
			if tt.wantErr != nil {
				gt.Error(t, err).Is(tt.wantErr)
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, cfg).NotNil()
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
		gt.Value(t, err).NotNil()
	})
}

func TestSync_Apply(t *testing.T) {
	file := &config.FileConfig{
		Sync: config.SyncFile{
			DebounceWindow: "1s",
			SettleDelay:    "4s",
			ProbeURL:       "https://example.com/health",
		},
	}

	t.Run("defaults", func(t *testing.T) {
		var s config.Sync
		gt.NoError(t, run(t, s.Flags(), nil, func(c *cli.Command) error {
			return s.Apply(c, nil)
		})).Required()

		gt.Value(t, s.DebounceWindow()).Equal(usecase.DefaultDebounceWindow)
		gt.Value(t, s.FetchTimeout()).Equal(usecase.DefaultFetchTimeout)
		gt.Value(t, s.SettleDelay()).Equal(usecase.DefaultSettleDelay)
		gt.Value(t, s.ReconnectDelay()).Equal(usecase.DefaultReconnectDelay)
		gt.B(t, s.Offline()).False()
	})

	t.Run("file fills unset flags", func(t *testing.T) {
		var s config.Sync
		gt.NoError(t, run(t, s.Flags(), nil, func(c *cli.Command) error {
			return s.Apply(c, file)
		})).Required()

		gt.Value(t, s.DebounceWindow()).Equal(time.Second)
		gt.Value(t, s.SettleDelay()).Equal(4 * time.Second)
		gt.Value(t, s.ProbeURL()).Equal("https://example.com/health")
	})

	t.Run("flags override file", func(t *testing.T) {
		var s config.Sync
		args := []string{"--sync-debounce", "250ms", "--probe-url", "https://probe.test"}
		gt.NoError(t, run(t, s.Flags(), args, func(c *cli.Command) error {
			return s.Apply(c, file)
		})).Required()

		gt.Value(t, s.DebounceWindow()).Equal(250 * time.Millisecond)
		gt.Value(t, s.SettleDelay()).Equal(4 * time.Second)
		gt.Value(t, s.ProbeURL()).Equal("https://probe.test")
	})

	t.Run("zero settle delay is rejected", func(t *testing.T) {
		var s config.Sync
		err := run(t, s.Flags(), []string{"--sync-settle-delay", "0s"}, func(c *cli.Command) error {
			return s.Apply(c, nil)
		})
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})
}

func TestSync_Connectivity(t *testing.T) {
	t.Run("offline flag pins the signal offline", func(t *testing.T) {
		var s config.Sync
		gt.NoError(t, run(t, s.Flags(), []string{"--offline"}, func(c *cli.Command) error {
			network, stop, err := s.Connectivity(context.Background())
			if err != nil {
				return err
			}
			defer stop()
			gt.B(t, network.Online()).False()
			return nil
		})).Required()
	})

	t.Run("no probe url means online", func(t *testing.T) {
		var s config.Sync
		gt.NoError(t, run(t, s.Flags(), nil, func(c *cli.Command) error {
			network, stop, err := s.Connectivity(context.Background())
			if err != nil {
				return err
			}
			defer stop()
			gt.B(t, network.Online()).True()
			return nil
		})).Required()
	})
}

func TestCache_Configure(t *testing.T) {
	scope := model.Scope{UserID: "tech-1"}

	t.Run("memory", func(t *testing.T) {
		var x config.Cache
		gt.NoError(t, run(t, x.Flags(), []string{"--cache-backend", "memory"}, func(c *cli.Command) error {
			return x.Apply(c, nil)
		})).Required()

		store, err := x.Configure(scope)
		gt.NoError(t, err).Required()
		defer func() { gt.NoError(t, store.Close()) }()
		_, ok := store.(*cache.Memory)
		gt.B(t, ok).True()
	})

	t.Run("sqlite", func(t *testing.T) {
		var x config.Cache
		path := filepath.Join(t.TempDir(), "cache.db")
		gt.NoError(t, run(t, x.Flags(), []string{"--cache-path", path, "--cache-installation", "dev-1"}, func(c *cli.Command) error {
			return x.Apply(c, nil)
		})).Required()

		store, err := x.Configure(scope)
		gt.NoError(t, err).Required()
		defer func() { gt.NoError(t, store.Close()) }()
		_, ok := store.(*cache.SQLite)
		gt.B(t, ok).True()
		gt.Value(t, x.Installation()).Equal("dev-1")
	})

	t.Run("redis from file", func(t *testing.T) {
		mr := miniredis.RunT(t)
		db := 3
		file := &config.FileConfig{Cache: config.CacheFile{
			Backend:   "redis",
			RedisAddr: mr.Addr(),
			RedisDB:   &db,
		}}

		var x config.Cache
		gt.NoError(t, run(t, x.Flags(), nil, func(c *cli.Command) error {
			return x.Apply(c, file)
		})).Required()
		gt.Value(t, x.Backend()).Equal(config.CacheRedis)

		store, err := x.Configure(scope)
		gt.NoError(t, err).Required()
		defer func() { gt.NoError(t, store.Close()) }()

		ctx := context.Background()
		snapshot := model.NewCaseSnapshot([]*model.Case{{ID: "case-1", UserID: "tech-1"}}, time.Now())
		gt.NoError(t, store.Put(ctx, snapshot)).Required()
		has, err := store.HasData(ctx)
		gt.NoError(t, err).Required()
		gt.B(t, has).True()
	})

	t.Run("file max bytes", func(t *testing.T) {
		size := 2048
		var x config.Cache
		gt.NoError(t, run(t, x.Flags(), nil, func(c *cli.Command) error {
			return x.Apply(c, &config.FileConfig{Cache: config.CacheFile{MaxBytes: &size}})
		})).Required()
		gt.Number(t, x.MaxBytes()).Equal(2048)
	})

	t.Run("invalid backend", func(t *testing.T) {
		var x config.Cache
		err := run(t, x.Flags(), []string{"--cache-backend", "floppy"}, func(c *cli.Command) error {
			return x.Apply(c, nil)
		})
		gt.Error(t, err).Is(config.ErrInvalidBackend)
	})
}

func TestCache_LogValueMasksPassword(t *testing.T) {
	var x config.Cache
	gt.NoError(t, run(t, x.Flags(), []string{"--cache-redis-password", "hunter2-secret"}, func(c *cli.Command) error {
		return nil
	})).Required()

	var buf bytes.Buffer
	logger := logging.New(&buf, logging.FormatJSON, 0)
	logger.Info("cache config", "cache", x)

	gt.S(t, buf.String()).NotContains("hunter2-secret")
	gt.S(t, buf.String()).Contains("localhost:6379")
}

func TestRepository_Validate(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		var r config.Repository
		gt.NoError(t, run(t, r.Flags(), []string{"--repository-backend", "memory"}, func(c *cli.Command) error {
			return r.Validate()
		}))
	})

	t.Run("firestore requires a project", func(t *testing.T) {
		var r config.Repository
		err := run(t, r.Flags(), nil, func(c *cli.Command) error {
			return r.Validate()
		})
		gt.Error(t, err).Is(config.ErrMissingValue)
	})

	t.Run("unknown backend", func(t *testing.T) {
		var r config.Repository
		err := run(t, r.Flags(), []string{"--repository-backend", "postgres"}, func(c *cli.Command) error {
			return r.Validate()
		})
		gt.Error(t, err).Is(config.ErrInvalidBackend)
	})
}

func TestScope_Configure(t *testing.T) {
	var s config.Scope
	err := run(t, s.Flags(), nil, func(c *cli.Command) error {
		_, err := s.Configure()
		return err
	})
	gt.Error(t, err).Is(model.ErrInvalidScope)

	gt.NoError(t, run(t, s.Flags(), []string{"--user-id", "tech-1", "--company-id", "acme"}, func(c *cli.Command) error {
		scope, err := s.Configure()
		if err != nil {
			return err
		}
		gt.B(t, scope.IsTeam()).True()
		gt.Value(t, scope.UserID).Equal("tech-1")
		return nil
	}))
}

func TestLogger_Configure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repairdesk.log")

	var l config.Logger
	gt.NoError(t, run(t, l.Flags(), []string{"--log-output", path, "--log-format", "json"}, func(c *cli.Command) error {
		closer, err := l.Configure()
		if err != nil {
			return err
		}
		logging.Default().Info("written to file")
		closer()
		return nil
	})).Required()
	t.Cleanup(func() { logging.SetDefault(logging.New(os.Stderr, logging.FormatConsole, 0)) })

	data, err := os.ReadFile(path)
	gt.NoError(t, err).Required()
	gt.S(t, string(data)).Contains("written to file")

	var bad config.Logger
	err = run(t, bad.Flags(), []string{"--log-level", "loud"}, func(c *cli.Command) error {
		_, err := bad.Configure()
		return err
	})
	gt.Value(t, err).NotNil()
}

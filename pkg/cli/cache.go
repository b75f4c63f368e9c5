package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/repairdesk/pkg/utils/logging"
	"github.com/secmon-lab/repairdesk/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdCache() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the local case cache",
		Commands: []*cli.Command{
			cmdCacheShow(),
			cmdCacheClear(),
		},
	}
}

// withCache opens the configured cache store for the duration of fn
func withCache(ctx context.Context, c *cli.Command, appCfg *appConfig, fn func(store interfaces.CacheStore) error) error {
	store, _, err := appCfg.loadCache(c)
	if err != nil {
		return goerr.Wrap(err, "failed to open cache")
	}
	defer safe.Close(ctx, store)
	return fn(store)
}

func cmdCacheShow() *cli.Command {
	var appCfg appConfig

	return &cli.Command{
		Name:  "show",
		Usage: "Print the cached case snapshot",
		Flags: appCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			return withCache(ctx, c, &appCfg, func(store interfaces.CacheStore) error {
				snapshot, err := store.Get(ctx)
				if err != nil {
					return goerr.Wrap(err, "failed to read cache")
				}

				w := c.Root().Writer
				if snapshot == nil {
					_, err := fmt.Fprintln(w, "Cache is empty")
					return err
				}

				if _, err := fmt.Fprintf(w, "Captured at %s (%s ago)\n",
					snapshot.CapturedAt.Local().Format(time.RFC3339),
					snapshot.Age(time.Now()).Truncate(time.Second)); err != nil {
					return err
				}
				return printCases(w, snapshot.Cases)
			})
		},
	}
}

func cmdCacheClear() *cli.Command {
	var appCfg appConfig

	return &cli.Command{
		Name:  "clear",
		Usage: "Delete the cached case snapshot",
		Flags: appCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			return withCache(ctx, c, &appCfg, func(store interfaces.CacheStore) error {
				if err := store.Clear(ctx); err != nil {
					return goerr.Wrap(err, "failed to clear cache")
				}
				logging.Default().Info("Cache cleared", "backend", appCfg.cache.Backend())
				return nil
			})
		},
	}
}

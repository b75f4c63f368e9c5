package cli

import (
	"context"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/cli/config"
	"github.com/secmon-lab/repairdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/usecase"
	"github.com/secmon-lab/repairdesk/pkg/utils/logging"
	"github.com/secmon-lab/repairdesk/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// appConfig is the flag set shared by commands that synchronize cases
type appConfig struct {
	file  config.File
	repo  config.Repository
	cache config.Cache
	sync  config.Sync
	scope config.Scope
}

func (a *appConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, a.file.Flags()...)
	flags = append(flags, a.repo.Flags()...)
	flags = append(flags, a.cache.Flags()...)
	flags = append(flags, a.sync.Flags()...)
	flags = append(flags, a.scope.Flags()...)
	return flags
}

// loadCache resolves the file, cache and scope settings and opens the cache
// store without touching the backend.
func (a *appConfig) loadCache(c *cli.Command) (interfaces.CacheStore, model.Scope, error) {
	file, err := a.file.Load()
	if err != nil {
		return nil, model.Scope{}, err
	}
	if err := a.cache.Apply(c, file); err != nil {
		return nil, model.Scope{}, err
	}
	if err := a.sync.Apply(c, file); err != nil {
		return nil, model.Scope{}, err
	}
	scope, err := a.scope.Configure()
	if err != nil {
		return nil, model.Scope{}, goerr.Wrap(err, "invalid scope")
	}
	store, err := a.cache.Configure(scope)
	if err != nil {
		return nil, model.Scope{}, err
	}
	return store, scope, nil
}

// build wires backend, cache, connectivity and the use cases. The returned
// function releases everything in reverse order.
func (a *appConfig) build(ctx context.Context, c *cli.Command) (*usecase.UseCases, func(), error) {
	store, scope, err := a.loadCache(c)
	if err != nil {
		return nil, nil, err
	}

	repo, err := a.repo.Configure(ctx)
	if err != nil {
		safe.Close(ctx, store)
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}

	network, stopProbe, err := a.sync.Connectivity(ctx)
	if err != nil {
		safe.Close(ctx, store)
		safe.Close(ctx, repo)
		return nil, nil, err
	}

	uc := usecase.New(repo, store, network, scope, a.sync.UseCaseOptions()...)

	logging.Default().Info("Case synchronization configured",
		"scope", scope.Key(),
		"repository", a.repo,
		"cache", a.cache,
		"sync", a.sync,
	)

	cleanup := func() {
		uc.Close()
		stopProbe()
		for _, closer := range []io.Closer{store, repo} {
			safe.Close(ctx, closer)
		}
	}
	return uc, cleanup, nil
}

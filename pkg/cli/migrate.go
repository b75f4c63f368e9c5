package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var projectID string
	var databaseID string
	var collectionPrefix string
	var dryRun bool

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate Firestore indexes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "firestore-project-id",
				Usage:       "Firestore Project ID (required)",
				Required:    true,
				Sources:     cli.EnvVars("REPAIRDESK_FIRESTORE_PROJECT_ID"),
				Destination: &projectID,
			},
			&cli.StringFlag{
				Name:        "firestore-database-id",
				Usage:       "Firestore Database ID",
				Value:       "(default)",
				Sources:     cli.EnvVars("REPAIRDESK_FIRESTORE_DATABASE_ID"),
				Destination: &databaseID,
			},
			&cli.StringFlag{
				Name:        "firestore-collection-prefix",
				Usage:       "Prefix prepended to every Firestore collection name",
				Sources:     cli.EnvVars("REPAIRDESK_FIRESTORE_COLLECTION_PREFIX"),
				Destination: &collectionPrefix,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "Preview changes without applying",
				Destination: &dryRun,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			logger.Info("Migrate configuration",
				"projectID", projectID,
				"databaseID", databaseID,
				"collectionPrefix", collectionPrefix,
				"dryRun", dryRun)

			indexConfig := getIndexConfig(collectionPrefix)

			client, err := fireconf.New(ctx, projectID, databaseID, indexConfig,
				fireconf.WithLogger(logger),
				fireconf.WithDryRun(dryRun))
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client")
			}
			defer func() {
				if err := client.Close(); err != nil {
					logger.Error("failed to close fireconf client", "error", err.Error())
				}
			}()

			if dryRun {
				logger.Info("Dry run mode - previewing changes")
				current, err := client.Import(ctx, collectionNames(indexConfig)...)
				if err != nil {
					return goerr.Wrap(err, "failed to import current indexes")
				}
				diff, err := client.DiffConfigs(current)
				if err != nil {
					return goerr.Wrap(err, "failed to diff index configuration")
				}

				if len(diff.Collections) == 0 {
					logger.Info("No changes required")
					return nil
				}

				for _, col := range diff.Collections {
					logger.Info("Migration step",
						"collection", col.Name,
						"action", string(col.Action),
						"indexesToAdd", len(col.IndexesToAdd),
						"indexesToDelete", len(col.IndexesToDelete))
				}
			} else {
				logger.Info("Applying migrations")
				if err := client.Migrate(ctx); err != nil {
					return goerr.Wrap(err, "failed to apply migrations")
				}
				logger.Info("Migrations applied successfully")
			}

			return nil
		},
	}
}

// scopedIndexes are the composite indexes behind per-user and per-company
// listings ordered newest first
func scopedIndexes() []fireconf.Index {
	return []fireconf.Index{
		// user_id ASC, created_at DESC
		{
			Fields: []fireconf.IndexField{
				{Path: "user_id", Order: fireconf.OrderAscending},
				{Path: "created_at", Order: fireconf.OrderDescending},
			},
		},
		// company_id ASC, created_at DESC
		{
			Fields: []fireconf.IndexField{
				{Path: "company_id", Order: fireconf.OrderAscending},
				{Path: "created_at", Order: fireconf.OrderDescending},
			},
		},
	}
}

// getIndexConfig returns the Firestore index configuration. The public lead
// listing orders on a single field and needs no composite index.
func getIndexConfig(prefix string) *fireconf.Config {
	name := func(collection string) string {
		if prefix != "" {
			return prefix + "_" + collection
		}
		return collection
	}

	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{Name: name(model.CollectionCases), Indexes: scopedIndexes()},
			{Name: name(model.CollectionInvoices), Indexes: scopedIndexes()},
			{Name: name(model.CollectionExpenses), Indexes: scopedIndexes()},
		},
	}
}

func collectionNames(config *fireconf.Config) []string {
	names := make([]string, 0, len(config.Collections))
	for _, col := range config.Collections {
		names = append(names, col.Name)
	}
	return names
}

package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/types"
	"github.com/secmon-lab/repairdesk/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdCases() *cli.Command {
	return &cli.Command{
		Name:  "cases",
		Usage: "Inspect and update cases",
		Commands: []*cli.Command{
			cmdCasesList(),
			cmdCasesSetStatus(),
		},
	}
}

func cmdCasesList() *cli.Command {
	var appCfg appConfig
	var showPublic bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "public",
			Usage:       "Also list unclaimed public leads",
			Destination: &showPublic,
		},
	}
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "Fetch cases once and print them",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, cleanup, err := appCfg.build(ctx, c)
			if err != nil {
				return goerr.Wrap(err, "failed to build use cases")
			}
			defer cleanup()

			result, err := uc.Sync.Fetch(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to fetch cases")
			}
			return printFetchResult(c.Root().Writer, result, showPublic)
		},
	}
}

func cmdCasesSetStatus() *cli.Command {
	var appCfg appConfig
	var reason string
	var subStatus string

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "reason",
			Usage:       "Cancellation reason (required when cancelling)",
			Destination: &reason,
		},
		&cli.StringFlag{
			Name:        "sub-status",
			Usage:       "Parts-return sub status written with the change",
			Destination: &subStatus,
		},
	}
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:      "set-status",
		Usage:     "Change the status of a case or claim a public lead",
		ArgsUsage: "CASE_ID STATUS",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 2 {
				return goerr.New("CASE_ID and STATUS are required", goerr.V("args", c.Args().Slice()))
			}
			caseID := c.Args().Get(0)
			status := types.CaseStatus(c.Args().Get(1))

			uc, cleanup, err := appCfg.build(ctx, c)
			if err != nil {
				return goerr.Wrap(err, "failed to build use cases")
			}
			defer cleanup()

			// The case must be known locally before it can be changed
			if _, err := uc.Sync.Fetch(ctx); err != nil {
				return goerr.Wrap(err, "failed to fetch cases")
			}

			var opts []usecase.StatusOption
			if reason != "" {
				opts = append(opts, usecase.WithReason(reason))
			}
			if subStatus != "" {
				opts = append(opts, usecase.WithSubStatus(types.SubStatus(subStatus)))
			}

			outcome, err := uc.Status.SetStatus(ctx, caseID, status, opts...)
			if err != nil {
				return goerr.Wrap(err, "failed to change status", goerr.V(usecase.CaseIDKey, caseID))
			}

			w := c.Root().Writer
			if outcome.Claimed {
				_, err = fmt.Fprintf(w, "Claimed %s as %s\n", outcome.CaseID, colorStatus(outcome.Status))
			} else {
				_, err = fmt.Fprintf(w, "Updated %s to %s\n", outcome.CaseID, colorStatus(outcome.Status))
			}
			return err
		},
	}
}

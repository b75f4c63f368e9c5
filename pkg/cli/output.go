package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/domain/types"
)

var (
	statusColors = map[types.CaseStatus]*color.Color{
		types.CaseStatusScheduled:  color.New(color.FgCyan),
		types.CaseStatusInProgress: color.New(color.FgYellow),
		types.CaseStatusCompleted:  color.New(color.FgGreen),
		types.CaseStatusCancelled:  color.New(color.FgRed),
	}
	noticeColor = color.New(color.FgYellow, color.Bold)
	headerColor = color.New(color.Bold)
)

func colorStatus(s types.CaseStatus) string {
	if s.IsCancel() {
		return statusColors[types.CaseStatusCancelled].Sprint(s)
	}
	if c, ok := statusColors[s]; ok {
		return c.Sprint(s)
	}
	return string(s)
}

// printFetchResult writes the notice line and the owned and public case tables
func printFetchResult(w io.Writer, result *model.FetchResult, showPublic bool) error {
	if result.Notice != types.NoticeNone {
		if _, err := noticeColor.Fprintln(w, string(result.Notice)); err != nil {
			return err
		}
	}
	if !result.CapturedAt.IsZero() {
		if _, err := fmt.Fprintf(w, "Captured at %s (source: %s)\n", result.CapturedAt.Local().Format(time.RFC3339), result.Source); err != nil {
			return err
		}
	}

	if err := printCases(w, result.Cases); err != nil {
		return err
	}

	if showPublic {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := printPublicCases(w, result.PublicCases); err != nil {
			return err
		}
	}
	return nil
}

func printCases(w io.Writer, cases []*model.Case) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := headerColor.Fprintln(tw, "ID\tCUSTOMER\tAPPLIANCE\tSTATUS\tCREATED"); err != nil {
		return err
	}
	for _, c := range cases {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.CustomerName, c.ApplianceType, colorStatus(c.Status), c.CreatedAt.Local().Format("2006-01-02")); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d case(s)\n", len(cases))
	return err
}

func printPublicCases(w io.Writer, cases []*model.PublicCase) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := headerColor.Fprintln(tw, "LEAD\tCUSTOMER\tAPPLIANCE\tCITY\tCREATED"); err != nil {
		return err
	}
	for _, c := range cases {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.CustomerName, c.ApplianceType, c.City, c.CreatedAt.Local().Format("2006-01-02")); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d public lead(s)\n", len(cases))
	return err
}

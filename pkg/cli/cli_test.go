package cli_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/repairdesk/pkg/cli"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/domain/types"
)

func TestPrintFetchResult(t *testing.T) {
	color.NoColor = true

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	result := &model.FetchResult{
		Cases: []*model.Case{
			{ID: "case-1", CustomerName: "Ada", ApplianceType: "Oven", Status: types.CaseStatusInProgress, CreatedAt: created},
			{ID: "case-2", CustomerName: "Grace", ApplianceType: "Dryer", Status: "awaiting parts", CreatedAt: created},
		},
		PublicCases: []*model.PublicCase{
			{ID: "lead-1", CustomerName: "Linus", ApplianceType: "Washer", City: "Springfield", CreatedAt: created},
		},
		Source:     types.DataSourceCache,
		Stale:      true,
		Notice:     types.NoticeConnectionIssues,
		CapturedAt: created,
	}

	t.Run("owned only", func(t *testing.T) {
		var buf bytes.Buffer
		gt.NoError(t, cli.PrintFetchResult(&buf, result, false)).Required()

		out := buf.String()
		gt.S(t, out).Contains(string(types.NoticeConnectionIssues))
		gt.S(t, out).Contains("case-1")
		gt.S(t, out).Contains("In Progress")
		gt.S(t, out).Contains("awaiting parts")
		gt.S(t, out).Contains("2 case(s)")
		gt.S(t, out).NotContains("lead-1")
	})

	t.Run("with public leads", func(t *testing.T) {
		var buf bytes.Buffer
		gt.NoError(t, cli.PrintFetchResult(&buf, result, true)).Required()

		out := buf.String()
		gt.S(t, out).Contains("lead-1")
		gt.S(t, out).Contains("Springfield")
		gt.S(t, out).Contains("1 public lead(s)")
	})

	t.Run("no notice for fresh data", func(t *testing.T) {
		var buf bytes.Buffer
		fresh := &model.FetchResult{Source: types.DataSourceRemote}
		gt.NoError(t, cli.PrintFetchResult(&buf, fresh, false)).Required()
		gt.S(t, buf.String()).Contains("0 case(s)")
		gt.S(t, buf.String()).NotContains("Captured at")
	})
}

func TestGetIndexConfig(t *testing.T) {
	cfg := cli.GetIndexConfig("")
	gt.A(t, cfg.Collections).Length(3).Required()
	gt.Value(t, cfg.Collections[0].Name).Equal(model.CollectionCases)
	gt.A(t, cfg.Collections[0].Indexes).Length(2)

	prefixed := cli.GetIndexConfig("test")
	for _, col := range prefixed.Collections {
		gt.B(t, strings.HasPrefix(col.Name, "test_")).True()
	}
	gt.A(t, cli.CollectionNames(prefixed)).Equal([]string{
		"test_" + model.CollectionCases,
		"test_" + model.CollectionInvoices,
		"test_" + model.CollectionExpenses,
	})
}

package errutil_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/utils/errutil"
)

func setupSentry(t *testing.T) *sentry.MockTransport {
	t.Helper()
	transport := &sentry.MockTransport{}
	gt.NoError(t, sentry.Init(sentry.ClientOptions{Transport: transport})).Required()
	t.Cleanup(func() { sentry.CurrentHub().BindClient(nil) })
	return transport
}

func TestHandle_ReportsValuesToSentry(t *testing.T) {
	transport := setupSentry(t)

	err := goerr.New("backend exploded", goerr.V("case_id", "case-1"))
	gt.Error(t, errutil.Handle(context.Background(), err, "fetch failed")).Is(err)

	events := transport.Events()
	gt.A(t, events).Length(1).Required()
	gt.Value(t, events[0].Tags["message"]).Equal("fetch failed")
	values, ok := events[0].Contexts["values"]
	gt.B(t, ok).True()
	gt.Value(t, values["case_id"]).Equal(any("case-1"))
}

func TestHandle_SkipsExpectedErrors(t *testing.T) {
	transport := setupSentry(t)

	_ = errutil.Handle(context.Background(), goerr.Wrap(model.ErrOffline, "status change refused"), "refused")
	_ = errutil.Handle(context.Background(), goerr.Wrap(model.ErrUnauthenticated, "token expired"), "refused")
	gt.A(t, transport.Events()).Length(0)
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "auth", err: goerr.Wrap(model.ErrUnauthenticated, "x"), want: http.StatusUnauthorized},
		{name: "offline", err: goerr.Wrap(model.ErrOffline, "x"), want: http.StatusServiceUnavailable},
		{name: "transient", err: goerr.Wrap(model.ErrTransient, "x"), want: http.StatusBadGateway},
		{name: "unknown", err: goerr.New("x"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, errutil.StatusCode(tt.err)).Equal(tt.want)
		})
	}
}

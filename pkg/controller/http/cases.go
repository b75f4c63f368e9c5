package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/domain/types"
	"github.com/secmon-lab/repairdesk/pkg/usecase"
	"github.com/secmon-lab/repairdesk/pkg/utils/async"
	"github.com/secmon-lab/repairdesk/pkg/utils/errutil"
)

// caseView is a case with the statuses a client may offer next
type caseView struct {
	*model.Case
	NextStatuses []types.CaseStatus `json:"next_statuses"`
}

type casesResponse struct {
	Cases     []caseView      `json:"cases"`
	State     types.SyncState `json:"state"`
	Stale     bool            `json:"stale"`
	Online    bool            `json:"online"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

type publicCasesResponse struct {
	PublicCases []*model.PublicCase `json:"public_cases"`
}

type fetchResponse struct {
	Cases       []caseView          `json:"cases"`
	PublicCases []*model.PublicCase `json:"public_cases"`
	Source      types.DataSource    `json:"source"`
	Stale       bool                `json:"stale"`
	Skipped     types.SkipReason    `json:"skipped,omitempty"`
	Notice      types.Notice        `json:"notice,omitempty"`
	CapturedAt  *time.Time          `json:"captured_at,omitempty"`
}

type statusRequest struct {
	Status    string `json:"status"`
	Reason    string `json:"reason"`
	SubStatus string `json:"sub_status"`
}

type statusResponse struct {
	CaseID  string           `json:"case_id"`
	Status  types.CaseStatus `json:"status"`
	Claimed bool             `json:"claimed"`
}

type syncResponse struct {
	State    types.SyncState `json:"state"`
	Stale    bool            `json:"stale"`
	Online   bool            `json:"online"`
	HasCache bool            `json:"has_cache"`
	Cases    int             `json:"cases"`
	Public   int             `json:"public_cases"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func toCaseViews(cases []*model.Case) []caseView {
	views := make([]caseView, 0, len(cases))
	for _, c := range cases {
		next := types.Transitions(c.Status)
		if next == nil {
			next = []types.CaseStatus{}
		}
		views = append(views, caseView{Case: c, NextStatuses: next})
	}
	return views
}

func nonNilPublicCases(cases []*model.PublicCase) []*model.PublicCase {
	if cases == nil {
		return []*model.PublicCase{}
	}
	return cases
}

func (s *Server) listCases(w http.ResponseWriter, r *http.Request) {
	state := s.uc.Sync.Snapshot()
	writeJSON(w, r, http.StatusOK, casesResponse{
		Cases:     toCaseViews(state.Cases),
		State:     state.State,
		Stale:     state.Stale,
		Online:    state.Online,
		UpdatedAt: timePtr(state.UpdatedAt),
	})
}

func (s *Server) listPublicCases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, publicCasesResponse{
		PublicCases: nonNilPublicCases(s.uc.Sync.PublicCases()),
	})
}

// refreshCases runs a fetch. With ?async=true the fetch is dispatched in the
// background and 202 is returned at once.
func (s *Server) refreshCases(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("async") == "true" {
		async.Dispatch(r.Context(), func(ctx context.Context) error {
			_, err := s.uc.Sync.Fetch(ctx)
			return err
		})
		writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "scheduled"})
		return
	}

	result, err := s.uc.Sync.Fetch(r.Context())
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, errutil.StatusCode(err))
		return
	}

	writeJSON(w, r, http.StatusOK, fetchResponse{
		Cases:       toCaseViews(result.Cases),
		PublicCases: nonNilPublicCases(result.PublicCases),
		Source:      result.Source,
		Stale:       result.Stale,
		Skipped:     result.Skipped,
		Notice:      result.Notice,
		CapturedAt:  timePtr(result.CapturedAt),
	})
}

func (s *Server) setCaseStatus(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body", goerr.V(usecase.CaseIDKey, caseID)), http.StatusBadRequest)
		return
	}

	var opts []usecase.StatusOption
	if req.Reason != "" {
		opts = append(opts, usecase.WithReason(req.Reason))
	}
	if req.SubStatus != "" {
		opts = append(opts, usecase.WithSubStatus(types.SubStatus(req.SubStatus)))
	}

	outcome, err := s.uc.Status.SetStatus(r.Context(), caseID, types.CaseStatus(req.Status), opts...)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, errutil.StatusCode(err))
		return
	}

	writeJSON(w, r, http.StatusOK, statusResponse{
		CaseID:  outcome.CaseID,
		Status:  outcome.Status,
		Claimed: outcome.Claimed,
	})
}

func (s *Server) syncStatus(w http.ResponseWriter, r *http.Request) {
	state := s.uc.Sync.Snapshot()
	writeJSON(w, r, http.StatusOK, syncResponse{
		State:    state.State,
		Stale:    state.Stale,
		Online:   state.Online,
		HasCache: s.uc.Sync.HasCache(r.Context()),
		Cases:    len(state.Cases),
		Public:   len(state.PublicCases),
	})
}

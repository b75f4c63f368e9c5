package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/domain/types"
)

type caseRepository struct {
	mu     sync.RWMutex
	cases  map[string]*model.Case
	public map[string]*model.PublicCase
	faults *faults
	broker *broker
	now    func() time.Time
}

func newCaseRepository(f *faults, b *broker) *caseRepository {
	return &caseRepository{
		cases:  make(map[string]*model.Case),
		public: make(map[string]*model.PublicCase),
		faults: f,
		broker: b,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *caseRepository) ListOwnedCases(ctx context.Context, scope model.Scope) ([]*model.Case, error) {
	if err := r.faults.record(OpListOwnedCases); err != nil {
		return nil, err
	}
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cases := make([]*model.Case, 0, len(r.cases))
	for _, c := range r.cases {
		if scope.Matches(c) {
			cases = append(cases, c.Clone())
		}
	}

	sort.Slice(cases, func(i, j int) bool {
		if !cases[i].CreatedAt.Equal(cases[j].CreatedAt) {
			return cases[i].CreatedAt.After(cases[j].CreatedAt)
		}
		return cases[i].ID < cases[j].ID
	})
	return cases, nil
}

func (r *caseRepository) ListPublicCases(ctx context.Context) ([]*model.PublicCase, error) {
	if err := r.faults.record(OpListPublicCases); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cases := make([]*model.PublicCase, 0, len(r.public))
	for _, c := range r.public {
		cases = append(cases, c.Clone())
	}

	sort.Slice(cases, func(i, j int) bool {
		if !cases[i].CreatedAt.Equal(cases[j].CreatedAt) {
			return cases[i].CreatedAt.After(cases[j].CreatedAt)
		}
		return cases[i].ID < cases[j].ID
	})
	return cases, nil
}

func (r *caseRepository) UpdateCaseStatus(ctx context.Context, id string, update model.StatusUpdate) error {
	if err := r.faults.record(OpUpdateCaseStatus); err != nil {
		return err
	}

	r.mu.Lock()
	existing, ok := r.cases[id]
	if !ok {
		r.mu.Unlock()
		return goerr.Wrap(model.ErrNotFound, "case not found", goerr.V(model.CaseIDKey, id))
	}
	existing.ApplyStatus(update, r.now())
	changed := existing.Clone()
	r.mu.Unlock()

	r.broker.publish(changed, types.ChangeUpdate)
	return nil
}

func (r *caseRepository) UpdatePublicCase(ctx context.Context, id string, owner model.Scope, update model.StatusUpdate) error {
	if err := r.faults.record(OpUpdatePublicCase); err != nil {
		return err
	}
	if err := owner.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	lead, ok := r.public[id]
	if !ok {
		r.mu.Unlock()
		return goerr.Wrap(model.ErrNotFound, "public case not found", goerr.V(model.CaseIDKey, id))
	}
	if _, exists := r.cases[id]; exists {
		r.mu.Unlock()
		return goerr.Wrap(model.ErrConflict, "case already claimed", goerr.V(model.CaseIDKey, id))
	}

	claimed := lead.Claim(owner, update, r.now())
	r.cases[id] = claimed
	delete(r.public, id)
	changed := claimed.Clone()
	r.mu.Unlock()

	r.broker.publish(changed, types.ChangeInsert)
	return nil
}

func (r *caseRepository) CreateCase(ctx context.Context, c *model.Case) (*model.Case, error) {
	if err := r.faults.record(OpCreateCase); err != nil {
		return nil, err
	}

	created := c.Clone()
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	now := r.now()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	if created.UpdatedAt.IsZero() {
		created.UpdatedAt = created.CreatedAt
	}
	created.Status = created.Status.Normalize()
	if err := created.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, exists := r.cases[created.ID]; exists {
		r.mu.Unlock()
		return nil, goerr.Wrap(model.ErrConflict, "case already exists", goerr.V(model.CaseIDKey, created.ID))
	}
	r.cases[created.ID] = created
	r.mu.Unlock()

	r.broker.publish(created.Clone(), types.ChangeInsert)
	return created.Clone(), nil
}

func (r *caseRepository) CreatePublicCase(ctx context.Context, c *model.PublicCase) (*model.PublicCase, error) {
	if err := r.faults.record(OpCreatePublicCase); err != nil {
		return nil, err
	}

	created := c.Clone()
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	now := r.now()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	if created.UpdatedAt.IsZero() {
		created.UpdatedAt = created.CreatedAt
	}
	created.Status = created.Status.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.public[created.ID]; exists {
		return nil, goerr.Wrap(model.ErrConflict, "public case already exists", goerr.V(model.CaseIDKey, created.ID))
	}
	r.public[created.ID] = created
	return created.Clone(), nil
}

func (r *caseRepository) delete(id string) bool {
	r.mu.Lock()
	existing, ok := r.cases[id]
	if ok {
		delete(r.cases, id)
	}
	r.mu.Unlock()

	if ok {
		r.broker.publish(existing, types.ChangeDelete)
	}
	return ok
}

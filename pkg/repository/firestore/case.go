package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/utils/logging"
	"google.golang.org/api/iterator"
)

type caseRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newCaseRepository(client *firestore.Client) *caseRepository {
	return &caseRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *caseRepository) casesCollection() string {
	return collectionName(r.collectionPrefix, model.CollectionCases)
}

func (r *caseRepository) publicCasesCollection() string {
	return collectionName(r.collectionPrefix, model.CollectionPublicCases)
}

// scopedQuery selects the cases visible in scope, newest first
func scopedQuery(col *firestore.CollectionRef, scope model.Scope) firestore.Query {
	var q firestore.Query
	if scope.IsTeam() {
		q = col.Where("company_id", "==", scope.CompanyID)
	} else {
		q = col.Where("user_id", "==", scope.UserID)
	}
	return q.OrderBy("created_at", firestore.Desc)
}

func (r *caseRepository) ListOwnedCases(ctx context.Context, scope model.Scope) ([]*model.Case, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	iter := scopedQuery(r.client.Collection(r.casesCollection()), scope).Documents(ctx)
	defer iter.Stop()

	cases := []*model.Case{}
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrapErr(err, "failed to iterate cases", goerr.V(model.ScopeKey, scope.Key()))
		}

		var doc caseDoc
		if err := docSnap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode case", goerr.V(model.CaseIDKey, docSnap.Ref.ID))
		}

		c := doc.toModel(docSnap.Ref.ID)
		if err := c.Validate(); err != nil {
			// A malformed row must not hide the rest of the list.
			logging.From(ctx).Warn("skip invalid case document", "case_id", docSnap.Ref.ID, "error", err)
			continue
		}
		cases = append(cases, c)
	}

	return cases, nil
}

func (r *caseRepository) ListPublicCases(ctx context.Context) ([]*model.PublicCase, error) {
	iter := r.client.Collection(r.publicCasesCollection()).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	cases := []*model.PublicCase{}
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrapErr(err, "failed to iterate public cases")
		}

		var doc publicCaseDoc
		if err := docSnap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode public case", goerr.V(model.CaseIDKey, docSnap.Ref.ID))
		}
		cases = append(cases, doc.toModel(docSnap.Ref.ID))
	}

	return cases, nil
}

func (r *caseRepository) UpdateCaseStatus(ctx context.Context, id string, update model.StatusUpdate) error {
	updates := make([]firestore.Update, 0, 4)
	for path, value := range update.Fields() {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	updates = append(updates, firestore.Update{Path: "updated_at", Value: time.Now().UTC()})

	_, err := r.client.Collection(r.casesCollection()).Doc(id).Update(ctx, updates)
	if err != nil {
		return wrapErr(err, "failed to update case status",
			goerr.V(model.CaseIDKey, id),
			goerr.V(model.StatusKey, update.Status))
	}
	return nil
}

// UpdatePublicCase moves the lead into the owner's cases in one transaction
// so that the case is never visible in both collections.
func (r *caseRepository) UpdatePublicCase(ctx context.Context, id string, owner model.Scope, update model.StatusUpdate) error {
	if err := owner.Validate(); err != nil {
		return err
	}

	publicRef := r.client.Collection(r.publicCasesCollection()).Doc(id)
	ownedRef := r.client.Collection(r.casesCollection()).Doc(id)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(publicRef)
		if err != nil {
			return err
		}

		var doc publicCaseDoc
		if err := docSnap.DataTo(&doc); err != nil {
			return goerr.Wrap(err, "failed to decode public case", goerr.V(model.CaseIDKey, id))
		}

		claimed := doc.toModel(id).Claim(owner, update, time.Now().UTC())
		if err := tx.Create(ownedRef, newCaseDoc(claimed)); err != nil {
			return err
		}
		return tx.Delete(publicRef)
	})
	if err != nil {
		return wrapErr(err, "failed to claim public case",
			goerr.V(model.CaseIDKey, id),
			goerr.V(model.StatusKey, update.Status))
	}
	return nil
}

func (r *caseRepository) CreateCase(ctx context.Context, c *model.Case) (*model.Case, error) {
	created := c.Clone()
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	created.UpdatedAt = now
	created.Status = created.Status.Normalize()
	if err := created.Validate(); err != nil {
		return nil, err
	}

	_, err := r.client.Collection(r.casesCollection()).Doc(created.ID).Create(ctx, newCaseDoc(created))
	if err != nil {
		return nil, wrapErr(err, "failed to create case", goerr.V(model.CaseIDKey, created.ID))
	}
	return created, nil
}

func (r *caseRepository) CreatePublicCase(ctx context.Context, c *model.PublicCase) (*model.PublicCase, error) {
	created := c.Clone()
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	created.UpdatedAt = now
	created.Status = created.Status.Normalize()

	_, err := r.client.Collection(r.publicCasesCollection()).Doc(created.ID).Create(ctx, newPublicCaseDoc(created))
	if err != nil {
		return nil, wrapErr(err, "failed to create public case", goerr.V(model.CaseIDKey, created.ID))
	}
	return created, nil
}

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/repairdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/domain/types"
)

func runCaseSourceTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	base := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("ListOwnedCases returns cases of the owner newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		owner := "user-" + uuid.NewString()

		older, err := repo.Case().CreateCase(ctx, &model.Case{
			UserID:        owner,
			CustomerName:  "Alex",
			ApplianceType: "Washer",
			CreatedAt:     base.Add(-time.Hour),
		})
		gt.NoError(t, err).Required()
		newer, err := repo.Case().CreateCase(ctx, &model.Case{
			UserID:        owner,
			CustomerName:  "Blair",
			ApplianceType: "Dryer",
			CreatedAt:     base,
		})
		gt.NoError(t, err).Required()
		_, err = repo.Case().CreateCase(ctx, &model.Case{UserID: "someone-else", CreatedAt: base})
		gt.NoError(t, err).Required()

		cases, err := repo.Case().ListOwnedCases(ctx, model.Scope{UserID: owner})
		gt.NoError(t, err).Required()
		gt.A(t, cases).Length(2).Required()
		gt.Value(t, cases[0].ID).Equal(newer.ID)
		gt.Value(t, cases[1].ID).Equal(older.ID)
		gt.Value(t, cases[0].Status).Equal(types.CaseStatusScheduled)
		gt.Value(t, cases[1].CustomerName).Equal("Alex")
	})

	t.Run("ListOwnedCases filters by company for team scope", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		company := "company-" + uuid.NewString()

		_, err := repo.Case().CreateCase(ctx, &model.Case{UserID: "tech-a", CompanyID: &company, CreatedAt: base})
		gt.NoError(t, err).Required()
		_, err = repo.Case().CreateCase(ctx, &model.Case{UserID: "tech-b", CompanyID: &company, CreatedAt: base.Add(time.Second)})
		gt.NoError(t, err).Required()
		_, err = repo.Case().CreateCase(ctx, &model.Case{UserID: "tech-a", CreatedAt: base})
		gt.NoError(t, err).Required()

		cases, err := repo.Case().ListOwnedCases(ctx, model.Scope{UserID: "tech-a", CompanyID: company})
		gt.NoError(t, err).Required()
		gt.A(t, cases).Length(2)
		for _, c := range cases {
			gt.Value(t, *c.CompanyID).Equal(company)
		}
	})

	t.Run("ListOwnedCases rejects empty scope", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Case().ListOwnedCases(context.Background(), model.Scope{})
		gt.Error(t, err).Is(model.ErrInvalidScope)
	})

	t.Run("UpdateCaseStatus writes status and side fields", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		owner := "user-" + uuid.NewString()

		created, err := repo.Case().CreateCase(ctx, &model.Case{UserID: owner, CreatedAt: base})
		gt.NoError(t, err).Required()

		err = repo.Case().UpdateCaseStatus(ctx, created.ID, model.StatusUpdate{
			Status:             types.CaseStatusCancelled,
			CancellationReason: "customer replaced unit",
		})
		gt.NoError(t, err).Required()

		cases, err := repo.Case().ListOwnedCases(ctx, model.Scope{UserID: owner})
		gt.NoError(t, err).Required()
		gt.A(t, cases).Length(1).Required()
		gt.Value(t, cases[0].Status).Equal(types.CaseStatusCancelled)
		gt.Value(t, cases[0].CancellationReason).Equal("customer replaced unit")
		gt.B(t, cases[0].UpdatedAt.Before(created.UpdatedAt)).False()
	})

	t.Run("UpdateCaseStatus returns not found for unknown id", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Case().UpdateCaseStatus(context.Background(), uuid.NewString(), model.StatusUpdate{Status: types.CaseStatusCompleted})
		gt.Error(t, err).Is(model.ErrNotFound)
	})

	t.Run("UpdatePublicCase migrates the lead to the owner", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		owner := model.Scope{UserID: "user-" + uuid.NewString()}

		lead, err := repo.Case().CreatePublicCase(ctx, &model.PublicCase{
			CustomerName:  "Casey",
			ApplianceType: "Oven",
			CreatedAt:     base,
		})
		gt.NoError(t, err).Required()

		err = repo.Case().UpdatePublicCase(ctx, lead.ID, owner, model.StatusUpdate{Status: types.CaseStatusInProgress})
		gt.NoError(t, err).Required()

		publicCases, err := repo.Case().ListPublicCases(ctx)
		gt.NoError(t, err).Required()
		for _, p := range publicCases {
			gt.Value(t, p.ID).NotEqual(lead.ID)
		}

		owned, err := repo.Case().ListOwnedCases(ctx, owner)
		gt.NoError(t, err).Required()
		gt.A(t, owned).Length(1).Required()
		gt.Value(t, owned[0].ID).Equal(lead.ID)
		gt.Value(t, owned[0].UserID).Equal(owner.UserID)
		gt.Value(t, owned[0].Status).Equal(types.CaseStatusInProgress)
		gt.Value(t, owned[0].CustomerName).Equal("Casey")
	})

	t.Run("UpdatePublicCase twice fails for the second claimer", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		lead, err := repo.Case().CreatePublicCase(ctx, &model.PublicCase{CreatedAt: base})
		gt.NoError(t, err).Required()

		update := model.StatusUpdate{Status: types.CaseStatusScheduled}
		gt.NoError(t, repo.Case().UpdatePublicCase(ctx, lead.ID, model.Scope{UserID: "first"}, update)).Required()
		err = repo.Case().UpdatePublicCase(ctx, lead.ID, model.Scope{UserID: "second"}, update)
		gt.Error(t, err).Is(model.ErrNotFound)
	})
}

func TestCaseSource_Memory(t *testing.T) {
	runCaseSourceTest(t, newMemoryRepository)
}

func TestCaseSource_Firestore(t *testing.T) {
	runCaseSourceTest(t, newFirestoreRepository)
}

package service

import (
	"context"
	"testing"

	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"github.com/bitfantasy/dealflow/internal/crm/policy"
	"github.com/bitfantasy/dealflow/internal/crm/repository"
	"github.com/bitfantasy/dealflow/internal/crm/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageDeleteProtection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewStageService(repos.Stage)
	ctx := context.Background()

	admin := testutil.SeedUser(t, db, "admin@test.local", entity.RoleAdmin)
	actor := policy.Actor{ID: admin.ID, Role: admin.Role}

	company := testutil.SeedCompany(t, db, "Acme", "AC1000")
	used := testutil.SeedStage(t, db, "Sourcing", 1, 0.1)
	unused := testutil.SeedStage(t, db, "Parked", 9, 0)
	testutil.SeedDeal(t, db, "Project Alpha", company, admin, used)

	t.Run("referenced stage cannot be deleted", func(t *testing.T) {
		err := svc.Delete(ctx, actor, used.ID)
		assert.ErrorIs(t, err, repository.ErrStageInUse)
	})

	t.Run("unreferenced stage is deleted", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, actor, unused.ID))
		_, err := svc.Get(ctx, unused.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("missing stage", func(t *testing.T) {
		err := svc.Delete(ctx, actor, "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestStageMutationPermissions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewStageService(repos.Stage)
	ctx := context.Background()

	analyst := testutil.SeedUser(t, db, "analyst@test.local", entity.RoleAnalyst)
	actor := policy.Actor{ID: analyst.ID, Role: analyst.Role}

	_, err := svc.Create(ctx, actor, &CreateStageRequest{Name: "Sourcing", Order: 1})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestStageListOrdered(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewStageService(repos.Stage)
	ctx := context.Background()

	testutil.SeedStage(t, db, "Closing", 5, 0.9)
	testutil.SeedStage(t, db, "Sourcing", 1, 0.1)
	testutil.SeedStage(t, db, "LOI", 3, 0.5)

	stages, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, stages, 3)
	assert.Equal(t, "Sourcing", stages[0].Name)
	assert.Equal(t, "LOI", stages[1].Name)
	assert.Equal(t, "Closing", stages[2].Name)
}

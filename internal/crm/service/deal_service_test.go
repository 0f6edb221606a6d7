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
	"gorm.io/gorm"
)

type dealFixture struct {
	db        *gorm.DB
	svc       *DealService
	associate *entity.User
	analyst   *entity.User
	company   *entity.Company
	sourcing  *entity.Stage
	loi       *entity.Stage
}

func newDealFixture(t *testing.T) *dealFixture {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	return &dealFixture{
		db:        db,
		svc:       NewDealService(repos.Deal, repos.Stage, repos.Company, repos.User),
		associate: testutil.SeedUser(t, db, "associate@test.local", entity.RoleAssociate),
		analyst:   testutil.SeedUser(t, db, "analyst@test.local", entity.RoleAnalyst),
		company:   testutil.SeedCompany(t, db, "Acme", "AC1000"),
		sourcing:  testutil.SeedStage(t, db, "Sourcing", 1, 0.10),
		loi:       testutil.SeedStage(t, db, "LOI", 3, 0.50),
	}
}

func (f *dealFixture) actor(u *entity.User) policy.Actor {
	return policy.Actor{ID: u.ID, Role: u.Role}
}

func TestDealCreateProbabilityDefaulting(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()
	actor := f.actor(f.associate)

	t.Run("omitted probability takes stage default", func(t *testing.T) {
		deal, err := f.svc.Create(ctx, actor, &CreateDealRequest{
			Title:     "Project Alpha",
			CompanyID: f.company.ID,
			StageID:   f.loi.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, 0.50, deal.Probability)
	})

	t.Run("explicit probability is kept", func(t *testing.T) {
		p := 0.8
		deal, err := f.svc.Create(ctx, actor, &CreateDealRequest{
			Title:       "Project Beta",
			CompanyID:   f.company.ID,
			StageID:     f.loi.ID,
			Probability: &p,
		})
		require.NoError(t, err)
		assert.Equal(t, 0.8, deal.Probability)
	})

	t.Run("zero probability takes stage default", func(t *testing.T) {
		p := 0.0
		deal, err := f.svc.Create(ctx, actor, &CreateDealRequest{
			Title:       "Project Gamma",
			CompanyID:   f.company.ID,
			StageID:     f.sourcing.ID,
			Probability: &p,
		})
		require.NoError(t, err)
		assert.Equal(t, 0.10, deal.Probability)
	})

	t.Run("probability above one is rejected", func(t *testing.T) {
		p := 1.2
		_, err := f.svc.Create(ctx, actor, &CreateDealRequest{
			Title:       "Project Delta",
			CompanyID:   f.company.ID,
			StageID:     f.loi.ID,
			Probability: &p,
		})
		var ve *entity.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "probability", ve.Field)
	})

	t.Run("unknown stage is rejected", func(t *testing.T) {
		_, err := f.svc.Create(ctx, actor, &CreateDealRequest{
			Title:     "Project Epsilon",
			CompanyID: f.company.ID,
			StageID:   "missing",
		})
		var ve *entity.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "stage_id", ve.Field)
	})

	t.Run("owner defaults to the caller", func(t *testing.T) {
		deal, err := f.svc.Create(ctx, actor, &CreateDealRequest{
			Title:     "Project Zeta",
			CompanyID: f.company.ID,
			StageID:   f.sourcing.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, f.associate.ID, deal.OwnerID)
	})
}

func TestDealUpdateDoesNotRedefault(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()
	actor := f.actor(f.associate)

	p := 0.33
	deal, err := f.svc.Create(ctx, actor, &CreateDealRequest{
		Title:       "Project Alpha",
		CompanyID:   f.company.ID,
		StageID:     f.sourcing.ID,
		Probability: &p,
	})
	require.NoError(t, err)

	title := "Project Alpha II"
	updated, err := f.svc.Update(ctx, actor, deal.ID, &UpdateDealRequest{
		Title:   &title,
		StageID: &f.loi.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Project Alpha II", updated.Title)
	assert.Equal(t, 0.33, updated.Probability, "changing stage via update must not touch probability")
}

func TestDealMoveStage(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()
	actor := f.actor(f.associate)

	p := 0.2
	deal, err := f.svc.Create(ctx, actor, &CreateDealRequest{
		Title:       "Project Alpha",
		CompanyID:   f.company.ID,
		StageID:     f.sourcing.ID,
		Probability: &p,
	})
	require.NoError(t, err)

	t.Run("keeps probability by default", func(t *testing.T) {
		moved, err := f.svc.MoveStage(ctx, actor, deal.ID, f.loi.ID, false)
		require.NoError(t, err)
		assert.Equal(t, f.loi.ID, moved.StageID)
		assert.Equal(t, 0.2, moved.Probability)
	})

	t.Run("resets probability when requested", func(t *testing.T) {
		moved, err := f.svc.MoveStage(ctx, actor, deal.ID, f.sourcing.ID, true)
		require.NoError(t, err)
		assert.Equal(t, f.sourcing.ID, moved.StageID)
		assert.Equal(t, 0.10, moved.Probability)
	})

	t.Run("unknown stage", func(t *testing.T) {
		_, err := f.svc.MoveStage(ctx, actor, deal.ID, "missing", false)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("analyst cannot move a deal they do not own", func(t *testing.T) {
		_, err := f.svc.MoveStage(ctx, f.actor(f.analyst), deal.ID, f.loi.ID, false)
		// 不可见的交易表现为不存在
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestDealAnalystPermissions(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.actor(f.analyst), &CreateDealRequest{
		Title:     "Forbidden",
		CompanyID: f.company.ID,
		StageID:   f.sourcing.ID,
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDealKanban(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()
	actor := f.actor(f.associate)

	_, err := f.svc.Create(ctx, actor, &CreateDealRequest{
		Title:     "Project Alpha",
		CompanyID: f.company.ID,
		StageID:   f.loi.ID,
	})
	require.NoError(t, err)

	columns, err := f.svc.Kanban(ctx, actor, nil)
	require.NoError(t, err)
	require.Len(t, columns, 2)

	assert.Equal(t, "Sourcing", columns[0].Stage.Name)
	assert.Equal(t, 0, columns[0].Count)
	assert.NotNil(t, columns[0].Deals, "empty stages keep an empty group")

	assert.Equal(t, "LOI", columns[1].Stage.Name)
	assert.Equal(t, 1, columns[1].Count)
	assert.Equal(t, "Project Alpha", columns[1].Deals[0].Title)
}

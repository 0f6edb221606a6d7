package policy_test

import (
	"testing"
	"time"

	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"github.com/bitfantasy/dealflow/internal/crm/policy"
	"github.com/bitfantasy/dealflow/internal/crm/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	admin     *entity.User
	associate *entity.User
	analyst   *entity.User
	other     *entity.User
	ownDeal   *entity.Deal
	otherDeal *entity.Deal
}

func setup(t *testing.T) *fixture {
	db := testutil.SetupTestDB(t)

	f := &fixture{
		db:        db,
		admin:     testutil.SeedUser(t, db, "admin@test.local", entity.RoleAdmin),
		associate: testutil.SeedUser(t, db, "associate@test.local", entity.RoleAssociate),
		analyst:   testutil.SeedUser(t, db, "analyst@test.local", entity.RoleAnalyst),
		other:     testutil.SeedUser(t, db, "other@test.local", entity.RoleAnalyst),
	}

	company := testutil.SeedCompany(t, db, "Acme", "AC1000")
	stage := testutil.SeedStage(t, db, "Sourcing", 1, 0.1)

	f.ownDeal = testutil.SeedDeal(t, db, "Own Deal", company, f.analyst, stage)
	f.otherDeal = testutil.SeedDeal(t, db, "Other Deal", company, f.other, stage)
	return f
}

func actorFor(u *entity.User) policy.Actor {
	return policy.Actor{ID: u.ID, Role: u.Role}
}

func dealIDs(t *testing.T, db *gorm.DB, a policy.Actor) []string {
	t.Helper()
	var deals []entity.Deal
	err := db.Model(&entity.Deal{}).Scopes(policy.Scope(a, policy.ResourceDeal)).Find(&deals).Error
	require.NoError(t, err)
	ids := make([]string, 0, len(deals))
	for _, d := range deals {
		ids = append(ids, d.ID)
	}
	return ids
}

func TestDealScope(t *testing.T) {
	f := setup(t)

	t.Run("admin sees everything", func(t *testing.T) {
		assert.Len(t, dealIDs(t, f.db, actorFor(f.admin)), 2)
	})

	t.Run("associate sees everything", func(t *testing.T) {
		assert.Len(t, dealIDs(t, f.db, actorFor(f.associate)), 2)
	})

	t.Run("analyst sees only owned deals", func(t *testing.T) {
		ids := dealIDs(t, f.db, actorFor(f.analyst))
		assert.Equal(t, []string{f.ownDeal.ID}, ids)
	})

	t.Run("unknown role sees nothing", func(t *testing.T) {
		assert.Empty(t, dealIDs(t, f.db, policy.Actor{ID: "x", Role: "intern"}))
	})
}

func TestTaskScope(t *testing.T) {
	f := setup(t)

	newTask := func(dealID *string, assignee *entity.User) *entity.Task {
		task := &entity.Task{
			ID:         uuid.New().String(),
			DealID:     dealID,
			Title:      "t",
			Status:     entity.TaskStatusTodo,
			AssigneeID: assignee.ID,
			CreatedBy:  f.admin.ID,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		require.NoError(t, f.db.Create(task).Error)
		return task
	}

	onOwnDeal := newTask(&f.ownDeal.ID, f.other)
	assignedToMe := newTask(&f.otherDeal.ID, f.analyst)
	unrelated := newTask(&f.otherDeal.ID, f.other)

	var tasks []entity.Task
	err := f.db.Model(&entity.Task{}).
		Scopes(policy.Scope(actorFor(f.analyst), policy.ResourceTask)).
		Find(&tasks).Error
	require.NoError(t, err)

	ids := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		ids[task.ID] = true
	}
	assert.True(t, ids[onOwnDeal.ID], "task on own deal should be visible")
	assert.True(t, ids[assignedToMe.ID], "assigned task should be visible")
	assert.False(t, ids[unrelated.ID], "unrelated task should be hidden")
}

func TestInteractionScope(t *testing.T) {
	f := setup(t)

	newInteraction := func(dealID *string, author *entity.User) *entity.Interaction {
		interaction := &entity.Interaction{
			ID:         uuid.New().String(),
			Type:       entity.InteractionTypeNote,
			Subject:    "s",
			OccurredAt: time.Now(),
			AuthorID:   author.ID,
			DealID:     dealID,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		require.NoError(t, f.db.Create(interaction).Error)
		return interaction
	}

	onOwnDeal := newInteraction(&f.ownDeal.ID, f.other)
	authored := newInteraction(&f.otherDeal.ID, f.analyst)
	noDeal := newInteraction(nil, f.other)
	hidden := newInteraction(&f.otherDeal.ID, f.other)

	var interactions []entity.Interaction
	err := f.db.Model(&entity.Interaction{}).
		Scopes(policy.Scope(actorFor(f.analyst), policy.ResourceInteraction)).
		Find(&interactions).Error
	require.NoError(t, err)

	ids := make(map[string]bool, len(interactions))
	for _, interaction := range interactions {
		ids[interaction.ID] = true
	}
	assert.True(t, ids[onOwnDeal.ID])
	assert.True(t, ids[authored.ID])
	assert.True(t, ids[noDeal.ID], "deal-less interactions are visible to everyone")
	assert.False(t, ids[hidden.ID])
}

func TestNDAScope(t *testing.T) {
	f := setup(t)

	newNDA := func(dealID string) *entity.NDA {
		nda := &entity.NDA{
			ID:           uuid.New().String(),
			DealID:       dealID,
			Counterparty: entity.CounterpartyBuyer,
			Status:       entity.NDAStatusDraft,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}
		require.NoError(t, f.db.Create(nda).Error)
		return nda
	}

	visible := newNDA(f.ownDeal.ID)
	newNDA(f.otherDeal.ID)

	var ndas []entity.NDA
	err := f.db.Model(&entity.NDA{}).
		Scopes(policy.Scope(actorFor(f.analyst), policy.ResourceNDA)).
		Find(&ndas).Error
	require.NoError(t, err)

	require.Len(t, ndas, 1)
	assert.Equal(t, visible.ID, ndas[0].ID)
}

func TestCanMutate(t *testing.T) {
	admin := actorFor(&entity.User{ID: "a", Role: entity.RoleAdmin})
	associate := actorFor(&entity.User{ID: "b", Role: entity.RoleAssociate})
	analyst := actorFor(&entity.User{ID: "c", Role: entity.RoleAnalyst})

	assert.True(t, policy.CanMutate(admin, policy.ResourceUser))
	assert.False(t, policy.CanMutate(associate, policy.ResourceUser))

	assert.True(t, policy.CanMutate(associate, policy.ResourceDeal))
	assert.False(t, policy.CanMutate(analyst, policy.ResourceDeal))
	assert.False(t, policy.CanMutate(analyst, policy.ResourceStage))

	assert.True(t, policy.CanMutate(analyst, policy.ResourceTask))
	assert.True(t, policy.CanMutate(analyst, policy.ResourceInteraction))
	assert.True(t, policy.CanMutate(analyst, policy.ResourceDocument))
	assert.False(t, policy.CanMutate(analyst, policy.ResourceNDA))
}

func TestCanMutateDeal(t *testing.T) {
	analyst := policy.Actor{ID: "c", Role: entity.RoleAnalyst}

	assert.True(t, policy.CanMutateDeal(analyst, "c"))
	assert.False(t, policy.CanMutateDeal(analyst, "someone-else"))
	assert.True(t, policy.CanMutateDeal(policy.Actor{ID: "x", Role: entity.RoleAssociate}, "someone-else"))
}

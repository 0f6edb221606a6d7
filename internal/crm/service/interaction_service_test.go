package service

import (
	"context"
	"testing"
	"time"

	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"github.com/bitfantasy/dealflow/internal/crm/policy"
	"github.com/bitfantasy/dealflow/internal/crm/repository"
	"github.com/bitfantasy/dealflow/internal/crm/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedContact(t *testing.T, db *gorm.DB, company *entity.Company) *entity.Contact {
	t.Helper()
	contact := &entity.Contact{
		ID:        uuid.New().String(),
		CompanyID: company.ID,
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@acme.example",
		Seniority: entity.SeniorityDirector,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, db.Create(contact).Error)
	return contact
}

func TestInteractionCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewInteractionService(repos.Interaction, repos.Contact)
	ctx := context.Background()

	associate := testutil.SeedUser(t, db, "associate@test.local", entity.RoleAssociate)
	actor := policy.Actor{ID: associate.ID, Role: associate.Role}
	company := testutil.SeedCompany(t, db, "Acme", "AC1000")
	contact := seedContact(t, db, company)

	t.Run("requires an association", func(t *testing.T) {
		_, err := svc.Create(ctx, actor, &CreateInteractionRequest{
			Type:    entity.InteractionTypeCall,
			Subject: "Intro call",
		})
		var ve *entity.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("fills company from contact", func(t *testing.T) {
		interaction, err := svc.Create(ctx, actor, &CreateInteractionRequest{
			Type:      entity.InteractionTypeCall,
			Subject:   "Intro call",
			ContactID: &contact.ID,
		})
		require.NoError(t, err)
		require.NotNil(t, interaction.CompanyID)
		assert.Equal(t, company.ID, *interaction.CompanyID)
		assert.Equal(t, associate.ID, interaction.AuthorID)
		assert.Equal(t, "Contact: Jane Doe", interaction.RelatedEntity)
	})

	t.Run("unknown contact is rejected", func(t *testing.T) {
		missing := "missing"
		_, err := svc.Create(ctx, actor, &CreateInteractionRequest{
			Type:      entity.InteractionTypeNote,
			Subject:   "Note",
			ContactID: &missing,
		})
		var ve *entity.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "contact_id", ve.Field)
	})

	t.Run("occurred_at defaults to now", func(t *testing.T) {
		before := time.Now().Add(-time.Second)
		interaction, err := svc.Create(ctx, actor, &CreateInteractionRequest{
			Type:      entity.InteractionTypeMeeting,
			Subject:   "Kickoff",
			CompanyID: &company.ID,
		})
		require.NoError(t, err)
		assert.True(t, interaction.OccurredAt.After(before))
	})
}

package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestInteractionValidate(t *testing.T) {
	t.Run("requires at least one association", func(t *testing.T) {
		interaction := &Interaction{Type: InteractionTypeCall, Subject: "Intro call"}
		err := interaction.Validate()
		assert.Error(t, err)
	})

	t.Run("deal association is enough", func(t *testing.T) {
		interaction := &Interaction{Type: InteractionTypeCall, Subject: "Intro call", DealID: strPtr("d1")}
		assert.NoError(t, interaction.Validate())
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		interaction := &Interaction{Type: "fax", Subject: "x", DealID: strPtr("d1")}
		err := interaction.Validate()
		assert.Error(t, err)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Equal(t, "type", ve.Field)
	})
}

func TestInteractionNormalize(t *testing.T) {
	contact := &Contact{ID: "c1", CompanyID: "comp1"}

	t.Run("fills company from contact", func(t *testing.T) {
		interaction := &Interaction{Type: InteractionTypeNote, ContactID: strPtr("c1")}
		interaction.Normalize(contact)
		assert.NotNil(t, interaction.CompanyID)
		assert.Equal(t, "comp1", *interaction.CompanyID)
	})

	t.Run("keeps explicit company", func(t *testing.T) {
		interaction := &Interaction{Type: InteractionTypeNote, ContactID: strPtr("c1"), CompanyID: strPtr("comp2")}
		interaction.Normalize(contact)
		assert.Equal(t, "comp2", *interaction.CompanyID)
	})

	t.Run("no contact leaves company unset", func(t *testing.T) {
		interaction := &Interaction{Type: InteractionTypeNote, DealID: strPtr("d1")}
		interaction.Normalize(nil)
		assert.Nil(t, interaction.CompanyID)
	})
}

func TestInteractionRelatedLabel(t *testing.T) {
	deal := &Deal{ID: "d1", Title: "Project Alpha"}
	contact := &Contact{ID: "c1", FirstName: "Jane", LastName: "Doe"}
	company := &Company{ID: "comp1", Name: "Acme"}

	t.Run("deal wins over contact and company", func(t *testing.T) {
		interaction := &Interaction{
			DealID: strPtr("d1"), Deal: deal,
			ContactID: strPtr("c1"), Contact: contact,
			CompanyID: strPtr("comp1"), Company: company,
		}
		assert.Equal(t, "Deal: Project Alpha", interaction.RelatedLabel())
	})

	t.Run("contact wins over company", func(t *testing.T) {
		interaction := &Interaction{
			ContactID: strPtr("c1"), Contact: contact,
			CompanyID: strPtr("comp1"), Company: company,
		}
		assert.Equal(t, "Contact: Jane Doe", interaction.RelatedLabel())
	})

	t.Run("company only", func(t *testing.T) {
		interaction := &Interaction{CompanyID: strPtr("comp1"), Company: company}
		assert.Equal(t, "Company: Acme", interaction.RelatedLabel())
	})

	t.Run("nothing resolved", func(t *testing.T) {
		interaction := &Interaction{}
		assert.Equal(t, "Unknown", interaction.RelatedLabel())
	})
}

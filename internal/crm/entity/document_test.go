package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocumentHumanSize(t *testing.T) {
	cases := []struct {
		size int64
		want string
	}{
		{512, "512.0 B"},
		{2048, "2.0 KB"},
		{5 << 20, "5.0 MB"},
		{3 << 30, "3.0 GB"},
	}

	for _, tc := range cases {
		doc := &Document{Size: tc.size}
		assert.Equal(t, tc.want, doc.HumanSize())
	}
}

func TestDocumentExtension(t *testing.T) {
	doc := &Document{Filename: "Teaser_V2.PDF"}
	assert.Equal(t, ".pdf", doc.Extension())

	doc = &Document{Filename: "noext"}
	assert.Equal(t, "", doc.Extension())
}

func TestNDAValidate(t *testing.T) {
	now := time.Now()
	fileID := "f1"

	t.Run("draft needs no file", func(t *testing.T) {
		nda := &NDA{Counterparty: CounterpartyBuyer, Status: NDAStatusDraft}
		assert.NoError(t, nda.Validate())
	})

	t.Run("signed requires file", func(t *testing.T) {
		nda := &NDA{Counterparty: CounterpartyBuyer, Status: NDAStatusSigned, SignedAt: &now}
		err := nda.Validate()
		assert.Error(t, err)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Equal(t, "file_id", ve.Field)
	})

	t.Run("signed requires signed date", func(t *testing.T) {
		nda := &NDA{Counterparty: CounterpartyBuyer, Status: NDAStatusSigned, FileID: &fileID}
		err := nda.Validate()
		assert.Error(t, err)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Equal(t, "signed_at", ve.Field)
	})

	t.Run("signed with file and date", func(t *testing.T) {
		nda := &NDA{Counterparty: CounterpartySeller, Status: NDAStatusSigned, FileID: &fileID, SignedAt: &now}
		assert.NoError(t, nda.Validate())
	})

	t.Run("rejects unknown counterparty", func(t *testing.T) {
		nda := &NDA{Counterparty: "broker", Status: NDAStatusDraft}
		assert.Error(t, nda.Validate())
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		nda := &NDA{Counterparty: CounterpartyTarget, Status: "pending"}
		assert.Error(t, nda.Validate())
	})
}

func TestCompanyValidate(t *testing.T) {
	t.Run("alphanumeric legal id", func(t *testing.T) {
		company := &Company{Name: "Acme", LegalID: "DE12345", Size: CompanySizeMedium}
		assert.NoError(t, company.Validate())
	})

	t.Run("rejects punctuation in legal id", func(t *testing.T) {
		company := &Company{Name: "Acme", LegalID: "DE-12345", Size: CompanySizeMedium}
		assert.Error(t, company.Validate())
	})

	t.Run("rejects empty legal id", func(t *testing.T) {
		company := &Company{Name: "Acme", Size: CompanySizeMedium}
		assert.Error(t, company.Validate())
	})
}

package service

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveFileMeta(t *testing.T) {
	t.Run("sniffs pdf content", func(t *testing.T) {
		content := []byte("%PDF-1.4\n%some pdf body")
		meta, err := DeriveFileMeta("teaser.pdf", bytes.NewReader(content))
		require.NoError(t, err)
		assert.Equal(t, "teaser.pdf", meta.Filename)
		assert.Equal(t, int64(len(content)), meta.Size)
		assert.Equal(t, "application/pdf", meta.ContentType)
	})

	t.Run("sniffs plain text", func(t *testing.T) {
		meta, err := DeriveFileMeta("notes.txt", strings.NewReader("meeting notes"))
		require.NoError(t, err)
		assert.Contains(t, meta.ContentType, "text/plain")
	})

	t.Run("empty file falls back to octet-stream", func(t *testing.T) {
		meta, err := DeriveFileMeta("empty.txt", bytes.NewReader(nil))
		require.NoError(t, err)
		assert.Equal(t, int64(0), meta.Size)
		assert.Equal(t, entity.FallbackContentType, meta.ContentType)
	})

	t.Run("size is derived from the stream, not the client", func(t *testing.T) {
		meta, err := DeriveFileMeta("data.xlsx", bytes.NewReader(make([]byte, 4096)))
		require.NoError(t, err)
		assert.Equal(t, int64(4096), meta.Size)
	})

	t.Run("rejects files over the limit", func(t *testing.T) {
		_, err := DeriveFileMeta("big.pdf", bytes.NewReader(make([]byte, MaxUploadSize+1)))
		require.Error(t, err)
		var ve *entity.ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Contains(t, ve.Message, "10MB")
	})

	t.Run("accepts a file exactly at the limit", func(t *testing.T) {
		meta, err := DeriveFileMeta("exact.txt", bytes.NewReader(make([]byte, MaxUploadSize)))
		require.NoError(t, err)
		assert.Equal(t, int64(MaxUploadSize), meta.Size)
	})

	t.Run("rejects disallowed extensions", func(t *testing.T) {
		for _, name := range []string{"run.exe", "script.sh", "archive.zip", "noext"} {
			_, err := DeriveFileMeta(name, strings.NewReader("x"))
			assert.Error(t, err, name)
		}
	})

	t.Run("strips directories from the filename", func(t *testing.T) {
		meta, err := DeriveFileMeta("uploads/2026/teaser.pdf", strings.NewReader("%PDF-1.4"))
		require.NoError(t, err)
		assert.Equal(t, "teaser.pdf", meta.Filename)
	})
}

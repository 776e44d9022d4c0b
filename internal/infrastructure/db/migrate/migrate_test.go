package migrate

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NilDB(t *testing.T) {
	_, err := New(nil, zerolog.Nop())
	require.Error(t, err)
}

func TestEmbeddedMigrations_AreGooseAnnotated(t *testing.T) {
	files, err := fs.Glob(embedded, "migrations/*.sql")
	require.NoError(t, err)
	require.Len(t, files, 2)

	for _, f := range files {
		b, err := fs.ReadFile(embedded, f)
		require.NoError(t, err)
		body := string(b)
		assert.True(t, strings.Contains(body, "-- +goose Up"), "%s lacks Up", f)
		assert.True(t, strings.Contains(body, "-- +goose Down"), "%s lacks Down", f)
	}
}

func TestEmbeddedMigrations_Schema(t *testing.T) {
	users, err := fs.ReadFile(embedded, "migrations/00001_create_users.sql")
	require.NoError(t, err)
	assert.Contains(t, string(users), "email         TEXT NOT NULL UNIQUE")

	ev, err := fs.ReadFile(embedded, "migrations/00002_create_email_verification.sql")
	require.NoError(t, err)
	assert.Contains(t, string(ev), "email      TEXT PRIMARY KEY")
	assert.Contains(t, string(ev), "code       INTEGER NULL")
}

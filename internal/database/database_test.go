package database

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLFromEnv(t *testing.T) {
	t.Setenv("LEGALHOLD_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")

	_, err := URLFromEnv("LEGALHOLD_DATABASE_URL")
	assert.ErrorIs(t, err, ErrNoDatabaseURL)

	t.Setenv("DATABASE_URL", `"postgres://fallback/db"`)
	url, err := URLFromEnv("LEGALHOLD_DATABASE_URL")
	require.NoError(t, err)
	assert.Equal(t, "postgres://fallback/db", url)

	t.Setenv("LEGALHOLD_DATABASE_URL", "postgres://primary/db")
	url, err = URLFromEnv("LEGALHOLD_DATABASE_URL")
	require.NoError(t, err)
	assert.Equal(t, "postgres://primary/db", url)
}

func TestOpenRequiresURL(t *testing.T) {
	_, err := Open(context.Background(), "  ", DefaultOptions())
	assert.ErrorIs(t, err, ErrNoDatabaseURL)
}

func TestOpenIntegration(t *testing.T) {
	url := os.Getenv("LEGALHOLD_TEST_DATABASE_URL")
	if testing.Short() || url == "" {
		t.Skip("LEGALHOLD_TEST_DATABASE_URL not set")
	}

	db, err := Open(context.Background(), url, DefaultOptions())
	require.NoError(t, err)
	defer db.Close()
	assert.NoError(t, db.PingContext(context.Background()))
}

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"powertools/internal/shared"
)

func TestOpenSQLiteCreatesDirectoryAndPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "pt.db")

	s, err := Open(ctx, "sqlite", path, "")
	require.NoError(t, err)
	ins, err := s.Insert(ctx, Suggestions, shared.Suggestion{Text: "more drills"})
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))

	s, err = Open(ctx, "sqlite", path, "")
	require.NoError(t, err)
	defer s.Close(ctx)

	var got shared.Suggestion
	require.NoError(t, s.FindOne(ctx, Suggestions, ByID(ins.InsertedID), &got))
	assert.Equal(t, "more drills", got.Text)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "redis", "", "")
	assert.Error(t, err)
}

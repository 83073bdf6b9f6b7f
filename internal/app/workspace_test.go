package app

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loklagbe/internal/config"
	"loklagbe/internal/domain"
)

func TestInitSeedsConfigAndAdmin(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	ws, created, err := Init(ctx, dir, "root", "Root Admin", nil)
	require.NoError(t, err)
	assert.True(t, created)
	_, err = os.Stat(config.Path(dir))
	require.NoError(t, err)

	u, err := ws.Engine.GetProfile(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.True(t, u.Verified)
	require.NoError(t, ws.Close())

	ws, created, err = Init(ctx, dir, "root", "Root Admin", nil)
	require.NoError(t, err)
	assert.False(t, created)
	users, err := ws.Engine.ListUsers(ctx, "root")
	require.NoError(t, err)
	assert.Len(t, users, 1)
	require.NoError(t, ws.Close())
}

func TestOpenWithoutConfigUsesDefaults(t *testing.T) {
	ws, err := Open(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	defer ws.Close()
	assert.Equal(t, config.Default().CategoryNames(), ws.Config.CategoryNames())
}

func TestOpenRejectsBrokenConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(config.Path(dir), []byte("rating: {min: 5, max: 1}\n"), 0o644))
	_, err := Open(context.Background(), dir, nil)
	require.Error(t, err)
}

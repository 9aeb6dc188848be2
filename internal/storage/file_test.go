package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geo-alert-engine/internal/cache"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFile(dir)
	require.NoError(t, err)

	ctx := context.Background()

	// Missing snapshot loads as nil, not an error.
	snap, err := fs.Load(ctx, "alpha")
	require.NoError(t, err)
	assert.Nil(t, snap)

	out := cache.NewSnapshot()
	out.Expirations["monster:e1"] = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	out.GymTeams["g1"] = 2
	out.CellWeather["c1"] = "RAIN"
	require.NoError(t, fs.Save(ctx, "alpha", out))

	in, err := fs.Load(ctx, "alpha")
	require.NoError(t, err)
	require.NotNil(t, in)
	assert.Equal(t, out.Expirations, in.Expirations)
	assert.Equal(t, out.GymTeams, in.GymTeams)
	assert.Equal(t, out.CellWeather, in.CellWeather)

	// No temp file is left behind after a successful save.
	_, err = os.Stat(filepath.Join(dir, "alpha.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFile(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.json"), []byte("{not json"), 0o644))
	_, err = fs.Load(context.Background(), "alpha")
	assert.ErrorContains(t, err, "decode cache snapshot")
}

func TestMemStore(t *testing.T) {
	ms := NewMem()
	ctx := context.Background()

	snap, err := ms.Load(ctx, "alpha")
	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.NoError(t, ms.Save(ctx, "alpha", cache.NewSnapshot()))
}

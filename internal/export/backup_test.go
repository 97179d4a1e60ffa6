package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/transitions/internal/ir"
	"github.com/roach88/transitions/internal/store"
)

func TestBackup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := store.Open(filepath.Join(dir, "states.db"))
	require.NoError(t, err)
	defer s.Close()

	err = s.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.Insert(ctx, "1", "a"); err != nil {
			return err
		}
		return tx.Insert(ctx, "2", "b")
	})
	require.NoError(t, err)

	dst := filepath.Join(dir, "states.db.backup")
	n, err := Backup(ctx, s, dst)
	require.NoError(t, err)
	assert.Positive(t, n)

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, n, info.Size())

	copied, err := store.Open(dst)
	require.NoError(t, err)
	defer copied.Close()

	items, err := copied.Query(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []ir.Item{{Name: "1", State: "a"}, {Name: "2", State: "b"}}, items)
}

func TestBackupRefusesSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = Backup(context.Background(), s, path)
	require.ErrorIs(t, err, ErrSamePath)
}

func TestBackupMissingDestinationDir(t *testing.T) {
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "states.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = Backup(context.Background(), s, filepath.Join(dir, "missing", "copy.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create temp file")
}

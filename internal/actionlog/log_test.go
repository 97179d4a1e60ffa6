package actionlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/transitions/internal/ir"
)

func testRecord(at time.Time, seq int64) *ir.ActionRecord {
	return &ir.ActionRecord{
		Action:     ir.ActionRemove,
		Names:      []string{"2"},
		ID:         ir.RecordID(at, seq),
		Seq:        seq,
		RecordedAt: at,
		Version:    ir.RecordVersion,
	}
}

func TestOpenCreatesLogsBesideStore(t *testing.T) {
	root := t.TempDir()

	l, err := Open(filepath.Join(root, "states.db"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "logs"), l.Dir())
	info, err := os.Stat(l.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestAppendWritesIndentedRecordWithDigest(t *testing.T) {
	l, err := OpenDir(t.TempDir())
	require.NoError(t, err)

	at := time.Date(2026, 10, 18, 13, 0, 0, 0, time.UTC)
	rec := *testRecord(at, 1)
	rec.Digest = "caller supplied, replaced"

	path, err := l.Append(&rec)
	require.NoError(t, err)
	assert.Equal(t, ir.MustRecordDigest(rec), rec.Digest)
	assert.Equal(t, "20261018T130000.000000000Z-000000001.log.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n \""), "indented with one space")

	var decoded ir.ActionRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ir.MustRecordDigest(rec), decoded.Digest)
	assert.Equal(t, []string{"2"}, decoded.Names)
}

func TestAppendRequiresID(t *testing.T) {
	l, err := OpenDir(t.TempDir())
	require.NoError(t, err)

	_, err = l.Append(&ir.ActionRecord{Action: ir.ActionRemove, Names: []string{"1"}})
	assert.Error(t, err)
}

func TestAppendNeverOverwrites(t *testing.T) {
	l, err := OpenDir(t.TempDir())
	require.NoError(t, err)

	rec := *testRecord(time.Date(2026, 10, 18, 13, 0, 0, 0, time.UTC), 1)
	_, err = l.Append(&rec)
	require.NoError(t, err)

	_, err = l.Append(&rec)
	assert.ErrorIs(t, err, ErrExists)
}

func TestAppendLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	l, err := OpenDir(dir)
	require.NoError(t, err)

	_, err = l.Append(testRecord(time.Date(2026, 10, 18, 13, 0, 0, 0, time.UTC), 1))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, strings.HasPrefix(entries[0].Name(), "."))
}

func TestDiscard(t *testing.T) {
	l, err := OpenDir(t.TempDir())
	require.NoError(t, err)

	path, err := l.Append(testRecord(time.Date(2026, 10, 18, 13, 0, 0, 0, time.UTC), 1))
	require.NoError(t, err)

	require.NoError(t, l.Discard(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Discarding twice is not an error.
	assert.NoError(t, l.Discard(path))
}

func TestListSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	l, err := OpenDir(dir)
	require.NoError(t, err)

	base := time.Date(2026, 10, 18, 13, 0, 0, 0, time.UTC)
	for _, seq := range []int64{3, 1, 2} {
		_, err := l.Append(testRecord(base.Add(time.Duration(seq)*time.Second), seq))
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".transitions-tmp-1"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"+Suffix), 0o755))

	paths, err := l.List()
	require.NoError(t, err)
	require.Len(t, paths, 3)
	for i, p := range paths {
		_, seq, err := ir.ParseRecordID(strings.TrimSuffix(filepath.Base(p), Suffix))
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), seq)
	}
}

func TestListDirMissing(t *testing.T) {
	_, err := ListDir(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestLast(t *testing.T) {
	dir := t.TempDir()
	l, err := OpenDir(dir)
	require.NoError(t, err)

	_, ok, err := l.Last()
	require.NoError(t, err)
	assert.False(t, ok, "empty log has no position")

	// Files from the legacy tool have no id and are skipped.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024-05-01T10-11-12.123456"+Suffix), []byte("{}"), 0o644))
	_, ok, err = l.Last()
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2026, 10, 18, 13, 0, 0, 5, time.UTC)
	_, err = l.Append(testRecord(at.Add(-time.Second), 41))
	require.NoError(t, err)
	_, err = l.Append(testRecord(at, 42))
	require.NoError(t, err)

	pos, ok, err := l.Last()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(42), pos.Seq)
	assert.True(t, at.Equal(pos.RecordedAt))
}

func TestRead(t *testing.T) {
	l, err := OpenDir(t.TempDir())
	require.NoError(t, err)

	path, err := l.Append(testRecord(time.Date(2026, 10, 18, 13, 0, 0, 0, time.UTC), 1))
	require.NoError(t, err)

	data, err := Read(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"action": "remove"`)

	_, err = Read(path + ".missing")
	assert.Error(t, err)
}

package replay

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/transitions/internal/actionlog"
	"github.com/roach88/transitions/internal/engine"
	"github.com/roach88/transitions/internal/ir"
	"github.com/roach88/transitions/internal/store"
	"github.com/roach88/transitions/internal/testutil"
)

type workspace struct {
	store  *store.Store
	log    *actionlog.Log
	engine *engine.Engine
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	path := filepath.Join(t.TempDir(), "states.db")

	s, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	l, err := actionlog.Open(path)
	require.NoError(t, err)

	e, err := engine.New(s, l,
		engine.WithTimeSource(testutil.NewDeterministicClock()),
		engine.WithSessionGenerator(testutil.NewFixedSessionGenerator("")),
	)
	require.NoError(t, err)
	return &workspace{store: s, log: l, engine: e}
}

func (w *workspace) state(t *testing.T) map[string]string {
	t.Helper()
	items, err := w.store.Query(context.Background(), store.Filter{})
	require.NoError(t, err)
	return ir.States(items)
}

// Replaying a log into a fresh store reproduces the source store, including
// the effect of forced calls and unaffected by rejected ones.
func TestReplayReproducesStore(t *testing.T) {
	ctx := context.Background()
	src := newWorkspace(t)
	e := src.engine

	_, err := e.Add(ctx, map[string]string{"1": "a", "2": "a", "3": "a"}, false)
	require.NoError(t, err)
	_, err = e.Add(ctx, map[string]string{"4": "b", "3": "b"}, true)
	require.NoError(t, err)
	_, err = e.Transition(ctx, []string{"3", "4"}, "b", "c", false)
	require.NoError(t, err)
	_, err = e.Transition(ctx, []string{"1"}, "z", "c", false)
	require.ErrorIs(t, err, engine.ErrStateMismatch)
	_, err = e.Transition(ctx, []string{"1", "4"}, "", "d", true)
	require.NoError(t, err)
	_, err = e.Remove(ctx, []string{"2", "9"}, true)
	require.NoError(t, err)
	_, err = e.Add(ctx, map[string]string{"1": "x"}, false)
	require.ErrorIs(t, err, engine.ErrConflict)

	records, err := LoadDir(src.log.Dir())
	require.NoError(t, err)
	require.Len(t, records, 5)

	dst := newWorkspace(t)
	applied, err := Replay(ctx, dst.engine, records)
	require.NoError(t, err)
	assert.Equal(t, 5, applied)

	assert.Equal(t, map[string]string{"1": "d", "3": "c", "4": "d"}, src.state(t))
	assert.Equal(t, src.state(t), dst.state(t))

	diffs, err := Compare(ctx, src.store, dst.store)
	require.NoError(t, err)
	assert.Empty(t, diffs)

	// The target keeps its own log of what it applied.
	written, err := dst.log.List()
	require.NoError(t, err)
	assert.Len(t, written, 5)
}

// A record without its parameters is an invalid log, caught before anything
// is applied.
func TestReplayRejectsRecordWithoutParameters(t *testing.T) {
	ctx := context.Background()
	dst := newWorkspace(t)

	records := []ir.ActionRecord{
		{Action: ir.ActionAdd, Content: map[string]string{"1": "a"}},
		{Action: ir.ActionRemove, Names: []string{}},
	}

	applied, err := Replay(ctx, dst.engine, records)
	require.ErrorIs(t, err, ErrInvalidLog)
	assert.Equal(t, 0, applied)
	assert.Empty(t, dst.state(t))
}

// Names and states outside ASCII survive the write/read round trip with
// their digests intact.
func TestReplayNonASCIINames(t *testing.T) {
	ctx := context.Background()
	src := newWorkspace(t)

	_, err := src.engine.Add(ctx, map[string]string{"café": "à faire", "日本": "済", "a\u2028b": "x"}, false)
	require.NoError(t, err)
	_, err = src.engine.Transition(ctx, []string{"café"}, "à faire", "fini", false)
	require.NoError(t, err)

	// Invalid UTF-8 is rejected and leaves the log readable.
	_, err = src.engine.Add(ctx, map[string]string{"a\xffb": "s"}, false)
	require.ErrorIs(t, err, engine.ErrInvalidInput)

	records, err := LoadDir(src.log.Dir())
	require.NoError(t, err)
	require.Len(t, records, 2)

	dst := newWorkspace(t)
	_, err = Replay(ctx, dst.engine, records)
	require.NoError(t, err)
	assert.Equal(t, src.state(t), dst.state(t))
}

func TestReplayStopsAtFailingRecord(t *testing.T) {
	ctx := context.Background()
	dst := newWorkspace(t)

	records := []ir.ActionRecord{
		{Action: ir.ActionAdd, Content: map[string]string{"1": "a"}},
		{Action: ir.ActionRemove, Names: []string{"9"}},
		{Action: ir.ActionAdd, Content: map[string]string{"2": "b"}},
	}

	applied, err := Replay(ctx, dst.engine, records)
	require.Error(t, err)
	assert.Equal(t, 1, applied)
	assert.ErrorIs(t, err, engine.ErrNotFound)

	var re *RecordError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, re.Index)

	assert.Equal(t, map[string]string{"1": "a"}, dst.state(t), "earlier records stay applied")
}

func TestReplayValidatesBeforeApplying(t *testing.T) {
	ctx := context.Background()
	dst := newWorkspace(t)

	records := []ir.ActionRecord{
		{Action: ir.ActionAdd, Content: map[string]string{"1": "a"}},
		{Action: ir.ActionTransition, Names: []string{"1"}, FromState: "a"},
	}

	applied, err := Replay(ctx, dst.engine, records)
	require.ErrorIs(t, err, ErrInvalidLog)
	assert.Equal(t, 0, applied)
	assert.Contains(t, err.Error(), "record 1")
	assert.Empty(t, dst.state(t))
}

func TestReplayIgnoresAuditFields(t *testing.T) {
	ctx := context.Background()
	dst := newWorkspace(t)

	records := []ir.ActionRecord{
		{Action: ir.ActionAdd, Content: map[string]string{"1": "a"}, Forced: true, Reset: []string{"ghost"}},
		{Action: ir.ActionRemove, Names: []string{"1", "2"}, Forced: true, Skipped: []string{"unrelated"}},
	}

	_, err := Replay(ctx, dst.engine, records)
	require.NoError(t, err)
	assert.Empty(t, dst.state(t))
}

func TestReplayLegacyLogDirectory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	files := map[string]string{
		"2024-05-01T10-11-12.000001.log.json": `{"action": "add", "content": {"1": "a", "2": "a"}, "forced": false}`,
		"2024-05-01T10-11-13.000001.log.json": `{"action": "transit", "names": ["1"], "from_state": "a", "to_state": "b", "forced": false}`,
		"2024-05-01T10-11-14.000001.log.json": `{"action": "remove", "names": ["2", "3"], "forced": true}`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	records, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, ir.ActionTransition, records[1].Action)

	dst := newWorkspace(t)
	_, err = Replay(ctx, dst.engine, records)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "b"}, dst.state(t))
}

func TestLoadDirReportsBadFile(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "20261018T130000.000000000Z-000000001.log.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"action": "add"}`), 0o644))

	_, err := LoadDir(dir)
	require.ErrorIs(t, err, ErrInvalidLog)

	var ile *InvalidLogError
	require.ErrorAs(t, err, &ile)
	assert.Equal(t, bad, ile.Source)
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	src := newWorkspace(t)

	_, err := src.engine.Add(ctx, map[string]string{"1": "a", "2": "b"}, false)
	require.NoError(t, err)
	records, err := LoadDir(src.log.Dir())
	require.NoError(t, err)

	diffs, err := Verify(ctx, src.store, records)
	require.NoError(t, err)
	assert.Empty(t, diffs)

	// Change the store behind the log's back.
	_, err = src.engine.Transition(ctx, []string{"2"}, "b", "c", false)
	require.NoError(t, err)
	_, err = src.engine.Add(ctx, map[string]string{"3": "z"}, false)
	require.NoError(t, err)

	diffs, err = Verify(ctx, src.store, records)
	require.NoError(t, err)
	assert.Equal(t, []Difference{
		{Name: "2", Source: "c", Replayed: "b"},
		{Name: "3", Source: "z"},
	}, diffs)
}

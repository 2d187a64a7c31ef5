package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/solveplot/internal/foundation/errors"
	"git.home.luguber.info/inful/solveplot/internal/pipeline"
)

func sampleReport(id string, start time.Time) *pipeline.Report {
	r := pipeline.NewReport(id)
	r.Start = start
	r.RecordStage("generate", pipeline.StageResultSuccess, 120*time.Millisecond)
	r.RecordStage("build", pipeline.StageResultFatal, 2*time.Second)
	r.RecordStage("solve", pipeline.StageResultSkipped, 0)
	r.AddIssue(pipeline.NewFatalStageError("build", errors.New("make: *** [all] Error 2")))
	r.End = start.Add(3 * time.Second)
	r.Finish()
	return r
}

func TestRecordAndGet(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	start := time.UnixMilli(1_700_000_000_000)
	run := FromReport(sampleReport("run-1", start), errors.New("fatal stage build"))
	require.NoError(t, store.Record(ctx, run))

	got, err := store.Get(ctx, "run-1")
	require.NoError(t, err)

	if diff := cmp.Diff(run, *got); diff != "" {
		t.Errorf("run mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "failed", got.Outcome)
	assert.Equal(t, "build", got.FailedStage)
}

func TestRecentNewestFirst(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	base := time.UnixMilli(1_700_000_000_000)
	for i, id := range []string{"a", "b", "c"} {
		r := pipeline.NewReport(id)
		r.Start = base.Add(time.Duration(i) * time.Minute)
		r.End = r.Start.Add(time.Second)
		r.Rows = 3
		r.Columns = []string{"t (seconds)", "C", "G"}
		r.Finish()
		require.NoError(t, store.Record(ctx, FromReport(r, nil)))
	}

	runs, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
	assert.Equal(t, []string{"t (seconds)", "C", "G"}, runs[0].Columns)
	assert.Equal(t, "success", runs[0].Outcome)
}

func TestGetUnknownRun(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.Get(t.Context(), "missing")
	require.Error(t, err)
	assert.Equal(t, ferrors.CategoryNotFound, ferrors.GetCategory(err))
}

func TestDuplicateRunIDRejected(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	run := FromReport(sampleReport("dup", time.UnixMilli(0)), nil)
	require.NoError(t, store.Record(t.Context(), run))
	require.Error(t, store.Record(t.Context(), run))
}

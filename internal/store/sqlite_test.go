package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gantt2svg/internal/source"
	"gantt2svg/pkg/plan"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "projects.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func fixedSample() []plan.Project {
	projects := source.Sample()
	for i := range projects {
		projects[i].CreatedAt = fixedNow
		projects[i].UpdatedAt = fixedNow
	}
	return projects
}

func TestSQLite_EmptyDatabase(t *testing.T) {
	s := newTestSQLite(t)
	projects, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestSQLite_RoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	want := fixedSample()
	want[0].Stages[0].Tasks[0].Notes = "acta firmada"

	require.NoError(t, s.Save(ctx, want))
	got, err := s.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, plan.Flatten(want), plan.Flatten(got))
}

func TestSQLite_SaveReplacesEverything(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, fixedSample()))
	require.NoError(t, s.Save(ctx, fixedSample()[2:]))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "proj-3", got[0].ID)
	assert.Equal(t, fixedSample()[2].TaskCount(), got[0].TaskCount())
}

func TestSQLite_KeepsProjectOrder(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	projects := fixedSample()
	projects[0], projects[2] = projects[2], projects[0]
	require.NoError(t, s.Save(ctx, projects))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"proj-3", "proj-2", "proj-1"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestSQLite_BacksAStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "projects.db")

	db, err := NewSQLite(path)
	require.NoError(t, err)
	s := newTestStore(fixedSample(), WithPersister(db))
	_, err = s.Dispatch(ctx, DeleteProject{ID: "proj-1"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := NewSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSQLite_LoadRejectsOrphanTask(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, fixedSample()))

	conn, err := s.db.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.ExecContext(ctx, `PRAGMA foreign_keys = OFF`)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `
		INSERT INTO tasks (id, stage_id, position, name, start_date, end_date)
		VALUES ('task-x', 'stage-missing', 0, 'Stray', '2025-01-01', '2025-01-02')`)
	require.NoError(t, err)

	_, err = s.Load(ctx)
	assert.ErrorContains(t, err, "task task-x: unknown stage stage-missing")
}

func TestSQLite_LoadValidates(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, fixedSample()))

	_, err := s.db.ExecContext(ctx, `UPDATE tasks SET progress = 50 WHERE id = 'task-1-1-1'`)
	require.NoError(t, err)

	_, err = s.Load(ctx)
	var verr *plan.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "stages[0].tasks[0].status")
}

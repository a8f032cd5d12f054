package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gantt2svg/internal/source"
	"gantt2svg/pkg/plan"
)

var fixedNow = time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)

func sequentialIDs() func(string) string {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestStore(projects []plan.Project, opts ...Option) *Store {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow }), WithIDGenerator(sequentialIDs())}, opts...)
	return New(projects, zap.NewNop(), opts...)
}

func date(s string) plan.Date { return plan.MustParseDate(s) }

func ptr[T any](v T) *T { return &v }

// fakePersister records saves and optionally fails them.
type fakePersister struct {
	loaded  []plan.Project
	saved   [][]plan.Project
	saveErr error
	closed  bool
}

func (f *fakePersister) Load(ctx context.Context) ([]plan.Project, error) { return f.loaded, nil }

func (f *fakePersister) Save(ctx context.Context, projects []plan.Project) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, projects)
	return nil
}

func (f *fakePersister) Close() error {
	f.closed = true
	return nil
}

func TestNew_CopiesInput(t *testing.T) {
	projects := source.Sample()
	s := newTestStore(projects)

	projects[0].Name = "changed"
	assert.Equal(t, uint64(1), s.Snapshot().Version)
	assert.Equal(t, "Sistema de Planillas v2.0", s.Snapshot().Projects[0].Name)
}

func TestDispatch_CreateProject(t *testing.T) {
	s := newTestStore(nil)
	before := s.Snapshot()

	res, err := s.Dispatch(context.Background(), CreateProject{Draft: plan.ProjectDraft{
		Name:      "  Portal  ",
		StartDate: date("2025-02-01"),
		EndDate:   date("2025-06-30"),
	}})
	require.NoError(t, err)

	assert.Equal(t, "proj-1", res.ID)
	assert.Equal(t, uint64(2), res.Snapshot.Version)
	assert.Same(t, res.Snapshot, s.Snapshot())
	assert.Empty(t, before.Projects, "published snapshots are never modified")

	p, ok := res.Snapshot.Project("proj-1")
	require.True(t, ok)
	assert.Equal(t, "Portal", p.Name)
	assert.Equal(t, fixedNow, p.CreatedAt)
	require.Len(t, p.Stages, 6)
	for i, name := range plan.StageNames() {
		assert.Equal(t, name, p.Stages[i].Name)
		assert.Equal(t, i+1, p.Stages[i].Order)
		assert.Empty(t, p.Stages[i].Tasks)
	}
	assert.Equal(t, "stage-inception-2", p.Stages[0].ID)
}

func TestDispatch_InvalidDraftPublishesNothing(t *testing.T) {
	s := newTestStore(source.Sample())
	before := s.Snapshot()

	_, err := s.Dispatch(context.Background(), CreateProject{Draft: plan.ProjectDraft{
		StartDate: date("2025-03-01"),
		EndDate:   date("2025-02-01"),
	}})

	var verr *plan.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "endDate")
	assert.Same(t, before, s.Snapshot())
}

func TestDispatch_UpdateAndDeleteProject(t *testing.T) {
	s := newTestStore(source.Sample())
	ctx := context.Background()

	res, err := s.Dispatch(ctx, UpdateProject{ID: "proj-2", Draft: plan.ProjectDraft{
		Name:      "Renamed",
		StartDate: date("2025-01-01"),
		EndDate:   date("2025-12-31"),
	}})
	require.NoError(t, err)
	p, _ := res.Snapshot.Project("proj-2")
	assert.Equal(t, "Renamed", p.Name)
	assert.Equal(t, fixedNow, p.UpdatedAt)
	assert.NotEmpty(t, p.Stages, "stages survive a project update")

	res, err = s.Dispatch(ctx, DeleteProject{ID: "proj-2"})
	require.NoError(t, err)
	assert.Len(t, res.Snapshot.Projects, 2)
	_, ok := res.Snapshot.Project("proj-2")
	assert.False(t, ok)

	_, err = s.Dispatch(ctx, DeleteProject{ID: "proj-2"})
	assert.ErrorIs(t, err, plan.ErrNotFound)
	_, err = s.Dispatch(ctx, UpdateProject{ID: "missing", Draft: plan.ProjectDraft{
		Name: "x", StartDate: date("2025-01-01"), EndDate: date("2025-01-02"),
	}})
	assert.ErrorIs(t, err, plan.ErrNotFound)
}

func TestDispatch_TaskLifecycle(t *testing.T) {
	s := newTestStore(source.Sample())
	ctx := context.Background()

	res, err := s.Dispatch(ctx, AddTask{ProjectID: "proj-1", StageID: "stage-1-6", Draft: plan.TaskDraft{
		Name:      "Cierre formal",
		StartDate: date("2025-03-25"),
		EndDate:   date("2025-03-31"),
		Progress:  50,
	}})
	require.NoError(t, err)
	taskID := res.ID
	assert.Equal(t, "task-1", taskID)

	p, _ := res.Snapshot.Project("proj-1")
	_, task, ok := p.Task(taskID)
	require.True(t, ok)
	assert.Equal(t, plan.StatusInProgress, task.Status)

	res, err = s.Dispatch(ctx, UpdateTask{ProjectID: "proj-1", StageID: "stage-1-6", TaskID: taskID, Draft: plan.TaskDraft{
		Name:      "Cierre formal",
		StartDate: date("2025-03-25"),
		EndDate:   date("2025-03-31"),
		Progress:  100,
	}})
	require.NoError(t, err)
	p, _ = res.Snapshot.Project("proj-1")
	_, task, _ = p.Task(taskID)
	assert.Equal(t, plan.StatusCompleted, task.Status)

	res, err = s.Dispatch(ctx, DeleteTask{ProjectID: "proj-1", StageID: "stage-1-6", TaskID: taskID})
	require.NoError(t, err)
	p, _ = res.Snapshot.Project("proj-1")
	_, _, ok = p.Task(taskID)
	assert.False(t, ok)

	_, err = s.Dispatch(ctx, DeleteTask{ProjectID: "proj-1", StageID: "stage-1-6", TaskID: taskID})
	assert.ErrorIs(t, err, plan.ErrNotFound)
	_, err = s.Dispatch(ctx, AddTask{ProjectID: "proj-1", StageID: "nope", Draft: plan.TaskDraft{
		Name: "x", StartDate: date("2025-01-01"), EndDate: date("2025-01-01"),
	}})
	assert.ErrorIs(t, err, plan.ErrNotFound)
}

func TestDispatch_TaskStatusMustMatchProgress(t *testing.T) {
	s := newTestStore(source.Sample())
	_, err := s.Dispatch(context.Background(), AddTask{ProjectID: "proj-1", StageID: "stage-1-1", Draft: plan.TaskDraft{
		Name:      "Mismatch",
		StartDate: date("2025-01-01"),
		EndDate:   date("2025-01-02"),
		Progress:  100,
		Status:    plan.StatusPending,
	}})
	var verr *plan.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "status")
}

func TestDispatch_ApplyRowUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("task row moves and re-derives status", func(t *testing.T) {
		s := newTestStore(source.Sample())
		res, err := s.Dispatch(ctx, ApplyRowUpdate{Update: plan.RowUpdate{
			RowID:    "task-1-3-1",
			Start:    ptr(date("2025-01-13")),
			End:      ptr(date("2025-02-17")),
			Progress: ptr(100),
		}})
		require.NoError(t, err)
		assert.Equal(t, "task-1-3-1", res.ID)

		p, _ := res.Snapshot.Project("proj-1")
		_, task, _ := p.Task("task-1-3-1")
		assert.Equal(t, date("2025-01-13"), task.StartDate)
		assert.Equal(t, date("2025-02-17"), task.EndDate)
		assert.Equal(t, 100, task.Progress)
		assert.Equal(t, plan.StatusCompleted, task.Status)
	})

	t.Run("project row changes its own range", func(t *testing.T) {
		s := newTestStore(source.Sample())
		res, err := s.Dispatch(ctx, ApplyRowUpdate{Update: plan.RowUpdate{
			RowID: "proj-1",
			End:   ptr(date("2025-04-30")),
		}})
		require.NoError(t, err)
		p, _ := res.Snapshot.Project("proj-1")
		assert.Equal(t, date("2024-12-01"), p.StartDate)
		assert.Equal(t, date("2025-04-30"), p.EndDate)
	})

	t.Run("project progress is derived", func(t *testing.T) {
		s := newTestStore(source.Sample())
		before := s.Snapshot()
		_, err := s.Dispatch(ctx, ApplyRowUpdate{Update: plan.RowUpdate{
			RowID:    "proj-1",
			End:      ptr(date("2025-04-30")),
			Progress: ptr(10),
		}})
		assert.ErrorIs(t, err, plan.ErrDerivedRow)
		assert.Same(t, before, s.Snapshot())
	})

	t.Run("stage row is derived", func(t *testing.T) {
		s := newTestStore(source.Sample())
		_, err := s.Dispatch(ctx, ApplyRowUpdate{Update: plan.RowUpdate{RowID: "stage-1-2", Progress: ptr(10)}})
		assert.ErrorIs(t, err, plan.ErrDerivedRow)
	})

	t.Run("unknown row", func(t *testing.T) {
		s := newTestStore(source.Sample())
		_, err := s.Dispatch(ctx, ApplyRowUpdate{Update: plan.RowUpdate{RowID: "ghost"}})
		assert.ErrorIs(t, err, plan.ErrNotFound)
	})

	t.Run("inverted range is rejected", func(t *testing.T) {
		s := newTestStore(source.Sample())
		before := s.Snapshot()
		_, err := s.Dispatch(ctx, ApplyRowUpdate{Update: plan.RowUpdate{
			RowID: "task-1-1-1",
			Start: ptr(date("2024-12-10")),
		}})
		var verr *plan.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Same(t, before, s.Snapshot())
	})
}

func TestDispatch_ReplaceAll(t *testing.T) {
	s := newTestStore(nil)
	ctx := context.Background()

	res, err := s.Dispatch(ctx, ReplaceAll{Projects: source.Sample()})
	require.NoError(t, err)
	assert.Len(t, res.Snapshot.Projects, 3)

	dup := source.Sample()
	dup[1].ID = dup[0].ID
	_, err = s.Dispatch(ctx, ReplaceAll{Projects: dup})
	var verr *plan.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Same(t, res.Snapshot, s.Snapshot())

	shared := source.Sample()
	shared[1].Stages[0].Tasks = append(shared[1].Stages[0].Tasks, shared[0].Stages[0].Tasks[0])
	_, err = s.Dispatch(ctx, ReplaceAll{Projects: shared})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "already used by projects[0].stages[0].tasks[0].id")
	assert.Same(t, res.Snapshot, s.Snapshot())
}

func TestSubscribe_LatestSnapshotWins(t *testing.T) {
	s := newTestStore(source.Sample())
	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Subscribe(ctx)

	_, err := s.Dispatch(ctx, DeleteProject{ID: "proj-1"})
	require.NoError(t, err)
	_, err = s.Dispatch(ctx, DeleteProject{ID: "proj-2"})
	require.NoError(t, err)

	select {
	case snap := <-ch:
		assert.Equal(t, uint64(3), snap.Version)
		assert.Len(t, snap.Projects, 1)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel closes when the subscriber's context ends")
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}

func TestDispatch_PersistFailureIsSwallowed(t *testing.T) {
	p := &fakePersister{saveErr: errors.New("disk full")}
	s := newTestStore(source.Sample(), WithPersister(p))

	res, err := s.Dispatch(context.Background(), DeleteProject{ID: "proj-3"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Snapshot.Version)
	assert.Same(t, res.Snapshot, s.Snapshot())
}

func TestDispatch_PersistsEveryPublishedSnapshot(t *testing.T) {
	p := &fakePersister{}
	s := newTestStore(source.Sample(), WithPersister(p))
	ctx := context.Background()

	_, err := s.Dispatch(ctx, DeleteProject{ID: "proj-3"})
	require.NoError(t, err)
	_, err = s.Dispatch(ctx, DeleteProject{ID: "ghost"})
	require.Error(t, err)

	require.Len(t, p.saved, 1)
	assert.Len(t, p.saved[0], 2)

	require.NoError(t, s.Close())
	assert.True(t, p.closed)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("seeds an empty backend from the fallback", func(t *testing.T) {
		p := &fakePersister{}
		s, err := Open(ctx, p, source.Sample(), zap.NewNop())
		require.NoError(t, err)
		assert.Len(t, s.Snapshot().Projects, 3)
		require.Len(t, p.saved, 1)
		assert.Len(t, p.saved[0], 3)
	})

	t.Run("stored projects take precedence", func(t *testing.T) {
		p := &fakePersister{loaded: source.Sample()[:1]}
		s, err := Open(ctx, p, source.Sample(), zap.NewNop())
		require.NoError(t, err)
		assert.Len(t, s.Snapshot().Projects, 1)
		assert.Empty(t, p.saved)
	})
}

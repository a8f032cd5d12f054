package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func task(id, start, end string, progress int) StageTask {
	return StageTask{
		ID:        id,
		Name:      "Task " + id,
		StartDate: MustParseDate(start),
		EndDate:   MustParseDate(end),
		Progress:  progress,
		Status:    StatusForProgress(progress),
	}
}

func payrollProject() Project {
	return Project{
		ID:        "proj-1",
		Name:      "Payroll v2",
		StartDate: MustParseDate("2024-12-01"),
		EndDate:   MustParseDate("2025-03-31"),
		Stages: []Stage{
			{ID: "stage-1", Name: StageInception, Order: 1, Tasks: []StageTask{
				task("t1", "2024-12-01", "2024-12-03", 100),
				task("t2", "2024-12-04", "2024-12-08", 100),
			}},
			{ID: "stage-2", Name: StagePlanning, Order: 2, Tasks: []StageTask{
				task("t3", "2024-12-09", "2024-12-20", 80),
				task("t4", "2024-12-21", "2025-01-10", 30),
			}},
			{ID: "stage-3", Name: StageExecution, Order: 3, Tasks: []StageTask{}},
		},
	}
}

func TestProjectProgress_MeanOfAllTasks(t *testing.T) {
	assert.Equal(t, 78, ProjectProgress(payrollProject()))
}

func TestProjectProgress_EmptyProjectIsZero(t *testing.T) {
	p := Project{ID: "p", Stages: []Stage{{ID: "s", Name: StageInception, Order: 1}}}
	assert.Equal(t, 0, ProjectProgress(p))
}

func TestStageProgress_RoundsHalfUp(t *testing.T) {
	tasks := []StageTask{{Progress: 50}, {Progress: 51}}
	assert.Equal(t, 51, StageProgress(tasks)) // 50.5
	assert.Equal(t, 0, StageProgress(nil))
}

func TestFlatten_OrderAndShape(t *testing.T) {
	rows := Flatten([]Project{payrollProject()})

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"proj-1", "stage-1", "t1", "t2", "stage-2", "t3", "t4"}, ids)

	assert.Equal(t, KindProject, rows[0].Kind)
	assert.Equal(t, 78, rows[0].Progress)
	assert.Equal(t, "2024-12-01", rows[0].Start.String())
	assert.Equal(t, "2025-03-31", rows[0].End.String())

	assert.Equal(t, KindStage, rows[4].Kind)
	assert.Equal(t, "proj-1", rows[4].ParentID)
	assert.Equal(t, 55, rows[4].Progress)
	assert.Equal(t, "2024-12-09", rows[4].Start.String())
	assert.Equal(t, "2025-01-10", rows[4].End.String())

	assert.Equal(t, KindTask, rows[6].Kind)
	assert.Equal(t, "stage-2", rows[6].ParentID)
	assert.Equal(t, StatusInProgress, rows[6].Status)
}

func TestFlatten_EmptyStagesProduceNoRows(t *testing.T) {
	p := payrollProject()
	withEmpty := Flatten([]Project{p})

	p.Stages = p.Stages[:2]
	without := Flatten([]Project{p})

	assert.Equal(t, without, withEmpty)
}

func TestFlatten_StagesSortedStablyByOrder(t *testing.T) {
	p := Project{ID: "p", Name: "P", StartDate: MustParseDate("2025-01-01"), EndDate: MustParseDate("2025-01-31")}
	p.Stages = []Stage{
		{ID: "late", Name: StageClosure, Order: 6, Tasks: []StageTask{task("a", "2025-01-20", "2025-01-21", 0)}},
		{ID: "dup-first", Name: StagePlanning, Order: 2, Tasks: []StageTask{task("b", "2025-01-05", "2025-01-06", 0)}},
		{ID: "early", Name: StageInception, Order: 1, Tasks: []StageTask{task("c", "2025-01-01", "2025-01-02", 0)}},
		{ID: "dup-second", Name: StageExecution, Order: 2, Tasks: []StageTask{task("d", "2025-01-07", "2025-01-08", 0)}},
	}

	var stageIDs []string
	for _, r := range Flatten([]Project{p}) {
		if r.Kind == KindStage {
			stageIDs = append(stageIDs, r.ID)
		}
	}
	assert.Equal(t, []string{"early", "dup-first", "dup-second", "late"}, stageIDs)

	// source order untouched
	assert.Equal(t, "late", p.Stages[0].ID)
}

func TestFlatten_StageSpanUsesInsertionOrder(t *testing.T) {
	p := Project{ID: "p", Name: "P", StartDate: MustParseDate("2025-01-01"), EndDate: MustParseDate("2025-01-31")}
	p.Stages = []Stage{{ID: "s", Name: StageExecution, Order: 3, Tasks: []StageTask{
		task("late", "2025-01-20", "2025-01-25", 0),
		task("early", "2025-01-02", "2025-01-04", 0),
	}}}

	rows := Flatten([]Project{p})
	require.Len(t, rows, 4)
	assert.Equal(t, "2025-01-20", rows[1].Start.String())
	assert.Equal(t, "2025-01-04", rows[1].End.String())
}

func TestFlatten_ProjectsDoNotInterleave(t *testing.T) {
	a := payrollProject()
	b := payrollProject()
	b.ID = "proj-2"
	for i := range b.Stages {
		b.Stages[i].ID += "-b"
		for j := range b.Stages[i].Tasks {
			b.Stages[i].Tasks[j].ID += "-b"
		}
	}

	rows := Flatten([]Project{a, b})
	require.Len(t, rows, 14)
	assert.Equal(t, "proj-2", rows[7].ID)
	for _, r := range rows[:7] {
		assert.NotContains(t, r.ID, "-b")
	}
}

func TestFlatten_NoProjects(t *testing.T) {
	assert.Empty(t, Flatten(nil))
}

func TestRowLabel(t *testing.T) {
	assert.Equal(t, "📁 Payroll", Row{Kind: KindProject, Name: "Payroll"}.Label())
	assert.Equal(t, "  📋 Planning", Row{Kind: KindStage, Depth: 1, Name: "Planning"}.Label())
	assert.Equal(t, "    • Kickoff", Row{Kind: KindTask, Depth: 2, Name: "Kickoff"}.Label())
}

func TestNewProject_SeedsSixStages(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	draft := ProjectDraft{Name: " Portal ", StartDate: MustParseDate("2025-01-01"), EndDate: MustParseDate("2025-02-01")}

	p := NewProject(draft, "proj-x", now, func(n StageName) string { return "stage-" + string(n) })

	assert.Equal(t, "Portal", p.Name)
	assert.Equal(t, now, p.CreatedAt)
	require.Len(t, p.Stages, 6)
	for i, s := range p.Stages {
		assert.Equal(t, StageNames()[i], s.Name)
		assert.Equal(t, i+1, s.Order)
		assert.Empty(t, s.Tasks)
	}
	assert.Empty(t, Flatten([]Project{p})[1:])
}

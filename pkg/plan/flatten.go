package plan

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// RowKind tags a Row with the level of the hierarchy it came from.
type RowKind int

const (
	KindProject RowKind = iota
	KindStage
	KindTask
)

func (k RowKind) String() string {
	switch k {
	case KindProject:
		return "project"
	case KindStage:
		return "stage"
	case KindTask:
		return "task"
	}
	return "unknown"
}

func (k RowKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *RowKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "project":
		*k = KindProject
	case "stage":
		*k = KindStage
	case "task":
		*k = KindTask
	default:
		return fmt.Errorf("unknown row kind %q", text)
	}
	return nil
}

// Row is one line of the timeline. It carries semantic fields only;
// styling is derived from Kind and Status by the presentation layer.
type Row struct {
	ID       string  `json:"id"`
	Kind     RowKind `json:"kind"`
	Depth    int     `json:"depth"`
	Name     string  `json:"name"`
	Start    Date    `json:"start"`
	End      Date    `json:"end"`
	Progress int     `json:"progress"`
	Status   Status  `json:"status,omitempty"`
	ParentID string  `json:"parentId,omitempty"`
}

// Label returns the display label with hierarchy indent and icon.
func (r Row) Label() string {
	indent := strings.Repeat("  ", r.Depth)
	switch r.Kind {
	case KindProject:
		return indent + "📁 " + r.Name
	case KindStage:
		return indent + "📋 " + r.Name
	default:
		return indent + "• " + r.Name
	}
}

// RowUpdate is raised when a bar is dragged, resized or has its progress
// changed. Nil fields are unchanged. The host decides which record to mutate.
type RowUpdate struct {
	RowID    string `json:"rowId"`
	Start    *Date  `json:"start,omitempty"`
	End      *Date  `json:"end,omitempty"`
	Progress *int   `json:"progress,omitempty"`
}

// Flatten converts projects into display rows: each project row is followed
// by its non-empty stages in order-key order, each stage row by its tasks in
// insertion order. The input is not modified.
func Flatten(projects []Project) []Row {
	var rows []Row
	for _, p := range projects {
		rows = append(rows, Row{
			ID:       p.ID,
			Kind:     KindProject,
			Depth:    0,
			Name:     p.Name,
			Start:    p.StartDate,
			End:      p.EndDate,
			Progress: ProjectProgress(p),
		})

		for _, s := range sortedStages(p.Stages) {
			if len(s.Tasks) == 0 {
				continue
			}
			// Stage span is first task start to last task end in insertion
			// order, not the min/max over all tasks.
			rows = append(rows, Row{
				ID:       s.ID,
				Kind:     KindStage,
				Depth:    1,
				Name:     string(s.Name),
				Start:    s.Tasks[0].StartDate,
				End:      s.Tasks[len(s.Tasks)-1].EndDate,
				Progress: StageProgress(s.Tasks),
				ParentID: p.ID,
			})

			for _, t := range s.Tasks {
				rows = append(rows, Row{
					ID:       t.ID,
					Kind:     KindTask,
					Depth:    2,
					Name:     t.Name,
					Start:    t.StartDate,
					End:      t.EndDate,
					Progress: t.Progress,
					Status:   t.Status,
					ParentID: s.ID,
				})
			}
		}
	}
	return rows
}

func sortedStages(stages []Stage) []Stage {
	out := append([]Stage(nil), stages...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// ProjectProgress is the rounded, unweighted mean of every task's progress
// across all stages, or 0 when the project has no tasks.
func ProjectProgress(p Project) int {
	total, count := 0, 0
	for _, s := range p.Stages {
		for _, t := range s.Tasks {
			total += t.Progress
			count++
		}
	}
	return roundMean(total, count)
}

// StageProgress is the rounded mean of the tasks' progress, or 0 when empty.
func StageProgress(tasks []StageTask) int {
	total := 0
	for _, t := range tasks {
		total += t.Progress
	}
	return roundMean(total, len(tasks))
}

// roundMean is the mean rounded half up.
func roundMean(total, count int) int {
	if count == 0 {
		return 0
	}
	return int(math.Floor(float64(total)/float64(count) + 0.5))
}

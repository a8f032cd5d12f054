package store

import (
	"fmt"
	"strings"
	"time"

	"gantt2svg/pkg/plan"
)

// Intent is a requested change to the project collection. Intents are
// applied to a private copy of the current snapshot; a failed intent
// leaves the published snapshot untouched.
type Intent interface {
	// Name identifies the intent kind in logs and metrics.
	Name() string
	apply(w *working) (affectedID string, err error)
}

// working is the mutable copy an intent is applied to.
type working struct {
	projects []plan.Project
	now      time.Time
	newID    func(prefix string) string
}

func (w *working) project(id string) (*plan.Project, error) {
	for i := range w.projects {
		if w.projects[i].ID == id {
			return &w.projects[i], nil
		}
	}
	return nil, fmt.Errorf("project %s: %w", id, plan.ErrNotFound)
}

func (w *working) stage(projectID, stageID string) (*plan.Project, *plan.Stage, error) {
	p, err := w.project(projectID)
	if err != nil {
		return nil, nil, err
	}
	s, ok := p.Stage(stageID)
	if !ok {
		return nil, nil, fmt.Errorf("stage %s: %w", stageID, plan.ErrNotFound)
	}
	return p, s, nil
}

// CreateProject adds a new project seeded with the six standard stages.
type CreateProject struct {
	Draft plan.ProjectDraft
}

func (CreateProject) Name() string { return "create_project" }

func (c CreateProject) apply(w *working) (string, error) {
	if err := c.Draft.Validate(); err != nil {
		return "", err
	}
	id := w.newID("proj")
	p := plan.NewProject(c.Draft, id, w.now, func(n plan.StageName) string {
		return w.newID("stage-" + strings.ToLower(string(n)))
	})
	w.projects = append(w.projects, p)
	return id, nil
}

// UpdateProject replaces a project's editable fields. Stages, identity and
// creation time are kept.
type UpdateProject struct {
	ID    string
	Draft plan.ProjectDraft
}

func (UpdateProject) Name() string { return "update_project" }

func (u UpdateProject) apply(w *working) (string, error) {
	if err := u.Draft.Validate(); err != nil {
		return "", err
	}
	p, err := w.project(u.ID)
	if err != nil {
		return "", err
	}
	p.Name = strings.TrimSpace(u.Draft.Name)
	p.Description = u.Draft.Description
	p.StartDate = u.Draft.StartDate
	p.EndDate = u.Draft.EndDate
	p.UpdatedAt = w.now
	return p.ID, nil
}

// DeleteProject removes a project.
type DeleteProject struct {
	ID string
}

func (DeleteProject) Name() string { return "delete_project" }

func (d DeleteProject) apply(w *working) (string, error) {
	for i := range w.projects {
		if w.projects[i].ID == d.ID {
			w.projects = append(w.projects[:i], w.projects[i+1:]...)
			return d.ID, nil
		}
	}
	return "", fmt.Errorf("project %s: %w", d.ID, plan.ErrNotFound)
}

// AddTask appends a task to a stage.
type AddTask struct {
	ProjectID string
	StageID   string
	Draft     plan.TaskDraft
}

func (AddTask) Name() string { return "add_task" }

func (a AddTask) apply(w *working) (string, error) {
	draft := a.Draft.Normalize()
	if err := draft.Validate(); err != nil {
		return "", err
	}
	p, s, err := w.stage(a.ProjectID, a.StageID)
	if err != nil {
		return "", err
	}
	id := w.newID("task")
	s.Tasks = append(s.Tasks, draft.Task(id))
	p.UpdatedAt = w.now
	return id, nil
}

// UpdateTask replaces a task in place, keeping its id and position.
type UpdateTask struct {
	ProjectID string
	StageID   string
	TaskID    string
	Draft     plan.TaskDraft
}

func (UpdateTask) Name() string { return "update_task" }

func (u UpdateTask) apply(w *working) (string, error) {
	draft := u.Draft.Normalize()
	if err := draft.Validate(); err != nil {
		return "", err
	}
	p, s, err := w.stage(u.ProjectID, u.StageID)
	if err != nil {
		return "", err
	}
	for i := range s.Tasks {
		if s.Tasks[i].ID == u.TaskID {
			s.Tasks[i] = draft.Task(u.TaskID)
			p.UpdatedAt = w.now
			return u.TaskID, nil
		}
	}
	return "", fmt.Errorf("task %s: %w", u.TaskID, plan.ErrNotFound)
}

// DeleteTask removes a task from its stage.
type DeleteTask struct {
	ProjectID string
	StageID   string
	TaskID    string
}

func (DeleteTask) Name() string { return "delete_task" }

func (d DeleteTask) apply(w *working) (string, error) {
	p, s, err := w.stage(d.ProjectID, d.StageID)
	if err != nil {
		return "", err
	}
	for i := range s.Tasks {
		if s.Tasks[i].ID == d.TaskID {
			s.Tasks = append(s.Tasks[:i], s.Tasks[i+1:]...)
			p.UpdatedAt = w.now
			return d.TaskID, nil
		}
	}
	return "", fmt.Errorf("task %s: %w", d.TaskID, plan.ErrNotFound)
}

// ApplyRowUpdate applies a drag, resize or progress change from the chart.
// Task rows change the task (status follows progress). Project rows change
// only the project's own range since their progress is derived. Stage rows
// are entirely derived and are rejected.
type ApplyRowUpdate struct {
	Update plan.RowUpdate
}

func (ApplyRowUpdate) Name() string { return "apply_row_update" }

func (a ApplyRowUpdate) apply(w *working) (string, error) {
	u := a.Update
	for i := range w.projects {
		p := &w.projects[i]
		if p.ID == u.RowID {
			if u.Progress != nil {
				return "", fmt.Errorf("project %s progress: %w", u.RowID, plan.ErrDerivedRow)
			}
			draft := plan.ProjectDraft{Name: p.Name, Description: p.Description, StartDate: p.StartDate, EndDate: p.EndDate}
			applyRange(&draft.StartDate, &draft.EndDate, u)
			if err := draft.Validate(); err != nil {
				return "", err
			}
			p.StartDate, p.EndDate = draft.StartDate, draft.EndDate
			p.UpdatedAt = w.now
			return p.ID, nil
		}
		if _, ok := p.Stage(u.RowID); ok {
			return "", fmt.Errorf("stage %s: %w", u.RowID, plan.ErrDerivedRow)
		}
		if _, t, ok := p.Task(u.RowID); ok {
			draft := plan.TaskDraft{
				Name:        t.Name,
				StartDate:   t.StartDate,
				EndDate:     t.EndDate,
				Progress:    t.Progress,
				Responsible: t.Responsible,
				Notes:       t.Notes,
			}
			applyRange(&draft.StartDate, &draft.EndDate, u)
			if u.Progress != nil {
				draft.Progress = *u.Progress
			}
			draft = draft.Normalize()
			if err := draft.Validate(); err != nil {
				return "", err
			}
			*t = draft.Task(t.ID)
			p.UpdatedAt = w.now
			return t.ID, nil
		}
	}
	return "", fmt.Errorf("row %s: %w", u.RowID, plan.ErrNotFound)
}

func applyRange(start, end *plan.Date, u plan.RowUpdate) {
	if u.Start != nil {
		*start = *u.Start
	}
	if u.End != nil {
		*end = *u.End
	}
}

// ReplaceAll swaps the whole collection, as when a project file is reloaded.
type ReplaceAll struct {
	Projects []plan.Project
}

func (ReplaceAll) Name() string { return "replace_all" }

func (r ReplaceAll) apply(w *working) (string, error) {
	if err := plan.ValidateAll(r.Projects); err != nil {
		return "", err
	}
	projects := make([]plan.Project, len(r.Projects))
	for i, p := range r.Projects {
		projects[i] = p.Clone()
	}
	w.projects = projects
	return "", nil
}

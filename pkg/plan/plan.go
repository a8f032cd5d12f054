// Package plan holds the project/stage/task model, the validation applied
// at the editing boundary and the flattener that turns a project hierarchy
// into timeline rows.
package plan

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a stage task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// StatusForProgress returns the status that corresponds to a progress value:
// 0 is pending, 100 is completed, anything else is in progress.
func StatusForProgress(progress int) Status {
	switch {
	case progress <= 0:
		return StatusPending
	case progress >= 100:
		return StatusCompleted
	default:
		return StatusInProgress
	}
}

// StageName is drawn from a fixed, ordered vocabulary.
type StageName string

const (
	StageInception  StageName = "Inception"
	StagePlanning   StageName = "Planning"
	StageExecution  StageName = "Execution"
	StageMonitoring StageName = "Monitoring"
	StageDelivery   StageName = "Delivery"
	StageClosure    StageName = "Closure"
)

// StageNames returns the vocabulary in display order.
func StageNames() []StageName {
	return []StageName{
		StageInception,
		StagePlanning,
		StageExecution,
		StageMonitoring,
		StageDelivery,
		StageClosure,
	}
}

// stageAliases maps lower-cased spellings, including the Spanish names used
// by older project files, to the canonical stage name.
var stageAliases = map[string]StageName{
	"inception":     StageInception,
	"inicio":        StageInception,
	"planning":      StagePlanning,
	"planificación": StagePlanning,
	"planificacion": StagePlanning,
	"execution":     StageExecution,
	"ejecución":     StageExecution,
	"ejecucion":     StageExecution,
	"monitoring":    StageMonitoring,
	"seguimiento":   StageMonitoring,
	"delivery":      StageDelivery,
	"entrega":       StageDelivery,
	"closure":       StageClosure,
	"cierre":        StageClosure,
}

// ParseStageName resolves s (case-insensitive, canonical or alias) to a StageName.
func ParseStageName(s string) (StageName, error) {
	if name, ok := stageAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return name, nil
	}
	return "", fmt.Errorf("unknown stage name %q", s)
}

// Order returns the 1-based position of n in the vocabulary, or 0 if unknown.
func (n StageName) Order() int {
	for i, name := range StageNames() {
		if name == n {
			return i + 1
		}
	}
	return 0
}

func (n StageName) MarshalText() ([]byte, error) {
	return []byte(n), nil
}

func (n *StageName) UnmarshalText(text []byte) error {
	name, err := ParseStageName(string(text))
	if err != nil {
		return err
	}
	*n = name
	return nil
}

// StageTask is a leaf task inside a stage.
type StageTask struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	StartDate   Date   `json:"startDate" yaml:"startDate"`
	EndDate     Date   `json:"endDate" yaml:"endDate"`
	Progress    int    `json:"progress" yaml:"progress"`
	Status      Status `json:"status" yaml:"status"`
	Responsible string `json:"responsible,omitempty" yaml:"responsible,omitempty"`
	Notes       string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Stage groups tasks. Stages are displayed by Order, never by position.
type Stage struct {
	ID    string      `json:"id" yaml:"id"`
	Name  StageName   `json:"name" yaml:"name"`
	Order int         `json:"order" yaml:"order"`
	Tasks []StageTask `json:"tasks" yaml:"tasks"`
}

// Project is the root of the hierarchy.
type Project struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	StartDate   Date      `json:"startDate" yaml:"startDate"`
	EndDate     Date      `json:"endDate" yaml:"endDate"`
	Stages      []Stage   `json:"stages" yaml:"stages"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Clone returns a deep copy of p.
func (p Project) Clone() Project {
	out := p
	out.Stages = make([]Stage, len(p.Stages))
	for i, s := range p.Stages {
		out.Stages[i] = s.Clone()
	}
	return out
}

// Clone returns a deep copy of s.
func (s Stage) Clone() Stage {
	out := s
	out.Tasks = make([]StageTask, len(s.Tasks))
	copy(out.Tasks, s.Tasks)
	return out
}

// TaskCount returns the number of tasks across all stages.
func (p Project) TaskCount() int {
	n := 0
	for _, s := range p.Stages {
		n += len(s.Tasks)
	}
	return n
}

// Stage returns the stage with the given id.
func (p *Project) Stage(id string) (*Stage, bool) {
	for i := range p.Stages {
		if p.Stages[i].ID == id {
			return &p.Stages[i], true
		}
	}
	return nil, false
}

// Task returns the task with the given id and the stage holding it.
func (p *Project) Task(id string) (*Stage, *StageTask, bool) {
	for i := range p.Stages {
		s := &p.Stages[i]
		for j := range s.Tasks {
			if s.Tasks[j].ID == id {
				return s, &s.Tasks[j], true
			}
		}
	}
	return nil, nil, false
}

// ProjectDraft is the editable part of a project: everything except
// identity, stages and audit timestamps.
type ProjectDraft struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	StartDate   Date   `json:"startDate" yaml:"startDate"`
	EndDate     Date   `json:"endDate" yaml:"endDate"`
}

// TaskDraft is the editable part of a task.
type TaskDraft struct {
	Name        string `json:"name" yaml:"name"`
	StartDate   Date   `json:"startDate" yaml:"startDate"`
	EndDate     Date   `json:"endDate" yaml:"endDate"`
	Progress    int    `json:"progress" yaml:"progress"`
	Status      Status `json:"status,omitempty" yaml:"status,omitempty"`
	Responsible string `json:"responsible,omitempty" yaml:"responsible,omitempty"`
	Notes       string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Normalize fills a missing status from the progress value.
func (d TaskDraft) Normalize() TaskDraft {
	if d.Status == "" {
		d.Status = StatusForProgress(d.Progress)
	}
	d.Name = strings.TrimSpace(d.Name)
	return d
}

// Task builds a StageTask with the given id from the draft.
func (d TaskDraft) Task(id string) StageTask {
	return StageTask{
		ID:          id,
		Name:        d.Name,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		Progress:    d.Progress,
		Status:      d.Status,
		Responsible: d.Responsible,
		Notes:       d.Notes,
	}
}

// NewProject creates a project from a draft, seeded with one empty stage per
// vocabulary entry. stageID is called once per stage to mint its id.
func NewProject(draft ProjectDraft, id string, now time.Time, stageID func(StageName) string) Project {
	p := Project{
		ID:          id,
		Name:        strings.TrimSpace(draft.Name),
		Description: draft.Description,
		StartDate:   draft.StartDate,
		EndDate:     draft.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, name := range StageNames() {
		p.Stages = append(p.Stages, Stage{
			ID:    stageID(name),
			Name:  name,
			Order: name.Order(),
			Tasks: []StageTask{},
		})
	}
	return p
}

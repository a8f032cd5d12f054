package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gantt2svg/pkg/plan"
)

// CSV column names, matched case-insensitively. project, stage, task,
// start and end are required.
const (
	colProject      = "project"
	colStage        = "stage"
	colTask         = "task"
	colStart        = "start"
	colEnd          = "end"
	colProgress     = "progress"
	colStatus       = "status"
	colResponsible  = "responsible"
	colNotes        = "notes"
	colDescription  = "description"
	colProjectStart = "project_start"
	colProjectEnd   = "project_end"
)

var requiredColumns = []string{colProject, colStage, colTask, colStart, colEnd}

// LoadCSV reads a task export: one line per task, grouped into projects by
// the project column. Projects appear in first-seen order, tasks in file order.
func LoadCSV(path string) ([]plan.Project, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer file.Close()
	return ReadCSV(file)
}

// ReadCSV is LoadCSV over an arbitrary reader.
func ReadCSV(r io.Reader) ([]plan.Project, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	// Case-insensitive column mapping
	columnMap := make(map[string]int)
	for i, col := range header {
		columnMap[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := columnMap[col]; !ok {
			return nil, fmt.Errorf("column '%s' not found in CSV. Available columns: %v", col, header)
		}
	}

	b := newCSVBuilder()
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		if err := b.add(csvRow{record: record, columns: columnMap}); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}

	projects := b.projects()
	if err := plan.ValidateAll(projects); err != nil {
		return nil, err
	}
	return projects, nil
}

type csvRow struct {
	record  []string
	columns map[string]int
}

func (r csvRow) get(col string) string {
	i, ok := r.columns[col]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

type csvBuilder struct {
	order    []string
	byName   map[string]*plan.Project
	explicit map[string]bool // project range given in the file
}

func newCSVBuilder() *csvBuilder {
	return &csvBuilder{
		byName:   make(map[string]*plan.Project),
		explicit: make(map[string]bool),
	}
}

func (b *csvBuilder) add(r csvRow) error {
	name := r.get(colProject)
	if name == "" {
		return fmt.Errorf("project name is empty")
	}

	p, ok := b.byName[name]
	if !ok {
		id := fmt.Sprintf("proj-%d", len(b.order)+1)
		np := plan.NewProject(plan.ProjectDraft{Name: name}, id, nowUTC(), func(s plan.StageName) string {
			return fmt.Sprintf("stage-%s-%d", strings.TrimPrefix(id, "proj-"), s.Order())
		})
		p = &np
		b.byName[name] = p
		b.order = append(b.order, name)
	}
	if d := r.get(colDescription); d != "" {
		p.Description = d
	}
	if err := b.projectRange(p, r); err != nil {
		return err
	}

	stageName, err := plan.ParseStageName(r.get(colStage))
	if err != nil {
		return err
	}
	start, err := plan.ParseDate(r.get(colStart))
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	end, err := plan.ParseDate(r.get(colEnd))
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}

	progress := 0
	if v := r.get(colProgress); v != "" {
		progress, err = strconv.Atoi(strings.TrimSuffix(v, "%"))
		if err != nil {
			return fmt.Errorf("progress: %w", err)
		}
	}

	draft := plan.TaskDraft{
		Name:        r.get(colTask),
		StartDate:   start,
		EndDate:     end,
		Progress:    progress,
		Status:      plan.Status(r.get(colStatus)),
		Responsible: r.get(colResponsible),
		Notes:       r.get(colNotes),
	}.Normalize()
	if err := draft.Validate(); err != nil {
		return err
	}

	stage := &p.Stages[stageName.Order()-1]
	id := fmt.Sprintf("task-%s-%d-%d", strings.TrimPrefix(p.ID, "proj-"), stage.Order, len(stage.Tasks)+1)
	stage.Tasks = append(stage.Tasks, draft.Task(id))

	if !b.explicit[name] {
		if p.StartDate.IsZero() || start.Before(p.StartDate) {
			p.StartDate = start
		}
		if p.EndDate.IsZero() || end.After(p.EndDate) {
			p.EndDate = end
		}
	}
	return nil
}

// projectRange applies project_start/project_end when present. Once a
// project has an explicit range its task dates no longer widen it.
func (b *csvBuilder) projectRange(p *plan.Project, r csvRow) error {
	ps, pe := r.get(colProjectStart), r.get(colProjectEnd)
	if ps == "" && pe == "" {
		return nil
	}
	start, err := plan.ParseDate(ps)
	if err != nil {
		return fmt.Errorf("project_start: %w", err)
	}
	end, err := plan.ParseDate(pe)
	if err != nil {
		return fmt.Errorf("project_end: %w", err)
	}
	p.StartDate, p.EndDate = start, end
	b.explicit[p.Name] = true
	return nil
}

func (b *csvBuilder) projects() []plan.Project {
	out := make([]plan.Project, len(b.order))
	for i, name := range b.order {
		out[i] = *b.byName[name]
	}
	return out
}

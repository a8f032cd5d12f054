package plan

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError collects per-field problems found at the editing boundary.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) errOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func checkRange(v *ValidationError, prefix string, start, end Date) {
	if start.IsZero() {
		v.add(prefix+"startDate", "start date is required")
	}
	if end.IsZero() {
		v.add(prefix+"endDate", "end date is required")
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		v.add(prefix+"endDate", "end date must not be before start date")
	}
}

// Validate checks a project draft.
func (d ProjectDraft) Validate() error {
	var v ValidationError
	if strings.TrimSpace(d.Name) == "" {
		v.add("name", "name is required")
	}
	checkRange(&v, "", d.StartDate, d.EndDate)
	return v.errOrNil()
}

// Validate checks a task draft. A missing status is accepted and derived
// from progress by Normalize; a present one must agree with progress.
func (d TaskDraft) Validate() error {
	var v ValidationError
	validateTask(&v, "", d.Task(""))
	if d.Status == "" {
		delete(v.Fields, "status")
	}
	return v.errOrNil()
}

func validateTask(v *ValidationError, prefix string, t StageTask) {
	if strings.TrimSpace(t.Name) == "" {
		v.add(prefix+"name", "name is required")
	}
	checkRange(v, prefix, t.StartDate, t.EndDate)
	if t.Progress < 0 || t.Progress > 100 {
		v.add(prefix+"progress", "progress must be between 0 and 100")
		return
	}
	if !t.Status.Valid() {
		v.add(prefix+"status", fmt.Sprintf("unknown status %q", t.Status))
	} else if t.Status != StatusForProgress(t.Progress) {
		v.add(prefix+"status", fmt.Sprintf("status %q does not match progress %d", t.Status, t.Progress))
	}
}

// Validate checks a whole project, including its stages and tasks.
func (p Project) Validate() error {
	var v ValidationError
	p.claimIDs(&v, "", make(idSet))
	if strings.TrimSpace(p.Name) == "" {
		v.add("name", "name is required")
	}
	checkRange(&v, "", p.StartDate, p.EndDate)

	orders := make(map[int]string)
	for i, s := range p.Stages {
		prefix := fmt.Sprintf("stages[%d].", i)
		if s.Name.Order() == 0 {
			v.add(prefix+"name", fmt.Sprintf("unknown stage name %q", s.Name))
		}
		if other, dup := orders[s.Order]; dup {
			v.add(prefix+"order", fmt.Sprintf("order %d already used by stage %s", s.Order, other))
		} else {
			orders[s.Order] = s.ID
		}
		for j, t := range s.Tasks {
			validateTask(&v, fmt.Sprintf("%stasks[%d].", prefix, j), t)
		}
	}
	return v.errOrNil()
}

// ValidateAll validates every project and checks that ids are unique
// across the whole collection.
func ValidateAll(projects []Project) error {
	for _, p := range projects {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("project %q: %w", p.ID, err)
		}
	}
	var v ValidationError
	ids := make(idSet)
	for i, p := range projects {
		p.claimIDs(&v, fmt.Sprintf("projects[%d].", i), ids)
	}
	return v.errOrNil()
}

// idSet maps a claimed id to the field that claimed it. Projects, stages
// and tasks share one namespace since rows are addressed by id alone.
type idSet map[string]string

func (s idSet) claim(v *ValidationError, field, id string) {
	if strings.TrimSpace(id) == "" {
		v.add(field, "id is required")
		return
	}
	if other, dup := s[id]; dup {
		v.add(field, fmt.Sprintf("id %q already used by %s", id, other))
		return
	}
	s[id] = field
}

func (p Project) claimIDs(v *ValidationError, prefix string, ids idSet) {
	ids.claim(v, prefix+"id", p.ID)
	for i, st := range p.Stages {
		stagePrefix := fmt.Sprintf("%sstages[%d].", prefix, i)
		ids.claim(v, stagePrefix+"id", st.ID)
		for j, t := range st.Tasks {
			ids.claim(v, fmt.Sprintf("%stasks[%d].id", stagePrefix, j), t.ID)
		}
	}
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"gantt2svg/pkg/plan"
)

// SQLite keeps projects in a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at dbPath.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dbPath, err)
	}
	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// migrate creates the database schema. Dates are stored as YYYY-MM-DD text,
// timestamps as RFC 3339 text.
func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stages (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		sort_order INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		stage_id TEXT NOT NULL REFERENCES stages(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		progress INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		responsible TEXT DEFAULT '',
		notes TEXT DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_stages_project ON stages(project_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_stage ON tasks(stage_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save replaces the stored collection with projects in one transaction.
func (s *SQLite) Save(ctx context.Context, projects []plan.Project) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM projects`); err != nil {
		return err
	}

	for i, p := range projects {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (id, position, name, description, start_date, end_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, i, p.Name, p.Description, p.StartDate.String(), p.EndDate.String(),
			p.CreatedAt.UTC().Format(time.RFC3339Nano), p.UpdatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert project %s: %w", p.ID, err)
		}

		for j, st := range p.Stages {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO stages (id, project_id, position, name, sort_order)
				VALUES (?, ?, ?, ?, ?)`,
				st.ID, p.ID, j, string(st.Name), st.Order,
			)
			if err != nil {
				return fmt.Errorf("insert stage %s: %w", st.ID, err)
			}

			for k, t := range st.Tasks {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO tasks (id, stage_id, position, name, start_date, end_date, progress, status, responsible, notes)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
					t.ID, st.ID, k, t.Name, t.StartDate.String(), t.EndDate.String(),
					t.Progress, string(t.Status), t.Responsible, t.Notes,
				)
				if err != nil {
					return fmt.Errorf("insert task %s: %w", t.ID, err)
				}
			}
		}
	}

	return tx.Commit()
}

// Load reads the stored collection in saved order and validates it the
// same way a project file is validated.
func (s *SQLite) Load(ctx context.Context) ([]plan.Project, error) {
	projects, err := s.loadProjects(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(projects))
	for i, p := range projects {
		index[p.ID] = i
	}
	stageOwner := make(map[string][2]int) // stage id -> project index, stage index

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, name, sort_order FROM stages ORDER BY project_id, position`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var st plan.Stage
		var projectID, name string
		if err := rows.Scan(&st.ID, &projectID, &name, &st.Order); err != nil {
			rows.Close()
			return nil, err
		}
		if st.Name, err = plan.ParseStageName(name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("stage %s: %w", st.ID, err)
		}
		st.Tasks = []plan.StageTask{}
		pi, ok := index[projectID]
		if !ok {
			rows.Close()
			return nil, fmt.Errorf("stage %s: unknown project %s", st.ID, projectID)
		}
		projects[pi].Stages = append(projects[pi].Stages, st)
		stageOwner[st.ID] = [2]int{pi, len(projects[pi].Stages) - 1}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT id, stage_id, name, start_date, end_date, progress, status, responsible, notes
		FROM tasks ORDER BY stage_id, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t plan.StageTask
		var stageID, start, end, status string
		if err := rows.Scan(&t.ID, &stageID, &t.Name, &start, &end, &t.Progress, &status, &t.Responsible, &t.Notes); err != nil {
			return nil, err
		}
		if t.StartDate, err = plan.ParseDate(start); err != nil {
			return nil, fmt.Errorf("task %s: %w", t.ID, err)
		}
		if t.EndDate, err = plan.ParseDate(end); err != nil {
			return nil, fmt.Errorf("task %s: %w", t.ID, err)
		}
		t.Status = plan.Status(status)

		owner, ok := stageOwner[stageID]
		if !ok {
			return nil, fmt.Errorf("task %s: unknown stage %s", t.ID, stageID)
		}
		st := &projects[owner[0]].Stages[owner[1]]
		st.Tasks = append(st.Tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := plan.ValidateAll(projects); err != nil {
		return nil, fmt.Errorf("invalid stored projects: %w", err)
	}
	return projects, nil
}

func (s *SQLite) loadProjects(ctx context.Context) ([]plan.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, start_date, end_date, created_at, updated_at
		FROM projects ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []plan.Project
	for rows.Next() {
		var p plan.Project
		var start, end, created, updated string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &start, &end, &created, &updated); err != nil {
			return nil, err
		}
		if p.StartDate, err = plan.ParseDate(start); err != nil {
			return nil, fmt.Errorf("project %s: %w", p.ID, err)
		}
		if p.EndDate, err = plan.ParseDate(end); err != nil {
			return nil, fmt.Errorf("project %s: %w", p.ID, err)
		}
		if p.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("project %s: %w", p.ID, err)
		}
		if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			return nil, fmt.Errorf("project %s: %w", p.ID, err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

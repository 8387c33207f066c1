package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"cutline/internal/config"
	"cutline/internal/domain"
	"cutline/internal/history"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// ProjectSummary is the listing form of a project, without its EDL.
type ProjectSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Duration  float64 `json:"duration"`
	CreatedAt string  `json:"created_at" format:"date-time"`
	UpdatedAt string  `json:"updated_at" format:"date-time"`
}

func decodeProject(raw string) (domain.Project, error) {
	var p domain.Project
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return p, fmt.Errorf("decode project: %w", err)
	}
	return p, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// SaveProjectTx inserts or replaces the stored document for p.
func (r Repo) SaveProjectTx(ctx context.Context, tx *sql.Tx, p domain.Project) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO projects(id,name,duration,project_json,created_at,updated_at) VALUES (?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET name=excluded.name, duration=excluded.duration, project_json=excluded.project_json, updated_at=excluded.updated_at`,
		p.ID, p.Name, p.Duration, string(data), p.CreatedAt, now())
	return err
}

func (r Repo) GetProject(ctx context.Context, id string) (domain.Project, error) {
	var raw string
	err := r.DB.QueryRowContext(ctx, `SELECT project_json FROM projects WHERE id=?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return domain.Project{}, ErrNotFound
	}
	if err != nil {
		return domain.Project{}, err
	}
	return decodeProject(raw)
}

func (r Repo) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,duration,created_at,updated_at FROM projects ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []ProjectSummary
	for rows.Next() {
		var p ProjectSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.Duration, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// SingleProject returns the only project in the workspace.
func (r Repo) SingleProject(ctx context.Context) (domain.Project, error) {
	list, err := r.ListProjects(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	if len(list) == 0 {
		return domain.Project{}, ErrNotFound
	}
	if len(list) > 1 {
		return domain.Project{}, fmt.Errorf("multiple projects exist; specify --project")
	}
	return r.GetProject(ctx, list[0].ID)
}

func (r Repo) DeleteProjectTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertProjectConfig stores cfg as YAML for the project.
func (r Repo) UpsertProjectConfig(ctx context.Context, tx *sql.Tx, projectID string, cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO project_configs(project_id,config_yaml,updated_at) VALUES (?,?,?)
ON CONFLICT(project_id) DO UPDATE SET config_yaml=excluded.config_yaml, updated_at=excluded.updated_at`,
		projectID, string(data), now())
	return err
}

func (r Repo) GetProjectConfig(ctx context.Context, projectID string) (*config.Config, error) {
	var raw string
	err := r.DB.QueryRowContext(ctx, `SELECT config_yaml FROM project_configs WHERE project_id=?`, projectID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return config.FromYAML([]byte(raw))
}

// SaveHistoryTx stores both undo stacks of a project.
func (r Repo) SaveHistoryTx(ctx context.Context, tx *sql.Tx, projectID string, st history.State) error {
	if st.Past == nil {
		st.Past = []domain.Project{}
	}
	if st.Future == nil {
		st.Future = []domain.Project{}
	}
	past, err := json.Marshal(st.Past)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	future, err := json.Marshal(st.Future)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO project_history(project_id,past_json,future_json,updated_at) VALUES (?,?,?,?)
ON CONFLICT(project_id) DO UPDATE SET past_json=excluded.past_json, future_json=excluded.future_json, updated_at=excluded.updated_at`,
		projectID, string(past), string(future), now())
	return err
}

// LoadHistory returns the stored stacks, or an empty state when none exist.
func (r Repo) LoadHistory(ctx context.Context, projectID string) (history.State, error) {
	var past, future string
	err := r.DB.QueryRowContext(ctx, `SELECT past_json,future_json FROM project_history WHERE project_id=?`, projectID).Scan(&past, &future)
	if err == sql.ErrNoRows {
		return history.State{}, nil
	}
	if err != nil {
		return history.State{}, err
	}
	var st history.State
	if err := json.Unmarshal([]byte(past), &st.Past); err != nil {
		return history.State{}, fmt.Errorf("decode history: %w", err)
	}
	if err := json.Unmarshal([]byte(future), &st.Future); err != nil {
		return history.State{}, fmt.Errorf("decode history: %w", err)
	}
	return st, nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

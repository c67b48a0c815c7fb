package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clipforge/clipforge-server/internal/timeline"
)

// Repository is the project store: load/save of projects, their serialized
// timelines, export job bookkeeping, and server configuration values.
// Lookups for missing rows return (nil, nil).
type Repository interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	UpdateProject(ctx context.Context, p *Project) error
	DeleteProject(ctx context.Context, id string) error

	// SaveTimeline persists the full timeline snapshot, last-write-wins;
	// there is no partial-field merge at this boundary.
	SaveTimeline(ctx context.Context, projectID string, items []timeline.Item) error
	LoadTimeline(ctx context.Context, projectID string) ([]timeline.Item, error)

	CreateExport(ctx context.Context, e *ExportJob) error
	GetExport(ctx context.Context, id string) (*ExportJob, error)
	ListExports(ctx context.Context, projectID string, limit int) ([]*ExportJob, error)
	UpdateExport(ctx context.Context, id, status, outputPath, errorMsg string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateProject(ctx context.Context, p *Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, title, description, video_url, thumbnail, base_duration, output_url, status, timeline, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, '[]', ?, ?)
	`, p.ID, p.Title, nullString(p.Description), nullString(p.VideoURL), nullString(p.Thumbnail),
		p.BaseDuration, nullString(p.OutputURL), p.Status,
		p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, video_url, thumbnail, base_duration, output_url, status, created_at, updated_at
		FROM projects WHERE id = ?
	`, id)
	return r.scanProject(row)
}

func (r *SQLiteRepository) scanProject(row *sql.Row) (*Project, error) {
	var p Project
	var description, videoURL, thumbnail, outputURL sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.Title, &description, &videoURL, &thumbnail, &p.BaseDuration, &outputURL, &p.Status, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.Description = description.String
	p.VideoURL = videoURL.String
	p.Thumbnail = thumbnail.String
	p.OutputURL = outputURL.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, video_url, thumbnail, base_duration, output_url, status, created_at, updated_at
		FROM projects ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var p Project
		var description, videoURL, thumbnail, outputURL sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&p.ID, &p.Title, &description, &videoURL, &thumbnail, &p.BaseDuration, &outputURL, &p.Status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.Description = description.String
		p.VideoURL = videoURL.String
		p.Thumbnail = thumbnail.String
		p.OutputURL = outputURL.String
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func (r *SQLiteRepository) UpdateProject(ctx context.Context, p *Project) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE projects SET title = ?, description = ?, video_url = ?, thumbnail = ?, base_duration = ?,
			output_url = ?, status = ?, updated_at = datetime('now')
		WHERE id = ?
	`, p.Title, nullString(p.Description), nullString(p.VideoURL), nullString(p.Thumbnail),
		p.BaseDuration, nullString(p.OutputURL), p.Status, p.ID)
	return err
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) SaveTimeline(ctx context.Context, projectID string, items []timeline.Item) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to serialize timeline: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE projects SET timeline = ?, updated_at = datetime('now') WHERE id = ?
	`, string(data), projectID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("project %s not found", projectID)
	}
	return nil
}

func (r *SQLiteRepository) LoadTimeline(ctx context.Context, projectID string) ([]timeline.Item, error) {
	var data string
	err := r.db.QueryRowContext(ctx, "SELECT timeline FROM projects WHERE id = ?", projectID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %s not found", projectID)
	}
	if err != nil {
		return nil, err
	}

	var items []timeline.Item
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("failed to parse stored timeline: %w", err)
	}
	return items, nil
}

func (r *SQLiteRepository) CreateExport(ctx context.Context, e *ExportJob) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO exports (id, project_id, status, quality, format, resolution, output_path, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.ProjectID, e.Status, e.Quality, e.Format, e.Resolution,
		nullString(e.OutputPath), nullString(e.Error),
		e.CreatedAt.Format(time.RFC3339), e.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetExport(ctx context.Context, id string) (*ExportJob, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, status, quality, format, resolution, output_path, error, created_at, updated_at
		FROM exports WHERE id = ?
	`, id)

	var e ExportJob
	var outputPath, errMsg sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&e.ID, &e.ProjectID, &e.Status, &e.Quality, &e.Format, &e.Resolution, &outputPath, &errMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.OutputPath = outputPath.String
	e.Error = errMsg.String
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &e, nil
}

func (r *SQLiteRepository) ListExports(ctx context.Context, projectID string, limit int) ([]*ExportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, project_id, status, quality, format, resolution, output_path, error, created_at, updated_at
		FROM exports WHERE project_id = ? ORDER BY created_at DESC LIMIT ?
	`, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exports []*ExportJob
	for rows.Next() {
		var e ExportJob
		var outputPath, errMsg sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Status, &e.Quality, &e.Format, &e.Resolution, &outputPath, &errMsg, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		e.OutputPath = outputPath.String
		e.Error = errMsg.String
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		exports = append(exports, &e)
	}
	return exports, rows.Err()
}

func (r *SQLiteRepository) UpdateExport(ctx context.Context, id, status, outputPath, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE exports SET status = ?, output_path = ?, error = ?, updated_at = datetime('now') WHERE id = ?
	`, status, nullString(outputPath), nullString(errorMsg), id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

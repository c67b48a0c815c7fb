package project

import "time"

const (
	StatusDraft      = "draft"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// Project is the persisted editing project: base clip metadata plus the
// serialized timeline. The in-memory timeline lives in an editor session;
// this record is its durable form.
type Project struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	VideoURL     string    `json:"video_url,omitempty"`
	Thumbnail    string    `json:"thumbnail,omitempty"`
	BaseDuration float64   `json:"base_duration"`
	OutputURL    string    `json:"output_url,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	ExportStatusPending    = "pending"
	ExportStatusProcessing = "processing"
	ExportStatusCompleted  = "completed"
	ExportStatusFailed     = "failed"
)

// ExportJob tracks one asynchronous export of a project snapshot.
type ExportJob struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Status     string    `json:"status"`
	Quality    string    `json:"quality"`
	Format     string    `json:"format"`
	Resolution string    `json:"resolution"`
	OutputPath string    `json:"output_path,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

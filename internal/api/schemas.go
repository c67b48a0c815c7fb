package api

import (
	"time"

	"github.com/clipforge/clipforge-server/internal/project"
	"github.com/clipforge/clipforge-server/internal/timeline"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type CreateProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type UpdateProjectRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

type ProjectResponse struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description,omitempty"`
	VideoURL     string  `json:"video_url,omitempty"`
	Thumbnail    string  `json:"thumbnail,omitempty"`
	BaseDuration float64 `json:"base_duration"`
	OutputURL    string  `json:"output_url,omitempty"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

type ProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type TimelineResponse struct {
	Items   []timeline.Item `json:"items"`
	CanUndo bool            `json:"can_undo"`
}

type AddItemRequest struct {
	Kind string  `json:"kind"`
	At   float64 `json:"at"`

	Text  *timeline.TextProps  `json:"text,omitempty"`
	Image *timeline.ImageProps `json:"image,omitempty"`
	Audio *timeline.AudioProps `json:"audio,omitempty"`
}

type MoveItemRequest struct {
	Delta float64 `json:"delta"`
	Track *int    `json:"track,omitempty"`
}

type TrimItemRequest struct {
	Edge string  `json:"edge"` // "start" or "end"
	To   float64 `json:"to"`
}

type CutItemRequest struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

type ItemResponse struct {
	Item timeline.Item `json:"item"`
}

type ActiveItemsResponse struct {
	Time  float64         `json:"time"`
	Items []timeline.Item `json:"items"`
}

type UploadResponse struct {
	Ref      string  `json:"ref"`
	Duration float64 `json:"duration,omitempty"`
}

type ExportRequest struct {
	Quality    string `json:"quality,omitempty"`
	Format     string `json:"format,omitempty"`
	Resolution string `json:"resolution,omitempty"`
}

type ExportResponse struct {
	ID         string `json:"id"`
	ProjectID  string `json:"project_id"`
	Status     string `json:"status"`
	Quality    string `json:"quality"`
	Format     string `json:"format"`
	Resolution string `json:"resolution"`
	OutputPath string `json:"output_path,omitempty"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type ExportsResponse struct {
	Exports []ExportResponse `json:"exports"`
}

func ProjectToResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		VideoURL:     p.VideoURL,
		Thumbnail:    p.Thumbnail,
		BaseDuration: p.BaseDuration,
		OutputURL:    p.OutputURL,
		Status:       p.Status,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
	}
}

func ExportToResponse(e *project.ExportJob) ExportResponse {
	return ExportResponse{
		ID:         e.ID,
		ProjectID:  e.ProjectID,
		Status:     e.Status,
		Quality:    e.Quality,
		Format:     e.Format,
		Resolution: e.Resolution,
		OutputPath: e.OutputPath,
		Error:      e.Error,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  e.UpdatedAt.Format(time.RFC3339),
	}
}

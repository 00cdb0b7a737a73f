package project

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/noah-isme/backend-quoting/internal/db"
)

// Querier captures the database methods required by the project service.
type Querier interface {
	InsertProject(ctx context.Context, arg db.InsertProjectParams) (db.Project, error)
	GetProject(ctx context.Context, id int64) (db.Project, error)
	ListProjects(ctx context.Context, limit, offset int32) ([]db.Project, error)
}

// Service manages client projects.
type Service struct {
	Q Querier
}

// DTO is the API representation of a project.
type DTO struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	ClientName  *string         `json:"client_name"`
	ServiceType string          `json:"service_type"`
	Status      string          `json:"status"`
	OwnerID     *int64          `json:"owner_id"`
	Intake      json.RawMessage `json:"intake"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateRequest is the POST /projects body.
type CreateRequest struct {
	Name        string          `json:"name" validate:"required"`
	ClientName  *string         `json:"client_name"`
	ServiceType string          `json:"service_type" validate:"required"`
	Status      string          `json:"status"`
	OwnerID     *int64          `json:"owner_id"`
	Intake      json.RawMessage `json:"intake"`
}

// FromRow converts a stored project row into its API representation.
func FromRow(row db.Project) DTO {
	return DTO{
		ID:          row.ID,
		Name:        row.Name,
		ClientName:  row.ClientName,
		ServiceType: row.ServiceType,
		Status:      row.Status,
		OwnerID:     row.OwnerID,
		Intake:      row.Intake,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

// Create stores a new project.
func (s *Service) Create(ctx context.Context, req CreateRequest) (DTO, error) {
	if s == nil || s.Q == nil {
		return DTO{}, errors.New("project service not configured")
	}
	status := req.Status
	if status == "" {
		status = "active"
	}
	intake := req.Intake
	if len(intake) == 0 {
		intake = json.RawMessage(`{}`)
	}
	row, err := s.Q.InsertProject(ctx, db.InsertProjectParams{
		Name:        req.Name,
		ClientName:  req.ClientName,
		ServiceType: req.ServiceType,
		Status:      status,
		OwnerID:     req.OwnerID,
		Intake:      intake,
	})
	if err != nil {
		return DTO{}, err
	}
	return FromRow(row), nil
}

// Get returns one project by id.
func (s *Service) Get(ctx context.Context, id int64) (DTO, error) {
	if s == nil || s.Q == nil {
		return DTO{}, errors.New("project service not configured")
	}
	row, err := s.Q.GetProject(ctx, id)
	if err != nil {
		return DTO{}, err
	}
	return FromRow(row), nil
}

// List returns projects ordered by recency.
func (s *Service) List(ctx context.Context, limit, offset int32) ([]DTO, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("project service not configured")
	}
	rows, err := s.Q.ListProjects(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]DTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromRow(row))
	}
	return out, nil
}

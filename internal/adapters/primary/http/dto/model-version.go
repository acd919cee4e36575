package dto

import (
	"time"

	"betting-model-service/internal/core/domain"
)

type ModelVersionResponse struct {
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	RunID       string    `json:"run_id"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	Source      string    `json:"source,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Aliases     []string  `json:"aliases"`
}

func ToModelVersionResponse(v *domain.ModelVersionInfo) ModelVersionResponse {
	aliases := v.Aliases
	if aliases == nil {
		aliases = []string{}
	}
	return ModelVersionResponse{
		Name:        v.Name,
		Version:     v.Version,
		RunID:       v.RunID,
		Status:      string(v.Status),
		Description: v.Description,
		Source:      v.Source,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
		Aliases:     aliases,
	}
}

type ListVersionsResponse struct {
	Items []ModelVersionResponse `json:"items"`
	Total int                    `json:"total"`
}

type LogModelRequest struct {
	Flavor    string             `json:"flavor"`
	RunName   string             `json:"run_name"`
	ModelPath string             `json:"model_path"`
	Params    map[string]string  `json:"params"`
	Metrics   map[string]float64 `json:"metrics"`
	Tags      map[string]string  `json:"tags"`
}

type LogModelResponse struct {
	RunID string `json:"run_id"`
}

type RegisterVersionRequest struct {
	RunID       string            `json:"run_id" binding:"required"`
	Description string            `json:"description"`
	Tags        map[string]string `json:"tags"`
	Alias       string            `json:"alias"`
}

type UpdateVersionRequest struct {
	Description *string `json:"description"`
}

type SetAliasRequest struct {
	Version string `json:"version" binding:"required"`
}

type PromoteRequest struct {
	Target string `json:"target" binding:"required"`
}

type LoadModelRequest struct {
	Version string `json:"version"`
	Alias   string `json:"alias"`
	RunID   string `json:"run_id"`
}

type AuditEntryResponse struct {
	ID         string            `json:"id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Action     string            `json:"action"`
	ModelName  string            `json:"model_name"`
	Version    string            `json:"version,omitempty"`
	Alias      string            `json:"alias,omitempty"`
	Detail     map[string]string `json:"detail,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
}

func ToAuditEntryResponse(e *domain.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:         e.ID.String(),
		OccurredAt: e.OccurredAt,
		Action:     e.Action,
		ModelName:  e.ModelName,
		Version:    e.Version,
		Alias:      e.Alias,
		Detail:     e.Detail,
		RequestID:  e.RequestID,
	}
}

type ListAuditResponse struct {
	Items []AuditEntryResponse `json:"items"`
	Total int                  `json:"total"`
}

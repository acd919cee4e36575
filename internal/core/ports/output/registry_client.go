package ports

import (
	"context"

	"betting-model-service/internal/core/domain"
)

// RegistryClient is the output port for the model registry and tracking
// backend (MLflow).
type RegistryClient interface {
	// Experiments / runs
	EnsureExperiment(ctx context.Context, name, artifactLocation string) (string, error)
	CreateRun(ctx context.Context, experimentID, runName string) (*domain.Run, error)
	GetRun(ctx context.Context, runID string) (*domain.Run, error)
	LogBatch(ctx context.Context, runID string, params map[string]string, metrics map[string]float64, tags map[string]string) error
	FinishRun(ctx context.Context, runID string) error
	FailRun(ctx context.Context, runID string) error

	// Registered models and versions
	EnsureRegisteredModel(ctx context.Context, name string) error
	CreateModelVersion(ctx context.Context, name, source, runID string) (*domain.ModelVersionInfo, error)
	GetModelVersion(ctx context.Context, name, version string) (*domain.ModelVersionInfo, error)
	ListModelVersions(ctx context.Context, name string) ([]*domain.ModelVersionInfo, error)
	UpdateModelVersion(ctx context.Context, name, version, description string) error
	DeleteModelVersion(ctx context.Context, name, version string) error
	SetModelVersionTag(ctx context.Context, name, version, key, value string) error
	GetDownloadURI(ctx context.Context, name, version string) (string, error)

	// Aliases
	SetAlias(ctx context.Context, name, alias, version string) error
	DeleteAlias(ctx context.Context, name, alias string) error
	GetVersionByAlias(ctx context.Context, name, alias string) (*domain.ModelVersionInfo, error)
}

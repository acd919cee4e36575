package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"betting-model-service/internal/core/domain"
	ports "betting-model-service/internal/core/ports/output"
)

// MockRegistryClient is a mock of RegistryClient.
type MockRegistryClient struct {
	mock.Mock
}

func (m *MockRegistryClient) EnsureExperiment(ctx context.Context, name, artifactLocation string) (string, error) {
	args := m.Called(ctx, name, artifactLocation)
	return args.String(0), args.Error(1)
}

func (m *MockRegistryClient) CreateRun(ctx context.Context, experimentID, runName string) (*domain.Run, error) {
	args := m.Called(ctx, experimentID, runName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Run), args.Error(1)
}

func (m *MockRegistryClient) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Run), args.Error(1)
}

func (m *MockRegistryClient) LogBatch(ctx context.Context, runID string, params map[string]string, metrics map[string]float64, tags map[string]string) error {
	args := m.Called(ctx, runID, params, metrics, tags)
	return args.Error(0)
}

func (m *MockRegistryClient) FinishRun(ctx context.Context, runID string) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

func (m *MockRegistryClient) FailRun(ctx context.Context, runID string) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

func (m *MockRegistryClient) EnsureRegisteredModel(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockRegistryClient) CreateModelVersion(ctx context.Context, name, source, runID string) (*domain.ModelVersionInfo, error) {
	args := m.Called(ctx, name, source, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelVersionInfo), args.Error(1)
}

func (m *MockRegistryClient) GetModelVersion(ctx context.Context, name, version string) (*domain.ModelVersionInfo, error) {
	args := m.Called(ctx, name, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelVersionInfo), args.Error(1)
}

func (m *MockRegistryClient) ListModelVersions(ctx context.Context, name string) ([]*domain.ModelVersionInfo, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ModelVersionInfo), args.Error(1)
}

func (m *MockRegistryClient) UpdateModelVersion(ctx context.Context, name, version, description string) error {
	args := m.Called(ctx, name, version, description)
	return args.Error(0)
}

func (m *MockRegistryClient) DeleteModelVersion(ctx context.Context, name, version string) error {
	args := m.Called(ctx, name, version)
	return args.Error(0)
}

func (m *MockRegistryClient) SetModelVersionTag(ctx context.Context, name, version, key, value string) error {
	args := m.Called(ctx, name, version, key, value)
	return args.Error(0)
}

func (m *MockRegistryClient) GetDownloadURI(ctx context.Context, name, version string) (string, error) {
	args := m.Called(ctx, name, version)
	return args.String(0), args.Error(1)
}

func (m *MockRegistryClient) SetAlias(ctx context.Context, name, alias, version string) error {
	args := m.Called(ctx, name, alias, version)
	return args.Error(0)
}

func (m *MockRegistryClient) DeleteAlias(ctx context.Context, name, alias string) error {
	args := m.Called(ctx, name, alias)
	return args.Error(0)
}

func (m *MockRegistryClient) GetVersionByAlias(ctx context.Context, name, alias string) (*domain.ModelVersionInfo, error) {
	args := m.Called(ctx, name, alias)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ModelVersionInfo), args.Error(1)
}

// MockArtifactStore is a mock of ArtifactStore.
type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Upload(ctx context.Context, localPath, uri string) error {
	args := m.Called(ctx, localPath, uri)
	return args.Error(0)
}

func (m *MockArtifactStore) Download(ctx context.Context, uri, destDir string) (string, error) {
	args := m.Called(ctx, uri, destDir)
	return args.String(0), args.Error(1)
}

// MockAuditRepo is a mock of AuditRepository.
type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepo) List(ctx context.Context, filter ports.AuditFilter) ([]*domain.AuditEntry, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.AuditEntry), args.Int(1), args.Error(2)
}

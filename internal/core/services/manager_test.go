package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"betting-model-service/internal/core/domain"
	"betting-model-service/internal/testutil"
)

type managerFixture struct {
	registry  *testutil.MockRegistryClient
	artifacts *testutil.MockArtifactStore
	audit     *testutil.MockAuditRepo
	svc       *ModelManagerService
}

func newManagerFixture(t *testing.T, experimentName string) *managerFixture {
	t.Helper()

	f := &managerFixture{
		registry:  new(testutil.MockRegistryClient),
		artifacts: new(testutil.MockArtifactStore),
		audit:     new(testutil.MockAuditRepo),
	}
	f.svc = NewModelManagerService(f.registry, f.artifacts, f.audit, ManagerConfig{
		ExperimentName:   experimentName,
		LoadDir:          t.TempDir(),
		RegistrationWait: time.Millisecond,
		PollAttempts:     3,
	})
	f.audit.On("Record", mock.Anything, mock.AnythingOfType("*domain.AuditEntry")).Return(nil).Maybe()
	return f
}

func (f *managerFixture) withExperiment(t *testing.T) {
	t.Helper()
	f.registry.On("EnsureExperiment", mock.Anything, "betting", "").Return("exp-1", nil).Once()
	require.NoError(t, f.svc.EnsureExperiment(context.Background()))
}

func readyVersion(version string) *domain.ModelVersionInfo {
	return &domain.ModelVersionInfo{
		Name:    "goal-predictor",
		Version: version,
		RunID:   "run-1",
		Status:  domain.VersionStatusReady,
		Aliases: []string{},
	}
}

func TestLogModelRequiresExperiment(t *testing.T) {
	f := newManagerFixture(t, "")

	require.NoError(t, f.svc.EnsureExperiment(context.Background()))

	_, err := f.svc.LogModel(context.Background(), "goal-predictor", domain.LogModelSpec{})
	assert.ErrorIs(t, err, domain.ErrExperimentRequired)
	f.registry.AssertNotCalled(t, "CreateRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogModelRejectsUnsupportedFlavor(t *testing.T) {
	f := newManagerFixture(t, "betting")
	f.withExperiment(t)

	_, err := f.svc.LogModel(context.Background(), "goal-predictor", domain.LogModelSpec{Flavor: "cobol"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFlavor)
}

func TestLogModelUploadsArtifactAndFinishesRun(t *testing.T) {
	f := newManagerFixture(t, "betting")
	f.withExperiment(t)

	run := &domain.Run{ID: "run-1", ArtifactURI: "s3://models/exp-1/run-1/artifacts"}
	f.registry.On("CreateRun", mock.Anything, "exp-1", "training").Return(run, nil).Once()
	f.registry.On("LogBatch", mock.Anything, "run-1",
		map[string]string{"max_depth": "6"},
		map[string]float64{"accuracy": 0.87},
		map[string]string{"model_name": "goal-predictor", "flavor": "sklearn", "league": "premier"},
	).Return(nil).Once()
	f.artifacts.On("Upload", mock.Anything, "/tmp/model.pkl", "s3://models/exp-1/run-1/artifacts/model").Return(nil).Once()
	f.registry.On("FinishRun", mock.Anything, "run-1").Return(nil).Once()

	runID, err := f.svc.LogModel(context.Background(), "goal-predictor", domain.LogModelSpec{
		Flavor:    "sklearn",
		RunName:   "training",
		ModelPath: "/tmp/model.pkl",
		Params:    map[string]string{"max_depth": "6"},
		Metrics:   map[string]float64{"accuracy": 0.87},
		Tags:      map[string]string{"league": "premier"},
	})
	require.NoError(t, err)
	assert.Equal(t, "run-1", runID)
	f.registry.AssertExpectations(t)
	f.artifacts.AssertExpectations(t)
}

func TestLogModelAbortsRunWhenUploadFails(t *testing.T) {
	f := newManagerFixture(t, "betting")
	f.withExperiment(t)

	run := &domain.Run{ID: "run-1", ArtifactURI: "s3://models/exp-1/run-1/artifacts"}
	f.registry.On("CreateRun", mock.Anything, "exp-1", "").Return(run, nil).Once()
	f.registry.On("LogBatch", mock.Anything, "run-1", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	f.artifacts.On("Upload", mock.Anything, "/tmp/model.pkl", mock.Anything).Return(errors.New("bucket gone")).Once()
	f.registry.On("FailRun", mock.Anything, "run-1").Return(nil).Once()

	_, err := f.svc.LogModel(context.Background(), "goal-predictor", domain.LogModelSpec{ModelPath: "/tmp/model.pkl"})
	require.Error(t, err)
	f.registry.AssertExpectations(t)
	f.registry.AssertNotCalled(t, "FinishRun", mock.Anything, mock.Anything)
}

func TestRegisterAppliesDescriptionTagsAndAlias(t *testing.T) {
	f := newManagerFixture(t, "betting")

	f.registry.On("EnsureRegisteredModel", mock.Anything, "goal-predictor").Return(nil).Once()
	f.registry.On("CreateModelVersion", mock.Anything, "goal-predictor", "runs:/run-1/model", "run-1").
		Return(readyVersion("3"), nil).Once()
	f.registry.On("UpdateModelVersion", mock.Anything, "goal-predictor", "3", "xgboost over-2.5 model").Return(nil).Once()
	f.registry.On("SetModelVersionTag", mock.Anything, "goal-predictor", "3", "league", "premier").Return(nil).Once()
	f.registry.On("SetAlias", mock.Anything, "goal-predictor", "staging", "3").Return(nil).Once()

	v, err := f.svc.Register(context.Background(), "goal-predictor", "run-1", RegisterOptions{
		Description: "xgboost over-2.5 model",
		Tags:        map[string]string{"league": "premier"},
		Alias:       "staging",
	})
	require.NoError(t, err)
	assert.Equal(t, "3", v.Version)
	assert.Equal(t, "xgboost over-2.5 model", v.Description)
	assert.Contains(t, v.Aliases, "staging")
	f.registry.AssertExpectations(t)
}

func TestRegisterWaitsUntilReady(t *testing.T) {
	f := newManagerFixture(t, "betting")

	pending := &domain.ModelVersionInfo{Name: "goal-predictor", Version: "4", Status: domain.VersionStatusPending}

	f.registry.On("EnsureRegisteredModel", mock.Anything, "goal-predictor").Return(nil).Once()
	f.registry.On("CreateModelVersion", mock.Anything, "goal-predictor", "runs:/run-1/model", "run-1").
		Return(pending, nil).Once()
	f.registry.On("GetModelVersion", mock.Anything, "goal-predictor", "4").Return(pending, nil).Once()
	f.registry.On("GetModelVersion", mock.Anything, "goal-predictor", "4").Return(readyVersion("4"), nil).Once()

	v, err := f.svc.Register(context.Background(), "goal-predictor", "run-1", RegisterOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.VersionStatusReady, v.Status)
	f.registry.AssertExpectations(t)
}

func TestRegisterFailsOnFailedRegistration(t *testing.T) {
	f := newManagerFixture(t, "betting")

	pending := &domain.ModelVersionInfo{Name: "goal-predictor", Version: "5", Status: domain.VersionStatusPending}
	failed := &domain.ModelVersionInfo{Name: "goal-predictor", Version: "5", Status: domain.VersionStatusFailed}

	f.registry.On("EnsureRegisteredModel", mock.Anything, "goal-predictor").Return(nil).Once()
	f.registry.On("CreateModelVersion", mock.Anything, "goal-predictor", "runs:/run-1/model", "run-1").
		Return(pending, nil).Once()
	f.registry.On("GetModelVersion", mock.Anything, "goal-predictor", "5").Return(failed, nil).Once()

	_, err := f.svc.Register(context.Background(), "goal-predictor", "run-1", RegisterOptions{})
	assert.ErrorIs(t, err, domain.ErrRegistrationFailed)
}

func TestRegisterGivesUpAfterPollBudget(t *testing.T) {
	f := newManagerFixture(t, "betting")

	pending := &domain.ModelVersionInfo{Name: "goal-predictor", Version: "6", Status: domain.VersionStatusPending}

	f.registry.On("EnsureRegisteredModel", mock.Anything, "goal-predictor").Return(nil).Once()
	f.registry.On("CreateModelVersion", mock.Anything, "goal-predictor", "runs:/run-1/model", "run-1").
		Return(pending, nil).Once()
	f.registry.On("GetModelVersion", mock.Anything, "goal-predictor", "6").Return(pending, nil)

	_, err := f.svc.Register(context.Background(), "goal-predictor", "run-1", RegisterOptions{})
	assert.ErrorIs(t, err, domain.ErrRegistrationNotReady)
}

func TestLoadRequiresExactlyOneReference(t *testing.T) {
	f := newManagerFixture(t, "betting")

	_, err := f.svc.Load(context.Background(), "goal-predictor", domain.ModelRef{})
	assert.ErrorIs(t, err, domain.ErrAmbiguousModelRef)

	_, err = f.svc.Load(context.Background(), "goal-predictor", domain.ModelRef{Version: "3", Alias: "production"})
	assert.ErrorIs(t, err, domain.ErrAmbiguousModelRef)
}

func TestLoadByVersion(t *testing.T) {
	f := newManagerFixture(t, "betting")

	f.registry.On("GetModelVersion", mock.Anything, "goal-predictor", "3").Return(readyVersion("3"), nil).Once()
	f.registry.On("GetDownloadURI", mock.Anything, "goal-predictor", "3").
		Return("s3://models/goal-predictor/3", nil).Once()
	f.artifacts.On("Download", mock.Anything, "s3://models/goal-predictor/3", mock.MatchedBy(func(dir string) bool {
		return filepath.Base(dir) == "v3"
	})).Return("/local/goal-predictor/v3", nil).Once()

	loaded, err := f.svc.Load(context.Background(), "goal-predictor", domain.ModelRef{Version: "3"})
	require.NoError(t, err)
	assert.Equal(t, "models:/goal-predictor/3", loaded.URI)
	assert.Equal(t, "/local/goal-predictor/v3", loaded.LocalPath)
	assert.Equal(t, "run-1", loaded.RunID)
}

func TestLoadByAlias(t *testing.T) {
	f := newManagerFixture(t, "betting")

	f.registry.On("GetVersionByAlias", mock.Anything, "goal-predictor", "production").
		Return(readyVersion("3"), nil).Once()
	f.registry.On("GetDownloadURI", mock.Anything, "goal-predictor", "3").
		Return("s3://models/goal-predictor/3", nil).Once()
	f.artifacts.On("Download", mock.Anything, "s3://models/goal-predictor/3", mock.Anything).
		Return("/local/goal-predictor/v3", nil).Once()

	loaded, err := f.svc.Load(context.Background(), "goal-predictor", domain.ModelRef{Alias: "production"})
	require.NoError(t, err)
	assert.Equal(t, "models:/goal-predictor@production", loaded.URI)
	assert.Equal(t, "3", loaded.Version)
}

func TestLoadByRunID(t *testing.T) {
	f := newManagerFixture(t, "betting")

	run := &domain.Run{ID: "run-9", ArtifactURI: "s3://models/exp-1/run-9/artifacts"}
	f.registry.On("GetRun", mock.Anything, "run-9").Return(run, nil).Once()
	f.artifacts.On("Download", mock.Anything, "s3://models/exp-1/run-9/artifacts/model", mock.MatchedBy(func(dir string) bool {
		return filepath.Base(dir) == "run-run-9"
	})).Return("/local/goal-predictor/run-run-9", nil).Once()

	loaded, err := f.svc.Load(context.Background(), "goal-predictor", domain.ModelRef{RunID: "run-9"})
	require.NoError(t, err)
	assert.Equal(t, "runs:/run-9/model", loaded.URI)
	assert.Equal(t, "run-9", loaded.RunID)
	f.registry.AssertNotCalled(t, "GetDownloadURI", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetAliasValidatesInput(t *testing.T) {
	f := newManagerFixture(t, "betting")

	assert.ErrorIs(t, f.svc.SetAlias(context.Background(), "goal-predictor", "", "production"), domain.ErrInvalidVersion)
	assert.ErrorIs(t, f.svc.SetAlias(context.Background(), "goal-predictor", "3", ""), domain.ErrInvalidAlias)
}

func TestPromoteRejectsUnknownTarget(t *testing.T) {
	f := newManagerFixture(t, "betting")

	err := f.svc.Promote(context.Background(), "goal-predictor", "3", "canary")
	assert.ErrorIs(t, err, domain.ErrInvalidPromoteTarget)
	f.registry.AssertNotCalled(t, "SetAlias", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPromoteToProductionMovesAlias(t *testing.T) {
	f := newManagerFixture(t, "betting")

	f.registry.On("SetAlias", mock.Anything, "goal-predictor", domain.AliasProduction, "3").Return(nil).Once()

	require.NoError(t, f.svc.PromoteToProduction(context.Background(), "goal-predictor", "3"))
	f.registry.AssertExpectations(t)
}

func TestDeleteVersionRecordsAudit(t *testing.T) {
	registry := new(testutil.MockRegistryClient)
	audit := new(testutil.MockAuditRepo)
	svc := NewModelManagerService(registry, nil, audit, ManagerConfig{})

	registry.On("DeleteModelVersion", mock.Anything, "goal-predictor", "2").Return(nil).Once()
	audit.On("Record", mock.Anything, mock.MatchedBy(func(e *domain.AuditEntry) bool {
		return e.Action == domain.AuditActionDeleteVersion &&
			e.ModelName == "goal-predictor" &&
			e.Version == "2"
	})).Return(nil).Once()

	require.NoError(t, svc.DeleteVersion(context.Background(), "goal-predictor", "2"))
	audit.AssertExpectations(t)
}

func TestAuditFailureDoesNotFailOperation(t *testing.T) {
	registry := new(testutil.MockRegistryClient)
	audit := new(testutil.MockAuditRepo)
	svc := NewModelManagerService(registry, nil, audit, ManagerConfig{})

	registry.On("DeleteAlias", mock.Anything, "goal-predictor", "staging").Return(nil).Once()
	audit.On("Record", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	assert.NoError(t, svc.DeleteAlias(context.Background(), "goal-predictor", "staging"))
}

func TestNilAuditRepoIsAccepted(t *testing.T) {
	registry := new(testutil.MockRegistryClient)
	svc := NewModelManagerService(registry, nil, nil, ManagerConfig{})

	registry.On("DeleteAlias", mock.Anything, "goal-predictor", "staging").Return(nil).Once()

	assert.NoError(t, svc.DeleteAlias(context.Background(), "goal-predictor", "staging"))
}

package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"betting-model-service/internal/core/domain"
	ports "betting-model-service/internal/core/ports/output"
)

// ManagerConfig tunes the lifecycle manager. ExperimentName is optional:
// without it the manager runs in registry-only mode and rejects LogModel.
type ManagerConfig struct {
	ExperimentName   string
	ArtifactLocation string
	LoadDir          string
	RegistrationWait time.Duration
	PollAttempts     uint
}

// ModelManagerService drives the lifecycle of registered models: logging
// runs, registering versions, moving aliases and loading artifacts.
type ModelManagerService struct {
	registry  ports.RegistryClient
	artifacts ports.ArtifactStore
	audit     ports.AuditRepository

	experimentName string
	experimentID   string
	loadDir        string
	pollDelay      time.Duration
	pollAttempts   uint
}

func NewModelManagerService(registry ports.RegistryClient, artifacts ports.ArtifactStore, audit ports.AuditRepository, cfg ManagerConfig) *ModelManagerService {
	pollDelay := cfg.RegistrationWait
	if pollDelay == 0 {
		pollDelay = time.Second
	}
	pollAttempts := cfg.PollAttempts
	if pollAttempts == 0 {
		pollAttempts = 10
	}
	loadDir := cfg.LoadDir
	if loadDir == "" {
		loadDir = filepath.Join(".", "models")
	}

	return &ModelManagerService{
		registry:       registry,
		artifacts:      artifacts,
		audit:          audit,
		experimentName: cfg.ExperimentName,
		loadDir:        loadDir,
		pollDelay:      pollDelay,
		pollAttempts:   pollAttempts,
	}
}

// EnsureExperiment resolves or creates the configured experiment. A no-op in
// registry-only mode.
func (s *ModelManagerService) EnsureExperiment(ctx context.Context) error {
	if s.experimentName == "" {
		log.Info("model manager running in registry-only mode")
		return nil
	}

	id, err := s.registry.EnsureExperiment(ctx, s.experimentName, "")
	if err != nil {
		return fmt.Errorf("ensure experiment %q: %w", s.experimentName, err)
	}
	s.experimentID = id
	log.WithFields(log.Fields{
		"experiment":    s.experimentName,
		"experiment_id": id,
	}).Info("experiment configured")
	return nil
}

// LogModel records one trained model run: params, metrics, tags and the model
// artifact itself. Returns the run id to register from.
func (s *ModelManagerService) LogModel(ctx context.Context, name string, spec domain.LogModelSpec) (string, error) {
	if name == "" {
		return "", domain.ErrInvalidModelName
	}
	if s.experimentID == "" {
		return "", domain.ErrExperimentRequired
	}
	if err := domain.ValidateFlavor(spec.Flavor); err != nil {
		return "", err
	}

	run, err := s.registry.CreateRun(ctx, s.experimentID, spec.RunName)
	if err != nil {
		return "", err
	}

	tags := map[string]string{"model_name": name}
	if spec.Flavor != "" {
		tags["flavor"] = strings.ToLower(spec.Flavor)
	}
	for k, v := range spec.Tags {
		tags[k] = v
	}

	if err := s.registry.LogBatch(ctx, run.ID, spec.Params, spec.Metrics, tags); err != nil {
		s.abortRun(ctx, run.ID)
		return "", err
	}

	if spec.ModelPath != "" {
		dest := strings.TrimRight(run.ArtifactURI, "/") + "/model"
		if err := s.artifacts.Upload(ctx, spec.ModelPath, dest); err != nil {
			s.abortRun(ctx, run.ID)
			return "", fmt.Errorf("upload model artifact: %w", err)
		}
	}

	if err := s.registry.FinishRun(ctx, run.ID); err != nil {
		return "", err
	}

	log.WithFields(log.Fields{"model": name, "run_id": run.ID}).Info("model logged")
	s.recordAudit(ctx, domain.AuditActionLogModel, name, "", "", map[string]string{
		"run_id": run.ID,
		"flavor": spec.Flavor,
	})
	return run.ID, nil
}

// RegisterOptions are applied to a freshly created model version.
type RegisterOptions struct {
	Description string
	Tags        map[string]string
	Alias       string
}

// Register creates a model version from a logged run and waits until the
// registry reports it READY before applying description, tags and alias.
func (s *ModelManagerService) Register(ctx context.Context, name, runID string, opts RegisterOptions) (*domain.ModelVersionInfo, error) {
	if name == "" {
		return nil, domain.ErrInvalidModelName
	}

	if err := s.registry.EnsureRegisteredModel(ctx, name); err != nil {
		return nil, err
	}

	source := fmt.Sprintf("runs:/%s/model", runID)
	version, err := s.registry.CreateModelVersion(ctx, name, source, runID)
	if err != nil {
		return nil, err
	}

	version, err = s.waitUntilReady(ctx, name, version)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"model": name, "version": version.Version}).Info("model version registered")

	if opts.Description != "" {
		if err := s.registry.UpdateModelVersion(ctx, name, version.Version, opts.Description); err != nil {
			return nil, err
		}
		version.Description = opts.Description
	}
	for k, v := range opts.Tags {
		if err := s.registry.SetModelVersionTag(ctx, name, version.Version, k, v); err != nil {
			return nil, err
		}
	}
	if opts.Alias != "" {
		if err := s.SetAlias(ctx, name, version.Version, opts.Alias); err != nil {
			return nil, err
		}
		version.Aliases = append(version.Aliases, opts.Alias)
	}

	s.recordAudit(ctx, domain.AuditActionRegister, name, version.Version, opts.Alias, map[string]string{
		"run_id": runID,
	})
	return version, nil
}

func (s *ModelManagerService) waitUntilReady(ctx context.Context, name string, version *domain.ModelVersionInfo) (*domain.ModelVersionInfo, error) {
	if version.Status == domain.VersionStatusReady {
		return version, nil
	}

	current := version
	err := retry.Do(func() error {
		v, err := s.registry.GetModelVersion(ctx, name, version.Version)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		current = v
		switch v.Status {
		case domain.VersionStatusReady:
			return nil
		case domain.VersionStatusFailed:
			return retry.Unrecoverable(fmt.Errorf("%w: version %s", domain.ErrRegistrationFailed, v.Version))
		default:
			return fmt.Errorf("%w: version %s is %s", domain.ErrRegistrationNotReady, v.Version, v.Status)
		}
	},
		retry.Attempts(s.pollAttempts),
		retry.Delay(s.pollDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, err
	}
	return current, nil
}

// Load materializes a model version's artifacts on local disk. Exactly one
// of ref.Version, ref.Alias or ref.RunID must be set.
func (s *ModelManagerService) Load(ctx context.Context, name string, ref domain.ModelRef) (*domain.LoadedModel, error) {
	if name == "" {
		return nil, domain.ErrInvalidModelName
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	var (
		modelURI   string
		storageURI string
		version    string
		runID      string
	)

	switch {
	case ref.RunID != "":
		run, err := s.registry.GetRun(ctx, ref.RunID)
		if err != nil {
			return nil, err
		}
		modelURI = fmt.Sprintf("runs:/%s/model", run.ID)
		storageURI = strings.TrimRight(run.ArtifactURI, "/") + "/model"
		runID = run.ID

	case ref.Alias != "":
		v, err := s.registry.GetVersionByAlias(ctx, name, ref.Alias)
		if err != nil {
			return nil, err
		}
		modelURI = fmt.Sprintf("models:/%s@%s", name, ref.Alias)
		version, runID = v.Version, v.RunID
		storageURI, err = s.registry.GetDownloadURI(ctx, name, v.Version)
		if err != nil {
			return nil, err
		}

	default:
		v, err := s.registry.GetModelVersion(ctx, name, ref.Version)
		if err != nil {
			return nil, err
		}
		modelURI = fmt.Sprintf("models:/%s/%s", name, ref.Version)
		version, runID = v.Version, v.RunID
		storageURI, err = s.registry.GetDownloadURI(ctx, name, v.Version)
		if err != nil {
			return nil, err
		}
	}

	destDir := filepath.Join(s.loadDir, name, loadDirName(version, runID))
	localPath, err := s.artifacts.Download(ctx, storageURI, destDir)
	if err != nil {
		return nil, fmt.Errorf("download model artifacts: %w", err)
	}

	log.WithFields(log.Fields{
		"model": name,
		"uri":   modelURI,
		"path":  localPath,
	}).Info("model loaded")

	return &domain.LoadedModel{
		Name:      name,
		Version:   version,
		RunID:     runID,
		URI:       modelURI,
		LocalPath: localPath,
	}, nil
}

func loadDirName(version, runID string) string {
	if version != "" {
		return "v" + version
	}
	return "run-" + runID
}

// SetAlias points the alias at the given version; an alias held by another
// version moves.
func (s *ModelManagerService) SetAlias(ctx context.Context, name, version, alias string) error {
	if version == "" {
		return domain.ErrInvalidVersion
	}
	if alias == "" {
		return domain.ErrInvalidAlias
	}

	if err := s.registry.SetAlias(ctx, name, alias, version); err != nil {
		return err
	}

	log.WithFields(log.Fields{"model": name, "version": version, "alias": alias}).Info("alias set")
	s.recordAudit(ctx, domain.AuditActionSetAlias, name, version, alias, nil)
	return nil
}

// DeleteAlias removes the alias. The underlying version is untouched.
func (s *ModelManagerService) DeleteAlias(ctx context.Context, name, alias string) error {
	if alias == "" {
		return domain.ErrInvalidAlias
	}

	if err := s.registry.DeleteAlias(ctx, name, alias); err != nil {
		return err
	}

	log.WithFields(log.Fields{"model": name, "alias": alias}).Info("alias deleted")
	s.recordAudit(ctx, domain.AuditActionDeleteAlias, name, "", alias, nil)
	return nil
}

func (s *ModelManagerService) ListVersions(ctx context.Context, name string) ([]*domain.ModelVersionInfo, error) {
	if name == "" {
		return nil, domain.ErrInvalidModelName
	}
	return s.registry.ListModelVersions(ctx, name)
}

func (s *ModelManagerService) GetVersion(ctx context.Context, name, version string) (*domain.ModelVersionInfo, error) {
	if version == "" {
		return nil, domain.ErrInvalidVersion
	}
	return s.registry.GetModelVersion(ctx, name, version)
}

func (s *ModelManagerService) GetByAlias(ctx context.Context, name, alias string) (*domain.ModelVersionInfo, error) {
	if alias == "" {
		return nil, domain.ErrInvalidAlias
	}
	return s.registry.GetVersionByAlias(ctx, name, alias)
}

// Promote moves the well-known production/staging alias to the version.
func (s *ModelManagerService) Promote(ctx context.Context, name, version, target string) error {
	if target != domain.AliasProduction && target != domain.AliasStaging {
		return domain.ErrInvalidPromoteTarget
	}

	if err := s.SetAlias(ctx, name, version, target); err != nil {
		return err
	}

	log.WithFields(log.Fields{"model": name, "version": version, "target": target}).Info("version promoted")
	s.recordAudit(ctx, domain.AuditActionPromote, name, version, target, nil)
	return nil
}

func (s *ModelManagerService) PromoteToProduction(ctx context.Context, name, version string) error {
	return s.Promote(ctx, name, version, domain.AliasProduction)
}

func (s *ModelManagerService) PromoteToStaging(ctx context.Context, name, version string) error {
	return s.Promote(ctx, name, version, domain.AliasStaging)
}

// DeleteVersion permanently removes the version from the registry.
func (s *ModelManagerService) DeleteVersion(ctx context.Context, name, version string) error {
	if version == "" {
		return domain.ErrInvalidVersion
	}

	if err := s.registry.DeleteModelVersion(ctx, name, version); err != nil {
		return err
	}

	log.WithFields(log.Fields{"model": name, "version": version}).Info("version deleted")
	s.recordAudit(ctx, domain.AuditActionDeleteVersion, name, version, "", nil)
	return nil
}

func (s *ModelManagerService) UpdateDescription(ctx context.Context, name, version, description string) error {
	if version == "" {
		return domain.ErrInvalidVersion
	}

	if err := s.registry.UpdateModelVersion(ctx, name, version, description); err != nil {
		return err
	}

	s.recordAudit(ctx, domain.AuditActionUpdateDescription, name, version, "", nil)
	return nil
}

// abortRun marks the run FAILED after a mid-flight error; best effort.
func (s *ModelManagerService) abortRun(ctx context.Context, runID string) {
	if err := s.registry.FailRun(ctx, runID); err != nil {
		log.WithError(err).WithField("run_id", runID).Warn("fail run")
	}
}

// recordAudit is best effort: a broken audit store must not fail the
// lifecycle operation itself.
func (s *ModelManagerService) recordAudit(ctx context.Context, action, name, version, alias string, detail map[string]string) {
	if s.audit == nil {
		return
	}

	entry := &domain.AuditEntry{
		ID:         uuid.New(),
		OccurredAt: time.Now(),
		Action:     action,
		ModelName:  name,
		Version:    version,
		Alias:      alias,
		Detail:     detail,
		RequestID:  domain.RequestIDFromContext(ctx),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		log.WithError(err).WithField("action", action).Warn("record audit entry")
	}
}

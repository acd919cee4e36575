package domain

import "errors"

// ============================================================================
// Registry Errors
// ============================================================================

var (
	ErrModelNotFound      = errors.New("registered model not found")
	ErrVersionNotFound    = errors.New("model version not found")
	ErrAliasNotFound      = errors.New("model alias not found")
	ErrRunNotFound        = errors.New("tracking run not found")
	ErrModelAlreadyExists = errors.New("model with this name already exists")
)

// Validation errors
var (
	ErrInvalidModelName     = errors.New("model name is required")
	ErrInvalidVersion       = errors.New("model version is required")
	ErrInvalidAlias         = errors.New("alias name is required")
	ErrUnsupportedFlavor    = errors.New("unsupported model flavor")
	ErrAmbiguousModelRef    = errors.New("exactly one of version, alias or run_id must be set")
	ErrInvalidPromoteTarget = errors.New("promote target must be production or staging")
)

// Lifecycle errors
var (
	ErrExperimentRequired   = errors.New("experiment is required to log models")
	ErrRegistrationNotReady = errors.New("model version registration did not reach READY")
	ErrRegistrationFailed   = errors.New("model version registration failed")
)

// Artifact errors
var (
	ErrUnsupportedArtifactURI = errors.New("unsupported artifact URI scheme")
	ErrArtifactNotFound       = errors.New("model artifact not found")
)

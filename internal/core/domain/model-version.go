package domain

import (
	"strings"
	"time"
)

type VersionStatus string

const (
	VersionStatusPending VersionStatus = "PENDING_REGISTRATION"
	VersionStatusReady   VersionStatus = "READY"
	VersionStatusFailed  VersionStatus = "FAILED_REGISTRATION"
)

// Well-known aliases used by the promotion helpers.
const (
	AliasProduction = "production"
	AliasStaging    = "staging"
)

// Model flavors accepted when logging a new run.
var SupportedFlavors = map[string]bool{
	"sklearn":    true,
	"pytorch":    true,
	"tensorflow": true,
	"pyfunc":     true,
	"custom":     true,
}

func ValidateFlavor(flavor string) error {
	if flavor == "" {
		return nil
	}
	if !SupportedFlavors[strings.ToLower(flavor)] {
		return ErrUnsupportedFlavor
	}
	return nil
}

// ModelVersionInfo is the registry's view of one version of a named model.
type ModelVersionInfo struct {
	Name        string        `json:"name"`
	Version     string        `json:"version"`
	RunID       string        `json:"run_id"`
	Status      VersionStatus `json:"status"`
	Description string        `json:"description"`
	Source      string        `json:"source"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Aliases     []string      `json:"aliases"`
}

// ModelRef identifies a model for loading. Exactly one field must be set.
type ModelRef struct {
	Version string `json:"version"`
	Alias   string `json:"alias"`
	RunID   string `json:"run_id"`
}

func (r ModelRef) Validate() error {
	set := 0
	if r.Version != "" {
		set++
	}
	if r.Alias != "" {
		set++
	}
	if r.RunID != "" {
		set++
	}
	if set != 1 {
		return ErrAmbiguousModelRef
	}
	return nil
}

// LoadedModel describes a model materialized on local disk for inference.
type LoadedModel struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	RunID     string `json:"run_id"`
	URI       string `json:"uri"`
	LocalPath string `json:"local_path"`
}

// LogModelSpec captures everything needed to log one trained model run.
type LogModelSpec struct {
	Flavor    string
	RunName   string
	ModelPath string
	Params    map[string]string
	Metrics   map[string]float64
	Tags      map[string]string
}

// Run is a tracking run as returned by the registry backend.
type Run struct {
	ID          string
	ArtifactURI string
}

package mlflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"betting-model-service/internal/core/domain"
	ports "betting-model-service/internal/core/ports/output"
	"betting-model-service/internal/httpconn"
)

const apiPrefix = "api/2.0/mlflow"

// MLflow error codes surfaced in error payloads.
const (
	codeResourceDoesNotExist  = "RESOURCE_DOES_NOT_EXIST"
	codeResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
)

// Client talks to an MLflow tracking/registry server over its REST API.
type Client struct {
	conn *httpconn.Connector
}

var _ ports.RegistryClient = (*Client)(nil)

func NewClient(conn *httpconn.Connector) *Client {
	return &Client{conn: conn}
}

// ============================================================================
// Experiments & Runs
// ============================================================================

// EnsureExperiment creates the experiment, or resolves it by name when it
// already exists.
func (c *Client) EnsureExperiment(ctx context.Context, name, artifactLocation string) (string, error) {
	resp, err := c.conn.Post(ctx, apiPrefix+"/experiments/create", &httpconn.RequestOptions{
		Body: createExperimentRequest{Name: name, ArtifactLocation: artifactLocation},
	})
	if err == nil {
		var out createExperimentResponse
		if err := json.Unmarshal(resp.Body, &out); err != nil {
			return "", fmt.Errorf("decode create experiment response: %w", err)
		}
		log.WithField("experiment", name).Debug("created experiment")
		return out.ExperimentID, nil
	}

	if code := errorCode(err); code != codeResourceAlreadyExists {
		return "", mapError(err, domain.ErrModelNotFound)
	}

	resp, err = c.conn.Get(ctx, apiPrefix+"/experiments/get-by-name", &httpconn.RequestOptions{
		Query: map[string]string{"experiment_name": name},
	})
	if err != nil {
		return "", fmt.Errorf("get experiment by name: %w", err)
	}

	var out getExperimentResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return "", fmt.Errorf("decode experiment response: %w", err)
	}
	log.WithFields(log.Fields{
		"experiment":    name,
		"experiment_id": out.Experiment.ExperimentID,
	}).Debug("using existing experiment")
	return out.Experiment.ExperimentID, nil
}

func (c *Client) CreateRun(ctx context.Context, experimentID, runName string) (*domain.Run, error) {
	resp, err := c.conn.Post(ctx, apiPrefix+"/runs/create", &httpconn.RequestOptions{
		Body: createRunRequest{
			ExperimentID: experimentID,
			RunName:      runName,
			StartTime:    time.Now().UnixMilli(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	var out runResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decode run response: %w", err)
	}
	return &domain.Run{ID: out.Run.Info.RunID, ArtifactURI: out.Run.Info.ArtifactURI}, nil
}

func (c *Client) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	resp, err := c.conn.Get(ctx, apiPrefix+"/runs/get", &httpconn.RequestOptions{
		Query: map[string]string{"run_id": runID},
	})
	if err != nil {
		return nil, mapError(err, domain.ErrRunNotFound)
	}

	var out runResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decode run response: %w", err)
	}
	return &domain.Run{ID: out.Run.Info.RunID, ArtifactURI: out.Run.Info.ArtifactURI}, nil
}

func (c *Client) LogBatch(ctx context.Context, runID string, params map[string]string, metrics map[string]float64, tags map[string]string) error {
	req := logBatchRequest{RunID: runID}
	now := time.Now().UnixMilli()

	for k, v := range params {
		req.Params = append(req.Params, kvPayload{Key: k, Value: v})
	}
	for k, v := range metrics {
		req.Metrics = append(req.Metrics, metricPayload{Key: k, Value: v, Timestamp: now})
	}
	for k, v := range tags {
		req.Tags = append(req.Tags, kvPayload{Key: k, Value: v})
	}

	if _, err := c.conn.Post(ctx, apiPrefix+"/runs/log-batch", &httpconn.RequestOptions{Body: req}); err != nil {
		return fmt.Errorf("log batch: %w", mapError(err, domain.ErrRunNotFound))
	}
	return nil
}

func (c *Client) FinishRun(ctx context.Context, runID string) error {
	return c.updateRun(ctx, runID, "FINISHED")
}

func (c *Client) FailRun(ctx context.Context, runID string) error {
	return c.updateRun(ctx, runID, "FAILED")
}

func (c *Client) updateRun(ctx context.Context, runID, status string) error {
	_, err := c.conn.Post(ctx, apiPrefix+"/runs/update", &httpconn.RequestOptions{
		Body: updateRunRequest{RunID: runID, Status: status, EndTime: time.Now().UnixMilli()},
	})
	if err != nil {
		return fmt.Errorf("update run: %w", mapError(err, domain.ErrRunNotFound))
	}
	return nil
}

// ============================================================================
// Registered Models & Versions
// ============================================================================

// EnsureRegisteredModel creates the registered model; an existing model with
// the same name is not an error.
func (c *Client) EnsureRegisteredModel(ctx context.Context, name string) error {
	_, err := c.conn.Post(ctx, apiPrefix+"/registered-models/create", &httpconn.RequestOptions{
		Body: createRegisteredModelRequest{Name: name},
	})
	if err != nil && errorCode(err) != codeResourceAlreadyExists {
		return fmt.Errorf("create registered model: %w", err)
	}
	return nil
}

func (c *Client) CreateModelVersion(ctx context.Context, name, source, runID string) (*domain.ModelVersionInfo, error) {
	resp, err := c.conn.Post(ctx, apiPrefix+"/model-versions/create", &httpconn.RequestOptions{
		Body: createModelVersionRequest{Name: name, Source: source, RunID: runID},
	})
	if err != nil {
		return nil, fmt.Errorf("create model version: %w", mapError(err, domain.ErrModelNotFound))
	}

	var out modelVersionResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decode model version response: %w", err)
	}
	return toDomainVersion(out.ModelVersion), nil
}

func (c *Client) GetModelVersion(ctx context.Context, name, version string) (*domain.ModelVersionInfo, error) {
	resp, err := c.conn.Get(ctx, apiPrefix+"/model-versions/get", &httpconn.RequestOptions{
		Query: map[string]string{"name": name, "version": version},
	})
	if err != nil {
		return nil, mapError(err, domain.ErrVersionNotFound)
	}

	var out modelVersionResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decode model version response: %w", err)
	}
	return toDomainVersion(out.ModelVersion), nil
}

func (c *Client) ListModelVersions(ctx context.Context, name string) ([]*domain.ModelVersionInfo, error) {
	var versions []*domain.ModelVersionInfo
	pageToken := ""

	for {
		query := map[string]string{
			"filter":      fmt.Sprintf("name='%s'", name),
			"max_results": "200",
		}
		if pageToken != "" {
			query["page_token"] = pageToken
		}

		resp, err := c.conn.Get(ctx, apiPrefix+"/model-versions/search", &httpconn.RequestOptions{Query: query})
		if err != nil {
			return nil, fmt.Errorf("search model versions: %w", mapError(err, domain.ErrModelNotFound))
		}

		var out searchModelVersionsResponse
		if err := json.Unmarshal(resp.Body, &out); err != nil {
			return nil, fmt.Errorf("decode search response: %w", err)
		}
		for _, v := range out.ModelVersions {
			versions = append(versions, toDomainVersion(v))
		}

		if out.NextPageToken == "" {
			break
		}
		pageToken = out.NextPageToken
	}

	return versions, nil
}

func (c *Client) UpdateModelVersion(ctx context.Context, name, version, description string) error {
	_, err := c.conn.Patch(ctx, apiPrefix+"/model-versions/update", &httpconn.RequestOptions{
		Body: updateModelVersionRequest{Name: name, Version: version, Description: description},
	})
	if err != nil {
		return fmt.Errorf("update model version: %w", mapError(err, domain.ErrVersionNotFound))
	}
	return nil
}

func (c *Client) DeleteModelVersion(ctx context.Context, name, version string) error {
	_, err := c.conn.Delete(ctx, apiPrefix+"/model-versions/delete", &httpconn.RequestOptions{
		Body: deleteModelVersionRequest{Name: name, Version: version},
	})
	if err != nil {
		return fmt.Errorf("delete model version: %w", mapError(err, domain.ErrVersionNotFound))
	}
	return nil
}

func (c *Client) SetModelVersionTag(ctx context.Context, name, version, key, value string) error {
	_, err := c.conn.Post(ctx, apiPrefix+"/model-versions/set-tag", &httpconn.RequestOptions{
		Body: setModelVersionTagRequest{Name: name, Version: version, Key: key, Value: value},
	})
	if err != nil {
		return fmt.Errorf("set model version tag: %w", mapError(err, domain.ErrVersionNotFound))
	}
	return nil
}

func (c *Client) GetDownloadURI(ctx context.Context, name, version string) (string, error) {
	resp, err := c.conn.Get(ctx, apiPrefix+"/model-versions/get-download-uri", &httpconn.RequestOptions{
		Query: map[string]string{"name": name, "version": version},
	})
	if err != nil {
		return "", mapError(err, domain.ErrVersionNotFound)
	}

	var out downloadURIResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return "", fmt.Errorf("decode download uri response: %w", err)
	}
	return out.ArtifactURI, nil
}

// ============================================================================
// Aliases
// ============================================================================

func (c *Client) SetAlias(ctx context.Context, name, alias, version string) error {
	_, err := c.conn.Post(ctx, apiPrefix+"/registered-models/alias", &httpconn.RequestOptions{
		Body: setAliasRequest{Name: name, Alias: alias, Version: version},
	})
	if err != nil {
		return fmt.Errorf("set alias: %w", mapError(err, domain.ErrVersionNotFound))
	}
	return nil
}

func (c *Client) DeleteAlias(ctx context.Context, name, alias string) error {
	_, err := c.conn.Delete(ctx, apiPrefix+"/registered-models/alias", &httpconn.RequestOptions{
		Body: deleteAliasRequest{Name: name, Alias: alias},
	})
	if err != nil {
		return fmt.Errorf("delete alias: %w", mapError(err, domain.ErrAliasNotFound))
	}
	return nil
}

func (c *Client) GetVersionByAlias(ctx context.Context, name, alias string) (*domain.ModelVersionInfo, error) {
	resp, err := c.conn.Get(ctx, apiPrefix+"/registered-models/alias", &httpconn.RequestOptions{
		Query: map[string]string{"name": name, "alias": alias},
	})
	if err != nil {
		return nil, mapError(err, domain.ErrAliasNotFound)
	}

	var out modelVersionResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decode model version response: %w", err)
	}
	return toDomainVersion(out.ModelVersion), nil
}

// ============================================================================
// Helpers
// ============================================================================

func toDomainVersion(v modelVersionPayload) *domain.ModelVersionInfo {
	aliases := v.Aliases
	if aliases == nil {
		aliases = []string{}
	}
	return &domain.ModelVersionInfo{
		Name:        v.Name,
		Version:     v.Version,
		RunID:       v.RunID,
		Status:      domain.VersionStatus(v.Status),
		Description: v.Description,
		Source:      v.Source,
		CreatedAt:   time.UnixMilli(v.CreationTimestamp),
		UpdatedAt:   time.UnixMilli(v.LastUpdatedTimestamp),
		Aliases:     aliases,
	}
}

// errorCode extracts the MLflow error code from a connector status error.
func errorCode(err error) string {
	var se *httpconn.StatusError
	if !errors.As(err, &se) {
		return ""
	}
	var apiErr apiError
	if json.Unmarshal(se.Body, &apiErr) != nil {
		return ""
	}
	return apiErr.ErrorCode
}

// mapError converts MLflow error payloads to domain sentinels so callers can
// use errors.Is.
func mapError(err error, notFound error) error {
	switch errorCode(err) {
	case codeResourceDoesNotExist:
		return fmt.Errorf("%w: %v", notFound, err)
	case codeResourceAlreadyExists:
		return fmt.Errorf("%w: %v", domain.ErrModelAlreadyExists, err)
	default:
		return err
	}
}

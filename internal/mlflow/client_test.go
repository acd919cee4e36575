package mlflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betting-model-service/internal/core/domain"
	"betting-model-service/internal/httpconn"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conn := httpconn.New(httpconn.Config{
		BaseURL:    srv.URL,
		MaxRetries: 1,
		RetryWait:  time.Millisecond,
	})
	t.Cleanup(conn.Close)

	return NewClient(conn), srv
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestEnsureExperimentCreatesNew(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/2.0/mlflow/experiments/create", r.URL.Path)

		var req createExperimentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "betting-models", req.Name)
		assert.Equal(t, "s3://models/experiments", req.ArtifactLocation)

		writeJSON(w, http.StatusOK, createExperimentResponse{ExperimentID: "42"})
	})

	id, err := client.EnsureExperiment(context.Background(), "betting-models", "s3://models/experiments")
	require.NoError(t, err)
	assert.Equal(t, "42", id)
}

func TestEnsureExperimentResolvesExisting(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/2.0/mlflow/experiments/create":
			writeJSON(w, http.StatusBadRequest, apiError{
				ErrorCode: codeResourceAlreadyExists,
				Message:   "experiment already exists",
			})
		case "/api/2.0/mlflow/experiments/get-by-name":
			assert.Equal(t, "betting-models", r.URL.Query().Get("experiment_name"))
			writeJSON(w, http.StatusOK, getExperimentResponse{
				Experiment: experimentPayload{ExperimentID: "7", Name: "betting-models"},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	id, err := client.EnsureExperiment(context.Background(), "betting-models", "")
	require.NoError(t, err)
	assert.Equal(t, "7", id)
}

func TestCreateRun(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/2.0/mlflow/runs/create", r.URL.Path)

		var req createRunRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "42", req.ExperimentID)
		assert.Equal(t, "training-run", req.RunName)
		assert.NotZero(t, req.StartTime)

		writeJSON(w, http.StatusOK, runResponse{Run: runPayload{Info: runInfoPayload{
			RunID:       "run-1",
			ArtifactURI: "s3://models/experiments/42/run-1/artifacts",
		}}})
	})

	run, err := client.CreateRun(context.Background(), "42", "training-run")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, "s3://models/experiments/42/run-1/artifacts", run.ArtifactURI)
}

func TestLogBatchSendsParamsMetricsAndTags(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/2.0/mlflow/runs/log-batch", r.URL.Path)

		var req logBatchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "run-1", req.RunID)
		assert.Len(t, req.Params, 1)
		assert.Len(t, req.Metrics, 1)
		assert.Len(t, req.Tags, 1)
		assert.Equal(t, "max_depth", req.Params[0].Key)
		assert.Equal(t, "accuracy", req.Metrics[0].Key)
		assert.InDelta(t, 0.87, req.Metrics[0].Value, 1e-9)

		writeJSON(w, http.StatusOK, struct{}{})
	})

	err := client.LogBatch(context.Background(), "run-1",
		map[string]string{"max_depth": "6"},
		map[string]float64{"accuracy": 0.87},
		map[string]string{"flavor": "sklearn"})
	require.NoError(t, err)
}

func TestFinishRunSetsTerminalStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req updateRunRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "FINISHED", req.Status)
		assert.NotZero(t, req.EndTime)
		writeJSON(w, http.StatusOK, struct{}{})
	})

	require.NoError(t, client.FinishRun(context.Background(), "run-1"))
}

func TestEnsureRegisteredModelTolerateExisting(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, apiError{
			ErrorCode: codeResourceAlreadyExists,
			Message:   "model exists",
		})
	})

	require.NoError(t, client.EnsureRegisteredModel(context.Background(), "goal-predictor"))
}

func TestCreateModelVersion(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/2.0/mlflow/model-versions/create", r.URL.Path)

		var req createModelVersionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "goal-predictor", req.Name)
		assert.Equal(t, "runs:/run-1/model", req.Source)

		writeJSON(w, http.StatusOK, modelVersionResponse{ModelVersion: modelVersionPayload{
			Name:              "goal-predictor",
			Version:           "3",
			RunID:             "run-1",
			Status:            "PENDING_REGISTRATION",
			CreationTimestamp: time.Now().UnixMilli(),
		}})
	})

	v, err := client.CreateModelVersion(context.Background(), "goal-predictor", "runs:/run-1/model", "run-1")
	require.NoError(t, err)
	assert.Equal(t, "3", v.Version)
	assert.Equal(t, domain.VersionStatusPending, v.Status)
	assert.NotNil(t, v.Aliases)
}

func TestGetModelVersionNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, apiError{
			ErrorCode: codeResourceDoesNotExist,
			Message:   "version not found",
		})
	})

	_, err := client.GetModelVersion(context.Background(), "goal-predictor", "99")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVersionNotFound)
}

func TestListModelVersionsFollowsPagination(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/2.0/mlflow/model-versions/search", r.URL.Path)
		assert.Equal(t, "name='goal-predictor'", r.URL.Query().Get("filter"))

		if r.URL.Query().Get("page_token") == "" {
			writeJSON(w, http.StatusOK, searchModelVersionsResponse{
				ModelVersions: []modelVersionPayload{{Name: "goal-predictor", Version: "1"}},
				NextPageToken: "page-2",
			})
			return
		}
		writeJSON(w, http.StatusOK, searchModelVersionsResponse{
			ModelVersions: []modelVersionPayload{{Name: "goal-predictor", Version: "2"}},
		})
	})

	versions, err := client.ListModelVersions(context.Background(), "goal-predictor")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "1", versions[0].Version)
	assert.Equal(t, "2", versions[1].Version)
}

func TestGetDownloadURI(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "goal-predictor", r.URL.Query().Get("name"))
		assert.Equal(t, "3", r.URL.Query().Get("version"))
		writeJSON(w, http.StatusOK, downloadURIResponse{ArtifactURI: "s3://models/goal-predictor/3"})
	})

	uri, err := client.GetDownloadURI(context.Background(), "goal-predictor", "3")
	require.NoError(t, err)
	assert.Equal(t, "s3://models/goal-predictor/3", uri)
}

func TestSetAlias(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/2.0/mlflow/registered-models/alias", r.URL.Path)

		var req setAliasRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "goal-predictor", req.Name)
		assert.Equal(t, domain.AliasProduction, req.Alias)
		assert.Equal(t, "3", req.Version)

		writeJSON(w, http.StatusOK, struct{}{})
	})

	require.NoError(t, client.SetAlias(context.Background(), "goal-predictor", domain.AliasProduction, "3"))
}

func TestGetVersionByAliasNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, apiError{
			ErrorCode: codeResourceDoesNotExist,
			Message:   "alias not found",
		})
	})

	_, err := client.GetVersionByAlias(context.Background(), "goal-predictor", "champion")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAliasNotFound)
}

func TestDeleteAlias(t *testing.T) {
	var gotMethod string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		writeJSON(w, http.StatusOK, struct{}{})
	})

	require.NoError(t, client.DeleteAlias(context.Background(), "goal-predictor", "staging"))
	assert.Equal(t, http.MethodDelete, gotMethod)
}

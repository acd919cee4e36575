package mlflow

// Wire types for the MLflow REST API (api/2.0/mlflow).

type apiError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

type experimentPayload struct {
	ExperimentID     string `json:"experiment_id"`
	Name             string `json:"name"`
	ArtifactLocation string `json:"artifact_location"`
	LifecycleStage   string `json:"lifecycle_stage"`
}

type createExperimentRequest struct {
	Name             string `json:"name"`
	ArtifactLocation string `json:"artifact_location,omitempty"`
}

type createExperimentResponse struct {
	ExperimentID string `json:"experiment_id"`
}

type getExperimentResponse struct {
	Experiment experimentPayload `json:"experiment"`
}

type runInfoPayload struct {
	RunID       string `json:"run_id"`
	RunName     string `json:"run_name"`
	Status      string `json:"status"`
	ArtifactURI string `json:"artifact_uri"`
}

type runPayload struct {
	Info runInfoPayload `json:"info"`
}

type runResponse struct {
	Run runPayload `json:"run"`
}

type createRunRequest struct {
	ExperimentID string `json:"experiment_id"`
	RunName      string `json:"run_name,omitempty"`
	StartTime    int64  `json:"start_time"`
}

type metricPayload struct {
	Key       string  `json:"key"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
	Step      int64   `json:"step"`
}

type kvPayload struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type logBatchRequest struct {
	RunID   string          `json:"run_id"`
	Metrics []metricPayload `json:"metrics,omitempty"`
	Params  []kvPayload     `json:"params,omitempty"`
	Tags    []kvPayload     `json:"tags,omitempty"`
}

type updateRunRequest struct {
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
	EndTime int64  `json:"end_time"`
}

type createRegisteredModelRequest struct {
	Name string `json:"name"`
}

type modelVersionPayload struct {
	Name                 string   `json:"name"`
	Version              string   `json:"version"`
	CreationTimestamp    int64    `json:"creation_timestamp"`
	LastUpdatedTimestamp int64    `json:"last_updated_timestamp"`
	Description          string   `json:"description"`
	Source               string   `json:"source"`
	RunID                string   `json:"run_id"`
	Status               string   `json:"status"`
	Aliases              []string `json:"aliases"`
}

type modelVersionResponse struct {
	ModelVersion modelVersionPayload `json:"model_version"`
}

type createModelVersionRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	RunID  string `json:"run_id,omitempty"`
}

type updateModelVersionRequest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

type deleteModelVersionRequest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type setModelVersionTagRequest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Key     string `json:"key"`
	Value   string `json:"value"`
}

type searchModelVersionsResponse struct {
	ModelVersions []modelVersionPayload `json:"model_versions"`
	NextPageToken string                `json:"next_page_token"`
}

type downloadURIResponse struct {
	ArtifactURI string `json:"artifact_uri"`
}

type setAliasRequest struct {
	Name    string `json:"name"`
	Alias   string `json:"alias"`
	Version string `json:"version"`
}

type deleteAliasRequest struct {
	Name  string `json:"name"`
	Alias string `json:"alias"`
}

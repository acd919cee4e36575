package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	MLflow   MLflowConfig
	HTTP     HTTPClientConfig
	Artifact ArtifactConfig
	Database DatabaseConfig
	Logger   LoggerConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type MLflowConfig struct {
	TrackingURI      string
	AuthToken        string
	ExperimentName   string
	RegistrationWait time.Duration
	PollAttempts     uint
}

type HTTPClientConfig struct {
	Timeout    time.Duration
	MaxRetries int
	RetryWait  time.Duration
}

type ArtifactConfig struct {
	Region       string
	Endpoint     string
	UsePathStyle bool
	LoadDir      string
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type LoggerConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("MLFLOW_TRACKING_URI", "http://localhost:5000")
	v.SetDefault("MLFLOW_AUTH_TOKEN", "")
	v.SetDefault("MLFLOW_EXPERIMENT_NAME", "")
	v.SetDefault("MLFLOW_REGISTRATION_WAIT", "1s")
	v.SetDefault("MLFLOW_POLL_ATTEMPTS", 10)
	v.SetDefault("HTTP_TIMEOUT", "30s")
	v.SetDefault("HTTP_MAX_RETRIES", 3)
	v.SetDefault("HTTP_RETRY_WAIT", "300ms")
	v.SetDefault("ARTIFACT_REGION", "us-east-1")
	v.SetDefault("ARTIFACT_ENDPOINT", "")
	v.SetDefault("ARTIFACT_USE_PATH_STYLE", false)
	v.SetDefault("ARTIFACT_LOAD_DIR", "./models")
	v.SetDefault("DATABASE_ENABLED", false)
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "postgres")
	v.SetDefault("DATABASE_NAME", "betting_models")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 10)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 2)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")

	// Env
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		MLflow: MLflowConfig{
			TrackingURI:      v.GetString("MLFLOW_TRACKING_URI"),
			AuthToken:        v.GetString("MLFLOW_AUTH_TOKEN"),
			ExperimentName:   v.GetString("MLFLOW_EXPERIMENT_NAME"),
			RegistrationWait: parseDuration(v.GetString("MLFLOW_REGISTRATION_WAIT"), time.Second),
			PollAttempts:     v.GetUint("MLFLOW_POLL_ATTEMPTS"),
		},
		HTTP: HTTPClientConfig{
			Timeout:    parseDuration(v.GetString("HTTP_TIMEOUT"), 30*time.Second),
			MaxRetries: v.GetInt("HTTP_MAX_RETRIES"),
			RetryWait:  parseDuration(v.GetString("HTTP_RETRY_WAIT"), 300*time.Millisecond),
		},
		Artifact: ArtifactConfig{
			Region:       v.GetString("ARTIFACT_REGION"),
			Endpoint:     v.GetString("ARTIFACT_ENDPOINT"),
			UsePathStyle: v.GetBool("ARTIFACT_USE_PATH_STYLE"),
			LoadDir:      v.GetString("ARTIFACT_LOAD_DIR"),
		},
		Database: DatabaseConfig{
			Enabled:         v.GetBool("DATABASE_ENABLED"),
			Host:            v.GetString("DATABASE_HOST"),
			Port:            v.GetInt("DATABASE_PORT"),
			User:            v.GetString("DATABASE_USER"),
			Password:        v.GetString("DATABASE_PASSWORD"),
			Name:            v.GetString("DATABASE_NAME"),
			SSLMode:         v.GetString("DATABASE_SSLMODE"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: parseDuration(v.GetString("DATABASE_CONN_MAX_LIFETIME"), 30*time.Minute),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
	}

	return cfg, nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envVersionURL         = "CB_VERSION_URL"
	envArtifactPath       = "CB_ARTIFACT_PATH"
	envComposeFile        = "CB_COMPOSE_FILE"
	envService            = "CB_SERVICE"
	envHealthURL          = "CB_HEALTH_URL"
	envHealthAttempts     = "CB_HEALTH_ATTEMPTS"
	envHealthInterval     = "CB_HEALTH_INTERVAL"
	envMetadataURL        = "CB_METADATA_URL"
	envBackupDir          = "CB_BACKUP_DIR"
	envBackupVolume       = "CB_BACKUP_VOLUME"
	envDataVolume         = "CB_DATA_VOLUME"
	envStrictVolumeBackup = "CB_STRICT_VOLUME_BACKUP"
	envLockFile           = "CB_LOCK_FILE"
	envHistoryFile        = "CB_HISTORY_FILE"
	envMetricsFile        = "CB_METRICS_FILE"
	envSlackWebhookURL    = "CB_SLACK_WEBHOOK_URL"
	envWebhookURL         = "CB_WEBHOOK_URL"
	envHTTPTimeout        = "CB_HTTP_TIMEOUT"
	envDockerHost         = "CB_DOCKER_HOST"
)

const (
	defaultArtifactPath   = "Dockerfile"
	defaultComposeFile    = "docker-compose.yml"
	defaultService        = "jenkins"
	defaultHealthURL      = "http://localhost:8080/login"
	defaultHealthAttempts = 12
	defaultHealthInterval = 10 * time.Second
	defaultBackupDir      = "backups"
	defaultLockFile       = ".compose-bump.lock"
	defaultHistoryFile    = "backups/history.json"
	defaultHTTPTimeout    = 10 * time.Second
)

// Config describes runtime configuration loaded from the environment.
type Config struct {
	VersionURL         string
	ArtifactPath       string
	ComposeFile        string
	Service            string
	HealthURL          string
	HealthAttempts     int
	HealthInterval     time.Duration
	MetadataURL        string
	BackupDir          string
	BackupVolume       string
	DataVolume         string
	StrictVolumeBackup bool
	LockFile           string
	HistoryFile        string
	MetricsFile        string
	SlackWebhookURL    string
	WebhookURL         string
	HTTPTimeout        time.Duration
	DockerHost         string
}

// Load reads configuration from environment variables and a local .env
// file if present. Existing environment variables take precedence over
// values in .env.
func Load() (Config, error) {
	if err := loadDotEnvIfPresent(".env"); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ArtifactPath:   defaultArtifactPath,
		ComposeFile:    defaultComposeFile,
		Service:        defaultService,
		HealthURL:      defaultHealthURL,
		HealthAttempts: defaultHealthAttempts,
		HealthInterval: defaultHealthInterval,
		BackupDir:      defaultBackupDir,
		LockFile:       defaultLockFile,
		HistoryFile:    defaultHistoryFile,
		HTTPTimeout:    defaultHTTPTimeout,
	}

	stringVars := []struct {
		key  string
		dest *string
	}{
		{envVersionURL, &cfg.VersionURL},
		{envArtifactPath, &cfg.ArtifactPath},
		{envComposeFile, &cfg.ComposeFile},
		{envService, &cfg.Service},
		{envHealthURL, &cfg.HealthURL},
		{envMetadataURL, &cfg.MetadataURL},
		{envBackupDir, &cfg.BackupDir},
		{envBackupVolume, &cfg.BackupVolume},
		{envDataVolume, &cfg.DataVolume},
		{envLockFile, &cfg.LockFile},
		{envHistoryFile, &cfg.HistoryFile},
		{envMetricsFile, &cfg.MetricsFile},
		{envSlackWebhookURL, &cfg.SlackWebhookURL},
		{envWebhookURL, &cfg.WebhookURL},
		{envDockerHost, &cfg.DockerHost},
	}
	for _, v := range stringVars {
		if value, ok := lookupTrimmed(v.key); ok {
			*v.dest = value
		}
	}

	if value, ok := lookupTrimmed(envHealthAttempts); ok {
		attempts, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envHealthAttempts, err)
		}
		if attempts <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than zero", envHealthAttempts)
		}
		cfg.HealthAttempts = attempts
	}

	if value, ok := lookupTrimmed(envHealthInterval); ok {
		interval, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envHealthInterval, err)
		}
		if interval <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than zero", envHealthInterval)
		}
		cfg.HealthInterval = interval
	}

	if value, ok := lookupTrimmed(envHTTPTimeout); ok {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envHTTPTimeout, err)
		}
		if timeout <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than zero", envHTTPTimeout)
		}
		cfg.HTTPTimeout = timeout
	}

	if value, ok := lookupTrimmed(envStrictVolumeBackup); ok {
		strict, err := strconv.ParseBool(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envStrictVolumeBackup, err)
		}
		cfg.StrictVolumeBackup = strict
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	urlVars := []struct {
		name  string
		value string
	}{
		{envVersionURL, c.VersionURL},
		{envHealthURL, c.HealthURL},
		{envMetadataURL, c.MetadataURL},
		{envSlackWebhookURL, c.SlackWebhookURL},
		{envWebhookURL, c.WebhookURL},
	}
	for _, v := range urlVars {
		if v.value == "" {
			continue
		}
		if err := validateURL(v.value, v.name); err != nil {
			return err
		}
	}
	return nil
}

func lookupTrimmed(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func loadDotEnvIfPresent(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return nil
	}

	return err
}

func validateURL(value, name string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid %s: must include scheme and host", name)
	}
	return nil
}

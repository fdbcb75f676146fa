package config

import (
	"os"
	"strings"

	"github.com/wysokinskinorbert/BIAI-sub002/internal/runinfo"

	"gopkg.in/yaml.v3"
)

// Config captures all runtime options for the query engine.
type Config struct {
	DSN                 string             `yaml:"dsn"`
	Database            string             `yaml:"database"`
	Dialect             string             `yaml:"dialect"`
	MaxRetries          int                `yaml:"max_retries"`
	StatementTimeoutMs  int                `yaml:"statement_timeout_ms"`
	GenerationTimeoutMs int                `yaml:"generation_timeout_ms"`
	MaxResultRows       int                `yaml:"max_result_rows"`
	Generator           GeneratorConfig    `yaml:"generator"`
	Audit               AuditConfig        `yaml:"audit"`
	Storage             StorageConfig      `yaml:"storage"`
	Logging             Logging            `yaml:"logging"`
	RunInfo             *runinfo.BasicInfo `yaml:"-"`
}

// GeneratorConfig configures the external SQL generation service.
type GeneratorConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Model     string `yaml:"model"`
	AuthToken string `yaml:"auth_token"`
}

// AuditConfig controls per-session audit case reporting.
type AuditConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
	Archive   bool   `yaml:"archive"`
}

// Logging controls stdout logging behavior.
type Logging struct {
	Verbose bool   `yaml:"verbose"`
	LogFile string `yaml:"log_file"`
}

// StorageConfig holds external storage settings for audit uploads.
type StorageConfig struct {
	S3  S3Config  `yaml:"s3"`
	GCS GCSConfig `yaml:"gcs"`
}

// CloudEnabled reports whether any cloud storage backend is enabled.
func (s StorageConfig) CloudEnabled() bool {
	return s.GCS.Enabled || s.S3.Enabled
}

// S3Config configures S3 uploads (legacy and S3-compatible endpoints).
type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// GCSConfig configures GCS uploads.
type GCSConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

// Load reads configuration from a YAML file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	normalizeConfig(&cfg)
	cfg.RunInfo = runinfo.FromEnv()
	return cfg, nil
}

const (
	maxRetriesDefault          = 5
	statementTimeoutMsDefault  = 15000
	generationTimeoutMsDefault = 60000
	maxResultRowsDefault       = 200
)

func normalizeConfig(cfg *Config) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = maxRetriesDefault
	}
	if cfg.StatementTimeoutMs <= 0 {
		cfg.StatementTimeoutMs = statementTimeoutMsDefault
	}
	if cfg.GenerationTimeoutMs <= 0 {
		cfg.GenerationTimeoutMs = generationTimeoutMsDefault
	}
	if cfg.MaxResultRows <= 0 {
		cfg.MaxResultRows = maxResultRowsDefault
	}
	if cfg.Dialect == "" {
		cfg.Dialect = "mysql"
	}
	cfg.Dialect = strings.ToLower(strings.TrimSpace(cfg.Dialect))
	if cfg.Audit.OutputDir == "" {
		cfg.Audit.OutputDir = "reports"
	}
	if cfg.Database != "" {
		cfg.DSN = ensureDatabaseInDSN(cfg.DSN, cfg.Database)
	}
}

func ensureDatabaseInDSN(dsn string, dbName string) string {
	if dsn == "" || dbName == "" {
		return dsn
	}
	slash := strings.Index(dsn, "/")
	if slash < 0 {
		return dsn
	}
	query := strings.Index(dsn[slash+1:], "?")
	if query >= 0 {
		query = slash + 1 + query
	}
	afterSlash := dsn[slash+1:]
	if query >= 0 {
		afterSlash = dsn[slash+1 : query]
	}
	if strings.TrimSpace(afterSlash) != "" {
		return dsn
	}
	if query >= 0 {
		return dsn[:slash+1] + dbName + dsn[query:]
	}
	return dsn + dbName
}

// AdminDSN strips the database name from a DSN while preserving query parameters.
func AdminDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	slash := strings.Index(dsn, "/")
	if slash < 0 {
		return dsn
	}
	query := strings.Index(dsn[slash+1:], "?")
	if query >= 0 {
		query = slash + 1 + query
		return dsn[:slash+1] + dsn[query:]
	}
	return dsn[:slash+1]
}

func defaultConfig() Config {
	return Config{
		DSN:                 "root:@tcp(127.0.0.1:3306)/",
		Database:            "biai",
		Dialect:             "mysql",
		MaxRetries:          maxRetriesDefault,
		StatementTimeoutMs:  statementTimeoutMsDefault,
		GenerationTimeoutMs: generationTimeoutMsDefault,
		MaxResultRows:       maxResultRowsDefault,
		Audit: AuditConfig{
			OutputDir: "reports",
			Archive:   true,
		},
		Logging: Logging{
			LogFile: "logs/biai.log",
		},
	}
}

package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/flashfusion/forge/pkg/adapter"
	"github.com/flashfusion/forge/pkg/repository"
	"github.com/flashfusion/forge/pkg/usecase/analytics"
	"github.com/flashfusion/forge/pkg/usecase/export"
	"github.com/flashfusion/forge/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// logConfig is shared by all commands through the root flags
type logConfig struct {
	level  string
	format string
}

func logFlags(cfg *logConfig) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("FORGE_LOG_LEVEL"),
			Destination: &cfg.level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       string(logging.FormatConsole),
			Sources:     cli.EnvVars("FORGE_LOG_FORMAT"),
			Destination: &cfg.format,
		},
	}
}

// newLogger creates the logger used by commands. Logs go to stderr.
func (cfg *logConfig) newLogger() *slog.Logger {
	return logging.New(cfg.level, os.Stderr, logging.WithFormat(logging.Format(cfg.format)))
}

// withLogger installs the configured logger as default and into ctx
func (cfg *logConfig) withLogger(ctx context.Context) context.Context {
	logger := cfg.newLogger()
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// config holds configuration values
type config struct {
	// History storage
	store    string
	dataDir  string
	project  string
	database string

	redisAddr     string
	redisPassword string
	redisDB       int64

	// Gemini
	geminiProject  string
	geminiLocation string
	geminiModel    string
}

// storeFlags returns flags selecting the key-value backend for history
func storeFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "store",
			Usage:       "History storage backend (file, memory, firestore, redis)",
			Value:       "file",
			Sources:     cli.EnvVars("FORGE_STORE"),
			Destination: &cfg.store,
		},
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory for the file storage backend",
			Value:       defaultDataDir(),
			Sources:     cli.EnvVars("FORGE_DATA_DIR"),
			Destination: &cfg.dataDir,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "redis-addr",
			Usage:       "Redis address (host:port)",
			Sources:     cli.EnvVars("FORGE_REDIS_ADDR"),
			Destination: &cfg.redisAddr,
		},
		&cli.StringFlag{
			Name:        "redis-password",
			Usage:       "Redis password",
			Sources:     cli.EnvVars("FORGE_REDIS_PASSWORD"),
			Destination: &cfg.redisPassword,
		},
		&cli.IntFlag{
			Name:        "redis-db",
			Usage:       "Redis database number",
			Sources:     cli.EnvVars("FORGE_REDIS_DB"),
			Destination: &cfg.redisDB,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "forge")
	}
	return ".forge"
}

// newKVStore creates the history backend. The returned function releases it.
func (cfg *config) newKVStore(ctx context.Context) (repository.KVStore, func(), error) {
	nop := func() {}

	switch cfg.store {
	case "memory":
		return repository.NewMemory(), nop, nil

	case "file", "":
		kv, err := repository.NewFile(cfg.dataDir)
		if err != nil {
			return nil, nop, goerr.Wrap(err, "failed to create file store")
		}
		return kv, nop, nil

	case "firestore":
		if cfg.project == "" {
			return nil, nop, goerr.New("project is required for firestore store")
		}
		if cfg.database == "" {
			return nil, nop, goerr.New("database is required for firestore store")
		}
		kv, err := repository.NewFirestore(ctx, cfg.project, cfg.database)
		if err != nil {
			return nil, nop, goerr.Wrap(err, "failed to create firestore store")
		}
		return kv, func() { kv.Close() }, nil

	case "redis":
		if cfg.redisAddr == "" {
			return nil, nop, goerr.New("redis-addr is required for redis store")
		}
		kv, err := repository.NewRedis(ctx, cfg.redisAddr, cfg.redisPassword, int(cfg.redisDB))
		if err != nil {
			return nil, nop, goerr.Wrap(err, "failed to create redis store")
		}
		return kv, func() { kv.Close() }, nil
	}

	return nil, nop, goerr.New("unknown store", goerr.V("store", cfg.store))
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}
	gemini, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation,
		adapter.WithGenerativeModel(cfg.geminiModel))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return gemini, nil
}

// sinkConfig selects where exported archives are written
type sinkConfig struct {
	outputDir string
	prefix    string

	gcsBucket string

	s3Bucket    string
	s3Endpoint  string
	s3Region    string
	s3AccessKey string
	s3SecretKey string
}

func sinkFlags(cfg *sinkConfig) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "output-dir",
			Aliases:     []string{"o"},
			Usage:       "Directory to write the archive to",
			Value:       ".",
			Sources:     cli.EnvVars("FORGE_EXPORT_DIR"),
			Destination: &cfg.outputDir,
		},
		&cli.StringFlag{
			Name:        "prefix",
			Usage:       "Object key prefix for remote sinks",
			Value:       "exports/",
			Sources:     cli.EnvVars("FORGE_EXPORT_PREFIX"),
			Destination: &cfg.prefix,
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Cloud Storage bucket to upload the archive to",
			Sources:     cli.EnvVars("FORGE_GCS_BUCKET"),
			Destination: &cfg.gcsBucket,
		},
		&cli.StringFlag{
			Name:        "s3-bucket",
			Usage:       "S3 bucket to upload the archive to",
			Sources:     cli.EnvVars("FORGE_S3_BUCKET"),
			Destination: &cfg.s3Bucket,
		},
		&cli.StringFlag{
			Name:        "s3-endpoint",
			Usage:       "S3-compatible endpoint URL",
			Sources:     cli.EnvVars("FORGE_S3_ENDPOINT"),
			Destination: &cfg.s3Endpoint,
		},
		&cli.StringFlag{
			Name:        "s3-region",
			Usage:       "S3 region",
			Sources:     cli.EnvVars("FORGE_S3_REGION", "AWS_REGION"),
			Destination: &cfg.s3Region,
		},
		&cli.StringFlag{
			Name:        "s3-access-key",
			Usage:       "S3 access key",
			Sources:     cli.EnvVars("FORGE_S3_ACCESS_KEY", "AWS_ACCESS_KEY_ID"),
			Destination: &cfg.s3AccessKey,
		},
		&cli.StringFlag{
			Name:        "s3-secret-key",
			Usage:       "S3 secret key",
			Sources:     cli.EnvVars("FORGE_S3_SECRET_KEY", "AWS_SECRET_ACCESS_KEY"),
			Destination: &cfg.s3SecretKey,
		},
	}
}

// newSink creates the archive sink. A remote bucket takes precedence over
// the output directory.
func (cfg *sinkConfig) newSink(ctx context.Context) (export.Sink, error) {
	if cfg.gcsBucket != "" && cfg.s3Bucket != "" {
		return nil, goerr.New("gcs-bucket and s3-bucket are mutually exclusive")
	}

	switch {
	case cfg.gcsBucket != "":
		storage, err := adapter.NewStorage(ctx, cfg.gcsBucket)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create storage")
		}
		return export.NewStorageSink(storage, cfg.prefix), nil

	case cfg.s3Bucket != "":
		client, err := adapter.NewS3(adapter.S3Config{
			Endpoint:  cfg.s3Endpoint,
			Region:    cfg.s3Region,
			AccessKey: cfg.s3AccessKey,
			SecretKey: cfg.s3SecretKey,
			Bucket:    cfg.s3Bucket,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create s3 client")
		}
		return export.NewS3Sink(client, cfg.prefix), nil
	}

	return export.NewDirSink(cfg.outputDir), nil
}

// analyticsConfig selects the analytics data source and dashboard settings
type analyticsConfig struct {
	source     string
	configFile string

	bigqueryProject string
	bigqueryDataset string

	refreshInterval time.Duration
	maxTools        int64
	timeRange       string
}

func analyticsFlags(cfg *analyticsConfig) []cli.Flag {
	def := analytics.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "source",
			Usage:       "Analytics data source (sample, bigquery)",
			Value:       "sample",
			Sources:     cli.EnvVars("FORGE_ANALYTICS_SOURCE"),
			Destination: &cfg.source,
		},
		&cli.StringFlag{
			Name:        "analytics-config",
			Usage:       "YAML file with dashboard settings",
			Sources:     cli.EnvVars("FORGE_ANALYTICS_CONFIG"),
			Destination: &cfg.configFile,
		},
		&cli.StringFlag{
			Name:        "bigquery-project",
			Usage:       "Google Cloud project ID for BigQuery",
			Sources:     cli.EnvVars("FORGE_BIGQUERY_PROJECT", "GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.bigqueryProject,
		},
		&cli.StringFlag{
			Name:        "bigquery-dataset",
			Usage:       "BigQuery dataset holding analytics tables",
			Value:       "forge_analytics",
			Sources:     cli.EnvVars("FORGE_BIGQUERY_DATASET"),
			Destination: &cfg.bigqueryDataset,
		},
		&cli.DurationFlag{
			Name:        "refresh-interval",
			Usage:       "Dashboard refresh interval",
			Value:       def.RefreshInterval,
			Sources:     cli.EnvVars("FORGE_ANALYTICS_REFRESH_INTERVAL"),
			Destination: &cfg.refreshInterval,
		},
		&cli.IntFlag{
			Name:        "max-tools",
			Usage:       "Maximum number of tools shown",
			Value:       int64(def.MaxTools),
			Sources:     cli.EnvVars("FORGE_ANALYTICS_MAX_TOOLS"),
			Destination: &cfg.maxTools,
		},
		&cli.StringFlag{
			Name:        "range",
			Aliases:     []string{"r"},
			Usage:       "Time range (7d, 30d, 90d)",
			Value:       def.TimeRange,
			Sources:     cli.EnvVars("FORGE_ANALYTICS_RANGE"),
			Destination: &cfg.timeRange,
		},
	}
}

// dashboardConfig loads the YAML file if given and applies flags that were
// set explicitly on top of it
func (cfg *analyticsConfig) dashboardConfig(c *cli.Command) (analytics.Config, error) {
	dc := analytics.DefaultConfig()
	if cfg.configFile != "" {
		loaded, err := analytics.LoadConfig(cfg.configFile)
		if err != nil {
			return dc, err
		}
		dc = loaded
	}

	if cfg.configFile == "" || c.IsSet("refresh-interval") {
		dc.RefreshInterval = cfg.refreshInterval
	}
	if cfg.configFile == "" || c.IsSet("max-tools") {
		dc.MaxTools = int(cfg.maxTools)
	}
	if cfg.configFile == "" || c.IsSet("range") {
		dc.TimeRange = cfg.timeRange
	}
	return dc, nil
}

func (cfg *analyticsConfig) newAnalyticsSource(ctx context.Context) (analytics.Source, error) {
	switch cfg.source {
	case "sample", "":
		return analytics.NewSampleSource(), nil

	case "bigquery":
		if cfg.bigqueryProject == "" {
			return nil, goerr.New("bigquery-project is required for bigquery source")
		}
		bq, err := adapter.NewBigQuery(ctx, cfg.bigqueryProject)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create bigquery client")
		}
		return analytics.NewBigQuerySource(bq, cfg.bigqueryDataset), nil
	}

	return nil, goerr.New("unknown analytics source", goerr.V("source", cfg.source))
}

func (cfg *analyticsConfig) newService(ctx context.Context, c *cli.Command) (*analytics.Service, error) {
	dc, err := cfg.dashboardConfig(c)
	if err != nil {
		return nil, err
	}
	src, err := cfg.newAnalyticsSource(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.New(src, dc)
}

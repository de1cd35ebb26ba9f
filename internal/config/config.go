package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full pipeline configuration, loaded from config.yaml
// with TRIPS_* environment overrides.
type Config struct {
	App       AppConfig
	Logging   LoggingConfig
	Pipeline  PipelineConfig
	Warehouse WarehouseConfig
	Export    ExportConfig
	Metrics   MetricsConfig
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type PipelineConfig struct {
	// InputPath is the raw trips CSV consumed by the run
	InputPath string `mapstructure:"input_path"`
	// OutputDir receives the exported view CSVs and JSON reports
	OutputDir string `mapstructure:"output_dir"`
	// RegionLabel fills the location name columns of dim_location
	RegionLabel string `mapstructure:"region_label"`
}

type WarehouseConfig struct {
	Driver string `mapstructure:"driver"`

	// Path is the sqlite database file, or ":memory:"
	Path string `mapstructure:"path"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type ExportConfig struct {
	// Excel enables the single-workbook report alongside the CSV/JSON artifacts
	Excel     bool   `mapstructure:"excel"`
	ExcelFile string `mapstructure:"excel_file"`

	ObjectStore ObjectStoreConfig `mapstructure:"object_store"`
}

// ObjectStoreConfig enables artifact upload to an S3-compatible bucket
// when Endpoint is set.
type ObjectStoreConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type MetricsConfig struct {
	// PushgatewayURL enables a metrics push at the end of the run when set
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// LoadConfig reads configuration from config.yaml and the environment
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/trips-platform/")

	v.SetEnvPrefix("TRIPS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// Defaults plus environment are a complete configuration
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "trips-platform")
	v.SetDefault("app.version", "1.0.0")

	v.SetDefault("logging.level", "info")

	v.SetDefault("pipeline.input_path", "data/raw/trips.csv")
	v.SetDefault("pipeline.output_dir", "data/processed")
	v.SetDefault("pipeline.region_label", "NYC Area")

	v.SetDefault("warehouse.driver", "sqlite")
	v.SetDefault("warehouse.path", "data/warehouse/trips.db")
	v.SetDefault("warehouse.host", "localhost")
	v.SetDefault("warehouse.port", 5432)
	v.SetDefault("warehouse.user", "trips_user")
	v.SetDefault("warehouse.password", "")
	v.SetDefault("warehouse.database", "trips")
	v.SetDefault("warehouse.ssl_mode", "disable")
	v.SetDefault("warehouse.max_open_conns", 10)
	v.SetDefault("warehouse.max_idle_conns", 5)
	v.SetDefault("warehouse.conn_max_lifetime", "30m")
	v.SetDefault("warehouse.conn_max_idle_time", "5m")

	v.SetDefault("export.excel", false)
	v.SetDefault("export.excel_file", "trips_report.xlsx")
	v.SetDefault("export.object_store.endpoint", "")
	v.SetDefault("export.object_store.access_key", "")
	v.SetDefault("export.object_store.secret_key", "")
	v.SetDefault("export.object_store.bucket", "trips-reports")
	v.SetDefault("export.object_store.use_ssl", false)

	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "trips_pipeline")
}

// Validate checks the configuration for internal consistency
func (c *Config) Validate() error {
	if c.Pipeline.InputPath == "" {
		return fmt.Errorf("pipeline input path must not be empty")
	}
	if c.Pipeline.OutputDir == "" {
		return fmt.Errorf("pipeline output dir must not be empty")
	}

	switch c.Warehouse.Driver {
	case "sqlite":
		if c.Warehouse.Path == "" {
			return fmt.Errorf("sqlite warehouse path must not be empty")
		}
	case "postgres":
		if c.Warehouse.Host == "" {
			return fmt.Errorf("postgres warehouse host must not be empty")
		}
		if c.Warehouse.User == "" {
			return fmt.Errorf("postgres warehouse user must not be empty")
		}
		if c.Warehouse.Database == "" {
			return fmt.Errorf("postgres warehouse database must not be empty")
		}
	default:
		return fmt.Errorf("unsupported warehouse driver %q", c.Warehouse.Driver)
	}

	if c.Export.Excel && c.Export.ExcelFile == "" {
		return fmt.Errorf("excel export enabled but excel file name is empty")
	}
	if c.Export.ObjectStore.Endpoint != "" && c.Export.ObjectStore.Bucket == "" {
		return fmt.Errorf("object store endpoint set but bucket is empty")
	}
	if c.Metrics.PushgatewayURL != "" && c.Metrics.Job == "" {
		return fmt.Errorf("pushgateway URL set but metrics job is empty")
	}

	return nil
}

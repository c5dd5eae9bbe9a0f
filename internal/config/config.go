// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Risk      RiskConfig      `yaml:"risk" mapstructure:"risk"`
	Reference ReferenceConfig `yaml:"reference" mapstructure:"reference"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
}

// StoreConfig configures the registry store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`             // sqlite, postgres, or memory
	Path        string `yaml:"path" mapstructure:"path"`                 // sqlite file path
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"` // postgres connection string
}

// ServerConfig configures the kiosk HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RatePerSecond  float64  `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ReferenceConfig points at an optional YAML override for the built-in
// crop/soil/rate tables.
type ReferenceConfig struct {
	TablesPath string `yaml:"tables_path" mapstructure:"tables_path"`
}

// BatchConfig configures bulk evaluation.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// RiskConfig holds every factor weight, the quantity ratio bands, and the
// decision thresholds. The defaults are the canonical weight table; historical
// datasets that scored an inactive license at 30 or identity at 60/40 are
// expressed as explicit overrides here, never averaged in. Changing a default
// needs product-owner sign-off.
type RiskConfig struct {
	FarmerMissingWeight        int `yaml:"farmer_missing_weight" mapstructure:"farmer_missing_weight"`
	DealerMissingWeight        int `yaml:"dealer_missing_weight" mapstructure:"dealer_missing_weight"`
	LicenseInactiveWeight      int `yaml:"license_inactive_weight" mapstructure:"license_inactive_weight"`
	NoDeclaredCropWeight       int `yaml:"no_declared_crop_weight" mapstructure:"no_declared_crop_weight"`
	NoRegisteredCropWeight     int `yaml:"no_registered_crop_weight" mapstructure:"no_registered_crop_weight"`
	CropMismatchWeight         int `yaml:"crop_mismatch_weight" mapstructure:"crop_mismatch_weight"`
	CropUnrecognizedWeight     int `yaml:"crop_unrecognized_weight" mapstructure:"crop_unrecognized_weight"`
	SoilUnrecognizedWeight     int `yaml:"soil_unrecognized_weight" mapstructure:"soil_unrecognized_weight"`
	CropSoilMismatchWeight     int `yaml:"crop_soil_mismatch_weight" mapstructure:"crop_soil_mismatch_weight"`
	VillageMismatchWeight      int `yaml:"village_mismatch_weight" mapstructure:"village_mismatch_weight"`
	NoRelationshipWeight       int `yaml:"no_relationship_weight" mapstructure:"no_relationship_weight"`
	InactiveRelationshipWeight int `yaml:"inactive_relationship_weight" mapstructure:"inactive_relationship_weight"`
	TxnLimitWeight             int `yaml:"txn_limit_weight" mapstructure:"txn_limit_weight"`
	QuantityExtremeWeight      int `yaml:"quantity_extreme_weight" mapstructure:"quantity_extreme_weight"`
	QuantityExcessWeight       int `yaml:"quantity_excess_weight" mapstructure:"quantity_excess_weight"`
	QuantitySlightWeight       int `yaml:"quantity_slight_weight" mapstructure:"quantity_slight_weight"`
	QuantityLowWeight          int `yaml:"quantity_low_weight" mapstructure:"quantity_low_weight"`

	// Claimed/expected ratio band edges, high bands checked first.
	ExtremeRatio float64 `yaml:"extreme_ratio" mapstructure:"extreme_ratio"`
	ExcessRatio  float64 `yaml:"excess_ratio" mapstructure:"excess_ratio"`
	SlightRatio  float64 `yaml:"slight_ratio" mapstructure:"slight_ratio"`
	LowRatio     float64 `yaml:"low_ratio" mapstructure:"low_ratio"`

	// Decision thresholds, exclusive on the low side: a score must exceed the
	// threshold to land in the band above it (60 is MONITOR, 61 is REVIEW).
	BlockAbove   int `yaml:"block_above" mapstructure:"block_above"`
	ReviewAbove  int `yaml:"review_above" mapstructure:"review_above"`
	MonitorAbove int `yaml:"monitor_above" mapstructure:"monitor_above"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AGRIGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "agriguard.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_per_second", 10)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("batch.max_concurrent", 8)

	v.SetDefault("risk.farmer_missing_weight", 60)
	v.SetDefault("risk.dealer_missing_weight", 80)
	v.SetDefault("risk.license_inactive_weight", 40)
	v.SetDefault("risk.no_declared_crop_weight", 30)
	v.SetDefault("risk.no_registered_crop_weight", 30)
	v.SetDefault("risk.crop_mismatch_weight", 40)
	v.SetDefault("risk.crop_unrecognized_weight", 40)
	v.SetDefault("risk.soil_unrecognized_weight", 30)
	v.SetDefault("risk.crop_soil_mismatch_weight", 25)
	v.SetDefault("risk.village_mismatch_weight", 20)
	v.SetDefault("risk.no_relationship_weight", 50)
	v.SetDefault("risk.inactive_relationship_weight", 40)
	v.SetDefault("risk.txn_limit_weight", 30)
	v.SetDefault("risk.quantity_extreme_weight", 40)
	v.SetDefault("risk.quantity_excess_weight", 25)
	v.SetDefault("risk.quantity_slight_weight", 10)
	v.SetDefault("risk.quantity_low_weight", 20)
	v.SetDefault("risk.extreme_ratio", 1.8)
	v.SetDefault("risk.excess_ratio", 1.4)
	v.SetDefault("risk.slight_ratio", 1.1)
	v.SetDefault("risk.low_ratio", 0.6)
	v.SetDefault("risk.block_above", 80)
	v.SetDefault("risk.review_above", 60)
	v.SetDefault("risk.monitor_above", 30)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

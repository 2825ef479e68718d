package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/quantedge/options-risk-engine/pkg/utils/errors"
)

// Config is the full engine configuration, loaded from file and environment.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	API        APIConfig        `mapstructure:"api"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Engine     EngineConfig     `mapstructure:"engine"`
	MonteCarlo MonteCarloConfig `mapstructure:"monte_carlo"`
	Risk       RiskConfig       `mapstructure:"risk"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type KafkaConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	Brokers       []string `mapstructure:"brokers"`
	InputTopic    string   `mapstructure:"input_topic"`
	ReportTopic   string   `mapstructure:"report_topic"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// EngineConfig holds pricing model parameters.
type EngineConfig struct {
	RiskFreeRate      float64 `mapstructure:"risk_free_rate"`
	DefaultVolatility float64 `mapstructure:"default_volatility"`
	DividendYield     float64 `mapstructure:"dividend_yield"`
}

// MonteCarloConfig controls the path simulator.
type MonteCarloConfig struct {
	NumPaths    int   `mapstructure:"num_paths"`
	NumDays     int   `mapstructure:"num_days"`
	Seed        int64 `mapstructure:"seed"`
	Antithetic  bool  `mapstructure:"antithetic"`
	SamplePaths int   `mapstructure:"sample_paths"`
}

// RiskConfig holds advisor thresholds and score bands.
type RiskConfig struct {
	DeltaNeutralThreshold  float64 `mapstructure:"delta_neutral_threshold"`
	ConcentrationWarning   float64 `mapstructure:"concentration_warning"`
	ThetaDecayWarning      float64 `mapstructure:"theta_decay_warning"`
	VaRWarning             float64 `mapstructure:"var_warning"`
	VegaWarning            float64 `mapstructure:"vega_warning"`
	LossProbabilityWarning float64 `mapstructure:"loss_probability_warning"`
	ExpiryWindowDays       int     `mapstructure:"expiry_window_days"`
	ProfitTakePct          float64 `mapstructure:"profit_take_pct"`
	StopLossPct            float64 `mapstructure:"stop_loss_pct"`

	ScoreMedium   float64 `mapstructure:"score_medium"`
	ScoreHigh     float64 `mapstructure:"score_high"`
	ScoreCritical float64 `mapstructure:"score_critical"`
}

// Load reads configuration from config.yaml (if present) and RISKENGINE_*
// environment variables, on top of the built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/risk-engine")

	v.SetEnvPrefix("RISKENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "options-risk-engine")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.input_topic", "portfolio-updates")
	v.SetDefault("kafka.report_topic", "risk-reports")
	v.SetDefault("kafka.consumer_group", "risk-engine")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("engine.risk_free_rate", 0.05)
	v.SetDefault("engine.default_volatility", 0.30)
	v.SetDefault("engine.dividend_yield", 0.0)

	v.SetDefault("monte_carlo.num_paths", 10000)
	v.SetDefault("monte_carlo.num_days", 21)
	v.SetDefault("monte_carlo.seed", 0)
	v.SetDefault("monte_carlo.antithetic", true)
	v.SetDefault("monte_carlo.sample_paths", 20)

	v.SetDefault("risk.delta_neutral_threshold", 0.10)
	v.SetDefault("risk.concentration_warning", 0.25)
	v.SetDefault("risk.theta_decay_warning", 0.002)
	v.SetDefault("risk.var_warning", 0.05)
	v.SetDefault("risk.vega_warning", 0.02)
	v.SetDefault("risk.loss_probability_warning", 0.60)
	v.SetDefault("risk.expiry_window_days", 7)
	v.SetDefault("risk.profit_take_pct", 0.50)
	v.SetDefault("risk.stop_loss_pct", -0.50)

	v.SetDefault("risk.score_medium", 40)
	v.SetDefault("risk.score_high", 60)
	v.SetDefault("risk.score_critical", 80)
}

func (c *Config) validate() error {
	if c.MonteCarlo.NumPaths <= 0 {
		return errors.Validation("monte_carlo.num_paths", "must be positive")
	}
	if c.MonteCarlo.NumDays <= 0 {
		return errors.Validation("monte_carlo.num_days", "must be positive")
	}
	if c.Engine.DefaultVolatility <= 0 {
		return errors.Validation("engine.default_volatility", "must be positive")
	}
	if !(c.Risk.ScoreMedium < c.Risk.ScoreHigh && c.Risk.ScoreHigh < c.Risk.ScoreCritical) {
		return errors.Validation("risk", "score bands must be strictly increasing")
	}
	return nil
}

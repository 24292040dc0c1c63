package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORS            bool          `yaml:"cors" default:"true"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"2s"`
	} `yaml:"server"`
	Log struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format     string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output     string `yaml:"output" default:"stdout"`
		TimeFormat string `yaml:"time_format"`
		Digest     struct {
			Enabled  bool          `yaml:"enabled"`
			Topic    string        `yaml:"topic" default:"courtedge.logs"`
			Interval time.Duration `yaml:"interval" default:"30s"`
			MaxKeys  int           `yaml:"max_keys" default:"100"`
		} `yaml:"digest"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	StatsAPI struct {
		BaseURL    string            `yaml:"base_url" default:"https://stats.nba.com/stats" validate:"required,url"`
		Timeout    time.Duration     `yaml:"timeout" default:"30s"`
		LeagueID   string            `yaml:"league_id" default:"00"`
		Season     string            `yaml:"season"`
		SeasonType string            `yaml:"season_type"`
		Timezone   string            `yaml:"timezone" default:"America/New_York"`
		UserAgent  string            `yaml:"user_agent"`
		Headers    map[string]string `yaml:"headers"`
	} `yaml:"stats_api"`
	Provider struct {
		Backend      string `yaml:"backend" default:"stats" validate:"oneof=stats archive"`
		Archive      bool   `yaml:"archive"`
		HistoryLimit int    `yaml:"history_limit" default:"100" validate:"gte=1"`
		Queue        struct {
			Workers    int           `yaml:"workers" default:"2" validate:"gte=0"`
			Size       int           `yaml:"size" default:"256" validate:"gte=0"`
			RetryLimit int           `yaml:"retry_limit" default:"3" validate:"gte=0"`
			RetryDelay time.Duration `yaml:"retry_delay" default:"5s"`
		} `yaml:"archive_queue"`
	} `yaml:"provider"`
	Scoring struct {
		Window          int     `yaml:"window" default:"10" validate:"gte=1"`
		HomeBonus       float64 `yaml:"home_bonus" default:"0.05"`
		BackToBackCost  float64 `yaml:"back_to_back_penalty" default:"0.08" validate:"gte=0"`
		BackToBackDays  int     `yaml:"back_to_back_days" default:"1" validate:"gte=0"`
		StrongThreshold float64 `yaml:"strong_threshold" default:"0.15" validate:"gte=0,lte=1"`
		LeanThreshold   float64 `yaml:"lean_threshold" default:"0.05" validate:"gte=0,lte=1"`
	} `yaml:"scoring"`
	UI struct {
		Title            string `yaml:"title" default:"CourtEdge"`
		DefaultHomeIndex int    `yaml:"default_home_index" default:"13" validate:"gte=0"`
		DefaultAwayIndex int    `yaml:"default_away_index" default:"9" validate:"gte=0"`
		FeedEnabled      bool   `yaml:"feed_enabled" default:"true"`
	} `yaml:"ui"`
	Teams struct {
		File string `yaml:"file"`
	} `yaml:"teams"`
	Cache struct {
		Enabled       bool          `yaml:"enabled"`
		Backend       string        `yaml:"backend" default:"memory" validate:"oneof=memory redis layered"`
		TTL           time.Duration `yaml:"ttl" default:"10m"`
		MemoryMaxSize int           `yaml:"memory_max_size" default:"256"`
		Redis         struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			PoolSize int    `yaml:"pool_size" default:"10"`
			Prefix   string `yaml:"prefix" default:"courtedge"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	RateLimit struct {
		Capacity     float64 `yaml:"capacity" default:"20" validate:"gte=0"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"0.5" validate:"gte=0"`
	} `yaml:"ratelimit"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"courtedge.matchups"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"snappy" validate:"oneof=gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"courtedge"`
		Table            string        `yaml:"table" default:"team_games"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
}

var validate = validator.New()

// Load reads a YAML file, applies defaults, and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes over the defaults and validates the result.
// Defaults go first so explicit zero values (cors: false) survive.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Default returns a validated config built purely from defaults.
func Default() *Config {
	c, err := Parse(nil)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from the given lookup (os.Getenv in production).
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := getenv("STATS_API_BASE_URL"); v != "" {
		c.StatsAPI.BaseURL = v
	}
	if v := getenv("STATS_API_SEASON"); v != "" {
		c.StatsAPI.Season = v
	}
	if v := getenv("PROVIDER_BACKEND"); v != "" {
		c.Provider.Backend = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Cache.Redis.Host = host
		if ok {
			p, err := strconv.Atoi(port)
			if err != nil {
				return fmt.Errorf("REDIS_ADDR: %w", err)
			}
			c.Cache.Redis.Port = p
		}
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Scoring.StrongThreshold < c.Scoring.LeanThreshold {
		return fmt.Errorf("scoring.strong_threshold (%v) must be >= scoring.lean_threshold (%v)",
			c.Scoring.StrongThreshold, c.Scoring.LeanThreshold)
	}
	if c.Provider.HistoryLimit < c.Scoring.Window {
		return fmt.Errorf("provider.history_limit (%d) must be >= scoring.window (%d)",
			c.Provider.HistoryLimit, c.Scoring.Window)
	}
	if c.UI.DefaultHomeIndex == c.UI.DefaultAwayIndex {
		return fmt.Errorf("ui.default_home_index and ui.default_away_index must differ")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Provider.Backend == "archive" && !c.ClickHouse.Enabled {
		return fmt.Errorf("provider.backend 'archive' requires clickhouse.enabled")
	}
	if c.Provider.Archive && !c.ClickHouse.Enabled {
		return fmt.Errorf("provider.archive requires clickhouse.enabled")
	}
	if c.Log.Digest.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("log.digest requires kafka.enabled")
	}
	return nil
}

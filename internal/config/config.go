package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"letraz-jobboard/pkg/models"
)

// Sink types understood by the ingestion hand-off
const (
	SinkNone  = "none"
	SinkLog   = "log"
	SinkRedis = "redis"
	SinkNATS  = "nats"
	SinkGRPC  = "grpc"
)

// LoggingAdapter configures one logging output
type LoggingAdapter struct {
	Name    string                 `yaml:"name"`
	Type    string                 `yaml:"type"`
	Enabled bool                   `yaml:"enabled"`
	Options map[string]interface{} `yaml:"options"`
}

// Config represents the application configuration
type Config struct {
	Server struct {
		Port           int           `yaml:"port"`
		Host           string        `yaml:"host"`
		ReadTimeout    time.Duration `yaml:"read_timeout"`
		WriteTimeout   time.Duration `yaml:"write_timeout"`
		IdleTimeout    time.Duration `yaml:"idle_timeout"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
	} `yaml:"server"`

	Extraction struct {
		PlatformsFile      string        `yaml:"platforms_file"`
		RequestTimeout     time.Duration `yaml:"request_timeout"`
		MaxAttempts        int           `yaml:"max_attempts"`
		BackoffMin         time.Duration `yaml:"backoff_min"`
		BackoffMax         time.Duration `yaml:"backoff_max"`
		RateLimitPenalty   time.Duration `yaml:"rate_limit_penalty"`
		MaxBodyBytes       int64         `yaml:"max_body_bytes"`
		UserAgents         []string      `yaml:"user_agents"`
		ParallelLanes      int           `yaml:"parallel_lanes"`
		DefaultBoards      []string      `yaml:"default_boards"`
		CareerPageInterval time.Duration `yaml:"career_page_interval"`
		RunTimeout         time.Duration `yaml:"run_timeout"`
	} `yaml:"extraction"`

	Sink struct {
		Type         string `yaml:"type"`
		RedisStream  string `yaml:"redis_stream"`
		StreamMaxLen int64  `yaml:"stream_max_len"`
		NATSSubject  string `yaml:"nats_subject"`
	} `yaml:"sink"`

	Redis struct {
		URL      string        `yaml:"url"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"redis"`

	NATS struct {
		URL  string `yaml:"url"`
		Name string `yaml:"name"`
	} `yaml:"nats"`

	Callback struct {
		ServerAddress string        `yaml:"server_address"`
		Method        string        `yaml:"method"`
		Timeout       time.Duration `yaml:"timeout"`
	} `yaml:"callback"`

	Schedule struct {
		Enabled  bool                    `yaml:"enabled"`
		Spec     string                  `yaml:"spec"`
		Searches []models.ExtractRequest `yaml:"searches"`
	} `yaml:"schedule"`

	Logging struct {
		Level    string           `yaml:"level"`
		Format   string           `yaml:"format"`
		Output   string           `yaml:"output"`
		Adapters []LoggingAdapter `yaml:"adapters"`
	} `yaml:"logging"`
}

// DefaultUserAgents is the rotation pool used when none is configured
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

var (
	bracedEnvVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	bareEnvVar   = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax.
// Unset variables are left untouched.
func expandEnvVars(s string) string {
	s = bracedEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})

	return bareEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[1:]); val != "" {
			return val
		}
		return match
	})
}

// Default returns a configuration populated with built-in defaults only
func Default() *Config {
	config := &Config{}

	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 3 * time.Minute
	config.Server.IdleTimeout = 60 * time.Second
	config.Server.RequestTimeout = 150 * time.Second

	config.Extraction.RequestTimeout = 30 * time.Second
	config.Extraction.MaxAttempts = 3
	config.Extraction.BackoffMin = 2 * time.Second
	config.Extraction.BackoffMax = 5 * time.Second
	config.Extraction.RateLimitPenalty = 5 * time.Second
	config.Extraction.MaxBodyBytes = 5 << 20
	config.Extraction.UserAgents = append([]string(nil), DefaultUserAgents...)
	config.Extraction.ParallelLanes = 0
	config.Extraction.DefaultBoards = append([]string(nil), models.DefaultBoards...)
	config.Extraction.CareerPageInterval = 2 * time.Second
	config.Extraction.RunTimeout = 2 * time.Minute

	config.Sink.Type = SinkLog
	config.Sink.RedisStream = "jobboard:jobs"
	config.Sink.StreamMaxLen = 10000
	config.Sink.NATSSubject = "jobboard.jobs.extracted"

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.DB = 0
	config.Redis.Timeout = 5 * time.Second

	config.NATS.URL = "nats://localhost:4222"
	config.NATS.Name = "letraz-jobboard"

	config.Callback.Method = "/jobboard.v1.IngestionService/Ingest"
	config.Callback.Timeout = 30 * time.Second

	config.Schedule.Enabled = false
	config.Schedule.Spec = "@every 6h"

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Output = "stdout"

	return config
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), config); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
			}
		}
	}

	config.loadFromEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values that would make the engine misbehave at runtime
func (c *Config) Validate() error {
	if c.Extraction.MaxAttempts < 1 {
		return fmt.Errorf("extraction.max_attempts must be at least 1, got %d", c.Extraction.MaxAttempts)
	}
	if c.Extraction.BackoffMax < c.Extraction.BackoffMin {
		return fmt.Errorf("extraction.backoff_max (%s) is below backoff_min (%s)", c.Extraction.BackoffMax, c.Extraction.BackoffMin)
	}
	if len(c.Extraction.UserAgents) == 0 {
		return fmt.Errorf("extraction.user_agents must not be empty")
	}
	switch c.Sink.Type {
	case SinkNone, SinkLog, SinkRedis, SinkNATS:
	case SinkGRPC:
		if c.Callback.ServerAddress == "" {
			return fmt.Errorf("callback.server_address is required for the grpc sink")
		}
	default:
		return fmt.Errorf("unsupported sink type: %s", c.Sink.Type)
	}
	return nil
}

// Address returns the host:port the server listens on
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if platformsFile := os.Getenv("PLATFORMS_FILE"); platformsFile != "" {
		c.Extraction.PlatformsFile = platformsFile
	}

	if lanes := os.Getenv("PARALLEL_LANES"); lanes != "" {
		if n, err := strconv.Atoi(lanes); err == nil {
			c.Extraction.ParallelLanes = n
		}
	}

	if runTimeout := os.Getenv("RUN_TIMEOUT"); runTimeout != "" {
		if d, err := time.ParseDuration(runTimeout); err == nil {
			c.Extraction.RunTimeout = d
		}
	}

	if sinkType := os.Getenv("SINK_TYPE"); sinkType != "" {
		c.Sink.Type = strings.ToLower(sinkType)
	}

	if callbackAddr := os.Getenv("CALLBACK_SERVER_ADDRESS"); callbackAddr != "" {
		c.Callback.ServerAddress = callbackAddr
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		c.NATS.URL = natsURL
	}

	if enabled := os.Getenv("SCHEDULE_ENABLED"); enabled != "" {
		c.Schedule.Enabled = enabled == "true" || enabled == "1"
	}

	if spec := os.Getenv("SCHEDULE_SPEC"); spec != "" {
		c.Schedule.Spec = spec
	}
}

package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Env     string `yaml:"env" env:"APP_ENV" env-default:"development"`
	Addr    string `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	LogMode string `yaml:"log_mode" env:"LOG_MODE" env-default:"development"`
	Version string `yaml:"version" env:"APP_VERSION" env-default:"dev"`

	Database struct {
		Driver     string        `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
		DSN        string        `yaml:"dsn" env:"DATABASE_URL"`
		SQLitePath string        `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"javuy.db"`
		MaxOpen    int           `yaml:"max_open" env:"DB_MAX_OPEN" env-default:"20"`
		MaxIdle    int           `yaml:"max_idle" env:"DB_MAX_IDLE" env-default:"5"`
		SlowQuery  time.Duration `yaml:"slow_query" env:"DB_SLOW_QUERY" env-default:"1s"`
	} `yaml:"database"`

	Auth struct {
		JWTSecret    string        `yaml:"jwt_secret" env:"JWT_SECRET_KEY" env-default:"defaultsecret"`
		AccessTTL    time.Duration `yaml:"access_ttl" env:"ACCESS_TOKEN_TTL" env-default:"168h"`
		RefreshTTL   time.Duration `yaml:"refresh_ttl" env:"REFRESH_TOKEN_TTL" env-default:"720h"`
		BcryptCost   int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
		CookieDomain string        `yaml:"cookie_domain" env:"COOKIE_DOMAIN"`
	} `yaml:"auth"`

	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" env-separator:","`

	Runner struct {
		Mode          string        `yaml:"mode" env:"RUNNER_MODE" env-default:"piston"`
		PistonURL     string        `yaml:"piston_url" env:"PISTON_URL" env-default:"https://emkc.org/api/v2/piston/execute"`
		PistonVersion string        `yaml:"piston_version" env:"PISTON_JAVA_VERSION" env-default:"15.0.2"`
		PistonRetries int           `yaml:"piston_retries" env:"PISTON_MAX_RETRIES" env-default:"1"`
		Timeout       time.Duration `yaml:"timeout" env:"RUNNER_TIMEOUT" env-default:"20s"`
		DockerImage   string        `yaml:"docker_image" env:"RUNNER_DOCKER_IMAGE" env-default:"eclipse-temurin:17-jdk"`
		MemoryMB      int64         `yaml:"memory_mb" env:"RUNNER_MEMORY_MB" env-default:"256"`
		NanoCPUs      int64         `yaml:"nano_cpus" env:"RUNNER_NANO_CPUS" env-default:"1000000000"`
		PidsLimit     int64         `yaml:"pids_limit" env:"RUNNER_PIDS_LIMIT" env-default:"64"`
		TempRoot      string        `yaml:"temp_root" env:"RUNNER_TEMP_ROOT"`
		HostRoot      string        `yaml:"host_root" env:"RUNNER_HOST_ROOT"`
	} `yaml:"runner"`

	Storage struct {
		Mode            string `yaml:"mode" env:"OBJECT_STORAGE_MODE" env-default:"local"`
		UploadDir       string `yaml:"upload_dir" env:"UPLOAD_DIR" env-default:"uploads"`
		Bucket          string `yaml:"bucket" env:"GCS_BUCKET_NAME"`
		PublicBaseURL   string `yaml:"public_base_url" env:"OBJECT_STORAGE_PUBLIC_BASE_URL"`
		EmulatorHost    string `yaml:"emulator_host" env:"STORAGE_EMULATOR_HOST"`
		CredentialsJSON string `yaml:"-" env:"GCP_CREDENTIALS_JSON"`
		CredentialsFile string `yaml:"credentials_file" env:"GOOGLE_APPLICATION_CREDENTIALS"`
	} `yaml:"storage"`

	AvatarMode string `yaml:"avatar_mode" env:"AVATAR_MODE" env-default:"dicebear"`

	Redis struct {
		Addr      string `yaml:"addr" env:"REDIS_ADDR"`
		Password  string `yaml:"-" env:"REDIS_PASSWORD"`
		DB        int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
		KeyPrefix string `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"javuy"`
	} `yaml:"redis"`

	Otel struct {
		Enabled     bool    `yaml:"enabled" env:"OTEL_ENABLED"`
		ServiceName string  `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"javuy"`
		Endpoint    string  `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
		Headers     string  `yaml:"-" env:"OTEL_EXPORTER_OTLP_HEADERS"`
		Insecure    bool    `yaml:"insecure" env:"OTEL_EXPORTER_OTLP_INSECURE"`
		SampleRatio float64 `yaml:"sample_ratio" env:"OTEL_SAMPLER_RATIO" env-default:"0.1"`
	} `yaml:"otel"`
}

// LoadConfig reads CONFIG_PATH (YAML, overridable by env) when set, else env only.
func LoadConfig() (Config, error) {
	var cfg Config
	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "prod", "production":
		return true
	}
	return false
}

func (c Config) Validate() error {
	if c.IsProduction() && (strings.TrimSpace(c.Auth.JWTSecret) == "" || c.Auth.JWTSecret == defaultJWTSecret) {
		return errors.New("JWT_SECRET_KEY must be set in production")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Auth.BcryptCost != 0 && (c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31) {
		return fmt.Errorf("BCRYPT_COST %d out of range 4-31", c.Auth.BcryptCost)
	}
	return nil
}

// ConfigUsage lists every supported env var for --help output.
func ConfigUsage() string {
	var cfg Config
	header := "Environment variables:"
	desc, err := cleanenv.GetDescription(&cfg, &header)
	if err != nil {
		return ""
	}
	return desc
}

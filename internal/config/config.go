// Package config loads the service configuration from defaults, command
// line flags, a .env file and the environment, in increasing priority.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	GRPCAddr            string        `env:"GRPC_ADDRESS" validate:"omitempty,hostname_port"`
	LogLevel            string        `env:"LOG_LEVEL" validate:"loglevel"`
	DatabaseDSN         string        `env:"DATABASE_URL"`
	DBDriver            string        `env:"DB_DRIVER" validate:"oneof=pgx postgres"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT"`
	DBFileName          string        `env:"FILE_STORAGE_PATH" validate:"filepath"`
	SecretKey           string        `env:"SECRET_KEY" validate:"required,min=8"`
	TokenTTL            time.Duration `env:"TOKEN_TTL"`
	BcryptWorkFactor    int           `env:"BCRYPT_WORK_FACTOR" validate:"min=4,max=31"`
	TrustedSubnet       string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
	CORSOrigins         []string      `env:"CORS_ORIGINS" envSeparator:","`
	CatalogURL          string        `env:"CATALOG_URL" validate:"omitempty,url"`
	CatalogAPIKey       string        `env:"CATALOG_API_KEY"`
	CatalogTimeout      time.Duration `env:"CATALOG_TIMEOUT"`
	RedisAddr           string        `env:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	CatalogCacheTTL     time.Duration `env:"CATALOG_CACHE_TTL"`
	StaticDir           string        `env:"STATIC_DIR" validate:"omitempty,dir"`
}

func defaults() Config {
	return Config{
		RunAddr:             ":3001",
		LogLevel:            "info",
		DBDriver:            "pgx",
		DBConnectionTimeout: 10 * time.Second,
		BcryptWorkFactor:    12,
		CORSOrigins:         []string{"*"},
		CatalogTimeout:      5 * time.Second,
		CatalogCacheTTL:     10 * time.Minute,
	}
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	if path == "" {
		return true
	}
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[fieldLevel.Field().String()]
}

func (c *Config) validate() error {
	validate := validator.New()

	if err := validate.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return err
	}
	if err := validate.RegisterValidation("filepath", validateFilePath); err != nil {
		return err
	}

	return validate.Struct(c)
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	args                []string
	envFiles            []string
}

// WithDisableFlagsParsing skips command line parsing entirely.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs parses args instead of os.Args[1:].
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

// WithEnvFiles loads the given dotenv files instead of ".env".
func WithEnvFiles(files ...string) InitOption {
	return func(options *initOptions) {
		options.envFiles = files
	}
}

func (c *Config) parseFlags(args []string) error {
	flags := flag.NewFlagSet("bookbuddy", flag.ContinueOnError)
	flags.StringVar(&c.RunAddr, "a", c.RunAddr, "address and port to run the HTTP server")
	flags.StringVar(&c.GRPCAddr, "g", c.GRPCAddr, "address and port to run the gRPC server, empty to disable")
	flags.StringVar(&c.LogLevel, "l", c.LogLevel, "logger level")
	flags.StringVar(&c.DatabaseDSN, "d", c.DatabaseDSN, "database connection string")
	flags.StringVar(&c.DBFileName, "f", c.DBFileName, "JSON file used as storage when no database is configured")
	flags.StringVar(&c.SecretKey, "s", c.SecretKey, "credential signing secret")
	flags.StringVar(&c.TrustedSubnet, "t", c.TrustedSubnet, "CIDR allowed to read the internal stats")

	return flags.Parse(args)
}

// New builds the configuration.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		args:     os.Args[1:],
		envFiles: []string{".env"},
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	// A missing .env file is not an error.
	_ = godotenv.Load(options.envFiles...)

	cfg := defaults()
	if !options.disableFlagsParsing {
		if err := cfg.parseFlags(options.args); err != nil {
			return nil, fmt.Errorf("in internal/config/config.go/New(): error while `cfg.parseFlags()` calling: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("in internal/config/config.go/New(): error while `env.Parse()` calling: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("in internal/config/config.go/New(): invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Package config loads the service configuration from defaults, an optional JSON
// file, the environment (including a .env file) and command-line flags, in that
// order of increasing priority, and validates the result.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
	EnvironmentTest        = "test"
)

// minSigningKeyLength is the shortest accepted HMAC key, in bytes.
const minSigningKeyLength = 32

// ErrMissingSecret is returned in production when JWT_SECRET is not configured.
var ErrMissingSecret = errors.New("JWT_SECRET is not configured")

// Config holds every setting of the service.
type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	GRPCAddr            string        `env:"GRPC_SERVER_ADDRESS" validate:"omitempty,hostname_port"`
	LogLevel            string        `env:"LOG_LEVEL" validate:"loglevel"`
	DatabaseDSN         string        `env:"DATABASE_DSN"`
	DatabaseDriver      string        `env:"DATABASE_DRIVER" validate:"oneof=pgx postgres"`
	DBFileName          string        `env:"FILE_STORAGE_PATH" validate:"omitempty,filepath"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT" validate:"gt=0"`
	MigrationsDir       string        `env:"MIGRATIONS_DIR"`
	AuthCookieName      string        `env:"AUTH_COOKIE_NAME" validate:"required"`
	AuthTokenSecret     string        `env:"JWT_SECRET"`
	AuthTokenTTL        time.Duration `env:"AUTH_TOKEN_TTL" validate:"gt=0"`
	Environment         string        `env:"APP_ENV" validate:"oneof=development production test"`
	TrustedSubnet       string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
	AuthRateLimit       int           `env:"AUTH_RATE_LIMIT" validate:"gt=0"`
	HashTime            uint32        `env:"ARGON2_TIME" validate:"gt=0"`
	HashMemoryKiB       uint32        `env:"ARGON2_MEMORY_KIB" validate:"gte=8"`
	HashParallelism     uint8         `env:"ARGON2_PARALLELISM" validate:"gt=0"`
}

// fileConfig mirrors the keys accepted in the JSON configuration file.
type fileConfig struct {
	RunAddr         *string `json:"server_address"`
	GRPCAddr        *string `json:"grpc_server_address"`
	LogLevel        *string `json:"log_level"`
	DatabaseDSN     *string `json:"database_dsn"`
	DatabaseDriver  *string `json:"database_driver"`
	DBFileName      *string `json:"file_storage_path"`
	MigrationsDir   *string `json:"migrations_dir"`
	AuthCookieName  *string `json:"auth_cookie_name"`
	AuthTokenTTL    *string `json:"auth_token_ttl"`
	Environment     *string `json:"environment"`
	TrustedSubnet   *string `json:"trusted_subnet"`
	AuthRateLimit   *int    `json:"auth_rate_limit"`
	HashTime        *uint32 `json:"argon2_time"`
	HashMemoryKiB   *uint32 `json:"argon2_memory_kib"`
	HashParallelism *uint8  `json:"argon2_parallelism"`
}

var defaultConfig = Config{
	RunAddr:             ":8080",
	GRPCAddr:            "",
	LogLevel:            "info",
	DatabaseDSN:         "",
	DatabaseDriver:      "pgx",
	DBFileName:          "",
	DBConnectionTimeout: 10 * time.Second,
	MigrationsDir:       "migrations",
	AuthCookieName:      "authToken",
	AuthTokenSecret:     "",
	AuthTokenTTL:        24 * time.Hour,
	Environment:         EnvironmentDevelopment,
	TrustedSubnet:       "",
	AuthRateLimit:       60,
	HashTime:            2,
	HashMemoryKiB:       64 * 1024,
	HashParallelism:     1,
}

// IsProduction reports whether cookies must be marked Secure and HTTPS enforced.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// SigningKey decodes the base64url JWT secret.
func (c *Config) SigningKey() ([]byte, error) {
	key, err := base64.URLEncoding.DecodeString(c.AuthTokenSecret)
	if err != nil {
		key, err = base64.RawURLEncoding.DecodeString(c.AuthTokenSecret)
		if err != nil {
			return nil, fmt.Errorf("in internal/config/config.go/SigningKey(): error while `base64.URLEncoding.DecodeString()` calling: %w", err)
		}
	}
	if len(key) < minSigningKeyLength {
		return nil, fmt.Errorf("JWT_SECRET must decode to at least %d bytes, got %d", minSigningKeyLength, len(key))
	}

	return key, nil
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.AuthTokenSecret == "" {
		return ErrMissingSecret
	}
	_, err = c.SigningKey()

	return err
}

// InitOption defines a functional option for New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	args                []string
}

// WithDisableFlagsParsing makes New ignore the command line. Tests use it.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs replaces os.Args[1:] as the command line to parse.
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
}

// New builds the configuration: defaults, then the JSON file named by -c or CONFIG,
// then .env and the environment, then flags.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
		args:                os.Args[1:],
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	flagValues := &Config{}
	var configPath string
	var flagSet *flag.FlagSet
	if !options.disableFlagsParsing {
		flagSet = flag.NewFlagSet("todotracker", flag.ContinueOnError)
		flagSet.StringVar(&configPath, "c", "", "path to the JSON configuration file")
		flagSet.StringVar(&flagValues.RunAddr, "a", "", "address and port to run the HTTP server")
		flagSet.StringVar(&flagValues.GRPCAddr, "g", "", "address and port to run the gRPC server")
		flagSet.StringVar(&flagValues.LogLevel, "l", "", "logger level")
		flagSet.StringVar(&flagValues.DBFileName, "f", "", "JSON file name with database")
		flagSet.StringVar(&flagValues.DatabaseDSN, "d", "", "a string with the database connection details")
		flagSet.StringVar(&flagValues.AuthTokenSecret, "s", "", "base64url-encoded session token signing secret")
		flagSet.StringVar(&flagValues.TrustedSubnet, "t", "", "CIDR allowed to reach internal endpoints")
		if err := flagSet.Parse(options.args); err != nil {
			return nil, err
		}
	}

	if configPath == "" {
		configPath = os.Getenv("CONFIG")
	}
	if configPath != "" {
		if err := values.loadJSON(configPath); err != nil {
			return nil, err
		}
	}

	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	if err := env.Parse(values); err != nil {
		return nil, err
	}

	if flagSet != nil {
		flagSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "a":
				values.RunAddr = flagValues.RunAddr
			case "g":
				values.GRPCAddr = flagValues.GRPCAddr
			case "l":
				values.LogLevel = flagValues.LogLevel
			case "f":
				values.DBFileName = flagValues.DBFileName
			case "d":
				values.DatabaseDSN = flagValues.DatabaseDSN
			case "s":
				values.AuthTokenSecret = flagValues.AuthTokenSecret
			case "t":
				values.TrustedSubnet = flagValues.TrustedSubnet
			}
		})
	}

	if values.AuthTokenSecret == "" && !values.IsProduction() {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		values.AuthTokenSecret = secret
	}

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}

func (c *Config) loadJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("in internal/config/config.go/loadJSON(): error while `os.ReadFile()` calling: %w", err)
	}

	var fromFile fileConfig
	if err := json.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf("in internal/config/config.go/loadJSON(): error while `json.Unmarshal()` calling: %w", err)
	}

	setString(&c.RunAddr, fromFile.RunAddr)
	setString(&c.GRPCAddr, fromFile.GRPCAddr)
	setString(&c.LogLevel, fromFile.LogLevel)
	setString(&c.DatabaseDSN, fromFile.DatabaseDSN)
	setString(&c.DatabaseDriver, fromFile.DatabaseDriver)
	setString(&c.DBFileName, fromFile.DBFileName)
	setString(&c.MigrationsDir, fromFile.MigrationsDir)
	setString(&c.AuthCookieName, fromFile.AuthCookieName)
	setString(&c.Environment, fromFile.Environment)
	setString(&c.TrustedSubnet, fromFile.TrustedSubnet)
	if fromFile.AuthTokenTTL != nil {
		ttl, err := time.ParseDuration(*fromFile.AuthTokenTTL)
		if err != nil {
			return fmt.Errorf("in internal/config/config.go/loadJSON(): error while `time.ParseDuration()` calling: %w", err)
		}
		c.AuthTokenTTL = ttl
	}
	if fromFile.AuthRateLimit != nil {
		c.AuthRateLimit = *fromFile.AuthRateLimit
	}
	if fromFile.HashTime != nil {
		c.HashTime = *fromFile.HashTime
	}
	if fromFile.HashMemoryKiB != nil {
		c.HashMemoryKiB = *fromFile.HashMemoryKiB
	}
	if fromFile.HashParallelism != nil {
		c.HashParallelism = *fromFile.HashParallelism
	}

	return nil
}

func setString(target *string, value *string) {
	if value != nil {
		*target = *value
	}
}

// randomSecret generates a per-process signing secret for non-production runs.
// Sessions issued with it do not survive a restart.
func randomSecret() (string, error) {
	key := make([]byte, minSigningKeyLength)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("in internal/config/config.go/randomSecret(): error while `rand.Read()` calling: %w", err)
	}

	return base64.URLEncoding.EncodeToString(key), nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v8"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Supported values for DATA_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	// HTTP Server
	Port            string        `env:"PORT" envDefault:"3001" validate:"tcpport"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	RateLimit       int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60" validate:"gte=0"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s" validate:"gte=1s"`
	Timezone        string        `env:"TIMEZONE" envDefault:"Local" validate:"tz"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`

	// Backend selection
	DataBackend string `env:"DATA_BACKEND" envDefault:"sqlite" validate:"oneof=sqlite postgres memory"`

	// Database
	SQLiteDBPath     string `env:"SQLITE_DB_PATH" envDefault:"./data/presupuesto.db" validate:"required_if=DataBackend sqlite"`
	PostgresDSN      string `env:"POSTGRES_DSN"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"presupuesto_db"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"presupuesto_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"presupuesto_password"`
	DBHost           string `env:"DB_HOST" envDefault:"db"`
	DBPort           string `env:"DB_PORT" envDefault:"5432"`

	// AMQP, disabled when the URL is empty
	AMQPURL      string `env:"AMQP_URL" validate:"omitempty,amqpurl"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"presupuesto" validate:"required_with=AMQPURL"`
	AMQPQueue    string `env:"AMQP_QUEUE" envDefault:"entry_events" validate:"required_with=AMQPURL"`

	// Google Sheets mirror
	GoogleSpreadsheetID      string `env:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName          string `env:"GOOGLE_SHEET_NAME" envDefault:"Movimientos"`
	GoogleServiceAccountJSON string `env:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile string `env:"GOOGLE_SERVICE_ACCOUNT_FILE"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// PostgresURL returns POSTGRES_DSN, or a DSN assembled from the individual
// POSTGRES_* and DB_* variables.
func (c *Config) PostgresURL() string {
	if c.PostgresDSN != "" {
		return c.PostgresDSN
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.PostgresDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Location resolves TIMEZONE. Month boundaries are computed in it.
func (c *Config) Location() (*time.Location, error) {
	return loadLocation(c.Timezone)
}

func loadLocation(name string) (*time.Location, error) {
	switch name {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// AMQPEnabled reports whether change events are published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// ServiceAccountJSON returns the Google credentials, preferring the inline
// JSON over the file.
func (c *Config) ServiceAccountJSON() ([]byte, error) {
	if c.GoogleServiceAccountJSON != "" {
		return []byte(c.GoogleServiceAccountJSON), nil
	}
	if c.GoogleServiceAccountFile == "" {
		return nil, errors.New("no Google service account configured")
	}
	b, err := os.ReadFile(c.GoogleServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

var (
	validateOnce sync.Once
	structRules  *validator.Validate
)

// rules reports fields by their environment variable name.
func rules() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("env"), ",")
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("tcpport", func(fl validator.FieldLevel) bool {
			n, err := strconv.Atoi(fl.Field().String())
			return err == nil && n >= 1 && n <= 65535
		})
		_ = v.RegisterValidation("tz", func(fl validator.FieldLevel) bool {
			_, err := loadLocation(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("amqpurl", func(fl validator.FieldLevel) bool {
			u, err := url.Parse(fl.Field().String())
			return err == nil && (u.Scheme == "amqp" || u.Scheme == "amqps")
		})
		structRules = v
	})
	return structRules
}

func describe(fe validator.FieldError) error {
	switch fe.Tag() {
	case "tcpport":
		return fmt.Errorf("%s: %q is not a port between 1 and 65535", fe.Field(), fe.Value())
	case "tz":
		return fmt.Errorf("%s: unknown timezone %q", fe.Field(), fe.Value())
	case "amqpurl":
		return fmt.Errorf("%s: %q must be an amqp:// or amqps:// URL", fe.Field(), fe.Value())
	case "oneof":
		return fmt.Errorf("%s: %q must be one of [%s]", fe.Field(), fe.Value(), fe.Param())
	case "gte":
		return fmt.Errorf("%s: %v must be at least %s", fe.Field(), fe.Value(), fe.Param())
	case "required_if":
		return fmt.Errorf("%s is required for this DATA_BACKEND", fe.Field())
	case "required_with":
		return fmt.Errorf("%s is required when AMQP_URL is set", fe.Field())
	}
	return fe
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []error

	var fieldErrs validator.ValidationErrors
	if err := rules().Struct(c); errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			problems = append(problems, describe(fe))
		}
	} else if err != nil {
		problems = append(problems, err)
	}

	if c.DataBackend == BackendPostgres && c.PostgresDSN == "" {
		if c.PostgresDB == "" || c.PostgresUser == "" || c.DBHost == "" {
			problems = append(problems, errors.New("POSTGRES_DSN or POSTGRES_DB, POSTGRES_USER and DB_HOST are required for the postgres backend"))
		}
		if _, err := strconv.Atoi(c.DBPort); err != nil {
			problems = append(problems, fmt.Errorf("DB_PORT: %q is not a number", c.DBPort))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(problems...))
	}
	return nil
}

// ValidateWorker checks the extra settings the sheet mirror worker needs.
func (c *Config) ValidateWorker() error {
	var problems []error
	if c.DataBackend == BackendMemory {
		problems = append(problems, errors.New("DATA_BACKEND=memory cannot be shared with the server; the worker needs sqlite or postgres"))
	}
	if c.AMQPURL == "" {
		problems = append(problems, errors.New("AMQP_URL is required by the worker"))
	}
	if c.GoogleSpreadsheetID == "" {
		problems = append(problems, errors.New("GOOGLE_SPREADSHEET_ID is required by the worker"))
	}
	if c.GoogleSheetName == "" {
		problems = append(problems, errors.New("GOOGLE_SHEET_NAME is required by the worker"))
	}
	switch {
	case c.GoogleServiceAccountJSON != "":
	case c.GoogleServiceAccountFile == "":
		problems = append(problems, errors.New("GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON is required by the worker"))
	default:
		if _, err := os.Stat(c.GoogleServiceAccountFile); err != nil {
			problems = append(problems, fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_FILE: %w", err))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid worker configuration: %w", errors.Join(problems...))
	}
	return nil
}

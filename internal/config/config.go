// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gurkanbulca/taskpulse/pkg/email"
)

// ConfigFileEnv names an optional YAML file read before environment overrides.
const ConfigFileEnv = "TASKPULSE_CONFIG"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Cookie     CookieConfig     `mapstructure:"cookie"`
	Security   SecurityConfig   `mapstructure:"security"`
	Validation ValidationConfig `mapstructure:"validation"`
	Email      EmailConfig      `mapstructure:"email"`
}

type ServerConfig struct {
	HTTPPort         string   `mapstructure:"http_port"`
	GRPCPort         string   `mapstructure:"grpc_port"`
	Environment      string   `mapstructure:"environment"`
	AutoMigrate      bool     `mapstructure:"auto_migrate"`
	EnableReflection bool     `mapstructure:"enable_reflection"`
	CORSOrigins      []string `mapstructure:"cors_origins"`
	TrustedProxies   []string `mapstructure:"trusted_proxies"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Debug           bool          `mapstructure:"debug"`
}

type JWTConfig struct {
	Secret        string        `mapstructure:"secret"`
	TokenDuration time.Duration `mapstructure:"token_duration"`
	Issuer        string        `mapstructure:"issuer"`
}

// CookieConfig controls the auth cookie issued at login.
type CookieConfig struct {
	Name     string `mapstructure:"name"`
	Path     string `mapstructure:"path"`
	Domain   string `mapstructure:"domain"`
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"`
	// MaxAge in seconds; zero means the token duration.
	MaxAge int `mapstructure:"max_age"`
}

type SecurityConfig struct {
	BcryptCost        int    `mapstructure:"bcrypt_cost"`
	PasswordMinLength int    `mapstructure:"password_min_length"`
	DeletePolicy      string `mapstructure:"delete_policy"`
	AdminPolicy       string `mapstructure:"admin_policy"`
}

type ValidationConfig struct {
	MaxTitleLength       int `mapstructure:"max_title_length"`
	MaxDescriptionLength int `mapstructure:"max_description_length"`
	MaxNameLength        int `mapstructure:"max_name_length"`
	MaxEmailLength       int `mapstructure:"max_email_length"`
	MaxCommentLength     int `mapstructure:"max_comment_length"`
	MaxTagsLength        int `mapstructure:"max_tags_length"`
}

type EmailConfig struct {
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromEmail    string `mapstructure:"from_email"`
	FromName     string `mapstructure:"from_name"`
	BaseURL      string `mapstructure:"base_url"`
	AppName      string `mapstructure:"app_name"`
	SupportEmail string `mapstructure:"support_email"`
	TestingMode  bool   `mapstructure:"testing_mode"`
}

// binding ties a config key to its environment variable and default.
type binding struct {
	key string
	env string
	def any
}

var bindings = []binding{
	{"server.http_port", "HTTP_PORT", "8080"},
	{"server.grpc_port", "GRPC_PORT", "50051"},
	{"server.environment", "ENVIRONMENT", "development"},
	{"server.auto_migrate", "AUTO_MIGRATE", true},
	{"server.enable_reflection", "ENABLE_REFLECTION", false},
	{"server.cors_origins", "CORS_ORIGINS", []string{"http://localhost:3000"}},
	{"server.trusted_proxies", "TRUSTED_PROXIES", []string{}},

	{"database.driver", "DB_DRIVER", "postgres"},
	{"database.host", "DB_HOST", "localhost"},
	{"database.port", "DB_PORT", 5432},
	{"database.user", "DB_USER", "postgres"},
	{"database.password", "DB_PASSWORD", "postgres"},
	{"database.name", "DB_NAME", "taskpulse"},
	{"database.ssl_mode", "DB_SSL_MODE", "disable"},
	{"database.dsn", "DATABASE_URL", ""},
	{"database.max_open_conns", "DB_MAX_OPEN_CONNS", 25},
	{"database.max_idle_conns", "DB_MAX_IDLE_CONNS", 5},
	{"database.conn_max_lifetime", "DB_CONN_MAX_LIFETIME", 5 * time.Minute},
	{"database.debug", "DB_DEBUG", false},

	{"jwt.secret", "JWT_SECRET", "dev-secret-change-in-production-0123456789"},
	{"jwt.token_duration", "JWT_TOKEN_DURATION", 24 * time.Hour},
	{"jwt.issuer", "JWT_ISSUER", "taskpulse"},

	{"cookie.name", "COOKIE_NAME", "access_token"},
	{"cookie.path", "COOKIE_PATH", "/"},
	{"cookie.domain", "COOKIE_DOMAIN", ""},
	{"cookie.secure", "COOKIE_SECURE", false},
	{"cookie.same_site", "COOKIE_SAMESITE", "lax"},
	{"cookie.max_age", "COOKIE_MAX_AGE", 0},

	{"security.bcrypt_cost", "BCRYPT_COST", 12},
	{"security.password_min_length", "PASSWORD_MIN_LENGTH", 8},
	{"security.delete_policy", "DELETE_POLICY", "author_or_assignee"},
	{"security.admin_policy", "ADMIN_POLICY", "any_admin"},

	{"validation.max_title_length", "VALIDATION_MAX_TITLE_LENGTH", 200},
	{"validation.max_description_length", "VALIDATION_MAX_DESCRIPTION_LENGTH", 5000},
	{"validation.max_name_length", "VALIDATION_MAX_NAME_LENGTH", 100},
	{"validation.max_email_length", "VALIDATION_MAX_EMAIL_LENGTH", 255},
	{"validation.max_comment_length", "VALIDATION_MAX_COMMENT_LENGTH", 5000},
	{"validation.max_tags_length", "VALIDATION_MAX_TAGS_LENGTH", 500},

	{"email.smtp_host", "SMTP_HOST", "localhost"},
	{"email.smtp_port", "SMTP_PORT", 587},
	{"email.smtp_username", "SMTP_USERNAME", ""},
	{"email.smtp_password", "SMTP_PASSWORD", ""},
	{"email.from_email", "EMAIL_FROM", "noreply@taskpulse.local"},
	{"email.from_name", "EMAIL_FROM_NAME", "TaskPulse"},
	{"email.base_url", "APP_BASE_URL", "http://localhost:3000"},
	{"email.app_name", "APP_NAME", "TaskPulse"},
	{"email.support_email", "SUPPORT_EMAIL", "support@taskpulse.local"},
	{"email.testing_mode", "EMAIL_TESTING_MODE", false},
}

// Load builds the configuration from defaults, an optional YAML file named
// by TASKPULSE_CONFIG, and environment variables, in increasing precedence.
func Load() (*Config, error) {
	v := viper.New()
	for _, b := range bindings {
		v.SetDefault(b.key, b.def)
		if err := v.BindEnv(b.key, b.env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", b.env, err)
		}
	}

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)
	cfg.Server.TrustedProxies = splitList(cfg.Server.TrustedProxies)
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	cfg.Cookie.SameSite = strings.ToLower(cfg.Cookie.SameSite)

	return &cfg, nil
}

// splitList flattens comma separated entries that arrive as a single
// environment value.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) IsTest() bool {
	return c.Server.Environment == "test"
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// ValidateConfig rejects settings the server cannot safely run with.
func (c *Config) ValidateConfig() error {
	var errs []error

	if len(c.JWT.Secret) < 32 && !c.IsDevelopment() && !c.IsTest() {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWT.TokenDuration <= 0 {
		errs = append(errs, errors.New("JWT_TOKEN_DURATION must be positive"))
	}

	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}

	switch c.Security.DeletePolicy {
	case "assignee", "author_or_assignee":
	default:
		errs = append(errs, fmt.Errorf("unknown DELETE_POLICY %q", c.Security.DeletePolicy))
	}

	switch c.Security.AdminPolicy {
	case "any_admin", "super_admin":
	default:
		errs = append(errs, fmt.Errorf("unknown ADMIN_POLICY %q", c.Security.AdminPolicy))
	}

	if _, err := c.Cookie.SameSiteMode(); err != nil {
		errs = append(errs, err)
	}

	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST %d out of range", c.Security.BcryptCost))
	}

	if c.IsProduction() && !c.Cookie.Secure {
		errs = append(errs, errors.New("COOKIE_SECURE must be enabled in production"))
	}

	return errors.Join(errs...)
}

// SameSiteMode maps the configured SameSite string onto net/http.
func (c CookieConfig) SameSiteMode() (http.SameSite, error) {
	switch c.SameSite {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return http.SameSiteDefaultMode, fmt.Errorf("unknown COOKIE_SAMESITE %q", c.SameSite)
	}
}

// ConnectionString returns the DSN for the configured driver.
func (d DatabaseConfig) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}
	if d.Driver == "sqlite3" {
		return fmt.Sprintf("file:%s.db?cache=shared&_fk=1", d.DBName)
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// ToEmailConfig converts the email section to the mailer configuration.
func (c *Config) ToEmailConfig() *email.Config {
	return &email.Config{
		SMTPHost:     c.Email.SMTPHost,
		SMTPPort:     c.Email.SMTPPort,
		SMTPUsername: c.Email.SMTPUsername,
		SMTPPassword: c.Email.SMTPPassword,
		FromEmail:    c.Email.FromEmail,
		FromName:     c.Email.FromName,
		BaseURL:      c.Email.BaseURL,
		AppName:      c.Email.AppName,
		SupportEmail: c.Email.SupportEmail,
	}
}

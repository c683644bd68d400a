package config

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.HTTPPort)
	assert.Equal(t, "50051", cfg.Server.GRPCPort)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TokenDuration)
	assert.Equal(t, "access_token", cfg.Cookie.Name)
	assert.Equal(t, 12, cfg.Security.BcryptCost)
	assert.Equal(t, "author_or_assignee", cfg.Security.DeletePolicy)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.IsDevelopment())
	assert.NoError(t, cfg.ValidateConfig())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DB_DRIVER", "SQLITE3")
	t.Setenv("JWT_TOKEN_DURATION", "2h")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("DELETE_POLICY", "assignee")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.HTTPPort)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, 2*time.Hour, cfg.JWT.TokenDuration)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Cookie.Secure)
	assert.Equal(t, "assignee", cfg.Security.DeletePolicy)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskpulse.yaml")
	content := []byte(`
server:
  http_port: "7070"
  environment: production
jwt:
  secret: "0123456789abcdef0123456789abcdef"
security:
  admin_policy: super_admin
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("HTTP_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.HTTPPort)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "super_admin", cfg.Security.AdminPolicy)
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Environment: "production"},
			Database: DatabaseConfig{Driver: "postgres"},
			JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef", TokenDuration: time.Hour},
			Cookie:   CookieConfig{SameSite: "lax", Secure: true},
			Security: SecurityConfig{BcryptCost: 12, DeletePolicy: "assignee", AdminPolicy: "any_admin"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid production config", mutate: func(*Config) {}},
		{
			name:    "short secret in production",
			mutate:  func(c *Config) { c.JWT.Secret = "short" },
			wantErr: "at least 32 characters",
		},
		{
			name: "short secret allowed in development",
			mutate: func(c *Config) {
				c.Server.Environment = "development"
				c.JWT.Secret = "short"
			},
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database.Driver = "mysql" },
			wantErr: "unsupported DB_DRIVER",
		},
		{
			name:    "unknown delete policy",
			mutate:  func(c *Config) { c.Security.DeletePolicy = "anyone" },
			wantErr: "DELETE_POLICY",
		},
		{
			name:    "unknown admin policy",
			mutate:  func(c *Config) { c.Security.AdminPolicy = "root" },
			wantErr: "ADMIN_POLICY",
		},
		{
			name:    "unknown samesite",
			mutate:  func(c *Config) { c.Cookie.SameSite = "sometimes" },
			wantErr: "COOKIE_SAMESITE",
		},
		{
			name:    "insecure cookie in production",
			mutate:  func(c *Config) { c.Cookie.Secure = false },
			wantErr: "COOKIE_SECURE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.ValidateConfig()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCookieConfig_SameSiteMode(t *testing.T) {
	mode, err := CookieConfig{SameSite: "strict"}.SameSiteMode()
	require.NoError(t, err)
	assert.Equal(t, http.SameSiteStrictMode, mode)

	mode, err = CookieConfig{}.SameSiteMode()
	require.NoError(t, err)
	assert.Equal(t, http.SameSiteLaxMode, mode)
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", DBName: "tp", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=tp sslmode=disable", pg.ConnectionString())

	lite := DatabaseConfig{Driver: "sqlite3", DBName: "local"}
	assert.Equal(t, "file:local.db?cache=shared&_fk=1", lite.ConnectionString())

	raw := DatabaseConfig{Driver: "postgres", DSN: "postgres://x"}
	assert.Equal(t, "postgres://x", raw.ConnectionString())
}

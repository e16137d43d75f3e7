package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AuthMode selects the authentication strategy at startup. The core only
// ever sees the resulting Principal; it never branches on the mode.
type AuthMode string

const (
	AuthModePublic           AuthMode = "public"
	AuthModeDomainRestricted AuthMode = "domain"
	AuthModeOAuth            AuthMode = "oauth"
)

// RepositorySettings is the hosting repository block, loadable from the
// optional config.yaml file.
type RepositorySettings struct {
	Owner       string `yaml:"owner"`
	Name        string `yaml:"name"`
	BaseBranch  string `yaml:"baseBranch"`
	ContentRoot string `yaml:"contentRoot"`
}

// Config is built once at process start and passed by reference into
// constructors. No package holds it in a global.
type Config struct {
	Port        string
	Environment string

	Repository RepositorySettings
	// GitHubToken is the write-scoped personal access token. Supplied only
	// via environment, never via the yaml file.
	GitHubToken string
	// APIBaseURL overrides the hosting API endpoint (GitHub Enterprise, tests)
	APIBaseURL string

	DatabaseURL string
	TablePrefix string

	AuthMode           AuthMode
	AllowedEmailDomain string // domain mode: required email domain
	JWKSURL            string // oauth/domain modes: identity provider JWKS endpoint
	AdminEmails        string // comma-separated emails granted the admin role

	CORSOrigins string
	Debug       bool
}

// fileConfig is the shape of the optional config.yaml.
type fileConfig struct {
	Repository RepositorySettings `yaml:"repository"`
}

// Load builds the configuration from the environment, with the optional
// config.yaml supplying the repository block. Environment values win.
func Load() (*Config, error) {
	env := getEnv("ENVIRONMENT", "dev")

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		Repository: RepositorySettings{
			BaseBranch:  "main",
			ContentRoot: "docs",
		},
		GitHubToken:        os.Getenv("GITHUB_TOKEN"),
		APIBaseURL:         os.Getenv("GITHUB_API_URL"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		TablePrefix:        getTablePrefix(env),
		AuthMode:           AuthMode(getEnv("AUTH_MODE", string(AuthModePublic))),
		AllowedEmailDomain: os.Getenv("ALLOWED_EMAIL_DOMAIN"),
		JWKSURL:            os.Getenv("JWKS_URL"),
		AdminEmails:        os.Getenv("ADMIN_EMAILS"),
		CORSOrigins:        getEnv("CORS_ORIGINS", "http://localhost:3000"),
		Debug:              getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}

	if err := loadFile(getEnv("CONFIG_FILE", "config.yaml"), cfg); err != nil {
		return nil, err
	}

	// Environment overrides the file
	if v := os.Getenv("REPO_OWNER"); v != "" {
		cfg.Repository.Owner = v
	}
	if v := os.Getenv("REPO_NAME"); v != "" {
		cfg.Repository.Name = v
	}
	if v := os.Getenv("BASE_BRANCH"); v != "" {
		cfg.Repository.BaseBranch = v
	}
	if v := os.Getenv("CONTENT_ROOT"); v != "" {
		cfg.Repository.ContentRoot = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile merges the optional yaml file into cfg. A missing file is fine.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Repository.Owner != "" {
		cfg.Repository.Owner = fc.Repository.Owner
	}
	if fc.Repository.Name != "" {
		cfg.Repository.Name = fc.Repository.Name
	}
	if fc.Repository.BaseBranch != "" {
		cfg.Repository.BaseBranch = fc.Repository.BaseBranch
	}
	if fc.Repository.ContentRoot != "" {
		cfg.Repository.ContentRoot = fc.Repository.ContentRoot
	}

	return nil
}

func (c *Config) validate() error {
	if c.Repository.Owner == "" || c.Repository.Name == "" {
		return fmt.Errorf("repository owner and name are required (REPO_OWNER/REPO_NAME or config.yaml)")
	}
	switch c.AuthMode {
	case AuthModePublic:
	case AuthModeDomainRestricted:
		if c.AllowedEmailDomain == "" {
			return fmt.Errorf("ALLOWED_EMAIL_DOMAIN is required in domain auth mode")
		}
		if c.JWKSURL == "" {
			return fmt.Errorf("JWKS_URL is required in domain auth mode")
		}
	case AuthModeOAuth:
		if c.JWKSURL == "" {
			return fmt.Errorf("JWKS_URL is required in oauth auth mode")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE '%s'", c.AuthMode)
	}
	return nil
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

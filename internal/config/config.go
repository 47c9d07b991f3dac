package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/Mica1614/seims-ai-scanner/internal/log"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	Firebase FirebaseConfig

	CredentialsFile string
	CredentialsJSON string
	// WebConfigSource is inline JSON or a path to a JSON file holding the web config.
	WebConfigSource string

	SignedURLServiceAccountEmail string
	UploadPrefix                 string
}

// Options selects the optional files Load reads before the environment.
type Options struct {
	File    string // YAML config file
	EnvFile string // dotenv file, never overrides variables already set
}

type fileConfig struct {
	Port                         string         `yaml:"port"`
	AllowedOrigins               []string       `yaml:"allowed_origins"`
	LogLevel                     string         `yaml:"log_level"`
	Firebase                     FirebaseConfig `yaml:"firebase"`
	CredentialsFile              string         `yaml:"credentials_file"`
	SignedURLServiceAccountEmail string         `yaml:"signed_url_service_account_email"`
	UploadPrefix                 string         `yaml:"upload_prefix"`
}

// Load reads CONFIG_FILE (if set), .env (if present) and the environment.
func Load() (Config, error) {
	return LoadWith(Options{File: os.Getenv("CONFIG_FILE"), EnvFile: ".env"})
}

// LoadWith applies, in increasing precedence: defaults, the YAML file,
// FIREBASE_WEB_CONFIG and the per-key environment variables.
// The record is not validated here; Initialize does that.
func LoadWith(opts Options) (Config, error) {
	cfg := Config{
		Port:           "8080",
		AllowedOrigins: []string{"http://localhost:3000"},
		LogLevel:       "info",
		UploadPrefix:   "scans",
	}

	if opts.File != "" {
		if err := applyFile(&cfg, opts.File); err != nil {
			return Config{}, err
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: env file %s: %v", ErrInvalidConfig, opts.EnvFile, err)
		}
	}

	cfg.Port = getenv("PORT", cfg.Port)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	if origins := getenv("ALLOWED_ORIGINS", ""); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}
	cfg.CredentialsFile = getenv("GOOGLE_APPLICATION_CREDENTIALS", cfg.CredentialsFile)
	cfg.CredentialsJSON = getenv("FIREBASE_SERVICE_ACCOUNT_JSON", cfg.CredentialsJSON)
	cfg.SignedURLServiceAccountEmail = getenv("SIGNED_URL_SERVICE_ACCOUNT_EMAIL", cfg.SignedURLServiceAccountEmail)
	cfg.UploadPrefix = strings.Trim(getenv("UPLOAD_PREFIX", cfg.UploadPrefix), "/")

	cfg.WebConfigSource = getenv("FIREBASE_WEB_CONFIG", "")
	if cfg.WebConfigSource != "" {
		web, err := readWebConfig(cfg.WebConfigSource)
		if err != nil {
			return Config{}, err
		}
		cfg.Firebase.Merge(web)
	}

	// FIREBASE_PROJECT_ID または GOOGLE_CLOUD_PROJECT を読む
	projectID := getenv("FIREBASE_PROJECT_ID", "")
	if projectID == "" {
		projectID = getenv("GOOGLE_CLOUD_PROJECT", "")
	}
	cfg.Firebase.Merge(FirebaseConfig{
		APIKey:            getenv("FIREBASE_API_KEY", ""),
		AuthDomain:        getenv("FIREBASE_AUTH_DOMAIN", ""),
		ProjectID:         projectID,
		StorageBucket:     getenv("FIREBASE_STORAGE_BUCKET", ""),
		MessagingSenderID: getenv("FIREBASE_MESSAGING_SENDER_ID", ""),
		AppID:             getenv("FIREBASE_APP_ID", ""),
	})

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: config file: %v", ErrInvalidConfig, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("%w: config file %s: %v", ErrInvalidConfig, path, err)
	}

	if fc.Port != "" {
		cfg.Port = fc.Port
	}
	if len(fc.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = splitList(strings.Join(fc.AllowedOrigins, ","))
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.CredentialsFile != "" {
		cfg.CredentialsFile = fc.CredentialsFile
	}
	if fc.SignedURLServiceAccountEmail != "" {
		cfg.SignedURLServiceAccountEmail = fc.SignedURLServiceAccountEmail
	}
	if fc.UploadPrefix != "" {
		cfg.UploadPrefix = fc.UploadPrefix
	}
	cfg.Firebase.Merge(fc.Firebase)
	return nil
}

func readWebConfig(src string) (FirebaseConfig, error) {
	src = strings.TrimSpace(src)
	if strings.HasPrefix(src, "{") {
		return ParseFirebaseConfig([]byte(src))
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return FirebaseConfig{}, fmt.Errorf("%w: FIREBASE_WEB_CONFIG: %v", ErrInvalidConfig, err)
	}
	return ParseFirebaseConfig(data)
}

func splitList(s string) []string {
	out := []string{}
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

var sensitiveKeywords = []string{"key", "secret", "token", "password", "credential", "json"}

// sensitiveEnv holds variables that carry masked record fields under names
// the keywords do not catch.
var sensitiveEnv = map[string]bool{
	"FIREBASE_WEB_CONFIG":          true,
	"FIREBASE_APP_ID":              true,
	"FIREBASE_MESSAGING_SENDER_ID": true,
}

func isSensitiveKey(key string) bool {
	if sensitiveEnv[strings.ToUpper(key)] {
		return true
	}
	k := strings.ToLower(key)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(k, kw) {
			return true
		}
	}
	return false
}

// getenv reads key or returns def, logging where the value came from.
func getenv(key, def string) string {
	logger := log.WithComponent("config")
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		logger.Debug().Str("key", key).Str("source", "default").Msg("using default value")
		return def
	}
	ev := logger.Debug().Str("key", key).Str("source", "environment")
	if isSensitiveKey(key) {
		ev = ev.Bool("sensitive", true)
	} else {
		ev = ev.Str("value", v)
	}
	ev.Msg("using environment variable")
	return v
}

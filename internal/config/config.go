package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"talktime/internal/callog"
	"talktime/internal/roster"
)

// TeamConfig is one team roster as it appears in the config file.
type TeamConfig struct {
	Tag   string   `yaml:"tag"`
	Names []string `yaml:"names"`
}

// AnalyticsConfig carries the data-shaped knobs of the pipeline: column
// aliases, team rosters and the talk-time threshold bounds. Everything has a
// compiled-in default; the YAML file overrides field by field.
type AnalyticsConfig struct {
	Aliases          callog.Aliases `yaml:"aliases"`
	Teams            []TeamConfig   `yaml:"teams"`
	DefaultThreshold float64        `yaml:"default_threshold_sec"`
	MinThreshold     float64        `yaml:"min_threshold_sec"`
	MaxThreshold     float64        `yaml:"max_threshold_sec"`
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	ListenAddr     string
	AllowedOrigins []string
	LogDir         string
	MaxUploadBytes int64
	Analytics      AnalyticsConfig
}

// Load loads the configuration from .env files, environment variables and an
// optional YAML analytics file.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory first
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve data paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}
	logDir := filepath.Join(dataPath, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	maxUploadMB, _ := strconv.ParseInt(getEnv("TALKTIME_MAX_UPLOAD_MB", "32"), 10, 64)

	cfg := &AppConfig{
		ListenAddr:     getEnv("TALKTIME_ADDR", ":8080"),
		AllowedOrigins: splitList(getEnv("TALKTIME_ALLOWED_ORIGINS", "*")),
		LogDir:         logDir,
		MaxUploadBytes: maxUploadMB << 20,
		Analytics:      defaultAnalytics(),
	}

	// 4. Optional YAML analytics file: explicit path must load, the
	// conventional locations are best-effort.
	if path := os.Getenv("TALKTIME_CONFIG"); path != "" {
		if err := loadAnalyticsFile(path, &cfg.Analytics); err != nil {
			return nil, err
		}
	} else {
		for _, path := range conventionalPaths(exeDir) {
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := loadAnalyticsFile(path, &cfg.Analytics); err != nil {
				return nil, err
			}
			break
		}
	}

	if cfg.Analytics.MinThreshold > cfg.Analytics.MaxThreshold {
		return nil, fmt.Errorf("invalid threshold bounds: min %v > max %v",
			cfg.Analytics.MinThreshold, cfg.Analytics.MaxThreshold)
	}

	return cfg, nil
}

// TeamSet builds the roster set from configured teams, falling back to the
// compiled-in rosters when none are configured.
func (c AnalyticsConfig) TeamSet() *roster.Set {
	if len(c.Teams) == 0 {
		return roster.DefaultSet()
	}
	teams := make([]roster.Team, 0, len(c.Teams))
	for _, t := range c.Teams {
		teams = append(teams, roster.NewTeam(t.Tag, t.Names))
	}
	return roster.NewSet(teams...)
}

// ClampThreshold snaps a requested talk-time threshold into the configured
// bounds.
func (c AnalyticsConfig) ClampThreshold(v float64) float64 {
	if v < c.MinThreshold {
		return c.MinThreshold
	}
	if v > c.MaxThreshold {
		return c.MaxThreshold
	}
	return v
}

func defaultAnalytics() AnalyticsConfig {
	return AnalyticsConfig{
		Aliases:          callog.DefaultAliases(),
		DefaultThreshold: 60,
		MinThreshold:     10,
		MaxThreshold:     300,
	}
}

func loadAnalyticsFile(path string, into *AnalyticsConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read analytics config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, into); err != nil {
		return fmt.Errorf("failed to parse analytics config %q: %w", path, err)
	}
	log.Info().Str("path", path).Msg("Loaded analytics configuration")
	return nil
}

func conventionalPaths(exeDir string) []string {
	paths := []string{"talktime.yaml"}
	if exeDir != "" {
		paths = append(paths, filepath.Join(exeDir, "talktime.yaml"))
	}
	return paths
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

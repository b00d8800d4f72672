// Package config loads engine settings from a local JSON or YAML file.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/philiph/xmlsig/internal/core/domain"
)

// Settings is the structure of the configuration file.
type Settings struct {
	Validation domain.ValidationConfig `json:"validation" yaml:"validation"`
	Resolvers  ResolverSettings        `json:"resolvers" yaml:"resolvers"`
	Metrics    bool                    `json:"metrics" yaml:"metrics"`
}

// ResolverSettings selects the resolvers wired next to the same-document
// resolver. File and HTTP resolvers still refuse to run under secure
// validation.
type ResolverSettings struct {
	File            bool   `json:"file" yaml:"file"`
	HTTP            bool   `json:"http" yaml:"http"`
	MaxResourceSize int64  `json:"max_resource_size" yaml:"max_resource_size"`
	CacheTTL        string `json:"cache_ttl" yaml:"cache_ttl"`
}

// CacheDuration parses CacheTTL. Zero disables caching.
func (r ResolverSettings) CacheDuration() (time.Duration, error) {
	if r.CacheTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.CacheTTL)
	if err != nil {
		return 0, fmt.Errorf("cache_ttl: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("cache_ttl must not be negative, got %s", r.CacheTTL)
	}
	return d, nil
}

// DefaultSettings returns the settings used when no file is given.
func DefaultSettings() Settings {
	return Settings{Validation: domain.DefaultValidationConfig()}
}

// Validate checks the settings as a whole.
func (s Settings) Validate() error {
	if err := s.Validation.Validate(); err != nil {
		return err
	}
	if _, err := s.Resolvers.CacheDuration(); err != nil {
		return domain.ConfigError(err.Error())
	}
	if s.Resolvers.MaxResourceSize < 0 {
		return domain.ConfigError(fmt.Sprintf("max_resource_size must not be negative, got %d", s.Resolvers.MaxResourceSize))
	}
	return nil
}

// FileStore holds settings loaded from a file. Fields absent from the file
// keep their defaults.
type FileStore struct {
	path   string
	logger *zap.Logger

	mu       sync.RWMutex
	settings Settings
}

// NewFileStore creates a store for path holding the defaults until Refresh.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{
		path:     path,
		logger:   logger,
		settings: DefaultSettings(),
	}
}

// Settings returns the current settings.
func (s *FileStore) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Refresh reloads the settings from the file. The previous settings stay in
// place when the file cannot be read or does not validate.
func (s *FileStore) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return domain.ConfigError(fmt.Sprintf("read config file: %v", err))
	}

	settings := DefaultSettings()
	ext := strings.ToLower(filepath.Ext(s.path))
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return domain.ConfigError(fmt.Sprintf("parse YAML config file: %v", err))
		}
	} else {
		if err := json.Unmarshal(data, &settings); err != nil {
			return domain.ConfigError(fmt.Sprintf("parse JSON config file: %v", err))
		}
	}

	if err := settings.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	s.logger.Debug("configuration loaded",
		zap.String("path", s.path),
		zap.Bool("secure_validation", settings.Validation.SecureValidation))
	return nil
}

// Load reads and validates the file at path.
func Load(ctx context.Context, path string, logger *zap.Logger) (Settings, error) {
	store := NewFileStore(path, logger)
	if err := store.Refresh(ctx); err != nil {
		return Settings{}, err
	}
	return store.Settings(), nil
}

package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"eduscan-api/models"
	"eduscan-api/pkg/logging"

	"github.com/spf13/viper"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

// Store reads and writes app_settings.json through viper.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *logging.StructuredLogger
}

func NewStore(path string, logger *logging.StructuredLogger) *Store {
	return &Store{path: path, logger: logger}
}

func (s *Store) newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("json")
	d := models.DefaultSettings()
	v.SetDefault("language", d.Language)
	v.SetDefault("theme", d.Theme)
	v.SetDefault("offline_mode", d.OfflineMode)
	return v
}

// Load returns the saved settings, or the defaults when the file is missing
// or unreadable.
func (s *Store) Load(ctx context.Context) models.AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) models.AppSettings {
	v := s.newViper()
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Error(ctx, "[SETTINGS] unreadable settings file, using defaults", logging.Fields{"path": s.path}, err)
		}
	}
	var out models.AppSettings
	if err := v.Unmarshal(&out); err != nil {
		s.logger.Error(ctx, "[SETTINGS] decode failed, using defaults", logging.Fields{"path": s.path}, err)
		return models.DefaultSettings()
	}
	if !validLanguage(out.Language) {
		out.Language = models.DefaultSettings().Language
	}
	return out
}

// Save writes every field of in.
func (s *Store) Save(ctx context.Context, in models.AppSettings) (models.AppSettings, error) {
	if !validLanguage(in.Language) {
		return models.AppSettings{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, in.Language)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return models.AppSettings{}, fmt.Errorf("create settings dir: %w", err)
	}
	v := s.newViper()
	v.Set("language", in.Language)
	v.Set("theme", in.Theme)
	v.Set("offline_mode", in.OfflineMode)
	if err := v.WriteConfigAs(s.path); err != nil {
		return models.AppSettings{}, fmt.Errorf("write settings: %w", err)
	}
	s.logger.Info(ctx, "[SETTINGS] saved", logging.Fields{"language": in.Language, "theme": in.Theme})
	return s.loadLocked(ctx), nil
}

func validLanguage(lang string) bool {
	for _, l := range models.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

package definition

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/KevinKickass/donp/internal/types"
	"go.uber.org/zap"
)

var extensions = []string{".json", ".yaml", ".yml"}

// Loader finds protocol definitions by name in a list of directories.
type Loader struct {
	cache       sync.Map
	validator   *Validator
	searchPaths []string
	logger      *zap.Logger
}

func NewLoader(searchPaths []string, logger *zap.Logger) (*Loader, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	return &Loader{
		validator:   validator,
		searchPaths: searchPaths,
		logger:      logger,
	}, nil
}

// Load returns the definition stored as name.json, name.yaml or name.yml in
// the first search path that has one. A name with a known extension is
// also tried as a plain file path.
func (l *Loader) Load(name string) (*types.ProtocolDefinition, error) {
	if cached, ok := l.cache.Load(name); ok {
		return cached.(*types.ProtocolDefinition), nil
	}

	path, err := l.find(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition %s: %w", path, err)
	}

	format, _ := FormatFromPath(path)
	def, err := Parse(l.validator, data, format)
	if err != nil {
		return nil, fmt.Errorf("invalid definition %s: %w", path, err)
	}

	l.logger.Info("Protocol definition loaded",
		zap.String("name", name),
		zap.String("path", path),
		zap.Int("prototypes", len(def.Prototypes)),
		zap.Int("devices", len(def.Devices)))

	l.cache.Store(name, def)
	return def, nil
}

func (l *Loader) find(name string) (string, error) {
	if _, ok := FormatFromPath(name); ok {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}

	for _, searchPath := range l.searchPaths {
		for _, ext := range extensions {
			fullPath := filepath.Join(searchPath, name+ext)
			if _, err := os.Stat(fullPath); err == nil {
				return fullPath, nil
			}
		}
	}

	return "", fmt.Errorf("definition not found: %s (searched in: %v)", name, l.searchPaths)
}

func (l *Loader) ClearCache() {
	l.cache.Range(func(key, value interface{}) bool {
		l.cache.Delete(key)
		return true
	})
}

package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/vitwit/receive/types"
	"gopkg.in/yaml.v3"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ConfigFormat names a supported config file encoding
type ConfigFormat string

const (
	FormatJSON ConfigFormat = "json"
	FormatTOML ConfigFormat = "toml"
	FormatYAML ConfigFormat = "yaml"
)

// FormatFromPath picks the decoder from the file extension.
func FormatFromPath(path string) (ConfigFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", &types.ReceiveError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("unsupported config extension: %s", path),
		}
	}
}

// ParseConfig decodes, validates and defaults a receive Config
func ParseConfig(data []byte, format ConfigFormat) (*types.Config, error) {
	var cfg types.Config

	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &cfg)
	case FormatTOML:
		err = toml.Unmarshal(data, &cfg)
	case FormatYAML:
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, &types.ReceiveError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("failed to parse receive config: %v", err),
		}
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadConfig reads a config file from disk.
func LoadConfig(path string) (*types.Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.ReceiveError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("failed to read config %s", path),
			Err:     err,
		}
	}

	return ParseConfig(data, format)
}

// ValidateConfig runs struct validation and applies defaults.
func ValidateConfig(cfg *types.Config) error {
	if err := validate.Struct(cfg); err != nil {
		return &types.ReceiveError{
			Code:    types.ErrConfigError,
			Message: fmt.Sprintf("validation failed: %v", err),
		}
	}

	return cfg.ApplyDefaults()
}

// ValidateTags checks descriptor field bounds. Empty descriptors pass; the
// resolver drops them.
func ValidateTags(tags []types.TagDescriptor) error {
	for i := range tags {
		if err := validate.Struct(&tags[i]); err != nil {
			return &types.ReceiveError{
				Code:    types.ErrTagResolution,
				Message: fmt.Sprintf("invalid tag %d: %v", i, err),
			}
		}
	}
	return nil
}

// SerializeMaterials converts RequestMaterials to JSON
func SerializeMaterials(m *types.RequestMaterials) ([]byte, error) {
	return json.Marshal(m)
}

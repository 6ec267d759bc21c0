package embed

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/GriffinCanCode/docuseal-embed/internal/docuseal"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// ErrUnknownPreset is returned for a preset name that is not defined
var ErrUnknownPreset = errors.New("unknown preset")

// Format is a preset file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf picks the format from a file extension
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported preset file %q: want .yaml, .yml or .toml", path)
	}
}

// Presets are named FormProps bundles. The zero value is empty and usable.
type Presets struct {
	byName map[string]docuseal.FormProps
}

type presetFile struct {
	Presets map[string]docuseal.FormProps `yaml:"presets" toml:"presets"`
}

// LoadPresets reads a YAML or TOML preset file.
func LoadPresets(path string) (*Presets, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	return ParsePresets(data, format)
}

// ParsePresets decodes presets. Every preset must name a form source.
func ParsePresets(data []byte, format Format) (*Presets, error) {
	var file presetFile
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &file)
	case FormatTOML:
		err = toml.Unmarshal(data, &file)
	default:
		err = fmt.Errorf("unsupported preset format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s presets: %w", format, err)
	}

	for name, props := range file.Presets {
		if strings.TrimSpace(props.Src) == "" {
			return nil, fmt.Errorf("preset %q: %w", name, ErrMissingSource)
		}
		if _, err := docuseal.OriginOf(props.Src); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
	}
	return &Presets{byName: file.Presets}, nil
}

// Get returns the named preset
func (p *Presets) Get(name string) (docuseal.FormProps, error) {
	if p != nil {
		if props, ok := p.byName[name]; ok {
			return props, nil
		}
	}
	return docuseal.FormProps{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// Names returns the preset names in sorted order
func (p *Presets) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.byName))
	for name := range p.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of presets
func (p *Presets) Len() int {
	if p == nil {
		return 0
	}
	return len(p.byName)
}

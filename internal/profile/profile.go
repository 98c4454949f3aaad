// Package profile loads, merges, and exports persisted identity profiles. Imports and
// presets share a single merge: keys present in the overlay replace the corresponding
// fields, absent keys keep their current value.
package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/cochaviz/vmveil/internal/catalog"
	"github.com/cochaviz/vmveil/internal/identity"
)

// Format is the encoding of a profile document.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
	FormatYAML  Format = "yaml"
)

// ErrUnknownFormat is returned for file extensions and names that map to no format.
var ErrUnknownFormat = errors.New("unknown profile format")

// DecodeError reports a profile that could not be decoded or merged.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("decode profile: %v", e.Err)
	}
	return fmt.Sprintf("decode profile %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ParseFormat maps a format name to a Format.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "json":
		return FormatJSON, nil
	case "jsonc":
		return FormatJSONC, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, value)
	}
}

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// Load reads the profile at path and merges it over base.
func Load(path string, base identity.Config) (identity.Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return base, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read profile: %w", err)
	}
	cfg, err := Decode(data, format, base)
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			decodeErr.Path = path
		}
		return base, err
	}
	return cfg, nil
}

// Decode merges a profile document over base. base is never modified.
func Decode(data []byte, format Format, base identity.Config) (identity.Config, error) {
	raw, err := toJSON(data, format)
	if err != nil {
		return base, &DecodeError{Err: err}
	}
	cfg, err := mergeJSON(base, raw)
	if err != nil {
		return base, &DecodeError{Err: err}
	}
	return cfg, nil
}

// Merge applies an overlay shaped like the persisted document over base.
func Merge(base identity.Config, overlay map[string]any) (identity.Config, error) {
	if len(overlay) == 0 {
		return base.Clone(), nil
	}
	raw, err := json.Marshal(overlay)
	if err != nil {
		return base, fmt.Errorf("marshal overlay: %w", err)
	}
	return mergeJSON(base, raw)
}

func mergeJSON(base identity.Config, raw []byte) (identity.Config, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return base, errors.New("profile must be an object")
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		return base, fmt.Errorf("apply overlay: %w", err)
	}

	// List fields present in the overlay replace the base lists wholesale.
	cfg := base.Clone()
	if _, ok := keys["cpuidLeaves"]; ok {
		cfg.CPUIDLeaves = nil
	}
	if _, ok := keys["customFields"]; ok {
		cfg.CustomFields = nil
	}
	if err := json.Unmarshal(trimmed, &cfg); err != nil {
		return base, fmt.Errorf("apply overlay: %w", err)
	}
	return cfg, nil
}

func toJSON(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return data, nil
	case FormatJSONC:
		return jsonc.ToJSON(data), nil
	case FormatYAML:
		return yamlToJSON(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ApplyPreset merges the named hardware preset over cfg.
func ApplyPreset(cfg identity.Config, name string) (identity.Config, error) {
	preset, err := catalog.LookupHardwarePreset(name)
	if err != nil {
		return cfg, err
	}
	merged, err := Merge(cfg, preset.Overlay)
	if err != nil {
		return cfg, fmt.Errorf("apply preset %q: %w", name, err)
	}
	return merged, nil
}

// ApplyCPUIDPreset replaces the CPUID leaves of cfg with the named preset.
func ApplyCPUIDPreset(cfg identity.Config, name string) (identity.Config, error) {
	leaves, err := catalog.LookupCPUIDPreset(name)
	if err != nil {
		return cfg, err
	}
	out := cfg.Clone()
	out.CPUIDLeaves = leaves
	return out, nil
}

// Export writes cfg in the given format, stamping the current document version.
func Export(w io.Writer, cfg identity.Config, format Format) error {
	cfg.Version = identity.DocumentVersion

	switch format {
	case FormatJSON, FormatJSONC:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("encode profile: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("encode profile: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Marshal returns the exported document as bytes.
func Marshal(cfg identity.Config, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Export(&buf, cfg, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cochaviz/vmveil/internal/identity"
)

//go:embed assets/presets.yaml
var embeddedPresets []byte

// ErrUnknownPreset is returned when a preset name is not in the catalog.
var ErrUnknownPreset = errors.New("unknown preset")

// HardwarePreset is a named, versioned partial profile. Overlay has the shape of the
// persisted document ("config", "vmConfig", ...) restricted to the keys it sets.
type HardwarePreset struct {
	Name    string         `yaml:"name"`
	Version int            `yaml:"version"`
	Overlay map[string]any `yaml:"overlay"`
}

// CPUIDPreset replaces the CPUID leaf list when applied.
type CPUIDPreset struct {
	Name   string               `yaml:"name"`
	Leaves []identity.CPUIDLeaf `yaml:"leaves"`
}

type presetFile struct {
	Hardware []HardwarePreset `yaml:"hardware"`
	CPUID    []CPUIDPreset    `yaml:"cpuid"`
}

var (
	presetsOnce sync.Once
	presets     presetFile
	presetsErr  error
)

func loadPresets() (presetFile, error) {
	presetsOnce.Do(func() {
		if err := yaml.Unmarshal(embeddedPresets, &presets); err != nil {
			presetsErr = fmt.Errorf("decode embedded presets: %w", err)
		}
	})
	return presets, presetsErr
}

// HardwarePresets lists the hardware presets in catalog order.
func HardwarePresets() ([]HardwarePreset, error) {
	file, err := loadPresets()
	if err != nil {
		return nil, err
	}
	out := make([]HardwarePreset, len(file.Hardware))
	copy(out, file.Hardware)
	return out, nil
}

// LookupHardwarePreset returns the preset called name.
func LookupHardwarePreset(name string) (HardwarePreset, error) {
	all, err := HardwarePresets()
	if err != nil {
		return HardwarePreset{}, err
	}
	for _, preset := range all {
		if preset.Name == name {
			return preset, nil
		}
	}
	return HardwarePreset{}, fmt.Errorf("hardware preset %q: %w", name, ErrUnknownPreset)
}

// CPUIDPresets lists the CPUID presets in catalog order.
func CPUIDPresets() ([]CPUIDPreset, error) {
	file, err := loadPresets()
	if err != nil {
		return nil, err
	}
	out := make([]CPUIDPreset, len(file.CPUID))
	copy(out, file.CPUID)
	return out, nil
}

// LookupCPUIDPreset returns a copy of the leaves of the preset called name.
func LookupCPUIDPreset(name string) ([]identity.CPUIDLeaf, error) {
	all, err := CPUIDPresets()
	if err != nil {
		return nil, err
	}
	for _, preset := range all {
		if preset.Name == name {
			return append([]identity.CPUIDLeaf(nil), preset.Leaves...), nil
		}
	}
	return nil, fmt.Errorf("cpuid preset %q: %w", name, ErrUnknownPreset)
}

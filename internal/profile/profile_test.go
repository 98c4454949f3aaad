package profile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/cochaviz/vmveil/internal/catalog"
	"github.com/cochaviz/vmveil/internal/identity"
)

func populated() identity.Config {
	cfg := identity.Default()
	cfg.VMName = "Analysis Box"
	cfg.IncludeCreate = true
	cfg.Identity.DmiSystemUuid = "6F1C2A3B-0000-4000-8000-0123456789AB"
	cfg.CPUIDLeaves = []identity.CPUIDLeaf{{Leaf: "00000001", EAX: "000306A9", EBX: "00100800", ECX: "7F9AE3BF", EDX: "BFEBFBFF"}}
	cfg.CustomFields = []identity.CustomField{{Key: "GUI/Fullscreen", Value: "true"}}
	return cfg
}

func TestExportRoundTrip(t *testing.T) {
	t.Parallel()

	for _, format := range []Format{FormatJSON, FormatYAML} {
		format := format
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()

			want := populated()
			data, err := Marshal(want, format)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			got, err := Decode(data, format, identity.Config{})
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExportUsesPersistedKeys(t *testing.T) {
	t.Parallel()

	data, err := Marshal(populated(), FormatJSON)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, key := range []string{`"config"`, `"security"`, `"vmConfig"`, `"regionConfig"`, `"cpuidLeaves"`, `"customFields"`, `"vmName"`, `"appendCreate"`, `"version": "3.5.0"`, `"DmiBIOSVendor"`} {
		if !bytes.Contains(data, []byte(key)) {
			t.Fatalf("exported JSON missing %s", key)
		}
	}
}

func TestDecodePartialOverlayKeepsOtherFields(t *testing.T) {
	t.Parallel()

	base := identity.Default()
	got, err := Decode([]byte(`{"config": {"DmiBIOSVendor": "Dell Inc."}, "vmName": "Sandbox"}`), FormatJSON, base)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	want := base.Clone()
	want.Identity.DmiBIOSVendor = "Dell Inc."
	want.VMName = "Sandbox"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Decode() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeReplacesListsWholesale(t *testing.T) {
	t.Parallel()

	base := populated()
	base.CustomFields = []identity.CustomField{{Key: "k1", Value: "v1"}}

	tests := []struct {
		name       string
		input      string
		wantLeaves []identity.CPUIDLeaf
		wantFields []identity.CustomField
	}{
		{
			name:       "lists present",
			input:      `{"cpuidLeaves":[{"leaf":"00000007"}],"customFields":[{"key":"k2"}]}`,
			wantLeaves: []identity.CPUIDLeaf{{Leaf: "00000007"}},
			wantFields: []identity.CustomField{{Key: "k2"}},
		},
		{
			name:       "empty lists",
			input:      `{"cpuidLeaves":[],"customFields":[]}`,
			wantLeaves: []identity.CPUIDLeaf{},
			wantFields: []identity.CustomField{},
		},
		{
			name:       "lists absent",
			input:      `{"vmName":"Other"}`,
			wantLeaves: base.CPUIDLeaves,
			wantFields: base.CustomFields,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Decode([]byte(tc.input), FormatJSON, base)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if diff := cmp.Diff(tc.wantLeaves, got.CPUIDLeaves, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("Decode() leaves mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.wantFields, got.CustomFields, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("Decode() custom fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeReplacesListsWholesale(t *testing.T) {
	t.Parallel()

	base := populated()
	got, err := Merge(base, map[string]any{
		"cpuidLeaves": []any{map[string]any{"leaf": "80000002", "eax": "1"}},
	})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	want := []identity.CPUIDLeaf{{Leaf: "80000002", EAX: "1"}}
	if diff := cmp.Diff(want, got.CPUIDLeaves); diff != "" {
		t.Fatalf("Merge() leaves mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(base.CustomFields, got.CustomFields); diff != "" {
		t.Fatalf("Merge() custom fields mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeAcceptsNumericFieldsAsNumbers(t *testing.T) {
	t.Parallel()

	got, err := Decode([]byte(`{"vmConfig": {"cpuCount": 4, "memorySize": "8192"}, "regionConfig": {"GeoID": 244}}`), FormatJSON, identity.Default())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.VM.CPUCount != "4" || got.VM.MemorySize != "8192" || got.Region.GeoID != "244" {
		t.Fatalf("Decode() numeric fields = %q %q %q", got.VM.CPUCount, got.VM.MemorySize, got.Region.GeoID)
	}
}

func TestDecodeJSONC(t *testing.T) {
	t.Parallel()

	doc := `{
  // identity overrides
  "config": {
    "DiskSerialNumber": "WD-WCC4N1234567", /* WD Blue */
  },
}`
	got, err := Decode([]byte(doc), FormatJSONC, identity.Default())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Identity.DiskSerialNumber != "WD-WCC4N1234567" {
		t.Fatalf("DiskSerialNumber = %q, want WD-WCC4N1234567", got.Identity.DiskSerialNumber)
	}
}

func TestDecodeYAMLKeepsScalarText(t *testing.T) {
	t.Parallel()

	doc := `
config:
  DmiBIOSVersion: 1.0
  DmiBIOSReleaseMajor: 5
vmConfig:
  cpuCount: 8
security:
  injectHoneytokens: false
customFields:
  - key: GUI/Fullscreen
    value: yes
`
	got, err := Decode([]byte(doc), FormatYAML, identity.Default())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.Identity.DmiBIOSVersion != "1.0" {
		t.Fatalf("DmiBIOSVersion = %q, want 1.0", got.Identity.DmiBIOSVersion)
	}
	if got.Identity.DmiBIOSReleaseMajor != "5" || got.VM.CPUCount != "8" {
		t.Fatalf("numeric fields = %q %q", got.Identity.DmiBIOSReleaseMajor, got.VM.CPUCount)
	}
	if got.Security.InjectHoneytokens {
		t.Fatalf("InjectHoneytokens = true, want false")
	}
	if !got.Security.SpoofRegistry {
		t.Fatalf("SpoofRegistry changed although absent from the document")
	}
	want := []identity.CustomField{{Key: "GUI/Fullscreen", Value: "yes"}}
	if diff := cmp.Diff(want, got.CustomFields); diff != "" {
		t.Fatalf("CustomFields mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		data   string
		format Format
	}{
		{"array", `[1, 2]`, FormatJSON},
		{"syntax", `{"config": `, FormatJSON},
		{"wrong type", `{"config": {"DmiBIOSVendor": 5}}`, FormatJSON},
		{"yaml list", "- a\n- b\n", FormatYAML},
		{"yaml syntax", "config: [\n", FormatYAML},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			base := identity.Default()
			got, err := Decode([]byte(tc.data), tc.format, base)
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("Decode() error = %v, want *DecodeError", err)
			}
			if diff := cmp.Diff(base, got); diff != "" {
				t.Fatalf("Decode() returned a modified config on error:\n%s", diff)
			}
		})
	}
}

func TestDecodeDoesNotMutateBase(t *testing.T) {
	t.Parallel()

	base := populated()
	before := base.Clone()
	if _, err := Decode([]byte(`{"cpuidLeaves": [{"leaf": "80000002", "eax": "0", "ebx": "0", "ecx": "0", "edx": "0"}]}`), FormatJSON, base); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if diff := cmp.Diff(before, base); diff != "" {
		t.Fatalf("Decode() mutated base (-before +after):\n%s", diff)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "profile.yml")
	if err := os.WriteFile(good, []byte("vmName: FromFile\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	cfg, err := Load(good, identity.Default())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.VMName != "FromFile" {
		t.Fatalf("VMName = %q, want FromFile", cfg.VMName)
	}

	bad := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	_, err = Load(bad, identity.Default())
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) || decodeErr.Path != bad {
		t.Fatalf("Load() error = %v, want DecodeError for %s", err, bad)
	}
	if !strings.Contains(err.Error(), "broken.json") {
		t.Fatalf("Load() error %q does not name the file", err)
	}

	if _, err := Load(filepath.Join(dir, "profile.toml"), identity.Default()); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("Load() error = %v, want ErrUnknownFormat", err)
	}
}

func TestApplyPreset(t *testing.T) {
	t.Parallel()

	base := identity.Default()
	got, err := ApplyPreset(base, "Dell OptiPlex 7050")
	if err != nil {
		t.Fatalf("ApplyPreset() error = %v", err)
	}
	if got.Identity.DmiSystemProduct != "OptiPlex 7050" {
		t.Fatalf("DmiSystemProduct = %q, want OptiPlex 7050", got.Identity.DmiSystemProduct)
	}
	if got.Identity.DiskSerialNumber != base.Identity.DiskSerialNumber {
		t.Fatalf("preset overwrote a field it does not set")
	}
	if got.VM.NICType != "82540EM" {
		t.Fatalf("NICType = %q, want 82540EM", got.VM.NICType)
	}

	if _, err := ApplyPreset(base, "Commodore 64"); !errors.Is(err, catalog.ErrUnknownPreset) {
		t.Fatalf("ApplyPreset() error = %v, want ErrUnknownPreset", err)
	}
}

func TestApplyCPUIDPreset(t *testing.T) {
	t.Parallel()

	cfg, err := ApplyCPUIDPreset(populated(), "Intel Skylake")
	if err != nil {
		t.Fatalf("ApplyCPUIDPreset() error = %v", err)
	}
	if len(cfg.CPUIDLeaves) != 1 || cfg.CPUIDLeaves[0].EAX != "000506E3" {
		t.Fatalf("CPUIDLeaves = %+v", cfg.CPUIDLeaves)
	}

	cfg, err = ApplyCPUIDPreset(cfg, "Default")
	if err != nil {
		t.Fatalf("ApplyCPUIDPreset() error = %v", err)
	}
	if len(cfg.CPUIDLeaves) != 0 {
		t.Fatalf("Default preset left %d leaves", len(cfg.CPUIDLeaves))
	}
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	cases := map[string]Format{"a.json": FormatJSON, "b.JSONC": FormatJSONC, "c.yaml": FormatYAML, "d.yml": FormatYAML}
	for path, want := range cases {
		got, err := FormatFromPath(path)
		if err != nil || got != want {
			t.Fatalf("FormatFromPath(%q) = %q, %v, want %q", path, got, err, want)
		}
	}
	if _, err := FormatFromPath("noext"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("FormatFromPath(noext) error = %v, want ErrUnknownFormat", err)
	}
}

package identity

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestNumberUnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  Number
	}{
		{`"10"`, "10"},
		{`10`, "10"},
		{`3.5`, "3.5"},
		{`""`, ""},
	}

	for _, tt := range tests {
		var got Number
		if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("Unmarshal(%s) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNumberUnmarshalJSONRejectsObjects(t *testing.T) {
	t.Parallel()

	var got Number
	if err := json.Unmarshal([]byte(`{"a":1}`), &got); err == nil {
		t.Fatal("Unmarshal(object) error = nil, want non-nil")
	}
}

func TestNumberMarshalsAsString(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(struct {
		N Number `json:"n"`
	}{N: "32"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"n":"32"}` {
		t.Fatalf("Marshal() = %s, want {\"n\":\"32\"}", data)
	}
}

func TestNumberUnmarshalYAML(t *testing.T) {
	t.Parallel()

	var doc struct {
		A Number `yaml:"a"`
		B Number `yaml:"b"`
	}
	if err := yaml.Unmarshal([]byte("a: 24\nb: \"16\"\n"), &doc); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if doc.A != "24" || doc.B != "16" {
		t.Fatalf("yaml.Unmarshal() = %+v, want a=24 b=16", doc)
	}
}

func TestNumberInt(t *testing.T) {
	t.Parallel()

	if v, err := Number("4096").Int(); err != nil || v != 4096 {
		t.Fatalf("Int() = %d, %v, want 4096, nil", v, err)
	}
	if _, err := Number("lots").Int(); err == nil {
		t.Fatal("Int() error = nil, want non-nil")
	}
}

func TestCloneDoesNotShareSlices(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.CustomFields = []CustomField{{Key: "a", Value: "1"}}
	cfg.CPUIDLeaves = []CPUIDLeaf{{Leaf: "00000001"}}

	clone := cfg.Clone()
	clone.CustomFields[0].Value = "2"
	clone.CPUIDLeaves[0].Leaf = "00000002"

	if cfg.CustomFields[0].Value != "1" || cfg.CPUIDLeaves[0].Leaf != "00000001" {
		t.Fatalf("Clone() shares slices with the original: %+v", cfg)
	}
}

func TestDefaultLeavesOptionalFieldsEmpty(t *testing.T) {
	t.Parallel()

	id := DefaultIdentity()
	if id.DmiSystemUuid != "" || id.AcpiTablePath != "" {
		t.Fatalf("DefaultIdentity() optional fields = %q, %q, want empty", id.DmiSystemUuid, id.AcpiTablePath)
	}
	if id.DmiBIOSVendor == "" || id.DiskSerialNumber == "" {
		t.Fatal("DefaultIdentity() left a required placeholder empty")
	}
}

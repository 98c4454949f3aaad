package catalog

import "testing"

func TestStripHexPrefix(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"0x00000001": "00000001",
		"0X000306A9": "000306A9",
		"000306a9":   "000306a9",
		"0":          "0",
		"":           "",
		"0x0x1":      "0x1",
	}
	for input, want := range tests {
		if got := StripHexPrefix(input); got != want {
			t.Fatalf("StripHexPrefix(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestParseResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		w, h  int
		ok    bool
	}{
		{"1920x1080", 1920, 1080, true},
		{"2560X1440", 2560, 1440, true},
		{"1920*1080", 0, 0, false},
		{"x1080", 0, 0, false},
		{"0x0", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		w, h, ok := ParseResolution(tt.input)
		if w != tt.w || h != tt.h || ok != tt.ok {
			t.Fatalf("ParseResolution(%q) = %d, %d, %v, want %d, %d, %v", tt.input, w, h, ok, tt.w, tt.h, tt.ok)
		}
	}
}

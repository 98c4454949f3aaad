package guestscript

import (
	"strings"
	"testing"
	"time"

	"github.com/cochaviz/vmveil/internal/identity"
)

func request(security identity.SecurityToggles) Request {
	req := RequestFromConfig(identity.Default())
	req.Security = security
	req.GeneratedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return req
}

func TestCompileAllTogglesOff(t *testing.T) {
	t.Parallel()

	script := Compile(request(identity.SecurityToggles{}))

	if got := strings.Count(script, SkipMarker); got != 6 {
		t.Fatalf("skip markers = %d, want 6\n%s", got, script)
	}
	for _, gated := range []string{
		"Set-Clipboard",
		"Remove-Item",
		"Get-Random",
		"Set-Content",
		"VolumeId",
		"SystemInformation",
		"ProductId",
		"$RegSys ",
	} {
		if strings.Contains(script, gated) {
			t.Fatalf("Compile() contains gated command %q with every toggle off", gated)
		}
	}
	if got := strings.Count(script, "Set-ItemProperty"); got != 8 {
		t.Fatalf("always-on registry writes = %d, want 8", got)
	}
	for _, always := range []string{
		`Set-WinSystemLocale -SystemLocale "zh-CN"`,
		`Set-TimeZone -Id "China Standard Time"`,
		`Set-WinUserLanguageList -LanguageList "zh-CN","en-US" -Force`,
		"Set-WinHomeLocation -GeoId 45",
		"Start-Sleep -Seconds 3",
	} {
		if !strings.Contains(script, always) {
			t.Fatalf("Compile() missing always-on line %q", always)
		}
	}
}

func TestCompileAllTogglesOn(t *testing.T) {
	t.Parallel()

	script := Compile(request(identity.DefaultSecurity()))

	if strings.Contains(script, SkipMarker) {
		t.Fatalf("Compile() emitted a skip marker with every toggle on")
	}
	for _, want := range []string{
		`HKLM:\SYSTEM\CurrentControlSet\Control\SystemInformation`,
		`"00330-80000-00000-$rand"`,
		"Get-Command VolumeId.exe",
		"for ($i = 0; $i -lt 5; $i++) {",
		`Set-Clipboard -Value "password123"`,
		`$Drivers = @("VBoxMouse.sys", "VBoxGuest.sys", "VBoxSF.sys", "VBoxVideo.sys")`,
		"-ErrorAction Stop } catch",
	} {
		if !strings.Contains(script, want) {
			t.Fatalf("Compile() missing %q in:\n%s", want, script)
		}
	}
}

func TestCompileBlockOrder(t *testing.T) {
	t.Parallel()

	script := Compile(request(identity.DefaultSecurity()))
	order := []string{
		"Starting guest identity configuration",
		`HARDWARE\DESCRIPTION\System\BIOS`,
		"SystemInformation",
		"ProductId",
		"VolumeId.exe",
		"GetRandomFileName",
		"Set-Clipboard",
		"$Drivers",
		"Set-WinSystemLocale",
		"Configuration complete",
	}
	last := -1
	for _, marker := range order {
		idx := strings.Index(script, marker)
		if idx < 0 {
			t.Fatalf("Compile() missing %q", marker)
		}
		if idx < last {
			t.Fatalf("%q appears out of order", marker)
		}
		last = idx
	}
}

func TestCompileSingleToggle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		security identity.SecurityToggles
		want     string
	}{
		{"registry", identity.SecurityToggles{SpoofRegistry: true}, "SystemInformation"},
		{"product id", identity.SecurityToggles{RandomizeProductIDs: true}, "ProductId"},
		{"volume id", identity.SecurityToggles{RandomizeVolumeID: true}, "VolumeId.exe"},
		{"fake files", identity.SecurityToggles{GenerateFakeFiles: true}, "Set-Content"},
		{"honeytokens", identity.SecurityToggles{InjectHoneytokens: true}, "Set-Clipboard"},
		{"drivers", identity.SecurityToggles{RemoveVBoxFiles: true}, "Remove-Item"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			script := Compile(request(tc.security))
			if got := strings.Count(script, SkipMarker); got != 5 {
				t.Fatalf("skip markers = %d, want 5", got)
			}
			if !strings.Contains(script, tc.want) {
				t.Fatalf("Compile() missing %q", tc.want)
			}
		})
	}
}

func TestCompileEscapesIdentityValues(t *testing.T) {
	t.Parallel()

	req := request(identity.SecurityToggles{})
	req.Identity.DmiProcVersion = `Intel "Core" $env:USERNAME`
	script := Compile(req)

	want := "-Value \"Intel `\"Core`\" `$env:USERNAME\""
	if !strings.Contains(script, want) {
		t.Fatalf("Compile() did not escape value, want %q in:\n%s", want, script)
	}
}

func TestCompileRegionOptionalParts(t *testing.T) {
	t.Parallel()

	req := request(identity.SecurityToggles{})
	req.Region = identity.Region{RegionLocale: "en-US", TimeZone: "Pacific Standard Time"}
	script := Compile(req)

	if strings.Contains(script, "Set-WinUserLanguageList") || strings.Contains(script, "Set-WinHomeLocation") {
		t.Fatalf("Compile() emitted language or geo commands for empty values")
	}
	if !strings.Contains(script, `Set-TimeZone -Id "Pacific Standard Time"`) {
		t.Fatalf("Compile() missing timezone")
	}
}

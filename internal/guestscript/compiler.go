// Package guestscript renders the PowerShell script run inside the guest so that the
// operating system reports the same identity as the spoofed firmware.
package guestscript

import (
	"fmt"
	"strings"
	"time"

	"github.com/cochaviz/vmveil/internal/identity"
)

// SkipMarker starts the one-line comment left in place of a disabled block.
const SkipMarker = "# [skip] "

// FakeFileCount is the number of decoy file pairs written by the fake-file block.
const FakeFileCount = 5

// Honeytoken is the decoy value placed on the guest clipboard.
const Honeytoken = "password123"

// DriverFiles are the guest additions drivers removed by the cleanup block.
var DriverFiles = []string{"VBoxMouse.sys", "VBoxGuest.sys", "VBoxSF.sys", "VBoxVideo.sys"}

const driverDir = `C:\Windows\System32\drivers`

// Request is the snapshot one guest script is rendered from.
type Request struct {
	Identity identity.Identity
	Security identity.SecurityToggles
	Region   identity.Region

	// GeneratedAt is written into the header; zero means time.Now.
	GeneratedAt time.Time
}

// RequestFromConfig extracts the guest-relevant parts of a configuration.
func RequestFromConfig(cfg identity.Config) Request {
	return Request{
		Identity: cfg.Identity,
		Security: cfg.Security,
		Region:   cfg.Region,
	}
}

type block struct {
	title   string
	enabled func(identity.SecurityToggles) bool
	render  func(Request) []string
}

var blocks = []block{
	{title: "Header", render: renderHeader},
	{title: "Registry Identity", render: renderIdentity},
	{
		title:   "Extended Registry Spoofing",
		enabled: func(s identity.SecurityToggles) bool { return s.SpoofRegistry },
		render:  renderExtendedRegistry,
	},
	{
		title:   "ProductId Randomization",
		enabled: func(s identity.SecurityToggles) bool { return s.RandomizeProductIDs },
		render:  renderProductID,
	},
	{
		title:   "Volume ID Randomization",
		enabled: func(s identity.SecurityToggles) bool { return s.RandomizeVolumeID },
		render:  renderVolumeID,
	},
	{
		title:   "Fake File Generation",
		enabled: func(s identity.SecurityToggles) bool { return s.GenerateFakeFiles },
		render:  renderFakeFiles,
	},
	{
		title:   "Clipboard Honeytokens",
		enabled: func(s identity.SecurityToggles) bool { return s.InjectHoneytokens },
		render:  renderHoneytokens,
	},
	{
		title:   "VirtualBox Driver Cleanup",
		enabled: func(s identity.SecurityToggles) bool { return s.RemoveVBoxFiles },
		render:  renderDriverCleanup,
	},
	{title: "Region", render: renderRegion},
	{title: "Completion", render: renderCompletion},
}

// Compile renders the guest script. Blocks always appear in the same order; a disabled
// block leaves a single skip marker.
func Compile(req Request) string {
	if req.GeneratedAt.IsZero() {
		req.GeneratedAt = time.Now()
	}

	var lines []string
	for i, b := range blocks {
		if i > 0 {
			lines = append(lines, "")
		}
		if b.enabled != nil && !b.enabled(req.Security) {
			lines = append(lines, SkipMarker+b.title)
			continue
		}
		if i > 0 {
			lines = append(lines, "# --- "+b.title+" ---")
		}
		lines = append(lines, b.render(req)...)
	}
	return strings.Join(lines, "\n") + "\n"
}

var psEscaper = strings.NewReplacer("`", "``", `"`, "`\"", `$`, "`$")

// quote renders value as a double-quoted PowerShell string with interpolation disabled.
func quote(value string) string {
	return `"` + psEscaper.Replace(value) + `"`
}

func setProperty(pathVar, name, value string) string {
	return fmt.Sprintf("    Set-ItemProperty -Path %s -Name %s -Value %s -Force", pathVar, quote(name), quote(value))
}

// guardedKey writes properties under path only if the key already exists.
func guardedKey(pathVar, path string, props ...[2]string) []string {
	lines := []string{
		fmt.Sprintf("%s = %s", pathVar, quote(path)),
		fmt.Sprintf("if (Test-Path %s) {", pathVar),
	}
	for _, p := range props {
		lines = append(lines, setProperty(pathVar, p[0], p[1]))
	}
	return append(lines, "}")
}

func status(text string) string {
	return "Write-Host " + quote(text)
}

func renderHeader(req Request) []string {
	return []string{
		"# Guest identity script generated by vmveil",
		"# Generated at " + req.GeneratedAt.UTC().Format(time.RFC3339),
		"",
		`Write-Host "Starting guest identity configuration..." -ForegroundColor Cyan`,
	}
}

func biosVersion(id identity.Identity) string {
	return id.DmiBIOSVendor + " - " + id.DmiBIOSVersion
}

func renderIdentity(req Request) []string {
	id := req.Identity
	lines := []string{status("[-] Spoofing registry hardware keys...")}
	lines = append(lines, guardedKey("$RegBios", `HKLM:\HARDWARE\DESCRIPTION\System\BIOS`,
		[2]string{"SystemBiosVersion", biosVersion(id)},
		[2]string{"VideoBiosVersion", id.DmiBIOSVersion},
		[2]string{"SystemBiosDate", id.DmiBIOSReleaseDate},
	)...)
	lines = append(lines, guardedKey("$RegCpu", `HKLM:\HARDWARE\DESCRIPTION\System\CentralProcessor\0`,
		[2]string{"ProcessorNameString", id.DmiProcVersion},
		[2]string{"Identifier", id.DmiProcManufacturer + " Family 6 Model 142 Stepping 10"},
		[2]string{"VendorIdentifier", id.DmiProcManufacturer},
	)...)
	lines = append(lines, guardedKey("$RegScsi", `HKLM:\HARDWARE\DEVICEMAP\Scsi\Scsi Port 0\Scsi Bus 0\Target Id 0\Logical Unit Id 0`,
		[2]string{"Identifier", id.DiskModelNumber},
		[2]string{"SerialNumber", id.DiskSerialNumber},
	)...)
	return lines
}

func renderExtendedRegistry(req Request) []string {
	id := req.Identity
	lines := []string{status("[-] Spoofing system information keys...")}
	lines = append(lines, guardedKey("$RegSys", `HKLM:\HARDWARE\DESCRIPTION\System`,
		[2]string{"SystemBiosVersion", biosVersion(id)},
		[2]string{"VideoBiosVersion", id.DmiBIOSVersion},
		[2]string{"SystemBiosDate", id.DmiBIOSReleaseDate},
	)...)
	lines = append(lines, guardedKey("$RegSysInfo", `HKLM:\SYSTEM\CurrentControlSet\Control\SystemInformation`,
		[2]string{"BIOSVersion", id.DmiBIOSVersion},
		[2]string{"BIOSReleaseDate", id.DmiBIOSReleaseDate},
		[2]string{"SystemManufacturer", id.DmiSystemVendor},
		[2]string{"SystemProductName", id.DmiSystemProduct},
	)...)
	return lines
}

func renderProductID(Request) []string {
	return []string{
		status("[-] Randomizing ProductId..."),
		`$RegNT = "HKLM:\SOFTWARE\Microsoft\Windows NT\CurrentVersion"`,
		"if (Test-Path $RegNT) {",
		"    $rand = Get-Random -Minimum 100000000 -Maximum 999999999",
		`    Set-ItemProperty -Path $RegNT -Name "ProductId" -Value "00330-80000-00000-$rand" -Force`,
		"}",
	}
}

func renderVolumeID(Request) []string {
	return []string{
		status("[-] Randomizing system volume ID..."),
		"$VolumeIdTool = Get-Command VolumeId.exe -ErrorAction SilentlyContinue",
		"if ($VolumeIdTool) {",
		`    $serial = "{0:X4}-{1:X4}" -f (Get-Random -Maximum 65536), (Get-Random -Maximum 65536)`,
		"    try {",
		"        & $VolumeIdTool.Source -accepteula C: $serial | Out-Null",
		`        Write-Host "[+] Volume ID set to $serial (effective after reboot)"`,
		"    } catch {",
		`        Write-Host "[!] VolumeId.exe failed: $_" -ForegroundColor Yellow`,
		"    }",
		"} else {",
		`    Write-Host "[!] VolumeId.exe not found on PATH, volume ID unchanged" -ForegroundColor Yellow`,
		"}",
	}
}

func renderFakeFiles(Request) []string {
	return []string{
		status("[-] Generating fake user activity (Desktop/Documents)..."),
		`$desktop = [Environment]::GetFolderPath("Desktop")`,
		`$docs = [Environment]::GetFolderPath("MyDocuments")`,
		fmt.Sprintf("for ($i = 0; $i -lt %d; $i++) {", FakeFileCount),
		`    $name = [System.IO.Path]::GetRandomFileName().Split(".")[0]`,
		"    $content = [System.Convert]::ToBase64String([System.Guid]::NewGuid().ToByteArray())",
		`    Set-Content -Path "$desktop\$name.txt" -Value "Project Notes $content"`,
		`    Set-Content -Path "$docs\$name.docx" -Value "Confidential $content"`,
		"}",
	}
}

func renderHoneytokens(Request) []string {
	return []string{
		status("[-] Injecting clipboard honeytokens..."),
		"Set-Clipboard -Value " + quote(Honeytoken),
	}
}

func renderDriverCleanup(Request) []string {
	quoted := make([]string, len(DriverFiles))
	for i, name := range DriverFiles {
		quoted[i] = quote(name)
	}
	return []string{
		status("[-] Removing VirtualBox artifacts..."),
		"$Drivers = @(" + strings.Join(quoted, ", ") + ")",
		"foreach ($drv in $Drivers) {",
		`    $path = Join-Path "` + driverDir + `" $drv`,
		"    if (Test-Path $path) {",
		"        try { Remove-Item $path -Force -ErrorAction Stop } catch { Write-Host \"[!] Could not remove $path\" -ForegroundColor Yellow }",
		"    }",
		"}",
	}
}

// languageList renders the comma-separated tag list as a PowerShell array literal.
func languageList(list string) string {
	var tags []string
	for _, tag := range strings.Split(list, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, quote(tag))
		}
	}
	return strings.Join(tags, ",")
}

func renderRegion(req Request) []string {
	region := req.Region
	lines := []string{status("[-] Setting region: " + region.RegionLocale + "...")}
	if region.RegionLocale != "" {
		lines = append(lines, "Set-WinSystemLocale -SystemLocale "+quote(region.RegionLocale))
	}
	if region.TimeZone != "" {
		lines = append(lines, "Set-TimeZone -Id "+quote(region.TimeZone))
	}
	if tags := languageList(region.LanguageList); tags != "" {
		lines = append(lines, "Set-WinUserLanguageList -LanguageList "+tags+" -Force")
	}
	if geo, err := region.GeoID.Int(); err == nil {
		lines = append(lines, fmt.Sprintf("Set-WinHomeLocation -GeoId %d", geo))
	}
	return lines
}

func renderCompletion(Request) []string {
	return []string{
		`Write-Host "[+] Configuration complete. Please reboot." -ForegroundColor Green`,
		"Start-Sleep -Seconds 3",
	}
}

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/cochaviz/vmveil/internal/bundle"
	"github.com/cochaviz/vmveil/internal/catalog"
	"github.com/cochaviz/vmveil/internal/consistency"
	"github.com/cochaviz/vmveil/internal/identity"
)

var (
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	ruleStyle    = lipgloss.NewStyle().Faint(true)
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle   = lipgloss.NewStyle().Width(20)
)

func renderAdvisories(advisories []consistency.Advisory) string {
	if len(advisories) == 0 {
		return okStyle.Render("No advisories: identity looks consistent.") + "\n"
	}

	var b strings.Builder
	for _, a := range advisories {
		badge := infoStyle.Render("INFO")
		if a.Severity == consistency.SeverityWarning {
			badge = warningStyle.Render("WARN")
		}
		fmt.Fprintf(&b, "%s %s %s\n", badge, a.Message, ruleStyle.Render("("+a.Rule+")"))
	}
	fmt.Fprintf(&b, "\n%s\n", english.Plural(len(advisories), "advisory", "advisories"))
	return b.String()
}

// mebibytes renders a size given in MiB, the unit VBoxManage uses for memory, VRAM and disks.
func mebibytes(n identity.Number) string {
	v, err := n.Int()
	if err != nil || v < 0 {
		return n.String()
	}
	return humanize.IBytes(uint64(v) * 1024 * 1024)
}

func row(b *strings.Builder, label, value string) {
	if value == "" {
		value = "-"
	}
	fmt.Fprintf(b, "  %s%s\n", labelStyle.Render(label), value)
}

func renderInspect(cfg identity.Config, advisories []consistency.Advisory) string {
	var b strings.Builder
	id, vm := cfg.Identity, cfg.VM

	fmt.Fprintf(&b, "%s\n", headingStyle.Render("VM "+cfg.VMName))
	row(&b, "OS type", vm.OSType)
	row(&b, "Firmware", catalog.NormalizeFirmware(vm.Firmware).String())
	row(&b, "CPUs", vm.CPUCount.String())
	row(&b, "Memory", mebibytes(vm.MemorySize))
	row(&b, "Video memory", mebibytes(vm.VRAMSize))
	row(&b, "Disk", mebibytes(vm.DiskSize))
	row(&b, "Storage", fmt.Sprintf("%s (%s)", vm.StorageController, catalog.StorageController(vm.StorageController).Bus()))
	row(&b, "Network", fmt.Sprintf("%s, %s", vm.NetworkMode, vm.NICType))
	row(&b, "MAC", vm.MACAddress)
	row(&b, "Display", fmt.Sprintf("%s @ %s bpp", vm.VideoResolution, vm.VideoColorDepth))
	row(&b, "Create commands", fmt.Sprintf("%t", cfg.IncludeCreate))

	fmt.Fprintf(&b, "\n%s\n", headingStyle.Render("Identity"))
	row(&b, "BIOS", fmt.Sprintf("%s %s (%s)", id.DmiBIOSVendor, id.DmiBIOSVersion, id.DmiBIOSReleaseDate))
	row(&b, "System", fmt.Sprintf("%s %s", id.DmiSystemVendor, id.DmiSystemProduct))
	row(&b, "Board", fmt.Sprintf("%s %s", id.DmiBoardVendor, id.DmiBoardProduct))
	row(&b, "CPU", id.DmiProcVersion)
	row(&b, "Disk", fmt.Sprintf("%s [%s]", id.DiskModelNumber, id.DiskSerialNumber))
	row(&b, "System UUID", id.DmiSystemUuid)
	row(&b, "CPUID overrides", humanize.Comma(int64(len(cfg.CPUIDLeaves))))
	row(&b, "Custom fields", humanize.Comma(int64(len(cfg.CustomFields))))

	fmt.Fprintf(&b, "\n%s\n", headingStyle.Render("Guest"))
	row(&b, "Locale", fmt.Sprintf("%s (%s)", cfg.Region.RegionLocale, cfg.Region.TimeZone))
	row(&b, "Toggles", enabledToggles(cfg.Security))

	fmt.Fprintf(&b, "\n%s\n", english.Plural(len(advisories), "advisory", "advisories"))
	return b.String()
}

func enabledToggles(s identity.SecurityToggles) string {
	toggles := []struct {
		name string
		on   bool
	}{
		{"registry", s.SpoofRegistry},
		{"product-id", s.RandomizeProductIDs},
		{"volume-id", s.RandomizeVolumeID},
		{"fake-files", s.GenerateFakeFiles},
		{"honeytokens", s.InjectHoneytokens},
		{"driver-cleanup", s.RemoveVBoxFiles},
	}
	var on []string
	for _, t := range toggles {
		if t.on {
			on = append(on, t.name)
		}
	}
	if len(on) == 0 {
		return "none"
	}
	return strings.Join(on, ", ")
}

func renderPresets() (string, error) {
	hardware, err := catalog.HardwarePresets()
	if err != nil {
		return "", err
	}
	cpuid, err := catalog.CPUIDPresets()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", headingStyle.Render("Hardware presets"))
	for _, p := range hardware {
		fmt.Fprintf(&b, "  %s %s\n", p.Name, ruleStyle.Render(fmt.Sprintf("(v%d)", p.Version)))
	}
	fmt.Fprintf(&b, "\n%s\n", headingStyle.Render("CPUID presets"))
	for _, p := range cpuid {
		fmt.Fprintf(&b, "  %s %s\n", p.Name, ruleStyle.Render("("+english.Plural(len(p.Leaves), "leaf", "leaves")+")"))
	}

	var controllers []string
	for _, c := range catalog.StorageControllers() {
		controllers = append(controllers, fmt.Sprintf("%s (%s)", c, c.Bus()))
	}
	fmt.Fprintf(&b, "\n%s\n", headingStyle.Render("VM options"))
	row(&b, "OS types", strings.Join(catalog.OSTypes(), ", "))
	row(&b, "Firmware", catalog.FirmwareBIOS.String()+", "+catalog.FirmwareEFI.String())
	row(&b, "NIC types", strings.Join(catalog.NICTypes(), ", "))
	row(&b, "Network modes", strings.Join(catalog.NetworkModes(), ", "))
	row(&b, "Controllers", strings.Join(controllers, ", "))
	return b.String(), nil
}

func renderArtifacts(artifacts []bundle.Artifact) string {
	var b strings.Builder
	for _, a := range artifacts {
		fmt.Fprintf(&b, "%-8s %9s  %s  %s", a.Kind, humanize.IBytes(uint64(a.Size)), a.Checksum, filepath.Clean(a.Path))
		if len(a.Contents) > 0 {
			b.WriteString(ruleStyle.Render(" [" + strings.Join(a.Contents, ", ") + "]"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

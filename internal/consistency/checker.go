// Package consistency flags implausible or malformed identity combinations. Advisories are
// informational; nothing here prevents a script from being generated.
package consistency

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"golang.org/x/text/language"

	"github.com/cochaviz/vmveil/internal/catalog"
	"github.com/cochaviz/vmveil/internal/identity"
)

// Severity ranks an advisory.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Rule identifiers, stable across releases so callers can filter on them.
const (
	RuleVendorCPU       = "vendor-cpu-mismatch"
	RuleDiskSerial      = "disk-serial-mismatch"
	RuleAcpiPathShort   = "acpi-path-too-short"
	RuleAcpiPathNotice  = "acpi-path-unverified"
	RuleMACVendor       = "mac-vendor-mismatch"
	RuleCPUNICVendor    = "cpu-nic-vendor-mismatch"
	RuleMACVirtualBox   = "mac-virtualbox-oui"
	RuleMACFormat       = "mac-format"
	RuleResolution      = "video-resolution-format"
	RuleColorDepth      = "video-color-depth"
	RuleHypervisorLeak  = "hypervisor-string"
	RuleCPUIDFormat     = "cpuid-register-format"
	RuleRegionLocaleTag = "region-locale-tag"
	RuleOSType          = "os-type-unknown"
	RuleFirmware        = "firmware-unsupported"
	RuleNICType         = "nic-type-unknown"
	RuleNetworkMode     = "network-mode-unknown"
	RuleController      = "storage-controller-unknown"
	RuleBatchQuote      = "batch-double-quote"
)

// Advisory is one finding.
type Advisory struct {
	Rule     string
	Severity Severity
	Message  string
}

func (a Advisory) String() string {
	return fmt.Sprintf("[%s] %s: %s", a.Severity, a.Rule, a.Message)
}

type rule func(identity.Identity, identity.VMResources) []Advisory

// rules run in this order; each is independent of the others.
var rules = []rule{
	checkVendorCPU,
	checkDiskSerial,
	checkAcpiPath,
	checkMACVendor,
	checkCPUNICVendor,
	checkMACVirtualBox,
	checkMACFormat,
	checkVideo,
	checkHypervisorStrings,
	checkPlatform,
}

// Check runs the identity and VM rules. Identical input yields an identical list.
func Check(id identity.Identity, vm identity.VMResources) []Advisory {
	var out []Advisory
	for _, r := range rules {
		out = append(out, r(id, vm)...)
	}
	return out
}

// CheckConfig runs Check and then the CPUID and region rules.
func CheckConfig(cfg identity.Config) []Advisory {
	out := Check(cfg.Identity, cfg.VM)
	out = append(out, checkCPUID(cfg.CPUIDLeaves)...)
	out = append(out, checkRegion(cfg.Region)...)
	out = append(out, checkDoubleQuotes(cfg)...)
	return out
}

func lower(s string) string {
	return strings.ToLower(s)
}

func warn(rule, format string, args ...any) Advisory {
	return Advisory{Rule: rule, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)}
}

func info(rule, format string, args ...any) Advisory {
	return Advisory{Rule: rule, Severity: SeverityInfo, Message: fmt.Sprintf(format, args...)}
}

func checkVendorCPU(id identity.Identity, _ identity.VMResources) []Advisory {
	proc := lower(id.DmiProcManufacturer)
	if strings.Contains(lower(id.DmiSystemVendor), "apple") && (strings.Contains(proc, "amd") || strings.Contains(proc, "ryzen")) {
		return []Advisory{warn(RuleVendorCPU, "system vendor is Apple but the processor is AMD; real Macs ship Intel or Apple Silicon")}
	}
	return nil
}

func checkDiskSerial(id identity.Identity, _ identity.VMResources) []Advisory {
	if strings.Contains(lower(id.DiskModelNumber), "samsung") && strings.HasPrefix(id.DiskSerialNumber, "WD") {
		return []Advisory{warn(RuleDiskSerial, "disk model is Samsung but serial %q follows the Western Digital format", id.DiskSerialNumber)}
	}
	return nil
}

func checkAcpiPath(id identity.Identity, _ identity.VMResources) []Advisory {
	path := id.AcpiTablePath
	switch {
	case path == "":
		return nil
	case len(path) < 3:
		return []Advisory{warn(RuleAcpiPathShort, "ACPI table path %q is too short", path)}
	default:
		return []Advisory{info(RuleAcpiPathNotice, "the host script references %q but does not check that the file exists", path)}
	}
}

func checkMACVendor(id identity.Identity, vm identity.VMResources) []Advisory {
	if catalog.MACHasOUI(vm.MACAddress, catalog.AppleOUI) && !strings.Contains(lower(id.DmiSystemVendor), "apple") {
		return []Advisory{warn(RuleMACVendor, "MAC address belongs to Apple but the system vendor is %q", id.DmiSystemVendor)}
	}
	return nil
}

func checkCPUNICVendor(id identity.Identity, vm identity.VMResources) []Advisory {
	if strings.Contains(lower(id.DmiProcManufacturer), "amd") && catalog.MACHasOUI(vm.MACAddress, catalog.IntelOUI) {
		return []Advisory{info(RuleCPUNICVendor, "processor is AMD while the NIC MAC is Intel; possible on real PCs but worth avoiding")}
	}
	return nil
}

func checkMACVirtualBox(_ identity.Identity, vm identity.VMResources) []Advisory {
	if catalog.MACHasOUI(vm.MACAddress, catalog.VirtualBoxOUI) {
		return []Advisory{warn(RuleMACVirtualBox, "MAC address uses the VirtualBox OUI %s", catalog.VirtualBoxOUI)}
	}
	return nil
}

var macPattern = regexp.MustCompile(`^[0-9A-F]{12}$`)

func checkMACFormat(_ identity.Identity, vm identity.VMResources) []Advisory {
	if vm.MACAddress == "" {
		return nil
	}
	if !macPattern.MatchString(catalog.NormalizeMAC(vm.MACAddress)) {
		return []Advisory{warn(RuleMACFormat, "MAC address %q is not 12 hex digits", vm.MACAddress)}
	}
	return nil
}

func checkVideo(_ identity.Identity, vm identity.VMResources) []Advisory {
	var out []Advisory
	if vm.VideoResolution != "" {
		if _, _, ok := catalog.ParseResolution(vm.VideoResolution); !ok {
			out = append(out, warn(RuleResolution, "video resolution %q is not in WxH form", vm.VideoResolution))
		}
	}
	if depth := vm.VideoColorDepth.String(); depth != "" {
		switch depth {
		case "16", "24", "32":
		default:
			out = append(out, warn(RuleColorDepth, "color depth %q is not one of 16, 24, 32", depth))
		}
	}
	return out
}

var hypervisorMarkers = []string{"vbox", "virtualbox", "innotek"}

func checkHypervisorStrings(id identity.Identity, _ identity.VMResources) []Advisory {
	var out []Advisory
	fields := []struct {
		name  string
		value string
	}{
		{"DmiBIOSVendor", id.DmiBIOSVendor},
		{"DmiBIOSVersion", id.DmiBIOSVersion},
		{"DmiSystemVendor", id.DmiSystemVendor},
		{"DmiSystemProduct", id.DmiSystemProduct},
		{"DmiSystemSerial", id.DmiSystemSerial},
		{"DmiBoardVendor", id.DmiBoardVendor},
		{"DmiBoardProduct", id.DmiBoardProduct},
		{"DmiChassisVendor", id.DmiChassisVendor},
		{"DiskModelNumber", id.DiskModelNumber},
		{"DiskSerialNumber", id.DiskSerialNumber},
		{"ATAPIProductId", id.ATAPIProductId},
		{"ATAPIVendorId", id.ATAPIVendorId},
	}
	for _, field := range fields {
		value := lower(field.value)
		for _, marker := range hypervisorMarkers {
			if strings.Contains(value, marker) {
				out = append(out, warn(RuleHypervisorLeak, "%s %q names the hypervisor", field.name, field.value))
				break
			}
		}
	}
	return out
}

func oneOf(value string, options []string) bool {
	for _, option := range options {
		if strings.EqualFold(option, value) {
			return true
		}
	}
	return false
}

// checkPlatform flags create-block values VBoxManage is unlikely to accept. Empty values are
// left alone.
func checkPlatform(_ identity.Identity, vm identity.VMResources) []Advisory {
	var out []Advisory
	if osType := strings.TrimSpace(vm.OSType); osType != "" && !catalog.IsKnownOSType(osType) {
		out = append(out, info(RuleOSType, "OS type %q is not one of %s", vm.OSType, strings.Join(catalog.OSTypes(), ", ")))
	}
	if _, err := catalog.ParseFirmware(vm.Firmware); err != nil {
		out = append(out, warn(RuleFirmware, "%v; it is written to the script unchanged", err))
	}
	if vm.NICType != "" && !oneOf(vm.NICType, catalog.NICTypes()) {
		out = append(out, warn(RuleNICType, "NIC type %q is not one of %s", vm.NICType, strings.Join(catalog.NICTypes(), ", ")))
	}
	if vm.NetworkMode != "" && !oneOf(vm.NetworkMode, catalog.NetworkModes()) {
		out = append(out, warn(RuleNetworkMode, "network mode %q is not one of %s", vm.NetworkMode, strings.Join(catalog.NetworkModes(), ", ")))
	}
	if vm.StorageController != "" {
		var names []string
		for _, c := range catalog.StorageControllers() {
			names = append(names, c.String())
		}
		if !oneOf(vm.StorageController, names) {
			out = append(out, warn(RuleController, "storage controller %q is unknown and is treated as SATA", vm.StorageController))
		}
	}
	return out
}

// checkDoubleQuotes flags values a batch script cannot pass through verbatim.
func checkDoubleQuotes(cfg identity.Config) []Advisory {
	var out []Advisory
	flag := func(name, value string) {
		if strings.Contains(value, `"`) {
			out = append(out, warn(RuleBatchQuote, "%s %q contains a double quote; batch output replaces it with a single quote", name, value))
		}
	}

	flag("vmName", cfg.VMName)
	for _, field := range stringFields(cfg.Identity) {
		flag(field.name, field.value)
	}
	for _, field := range stringFields(cfg.VM) {
		flag(field.name, field.value)
	}
	for _, f := range cfg.CustomFields {
		flag("custom field key", f.Key)
		flag("custom field "+f.Key, f.Value)
	}
	return out
}

type namedValue struct {
	name  string
	value string
}

// stringFields lists the string-kinded fields of a struct in declaration order.
func stringFields(record any) []namedValue {
	v := reflect.ValueOf(record)
	out := make([]namedValue, 0, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		if v.Field(i).Kind() == reflect.String {
			out = append(out, namedValue{name: v.Type().Field(i).Name, value: v.Field(i).String()})
		}
	}
	return out
}

var registerPattern = regexp.MustCompile(`^[0-9A-Fa-f]{8}$`)

func checkCPUID(leaves []identity.CPUIDLeaf) []Advisory {
	var out []Advisory
	for i, leaf := range leaves {
		registers := []struct {
			name  string
			value string
		}{
			{"leaf", leaf.Leaf},
			{"eax", leaf.EAX},
			{"ebx", leaf.EBX},
			{"ecx", leaf.ECX},
			{"edx", leaf.EDX},
		}
		for _, reg := range registers {
			if !registerPattern.MatchString(catalog.StripHexPrefix(reg.value)) {
				out = append(out, warn(RuleCPUIDFormat, "cpuid entry %d %s %q is not 8 hex digits", i, reg.name, reg.value))
			}
		}
	}
	return out
}

func checkRegion(region identity.Region) []Advisory {
	var out []Advisory
	if region.RegionLocale != "" {
		if _, err := language.Parse(region.RegionLocale); err != nil {
			out = append(out, warn(RuleRegionLocaleTag, "locale %q is not a valid language tag", region.RegionLocale))
		}
	}
	for _, tag := range strings.Split(region.LanguageList, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, err := language.Parse(tag); err != nil {
			out = append(out, warn(RuleRegionLocaleTag, "language list entry %q is not a valid language tag", tag))
		}
	}
	return out
}

package consistency

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cochaviz/vmveil/internal/identity"
)

// clean returns an identity and VM config that trigger no rule.
func clean() (identity.Identity, identity.VMResources) {
	id := identity.DefaultIdentity()
	id.ATAPIVendorId = "HL-DT-ST"
	vm := identity.DefaultVMResources()
	vm.MACAddress = "001422ABCDEF"
	return id, vm
}

func rulesOf(advisories []Advisory) []string {
	var out []string
	for _, a := range advisories {
		out = append(out, a.Rule)
	}
	return out
}

func TestCleanConfigHasNoAdvisories(t *testing.T) {
	t.Parallel()

	id, vm := clean()
	if got := Check(id, vm); len(got) != 0 {
		t.Fatalf("Check() = %v, want none", got)
	}
}

func TestRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*identity.Identity, *identity.VMResources)
		want   []string
	}{
		{
			name: "apple with ryzen",
			mutate: func(id *identity.Identity, vm *identity.VMResources) {
				id.DmiSystemVendor = "Apple Inc."
				id.DmiProcManufacturer = "AMD Ryzen 5"
			},
			want: []string{RuleVendorCPU},
		},
		{
			name: "apple with intel",
			mutate: func(id *identity.Identity, vm *identity.VMResources) {
				id.DmiSystemVendor = "Apple Inc."
				id.DmiProcManufacturer = "Intel(R) Corporation"
			},
			want: nil,
		},
		{
			name: "samsung model with wd serial",
			mutate: func(id *identity.Identity, vm *identity.VMResources) {
				id.DiskSerialNumber = "WD-WCC4N1234567"
			},
			want: []string{RuleDiskSerial},
		},
		{
			name: "short acpi path",
			mutate: func(id *identity.Identity, vm *identity.VMResources) {
				id.AcpiTablePath = "a"
			},
			want: []string{RuleAcpiPathShort},
		},
		{
			name: "acpi path reminder",
			mutate: func(id *identity.Identity, vm *identity.VMResources) {
				id.AcpiTablePath = "/srv/acpi/slic.bin"
			},
			want: []string{RuleAcpiPathNotice},
		},
		{
			name: "apple mac on msi",
			mutate: func(id *identity.Identity, vm *identity.VMResources) {
				vm.MACAddress = "00:17:F2:11:22:33"
			},
			want: []string{RuleMACVendor},
		},
		{
			name: "apple mac on apple",
			mutate: func(id *identity.Identity, vm *identity.VMResources) {
				id.DmiSystemVendor = "Apple Inc."
				id.DmiProcManufacturer = "Intel"
				vm.MACAddress = "0017F2112233"
			},
			want: nil,
		},
		{
			name: "amd with intel nic",
			mutate: func(id *identity.Identity, vm *identity.VMResources) {
				vm.MACAddress = "0007e9112233"
			},
			want: []string{RuleCPUNICVendor},
		},
		{
			name: "virtualbox oui",
			mutate: func(id *identity.Identity, vm *identity.VMResources) {
				vm.MACAddress = "080027123456"
			},
			want: []string{RuleMACVirtualBox},
		},
		{
			name: "malformed mac",
			mutate: func(id *identity.Identity, vm *identity.VMResources) {
				vm.MACAddress = "00142"
			},
			want: []string{RuleMACFormat},
		},
		{
			name: "bad resolution and depth",
			mutate: func(id *identity.Identity, vm *identity.VMResources) {
				vm.VideoResolution = "1080p"
				vm.VideoColorDepth = "8"
			},
			want: []string{RuleResolution, RuleColorDepth},
		},
		{
			name: "unknown platform values",
			mutate: func(id *identity.Identity, vm *identity.VMResources) {
				vm.OSType = "BeOS"
				vm.Firmware = "openfirmware"
				vm.NICType = "rtl8139"
				vm.NetworkMode = "tunnel"
				vm.StorageController = "LsiLogic"
			},
			want: []string{RuleOSType, RuleFirmware, RuleNICType, RuleNetworkMode, RuleController},
		},
		{
			name: "known platform values in other spellings",
			mutate: func(id *identity.Identity, vm *identity.VMResources) {
				vm.OSType = "ubuntu_64"
				vm.Firmware = "UEFI"
				vm.NICType = "virtio-net"
				vm.NetworkMode = "Bridged"
				vm.StorageController = "piix4"
			},
			want: nil,
		},
		{
			name: "empty platform values",
			mutate: func(id *identity.Identity, vm *identity.VMResources) {
				vm.OSType = ""
				vm.Firmware = ""
				vm.NICType = ""
				vm.NetworkMode = ""
				vm.StorageController = ""
			},
			want: nil,
		},
		{
			name: "vbox strings",
			mutate: func(id *identity.Identity, vm *identity.VMResources) {
				id.DiskModelNumber = "VBOX HARDDISK"
				id.DmiSystemProduct = "VirtualBox"
			},
			want: []string{RuleHypervisorLeak, RuleHypervisorLeak},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			id, vm := clean()
			tc.mutate(&id, &vm)
			got := rulesOf(Check(id, vm))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Check() rules mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCheckIsDeterministic(t *testing.T) {
	t.Parallel()

	id := identity.DefaultIdentity()
	id.DmiSystemVendor = "Apple Inc."
	id.DmiProcManufacturer = "AMD Ryzen 5"
	id.AcpiTablePath = "x"
	vm := identity.DefaultVMResources()
	vm.MACAddress = "0007E9000000"

	first := Check(id, vm)
	second := Check(id, vm)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("Check() not deterministic (-first +second):\n%s", diff)
	}

	var vendorCPU int
	for _, a := range first {
		if a.Rule == RuleVendorCPU {
			vendorCPU++
		}
	}
	if vendorCPU != 1 {
		t.Fatalf("vendor/CPU advisory count = %d, want 1", vendorCPU)
	}
}

func TestSeverities(t *testing.T) {
	t.Parallel()

	id, vm := clean()
	vm.MACAddress = "0007E9000000"
	got := Check(id, vm)
	if len(got) != 1 || got[0].Severity != SeverityInfo {
		t.Fatalf("Check() = %v, want a single info advisory", got)
	}
}

func TestCheckConfig(t *testing.T) {
	t.Parallel()

	cfg := identity.Default()
	cfg.Identity, cfg.VM = clean()
	cfg.CPUIDLeaves = []identity.CPUIDLeaf{
		{Leaf: "0x00000001", EAX: "0X000306A9", EBX: "00100800", ECX: "7F9AE3BF", EDX: "BFEBFBFF"},
		{Leaf: "1", EAX: "000306A9", EBX: "00100800", ECX: "7F9AE3BF", EDX: "GGGGGGGG"},
	}
	cfg.Region.RegionLocale = "not a tag!"
	cfg.Region.LanguageList = "en-US, ??"

	got := rulesOf(CheckConfig(cfg))
	want := []string{RuleCPUIDFormat, RuleCPUIDFormat, RuleRegionLocaleTag, RuleRegionLocaleTag}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("CheckConfig() rules mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultRegionIsValid(t *testing.T) {
	t.Parallel()

	if got := checkRegion(identity.DefaultRegion()); len(got) != 0 {
		t.Fatalf("checkRegion(default) = %v, want none", got)
	}
}

func TestCheckConfigDoubleQuotes(t *testing.T) {
	t.Parallel()

	cfg := identity.Default()
	cfg.Identity, cfg.VM = clean()
	if got := CheckConfig(cfg); len(got) != 0 {
		t.Fatalf("CheckConfig(clean) = %v, want none", got)
	}

	cfg.VMName = `Lab "A"`
	cfg.Identity.DmiSystemProduct = `a"&calc`
	cfg.VM.ISOPath = `C:\iso\"x".iso`
	cfg.CustomFields = []identity.CustomField{{Key: "k", Value: `say "hi"`}, {Key: "plain", Value: "ok"}}

	var messages []string
	for _, a := range CheckConfig(cfg) {
		if a.Rule != RuleBatchQuote {
			t.Fatalf("CheckConfig() unexpected advisory %v", a)
		}
		if a.Severity != SeverityWarning {
			t.Fatalf("%s severity = %s, want warning", a.Rule, a.Severity)
		}
		messages = append(messages, a.Message)
	}
	if len(messages) != 4 {
		t.Fatalf("CheckConfig() double quote advisories = %d, want 4: %v", len(messages), messages)
	}
	for i, field := range []string{"vmName", "DmiSystemProduct", "ISOPath", "custom field k"} {
		if !strings.HasPrefix(messages[i], field+" ") {
			t.Fatalf("advisory %d = %q, want it to name %s", i, messages[i], field)
		}
	}
}

// Package hostscript renders the host-side provisioning script that stamps a VirtualBox VM
// with the configured hardware identity through VBoxManage.
package hostscript

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cochaviz/vmveil/internal/catalog"
	"github.com/cochaviz/vmveil/internal/identity"
)

// DefaultTool is the VBoxManage executable invoked by generated scripts.
const DefaultTool = "VBoxManage"

// ErrEmptyVMName is returned before any output is produced when the VM name is blank.
var ErrEmptyVMName = errors.New("vm name is required")

// Request carries everything one host script is rendered from.
type Request struct {
	Format        Format
	VMName        string
	Identity      identity.Identity
	VM            identity.VMResources
	CPUIDLeaves   []identity.CPUIDLeaf
	CustomFields  []identity.CustomField
	IncludeCreate bool

	// Tool overrides the VBoxManage executable; empty means DefaultTool.
	Tool string
	// GeneratedAt is written into the header; zero means time.Now.
	GeneratedAt time.Time
}

// RequestFromConfig builds a Request for the given format from a configuration snapshot.
func RequestFromConfig(cfg identity.Config, format Format) Request {
	return Request{
		Format:        format,
		VMName:        cfg.VMName,
		Identity:      cfg.Identity,
		VM:            cfg.VM,
		CPUIDLeaves:   cfg.CPUIDLeaves,
		CustomFields:  cfg.CustomFields,
		IncludeCreate: cfg.IncludeCreate,
	}
}

type script struct {
	d     dialect
	tool  string
	vm    string
	lines []string
}

func (s *script) add(lines ...string) {
	s.lines = append(s.lines, lines...)
}

func (s *script) section(title string) {
	if len(s.lines) > 0 && s.lines[len(s.lines)-1] != "" {
		s.add("")
	}
	s.add(s.d.comment("--- " + title + " ---"))
}

func (s *script) vbox(args ...string) {
	s.add(s.tool + " " + strings.Join(args, " "))
}

func (s *script) setExtraData(key, value string) {
	s.vbox("setextradata", s.vm, s.d.quote(key), s.d.quote(value))
}

func (s *script) modifyVM(args ...string) {
	s.vbox(append([]string{"modifyvm", s.vm}, args...)...)
}

// Compile renders the host script. Field values are emitted as given; validating them is
// the consistency checker's job.
func Compile(req Request) (string, error) {
	if strings.TrimSpace(req.VMName) == "" {
		return "", ErrEmptyVMName
	}
	d, err := dialectFor(req.Format)
	if err != nil {
		return "", err
	}

	tool := strings.TrimSpace(req.Tool)
	if tool == "" {
		tool = DefaultTool
	}
	generatedAt := req.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	s := &script{d: d, tool: toolReference(d, tool), vm: d.quote(req.VMName)}

	s.add(d.header()...)
	s.add(
		d.comment("Generated by vmveil"),
		d.comment("Timestamp: "+generatedAt.UTC().Format(time.RFC3339)),
		d.echo(fmt.Sprintf("Configuring VM: %s...", req.VMName)),
	)
	s.add(d.guard(s.tool, req.VMName, !req.IncludeCreate)...)

	if req.IncludeCreate {
		writeCreate(s, req)
	}
	writeHardware(s, req)
	writeDMI(s, req.Identity)
	writeStorage(s, req.Identity)
	writeACPI(s, req.Identity)
	writeCustomFields(s, req.CustomFields)

	if req.IncludeCreate {
		s.section("Start VM")
		s.vbox("startvm", s.vm)
	}

	s.add("")
	s.add(d.trailer()...)
	return strings.Join(s.lines, "\n") + "\n", nil
}

func toolReference(d dialect, tool string) string {
	if strings.ContainsAny(tool, " \t") {
		return d.quote(tool)
	}
	return tool
}

func writeCreate(s *script, req Request) {
	vm := req.VM
	controller := catalog.StorageController(vm.StorageController)
	ctlName := s.d.quote(controller.ControllerName())

	firmware := catalog.NormalizeFirmware(vm.Firmware).String()
	if firmware == "" {
		firmware = vm.Firmware
	}

	s.section("Create VM")
	s.vbox("createvm", "--name", s.vm, "--ostype", s.d.quote(vm.OSType), "--register")
	s.modifyVM("--firmware", firmware)
	s.modifyVM(
		"--memory", vm.MemorySize.String(),
		"--cpus", vm.CPUCount.String(),
		"--nic1", vm.NetworkMode,
		"--vram", vm.VRAMSize.String(),
		"--chipset", controller.Chipset(),
		"--ioapic", "on",
		"--paravirtprovider", "default",
		"--audio", "none",
	)
	s.vbox("storagectl", s.vm, "--name", ctlName, "--add", controller.Bus(), "--controller", vm.StorageController)

	if vm.DiskSize != "" {
		medium := s.d.quote(req.VMName + ".vdi")
		s.vbox("createmedium", "disk", "--filename", medium, "--size", vm.DiskSize.String())
		s.vbox("storageattach", s.vm, "--storagectl", ctlName, "--port", "0", "--device", "0", "--type", "hdd", "--medium", medium)
	}
	if vm.ISOPath != "" {
		// The optical drive sits where its spoofed identity is written: AHCI port 1 or
		// the IDE primary slave.
		port, device := "1", "0"
		if controller.IsIDE() {
			port, device = "0", "1"
		}
		s.vbox("storageattach", s.vm, "--storagectl", ctlName, "--port", port, "--device", device, "--type", "dvddrive", "--medium", s.d.quote(vm.ISOPath))
	}
}

func stripMACSeparators(mac string) string {
	return strings.NewReplacer(":", "", "-", "", ".", "", " ", "").Replace(mac)
}

func writeHardware(s *script, req Request) {
	vm := req.VM

	if vm.MACAddress != "" || vm.NICType != "" {
		s.section("Network Adapter")
		if vm.MACAddress != "" {
			s.modifyVM("--macaddress1", stripMACSeparators(vm.MACAddress))
		}
		if vm.NICType != "" {
			s.modifyVM("--nictype1", vm.NICType)
		}
	}

	if len(req.CPUIDLeaves) > 0 {
		s.section("CPUID Overrides")
		for _, leaf := range req.CPUIDLeaves {
			s.modifyVM("--cpuidset",
				catalog.StripHexPrefix(leaf.Leaf),
				catalog.StripHexPrefix(leaf.EAX),
				catalog.StripHexPrefix(leaf.EBX),
				catalog.StripHexPrefix(leaf.ECX),
				catalog.StripHexPrefix(leaf.EDX),
			)
		}
	}

	if vm.VideoResolution != "" {
		s.section("Display")
		mode := vm.VideoResolution
		if depth := vm.VideoColorDepth.String(); depth != "" {
			mode += "x" + depth
		}
		s.setExtraData(catalog.CustomVideoModeKey, mode)

		hint := strings.Replace(vm.VideoResolution, "x", ",", 1)
		if w, h, ok := catalog.ParseResolution(vm.VideoResolution); ok {
			hint = fmt.Sprintf("%d,%d", w, h)
		}
		s.setExtraData(catalog.LastGuestSizeHintKey, hint)

		if catalog.NormalizeFirmware(vm.Firmware) == catalog.FirmwareEFI {
			s.setExtraData(catalog.EfiGraphicsResolution, vm.VideoResolution)
		}
	}
}

func writeDMI(s *script, id identity.Identity) {
	s.section("DMI Configuration (Type 0, 1, 2, 3, 4, 11)")
	for _, field := range catalog.DMITable() {
		value := field.Value(id)
		if value == "" {
			continue
		}
		s.setExtraData(field.Path, catalog.EncodeValue(field.Name, value))
	}
}

func writeStorage(s *script, id identity.Identity) {
	s.section("Storage Controllers (AHCI + PIIX3)")
	for _, device := range catalog.StorageDevices() {
		for _, prefix := range []string{device.AHCIPrefix, device.IDEPrefix} {
			for _, field := range device.Fields {
				if value := field.Value(id); value != "" {
					s.setExtraData(prefix+field.Key, value)
				}
			}
		}
	}
}

func writeACPI(s *script, id identity.Identity) {
	if id.AcpiTablePath == "" {
		return
	}
	s.section("ACPI Custom Table")
	s.setExtraData(catalog.AcpiCustomTableKey, id.AcpiTablePath)
}

func writeCustomFields(s *script, fields []identity.CustomField) {
	if len(fields) == 0 {
		return
	}
	s.section("Custom Fields")
	for _, field := range fields {
		s.setExtraData(field.Key, field.Value)
	}
}

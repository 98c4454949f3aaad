package catalog

import (
	"strings"

	"github.com/cochaviz/vmveil/internal/identity"
)

const (
	pcbiosConfig = "VBoxInternal/Devices/pcbios/0/Config/"

	// StringPrefix marks an extra-data value as a string for the VirtualBox CFGM parser.
	StringPrefix = "string:"
	// RawMarker in a value disables string encoding; it is reserved for raw values.
	RawMarker = "**"
)

// DMIField maps one identity field to its extra-data key.
type DMIField struct {
	Name   string
	Path   string
	String bool
	Value  func(identity.Identity) string
}

func dmi(name string, str bool, value func(identity.Identity) string) DMIField {
	return DMIField{Name: name, Path: pcbiosConfig + name, String: str, Value: value}
}

var dmiTable = []DMIField{
	dmi("DmiBIOSVendor", true, func(id identity.Identity) string { return id.DmiBIOSVendor }),
	dmi("DmiBIOSVersion", true, func(id identity.Identity) string { return id.DmiBIOSVersion }),
	dmi("DmiBIOSReleaseDate", true, func(id identity.Identity) string { return id.DmiBIOSReleaseDate }),
	dmi("DmiBIOSReleaseMajor", false, func(id identity.Identity) string { return id.DmiBIOSReleaseMajor.String() }),
	dmi("DmiBIOSReleaseMinor", false, func(id identity.Identity) string { return id.DmiBIOSReleaseMinor.String() }),
	dmi("DmiBIOSFirmwareMajor", false, func(id identity.Identity) string { return id.DmiBIOSFirmwareMajor.String() }),
	dmi("DmiBIOSFirmwareMinor", false, func(id identity.Identity) string { return id.DmiBIOSFirmwareMinor.String() }),
	dmi("DmiSystemVendor", true, func(id identity.Identity) string { return id.DmiSystemVendor }),
	dmi("DmiSystemProduct", true, func(id identity.Identity) string { return id.DmiSystemProduct }),
	dmi("DmiSystemVersion", true, func(id identity.Identity) string { return id.DmiSystemVersion }),
	dmi("DmiSystemSerial", true, func(id identity.Identity) string { return id.DmiSystemSerial }),
	dmi("DmiSystemUuid", false, func(id identity.Identity) string { return id.DmiSystemUuid }),
	dmi("DmiSystemFamily", true, func(id identity.Identity) string { return id.DmiSystemFamily }),
	dmi("DmiSystemSKU", true, func(id identity.Identity) string { return id.DmiSystemSKU }),
	dmi("DmiBoardVendor", true, func(id identity.Identity) string { return id.DmiBoardVendor }),
	dmi("DmiBoardProduct", true, func(id identity.Identity) string { return id.DmiBoardProduct }),
	dmi("DmiBoardVersion", true, func(id identity.Identity) string { return id.DmiBoardVersion }),
	dmi("DmiBoardSerial", true, func(id identity.Identity) string { return id.DmiBoardSerial }),
	dmi("DmiBoardAssetTag", true, func(id identity.Identity) string { return id.DmiBoardAssetTag }),
	dmi("DmiBoardLocInChass", true, func(id identity.Identity) string { return id.DmiBoardLocInChass }),
	dmi("DmiBoardBoardType", false, func(id identity.Identity) string { return id.DmiBoardBoardType.String() }),
	dmi("DmiChassisVendor", true, func(id identity.Identity) string { return id.DmiChassisVendor }),
	dmi("DmiChassisVersion", true, func(id identity.Identity) string { return id.DmiChassisVersion }),
	dmi("DmiChassisType", false, func(id identity.Identity) string { return id.DmiChassisType.String() }),
	dmi("DmiChassisSerial", true, func(id identity.Identity) string { return id.DmiChassisSerial }),
	dmi("DmiChassisAssetTag", true, func(id identity.Identity) string { return id.DmiChassisAssetTag }),
	dmi("DmiProcManufacturer", true, func(id identity.Identity) string { return id.DmiProcManufacturer }),
	dmi("DmiProcVersion", true, func(id identity.Identity) string { return id.DmiProcVersion }),
	dmi("DmiOEMVBoxVer", true, func(id identity.Identity) string { return id.DmiOEMVBoxVer }),
	dmi("DmiOEMVBoxRev", true, func(id identity.Identity) string { return id.DmiOEMVBoxRev }),
}

// DMITable returns the DMI key-path table in its fixed output order.
func DMITable() []DMIField {
	out := make([]DMIField, len(dmiTable))
	copy(out, dmiTable)
	return out
}

// IsStringField reports whether the named identity field is string-typed for the hypervisor.
func IsStringField(name string) bool {
	for _, field := range dmiTable {
		if field.Name == name {
			return field.String
		}
	}
	return false
}

// StringFields lists the string-typed field names in table order.
func StringFields() []string {
	var names []string
	for _, field := range dmiTable {
		if field.String {
			names = append(names, field.Name)
		}
	}
	return names
}

// EncodeValue applies the string-typing rule. Values of string fields gain a single
// "string:" prefix unless already prefixed or carrying the raw marker. Everything else is
// returned unchanged.
func EncodeValue(name, value string) string {
	if value == "" || !IsStringField(name) {
		return value
	}
	if strings.HasPrefix(value, StringPrefix) || strings.Contains(value, RawMarker) {
		return value
	}
	return StringPrefix + value
}

// StorageField is a disk or optical identity value written under a device-relative key.
type StorageField struct {
	Key   string
	Value func(identity.Identity) string
}

// StorageDevice groups the fields of one device with its AHCI and legacy IDE key prefixes.
// Every field is written under both prefixes.
type StorageDevice struct {
	Name       string
	AHCIPrefix string
	IDEPrefix  string
	Fields     []StorageField
}

var storageDevices = []StorageDevice{
	{
		Name:       "disk",
		AHCIPrefix: "VBoxInternal/Devices/ahci/0/Config/Port0/",
		IDEPrefix:  "VBoxInternal/Devices/piix3ide/0/Config/PrimaryMaster/",
		Fields: []StorageField{
			{Key: "SerialNumber", Value: func(id identity.Identity) string { return id.DiskSerialNumber }},
			{Key: "ModelNumber", Value: func(id identity.Identity) string { return id.DiskModelNumber }},
			{Key: "FirmwareRevision", Value: func(id identity.Identity) string { return id.DiskFirmwareRevision }},
		},
	},
	{
		Name:       "optical",
		AHCIPrefix: "VBoxInternal/Devices/ahci/0/Config/Port1/",
		IDEPrefix:  "VBoxInternal/Devices/piix3ide/0/Config/PrimarySlave/",
		Fields: []StorageField{
			{Key: "ATAPISerialNumber", Value: func(id identity.Identity) string { return id.ATAPISerialNumber }},
			{Key: "ATAPIRevision", Value: func(id identity.Identity) string { return id.ATAPIRevision }},
			{Key: "ATAPIProductId", Value: func(id identity.Identity) string { return id.ATAPIProductId }},
			{Key: "ATAPIVendorId", Value: func(id identity.Identity) string { return id.ATAPIVendorId }},
		},
	},
}

// StorageDevices returns the disk and optical device tables.
func StorageDevices() []StorageDevice {
	out := make([]StorageDevice, len(storageDevices))
	copy(out, storageDevices)
	return out
}

// AcpiCustomTableKey receives the host path of a custom ACPI table.
const AcpiCustomTableKey = "VBoxInternal/Devices/acpi/0/Config/CustomTable"

// Display extra-data keys.
const (
	CustomVideoModeKey    = "CustomVideoMode1"
	LastGuestSizeHintKey  = "GUI/LastGuestSizeHint"
	EfiGraphicsResolution = "VBoxInternal2/EfiGraphicsResolution"
)

package identity

// Identity is the firmware, storage and ACPI identity reported by the virtual machine.
// JSON and YAML keys match the field names so persisted profiles stay interchangeable.
type Identity struct {
	// BIOS (DMI type 0)
	DmiBIOSVendor        string `json:"DmiBIOSVendor" yaml:"DmiBIOSVendor"`
	DmiBIOSVersion       string `json:"DmiBIOSVersion" yaml:"DmiBIOSVersion"`
	DmiBIOSReleaseDate   string `json:"DmiBIOSReleaseDate" yaml:"DmiBIOSReleaseDate"`
	DmiBIOSReleaseMajor  Number `json:"DmiBIOSReleaseMajor" yaml:"DmiBIOSReleaseMajor"`
	DmiBIOSReleaseMinor  Number `json:"DmiBIOSReleaseMinor" yaml:"DmiBIOSReleaseMinor"`
	DmiBIOSFirmwareMajor Number `json:"DmiBIOSFirmwareMajor" yaml:"DmiBIOSFirmwareMajor"`
	DmiBIOSFirmwareMinor Number `json:"DmiBIOSFirmwareMinor" yaml:"DmiBIOSFirmwareMinor"`

	// System (DMI type 1)
	DmiSystemVendor  string `json:"DmiSystemVendor" yaml:"DmiSystemVendor"`
	DmiSystemProduct string `json:"DmiSystemProduct" yaml:"DmiSystemProduct"`
	DmiSystemVersion string `json:"DmiSystemVersion" yaml:"DmiSystemVersion"`
	DmiSystemSerial  string `json:"DmiSystemSerial" yaml:"DmiSystemSerial"`
	DmiSystemUuid    string `json:"DmiSystemUuid" yaml:"DmiSystemUuid"`
	DmiSystemFamily  string `json:"DmiSystemFamily" yaml:"DmiSystemFamily"`
	DmiSystemSKU     string `json:"DmiSystemSKU" yaml:"DmiSystemSKU"`

	// Board (DMI type 2)
	DmiBoardVendor     string `json:"DmiBoardVendor" yaml:"DmiBoardVendor"`
	DmiBoardProduct    string `json:"DmiBoardProduct" yaml:"DmiBoardProduct"`
	DmiBoardVersion    string `json:"DmiBoardVersion" yaml:"DmiBoardVersion"`
	DmiBoardSerial     string `json:"DmiBoardSerial" yaml:"DmiBoardSerial"`
	DmiBoardAssetTag   string `json:"DmiBoardAssetTag" yaml:"DmiBoardAssetTag"`
	DmiBoardLocInChass string `json:"DmiBoardLocInChass" yaml:"DmiBoardLocInChass"`
	DmiBoardBoardType  Number `json:"DmiBoardBoardType" yaml:"DmiBoardBoardType"`

	// Chassis (DMI type 3)
	DmiChassisVendor   string `json:"DmiChassisVendor" yaml:"DmiChassisVendor"`
	DmiChassisVersion  string `json:"DmiChassisVersion" yaml:"DmiChassisVersion"`
	DmiChassisType     Number `json:"DmiChassisType" yaml:"DmiChassisType"`
	DmiChassisSerial   string `json:"DmiChassisSerial" yaml:"DmiChassisSerial"`
	DmiChassisAssetTag string `json:"DmiChassisAssetTag" yaml:"DmiChassisAssetTag"`

	// Processor (DMI type 4)
	DmiProcManufacturer string `json:"DmiProcManufacturer" yaml:"DmiProcManufacturer"`
	DmiProcVersion      string `json:"DmiProcVersion" yaml:"DmiProcVersion"`

	// OEM strings (DMI type 11)
	DmiOEMVBoxVer string `json:"DmiOEMVBoxVer" yaml:"DmiOEMVBoxVer"`
	DmiOEMVBoxRev string `json:"DmiOEMVBoxRev" yaml:"DmiOEMVBoxRev"`

	// Hard disk, written to both AHCI port 0 and the PIIX3 primary master.
	DiskSerialNumber     string `json:"DiskSerialNumber" yaml:"DiskSerialNumber"`
	DiskModelNumber      string `json:"DiskModelNumber" yaml:"DiskModelNumber"`
	DiskFirmwareRevision string `json:"DiskFirmwareRevision" yaml:"DiskFirmwareRevision"`

	// Optical drive, written to both AHCI port 1 and the PIIX3 primary slave.
	ATAPISerialNumber string `json:"ATAPISerialNumber" yaml:"ATAPISerialNumber"`
	ATAPIRevision     string `json:"ATAPIRevision" yaml:"ATAPIRevision"`
	ATAPIProductId    string `json:"ATAPIProductId" yaml:"ATAPIProductId"`
	ATAPIVendorId     string `json:"ATAPIVendorId" yaml:"ATAPIVendorId"`

	// AcpiTablePath is a host path to a custom ACPI table; empty disables it.
	AcpiTablePath string `json:"AcpiTablePath" yaml:"AcpiTablePath"`
}

// VMResources holds the hypervisor-facing resource and peripheral selection.
type VMResources struct {
	OSType            string `json:"osType" yaml:"osType"`
	Firmware          string `json:"firmware" yaml:"firmware"`
	CPUCount          Number `json:"cpuCount" yaml:"cpuCount"`
	MemorySize        Number `json:"memorySize" yaml:"memorySize"`
	VRAMSize          Number `json:"vramSize" yaml:"vramSize"`
	DiskSize          Number `json:"diskSize" yaml:"diskSize"`
	NetworkMode       string `json:"networkMode" yaml:"networkMode"`
	ISOPath           string `json:"isoPath" yaml:"isoPath"`
	MACAddress        string `json:"macAddress" yaml:"macAddress"`
	NICType           string `json:"nicType" yaml:"nicType"`
	StorageController string `json:"storageController" yaml:"storageController"`
	VideoResolution   string `json:"videoResolution" yaml:"videoResolution"`
	VideoColorDepth   Number `json:"videoColorDepth" yaml:"videoColorDepth"`
}

// Region is only ever written to the guest script.
type Region struct {
	RegionLocale string `json:"RegionLocale" yaml:"RegionLocale"`
	TimeZone     string `json:"TimeZone" yaml:"TimeZone"`
	LanguageList string `json:"LanguageList" yaml:"LanguageList"`
	GeoID        Number `json:"GeoID" yaml:"GeoID"`
}

// SecurityToggles gate independent blocks of the guest script.
type SecurityToggles struct {
	SpoofRegistry       bool `json:"spoofRegistry" yaml:"spoofRegistry"`
	GenerateFakeFiles   bool `json:"generateFakeFiles" yaml:"generateFakeFiles"`
	InjectHoneytokens   bool `json:"injectHoneytokens" yaml:"injectHoneytokens"`
	RandomizeVolumeID   bool `json:"randomizeVolumeId" yaml:"randomizeVolumeId"`
	RemoveVBoxFiles     bool `json:"removeVBoxFiles" yaml:"removeVBoxFiles"`
	RandomizeProductIDs bool `json:"randomizeProductIds" yaml:"randomizeProductIds"`
}

// CPUIDLeaf overrides one CPUID leaf. Registers are 8 hex digits, optionally 0x-prefixed.
type CPUIDLeaf struct {
	Leaf string `json:"leaf" yaml:"leaf"`
	EAX  string `json:"eax" yaml:"eax"`
	EBX  string `json:"ebx" yaml:"ebx"`
	ECX  string `json:"ecx" yaml:"ecx"`
	EDX  string `json:"edx" yaml:"edx"`
}

// CustomField is an arbitrary extra-data key/value pair emitted verbatim.
type CustomField struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Config aggregates everything the compilers consume. It is also the persisted document.
type Config struct {
	Identity      Identity        `json:"config" yaml:"config"`
	Security      SecurityToggles `json:"security" yaml:"security"`
	VM            VMResources     `json:"vmConfig" yaml:"vmConfig"`
	Region        Region          `json:"regionConfig" yaml:"regionConfig"`
	CPUIDLeaves   []CPUIDLeaf     `json:"cpuidLeaves" yaml:"cpuidLeaves"`
	CustomFields  []CustomField   `json:"customFields" yaml:"customFields"`
	VMName        string          `json:"vmName" yaml:"vmName"`
	IncludeCreate bool            `json:"appendCreate" yaml:"appendCreate"`
	Version       string          `json:"version,omitempty" yaml:"version,omitempty"`
}

// Clone returns a deep copy; slices are not shared with c.
func (c Config) Clone() Config {
	out := c
	if c.CPUIDLeaves != nil {
		out.CPUIDLeaves = append([]CPUIDLeaf(nil), c.CPUIDLeaves...)
	}
	if c.CustomFields != nil {
		out.CustomFields = append([]CustomField(nil), c.CustomFields...)
	}
	return out
}

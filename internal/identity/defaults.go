package identity

// DocumentVersion is written into exported profiles.
const DocumentVersion = "3.5.0"

// DefaultVMName is used when a profile does not name the target VM.
const DefaultVMName = "MyVM"

// DefaultIdentity returns the placeholder identity: an MSI B450 board with a Ryzen CPU and a
// Samsung SSD. SystemUuid and AcpiTablePath are empty, which disables them.
func DefaultIdentity() Identity {
	return Identity{
		DmiBIOSVendor:        "American Megatrends Inc.",
		DmiBIOSVersion:       "2.1.0",
		DmiBIOSReleaseDate:   "04/18/2022",
		DmiBIOSReleaseMajor:  "2",
		DmiBIOSReleaseMinor:  "1",
		DmiBIOSFirmwareMajor: "2",
		DmiBIOSFirmwareMinor: "1",

		DmiSystemVendor:  "Micro-Star International Co., Ltd.",
		DmiSystemProduct: "MS-7B89",
		DmiSystemVersion: "1.0",
		DmiSystemSerial:  "DefaultString",
		DmiSystemFamily:  "Default String",
		DmiSystemSKU:     "Default String",

		DmiBoardVendor:     "Micro-Star International Co., Ltd.",
		DmiBoardProduct:    "B450M MORTAR MAX",
		DmiBoardVersion:    "1.0",
		DmiBoardSerial:     "DefaultString",
		DmiBoardAssetTag:   "Default String",
		DmiBoardLocInChass: "Default String",
		DmiBoardBoardType:  "10",

		DmiChassisVendor:   "Micro-Star International Co., Ltd.",
		DmiChassisVersion:  "1.0",
		DmiChassisType:     "3",
		DmiChassisSerial:   "DefaultString",
		DmiChassisAssetTag: "Default String",

		DmiProcManufacturer: "AMD",
		DmiProcVersion:      "AMD Ryzen 5 3600 6-Core Processor",

		DmiOEMVBoxVer: "string:6.1.0",
		DmiOEMVBoxRev: "string:1.0",

		DiskSerialNumber:     "S1D5N10B23",
		DiskModelNumber:      "Samsung SSD 860 EVO 500GB",
		DiskFirmwareRevision: "RVT0",

		ATAPISerialNumber: "DefaultString",
		ATAPIRevision:     "1.0",
		ATAPIProductId:    "CD-ROM Drive",
		ATAPIVendorId:     "VBOX",
	}
}

// DefaultVMResources returns a Windows 10 guest with an Intel e1000 NIC on AHCI.
func DefaultVMResources() VMResources {
	return VMResources{
		OSType:            "Windows10_64",
		Firmware:          "bios",
		CPUCount:          "2",
		MemorySize:        "4096",
		VRAMSize:          "128",
		DiskSize:          "60000",
		NetworkMode:       "nat",
		MACAddress:        "080027123456",
		NICType:           "82540EM",
		StorageController: "IntelAhci",
		VideoResolution:   "1920x1080",
		VideoColorDepth:   "32",
	}
}

func DefaultRegion() Region {
	return Region{
		RegionLocale: "zh-CN",
		TimeZone:     "China Standard Time",
		LanguageList: "zh-CN,en-US",
		GeoID:        "45",
	}
}

// DefaultSecurity enables every guest-side block.
func DefaultSecurity() SecurityToggles {
	return SecurityToggles{
		SpoofRegistry:       true,
		GenerateFakeFiles:   true,
		InjectHoneytokens:   true,
		RandomizeVolumeID:   true,
		RemoveVBoxFiles:     true,
		RandomizeProductIDs: true,
	}
}

// Default returns the configuration a new session starts from.
func Default() Config {
	return Config{
		Identity: DefaultIdentity(),
		Security: DefaultSecurity(),
		VM:       DefaultVMResources(),
		Region:   DefaultRegion(),
		VMName:   DefaultVMName,
		Version:  DocumentVersion,
	}
}

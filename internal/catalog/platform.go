package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Firmware selects the virtual firmware (VBoxManage modifyvm --firmware).
type Firmware string

const (
	FirmwareBIOS Firmware = "bios"
	FirmwareEFI  Firmware = "efi"
)

// IsValid reports whether f is a supported firmware value.
func (f Firmware) IsValid() bool {
	switch f {
	case FirmwareBIOS, FirmwareEFI:
		return true
	default:
		return false
	}
}

func (f Firmware) String() string {
	return string(f)
}

// NormalizeFirmware maps loose spellings onto a Firmware. Empty input means BIOS;
// anything unrecognized returns "".
func NormalizeFirmware(value string) Firmware {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "bios", "legacy", "pcbios":
		return FirmwareBIOS
	case "efi", "uefi", "efi64":
		return FirmwareEFI
	default:
		return ""
	}
}

// ParseFirmware is NormalizeFirmware with an error for unsupported values.
func ParseFirmware(value string) (Firmware, error) {
	if f := NormalizeFirmware(value); f != "" {
		return f, nil
	}
	return "", fmt.Errorf("unsupported firmware %q (supported: %s, %s)", value, FirmwareBIOS, FirmwareEFI)
}

var osTypes = []string{
	"Windows7_64",
	"Windows81_64",
	"Windows10_64",
	"Windows11_64",
	"Windows2016_64",
	"Windows2019_64",
	"Windows2022_64",
	"Ubuntu_64",
	"Debian_64",
}

// OSTypes returns the guest OS type identifiers offered by default, sorted.
func OSTypes() []string {
	out := append([]string(nil), osTypes...)
	sort.Strings(out)
	return out
}

// IsKnownOSType reports whether value is one of OSTypes, ignoring case.
func IsKnownOSType(value string) bool {
	for _, known := range osTypes {
		if strings.EqualFold(known, strings.TrimSpace(value)) {
			return true
		}
	}
	return false
}

package catalog

import "strings"

// StorageController is a VirtualBox storage controller chip.
type StorageController string

const (
	IntelAhci StorageController = "IntelAhci"
	PIIX4     StorageController = "PIIX4"
	ICH6      StorageController = "ICH6"
	PIIX3     StorageController = "PIIX3"
)

// Bus types understood by VBoxManage storagectl --add.
const (
	BusSATA = "sata"
	BusIDE  = "ide"
)

// Chipsets understood by VBoxManage modifyvm --chipset.
const (
	ChipsetPIIX3 = "piix3"
	ChipsetICH9  = "ich9"
)

// StorageControllers returns the selectable controllers.
func StorageControllers() []StorageController {
	return []StorageController{IntelAhci, PIIX4, ICH6, PIIX3}
}

// IsIDE reports whether the controller belongs to the IDE family. Unknown controllers are
// treated as SATA.
func (c StorageController) IsIDE() bool {
	switch StorageController(strings.ToUpper(strings.TrimSpace(string(c)))) {
	case "PIIX4", "ICH6", "PIIX3":
		return true
	default:
		return false
	}
}

// Bus returns the storage bus derived from the controller.
func (c StorageController) Bus() string {
	if c.IsIDE() {
		return BusIDE
	}
	return BusSATA
}

// Chipset returns the legacy chipset for IDE controllers and the modern one otherwise.
func (c StorageController) Chipset() string {
	if c.IsIDE() {
		return ChipsetPIIX3
	}
	return ChipsetICH9
}

// ControllerName is the storagectl --name used for the controller.
func (c StorageController) ControllerName() string {
	if c.IsIDE() {
		return "IDE"
	}
	return "SATA"
}

// String returns the controller as string.
func (c StorageController) String() string {
	return string(c)
}

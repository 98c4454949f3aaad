package catalog

import "strings"

// OUI is a registered MAC vendor prefix.
type OUI struct {
	Vendor string
	Prefix string
}

// Well-known registry entries referenced by the consistency rules.
const (
	VirtualBoxOUI = "080027"
	IntelOUI      = "0007E9"
	AppleOUI      = "0017F2"
)

var ouiRegistry = []OUI{
	{Vendor: "VirtualBox (Default)", Prefix: VirtualBoxOUI},
	{Vendor: "Intel", Prefix: IntelOUI},
	{Vendor: "Dell", Prefix: "001422"},
	{Vendor: "HP", Prefix: "001871"},
	{Vendor: "Realtek", Prefix: "00E04C"},
	{Vendor: "Cisco", Prefix: "00000C"},
	{Vendor: "Apple", Prefix: AppleOUI},
}

// OUIs returns the vendor registry in display order.
func OUIs() []OUI {
	out := make([]OUI, len(ouiRegistry))
	copy(out, ouiRegistry)
	return out
}

// LookupOUI returns the prefix registered for vendor.
func LookupOUI(vendor string) (string, bool) {
	for _, entry := range ouiRegistry {
		if entry.Vendor == vendor {
			return entry.Prefix, true
		}
	}
	return "", false
}

// NormalizeMAC strips ':', '-' and '.' separators and uppercases the result.
func NormalizeMAC(mac string) string {
	replacer := strings.NewReplacer(":", "", "-", "", ".", "")
	return strings.ToUpper(replacer.Replace(strings.TrimSpace(mac)))
}

// MACHasOUI reports whether mac, with separators ignored, starts with prefix.
func MACHasOUI(mac, prefix string) bool {
	return strings.HasPrefix(NormalizeMAC(mac), strings.ToUpper(prefix))
}

// NIC chip models accepted by VBoxManage --nictype.
var nicTypes = []string{
	"82540EM",    // Intel PRO/1000 MT Desktop
	"82543GC",    // Intel PRO/1000 T Server
	"82545EM",    // Intel PRO/1000 MT Server
	"Am79C970A",  // PCnet-PCI II
	"Am79C973",   // PCnet-FAST III
	"virtio-net", // paravirtualized
}

func NICTypes() []string {
	return append([]string(nil), nicTypes...)
}

// NetworkModes accepted by VBoxManage --nic1.
func NetworkModes() []string {
	return []string{"nat", "bridged", "intnet", "hostonly", "natnetwork", "none"}
}

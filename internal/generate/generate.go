// Package generate produces random identifiers for the "randomize" actions. The values only
// need to look plausible; none of them is suitable for security use.
package generate

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/cochaviz/vmveil/internal/catalog"
	"github.com/cochaviz/vmveil/internal/identity"
)

const hexDigits = "0123456789ABCDEF"

var ouiPattern = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// Generator draws from its own source; it is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Generator reading from src. A nil src uses a randomly seeded PCG.
func New(src rand.Source) *Generator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Generator{rng: rand.New(src)}
}

var defaultGenerator = New(nil)

func (g *Generator) intN(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.IntN(n)
}

func (g *Generator) hex(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(hexDigits[g.intN(len(hexDigits))])
	}
	return b.String()
}

// Serial returns an uppercase hex string whose length is uniform in [minLen, maxLen].
// Swapped bounds are reordered; negative bounds are treated as zero.
func (g *Generator) Serial(minLen, maxLen int) string {
	if minLen < 0 {
		minLen = 0
	}
	if maxLen < 0 {
		maxLen = 0
	}
	if minLen > maxLen {
		minLen, maxLen = maxLen, minLen
	}
	length := minLen + g.intN(maxLen-minLen+1)
	return g.hex(length)
}

// ResolveOUI maps a vendor name or a 6-hex-digit prefix to an uppercase OUI. Anything else
// resolves to a random registry entry.
func (g *Generator) ResolveOUI(prefixOrVendor string) string {
	if prefix, ok := catalog.LookupOUI(prefixOrVendor); ok {
		return prefix
	}
	if ouiPattern.MatchString(prefixOrVendor) {
		return strings.ToUpper(prefixOrVendor)
	}
	registry := catalog.OUIs()
	return registry[g.intN(len(registry))].Prefix
}

// MAC returns 12 uppercase hex digits: the resolved OUI followed by 6 random digits.
func (g *Generator) MAC(prefixOrVendor string) string {
	return g.ResolveOUI(prefixOrVendor) + g.hex(6)
}

// hardwareOUI picks a random registry prefix other than the VirtualBox default.
func (g *Generator) hardwareOUI() string {
	var candidates []string
	for _, entry := range catalog.OUIs() {
		if entry.Prefix != catalog.VirtualBoxOUI {
			candidates = append(candidates, entry.Prefix)
		}
	}
	return candidates[g.intN(len(candidates))]
}

// RandomizeIdentity replaces the UUID, the serials and the MAC address of cfg, leaving the
// remaining fields untouched. The new MAC never carries the VirtualBox OUI.
func (g *Generator) RandomizeIdentity(cfg *identity.Config) {
	cfg.Identity.DmiSystemUuid = UUIDUpper()
	cfg.Identity.DmiSystemSerial = g.Serial(10, 20)
	cfg.Identity.DmiBoardSerial = g.Serial(10, 20)
	cfg.Identity.DmiChassisSerial = g.Serial(10, 20)
	cfg.Identity.DiskSerialNumber = g.Serial(12, 20)
	cfg.Identity.ATAPISerialNumber = g.Serial(12, 20)
	cfg.VM.MACAddress = g.hardwareOUI() + g.hex(6)
}

// RandomSerial uses the package generator.
func RandomSerial(minLen, maxLen int) string {
	return defaultGenerator.Serial(minLen, maxLen)
}

// RandomMAC uses the package generator.
func RandomMAC(prefixOrVendor string) string {
	return defaultGenerator.MAC(prefixOrVendor)
}

// Randomize uses the package generator.
func Randomize(cfg *identity.Config) {
	defaultGenerator.RandomizeIdentity(cfg)
}

// UUIDUpper returns a random version 4 UUID in uppercase.
func UUIDUpper() string {
	return strings.ToUpper(uuid.NewString())
}

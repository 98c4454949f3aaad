package bundle

import "strings"

const (
	isoFileIdentifierMaxLength = 30
	isoExtensionMaxLength      = 8
)

// isoCharacters are the D-characters kept by the ISO9660 writer; anything else becomes '_'.
const isoCharacters = "abcdefghijklmnopqrstuvwxyz0123456789_!\"%&'()*+,-./:;<=>?"

// isoFileName predicts the name the ISO9660 writer gives a root-level file, without the
// ";1" version suffix, so the guest can be told where its script lives on the disc.
func isoFileName(name string) string {
	name = strings.ToLower(name)
	parts := strings.Split(name, ".")

	base := parts[0]
	extension := ""
	if len(parts) > 1 {
		base = strings.Join(parts[:len(parts)-1], "_")
		extension = isoDString(parts[len(parts)-1], isoExtensionMaxLength)
	}

	// Room for the ";1" version suffix.
	maxBase := isoFileIdentifierMaxLength - 2
	if extension != "" {
		maxBase -= 1 + len(extension)
	}
	base = isoDString(base, maxBase)

	if extension == "" {
		return base
	}
	return base + "." + extension
}

func isoDString(input string, maxLen int) string {
	var b strings.Builder
	for i := 0; i < len(input) && b.Len() < maxLen; i++ {
		if c := input[i]; strings.IndexByte(isoCharacters, c) >= 0 {
			b.WriteByte(c)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

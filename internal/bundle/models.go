package bundle

import "github.com/cochaviz/vmveil/internal/identity"

type ArtifactKind string

const (
	HostBatchArtifact ArtifactKind = "host-bat" // VBoxManage batch script
	HostShellArtifact ArtifactKind = "host-sh"  // VBoxManage shell script
	GuestArtifact     ArtifactKind = "guest"    // PowerShell guest script
	ProfileArtifact   ArtifactKind = "profile"  // exported JSON profile
	ISOArtifact       ArtifactKind = "iso"      // ISO9660 image carrying the guest script
)

// Artifact is one file written by a bundle run.
type Artifact struct {
	Kind        ArtifactKind
	Path        string
	Size        int64
	Checksum    string
	ContentType string
	// Contents lists the file names inside an ISO artifact.
	Contents []string
}

// Request describes one bundle run.
type Request struct {
	Config    identity.Config
	OutputDir string

	// ISO additionally packs the guest script into an ISO9660 image.
	ISO bool
	// Tool overrides the VBoxManage executable used in host scripts.
	Tool string
}

// Result lists the written artifacts in a fixed order.
type Result struct {
	Artifacts []Artifact
}

// BundleError reports a request that cannot be bundled.
type BundleError struct {
	Message string
}

func (e *BundleError) Error() string {
	return e.Message
}

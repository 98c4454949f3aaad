// Package bundle writes every artifact for one profile into a directory.
package bundle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cochaviz/vmveil/internal/guestscript"
	"github.com/cochaviz/vmveil/internal/hostscript"
	"github.com/cochaviz/vmveil/internal/logging"
	"github.com/cochaviz/vmveil/internal/profile"
)

type Service struct {
	Logger *slog.Logger
	// Now stamps generated scripts; nil means time.Now.
	Now func() time.Time
}

type rendered struct {
	kind        ArtifactKind
	name        string
	contentType string
	data        []byte
}

func (s Service) Write(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.OutputDir) == "" {
		return Result{}, &BundleError{Message: "output directory is required"}
	}
	if strings.TrimSpace(req.Config.VMName) == "" {
		return Result{}, hostscript.ErrEmptyVMName
	}

	logger := s.logger().With("vm", req.Config.VMName, "output_dir", req.OutputDir)

	outDir, err := filepath.Abs(req.OutputDir)
	if err != nil {
		return Result{}, fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output dir: %w", err)
	}

	files, err := s.render(ctx, req)
	if err != nil {
		return Result{}, err
	}
	logger.Debug("rendered artifacts", "count", len(files))

	var result Result
	for _, file := range files {
		path := filepath.Join(outDir, file.name)
		if err := os.WriteFile(path, file.data, filePerm(file.kind)); err != nil {
			return result, fmt.Errorf("write %s: %w", file.kind, err)
		}
		result.Artifacts = append(result.Artifacts, newArtifact(file.kind, path, file.contentType, file.data))
		logger.Info("wrote artifact", "kind", file.kind, "path", path)
	}

	if req.ISO {
		guest := files[2]
		isoPath := filepath.Join(outDir, fileStem(req.Config.VMName)+"-guest.iso")
		label := sanitizeVolumeLabel(req.Config.VMName, "GUEST")
		if err := createISO(isoPath, label, map[string][]byte{guest.name: guest.data}); err != nil {
			return result, err
		}
		image, err := os.ReadFile(isoPath)
		if err != nil {
			return result, fmt.Errorf("read iso: %w", err)
		}
		artifact := newArtifact(ISOArtifact, isoPath, "application/x-iso9660-image", image)
		artifact.Contents = []string{isoFileName(guest.name)}
		result.Artifacts = append(result.Artifacts, artifact)
		logger.Info("wrote guest iso", "path", isoPath, "label", label, "script", isoFileName(guest.name))
	}

	return result, nil
}

// render builds all text artifacts concurrently. The returned slice is ordered batch,
// shell, guest, profile.
func (s Service) render(ctx context.Context, req Request) ([]rendered, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	generatedAt := now()
	stem := fileStem(req.Config.VMName)
	cfg := req.Config.Clone()

	out := make([]rendered, 4)
	g, ctx := errgroup.WithContext(ctx)

	for i, format := range []hostscript.Format{hostscript.FormatBatch, hostscript.FormatShell} {
		i, format := i, format
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			hostReq := hostscript.RequestFromConfig(cfg, format)
			hostReq.Tool = req.Tool
			hostReq.GeneratedAt = generatedAt
			script, err := hostscript.Compile(hostReq)
			if err != nil {
				return fmt.Errorf("render %s host script: %w", format, err)
			}
			if format == hostscript.FormatBatch {
				script = strings.ReplaceAll(script, "\n", "\r\n")
			}
			kind := HostShellArtifact
			if format == hostscript.FormatBatch {
				kind = HostBatchArtifact
			}
			out[i] = rendered{kind: kind, name: stem + format.Extension(), contentType: "text/plain", data: []byte(script)}
			return nil
		})
	}

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		guestReq := guestscript.RequestFromConfig(cfg)
		guestReq.GeneratedAt = generatedAt
		script := guestscript.Compile(guestReq)
		out[2] = rendered{kind: GuestArtifact, name: stem + "-guest.ps1", contentType: "text/plain", data: []byte(script)}
		return nil
	})

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := profile.Marshal(cfg, profile.FormatJSON)
		if err != nil {
			return fmt.Errorf("render profile: %w", err)
		}
		out[3] = rendered{kind: ProfileArtifact, name: stem + ".json", contentType: "application/json", data: data}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s Service) logger() *slog.Logger {
	return logging.Ensure(s.Logger)
}

func filePerm(kind ArtifactKind) os.FileMode {
	if kind == HostShellArtifact {
		return 0o755
	}
	return 0o644
}

func newArtifact(kind ArtifactKind, path, contentType string, data []byte) Artifact {
	sum := sha256.Sum256(data)
	return Artifact{
		Kind:        kind,
		Path:        path,
		Size:        int64(len(data)),
		Checksum:    hex.EncodeToString(sum[:]),
		ContentType: contentType,
	}
}

// fileStem turns a VM name into a portable file name prefix.
func fileStem(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r < 0x20, strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	stem := strings.Trim(b.String(), ". ")
	if stem == "" {
		return "vm"
	}
	return stem
}

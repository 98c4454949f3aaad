package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cochaviz/vmveil/internal/bundle"
	"github.com/cochaviz/vmveil/internal/generate"
	"github.com/cochaviz/vmveil/internal/identity"
	"github.com/cochaviz/vmveil/internal/logging"
	"github.com/cochaviz/vmveil/internal/profile"
)

// DefaultBundleDir is where bundle writes when no output directory is given.
var DefaultBundleDir = "vmveil-out"

// Options are the command-line inputs that shape the working configuration.
type Options struct {
	ProfilePath string
	Preset      string
	CPUIDPreset string
	Randomize   bool

	// Overrides applied last; empty or nil leaves the profile value.
	VMName        string
	IncludeCreate *bool
	ISOPath       string
}

// Resolve builds the configuration in a fixed order: defaults, profile file, hardware
// preset, CPUID preset, randomization, then explicit overrides.
func Resolve(opts Options, logger *slog.Logger) (identity.Config, error) {
	return ResolveWith(opts, generate.New(nil), logger)
}

// ResolveWith is Resolve with an explicit generator for randomization.
func ResolveWith(opts Options, gen *generate.Generator, logger *slog.Logger) (identity.Config, error) {
	logger = logging.Ensure(logger).With("component", "config")
	cfg := identity.Default()

	if path := strings.TrimSpace(opts.ProfilePath); path != "" {
		loaded, err := profile.Load(path, cfg)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
		logger.Debug("loaded profile", "path", path)
	}

	if name := strings.TrimSpace(opts.Preset); name != "" {
		applied, err := profile.ApplyPreset(cfg, name)
		if err != nil {
			return cfg, err
		}
		cfg = applied
		logger.Debug("applied hardware preset", "preset", name)
	}

	if name := strings.TrimSpace(opts.CPUIDPreset); name != "" {
		applied, err := profile.ApplyCPUIDPreset(cfg, name)
		if err != nil {
			return cfg, err
		}
		cfg = applied
		logger.Debug("applied cpuid preset", "preset", name, "leaves", len(cfg.CPUIDLeaves))
	}

	if opts.Randomize {
		if gen == nil {
			gen = generate.New(nil)
		}
		gen.RandomizeIdentity(&cfg)
		logger.Debug("randomized identity", "system_uuid", cfg.Identity.DmiSystemUuid, "mac", cfg.VM.MACAddress)
	}

	if opts.VMName != "" {
		cfg.VMName = opts.VMName
	}
	if opts.IncludeCreate != nil {
		cfg.IncludeCreate = *opts.IncludeCreate
	}
	if opts.ISOPath != "" {
		cfg.VM.ISOPath = opts.ISOPath
	}
	return cfg, nil
}

// Bundle writes every artifact for cfg into outDir.
func Bundle(ctx context.Context, cfg identity.Config, outDir, tool string, iso bool, logger *slog.Logger) (bundle.Result, error) {
	if outDir == "" {
		outDir = DefaultBundleDir
	}

	service := bundle.Service{Logger: logging.Ensure(logger).With("service", "bundle")}
	result, err := service.Write(ctx, bundle.Request{
		Config:    cfg,
		OutputDir: outDir,
		ISO:       iso,
		Tool:      tool,
	})
	if err != nil {
		return result, fmt.Errorf("bundle %q: %w", cfg.VMName, err)
	}
	return result, nil
}

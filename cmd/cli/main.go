package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	config "github.com/cochaviz/vmveil/config"
	"github.com/cochaviz/vmveil/internal/consistency"
	"github.com/cochaviz/vmveil/internal/generate"
	"github.com/cochaviz/vmveil/internal/guestscript"
	"github.com/cochaviz/vmveil/internal/hostscript"
	"github.com/cochaviz/vmveil/internal/identity"
	"github.com/cochaviz/vmveil/internal/logging"
	"github.com/cochaviz/vmveil/internal/profile"
)

const (
	defaultLogLevel  = "warning"
	defaultLogFormat = "text"
)

// handlerSwitch lets the root command swap the log format after flags are parsed while
// subcommands keep the logger they were built with.
type handlerSwitch struct {
	current slog.Handler
}

func (s *handlerSwitch) Enabled(ctx context.Context, level slog.Level) bool {
	return s.current.Enabled(ctx, level)
}

func (s *handlerSwitch) Handle(ctx context.Context, record slog.Record) error {
	return s.current.Handle(ctx, record)
}

func (s *handlerSwitch) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &derivedHandler{root: s, wrap: func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) }}
}

func (s *handlerSwitch) WithGroup(name string) slog.Handler {
	return &derivedHandler{root: s, wrap: func(h slog.Handler) slog.Handler { return h.WithGroup(name) }}
}

type derivedHandler struct {
	root *handlerSwitch
	wrap func(slog.Handler) slog.Handler
}

func (d *derivedHandler) resolve() slog.Handler {
	return d.wrap(d.root.current)
}

func (d *derivedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return d.root.current.Enabled(ctx, level)
}

func (d *derivedHandler) Handle(ctx context.Context, record slog.Record) error {
	return d.resolve().Handle(ctx, record)
}

func (d *derivedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &derivedHandler{root: d.root, wrap: func(h slog.Handler) slog.Handler { return d.wrap(h).WithAttrs(attrs) }}
}

func (d *derivedHandler) WithGroup(name string) slog.Handler {
	return &derivedHandler{root: d.root, wrap: func(h slog.Handler) slog.Handler { return d.wrap(h).WithGroup(name) }}
}

func main() {
	var levelVar slog.LevelVar
	levelVar.Set(slog.LevelWarn)

	handlers := &handlerSwitch{current: logging.NewCLI(os.Stderr, &levelVar).Handler()}
	logger := slog.New(handlers)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(logger, &levelVar, handlers)
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("command interrupted", "error", err)
			os.Exit(130)
		}
		logger.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// profileFlags are shared by every command that works on a resolved configuration.
type profileFlags struct {
	opts   config.Options
	create bool
}

func (p *profileFlags) resolve(cmd *cobra.Command, logger *slog.Logger) (identity.Config, error) {
	opts := p.opts
	if cmd.Flags().Changed("create") {
		create := p.create
		opts.IncludeCreate = &create
	}
	return config.Resolve(opts, logger)
}

func newRootCommand(logger *slog.Logger, levelVar *slog.LevelVar, handlers *handlerSwitch) *cobra.Command {
	var (
		logLevel  = defaultLogLevel
		logFormat = defaultLogFormat
		flags     profileFlags
	)

	root := &cobra.Command{
		Use:           "vmveil",
		Short:         "Compile a VirtualBox hardware identity into host and guest provisioning scripts",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "Set log verbosity (debug, info, warning, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", defaultLogFormat, "Log record format (text, json)")
	root.PersistentFlags().StringVarP(&flags.opts.ProfilePath, "profile", "p", "", "Profile to load (.json, .jsonc, .yaml)")
	root.PersistentFlags().StringVar(&flags.opts.Preset, "preset", "", "Hardware preset applied over the profile")
	root.PersistentFlags().StringVar(&flags.opts.CPUIDPreset, "cpuid-preset", "", "CPUID preset replacing the profile's leaves")
	root.PersistentFlags().BoolVar(&flags.opts.Randomize, "randomize", false, "Randomize UUID, serials, and MAC address")
	root.PersistentFlags().StringVar(&flags.opts.VMName, "vm-name", "", "Override the target VM name")
	root.PersistentFlags().BoolVar(&flags.create, "create", false, "Include VM creation commands in host scripts")
	root.PersistentFlags().StringVar(&flags.opts.ISOPath, "install-iso", "", "Installer ISO attached when creating the VM")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		mode, err := logging.ParseMode(logFormat)
		if err != nil {
			return err
		}
		if levelVar != nil {
			levelVar.Set(level)
		}
		if handlers != nil {
			handlers.current = logging.New(mode, cmd.ErrOrStderr(), levelVar).Handler()
		}
		return nil
	}

	root.AddCommand(
		newHostCommand(logger, &flags),
		newGuestCommand(logger, &flags),
		newCheckCommand(logger, &flags),
		newBundleCommand(logger, &flags),
		newInitCommand(logger, &flags),
		newInspectCommand(logger, &flags),
		newPresetsCommand(),
		newRandomCommand(),
	)
	return root
}

func defaultHostFormat() string {
	if runtime.GOOS == "windows" {
		return string(hostscript.FormatBatch)
	}
	return string(hostscript.FormatShell)
}

func newHostCommand(logger *slog.Logger, flags *profileFlags) *cobra.Command {
	var (
		format     string
		outputPath string
		tool       string
	)

	cmd := &cobra.Command{
		Use:   "host",
		Short: "Render the VBoxManage host script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdLogger := logger.With("command", "host")

			hostFormat, err := hostscript.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := flags.resolve(cmd, cmdLogger)
			if err != nil {
				return err
			}

			req := hostscript.RequestFromConfig(cfg, hostFormat)
			req.Tool = tool
			script, err := hostscript.Compile(req)
			if err != nil {
				return err
			}
			if hostFormat == hostscript.FormatBatch && outputPath != "" {
				script = strings.ReplaceAll(script, "\n", "\r\n")
			}

			perm := os.FileMode(0o644)
			if hostFormat == hostscript.FormatShell {
				perm = 0o755
			}
			if err := writeOutput(cmd.OutOrStdout(), outputPath, []byte(script), perm); err != nil {
				return err
			}
			cmdLogger.Info("rendered host script", "format", hostFormat, "vm", cfg.VMName, "output", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", defaultHostFormat(), "Script dialect (bat, sh)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the script to a file instead of stdout")
	cmd.Flags().StringVar(&tool, "vboxmanage", hostscript.DefaultTool, "VBoxManage executable used by the script")
	return cmd
}

func newGuestCommand(logger *slog.Logger, flags *profileFlags) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "guest",
		Short: "Render the PowerShell guest script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdLogger := logger.With("command", "guest")

			cfg, err := flags.resolve(cmd, cmdLogger)
			if err != nil {
				return err
			}
			script := guestscript.Compile(guestscript.RequestFromConfig(cfg))
			if err := writeOutput(cmd.OutOrStdout(), outputPath, []byte(script), 0o644); err != nil {
				return err
			}
			cmdLogger.Info("rendered guest script", "output", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the script to a file instead of stdout")
	return cmd
}

func newCheckCommand(logger *slog.Logger, flags *profileFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report implausible or malformed identity combinations",
		Long:  "Advisories never block generation; check always exits successfully once the profile is loaded.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdLogger := logger.With("command", "check")

			cfg, err := flags.resolve(cmd, cmdLogger)
			if err != nil {
				return err
			}
			advisories := consistency.CheckConfig(cfg)
			fmt.Fprint(cmd.OutOrStdout(), renderAdvisories(advisories))
			cmdLogger.Info("consistency check finished", "advisories", len(advisories))
			return nil
		},
	}
}

func newBundleCommand(logger *slog.Logger, flags *profileFlags) *cobra.Command {
	var (
		outDir string
		iso    bool
		tool   string
	)

	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Write host scripts, guest script, and profile into a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdLogger := logger.With("command", "bundle")

			cfg, err := flags.resolve(cmd, cmdLogger)
			if err != nil {
				return err
			}
			result, err := config.Bundle(cmd.Context(), cfg, outDir, tool, iso, cmdLogger)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderArtifacts(result.Artifacts))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", config.DefaultBundleDir, "Output directory")
	cmd.Flags().BoolVar(&iso, "iso", false, "Also pack the guest script into an ISO9660 image")
	cmd.Flags().StringVar(&tool, "vboxmanage", hostscript.DefaultTool, "VBoxManage executable used by host scripts")
	return cmd
}

func newInitCommand(logger *slog.Logger, flags *profileFlags) *cobra.Command {
	var (
		outputPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starting profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdLogger := logger.With("command", "init")

			docFormat := profile.FormatJSON
			switch {
			case format != "":
				parsed, err := profile.ParseFormat(format)
				if err != nil {
					return err
				}
				docFormat = parsed
			case outputPath != "":
				parsed, err := profile.FormatFromPath(outputPath)
				if err != nil {
					return err
				}
				docFormat = parsed
			}

			cfg, err := flags.resolve(cmd, cmdLogger)
			if err != nil {
				return err
			}
			data, err := profile.Marshal(cfg, docFormat)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd.OutOrStdout(), outputPath, data, 0o644); err != nil {
				return err
			}
			cmdLogger.Info("wrote profile", "format", docFormat, "output", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Profile path; the extension selects the format")
	cmd.Flags().StringVar(&format, "format", "", "Force the profile format (json, yaml)")
	return cmd
}

func newInspectCommand(logger *slog.Logger, flags *profileFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Summarize the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd, logger.With("command", "inspect"))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderInspect(cfg, consistency.CheckConfig(cfg)))
			return nil
		},
	}
}

func newPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List hardware and CPUID presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := renderPresets()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newRandomCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Generate standalone identifiers",
	}

	var minLen, maxLen int
	serial := &cobra.Command{
		Use:   "serial",
		Short: "Random uppercase hex serial",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), generate.RandomSerial(minLen, maxLen))
			return nil
		},
	}
	serial.Flags().IntVar(&minLen, "min", 10, "Minimum length")
	serial.Flags().IntVar(&maxLen, "max", 20, "Maximum length")

	var vendor string
	mac := &cobra.Command{
		Use:   "mac",
		Short: "Random MAC address for a vendor name or OUI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), generate.RandomMAC(vendor))
			return nil
		},
	}
	mac.Flags().StringVar(&vendor, "vendor", "", "Vendor name (e.g. Intel) or 6-hex-digit OUI; empty picks one at random")

	uuidCmd := &cobra.Command{
		Use:   "uuid",
		Short: "Random uppercase system UUID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), generate.UUIDUpper())
			return nil
		},
	}

	cmd.AddCommand(serial, mac, uuidCmd)
	return cmd
}

// writeOutput writes data to path, or to w when path is empty.
func writeOutput(w io.Writer, path string, data []byte, perm os.FileMode) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

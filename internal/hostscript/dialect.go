package hostscript

import (
	"fmt"
	"strings"
)

// Format selects the host shell the script targets.
type Format string

const (
	FormatBatch Format = "bat"
	FormatShell Format = "sh"
)

// FormatError reports an unsupported target format.
type FormatError struct {
	Format string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported host script format %q (supported: %s, %s)", e.Format, FormatBatch, FormatShell)
}

// ParseFormat accepts the canonical names plus common aliases.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "bat", "batch", "cmd", "windows":
		return FormatBatch, nil
	case "sh", "shell", "bash", "posix":
		return FormatShell, nil
	default:
		return "", &FormatError{Format: value}
	}
}

// Extension returns the file extension for scripts of this format, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

func (f Format) String() string {
	return string(f)
}

type dialect interface {
	header() []string
	comment(text string) string
	quote(value string) string
	echo(text string) string
	// guard fails the script unless the VM's registration state matches wantExists. Update
	// scripts pass true and require the VM to be registered; create scripts pass false and
	// refuse to touch a VM that already exists.
	guard(tool, vmName string, wantExists bool) []string
	trailer() []string
}

func dialectFor(f Format) (dialect, error) {
	switch f {
	case FormatBatch:
		return batchDialect{}, nil
	case FormatShell:
		return shellDialect{}, nil
	default:
		return nil, &FormatError{Format: string(f)}
	}
}

type batchDialect struct{}

func (batchDialect) header() []string {
	return []string{"@echo off"}
}

func (batchDialect) comment(text string) string {
	return "REM " + text
}

// cmd.exe cannot escape a double quote inside a quoted argument; it becomes a single quote.
var batchEscaper = strings.NewReplacer(`%`, `%%`, `"`, `'`)

func (batchDialect) quote(value string) string {
	return `"` + batchEscaper.Replace(value) + `"`
}

var batchEchoEscaper = strings.NewReplacer(`%`, `%%`, `"`, `'`, `^`, `^^`, `&`, `^&`, `|`, `^|`, `<`, `^<`, `>`, `^>`, `(`, `^(`, `)`, `^)`)

func (batchDialect) echo(text string) string {
	return "echo " + batchEchoEscaper.Replace(text)
}

func (d batchDialect) guard(tool, vmName string, wantExists bool) []string {
	name := batchEscaper.Replace(vmName)
	// Between the \" pairs cmd.exe sees the name unquoted, so it is caret-escaped there.
	check := fmt.Sprintf(`%s list vms | findstr /B /C:"\"%s\"" >nul`, tool, batchEchoEscaper.Replace(vmName))
	if wantExists {
		return []string{
			check,
			fmt.Sprintf(`if %%errorlevel%% neq 0 ( echo [ERROR] VM "%s" not found! & pause & exit /b 1 )`, name),
		}
	}
	return []string{
		check,
		fmt.Sprintf(`if %%errorlevel%% equ 0 ( echo [ERROR] VM "%s" already exists! & pause & exit /b 1 )`, name),
	}
}

func (batchDialect) trailer() []string {
	return []string{"echo Done.", "pause"}
}

type shellDialect struct{}

func (shellDialect) header() []string {
	return []string{"#!/bin/bash"}
}

func (shellDialect) comment(text string) string {
	return "# " + text
}

var shellEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "`", "\\`")

func (shellDialect) quote(value string) string {
	return `"` + shellEscaper.Replace(value) + `"`
}

func (d shellDialect) echo(text string) string {
	return "echo " + d.quote(text)
}

func (d shellDialect) guard(tool, vmName string, wantExists bool) []string {
	name := shellEscaper.Replace(vmName)
	if wantExists {
		return []string{fmt.Sprintf(`if ! %s list vms | grep -qF -- "\"%s\" {"; then echo "[ERROR] VM '%s' not found!" >&2; exit 1; fi`, tool, name, name)}
	}
	return []string{fmt.Sprintf(`if %s list vms | grep -qF -- "\"%s\" {"; then echo "[ERROR] VM '%s' already exists!" >&2; exit 1; fi`, tool, name, name)}
}

func (shellDialect) trailer() []string {
	return []string{`echo "Done."`, "exit 0"}
}

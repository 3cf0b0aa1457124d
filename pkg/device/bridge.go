// Package device provides Android device management via ADB.
package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/devicelab-dev/adbridge/pkg/core"
	"github.com/devicelab-dev/adbridge/pkg/logger"
	"go.uber.org/zap"
)

// Commander runs an external program and returns its stdout.
type Commander interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecCommander runs commands with os/exec.
type ExecCommander struct{}

// Run executes name with args. On failure the error carries stderr, or
// stdout when stderr is empty.
func (ExecCommander) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = strings.TrimSpace(stdout.String())
		}
		if errMsg == "" {
			return stdout.Bytes(), err
		}
		return stdout.Bytes(), fmt.Errorf("%w: %s", err, errMsg)
	}
	return stdout.Bytes(), nil
}

// Entry is one line of `adb devices`.
type Entry struct {
	Serial string `json:"serial"`
	State  string `json:"state"`
}

// Bridge talks to the adb server.
type Bridge struct {
	adbPath string
	run     Commander
	timeout time.Duration
}

// NewBridge creates a Bridge for the adb binary at adbPath.
// If adbPath is empty, adb is looked up in PATH.
func NewBridge(adbPath string) (*Bridge, error) {
	if adbPath == "" {
		path, err := findADB()
		if err != nil {
			return nil, err
		}
		adbPath = path
	}
	return NewBridgeWithCommander(adbPath, ExecCommander{}), nil
}

// NewBridgeWithCommander creates a Bridge that runs adb through run.
func NewBridgeWithCommander(adbPath string, run Commander) *Bridge {
	if adbPath == "" {
		adbPath = "adb"
	}
	return &Bridge{adbPath: adbPath, run: run}
}

// SetTimeout bounds every adb invocation. Zero disables the bound.
func (b *Bridge) SetTimeout(d time.Duration) {
	b.timeout = d
}

// ADBPath returns the adb binary the bridge runs.
func (b *Bridge) ADBPath() string {
	return b.adbPath
}

// Device returns a handle for serial. An empty serial lets adb pick the
// only connected device.
func (b *Bridge) Device(serial string) *AndroidDevice {
	return &AndroidDevice{serial: serial, bridge: b}
}

// ListDevices parses `adb devices`.
func (b *Bridge) ListDevices(ctx context.Context) ([]Entry, error) {
	out, err := b.adb(ctx, "", "devices")
	if err != nil {
		return nil, err
	}
	return parseDevices(out), nil
}

func parseDevices(out string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of") || strings.HasPrefix(line, "*") {
			continue
		}
		parts := strings.Fields(line)
		e := Entry{Serial: parts[0]}
		if len(parts) >= 2 {
			e.State = parts[1]
		}
		entries = append(entries, e)
	}
	return entries
}

// Connect runs `adb connect addr` and reports whether adb says connected.
func (b *Bridge) Connect(ctx context.Context, addr string) (bool, error) {
	if strings.TrimSpace(addr) == "" {
		return false, core.Missing("device")
	}
	out, err := b.adb(ctx, "", "connect", addr)
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "connected"), nil
}

// FirstAvailable returns the first device in the "device" state.
func (b *Bridge) FirstAvailable(ctx context.Context) (*AndroidDevice, error) {
	entries, err := b.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.State == "device" {
			return b.Device(e.Serial), nil
		}
	}
	return nil, core.ErrDeviceNotFound.WithMessage("no connected devices found")
}

// Open returns a handle for serial after checking it is online.
// If serial is empty, the first available device is used.
func (b *Bridge) Open(ctx context.Context, serial string) (*AndroidDevice, error) {
	if serial == "" {
		return b.FirstAvailable(ctx)
	}
	d := b.Device(serial)
	if err := d.waitForDevice(ctx, 5*time.Second); err != nil {
		return nil, err
	}
	return d, nil
}

// adb executes an ADB command, scoped to serial when it is not empty.
func (b *Bridge) adb(ctx context.Context, serial string, args ...string) (string, error) {
	cmdArgs := make([]string, 0, len(args)+2)
	if serial != "" {
		cmdArgs = append(cmdArgs, "-s", serial)
	}
	cmdArgs = append(cmdArgs, args...)

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := b.run.Run(ctx, b.adbPath, cmdArgs...)
	logger.L().Debug("adb",
		zap.String("device", serial),
		zap.Strings("args", args),
		zap.Duration("took", time.Since(start)),
		zap.Error(err))

	if err != nil {
		desc := "adb " + strings.Join(args, " ")
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return "", core.ErrTimeout.WithMessage(desc + " timed out").WithCause(err)
		case ctx.Err() != nil:
			return "", fmt.Errorf("%s: %w", desc, ctx.Err())
		}
		return "", core.ErrCommandFailed.WithMessage(desc).WithCause(err)
	}
	return string(out), nil
}

// findADB locates the ADB binary.
func findADB() (string, error) {
	if path, err := exec.LookPath("adb"); err == nil {
		return path, nil
	}
	return "", core.ErrADBNotFound
}

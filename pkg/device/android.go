package device

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/devicelab-dev/adbridge/pkg/core"
	"github.com/devicelab-dev/adbridge/pkg/logger"
	"github.com/google/uuid"
)

// AndroidDevice manages an Android device connection via ADB.
type AndroidDevice struct {
	serial string
	bridge *Bridge
}

// DeviceInfo contains basic device information.
type DeviceInfo struct {
	Serial     string `json:"serial"`
	Model      string `json:"model"`
	SDK        string `json:"sdk"`
	Brand      string `json:"brand"`
	IsEmulator bool   `json:"isEmulator"`
}

// Serial returns the device serial number.
func (d *AndroidDevice) Serial() string {
	return d.serial
}

// Shell executes a shell command on the device.
func (d *AndroidDevice) Shell(ctx context.Context, cmd string) (string, error) {
	return d.bridge.adb(ctx, d.serial, "shell", cmd)
}

// Tap taps at (x, y).
func (d *AndroidDevice) Tap(ctx context.Context, x, y int) (string, error) {
	return d.Shell(ctx, fmt.Sprintf("input tap %d %d", x, y))
}

// Swipe swipes from (x1, y1) to (x2, y2) over durationMs milliseconds.
func (d *AndroidDevice) Swipe(ctx context.Context, x1, y1, x2, y2, durationMs int) (string, error) {
	return d.Shell(ctx, fmt.Sprintf("input swipe %d %d %d %d %d", x1, y1, x2, y2, durationMs))
}

// TypeText types text into the focused field.
func (d *AndroidDevice) TypeText(ctx context.Context, text string) (string, error) {
	script := inputScript(text)
	if script == "" {
		return "", nil
	}
	return d.Shell(ctx, script)
}

// DeleteChars moves the cursor to the end of the focused field and sends
// n delete key events in a single call.
func (d *AndroidDevice) DeleteChars(ctx context.Context, n int) (string, error) {
	keys := make([]string, 0, n+1)
	keys = append(keys, "KEYCODE_MOVE_END")
	for i := 0; i < n; i++ {
		keys = append(keys, "KEYCODE_DEL")
	}
	return d.Shell(ctx, "input keyevent "+strings.Join(keys, " "))
}

// Screenshot captures the screen as PNG bytes.
func (d *AndroidDevice) Screenshot(ctx context.Context) ([]byte, error) {
	out, err := d.bridge.adb(ctx, d.serial, "exec-out", "screencap", "-p")
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// DumpHierarchy captures the current UI hierarchy XML.
func (d *AndroidDevice) DumpHierarchy(ctx context.Context) (string, error) {
	remote := fmt.Sprintf("/sdcard/adbridge-%s.xml", uuid.NewString())
	if _, err := d.Shell(ctx, "uiautomator dump "+remote); err != nil {
		return "", err
	}
	defer func() {
		if _, err := d.Shell(context.WithoutCancel(ctx), "rm -f "+remote); err != nil {
			logger.Warn("failed to remove %s: %v", remote, err)
		}
	}()

	out, err := d.Shell(ctx, "cat "+remote)
	if err != nil {
		return "", err
	}
	return trimDump(out)
}

// trimDump drops anything uiautomator printed before the document.
func trimDump(out string) (string, error) {
	for _, marker := range []string{"<?xml", "<hierarchy"} {
		if i := strings.Index(out, marker); i >= 0 {
			return out[i:], nil
		}
	}
	return "", core.ErrUnexpectedOutput.
		WithMessage("uiautomator dump returned no hierarchy").
		WithDetails(map[string]any{"output": strings.TrimSpace(out)})
}

// Resolution returns the screen size reported by `wm size`. An override
// size takes precedence over the physical size.
func (d *AndroidDevice) Resolution(ctx context.Context) (width, height int, err error) {
	out, err := d.Shell(ctx, "wm size")
	if err != nil {
		return 0, 0, err
	}
	return parseSize(out)
}

func parseSize(out string) (width, height int, err error) {
	var size string
	for _, line := range strings.Split(out, "\n") {
		if idx := strings.LastIndex(line, ":"); idx >= 0 && strings.Contains(line, "size") {
			size = strings.TrimSpace(line[idx+1:])
		}
	}
	w, h, ok := strings.Cut(size, "x")
	if ok {
		width, err = strconv.Atoi(w)
		if err == nil {
			height, err = strconv.Atoi(h)
		}
	}
	if !ok || err != nil {
		return 0, 0, core.ErrUnexpectedOutput.
			WithMessage(fmt.Sprintf("unexpected wm size output: %q", strings.TrimSpace(out)))
	}
	return width, height, nil
}

// InstalledPackages lists package names. Without includeSystem only
// third-party packages are listed.
func (d *AndroidDevice) InstalledPackages(ctx context.Context, includeSystem bool) ([]string, error) {
	cmd := "pm list packages -3"
	if includeSystem {
		cmd = "pm list packages"
	}
	out, err := d.Shell(ctx, cmd)
	if err != nil {
		return nil, err
	}
	var pkgs []string
	for _, line := range strings.Split(strings.ReplaceAll(out, "\r", ""), "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "package:"))
		if line != "" {
			pkgs = append(pkgs, line)
		}
	}
	return pkgs, nil
}

// AppExists reports whether a third-party package is installed.
func (d *AndroidDevice) AppExists(ctx context.Context, pkg string) (bool, error) {
	if strings.TrimSpace(pkg) == "" {
		return false, core.Missing("appPackageName")
	}
	pkgs, err := d.InstalledPackages(ctx, false)
	if err != nil {
		return false, err
	}
	for _, p := range pkgs {
		if p == pkg {
			return true, nil
		}
	}
	return false, nil
}

// ClearAppData clears the data and cache of pkg.
func (d *AndroidDevice) ClearAppData(ctx context.Context, pkg string) (string, error) {
	if err := checkPackage(pkg); err != nil {
		return "", err
	}
	return d.Shell(ctx, "pm clear "+pkg)
}

// OpenApp launches pkg through its launcher activity.
func (d *AndroidDevice) OpenApp(ctx context.Context, pkg string) (string, error) {
	if err := checkPackage(pkg); err != nil {
		return "", err
	}
	return d.Shell(ctx, fmt.Sprintf("monkey -p %s 1", pkg))
}

// InstallApp installs the APK at the host path apkPath.
func (d *AndroidDevice) InstallApp(ctx context.Context, apkPath string) (string, error) {
	if strings.TrimSpace(apkPath) == "" {
		return "", core.Missing("appPath")
	}
	return d.bridge.adb(ctx, d.serial, "install", apkPath)
}

// GoHome presses the home key.
func (d *AndroidDevice) GoHome(ctx context.Context) (string, error) {
	return d.Shell(ctx, "input keyevent KEYCODE_HOME")
}

// Battery returns the fields of `dumpsys battery`.
func (d *AndroidDevice) Battery(ctx context.Context) (map[string]any, error) {
	out, err := d.Shell(ctx, "dumpsys battery")
	if err != nil {
		return nil, err
	}
	return parseBattery(out), nil
}

// ServiceCheck reports whether a system service is registered.
func (d *AndroidDevice) ServiceCheck(ctx context.Context, name string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, core.Missing("service")
	}
	if !serviceName.MatchString(name) {
		return false, core.Invalid("service", name, nil)
	}
	out, err := d.Shell(ctx, "service check "+name)
	if err != nil {
		return false, err
	}
	return !strings.Contains(out, "not found"), nil
}

// StayAwake keeps the screen on while on USB power, or restores the
// default behavior.
func (d *AndroidDevice) StayAwake(ctx context.Context, on bool) (string, error) {
	if on {
		return d.Shell(ctx, "svc power stayon usb")
	}
	return d.Shell(ctx, "svc power stayon false")
}

// Info returns device information.
func (d *AndroidDevice) Info(ctx context.Context) (DeviceInfo, error) {
	info := DeviceInfo{Serial: d.serial}

	if model, err := d.Shell(ctx, "getprop ro.product.model"); err == nil {
		info.Model = strings.TrimSpace(model)
	}
	if sdk, err := d.Shell(ctx, "getprop ro.build.version.sdk"); err == nil {
		info.SDK = strings.TrimSpace(sdk)
	}
	if brand, err := d.Shell(ctx, "getprop ro.product.brand"); err == nil {
		info.Brand = strings.TrimSpace(brand)
	}

	// Check if emulator
	chars, _ := d.Shell(ctx, "getprop ro.kernel.qemu")
	info.IsEmulator = strings.TrimSpace(chars) == "1"

	return info, nil
}

// waitForDevice waits for the device to be available.
func (d *AndroidDevice) waitForDevice(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		if d.isConnected(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return core.ErrDeviceNotFound.
				WithMessage(fmt.Sprintf("timeout waiting for device %s", d.serial)).
				WithDetails(map[string]any{"device": d.serial})
		case <-ticker.C:
		}
	}
}

// isConnected checks if the device is connected.
func (d *AndroidDevice) isConnected(ctx context.Context) bool {
	out, err := d.bridge.adb(ctx, d.serial, "get-state")
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == "device"
}

// Values pasted into a device shell command line are limited to these.
var (
	packageName = regexp.MustCompile(`^[A-Za-z0-9._]+$`)
	serviceName = regexp.MustCompile(`^[A-Za-z0-9._/@-]+$`)
)

func checkPackage(pkg string) error {
	if strings.TrimSpace(pkg) == "" {
		return core.Missing("appPackageName")
	}
	if !packageName.MatchString(pkg) {
		return core.Invalid("appPackageName", pkg, nil)
	}
	return nil
}

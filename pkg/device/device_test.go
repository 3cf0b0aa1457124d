package device

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/devicelab-dev/adbridge/pkg/core"
)

// MockCommander records adb invocations and answers them from responses,
// keyed by the arguments after the serial joined with spaces.
type MockCommander struct {
	calls     [][]string
	responses map[string]string
	errs      map[string]error
	block     bool
}

func (m *MockCommander) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	if m.block {
		<-ctx.Done()
		return nil, errors.New("signal: killed")
	}
	key := strings.Join(stripSerial(args), " ")
	if err, ok := m.errs[key]; ok {
		return nil, err
	}
	for prefix, out := range m.responses {
		if key == prefix || strings.HasPrefix(prefix, "~") && strings.HasPrefix(key, prefix[1:]) {
			return []byte(out), nil
		}
	}
	return nil, nil
}

func (m *MockCommander) lastCall() []string {
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

func stripSerial(args []string) []string {
	if len(args) >= 2 && args[0] == "-s" {
		return args[2:]
	}
	return args
}

func newMockDevice(responses map[string]string) (*AndroidDevice, *MockCommander) {
	mock := &MockCommander{responses: responses}
	return NewBridgeWithCommander("adb", mock).Device("emulator-5554"), mock
}

// skipIfNoDevice skips the test if no device is connected.
func skipIfNoDevice(t *testing.T) {
	t.Helper()
	cmd := exec.Command("adb", "devices")
	out, err := cmd.Output()
	if err != nil {
		t.Skip("adb not available")
	}
	deviceCount := 0
	for _, line := range strings.Split(string(out), "\n") {
		if strings.Contains(line, "\tdevice") {
			deviceCount++
		}
	}
	if deviceCount == 0 {
		t.Skip("no device connected")
	}
}

func TestParseDevices(t *testing.T) {
	out := "* daemon not running; starting now at tcp:5037\n* daemon started successfully\n" +
		"List of devices attached\nemulator-5554\tdevice\n192.168.1.20:5555\toffline\nR58M\tunauthorized\n\n"
	got := parseDevices(out)
	want := []Entry{
		{"emulator-5554", "device"},
		{"192.168.1.20:5555", "offline"},
		{"R58M", "unauthorized"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestFirstAvailable(t *testing.T) {
	mock := &MockCommander{responses: map[string]string{
		"devices": "List of devices attached\nR58M\tunauthorized\nemulator-5556\tdevice\n",
	}}
	b := NewBridgeWithCommander("", mock)

	d, err := b.FirstAvailable(context.Background())
	if err != nil {
		t.Fatalf("FirstAvailable failed: %v", err)
	}
	if d.Serial() != "emulator-5556" {
		t.Errorf("expected emulator-5556, got %s", d.Serial())
	}
	if mock.calls[0][0] != "adb" {
		t.Errorf("expected default adb binary, got %s", mock.calls[0][0])
	}
}

func TestFirstAvailable_NoDevice(t *testing.T) {
	mock := &MockCommander{responses: map[string]string{"devices": "List of devices attached\n\n"}}
	_, err := NewBridgeWithCommander("adb", mock).FirstAvailable(context.Background())
	if !errors.Is(err, core.ErrDeviceNotFound) {
		t.Errorf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestOpen_Online(t *testing.T) {
	mock := &MockCommander{responses: map[string]string{"get-state": "device\n"}}
	d, err := NewBridgeWithCommander("adb", mock).Open(context.Background(), "emulator-5554")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if d.Serial() != "emulator-5554" {
		t.Errorf("unexpected serial %s", d.Serial())
	}
}

func TestOpen_Offline(t *testing.T) {
	mock := &MockCommander{responses: map[string]string{"get-state": "offline\n"}}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := NewBridgeWithCommander("adb", mock).Open(ctx, "emulator-5554")
	if !errors.Is(err, core.ErrDeviceNotFound) {
		t.Errorf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestConnect(t *testing.T) {
	tests := []struct {
		output string
		want   bool
	}{
		{"connected to 192.168.1.20:5555", true},
		{"already connected to 192.168.1.20:5555", true},
		{"failed to connect to '192.168.1.20:5555': Connection refused", false},
	}
	for _, tt := range tests {
		mock := &MockCommander{responses: map[string]string{"connect 192.168.1.20:5555": tt.output}}
		got, err := NewBridgeWithCommander("adb", mock).Connect(context.Background(), "192.168.1.20:5555")
		if err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
		if got != tt.want {
			t.Errorf("Connect with %q = %v, want %v", tt.output, got, tt.want)
		}
	}

	if _, err := NewBridgeWithCommander("adb", &MockCommander{}).Connect(context.Background(), " "); !errors.Is(err, core.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}

func TestADB_SerialAndErrors(t *testing.T) {
	d, mock := newMockDevice(nil)
	mock.errs = map[string]error{"shell false": errors.New("exit status 1: boom")}

	if _, err := d.Tap(context.Background(), 10, 20); err != nil {
		t.Fatalf("Tap failed: %v", err)
	}
	want := []string{"adb", "-s", "emulator-5554", "shell", "input tap 10 20"}
	if strings.Join(mock.lastCall(), "|") != strings.Join(want, "|") {
		t.Errorf("expected %v, got %v", want, mock.lastCall())
	}

	_, err := d.Shell(context.Background(), "false")
	if !errors.Is(err, core.ErrCommandFailed) {
		t.Fatalf("expected ErrCommandFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error should carry command output: %v", err)
	}
}

func TestADB_NoSerial(t *testing.T) {
	mock := &MockCommander{}
	d := NewBridgeWithCommander("adb", mock).Device("")
	if _, err := d.GoHome(context.Background()); err != nil {
		t.Fatalf("GoHome failed: %v", err)
	}
	want := "adb shell input keyevent KEYCODE_HOME"
	if got := strings.Join(mock.lastCall(), " "); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestADB_Timeout(t *testing.T) {
	mock := &MockCommander{block: true}
	b := NewBridgeWithCommander("adb", mock)
	b.SetTimeout(20 * time.Millisecond)

	_, err := b.Device("emulator-5554").Shell(context.Background(), "sleep 10")
	if !errors.Is(err, core.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
	if core.CategoryOf(err) != core.ErrCategoryTimeout {
		t.Errorf("expected timeout category, got %s", core.CategoryOf(err))
	}
}

func TestADB_Canceled(t *testing.T) {
	mock := &MockCommander{block: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBridgeWithCommander("adb", mock).Device("").Shell(ctx, "sleep 10")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSwipe(t *testing.T) {
	d, mock := newMockDevice(nil)
	if _, err := d.Swipe(context.Background(), 100, 800, 100, 200, 300); err != nil {
		t.Fatalf("Swipe failed: %v", err)
	}
	if got := mock.lastCall()[4]; got != "input swipe 100 800 100 200 300" {
		t.Errorf("unexpected command %q", got)
	}
}

func TestTypeText(t *testing.T) {
	d, mock := newMockDevice(nil)
	if _, err := d.TypeText(context.Background(), "Hi 5!"); err != nil {
		t.Fatalf("TypeText failed: %v", err)
	}
	want := "input keyevent KEYCODE_H KEYCODE_I KEYCODE_SPACE KEYCODE_5; input text '!'"
	if got := mock.lastCall()[4]; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	mock.calls = nil
	if _, err := d.TypeText(context.Background(), ""); err != nil {
		t.Fatalf("TypeText empty failed: %v", err)
	}
	if len(mock.calls) != 0 {
		t.Errorf("empty text should not invoke adb, got %v", mock.calls)
	}
}

func TestInputScript(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"abc", "input keyevent KEYCODE_A KEYCODE_B KEYCODE_C"},
		{"a\nb", "input keyevent KEYCODE_A 66 KEYCODE_B"},
		{"user@mail.com", "input keyevent KEYCODE_U KEYCODE_S KEYCODE_E KEYCODE_R; input text '@'; " +
			"input keyevent KEYCODE_M KEYCODE_A KEYCODE_I KEYCODE_L; input text '.'; input keyevent KEYCODE_C KEYCODE_O KEYCODE_M"},
		{"it's", `input keyevent KEYCODE_I KEYCODE_T; input text ''\'''; input keyevent KEYCODE_S`},
		{"$(rm)", "input text '$('; input keyevent KEYCODE_R KEYCODE_M; input text ')'"},
		{"é", "input text 'é'"},
	}
	for _, tt := range tests {
		if got := inputScript(tt.text); got != tt.want {
			t.Errorf("inputScript(%q)\n got %q\nwant %q", tt.text, got, tt.want)
		}
	}
}

func TestDeleteChars(t *testing.T) {
	d, mock := newMockDevice(nil)
	if _, err := d.DeleteChars(context.Background(), 3); err != nil {
		t.Fatalf("DeleteChars failed: %v", err)
	}
	want := "input keyevent KEYCODE_MOVE_END KEYCODE_DEL KEYCODE_DEL KEYCODE_DEL"
	if got := mock.lastCall()[4]; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestScreenshot(t *testing.T) {
	png := "\x89PNG\r\n\x1a\n\x00rest"
	d, mock := newMockDevice(map[string]string{"exec-out screencap -p": png})
	data, err := d.Screenshot(context.Background())
	if err != nil {
		t.Fatalf("Screenshot failed: %v", err)
	}
	if string(data) != png {
		t.Errorf("screenshot bytes changed: %q", data)
	}
	if mock.lastCall()[3] != "exec-out" {
		t.Errorf("expected exec-out, got %v", mock.lastCall())
	}
}

func TestDumpHierarchy(t *testing.T) {
	xml := `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?><hierarchy rotation="0"><node text="OK"/></hierarchy>`
	d, mock := newMockDevice(map[string]string{
		"~shell uiautomator dump /sdcard/adbridge-": "UI hierchary dumped to: /sdcard/x.xml",
		"~shell cat /sdcard/adbridge-":              "WARNING: linker noise\n" + xml,
	})

	got, err := d.DumpHierarchy(context.Background())
	if err != nil {
		t.Fatalf("DumpHierarchy failed: %v", err)
	}
	if got != xml {
		t.Errorf("expected trimmed dump, got %q", got)
	}

	if len(mock.calls) != 3 {
		t.Fatalf("expected dump, cat, rm; got %v", mock.calls)
	}
	dumpFile := strings.TrimPrefix(mock.calls[0][4], "uiautomator dump ")
	if !strings.HasSuffix(dumpFile, ".xml") || !strings.HasPrefix(dumpFile, "/sdcard/adbridge-") {
		t.Errorf("unexpected remote file %q", dumpFile)
	}
	if mock.calls[2][4] != "rm -f "+dumpFile {
		t.Errorf("expected cleanup of %s, got %v", dumpFile, mock.calls[2])
	}
}

func TestTrimDump(t *testing.T) {
	if got, err := trimDump("noise<hierarchy><node/></hierarchy>"); err != nil || got != "<hierarchy><node/></hierarchy>" {
		t.Errorf("trimDump = %q, %v", got, err)
	}
	_, err := trimDump("ERROR: null root node returned by UiTestAutomationBridge.")
	if !errors.Is(err, core.ErrUnexpectedOutput) {
		t.Errorf("expected ErrUnexpectedOutput, got %v", err)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		output string
		w, h   int
		ok     bool
	}{
		{"Physical size: 1080x1920\n", 1080, 1920, true},
		{"Physical size: 1440x3040\r\nOverride size: 1080x2280\r\n", 1080, 2280, true},
		{"size: unknown", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		w, h, err := parseSize(tt.output)
		if (err == nil) != tt.ok {
			t.Errorf("parseSize(%q) error = %v, want ok=%v", tt.output, err, tt.ok)
			continue
		}
		if w != tt.w || h != tt.h {
			t.Errorf("parseSize(%q) = %dx%d, want %dx%d", tt.output, w, h, tt.w, tt.h)
		}
	}
}

func TestInstalledPackages(t *testing.T) {
	d, mock := newMockDevice(map[string]string{
		"shell pm list packages -3": "package:com.example.app\r\npackage:com.other\r\n",
		"shell pm list packages":    "package:android\npackage:com.example.app\n",
	})

	pkgs, err := d.InstalledPackages(context.Background(), false)
	if err != nil {
		t.Fatalf("InstalledPackages failed: %v", err)
	}
	if len(pkgs) != 2 || pkgs[0] != "com.example.app" || pkgs[1] != "com.other" {
		t.Errorf("unexpected packages %v", pkgs)
	}

	all, _ := d.InstalledPackages(context.Background(), true)
	if len(all) != 2 || all[0] != "android" {
		t.Errorf("unexpected packages %v", all)
	}
	if mock.lastCall()[4] != "pm list packages" {
		t.Errorf("unexpected command %v", mock.lastCall())
	}
}

func TestAppExists(t *testing.T) {
	d, _ := newMockDevice(map[string]string{
		"shell pm list packages -3": "package:com.example.app\npackage:com.example.app.debug\n",
	})

	tests := []struct {
		pkg  string
		want bool
	}{
		{"com.example.app", true},
		{"com.example", false},
		{"com.example.app.debug", true},
	}
	for _, tt := range tests {
		got, err := d.AppExists(context.Background(), tt.pkg)
		if err != nil {
			t.Fatalf("AppExists(%s) failed: %v", tt.pkg, err)
		}
		if got != tt.want {
			t.Errorf("AppExists(%s) = %v, want %v", tt.pkg, got, tt.want)
		}
	}

	_, err := d.AppExists(context.Background(), "  ")
	if !errors.Is(err, core.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}

func TestAppCommands(t *testing.T) {
	d, mock := newMockDevice(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() (string, error)
		want string
	}{
		{"clear", func() (string, error) { return d.ClearAppData(ctx, "com.example") }, "shell|pm clear com.example"},
		{"open", func() (string, error) { return d.OpenApp(ctx, "com.example") }, "shell|monkey -p com.example 1"},
		{"install", func() (string, error) { return d.InstallApp(ctx, "/tmp/app.apk") }, "install|/tmp/app.apk"},
		{"awake", func() (string, error) { return d.StayAwake(ctx, true) }, "shell|svc power stayon usb"},
		{"sleep", func() (string, error) { return d.StayAwake(ctx, false) }, "shell|svc power stayon false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.run(); err != nil {
				t.Fatalf("failed: %v", err)
			}
			if got := strings.Join(mock.lastCall()[3:], "|"); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	if _, err := d.OpenApp(ctx, ""); !errors.Is(err, core.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}

func TestShellArgumentsRejected(t *testing.T) {
	d, mock := newMockDevice(nil)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
	}{
		{"clear", func() error { _, err := d.ClearAppData(ctx, "com.x; reboot"); return err }},
		{"open", func() error { _, err := d.OpenApp(ctx, "com.x 1; reboot; echo"); return err }},
		{"open quote", func() error { _, err := d.OpenApp(ctx, "com.x'"); return err }},
		{"service", func() error { _, err := d.ServiceCheck(ctx, "x; reboot"); return err }},
		{"service subshell", func() error { _, err := d.ServiceCheck(ctx, "$(reboot)"); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, core.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
	if len(mock.calls) != 0 {
		t.Errorf("expected no adb calls, got %v", mock.calls)
	}

	if _, err := d.ServiceCheck(ctx, "android.hardware.power.IPower/default"); err != nil {
		t.Errorf("expected qualified service name to be accepted, got %v", err)
	}
}

func TestServiceCheck(t *testing.T) {
	d, _ := newMockDevice(map[string]string{
		"shell service check window": "Service window: found",
		"shell service check nope":   "Service nope: not found",
	})
	if ok, _ := d.ServiceCheck(context.Background(), "window"); !ok {
		t.Error("expected window service to be found")
	}
	if ok, _ := d.ServiceCheck(context.Background(), "nope"); ok {
		t.Error("expected nope service to be missing")
	}
}

func TestBattery(t *testing.T) {
	out := "Current Battery Service state:\r\n" +
		"  AC powered: false\r\n" +
		"  USB powered: true\r\n" +
		"  Wireless powered: false\r\n" +
		"  Max charging current: 500000\r\n" +
		"  Charge counter: 2867\r\n" +
		"  status: 2\r\n" +
		"  health: 2\r\n" +
		"  present: true\r\n" +
		"  level: 85\r\n" +
		"  technology: Li-ion\r\n"
	d, _ := newMockDevice(map[string]string{"shell dumpsys battery": out})

	got, err := d.Battery(context.Background())
	if err != nil {
		t.Fatalf("Battery failed: %v", err)
	}
	want := map[string]any{
		"acPowered":          false,
		"usbPowered":         true,
		"wirelessPowered":    false,
		"maxChargingCurrent": int64(500000),
		"chargeCounter":      int64(2867),
		"status":             int64(2),
		"health":             int64(2),
		"present":            true,
		"level":              int64(85),
		"technology":         "Li-ion",
	}
	if len(got) != len(want) {
		t.Errorf("expected %d fields, got %d: %v", len(want), len(got), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: expected %v (%T), got %v (%T)", k, v, v, got[k], got[k])
		}
	}
}

func TestInfo(t *testing.T) {
	d, _ := newMockDevice(map[string]string{
		"shell getprop ro.product.model":     "Pixel 7\n",
		"shell getprop ro.build.version.sdk": "34\n",
		"shell getprop ro.product.brand":     "google\n",
		"shell getprop ro.kernel.qemu":       "1\n",
	})
	info, err := d.Info(context.Background())
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Model != "Pixel 7" || info.SDK != "34" || info.Brand != "google" || !info.IsEmulator {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestListDevices_Real(t *testing.T) {
	skipIfNoDevice(t)

	b, err := NewBridge("")
	if err != nil {
		t.Fatalf("NewBridge failed: %v", err)
	}
	devices, err := b.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices failed: %v", err)
	}
	if len(devices) == 0 {
		t.Fatal("expected at least one device")
	}
	if devices[0].Serial == "" {
		t.Error("device serial is empty")
	}
}

func TestDumpHierarchy_Real(t *testing.T) {
	skipIfNoDevice(t)

	b, err := NewBridge("")
	if err != nil {
		t.Fatalf("NewBridge failed: %v", err)
	}
	d, err := b.FirstAvailable(context.Background())
	if err != nil {
		t.Fatalf("FirstAvailable failed: %v", err)
	}
	xml, err := d.DumpHierarchy(context.Background())
	if err != nil {
		t.Fatalf("DumpHierarchy failed: %v", err)
	}
	if !strings.Contains(xml, "<hierarchy") {
		t.Errorf("unexpected dump: %.100s", xml)
	}
}

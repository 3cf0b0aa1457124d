package device

import (
	"strconv"
	"strings"
)

// batteryLabels renames the multi-word dumpsys labels.
var batteryLabels = map[string]string{
	"AC powered":           "acPowered",
	"USB powered":          "usbPowered",
	"Wireless powered":     "wirelessPowered",
	"Dock powered":         "dockPowered",
	"Max charging current": "maxChargingCurrent",
	"Max charging voltage": "maxChargingVoltage",
	"Charge counter":       "chargeCounter",
}

// parseBattery turns `dumpsys battery` output into a map. The header line
// is skipped; integers and booleans are converted.
func parseBattery(out string) map[string]any {
	result := make(map[string]any)
	lines := strings.Split(strings.ReplaceAll(out, "\r", ""), "\n")
	for i, line := range lines {
		if i == 0 {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if label, found := batteryLabels[key]; found {
			key = label
		}
		result[key] = batteryValue(strings.TrimSpace(value))
	}
	return result
}

func batteryValue(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

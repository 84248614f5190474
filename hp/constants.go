package hp

import (
	"errors"
	"fmt"

	"mheatpump2mqtt/bimap"
	"mheatpump2mqtt/heatpump"
)

// Home Assistant climate vocabulary.
const HVAC_MODE_OFF = "off"
const HVAC_MODE_HEAT = "heat"
const HVAC_MODE_COOL = "cool"
const HVAC_MODE_DRY = "dry"
const HVAC_MODE_FAN_ONLY = "fan_only"
const HVAC_MODE_AUTO = "auto"

const SWING_OFF = "off"
const SWING_VERTICAL = "vertical"
const SWING_HORIZONTAL = "horizontal"
const SWING_BOTH = "both"

// Device vocabulary for the airflow flaps. Vane is the vertical flap,
// widevane the horizontal one; "Swing" on either means it is sweeping.
const VANE_SWING = "Swing"
const VANE_AUTO = "Auto"
const WIDEVANE_MID = "Mid"

const HA_COMPONENT_CLIMATE = "climate"

// DeviceModes maps the device's mode strings to Home Assistant hvac modes.
// Power is a separate flag on the device, so "off" has no entry here.
var DeviceModes = bimap.NewBiMap()

// DeviceFanSpeeds maps the device's fan_speed strings to HA fan modes.
var DeviceFanSpeeds = bimap.NewBiMap()

func init() {
	DeviceModes.Insert("Heat", HVAC_MODE_HEAT)
	DeviceModes.Insert("Cool", HVAC_MODE_COOL)
	DeviceModes.Insert("Dry", HVAC_MODE_DRY)
	DeviceModes.Insert("Fan", HVAC_MODE_FAN_ONLY)
	DeviceModes.Insert("Auto", HVAC_MODE_AUTO)
	DeviceModes.MakeImmutable()

	DeviceFanSpeeds.Insert("Auto", "auto")
	DeviceFanSpeeds.Insert("Quiet", "quiet")
	DeviceFanSpeeds.Insert("Low", "low")
	DeviceFanSpeeds.Insert("Med", "medium")
	DeviceFanSpeeds.Insert("High", "high")
	DeviceFanSpeeds.Insert("VeryHigh", "powerful")
	DeviceFanSpeeds.MakeImmutable()
}

// Unmapped device-reported values are hard errors: guessing what an unknown
// mode means risks driving the hardware wrong.
var ErrUnknownDeviceMode = errors.New("unknown device mode")
var ErrUnknownDeviceFanSpeed = errors.New("unknown device fan speed")

// Unmapped user commands are rejected before anything is queued.
var ErrUnknownHvacMode = errors.New("unknown hvac mode")
var ErrUnknownFanMode = errors.New("unknown fan mode")
var ErrUnknownSwingMode = errors.New("unknown swing mode")

// HvacMode translates device power/mode state into an HA hvac mode.
// A powered-off device is "off" no matter what mode it reports.
func HvacMode(poweron bool, mode string) (string, error) {
	if !poweron {
		return HVAC_MODE_OFF, nil
	}
	hvacMode, ok := DeviceModes.Get(mode)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDeviceMode, mode)
	}
	return hvacMode.(string), nil
}

// ApplyHvacMode returns the setting changes that realize an HA hvac mode:
// "off" only drops power, every other mode powers on and selects the mode.
func ApplyHvacMode(hvacMode string) (map[string]interface{}, error) {
	if hvacMode == HVAC_MODE_OFF {
		return map[string]interface{}{heatpump.KeyPowerOn: false}, nil
	}
	mode, ok := DeviceModes.GetInverse(hvacMode)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHvacMode, hvacMode)
	}
	return map[string]interface{}{
		heatpump.KeyPowerOn: true,
		heatpump.KeyMode:    mode.(string),
	}, nil
}

// FanMode translates a device fan_speed into an HA fan mode.
func FanMode(fanSpeed string) (string, error) {
	fanMode, ok := DeviceFanSpeeds.Get(fanSpeed)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDeviceFanSpeed, fanSpeed)
	}
	return fanMode.(string), nil
}

// ApplyFanMode returns the device fan_speed for an HA fan mode.
func ApplyFanMode(fanMode string) (string, error) {
	fanSpeed, ok := DeviceFanSpeeds.GetInverse(fanMode)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFanMode, fanMode)
	}
	return fanSpeed.(string), nil
}

// SwingMode derives the HA swing mode from the two flap flags. Total: any
// non-"Swing" value is a fixed position.
func SwingMode(vane, widevane string) string {
	vswing := vane == VANE_SWING
	hswing := widevane == VANE_SWING
	switch {
	case vswing && hswing:
		return SWING_BOTH
	case vswing:
		return SWING_VERTICAL
	case hswing:
		return SWING_HORIZONTAL
	default:
		return SWING_OFF
	}
}

// ApplySwingMode returns the flap changes that realize an HA swing mode. The
// current flap values decide whether the other flap must be parked: asking for
// vertical-only while the widevane is sweeping also moves the widevane to Mid.
func ApplySwingMode(swingMode, currentVane, currentWideVane string) (map[string]interface{}, error) {
	changes := make(map[string]interface{})
	switch swingMode {
	case SWING_OFF:
		changes[heatpump.KeyVane] = VANE_AUTO
		changes[heatpump.KeyWideVane] = WIDEVANE_MID
	case SWING_VERTICAL:
		changes[heatpump.KeyVane] = VANE_SWING
		if currentWideVane == VANE_SWING {
			changes[heatpump.KeyWideVane] = WIDEVANE_MID
		}
	case SWING_HORIZONTAL:
		changes[heatpump.KeyWideVane] = VANE_SWING
		if currentVane == VANE_SWING {
			changes[heatpump.KeyVane] = VANE_AUTO
		}
	case SWING_BOTH:
		changes[heatpump.KeyVane] = VANE_SWING
		changes[heatpump.KeyWideVane] = VANE_SWING
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSwingMode, swingMode)
	}
	return changes, nil
}

// HvacModes lists the hvac modes offered in the discovery config.
func HvacModes() []string {
	return []string{HVAC_MODE_OFF, HVAC_MODE_HEAT, HVAC_MODE_COOL, HVAC_MODE_DRY, HVAC_MODE_FAN_ONLY, HVAC_MODE_AUTO}
}

// FanModes lists the fan modes offered in the discovery config.
func FanModes() []string {
	return []string{"auto", "quiet", "low", "medium", "high", "powerful"}
}

// SwingModes lists the swing modes offered in the discovery config.
func SwingModes() []string {
	return []string{SWING_OFF, SWING_VERTICAL, SWING_HORIZONTAL, SWING_BOTH}
}

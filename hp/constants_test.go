package hp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"mheatpump2mqtt/heatpump"
	"mheatpump2mqtt/hp"
)

func TestHvacMode(t *testing.T) {
	// a powered-off device is off no matter what mode it reports
	for _, deviceMode := range []string{"Heat", "Cool", "Dry", "Fan", "Auto", "garbage"} {
		mode, err := hp.HvacMode(false, deviceMode)
		require.NoError(t, err)
		require.Equal(t, hp.HVAC_MODE_OFF, mode)
	}

	cases := map[string]string{
		"Heat": hp.HVAC_MODE_HEAT,
		"Cool": hp.HVAC_MODE_COOL,
		"Dry":  hp.HVAC_MODE_DRY,
		"Fan":  hp.HVAC_MODE_FAN_ONLY,
		"Auto": hp.HVAC_MODE_AUTO,
	}
	for deviceMode, hvacMode := range cases {
		mode, err := hp.HvacMode(true, deviceMode)
		require.NoError(t, err)
		require.Equal(t, hvacMode, mode)
	}

	_, err := hp.HvacMode(true, "Defrost")
	require.ErrorIs(t, err, hp.ErrUnknownDeviceMode)
}

func TestApplyHvacMode(t *testing.T) {
	changes, err := hp.ApplyHvacMode(hp.HVAC_MODE_OFF)
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{heatpump.KeyPowerOn: false}, changes)

	changes, err = hp.ApplyHvacMode(hp.HVAC_MODE_DRY)
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{
		heatpump.KeyPowerOn: true,
		heatpump.KeyMode:    "Dry",
	}, changes)

	_, err = hp.ApplyHvacMode("heat_cool")
	require.ErrorIs(t, err, hp.ErrUnknownHvacMode)
}

func TestFanModeRoundTrip(t *testing.T) {
	for deviceSpeed, haMode := range map[string]string{
		"Auto":     "auto",
		"Quiet":    "quiet",
		"Low":      "low",
		"Med":      "medium",
		"High":     "high",
		"VeryHigh": "powerful",
	} {
		mode, err := hp.FanMode(deviceSpeed)
		require.NoError(t, err)
		require.Equal(t, haMode, mode)

		speed, err := hp.ApplyFanMode(haMode)
		require.NoError(t, err)
		require.Equal(t, deviceSpeed, speed)
	}

	_, err := hp.FanMode("Turbo")
	require.ErrorIs(t, err, hp.ErrUnknownDeviceFanSpeed)
	_, err = hp.ApplyFanMode("Medium") // HA side is lowercase
	require.ErrorIs(t, err, hp.ErrUnknownFanMode)
}

func TestSwingMode(t *testing.T) {
	require.Equal(t, hp.SWING_BOTH, hp.SwingMode("Swing", "Swing"))
	require.Equal(t, hp.SWING_VERTICAL, hp.SwingMode("Swing", "Mid"))
	require.Equal(t, hp.SWING_HORIZONTAL, hp.SwingMode("Auto", "Swing"))
	require.Equal(t, hp.SWING_OFF, hp.SwingMode("Auto", "Mid"))
	// any fixed position counts as not swinging
	require.Equal(t, hp.SWING_OFF, hp.SwingMode("1", "Left"))
}

func TestApplySwingMode(t *testing.T) {
	changes, err := hp.ApplySwingMode(hp.SWING_OFF, "Swing", "Swing")
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{
		heatpump.KeyVane:     "Auto",
		heatpump.KeyWideVane: "Mid",
	}, changes)

	// vertical only touches the widevane if it is currently sweeping
	changes, err = hp.ApplySwingMode(hp.SWING_VERTICAL, "Auto", "Mid")
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{heatpump.KeyVane: "Swing"}, changes)

	changes, err = hp.ApplySwingMode(hp.SWING_VERTICAL, "Auto", "Swing")
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{
		heatpump.KeyVane:     "Swing",
		heatpump.KeyWideVane: "Mid",
	}, changes)

	changes, err = hp.ApplySwingMode(hp.SWING_HORIZONTAL, "Swing", "Mid")
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{
		heatpump.KeyVane:     "Auto",
		heatpump.KeyWideVane: "Swing",
	}, changes)

	changes, err = hp.ApplySwingMode(hp.SWING_BOTH, "Auto", "Mid")
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{
		heatpump.KeyVane:     "Swing",
		heatpump.KeyWideVane: "Swing",
	}, changes)

	_, err = hp.ApplySwingMode("diagonal", "Auto", "Mid")
	require.ErrorIs(t, err, hp.ErrUnknownSwingMode)
}

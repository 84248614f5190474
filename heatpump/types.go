package heatpump

// Keys accepted by the device's set.json endpoint.
const (
	KeyPowerOn     = "poweron"
	KeyMode        = "mode"
	KeyDesiredTemp = "desired_temperature_c"
	KeyFanSpeed    = "fan_speed"
	KeyVane        = "vane"
	KeyWideVane    = "widevane"
)

// Read-only keys reported by status.json.
const (
	KeyConnected = "connected"
	KeyRoomTemp  = "room_temperature_c"
)

// SettableKeys lists every key a set.json command document covers. A command
// always carries all of them; keys the sender does not want to change are null.
var SettableKeys = []string{
	KeyPowerOn,
	KeyMode,
	KeyDesiredTemp,
	KeyFanSpeed,
	KeyVane,
	KeyWideVane,
}

// WatchedKeys is every status key worth firing change callbacks for.
var WatchedKeys = []string{
	KeyConnected,
	KeyPowerOn,
	KeyMode,
	KeyRoomTemp,
	KeyDesiredTemp,
	KeyFanSpeed,
	KeyVane,
	KeyWideVane,
}

// Status is the device's status.json document. Connected reflects the serial
// link between the wifi bridge and the heat pump itself, not network health.
type Status struct {
	Connected   bool    `json:"connected"`
	PowerOn     bool    `json:"poweron"`
	Mode        string  `json:"mode"`
	RoomTemp    float64 `json:"room_temperature_c"`
	DesiredTemp float64 `json:"desired_temperature_c"`
	FanSpeed    string  `json:"fan_speed"`
	Vane        string  `json:"vane"`
	WideVane    string  `json:"widevane"`
}

// Value returns the field for the given status key, typed the same way a
// decoded set.json echo would type it (bool, string or float64).
func (s *Status) Value(key string) interface{} {
	switch key {
	case KeyConnected:
		return s.Connected
	case KeyPowerOn:
		return s.PowerOn
	case KeyMode:
		return s.Mode
	case KeyRoomTemp:
		return s.RoomTemp
	case KeyDesiredTemp:
		return s.DesiredTemp
	case KeyFanSpeed:
		return s.FanSpeed
	case KeyVane:
		return s.Vane
	case KeyWideVane:
		return s.WideVane
	}
	return nil
}

// Command is a set.json request document: settable keys mapped to their new
// values, with null for keys the device should leave unchanged. Echo is the
// device's response, reporting the value each setting ended up with.
type Command map[string]interface{}
type Echo map[string]interface{}

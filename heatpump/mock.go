package heatpump

import (
	"context"
)

// Mock is an in-memory device for tests. Set applies non-null values to State
// and echoes the resulting value of every settable key, like the firmware does.
// Keys listed in Mute are ignored by the device: the echo carries the old value.
type Mock struct {
	State       Status
	StatusErr   error
	SetErr      error
	Mute        map[string]bool
	SetCalls    int
	LastCommand Command
}

func NewMock() *Mock {
	return &Mock{
		State: Status{
			Connected:   true,
			PowerOn:     true,
			Mode:        "Heat",
			RoomTemp:    21.5,
			DesiredTemp: 22.0,
			FanSpeed:    "Auto",
			Vane:        "Auto",
			WideVane:    "Mid",
		},
		Mute: make(map[string]bool),
	}
}

func (m *Mock) Status(ctx context.Context) (*Status, error) {
	if m.StatusErr != nil {
		return nil, m.StatusErr
	}
	state := m.State
	return &state, nil
}

func (m *Mock) Set(ctx context.Context, cmd Command) (Echo, error) {
	m.SetCalls++
	m.LastCommand = cmd
	if m.SetErr != nil {
		return nil, m.SetErr
	}
	for _, key := range SettableKeys {
		value := cmd[key]
		if value == nil || m.Mute[key] {
			continue
		}
		m.apply(key, value)
	}
	echo := make(Echo, len(SettableKeys))
	for _, key := range SettableKeys {
		echo[key] = m.State.Value(key)
	}
	return echo, nil
}

func (m *Mock) apply(key string, value interface{}) {
	switch key {
	case KeyPowerOn:
		m.State.PowerOn = value.(bool)
	case KeyMode:
		m.State.Mode = value.(string)
	case KeyDesiredTemp:
		m.State.DesiredTemp = value.(float64)
	case KeyFanSpeed:
		m.State.FanSpeed = value.(string)
	case KeyVane:
		m.State.Vane = value.(string)
	case KeyWideVane:
		m.State.WideVane = value.(string)
	}
}

package heatpump_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"mheatpump2mqtt/heatpump"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *heatpump.Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return heatpump.NewClient(&heatpump.Config{
		Host: u.Hostname(),
		Port: port,
		HTTP: server.Client(),
	})
}

func TestClientStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/status.json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"connected": true,
			"poweron": true,
			"mode": "Heat",
			"room_temperature_c": 20.5,
			"desired_temperature_c": 22,
			"fan_speed": "Med",
			"vane": "Swing",
			"widevane": "Mid"
		}`))
	})

	status, err := client.Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, &heatpump.Status{
		Connected:   true,
		PowerOn:     true,
		Mode:        "Heat",
		RoomTemp:    20.5,
		DesiredTemp: 22,
		FanSpeed:    "Med",
		Vane:        "Swing",
		WideVane:    "Mid",
	}, status)
}

func TestClientStatusHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "uart link down", http.StatusInternalServerError)
	})

	_, err := client.Status(context.Background())
	require.ErrorIs(t, err, heatpump.ErrBadHTTPStatus)
	require.Contains(t, err.Error(), "uart link down")
}

func TestClientSet(t *testing.T) {
	var received map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/set.json", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"poweron": true, "mode": "Cool", "desired_temperature_c": 23.5, "fan_speed": "Auto", "vane": "Auto", "widevane": "Mid"}`))
	})

	echo, err := client.Set(context.Background(), heatpump.Command{
		heatpump.KeyPowerOn:     true,
		heatpump.KeyMode:        "Cool",
		heatpump.KeyDesiredTemp: nil,
		heatpump.KeyFanSpeed:    nil,
		heatpump.KeyVane:        nil,
		heatpump.KeyWideVane:    nil,
	})
	require.NoError(t, err)

	// unqueued keys must travel as explicit nulls
	require.Len(t, received, 6)
	require.Equal(t, true, received["poweron"])
	require.Equal(t, "Cool", received["mode"])
	require.Nil(t, received["desired_temperature_c"])
	require.Nil(t, received["fan_speed"])
	require.Nil(t, received["vane"])
	require.Nil(t, received["widevane"])

	require.Equal(t, "Cool", echo[heatpump.KeyMode])
	require.Equal(t, 23.5, echo[heatpump.KeyDesiredTemp])
}

func TestClientSetHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	})

	_, err := client.Set(context.Background(), heatpump.Command{heatpump.KeyPowerOn: false})
	require.ErrorIs(t, err, heatpump.ErrBadHTTPStatus)
}

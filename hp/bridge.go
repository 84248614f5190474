// Package hp bridges one discovered Mitsubishi heat pump to an MQTT broker,
// exposing it to Home Assistant as a climate entity via MQTT discovery.
package hp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	average "github.com/RobinUS2/golang-moving-average"
	log "github.com/sirupsen/logrus"

	"mheatpump2mqtt/heatpump"
	"mheatpump2mqtt/pending"
	"mheatpump2mqtt/watcher"
)

// MqttClient is the broker surface the bridge needs.
type MqttClient interface {
	Publish(topic string, qos byte, retained bool, payload string) error
	Subscribe(topic string, callback func(message string)) error
}

type Config struct {
	Identity    *heatpump.Identity
	Transport   heatpump.Transport
	Mqtt        MqttClient
	TopicPrefix string
	HassPrefix  string

	// SettleDelay is the pause between flushing queued changes and the
	// follow-up status poll, giving the pump time to apply them.
	SettleDelay time.Duration
	// FlushDelay debounces user commands: the last queued change starts a
	// timer that flushes early instead of waiting for the next poll tick.
	FlushDelay time.Duration
	// RequestTimeout bounds each HTTP call against the device.
	RequestTimeout time.Duration

	MinTemp float64
	MaxTemp float64
}

// Bridge drives the update cycle for one device: flush queued changes, poll
// status, publish whatever changed. Tick and the MQTT command callbacks are
// serialized by an internal lock, so the device only ever sees one request
// at a time.
type Bridge struct {
	Config
	w     *watcher.Watcher
	queue *pending.Queue
	log   *log.Entry

	lock       sync.Mutex
	flushTimer *time.Timer

	roomTemp     *average.MovingAverage
	lastRoomTemp float64
}

const defaultSettleDelay = 20 * time.Millisecond
const defaultFlushDelay = 250 * time.Millisecond
const defaultRequestTimeout = 5 * time.Second

// Moving-average window over polled room temperatures. At the default poll
// interval this smooths over roughly a minute.
const roomTempWindow = 6

func NewBridge(config *Config) *Bridge {
	if config.SettleDelay == 0 {
		config.SettleDelay = defaultSettleDelay
	}
	if config.FlushDelay == 0 {
		config.FlushDelay = defaultFlushDelay
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = defaultRequestTimeout
	}
	if config.MinTemp == 0 {
		config.MinTemp = 16
	}
	if config.MaxTemp == 0 {
		config.MaxTemp = 31
	}

	b := &Bridge{
		Config: *config,
		w: watcher.New(&watcher.Config{
			Transport: config.Transport,
		}),
		queue:    pending.New(config.Transport, config.Identity.Name),
		log:      log.WithField("device", config.Identity.NodeID()),
		roomTemp: average.New(roomTempWindow),
	}
	return b
}

// Start subscribes the command topics, publishes the Home Assistant discovery
// config and runs the first poll. An error means the caller should try Start
// again later; nothing is left half-wired. Start may be called again on a new
// MQTT session to re-establish subscriptions and retained configs.
func (b *Bridge) Start() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.stopFlushTimer()

	availabilityTopic := b.getTopic("available")
	hvacModeTopic := b.getTopic("hvacMode")
	targetTempTopic := b.getTopic("targetTemp")
	currentTempTopic := b.getTopic("currentTemp")
	fanModeTopic := b.getTopic("fanMode")
	swingModeTopic := b.getTopic("swingMode")
	connectedTopic := b.getTopic("connected")

	publishHvacMode := func(string) {
		status := b.w.Status()
		mode, err := HvacMode(status.PowerOn, status.Mode)
		if err != nil {
			b.log.WithError(err).Error("device reported a mode with no mapping, not publishing")
			return
		}
		b.publish(hvacModeTopic, mode)
	}
	b.w.RegisterCallback(heatpump.KeyPowerOn, publishHvacMode)
	b.w.RegisterCallback(heatpump.KeyMode, publishHvacMode)

	b.w.RegisterCallback(heatpump.KeyDesiredTemp, func(string) {
		b.publish(targetTempTopic, fmt.Sprintf("%g", b.w.Status().DesiredTemp))
	})

	b.w.RegisterCallback(heatpump.KeyFanSpeed, func(string) {
		fanMode, err := FanMode(b.w.Status().FanSpeed)
		if err != nil {
			b.log.WithError(err).Error("device reported a fan speed with no mapping, not publishing")
			return
		}
		b.publish(fanModeTopic, fanMode)
	})

	publishSwingMode := func(string) {
		status := b.w.Status()
		b.publish(swingModeTopic, SwingMode(status.Vane, status.WideVane))
	}
	b.w.RegisterCallback(heatpump.KeyVane, publishSwingMode)
	b.w.RegisterCallback(heatpump.KeyWideVane, publishSwingMode)

	b.w.RegisterCallback(heatpump.KeyConnected, func(string) {
		b.publish(connectedTopic, fmt.Sprintf("%t", b.w.Status().Connected))
	})

	b.w.OnAvailabilityChange = func(available bool) {
		if available {
			b.publish(availabilityTopic, "online")
		} else {
			b.publish(availabilityTopic, "offline")
		}
	}

	err := b.subscribeCommands(hvacModeTopic, targetTempTopic, fanModeTopic, swingModeTopic)
	if err != nil {
		return err
	}

	config := map[string]interface{}{
		"name":                      b.Identity.Name,
		"unique_id":                 b.Identity.MAC,
		"availability_topic":        availabilityTopic,
		"payload_available":         "online",
		"payload_not_available":     "offline",
		"current_temperature_topic": currentTempTopic,
		"temperature_state_topic":   targetTempTopic,
		"temperature_command_topic": targetTempTopic + "/set",
		"temperature_unit":          "C",
		"precision":                 0.5,
		"temp_step":                 0.5,
		"min_temp":                  b.MinTemp,
		"max_temp":                  b.MaxTemp,
		"modes":                     HvacModes(),
		"mode_state_topic":          hvacModeTopic,
		"mode_command_topic":        hvacModeTopic + "/set",
		"fan_modes":                 FanModes(),
		"fan_mode_state_topic":      fanModeTopic,
		"fan_mode_command_topic":    fanModeTopic + "/set",
		"swing_modes":               SwingModes(),
		"swing_mode_state_topic":    swingModeTopic,
		"swing_mode_command_topic":  swingModeTopic + "/set",
		"device": map[string]interface{}{
			"identifiers":  []string{b.Identity.MAC},
			"name":         b.Identity.Name,
			"manufacturer": "Mitsubishi",
		},
	}
	configJSON, _ := json.Marshal(config)
	// <discovery_prefix>/<component>/<object_id>/config
	b.publish(fmt.Sprintf("%s/%s/%s/config", b.HassPrefix, HA_COMPONENT_CLIMATE, b.Identity.NodeID()), string(configJSON))

	ctx, cancel := context.WithTimeout(context.Background(), b.RequestTimeout)
	defer cancel()
	if err := b.w.Poll(ctx); err != nil {
		return err
	}
	b.w.TriggerCallbacks()
	b.sampleRoomTemperature()
	return nil
}

func (b *Bridge) subscribeCommands(hvacModeTopic, targetTempTopic, fanModeTopic, swingModeTopic string) error {
	err := b.Mqtt.Subscribe(hvacModeTopic+"/set", func(message string) {
		changes, err := ApplyHvacMode(message)
		if err != nil {
			b.log.WithError(err).Warn("rejecting hvac mode command")
			return
		}
		b.queueChanges(changes)
	})
	if err != nil {
		return err
	}

	err = b.Mqtt.Subscribe(targetTempTopic+"/set", func(message string) {
		temp, err := strconv.ParseFloat(message, 64)
		if err != nil {
			b.log.WithError(err).Warnf("rejecting target temperature command %q", message)
			return
		}
		b.queueChanges(map[string]interface{}{
			heatpump.KeyDesiredTemp: b.clampTemp(temp),
		})
	})
	if err != nil {
		return err
	}

	err = b.Mqtt.Subscribe(fanModeTopic+"/set", func(message string) {
		fanSpeed, err := ApplyFanMode(message)
		if err != nil {
			b.log.WithError(err).Warn("rejecting fan mode command")
			return
		}
		b.queueChanges(map[string]interface{}{heatpump.KeyFanSpeed: fanSpeed})
	})
	if err != nil {
		return err
	}

	return b.Mqtt.Subscribe(swingModeTopic+"/set", func(message string) {
		var vane, widevane string
		if status := b.w.Status(); status != nil {
			vane = status.Vane
			widevane = status.WideVane
		}
		changes, err := ApplySwingMode(message, vane, widevane)
		if err != nil {
			b.log.WithError(err).Warn("rejecting swing mode command")
			return
		}
		b.queueChanges(changes)
	})
}

// Tick runs one update cycle: flush queued changes if any, give the pump a
// moment to settle, then poll. Driven by the shared poll ticker and, early,
// by the command debounce timer.
func (b *Bridge) Tick() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.stopFlushTimer()

	if b.queue.Len() > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), b.RequestTimeout)
		err := b.queue.Flush(ctx)
		cancel()
		if err != nil {
			b.log.WithError(err).Warn("failed to send changes, will retry next tick")
			b.w.MarkUnavailable()
		} else {
			time.Sleep(b.SettleDelay)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.RequestTimeout)
	defer cancel()
	if err := b.w.Poll(ctx); err != nil {
		b.log.WithError(err).Warn("failed to poll status")
		return
	}
	b.sampleRoomTemperature()
}

// Queue returns the pending-change queue, pre-wired to the device transport.
func (b *Bridge) Queue() *pending.Queue {
	return b.queue
}

// Available reports whether the device answered its last poll or flush.
func (b *Bridge) Available() bool {
	return b.w.Available()
}

func (b *Bridge) queueChanges(changes map[string]interface{}) {
	for key, value := range changes {
		b.queue.Set(key, value)
	}
	b.scheduleFlush()
}

// scheduleFlush (re)starts the debounce timer so that a burst of commands is
// coalesced into a single early Tick.
func (b *Bridge) scheduleFlush() {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.flushTimer != nil {
		b.flushTimer.Stop()
	}
	b.flushTimer = time.AfterFunc(b.FlushDelay, b.Tick)
}

func (b *Bridge) stopFlushTimer() {
	if b.flushTimer != nil {
		b.flushTimer.Stop()
		b.flushTimer = nil
	}
}

// sampleRoomTemperature feeds the moving average and publishes the smoothed
// room temperature at 0.1 degree resolution when it moves.
func (b *Bridge) sampleRoomTemperature() {
	status := b.w.Status()
	if status == nil {
		return
	}
	b.roomTemp.Add(status.RoomTemp)
	smoothed := math.Round(b.roomTemp.Avg()*10) / 10
	if smoothed != b.lastRoomTemp {
		b.lastRoomTemp = smoothed
		b.publish(b.getTopic("currentTemp"), fmt.Sprintf("%g", smoothed))
	}
}

// clampTemp snaps a requested target temperature to the device's half-degree
// steps and its supported range.
func (b *Bridge) clampTemp(temp float64) float64 {
	temp = math.Round(temp*2) / 2
	if temp < b.MinTemp {
		temp = b.MinTemp
	}
	if temp > b.MaxTemp {
		temp = b.MaxTemp
	}
	return temp
}

func (b *Bridge) publish(topic string, payload string) {
	if err := b.Mqtt.Publish(topic, 0, true, payload); err != nil {
		b.log.WithError(err).Warnf("failed to publish to %s", topic)
	}
}

func (b *Bridge) getTopic(subtopic string) string {
	return fmt.Sprintf("%s/%s/%s", b.TopicPrefix, b.Identity.NodeID(), subtopic)
}

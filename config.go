package main

import (
	"flag"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"mheatpump2mqtt/heatpump"
	"mheatpump2mqtt/mqtt"
)

type Config struct {
	MqttClient    *mqtt.Client
	HTTPClient    *http.Client
	StaticDevices []*heatpump.Identity

	TopicPrefix  string
	HassPrefix   string
	PollInterval time.Duration
	FlushDelay   time.Duration
	SettleDelay  time.Duration
}

// parseStaticDevices parses a comma-separated list of host:port:name triples.
// The name must embed the device's MAC the same way an mDNS advertisement
// would ("... mac a1b2c3d4e5f6 ..."), since it is the only source of identity.
func parseStaticDevices(devices string) []*heatpump.Identity {
	if devices == "" {
		return nil
	}
	var identities []*heatpump.Identity
	for _, device := range strings.Split(devices, ",") {
		parts := strings.SplitN(device, ":", 3)
		if len(parts) != 3 {
			log.Fatalf("Invalid device %q, expected host:port:name", device)
		}
		port, err := strconv.Atoi(parts[1])
		if err != nil {
			log.Fatalf("Invalid port in device %q: %s", device, err)
		}
		identity, err := heatpump.NewIdentity(parts[0], port, parts[2])
		if err != nil {
			log.Fatalf("Cannot identify device %q: %s", device, err)
		}
		identities = append(identities, identity)
	}
	return identities
}

func ParseCommandLine() *Config {
	hostname, _ := os.Hostname()

	server := flag.String("server", "tcp://127.0.0.1:1883", "The full url of the MQTT server to connect to ex: tcp://127.0.0.1:1883")
	clientid := flag.String("clientid", hostname+strconv.Itoa(time.Now().Second()), "A clientid for the connection")
	username := flag.String("username", "", "A username to authenticate to the MQTT server")
	password := flag.String("password", "", "Password to match username")
	prefix := flag.String("prefix", "mheatpump2mqtt", "MQTT topic root where to publish/read topics")
	hassPrefix := flag.String("hassPrefix", "homeassistant", "Home assistant discovery prefix")
	pollInterval := flag.Duration("pollInterval", 10*time.Second, "How often to poll each heat pump for status")
	flushDelay := flag.Duration("flushDelay", 250*time.Millisecond, "How long to coalesce commands before sending them to the device")
	settleDelay := flag.Duration("settleDelay", 20*time.Millisecond, "Pause between sending changes and polling for status")
	httpTimeout := flag.Duration("httpTimeout", 5*time.Second, "Timeout for HTTP requests against the devices")
	devices := flag.String("devices", "", "Comma-separated list of host:port:name devices to manage in addition to mDNS discovery")
	logLevel := flag.String("logLevel", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level %q: %s", *logLevel, err)
	}
	log.SetLevel(level)

	mqttClient := mqtt.New(&mqtt.Config{
		Server:             *server,
		ClientID:           *clientid,
		Username:           *username,
		Password:           *password,
		WillTopic:          *prefix + "/bridge/status",
		WillPayloadOnline:  "online",
		WillPayloadOffline: "offline",
	})

	return &Config{
		MqttClient:    mqttClient,
		HTTPClient:    &http.Client{Timeout: *httpTimeout},
		StaticDevices: parseStaticDevices(*devices),
		TopicPrefix:   *prefix,
		HassPrefix:    *hassPrefix,
		PollInterval:  *pollInterval,
		FlushDelay:    *flushDelay,
		SettleDelay:   *settleDelay,
	}
}

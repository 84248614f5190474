package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"mheatpump2mqtt/discovery"
	"mheatpump2mqtt/heatpump"
	"mheatpump2mqtt/hp"
)

func NewBridge(identity *heatpump.Identity, config *Config) *hp.Bridge {
	return hp.NewBridge(&hp.Config{
		Identity: identity,
		Transport: heatpump.NewClient(&heatpump.Config{
			Host: identity.Host,
			Port: identity.Port,
			HTTP: config.HTTPClient,
		}),
		Mqtt:        config.MqttClient,
		TopicPrefix: config.TopicPrefix,
		HassPrefix:  config.HassPrefix,
		FlushDelay:  config.FlushDelay,
		SettleDelay: config.SettleDelay,
	})
}

func main() {

	ctrlC := make(chan os.Signal, 1)
	signal.Notify(ctrlC, os.Interrupt, syscall.SIGTERM)

	config := ParseCommandLine()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	found := make(chan *heatpump.Identity)
	go func() {
		for _, identity := range config.StaticDevices {
			found <- identity
		}
	}()
	go func() {
		if err := discovery.Browse(ctx, found); err != nil {
			log.WithError(err).Error("mDNS browser failed, only statically configured devices will be managed")
		}
	}()

	go func() {
		ticker := time.NewTicker(config.PollInterval)
		defer ticker.Stop()

		var sessionID int
		bridges := make(map[string]*hp.Bridge)
		stale := make(map[string]bool) // bridges that need a (re)Start

		for {
			select {
			case <-ctx.Done():
				return

			case identity := <-found:
				if _, exists := bridges[identity.MAC]; exists {
					continue
				}
				bridges[identity.MAC] = NewBridge(identity, config)
				stale[identity.MAC] = true

			case <-ticker.C:
				newSessionID := config.MqttClient.ID
				if newSessionID != sessionID {
					// new MQTT session: discovery configs and subscriptions are gone
					for mac := range bridges {
						stale[mac] = true
					}
					sessionID = newSessionID
				}
				for mac, bridge := range bridges {
					if stale[mac] {
						if err := bridge.Start(); err != nil {
							log.WithError(err).Warnf("Error starting bridge for %s, will retry", mac)
							continue
						}
						delete(stale, mac)
					} else {
						// each device polls on its own; a slow one must not
						// hold the others up
						go bridge.Tick()
					}
				}
			}
		}
	}()

	<-ctrlC

	cancel()
	config.MqttClient.Close()

}

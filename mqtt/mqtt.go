// Package mqtt wraps the paho client with the reconnect behavior the bridges
// rely on: a session id that increments on every (re)connect, so callers know
// when subscriptions and retained discovery configs must be re-established.
package mqtt

import (
	"crypto/tls"
	"errors"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Server   string
	ClientID string
	Username string
	Password string

	// WillTopic, if set, gets WillPayloadOffline published by the broker when
	// the daemon dies, and WillPayloadOnline right after each connect.
	WillTopic          string
	WillPayloadOnline  string
	WillPayloadOffline string
}

// Client is a self-healing MQTT connection. ID increments on every successful
// connect; consumers compare it against the last session they wired up.
type Client struct {
	client MQTT.Client
	ID     int
	closed bool
}

var ErrNotConnected = errors.New("MQTT client not connected")

func New(config *Config) *Client {
	m := &Client{}

	connOpts := MQTT.NewClientOptions().
		AddBroker(config.Server).
		SetClientID(config.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(false)

	if config.Username != "" {
		connOpts.SetUsername(config.Username)
		if config.Password != "" {
			connOpts.SetPassword(config.Password)
		}
	}

	if config.WillTopic != "" {
		connOpts.SetWill(config.WillTopic, config.WillPayloadOffline, 0, true)
	}

	tlsConfig := &tls.Config{InsecureSkipVerify: true, ClientAuth: tls.NoClientCert}
	connOpts.SetTLSConfig(tlsConfig)

	connOpts.OnConnectionLost = func(c MQTT.Client, err error) {
		log.WithError(err).Warn("MQTT disconnected")
	}

	connect := func() {
		log.Infof("Trying to connect to MQTT %s ...", config.Server)
		newClient := MQTT.NewClient(connOpts)
		token := newClient.Connect()
		token.Wait()
		if token.Error() == nil {
			m.client = newClient
			m.ID++
			log.Infof("Connected to MQTT. Session ID %d", m.ID)
			if config.WillTopic != "" {
				newClient.Publish(config.WillTopic, 0, true, config.WillPayloadOnline)
			}
		}
	}

	connect()
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if m.closed {
				if m.client != nil {
					m.client.Disconnect(100)
				}
				return
			}
			if m.client == nil || !m.client.IsConnectionOpen() {
				connect()
			}
		}
	}()
	return m
}

func (m *Client) Publish(topic string, qos byte, retained bool, payload string) error {
	if m.client == nil {
		return ErrNotConnected
	}
	token := m.client.Publish(topic, qos, retained, payload)
	token.Wait()
	return token.Error()
}

func (m *Client) Subscribe(topic string, callback func(message string)) error {
	if m.client == nil {
		return ErrNotConnected
	}
	token := m.client.Subscribe(topic, 0, func(c MQTT.Client, msg MQTT.Message) {
		callback(string(msg.Payload()))
	})
	token.Wait()
	return token.Error()
}

func (m *Client) Close() error {
	m.closed = true
	return nil
}

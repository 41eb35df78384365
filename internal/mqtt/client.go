// Package mqtt mirrors realtime events to an MQTT broker.
package mqtt

import (
	"fmt"
	"time"

	"picturebridge/internal/config"
	"picturebridge/internal/logger"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Client manages the MQTT connection only; publishing lives in Publisher.
type Client struct {
	client mqtt.Client
	logger *logger.Logger
}

// NewClient connects to the broker in cfg.
func NewClient(cfg config.MQTTConfig, logger *logger.Logger) (*Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("MQTT: connected to %s", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warning("MQTT: connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Client{client: client, logger: logger}, nil
}

// GetNativeClient returns the underlying paho client.
func (c *Client) GetNativeClient() mqtt.Client {
	return c.client
}

// Close disconnects, allowing 250ms for in-flight work.
func (c *Client) Close() {
	c.client.Disconnect(250)
	c.logger.Info("MQTT: disconnected")
}

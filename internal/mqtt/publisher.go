package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"picturebridge/internal/logger"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	publishQoS     = 1
	publishTimeout = 5 * time.Second
	queueSize      = 100
)

// Broker is the part of the paho client the publisher needs.
type Broker interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Event is the JSON payload published for every mirrored event.
type Event struct {
	Event string    `json:"event"`
	Data  string    `json:"data"`
	Time  time.Time `json:"time"`
}

// Publisher queues events and publishes them from its own goroutine so
// that a slow broker never holds up the serial relay.
type Publisher struct {
	broker      Broker
	topicPrefix string
	events      chan Event
	logger      *logger.Logger
}

func NewPublisher(broker Broker, topicPrefix string, logger *logger.Logger) *Publisher {
	return &Publisher{
		broker:      broker,
		topicPrefix: topicPrefix,
		events:      make(chan Event, queueSize),
		logger:      logger,
	}
}

// Broadcast queues event for publishing. It drops the event if the queue is full.
func (p *Publisher) Broadcast(event, payload string) {
	select {
	case p.events <- Event{Event: event, Data: payload, Time: time.Now()}:
	default:
		p.logger.Warning("MQTT: queue full, dropping %s event", event)
	}
}

// Start publishes queued events until ctx is cancelled.
func (p *Publisher) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.events:
			if err := p.publish(ev); err != nil {
				p.logger.Error("MQTT: %v", err)
			}
		}
	}
}

func (p *Publisher) publish(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", ev.Event, err)
	}

	topic := Topic(p.topicPrefix, ev.Event)
	token := p.broker.Publish(topic, publishQoS, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing to %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Topic joins prefix and event into a topic name.
func Topic(prefix, event string) string {
	if prefix == "" {
		return event
	}
	return prefix + "/" + event
}

// Package events publishes registry-change notifications over MQTT. The API
// emits an event after every property registry mutation; the reconciler worker
// subscribes and re-runs convergence for the affected dealership, which repairs
// any fan-out writes lost to a mid-flight crash.
package events

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// Registry change kinds.
const (
	ChangePropertyCreated = "property_created"
	ChangePropertyUpdated = "property_updated"
	ChangePropertyDeleted = "property_deleted"
)

const (
	// TopicPattern is the subscription filter matching every dealership's
	// registry topic.
	TopicPattern = "autotracks/dealerships/+/registry"

	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// RegistryChange describes a single property registry mutation.
type RegistryChange struct {
	DealershipID string `json:"dealership_id"`
	PropertyID   string `json:"property_id"`
	Change       string `json:"change"`
	OccurredAt   int64  `json:"occurred_at"`
}

// Topic returns the per-dealership registry topic the change is published on.
func (c RegistryChange) Topic() string {
	return fmt.Sprintf("autotracks/dealerships/%s/registry", c.DealershipID)
}

// Publisher emits registry-change events. Publishing is best effort: the
// registry write has already committed, so a publish failure is logged and
// swallowed rather than failing the request.
type Publisher interface {
	PublishRegistryChange(change RegistryChange)
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishRegistryChange(RegistryChange) {}

// MQTTPublisher publishes events to an MQTT broker at QoS 1.
type MQTTPublisher struct {
	client mqtt.Client
}

// NewPublisher connects to the broker named by MQTT_BROKER and returns a
// publisher bound to it. When MQTT_BROKER is unset the returned publisher is a
// no-op and the API runs without the repair pipeline.
func NewPublisher(clientID string) (Publisher, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		log.Info("MQTT_BROKER not set, registry change events disabled")
		return NopPublisher{}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", broker, err)
	}

	log.WithField("broker", broker).Info("Connected to MQTT broker")
	return &MQTTPublisher{client: client}, nil
}

// PublishRegistryChange publishes the change on its dealership topic.
func (p *MQTTPublisher) PublishRegistryChange(change RegistryChange) {
	payload, err := json.Marshal(change)
	if err != nil {
		log.WithError(err).Error("Failed to encode registry change event")
		return
	}

	token := p.client.Publish(change.Topic(), 1, false, payload)
	if !token.WaitTimeout(publishTimeout) || token.Error() != nil {
		log.WithFields(log.Fields{
			"dealership_id": change.DealershipID,
			"change":        change.Change,
		}).WithError(token.Error()).Warn("Failed to publish registry change event")
		return
	}

	log.WithFields(log.Fields{
		"dealership_id": change.DealershipID,
		"property_id":   change.PropertyID,
		"change":        change.Change,
	}).Debug("Published registry change event")
}

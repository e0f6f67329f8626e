// The reconciler is a standalone repair worker. It subscribes to registry
// change events and re-runs fan-out convergence for each affected dealership,
// so a crash between an API's registry write and its fan-out pass heals
// without manual intervention.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/autotracks/autotracks-api/internal/db"
	"github.com/autotracks/autotracks-api/internal/events"
	"github.com/autotracks/autotracks-api/internal/fanout"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const reconcileTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using process environment")
	}
	log.SetFormatter(&log.JSONFormatter{})

	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		log.Fatal("MQTT_BROKER is required")
	}

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	collections := db.NewCollections(client.Database(db.DatabaseName()))

	sync := fanout.New(collections.Properties, collections.Configs, collections.Vehicles)

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("autotracks-reconciler").
		SetAutoReconnect(true).
		SetCleanSession(false)

	mqttClient := mqtt.NewClient(opts)
	if token := mqttClient.Connect(); token.Wait() && token.Error() != nil {
		log.WithError(token.Error()).Fatal("Failed to connect to MQTT broker")
	}
	log.WithField("broker", broker).Info("Connected to MQTT broker")

	handler := func(client mqtt.Client, message mqtt.Message) {
		var change events.RegistryChange
		if err := json.Unmarshal(message.Payload(), &change); err != nil {
			log.WithError(err).WithField("topic", message.Topic()).Warn("Dropping malformed registry change event")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()

		if err := sync.Reconcile(ctx, change.DealershipID); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"dealership_id": change.DealershipID,
				"change":        change.Change,
			}).Error("Reconciliation failed")
			return
		}

		log.WithFields(log.Fields{
			"dealership_id": change.DealershipID,
			"property_id":   change.PropertyID,
			"change":        change.Change,
		}).Info("Dealership reconciled")
	}

	if token := mqttClient.Subscribe(events.TopicPattern, 1, handler); token.Wait() && token.Error() != nil {
		log.WithError(token.Error()).Fatal("Failed to subscribe to registry change events")
	}
	log.WithField("topic", events.TopicPattern).Info("Subscribed to registry change events")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	mqttClient.Disconnect(250)
	log.Info("Reconciler stopped")
}

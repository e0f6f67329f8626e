// Package fanout keeps property configs and vehicle property maps consistent
// with a dealership's property registry. The two propagation directions
// (property added, property removed) are both expressed as one idempotent
// reconciliation: converge every dependent document toward the current active
// registry. A retry or background repair job can call Reconcile again after a
// partial failure and only the missing writes are re-issued.
package fanout

import (
	"context"

	"github.com/autotracks/autotracks-api/internal/apperr"
	"github.com/autotracks/autotracks-api/internal/db"
	"github.com/autotracks/autotracks-api/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

var (
	fanoutWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_writes_total",
			Help: "Total number of fan-out document writes by target and operation",
		},
		[]string{"target", "op"},
	)

	fanoutFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fanout_write_failures_total",
			Help: "Total number of failed fan-out document writes",
		},
	)
)

const defaultWorkers = 8

// Synchronizer converges property configs and vehicles toward the property
// registry of a dealership.
type Synchronizer struct {
	properties db.PropertyCollection
	configs    db.PropertyConfigCollection
	vehicles   db.VehicleCollection
	workers    int
}

// New creates a Synchronizer dispatching up to defaultWorkers concurrent
// document writes.
func New(properties db.PropertyCollection, configs db.PropertyConfigCollection, vehicles db.VehicleCollection) *Synchronizer {
	return &Synchronizer{
		properties: properties,
		configs:    configs,
		vehicles:   vehicles,
		workers:    defaultWorkers,
	}
}

// Reconcile converges every active property config and vehicle of the
// dealership toward its active property registry: missing entries are added,
// entries referencing deleted properties are removed. Each document is written
// independently; there is no cross-document transaction. A failed write leaves
// prior writes committed and surfaces as a persistence error, which is safe to
// retry since every write is idempotent.
func (s *Synchronizer) Reconcile(ctx context.Context, dealershipID string) error {
	properties, err := s.properties.FindActiveProperties(ctx, dealershipID)
	if err != nil {
		return apperr.Persistence("failed to load property registry", err)
	}

	configs, err := s.configs.FindActiveConfigsByDealership(ctx, dealershipID)
	if err != nil {
		return apperr.Persistence("failed to load property configs", err)
	}

	vehicles, err := s.vehicles.FindActiveVehicles(ctx, dealershipID)
	if err != nil {
		return apperr.Persistence("failed to load vehicles", err)
	}

	activeByID := make(map[primitive.ObjectID]models.Property, len(properties))
	activeByKey := make(map[models.PropertyKey]models.Property, len(properties))
	for _, property := range properties {
		activeByID[property.ID] = property
		activeByKey[property.Key] = property
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)

	for i := range configs {
		config := configs[i]
		group.Go(func() error {
			return s.syncConfig(groupCtx, config, activeByID)
		})
	}
	for i := range vehicles {
		vehicle := vehicles[i]
		group.Go(func() error {
			return s.syncVehicle(groupCtx, vehicle, activeByKey)
		})
	}

	if err := group.Wait(); err != nil {
		fanoutFailures.Inc()
		log.WithError(err).WithField("dealership_id", dealershipID).Error("Property fan-out incomplete")
		return apperr.Persistence("property fan-out incomplete", err)
	}

	log.WithFields(log.Fields{
		"dealership_id": dealershipID,
		"properties":    len(properties),
		"configs":       len(configs),
		"vehicles":      len(vehicles),
	}).Debug("Property registry reconciled")
	return nil
}

// syncConfig adds order entries for unreferenced active properties and pulls
// entries whose property is no longer active.
func (s *Synchronizer) syncConfig(ctx context.Context, config models.PropertyConfig, active map[primitive.ObjectID]models.Property) error {
	referenced := make(map[primitive.ObjectID]bool, len(config.PropertyOrder))
	for _, entry := range config.PropertyOrder {
		referenced[entry.PropertyID] = true
	}

	for id := range active {
		if referenced[id] {
			continue
		}
		if err := s.configs.AddPropertyToOrder(ctx, config.ID, id); err != nil {
			return err
		}
		fanoutWrites.WithLabelValues("config", "add").Inc()
	}

	for id := range referenced {
		if _, ok := active[id]; ok {
			continue
		}
		if err := s.configs.RemovePropertyFromOrder(ctx, config.ID, id); err != nil {
			return err
		}
		fanoutWrites.WithLabelValues("config", "remove").Inc()
	}
	return nil
}

// syncVehicle inserts snapshots for active properties missing from the map and
// unsets entries keyed by properties no longer active.
func (s *Synchronizer) syncVehicle(ctx context.Context, vehicle models.Vehicle, active map[models.PropertyKey]models.Property) error {
	for key, property := range active {
		if _, ok := vehicle.Properties[key]; ok {
			continue
		}
		if err := s.vehicles.SetVehicleProperty(ctx, vehicle.ID, key, property.Snapshot()); err != nil {
			return err
		}
		fanoutWrites.WithLabelValues("vehicle", "add").Inc()
	}

	for key := range vehicle.Properties {
		if _, ok := active[key]; ok {
			continue
		}
		if err := s.vehicles.UnsetVehicleProperty(ctx, vehicle.ID, key); err != nil {
			return err
		}
		fanoutWrites.WithLabelValues("vehicle", "remove").Inc()
	}
	return nil
}

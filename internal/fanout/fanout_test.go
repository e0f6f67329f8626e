package fanout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/autotracks/autotracks-api/internal/apperr"
	"github.com/autotracks/autotracks-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakePropertyStore serves a fixed active registry.
type fakePropertyStore struct {
	active  []models.Property
	findErr error
}

func (f *fakePropertyStore) InsertProperty(ctx context.Context, property models.Property) error {
	return errors.New("not implemented")
}

func (f *fakePropertyStore) FindPropertyByID(ctx context.Context, dealershipID, propertyID string) (*models.Property, error) {
	return nil, errors.New("not implemented")
}

func (f *fakePropertyStore) FindActiveProperties(ctx context.Context, dealershipID string) ([]models.Property, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.active, nil
}

func (f *fakePropertyStore) ActiveKeyExists(ctx context.Context, dealershipID string, key models.PropertyKey, excludeID string) (bool, error) {
	return false, errors.New("not implemented")
}

func (f *fakePropertyStore) UpdateProperty(ctx context.Context, propertyID string, property models.Property) error {
	return errors.New("not implemented")
}

func (f *fakePropertyStore) SoftDeleteProperty(ctx context.Context, propertyID string) error {
	return errors.New("not implemented")
}

// fakeConfigStore applies order mutations in memory the way the Mongo filters
// would: append only when the property is unreferenced, pull unconditionally.
type fakeConfigStore struct {
	mu          sync.Mutex
	configs     map[primitive.ObjectID]*models.PropertyConfig
	addCalls    int
	removeCalls int
	addErr      error
}

func newFakeConfigStore(configs ...*models.PropertyConfig) *fakeConfigStore {
	store := &fakeConfigStore{configs: make(map[primitive.ObjectID]*models.PropertyConfig)}
	for _, config := range configs {
		store.configs[config.ID] = config
	}
	return store
}

func (f *fakeConfigStore) InsertConfigs(ctx context.Context, configs []models.PropertyConfig) error {
	return errors.New("not implemented")
}

func (f *fakeConfigStore) FindActiveConfigsByDealership(ctx context.Context, dealershipID string) ([]models.PropertyConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.PropertyConfig, 0, len(f.configs))
	for _, config := range f.configs {
		out = append(out, *config)
	}
	return out, nil
}

func (f *fakeConfigStore) FindConfigByUserAndDealership(ctx context.Context, dealershipID, userID string) (*models.PropertyConfig, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeConfigStore) FindConfigsByAccountAndUser(ctx context.Context, accountID, userID string) ([]models.PropertyConfig, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeConfigStore) UpdateOrder(ctx context.Context, configID string, order []models.PropertyOrderEntry, groupBy *models.PropertyGroupBy) (*models.PropertyConfig, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeConfigStore) AddPropertyToOrder(ctx context.Context, configID primitive.ObjectID, propertyID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	if f.addErr != nil {
		return f.addErr
	}
	config := f.configs[configID]
	for _, entry := range config.PropertyOrder {
		if entry.PropertyID == propertyID {
			return nil
		}
	}
	config.PropertyOrder = append(config.PropertyOrder, models.PropertyOrderEntry{PropertyID: propertyID, Visible: true})
	return nil
}

func (f *fakeConfigStore) RemovePropertyFromOrder(ctx context.Context, configID primitive.ObjectID, propertyID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls++
	config := f.configs[configID]
	kept := config.PropertyOrder[:0]
	for _, entry := range config.PropertyOrder {
		if entry.PropertyID != propertyID {
			kept = append(kept, entry)
		}
	}
	config.PropertyOrder = kept
	return nil
}

// fakeVehicleStore applies property-map mutations in memory: set only when the
// key is absent, unset unconditionally.
type fakeVehicleStore struct {
	mu         sync.Mutex
	vehicles   map[primitive.ObjectID]*models.Vehicle
	setCalls   int
	unsetCalls int
	setErr     error
}

func newFakeVehicleStore(vehicles ...*models.Vehicle) *fakeVehicleStore {
	store := &fakeVehicleStore{vehicles: make(map[primitive.ObjectID]*models.Vehicle)}
	for _, vehicle := range vehicles {
		store.vehicles[vehicle.ID] = vehicle
	}
	return store
}

func (f *fakeVehicleStore) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	return errors.New("not implemented")
}

func (f *fakeVehicleStore) FindActiveVehicles(ctx context.Context, dealershipID string) ([]models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Vehicle, 0, len(f.vehicles))
	for _, vehicle := range f.vehicles {
		out = append(out, *vehicle)
	}
	return out, nil
}

func (f *fakeVehicleStore) FindVehicleByID(ctx context.Context, dealershipID, vehicleID string) (*models.Vehicle, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeVehicleStore) ActiveVINExists(ctx context.Context, vin string, excludeID string) (bool, error) {
	return false, errors.New("not implemented")
}

func (f *fakeVehicleStore) UpdateVehicle(ctx context.Context, dealershipID, vehicleID string, vehicle models.Vehicle) error {
	return errors.New("not implemented")
}

func (f *fakeVehicleStore) SoftDeleteVehicle(ctx context.Context, dealershipID, vehicleID string) error {
	return errors.New("not implemented")
}

func (f *fakeVehicleStore) SetVehicleProperty(ctx context.Context, vehicleID primitive.ObjectID, key models.PropertyKey, snapshot models.PropertySnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	vehicle := f.vehicles[vehicleID]
	if vehicle.Properties == nil {
		vehicle.Properties = make(map[models.PropertyKey]models.PropertySnapshot)
	}
	if _, ok := vehicle.Properties[key]; ok {
		return nil
	}
	vehicle.Properties[key] = snapshot
	return nil
}

func (f *fakeVehicleStore) UnsetVehicleProperty(ctx context.Context, vehicleID primitive.ObjectID, key models.PropertyKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsetCalls++
	delete(f.vehicles[vehicleID].Properties, key)
	return nil
}

func makeProperty(label string) models.Property {
	return models.Property{
		ID:           primitive.NewObjectID(),
		DealershipID: primitive.NewObjectID(),
		Label:        label,
		Key:          models.DeriveKey(label),
		InputType:    models.InputTypeText,
	}
}

const dealershipID = "64a000000000000000000001"

func TestReconcile_AddsMissingEntries(t *testing.T) {
	trimLevel := makeProperty("Trim Level")
	color := makeProperty("Color")

	synced := &models.PropertyConfig{
		ID: primitive.NewObjectID(),
		PropertyOrder: []models.PropertyOrderEntry{
			{PropertyID: trimLevel.ID, Visible: false},
			{PropertyID: color.ID, Visible: true},
		},
	}
	stale := &models.PropertyConfig{
		ID:            primitive.NewObjectID(),
		PropertyOrder: []models.PropertyOrderEntry{{PropertyID: trimLevel.ID, Visible: true}},
	}

	vehicle := &models.Vehicle{
		ID: primitive.NewObjectID(),
		Properties: map[models.PropertyKey]models.PropertySnapshot{
			trimLevel.Key: {Label: "Trim Level", Value: "GT", InputType: models.InputTypeText},
		},
	}

	configs := newFakeConfigStore(synced, stale)
	vehicles := newFakeVehicleStore(vehicle)
	synchronizer := New(&fakePropertyStore{active: []models.Property{trimLevel, color}}, configs, vehicles)

	err := synchronizer.Reconcile(context.Background(), dealershipID)
	require.NoError(t, err)

	require.Len(t, stale.PropertyOrder, 2)
	assert.Equal(t, color.ID, stale.PropertyOrder[1].PropertyID)
	assert.True(t, stale.PropertyOrder[1].Visible)

	// The synced config keeps its custom visibility untouched.
	require.Len(t, synced.PropertyOrder, 2)
	assert.False(t, synced.PropertyOrder[0].Visible)

	require.Contains(t, vehicle.Properties, color.Key)
	assert.Equal(t, "Color", vehicle.Properties[color.Key].Label)
	assert.Nil(t, vehicle.Properties[color.Key].Value)
	assert.Equal(t, "GT", vehicle.Properties[trimLevel.Key].Value)
}

func TestReconcile_RemovesStaleEntries(t *testing.T) {
	color := makeProperty("Color")
	deletedID := primitive.NewObjectID()

	config := &models.PropertyConfig{
		ID: primitive.NewObjectID(),
		PropertyOrder: []models.PropertyOrderEntry{
			{PropertyID: deletedID, Visible: true},
			{PropertyID: color.ID, Visible: true},
		},
	}
	vehicle := &models.Vehicle{
		ID: primitive.NewObjectID(),
		Properties: map[models.PropertyKey]models.PropertySnapshot{
			color.Key:   {Label: "Color", Value: "Red", InputType: models.InputTypeText},
			"trimLevel": {Label: "Trim Level", Value: "GT", InputType: models.InputTypeText},
		},
	}

	configs := newFakeConfigStore(config)
	vehicles := newFakeVehicleStore(vehicle)
	synchronizer := New(&fakePropertyStore{active: []models.Property{color}}, configs, vehicles)

	err := synchronizer.Reconcile(context.Background(), dealershipID)
	require.NoError(t, err)

	require.Len(t, config.PropertyOrder, 1)
	assert.Equal(t, color.ID, config.PropertyOrder[0].PropertyID)

	require.Len(t, vehicle.Properties, 1)
	assert.Equal(t, "Red", vehicle.Properties[color.Key].Value)
}

func TestReconcile_SecondRunIssuesNoWrites(t *testing.T) {
	trimLevel := makeProperty("Trim Level")

	config := &models.PropertyConfig{ID: primitive.NewObjectID()}
	vehicle := &models.Vehicle{ID: primitive.NewObjectID()}

	configs := newFakeConfigStore(config)
	vehicles := newFakeVehicleStore(vehicle)
	synchronizer := New(&fakePropertyStore{active: []models.Property{trimLevel}}, configs, vehicles)

	require.NoError(t, synchronizer.Reconcile(context.Background(), dealershipID))
	assert.Equal(t, 1, configs.addCalls)
	assert.Equal(t, 1, vehicles.setCalls)

	require.NoError(t, synchronizer.Reconcile(context.Background(), dealershipID))
	assert.Equal(t, 1, configs.addCalls)
	assert.Equal(t, 1, vehicles.setCalls)
	assert.Equal(t, 0, configs.removeCalls)
	assert.Equal(t, 0, vehicles.unsetCalls)
}

func TestReconcile_NoDependents(t *testing.T) {
	trimLevel := makeProperty("Trim Level")
	synchronizer := New(&fakePropertyStore{active: []models.Property{trimLevel}}, newFakeConfigStore(), newFakeVehicleStore())

	err := synchronizer.Reconcile(context.Background(), dealershipID)
	assert.NoError(t, err)
}

func TestReconcile_WriteFailureIsPersistence(t *testing.T) {
	trimLevel := makeProperty("Trim Level")

	vehicle := &models.Vehicle{ID: primitive.NewObjectID()}
	vehicles := newFakeVehicleStore(vehicle)
	vehicles.setErr = errors.New("socket closed")

	synchronizer := New(&fakePropertyStore{active: []models.Property{trimLevel}}, newFakeConfigStore(), vehicles)

	err := synchronizer.Reconcile(context.Background(), dealershipID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
}

func TestReconcile_RegistryLoadFailureIsPersistence(t *testing.T) {
	properties := &fakePropertyStore{findErr: errors.New("connection reset")}
	synchronizer := New(properties, newFakeConfigStore(), newFakeVehicleStore())

	err := synchronizer.Reconcile(context.Background(), dealershipID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
}

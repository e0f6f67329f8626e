package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/autotracks/autotracks-api/internal/middleware"
	"github.com/autotracks/autotracks-api/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockPropertyCollection is a mock implementation of PropertyCollection
type MockPropertyCollection struct {
	mock.Mock
}

func (m *MockPropertyCollection) InsertProperty(ctx context.Context, property models.Property) error {
	args := m.Called(ctx, property)
	return args.Error(0)
}

func (m *MockPropertyCollection) FindPropertyByID(ctx context.Context, dealershipID, propertyID string) (*models.Property, error) {
	args := m.Called(ctx, dealershipID, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyCollection) FindActiveProperties(ctx context.Context, dealershipID string) ([]models.Property, error) {
	args := m.Called(ctx, dealershipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *MockPropertyCollection) ActiveKeyExists(ctx context.Context, dealershipID string, key models.PropertyKey, excludeID string) (bool, error) {
	args := m.Called(ctx, dealershipID, key, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPropertyCollection) UpdateProperty(ctx context.Context, propertyID string, property models.Property) error {
	args := m.Called(ctx, propertyID, property)
	return args.Error(0)
}

func (m *MockPropertyCollection) SoftDeleteProperty(ctx context.Context, propertyID string) error {
	args := m.Called(ctx, propertyID)
	return args.Error(0)
}

// MockPropertyConfigCollection is a mock implementation of PropertyConfigCollection
type MockPropertyConfigCollection struct {
	mock.Mock
}

func (m *MockPropertyConfigCollection) InsertConfigs(ctx context.Context, configs []models.PropertyConfig) error {
	args := m.Called(ctx, configs)
	return args.Error(0)
}

func (m *MockPropertyConfigCollection) FindActiveConfigsByDealership(ctx context.Context, dealershipID string) ([]models.PropertyConfig, error) {
	args := m.Called(ctx, dealershipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PropertyConfig), args.Error(1)
}

func (m *MockPropertyConfigCollection) FindConfigByUserAndDealership(ctx context.Context, dealershipID, userID string) (*models.PropertyConfig, error) {
	args := m.Called(ctx, dealershipID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PropertyConfig), args.Error(1)
}

func (m *MockPropertyConfigCollection) FindConfigsByAccountAndUser(ctx context.Context, accountID, userID string) ([]models.PropertyConfig, error) {
	args := m.Called(ctx, accountID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PropertyConfig), args.Error(1)
}

func (m *MockPropertyConfigCollection) UpdateOrder(ctx context.Context, configID string, order []models.PropertyOrderEntry, groupBy *models.PropertyGroupBy) (*models.PropertyConfig, error) {
	args := m.Called(ctx, configID, order, groupBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PropertyConfig), args.Error(1)
}

func (m *MockPropertyConfigCollection) AddPropertyToOrder(ctx context.Context, configID primitive.ObjectID, propertyID primitive.ObjectID) error {
	args := m.Called(ctx, configID, propertyID)
	return args.Error(0)
}

func (m *MockPropertyConfigCollection) RemovePropertyFromOrder(ctx context.Context, configID primitive.ObjectID, propertyID primitive.ObjectID) error {
	args := m.Called(ctx, configID, propertyID)
	return args.Error(0)
}

// MockVehicleCollection is a mock implementation of VehicleCollection
type MockVehicleCollection struct {
	mock.Mock
}

func (m *MockVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

func (m *MockVehicleCollection) FindActiveVehicles(ctx context.Context, dealershipID string) ([]models.Vehicle, error) {
	args := m.Called(ctx, dealershipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) FindVehicleByID(ctx context.Context, dealershipID, vehicleID string) (*models.Vehicle, error) {
	args := m.Called(ctx, dealershipID, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) ActiveVINExists(ctx context.Context, vin string, excludeID string) (bool, error) {
	args := m.Called(ctx, vin, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockVehicleCollection) UpdateVehicle(ctx context.Context, dealershipID, vehicleID string, vehicle models.Vehicle) error {
	args := m.Called(ctx, dealershipID, vehicleID, vehicle)
	return args.Error(0)
}

func (m *MockVehicleCollection) SoftDeleteVehicle(ctx context.Context, dealershipID, vehicleID string) error {
	args := m.Called(ctx, dealershipID, vehicleID)
	return args.Error(0)
}

func (m *MockVehicleCollection) SetVehicleProperty(ctx context.Context, vehicleID primitive.ObjectID, key models.PropertyKey, snapshot models.PropertySnapshot) error {
	args := m.Called(ctx, vehicleID, key, snapshot)
	return args.Error(0)
}

func (m *MockVehicleCollection) UnsetVehicleProperty(ctx context.Context, vehicleID primitive.ObjectID, key models.PropertyKey) error {
	args := m.Called(ctx, vehicleID, key)
	return args.Error(0)
}

// MockAccountCollection is a mock implementation of AccountCollection
type MockAccountCollection struct {
	mock.Mock
}

func (m *MockAccountCollection) InsertAccount(ctx context.Context, account models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountCollection) FindAccountByID(ctx context.Context, accountID string) (*models.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountCollection) DomainExists(ctx context.Context, domain string) (bool, error) {
	args := m.Called(ctx, domain)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountCollection) DeleteAccount(ctx context.Context, accountID string) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserCollection) FindActiveUsersByAccount(ctx context.Context, accountID string) ([]models.User, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) FindActiveAdminsByAccount(ctx context.Context, accountID string) ([]models.User, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, userID string, user models.User) error {
	args := m.Called(ctx, userID, user)
	return args.Error(0)
}

func (m *MockUserCollection) SetActiveDealership(ctx context.Context, userID, dealershipID string) (*models.User, error) {
	args := m.Called(ctx, userID, dealershipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) AddAllowedDealership(ctx context.Context, userID primitive.ObjectID, dealershipID primitive.ObjectID) error {
	args := m.Called(ctx, userID, dealershipID)
	return args.Error(0)
}

func (m *MockUserCollection) DeleteUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockDealershipCollection is a mock implementation of DealershipCollection
type MockDealershipCollection struct {
	mock.Mock
}

func (m *MockDealershipCollection) InsertDealership(ctx context.Context, dealership models.Dealership) error {
	args := m.Called(ctx, dealership)
	return args.Error(0)
}

func (m *MockDealershipCollection) FindActiveDealershipByID(ctx context.Context, dealershipID string) (*models.Dealership, error) {
	args := m.Called(ctx, dealershipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dealership), args.Error(1)
}

func (m *MockDealershipCollection) FindActiveDealerships(ctx context.Context, accountID string) ([]models.Dealership, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Dealership), args.Error(1)
}

func (m *MockDealershipCollection) NameExists(ctx context.Context, accountID, name string) (bool, error) {
	args := m.Called(ctx, accountID, name)
	return args.Bool(0), args.Error(1)
}

// MockRoleCollection is a mock implementation of RoleCollection
type MockRoleCollection struct {
	mock.Mock
}

func (m *MockRoleCollection) InsertRole(ctx context.Context, role models.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

// serve routes the request through a chi router so URL params resolve, with
// the claims installed the way the auth middleware would.
func serve(method, pattern string, handlerFunc http.HandlerFunc, claims *models.Claims, req *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	if claims != nil {
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := context.WithValue(r.Context(), middleware.UserContextKey, claims)
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
	}
	router.MethodFunc(method, pattern, handlerFunc)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

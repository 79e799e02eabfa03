package routes

import (
	"time"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"
	"pinpoint-notes/pinpoint/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSyncService mocks the SyncServiceInterface for testing
type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) PushNotes(db *database.Database, userID uuid.UUID, req services.PushRequest) (services.PushResult, error) {
	args := m.Called(db, userID, req)
	return args.Get(0).(services.PushResult), args.Error(1)
}

// MockPullService mocks the PullServiceInterface for testing
type MockPullService struct {
	mock.Mock
}

func (m *MockPullService) ChangedNotes(db *database.Database, userID uuid.UUID, since int64, includeDeleted bool, limit int) (services.PullResult, error) {
	args := m.Called(db, userID, since, includeDeleted, limit)
	return args.Get(0).(services.PullResult), args.Error(1)
}

// MockDeleteService mocks the DeleteServiceInterface for testing
type MockDeleteService struct {
	mock.Mock
}

func (m *MockDeleteService) SoftDeleteNotes(db *database.Database, userID uuid.UUID, deviceID string, clientNoteIDs []int64) (int64, error) {
	args := m.Called(db, userID, deviceID, clientNoteIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDeleteService) HardDeleteNotes(db *database.Database, userID uuid.UUID, deviceID string, clientNoteIDs []int64) (int64, error) {
	args := m.Called(db, userID, deviceID, clientNoteIDs)
	return args.Get(0).(int64), args.Error(1)
}

// MockUsageService mocks the UsageServiceInterface for testing
type MockUsageService struct {
	mock.Mock
}

func (m *MockUsageService) CheckPushAllowed(db *database.Database, user *models.User, clientNoteIDs []int64) error {
	args := m.Called(db, user, clientNoteIDs)
	return args.Error(0)
}

func (m *MockUsageService) RefreshSyncedCount(db *database.Database, userID uuid.UUID) (models.UsageTracking, error) {
	args := m.Called(db, userID)
	return args.Get(0).(models.UsageTracking), args.Error(1)
}

func (m *MockUsageService) RecordOCRScan(db *database.Database, user *models.User) (models.UsageTracking, error) {
	args := m.Called(db, user)
	return args.Get(0).(models.UsageTracking), args.Error(1)
}

func (m *MockUsageService) RecordExport(db *database.Database, user *models.User) (models.UsageTracking, error) {
	args := m.Called(db, user)
	return args.Get(0).(models.UsageTracking), args.Error(1)
}

func (m *MockUsageService) Stats(db *database.Database, user *models.User) (services.UsageStats, error) {
	args := m.Called(db, user)
	return args.Get(0).(services.UsageStats), args.Error(1)
}

// MockUserService mocks the UserServiceInterface for testing
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(db *database.Database, email, password, displayName string) (models.User, error) {
	args := m.Called(db, email, password, displayName)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockUserService) GetUserById(db *database.Database, id string) (models.User, error) {
	args := m.Called(db, id)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(db *database.Database, id string, update services.UserUpdate) (models.User, error) {
	args := m.Called(db, id, update)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(db *database.Database, id string) error {
	args := m.Called(db, id)
	return args.Error(0)
}

// MockDeviceService mocks the DeviceServiceInterface for testing
type MockDeviceService struct {
	mock.Mock
}

func (m *MockDeviceService) RegisterDevice(db *database.Database, userID uuid.UUID, deviceID, platform, pushToken string) (models.Device, error) {
	args := m.Called(db, userID, deviceID, platform, pushToken)
	return args.Get(0).(models.Device), args.Error(1)
}

func (m *MockDeviceService) TouchLastSeen(db *database.Database, userID uuid.UUID, deviceID string) error {
	args := m.Called(db, userID, deviceID)
	return args.Error(0)
}

func (m *MockDeviceService) ListDevices(db *database.Database, userID uuid.UUID) ([]models.Device, error) {
	args := m.Called(db, userID)
	return args.Get(0).([]models.Device), args.Error(1)
}

func (m *MockDeviceService) RemoveDevice(db *database.Database, userID uuid.UUID, deviceID string) error {
	args := m.Called(db, userID, deviceID)
	return args.Error(0)
}

func (m *MockDeviceService) PushTokens(db *database.Database, userID uuid.UUID, excludeDeviceID string) ([]string, error) {
	args := m.Called(db, userID, excludeDeviceID)
	return args.Get(0).([]string), args.Error(1)
}

// MockFolderService mocks the FolderServiceInterface for testing
type MockFolderService struct {
	mock.Mock
}

func (m *MockFolderService) UpsertFolder(db *database.Database, userID uuid.UUID, clientUUID, title string) (models.Folder, error) {
	args := m.Called(db, userID, clientUUID, title)
	return args.Get(0).(models.Folder), args.Error(1)
}

func (m *MockFolderService) ListFolders(db *database.Database, userID uuid.UUID) ([]models.Folder, error) {
	args := m.Called(db, userID)
	return args.Get(0).([]models.Folder), args.Error(1)
}

func (m *MockFolderService) DeleteFolder(db *database.Database, userID uuid.UUID, clientUUID string) error {
	args := m.Called(db, userID, clientUUID)
	return args.Error(0)
}

// MockReminderService mocks the ReminderServiceInterface for testing
type MockReminderService struct {
	mock.Mock
}

func (m *MockReminderService) CreateReminder(db *database.Database, userID uuid.UUID, clientNoteID int64, title, description string, remindAt time.Time) (models.Reminder, error) {
	args := m.Called(db, userID, clientNoteID, title, description, remindAt)
	return args.Get(0).(models.Reminder), args.Error(1)
}

func (m *MockReminderService) ListReminders(db *database.Database, userID uuid.UUID) ([]models.Reminder, error) {
	args := m.Called(db, userID)
	return args.Get(0).([]models.Reminder), args.Error(1)
}

func (m *MockReminderService) UpdateReminder(db *database.Database, userID, reminderID uuid.UUID, title, description string, remindAt time.Time) (models.Reminder, error) {
	args := m.Called(db, userID, reminderID, title, description, remindAt)
	return args.Get(0).(models.Reminder), args.Error(1)
}

func (m *MockReminderService) DeleteReminder(db *database.Database, userID, reminderID uuid.UUID) error {
	args := m.Called(db, userID, reminderID)
	return args.Error(0)
}

func (m *MockReminderService) DueReminders(db *database.Database, limit int) ([]models.Reminder, error) {
	args := m.Called(db, limit)
	return args.Get(0).([]models.Reminder), args.Error(1)
}

func (m *MockReminderService) MarkTriggered(db *database.Database, reminderID uuid.UUID) error {
	args := m.Called(db, reminderID)
	return args.Error(0)
}

// MockEncryptionKeyService mocks the EncryptionKeyServiceInterface for testing
type MockEncryptionKeyService struct {
	mock.Mock
}

func (m *MockEncryptionKeyService) PutKey(db *database.Database, userID uuid.UUID, keyData string) (models.EncryptionKey, error) {
	args := m.Called(db, userID, keyData)
	return args.Get(0).(models.EncryptionKey), args.Error(1)
}

func (m *MockEncryptionKeyService) GetKey(db *database.Database, userID uuid.UUID) (models.EncryptionKey, error) {
	args := m.Called(db, userID)
	return args.Get(0).(models.EncryptionKey), args.Error(1)
}

// MockSubscriptionService mocks the SubscriptionServiceInterface for testing
type MockSubscriptionService struct {
	mock.Mock
}

func (m *MockSubscriptionService) VerifyPurchase(db *database.Database, userID uuid.UUID, purchaseToken, productID string) (models.User, error) {
	args := m.Called(db, userID, purchaseToken, productID)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockSubscriptionService) ProcessPlayNotification(db *database.Database, body []byte) error {
	args := m.Called(db, body)
	return args.Error(0)
}

// MockAuthService mocks the AuthServiceInterface for testing
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(db *database.Database, email, password string) (string, error) {
	args := m.Called(db, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*services.JWTClaims, error) {
	args := m.Called(tokenString)
	if claims := args.Get(0); claims != nil {
		return claims.(*services.JWTClaims), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) HashPassword(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ComparePasswords(hashedPassword, password string) error {
	args := m.Called(hashedPassword, password)
	return args.Error(0)
}

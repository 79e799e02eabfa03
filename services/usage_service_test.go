package services

import (
	"testing"
	"time"

	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/models"
	"pinpoint-notes/pinpoint/testutils"
	"pinpoint-notes/pinpoint/utils/clock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeUser() *models.User {
	return &models.User{ID: uuid.New(), Email: "free@example.com", SubscriptionTier: models.TierFree}
}

func premiumUser() *models.User {
	return &models.User{ID: uuid.New(), Email: "paid@example.com", SubscriptionTier: models.TierPremium}
}

func seedActiveNotes(t *testing.T, db *database.Database, userID uuid.UUID, n int) {
	t.Helper()
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		note := models.EncryptedNote{
			ID:            uuid.New(),
			UserID:        userID,
			ClientNoteID:  int64(i),
			EncryptedData: []byte("x"),
			Version:       1,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		require.NoError(t, db.DB.Create(&note).Error)
	}
}

func TestCheckPushAllowedUnderLimit(t *testing.T) {
	db := testutils.SetupTestDB(t)
	clk := clock.NewMock(time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC))
	svc := NewUsageService(clk, 5)
	user := freeUser()

	seedActiveNotes(t, db, user.ID, 3)

	// Two new notes fit exactly into the limit of five.
	err := svc.CheckPushAllowed(db, user, []int64{100, 101})
	assert.NoError(t, err)
}

func TestCheckPushAllowedOverLimit(t *testing.T) {
	db := testutils.SetupTestDB(t)
	clk := clock.NewMock(time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC))
	svc := NewUsageService(clk, 5)
	user := freeUser()

	seedActiveNotes(t, db, user.ID, 4)

	err := svc.CheckPushAllowed(db, user, []int64{100, 101})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestCheckPushAllowedCountsOnlyNewIdentities(t *testing.T) {
	db := testutils.SetupTestDB(t)
	clk := clock.NewMock(time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC))
	svc := NewUsageService(clk, 5)
	user := freeUser()

	seedActiveNotes(t, db, user.ID, 5)

	// At the limit, but every pushed id is a known note being updated.
	err := svc.CheckPushAllowed(db, user, []int64{1, 2, 3, 1, 2})
	assert.NoError(t, err)

	// One genuinely new identity tips it over.
	err = svc.CheckPushAllowed(db, user, []int64{1, 2, 999})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestCheckPushAllowedPremiumBypass(t *testing.T) {
	db := testutils.SetupTestDB(t)
	clk := clock.NewMock(time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC))
	svc := NewUsageService(clk, 5)
	user := premiumUser()

	seedActiveNotes(t, db, user.ID, 50)

	err := svc.CheckPushAllowed(db, user, []int64{100, 101, 102})
	assert.NoError(t, err)
}

func TestCheckPushAllowedExpiredPremiumIsFree(t *testing.T) {
	db := testutils.SetupTestDB(t)
	clk := clock.NewMock(time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC))
	svc := NewUsageService(clk, 5)

	expired := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	user := &models.User{
		ID:                    uuid.New(),
		SubscriptionTier:      models.TierPremium,
		SubscriptionExpiresAt: &expired,
	}
	seedActiveNotes(t, db, user.ID, 5)

	err := svc.CheckPushAllowed(db, user, []int64{100})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestRefreshSyncedCount(t *testing.T) {
	db := testutils.SetupTestDB(t)
	clk := clock.NewMock(time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC))
	svc := NewUsageService(clk, 50)
	userID := uuid.New()

	seedActiveNotes(t, db, userID, 3)

	// One tombstone that must not count.
	tombstone := models.EncryptedNote{
		ID:            uuid.New(),
		UserID:        userID,
		ClientNoteID:  999,
		EncryptedData: []byte{},
		Version:       2,
		IsDeleted:     true,
		CreatedAt:     clk.Now(),
		UpdatedAt:     clk.Now(),
	}
	require.NoError(t, db.DB.Create(&tombstone).Error)

	tracking, err := svc.RefreshSyncedCount(db, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, tracking.SyncedNotesCount)

	var stored models.UsageTracking
	require.NoError(t, db.DB.Where("user_id = ?", userID).First(&stored).Error)
	assert.Equal(t, 3, stored.SyncedNotesCount)
}

func TestRecordOCRScanEnforcesMonthlyLimit(t *testing.T) {
	db := testutils.SetupTestDB(t)
	clk := clock.NewMock(time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC))
	svc := NewUsageService(clk, 50)
	user := freeUser()

	for i := 0; i < FreeTierOCRScansPerMonth; i++ {
		_, err := svc.RecordOCRScan(db, user)
		require.NoError(t, err)
	}

	_, err := svc.RecordOCRScan(db, user)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	// Premium accounts keep going past the free allowance.
	paid := premiumUser()
	for i := 0; i < FreeTierOCRScansPerMonth+5; i++ {
		_, err := svc.RecordOCRScan(db, paid)
		require.NoError(t, err)
	}
}

func TestMonthlyCountersRollOver(t *testing.T) {
	db := testutils.SetupTestDB(t)
	clk := clock.NewMock(time.Date(2025, 4, 28, 9, 0, 0, 0, time.UTC))
	svc := NewUsageService(clk, 50)
	user := freeUser()

	for i := 0; i < FreeTierExportsPerMonth; i++ {
		_, err := svc.RecordExport(db, user)
		require.NoError(t, err)
	}
	_, err := svc.RecordExport(db, user)
	require.ErrorIs(t, err, ErrQuotaExceeded)

	// A new calendar month resets the allowance.
	clk.Set(time.Date(2025, 5, 1, 0, 0, 1, 0, time.UTC))

	tracking, err := svc.RecordExport(db, user)
	require.NoError(t, err)
	assert.Equal(t, 1, tracking.ExportsMonth)
	assert.Equal(t, 0, tracking.OCRScansMonth)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), tracking.PeriodStart)
}

func TestStatsReportsLimitsByTier(t *testing.T) {
	db := testutils.SetupTestDB(t)
	clk := clock.NewMock(time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC))
	svc := NewUsageService(clk, 50)

	free := freeUser()
	stats, err := svc.Stats(db, free)
	require.NoError(t, err)
	assert.Equal(t, models.TierFree, stats.Tier)
	require.NotNil(t, stats.SyncedNotesLimit)
	assert.Equal(t, 50, *stats.SyncedNotesLimit)
	require.NotNil(t, stats.OCRScansLimit)
	assert.Equal(t, FreeTierOCRScansPerMonth, *stats.OCRScansLimit)

	paid := premiumUser()
	stats, err = svc.Stats(db, paid)
	require.NoError(t, err)
	assert.Equal(t, models.TierPremium, stats.Tier)
	assert.Nil(t, stats.SyncedNotesLimit)
	assert.Nil(t, stats.OCRScansLimit)
	assert.Nil(t, stats.ExportsLimit)
}

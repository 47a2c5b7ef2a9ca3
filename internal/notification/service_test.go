package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/campusworks/eventhub/internal/datastore"
)

func setupNotificationTest(t *testing.T) (*Service, *datastore.DataStore) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&datastore.Notification{}))
	ds := &datastore.DataStore{DB: db}

	svc := NewService(ds, &ServiceConfig{Enabled: true}, nil)
	return svc, ds
}

func testEvent() *datastore.Event {
	return &datastore.Event{
		Title:     "AI Workshop 2024",
		VenueName: "Tech Auditorium",
		StartTime: time.Date(2024, 9, 12, 18, 0, 0, 0, time.UTC),
	}
}

func TestNotifyPersists(t *testing.T) {
	svc, ds := setupNotificationTest(t)

	require.NoError(t, svc.Notify(42, TypeRegistrationConfirmed, "Registration confirmed", "You are in"))

	stored, err := ds.ListNotifications(42, false)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, TypeRegistrationConfirmed, stored[0].Type)
	assert.False(t, stored[0].Read)
}

func TestNotifyDisabled(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&datastore.Notification{}))
	ds := &datastore.DataStore{DB: db}

	svc := NewService(ds, &ServiceConfig{Enabled: false}, nil)
	require.NoError(t, svc.Notify(1, TypeWaitlisted, "t", "m"))

	stored, err := ds.ListNotifications(1, false)
	require.NoError(t, err)
	assert.Empty(t, stored, "disabled service must not persist notifications")
}

func TestDomainEventMessages(t *testing.T) {
	svc, ds := setupNotificationTest(t)
	event := testEvent()

	require.NoError(t, svc.RegistrationConfirmed(7, event))
	require.NoError(t, svc.Waitlisted(7, event))
	require.NoError(t, svc.WaitlistPromoted(7, event))
	require.NoError(t, svc.PaymentReceipt(7, event, &datastore.Payment{
		AmountCents: 2500, Currency: "EUR", GatewayRef: "ch_1",
	}))
	require.NoError(t, svc.DuplicateWarning(7, event, 2))

	stored, err := ds.ListNotifications(7, false)
	require.NoError(t, err)
	require.Len(t, stored, 5)

	byType := make(map[string]datastore.Notification)
	for _, n := range stored {
		byType[n.Type] = n
	}
	assert.Contains(t, byType[TypeRegistrationConfirmed].Message, "AI Workshop 2024")
	assert.Contains(t, byType[TypePaymentReceipt].Message, "25.00 EUR")
	assert.Contains(t, byType[TypeDuplicateWarning].Message, "2 existing event(s)")
}

func TestEventCancelledFansOut(t *testing.T) {
	svc, ds := setupNotificationTest(t)

	svc.EventCancelled([]uint{1, 2, 3}, testEvent())

	for _, id := range []uint{1, 2, 3} {
		stored, err := ds.ListNotifications(id, false)
		require.NoError(t, err)
		require.Len(t, stored, 1, "user %d", id)
		assert.Equal(t, TypeEventCancelled, stored[0].Type)
	}
}

func TestInvalidPushURLsDisablePushOnly(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&datastore.Notification{}))
	ds := &datastore.DataStore{DB: db}

	svc := NewService(ds, &ServiceConfig{
		Enabled:  true,
		PushURLs: []string{"not-a-valid-shoutrrr-url"},
	}, nil)
	assert.Nil(t, svc.sender)

	require.NoError(t, svc.Notify(1, TypeWaitlisted, "t", "m"))
	stored, err := ds.ListNotifications(1, false)
	require.NoError(t, err)
	assert.Len(t, stored, 1, "in-app delivery must survive bad push config")
}

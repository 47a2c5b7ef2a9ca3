// interfaces.go defines the interface for the database operations
package datastore

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campusworks/eventhub/internal/conf"
)

// Interface abstracts the underlying database implementation and defines the
// operations the application needs.
type Interface interface {
	Open() error
	Close() error

	// users
	CreateUser(user *User) error
	GetUserByID(id uint) (User, error)
	GetUserByPublicID(publicID string) (User, error)
	GetUserByEmail(email string) (User, error)

	// events
	CreateEvent(event *Event) error
	UpdateEvent(event *Event) error
	DeleteEvent(publicID string) error
	GetEvent(publicID string) (Event, error)
	GetEventByID(id uint) (Event, error)
	SearchEvents(filter EventFilter) ([]Event, int64, error)
	FindSimilarEvents(ctx context.Context, filter SimilarEventFilter) ([]Event, error)

	// registrations
	CreateRegistration(reg *Registration) error
	CreateRegistrationWithCapacity(reg *Registration, capacity int) error
	CancelRegistration(publicID string, userID uint) error
	GetRegistration(publicID string) (Registration, error)
	GetRegistrationForEvent(eventID, userID uint) (Registration, error)
	ListRegistrationsForUser(userID uint) ([]Registration, error)
	CountConfirmedRegistrations(eventID uint) (int64, error)
	ListRegistrantIDs(eventID uint) ([]uint, error)
	PromoteFromWaitlist(eventID uint) (*Registration, error)

	// payments
	SavePayment(payment *Payment) error
	UpdatePaymentStatus(publicID, status, gatewayRef string) error
	ReopenPayment(publicID string, amountCents int64, currency string) error
	GetPaymentByRegistration(registrationID uint) (Payment, error)

	// notifications
	SaveNotification(n *Notification) error
	ListNotifications(userID uint, unreadOnly bool) ([]Notification, error)
	MarkNotificationRead(id, userID uint) error

	// admin dashboard
	GetDashboardStats() (DashboardStats, error)
}

// EventFilter bounds a catalog search.
type EventFilter struct {
	Category string
	Status   string
	Query    string // matched against title
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

// SimilarEventFilter bounds the duplicate detector's candidate pool query.
type SimilarEventFilter struct {
	Category        string
	Statuses        []string
	WindowStart     time.Time
	WindowEnd       time.Time
	ExcludePublicID string
	Limit           int
}

// DashboardStats aggregates the numbers shown on the admin dashboard.
type DashboardStats struct {
	TotalUsers            int64            `json:"totalUsers"`
	TotalEvents           int64            `json:"totalEvents"`
	UpcomingEvents        int64            `json:"upcomingEvents"`
	TotalRegistrations    int64            `json:"totalRegistrations"`
	RevenueCents          int64            `json:"revenueCents"`
	EventsByCategory      map[string]int64 `json:"eventsByCategory"`
	RegistrationsByStatus map[string]int64 `json:"registrationsByStatus"`
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// Open on a bare DataStore only checks that a connection was injected; the
// driver stores override it to establish one.
func (ds *DataStore) Open() error {
	if ds.DB == nil {
		return fmt.Errorf("no database connection configured")
	}
	return nil
}

// Close releases the underlying sql.DB handle.
func (ds *DataStore) Close() error {
	if ds.DB == nil {
		return nil
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// New creates a new datastore based on the configured output.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}
	default:
		return nil
	}
}

// createGormLogger returns a gorm logger that keeps slow-query noise down.
func createGormLogger() logger.Interface {
	return logger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// performAutoMigration runs gorm's auto-migration for all entities.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(
		&User{},
		&Event{},
		&Registration{},
		&Payment{},
		&Notification{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}
	if debug {
		log.Printf("%s database connection initialized: %s", dbType, connectionInfo)
	}
	return nil
}

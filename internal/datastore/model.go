// model.go defines the data model for the application
package datastore

import (
	"time"
)

// User roles.
const (
	RoleUser      = "user"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

// Event statuses.
const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCancelled = "cancelled"
	EventStatusCompleted = "completed"
)

// Registration statuses.
const (
	RegistrationConfirmed  = "confirmed"
	RegistrationWaitlisted = "waitlisted"
	RegistrationCancelled  = "cancelled"
)

// Payment statuses.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// EventCategories is the closed set of valid event categories.
var EventCategories = []string{
	"technology", "business", "arts", "sports",
	"health", "education", "social", "other",
}

// ValidCategory reports whether category belongs to the closed set.
func ValidCategory(category string) bool {
	for _, c := range EventCategories {
		if c == category {
			return true
		}
	}
	return false
}

// User represents an account holder.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	PublicID     string `gorm:"type:varchar(36);uniqueIndex"`
	Name         string
	Email        string `gorm:"uniqueIndex;type:varchar(255)"`
	PasswordHash string
	Role         string `gorm:"type:varchar(20);default:user"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Event represents a campus event. Venue fields are flattened onto the row;
// coordinates are nullable because most venues are entered without them.
type Event struct {
	ID          uint   `gorm:"primaryKey"`
	PublicID    string `gorm:"type:varchar(36);uniqueIndex"`
	Title       string `gorm:"type:varchar(255);index:idx_events_title"`
	Description string `gorm:"type:text"`
	Category    string `gorm:"type:varchar(30);index:idx_events_category_start"`
	Status      string `gorm:"type:varchar(20);index:idx_events_status;default:draft"`

	VenueName      string `gorm:"type:varchar(255)"`
	VenueStreet    string `gorm:"type:varchar(255)"`
	VenueCity      string `gorm:"type:varchar(120)"`
	VenueLatitude  *float64
	VenueLongitude *float64

	StartTime  time.Time `gorm:"index:idx_events_category_start"`
	EndTime    time.Time
	Capacity   int
	PriceCents int64
	Currency   string `gorm:"type:varchar(3);default:EUR"`

	OrganizerID uint `gorm:"index"`
	Organizer   User `gorm:"foreignKey:OrganizerID"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Registrations []Registration `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
}

// Registration links a user to an event.
type Registration struct {
	ID       uint   `gorm:"primaryKey"`
	PublicID string `gorm:"type:varchar(36);uniqueIndex"`
	EventID  uint   `gorm:"index:idx_registrations_event_user,unique"`
	UserID   uint   `gorm:"index:idx_registrations_event_user,unique"`
	Status   string `gorm:"type:varchar(20);default:confirmed"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Payment *Payment `gorm:"foreignKey:RegistrationID;constraint:OnDelete:CASCADE"`
}

// Payment records a gateway charge for a registration.
type Payment struct {
	ID             uint   `gorm:"primaryKey"`
	PublicID       string `gorm:"type:varchar(36);uniqueIndex"`
	RegistrationID uint   `gorm:"uniqueIndex"`
	AmountCents    int64
	Currency       string `gorm:"type:varchar(3)"`
	Status         string `gorm:"type:varchar(20);index;default:pending"`
	GatewayRef     string `gorm:"type:varchar(128)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Notification is an in-app message shown to a user.
type Notification struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index:idx_notifications_user_read"`
	Type      string `gorm:"type:varchar(40)"`
	Title     string `gorm:"type:varchar(255)"`
	Message   string `gorm:"type:text"`
	Read      bool   `gorm:"index:idx_notifications_user_read"`
	CreatedAt time.Time
}

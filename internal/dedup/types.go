package dedup

import (
	"strings"
	"time"
)

// Event is the detector's view of an event: the fields that take part in
// scoring plus enough identity to report a verdict. Stored events carry an
// ID; a not-yet-persisted draft has an empty one.
type Event struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Venue       Venue     `json:"venue"`
	StartTime   time.Time `json:"startTime"`
	OrganizerID string    `json:"organizerId"`
}

// Venue describes where an event takes place. Coordinates and address are
// optional; scoring degrades when they are absent.
type Venue struct {
	Name      string   `json:"name"`
	Street    string   `json:"street,omitempty"`
	City      string   `json:"city,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether the venue carries a full coordinate pair.
func (v Venue) HasCoordinates() bool {
	return v.Latitude != nil && v.Longitude != nil
}

// HasAddress reports whether the venue carries any address information.
func (v Venue) HasAddress() bool {
	return strings.TrimSpace(v.Street) != "" || strings.TrimSpace(v.City) != ""
}

func (v Venue) addressLine() string {
	return strings.TrimSpace(v.Street + " " + v.City)
}

package dedup

import (
	"context"
	"strconv"

	"github.com/campusworks/eventhub/internal/datastore"
)

// StoreAdapter bridges the application datastore to the detector's EventStore
// interface, mapping stored rows to the detector's scoring view.
type StoreAdapter struct {
	DS datastore.Interface
}

// NewStoreAdapter wraps a datastore for use as the detector's event store.
func NewStoreAdapter(ds datastore.Interface) *StoreAdapter {
	return &StoreAdapter{DS: ds}
}

// FindCandidates implements EventStore over the datastore's similar-event query.
func (a *StoreAdapter) FindCandidates(ctx context.Context, query CandidateQuery) ([]Event, error) {
	rows, err := a.DS.FindSimilarEvents(ctx, datastore.SimilarEventFilter{
		Category:        query.Category,
		Statuses:        query.Statuses,
		WindowStart:     query.WindowStart,
		WindowEnd:       query.WindowEnd,
		ExcludePublicID: query.ExcludeID,
		Limit:           query.Limit,
	})
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(rows))
	for i := range rows {
		events = append(events, EventFromModel(&rows[i]))
	}
	return events, nil
}

// EventFromModel maps a stored event row to the detector's scoring view.
func EventFromModel(e *datastore.Event) Event {
	return Event{
		ID:          e.PublicID,
		Title:       e.Title,
		Description: e.Description,
		Category:    e.Category,
		Venue: Venue{
			Name:      e.VenueName,
			Street:    e.VenueStreet,
			City:      e.VenueCity,
			Latitude:  e.VenueLatitude,
			Longitude: e.VenueLongitude,
		},
		StartTime:   e.StartTime,
		OrganizerID: OrganizerRef(e.OrganizerID),
	}
}

// OrganizerRef maps a stored organizer key to the detector's string identity.
// Every scoring call site must use the same mapping or organizer matches
// silently break.
func OrganizerRef(id uint) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(id), 10)
}

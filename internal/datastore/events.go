package datastore

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/campusworks/eventhub/internal/errors"
)

// CreateEvent inserts a new event, assigning a public ID when absent.
func (ds *DataStore) CreateEvent(event *Event) error {
	if event.PublicID == "" {
		event.PublicID = uuid.NewString()
	}
	if event.Status == "" {
		event.Status = EventStatusDraft
	}
	if err := ds.DB.Create(event).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "create_event").
			Build()
	}
	return nil
}

// UpdateEvent persists all fields of an already-loaded event row.
func (ds *DataStore) UpdateEvent(event *Event) error {
	if err := ds.DB.Save(event).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "update_event").
			Context("event_id", event.PublicID).
			Build()
	}
	return nil
}

// DeleteEvent removes an event and, via constraints, its registrations.
func (ds *DataStore) DeleteEvent(publicID string) error {
	result := ds.DB.Where("public_id = ?", publicID).Delete(&Event{})
	if result.Error != nil {
		return errors.New(result.Error).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "delete_event").
			Context("event_id", publicID).
			Build()
	}
	if result.RowsAffected == 0 {
		return errors.Newf("event not found: %s", publicID).
			Component("datastore").
			Category(errors.CategoryNotFound).
			Build()
	}
	return nil
}

// GetEvent fetches an event by its public identifier.
func (ds *DataStore) GetEvent(publicID string) (Event, error) {
	var event Event
	if err := ds.DB.Preload("Organizer").Where("public_id = ?", publicID).First(&event).Error; err != nil {
		return Event{}, notFound(err, "event", publicID)
	}
	return event, nil
}

// GetEventByID fetches an event by its internal numeric key. Used when a
// related row only carries the foreign key.
func (ds *DataStore) GetEventByID(id uint) (Event, error) {
	var event Event
	if err := ds.DB.First(&event, id).Error; err != nil {
		return Event{}, notFound(err, "event", strconv.FormatUint(uint64(id), 10))
	}
	return event, nil
}

// SearchEvents returns a page of events matching the filter plus the total
// match count.
func (ds *DataStore) SearchEvents(filter EventFilter) ([]Event, int64, error) {
	query := ds.DB.Model(&Event{})

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Query != "" {
		query = query.Where("title LIKE ?", "%"+filter.Query+"%")
	}
	if !filter.From.IsZero() {
		query = query.Where("start_time >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("start_time <= ?", filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "count_events").
			Build()
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var events []Event
	err := query.
		Order("start_time ASC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&events).Error
	if err != nil {
		return nil, 0, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "search_events").
			Build()
	}
	return events, total, nil
}

// FindSimilarEvents returns the duplicate detector's candidate pool: events
// in the given category and statuses whose start time falls inside the
// window, excluding at most one event by public ID.
func (ds *DataStore) FindSimilarEvents(ctx context.Context, filter SimilarEventFilter) ([]Event, error) {
	query := ds.DB.WithContext(ctx).
		Where("category = ?", filter.Category).
		Where("status IN ?", filter.Statuses).
		Where("start_time BETWEEN ? AND ?", filter.WindowStart, filter.WindowEnd)

	if filter.ExcludePublicID != "" {
		query = query.Where("public_id <> ?", filter.ExcludePublicID)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var events []Event
	err := query.
		Order("start_time ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "find_similar_events").
			Context("category", filter.Category).
			Build()
	}
	return events, nil
}

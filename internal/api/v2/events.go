package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campusworks/eventhub/internal/datastore"
	"github.com/campusworks/eventhub/internal/dedup"
	"github.com/campusworks/eventhub/internal/errors"
)

// VenueRequest carries the venue fields of an event payload.
type VenueRequest struct {
	Name      string   `json:"name"`
	Street    string   `json:"street"`
	City      string   `json:"city"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// EventRequest is the body for POST /events and PUT /events/:id.
type EventRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Venue       VenueRequest `json:"venue"`
	StartTime   time.Time    `json:"startTime"`
	EndTime     time.Time    `json:"endTime"`
	Capacity    int          `json:"capacity"`
	PriceCents  int64        `json:"priceCents"`
	Currency    string       `json:"currency"`
	Status      string       `json:"status"`

	// SkipDuplicateCheck lets an organizer push an update through after
	// reviewing the advisory check result. It has no effect on creation.
	SkipDuplicateCheck bool `json:"skipDuplicateCheck"`
}

// EventResponse is the public view of an event.
type EventResponse struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Status      string       `json:"status"`
	Venue       VenueRequest `json:"venue"`
	StartTime   time.Time    `json:"startTime"`
	EndTime     time.Time    `json:"endTime"`
	Capacity    int          `json:"capacity"`
	PriceCents  int64        `json:"priceCents"`
	Currency    string       `json:"currency"`
	OrganizerID string       `json:"organizerId,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// EventListResponse wraps a paginated catalog search.
type EventListResponse struct {
	Events []EventResponse `json:"events"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// DuplicateBlockResponse is the 409 body returned when the creation gate
// refuses an event.
type DuplicateBlockResponse struct {
	Error   string        `json:"error"`
	Message string        `json:"message"`
	Result  *dedup.Result `json:"result"`
}

// EventWriteResponse is the body for successful event writes. When the gate
// found non-blocking matches they ride along as a warning.
type EventWriteResponse struct {
	EventResponse
	DuplicateWarning *dedup.Result `json:"duplicateWarning,omitempty"`
}

func eventResponse(e *datastore.Event, organizerPublicID string) EventResponse {
	return EventResponse{
		ID:          e.PublicID,
		Title:       e.Title,
		Description: e.Description,
		Category:    e.Category,
		Status:      e.Status,
		Venue: VenueRequest{
			Name:      e.VenueName,
			Street:    e.VenueStreet,
			City:      e.VenueCity,
			Latitude:  e.VenueLatitude,
			Longitude: e.VenueLongitude,
		},
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Capacity:    e.Capacity,
		PriceCents:  e.PriceCents,
		Currency:    e.Currency,
		OrganizerID: organizerPublicID,
		CreatedAt:   e.CreatedAt,
	}
}

func (r *EventRequest) applyTo(e *datastore.Event) {
	e.Title = r.Title
	e.Description = r.Description
	e.Category = r.Category
	e.VenueName = r.Venue.Name
	e.VenueStreet = r.Venue.Street
	e.VenueCity = r.Venue.City
	e.VenueLatitude = r.Venue.Latitude
	e.VenueLongitude = r.Venue.Longitude
	e.StartTime = r.StartTime
	e.EndTime = r.EndTime
	e.Capacity = r.Capacity
	e.PriceCents = r.PriceCents
	e.Currency = r.Currency
	if r.Status != "" {
		e.Status = r.Status
	}
}

func (r *EventRequest) validate() error {
	switch {
	case r.Title == "":
		return errors.NewStd("title is required")
	case r.Description == "":
		return errors.NewStd("description is required")
	case !datastore.ValidCategory(r.Category):
		return errors.NewStd("unknown category")
	case r.Venue.Name == "":
		return errors.NewStd("venue name is required")
	case r.StartTime.IsZero():
		return errors.NewStd("startTime is required")
	case !r.EndTime.IsZero() && r.EndTime.Before(r.StartTime):
		return errors.NewStd("endTime precedes startTime")
	case r.Capacity < 0 || r.PriceCents < 0:
		return errors.NewStd("capacity and price must not be negative")
	}
	switch r.Status {
	case "", datastore.EventStatusDraft, datastore.EventStatusPublished,
		datastore.EventStatusCancelled, datastore.EventStatusCompleted:
	default:
		return errors.NewStd("unknown status")
	}
	return nil
}

// affectsScoring reports whether the update changes any field the duplicate
// detector scores on. Updates that only touch capacity, price or status skip
// the gate entirely.
func (r *EventRequest) affectsScoring(e *datastore.Event) bool {
	if r.Title != e.Title || r.Description != e.Description || r.Category != e.Category {
		return true
	}
	if r.Venue.Name != e.VenueName || r.Venue.Street != e.VenueStreet || r.Venue.City != e.VenueCity {
		return true
	}
	if !floatPtrEqual(r.Venue.Latitude, e.VenueLatitude) || !floatPtrEqual(r.Venue.Longitude, e.VenueLongitude) {
		return true
	}
	return !r.StartTime.Equal(e.StartTime)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ListEvents handles GET /api/v2/events
func (c *Controller) ListEvents(ctx echo.Context) error {
	filter := datastore.EventFilter{
		Category: ctx.QueryParam("category"),
		Status:   ctx.QueryParam("status"),
		Query:    ctx.QueryParam("q"),
	}
	if v := ctx.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.HandleError(ctx, err, "Invalid 'from' timestamp", http.StatusBadRequest)
		}
		filter.From = t
	}
	if v := ctx.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.HandleError(ctx, err, "Invalid 'to' timestamp", http.StatusBadRequest)
		}
		filter.To = t
	}
	if v := ctx.QueryParam("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := ctx.QueryParam("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	events, total, err := c.DS.SearchEvents(filter)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to search events", http.StatusInternalServerError)
	}

	resp := EventListResponse{
		Events: make([]EventResponse, 0, len(events)),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	for i := range events {
		resp.Events = append(resp.Events, eventResponse(&events[i], ""))
	}
	return ctx.JSON(http.StatusOK, resp)
}

// GetEvent handles GET /api/v2/events/:id
func (c *Controller) GetEvent(ctx echo.Context) error {
	event, err := c.DS.GetEvent(ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Event not found", mapErrorStatus(err))
	}
	return ctx.JSON(http.StatusOK, eventResponse(&event, event.Organizer.PublicID))
}

// CreateEvent handles POST /api/v2/events
func (c *Controller) CreateEvent(ctx echo.Context) error {
	session, _ := currentSession(ctx)

	var req EventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	if err := req.validate(); err != nil {
		return c.HandleError(ctx, err, err.Error(), http.StatusBadRequest)
	}

	event := datastore.Event{OrganizerID: session.UserID, Status: datastore.EventStatusDraft}
	req.applyTo(&event)

	warning, blocked, resp := c.runDuplicateGate(ctx, &event, "")
	if blocked {
		return resp
	}

	if err := c.DS.CreateEvent(&event); err != nil {
		return c.HandleError(ctx, err, "Failed to create event", mapErrorStatus(err))
	}

	c.apiLogger.Info("event created",
		"event", event.PublicID,
		"title", event.Title,
		"organizer", session.PublicID)
	return ctx.JSON(http.StatusCreated, EventWriteResponse{
		EventResponse:    eventResponse(&event, session.PublicID),
		DuplicateWarning: warning,
	})
}

// UpdateEvent handles PUT /api/v2/events/:id
func (c *Controller) UpdateEvent(ctx echo.Context) error {
	session, _ := currentSession(ctx)

	event, err := c.DS.GetEvent(ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Event not found", mapErrorStatus(err))
	}
	if event.OrganizerID != session.UserID && session.Role != datastore.RoleAdmin {
		return c.HandleError(ctx, nil, "Only the organizer can modify this event", http.StatusForbidden)
	}

	var req EventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	if err := req.validate(); err != nil {
		return c.HandleError(ctx, err, err.Error(), http.StatusBadRequest)
	}

	runGate := req.affectsScoring(&event) && !req.SkipDuplicateCheck

	previousStatus := event.Status
	req.applyTo(&event)

	var warning *dedup.Result
	if runGate {
		var blocked bool
		var resp error
		warning, blocked, resp = c.runDuplicateGate(ctx, &event, event.PublicID)
		if blocked {
			return resp
		}
	}

	if err := c.DS.UpdateEvent(&event); err != nil {
		return c.HandleError(ctx, err, "Failed to update event", mapErrorStatus(err))
	}

	if previousStatus != datastore.EventStatusCancelled && event.Status == datastore.EventStatusCancelled {
		c.notifyCancellation(&event)
	}

	c.apiLogger.Info("event updated", "event", event.PublicID, "organizer", session.PublicID)
	return ctx.JSON(http.StatusOK, EventWriteResponse{
		EventResponse:    eventResponse(&event, session.PublicID),
		DuplicateWarning: warning,
	})
}

// DeleteEvent handles DELETE /api/v2/events/:id
func (c *Controller) DeleteEvent(ctx echo.Context) error {
	session, _ := currentSession(ctx)

	event, err := c.DS.GetEvent(ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Event not found", mapErrorStatus(err))
	}
	if event.OrganizerID != session.UserID && session.Role != datastore.RoleAdmin {
		return c.HandleError(ctx, nil, "Only the organizer can delete this event", http.StatusForbidden)
	}

	c.notifyCancellation(&event)

	if err := c.DS.DeleteEvent(event.PublicID); err != nil {
		return c.HandleError(ctx, err, "Failed to delete event", mapErrorStatus(err))
	}

	c.apiLogger.Info("event deleted", "event", event.PublicID, "organizer", session.PublicID)
	return ctx.NoContent(http.StatusNoContent)
}

// runDuplicateGate scores the event against the stored catalog. A very-high
// confidence duplicate writes a 409 and reports blocked; weaker matches are
// returned as a warning to attach to the write response. Detector failures
// fall open: the write is allowed and the failure is logged.
func (c *Controller) runDuplicateGate(ctx echo.Context, event *datastore.Event, excludeID string) (warning *dedup.Result, blocked bool, resp error) {
	result, err := c.checkDuplicates(ctx, event, dedup.Options{
		Threshold:      gateThreshold,
		ExcludeEventID: excludeID,
	})
	if err != nil {
		c.apiLogger.Warn("duplicate gate unavailable, allowing write",
			"event_title", event.Title,
			"error", err.Error())
		return nil, false, nil
	}

	if result.ShouldBlock() {
		c.apiLogger.Info("event blocked as duplicate",
			"event_title", event.Title,
			"duplicates", len(result.Duplicates),
			"probability", result.Duplicates[0].Probability)
		return nil, true, ctx.JSON(http.StatusConflict, DuplicateBlockResponse{
			Error:   "duplicate_event",
			Message: c.Detector.Explain(result.Duplicates[0]),
			Result:  result,
		})
	}

	if result.ShouldWarn() {
		session, _ := currentSession(ctx)
		if c.Notifier != nil {
			if err := c.Notifier.DuplicateWarning(session.UserID, event,
				len(result.Duplicates)+len(result.Suggestions)); err != nil {
				c.apiLogger.Warn("failed to send duplicate warning", "error", err.Error())
			}
		}
		return result, false, nil
	}
	return nil, false, nil
}

// checkDuplicates runs the detector against a stored-event payload, recording
// metrics around the call.
func (c *Controller) checkDuplicates(ctx echo.Context, event *datastore.Event, opts dedup.Options) (*dedup.Result, error) {
	candidate := dedup.EventFromModel(event)

	start := time.Now()
	result, err := c.Detector.CheckForDuplicates(ctx.Request().Context(), candidate, opts)
	if c.metrics != nil {
		c.metrics.DedupChecks.Inc()
		c.metrics.DedupCheckDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			c.metrics.DedupFailures.Inc()
		} else if result.IsDuplicate {
			c.metrics.DedupDuplicatesFound.Inc()
		}
	}
	return result, err
}

// notifyCancellation fans a cancellation notice out to every registrant.
func (c *Controller) notifyCancellation(event *datastore.Event) {
	if c.Notifier == nil {
		return
	}
	ids, err := c.DS.ListRegistrantIDs(event.ID)
	if err != nil {
		c.apiLogger.Warn("failed to list registrants for cancellation notice",
			"event", event.PublicID, "error", err.Error())
		return
	}
	c.Notifier.EventCancelled(ids, event)
}

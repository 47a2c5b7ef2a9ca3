package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campusworks/eventhub/internal/datastore"
	"github.com/campusworks/eventhub/internal/errors"
)

// RegistrationResponse is the public view of a registration.
type RegistrationResponse struct {
	ID         string    `json:"id"`
	EventID    string    `json:"eventId"`
	EventTitle string    `json:"eventTitle,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// RegisterForEvent handles POST /api/v2/events/:id/register
func (c *Controller) RegisterForEvent(ctx echo.Context) error {
	session, _ := currentSession(ctx)

	event, err := c.DS.GetEvent(ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Event not found", mapErrorStatus(err))
	}
	if event.Status != datastore.EventStatusPublished {
		return c.HandleError(ctx, nil, "Event is not open for registration", http.StatusConflict)
	}
	if !event.StartTime.After(time.Now()) {
		return c.HandleError(ctx, nil, "Event has already started", http.StatusConflict)
	}

	// full events waitlist instead of refusing; the datastore decides
	// inside one transaction so concurrent signups cannot oversell
	reg := datastore.Registration{
		EventID: event.ID,
		UserID:  session.UserID,
		Status:  datastore.RegistrationConfirmed,
	}
	if err := c.DS.CreateRegistrationWithCapacity(&reg, event.Capacity); err != nil {
		if errors.HasCategory(err, errors.CategoryConflict) {
			return c.HandleError(ctx, err, "Already registered for this event", http.StatusConflict)
		}
		return c.HandleError(ctx, err, "Failed to register", mapErrorStatus(err))
	}

	if c.Notifier != nil {
		var nerr error
		if reg.Status == datastore.RegistrationWaitlisted {
			nerr = c.Notifier.Waitlisted(session.UserID, &event)
		} else {
			nerr = c.Notifier.RegistrationConfirmed(session.UserID, &event)
		}
		if nerr != nil {
			c.apiLogger.Warn("failed to send registration notification", "error", nerr.Error())
		}
	}

	c.apiLogger.Info("registration created",
		"registration", reg.PublicID,
		"event", event.PublicID,
		"user", session.PublicID,
		"status", reg.Status)
	return ctx.JSON(http.StatusCreated, RegistrationResponse{
		ID:         reg.PublicID,
		EventID:    event.PublicID,
		EventTitle: event.Title,
		Status:     reg.Status,
		CreatedAt:  reg.CreatedAt,
	})
}

// CancelEventRegistration handles DELETE /api/v2/events/:id/register
func (c *Controller) CancelEventRegistration(ctx echo.Context) error {
	session, _ := currentSession(ctx)

	event, err := c.DS.GetEvent(ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Event not found", mapErrorStatus(err))
	}

	reg, err := c.DS.GetRegistrationForEvent(event.ID, session.UserID)
	if err != nil {
		return c.HandleError(ctx, err, "Registration not found", mapErrorStatus(err))
	}
	if reg.Status == datastore.RegistrationCancelled {
		return c.HandleError(ctx, nil, "Registration is already cancelled", http.StatusConflict)
	}

	wasConfirmed := reg.Status == datastore.RegistrationConfirmed
	if err := c.DS.CancelRegistration(reg.PublicID, session.UserID); err != nil {
		return c.HandleError(ctx, err, "Failed to cancel registration", mapErrorStatus(err))
	}

	// a freed confirmed seat goes to the oldest waitlisted registrant
	if wasConfirmed {
		promoted, err := c.DS.PromoteFromWaitlist(event.ID)
		if err != nil {
			c.apiLogger.Warn("waitlist promotion failed",
				"event", event.PublicID, "error", err.Error())
		} else if promoted != nil {
			c.apiLogger.Info("registrant promoted from waitlist",
				"event", event.PublicID,
				"registration", promoted.PublicID)
			if c.Notifier != nil {
				if err := c.Notifier.WaitlistPromoted(promoted.UserID, &event); err != nil {
					c.apiLogger.Warn("failed to send promotion notification", "error", err.Error())
				}
			}
		}
	}

	c.apiLogger.Info("registration cancelled",
		"registration", reg.PublicID,
		"event", event.PublicID,
		"user", session.PublicID)
	return ctx.NoContent(http.StatusNoContent)
}

// ListRegistrations handles GET /api/v2/registrations
func (c *Controller) ListRegistrations(ctx echo.Context) error {
	session, _ := currentSession(ctx)

	regs, err := c.DS.ListRegistrationsForUser(session.UserID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list registrations", http.StatusInternalServerError)
	}

	resp := make([]RegistrationResponse, 0, len(regs))
	for i := range regs {
		r := RegistrationResponse{
			ID:        regs[i].PublicID,
			Status:    regs[i].Status,
			CreatedAt: regs[i].CreatedAt,
		}
		if event, err := c.DS.GetEventByID(regs[i].EventID); err == nil {
			r.EventID = event.PublicID
			r.EventTitle = event.Title
		}
		resp = append(resp, r)
	}
	return ctx.JSON(http.StatusOK, resp)
}

package notification

import (
	"fmt"

	"github.com/campusworks/eventhub/internal/datastore"
)

// Domain-event helpers composing the standard messages. Callers pass the
// already-loaded rows so no extra queries run on the notification path.

// RegistrationConfirmed tells a user their seat is booked.
func (s *Service) RegistrationConfirmed(userID uint, event *datastore.Event) error {
	return s.Notify(userID, TypeRegistrationConfirmed,
		"Registration confirmed",
		fmt.Sprintf("You are registered for %q on %s at %s.",
			event.Title, event.StartTime.Format("Mon, 2 Jan 2006 15:04"), event.VenueName))
}

// Waitlisted tells a user the event was full.
func (s *Service) Waitlisted(userID uint, event *datastore.Event) error {
	return s.Notify(userID, TypeWaitlisted,
		"Added to waitlist",
		fmt.Sprintf("%q is full. You are on the waitlist and will be notified when a seat opens.",
			event.Title))
}

// WaitlistPromoted tells a user a seat opened up.
func (s *Service) WaitlistPromoted(userID uint, event *datastore.Event) error {
	return s.Notify(userID, TypeWaitlistPromoted,
		"A seat opened up",
		fmt.Sprintf("You are now confirmed for %q on %s.",
			event.Title, event.StartTime.Format("Mon, 2 Jan 2006 15:04")))
}

// PaymentReceipt confirms a completed charge.
func (s *Service) PaymentReceipt(userID uint, event *datastore.Event, payment *datastore.Payment) error {
	return s.Notify(userID, TypePaymentReceipt,
		"Payment received",
		fmt.Sprintf("Your payment of %.2f %s for %q was received (ref %s).",
			float64(payment.AmountCents)/100, payment.Currency, event.Title, payment.GatewayRef))
}

// EventCancelled fans the cancellation out to every registrant.
func (s *Service) EventCancelled(registrantIDs []uint, event *datastore.Event) {
	s.NotifyMany(registrantIDs, TypeEventCancelled,
		"Event cancelled",
		fmt.Sprintf("%q on %s has been cancelled by the organizer.",
			event.Title, event.StartTime.Format("Mon, 2 Jan 2006 15:04")))
}

// DuplicateWarning tells an organizer their new event resembles existing ones.
func (s *Service) DuplicateWarning(organizerID uint, event *datastore.Event, matches int) error {
	return s.Notify(organizerID, TypeDuplicateWarning,
		"Possible duplicate event",
		fmt.Sprintf("%q looks similar to %d existing event(s). Review them before publishing.",
			event.Title, matches))
}

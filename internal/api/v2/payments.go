package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campusworks/eventhub/internal/datastore"
	"github.com/campusworks/eventhub/internal/errors"
)

// PaymentResponse is the public view of a payment.
type PaymentResponse struct {
	ID          string    `json:"id"`
	AmountCents int64     `json:"amountCents"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func paymentResponse(p *datastore.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          p.PublicID,
		AmountCents: p.AmountCents,
		Currency:    p.Currency,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
	}
}

// PayRegistration handles POST /api/v2/registrations/:id/pay
func (c *Controller) PayRegistration(ctx echo.Context) error {
	session, _ := currentSession(ctx)

	reg, err := c.DS.GetRegistration(ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Registration not found", mapErrorStatus(err))
	}
	if reg.UserID != session.UserID {
		return c.HandleError(ctx, nil, "Registration belongs to another user", http.StatusForbidden)
	}
	if reg.Status != datastore.RegistrationConfirmed {
		return c.HandleError(ctx, nil, "Only confirmed registrations can be paid", http.StatusConflict)
	}
	if existing, err := c.DS.GetPaymentByRegistration(reg.ID); err == nil &&
		existing.Status == datastore.PaymentCompleted {
		return c.HandleError(ctx, nil, "Registration is already paid", http.StatusConflict)
	}

	event, err := c.DS.GetEventByID(reg.EventID)
	if err != nil {
		return c.HandleError(ctx, err, "Event not found", mapErrorStatus(err))
	}

	payment, err := c.Payments.ChargeRegistration(ctx.Request().Context(), &event, &reg)
	if err != nil {
		if c.metrics != nil {
			c.metrics.PaymentCharges.WithLabelValues(datastore.PaymentFailed).Inc()
		}
		switch {
		case errors.HasCategory(err, errors.CategoryValidation):
			return c.HandleError(ctx, err, "Event is free of charge", http.StatusBadRequest)
		case errors.HasCategory(err, errors.CategoryPayment) && payment != nil:
			// the gateway answered and declined
			return ctx.JSON(http.StatusPaymentRequired, map[string]any{
				"error":   "payment_declined",
				"payment": paymentResponse(payment),
			})
		default:
			return c.HandleError(ctx, err, "Payment could not be processed", http.StatusBadGateway)
		}
	}

	if c.metrics != nil {
		c.metrics.PaymentCharges.WithLabelValues(datastore.PaymentCompleted).Inc()
	}
	if c.Notifier != nil {
		if err := c.Notifier.PaymentReceipt(session.UserID, &event, payment); err != nil {
			c.apiLogger.Warn("failed to send payment receipt", "error", err.Error())
		}
	}

	c.apiLogger.Info("registration paid",
		"registration", reg.PublicID,
		"payment", payment.PublicID,
		"amount_cents", payment.AmountCents,
		"user", session.PublicID)
	return ctx.JSON(http.StatusOK, paymentResponse(payment))
}

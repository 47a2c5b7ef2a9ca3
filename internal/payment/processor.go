package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campusworks/eventhub/internal/datastore"
	"github.com/campusworks/eventhub/internal/errors"
)

// Gateway is the subset of the client the processor needs, split out so
// tests can substitute a fake.
type Gateway interface {
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, gatewayRef string) (*ChargeResult, error)
}

// Processor records payment rows around gateway calls: a pending row is
// written before the charge and transitioned to completed or failed after.
type Processor struct {
	ds      datastore.Interface
	gateway Gateway
	logger  *slog.Logger
}

// NewProcessor builds a processor over the datastore and gateway.
func NewProcessor(ds datastore.Interface, gateway Gateway, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{ds: ds, gateway: gateway, logger: logger.With("service", "payment")}
}

// ChargeRegistration charges the event price for a registration and returns
// the final payment row.
func (p *Processor) ChargeRegistration(ctx context.Context, event *datastore.Event, reg *datastore.Registration) (*datastore.Payment, error) {
	if event.PriceCents <= 0 {
		return nil, errors.Newf("event %s is free, nothing to charge", event.PublicID).
			Component("payment").
			Category(errors.CategoryValidation).
			Build()
	}

	payment := &datastore.Payment{
		RegistrationID: reg.ID,
		AmountCents:    event.PriceCents,
		Currency:       event.Currency,
		Status:         datastore.PaymentPending,
	}
	existing, err := p.ds.GetPaymentByRegistration(reg.ID)
	switch {
	case err == nil && existing.Status == datastore.PaymentCompleted:
		return &existing, errors.Newf("registration %s is already paid", reg.PublicID).
			Component("payment").
			Category(errors.CategoryValidation).
			Build()
	case err == nil:
		// a declined attempt left a row holding the registration's unique
		// index slot; reopen it instead of inserting a second row
		if err := p.ds.ReopenPayment(existing.PublicID, event.PriceCents, event.Currency); err != nil {
			return nil, err
		}
		existing.AmountCents = event.PriceCents
		existing.Currency = event.Currency
		existing.Status = datastore.PaymentPending
		existing.GatewayRef = ""
		payment = &existing
	case datastore.IsNotFound(err):
		if err := p.ds.SavePayment(payment); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	result, err := p.gateway.Charge(ctx, &ChargeRequest{
		AmountCents: event.PriceCents,
		Currency:    event.Currency,
		Reference:   payment.PublicID,
		Description: fmt.Sprintf("Registration for %s", event.Title),
	})
	if err != nil {
		if updateErr := p.ds.UpdatePaymentStatus(payment.PublicID, datastore.PaymentFailed, ""); updateErr != nil {
			p.logger.Error("failed to mark payment failed",
				"payment_id", payment.PublicID, "error", updateErr)
		}
		payment.Status = datastore.PaymentFailed
		return payment, err
	}

	status := datastore.PaymentCompleted
	if !result.Succeeded() {
		status = datastore.PaymentFailed
	}
	if err := p.ds.UpdatePaymentStatus(payment.PublicID, status, result.GatewayRef); err != nil {
		return nil, err
	}
	payment.Status = status
	payment.GatewayRef = result.GatewayRef

	p.logger.Info("payment processed",
		"payment_id", payment.PublicID,
		"registration_id", reg.PublicID,
		"amount_cents", payment.AmountCents,
		"status", status)

	if status == datastore.PaymentFailed {
		return payment, errors.Newf("gateway declined charge: %s", result.Message).
			Component("payment").
			Category(errors.CategoryPayment).
			Context("payment_id", payment.PublicID).
			Build()
	}
	return payment, nil
}

// RefundRegistration refunds a completed payment, marking the row refunded.
func (p *Processor) RefundRegistration(ctx context.Context, reg *datastore.Registration) error {
	payment, err := p.ds.GetPaymentByRegistration(reg.ID)
	if err != nil {
		return err
	}
	if payment.Status != datastore.PaymentCompleted {
		return errors.Newf("payment %s is %s, only completed payments can be refunded",
			payment.PublicID, payment.Status).
			Component("payment").
			Category(errors.CategoryValidation).
			Build()
	}

	if _, err := p.gateway.Refund(ctx, payment.GatewayRef); err != nil {
		return err
	}
	return p.ds.UpdatePaymentStatus(payment.PublicID, datastore.PaymentRefunded, payment.GatewayRef)
}

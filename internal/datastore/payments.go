package datastore

import (
	"github.com/google/uuid"

	"github.com/campusworks/eventhub/internal/errors"
)

// SavePayment inserts a payment row, assigning a public ID when absent.
func (ds *DataStore) SavePayment(payment *Payment) error {
	if payment.PublicID == "" {
		payment.PublicID = uuid.NewString()
	}
	if payment.Status == "" {
		payment.Status = PaymentPending
	}
	if err := ds.DB.Create(payment).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save_payment").
			Build()
	}
	return nil
}

// UpdatePaymentStatus transitions a payment and records the gateway reference.
func (ds *DataStore) UpdatePaymentStatus(publicID, status, gatewayRef string) error {
	updates := map[string]any{"status": status}
	if gatewayRef != "" {
		updates["gateway_ref"] = gatewayRef
	}
	result := ds.DB.Model(&Payment{}).
		Where("public_id = ?", publicID).
		Updates(updates)
	if result.Error != nil {
		return errors.New(result.Error).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "update_payment_status").
			Build()
	}
	if result.RowsAffected == 0 {
		return errors.Newf("payment not found: %s", publicID).
			Component("datastore").
			Category(errors.CategoryNotFound).
			Build()
	}
	return nil
}

// ReopenPayment resets a prior payment attempt to pending so the registration
// can be charged again. The amount is refreshed because the event price may
// have changed between attempts. Completed payments are never reopened.
func (ds *DataStore) ReopenPayment(publicID string, amountCents int64, currency string) error {
	result := ds.DB.Model(&Payment{}).
		Where("public_id = ? AND status <> ?", publicID, PaymentCompleted).
		Updates(map[string]any{
			"status":       PaymentPending,
			"amount_cents": amountCents,
			"currency":     currency,
			"gateway_ref":  "",
		})
	if result.Error != nil {
		return errors.New(result.Error).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "reopen_payment").
			Build()
	}
	if result.RowsAffected == 0 {
		return errors.Newf("payment %s cannot be reopened", publicID).
			Component("datastore").
			Category(errors.CategoryConflict).
			Build()
	}
	return nil
}

// GetPaymentByRegistration fetches the payment attached to a registration.
func (ds *DataStore) GetPaymentByRegistration(registrationID uint) (Payment, error) {
	var payment Payment
	err := ds.DB.Where("registration_id = ?", registrationID).First(&payment).Error
	if err != nil {
		return Payment{}, notFound(err, "payment", "")
	}
	return payment, nil
}

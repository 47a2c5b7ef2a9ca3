package datastore

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusworks/eventhub/internal/errors"
)

// CreateRegistration inserts a registration, assigning a public ID when
// absent. The unique index on (event_id, user_id) rejects double signups.
func (ds *DataStore) CreateRegistration(reg *Registration) error {
	if reg.PublicID == "" {
		reg.PublicID = uuid.NewString()
	}
	if reg.Status == "" {
		reg.Status = RegistrationConfirmed
	}
	if err := ds.DB.Create(reg).Error; err != nil {
		category := errors.CategoryDatabase
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			category = errors.CategoryConflict
		}
		return errors.New(err).
			Component("datastore").
			Category(category).
			Context("operation", "create_registration").
			Build()
	}
	return nil
}

// CreateRegistrationWithCapacity inserts a confirmed registration and, inside
// the same transaction, demotes it to the waitlist when the insert pushed the
// confirmed count past capacity. Counting after the insert keeps concurrent
// signups from both landing confirmed on the last seat. A capacity of zero
// means unlimited.
func (ds *DataStore) CreateRegistrationWithCapacity(reg *Registration, capacity int) error {
	if reg.PublicID == "" {
		reg.PublicID = uuid.NewString()
	}
	if reg.Status == "" {
		reg.Status = RegistrationConfirmed
	}
	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reg).Error; err != nil {
			return err
		}
		if capacity <= 0 || reg.Status != RegistrationConfirmed {
			return nil
		}
		var confirmed int64
		err := tx.Model(&Registration{}).
			Where("event_id = ? AND status = ?", reg.EventID, RegistrationConfirmed).
			Count(&confirmed).Error
		if err != nil {
			return err
		}
		if confirmed > int64(capacity) {
			reg.Status = RegistrationWaitlisted
			return tx.Model(reg).Update("status", RegistrationWaitlisted).Error
		}
		return nil
	})
	if err != nil {
		category := errors.CategoryDatabase
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			category = errors.CategoryConflict
		}
		return errors.New(err).
			Component("datastore").
			Category(category).
			Context("operation", "create_registration").
			Build()
	}
	return nil
}

// CancelRegistration marks the registration cancelled. The user ID guards
// against cancelling someone else's registration.
func (ds *DataStore) CancelRegistration(publicID string, userID uint) error {
	result := ds.DB.Model(&Registration{}).
		Where("public_id = ? AND user_id = ?", publicID, userID).
		Update("status", RegistrationCancelled)
	if result.Error != nil {
		return errors.New(result.Error).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "cancel_registration").
			Build()
	}
	if result.RowsAffected == 0 {
		return errors.Newf("registration not found: %s", publicID).
			Component("datastore").
			Category(errors.CategoryNotFound).
			Build()
	}
	return nil
}

// GetRegistration fetches a registration by public ID.
func (ds *DataStore) GetRegistration(publicID string) (Registration, error) {
	var reg Registration
	if err := ds.DB.Where("public_id = ?", publicID).First(&reg).Error; err != nil {
		return Registration{}, notFound(err, "registration", publicID)
	}
	return reg, nil
}

// GetRegistrationForEvent fetches the registration a user holds for an event.
func (ds *DataStore) GetRegistrationForEvent(eventID, userID uint) (Registration, error) {
	var reg Registration
	err := ds.DB.Where("event_id = ? AND user_id = ?", eventID, userID).First(&reg).Error
	if err != nil {
		return Registration{}, notFound(err, "registration", "")
	}
	return reg, nil
}

// ListRegistrationsForUser returns the user's registrations, newest first.
func (ds *DataStore) ListRegistrationsForUser(userID uint) ([]Registration, error) {
	var regs []Registration
	err := ds.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&regs).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "list_registrations").
			Build()
	}
	return regs, nil
}

// CountConfirmedRegistrations returns the number of confirmed seats taken.
func (ds *DataStore) CountConfirmedRegistrations(eventID uint) (int64, error) {
	var count int64
	err := ds.DB.Model(&Registration{}).
		Where("event_id = ? AND status = ?", eventID, RegistrationConfirmed).
		Count(&count).Error
	if err != nil {
		return 0, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "count_registrations").
			Build()
	}
	return count, nil
}

// ListRegistrantIDs returns the user IDs of everyone with a non-cancelled
// registration for the event, used to fan out notifications.
func (ds *DataStore) ListRegistrantIDs(eventID uint) ([]uint, error) {
	var ids []uint
	err := ds.DB.Model(&Registration{}).
		Where("event_id = ? AND status <> ?", eventID, RegistrationCancelled).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "list_registrant_ids").
			Build()
	}
	return ids, nil
}

// PromoteFromWaitlist confirms the oldest waitlisted registration for the
// event, returning it, or nil when the waitlist is empty.
func (ds *DataStore) PromoteFromWaitlist(eventID uint) (*Registration, error) {
	var reg Registration
	err := ds.DB.Where("event_id = ? AND status = ?", eventID, RegistrationWaitlisted).
		Order("created_at ASC").
		First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "promote_from_waitlist").
			Build()
	}

	reg.Status = RegistrationConfirmed
	if err := ds.DB.Save(&reg).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "promote_from_waitlist").
			Build()
	}
	return &reg, nil
}

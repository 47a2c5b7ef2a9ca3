package datastore

import (
	"github.com/campusworks/eventhub/internal/errors"
)

// SaveNotification inserts an in-app notification.
func (ds *DataStore) SaveNotification(n *Notification) error {
	if err := ds.DB.Create(n).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "save_notification").
			Build()
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (ds *DataStore) ListNotifications(userID uint, unreadOnly bool) ([]Notification, error) {
	query := ds.DB.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}

	var notifications []Notification
	if err := query.Order("created_at DESC").Limit(100).Find(&notifications).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "list_notifications").
			Build()
	}
	return notifications, nil
}

// MarkNotificationRead flags one of the user's notifications as read.
func (ds *DataStore) MarkNotificationRead(id, userID uint) error {
	result := ds.DB.Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return errors.New(result.Error).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "mark_notification_read").
			Build()
	}
	if result.RowsAffected == 0 {
		return errors.Newf("notification not found: %d", id).
			Component("datastore").
			Category(errors.CategoryNotFound).
			Build()
	}
	return nil
}

// analytics.go aggregate queries backing the admin dashboard
package datastore

import (
	"time"

	"github.com/campusworks/eventhub/internal/errors"
)

type categoryCount struct {
	Category string
	Count    int64
}

type statusCount struct {
	Status string
	Count  int64
}

// GetDashboardStats collects the admin dashboard aggregates in one call.
func (ds *DataStore) GetDashboardStats() (DashboardStats, error) {
	stats := DashboardStats{
		EventsByCategory:      make(map[string]int64),
		RegistrationsByStatus: make(map[string]int64),
	}

	dbErr := func(err error, op string) error {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", op).
			Build()
	}

	if err := ds.DB.Model(&User{}).Count(&stats.TotalUsers).Error; err != nil {
		return stats, dbErr(err, "count_users")
	}
	if err := ds.DB.Model(&Event{}).Count(&stats.TotalEvents).Error; err != nil {
		return stats, dbErr(err, "count_events")
	}
	if err := ds.DB.Model(&Event{}).
		Where("status = ? AND start_time > ?", EventStatusPublished, time.Now()).
		Count(&stats.UpcomingEvents).Error; err != nil {
		return stats, dbErr(err, "count_upcoming_events")
	}
	if err := ds.DB.Model(&Registration{}).Count(&stats.TotalRegistrations).Error; err != nil {
		return stats, dbErr(err, "count_registrations")
	}

	var revenue *int64
	if err := ds.DB.Model(&Payment{}).
		Where("status = ?", PaymentCompleted).
		Select("SUM(amount_cents)").
		Scan(&revenue).Error; err != nil {
		return stats, dbErr(err, "sum_revenue")
	}
	if revenue != nil {
		stats.RevenueCents = *revenue
	}

	var byCategory []categoryCount
	if err := ds.DB.Model(&Event{}).
		Select("category, COUNT(*) as count").
		Group("category").
		Scan(&byCategory).Error; err != nil {
		return stats, dbErr(err, "events_by_category")
	}
	for _, row := range byCategory {
		stats.EventsByCategory[row.Category] = row.Count
	}

	var byStatus []statusCount
	if err := ds.DB.Model(&Registration{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return stats, dbErr(err, "registrations_by_status")
	}
	for _, row := range byStatus {
		stats.RegistrationsByStatus[row.Status] = row.Count
	}

	return stats, nil
}

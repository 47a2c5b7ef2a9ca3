package datastore

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusworks/eventhub/internal/errors"
)

// notFound wraps a gorm record-not-found error with the entity name so API
// layers can map it to a 404.
func notFound(err error, entity, key string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Newf("%s not found: %s", entity, key).
			Component("datastore").
			Category(errors.CategoryNotFound).
			Context("entity", entity).
			Build()
	}
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("entity", entity).
		Build()
}

// IsNotFound reports whether err represents a missing record.
func IsNotFound(err error) bool {
	return errors.HasCategory(err, errors.CategoryNotFound)
}

// CreateUser inserts a new user, assigning a public ID when absent.
func (ds *DataStore) CreateUser(user *User) error {
	if user.PublicID == "" {
		user.PublicID = uuid.NewString()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Role == "" {
		user.Role = RoleUser
	}
	if err := ds.DB.Create(user).Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("operation", "create_user").
			Build()
	}
	return nil
}

// GetUserByID fetches a user by primary key.
func (ds *DataStore) GetUserByID(id uint) (User, error) {
	var user User
	if err := ds.DB.First(&user, id).Error; err != nil {
		return User{}, notFound(err, "user", "")
	}
	return user, nil
}

// GetUserByPublicID fetches a user by its public identifier.
func (ds *DataStore) GetUserByPublicID(publicID string) (User, error) {
	var user User
	if err := ds.DB.Where("public_id = ?", publicID).First(&user).Error; err != nil {
		return User{}, notFound(err, "user", publicID)
	}
	return user, nil
}

// GetUserByEmail fetches a user by email, case-insensitively.
func (ds *DataStore) GetUserByEmail(email string) (User, error) {
	var user User
	normalized := strings.ToLower(strings.TrimSpace(email))
	if err := ds.DB.Where("email = ?", normalized).First(&user).Error; err != nil {
		return User{}, notFound(err, "user", normalized)
	}
	return user, nil
}

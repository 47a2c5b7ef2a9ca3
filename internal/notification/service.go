// Package notification persists in-app notifications and forwards them to
// configured push channels.
package notification

import (
	"io"
	"log"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/k3a/html2text"
	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/campusworks/eventhub/internal/conf"
	"github.com/campusworks/eventhub/internal/datastore"
	"github.com/campusworks/eventhub/internal/errors"
)

// Notification types stored in the datastore.
const (
	TypeRegistrationConfirmed = "registration_confirmed"
	TypeWaitlisted            = "waitlisted"
	TypeWaitlistPromoted      = "waitlist_promoted"
	TypePaymentReceipt        = "payment_receipt"
	TypeEventCancelled        = "event_cancelled"
	TypeDuplicateWarning      = "duplicate_warning"
)

// ServiceConfig configures the notification service.
type ServiceConfig struct {
	Enabled  bool
	PushURLs []string
	Timeout  time.Duration
}

// ConfigFromSettings derives a ServiceConfig from application settings.
func ConfigFromSettings(settings *conf.NotificationSettings) *ServiceConfig {
	return &ServiceConfig{
		Enabled:  settings.Enabled,
		PushURLs: slices.Clone(settings.PushURLs),
		Timeout:  10 * time.Second,
	}
}

// Service stores notifications for users and pushes them to the configured
// shoutrrr channels. Push delivery is best effort; a push failure never
// fails the triggering operation.
type Service struct {
	ds     datastore.Interface
	config *ServiceConfig
	sender *router.ServiceRouter
	logger *slog.Logger
}

// NewService builds a notification service. Invalid push URLs disable push
// delivery but keep in-app notifications working.
func NewService(ds datastore.Interface, config *ServiceConfig, logger *slog.Logger) *Service {
	if config == nil {
		config = &ServiceConfig{Enabled: true}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		ds:     ds,
		config: config,
		logger: logger.With("service", "notification"),
	}

	if config.Enabled && len(config.PushURLs) > 0 {
		sender, err := shoutrrr.CreateSender(config.PushURLs...)
		if err != nil {
			s.logger.Error("invalid push notification URLs, push delivery disabled", "error", err)
		} else {
			if config.Timeout > 0 {
				sender.Timeout = config.Timeout
			}
			sender.SetLogger(log.New(io.Discard, "", 0))
			s.sender = sender
		}
	}
	return s
}

// Notify stores an in-app notification for the user and forwards it to the
// push channels. The message may contain HTML; push channels receive a
// plaintext rendering.
func (s *Service) Notify(userID uint, notificationType, title, message string) error {
	if !s.config.Enabled {
		return nil
	}

	n := &datastore.Notification{
		UserID:  userID,
		Type:    notificationType,
		Title:   title,
		Message: message,
	}
	if err := s.ds.SaveNotification(n); err != nil {
		return errors.New(err).
			Component("notification").
			Category(errors.CategoryNotification).
			Context("type", notificationType).
			Build()
	}

	s.push(title, message)
	return nil
}

// NotifyMany fans one notification out to several users.
func (s *Service) NotifyMany(userIDs []uint, notificationType, title, message string) {
	for _, id := range userIDs {
		if err := s.Notify(id, notificationType, title, message); err != nil {
			s.logger.Error("failed to deliver notification",
				"user_id", id, "type", notificationType, "error", err)
		}
	}
}

func (s *Service) push(title, message string) {
	if s.sender == nil {
		return
	}

	body := message
	if strings.Contains(body, "<") {
		body = html2text.HTML2Text(body)
	}
	params := stypes.Params{}
	if title != "" {
		params.SetTitle(title)
	}

	if errs := s.sender.Send(body, &params); len(errs) > 0 {
		for _, err := range errs {
			if err != nil {
				s.logger.Warn("push delivery failed", "error", err)
				break
			}
		}
	}
}

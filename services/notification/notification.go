package notification

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"

	customerRepo "groomly/database/repository/customer"
	"groomly/utils"
)

// Service defines customer push notifications. Customers only ever see
// coarse status labels through this channel.
type Service interface {
	NotifyCustomer(ctx context.Context, customerID, title, body string, data map[string]string) error
}

// FCMService is the production implementation over Firebase Cloud
// Messaging.
type FCMService struct {
	Customers customerRepo.CustomerRepository
	Logger    *zap.Logger
}

func NewFCMService(customers customerRepo.CustomerRepository, logger *zap.Logger) *FCMService {
	return &FCMService{Customers: customers, Logger: logger}
}

// NotifyCustomer looks up the customer's FCM token and sends a push.
func (s *FCMService) NotifyCustomer(ctx context.Context, customerID, title, body string, data map[string]string) error {
	c, err := s.Customers.GetByID(customerID)
	if err != nil {
		return fmt.Errorf("notify: could not find customer %s: %w", customerID, err)
	}
	if c.FCMToken == "" {
		s.Logger.Debug("customer has no FCM token, skipping push", zap.String("customerId", customerID))
		return nil
	}

	msg := &messaging.Message{
		Token: c.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: failed to send FCM message to %s: %w", customerID, err)
	}
	return nil
}

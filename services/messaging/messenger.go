package messaging

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Offer is the structured payload sent to a candidate groomer.
type Offer struct {
	BookingRef  string
	ServiceName string
	Address     string
	Zone        string
	ScheduledAt *time.Time // nil for immediate requests
	Fee         float64    // the groomer's earning for this job
	Notes       string
	ExpiresIn   time.Duration
}

// Messenger is the outbound half of the external messaging transport.
// Sends are fallible side effects: failures are logged, never rolled
// back into engine state.
type Messenger interface {
	// SendOffer delivers a job offer to the groomer's contact handle.
	SendOffer(contact string, offer Offer) error
	// SendText delivers a plain explanation or query reply.
	SendText(contact, body string) error
	// SendStatusAck confirms a progress command was applied.
	SendStatusAck(contact, bookingRef, status string) error
}

// LogMessenger is the transport binding used until a concrete SMS/chat
// provider is wired in deployment; it records every send on the app log.
type LogMessenger struct {
	Logger *zap.Logger
}

func NewLogMessenger(logger *zap.Logger) *LogMessenger {
	return &LogMessenger{Logger: logger}
}

func (m *LogMessenger) SendOffer(contact string, offer Offer) error {
	when := "now"
	if offer.ScheduledAt != nil {
		when = offer.ScheduledAt.Format("Mon 15:04")
	}
	m.Logger.Info("offer sent",
		zap.String("to", contact),
		zap.String("booking", offer.BookingRef),
		zap.String("service", offer.ServiceName),
		zap.String("when", when),
		zap.Float64("fee", offer.Fee),
		zap.Duration("expiresIn", offer.ExpiresIn),
	)
	return nil
}

func (m *LogMessenger) SendText(contact, body string) error {
	m.Logger.Info("text sent", zap.String("to", contact), zap.String("body", body))
	return nil
}

func (m *LogMessenger) SendStatusAck(contact, bookingRef, status string) error {
	return m.SendText(contact, fmt.Sprintf("Booking %s is now %s.", bookingRef, status))
}

package strike

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	groomerRepo "groomly/database/repository/groomer"
	strikeRepo "groomly/database/repository/strike"
	"groomly/models"
	"groomly/services/messaging"
)

// Service records punitive events against groomers and enforces the
// auto-suspension threshold.
type Service interface {
	IssueStrike(groomerID, bookingID, reason string) error
}

// DefaultService implements Service.
type DefaultService struct {
	Groomers  groomerRepo.GroomerRepository
	Strikes   strikeRepo.StrikeRepository
	Messenger messaging.Messenger
	Logger    *zap.Logger
}

var strikeMessages = map[string]string{
	models.StrikeNoResponse:       "You did not respond to a job offer in time.",
	models.StrikeCancelledAccept:  "You cancelled a job after accepting it.",
	models.StrikeCancelledEnRoute: "You cancelled a job while already on the way.",
	models.StrikeNoShow:           "You did not show up for an accepted job.",
}

// IssueStrike appends the strike record, bumps the counter, and when the
// threshold is reached suspends the groomer and forces them offline in
// the same operation. The groomer is told what happened either way.
func (s *DefaultService) IssueStrike(groomerID, bookingID, reason string) error {
	record := &models.Strike{
		ID:        uuid.New().String(),
		GroomerID: groomerID,
		BookingID: bookingID,
		Reason:    reason,
		IssuedAt:  time.Now(),
	}
	if err := s.Strikes.Create(record); err != nil {
		return fmt.Errorf("failed to record strike: %w", err)
	}

	count, err := s.Groomers.IncrementStrikes(groomerID)
	if err != nil {
		return fmt.Errorf("failed to count strike: %w", err)
	}

	s.Logger.Info("strike issued",
		zap.String("groomerId", groomerID),
		zap.String("bookingId", bookingID),
		zap.String("reason", reason),
		zap.Int("total", count),
	)

	suspended := false
	if count >= models.SuspensionThreshold {
		if err := s.Groomers.Suspend(groomerID); err != nil {
			return fmt.Errorf("failed to suspend groomer %s: %w", groomerID, err)
		}
		suspended = true
		s.Logger.Warn("groomer auto-suspended",
			zap.String("groomerId", groomerID),
			zap.Int("strikes", count),
		)
	}

	s.notify(groomerID, reason, count, suspended)
	return nil
}

func (s *DefaultService) notify(groomerID, reason string, count int, suspended bool) {
	g, err := s.Groomers.GetByID(groomerID)
	if err != nil {
		s.Logger.Warn("strike notification skipped", zap.String("groomerId", groomerID), zap.Error(err))
		return
	}

	body := strikeMessages[reason]
	if body == "" {
		body = "A service failure was recorded against your account."
	}
	body = fmt.Sprintf("Strike %d of %d: %s", count, models.SuspensionThreshold, body)
	if suspended {
		body += " Your account has been suspended. Contact support to appeal."
	}

	if err := s.Messenger.SendText(g.Phone, body); err != nil {
		s.Logger.Warn("failed to notify groomer of strike", zap.String("groomerId", groomerID), zap.Error(err))
	}
}

package earnings

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	earningsRepo "groomly/database/repository/earnings"
	"groomly/models"
)

// Service answers groomer money questions and records salary-advance
// requests. Paying an advance out is a back-office action; this service
// only validates and persists the ask.
type Service interface {
	Balance(groomerID string) (float64, error)
	RequestAdvance(groomerID string, amount float64) (*models.AdvanceRequest, error)
}

type DefaultService struct {
	Repo   earningsRepo.EarningsRepository
	Logger *zap.Logger
}

// Balance is the sum of credited earnings not yet paid out.
func (s *DefaultService) Balance(groomerID string) (float64, error) {
	total, err := s.Repo.UnpaidTotal(groomerID)
	if err != nil {
		return 0, fmt.Errorf("failed to compute balance for %s: %w", groomerID, err)
	}
	return total, nil
}

// RequestAdvance records an advance request capped at the groomer's
// current unpaid balance.
func (s *DefaultService) RequestAdvance(groomerID string, amount float64) (*models.AdvanceRequest, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("advance amount must be positive")
	}

	balance, err := s.Balance(groomerID)
	if err != nil {
		return nil, err
	}
	if amount > balance {
		return nil, fmt.Errorf("advance amount %.0f exceeds unpaid balance %.0f", amount, balance)
	}

	req := &models.AdvanceRequest{
		ID:          uuid.New().String(),
		GroomerID:   groomerID,
		Amount:      amount,
		Status:      "pending",
		RequestedAt: time.Now(),
	}
	if err := s.Repo.CreateAdvanceRequest(req); err != nil {
		return nil, fmt.Errorf("failed to record advance request: %w", err)
	}

	s.Logger.Info("advance requested",
		zap.String("groomerId", groomerID),
		zap.Float64("amount", amount),
	)
	return req, nil
}

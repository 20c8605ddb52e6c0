package cron

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"groomly/config"
)

// Task types carried over the asynq queue.
const (
	TypeOfferTimeout    = "offer:timeout"
	TypeRefundReconcile = "reconcile:refund"
)

// OfferTimeoutPayload expires one offer. The attempt id is enough: the
// handler re-reads attempt and booking state, so a stale task fired
// after the groomer already answered is a harmless no-op.
type OfferTimeoutPayload struct {
	AttemptID string `json:"attemptId"`
}

// RefundPayload retries a refund that failed inline.
type RefundPayload struct {
	TransactionRef string  `json:"transactionRef"`
	Amount         float64 `json:"amount"`
	Reason         string  `json:"reason"`
}

// QueueClient enqueues durable deferred work. Offer deadlines live here
// rather than in in-process timers so a restart cannot strand a booking
// waiting on an offer that will never expire.
type QueueClient struct {
	client *asynq.Client
}

func NewQueueClient() *QueueClient {
	return &QueueClient{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisQueueDB,
		}),
	}
}

// ScheduleOfferTimeout arms the response deadline for one offer.
func (q *QueueClient) ScheduleOfferTimeout(attemptID string, d time.Duration) error {
	payload, err := json.Marshal(OfferTimeoutPayload{AttemptID: attemptID})
	if err != nil {
		return fmt.Errorf("failed to encode offer timeout payload: %w", err)
	}

	task := asynq.NewTask(TypeOfferTimeout, payload)
	if _, err := q.client.Enqueue(task, asynq.ProcessIn(d), asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("failed to enqueue offer timeout: %w", err)
	}
	return nil
}

// QueueRefund hands a failed refund to the worker for retry. asynq's
// retry backoff covers transient gateway outages.
func (q *QueueClient) QueueRefund(transactionRef string, amount float64, reason string) error {
	payload, err := json.Marshal(RefundPayload{
		TransactionRef: transactionRef,
		Amount:         amount,
		Reason:         reason,
	})
	if err != nil {
		return fmt.Errorf("failed to encode refund payload: %w", err)
	}

	task := asynq.NewTask(TypeRefundReconcile, payload)
	if _, err := q.client.Enqueue(task, asynq.MaxRetry(10)); err != nil {
		return fmt.Errorf("failed to enqueue refund reconciliation: %w", err)
	}
	return nil
}

func (q *QueueClient) Close() error {
	return q.client.Close()
}

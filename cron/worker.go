package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"

	"groomly/config"
	"groomly/services/dispatch"
	"groomly/services/payment"
)

// InitDispatchWorker runs the async worker in background.
func InitDispatchWorker(engine *dispatch.Engine, gateway payment.Gateway) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeOfferTimeout, handleOfferTimeout(engine))
	mux.HandleFunc(TypeRefundReconcile, handleRefundReconcile(gateway))

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[DispatchWorker] 🚀 Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[DispatchWorker] ❌ Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[DispatchWorker] ❗ Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleOfferTimeout(engine *dispatch.Engine) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p OfferTimeoutPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[OfferTimeout] 🔴 Invalid payload: %v", err)
			return err
		}

		log.Printf("[OfferTimeout] ⏰ Expiring offer attempt %s", p.AttemptID)
		if err := engine.HandleOfferTimeout(p.AttemptID); err != nil {
			log.Printf("[OfferTimeout] ❌ Failed to expire attempt %s: %v", p.AttemptID, err)
			return err
		}
		return nil
	}
}

func handleRefundReconcile(gateway payment.Gateway) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p RefundPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[RefundReconcile] 🔴 Invalid payload: %v", err)
			return err
		}

		log.Printf("[RefundReconcile] 💸 Retrying refund of %.0f on %s", p.Amount, p.TransactionRef)
		if err := gateway.Refund(ctx, p.TransactionRef, p.Amount, p.Reason); err != nil {
			// Returning the error lets asynq back off and retry.
			log.Printf("[RefundReconcile] ❌ Refund still failing on %s: %v", p.TransactionRef, err)
			return err
		}
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[DispatchWorker] ⚠️ Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}

package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"groomly/services/lifecycle"
)

// Sweep cadence. Both sweeps are idempotent, so running them more often
// than their grace windows is safe.
const sweepSpec = "*/5 * * * *"

// InitSweeps registers the periodic lifecycle sweeps and starts the
// scheduler. The returned cron can be stopped on shutdown.
func InitSweeps(lc *lifecycle.Service) *cron.Cron {
	c := cron.New(cron.WithLocation(time.UTC))

	if _, err := c.AddFunc(sweepSpec, lc.AutoConfirmSweep); err != nil {
		log.Printf("[Sweeps] ❌ Failed to register auto-confirm sweep: %v", err)
	}
	if _, err := c.AddFunc(sweepSpec, lc.StaleDispatchSweep); err != nil {
		log.Printf("[Sweeps] ❌ Failed to register stale-dispatch sweep: %v", err)
	}

	c.Start()
	log.Println("[Sweeps] 🚀 Lifecycle sweeps scheduled every 5 minutes")
	return c
}

package settings

import (
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"groomly/utils"
)

// Keys for every runtime-tunable threshold and rate the engine reads.
const (
	KeySurgeEnabled       = "surge_enabled"
	KeySurgeRate          = "surge_rate"
	KeyLateNightStartHour = "late_night_start_hour"
	KeyLateNightEndHour   = "late_night_end_hour"
	KeyLateNightRate      = "late_night_rate"
	KeyEarlyStartHour     = "early_morning_start_hour"
	KeyEarlyEndHour       = "early_morning_end_hour"
	KeyEarlyRate          = "early_morning_rate"
	KeyEmergencyThreshold = "emergency_threshold_minutes"
	KeyEmergencyRate      = "emergency_rate"
	KeyCommissionRate     = "commission_rate"
	KeyDispatchTimeoutSec = "dispatch_timeout_seconds"
	KeyMaxDispatchTries   = "max_dispatch_attempts"
	KeyAutoConfirmHours   = "auto_confirm_delay_hours"
	KeyStaleDispatchMin   = "stale_dispatch_grace_minutes"
)

// DefaultTTL is how long a loaded settings snapshot is served before the
// store is consulted again. Values may be stale by up to this duration;
// that is accepted behavior, not a bug.
const DefaultTTL = 60 * time.Second

// Store is the external key→value settings collaborator.
type Store interface {
	GetAll() (map[string]string, error)
}

// Cache is a TTL-cached read-through view of the settings store with an
// injectable clock. Multiple processes may each hold a safely stale
// copy; Invalidate forces the next read to reload.
type Cache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time

	mu       sync.RWMutex
	values   map[string]string
	loadedAt time.Time
}

// NewCache builds a settings cache. A nil clock falls back to time.Now.
func NewCache(store Store, ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{store: store, ttl: ttl, now: now}
}

// Invalidate discards the cached snapshot.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.values = nil
	c.mu.Unlock()
}

func (c *Cache) snapshot() map[string]string {
	c.mu.RLock()
	if c.values != nil && c.now().Sub(c.loadedAt) < c.ttl {
		v := c.values
		c.mu.RUnlock()
		return v
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.values != nil && c.now().Sub(c.loadedAt) < c.ttl {
		return c.values
	}

	values, err := c.store.GetAll()
	if err != nil {
		// Serve the expired snapshot rather than failing the caller;
		// defaults cover the cold-start case.
		utils.GetLogger().Warn("settings reload failed, serving stale values", zap.Error(err))
		if c.values == nil {
			c.values = map[string]string{}
		}
		return c.values
	}
	c.values = values
	c.loadedAt = c.now()
	return c.values
}

// GetString returns the raw value for key, or def if absent.
func (c *Cache) GetString(key, def string) string {
	if v, ok := c.snapshot()[key]; ok {
		return v
	}
	return def
}

// GetFloat returns the value for key parsed as float64, or def.
func (c *Cache) GetFloat(key string, def float64) float64 {
	if v, ok := c.snapshot()[key]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// GetInt returns the value for key parsed as int, or def.
func (c *Cache) GetInt(key string, def int) int {
	if v, ok := c.snapshot()[key]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// GetBool returns the value for key parsed as bool, or def.
func (c *Cache) GetBool(key string, def bool) bool {
	if v, ok := c.snapshot()[key]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

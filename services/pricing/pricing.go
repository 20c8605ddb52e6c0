package pricing

import (
	"time"

	"groomly/services/settings"
)

// Surcharge classification tags, in strict priority order: surge beats
// late-night beats early-morning beats emergency. No match means no
// surcharge (empty type, zero amount).
const (
	SurchargeSurge        = "surge"
	SurchargeLateNight    = "late_night"
	SurchargeEarlyMorning = "early_morning"
	SurchargeEmergency    = "emergency"
)

// Fallback defaults used when the settings store has no value for a key.
const (
	defaultSurgeRate          = 0.50
	defaultLateNightRate      = 0.30
	defaultEarlyRate          = 0.20
	defaultEmergencyRate      = 0.25
	defaultCommissionRate     = 0.20
	defaultLateNightStartHour = 22
	defaultLateNightEndHour   = 5
	defaultEarlyStartHour     = 5
	defaultEarlyEndHour       = 8
	defaultEmergencyThreshold = 120 // minutes
)

// SurchargeResult is computed once and attached to the booking;
// immutable afterwards.
type SurchargeResult struct {
	Type   string  `json:"type,omitempty"`
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
	Label  string  `json:"label,omitempty"`
}

// EarningsSplit is the revenue breakdown for one booking.
type EarningsSplit struct {
	Total          float64 `json:"total"`
	PlatformFee    float64 `json:"platformFee"`
	GroomerEarning float64 `json:"groomerEarning"`
}

// Engine computes surcharges and revenue splits from tunable rates.
// The rates come through the settings cache, so values may lag the
// store by up to the cache TTL.
type Engine struct {
	settings *settings.Cache
	now      func() time.Time
}

// NewEngine builds a pricing engine. A nil clock falls back to time.Now.
func NewEngine(cache *settings.Cache, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{settings: cache, now: now}
}

// ComputeSurcharge classifies the booking time and sizes the surcharge
// on the base amount. Rules are evaluated in strict priority order;
// first match wins. The target hour is the scheduled hour when a time
// is given, otherwise the current hour.
func (e *Engine) ComputeSurcharge(scheduledAt *time.Time, baseAmount float64) SurchargeResult {
	now := e.now()
	target := now
	if scheduledAt != nil {
		target = *scheduledAt
	}
	hour := target.Hour()

	if e.settings.GetBool(settings.KeySurgeEnabled, false) {
		return e.result(SurchargeSurge, settings.KeySurgeRate, defaultSurgeRate, baseAmount, "High demand surge")
	}

	lateStart := e.settings.GetInt(settings.KeyLateNightStartHour, defaultLateNightStartHour)
	lateEnd := e.settings.GetInt(settings.KeyLateNightEndHour, defaultLateNightEndHour)
	if hourInWindow(hour, lateStart, lateEnd) {
		return e.result(SurchargeLateNight, settings.KeyLateNightRate, defaultLateNightRate, baseAmount, "Late night service")
	}

	earlyStart := e.settings.GetInt(settings.KeyEarlyStartHour, defaultEarlyStartHour)
	earlyEnd := e.settings.GetInt(settings.KeyEarlyEndHour, defaultEarlyEndHour)
	if hourInWindow(hour, earlyStart, earlyEnd) {
		return e.result(SurchargeEarlyMorning, settings.KeyEarlyRate, defaultEarlyRate, baseAmount, "Early morning service")
	}

	threshold := e.settings.GetInt(settings.KeyEmergencyThreshold, defaultEmergencyThreshold)
	if scheduledAt == nil || scheduledAt.Sub(now) < time.Duration(threshold)*time.Minute {
		return e.result(SurchargeEmergency, settings.KeyEmergencyRate, defaultEmergencyRate, baseAmount, "Emergency request")
	}

	return SurchargeResult{}
}

func (e *Engine) result(typ, rateKey string, defRate, base float64, label string) SurchargeResult {
	rate := e.settings.GetFloat(rateKey, defRate)
	return SurchargeResult{
		Type:   typ,
		Rate:   rate,
		Amount: base * rate,
		Label:  label,
	}
}

// ComputeEarningsSplit applies the commission-rate read from settings.
func (e *Engine) ComputeEarningsSplit(baseAmount, surchargeAmount float64) EarningsSplit {
	rate := e.settings.GetFloat(settings.KeyCommissionRate, defaultCommissionRate)
	return ComputeEarningsSplit(baseAmount, surchargeAmount, rate)
}

// ComputeEarningsSplit splits revenue between platform and groomer. The
// platform takes commissionRate of the base amount only; the surcharge
// is split 70/30 in the groomer's favour regardless of commission. This
// keeps the off-hours incentive mostly with the groomer while leaving
// standard-hours commission policy-controlled.
func ComputeEarningsSplit(baseAmount, surchargeAmount, commissionRate float64) EarningsSplit {
	platformFee := baseAmount*commissionRate + surchargeAmount*0.30
	return EarningsSplit{
		Total:          baseAmount + surchargeAmount,
		PlatformFee:    platformFee,
		GroomerEarning: baseAmount + surchargeAmount - platformFee,
	}
}

// hourInWindow reports whether hour falls in [start, end), where a
// window with start > end wraps past midnight.
func hourInWindow(hour, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

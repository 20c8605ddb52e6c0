package handlers

import (
	"go.uber.org/zap"

	bookingRepo "groomly/database/repository/booking"
	customerRepo "groomly/database/repository/customer"
	groomerRepo "groomly/database/repository/groomer"
	serviceRepo "groomly/database/repository/service"
	settingsRepo "groomly/database/repository/settings"
	"groomly/services/inbound"
	"groomly/services/lifecycle"
	"groomly/services/payment"
	"groomly/services/settings"
)

// HandlerBundle groups the endpoint handlers and the services they call.
type HandlerBundle struct {
	Bookings  bookingRepo.BookingRepository
	Groomers  groomerRepo.GroomerRepository
	Customers customerRepo.CustomerRepository
	Services  serviceRepo.ServiceRepository

	Lifecycle     *lifecycle.Service
	Inbound       *inbound.Router
	Gateway       payment.Gateway
	SettingsStore settingsRepo.SettingsRepository
	SettingsCache *settings.Cache

	Logger *zap.Logger
}

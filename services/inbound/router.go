package inbound

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	groomerRepo "groomly/database/repository/groomer"
	"groomly/models"
	"groomly/services/dispatch"
	"groomly/services/earnings"
	"groomly/services/lifecycle"
	"groomly/services/messaging"
	"groomly/utils"
)

const helpText = "Commands: YES accept offer, NO decline, ON go online, OFF go offline, " +
	"OTWAY heading out, ARRIVED at location, DONE job finished, CANCEL drop current job, " +
	"BALANCE unpaid earnings, SCORE your stats, ADVANCE <amount> request an advance."

// OfferResponder is the slice of the dispatch engine the router needs.
type OfferResponder interface {
	HandleResponse(groomerID string, accept bool, bookingID string) (dispatch.Response, error)
}

// JobLifecycle is the slice of the lifecycle service the router needs:
// the groomer-driven progress signals and cancellation.
type JobLifecycle interface {
	MarkEnRoute(groomerID string) (*models.Booking, error)
	MarkArrived(groomerID string) (*models.Booking, error)
	MarkDone(groomerID string) (*models.Booking, error)
	CancelByGroomer(groomerID string) (*models.Booking, error)
}

// Router turns raw inbound groomer texts into engine calls. Unknown
// senders and unknown tokens are dropped without a reply; anything that
// parses gets either the action or a text explaining why not.
type Router struct {
	Groomers  groomerRepo.GroomerRepository
	Dispatch  OfferResponder
	Lifecycle JobLifecycle
	Earnings  earnings.Service
	Messenger messaging.Messenger
	Logger    *zap.Logger
}

// HandleInbound processes one inbound message. The returned error is for
// the transport's logging only; the groomer-facing outcome has already
// been sent by the time it returns.
func (r *Router) HandleInbound(phone, text string) error {
	normalized := utils.NormalizePhone(phone)

	groomer, err := r.Groomers.GetByPhone(normalized)
	if err != nil {
		r.Logger.Debug("inbound from unknown number ignored", zap.String("phone", normalized))
		return nil
	}

	cmd, ok := messaging.ParseCommand(text)
	if !ok {
		r.Logger.Debug("unrecognized inbound text ignored",
			zap.String("groomerId", groomer.ID),
			zap.String("text", text),
		)
		return nil
	}

	r.Logger.Info("inbound command",
		zap.String("groomerId", groomer.ID),
		zap.String("command", string(cmd.Kind)),
	)

	switch cmd.Kind {
	case messaging.CmdAccept:
		return r.respond(groomer, true)
	case messaging.CmdDecline:
		return r.respond(groomer, false)
	case messaging.CmdOnline:
		return r.goOnline(groomer)
	case messaging.CmdOffline:
		return r.goOffline(groomer)
	case messaging.CmdEnRoute:
		return r.progress(groomer, r.Lifecycle.MarkEnRoute)
	case messaging.CmdArrived:
		return r.progress(groomer, r.Lifecycle.MarkArrived)
	case messaging.CmdDone:
		return r.progress(groomer, r.Lifecycle.MarkDone)
	case messaging.CmdCancel:
		return r.cancel(groomer)
	case messaging.CmdBalance:
		return r.balance(groomer)
	case messaging.CmdScore:
		return r.score(groomer)
	case messaging.CmdAdvance:
		return r.advance(groomer, cmd.Arg)
	case messaging.CmdHelp:
		return r.Messenger.SendText(groomer.Phone, helpText)
	}
	return nil
}

func (r *Router) respond(groomer *models.Groomer, accept bool) error {
	_, err := r.Dispatch.HandleResponse(groomer.ID, accept, "")
	if errors.Is(err, dispatch.ErrNoOpenOffer) {
		return r.Messenger.SendText(groomer.Phone, "You have no open job offer right now.")
	}
	return err
}

func (r *Router) goOnline(groomer *models.Groomer) error {
	if groomer.Status == models.GroomerSuspended {
		return r.Messenger.SendText(groomer.Phone,
			"Your account is suspended. Contact support to be reinstated.")
	}
	if groomer.Availability == models.AvailabilityBusy {
		return r.Messenger.SendText(groomer.Phone,
			"You have an active job. Finish it before changing availability.")
	}

	changed, err := r.Groomers.SetAvailability(groomer.ID, models.AvailabilityOffline, models.AvailabilityOnline)
	if err != nil {
		return err
	}
	if !changed {
		return r.Messenger.SendText(groomer.Phone, "You are already online.")
	}
	return r.Messenger.SendText(groomer.Phone, "You are online and will receive job offers.")
}

func (r *Router) goOffline(groomer *models.Groomer) error {
	if groomer.Availability == models.AvailabilityBusy {
		return r.Messenger.SendText(groomer.Phone,
			"You have an active job. Finish it before going offline.")
	}

	changed, err := r.Groomers.SetAvailability(groomer.ID, models.AvailabilityOnline, models.AvailabilityOffline)
	if err != nil {
		return err
	}
	if !changed {
		return r.Messenger.SendText(groomer.Phone, "You are already offline.")
	}
	return r.Messenger.SendText(groomer.Phone, "You are offline and will not receive offers.")
}

func (r *Router) progress(groomer *models.Groomer, fn func(string) (*models.Booking, error)) error {
	booking, err := fn(groomer.ID)
	switch {
	case errors.Is(err, lifecycle.ErrNoActiveBooking):
		return r.Messenger.SendText(groomer.Phone, "You have no active job.")
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return r.Messenger.SendText(groomer.Phone, "That does not apply to your job's current stage.")
	case err != nil:
		return err
	}
	return r.Messenger.SendStatusAck(groomer.Phone, booking.Reference, booking.Status.Label())
}

func (r *Router) cancel(groomer *models.Groomer) error {
	_, err := r.Lifecycle.CancelByGroomer(groomer.ID)
	switch {
	case errors.Is(err, lifecycle.ErrNoActiveBooking):
		return r.Messenger.SendText(groomer.Phone, "You have no active job to cancel.")
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return r.Messenger.SendText(groomer.Phone,
			"This job can no longer be cancelled. Contact support if you cannot complete it.")
	case err != nil:
		return err
	}
	return nil
}

func (r *Router) balance(groomer *models.Groomer) error {
	total, err := r.Earnings.Balance(groomer.ID)
	if err != nil {
		return err
	}
	return r.Messenger.SendText(groomer.Phone, fmt.Sprintf("Your unpaid balance is %.0f.", total))
}

func (r *Router) score(groomer *models.Groomer) error {
	body := fmt.Sprintf("Rating %.1f, %d completed jobs, %d strike(s).",
		groomer.Rating, groomer.CompletedJobs, groomer.Strikes)
	return r.Messenger.SendText(groomer.Phone, body)
}

func (r *Router) advance(groomer *models.Groomer, arg string) error {
	amount, perr := strconv.ParseFloat(arg, 64)
	if perr != nil || amount <= 0 {
		return r.Messenger.SendText(groomer.Phone,
			"To request an advance, text ADVANCE followed by the amount, e.g. ADVANCE 5000.")
	}

	req, err := r.Earnings.RequestAdvance(groomer.ID, amount)
	if err != nil {
		return r.Messenger.SendText(groomer.Phone,
			fmt.Sprintf("Advance request rejected: %v.", err))
	}
	return r.Messenger.SendText(groomer.Phone,
		fmt.Sprintf("Advance request for %.0f received. You will hear back after review.", req.Amount))
}

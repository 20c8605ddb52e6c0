package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	attemptRepo "groomly/database/repository/attempt"
	bookingRepo "groomly/database/repository/booking"
	groomerRepo "groomly/database/repository/groomer"
	"groomly/models"
	"groomly/services/messaging"
	"groomly/services/payment"
)

type fakeBookings struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	// afterGet, when set, runs once against the stored booking right
	// after the next GetByID returns its copy. Tests use it to slide a
	// concurrent status change into the read-then-write window.
	afterGet func(stored *models.Booking)
}

func newFakeBookings(bs ...*models.Booking) *fakeBookings {
	f := &fakeBookings{bookings: make(map[string]*models.Booking)}
	for _, b := range bs {
		cp := *b
		f.bookings[b.ID] = &cp
	}
	return f
}

func (f *fakeBookings) Create(b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeBookings) GetByID(id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	cp := *b
	if f.afterGet != nil {
		hook := f.afterGet
		f.afterGet = nil
		hook(b)
	}
	return &cp, nil
}

func (f *fakeBookings) GetByReference(ref string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.Reference == ref {
			cp := *b
			return &cp, nil
		}
	}
	return nil, bookingRepo.ErrNotFound
}

func (f *fakeBookings) Transition(id string, to models.BookingStatus, set bson.M, from ...models.BookingStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return false, bookingRepo.ErrNotFound
	}
	matched := false
	for _, s := range from {
		if b.Status == s {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	b.Status = to
	if v, ok := set["groomerId"].(string); ok {
		b.GroomerID = v
	}
	if v, ok := set["refundRate"].(float64); ok {
		b.RefundRate = v
	}
	if v, ok := set["refundAmount"].(float64); ok {
		b.RefundAmount = v
	}
	if v, ok := set["cancelReason"].(string); ok {
		b.CancelReason = v
	}
	return true, nil
}

func (f *fakeBookings) IncrementAttempts(id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return 0, bookingRepo.ErrNotFound
	}
	b.DispatchAttempts++
	return b.DispatchAttempts, nil
}

func (f *fakeBookings) FindStaleDispatching(before time.Time) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, b := range f.bookings {
		if b.Status == models.StatusDispatching && b.DispatchedAt != nil && b.DispatchedAt.Before(before) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookings) FindUnconfirmedCompleted(before time.Time) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Booking
	for _, b := range f.bookings {
		if b.Status == models.StatusCompleted && b.CompletedAt != nil && b.CompletedAt.Before(before) {
			out = append(out, *b)
		}
	}
	return out, nil
}

type fakeGroomers struct {
	mu       sync.Mutex
	groomers map[string]*models.Groomer
}

func newFakeGroomers(gs ...*models.Groomer) *fakeGroomers {
	f := &fakeGroomers{groomers: make(map[string]*models.Groomer)}
	for _, g := range gs {
		cp := *g
		f.groomers[g.ID] = &cp
	}
	return f
}

func (f *fakeGroomers) Create(g *models.Groomer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *g
	f.groomers[g.ID] = &cp
	return nil
}

func (f *fakeGroomers) GetByID(id string) (*models.Groomer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groomers[id]
	if !ok {
		return nil, groomerRepo.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (f *fakeGroomers) GetByPhone(phone string) (*models.Groomer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.groomers {
		if g.Phone == phone {
			cp := *g
			return &cp, nil
		}
	}
	return nil, groomerRepo.ErrNotFound
}

func (f *fakeGroomers) FindEligible(q groomerRepo.EligibilityQuery) ([]models.Groomer, error) {
	return nil, nil
}

func (f *fakeGroomers) SetAvailability(id, from, to string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groomers[id]
	if !ok {
		return false, groomerRepo.ErrNotFound
	}
	if g.Availability != from {
		return false, nil
	}
	g.Availability = to
	return true, nil
}

func (f *fakeGroomers) Assign(id, bookingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groomers[id]
	if !ok {
		return groomerRepo.ErrNotFound
	}
	g.Availability = models.AvailabilityBusy
	g.CurrentBookingID = bookingID
	return nil
}

func (f *fakeGroomers) Release(id, bookingID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groomers[id]
	if !ok {
		return false, groomerRepo.ErrNotFound
	}
	if g.CurrentBookingID != bookingID {
		return false, nil
	}
	g.Availability = models.AvailabilityOnline
	g.CurrentBookingID = ""
	return true, nil
}

func (f *fakeGroomers) IncrementStrikes(id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groomers[id]
	if !ok {
		return 0, groomerRepo.ErrNotFound
	}
	g.Strikes++
	return g.Strikes, nil
}

func (f *fakeGroomers) Suspend(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groomers[id]
	if !ok {
		return groomerRepo.ErrNotFound
	}
	g.Status = models.GroomerSuspended
	g.Availability = models.AvailabilityOffline
	return nil
}

func (f *fakeGroomers) IncrementCompletedJobs(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groomers[id]
	if !ok {
		return groomerRepo.ErrNotFound
	}
	g.CompletedJobs++
	return nil
}

type fakeAttempts struct {
	mu       sync.Mutex
	attempts []*models.DispatchAttempt
}

func (f *fakeAttempts) Create(a *models.DispatchAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.attempts = append(f.attempts, &cp)
	return nil
}

func (f *fakeAttempts) GetByID(id string) (*models.DispatchAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, attemptRepo.ErrNotFound
}

func (f *fakeAttempts) Resolve(id, outcome string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.ID == id {
			if a.Outcome != models.AttemptPending {
				return false, nil
			}
			a.Outcome = outcome
			a.RespondedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAttempts) PendingByGroomer(groomerID string) (*models.DispatchAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.attempts) - 1; i >= 0; i-- {
		a := f.attempts[i]
		if a.GroomerID == groomerID && a.Outcome == models.AttemptPending {
			cp := *a
			return &cp, nil
		}
	}
	return nil, attemptRepo.ErrNotFound
}

func (f *fakeAttempts) PendingByBooking(bookingID string) (*models.DispatchAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.attempts) - 1; i >= 0; i-- {
		a := f.attempts[i]
		if a.BookingID == bookingID && a.Outcome == models.AttemptPending {
			cp := *a
			return &cp, nil
		}
	}
	return nil, attemptRepo.ErrNotFound
}

func (f *fakeAttempts) TriedGroomerIDs(bookingID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, a := range f.attempts {
		if a.BookingID == bookingID && !seen[a.GroomerID] {
			seen[a.GroomerID] = true
			out = append(out, a.GroomerID)
		}
	}
	return out, nil
}

type fakeEarnings struct {
	mu       sync.Mutex
	earnings []*models.Earning
	advances []*models.AdvanceRequest
}

func (f *fakeEarnings) CreateEarning(e *models.Earning) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *e
	f.earnings = append(f.earnings, &cp)
	return nil
}

func (f *fakeEarnings) UnpaidTotal(groomerID string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total float64
	for _, e := range f.earnings {
		if e.GroomerID == groomerID && !e.Paid {
			total += e.Amount
		}
	}
	return total, nil
}

func (f *fakeEarnings) CreateAdvanceRequest(a *models.AdvanceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.advances = append(f.advances, &cp)
	return nil
}

// fakeGateway records payment calls; failRefund makes refunds error.
type fakeGateway struct {
	mu         sync.Mutex
	failRefund bool
	initiated  []float64
	refunds    []float64
	transfers  []float64
}

func (g *fakeGateway) Initiate(_ context.Context, amount float64, bookingRef string) (*payment.InitiateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initiated = append(g.initiated, amount)
	return &payment.InitiateResult{
		AuthorizationURL: "https://pay.example/" + bookingRef,
		TransactionRef:   "txn-" + bookingRef,
	}, nil
}

func (g *fakeGateway) Verify(_ context.Context, transactionRef string) (bool, error) {
	return true, nil
}

func (g *fakeGateway) Refund(_ context.Context, transactionRef string, amount float64, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failRefund {
		return errors.New("gateway unavailable")
	}
	g.refunds = append(g.refunds, amount)
	return nil
}

func (g *fakeGateway) Transfer(_ context.Context, recipient string, amount float64, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transfers = append(g.transfers, amount)
	return nil
}

type fakeReconciler struct {
	mu     sync.Mutex
	queued []float64
}

func (r *fakeReconciler) QueueRefund(transactionRef string, amount float64, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queued = append(r.queued, amount)
	return nil
}

type fakeDispatcher struct {
	mu        sync.Mutex
	calls     []string
	failCalls []string
}

func (d *fakeDispatcher) TryNextCandidate(bookingID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, bookingID)
	return nil
}

func (d *fakeDispatcher) FailNoGroomer(bookingID, why string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failCalls = append(d.failCalls, bookingID)
	return nil
}

type recordingStrikes struct {
	mu      sync.Mutex
	reasons []string
}

func (s *recordingStrikes) IssueStrike(groomerID, bookingID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reasons = append(s.reasons, groomerID+":"+reason)
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
	bodies []string
}

func (n *recordingNotifier) NotifyCustomer(_ context.Context, customerID, title, body string, data map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	n.bodies = append(n.bodies, body)
	return nil
}

type recordingMessenger struct {
	mu    sync.Mutex
	texts []string
}

func (m *recordingMessenger) SendOffer(contact string, offer messaging.Offer) error { return nil }

func (m *recordingMessenger) SendText(contact, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, body)
	return nil
}

func (m *recordingMessenger) SendStatusAck(contact, bookingRef, status string) error { return nil }

package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	attemptRepo "groomly/database/repository/attempt"
	bookingRepo "groomly/database/repository/booking"
	customerRepo "groomly/database/repository/customer"
	groomerRepo "groomly/database/repository/groomer"
	"groomly/models"
	"groomly/services/messaging"
	"groomly/services/payment"
)

// eventLog records cross-fake call ordering so tests can assert things
// like "attempt persisted before deadline armed".
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakeBookings struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
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
	if gid, ok := set["groomerId"]; ok {
		if s, ok := gid.(string); ok {
			b.GroomerID = s
		}
	}
	if v, ok := set["refundRate"].(float64); ok {
		b.RefundRate = v
	}
	if v, ok := set["refundAmount"].(float64); ok {
		b.RefundAmount = v
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
	return nil, nil
}

func (f *fakeBookings) FindUnconfirmedCompleted(before time.Time) ([]models.Booking, error) {
	return nil, nil
}

type fakeGroomers struct {
	mu       sync.Mutex
	groomers map[string]*models.Groomer
	// eligible is returned by FindEligible in order, minus exclusions.
	eligible []string
}

func newFakeGroomers(gs ...*models.Groomer) *fakeGroomers {
	f := &fakeGroomers{groomers: make(map[string]*models.Groomer)}
	for _, g := range gs {
		cp := *g
		f.groomers[g.ID] = &cp
		f.eligible = append(f.eligible, g.ID)
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
	f.mu.Lock()
	defer f.mu.Unlock()
	excluded := make(map[string]bool, len(q.ExcludeIDs))
	for _, id := range q.ExcludeIDs {
		excluded[id] = true
	}
	var out []models.Groomer
	for _, id := range f.eligible {
		g := f.groomers[id]
		if excluded[id] || !g.Eligible() {
			continue
		}
		out = append(out, *g)
	}
	return out, nil
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
	log      *eventLog
}

func (f *fakeAttempts) Create(a *models.DispatchAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.attempts = append(f.attempts, &cp)
	if f.log != nil {
		f.log.add("attempt-created:" + a.GroomerID)
	}
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

type fakeCustomers struct {
	mu        sync.Mutex
	customers map[string]*models.Customer
}

func newFakeCustomers(cs ...*models.Customer) *fakeCustomers {
	f := &fakeCustomers{customers: make(map[string]*models.Customer)}
	for _, c := range cs {
		cp := *c
		f.customers[c.ID] = &cp
	}
	return f
}

func (f *fakeCustomers) Create(c *models.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.customers[c.ID] = &cp
	return nil
}

func (f *fakeCustomers) GetByID(id string) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return nil, customerRepo.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCustomers) SetSquad(id string, squad []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return customerRepo.ErrNotFound
	}
	c.Squad = squad
	return nil
}

// recordingMessenger captures outbound traffic.
type recordingMessenger struct {
	mu     sync.Mutex
	offers []messaging.Offer
	texts  []string
	acks   []string
}

func (m *recordingMessenger) SendOffer(contact string, offer messaging.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offers = append(m.offers, offer)
	return nil
}

func (m *recordingMessenger) SendText(contact, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, body)
	return nil
}

func (m *recordingMessenger) SendStatusAck(contact, bookingRef, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acks = append(m.acks, bookingRef+":"+status)
	return nil
}

// recordingDeadlines captures armed deadlines without ever firing them.
type recordingDeadlines struct {
	mu        sync.Mutex
	scheduled []string
	durations []time.Duration
	log       *eventLog
}

func (d *recordingDeadlines) ScheduleOfferTimeout(attemptID string, dur time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scheduled = append(d.scheduled, attemptID)
	d.durations = append(d.durations, dur)
	if d.log != nil {
		d.log.add("deadline-armed")
	}
	return nil
}

// recordingStrikes captures strike calls without side effects.
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

// fakeGateway records refund calls; failRefund makes them error.
type fakeGateway struct {
	mu         sync.Mutex
	failRefund bool
	refunds    []float64
}

func (g *fakeGateway) Initiate(_ context.Context, amount float64, bookingRef string) (*payment.InitiateResult, error) {
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

// recordingNotifier captures customer pushes.
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

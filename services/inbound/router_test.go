package inbound

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	groomerRepo "groomly/database/repository/groomer"
	"groomly/models"
	"groomly/services/dispatch"
	"groomly/services/lifecycle"
	"groomly/services/messaging"
)

type fakeGroomers struct {
	mu       sync.Mutex
	groomers map[string]*models.Groomer
}

func (f *fakeGroomers) Create(g *models.Groomer) error { return nil }

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

func (f *fakeGroomers) FindEligible(groomerRepo.EligibilityQuery) ([]models.Groomer, error) {
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

func (f *fakeGroomers) Assign(id, bookingID string) error          { return nil }
func (f *fakeGroomers) Release(id, bookingID string) (bool, error) { return false, nil }
func (f *fakeGroomers) IncrementStrikes(id string) (int, error)    { return 0, nil }
func (f *fakeGroomers) Suspend(id string) error                    { return nil }
func (f *fakeGroomers) IncrementCompletedJobs(id string) error     { return nil }

type stubResponder struct {
	mu    sync.Mutex
	calls []bool // accept flags, in order
	err   error
}

func (s *stubResponder) HandleResponse(groomerID string, accept bool, bookingID string) (dispatch.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, accept)
	if s.err != nil {
		return dispatch.Response{}, s.err
	}
	return dispatch.Response{Accepted: accept, BookingID: "b1"}, nil
}

type stubLifecycle struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *stubLifecycle) record(op string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op)
	if s.err != nil {
		return nil, s.err
	}
	return &models.Booking{ID: "b1", Reference: "GRM-B1", Status: models.StatusEnRoute}, nil
}

func (s *stubLifecycle) MarkEnRoute(string) (*models.Booking, error)     { return s.record("enroute") }
func (s *stubLifecycle) MarkArrived(string) (*models.Booking, error)     { return s.record("arrived") }
func (s *stubLifecycle) MarkDone(string) (*models.Booking, error)        { return s.record("done") }
func (s *stubLifecycle) CancelByGroomer(string) (*models.Booking, error) { return s.record("cancel") }

type stubEarnings struct {
	balance float64
}

func (s *stubEarnings) Balance(string) (float64, error) { return s.balance, nil }

func (s *stubEarnings) RequestAdvance(groomerID string, amount float64) (*models.AdvanceRequest, error) {
	return &models.AdvanceRequest{GroomerID: groomerID, Amount: amount}, nil
}

type recordingMessenger struct {
	mu    sync.Mutex
	texts []string
	acks  []string
}

func (m *recordingMessenger) SendOffer(string, messaging.Offer) error { return nil }

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

type routerEnv struct {
	router    *Router
	groomers  *fakeGroomers
	responder *stubResponder
	jobs      *stubLifecycle
	messenger *recordingMessenger
}

func newRouterEnv(g *models.Groomer) *routerEnv {
	env := &routerEnv{
		groomers:  &fakeGroomers{groomers: map[string]*models.Groomer{}},
		responder: &stubResponder{},
		jobs:      &stubLifecycle{},
		messenger: &recordingMessenger{},
	}
	if g != nil {
		env.groomers.groomers[g.ID] = g
	}
	env.router = &Router{
		Groomers:  env.groomers,
		Dispatch:  env.responder,
		Lifecycle: env.jobs,
		Earnings:  &stubEarnings{balance: 15000},
		Messenger: env.messenger,
		Logger:    zap.NewNop(),
	}
	return env
}

func offlineGroomer() *models.Groomer {
	return &models.Groomer{
		ID:           "g1",
		Phone:        "+2348031234567",
		Status:       models.GroomerActive,
		Availability: models.AvailabilityOffline,
	}
}

func TestUnknownSenderIsSilentlyIgnored(t *testing.T) {
	env := newRouterEnv(nil)
	require.NoError(t, env.router.HandleInbound("+2348099999999", "YES"))
	assert.Empty(t, env.messenger.texts)
	assert.Empty(t, env.responder.calls)
}

func TestUnknownTokenIsSilentlyIgnored(t *testing.T) {
	env := newRouterEnv(offlineGroomer())
	require.NoError(t, env.router.HandleInbound("+2348031234567", "hello there"))
	assert.Empty(t, env.messenger.texts)
}

func TestPhoneIsNormalizedBeforeLookup(t *testing.T) {
	env := newRouterEnv(offlineGroomer())
	// Local format with a leading zero resolves to the same groomer.
	require.NoError(t, env.router.HandleInbound("08031234567", "ON"))

	g, _ := env.groomers.GetByID("g1")
	assert.Equal(t, models.AvailabilityOnline, g.Availability)
}

func TestYesAndNoRouteToOfferResponder(t *testing.T) {
	env := newRouterEnv(offlineGroomer())
	require.NoError(t, env.router.HandleInbound("+2348031234567", "yes"))
	require.NoError(t, env.router.HandleInbound("+2348031234567", "No"))
	assert.Equal(t, []bool{true, false}, env.responder.calls)
}

func TestNoOpenOfferGetsExplanation(t *testing.T) {
	env := newRouterEnv(offlineGroomer())
	env.responder.err = dispatch.ErrNoOpenOffer

	require.NoError(t, env.router.HandleInbound("+2348031234567", "YES"))
	require.Len(t, env.messenger.texts, 1)
	assert.Contains(t, env.messenger.texts[0], "no open job offer")
}

func TestOnOffToggles(t *testing.T) {
	env := newRouterEnv(offlineGroomer())

	require.NoError(t, env.router.HandleInbound("+2348031234567", "ON"))
	g, _ := env.groomers.GetByID("g1")
	assert.Equal(t, models.AvailabilityOnline, g.Availability)

	require.NoError(t, env.router.HandleInbound("+2348031234567", "OFF"))
	g, _ = env.groomers.GetByID("g1")
	assert.Equal(t, models.AvailabilityOffline, g.Availability)
}

func TestBusyGroomerCannotToggleAvailability(t *testing.T) {
	g := offlineGroomer()
	g.Availability = models.AvailabilityBusy
	g.CurrentBookingID = "b1"
	env := newRouterEnv(g)

	require.NoError(t, env.router.HandleInbound("+2348031234567", "OFF"))

	got, _ := env.groomers.GetByID("g1")
	assert.Equal(t, models.AvailabilityBusy, got.Availability)
	require.Len(t, env.messenger.texts, 1)
	assert.Contains(t, env.messenger.texts[0], "active job")
}

func TestSuspendedGroomerCannotGoOnline(t *testing.T) {
	g := offlineGroomer()
	g.Status = models.GroomerSuspended
	env := newRouterEnv(g)

	require.NoError(t, env.router.HandleInbound("+2348031234567", "ON"))

	got, _ := env.groomers.GetByID("g1")
	assert.Equal(t, models.AvailabilityOffline, got.Availability)
	require.Len(t, env.messenger.texts, 1)
	assert.Contains(t, env.messenger.texts[0], "suspended")
}

func TestProgressCommandsRouteToLifecycle(t *testing.T) {
	env := newRouterEnv(offlineGroomer())

	require.NoError(t, env.router.HandleInbound("+2348031234567", "OTWAY"))
	require.NoError(t, env.router.HandleInbound("+2348031234567", "ARRIVED"))
	require.NoError(t, env.router.HandleInbound("+2348031234567", "DONE"))
	require.NoError(t, env.router.HandleInbound("+2348031234567", "CANCEL"))

	assert.Equal(t, []string{"enroute", "arrived", "done", "cancel"}, env.jobs.calls)
	assert.Len(t, env.messenger.acks, 3) // cancel has its own messaging
}

func TestProgressWithNoActiveBookingGetsExplanation(t *testing.T) {
	env := newRouterEnv(offlineGroomer())
	env.jobs.err = lifecycle.ErrNoActiveBooking

	require.NoError(t, env.router.HandleInbound("+2348031234567", "DONE"))
	require.Len(t, env.messenger.texts, 1)
	assert.Contains(t, env.messenger.texts[0], "no active job")
}

func TestBalanceScoreAndHelpQueries(t *testing.T) {
	g := offlineGroomer()
	g.Rating = 4.7
	g.CompletedJobs = 31
	g.Strikes = 1
	env := newRouterEnv(g)

	require.NoError(t, env.router.HandleInbound("+2348031234567", "BALANCE"))
	require.NoError(t, env.router.HandleInbound("+2348031234567", "SCORE"))
	require.NoError(t, env.router.HandleInbound("+2348031234567", "HELP"))

	require.Len(t, env.messenger.texts, 3)
	assert.Contains(t, env.messenger.texts[0], "15000")
	assert.Contains(t, env.messenger.texts[1], "4.7")
	assert.Contains(t, env.messenger.texts[1], "31 completed jobs")
	assert.Contains(t, env.messenger.texts[2], "YES accept offer")
}

func TestAdvanceRequiresAValidAmount(t *testing.T) {
	env := newRouterEnv(offlineGroomer())

	require.NoError(t, env.router.HandleInbound("+2348031234567", "ADVANCE abc"))
	require.NoError(t, env.router.HandleInbound("+2348031234567", "ADVANCE"))
	require.NoError(t, env.router.HandleInbound("+2348031234567", "ADVANCE 5000"))

	require.Len(t, env.messenger.texts, 3)
	assert.Contains(t, env.messenger.texts[0], "ADVANCE followed by the amount")
	assert.Contains(t, env.messenger.texts[1], "ADVANCE followed by the amount")
	assert.Contains(t, env.messenger.texts[2], "5000")
	assert.Contains(t, env.messenger.texts[2], "review")
}

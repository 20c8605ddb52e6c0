package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/transfer"
	"go.uber.org/zap"
)

// StripeGateway implements Gateway over Stripe Checkout. The global
// stripe.Key is set once at startup from config.
type StripeGateway struct {
	Currency    string
	CallbackURL string
	Logger      *zap.Logger
}

func NewStripeGateway(currency, callbackURL string, logger *zap.Logger) *StripeGateway {
	return &StripeGateway{Currency: currency, CallbackURL: callbackURL, Logger: logger}
}

// minorUnits converts a display amount to Stripe's integer minor units.
func minorUnits(amount float64) int64 {
	return int64(amount*100 + 0.5)
}

// Initiate creates a Checkout Session for the booking total. The session
// ID doubles as the transaction reference for later verification and
// refunds.
func (g *StripeGateway) Initiate(ctx context.Context, amount float64, bookingRef string) (*InitiateResult, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(bookingRef),
		SuccessURL:        stripe.String(g.CallbackURL + "?reference=" + bookingRef),
		CancelURL:         stripe.String(g.CallbackURL + "?reference=" + bookingRef + "&cancelled=1"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(g.Currency),
					UnitAmount: stripe.Int64(minorUnits(amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Groomly booking " + bookingRef),
					},
				},
			},
		},
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: failed to create checkout session: %w", err)
	}

	g.Logger.Info("checkout session created",
		zap.String("bookingRef", bookingRef),
		zap.String("sessionId", s.ID),
	)
	return &InitiateResult{AuthorizationURL: s.URL, TransactionRef: s.ID}, nil
}

// Verify fetches the session and reports whether the payment was
// captured.
func (g *StripeGateway) Verify(ctx context.Context, transactionRef string) (bool, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := session.Get(transactionRef, params)
	if err != nil {
		return false, fmt.Errorf("stripe: failed to fetch session %s: %w", transactionRef, err)
	}
	return s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid, nil
}

// Refund returns amount against the payment intent behind the session.
func (g *StripeGateway) Refund(ctx context.Context, transactionRef string, amount float64, reason string) error {
	sessParams := &stripe.CheckoutSessionParams{}
	sessParams.Context = ctx
	s, err := session.Get(transactionRef, sessParams)
	if err != nil {
		return fmt.Errorf("stripe: failed to fetch session %s for refund: %w", transactionRef, err)
	}
	if s.PaymentIntent == nil {
		return fmt.Errorf("stripe: session %s has no payment intent to refund", transactionRef)
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(s.PaymentIntent.ID),
		Amount:        stripe.Int64(minorUnits(amount)),
	}
	params.Context = ctx
	params.AddMetadata("reason", reason)

	r, err := refund.New(params)
	if err != nil {
		return fmt.Errorf("stripe: refund failed for session %s: %w", transactionRef, err)
	}

	g.Logger.Info("refund issued",
		zap.String("transactionRef", transactionRef),
		zap.String("refundId", r.ID),
		zap.Float64("amount", amount),
	)
	return nil
}

// Transfer moves a payout to a groomer's connected account.
func (g *StripeGateway) Transfer(ctx context.Context, recipient string, amount float64, reason string) error {
	params := &stripe.TransferParams{
		Amount:      stripe.Int64(minorUnits(amount)),
		Currency:    stripe.String(g.Currency),
		Destination: stripe.String(recipient),
		Description: stripe.String(reason),
	}
	params.Context = ctx

	t, err := transfer.New(params)
	if err != nil {
		return fmt.Errorf("stripe: transfer to %s failed: %w", recipient, err)
	}

	g.Logger.Info("transfer sent",
		zap.String("recipient", recipient),
		zap.String("transferId", t.ID),
		zap.Float64("amount", amount),
	)
	return nil
}

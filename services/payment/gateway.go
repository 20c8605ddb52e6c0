package payment

import "context"

// InitiateResult is what the gateway hands back when a charge is set up.
// The customer completes the charge at AuthorizationURL; TransactionRef
// is the gateway's handle used for verification and refunds.
type InitiateResult struct {
	AuthorizationURL string
	TransactionRef   string
}

// Gateway abstracts the payment provider. Amounts are in the platform's
// display currency units (not minor units); implementations convert.
type Gateway interface {
	// Initiate sets up a charge for the given amount tagged with the
	// booking reference.
	Initiate(ctx context.Context, amount float64, bookingRef string) (*InitiateResult, error)

	// Verify reports whether the charge behind transactionRef was
	// actually captured. Called on the payment callback before any
	// booking moves past pending-payment.
	Verify(ctx context.Context, transactionRef string) (bool, error)

	// Refund returns part or all of a captured charge.
	Refund(ctx context.Context, transactionRef string, amount float64, reason string) error

	// Transfer pays out to a groomer's connected account.
	Transfer(ctx context.Context, recipient string, amount float64, reason string) error
}

// Reconciler re-queues money movements that failed after their booking
// transition already committed. Booking state is never rolled back for a
// gateway failure; the movement is retried out of band instead.
type Reconciler interface {
	QueueRefund(transactionRef string, amount float64, reason string) error
}

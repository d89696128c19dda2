package payments

import "context"

// Verdict is the settlement state of one invoice as reported by the gateway.
type Verdict string

const (
	VerdictPaid      Verdict = "paid"
	VerdictPending   Verdict = "pending"
	VerdictFailed    Verdict = "failed"
	VerdictCancelled Verdict = "cancelled"
)

// Invoice is the gateway-side handle for one online payment.
type Invoice struct {
	Ref string `json:"ref"` // gateway reference, stored on the booking
	URL string `json:"url"` // hosted payment page handed to the client
}

// Handler is the payments port. CreateInvoice opens a payment for a held
// booking; VerifyPayment is polled by the reconciler until the invoice
// settles one way or the other.
type Handler interface {
	CreateInvoice(ctx context.Context, bookingID int64, amountMinor int64, currency string) (*Invoice, error)
	VerifyPayment(ctx context.Context, invoiceRef string) (Verdict, error)
}

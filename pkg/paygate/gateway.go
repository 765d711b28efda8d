package paygate

import "context"

// EventKind classifies a verified gateway callback.
type EventKind string

const (
	EventPaid    EventKind = "paid"
	EventFailed  EventKind = "failed"
	EventIgnored EventKind = "ignored"
)

// Event is a gateway callback after verification against the gateway's API.
type Event struct {
	Kind       EventKind
	IntentRef  string
	BookingRef string
	Reason     string
}

// Gateway is the payment collaborator boundary. The engine only ever creates
// intents, issues refunds and consumes verified success/failure signals; the
// gateway's internals stay on the other side of this interface.
type Gateway interface {
	CreateIntent(ctx context.Context, amount float64, bookingRef string) (intentRef, clientSecret string, err error)
	Refund(ctx context.Context, intentRef string, amount float64) error
	ResolveEvent(ctx context.Context, eventID string) (Event, error)
}

package paygate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
	"go.uber.org/zap"

	"driveway-booking/pkg/retry"
)

// OmiseGateway implements Gateway against the Omise charge API. A charge
// created uncaptured plays the role of the payment intent; its authorize URI
// is what the client needs to finish the payment.
type OmiseGateway struct {
	client   *omise.Client
	currency string
	log      *zap.Logger
}

func NewOmiseGateway(publicKey, secretKey, currency string, log *zap.Logger) (*OmiseGateway, error) {
	client, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("omise client: %w", err)
	}
	client.SetDebug(false)

	return &OmiseGateway{
		client:   client,
		currency: currency,
		log:      log.With(zap.String("component", "paygate")),
	}, nil
}

func (g *OmiseGateway) CreateIntent(ctx context.Context, amount float64, bookingRef string) (string, string, error) {
	charge := &omise.Charge{}
	err := g.client.Do(charge, &operations.CreateCharge{
		Amount:   subunits(amount),
		Currency: g.currency,
		Metadata: map[string]interface{}{"booking_ref": bookingRef},
	})
	if err != nil {
		return "", "", classify(err)
	}

	g.log.Info("Payment intent created",
		zap.String("intent_ref", charge.ID),
		zap.String("booking_ref", bookingRef),
		zap.Float64("amount", amount),
	)

	return charge.ID, charge.AuthorizeURI, nil
}

func (g *OmiseGateway) Refund(ctx context.Context, intentRef string, amount float64) error {
	refund := &omise.Refund{}
	err := g.client.Do(refund, &operations.CreateRefund{
		ChargeID: intentRef,
		Amount:   subunits(amount),
	})
	if err != nil {
		return classify(err)
	}

	g.log.Info("Refund issued",
		zap.String("intent_ref", intentRef),
		zap.Float64("amount", amount),
	)
	return nil
}

// ResolveEvent re-fetches the event from the gateway instead of trusting the
// webhook body, then maps it onto the engine's paid/failed signals.
func (g *OmiseGateway) ResolveEvent(ctx context.Context, eventID string) (Event, error) {
	ev := &omise.Event{}
	if err := g.client.Do(ev, &operations.RetrieveEvent{EventID: eventID}); err != nil {
		return Event{}, classify(err)
	}

	if ev.Key != "charge.complete" {
		return Event{Kind: EventIgnored}, nil
	}

	raw, err := json.Marshal(ev.Data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal event data: %w", err)
	}
	var charge omise.Charge
	if err := json.Unmarshal(raw, &charge); err != nil {
		return Event{}, fmt.Errorf("unmarshal charge: %w", err)
	}

	bookingRef, _ := charge.Metadata["booking_ref"].(string)

	if charge.Status == omise.ChargeSuccessful {
		return Event{Kind: EventPaid, IntentRef: charge.ID, BookingRef: bookingRef}, nil
	}

	reason := ""
	if charge.FailureCode != nil {
		reason = *charge.FailureCode
	}
	return Event{Kind: EventFailed, IntentRef: charge.ID, BookingRef: bookingRef, Reason: reason}, nil
}

// classify marks gateway-side outages as transient so the retry policy picks
// them up; API rejections stay permanent.
func classify(err error) error {
	var oerr *omise.Error
	if errors.As(err, &oerr) {
		switch oerr.Code {
		case "internal_error", "service_unavailable":
			return retry.Transient(err)
		}
		return err
	}
	// No structured API error means the request never got a response.
	return retry.Transient(err)
}

func subunits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

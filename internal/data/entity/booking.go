package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusExpired   BookingStatus = "expired"
	BookingStatusCompleted BookingStatus = "completed"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// State is the joint booking/payment status pair. Only the combinations in
// legalStates can ever be reached through the transition methods below, so
// the two fields cannot drift apart.
type State struct {
	Status  BookingStatus
	Payment PaymentStatus
}

var legalStates = map[State]bool{
	{BookingStatusPending, PaymentStatusPending}:    true,
	{BookingStatusConfirmed, PaymentStatusPaid}:     true,
	{BookingStatusCancelled, PaymentStatusPending}:  true,
	{BookingStatusCancelled, PaymentStatusFailed}:   true,
	{BookingStatusCancelled, PaymentStatusRefunded}: true,
	{BookingStatusExpired, PaymentStatusPending}:    true,
	{BookingStatusExpired, PaymentStatusFailed}:     true,
	{BookingStatusCompleted, PaymentStatusPaid}:     true,
}

func (s State) Legal() bool {
	return legalStates[s]
}

// Terminal reports whether the booking has reached a final state. Terminal
// bookings never count against driveway capacity.
func (s State) Terminal() bool {
	switch s.Status {
	case BookingStatusCancelled, BookingStatusExpired, BookingStatusCompleted:
		return true
	}
	return false
}

// ConsumesCapacity reports whether the booking still holds a slot.
func (s State) ConsumesCapacity() bool {
	return s.Status == BookingStatusPending || s.Status == BookingStatusConfirmed
}

var ErrIllegalTransition = errors.New("illegal booking state transition")

type Booking struct {
	Base
	Reference        string        `db:"reference"`
	DrivewayID       uuid.UUID     `db:"driveway_id"`
	DriverID         uuid.UUID     `db:"driver_id"`
	StartTime        time.Time     `db:"start_time"`
	EndTime          time.Time     `db:"end_time"`
	TotalPrice       float64       `db:"total_price"`
	Status           BookingStatus `db:"status"`
	PaymentStatus    PaymentStatus `db:"payment_status"`
	PaymentIntentRef *string       `db:"payment_intent_ref"`
	VehicleInfo      *string       `db:"vehicle_info"`
}

func (b *Booking) State() State {
	return State{Status: b.Status, Payment: b.PaymentStatus}
}

func (b *Booking) setState(s State, now time.Time) {
	b.Status = s.Status
	b.PaymentStatus = s.Payment
	b.UpdatedAt = now
}

// ConfirmPayment moves pending/pending to confirmed/paid after the gateway
// reports a succeeded payment for this booking's intent.
func (b *Booking) ConfirmPayment(now time.Time) error {
	if b.State() != (State{BookingStatusPending, PaymentStatusPending}) {
		return ErrIllegalTransition
	}
	b.setState(State{BookingStatusConfirmed, PaymentStatusPaid}, now)
	return nil
}

// FailPayment handles an explicit payment-failure callback. A pending
// booking is cancelled with a failed payment; a booking that already expired
// while the callback was in flight keeps expired status and records the
// failure.
func (b *Booking) FailPayment(now time.Time) error {
	switch b.State() {
	case State{BookingStatusPending, PaymentStatusPending}:
		b.setState(State{BookingStatusCancelled, PaymentStatusFailed}, now)
	case State{BookingStatusExpired, PaymentStatusPending}:
		b.setState(State{BookingStatusExpired, PaymentStatusFailed}, now)
	default:
		return ErrIllegalTransition
	}
	return nil
}

// Cancel handles driver- or owner-initiated cancellation. Cancelling a
// confirmed booking also flips the payment to refunded; the caller is
// responsible for actually issuing the refund with the gateway.
func (b *Booking) Cancel(now time.Time) error {
	switch {
	case b.Status == BookingStatusPending:
		b.setState(State{BookingStatusCancelled, b.PaymentStatus}, now)
	case b.State() == (State{BookingStatusConfirmed, PaymentStatusPaid}):
		b.setState(State{BookingStatusCancelled, PaymentStatusRefunded}, now)
	default:
		return ErrIllegalTransition
	}
	return nil
}

// Expire releases a pending booking whose payment never arrived within the
// reservation hold timeout.
func (b *Booking) Expire(now time.Time) error {
	if b.State() != (State{BookingStatusPending, PaymentStatusPending}) {
		return ErrIllegalTransition
	}
	b.setState(State{BookingStatusExpired, PaymentStatusPending}, now)
	return nil
}

// Complete settles a confirmed booking once its window has fully elapsed.
func (b *Booking) Complete(now time.Time) error {
	if b.State() != (State{BookingStatusConfirmed, PaymentStatusPaid}) {
		return ErrIllegalTransition
	}
	if now.Before(b.EndTime) {
		return ErrIllegalTransition
	}
	b.setState(State{BookingStatusCompleted, PaymentStatusPaid}, now)
	return nil
}

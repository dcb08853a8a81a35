package domain

import (
	"encoding/json"
	"time"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Seat count limits for a single booking.
const (
	MinSeatsPerBooking = 1
	MaxSeatsPerBooking = 10
)

type Booking struct {
	ID               int64
	BookingID        string
	UserID           int64
	TravelOptionID   int64
	TravelID         string
	Seats            int
	TotalPriceCents  int64
	Status           BookingStatus
	PassengerDetails json.RawMessage
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

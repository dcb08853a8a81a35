package domain

import (
	"fmt"
	"strings"
	"time"
)

type TravelKind string

const (
	TravelKindFlight TravelKind = "flight"
	TravelKindTrain  TravelKind = "train"
	TravelKindBus    TravelKind = "bus"
)

func (k TravelKind) Valid() bool {
	switch k {
	case TravelKindFlight, TravelKindTrain, TravelKindBus:
		return true
	}
	return false
}

const MaxTotalSeats = 500

type TravelOption struct {
	ID             int64
	TravelID       string
	Kind           TravelKind
	Source         string
	Destination    string
	DepartureAt    time.Time
	ArrivalAt      time.Time
	PriceCents     int64
	TotalSeats     int
	AvailableSeats int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks the catalog invariants before an option is persisted.
// Seat accounting afterwards only moves available_seats between 0 and
// total_seats, so these hold for the lifetime of the row.
func (t *TravelOption) Validate(now time.Time) error {
	if t.TravelID == "" {
		return ValidationError{Field: "travel_id", Msg: "is required"}
	}
	if !t.Kind.Valid() {
		return ValidationError{Field: "kind", Msg: "must be flight, train or bus"}
	}
	if t.Source == "" || t.Destination == "" {
		return ValidationError{Field: "route", Msg: "source and destination are required"}
	}
	if strings.EqualFold(t.Source, t.Destination) {
		return ValidationError{Field: "route", Msg: "source and destination cannot be the same"}
	}
	if t.PriceCents <= 0 {
		return ValidationError{Field: "price_cents", Msg: "must be positive"}
	}
	if t.TotalSeats < 1 || t.TotalSeats > MaxTotalSeats {
		return ValidationError{Field: "total_seats", Msg: fmt.Sprintf("must be between 1 and %d", MaxTotalSeats)}
	}
	if t.AvailableSeats < 0 || t.AvailableSeats > t.TotalSeats {
		return ValidationError{Field: "available_seats", Msg: "cannot exceed total seats"}
	}
	if dateOf(t.DepartureAt).Before(dateOf(now)) {
		return ValidationError{Field: "departure_at", Msg: "cannot be in the past"}
	}
	if t.ArrivalAt.Before(t.DepartureAt) {
		return ValidationError{Field: "arrival_at", Msg: "cannot be before departure"}
	}
	return nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// TravelSearchFilters narrows the upcoming-options query. Zero values mean
// "not set"; every set filter is applied conjunctively.
type TravelSearchFilters struct {
	Source        string
	Destination   string
	Kind          TravelKind
	Date          *time.Time
	MinPriceCents *int64
	MaxPriceCents *int64
	Limit         int
	Offset        int
}

func (f TravelSearchFilters) Empty() bool {
	return f.Source == "" && f.Destination == "" && f.Kind == "" &&
		f.Date == nil && f.MinPriceCents == nil && f.MaxPriceCents == nil && f.Offset == 0
}

// Validate rejects filter combinations before they reach the data layer.
func (f TravelSearchFilters) Validate(now time.Time) error {
	if f.Source != "" && f.Destination != "" && strings.EqualFold(f.Source, f.Destination) {
		return ValidationError{Field: "route", Msg: "source and destination cannot be the same"}
	}
	if f.Kind != "" && !f.Kind.Valid() {
		return ValidationError{Field: "kind", Msg: "must be flight, train or bus"}
	}
	if f.MinPriceCents != nil && *f.MinPriceCents < 0 {
		return ValidationError{Field: "min_price_cents", Msg: "cannot be negative"}
	}
	if f.MinPriceCents != nil && f.MaxPriceCents != nil && *f.MinPriceCents > *f.MaxPriceCents {
		return ValidationError{Field: "min_price_cents", Msg: "cannot be greater than max price"}
	}
	if f.Date != nil && dateOf(*f.Date).Before(dateOf(now)) {
		return ValidationError{Field: "date", Msg: "cannot be in the past"}
	}
	return nil
}

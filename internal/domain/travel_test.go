package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validOption(now time.Time) TravelOption {
	departure := now.Add(72 * time.Hour)
	return TravelOption{
		TravelID:       "TR1234",
		Kind:           TravelKindFlight,
		Source:         "Mumbai",
		Destination:    "Delhi",
		DepartureAt:    departure,
		ArrivalAt:      departure.Add(2 * time.Hour),
		PriceCents:     850000,
		TotalSeats:     60,
		AvailableSeats: 50,
	}
}

func TestTravelOptionValidate(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		name   string
		mutate func(*TravelOption)
		valid  bool
	}{
		{name: "valid option", mutate: func(*TravelOption) {}, valid: true},
		{name: "same route case-insensitive", mutate: func(o *TravelOption) { o.Destination = "MUMBAI" }},
		{name: "zero price", mutate: func(o *TravelOption) { o.PriceCents = 0 }},
		{name: "zero total seats", mutate: func(o *TravelOption) { o.TotalSeats = 0 }},
		{name: "too many total seats", mutate: func(o *TravelOption) { o.TotalSeats = 501 }},
		{name: "available above total", mutate: func(o *TravelOption) { o.AvailableSeats = 61 }},
		{name: "negative available", mutate: func(o *TravelOption) { o.AvailableSeats = -1 }},
		{name: "past departure", mutate: func(o *TravelOption) {
			o.DepartureAt = now.AddDate(0, 0, -2)
			o.ArrivalAt = now.AddDate(0, 0, -1)
		}},
		{name: "arrival before departure", mutate: func(o *TravelOption) { o.ArrivalAt = o.DepartureAt.Add(-time.Hour) }},
		{name: "unknown kind", mutate: func(o *TravelOption) { o.Kind = "boat" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			option := validOption(now)
			tc.mutate(&option)
			err := option.Validate(now)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, IsValidation(err), "expected validation error, got %v", err)
			}
		})
	}
}

func TestTravelOptionValidate_SameDayDeparture(t *testing.T) {
	// departing later today is not "in the past"
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	option := validOption(now)
	option.DepartureAt = time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	option.ArrivalAt = option.DepartureAt.Add(2 * time.Hour)

	assert.NoError(t, option.Validate(now))
}

func TestTravelSearchFiltersValidate(t *testing.T) {
	now := time.Now()
	min := int64(200)
	max := int64(100)
	future := now.Add(24 * time.Hour)

	assert.NoError(t, TravelSearchFilters{}.Validate(now))
	assert.NoError(t, TravelSearchFilters{Source: "Mumbai", Destination: "Delhi", Date: &future}.Validate(now))

	err := TravelSearchFilters{Source: "Mumbai", Destination: "mumbai"}.Validate(now)
	assert.True(t, IsValidation(err))

	err = TravelSearchFilters{MinPriceCents: &min, MaxPriceCents: &max}.Validate(now)
	assert.True(t, IsValidation(err))
}

func TestTravelSearchFiltersEmpty(t *testing.T) {
	assert.True(t, TravelSearchFilters{}.Empty())
	assert.True(t, TravelSearchFilters{Limit: 10}.Empty())
	assert.False(t, TravelSearchFilters{Source: "Mumbai"}.Empty())
	assert.False(t, TravelSearchFilters{Offset: 12}.Empty())
}

package repository

import (
	"testing"
	"time"

	"github.com/Domenick1991/travelbook/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewTravelRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewTravelRepository(pool)
	assert.NotNil(t, repo)
}

func TestSearchQuery(t *testing.T) {
	date := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	minPrice := int64(100000)

	tests := []struct {
		name     string
		filters  domain.TravelSearchFilters
		wantSQL  []string
		wantArgs int
	}{
		{
			name:     "no filters",
			filters:  domain.TravelSearchFilters{},
			wantSQL:  []string{"departure_at::date >= CURRENT_DATE", "available_seats > 0", "ORDER BY departure_at"},
			wantArgs: 0,
		},
		{
			name:     "source and destination",
			filters:  domain.TravelSearchFilters{Source: "Mumbai", Destination: "Delhi"},
			wantSQL:  []string{"source ILIKE", "destination ILIKE"},
			wantArgs: 2,
		},
		{
			name:     "kind date and price",
			filters:  domain.TravelSearchFilters{Kind: domain.TravelKindTrain, Date: &date, MinPriceCents: &minPrice},
			wantSQL:  []string{"kind =", "departure_at::date =", "price_cents >="},
			wantArgs: 3,
		},
		{
			name:     "pagination",
			filters:  domain.TravelSearchFilters{Limit: 20, Offset: 40},
			wantSQL:  []string{"LIMIT", "OFFSET"},
			wantArgs: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := searchQuery(tt.filters)
			for _, fragment := range tt.wantSQL {
				assert.Contains(t, query, fragment)
			}
			assert.Len(t, args, tt.wantArgs)
		})
	}
}

package booking

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/Domenick1991/travelbook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) CreateConfirmed(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByBookingID(ctx context.Context, bookingID string, userID int64) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) CancelAndRelease(ctx context.Context, bookingID string, userID int64) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetCatalog(ctx context.Context) ([]domain.TravelOption, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.TravelOption), args.Error(1)
}

func (m *MockCache) SetCatalog(ctx context.Context, options []domain.TravelOption) error {
	args := m.Called(ctx, options)
	return args.Error(0)
}

func (m *MockCache) InvalidateCatalog(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockCache := &MockCache{}
	mockProducer := &MockProducer{}

	service := NewBookingService(mockRepo, mockCache, mockProducer, "booking-events", 3)

	ctx := context.Background()
	input := CreateBookingInput{
		TravelID: "TR1234",
		UserID:   7,
		Email:    "rider@example.com",
		Seats:    2,
	}

	// price 8500.00 for 2 seats: the repository fixes the total at booking
	// time and reduces availability from 50 to 48
	mockRepo.On("CreateConfirmed", ctx, mock.AnythingOfType("*domain.Booking")).
		Run(func(args mock.Arguments) {
			b := args.Get(1).(*domain.Booking)
			b.ID = 1
			b.TravelOptionID = 10
			b.TotalPriceCents = 1700000
			b.Status = domain.BookingStatusConfirmed
		}).Return(nil).Once()
	mockCache.On("InvalidateCatalog", ctx).Return(nil).Once()
	mockProducer.On("Publish", ctx, "booking-events", mock.Anything, mock.Anything).Return(nil).Once()

	booking, err := service.CreateBooking(ctx, input)

	assert.NoError(t, err)
	assert.NotNil(t, booking)
	assert.Equal(t, domain.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, int64(1700000), booking.TotalPriceCents)
	assert.Equal(t, input.Seats, booking.Seats)
	assert.Regexp(t, regexp.MustCompile(`^BK[0-9A-F]{8}$`), booking.BookingID)

	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_ValidationErrors(t *testing.T) {
	service := NewBookingService(&MockBookingRepository{}, nil, nil, "", 1)
	ctx := context.Background()

	testCases := []struct {
		name  string
		input CreateBookingInput
	}{
		{
			name:  "zero seats",
			input: CreateBookingInput{TravelID: "TR1234", UserID: 7, Seats: 0},
		},
		{
			name:  "negative seats",
			input: CreateBookingInput{TravelID: "TR1234", UserID: 7, Seats: -5},
		},
		{
			name:  "too many seats",
			input: CreateBookingInput{TravelID: "TR1234", UserID: 7, Seats: 11},
		},
		{
			name:  "missing travel id",
			input: CreateBookingInput{UserID: 7, Seats: 2},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			booking, err := service.CreateBooking(ctx, tc.input)
			assert.Nil(t, booking)
			assert.True(t, domain.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestBookingService_CreateBooking_NotEnoughSeats(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockCache := &MockCache{}
	mockProducer := &MockProducer{}

	service := NewBookingService(mockRepo, mockCache, mockProducer, "booking-events", 3)

	ctx := context.Background()
	mockRepo.On("CreateConfirmed", ctx, mock.AnythingOfType("*domain.Booking")).
		Return(domain.ErrNotEnoughSeats).Once()

	booking, err := service.CreateBooking(ctx, CreateBookingInput{TravelID: "TR1234", UserID: 7, Seats: 5})

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, domain.ErrNotEnoughSeats)

	// no mutation happened, so nothing to invalidate or announce
	mockCache.AssertNotCalled(t, "InvalidateCatalog", mock.Anything)
	mockProducer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestBookingService_CreateBooking_RetriesTransientConflicts(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockCache := &MockCache{}
	mockProducer := &MockProducer{}

	service := NewBookingService(mockRepo, mockCache, mockProducer, "booking-events", 3)

	ctx := context.Background()
	mockRepo.On("CreateConfirmed", ctx, mock.AnythingOfType("*domain.Booking")).
		Return(domain.ErrTryAgain).Once()
	mockRepo.On("CreateConfirmed", ctx, mock.AnythingOfType("*domain.Booking")).
		Run(func(args mock.Arguments) {
			b := args.Get(1).(*domain.Booking)
			b.Status = domain.BookingStatusConfirmed
		}).Return(nil).Once()
	mockCache.On("InvalidateCatalog", ctx).Return(nil).Once()
	mockProducer.On("Publish", ctx, "booking-events", mock.Anything, mock.Anything).Return(nil).Once()

	booking, err := service.CreateBooking(ctx, CreateBookingInput{TravelID: "TR1234", UserID: 7, Seats: 1})

	assert.NoError(t, err)
	assert.NotNil(t, booking)
	mockRepo.AssertExpectations(t)
}

func TestBookingService_CreateBooking_RetriesExhausted(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	service := NewBookingService(mockRepo, nil, nil, "", 3)

	ctx := context.Background()
	mockRepo.On("CreateConfirmed", ctx, mock.AnythingOfType("*domain.Booking")).
		Return(domain.ErrTryAgain).Times(3)

	booking, err := service.CreateBooking(ctx, CreateBookingInput{TravelID: "TR1234", UserID: 7, Seats: 1})

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, domain.ErrTryAgain)
	mockRepo.AssertExpectations(t)
}

func TestBookingService_CancelBooking_Success(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockCache := &MockCache{}
	mockProducer := &MockProducer{}

	service := NewBookingService(mockRepo, mockCache, mockProducer, "booking-events", 3,
		WithNotificationsTopic("booking-notifications"))

	ctx := context.Background()
	cancelled := &domain.Booking{
		ID:        1,
		BookingID: "BKDEADBEEF",
		UserID:    7,
		TravelID:  "TR1234",
		Seats:     3,
		Status:    domain.BookingStatusCancelled,
	}

	mockRepo.On("CancelAndRelease", ctx, "BKDEADBEEF", int64(7)).Return(cancelled, nil).Once()
	mockCache.On("InvalidateCatalog", ctx).Return(nil).Once()
	mockProducer.On("Publish", ctx, "booking-events", "BKDEADBEEF", mock.Anything).Return(nil).Once()
	mockProducer.On("Publish", ctx, "booking-notifications", "BKDEADBEEF", mock.Anything).Return(nil).Once()

	booking, err := service.CancelBooking(ctx, CancelBookingInput{BookingID: "BKDEADBEEF", UserID: 7})

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, booking.Status)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
	mockProducer.AssertExpectations(t)
}

func TestBookingService_CancelBooking_AlreadyCancelled(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	mockCache := &MockCache{}
	mockProducer := &MockProducer{}

	service := NewBookingService(mockRepo, mockCache, mockProducer, "booking-events", 3)

	ctx := context.Background()
	existing := &domain.Booking{
		BookingID: "BKDEADBEEF",
		UserID:    7,
		Seats:     3,
		Status:    domain.BookingStatusCancelled,
	}
	mockRepo.On("CancelAndRelease", ctx, "BKDEADBEEF", int64(7)).
		Return(existing, domain.ErrAlreadyCancelled).Once()

	booking, err := service.CancelBooking(ctx, CancelBookingInput{BookingID: "BKDEADBEEF", UserID: 7})

	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	assert.Equal(t, existing, booking)

	// no second refund: seats stay put, nothing published
	mockCache.AssertNotCalled(t, "InvalidateCatalog", mock.Anything)
	mockProducer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestBookingService_CancelBooking_NotFound(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	service := NewBookingService(mockRepo, nil, nil, "", 3)

	ctx := context.Background()
	mockRepo.On("CancelAndRelease", ctx, "BKMISSING1", int64(7)).
		Return(nil, domain.NotFoundError{Resource: "booking"}).Once()

	booking, err := service.CancelBooking(ctx, CancelBookingInput{BookingID: "BKMISSING1", UserID: 7})

	assert.Nil(t, booking)
	assert.True(t, domain.IsNotFound(err))
	mockRepo.AssertExpectations(t)
}

func TestBookingService_ListBookings(t *testing.T) {
	mockRepo := &MockBookingRepository{}
	service := NewBookingService(mockRepo, nil, nil, "", 3)

	ctx := context.Background()
	bookings := []domain.Booking{
		{BookingID: "BK22222222", UserID: 7},
		{BookingID: "BK11111111", UserID: 7},
	}
	mockRepo.On("ListByUser", ctx, int64(7)).Return(bookings, nil).Once()

	result, err := service.ListBookings(ctx, 7)

	assert.NoError(t, err)
	assert.Equal(t, bookings, result)
	mockRepo.AssertExpectations(t)
}

// seatCountingRepo mirrors the conditional-decrement semantics of the
// Postgres repository so the race over the last seat can be exercised
// in-process.
type seatCountingRepo struct {
	mu        sync.Mutex
	available int
}

func (r *seatCountingRepo) CreateConfirmed(ctx context.Context, booking *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.available < booking.Seats {
		return domain.ErrNotEnoughSeats
	}
	r.available -= booking.Seats
	booking.Status = domain.BookingStatusConfirmed
	return nil
}

func (r *seatCountingRepo) GetByBookingID(ctx context.Context, bookingID string, userID int64) (*domain.Booking, error) {
	return nil, domain.NotFoundError{Resource: "booking"}
}

func (r *seatCountingRepo) CancelAndRelease(ctx context.Context, bookingID string, userID int64) (*domain.Booking, error) {
	return nil, domain.NotFoundError{Resource: "booking"}
}

func (r *seatCountingRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return nil, nil
}

func TestBookingService_CreateBooking_LastSeatRace(t *testing.T) {
	repo := &seatCountingRepo{available: 1}
	service := NewBookingService(repo, nil, nil, "", 3)

	ctx := context.Background()
	results := make(chan error, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.CreateBooking(ctx, CreateBookingInput{TravelID: "TR1234", UserID: 7, Seats: 1})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, refusals int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrNotEnoughSeats):
			refusals++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes, "exactly one booking may win the last seat")
	assert.Equal(t, 1, refusals)
	assert.Equal(t, 0, repo.available)
}

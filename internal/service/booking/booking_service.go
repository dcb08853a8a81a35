package booking

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/Domenick1991/travelbook/internal/domain"
	"github.com/Domenick1991/travelbook/internal/kafka"
	"github.com/Domenick1991/travelbook/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, input CancelBookingInput) (*domain.Booking, error)
	ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error)
}

type Cache interface {
	GetCatalog(ctx context.Context) ([]domain.TravelOption, error)
	SetCatalog(ctx context.Context, options []domain.TravelOption) error
	InvalidateCatalog(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	maxRetries         int
	log                *zap.Logger
}

type CreateBookingInput struct {
	TravelID         string          `json:"travel_id"`
	UserID           int64           `json:"-"`
	Email            string          `json:"-"`
	Seats            int             `json:"seats"`
	PassengerDetails json.RawMessage `json:"passenger_details"`
}

type CancelBookingInput struct {
	BookingID string
	UserID    int64
	Email     string
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithLogger(log *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	cache Cache,
	producer Producer,
	bookingTopic string,
	maxRetries int,
	opts ...BookingServiceOption,
) *BookingService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	service := &BookingService{
		bookings:     bookings,
		cache:        cache,
		producer:     producer,
		bookingTopic: bookingTopic,
		maxRetries:   maxRetries,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.TravelID == "" {
		return nil, domain.ValidationError{Field: "travel_id", Msg: "is required"}
	}
	if input.Seats < domain.MinSeatsPerBooking {
		return nil, domain.ValidationError{Field: "seats", Msg: "must book at least 1 seat"}
	}
	if input.Seats > domain.MaxSeatsPerBooking {
		return nil, domain.ValidationError{Field: "seats", Msg: "cannot book more than 10 seats"}
	}

	var booking *domain.Booking
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		b := &domain.Booking{
			BookingID:        newBookingID(),
			UserID:           input.UserID,
			TravelID:         input.TravelID,
			Seats:            input.Seats,
			PassengerDetails: input.PassengerDetails,
		}
		err := s.bookings.CreateConfirmed(ctx, b)
		if err == nil {
			booking = b
			break
		}
		// serialization failures and booking_id collisions get a fresh try
		if errors.Is(err, domain.ErrTryAgain) || domain.IsConflict(err) {
			s.log.Warn("retrying booking create", zap.String("travel_id", input.TravelID), zap.Error(err))
			continue
		}
		return nil, err
	}
	if booking == nil {
		return nil, domain.ErrTryAgain
	}

	if s.cache != nil {
		if err := s.cache.InvalidateCatalog(ctx); err != nil {
			s.log.Warn("invalidate catalog cache", zap.Error(err))
		}
	}
	s.publish(ctx, "booking_created", booking, input.Email)
	return booking, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, input CancelBookingInput) (*domain.Booking, error) {
	if input.BookingID == "" {
		return nil, domain.ValidationError{Field: "booking_id", Msg: "is required"}
	}

	var (
		booking *domain.Booking
		err     error
	)
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		booking, err = s.bookings.CancelAndRelease(ctx, input.BookingID, input.UserID)
		if !errors.Is(err, domain.ErrTryAgain) {
			break
		}
		s.log.Warn("retrying booking cancel", zap.String("booking_id", input.BookingID))
	}
	if err != nil {
		// a repeat cancel is a reported no-op, never a second refund
		if errors.Is(err, domain.ErrAlreadyCancelled) {
			return booking, err
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateCatalog(ctx); err != nil {
			s.log.Warn("invalidate catalog cache", zap.Error(err))
		}
	}
	s.publish(ctx, "booking_cancelled", booking, input.Email)
	return booking, nil
}

func (s *BookingService) ListBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, email string) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:            eventType,
		BookingID:       booking.BookingID,
		TravelID:        booking.TravelID,
		UserID:          booking.UserID,
		Email:           email,
		Seats:           booking.Seats,
		TotalPriceCents: booking.TotalPriceCents,
		Status:          string(booking.Status),
		CreatedAt:       booking.CreatedAt,
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.BookingID, event); err != nil {
		s.log.Warn("publish booking event", zap.String("type", eventType), zap.String("booking_id", booking.BookingID), zap.Error(err))
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.BookingID, event); err != nil {
			s.log.Warn("publish notification event", zap.String("type", eventType), zap.String("booking_id", booking.BookingID), zap.Error(err))
		}
	}
}

// newBookingID returns a short human-readable code. Collisions are rare and
// the unique index on booking_id catches the rest, which surfaces as a
// conflict and triggers a retry with a fresh code.
func newBookingID() string {
	return "BK" + strings.ToUpper(uuid.NewString()[:8])
}

var _ BookingUseCase = (*BookingService)(nil)

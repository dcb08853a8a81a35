package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/travelbook/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	// CreateConfirmed reserves seats and records the booking in one
	// transaction. The travel row is locked for the read-validate-decrement
	// sequence, so two concurrent bookings can never oversell.
	CreateConfirmed(ctx context.Context, booking *domain.Booking) error
	GetByBookingID(ctx context.Context, bookingID string, userID int64) (*domain.Booking, error)
	// CancelAndRelease flips the booking to cancelled and restores its
	// seats, atomically. Returns domain.ErrAlreadyCancelled (with the
	// unchanged booking) when there is nothing to do.
	CancelAndRelease(ctx context.Context, bookingID string, userID int64) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `b.id, b.booking_id, b.user_id, b.travel_option_id, t.travel_id, b.seats, b.total_price_cents, b.status, b.passenger_details, b.created_at, b.updated_at`

func (r *PGBookingRepository) CreateConfirmed(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var (
		optionID   int64
		priceCents int64
		available  int
	)
	err = tx.QueryRow(ctx, `SELECT id, price_cents, available_seats FROM travel_options WHERE travel_id=$1 FOR UPDATE`, booking.TravelID).
		Scan(&optionID, &priceCents, &available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NotFoundError{Resource: "travel option"}
		}
		return retryableErr(err)
	}
	if available < booking.Seats {
		return domain.ErrNotEnoughSeats
	}

	cmd, err := tx.Exec(ctx, `UPDATE travel_options SET available_seats = available_seats - $1, updated_at = now() WHERE id=$2 AND available_seats >= $1`, booking.Seats, optionID)
	if err != nil {
		return retryableErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotEnoughSeats
	}

	booking.TravelOptionID = optionID
	booking.TotalPriceCents = priceCents * int64(booking.Seats)
	booking.Status = domain.BookingStatusConfirmed
	if len(booking.PassengerDetails) == 0 {
		booking.PassengerDetails = []byte("{}")
	}

	err = tx.QueryRow(ctx, `INSERT INTO bookings (booking_id, user_id, travel_option_id, seats, total_price_cents, status, passenger_details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		booking.BookingID, booking.UserID, optionID, booking.Seats, booking.TotalPriceCents, booking.Status, booking.PassengerDetails).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ConflictError{Resource: "booking", Msg: "booking_id already exists"}
		}
		return retryableErr(err)
	}

	return retryableErr(tx.Commit(ctx))
}

func (r *PGBookingRepository) GetByBookingID(ctx context.Context, bookingID string, userID int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings b
		JOIN travel_options t ON t.id = b.travel_option_id
		WHERE b.booking_id=$1 AND b.user_id=$2`, bookingID, userID)
	var b domain.Booking
	if err := scanBooking(row, &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundError{Resource: "booking"}
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) CancelAndRelease(ctx context.Context, bookingID string, userID int64) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings b
		JOIN travel_options t ON t.id = b.travel_option_id
		WHERE b.booking_id=$1 AND b.user_id=$2 FOR UPDATE OF b`, bookingID, userID)
	var b domain.Booking
	if err := scanBooking(row, &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundError{Resource: "booking"}
		}
		return nil, retryableErr(err)
	}

	if b.Status == domain.BookingStatusCancelled {
		return &b, domain.ErrAlreadyCancelled
	}

	if err := tx.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 RETURNING updated_at`,
		domain.BookingStatusCancelled, b.ID).Scan(&b.UpdatedAt); err != nil {
		return nil, retryableErr(err)
	}
	if _, err := tx.Exec(ctx, `UPDATE travel_options SET available_seats = available_seats + $1, updated_at = now() WHERE id=$2`,
		b.Seats, b.TravelOptionID); err != nil {
		return nil, retryableErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, retryableErr(err)
	}
	b.Status = domain.BookingStatusCancelled
	return &b, nil
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings b
		JOIN travel_options t ON t.id = b.travel_option_id
		WHERE b.user_id=$1 ORDER BY b.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanBooking(row pgx.Row, b *domain.Booking) error {
	return row.Scan(&b.ID, &b.BookingID, &b.UserID, &b.TravelOptionID, &b.TravelID, &b.Seats,
		&b.TotalPriceCents, &b.Status, &b.PassengerDetails, &b.CreatedAt, &b.UpdatedAt)
}

// retryableErr maps serialization failures and deadlocks to ErrTryAgain so
// the service layer can re-run the transaction a bounded number of times.
func retryableErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return domain.ErrTryAgain
		}
	}
	return err
}

var _ BookingRepository = (*PGBookingRepository)(nil)
